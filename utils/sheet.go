package utils

import (
	"io"
	"strconv"
	"strings"

	"go-storefront/apperr"
	"go-storefront/models"

	"github.com/xuri/excelize/v2"
)

var productColumns = []string{"name", "slug", "category", "brand", "price", "stock", "image", "description"}

// ParseProductSheet reads products from the first sheet of an xlsx workbook.
// The first row is a header naming the columns; order does not matter and
// unknown columns are ignored. Empty rows are skipped.
func ParseProductSheet(r io.Reader) ([]models.ProductInput, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.Validation, "Invalid spreadsheet")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperr.Validationf("Spreadsheet has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, apperr.Wrap(err, apperr.Validation, "Invalid spreadsheet")
	}
	if len(rows) < 2 {
		return nil, apperr.Validationf("No products provided")
	}

	index := map[string]int{}
	for i, h := range rows[0] {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, col := range productColumns {
		if _, ok := index[col]; !ok {
			return nil, apperr.Validationf("Missing column %q", col)
		}
	}

	var out []models.ProductInput
	for n, row := range rows[1:] {
		cell := func(col string) string {
			i := index[col]
			if i < len(row) {
				return strings.TrimSpace(row[i])
			}
			return ""
		}
		if strings.Join(row, "") == "" {
			continue
		}
		in := models.ProductInput{
			Name:        cell("name"),
			Slug:        cell("slug"),
			Category:    cell("category"),
			Brand:       cell("brand"),
			Image:       cell("image"),
			Description: cell("description"),
		}
		if v := cell("price"); v != "" {
			price, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, apperr.Validationf("Row %d: invalid price %q", n+2, v)
			}
			in.Price = &price
		}
		if v := cell("stock"); v != "" {
			stock, err := strconv.Atoi(v)
			if err != nil {
				return nil, apperr.Validationf("Row %d: invalid stock %q", n+2, v)
			}
			in.Stock = &stock
		}
		out = append(out, in)
	}
	if len(out) == 0 {
		return nil, apperr.Validationf("No products provided")
	}
	return out, nil
}
