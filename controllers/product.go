package controllers

import (
	"context"
	"fmt"
	"net/http"

	"go-storefront/apperr"
	"go-storefront/models"
	"go-storefront/store"
	"go-storefront/utils"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// maxSheetBytes caps uploaded product spreadsheets
const maxSheetBytes = 10 << 20

// ProductStore is the catalog persistence the product handlers need
type ProductStore interface {
	List(ctx context.Context) ([]models.Product, error)
	ListPage(ctx context.Context, page, pageSize int) (*store.ProductPage, error)
	Search(ctx context.Context, q store.ProductQuery) ([]models.Product, error)
	FindBySlug(ctx context.Context, slug string) (*models.Product, error)
	FindByID(ctx context.Context, id string) (*models.Product, error)
	Create(ctx context.Context, in models.ProductInput) (*models.Product, error)
	CreateMany(ctx context.Context, inputs []models.ProductInput) ([]models.Product, error)
	AddReview(ctx context.Context, productID string, review models.Review) (*models.Review, error)
	Update(ctx context.Context, id string, u models.ProductUpdate) (*models.Product, error)
	Delete(ctx context.Context, id string) error
	DeleteMany(ctx context.Context, ids []string) (int64, error)
}

// UserFinder looks users up by id
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// ProductController handles product-related requests
type ProductController struct {
	Products ProductStore
	Users    UserFinder
}

// NewProductController creates a new ProductController
func NewProductController(products ProductStore, users UserFinder) *ProductController {
	return &ProductController{Products: products, Users: users}
}

// GetProducts retrieves all products
func (pc *ProductController) GetProducts(w http.ResponseWriter, r *http.Request) {
	products, err := pc.Products.List(r.Context())
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, products)
}

// GetAdminProducts retrieves one page of products (Admin only)
func (pc *ProductController) GetAdminProducts(w http.ResponseWriter, r *http.Request) {
	page, err := pc.Products.ListPage(r.Context(), queryInt(r, "page"), queryInt(r, "pageSize"))
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, page)
}

// SearchProducts filters the catalog by text, category and price range
func (pc *ProductController) SearchProducts(w http.ResponseWriter, r *http.Request) {
	qs := r.URL.Query()
	q := store.ProductQuery{
		Q:        qs.Get("q"),
		Fields:   qs["fields"],
		Category: qs.Get("category"),
		Sort:     qs.Get("filter"),
	}
	if q.Category == "" {
		q.Category = qs.Get("Cg")
	}
	var err error
	if q.From, err = queryFloat(r, "from"); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	if q.To, err = queryFloat(r, "to"); err != nil {
		utils.WriteError(w, r, err)
		return
	}

	products, err := pc.Products.Search(r.Context(), q)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, products)
}

// GetProductBySlug retrieves a single product by slug
func (pc *ProductController) GetProductBySlug(w http.ResponseWriter, r *http.Request) {
	product, err := pc.Products.FindBySlug(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, product)
}

// GetProductByID retrieves a single product by ID
func (pc *ProductController) GetProductByID(w http.ResponseWriter, r *http.Request) {
	product, err := pc.Products.FindByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, product)
}

// CreateProduct handles adding a new product (Admin only)
func (pc *ProductController) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var in models.ProductInput
	if err := decodeJSON(w, r, &in); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	product, err := pc.Products.Create(r.Context(), in)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	zerolog.Ctx(r.Context()).Info().Str("slug", product.Slug).Msg("product created")
	utils.WriteJSON(w, http.StatusCreated, product)
}

func (pc *ProductController) createMany(w http.ResponseWriter, r *http.Request, inputs []models.ProductInput) {
	products, err := pc.Products.CreateMany(r.Context(), inputs)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	zerolog.Ctx(r.Context()).Info().Int("count", len(products)).Msg("products created")
	utils.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Products successfully created",
		"data":    products,
	})
}

// CreateManyProducts inserts a batch of products (Admin only)
func (pc *ProductController) CreateManyProducts(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Products []models.ProductInput `json:"products"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	pc.createMany(w, r, body.Products)
}

// ImportProducts inserts the products listed in an uploaded .xlsx sheet (Admin only)
func (pc *ProductController) ImportProducts(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSheetBytes)
	file, _, err := r.FormFile("file")
	if err != nil {
		utils.WriteError(w, r, apperr.Wrap(err, apperr.Validation, "No file uploaded"))
		return
	}
	defer file.Close()

	inputs, err := utils.ParseProductSheet(file)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	pc.createMany(w, r, inputs)
}

// CreateProductReview adds the caller's review to a product
func (pc *ProductController) CreateProductReview(w http.ResponseWriter, r *http.Request) {
	id, err := caller(r)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	var body struct {
		Rating  int    `json:"rating"`
		Comment string `json:"comment"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	user, err := pc.Users.FindByID(r.Context(), id.UserID.Hex())
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}

	review, err := pc.Products.AddReview(r.Context(), mux.Vars(r)["id"], models.Review{
		User:    user.ID,
		Name:    user.Name,
		Rating:  body.Rating,
		Comment: body.Comment,
	})
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Review Created",
		"review":  review,
	})
}

// UpdateProduct merges the provided fields into a product (Admin only)
func (pc *ProductController) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var u models.ProductUpdate
	if err := decodeJSON(w, r, &u); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	product, err := pc.Products.Update(r.Context(), mux.Vars(r)["id"], u)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, product)
}

// DeleteProduct removes a product (Admin only)
func (pc *ProductController) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := pc.Products.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteMessage(w, http.StatusOK, "Product Removed")
}

// DeleteManyProducts removes every listed product (Admin only)
func (pc *ProductController) DeleteManyProducts(w http.ResponseWriter, r *http.Request) {
	var body struct {
		IDs []string `json:"ids"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	n, err := pc.Products.DeleteMany(r.Context(), body.IDs)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteMessage(w, http.StatusOK, fmt.Sprintf("%d products deleted", n))
}
