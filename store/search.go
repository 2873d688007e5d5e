package store

import (
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
)

// Sort keys accepted by product search
const (
	SortRating    = "Rating"
	SortDate      = "date"
	SortHighPrice = "highprice"
	SortLowPrice  = "lowprice"
)

var fieldPath = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*(\.[A-Za-z][A-Za-z0-9_]*)*$`)

// ProductQuery describes a catalog search
type ProductQuery struct {
	Q        string
	Fields   []string // searched fields, default name
	Category string
	From     *float64 // inclusive lower price bound
	To       *float64 // inclusive upper price bound
	Sort     string
}

// SearchFields returns the fields q is matched against. Paths that are not
// plain (optionally dotted) identifiers are dropped.
func (q ProductQuery) SearchFields() []string {
	var out []string
	for _, f := range q.Fields {
		for _, part := range strings.Split(f, ",") {
			part = strings.TrimSpace(part)
			if fieldPath.MatchString(part) {
				out = append(out, part)
			}
		}
	}
	if len(out) == 0 {
		return []string{"name"}
	}
	return out
}

// Filter builds the find filter: q is a literal, case-insensitive substring.
func (q ProductQuery) Filter() bson.M {
	filter := bson.M{}
	if term := strings.TrimSpace(q.Q); term != "" {
		re := bson.M{"$regex": regexp.QuoteMeta(term), "$options": "i"}
		or := bson.A{}
		for _, f := range q.SearchFields() {
			or = append(or, bson.M{f: re})
		}
		filter["$or"] = or
	}
	if c := strings.TrimSpace(q.Category); c != "" {
		filter["category"] = c
	}
	price := bson.M{}
	if q.From != nil {
		price["$gte"] = *q.From
	}
	if q.To != nil {
		price["$lte"] = *q.To
	}
	if len(price) > 0 {
		filter["price"] = price
	}
	return filter
}

// SortSpec returns the sort order; unknown values sort newest first.
func (q ProductQuery) SortSpec() bson.D {
	switch q.Sort {
	case SortRating:
		return bson.D{{Key: "rating", Value: -1}, {Key: "_id", Value: -1}}
	case SortHighPrice:
		return bson.D{{Key: "price", Value: -1}, {Key: "_id", Value: -1}}
	case SortLowPrice:
		return bson.D{{Key: "price", Value: 1}, {Key: "_id", Value: 1}}
	default:
		return bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}
	}
}
