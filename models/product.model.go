package models

import (
	"strings"
	"time"

	"go-storefront/apperr"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Review is a customer rating embedded in its product
type Review struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	User      primitive.ObjectID `bson:"user" json:"user"`
	Name      string             `bson:"name" json:"name"`
	Rating    int                `bson:"rating" json:"rating"` // 1..5
	Comment   string             `bson:"comment" json:"comment"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// Product represents a catalog entry
type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name        string             `bson:"name" json:"name"`
	Slug        string             `bson:"slug" json:"slug"`
	Category    string             `bson:"category" json:"category"`
	Query       string             `bson:"query" json:"-"` // lower-cased name
	Image       string             `bson:"image" json:"image"`
	Price       float64            `bson:"price" json:"price"`
	Stock       int                `bson:"stock" json:"stock"`
	Brand       string             `bson:"brand" json:"brand"`
	Rating      float64            `bson:"rating" json:"rating"`
	NumReviews  int                `bson:"numReviews" json:"numReviews"`
	Description string             `bson:"description" json:"description"`
	Reviews     []Review           `bson:"reviews" json:"reviews"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Validate checks the rating range and that a comment is present
func (r Review) Validate() error {
	if r.Rating == 0 || strings.TrimSpace(r.Comment) == "" {
		return apperr.Validationf("Rating and comment are required")
	}
	if r.Rating < 1 || r.Rating > 5 {
		return apperr.Validationf("Rating must be between 1 and 5")
	}
	return nil
}

// AddReview appends r and recomputes Rating and NumReviews from the full list.
func (p *Product) AddReview(r Review) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	p.Reviews = append(p.Reviews, r)
	p.recomputeRating()
	return nil
}

func (p *Product) recomputeRating() {
	p.NumReviews = len(p.Reviews)
	if p.NumReviews == 0 {
		p.Rating = 0
		return
	}
	sum := 0
	for _, r := range p.Reviews {
		sum += r.Rating
	}
	p.Rating = float64(sum) / float64(p.NumReviews)
}

// ProductInput is the create payload. Price and Stock are pointers so that a
// missing value can be told apart from zero.
type ProductInput struct {
	Name        string   `json:"name"`
	Slug        string   `json:"slug"`
	Category    string   `json:"category"`
	Image       string   `json:"image"`
	Price       *float64 `json:"price"`
	Stock       *int     `json:"stock"`
	Brand       string   `json:"brand"`
	Description string   `json:"description"`
}

// Product validates the input and builds a new product with empty review state.
func (in ProductInput) Product() (Product, error) {
	if blank(in.Name) || blank(in.Slug) || blank(in.Image) || blank(in.Category) ||
		blank(in.Brand) || blank(in.Description) || in.Price == nil || in.Stock == nil {
		return Product{}, apperr.Validationf("All fields are required")
	}
	if *in.Price < 0 || *in.Stock < 0 {
		return Product{}, apperr.Validationf("Price and stock must not be negative")
	}
	name := strings.TrimSpace(in.Name)
	return Product{
		Name:        name,
		Slug:        strings.TrimSpace(in.Slug),
		Category:    strings.TrimSpace(in.Category),
		Query:       strings.ToLower(name),
		Image:       strings.TrimSpace(in.Image),
		Price:       *in.Price,
		Stock:       *in.Stock,
		Brand:       strings.TrimSpace(in.Brand),
		Description: in.Description,
		Reviews:     []Review{},
	}, nil
}

// ProductUpdate is a partial edit; nil fields are left unchanged.
type ProductUpdate struct {
	Name        *string  `json:"name"`
	Slug        *string  `json:"slug"`
	Category    *string  `json:"category"`
	Image       *string  `json:"image"`
	Price       *float64 `json:"price"`
	Stock       *int     `json:"stock"`
	Brand       *string  `json:"brand"`
	Description *string  `json:"description"`
}

// SetFields validates the provided fields and returns them as a $set document.
func (u ProductUpdate) SetFields() (bson.M, error) {
	set := bson.M{}
	strs := []struct {
		key string
		val *string
	}{
		{"name", u.Name}, {"slug", u.Slug}, {"category", u.Category},
		{"image", u.Image}, {"brand", u.Brand}, {"description", u.Description},
	}
	for _, s := range strs {
		if s.val == nil {
			continue
		}
		if blank(*s.val) {
			return nil, apperr.Validationf("%s must not be empty", s.key)
		}
		set[s.key] = strings.TrimSpace(*s.val)
	}
	if u.Name != nil {
		set["query"] = strings.ToLower(strings.TrimSpace(*u.Name))
	}
	if u.Price != nil {
		if *u.Price < 0 {
			return nil, apperr.Validationf("price must not be negative")
		}
		set["price"] = *u.Price
	}
	if u.Stock != nil {
		if *u.Stock < 0 {
			return nil, apperr.Validationf("stock must not be negative")
		}
		set["stock"] = *u.Stock
	}
	if len(set) == 0 {
		return nil, apperr.Validationf("No fields to update")
	}
	return set, nil
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
