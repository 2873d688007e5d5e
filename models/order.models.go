package models

import (
	"time"

	"go-storefront/apperr"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderItem is a snapshot of a product at purchase time
type OrderItem struct {
	Slug     string             `bson:"slug" json:"slug"`
	Name     string             `bson:"name" json:"name"`
	Quantity int                `bson:"quantity" json:"quantity"`
	Image    string             `bson:"image" json:"image"`
	Price    float64            `bson:"price" json:"price"`
	Product  primitive.ObjectID `bson:"product" json:"product"`
}

// ShippingAddress is copied into each order
type ShippingAddress struct {
	FullName   string `bson:"fullName" json:"fullName"`
	Address    string `bson:"address" json:"address"`
	City       string `bson:"city" json:"city"`
	PostalCode string `bson:"postalCode" json:"postalCode"`
	Country    string `bson:"country" json:"country"`
}

// PaymentResult is what the payment gateway reported when the order was paid
type PaymentResult struct {
	ID           string `bson:"id" json:"id"`
	Status       string `bson:"status" json:"status"`
	UpdateTime   string `bson:"update_time" json:"update_time"`
	EmailAddress string `bson:"email_address" json:"email_address"`
}

// Order represents a placed order
type Order struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	OrderItems      []OrderItem        `bson:"orderItems" json:"orderItems"`
	ShippingAddress ShippingAddress    `bson:"shippingAddress" json:"shippingAddress"`
	PaymentMethod   string             `bson:"paymentMethod" json:"paymentMethod"`
	PaymentResult   *PaymentResult     `bson:"paymentResult,omitempty" json:"paymentResult,omitempty"`
	ItemsPrice      float64            `bson:"itemsPrice" json:"itemsPrice"`
	ShippingPrice   float64            `bson:"shippingPrice" json:"shippingPrice"`
	TaxPrice        float64            `bson:"taxPrice" json:"taxPrice"`
	TotalPrice      float64            `bson:"totalPrice" json:"totalPrice"`
	User            primitive.ObjectID `bson:"user" json:"user"`
	IsPaid          bool               `bson:"isPaid" json:"isPaid"`
	PaidAt          *time.Time         `bson:"paidAt,omitempty" json:"paidAt,omitempty"`
	IsDelivered     bool               `bson:"isDelivered" json:"isDelivered"`
	DeliveredAt     *time.Time         `bson:"deliveredAt,omitempty" json:"deliveredAt,omitempty"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// UserRef is the part of a user joined into order listings
type UserRef struct {
	ID    primitive.ObjectID `bson:"_id" json:"_id"`
	Name  string             `bson:"name" json:"name"`
	Email string             `bson:"email" json:"email"`
}

// OrderWithUser is an order with its purchaser joined in. In JSON the joined
// user takes the place of the bare "user" id.
type OrderWithUser struct {
	Order    `bson:",inline"`
	Customer *UserRef `bson:"customer,omitempty" json:"user,omitempty"`
}

// OrderInput is the create-order payload
type OrderInput struct {
	OrderItems      []OrderItem     `json:"orderItems"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string          `json:"paymentMethod"`
	ItemsPrice      float64         `json:"itemsPrice"`
	ShippingPrice   float64         `json:"shippingPrice"`
	TaxPrice        float64         `json:"taxPrice"`
	TotalPrice      float64         `json:"totalPrice"`
}

// Order validates the input and builds an unpaid, undelivered order for user.
// Totals are taken as submitted.
func (in OrderInput) Order(user primitive.ObjectID) (Order, error) {
	if len(in.OrderItems) == 0 {
		return Order{}, apperr.Validationf("No order items")
	}
	for _, it := range in.OrderItems {
		if blank(it.Name) || blank(it.Slug) || blank(it.Image) {
			return Order{}, apperr.Validationf("Order items need a name, slug and image")
		}
		if it.Product.IsZero() {
			return Order{}, apperr.Validationf("Order item %q has no product reference", it.Slug)
		}
		if it.Quantity < 1 || it.Price < 0 {
			return Order{}, apperr.Validationf("Order item %q has an invalid quantity or price", it.Slug)
		}
	}
	a := in.ShippingAddress
	if blank(a.FullName) || blank(a.Address) || blank(a.City) || blank(a.PostalCode) || blank(a.Country) {
		return Order{}, apperr.Validationf("Shipping address is incomplete")
	}
	if blank(in.PaymentMethod) {
		return Order{}, apperr.Validationf("Payment method is required")
	}
	if in.ItemsPrice < 0 || in.ShippingPrice < 0 || in.TaxPrice < 0 || in.TotalPrice < 0 {
		return Order{}, apperr.Validationf("Prices must not be negative")
	}
	return Order{
		OrderItems:      in.OrderItems,
		ShippingAddress: in.ShippingAddress,
		PaymentMethod:   in.PaymentMethod,
		ItemsPrice:      in.ItemsPrice,
		ShippingPrice:   in.ShippingPrice,
		TaxPrice:        in.TaxPrice,
		TotalPrice:      in.TotalPrice,
		User:            user,
	}, nil
}
