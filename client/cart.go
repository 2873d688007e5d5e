package client

import (
	"context"
	"errors"
	"sync"

	"go-storefront/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrOutOfStock is returned when a product cannot cover the requested quantity
var ErrOutOfStock = errors.New("Sorry. Product is out of stock")

// UserInfo is the signed-in user as returned by signin
type UserInfo struct {
	ID      string `json:"_id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
	Token   string `json:"token"`
}

// CartItem is one cart line: the item snapshot plus the stock seen when it was added
type CartItem struct {
	models.OrderItem
	Stock int `json:"stock"`
}

// State is everything a Cart persists
type State struct {
	UserInfo        *UserInfo              `json:"userInfo,omitempty"`
	CartItems       []CartItem             `json:"cartItems"`
	ShippingAddress models.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string                 `json:"paymentMethod"`
}

func (s State) clone() State {
	out := s
	out.CartItems = append([]CartItem(nil), s.CartItems...)
	if s.UserInfo != nil {
		u := *s.UserInfo
		out.UserInfo = &u
	}
	return out
}

// Persister stores a Cart's state between runs
type Persister interface {
	Load() (State, error)
	Save(State) error
}

// ProductLookup fetches a product's live record
type ProductLookup interface {
	Product(ctx context.Context, id string) (*models.Product, error)
}

// Cart holds the shopper's session and cart. Every change is saved through
// the Persister before it becomes visible; a failed save leaves the cart as
// it was.
type Cart struct {
	mu    sync.RWMutex
	state State
	store Persister
}

// NewCart loads the saved state from p
func NewCart(p Persister) (*Cart, error) {
	state, err := p.Load()
	if err != nil {
		return nil, err
	}
	return &Cart{state: state, store: p}, nil
}

func (c *Cart) update(fn func(*State)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := c.state.clone()
	fn(&next)
	if err := c.store.Save(next); err != nil {
		return err
	}
	c.state = next
	return nil
}

// State returns a copy of the current state
func (c *Cart) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.clone()
}

// Token implements TokenSource
func (c *Cart) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state.UserInfo == nil {
		return ""
	}
	return c.state.UserInfo.Token
}

// Items returns the cart lines
func (c *Cart) Items() []CartItem {
	return c.State().CartItems
}

// Add puts item in the cart, replacing any line for the same product
func (c *Cart) Add(item CartItem) error {
	return c.update(func(s *State) {
		for i := range s.CartItems {
			if s.CartItems[i].Product == item.Product {
				s.CartItems[i] = item
				return
			}
		}
		s.CartItems = append(s.CartItems, item)
	})
}

// AddChecked fetches the product, refuses quantities above its stock, and
// adds a line snapshotting the product.
func (c *Cart) AddChecked(ctx context.Context, products ProductLookup, productID string, quantity int) error {
	p, err := products.Product(ctx, productID)
	if err != nil {
		return err
	}
	if quantity < 1 || p.Stock < quantity {
		return ErrOutOfStock
	}
	return c.Add(CartItem{
		OrderItem: models.OrderItem{
			Slug:     p.Slug,
			Name:     p.Name,
			Quantity: quantity,
			Image:    p.Image,
			Price:    p.Price,
			Product:  p.ID,
		},
		Stock: p.Stock,
	})
}

// Remove drops the line for product
func (c *Cart) Remove(product primitive.ObjectID) error {
	return c.update(func(s *State) {
		kept := s.CartItems[:0]
		for _, it := range s.CartItems {
			if it.Product != product {
				kept = append(kept, it)
			}
		}
		s.CartItems = kept
	})
}

// Clear empties the cart after an order was placed
func (c *Cart) Clear() error {
	return c.update(func(s *State) { s.CartItems = nil })
}

// SaveShippingAddress remembers where the next order ships to
func (c *Cart) SaveShippingAddress(a models.ShippingAddress) error {
	return c.update(func(s *State) { s.ShippingAddress = a })
}

// SavePaymentMethod remembers the chosen payment method
func (c *Cart) SavePaymentMethod(method string) error {
	return c.update(func(s *State) { s.PaymentMethod = method })
}

// SignIn records the signed-in user
func (c *Cart) SignIn(u UserInfo) error {
	return c.update(func(s *State) { s.UserInfo = &u })
}

// SignOut forgets the user together with the cart, address and payment method.
func (c *Cart) SignOut() error {
	return c.update(func(s *State) { *s = State{} })
}

// Prices quotes the cart the way checkout does
func (c *Cart) Prices() models.Totals {
	items := c.Items()
	lines := make([]models.OrderItem, len(items))
	for i, it := range items {
		lines[i] = it.OrderItem
	}
	return models.QuoteTotals(lines)
}

// OrderRequest builds the create-order body from the cart
func (c *Cart) OrderRequest() models.OrderInput {
	s := c.State()
	lines := make([]models.OrderItem, len(s.CartItems))
	for i, it := range s.CartItems {
		lines[i] = it.OrderItem
	}
	t := models.QuoteTotals(lines)
	return models.OrderInput{
		OrderItems:      lines,
		ShippingAddress: s.ShippingAddress,
		PaymentMethod:   s.PaymentMethod,
		ItemsPrice:      t.ItemsPrice,
		ShippingPrice:   t.ShippingPrice,
		TaxPrice:        t.TaxPrice,
		TotalPrice:      t.TotalPrice,
	}
}
