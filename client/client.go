// Package client talks to the storefront API and keeps a shopper's cart and
// session between runs.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go-storefront/models"
	"go-storefront/reporting"
)

// APIError is a non-2xx answer from the API
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("storefront: %d %s", e.Status, e.Message)
}

// TokenSource supplies the bearer token for authenticated calls. An empty
// token sends the request anonymously.
type TokenSource interface {
	Token() string
}

// Client is a typed wrapper over the storefront HTTP API
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTokens authenticates calls with the tokens from ts, typically a Cart.
func WithTokens(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// New creates a Client for the API served at baseURL (without the /api suffix)
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SearchQuery mirrors the query string of GET /api/products/search
type SearchQuery struct {
	Q        string
	Fields   []string
	Category string
	Sort     string
	From     *float64
	To       *float64
}

func (q SearchQuery) values() url.Values {
	v := url.Values{}
	if q.Q != "" {
		v.Set("q", q.Q)
	}
	for _, f := range q.Fields {
		v.Add("fields", f)
	}
	if q.Category != "" {
		v.Set("category", q.Category)
	}
	if q.Sort != "" {
		v.Set("filter", q.Sort)
	}
	if q.From != nil {
		v.Set("from", strconv.FormatFloat(*q.From, 'f', -1, 64))
	}
	if q.To != nil {
		v.Set("to", strconv.FormatFloat(*q.To, 'f', -1, 64))
	}
	return v
}

// Signin exchanges credentials for the user's info and token
func (c *Client) Signin(ctx context.Context, email, password string) (*UserInfo, error) {
	var info UserInfo
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/users/signin", body, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Products lists the whole catalog
func (c *Client) Products(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := c.do(ctx, http.MethodGet, "/products", nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// Product fetches one product by id
func (c *Client) Product(ctx context.Context, id string) (*models.Product, error) {
	var p models.Product
	if err := c.do(ctx, http.MethodGet, "/products/"+url.PathEscape(id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Search runs a catalog search
func (c *Client) Search(ctx context.Context, q SearchQuery) ([]models.Product, error) {
	path := "/products/search"
	if v := q.values(); len(v) > 0 {
		path += "?" + v.Encode()
	}
	var products []models.Product
	if err := c.do(ctx, http.MethodGet, path, nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// PlaceOrder creates an order for the signed-in user
func (c *Client) PlaceOrder(ctx context.Context, in models.OrderInput) (*models.Order, error) {
	var order models.Order
	if err := c.do(ctx, http.MethodPost, "/orders", in, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// MyOrders lists the signed-in user's orders
func (c *Client) MyOrders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	if err := c.do(ctx, http.MethodGet, "/orders/mine", nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// Summary fetches the admin dashboard
func (c *Client) Summary(ctx context.Context) (*reporting.Summary, error) {
	var s reporting.Summary
	if err := c.do(ctx, http.MethodGet, "/orders/summary", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/api"+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		apiErr := &APIError{Status: res.StatusCode}
		var msg struct {
			Message string `json:"message"`
		}
		if json.NewDecoder(res.Body).Decode(&msg) == nil && msg.Message != "" {
			apiErr.Message = msg.Message
		} else {
			apiErr.Message = http.StatusText(res.StatusCode)
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
