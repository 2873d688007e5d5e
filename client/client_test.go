package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"go-storefront/models"
	"go-storefront/reporting"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func TestClientCalls(t *testing.T) {
	productID := primitive.NewObjectID()
	var (
		mu        sync.Mutex
		lastQuery url.Values
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		lastQuery = r.URL.Query()
		mu.Unlock()
		switch r.Method + " " + r.URL.Path {
		case "POST /api/users/signin":
			var creds map[string]string
			_ = json.NewDecoder(r.Body).Decode(&creds)
			if creds["password"] != "secret1" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid email or password"})
				return
			}
			writeJSON(w, http.StatusOK, UserInfo{ID: "u1", Name: "Amira", Email: creds["email"], Token: "tok"})
		case "GET /api/products":
			writeJSON(w, http.StatusOK, []models.Product{{ID: productID, Slug: "snail-cream"}})
		case "GET /api/products/" + productID.Hex():
			writeJSON(w, http.StatusOK, models.Product{ID: productID, Slug: "snail-cream", Stock: 4})
		case "GET /api/products/search":
			writeJSON(w, http.StatusOK, []models.Product{})
		case "GET /api/orders/mine":
			if r.Header.Get("Authorization") != "Bearer tok" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "No Token"})
				return
			}
			writeJSON(w, http.StatusOK, []models.Order{{ID: primitive.NewObjectID()}})
		case "GET /api/orders/summary":
			writeJSON(w, http.StatusOK, reporting.Summary{Overview: reporting.Overview{NumOrders: 7}})
		default:
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer srv.Close()
	ctx := context.Background()

	anon := New(srv.URL + "/")
	info, err := anon.Signin(ctx, "amira@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "tok", info.Token)

	_, err = anon.Signin(ctx, "amira@example.com", "nope")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "Invalid email or password", apiErr.Message)

	products, err := anon.Products(ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)

	p, err := anon.Product(ctx, productID.Hex())
	require.NoError(t, err)
	assert.Equal(t, 4, p.Stock)

	from := 10.5
	_, err = anon.Search(ctx, SearchQuery{Q: "cream", Fields: []string{"name", "brand"}, Category: "Skincare", Sort: "lowprice", From: &from})
	require.NoError(t, err)
	mu.Lock()
	q := lastQuery
	mu.Unlock()
	assert.Equal(t, "cream", q.Get("q"))
	assert.Equal(t, []string{"name", "brand"}, q["fields"])
	assert.Equal(t, "Skincare", q.Get("category"))
	assert.False(t, q.Has("Cg"))
	assert.Equal(t, "lowprice", q.Get("filter"))
	assert.Equal(t, "10.5", q.Get("from"))
	assert.False(t, q.Has("to"))

	_, err = anon.MyOrders(ctx)
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "No Token", apiErr.Message)

	authed := New(srv.URL, WithTokens(staticToken("tok")))
	orders, err := authed.MyOrders(ctx)
	require.NoError(t, err)
	assert.Len(t, orders, 1)

	summary, err := authed.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(7), summary.Overview.NumOrders)

	_, err = authed.PlaceOrder(ctx, models.OrderInput{})
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "Bad Gateway", apiErr.Message)
}

func TestClientUsesCartSession(t *testing.T) {
	auths := make(chan string, 2)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auths <- r.Header.Get("Authorization")
		writeJSON(w, http.StatusCreated, models.Order{ID: primitive.NewObjectID(), TotalPrice: 55.98})
	}))
	defer srv.Close()

	cart, err := NewCart(&MemoryPersister{})
	require.NoError(t, err)
	c := New(srv.URL, WithTokens(cart))

	_, err = c.PlaceOrder(context.Background(), cart.OrderRequest())
	require.NoError(t, err)
	assert.Empty(t, <-auths)

	require.NoError(t, cart.SignIn(UserInfo{ID: "u1", Token: "tok"}))
	order, err := c.PlaceOrder(context.Background(), cart.OrderRequest())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok", <-auths)
	assert.Equal(t, 55.98, order.TotalPrice)
}
