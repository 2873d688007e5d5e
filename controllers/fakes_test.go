package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"go-storefront/apperr"
	"go-storefront/middleware"
	"go-storefront/models"
	"go-storefront/reporting"
	"go-storefront/store"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// serve routes a single request to h registered at pattern, as the caller id.
func serve(t *testing.T, h http.HandlerFunc, method, pattern, target string, body interface{}, id *middleware.Identity) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, r)
	if id != nil {
		req = req.WithContext(middleware.WithIdentity(req.Context(), id))
	}
	router := mux.NewRouter()
	router.HandleFunc(pattern, h).Methods(method)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func message(t *testing.T, rec *httptest.ResponseRecorder) string {
	return decode[map[string]interface{}](t, rec)["message"].(string)
}

type fakeProducts struct {
	mu        sync.Mutex
	products  map[string]*models.Product
	lastQuery store.ProductQuery
	created   []models.ProductInput
}

func newFakeProducts(ps ...models.Product) *fakeProducts {
	f := &fakeProducts{products: map[string]*models.Product{}}
	for i := range ps {
		p := ps[i]
		f.products[p.ID.Hex()] = &p
	}
	return f
}

func (f *fakeProducts) all() []models.Product {
	out := []models.Product{}
	for _, p := range f.products {
		out = append(out, *p)
	}
	return out
}

func (f *fakeProducts) List(ctx context.Context) ([]models.Product, error) { return f.all(), nil }

func (f *fakeProducts) ListPage(ctx context.Context, page, pageSize int) (*store.ProductPage, error) {
	all := f.all()
	return &store.ProductPage{Products: all, CountProducts: int64(len(all)), Page: page, Pages: 1}, nil
}

func (f *fakeProducts) Search(ctx context.Context, q store.ProductQuery) ([]models.Product, error) {
	f.lastQuery = q
	var out []models.Product
	for _, p := range f.products {
		if strings.Contains(strings.ToLower(p.Name), strings.ToLower(q.Q)) {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeProducts) FindBySlug(ctx context.Context, slug string) (*models.Product, error) {
	for _, p := range f.products {
		if p.Slug == slug {
			return p, nil
		}
	}
	return nil, apperr.NotFoundf("Product Not Found")
}

func (f *fakeProducts) FindByID(ctx context.Context, id string) (*models.Product, error) {
	if _, err := store.ParseID(id, "product"); err != nil {
		return nil, err
	}
	if p, ok := f.products[id]; ok {
		return p, nil
	}
	return nil, apperr.NotFoundf("Product Not Found")
}

func (f *fakeProducts) Create(ctx context.Context, in models.ProductInput) (*models.Product, error) {
	p, err := in.Product()
	if err != nil {
		return nil, err
	}
	if _, err := f.FindBySlug(ctx, p.Slug); err == nil {
		return nil, apperr.Conflictf("Slug must be unique")
	}
	p.ID = primitive.NewObjectID()
	f.products[p.ID.Hex()] = &p
	return &p, nil
}

func (f *fakeProducts) CreateMany(ctx context.Context, inputs []models.ProductInput) ([]models.Product, error) {
	if len(inputs) == 0 {
		return nil, apperr.Validationf("No products provided")
	}
	f.created = append(f.created, inputs...)
	out := make([]models.Product, 0, len(inputs))
	for _, in := range inputs {
		p, err := f.Create(ctx, in)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeProducts) AddReview(ctx context.Context, productID string, review models.Review) (*models.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, err := f.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if err := p.AddReview(review); err != nil {
		return nil, err
	}
	added := p.Reviews[len(p.Reviews)-1]
	return &added, nil
}

func (f *fakeProducts) Update(ctx context.Context, id string, u models.ProductUpdate) (*models.Product, error) {
	p, err := f.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := u.SetFields(); err != nil {
		return nil, err
	}
	if u.Price != nil {
		p.Price = *u.Price
	}
	return p, nil
}

func (f *fakeProducts) Delete(ctx context.Context, id string) error {
	if _, ok := f.products[id]; !ok {
		return apperr.NotFoundf("Product Not Found")
	}
	delete(f.products, id)
	return nil
}

func (f *fakeProducts) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	var n int64
	for _, id := range ids {
		if f.Delete(ctx, id) == nil {
			n++
		}
	}
	return n, nil
}

type fakeOrders struct {
	orders map[string]*models.OrderWithUser
}

func newFakeOrders(orders ...models.Order) *fakeOrders {
	f := &fakeOrders{orders: map[string]*models.OrderWithUser{}}
	for _, o := range orders {
		f.orders[o.ID.Hex()] = &models.OrderWithUser{Order: o}
	}
	return f
}

func (f *fakeOrders) Create(ctx context.Context, o models.Order) (*models.Order, error) {
	o.ID = primitive.NewObjectID()
	f.orders[o.ID.Hex()] = &models.OrderWithUser{Order: o}
	return &o, nil
}

func (f *fakeOrders) FindByID(ctx context.Context, id string) (*models.OrderWithUser, error) {
	if _, err := store.ParseID(id, "order"); err != nil {
		return nil, err
	}
	if o, ok := f.orders[id]; ok {
		return o, nil
	}
	return nil, apperr.NotFoundf("Order not found")
}

func (f *fakeOrders) ListByUser(ctx context.Context, user primitive.ObjectID) ([]models.Order, error) {
	out := []models.Order{}
	for _, o := range f.orders {
		if o.User == user {
			out = append(out, o.Order)
		}
	}
	return out, nil
}

func (f *fakeOrders) ListAll(ctx context.Context) ([]models.OrderWithUser, error) {
	out := []models.OrderWithUser{}
	for _, o := range f.orders {
		out = append(out, *o)
	}
	return out, nil
}

func (f *fakeOrders) MarkPaid(ctx context.Context, id string, result models.PaymentResult) (*models.Order, error) {
	o, err := f.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	o.IsPaid, o.PaymentResult = true, &result
	return &o.Order, nil
}

func (f *fakeOrders) MarkDelivered(ctx context.Context, id string) (*models.Order, error) {
	o, err := f.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	o.IsDelivered = true
	return &o.Order, nil
}

func (f *fakeOrders) Delete(ctx context.Context, id string) error {
	if _, ok := f.orders[id]; !ok {
		return apperr.NotFoundf("Order Not Found")
	}
	delete(f.orders, id)
	return nil
}

type fakeSummarizer struct {
	summary *reporting.Summary
	err     error
}

func (f fakeSummarizer) Summary(ctx context.Context) (*reporting.Summary, error) {
	return f.summary, f.err
}

// fakeUsers keeps plain-text passwords; hashing is the store's concern.
type fakeUsers struct {
	users map[string]*models.User
}

func newFakeUsers(us ...models.User) *fakeUsers {
	f := &fakeUsers{users: map[string]*models.User{}}
	for i := range us {
		u := us[i]
		f.users[u.ID.Hex()] = &u
	}
	return f
}

func (f *fakeUsers) Signup(ctx context.Context, name, email, password string) (*models.User, error) {
	email = models.NormalizeEmail(email)
	if _, err := f.FindByEmail(ctx, email); err == nil {
		return nil, apperr.Conflictf("User already exists")
	}
	u := &models.User{ID: primitive.NewObjectID(), Name: name, Email: email, Password: password}
	f.users[u.ID.Hex()] = u
	return u, nil
}

func (f *fakeUsers) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	u, err := f.FindByEmail(ctx, email)
	if err != nil || u.Password != password {
		return nil, apperr.Unauthorizedf("Invalid email or password")
	}
	return u, nil
}

func (f *fakeUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, apperr.NotFoundf("User not found")
}

func (f *fakeUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	email = models.NormalizeEmail(email)
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, apperr.NotFoundf("User not found")
}

func (f *fakeUsers) SetResetToken(ctx context.Context, userID primitive.ObjectID, token string) error {
	u, err := f.FindByID(ctx, userID.Hex())
	if err != nil {
		return err
	}
	u.ResetToken = token
	return nil
}

func (f *fakeUsers) ResetPassword(ctx context.Context, token, password string) (*models.User, error) {
	for _, u := range f.users {
		if token != "" && u.ResetToken == token {
			if password == "" {
				return nil, apperr.Validationf("Password is required")
			}
			u.Password, u.ResetToken = password, ""
			return u, nil
		}
	}
	return nil, apperr.NotFoundf("User not found")
}

func (f *fakeUsers) List(ctx context.Context) ([]models.User, error) {
	out := []models.User{}
	for _, u := range f.users {
		out = append(out, *u)
	}
	return out, nil
}

func (f *fakeUsers) UpdateByID(ctx context.Context, id string, upd models.UserUpdate) (*models.User, error) {
	u, err := f.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if upd.Name != "" {
		u.Name = upd.Name
	}
	if upd.Email != "" {
		u.Email = models.NormalizeEmail(upd.Email)
	}
	u.IsAdmin = upd.IsAdmin
	return u, nil
}

func (f *fakeUsers) UpdateProfile(ctx context.Context, userID primitive.ObjectID, p models.ProfileUpdate) (*models.User, error) {
	u, err := f.FindByID(ctx, userID.Hex())
	if err != nil {
		return nil, err
	}
	if p.Name != "" {
		u.Name = p.Name
	}
	if p.Password != "" {
		u.Password = p.Password
	}
	return u, nil
}

func (f *fakeUsers) Delete(ctx context.Context, id string) error {
	if _, ok := f.users[id]; !ok {
		return apperr.NotFoundf("User Not Found")
	}
	delete(f.users, id)
	return nil
}

type sentMail struct {
	to, subject, body string
}

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (m *fakeMailer) Send(ctx context.Context, to, subject, body string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to, subject, body})
	return nil
}
