// Package routes declares every API route together with the capability it requires.
package routes

import (
	"fmt"
	"net/http"

	"go-storefront/controllers"
	"go-storefront/middleware"
	"go-storefront/utils"

	"github.com/gorilla/mux"
)

// idParam matches any single segment; handlers reject malformed ids with 400.
const idParam = "{id}"

// Route is one entry of the API table
type Route struct {
	Method   string
	Path     string
	Requires middleware.Capability
	Handler  http.HandlerFunc
}

// Controllers groups the handlers the table points at
type Controllers struct {
	Users    *controllers.UserController
	Products *controllers.ProductController
	Orders   *controllers.OrderController
	Uploads  *controllers.UploadController
}

// Table returns every route under /api. Literal paths come before the id
// patterns they would otherwise shadow.
func Table(c Controllers) []Route {
	var (
		public = middleware.Public
		authed = middleware.Authenticated
		admin  = middleware.Admin
	)
	return []Route{
		// Users
		{http.MethodPost, "/users/signin", public, c.Users.Signin},
		{http.MethodPost, "/users/signup", public, c.Users.Signup},
		{http.MethodPost, "/users/forget-password", public, c.Users.ForgetPassword},
		{http.MethodPost, "/users/reset-password", public, c.Users.ResetPassword},
		{http.MethodPut, "/users/profile", authed, c.Users.UpdateProfile},
		{http.MethodGet, "/users", admin, c.Users.GetUsers},
		{http.MethodGet, "/users/" + idParam, admin, c.Users.GetUserByID},
		{http.MethodPut, "/users/" + idParam, admin, c.Users.UpdateUserByID},
		{http.MethodDelete, "/users/" + idParam, admin, c.Users.DeleteUserByID},

		// Products
		{http.MethodGet, "/products", public, c.Products.GetProducts},
		{http.MethodGet, "/products/slug/{slug}", public, c.Products.GetProductBySlug},
		{http.MethodGet, "/products/search", public, c.Products.SearchProducts},
		{http.MethodGet, "/products/admin", admin, c.Products.GetAdminProducts},
		{http.MethodPost, "/products/import", admin, c.Products.ImportProducts},
		{http.MethodPost, "/products/many", admin, c.Products.CreateManyProducts},
		{http.MethodDelete, "/products/many", admin, c.Products.DeleteManyProducts},
		{http.MethodGet, "/products/" + idParam, public, c.Products.GetProductByID},
		{http.MethodPost, "/products", admin, c.Products.CreateProduct},
		{http.MethodPost, "/products/" + idParam + "/reviews", authed, c.Products.CreateProductReview},
		{http.MethodPut, "/products/" + idParam, admin, c.Products.UpdateProduct},
		{http.MethodDelete, "/products/" + idParam, admin, c.Products.DeleteProduct},

		// Orders
		{http.MethodPost, "/orders", authed, c.Orders.CreateOrder},
		{http.MethodGet, "/orders/mine", authed, c.Orders.GetMyOrders},
		{http.MethodGet, "/orders/summary", admin, c.Orders.GetOrderSummary},
		{http.MethodGet, "/orders", admin, c.Orders.GetOrders},
		{http.MethodGet, "/orders/" + idParam, authed, c.Orders.GetOrderByID},
		{http.MethodPut, "/orders/" + idParam + "/pay", authed, c.Orders.UpdateOrderToPaid},
		{http.MethodPut, "/orders/" + idParam + "/deliver", admin, c.Orders.UpdateOrderToDelivered},
		{http.MethodDelete, "/orders/" + idParam, admin, c.Orders.DeleteOrder},

		// Uploads
		{http.MethodPost, "/upload", admin, c.Uploads.Upload},
	}
}

// RegisterRoutes mounts the table under /api, each handler behind the guard
// for its capability, plus the health check at /.
func RegisterRoutes(router *mux.Router, guard *middleware.Guard, table []Route) error {
	seen := map[string]bool{}
	api := router.PathPrefix("/api").Subrouter()
	for _, rt := range table {
		key := rt.Method + " " + rt.Path
		if seen[key] {
			return fmt.Errorf("duplicate route %s", key)
		}
		seen[key] = true
		api.Handle(rt.Path, guard.Require(rt.Requires)(rt.Handler)).Methods(rt.Method)
	}

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteMessage(w, http.StatusNotFound, "Route not found")
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteMessage(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
	api.NotFoundHandler = router.NotFoundHandler
	api.MethodNotAllowedHandler = router.MethodNotAllowedHandler

	router.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("API is running..."))
	}).Methods(http.MethodGet)
	return nil
}
