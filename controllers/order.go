package controllers

import (
	"context"
	"net/http"

	"go-storefront/apperr"
	"go-storefront/models"
	"go-storefront/reporting"
	"go-storefront/utils"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderStore is the order persistence the order handlers need
type OrderStore interface {
	Create(ctx context.Context, o models.Order) (*models.Order, error)
	FindByID(ctx context.Context, id string) (*models.OrderWithUser, error)
	ListByUser(ctx context.Context, user primitive.ObjectID) ([]models.Order, error)
	ListAll(ctx context.Context) ([]models.OrderWithUser, error)
	MarkPaid(ctx context.Context, id string, result models.PaymentResult) (*models.Order, error)
	MarkDelivered(ctx context.Context, id string) (*models.Order, error)
	Delete(ctx context.Context, id string) error
}

// Summarizer produces the dashboard summary
type Summarizer interface {
	Summary(ctx context.Context) (*reporting.Summary, error)
}

// OrderController handles order-related requests
type OrderController struct {
	Orders   OrderStore
	Reporter Summarizer
}

// NewOrderController creates a new OrderController
func NewOrderController(orders OrderStore, reporter Summarizer) *OrderController {
	return &OrderController{Orders: orders, Reporter: reporter}
}

// CreateOrder places an order for the caller
func (oc *OrderController) CreateOrder(w http.ResponseWriter, r *http.Request) {
	id, err := caller(r)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	var in models.OrderInput
	if err := decodeJSON(w, r, &in); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	order, err := in.Order(id.UserID)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}

	logger := zerolog.Ctx(r.Context())
	if !order.TotalsConsistent() {
		logger.Warn().
			Float64("itemsPrice", order.ItemsPrice).
			Float64("shippingPrice", order.ShippingPrice).
			Float64("taxPrice", order.TaxPrice).
			Float64("totalPrice", order.TotalPrice).
			Msg("order total does not match its parts")
	}

	created, err := oc.Orders.Create(r.Context(), order)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	logger.Info().Str("order", created.ID.Hex()).Float64("total", created.TotalPrice).Msg("order placed")
	utils.WriteJSON(w, http.StatusCreated, created)
}

// owned loads an order the caller may see: their own, or any order for admins.
func (oc *OrderController) owned(r *http.Request) (*models.OrderWithUser, error) {
	id, err := caller(r)
	if err != nil {
		return nil, err
	}
	order, err := oc.Orders.FindByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		return nil, err
	}
	if !id.IsAdmin && order.User != id.UserID {
		return nil, apperr.Forbiddenf("Not your order")
	}
	return order, nil
}

// GetOrderByID retrieves one order with its purchaser
func (oc *OrderController) GetOrderByID(w http.ResponseWriter, r *http.Request) {
	order, err := oc.owned(r)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, order)
}

// GetMyOrders lists the caller's orders
func (oc *OrderController) GetMyOrders(w http.ResponseWriter, r *http.Request) {
	id, err := caller(r)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	orders, err := oc.Orders.ListByUser(r.Context(), id.UserID)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, orders)
}

// GetOrders lists every order (Admin only)
func (oc *OrderController) GetOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := oc.Orders.ListAll(r.Context())
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, orders)
}

// GetOrderSummary builds the admin dashboard (Admin only)
func (oc *OrderController) GetOrderSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := oc.Reporter.Summary(r.Context())
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, summary)
}

// UpdateOrderToPaid records the payment gateway's result on the caller's order
func (oc *OrderController) UpdateOrderToPaid(w http.ResponseWriter, r *http.Request) {
	var result models.PaymentResult
	if err := decodeJSON(w, r, &result); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	order, err := oc.owned(r)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	updated, err := oc.Orders.MarkPaid(r.Context(), order.ID.Hex(), result)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	zerolog.Ctx(r.Context()).Info().Str("order", updated.ID.Hex()).Str("payment", result.ID).Msg("order paid")
	utils.WriteJSON(w, http.StatusOK, updated)
}

// UpdateOrderToDelivered marks an order delivered (Admin only)
func (oc *OrderController) UpdateOrderToDelivered(w http.ResponseWriter, r *http.Request) {
	updated, err := oc.Orders.MarkDelivered(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, updated)
}

// DeleteOrder removes an order (Admin only)
func (oc *OrderController) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	if err := oc.Orders.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteMessage(w, http.StatusOK, "Order Deleted")
}
