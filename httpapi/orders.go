package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/tallpine/shopcore"
	"github.com/tallpine/shopcore/middleware"
	"github.com/tallpine/shopcore/order"
)

type orderItemResponse struct {
	ProductID string  `json:"product_id"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Subtotal  float64 `json:"subtotal"`
}

type orderResponse struct {
	ID              string              `json:"id"`
	UserID          int64               `json:"user_id"`
	Status          string              `json:"status"`
	TotalAmount     float64             `json:"total_amount"`
	ShippingAddress string              `json:"shipping_address"`
	Items           []orderItemResponse `json:"items"`
	CreatedAt       time.Time           `json:"created_at"`
}

func toOrderResponse(o *order.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, orderItemResponse{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Subtotal:  it.Subtotal,
		})
	}
	return orderResponse{
		ID:              o.ID,
		UserID:          o.UserID,
		Status:          string(o.Status),
		TotalAmount:     o.TotalAmount,
		ShippingAddress: o.ShippingAddress,
		Items:           items,
		CreatedAt:       o.CreatedAt,
	}
}

func (a *API) handlePlaceOrder(w http.ResponseWriter, r *http.Request, _ []string) {
	principal, _ := middleware.PrincipalFromContext(r.Context())

	var req order.PlaceOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	placed, err := a.orders.PlaceOrder(r.Context(), principal.SubjectID, req)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, toOrderResponse(placed))
}

func (a *API) handleListOrders(w http.ResponseWriter, r *http.Request, _ []string) {
	principal, _ := middleware.PrincipalFromContext(r.Context())

	orders, err := a.orders.ListUserOrders(r.Context(), principal.SubjectID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	out := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderResponse(o))
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (a *API) handleGetOrder(w http.ResponseWriter, r *http.Request, params []string) {
	principal, _ := middleware.PrincipalFromContext(r.Context())

	o, err := a.orders.GetOrder(r.Context(), params[0])
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	// Non-owners without read-any see not-found, not forbidden, so order
	// ids leak nothing.
	if o.UserID != principal.SubjectID && !principal.Can(shopcore.CapOrdersReadAny) {
		a.writeError(w, r, order.ErrOrderNotFound)
		return
	}
	writeJSON(w, r, http.StatusOK, toOrderResponse(o))
}

func (a *API) handleCancelOrder(w http.ResponseWriter, r *http.Request, params []string) {
	principal, _ := middleware.PrincipalFromContext(r.Context())

	o, err := a.orders.GetOrder(r.Context(), params[0])
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if o.UserID != principal.SubjectID && !principal.Can(shopcore.CapOrdersManage) {
		a.writeError(w, r, order.ErrOrderNotFound)
		return
	}

	cancelled, err := a.orders.Cancel(r.Context(), o.ID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toOrderResponse(cancelled))
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (a *API) handleUpdateOrderStatus(w http.ResponseWriter, r *http.Request, params []string) {
	var req updateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	next := order.Status(req.Status)
	if !next.Valid() {
		a.writeError(w, r, fmt.Errorf("%w: unknown status %q", shopcore.ErrValidation, req.Status))
		return
	}

	updated, err := a.orders.UpdateStatus(r.Context(), params[0], next)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toOrderResponse(updated))
}
