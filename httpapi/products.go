package httpapi

import (
	"net/http"

	"github.com/tallpine/shopcore/order"
)

type productResponse struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Stock    int     `json:"stock"`
	Category string  `json:"category"`
	Active   bool    `json:"active"`
}

func toProductResponse(p *order.Product) productResponse {
	return productResponse{
		ID:       p.ID,
		Name:     p.Name,
		Price:    p.Price,
		Stock:    p.Stock,
		Category: p.Category,
		Active:   p.Active,
	}
}

type createProductRequest struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Stock    int     `json:"stock"`
	Category string  `json:"category"`
}

func (a *API) handleListProducts(w http.ResponseWriter, r *http.Request, _ []string) {
	products, err := a.orders.ListProducts(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	out := make([]productResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toProductResponse(p))
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (a *API) handleGetProduct(w http.ResponseWriter, r *http.Request, params []string) {
	p, err := a.orders.GetProduct(r.Context(), params[0])
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toProductResponse(p))
}

func (a *API) handleCreateProduct(w http.ResponseWriter, r *http.Request, _ []string) {
	var req createProductRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	p, err := a.orders.CreateProduct(r.Context(), req.Name, req.Price, req.Stock, req.Category)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, toProductResponse(p))
}
