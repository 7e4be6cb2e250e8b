package order

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/tallpine/shopcore"
)

// subtotalTolerance bounds the float drift accepted when checking the
// subtotal invariant at construction.
const subtotalTolerance = 1e-9

// Product is a catalog entry. Stock changes only through [Product.ReduceStock]
// and [Product.AddStock]; both reject invalid states instead of clamping.
type Product struct {
	ID       string
	Name     string
	Price    float64
	Stock    int
	Category string
	Active   bool
}

// NewProduct validates and builds a Product with a fresh id.
func NewProduct(name string, price float64, stock int, category string) (*Product, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: product name is required", shopcore.ErrValidation)
	}
	if price < 0 {
		return nil, ErrInvalidPrice
	}
	if stock < 0 {
		return nil, fmt.Errorf("%w: stock must not be negative", shopcore.ErrValidation)
	}
	return &Product{
		ID:       uuid.NewString(),
		Name:     name,
		Price:    price,
		Stock:    stock,
		Category: category,
		Active:   true,
	}, nil
}

// ReduceStock decrements stock by quantity. Rejects non-positive quantities
// and insufficient stock with an error rather than clamping silently.
func (p *Product) ReduceStock(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if p.Stock < quantity {
		return &InsufficientStockError{
			ProductID: p.ID,
			Name:      p.Name,
			Requested: quantity,
			Available: p.Stock,
		}
	}
	p.Stock -= quantity
	return nil
}

// AddStock increments stock by quantity, rejecting non-positive quantities.
func (p *Product) AddStock(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	p.Stock += quantity
	return nil
}

// Status is the order lifecycle state.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Valid reports whether s names a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// transitions holds the allowed edges; completed and cancelled are terminal.
var transitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusCompleted, StatusCancelled},
}

// CanTransitionTo reports whether the state machine allows s -> next.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// OrderItem is one line of an order. Invariant: Subtotal == UnitPrice *
// Quantity, checked at construction within floating-point tolerance.
type OrderItem struct {
	OrderID   string
	ProductID string
	Quantity  int
	UnitPrice float64
	Subtotal  float64
}

// NewOrderItem validates and builds an item with its subtotal computed.
func NewOrderItem(productID string, quantity int, unitPrice float64) (OrderItem, error) {
	if quantity < 1 {
		return OrderItem{}, ErrInvalidQuantity
	}
	if unitPrice < 0 {
		return OrderItem{}, ErrInvalidPrice
	}
	item := OrderItem{
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		Subtotal:  unitPrice * float64(quantity),
	}
	if err := item.check(); err != nil {
		return OrderItem{}, err
	}
	return item, nil
}

func (i OrderItem) check() error {
	if math.Abs(i.Subtotal-i.UnitPrice*float64(i.Quantity)) > subtotalTolerance {
		return fmt.Errorf("%w: subtotal does not match unit price times quantity", shopcore.ErrValidation)
	}
	return nil
}

// Order is a placed order. Total is the sum of item subtotals and is
// recomputed whenever items change.
type Order struct {
	ID              string
	UserID          int64
	Status          Status
	TotalAmount     float64
	ShippingAddress string
	Items           []OrderItem
	CreatedAt       time.Time
}

// NewOrder validates and builds a pending order. Requires at least one item
// and a non-empty shipping address.
func NewOrder(userID int64, shippingAddress string, items []OrderItem) (*Order, error) {
	if shippingAddress == "" {
		return nil, ErrEmptyAddress
	}
	if len(items) == 0 {
		return nil, ErrNoItems
	}

	o := &Order{
		ID:              uuid.NewString(),
		UserID:          userID,
		Status:          StatusPending,
		ShippingAddress: shippingAddress,
		CreatedAt:       time.Now().UTC(),
	}
	o.SetItems(items)
	return o, nil
}

// SetItems replaces the order's items and recomputes the total.
func (o *Order) SetItems(items []OrderItem) {
	o.Items = make([]OrderItem, len(items))
	copy(o.Items, items)
	for i := range o.Items {
		o.Items[i].OrderID = o.ID
	}
	o.recomputeTotal()
}

// AddItem appends an item and recomputes the total.
func (o *Order) AddItem(item OrderItem) {
	item.OrderID = o.ID
	o.Items = append(o.Items, item)
	o.recomputeTotal()
}

func (o *Order) recomputeTotal() {
	total := 0.0
	for _, item := range o.Items {
		total += item.Subtotal
	}
	o.TotalAmount = total
}

// Cancellable reports whether the order may still be cancelled.
func (o *Order) Cancellable() bool {
	return o.Status == StatusPending || o.Status == StatusProcessing
}

// Transition moves the order to next, enforcing the state machine.
func (o *Order) Transition(next Status) error {
	if !o.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, next)
	}
	o.Status = next
	return nil
}
