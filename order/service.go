package order

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tallpine/shopcore"
	"github.com/tallpine/shopcore/internal/audit"
	"github.com/tallpine/shopcore/metrics"
)

// Config holds workflow policy.
type Config struct {
	// RestockOnCancel returns reserved stock to the catalog when an order
	// is cancelled. Off by default: a cancelled order keeps its reservation
	// until a compensating process decides otherwise.
	RestockOnCancel bool
}

// Service is the order workflow. It is the sole writer of Product stock and
// Order rows, and every multi-step mutation runs inside one repository
// transaction.
type Service struct {
	repo    Repository
	config  Config
	log     *slog.Logger
	metrics *metrics.Metrics
	audit   *audit.Dispatcher
}

// NewService builds the workflow. log must not be nil; metrics and auditor
// may be.
func NewService(repo Repository, cfg Config, log *slog.Logger, m *metrics.Metrics, auditor *audit.Dispatcher) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		repo:    repo,
		config:  cfg,
		log:     log,
		metrics: m,
		audit:   auditor,
	}
}

// ItemRequest is one requested order line.
type ItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// PlaceOrderRequest is the order creation input.
type PlaceOrderRequest struct {
	ShippingAddress string        `json:"shipping_address"`
	Items           []ItemRequest `json:"items"`
}

func (r PlaceOrderRequest) validate() error {
	if r.ShippingAddress == "" {
		return ErrEmptyAddress
	}
	if len(r.Items) == 0 {
		return ErrNoItems
	}
	for _, item := range r.Items {
		if item.ProductID == "" {
			return fmt.Errorf("%w: item product id is required", shopcore.ErrValidation)
		}
		if item.Quantity < 1 {
			return ErrInvalidQuantity
		}
	}
	return nil
}

// PlaceOrder reserves stock and persists the order atomically: either every
// decrement and the order row commit, or none do. Unit prices are captured
// from the product at reservation time.
func (s *Service) PlaceOrder(ctx context.Context, userID int64, req PlaceOrderRequest) (*Order, error) {
	// Reject bad input before touching storage.
	if err := req.validate(); err != nil {
		s.metrics.ObserveOrderFailure("validation")
		return nil, err
	}

	start := time.Now()
	var placed *Order
	err := s.repo.InTx(ctx, func(tx Tx) error {
		items := make([]OrderItem, 0, len(req.Items))
		for _, line := range req.Items {
			p, err := tx.FindProduct(ctx, line.ProductID)
			if err != nil {
				return err
			}
			if !p.Active {
				return fmt.Errorf("%w: %s", ErrProductInactive, p.Name)
			}
			// Fails fast with the product named before the guarded SQL
			// decrement runs.
			if p.Stock < line.Quantity {
				return &InsufficientStockError{
					ProductID: p.ID,
					Name:      p.Name,
					Requested: line.Quantity,
					Available: p.Stock,
				}
			}
			if err := tx.ReduceStock(ctx, p.ID, line.Quantity); err != nil {
				return err
			}

			item, err := NewOrderItem(p.ID, line.Quantity, p.Price)
			if err != nil {
				return err
			}
			items = append(items, item)
		}

		o, err := NewOrder(userID, req.ShippingAddress, items)
		if err != nil {
			return err
		}
		if err := tx.SaveOrder(ctx, o); err != nil {
			return err
		}
		placed = o
		return nil
	})
	if err != nil {
		s.metrics.ObserveOrderFailure(failureReason(err))
		return nil, err
	}

	s.metrics.ObserveOrderPlaced(time.Since(start).Seconds())
	s.log.InfoContext(ctx, "order placed",
		slog.String("order_id", placed.ID),
		slog.Int64("user_id", userID),
		slog.Float64("total", placed.TotalAmount),
	)
	s.audit.Emit(ctx, audit.Event{
		Timestamp: time.Now().UTC(),
		EventType: audit.EventOrderPlaced,
		SubjectID: userID,
		OrderID:   placed.ID,
		Success:   true,
	})
	return placed, nil
}

// GetOrder loads one order with its items.
func (s *Service) GetOrder(ctx context.Context, id string) (*Order, error) {
	var o *Order
	err := s.repo.InTx(ctx, func(tx Tx) error {
		found, err := tx.FindOrder(ctx, id)
		if err != nil {
			return err
		}
		o = found
		return nil
	})
	return o, err
}

// ListUserOrders loads all orders of one user, newest first.
func (s *Service) ListUserOrders(ctx context.Context, userID int64) ([]*Order, error) {
	var out []*Order
	err := s.repo.InTx(ctx, func(tx Tx) error {
		found, err := tx.ListOrdersByUser(ctx, userID)
		if err != nil {
			return err
		}
		out = found
		return nil
	})
	return out, err
}

// UpdateStatus transitions an order, enforcing the state machine.
func (s *Service) UpdateStatus(ctx context.Context, id string, next Status) (*Order, error) {
	if !next.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", shopcore.ErrValidation, next)
	}

	var o *Order
	err := s.repo.InTx(ctx, func(tx Tx) error {
		found, err := tx.FindOrder(ctx, id)
		if err != nil {
			return err
		}
		if err := found.Transition(next); err != nil {
			return err
		}
		if err := tx.UpdateOrderStatus(ctx, id, next); err != nil {
			return err
		}
		o = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Emit(ctx, audit.Event{
		Timestamp: time.Now().UTC(),
		EventType: audit.EventOrderStatus,
		SubjectID: o.UserID,
		OrderID:   o.ID,
		Success:   true,
		Metadata:  map[string]string{"status": string(next)},
	})
	return o, nil
}

// Cancel cancels a pending or processing order. Whether reserved stock
// returns to the catalog follows [Config.RestockOnCancel].
func (s *Service) Cancel(ctx context.Context, id string) (*Order, error) {
	var o *Order
	err := s.repo.InTx(ctx, func(tx Tx) error {
		found, err := tx.FindOrder(ctx, id)
		if err != nil {
			return err
		}
		if err := found.Transition(StatusCancelled); err != nil {
			return err
		}
		if err := tx.UpdateOrderStatus(ctx, id, StatusCancelled); err != nil {
			return err
		}
		if s.config.RestockOnCancel {
			for _, item := range found.Items {
				if err := tx.AddStock(ctx, item.ProductID, item.Quantity); err != nil {
					return err
				}
			}
		}
		o = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Emit(ctx, audit.Event{
		Timestamp: time.Now().UTC(),
		EventType: audit.EventOrderCancelled,
		SubjectID: o.UserID,
		OrderID:   o.ID,
		Success:   true,
		Metadata:  map[string]string{"restocked": fmt.Sprint(s.config.RestockOnCancel)},
	})
	return o, nil
}

// CreateProduct persists a new catalog entry.
func (s *Service) CreateProduct(ctx context.Context, name string, price float64, stock int, category string) (*Product, error) {
	p, err := NewProduct(name, price, stock, category)
	if err != nil {
		return nil, err
	}
	err = s.repo.InTx(ctx, func(tx Tx) error {
		return tx.SaveProduct(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// GetProduct loads one product.
func (s *Service) GetProduct(ctx context.Context, id string) (*Product, error) {
	var p *Product
	err := s.repo.InTx(ctx, func(tx Tx) error {
		found, err := tx.FindProduct(ctx, id)
		if err != nil {
			return err
		}
		p = found
		return nil
	})
	return p, err
}

// ListProducts loads the active catalog.
func (s *Service) ListProducts(ctx context.Context) ([]*Product, error) {
	var out []*Product
	err := s.repo.InTx(ctx, func(tx Tx) error {
		found, err := tx.ListActiveProducts(ctx)
		if err != nil {
			return err
		}
		out = found
		return nil
	})
	return out, err
}

func failureReason(err error) string {
	var stock *InsufficientStockError
	switch {
	case errors.As(err, &stock):
		return "insufficient_stock"
	case errors.Is(err, ErrProductNotFound):
		return "product_not_found"
	case errors.Is(err, shopcore.ErrValidation):
		return "validation"
	case errors.Is(err, shopcore.ErrConflict):
		return "conflict"
	default:
		return "internal"
	}
}
