package order

import "context"

// Tx is the persistence surface visible to one workflow invocation. All
// calls made through one Tx commit or roll back together.
type Tx interface {
	FindProduct(ctx context.Context, id string) (*Product, error)
	SaveProduct(ctx context.Context, p *Product) error
	// ReduceStock decrements stock by quantity only while enough remains;
	// a concurrent depletion surfaces as *InsufficientStockError even when
	// an earlier read saw enough stock.
	ReduceStock(ctx context.Context, productID string, quantity int) error
	AddStock(ctx context.Context, productID string, quantity int) error
	ListActiveProducts(ctx context.Context) ([]*Product, error)

	SaveOrder(ctx context.Context, o *Order) error
	FindOrder(ctx context.Context, id string) (*Order, error)
	UpdateOrderStatus(ctx context.Context, id string, status Status) error
	ListOrdersByUser(ctx context.Context, userID int64) ([]*Order, error)
}

// Repository composes Tx operations into one all-or-nothing transaction.
// fn returning an error rolls back every write made through its Tx.
type Repository interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
}
