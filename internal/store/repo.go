package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tallpine/shopcore"
	"github.com/tallpine/shopcore/order"
)

// sqlTx implements [order.Tx] over one database/sql transaction.
type sqlTx struct {
	tx     *sql.Tx
	driver Driver
}

func (t *sqlTx) FindProduct(ctx context.Context, id string) (*order.Product, error) {
	row := t.tx.QueryRowContext(ctx, rebind(t.driver,
		`SELECT id, name, price, stock, category, active FROM products WHERE id = ?`), id)

	var p order.Product
	if err := row.Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.Category, &p.Active); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, order.ErrProductNotFound
		}
		return nil, fmt.Errorf("%w: find product: %v", shopcore.ErrInternal, err)
	}
	return &p, nil
}

func (t *sqlTx) SaveProduct(ctx context.Context, p *order.Product) error {
	_, err := t.tx.ExecContext(ctx, rebind(t.driver,
		`INSERT INTO products (id, name, price, stock, category, active) VALUES (?, ?, ?, ?, ?, ?)`),
		p.ID, p.Name, p.Price, p.Stock, p.Category, p.Active)
	if err != nil {
		return fmt.Errorf("%w: save product: %v", shopcore.ErrInternal, err)
	}
	return nil
}

// ReduceStock applies the guarded decrement: the WHERE clause re-checks
// stock inside the database so two concurrent orders cannot both decrement
// past zero regardless of what their earlier reads saw.
func (t *sqlTx) ReduceStock(ctx context.Context, productID string, quantity int) error {
	if quantity <= 0 {
		return order.ErrInvalidQuantity
	}
	res, err := t.tx.ExecContext(ctx, rebind(t.driver,
		`UPDATE products SET stock = stock - ? WHERE id = ? AND stock >= ?`),
		quantity, productID, quantity)
	if err != nil {
		return fmt.Errorf("%w: reduce stock: %v", shopcore.ErrInternal, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: reduce stock: %v", shopcore.ErrInternal, err)
	}
	if n == 0 {
		p, err := t.FindProduct(ctx, productID)
		if err != nil {
			return err
		}
		return &order.InsufficientStockError{
			ProductID: p.ID,
			Name:      p.Name,
			Requested: quantity,
			Available: p.Stock,
		}
	}
	return nil
}

func (t *sqlTx) AddStock(ctx context.Context, productID string, quantity int) error {
	if quantity <= 0 {
		return order.ErrInvalidQuantity
	}
	res, err := t.tx.ExecContext(ctx, rebind(t.driver,
		`UPDATE products SET stock = stock + ? WHERE id = ?`),
		quantity, productID)
	if err != nil {
		return fmt.Errorf("%w: add stock: %v", shopcore.ErrInternal, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: add stock: %v", shopcore.ErrInternal, err)
	}
	if n == 0 {
		return order.ErrProductNotFound
	}
	return nil
}

func (t *sqlTx) ListActiveProducts(ctx context.Context) ([]*order.Product, error) {
	rows, err := t.tx.QueryContext(ctx, rebind(t.driver,
		`SELECT id, name, price, stock, category, active FROM products WHERE active = ? ORDER BY name`), true)
	if err != nil {
		return nil, fmt.Errorf("%w: list products: %v", shopcore.ErrInternal, err)
	}
	defer rows.Close()

	var out []*order.Product
	for rows.Next() {
		var p order.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.Category, &p.Active); err != nil {
			return nil, fmt.Errorf("%w: scan product: %v", shopcore.ErrInternal, err)
		}
		out = append(out, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list products: %v", shopcore.ErrInternal, err)
	}
	return out, nil
}

func (t *sqlTx) SaveOrder(ctx context.Context, o *order.Order) error {
	_, err := t.tx.ExecContext(ctx, rebind(t.driver,
		`INSERT INTO orders (id, user_id, status, total_amount, shipping_address, created_at) VALUES (?, ?, ?, ?, ?, ?)`),
		o.ID, o.UserID, string(o.Status), o.TotalAmount, o.ShippingAddress, o.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("%w: save order: %v", shopcore.ErrInternal, err)
	}
	for _, item := range o.Items {
		_, err := t.tx.ExecContext(ctx, rebind(t.driver,
			`INSERT INTO order_items (order_id, product_id, quantity, unit_price, subtotal) VALUES (?, ?, ?, ?, ?)`),
			item.OrderID, item.ProductID, item.Quantity, item.UnitPrice, item.Subtotal)
		if err != nil {
			return fmt.Errorf("%w: save order item: %v", shopcore.ErrInternal, err)
		}
	}
	return nil
}

func (t *sqlTx) FindOrder(ctx context.Context, id string) (*order.Order, error) {
	row := t.tx.QueryRowContext(ctx, rebind(t.driver,
		`SELECT id, user_id, status, total_amount, shipping_address, created_at FROM orders WHERE id = ?`), id)

	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, order.ErrOrderNotFound
		}
		return nil, fmt.Errorf("%w: find order: %v", shopcore.ErrInternal, err)
	}
	if err := t.loadItems(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (t *sqlTx) UpdateOrderStatus(ctx context.Context, id string, status order.Status) error {
	res, err := t.tx.ExecContext(ctx, rebind(t.driver,
		`UPDATE orders SET status = ? WHERE id = ?`), string(status), id)
	if err != nil {
		return fmt.Errorf("%w: update order status: %v", shopcore.ErrInternal, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: update order status: %v", shopcore.ErrInternal, err)
	}
	if n == 0 {
		return order.ErrOrderNotFound
	}
	return nil
}

func (t *sqlTx) ListOrdersByUser(ctx context.Context, userID int64) ([]*order.Order, error) {
	rows, err := t.tx.QueryContext(ctx, rebind(t.driver,
		`SELECT id, user_id, status, total_amount, shipping_address, created_at FROM orders WHERE user_id = ? ORDER BY created_at DESC`), userID)
	if err != nil {
		return nil, fmt.Errorf("%w: list orders: %v", shopcore.ErrInternal, err)
	}
	defer rows.Close()

	var out []*order.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan order: %v", shopcore.ErrInternal, err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list orders: %v", shopcore.ErrInternal, err)
	}
	for _, o := range out {
		if err := t.loadItems(ctx, o); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (t *sqlTx) loadItems(ctx context.Context, o *order.Order) error {
	rows, err := t.tx.QueryContext(ctx, rebind(t.driver,
		`SELECT order_id, product_id, quantity, unit_price, subtotal FROM order_items WHERE order_id = ?`), o.ID)
	if err != nil {
		return fmt.Errorf("%w: load items: %v", shopcore.ErrInternal, err)
	}
	defer rows.Close()

	var items []order.OrderItem
	for rows.Next() {
		var item order.OrderItem
		if err := rows.Scan(&item.OrderID, &item.ProductID, &item.Quantity, &item.UnitPrice, &item.Subtotal); err != nil {
			return fmt.Errorf("%w: scan item: %v", shopcore.ErrInternal, err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: load items: %v", shopcore.ErrInternal, err)
	}
	o.Items = items
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*order.Order, error) {
	var (
		o       order.Order
		status  string
		created string
	)
	if err := row.Scan(&o.ID, &o.UserID, &status, &o.TotalAmount, &o.ShippingAddress, &created); err != nil {
		return nil, err
	}
	o.Status = order.Status(status)
	if ts, err := time.Parse(time.RFC3339Nano, created); err == nil {
		o.CreatedAt = ts
	}
	return &o, nil
}
