package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/tallpine/shopcore/order"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	ctx := context.Background()
	s, err := Open(ctx, "memory://")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	if err := s.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}
	return s
}

func seedProduct(t *testing.T, s *Store, name string, price float64, stock int) *order.Product {
	t.Helper()

	p, err := order.NewProduct(name, price, stock, "test")
	if err != nil {
		t.Fatalf("NewProduct failed: %v", err)
	}
	err = s.InTx(context.Background(), func(tx order.Tx) error {
		return tx.SaveProduct(context.Background(), p)
	})
	if err != nil {
		t.Fatalf("SaveProduct failed: %v", err)
	}
	return p
}

func productStock(t *testing.T, s *Store, id string) int {
	t.Helper()

	var stock int
	err := s.InTx(context.Background(), func(tx order.Tx) error {
		p, err := tx.FindProduct(context.Background(), id)
		if err != nil {
			return err
		}
		stock = p.Stock
		return nil
	})
	if err != nil {
		t.Fatalf("FindProduct failed: %v", err)
	}
	return stock
}

func TestProductRoundTrip(t *testing.T) {
	s := newTestStore(t)
	p := seedProduct(t, s, "widget", 9.5, 5)
	ctx := context.Background()

	err := s.InTx(ctx, func(tx order.Tx) error {
		got, err := tx.FindProduct(ctx, p.ID)
		if err != nil {
			return err
		}
		if got.Name != "widget" || got.Price != 9.5 || got.Stock != 5 || !got.Active {
			t.Fatalf("product = %+v", got)
		}
		if _, err := tx.FindProduct(ctx, "missing"); !errors.Is(err, order.ErrProductNotFound) {
			t.Fatalf("missing product = %v, want ErrProductNotFound", err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("InTx failed: %v", err)
	}
}

func TestGuardedStockDecrement(t *testing.T) {
	s := newTestStore(t)
	p := seedProduct(t, s, "widget", 1, 5)
	ctx := context.Background()

	err := s.InTx(ctx, func(tx order.Tx) error {
		return tx.ReduceStock(ctx, p.ID, 3)
	})
	if err != nil {
		t.Fatalf("ReduceStock failed: %v", err)
	}
	if got := productStock(t, s, p.ID); got != 2 {
		t.Fatalf("stock = %d, want 2", got)
	}

	err = s.InTx(ctx, func(tx order.Tx) error {
		return tx.ReduceStock(ctx, p.ID, 3)
	})
	var stockErr *order.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("over-decrement = %v, want InsufficientStockError", err)
	}
	if stockErr.Available != 2 {
		t.Fatalf("stock error = %+v, want available 2", stockErr)
	}

	err = s.InTx(ctx, func(tx order.Tx) error {
		return tx.AddStock(ctx, p.ID, 4)
	})
	if err != nil {
		t.Fatalf("AddStock failed: %v", err)
	}
	if got := productStock(t, s, p.ID); got != 6 {
		t.Fatalf("stock = %d, want 6", got)
	}
}

func TestOrderRoundTrip(t *testing.T) {
	s := newTestStore(t)
	p := seedProduct(t, s, "widget", 10, 5)
	ctx := context.Background()

	item, err := order.NewOrderItem(p.ID, 2, 10)
	if err != nil {
		t.Fatalf("NewOrderItem failed: %v", err)
	}
	o, err := order.NewOrder(42, "1 Main St", []order.OrderItem{item})
	if err != nil {
		t.Fatalf("NewOrder failed: %v", err)
	}

	err = s.InTx(ctx, func(tx order.Tx) error {
		return tx.SaveOrder(ctx, o)
	})
	if err != nil {
		t.Fatalf("SaveOrder failed: %v", err)
	}

	err = s.InTx(ctx, func(tx order.Tx) error {
		got, err := tx.FindOrder(ctx, o.ID)
		if err != nil {
			return err
		}
		if got.UserID != 42 || got.Status != order.StatusPending || got.TotalAmount != 20 {
			t.Fatalf("order = %+v", got)
		}
		if len(got.Items) != 1 || got.Items[0].ProductID != p.ID || got.Items[0].Subtotal != 20 {
			t.Fatalf("items = %+v", got.Items)
		}

		if err := tx.UpdateOrderStatus(ctx, o.ID, order.StatusProcessing); err != nil {
			return err
		}
		mine, err := tx.ListOrdersByUser(ctx, 42)
		if err != nil {
			return err
		}
		if len(mine) != 1 || mine[0].Status != order.StatusProcessing {
			t.Fatalf("orders by user = %+v", mine)
		}
		none, err := tx.ListOrdersByUser(ctx, 99)
		if err != nil {
			return err
		}
		if len(none) != 0 {
			t.Fatalf("orders for other user = %+v", none)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("InTx failed: %v", err)
	}
}

func TestTxRollsBackOnError(t *testing.T) {
	s := newTestStore(t)
	p := seedProduct(t, s, "widget", 10, 5)
	ctx := context.Background()

	boom := errors.New("boom")
	err := s.InTx(ctx, func(tx order.Tx) error {
		if err := tx.ReduceStock(ctx, p.ID, 3); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("InTx = %v, want boom", err)
	}
	if got := productStock(t, s, p.ID); got != 5 {
		t.Fatalf("stock = %d after rollback, want 5", got)
	}
}

func TestConcurrentOrdersNeverOversell(t *testing.T) {
	s := newTestStore(t)
	p := seedProduct(t, s, "scarce", 100, 2)
	svc := order.NewService(s, order.Config{}, nil, nil, nil)

	req := order.PlaceOrderRequest{
		ShippingAddress: "1 Main St",
		Items:           []order.ItemRequest{{ProductID: p.ID, Quantity: 2}},
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		oks      int
		failures []error
	)
	start := make(chan struct{})
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := svc.PlaceOrder(context.Background(), int64(i+1), req)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				oks++
			} else {
				failures = append(failures, err)
			}
		}()
	}
	close(start)
	wg.Wait()

	if oks != 1 {
		t.Fatalf("successes = %d against stock 2, want exactly 1", oks)
	}
	if got := productStock(t, s, p.ID); got != 0 {
		t.Fatalf("stock = %d after the winning order, want 0", got)
	}
	if len(failures) != 1 {
		t.Fatalf("failures = %d, want exactly 1", len(failures))
	}
	var stockErr *order.InsufficientStockError
	if !errors.As(failures[0], &stockErr) {
		t.Fatalf("losing order = %v, want InsufficientStockError", failures[0])
	}
	if stockErr.Requested != 2 {
		t.Fatalf("stock error = %+v, want requested 2", stockErr)
	}
}

func TestUsers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := &User{ID: 1, Username: "alice", PasswordHash: "x", Admin: true}
	if err := s.CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	got, err := s.FindUserByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("FindUserByUsername failed: %v", err)
	}
	if got.ID != 1 || !got.Admin {
		t.Fatalf("user = %+v", got)
	}

	byID, err := s.FindUserByID(ctx, 1)
	if err != nil {
		t.Fatalf("FindUserByID failed: %v", err)
	}
	if byID.Username != "alice" {
		t.Fatalf("user = %+v", byID)
	}

	if _, err := s.FindUserByUsername(ctx, "nobody"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("missing user = %v, want ErrUserNotFound", err)
	}
}

func TestParseDSN(t *testing.T) {
	cases := []struct {
		in     string
		driver Driver
	}{
		{"", DriverStoolap},
		{"memory://", DriverStoolap},
		{"postgres://u:p@localhost/db", DriverPostgres},
		{"postgresql://u:p@localhost/db", DriverPostgres},
	}
	for _, c := range cases {
		driver, _ := ParseDSN(c.in)
		if driver != c.driver {
			t.Errorf("ParseDSN(%q) driver = %s, want %s", c.in, driver, c.driver)
		}
	}
}

func TestRebind(t *testing.T) {
	q := `SELECT * FROM t WHERE a = ? AND b = ?`
	if got := rebind(DriverStoolap, q); got != q {
		t.Fatalf("stoolap rebind changed query: %q", got)
	}
	want := `SELECT * FROM t WHERE a = $1 AND b = $2`
	if got := rebind(DriverPostgres, q); got != want {
		t.Fatalf("postgres rebind = %q, want %q", got, want)
	}
}
