package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"       // registers the pgx driver
	_ "github.com/stoolap/stoolap/pkg/driver" // registers the stoolap driver

	"github.com/tallpine/shopcore"
	"github.com/tallpine/shopcore/order"
)

// Driver identifies the active database/sql driver.
type Driver string

const (
	// DriverPostgres uses pgx against an external postgres.
	DriverPostgres Driver = "pgx"
	// DriverStoolap uses the embedded pure-Go engine; memory:// needs no
	// external service and is what tests and single-node setups run on.
	DriverStoolap Driver = "stoolap"
)

// ParseDSN maps a database URL onto a driver and its DSN.
func ParseDSN(databaseURL string) (Driver, string) {
	switch {
	case databaseURL == "":
		return DriverStoolap, "memory://"
	case strings.HasPrefix(databaseURL, "postgres://"),
		strings.HasPrefix(databaseURL, "postgresql://"):
		return DriverPostgres, databaseURL
	default:
		return DriverStoolap, databaseURL
	}
}

// Store owns the connection pool and implements [order.Repository].
type Store struct {
	db     *sql.DB
	driver Driver
}

// Open connects according to the DSN and verifies the connection.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	driver, dsn := ParseDSN(databaseURL)
	db, err := sql.Open(string(driver), dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return &Store{db: db, driver: driver}, nil
}

// Close releases the pool.
func (s *Store) Close() error { return s.db.Close() }

// DriverName reports the active driver.
func (s *Store) DriverName() Driver { return s.driver }

// Product and order ids are uuids generated before insert; stoolap allows
// PRIMARY KEY only on INTEGER columns, so the TEXT id columns carry no
// constraint and uniqueness comes from the generator.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id TEXT,
		name TEXT,
		price FLOAT,
		stock INTEGER,
		category TEXT,
		active BOOLEAN
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id TEXT,
		user_id INTEGER,
		status TEXT,
		total_amount FLOAT,
		shipping_address TEXT,
		created_at TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		order_id TEXT,
		product_id TEXT,
		quantity INTEGER,
		unit_price FLOAT,
		subtotal FLOAT
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY,
		username TEXT,
		password_hash TEXT,
		is_admin BOOLEAN
	)`,
}

// EnsureSchema creates the tables when missing. Idempotent.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// InTx runs fn inside one transaction. Any error from fn rolls back every
// write fn made; commit errors surface as [shopcore.ErrInternal].
func (s *Store) InTx(ctx context.Context, fn func(tx order.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin tx: %v", shopcore.ErrInternal, err)
	}
	st := &sqlTx{tx: tx, driver: s.driver}
	if err := fn(st); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit tx: %v", shopcore.ErrInternal, err)
	}
	return nil
}

// rebind converts '?' placeholders to $1..$n for postgres; stoolap takes
// '?' natively.
func rebind(driver Driver, query string) string {
	if driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}
