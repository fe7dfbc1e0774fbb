package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"train-tracker/internal/order"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// ErrNoOrder is returned when the store holds no bookings yet.
var ErrNoOrder = errors.New("no persisted order")

// bookedAtLayout sorts lexically in the same order as time.
const bookedAtLayout = "2006-01-02T15:04:05.000000000Z"

const schema = `
CREATE TABLE IF NOT EXISTS orders (
	id        TEXT PRIMARY KEY,
	booked_at TEXT NOT NULL,
	payload   TEXT NOT NULL
)`

// Store keeps persisted bookings as the raw JSON blobs the booking flow
// wrote. Reads normalize them into order.Order.
type Store struct {
	db     *sql.DB
	driver string
	now    func() time.Time
}

func Open(dsn string) (*Store, error) {
	driver, source, err := ParseDSN(dsn)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driver, source)
	if err != nil {
		return nil, err
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(20)
		db.SetMaxIdleConns(5)
	}
	db.SetConnMaxLifetime(30 * time.Minute)
	return &Store{db: db, driver: driver, now: time.Now}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Driver() string { return s.driver }

func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.db.PingContext(ctx)
}

// Migrate creates the orders table if it is missing.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create orders table: %w", err)
	}
	return nil
}

// Save stores one booking payload. The normalized id keys the row, so saving
// the same booking twice replaces it.
func (s *Store) Save(ctx context.Context, payload []byte) (order.Order, error) {
	o, err := order.Normalize(payload)
	if err != nil {
		return order.Order{}, err
	}
	if o.BookedAt.IsZero() {
		o.BookedAt = s.now()
	}
	q := rebind(s.driver, `
INSERT INTO orders (id, booked_at, payload) VALUES (?, ?, ?)
ON CONFLICT (id) DO UPDATE SET booked_at = excluded.booked_at, payload = excluded.payload`)
	if _, err := s.db.ExecContext(ctx, q, o.ID, o.BookedAt.UTC().Format(bookedAtLayout), string(payload)); err != nil {
		return order.Order{}, fmt.Errorf("insert order %s: %w", o.ID, err)
	}
	return o, nil
}

// SaveOrder stores an already canonical order.
func (s *Store) SaveOrder(ctx context.Context, o order.Order) (order.Order, error) {
	b, err := json.Marshal(o)
	if err != nil {
		return order.Order{}, err
	}
	return s.Save(ctx, b)
}

// ImportHistory stores a kai_history export (newest first). Older entries
// are written with earlier timestamps when they carry none, so Latest keeps
// returning the head of the list.
func (s *Store) ImportHistory(ctx context.Context, raw []byte) (int, error) {
	orders, err := order.NormalizeHistory(raw)
	if err != nil {
		return 0, err
	}
	base := s.now()
	n := 0
	for i := len(orders) - 1; i >= 0; i-- {
		o := orders[i]
		if o.BookedAt.IsZero() {
			o.BookedAt = base.Add(-time.Duration(i) * time.Millisecond)
		}
		if _, err := s.SaveOrder(ctx, o); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// Latest returns the most recently booked order or ErrNoOrder.
func (s *Store) Latest(ctx context.Context) (order.Order, error) {
	orders, err := s.List(ctx, 1)
	if err != nil {
		return order.Order{}, err
	}
	if len(orders) == 0 {
		return order.Order{}, ErrNoOrder
	}
	return orders[0], nil
}

// List returns up to limit orders, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]order.Order, error) {
	if limit <= 0 {
		limit = 50
	}
	q := rebind(s.driver, `SELECT id, booked_at, payload FROM orders ORDER BY booked_at DESC, id DESC LIMIT ?`)
	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var out []order.Order
	for rows.Next() {
		var id, bookedAt, payload string
		if err := rows.Scan(&id, &bookedAt, &payload); err != nil {
			return nil, err
		}
		o, err := order.Normalize([]byte(payload))
		if err != nil {
			// a row we cannot decode still identifies a booking
			o = order.Order{}
		}
		o.ID = id
		if t, err := time.Parse(bookedAtLayout, bookedAt); err == nil {
			o.BookedAt = t
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
