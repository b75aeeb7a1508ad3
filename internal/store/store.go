// Package store persists imported transactions per entity in SQLite or PostgreSQL
// and serves them back as forecast history.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/cashflow/internal/model"

	_ "github.com/lib/pq"  // register postgres driver
	_ "modernc.org/sqlite" // register sqlite driver
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

const dateFormat = "2006-01-02"

// Source supplies transaction history for one entity. since and until bound the
// calendar date; since is inclusive, until exclusive. A zero bound is open.
type Source interface {
	Transactions(ctx context.Context, entity string, since, until time.Time) ([]model.Transaction, error)
}

// Store is a SQL-backed transaction store.
type Store struct {
	db     *sql.DB
	driver string
}

// Open opens or creates the store. For sqlite, dsn is a file path.
func Open(driver, dsn string) (*Store, error) {
	var (
		db  *sql.DB
		err error
	)
	switch driver {
	case DriverSQLite:
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("creating store dir: %w", err)
			}
		}
		db, err = sql.Open("sqlite", dsn+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=busy_timeout(5000)")
	case DriverPostgres:
		db, err = sql.Open("postgres", dsn)
	default:
		return nil, fmt.Errorf("unsupported store driver %q", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &Store{db: db, driver: driver}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Insert stores txns for entity, skipping any whose reference is already present.
// Transactions without a reference get one derived from their content.
// It returns the number of rows written.
func (s *Store) Insert(ctx context.Context, entity string, txns []model.Transaction) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning insert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, s.rebind(`INSERT INTO transactions
		(entity, reference, date, description, amount, category, imported_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (entity, reference) DO NOTHING`))
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now().UTC().Format(time.RFC3339)
	inserted := 0
	for _, t := range txns {
		res, err := stmt.ExecContext(ctx,
			entity, Reference(entity, t), model.Day(t.Date).Format(dateFormat),
			t.Description, t.Amount.String(), t.Category, now,
		)
		if err != nil {
			return 0, fmt.Errorf("inserting %s: %w", Reference(entity, t), err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("reading rows affected: %w", err)
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing insert: %w", err)
	}
	return inserted, nil
}

// Transactions implements Source. Results are ordered by date then reference.
func (s *Store) Transactions(ctx context.Context, entity string, since, until time.Time) ([]model.Transaction, error) {
	query := "SELECT date, description, amount, category, reference FROM transactions WHERE entity = ?"
	args := []any{entity}
	if !since.IsZero() {
		query += " AND date >= ?"
		args = append(args, model.Day(since).Format(dateFormat))
	}
	if !until.IsZero() {
		query += " AND date < ?"
		args = append(args, model.Day(until).Format(dateFormat))
	}
	query += " ORDER BY date, reference"

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("querying transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var txns []model.Transaction
	for rows.Next() {
		var date, amount string
		var t model.Transaction
		if err := rows.Scan(&date, &t.Description, &amount, &t.Category, &t.Reference); err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}
		if t.Date, err = time.Parse(dateFormat, date); err != nil {
			return nil, fmt.Errorf("parsing date %q: %w", date, err)
		}
		if t.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("parsing amount %q: %w", amount, err)
		}
		txns = append(txns, t)
	}
	return txns, rows.Err()
}

// Entities returns every entity with stored transactions, sorted.
func (s *Store) Entities(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT entity FROM transactions ORDER BY entity")
	if err != nil {
		return nil, fmt.Errorf("querying entities: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var e string
		if err := rows.Scan(&e); err != nil {
			return nil, fmt.Errorf("scanning entity: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Reference returns t.Reference, or a stable content-derived ID when it is empty.
func Reference(entity string, t model.Transaction) string {
	if t.Reference != "" {
		return t.Reference
	}
	key := strings.Join([]string{entity, model.Day(t.Date).Format(dateFormat), t.Description, t.Amount.String()}, "|")
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(key)).String()
}

// rebind rewrites ? placeholders to $n for postgres.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
