// Package storage persists expenses in SQLite (default), PostgreSQL or
// process memory. All variants honour the same ownership rule: a record is
// only visible to the user that created it.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"spendlens/internal/core"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("expense not found")

// Dialect selects the SQL flavour and its migrations.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

func (d Dialect) driverName() string {
	return string(d)
}

// Store is the persistence contract used by the services.
type Store interface {
	Insert(ctx context.Context, e core.Expense) (core.Expense, error)
	List(ctx context.Context, userID int64, month string) ([]core.Expense, error)
	Get(ctx context.Context, id, userID int64) (core.Expense, error)
	Update(ctx context.Context, e core.Expense) (core.Expense, error)
	Delete(ctx context.Context, id, userID int64) error
	DeleteAll(ctx context.Context, userID int64) (int64, error)
	Ping(ctx context.Context) error
	Close() error
}

// SQLRepository is the database/sql implementation of Store.
type SQLRepository struct {
	db      *sql.DB
	queries *Queries
	dialect Dialect
}

// OpenSQLite opens (creating if needed) the database file at path and
// migrates it.
func OpenSQLite(path string) (*SQLRepository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	return open(SQLite, dsn)
}

// OpenPostgres connects to databaseURL and migrates the schema.
func OpenPostgres(databaseURL string) (*SQLRepository, error) {
	return open(Postgres, databaseURL)
}

func open(d Dialect, dsn string) (*SQLRepository, error) {
	db, err := sql.Open(d.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", d, err)
	}
	if d == SQLite {
		// a single writer avoids SQLITE_BUSY under concurrent requests
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(d, dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLRepository{db: db, queries: New(db, d), dialect: d}, nil
}

func (r *SQLRepository) Dialect() Dialect {
	return r.dialect
}

func (r *SQLRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks the connection and that the category table is seeded.
func (r *SQLRepository) Ping(ctx context.Context) error {
	cats, err := r.queries.ListCategories(ctx)
	if err != nil {
		return fmt.Errorf("list categories: %w", err)
	}
	if len(cats) != len(core.AllCategories()) {
		return fmt.Errorf("categories table has %d rows, want %d", len(cats), len(core.AllCategories()))
	}
	return nil
}

func (r *SQLRepository) Insert(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	id, err := r.queries.InsertExpense(ctx, InsertExpenseParams{
		UserID:      e.UserID,
		Description: e.Description,
		AmountCents: e.Amount.Cents,
		Category:    e.Category.String(),
		SpentAt:     core.FormatTimestamp(e.SpentAt),
	})
	if err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}
	e.ID = id

	slog.DebugContext(ctx, "Expense stored",
		"id", id,
		"user_id", e.UserID,
		"amount_cents", e.Amount.Cents,
		"category", e.Category)
	return e, nil
}

func (r *SQLRepository) List(ctx context.Context, userID int64, month string) ([]core.Expense, error) {
	if err := core.ValidateMonth(month); err != nil {
		return nil, err
	}
	var (
		rows []ExpenseRow
		err  error
	)
	if month == "" {
		rows, err = r.queries.ListExpenses(ctx, userID)
	} else {
		rows, err = r.queries.ListExpensesByMonth(ctx, userID, month)
	}
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}

	out := make([]core.Expense, 0, len(rows))
	for _, row := range rows {
		e, err := row.toCore()
		if err != nil {
			return nil, fmt.Errorf("expense %d: %w", row.ID, err)
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *SQLRepository) Get(ctx context.Context, id, userID int64) (core.Expense, error) {
	row, err := r.queries.GetExpense(ctx, id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	return row.toCore()
}

// Update rewrites description, amount and category. The timestamp is kept.
// The read and the write share one transaction.
func (r *SQLRepository) Update(ctx context.Context, e core.Expense) (core.Expense, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Expense{}, fmt.Errorf("begin update: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	q := r.queries.WithTx(tx)

	row, err := q.GetExpense(ctx, e.ID, e.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	current, err := row.toCore()
	if err != nil {
		return core.Expense{}, err
	}
	e.SpentAt = current.SpentAt
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	n, err := q.UpdateExpense(ctx, UpdateExpenseParams{
		Description: e.Description,
		AmountCents: e.Amount.Cents,
		Category:    e.Category.String(),
		ID:          e.ID,
		UserID:      e.UserID,
	})
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}
	if n == 0 {
		return core.Expense{}, ErrNotFound
	}
	if err := tx.Commit(); err != nil {
		return core.Expense{}, fmt.Errorf("commit update: %w", err)
	}
	return e, nil
}

func (r *SQLRepository) Delete(ctx context.Context, id, userID int64) error {
	n, err := r.queries.DeleteExpense(ctx, id, userID)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAll removes every expense of the user and reports how many went.
func (r *SQLRepository) DeleteAll(ctx context.Context, userID int64) (int64, error) {
	n, err := r.queries.DeleteUserExpenses(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("delete user expenses: %w", err)
	}
	slog.InfoContext(ctx, "User expenses deleted", "user_id", userID, "count", n)
	return n, nil
}

func (row ExpenseRow) toCore() (core.Expense, error) {
	cat, err := core.ParseCategory(row.Category)
	if err != nil {
		return core.Expense{}, err
	}
	spentAt, err := core.ParseTimestamp(row.SpentAt)
	if err != nil {
		return core.Expense{}, err
	}
	return core.Expense{
		ID:          row.ID,
		UserID:      row.UserID,
		Description: row.Description,
		Amount:      core.Money{Cents: row.AmountCents},
		Category:    cat,
		SpentAt:     spentAt,
	}, nil
}
