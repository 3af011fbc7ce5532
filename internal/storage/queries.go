package storage

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

// Queries holds the statements shared by both SQL dialects. Statements are
// written with '?' placeholders and rebound for Postgres.
type Queries struct {
	db      DBTX
	dialect Dialect
}

func New(db DBTX, d Dialect) *Queries {
	return &Queries{db: db, dialect: d}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx, dialect: q.dialect}
}

func (q *Queries) bind(query string) string {
	if q.dialect != Postgres {
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

// ExpenseRow mirrors the expenses table.
type ExpenseRow struct {
	ID          int64
	UserID      int64
	Description string
	AmountCents int64
	Category    string
	SpentAt     string
}

const expenseColumns = `id, user_id, description, amount_cents, category, spent_at`

func scanExpense(row interface{ Scan(...interface{}) error }) (ExpenseRow, error) {
	var i ExpenseRow
	err := row.Scan(&i.ID, &i.UserID, &i.Description, &i.AmountCents, &i.Category, &i.SpentAt)
	return i, err
}

const insertExpense = `INSERT INTO expenses (user_id, description, amount_cents, category, spent_at)
VALUES (?, ?, ?, ?, ?)
RETURNING id`

type InsertExpenseParams struct {
	UserID      int64
	Description string
	AmountCents int64
	Category    string
	SpentAt     string
}

func (q *Queries) InsertExpense(ctx context.Context, arg InsertExpenseParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, q.bind(insertExpense),
		arg.UserID, arg.Description, arg.AmountCents, arg.Category, arg.SpentAt)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const getExpense = `SELECT ` + expenseColumns + ` FROM expenses WHERE id = ? AND user_id = ?`

func (q *Queries) GetExpense(ctx context.Context, id, userID int64) (ExpenseRow, error) {
	return scanExpense(q.db.QueryRowContext(ctx, q.bind(getExpense), id, userID))
}

const listExpenses = `SELECT ` + expenseColumns + ` FROM expenses
WHERE user_id = ?
ORDER BY spent_at DESC, id DESC`

const listExpensesByMonth = `SELECT ` + expenseColumns + ` FROM expenses
WHERE user_id = ? AND substr(spent_at, 1, 7) = ?
ORDER BY spent_at DESC, id DESC`

func (q *Queries) ListExpenses(ctx context.Context, userID int64) ([]ExpenseRow, error) {
	return q.list(ctx, listExpenses, userID)
}

func (q *Queries) ListExpensesByMonth(ctx context.Context, userID int64, month string) ([]ExpenseRow, error) {
	return q.list(ctx, listExpensesByMonth, userID, month)
}

func (q *Queries) list(ctx context.Context, query string, args ...interface{}) ([]ExpenseRow, error) {
	rows, err := q.db.QueryContext(ctx, q.bind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ExpenseRow
	for rows.Next() {
		i, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateExpense = `UPDATE expenses
SET description = ?, amount_cents = ?, category = ?
WHERE id = ? AND user_id = ?`

type UpdateExpenseParams struct {
	Description string
	AmountCents int64
	Category    string
	ID          int64
	UserID      int64
}

func (q *Queries) UpdateExpense(ctx context.Context, arg UpdateExpenseParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, q.bind(updateExpense),
		arg.Description, arg.AmountCents, arg.Category, arg.ID, arg.UserID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteExpense = `DELETE FROM expenses WHERE id = ? AND user_id = ?`

func (q *Queries) DeleteExpense(ctx context.Context, id, userID int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, q.bind(deleteExpense), id, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteUserExpenses = `DELETE FROM expenses WHERE user_id = ?`

func (q *Queries) DeleteUserExpenses(ctx context.Context, userID int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, q.bind(deleteUserExpenses), userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const listCategories = `SELECT name FROM categories ORDER BY position`

func (q *Queries) ListCategories(ctx context.Context) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listCategories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		items = append(items, name)
	}
	return items, rows.Err()
}
