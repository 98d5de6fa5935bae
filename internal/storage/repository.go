package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/adityakumar003/BrokeNoMore/internal/core"

	"golang.org/x/crypto/bcrypt"
	sqlite "modernc.org/sqlite"
	sqlitelib "modernc.org/sqlite/lib"
)

// Repository is the SQLite record store. It is the only component touching
// the storage medium; every insert commits before returning.
type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dbPath != ":memory:" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// SQLite serializes writes anyway; a single pooled connection avoids
	// SQLITE_BUSY under concurrent sessions and keeps :memory: databases on
	// one connection.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CreateAccount hashes the password and persists a new account. A duplicate
// email fails with core.ErrConflict; the primary key guarantees that of two
// concurrent registrations exactly one succeeds.
func (r *Repository) CreateAccount(ctx context.Context, email, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		"INSERT INTO accounts (email, password_hash) VALUES (?, ?)",
		email, string(hash))
	if err != nil {
		if isConstraintViolation(err) {
			return fmt.Errorf("create account %q: %w", email, core.ErrConflict)
		}
		return storageErr("create account", err)
	}

	slog.InfoContext(ctx, "Account created", "email", email)
	return nil
}

// VerifyAccount reports whether the credential matches the stored hash. An
// unknown email and a wrong password are indistinguishable to the caller.
func (r *Repository) VerifyAccount(ctx context.Context, email, password string) (bool, error) {
	var hash string
	err := r.db.QueryRowContext(ctx,
		"SELECT password_hash FROM accounts WHERE email = ?", email).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, storageErr("verify account", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return false, nil
	}
	return true, nil
}

// InsertExpense persists an expense and returns its assigned id. Shape
// validation lives in the ledger service; the schema's CHECK constraint is a
// backstop only.
func (r *Repository) InsertExpense(ctx context.Context, email, category string, amount float64, date string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO expenses (email, category, amount, date) VALUES (?, ?, ?, ?)",
		email, category, amount, date)
	if err != nil {
		return 0, storageErr("insert expense", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, storageErr("insert expense id", err)
	}

	slog.InfoContext(ctx, "Expense saved",
		"id", id,
		"email", email,
		"category", category,
		"amount", amount,
		"date", date)

	return id, nil
}

// InsertDebt persists a debt record and returns its assigned id.
func (r *Repository) InsertDebt(ctx context.Context, email, counterparty string, amount float64, direction core.Direction, date string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO debts (email, counterparty, amount, direction, date) VALUES (?, ?, ?, ?, ?)",
		email, counterparty, amount, string(direction), date)
	if err != nil {
		return 0, storageErr("insert debt", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, storageErr("insert debt id", err)
	}

	slog.InfoContext(ctx, "Debt saved",
		"id", id,
		"email", email,
		"counterparty", counterparty,
		"amount", amount,
		"direction", direction,
		"date", date)

	return id, nil
}

// ListExpenses returns all expenses for the account in store order.
func (r *Repository) ListExpenses(ctx context.Context, email string) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, email, category, amount, date FROM expenses WHERE email = ?", email)
	if err != nil {
		return nil, storageErr("list expenses", err)
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		var e core.Expense
		if err := rows.Scan(&e.ID, &e.Email, &e.Category, &e.Amount, &e.Date); err != nil {
			return nil, storageErr("scan expense", err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list expenses", err)
	}

	return expenses, nil
}

// ListDebts returns all debt records for the account in store order.
func (r *Repository) ListDebts(ctx context.Context, email string) ([]core.Debt, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, email, counterparty, amount, direction, date FROM debts WHERE email = ?", email)
	if err != nil {
		return nil, storageErr("list debts", err)
	}
	defer rows.Close()

	var debts []core.Debt
	for rows.Next() {
		var d core.Debt
		var direction string
		if err := rows.Scan(&d.ID, &d.Email, &d.Counterparty, &d.Amount, &direction, &d.Date); err != nil {
			return nil, storageErr("scan debt", err)
		}
		d.Direction = core.Direction(direction)
		debts = append(debts, d)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list debts", err)
	}

	return debts, nil
}

// SumExpensesByCategory returns category totals for the account. Only
// categories with at least one entry are present.
func (r *Repository) SumExpensesByCategory(ctx context.Context, email string) (map[string]float64, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT category, SUM(amount) FROM expenses WHERE email = ? GROUP BY category", email)
	if err != nil {
		return nil, storageErr("sum expenses by category", err)
	}
	defer rows.Close()

	sums := make(map[string]float64)
	for rows.Next() {
		var category string
		var total float64
		if err := rows.Scan(&category, &total); err != nil {
			return nil, storageErr("scan category sum", err)
		}
		sums[category] = total
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("sum expenses by category", err)
	}

	return sums, nil
}

// SumDebtsByDirection returns borrowed/lent totals for the account. A
// direction with no entries is absent from the map; callers treat absent as
// zero.
func (r *Repository) SumDebtsByDirection(ctx context.Context, email string) (map[core.Direction]float64, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT direction, SUM(amount) FROM debts WHERE email = ? GROUP BY direction", email)
	if err != nil {
		return nil, storageErr("sum debts by direction", err)
	}
	defer rows.Close()

	sums := make(map[core.Direction]float64)
	for rows.Next() {
		var direction string
		var total float64
		if err := rows.Scan(&direction, &total); err != nil {
			return nil, storageErr("scan direction sum", err)
		}
		sums[core.Direction(direction)] = total
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("sum debts by direction", err)
	}

	return sums, nil
}

// storageErr wraps a driver error so callers can match it with
// errors.Is(err, core.ErrStorageUnavailable) without losing the cause.
func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w", op, errors.Join(core.ErrStorageUnavailable, err))
}

func isConstraintViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlitelib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlitelib.SQLITE_CONSTRAINT_UNIQUE:
		return true
	}
	return false
}
