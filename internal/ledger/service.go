package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/adityakumar003/BrokeNoMore/internal/core"
	"github.com/adityakumar003/BrokeNoMore/internal/session"
)

// RecordStore is the persistence surface the service drives. Satisfied by
// *storage.Repository.
type RecordStore interface {
	CreateAccount(ctx context.Context, email, password string) error
	VerifyAccount(ctx context.Context, email, password string) (bool, error)
	InsertExpense(ctx context.Context, email, category string, amount float64, date string) (int64, error)
	InsertDebt(ctx context.Context, email, counterparty string, amount float64, direction core.Direction, date string) (int64, error)
	ListExpenses(ctx context.Context, email string) ([]core.Expense, error)
	ListDebts(ctx context.Context, email string) ([]core.Debt, error)
	SumExpensesByCategory(ctx context.Context, email string) (map[string]float64, error)
	SumDebtsByDirection(ctx context.Context, email string) (map[core.Direction]float64, error)
}

// Service is the use-case facade between the delivery layer and the record
// store. It validates intent before anything reaches storage and owns login
// sessions.
type Service struct {
	store    RecordStore
	sessions *session.Manager
}

func NewService(store RecordStore, sessions *session.Manager) *Service {
	return &Service{store: store, sessions: sessions}
}

// Register creates a new account. A taken email surfaces as core.ErrConflict,
// which callers present as "already exists" rather than a hard failure.
func (s *Service) Register(ctx context.Context, email, password string) error {
	if strings.TrimSpace(email) == "" || password == "" {
		return core.ErrInvalidCredentials
	}

	if err := s.store.CreateAccount(ctx, email, password); err != nil {
		if errors.Is(err, core.ErrConflict) {
			slog.InfoContext(ctx, "Registration rejected, account exists", "email", email)
			return core.ErrConflict
		}
		return fmt.Errorf("register: %w", err)
	}
	return nil
}

// Login verifies the credential and, on match, establishes a session and
// returns its token. A mismatch returns core.ErrInvalidCredentials and leaves
// session state untouched.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	ok, err := s.store.VerifyAccount(ctx, email, password)
	if err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	if !ok {
		slog.InfoContext(ctx, "Login rejected", "email", email)
		return "", core.ErrInvalidCredentials
	}

	token := s.sessions.Create(email)
	slog.InfoContext(ctx, "Login succeeded", "email", email)
	return token, nil
}

// Logout drops the session for the given token.
func (s *Service) Logout(token string) {
	s.sessions.Destroy(token)
}

// ResolveSession maps a token to its account email.
func (s *Service) ResolveSession(token string) (string, bool) {
	return s.sessions.Resolve(token)
}

// RecordExpense validates and persists one expense, returning its id.
// Validation happens here so a negative amount never reaches the store.
func (s *Service) RecordExpense(ctx context.Context, email, category string, amount float64, date string) (int64, error) {
	e := core.Expense{Email: email, Category: category, Amount: amount, Date: date}
	if err := e.Validate(); err != nil {
		return 0, err
	}

	id, err := s.store.InsertExpense(ctx, email, category, amount, date)
	if err != nil {
		return 0, fmt.Errorf("record expense: %w", err)
	}
	return id, nil
}

// RecordDebt validates and persists one borrowed/lent record.
func (s *Service) RecordDebt(ctx context.Context, email, counterparty string, amount float64, direction core.Direction, date string) (int64, error) {
	d := core.Debt{Email: email, Counterparty: counterparty, Amount: amount, Direction: direction, Date: date}
	if err := d.Validate(); err != nil {
		return 0, err
	}

	id, err := s.store.InsertDebt(ctx, email, counterparty, amount, direction, date)
	if err != nil {
		return 0, fmt.Errorf("record debt: %w", err)
	}
	return id, nil
}

// ExpenseSummary returns category totals; only categories with entries are
// present.
func (s *Service) ExpenseSummary(ctx context.Context, email string) (map[string]float64, error) {
	sums, err := s.store.SumExpensesByCategory(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("expense summary: %w", err)
	}
	return sums, nil
}

// DebtSummary returns borrowed/lent totals; an absent direction means zero.
func (s *Service) DebtSummary(ctx context.Context, email string) (map[core.Direction]float64, error) {
	sums, err := s.store.SumDebtsByDirection(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("debt summary: %w", err)
	}
	return sums, nil
}

// ExpenseHistory returns the full expense listing for report rendering.
func (s *Service) ExpenseHistory(ctx context.Context, email string) ([]core.Expense, error) {
	expenses, err := s.store.ListExpenses(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("expense history: %w", err)
	}
	return expenses, nil
}

// DebtHistory returns the full debt listing.
func (s *Service) DebtHistory(ctx context.Context, email string) ([]core.Debt, error) {
	debts, err := s.store.ListDebts(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("debt history: %w", err)
	}
	return debts, nil
}
