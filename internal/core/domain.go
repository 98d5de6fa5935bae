package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Borrowed Direction = "borrowed"
	Lent     Direction = "lent"
)

type (
	// Direction tells whether money was borrowed from or lent to the counterparty.
	Direction string

	// Account is a registered user, identified by email.
	Account struct {
		Email string
	}

	// Expense is a single spending record owned by an account.
	Expense struct {
		ID       int64
		Email    string
		Category string
		Amount   float64
		Date     string // ISO-8601 (YYYY-MM-DD)
	}

	// Debt is a borrowed/lent record against a free-text counterparty.
	Debt struct {
		ID           int64
		Email        string
		Counterparty string
		Amount       float64
		Direction    Direction
		Date         string
	}
)

var (
	ErrConflict             = errors.New("account already exists")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrInvalidDirection     = errors.New("invalid direction")
	ErrEmptyCategory        = errors.New("empty category")
	ErrEmptyCounterparty    = errors.New("empty counterparty")
	ErrStorageUnavailable   = errors.New("storage unavailable")
	ErrAssistantUnavailable = errors.New("assistant unavailable")
)

func (d Direction) Validate() error {
	switch d {
	case Borrowed, Lent:
		return nil
	default:
		return ErrInvalidDirection
	}
}

// ParseDirection normalizes free-form input ("Borrowed", "lent", ...) into a
// Direction, or fails with ErrInvalidDirection.
func ParseDirection(s string) (Direction, error) {
	d := Direction(strings.ToLower(strings.TrimSpace(s)))
	if err := d.Validate(); err != nil {
		return "", err
	}
	return d, nil
}

func (e Expense) Validate() error {
	if e.Amount < 0 {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	return validateDate(e.Date)
}

func (d Debt) Validate() error {
	if d.Amount < 0 {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(d.Counterparty) == "" {
		return ErrEmptyCounterparty
	}
	if err := d.Direction.Validate(); err != nil {
		return err
	}
	return validateDate(d.Date)
}

func validateDate(s string) error {
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return errors.New("invalid date: expected YYYY-MM-DD")
	}
	return nil
}
