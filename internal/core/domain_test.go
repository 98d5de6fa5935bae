package core

import (
	"errors"
	"testing"
)

func TestExpenseValidate(t *testing.T) {
	tests := []struct {
		name    string
		expense Expense
		wantErr error
	}{
		{"valid", Expense{Category: "Food", Amount: 50, Date: "2024-01-01"}, nil},
		{"zero amount ok", Expense{Category: "Food", Amount: 0, Date: "2024-01-01"}, nil},
		{"negative amount", Expense{Category: "Food", Amount: -5, Date: "2024-01-01"}, ErrInvalidAmount},
		{"empty category", Expense{Category: "  ", Amount: 5, Date: "2024-01-01"}, ErrEmptyCategory},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.expense.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestExpenseValidateRejectsBadDate(t *testing.T) {
	e := Expense{Category: "Food", Amount: 5, Date: "01/02/2024"}
	if err := e.Validate(); err == nil {
		t.Fatal("expected error for non-ISO date")
	}
}

func TestDebtValidate(t *testing.T) {
	tests := []struct {
		name    string
		debt    Debt
		wantErr error
	}{
		{"valid borrowed", Debt{Counterparty: "sam", Amount: 100, Direction: Borrowed, Date: "2024-01-01"}, nil},
		{"valid lent", Debt{Counterparty: "sam", Amount: 40, Direction: Lent, Date: "2024-01-01"}, nil},
		{"negative amount", Debt{Counterparty: "sam", Amount: -1, Direction: Lent, Date: "2024-01-01"}, ErrInvalidAmount},
		{"bad direction", Debt{Counterparty: "sam", Amount: 1, Direction: "owed", Date: "2024-01-01"}, ErrInvalidDirection},
		{"empty counterparty", Debt{Counterparty: "", Amount: 1, Direction: Lent, Date: "2024-01-01"}, ErrEmptyCounterparty},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.debt.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseDirection(t *testing.T) {
	if d, err := ParseDirection(" Borrowed "); err != nil || d != Borrowed {
		t.Fatalf("ParseDirection(Borrowed) = %q, %v", d, err)
	}
	if d, err := ParseDirection("LENT"); err != nil || d != Lent {
		t.Fatalf("ParseDirection(LENT) = %q, %v", d, err)
	}
	if _, err := ParseDirection("stolen"); !errors.Is(err, ErrInvalidDirection) {
		t.Fatalf("ParseDirection(stolen) = %v, want ErrInvalidDirection", err)
	}
}
