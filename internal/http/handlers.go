package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/adityakumar003/BrokeNoMore/internal/core"
)

type sessionEmailKey struct{}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type expenseRequest struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
	Date     string  `json:"date"`
}

type debtRequest struct {
	Counterparty string  `json:"counterparty"`
	Amount       float64 `json:"amount"`
	Direction    string  `json:"direction"`
	Date         string  `json:"date"`
}

type assistantRequest struct {
	Query string `json:"query"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		slog.ErrorContext(r.Context(), "Invalid request body", "error", err, "url", r.URL.Path)
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// statusFor maps domain errors to HTTP status codes per the propagation
// policy: validation 422, conflict 409, credentials 401, storage 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidDirection),
		errors.Is(err, core.ErrEmptyCategory),
		errors.Is(err, core.ErrEmptyCounterparty):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, core.ErrInvalidCredentials):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// requireSession resolves the Bearer token into an account email and stores
// it on the request context. Requests without a live session get 401.
func (s *Server) requireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing session token")
			return
		}
		email, ok := s.ledger.ResolveSession(token)
		if !ok {
			writeError(w, http.StatusUnauthorized, "session expired or unknown")
			return
		}
		ctx := context.WithValue(r.Context(), sessionEmailKey{}, email)
		next(w, r.WithContext(ctx))
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}

func sessionEmail(r *http.Request) string {
	email, _ := r.Context().Value(sessionEmailKey{}).(string)
	return email
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := s.ledger.Register(r.Context(), req.Email, req.Password); err != nil {
		if errors.Is(err, core.ErrConflict) {
			writeError(w, http.StatusConflict, "account already exists, try logging in")
			return
		}
		slog.ErrorContext(r.Context(), "Registration failed", "email", req.Email, "error", err)
		writeError(w, statusFor(err), "registration failed")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"status": "registered"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	token, err := s.ledger.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, core.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid login credentials")
			return
		}
		slog.ErrorContext(r.Context(), "Login failed", "email", req.Email, "error", err)
		writeError(w, statusFor(err), "login failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	s.ledger.Logout(bearerToken(r))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExpenses(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreateExpense(w, r)
	case http.MethodGet:
		s.handleExpenseHistory(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	email := sessionEmail(r)

	var req expenseRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	id, err := s.ledger.RecordExpense(r.Context(), email, strings.TrimSpace(req.Category), req.Amount, req.Date)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			slog.ErrorContext(r.Context(), "Expense create failed", "email", email, "error", err)
			writeError(w, status, "error saving expense")
			return
		}
		writeError(w, status, err.Error())
		return
	}

	s.expenseSummaryCache.Delete(email)

	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleExpenseHistory(w http.ResponseWriter, r *http.Request) {
	email := sessionEmail(r)

	expenses, err := s.ledger.ExpenseHistory(r.Context(), email)
	if err != nil {
		slog.ErrorContext(r.Context(), "Expense history failed", "email", email, "error", err)
		writeError(w, http.StatusInternalServerError, "error loading expenses")
		return
	}

	type item struct {
		ID       int64   `json:"id"`
		Category string  `json:"category"`
		Amount   float64 `json:"amount"`
		Date     string  `json:"date"`
	}
	items := make([]item, 0, len(expenses))
	for _, e := range expenses {
		items = append(items, item{ID: e.ID, Category: e.Category, Amount: e.Amount, Date: e.Date})
	}

	writeJSON(w, http.StatusOK, map[string]any{"expenses": items})
}

func (s *Server) handleExpenseSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	email := sessionEmail(r)

	if summary, found := s.expenseSummaryCache.Get(email); found {
		writeJSON(w, http.StatusOK, map[string]any{"summary": summary})
		return
	}

	summary, err := s.ledger.ExpenseSummary(r.Context(), email)
	if err != nil {
		slog.ErrorContext(r.Context(), "Expense summary failed", "email", email, "error", err)
		writeError(w, http.StatusInternalServerError, "error loading summary")
		return
	}
	s.expenseSummaryCache.Set(email, summary)

	writeJSON(w, http.StatusOK, map[string]any{"summary": summary})
}

func (s *Server) handleDebts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreateDebt(w, r)
	case http.MethodGet:
		s.handleDebtHistory(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleCreateDebt(w http.ResponseWriter, r *http.Request) {
	email := sessionEmail(r)

	var req debtRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	direction, err := core.ParseDirection(req.Direction)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	id, err := s.ledger.RecordDebt(r.Context(), email, strings.TrimSpace(req.Counterparty), req.Amount, direction, req.Date)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			slog.ErrorContext(r.Context(), "Debt create failed", "email", email, "error", err)
			writeError(w, status, "error saving debt")
			return
		}
		writeError(w, status, err.Error())
		return
	}

	s.debtSummaryCache.Delete(email)

	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleDebtHistory(w http.ResponseWriter, r *http.Request) {
	email := sessionEmail(r)

	debts, err := s.ledger.DebtHistory(r.Context(), email)
	if err != nil {
		slog.ErrorContext(r.Context(), "Debt history failed", "email", email, "error", err)
		writeError(w, http.StatusInternalServerError, "error loading debts")
		return
	}

	type item struct {
		ID           int64   `json:"id"`
		Counterparty string  `json:"counterparty"`
		Amount       float64 `json:"amount"`
		Direction    string  `json:"direction"`
		Date         string  `json:"date"`
	}
	items := make([]item, 0, len(debts))
	for _, d := range debts {
		items = append(items, item{ID: d.ID, Counterparty: d.Counterparty, Amount: d.Amount, Direction: string(d.Direction), Date: d.Date})
	}

	writeJSON(w, http.StatusOK, map[string]any{"debts": items})
}

func (s *Server) handleDebtSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	email := sessionEmail(r)

	if summary, found := s.debtSummaryCache.Get(email); found {
		writeJSON(w, http.StatusOK, map[string]any{"summary": summary})
		return
	}

	summary, err := s.ledger.DebtSummary(r.Context(), email)
	if err != nil {
		slog.ErrorContext(r.Context(), "Debt summary failed", "email", email, "error", err)
		writeError(w, http.StatusInternalServerError, "error loading summary")
		return
	}
	s.debtSummaryCache.Set(email, summary)

	writeJSON(w, http.StatusOK, map[string]any{"summary": summary})
}

func (s *Server) handleAssistant(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	email := sessionEmail(r)

	var req assistantRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if s.advisor == nil {
		writeJSON(w, http.StatusOK, map[string]string{"answer": "Error: assistant is not configured"})
		return
	}

	// The advisor recovers every collaborator failure into text, so the
	// response is always 200 and ledger availability is unaffected.
	answer := s.advisor.Answer(r.Context(), email, req.Query)
	writeJSON(w, http.StatusOK, map[string]string{"answer": answer})
}
