package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/adityakumar003/BrokeNoMore/internal/ledger"
	"github.com/adityakumar003/BrokeNoMore/internal/session"
	"github.com/adityakumar003/BrokeNoMore/internal/storage"
)

type fakeAdvisor struct {
	answer string
	asked  []string
}

func (f *fakeAdvisor) Answer(_ context.Context, email, query string) string {
	f.asked = append(f.asked, email+"|"+query)
	return f.answer
}

func newTestServer(t *testing.T, advisor Answerer) *Server {
	t.Helper()
	repo, err := storage.NewRepository(":memory:")
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	svc := ledger.NewService(repo, session.NewManager(time.Hour))
	srv := NewServer(":0", svc, advisor)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return srv
}

func do(t *testing.T, srv *Server, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
}

func register(t *testing.T, srv *Server, email, password string) {
	t.Helper()
	rr := do(t, srv, http.MethodPost, "/api/register", "", `{"email":"`+email+`","password":"`+password+`"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body %s", rr.Code, rr.Body.String())
	}
}

func login(t *testing.T, srv *Server, email, password string) string {
	t.Helper()
	rr := do(t, srv, http.MethodPost, "/api/login", "", `{"email":"`+email+`","password":"`+password+`"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", rr.Code, rr.Body.String())
	}
	var resp map[string]string
	decodeBody(t, rr, &resp)
	if resp["token"] == "" {
		t.Fatal("login returned empty token")
	}
	return resp["token"]
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t, nil)
	for _, path := range []string{"/healthz", "/readyz"} {
		rr := do(t, srv, http.MethodGet, path, "", "")
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status = %d", path, rr.Code)
		}
	}
}

func TestRegisterConflict(t *testing.T) {
	srv := newTestServer(t, nil)

	register(t, srv, "a@x.com", "p")

	rr := do(t, srv, http.MethodPost, "/api/register", "", `{"email":"a@x.com","password":"other"}`)
	if rr.Code != http.StatusConflict {
		t.Fatalf("duplicate register status = %d, want 409", rr.Code)
	}
}

func TestRegisterMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, nil)
	rr := do(t, srv, http.MethodGet, "/api/register", "", "")
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rr.Code)
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	srv := newTestServer(t, nil)
	register(t, srv, "a@x.com", "p")

	rr := do(t, srv, http.MethodPost, "/api/login", "", `{"email":"a@x.com","password":"wrong"}`)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password status = %d, want 401", rr.Code)
	}

	// No session was established: authenticated endpoints stay closed.
	rr = do(t, srv, http.MethodGet, "/api/expenses", "", "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expenses without session = %d, want 401", rr.Code)
	}
}

func TestExpenseFlow(t *testing.T) {
	srv := newTestServer(t, nil)
	register(t, srv, "a@x.com", "p")
	token := login(t, srv, "a@x.com", "p")

	for _, body := range []string{
		`{"category":"Food","amount":50,"date":"2024-01-01"}`,
		`{"category":"Food","amount":30,"date":"2024-01-02"}`,
	} {
		rr := do(t, srv, http.MethodPost, "/api/expenses", token, body)
		if rr.Code != http.StatusCreated {
			t.Fatalf("create expense status = %d, body %s", rr.Code, rr.Body.String())
		}
	}

	rr := do(t, srv, http.MethodGet, "/api/expenses/summary", token, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("summary status = %d", rr.Code)
	}
	var resp struct {
		Summary map[string]float64 `json:"summary"`
	}
	decodeBody(t, rr, &resp)
	if len(resp.Summary) != 1 || resp.Summary["Food"] != 80 {
		t.Fatalf("summary = %v, want {Food: 80}", resp.Summary)
	}

	// A write invalidates the cached summary.
	rr = do(t, srv, http.MethodPost, "/api/expenses", token, `{"category":"Transport","amount":5,"date":"2024-01-03"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create expense status = %d", rr.Code)
	}
	rr = do(t, srv, http.MethodGet, "/api/expenses/summary", token, "")
	decodeBody(t, rr, &resp)
	if resp.Summary["Transport"] != 5 {
		t.Fatalf("summary after write = %v, want Transport: 5", resp.Summary)
	}

	rr = do(t, srv, http.MethodGet, "/api/expenses", token, "")
	var hist struct {
		Expenses []struct {
			ID       int64   `json:"id"`
			Category string  `json:"category"`
			Amount   float64 `json:"amount"`
			Date     string  `json:"date"`
		} `json:"expenses"`
	}
	decodeBody(t, rr, &hist)
	if len(hist.Expenses) != 3 {
		t.Fatalf("history has %d items, want 3", len(hist.Expenses))
	}
}

func TestCreateExpenseRejectsNegativeAmount(t *testing.T) {
	srv := newTestServer(t, nil)
	register(t, srv, "a@x.com", "p")
	token := login(t, srv, "a@x.com", "p")

	rr := do(t, srv, http.MethodPost, "/api/expenses", token, `{"category":"Food","amount":-5,"date":"2024-01-01"}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("negative amount status = %d, want 422", rr.Code)
	}

	rr = do(t, srv, http.MethodGet, "/api/expenses", token, "")
	var hist struct {
		Expenses []json.RawMessage `json:"expenses"`
	}
	decodeBody(t, rr, &hist)
	if len(hist.Expenses) != 0 {
		t.Fatal("rejected expense must not be persisted")
	}
}

func TestDebtFlow(t *testing.T) {
	srv := newTestServer(t, nil)
	register(t, srv, "a@x.com", "p")
	token := login(t, srv, "a@x.com", "p")

	rr := do(t, srv, http.MethodPost, "/api/debts", token, `{"counterparty":"sam","amount":100,"direction":"Borrowed","date":"2024-02-01"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create debt status = %d, body %s", rr.Code, rr.Body.String())
	}
	rr = do(t, srv, http.MethodPost, "/api/debts", token, `{"counterparty":"lee","amount":40,"direction":"lent","date":"2024-02-02"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create debt status = %d", rr.Code)
	}

	rr = do(t, srv, http.MethodPost, "/api/debts", token, `{"counterparty":"sam","amount":1,"direction":"owed","date":"2024-02-03"}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("bad direction status = %d, want 422", rr.Code)
	}

	rr = do(t, srv, http.MethodGet, "/api/debts/summary", token, "")
	var resp struct {
		Summary map[string]float64 `json:"summary"`
	}
	decodeBody(t, rr, &resp)
	if resp.Summary["borrowed"] != 100 || resp.Summary["lent"] != 40 {
		t.Fatalf("debt summary = %v, want borrowed=100 lent=40", resp.Summary)
	}
}

func TestLogoutDropsSession(t *testing.T) {
	srv := newTestServer(t, nil)
	register(t, srv, "a@x.com", "p")
	token := login(t, srv, "a@x.com", "p")

	rr := do(t, srv, http.MethodPost, "/api/logout", token, "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("logout status = %d, want 204", rr.Code)
	}

	rr = do(t, srv, http.MethodGet, "/api/expenses", token, "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expenses after logout = %d, want 401", rr.Code)
	}
}

func TestAssistantEndpoint(t *testing.T) {
	advisor := &fakeAdvisor{answer: "Error: deadline exceeded"}
	srv := newTestServer(t, advisor)
	register(t, srv, "a@x.com", "p")
	token := login(t, srv, "a@x.com", "p")

	rr := do(t, srv, http.MethodPost, "/api/assistant", token, `{"query":"how do I save?"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("assistant status = %d, want 200 even on assistant failure", rr.Code)
	}
	var resp map[string]string
	decodeBody(t, rr, &resp)
	if !strings.HasPrefix(resp["answer"], "Error:") {
		t.Fatalf("answer = %q, want fenced error", resp["answer"])
	}
	if len(advisor.asked) != 1 || !strings.HasPrefix(advisor.asked[0], "a@x.com|") {
		t.Fatalf("advisor asked = %v", advisor.asked)
	}

	// Ledger stays usable after an assistant failure.
	rr = do(t, srv, http.MethodPost, "/api/expenses", token, `{"category":"Food","amount":1,"date":"2024-01-01"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expense after assistant failure = %d", rr.Code)
	}
}

func TestAssistantUnconfigured(t *testing.T) {
	srv := newTestServer(t, nil)
	register(t, srv, "a@x.com", "p")
	token := login(t, srv, "a@x.com", "p")

	rr := do(t, srv, http.MethodPost, "/api/assistant", token, `{"query":"q"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("assistant status = %d", rr.Code)
	}
	var resp map[string]string
	decodeBody(t, rr, &resp)
	if !strings.HasPrefix(resp["answer"], "Error:") {
		t.Fatalf("answer = %q, want fenced error", resp["answer"])
	}
}
