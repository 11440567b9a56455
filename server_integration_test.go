package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
)

// helper to perform requests with auth token
func performRequest(r http.Handler, method, path string, body io.Reader, token string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func setupTestServer(t *testing.T) *gin.Engine {
	// integration tests are opt-in. Set DB_DSN_TEST=1 and DB_DSN to run them.
	if os.Getenv("DB_DSN_TEST") != "1" {
		t.Skip("integration tests are disabled; set DB_DSN_TEST=1 to enable")
	}
	gin.SetMode(gin.TestMode)
	jwtSecret = []byte("test-secret")
	initDB()
	initLedger()
	r := gin.Default()
	setupRoutes(r)
	return r
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return bytes.NewBuffer(b)
}

func decode(t *testing.T, resp *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v body=%s", err, resp.Body.String())
	}
	return out
}

func TestFullFlow(t *testing.T) {
	r := setupTestServer(t)

	// 1. Register user (409 means a previous run already created it)
	resp := performRequest(r, http.MethodPost, "/register", jsonBody(t, map[string]string{"username": "lgr1", "password": "pass123"}), "")
	if resp.Code != 200 && resp.Code != 409 {
		t.Fatalf("register failed status=%d body=%s", resp.Code, resp.Body.String())
	}

	// 2. Login
	resp = performRequest(r, http.MethodPost, "/login", jsonBody(t, map[string]string{"username": "lgr1", "password": "pass123"}), "")
	if resp.Code != 200 {
		t.Fatalf("login failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	token, _ := decode(t, resp)["token"].(string)
	if token == "" {
		t.Fatalf("empty token in login response: %s", resp.Body.String())
	}

	// 3. Create account with opening balance
	resp = performRequest(r, http.MethodPost, "/api/accounts", jsonBody(t, map[string]any{
		"name": "Checking", "balance": "1000.00", "account_type": "checking", "bank_name": "FinBank",
	}), token)
	if resp.Code != 200 {
		t.Fatalf("create account failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	accountID, _ := decode(t, resp)["id"].(string)
	if accountID == "" {
		t.Fatalf("missing account id: %s", resp.Body.String())
	}

	// 4. Create budget
	resp = performRequest(r, http.MethodPost, "/api/budgets", jsonBody(t, map[string]any{
		"name": "Groceries", "category": "groceries", "amount": "200.00",
		"period": "MONTHLY", "start_date": "2026-01-01",
	}), token)
	if resp.Code != 200 {
		t.Fatalf("create budget failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	budgetID, _ := decode(t, resp)["id"].(string)

	// 5. Record a debit transaction against the budget category
	resp = performRequest(r, http.MethodPost, "/api/transactions", jsonBody(t, map[string]any{
		"account_id": accountID, "amount": "40.00", "type": "DEBIT",
		"category": "groceries", "description": "weekly shop",
		"transaction_date": "2026-01-10T12:00:00Z",
	}), token)
	if resp.Code != 200 {
		t.Fatalf("create transaction failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	txn := decode(t, resp)
	if txn["previous_balance"] == nil || txn["new_balance"] == nil {
		t.Fatalf("transaction response missing balances: %s", resp.Body.String())
	}

	// 6. Balance reflects the debit
	resp = performRequest(r, http.MethodGet, fmt.Sprintf("/api/accounts/%s/balance", accountID), nil, token)
	if resp.Code != 200 {
		t.Fatalf("balance read failed status=%d body=%s", resp.Code, resp.Body.String())
	}

	// 7. Budget status reflects the spend
	resp = performRequest(r, http.MethodGet, fmt.Sprintf("/api/budgets/%s/status", budgetID), nil, token)
	if resp.Code != 200 {
		t.Fatalf("budget status failed status=%d body=%s", resp.Code, resp.Body.String())
	}

	// 8. List transactions
	resp = performRequest(r, http.MethodGet, "/api/transactions?limit=10", nil, token)
	if resp.Code != 200 {
		t.Fatalf("list transactions failed status=%d body=%s", resp.Code, resp.Body.String())
	}

	// 9. Overdraft attempt is rejected without side effects
	resp = performRequest(r, http.MethodPost, "/api/transactions", jsonBody(t, map[string]any{
		"account_id": accountID, "amount": "100000.00", "type": "DEBIT",
	}), token)
	if resp.Code != 400 {
		t.Fatalf("expected 400 for overdraft, got %d body=%s", resp.Code, resp.Body.String())
	}
}
