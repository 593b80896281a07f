package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"koperasikasir/backend/internal/cache"
	"koperasikasir/backend/internal/domain"
	"koperasikasir/backend/internal/reconcile"
	"koperasikasir/backend/internal/service"
	"koperasikasir/backend/internal/store/memory"
)

// newTestAPI builds a full API with an in-memory store, real AuthManager and
// real Service so handler tests exercise the complete request path.
func newTestAPI(t *testing.T) *API {
	t.Helper()

	repo := memory.NewSeeded()
	svc := service.New(repo, reconcile.NewEngine(), cache.NoopReportCache{}, 5*time.Second)
	auth := NewAuthManager("test-secret-key", time.Hour, "123456", repo)

	return New(svc, auth, "*")
}

// mustHashPassword generates a bcrypt hash of the given password or fails the test.
func mustHashPassword(t *testing.T, plain string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	return string(hash)
}

// doJSON fires an authenticated JSON request against the API and returns the recorder.
func doJSON(t *testing.T, api *API, method string, path string, token string, csrf string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if csrf != "" {
		req.Header.Set("X-CSRF-Token", csrf)
	}
	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHandleHealth(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["ok"] != true {
		t.Fatalf("expected ok:true, got %v", body["ok"])
	}
}

func TestHandleLogin_Success(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()

	payload, _ := json.Marshal(map[string]string{
		"username": "admin",
		"password": "admin123",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["access_token"] == "" || body["access_token"] == nil {
		t.Fatalf("expected access_token in response, got %v", body)
	}
}

func TestHandleLogin_InvalidCredentials(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()

	payload, _ := json.Marshal(map[string]string{
		"username": "admin",
		"password": "wrongpassword",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestHandleItems_RequiresAuth(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/items", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestHandleItems_WithValidToken(t *testing.T) {
	api := newTestAPI(t)
	token := loginAsAdmin(t, api)

	rec := doJSON(t, api, http.MethodGet, "/api/v1/items", token, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["items"] == nil {
		t.Fatalf("expected items key in response, got %v", body)
	}
}

// checkoutTestSale opens a shift and runs one cash checkout, returning the response.
func checkoutTestSale(t *testing.T, api *API, token string, csrf string) domain.CheckoutResponse {
	t.Helper()

	rec := doJSON(t, api, http.MethodPost, "/api/v1/shifts/open", token, csrf, domain.ShiftOpenRequest{OpeningFloat: 100_000})
	if rec.Code != http.StatusOK {
		t.Fatalf("open shift failed: %d %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, api, http.MethodPost, "/api/v1/checkout", token, csrf, domain.CheckoutRequest{
		PaymentMethod: domain.PaymentCash,
		CashReceived:  100_000,
		CartItems:     []domain.CartLine{{ItemID: "ITM-BERAS-01", Qty: 1}},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("checkout failed: %d %s", rec.Code, rec.Body.String())
	}

	var resp domain.CheckoutResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode checkout response: %v", err)
	}
	return resp
}

func TestDeleteTransactionEndpoint(t *testing.T) {
	api := newTestAPI(t)
	token := loginAsAdmin(t, api)
	csrf := fetchCSRFToken(t, api)
	sale := checkoutTestSale(t, api, token, csrf)

	rec := doJSON(t, api, http.MethodPost, "/api/v1/transactions/"+sale.TransactionID+"/delete", token, csrf, domain.DeleteTransactionRequest{
		Reason:     "salah input jumlah barang",
		ManagerPIN: "123456",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	var result domain.DeletionResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode deletion result: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected deletion to succeed, got %s", result.Message)
	}
	if result.TransactionNumber != sale.TransactionNumber {
		t.Fatalf("expected number %s, got %s", sale.TransactionNumber, result.TransactionNumber)
	}

	rec = doJSON(t, api, http.MethodGet, "/api/v1/deletions", token, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list deletions failed: %d %s", rec.Code, rec.Body.String())
	}
	var listing struct {
		Deletions []domain.DeletionAuditRecord `json:"deletions"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&listing); err != nil {
		t.Fatalf("decode deletions: %v", err)
	}
	if len(listing.Deletions) != 1 {
		t.Fatalf("expected 1 deletion record, got %d", len(listing.Deletions))
	}
	if listing.Deletions[0].Reason != "salah input jumlah barang" {
		t.Fatalf("unexpected reason %q", listing.Deletions[0].Reason)
	}

	rec = doJSON(t, api, http.MethodGet, "/api/v1/deletions?transaction_id="+sale.TransactionID, token, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("filtered list failed: %d %s", rec.Code, rec.Body.String())
	}
	var filtered struct {
		Deletions []domain.DeletionAuditRecord `json:"deletions"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&filtered); err != nil {
		t.Fatalf("decode filtered deletions: %v", err)
	}
	if len(filtered.Deletions) != 1 || filtered.Deletions[0].TransactionID != sale.TransactionID {
		t.Fatalf("expected the deleted transaction's audit record, got %+v", filtered.Deletions)
	}

	rec = doJSON(t, api, http.MethodGet, "/api/v1/deletions?transaction_id=trx-other", token, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("filtered list failed: %d %s", rec.Code, rec.Body.String())
	}
	filtered.Deletions = nil
	if err := json.NewDecoder(rec.Body).Decode(&filtered); err != nil {
		t.Fatalf("decode filtered deletions: %v", err)
	}
	if len(filtered.Deletions) != 0 {
		t.Fatalf("expected no records for unrelated transaction, got %d", len(filtered.Deletions))
	}
}

func TestDeleteTransactionEndpointRejectsWrongPIN(t *testing.T) {
	api := newTestAPI(t)
	token := loginAsAdmin(t, api)
	csrf := fetchCSRFToken(t, api)
	sale := checkoutTestSale(t, api, token, csrf)

	rec := doJSON(t, api, http.MethodPost, "/api/v1/transactions/"+sale.TransactionID+"/delete", token, csrf, domain.DeleteTransactionRequest{
		Reason:     "salah input jumlah barang",
		ManagerPIN: "000000",
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for wrong pin, got %d (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestDeleteTransactionEndpointBusinessRejectionReturns200(t *testing.T) {
	api := newTestAPI(t)
	token := loginAsAdmin(t, api)
	csrf := fetchCSRFToken(t, api)

	rec := doJSON(t, api, http.MethodPost, "/api/v1/transactions/trx-nonexistent/delete", token, csrf, domain.DeleteTransactionRequest{
		Reason:     "tidak ada",
		ManagerPIN: "123456",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for business rejection, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	var result domain.DeletionResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode deletion result: %v", err)
	}
	if result.Success {
		t.Fatalf("expected rejection, got success")
	}
	if result.Message != "transaksi tidak ditemukan" {
		t.Fatalf("unexpected message %q", result.Message)
	}
}

func TestShiftCloseEndpointReturnsReconciliation(t *testing.T) {
	api := newTestAPI(t)
	token := loginAsAdmin(t, api)
	csrf := fetchCSRFToken(t, api)
	checkoutTestSale(t, api, token, csrf)

	rec := doJSON(t, api, http.MethodPost, "/api/v1/shifts/close", token, csrf, domain.ShiftCloseRequest{CountedCash: 178_000})
	if rec.Code != http.StatusOK {
		t.Fatalf("close shift failed: %d %s", rec.Code, rec.Body.String())
	}

	var resp domain.ShiftCloseResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode close response: %v", err)
	}
	if resp.Report.Status != domain.ReconcileStatusBalanced {
		t.Fatalf("expected status sesuai, got %s", resp.Report.Status)
	}
	if resp.Report.Severity != domain.SeverityNormal {
		t.Fatalf("expected severity normal, got %s", resp.Report.Severity)
	}
}

func TestDailyReportCSVExport(t *testing.T) {
	api := newTestAPI(t)
	token := loginAsAdmin(t, api)

	rec := doJSON(t, api, http.MethodGet, "/api/v1/reports/daily?format=csv", token, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "text/csv") {
		t.Fatalf("expected csv content type, got %q", ct)
	}
	body := rec.Body.String()
	if !strings.HasPrefix(body, "section,key,value") {
		t.Fatalf("expected csv header, got %q", body)
	}
	if !strings.Contains(body, "summary,gross_sales,") {
		t.Fatalf("expected gross_sales row, got %q", body)
	}
	if !strings.Contains(body, "summary,deletions,") {
		t.Fatalf("expected deletions row, got %q", body)
	}
}

// TestMustHashPassword verifies that the test helper produces valid bcrypt hashes
// (used to confirm test infrastructure is sound).
func TestMustHashPassword(t *testing.T) {
	hash := mustHashPassword(t, "secret")
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte("secret")); err != nil {
		t.Fatalf("hash verification failed: %v", err)
	}
}
