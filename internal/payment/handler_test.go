// AngelaMos | 2026
// handler_test.go

package payment

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	*harness
	router chi.Router
}

func newTestServer() *testServer {
	h := newHarness()
	handler := NewHandler(h.svc, CookieConfig{Secure: true}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		handler.RegisterRoutes(r)
		r.Route("/admin", handler.RegisterAdminRoutes)
	})

	return &testServer{harness: h, router: r}
}

func (s *testServer) do(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			_ = json.NewEncoder(&buf).Encode(body)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

var orderIDPattern = regexp.MustCompile(
	`^ORDER-[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`,
)

func (s *testServer) create(t *testing.T) string {
	t.Helper()
	rec := s.do(http.MethodPost, "/api/payments/create-transaction", map[string]string{
		"product_id":     "ea-scalping-master-001",
		"customer_email": buyerEmail,
		"customer_name":  "Budi",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decodeBody(t, rec)["order_id"].(string)
}

func TestCreateTransactionThenStatusPending(t *testing.T) {
	s := newTestServer()

	rec := s.do(http.MethodPost, "/api/payments/create-transaction", map[string]string{
		"product_id":     "ea-scalping-master-001",
		"customer_email": buyerEmail,
		"customer_name":  "Budi",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, body["transaction_token"])
	assert.NotEmpty(t, body["redirect_url"])
	orderID, _ := body["order_id"].(string)
	assert.Regexp(t, orderIDPattern, orderID)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "midtrans_transaction", cookies[0].Name)
	assert.Equal(t, body["transaction_token"], cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Secure)
	assert.Equal(t, http.SameSiteNoneMode, cookies[0].SameSite)
	assert.Equal(t, 3600, cookies[0].MaxAge)

	rec = s.do(http.MethodGet, "/api/payments/status/"+orderID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	order := decodeBody(t, rec)["order"].(map[string]any)
	assert.Equal(t, "pending", order["status"])
	assert.Equal(t, orderID, order["id"])
	assert.NotContains(t, order, "user_id")
}

func TestCreateTransactionUnknownProduct(t *testing.T) {
	s := newTestServer()

	rec := s.do(http.MethodPost, "/api/payments/create-transaction", map[string]string{
		"product_id":     "nope",
		"customer_email": buyerEmail,
		"customer_name":  "Budi",
	})

	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Product not found", body["message"])
}

func TestCreateTransactionMissingFields(t *testing.T) {
	s := newTestServer()

	rec := s.do(http.MethodPost, "/api/payments/create-transaction", map[string]string{
		"product_id": "ea-scalping-master-001",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, missingFieldsMessage, decodeBody(t, rec)["message"])
}

func TestNotificationSettlementCompletes(t *testing.T) {
	s := newTestServer()
	id := s.create(t)

	rec := s.do(http.MethodPost, "/api/payments/notification", s.notification(id, "settlement"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"success": true}, decodeBody(t, rec))

	rec = s.do(http.MethodGet, "/api/payments/status/"+id, nil)
	order := decodeBody(t, rec)["order"].(map[string]any)
	assert.Equal(t, "completed", order["status"])
	assert.NotEmpty(t, order["license_key"])
	assert.NotNil(t, order["completed_at"])
	assert.Equal(t, 1, s.licenses.count())
}

func TestNotificationTamperedSignature(t *testing.T) {
	s := newTestServer()
	id := s.create(t)

	n := s.notification(id, "settlement")
	n.SignatureKey = strings.ToUpper(n.SignatureKey)

	rec := s.do(http.MethodPost, "/api/payments/notification", n)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Invalid signature", body["message"])

	rec = s.do(http.MethodGet, "/api/payments/status/"+id, nil)
	assert.Equal(t, "pending", decodeBody(t, rec)["order"].(map[string]any)["status"])
}

func TestNotificationExpireFails(t *testing.T) {
	s := newTestServer()
	id := s.create(t)

	rec := s.do(http.MethodPost, "/api/payments/notification", s.notification(id, "expire"))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/api/payments/status/"+id, nil)
	order := decodeBody(t, rec)["order"].(map[string]any)
	assert.Equal(t, "failed", order["status"])
	assert.Empty(t, order["license_key"])
	assert.Zero(t, s.licenses.count())
}

func TestNotificationUnknownOrderStill200(t *testing.T) {
	s := newTestServer()

	rec := s.do(http.MethodPost, "/api/payments/notification",
		s.gw.Notify("ORDER-00000000-0000-0000-0000-000000000000", 1000, "settlement"))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNotificationMalformedBody(t *testing.T) {
	s := newTestServer()
	rec := s.do(http.MethodPost, "/api/payments/notification", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatusUnknownOrder(t *testing.T) {
	s := newTestServer()
	rec := s.do(http.MethodGet, "/api/payments/status/ORDER-missing", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Order not found", decodeBody(t, rec)["message"])
}

func TestMockCompleteEndpoint(t *testing.T) {
	s := newTestServer()
	id := s.create(t)

	rec := s.do(http.MethodPost, "/api/payments/mock/complete", map[string]string{"order_id": id})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "completed", decodeBody(t, rec)["order"].(map[string]any)["status"])
}

func TestAdminGatewayStatus(t *testing.T) {
	s := newTestServer()
	id := s.create(t)

	rec := s.do(http.MethodGet, "/api/admin/orders/"+id+"/gateway-status", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	status := decodeBody(t, rec)["status"].(map[string]any)
	assert.Equal(t, "settlement", status["transaction_status"])
}
