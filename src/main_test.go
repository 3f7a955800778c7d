package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"
	"tix/src/config"
	"tix/src/payments"
	"tix/src/types"
	"tix/src/wizard"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/tidwall/gjson"
)

type TestSuite struct {
	suite.Suite
}

const (
	origin = "http://localhost:3000"
)

// testAuth stands in for the JWT middleware so routes can be exercised
// without a database.
func testAuth(ctx *gin.Context) {
	ctx.Set("id", uint(1))
	ctx.Set("email", "someone@example.com")
	ctx.Set("uid", "test-uid")
	ctx.Set("role", "organizer")
}

type stubGateway struct {
	provider payments.Provider
}

func (s *stubGateway) Provider() payments.Provider { return s.provider }
func (s *stubGateway) Initialize(ctx context.Context) error {
	return nil
}
func (s *stubGateway) Dispatch(ctx context.Context, req *payments.PaymentRequest) payments.GatewayResponse {
	return payments.Tokenized("tok_stub")
}
func (s *stubGateway) CreatePayment(ctx context.Context, req *payments.PaymentRequest) (*payments.PaymentResult, error) {
	return &payments.PaymentResult{Success: true, Provider: s.provider, TransactionRef: "ref_stub"}, nil
}
func (s *stubGateway) Info() payments.MethodInfo {
	return payments.MethodInfo{Provider: s.provider, DisplayName: "Stub"}
}
func (s *stubGateway) Close() error { return nil }

func configuredCashApp() config.GatewayCredentials {
	return config.GatewayCredentials{
		Provider:    "cashapp",
		Environment: "sandbox",
		ClientID:    "CAS-test",
	}
}

func (s *TestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	registerValidators()
}

func (s *TestSuite) TestPingRoute() {
	router := setupRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/", nil)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 200, w.Code)
}

func (s *TestSuite) TestSecureHeaders() {
	router := setupRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/", nil)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(s.T(), "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func (s *TestSuite) TestMetricsRoute() {
	router := setupRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/metrics", nil)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 200, w.Code)
}

func (s *TestSuite) TestMaintenanceMode() {
	os.Setenv("MAINTENANCE_MODE", "true")
	defer os.Setenv("MAINTENANCE_MODE", "false")

	router := setupRouter()
	router = maintenanceModeMiddleware(router)
	apiv1Group(router)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1", nil)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 503, w.Code)
}

func (s *TestSuite) TestCorsAllowsAppHost() {
	router := setupRouter()
	router.Use(cors.Default())

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/", nil)
	req.Header.Set("Origin", origin)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 200, w.Code)
}

func (s *TestSuite) TestPaymentMethods() {
	registry := payments.NewRegistry(&stubGateway{provider: payments.ProviderSquare})
	registry.Initialize(context.Background())
	cashApp := payments.NewCashAppGateway(configuredCashApp())

	router := setupRouter()
	apiv1 := apiv1Group(router)
	apiv1.Use(testAuth)
	paymentHandlers(apiv1, registry, cashApp)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1/payments/methods", nil)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 200, w.Code)
	body, err := io.ReadAll(w.Body)
	assert.Nil(s.T(), err)
	sjson := string(body)
	assert.Equal(s.T(), int64(1), gjson.Get(sjson, "count").Int())
	assert.Equal(s.T(), "square", gjson.Get(sjson, "data.0.provider").String())
}

func (s *TestSuite) TestCheckoutValidation() {
	registry := payments.NewRegistry()
	cashApp := payments.NewCashAppGateway(configuredCashApp())

	router := setupRouter()
	apiv1 := apiv1Group(router)
	apiv1.Use(testAuth)
	paymentHandlers(apiv1, registry, cashApp)

	s.Run("Should reject checkout without items", func() {
		w := httptest.NewRecorder()
		jbody := map[string]any{
			"event":          1,
			"gateway":        "square",
			"customer_email": "buyer@example.com",
		}
		sbody, _ := json.Marshal(&jbody)
		req, _ := http.NewRequest("POST", "/api/v1/checkout", strings.NewReader(string(sbody)))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
		body, err := io.ReadAll(w.Body)
		assert.Nil(s.T(), err)
		assert.NotEmpty(s.T(), gjson.Get(string(body), "error").String())
	})

	s.Run("Should reject unknown gateway", func() {
		w := httptest.NewRecorder()
		jbody := map[string]any{
			"event":          1,
			"gateway":        "venmo",
			"items":          []map[string]any{{"ticket_type": 1, "qty": 1}},
			"customer_email": "buyer@example.com",
		}
		sbody, _ := json.Marshal(&jbody)
		req, _ := http.NewRequest("POST", "/api/v1/checkout", strings.NewReader(string(sbody)))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
	})
}

func (s *TestSuite) TestWizardSessionNotFound() {
	rdb, mock := redismock.NewClientMock()
	store := wizard.NewRedisStore(rdb)
	mock.ExpectGet("wizard:session:missing").RedisNil()

	router := setupRouter()
	apiv1 := apiv1Group(router)
	apiv1.Use(testAuth)
	wizardHandlers(apiv1, store)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1/wizard/missing", nil)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 404, w.Code)
}

func (s *TestSuite) TestWizardStepValidationBlocksAdvance() {
	rdb, mock := redismock.NewClientMock()
	store := wizard.NewRedisStore(rdb)

	session := wizard.NewSession(1)
	session.Form.EventType = types.EVENT_TYPE_TICKETED
	session.Step = wizard.StepBasicInfo
	raw, _ := json.Marshal(session)
	key := "wizard:session:" + session.ID.String()
	mock.ExpectGet(key).SetVal(string(raw))
	mock.ExpectExpire(key, 24*time.Hour).SetVal(true)
	mock.Regexp().ExpectSet(key, `.*`, 24*time.Hour).SetVal("OK")

	router := setupRouter()
	apiv1 := apiv1Group(router)
	apiv1.Use(testAuth)
	wizardHandlers(apiv1, store)

	w := httptest.NewRecorder()
	jbody := map[string]any{"description": "no title yet"}
	sbody, _ := json.Marshal(&jbody)
	req, _ := http.NewRequest("PATCH", "/api/v1/wizard/"+session.ID.String()+"/next", strings.NewReader(string(sbody)))
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 422, w.Code)
	body, err := io.ReadAll(w.Body)
	assert.Nil(s.T(), err)
	assert.Equal(s.T(), string(wizard.StepBasicInfo), gjson.Get(string(body), "step").String())
}

func (s *TestSuite) TestAuthRoutesRequireProxyAssertion() {
	os.Setenv("AUTH_PROXY_SECRET", "edge-secret")
	defer os.Unsetenv("AUTH_PROXY_SECRET")

	router := setupRouter()
	apiv1 := apiv1Group(router)
	authHandlers(apiv1)

	jbody := map[string]any{"email": "someone@example.com"}
	sbody, _ := json.Marshal(&jbody)

	s.Run("Should reject a token request without the proxy secret", func() {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/auth/token", strings.NewReader(string(sbody)))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 401, w.Code)
	})

	s.Run("Should reject a token request with a guessed proxy secret", func() {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/auth/token", strings.NewReader(string(sbody)))
		req.Header.Set("X-Auth-Proxy-Secret", "guessed")
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 401, w.Code)
	})

	s.Run("Should reject registration when no secret is configured", func() {
		os.Unsetenv("AUTH_PROXY_SECRET")
		rbody := map[string]any{"email": "new@example.com", "name": "New User"}
		sreg, _ := json.Marshal(&rbody)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/auth/register", strings.NewReader(string(sreg)))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 401, w.Code)
	})
}

func (s *TestSuite) TestCashAppTokenizedEvent() {
	registry := payments.NewRegistry()
	cashApp := payments.NewCashAppGateway(configuredCashApp())
	s.Require().NoError(cashApp.Initialize(context.Background()))

	router := setupRouter()
	apiv1 := apiv1Group(router)
	apiv1.Use(testAuth)
	paymentHandlers(apiv1, registry, cashApp)

	jbody := map[string]any{"payment_ref": "ref-1", "grant_id": "grant-1", "status": "approved"}
	sbody, _ := json.Marshal(&jbody)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/v1/payments/cashapp/tokenized", strings.NewReader(string(sbody)))
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 202, w.Code)
}

func TestRunner(t *testing.T) {
	suite.Run(t, new(TestSuite))
}
