package payments

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"tix/src/config"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func squareTestGateway(serverURL string) *SquareGateway {
	g := NewSquareGateway(config.GatewayCredentials{
		Provider:    "square",
		Environment: "sandbox",
		AppID:       "sandbox-sq0idb-test",
		LocationID:  "L123",
		AccessToken: "EAAA-test",
	})
	g.baseURL = serverURL
	return g
}

func TestSquareHandleTokenizationSuccess(t *testing.T) {
	g := squareTestGateway("http://unused")
	res := g.HandleTokenization(&TokenizeResponse{Status: "OK", Token: "tok_abc"})

	assert.Equal(t, DispatchTokenized, res.Kind)
	assert.Equal(t, "tok_abc", res.Token)
	assert.Nil(t, res.Err)
}

func TestSquareHandleTokenizationDeclined(t *testing.T) {
	g := squareTestGateway("http://unused")
	res := g.HandleTokenization(&TokenizeResponse{
		Status: "INVALID",
		Errors: []string{"Card declined"},
	})

	assert.Equal(t, DispatchFailed, res.Kind)
	require.NotNil(t, res.Err)
	assert.Equal(t, ErrTokenizationFailed, res.Err.Code)
	assert.Equal(t, "Card tokenization failed: Card declined", res.Err.UserMessage)
}

func TestSquareHandleTokenizationNoToken(t *testing.T) {
	g := squareTestGateway("http://unused")
	res := g.HandleTokenization(&TokenizeResponse{Status: "OK"})

	assert.Equal(t, DispatchFailed, res.Kind)
	assert.Equal(t, ErrTokenizationFailed, res.Err.Code)
}

func TestSquareInitializeMissingCredentials(t *testing.T) {
	g := NewSquareGateway(config.GatewayCredentials{Provider: "square"})
	err := g.Initialize(context.Background())

	var nerr *NormalizedError
	require.ErrorAs(t, err, &nerr)
	assert.Equal(t, ErrNotConfigured, nerr.Code)
}

func TestSquareInitializeProbesLocation(t *testing.T) {
	var probed string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		probed = r.URL.Path
		assert.Equal(t, "Bearer EAAA-test", r.Header.Get("Authorization"))
		w.Write([]byte(`{"location":{"id":"L123"}}`))
	}))
	defer srv.Close()

	g := squareTestGateway(srv.URL)
	err := g.Initialize(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "/v2/locations/L123", probed)
}

func TestSquareInitializeBadToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"errors":[{"code":"UNAUTHORIZED"}]}`))
	}))
	defer srv.Close()

	g := squareTestGateway(srv.URL)
	err := g.Initialize(context.Background())

	var nerr *NormalizedError
	require.ErrorAs(t, err, &nerr)
	assert.Equal(t, ErrInitFailed, nerr.Code)
}

func TestSquareCreatePaymentSuccess(t *testing.T) {
	var captured []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v2/payments", r.URL.Path)
		buf := make([]byte, r.ContentLength)
		r.Body.Read(buf)
		captured = buf
		w.Write([]byte(`{"payment":{"id":"pay_sq_1","status":"COMPLETED"}}`))
	}))
	defer srv.Close()

	g := squareTestGateway(srv.URL)
	req := paymentRequest()
	req.SourceToken = "tok_abc"
	res, err := g.CreatePayment(context.Background(), req)

	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "pay_sq_1", res.TransactionRef)

	body := string(captured)
	assert.Equal(t, "tok_abc", gjson.Get(body, "source_id").String())
	assert.Equal(t, int64(2550), gjson.Get(body, "amount_money.amount").Int())
	assert.Equal(t, "USD", gjson.Get(body, "amount_money.currency").String())
	assert.Equal(t, "L123", gjson.Get(body, "location_id").String())
}

func TestSquareCreatePaymentDeclined(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"errors":[{"category":"PAYMENT_METHOD_ERROR","code":"CARD_DECLINED","detail":"Card declined."}]}`))
	}))
	defer srv.Close()

	g := squareTestGateway(srv.URL)
	req := paymentRequest()
	req.SourceToken = "tok_bad"
	res, err := g.CreatePayment(context.Background(), req)

	require.NoError(t, err)
	assert.False(t, res.Success)
	require.NotNil(t, res.Error)
	assert.Equal(t, ErrDeclined, res.Error.Code)
}

func TestSquareCreatePaymentWithoutToken(t *testing.T) {
	g := squareTestGateway("http://unused")
	req := paymentRequest()
	_, err := g.CreatePayment(context.Background(), req)

	var nerr *NormalizedError
	require.ErrorAs(t, err, &nerr)
	assert.Equal(t, ErrTokenizationFailed, nerr.Code)
}

func TestSquareAmountConversionToCents(t *testing.T) {
	cases := []struct {
		amount string
		cents  int64
	}{
		{"10.00", 1000},
		{"0.99", 99},
		{"199.95", 19995},
	}
	for _, c := range cases {
		d, err := decimal.NewFromString(c.amount)
		require.NoError(t, err)
		assert.Equal(t, c.cents, d.Shift(2).IntPart(), "amount %s", c.amount)
	}
}
