package payments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	provider    Provider
	initErr     error
	initDelay   time.Duration
	initPanics  bool
	payResult   *PaymentResult
	payErr      error
	payPanics   bool
	initCount   int
	closeCalled bool
}

func (f *fakeGateway) Provider() Provider { return f.provider }

func (f *fakeGateway) Initialize(ctx context.Context) error {
	f.initCount++
	if f.initPanics {
		panic("boom")
	}
	if f.initDelay > 0 {
		select {
		case <-time.After(f.initDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return f.initErr
}

func (f *fakeGateway) Dispatch(ctx context.Context, req *PaymentRequest) GatewayResponse {
	return Tokenized("tok_fake")
}

func (f *fakeGateway) CreatePayment(ctx context.Context, req *PaymentRequest) (*PaymentResult, error) {
	if f.payPanics {
		panic("payment exploded")
	}
	if f.payErr != nil {
		return nil, f.payErr
	}
	return f.payResult, nil
}

func (f *fakeGateway) Info() MethodInfo {
	return MethodInfo{Provider: f.provider, DisplayName: string(f.provider)}
}

func (f *fakeGateway) Close() error {
	f.closeCalled = true
	return nil
}

func paymentRequest() *PaymentRequest {
	return &PaymentRequest{
		OrderID:  uuid.New(),
		Amount:   decimal.NewFromFloat(25.50),
		Currency: "USD",
	}
}

func TestRegistryInitializeIsolatesFailures(t *testing.T) {
	healthy := &fakeGateway{provider: ProviderSquare}
	broken := &fakeGateway{provider: ProviderPayPal, initErr: errors.New("oauth refused")}
	missing := &fakeGateway{provider: ProviderCashApp, initErr: &NormalizedError{
		Code: ErrNotConfigured, UserMessage: "not set up", Provider: ProviderCashApp,
	}}
	r := NewRegistry(healthy, broken, missing)
	r.Initialize(context.Background())

	assert.Equal(t, StatusReady, r.State(ProviderSquare))
	assert.Equal(t, StatusFailed, r.State(ProviderPayPal))
	assert.Equal(t, StatusNotConfigured, r.State(ProviderCashApp))

	methods := r.AvailableMethods()
	require.Len(t, methods, 1)
	assert.Equal(t, ProviderSquare, methods[0].Provider)
}

func TestRegistryInitializeTimesOutSlowGateway(t *testing.T) {
	slow := &fakeGateway{provider: ProviderPayPal, initDelay: time.Hour}
	r := NewRegistry(slow)
	r.timeout = 20 * time.Millisecond
	r.Initialize(context.Background())

	assert.Equal(t, StatusTimedOut, r.State(ProviderPayPal))
	nerr := r.LastError(ProviderPayPal)
	require.NotNil(t, nerr)
	assert.Equal(t, ErrInitTimeout, nerr.Code)
}

func TestRegistryTimeoutDistinctFromFailure(t *testing.T) {
	slow := &fakeGateway{provider: ProviderPayPal, initDelay: time.Hour}
	broken := &fakeGateway{provider: ProviderSquare, initErr: errors.New("bad credentials")}
	r := NewRegistry(slow, broken)
	r.timeout = 20 * time.Millisecond
	r.Initialize(context.Background())

	assert.Equal(t, ErrInitTimeout, r.LastError(ProviderPayPal).Code)
	assert.Equal(t, ErrInitFailed, r.LastError(ProviderSquare).Code)
}

func TestRegistryInitializeRecoversPanic(t *testing.T) {
	exploding := &fakeGateway{provider: ProviderSquare, initPanics: true}
	r := NewRegistry(exploding)
	r.Initialize(context.Background())

	assert.Equal(t, StatusFailed, r.State(ProviderSquare))
	assert.Equal(t, ErrInitFailed, r.LastError(ProviderSquare).Code)
}

func TestRegistryInitializeSkipsReadyGateways(t *testing.T) {
	g := &fakeGateway{provider: ProviderSquare}
	r := NewRegistry(g)
	r.Initialize(context.Background())
	r.Initialize(context.Background())

	assert.Equal(t, 1, g.initCount)
}

func TestRegistryReinitializeRetriesFailedGateway(t *testing.T) {
	g := &fakeGateway{provider: ProviderPayPal, initErr: errors.New("down")}
	r := NewRegistry(g)
	r.Initialize(context.Background())
	require.Equal(t, StatusFailed, r.State(ProviderPayPal))

	g.initErr = nil
	err := r.Reinitialize(context.Background(), ProviderPayPal)
	require.NoError(t, err)
	assert.Equal(t, StatusReady, r.State(ProviderPayPal))
	assert.Nil(t, r.LastError(ProviderPayPal))
}

func TestRegistryReinitializeUnknownProvider(t *testing.T) {
	r := NewRegistry()
	err := r.Reinitialize(context.Background(), ProviderSquare)
	require.Error(t, err)
	var nerr *NormalizedError
	require.ErrorAs(t, err, &nerr)
	assert.Equal(t, ErrNotConfigured, nerr.Code)
}

func TestProcessPaymentRejectsUnreadyGateway(t *testing.T) {
	g := &fakeGateway{provider: ProviderSquare, initErr: errors.New("down")}
	r := NewRegistry(g)
	r.Initialize(context.Background())

	res := r.ProcessPayment(context.Background(), ProviderSquare, paymentRequest())
	require.NotNil(t, res)
	assert.False(t, res.Success)
	require.NotNil(t, res.Error)
	assert.Equal(t, ErrInitFailed, res.Error.Code)
}

func TestProcessPaymentNeverPanics(t *testing.T) {
	g := &fakeGateway{provider: ProviderSquare, payPanics: true}
	r := NewRegistry(g)
	r.Initialize(context.Background())

	var res *PaymentResult
	require.NotPanics(t, func() {
		res = r.ProcessPayment(context.Background(), ProviderSquare, paymentRequest())
	})
	require.NotNil(t, res)
	assert.False(t, res.Success)
	require.NotNil(t, res.Error)
	assert.Equal(t, ErrInternal, res.Error.Code)
	assert.NotEmpty(t, res.Error.UserMessage)
}

func TestProcessPaymentSuccess(t *testing.T) {
	g := &fakeGateway{provider: ProviderSquare, payResult: &PaymentResult{
		Success: true, Provider: ProviderSquare, TransactionRef: "pay_123",
	}}
	r := NewRegistry(g)
	r.Initialize(context.Background())

	res := r.ProcessPayment(context.Background(), ProviderSquare, paymentRequest())
	require.NotNil(t, res)
	assert.True(t, res.Success)
	assert.Equal(t, "pay_123", res.TransactionRef)
	assert.Nil(t, res.Error)
}

func TestProcessPaymentUnknownProvider(t *testing.T) {
	r := NewRegistry()
	res := r.ProcessPayment(context.Background(), Provider("venmo"), paymentRequest())
	require.NotNil(t, res)
	assert.False(t, res.Success)
	assert.Equal(t, ErrNotConfigured, res.Error.Code)
}

func TestRegistryCloseShutsDownGateways(t *testing.T) {
	g := &fakeGateway{provider: ProviderSquare}
	r := NewRegistry(g)
	r.Initialize(context.Background())
	r.Close()

	assert.True(t, g.closeCalled)
	assert.Equal(t, StatusUninitialized, r.State(ProviderSquare))
}
