package payments

import (
	"context"
	"fmt"
	"sync"
	"time"
	"tix/src/config"
	"tix/src/types"
)

// CashAppGateway runs an event-driven flow. The buyer scans or taps through
// the Cash App client, which reports tokenization back asynchronously via
// NotifyTokenization. Pending checkouts are keyed by the client-generated
// payment reference, the client holds it before checkout starts so it can
// report the tokenization while the checkout request is still in flight.
type CashAppGateway struct {
	creds config.GatewayCredentials

	mu       sync.Mutex
	pending  map[string]chan GatewayResponse
	grants   map[string]types.JSONB
	initDone bool
}

func NewCashAppGateway(creds config.GatewayCredentials) *CashAppGateway {
	return &CashAppGateway{
		creds:   creds,
		pending: map[string]chan GatewayResponse{},
		grants:  map[string]types.JSONB{},
	}
}

func (g *CashAppGateway) Provider() Provider {
	return ProviderCashApp
}

func (g *CashAppGateway) Initialize(ctx context.Context) error {
	if g.creds.ClientID == "" {
		return &NormalizedError{
			Code:        ErrNotConfigured,
			UserMessage: "Cash App Pay is not set up",
			Provider:    ProviderCashApp,
			Detail:      "missing client id",
		}
	}
	g.mu.Lock()
	g.initDone = true
	g.mu.Unlock()
	return nil
}

// Dispatch registers a pending tokenization and waits for the client event.
// The caller's context bounds the wait, an impatient buyer cancelling the
// request cleans up the pending slot.
func (g *CashAppGateway) Dispatch(ctx context.Context, req *PaymentRequest) GatewayResponse {
	if req.SourceToken != "" {
		return Tokenized(req.SourceToken)
	}
	if req.ClientRef == "" {
		return Failed(&NormalizedError{
			Code:        ErrTokenizationFailed,
			UserMessage: "Cash App Pay needs a payment reference",
			Provider:    ProviderCashApp,
			Detail:      "dispatch without a client reference",
		})
	}
	ch := make(chan GatewayResponse, 1)
	g.mu.Lock()
	if !g.initDone {
		g.mu.Unlock()
		return Failed(&NormalizedError{
			Code:        ErrUnavailable,
			UserMessage: "Cash App Pay is still starting up",
			Provider:    ProviderCashApp,
		})
	}
	g.pending[req.ClientRef] = ch
	g.mu.Unlock()
	defer func() {
		g.mu.Lock()
		delete(g.pending, req.ClientRef)
		g.mu.Unlock()
	}()

	select {
	case res := <-ch:
		return res
	case <-ctx.Done():
		return Failed(&NormalizedError{
			Code:        ErrTokenizationFailed,
			UserMessage: "Cash App Pay approval timed out",
			Provider:    ProviderCashApp,
			Detail:      ctx.Err().Error(),
		})
	}
}

// NotifyTokenization feeds a client-side tokenization event to whichever
// checkout is waiting on it. Unknown references are dropped, the buyer may
// have already cancelled.
func (g *CashAppGateway) NotifyTokenization(paymentRef string, grantID string, ok bool, reason string) {
	g.mu.Lock()
	ch, waiting := g.pending[paymentRef]
	if ok && grantID != "" {
		g.grants[grantID] = types.JSONB{
			"paymentRef": paymentRef,
			"grantedAt":  time.Now().UTC().Format(time.RFC3339),
		}
	}
	g.mu.Unlock()
	if !waiting {
		return
	}
	if ok && grantID != "" {
		ch <- Tokenized(grantID)
		return
	}
	msg := "Cash App Pay was not approved"
	if reason != "" {
		msg = fmt.Sprintf("%s: %s", msg, reason)
	}
	ch <- Failed(&NormalizedError{
		Code:        ErrTokenizationFailed,
		UserMessage: msg,
		Provider:    ProviderCashApp,
		Detail:      reason,
	})
}

// CreatePayment charges a previously granted token. The grant must have been
// recorded through NotifyTokenization first.
func (g *CashAppGateway) CreatePayment(ctx context.Context, req *PaymentRequest) (*PaymentResult, error) {
	if req.SourceToken == "" {
		return nil, &NormalizedError{
			Code:        ErrTokenizationFailed,
			UserMessage: "Cash App Pay approval is missing",
			Provider:    ProviderCashApp,
			Detail:      "payment attempted without a grant",
		}
	}
	g.mu.Lock()
	_, granted := g.grants[req.SourceToken]
	if granted {
		delete(g.grants, req.SourceToken)
	}
	g.mu.Unlock()
	if !granted {
		return &PaymentResult{
			Success:  false,
			Provider: ProviderCashApp,
			Error: &NormalizedError{
				Code:        ErrDeclined,
				UserMessage: "Cash App Pay approval has expired",
				Provider:    ProviderCashApp,
				Detail:      "unknown or already used grant",
			},
		}, nil
	}
	return &PaymentResult{
		Success:        true,
		Provider:       ProviderCashApp,
		TransactionRef: fmt.Sprintf("cap_%s", req.SourceToken),
	}, nil
}

func (g *CashAppGateway) Info() MethodInfo {
	return MethodInfo{
		Provider:    ProviderCashApp,
		DisplayName: "Cash App Pay",
		FeeSchedule: "2.75% per transaction",
		Currencies:  []string{"USD"},
	}
}

func (g *CashAppGateway) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	for id, ch := range g.pending {
		select {
		case ch <- Failed(&NormalizedError{
			Code:        ErrUnavailable,
			UserMessage: "Cash App Pay is shutting down",
			Provider:    ProviderCashApp,
		}):
		default:
		}
		delete(g.pending, id)
	}
	g.initDone = false
	return nil
}
