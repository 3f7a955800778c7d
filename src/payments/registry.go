package payments

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"
	"tix/src/monitoring"
)

// GatewayStatus tracks each adapter through its lifecycle. A gateway only
// serves payments while Ready.
type GatewayStatus string

const (
	StatusUninitialized GatewayStatus = "uninitialized"
	StatusReady         GatewayStatus = "ready"
	StatusNotConfigured GatewayStatus = "not_configured"
	StatusTimedOut      GatewayStatus = "timed_out"
	StatusFailed        GatewayStatus = "failed"
)

const initTimeout = 25 * time.Second

// Registry owns the configured gateways. Construct it once at startup and
// pass it to the handlers that need it. Initialization failures are isolated
// per gateway, one provider going down never takes the others with it.
type Registry struct {
	mu       sync.RWMutex
	gateways map[Provider]Gateway
	states   map[Provider]GatewayStatus
	errs     map[Provider]*NormalizedError
	timeout  time.Duration
}

func NewRegistry(gateways ...Gateway) *Registry {
	r := &Registry{
		gateways: map[Provider]Gateway{},
		states:   map[Provider]GatewayStatus{},
		errs:     map[Provider]*NormalizedError{},
		timeout:  initTimeout,
	}
	for _, g := range gateways {
		r.gateways[g.Provider()] = g
		r.states[g.Provider()] = StatusUninitialized
	}
	return r
}

// Initialize brings every registered gateway up concurrently. Already-ready
// gateways are skipped, so calling it again is safe and cheap.
func (r *Registry) Initialize(ctx context.Context) {
	var wg sync.WaitGroup
	r.mu.RLock()
	for provider, g := range r.gateways {
		if r.states[provider] == StatusReady {
			continue
		}
		wg.Add(1)
		go func(provider Provider, g Gateway) {
			defer wg.Done()
			r.initOne(ctx, provider, g)
		}(provider, g)
	}
	r.mu.RUnlock()
	wg.Wait()
}

func (r *Registry) initOne(ctx context.Context, provider Provider, g Gateway) {
	initCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- &NormalizedError{
					Code:        ErrInitFailed,
					UserMessage: "Payment method is temporarily unavailable",
					Provider:    provider,
					Detail:      fmt.Sprintf("panic during init: %v", rec),
				}
			}
		}()
		done <- g.Initialize(initCtx)
	}()

	var status GatewayStatus
	var nerr *NormalizedError
	select {
	case <-initCtx.Done():
		status = StatusTimedOut
		nerr = &NormalizedError{
			Code:        ErrInitTimeout,
			UserMessage: "Payment method took too long to start",
			Provider:    provider,
			Detail:      fmt.Sprintf("initialization exceeded %s", r.timeout),
		}
	case err := <-done:
		if err == nil {
			status = StatusReady
		} else if errors.Is(err, context.DeadlineExceeded) {
			status = StatusTimedOut
			nerr = &NormalizedError{
				Code:        ErrInitTimeout,
				UserMessage: "Payment method took too long to start",
				Provider:    provider,
				Detail:      fmt.Sprintf("initialization exceeded %s", r.timeout),
			}
		} else {
			nerr = normalize(provider, err)
			switch nerr.Code {
			case ErrNotConfigured:
				status = StatusNotConfigured
			default:
				status = StatusFailed
			}
		}
	}

	r.mu.Lock()
	r.states[provider] = status
	if nerr != nil {
		r.errs[provider] = nerr
	} else {
		delete(r.errs, provider)
	}
	r.mu.Unlock()

	monitoring.GatewayInits.WithLabelValues(string(provider), string(status)).Inc()
	if nerr != nil {
		log.Printf("[payments] gateway %s init: %s\n", provider, nerr.Error())
	} else {
		log.Printf("[payments] gateway %s ready\n", provider)
	}
}

// Reinitialize retries a single gateway regardless of its current state.
// This backs the operator-facing retry action, there is no automatic retry.
func (r *Registry) Reinitialize(ctx context.Context, provider Provider) error {
	r.mu.RLock()
	g, ok := r.gateways[provider]
	r.mu.RUnlock()
	if !ok {
		return &NormalizedError{
			Code:        ErrNotConfigured,
			UserMessage: "Unknown payment method",
			Provider:    provider,
		}
	}
	r.initOne(ctx, provider, g)
	if nerr := r.LastError(provider); nerr != nil {
		return nerr
	}
	return nil
}

func (r *Registry) State(provider Provider) GatewayStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.states[provider]
	if !ok {
		return StatusNotConfigured
	}
	return s
}

func (r *Registry) LastError(provider Provider) *NormalizedError {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.errs[provider]
}

// AvailableMethods lists only gateways that are ready to take payments.
func (r *Registry) AvailableMethods() []MethodInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	methods := []MethodInfo{}
	for provider, g := range r.gateways {
		if r.states[provider] == StatusReady {
			methods = append(methods, g.Info())
		}
	}
	return methods
}

// States reports the full lifecycle table for the admin dashboard.
func (r *Registry) States() map[Provider]GatewayStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := map[Provider]GatewayStatus{}
	for p, s := range r.states {
		out[p] = s
	}
	return out
}

// Dispatch runs the capability probe for one checkout. The response kind is
// decided here, once, and the caller follows it without re-probing.
func (r *Registry) Dispatch(ctx context.Context, provider Provider, req *PaymentRequest) GatewayResponse {
	g, nerr := r.ready(provider)
	if nerr != nil {
		return Failed(nerr)
	}
	return g.Dispatch(ctx, req)
}

// ProcessPayment never panics and never returns a Go error to bubble up.
// Every failure path lands in PaymentResult.Error with a user-safe message.
func (r *Registry) ProcessPayment(ctx context.Context, provider Provider, req *PaymentRequest) (result *PaymentResult) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("[payments] recovered panic in %s: %v\n", provider, rec)
			result = &PaymentResult{
				Success:  false,
				Provider: provider,
				Error: &NormalizedError{
					Code:        ErrInternal,
					UserMessage: "Payment could not be completed. You have not been charged.",
					Provider:    provider,
					Detail:      fmt.Sprintf("panic: %v", rec),
				},
			}
			monitoring.PaymentAttempts.WithLabelValues(string(provider), "panic").Inc()
		}
	}()

	g, nerr := r.ready(provider)
	if nerr != nil {
		monitoring.PaymentAttempts.WithLabelValues(string(provider), "rejected").Inc()
		return &PaymentResult{Success: false, Provider: provider, Error: nerr}
	}

	res, err := g.CreatePayment(ctx, req)
	if err != nil {
		nerr, ok := err.(*NormalizedError)
		if !ok {
			nerr = &NormalizedError{
				Code:        ErrInternal,
				UserMessage: "Payment could not be completed. You have not been charged.",
				Provider:    provider,
				Detail:      err.Error(),
			}
		}
		monitoring.PaymentAttempts.WithLabelValues(string(provider), "failed").Inc()
		return &PaymentResult{Success: false, Provider: provider, Error: nerr}
	}
	if res.Error != nil {
		monitoring.PaymentAttempts.WithLabelValues(string(provider), "failed").Inc()
		return res
	}
	monitoring.PaymentAttempts.WithLabelValues(string(provider), "succeeded").Inc()
	return res
}

func (r *Registry) ready(provider Provider) (Gateway, *NormalizedError) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.gateways[provider]
	if !ok || r.states[provider] == StatusNotConfigured {
		return nil, &NormalizedError{
			Code:        ErrNotConfigured,
			UserMessage: "This payment method is not available",
			Provider:    provider,
		}
	}
	switch r.states[provider] {
	case StatusReady:
		return g, nil
	case StatusTimedOut:
		return nil, r.errs[provider]
	case StatusFailed:
		return nil, r.errs[provider]
	default:
		return nil, &NormalizedError{
			Code:        ErrUnavailable,
			UserMessage: "This payment method is still starting up",
			Provider:    provider,
		}
	}
}

// Close shuts down every gateway. Errors are logged, not returned, since
// this only runs at process exit.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for provider, g := range r.gateways {
		if err := g.Close(); err != nil {
			log.Printf("[payments] error closing %s: %s\n", provider, err.Error())
		}
		r.states[provider] = StatusUninitialized
	}
}

func normalize(provider Provider, err error) *NormalizedError {
	if nerr, ok := err.(*NormalizedError); ok {
		return nerr
	}
	return &NormalizedError{
		Code:        ErrInitFailed,
		UserMessage: "Payment method is temporarily unavailable",
		Provider:    provider,
		Detail:      err.Error(),
	}
}
