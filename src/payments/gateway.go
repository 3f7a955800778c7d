package payments

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Provider string

const (
	ProviderPayPal  Provider = "paypal"
	ProviderSquare  Provider = "square"
	ProviderCashApp Provider = "cashapp"
)

// ErrorCode classifies gateway failures so callers can branch without
// string-matching messages.
type ErrorCode string

const (
	ErrNotConfigured      ErrorCode = "NOT_CONFIGURED"
	ErrInitTimeout        ErrorCode = "INIT_TIMEOUT"
	ErrInitFailed         ErrorCode = "INIT_FAILED"
	ErrTokenizationFailed ErrorCode = "TOKENIZATION_FAILED"
	ErrDeclined           ErrorCode = "DECLINED"
	ErrUnavailable        ErrorCode = "UNAVAILABLE"
	ErrInternal           ErrorCode = "INTERNAL"
)

// NormalizedError is the one failure shape every gateway reports through.
// UserMessage is safe to render to a buyer. Detail is for logs only.
type NormalizedError struct {
	Code        ErrorCode `json:"code"`
	UserMessage string    `json:"message"`
	Provider    Provider  `json:"provider"`
	Detail      string    `json:"-"`
}

func (e *NormalizedError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s [%s]: %s (%s)", e.Provider, e.Code, e.UserMessage, e.Detail)
	}
	return fmt.Sprintf("%s [%s]: %s", e.Provider, e.Code, e.UserMessage)
}

type PaymentRequest struct {
	OrderID       uuid.UUID       `json:"orderId"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	CustomerEmail string          `json:"customerEmail"`
	Description   string          `json:"description"`
	// SourceToken carries a card nonce for tokenizing gateways and stays
	// empty for redirect flows.
	SourceToken string `json:"sourceToken,omitempty"`
	// ClientRef is a caller-generated reference for event-driven gateways.
	// The client holds it before checkout starts, so it can report
	// tokenization for a checkout that is still in flight.
	ClientRef string `json:"clientRef,omitempty"`
}

type PaymentResult struct {
	Success        bool             `json:"success"`
	Provider       Provider         `json:"provider"`
	TransactionRef string           `json:"transactionRef,omitempty"`
	ApprovalURL    string           `json:"approvalUrl,omitempty"`
	Error          *NormalizedError `json:"error,omitempty"`
}

// DispatchKind says how a gateway wants the client to proceed after the
// dispatch step. Exactly one of the response constructors applies.
type DispatchKind string

const (
	DispatchTokenized       DispatchKind = "tokenized"
	DispatchLegacyRequested DispatchKind = "legacy_requested"
	DispatchFailed          DispatchKind = "failed"
)

// GatewayResponse is a tagged union. Kind decides which fields are set:
// Token for tokenized, RedirectURL for legacy_requested, Err for failed.
type GatewayResponse struct {
	Kind        DispatchKind     `json:"kind"`
	Token       string           `json:"token,omitempty"`
	RedirectURL string           `json:"redirectUrl,omitempty"`
	Err         *NormalizedError `json:"error,omitempty"`
}

func Tokenized(token string) GatewayResponse {
	return GatewayResponse{Kind: DispatchTokenized, Token: token}
}

func LegacyRequested(redirectURL string) GatewayResponse {
	return GatewayResponse{Kind: DispatchLegacyRequested, RedirectURL: redirectURL}
}

func Failed(err *NormalizedError) GatewayResponse {
	return GatewayResponse{Kind: DispatchFailed, Err: err}
}

// MethodInfo is the buyer-facing description of an available method.
type MethodInfo struct {
	Provider    Provider `json:"provider"`
	DisplayName string   `json:"displayName"`
	FeeSchedule string   `json:"feeSchedule"`
	Currencies  []string `json:"currencies"`
}

// Gateway is one payment provider adapter. Initialize must respect ctx
// cancellation and return a NormalizedError on failure. Dispatch decides
// the flow once, during checkout, based on what the provider supports.
type Gateway interface {
	Provider() Provider
	Initialize(ctx context.Context) error
	Dispatch(ctx context.Context, req *PaymentRequest) GatewayResponse
	CreatePayment(ctx context.Context, req *PaymentRequest) (*PaymentResult, error)
	Info() MethodInfo
	Close() error
}
