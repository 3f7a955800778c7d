package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
	"tix/src/config"

	"github.com/google/uuid"
)

const (
	squareSandboxBaseURL    = "https://connect.squareupsandbox.com"
	squareProductionBaseURL = "https://connect.squareup.com"
)

// SquareGateway charges tokenized cards through the Square Payments API.
// The card nonce comes from the client SDK; Dispatch tells the client to
// tokenize and CreatePayment consumes the resulting token.
type SquareGateway struct {
	creds      config.GatewayCredentials
	baseURL    string
	httpClient *http.Client
}

func NewSquareGateway(creds config.GatewayCredentials) *SquareGateway {
	baseURL := squareSandboxBaseURL
	if creds.Environment == "production" {
		baseURL = squareProductionBaseURL
	}
	return &SquareGateway{
		creds:      creds,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (g *SquareGateway) Provider() Provider {
	return ProviderSquare
}

// Initialize verifies credentials against the locations endpoint. A missing
// app id or access token is a configuration problem, not a transient one.
func (g *SquareGateway) Initialize(ctx context.Context) error {
	if g.creds.AppID == "" || g.creds.AccessToken == "" || g.creds.LocationID == "" {
		return &NormalizedError{
			Code:        ErrNotConfigured,
			UserMessage: "Square payments are not set up",
			Provider:    ProviderSquare,
			Detail:      "missing app id, location id or access token",
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/v2/locations/"+g.creds.LocationID, nil)
	if err != nil {
		return &NormalizedError{Code: ErrInitFailed, UserMessage: "Square payments are unavailable", Provider: ProviderSquare, Detail: err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+g.creds.AccessToken)
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return &NormalizedError{Code: ErrInitFailed, UserMessage: "Square payments are unavailable", Provider: ProviderSquare, Detail: err.Error()}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &NormalizedError{
			Code:        ErrInitFailed,
			UserMessage: "Square payments are unavailable",
			Provider:    ProviderSquare,
			Detail:      fmt.Sprintf("locations probe returned %d: %s", resp.StatusCode, string(body)),
		}
	}
	return nil
}

// Dispatch asks the client to tokenize the card. Square always supports
// tokenization, so the legacy redirect branch never applies here.
func (g *SquareGateway) Dispatch(ctx context.Context, req *PaymentRequest) GatewayResponse {
	if req.SourceToken != "" {
		return Tokenized(req.SourceToken)
	}
	return Failed(&NormalizedError{
		Code:        ErrTokenizationFailed,
		UserMessage: "Card tokenization failed",
		Provider:    ProviderSquare,
		Detail:      "no source token on request",
	})
}

// TokenizeResponse mirrors the client SDK callback payload.
type TokenizeResponse struct {
	Status string   `json:"status"`
	Token  string   `json:"token"`
	Errors []string `json:"errors"`
}

// HandleTokenization folds the SDK callback into the dispatch union. An OK
// status with a token proceeds; anything else fails with the first SDK error
// appended to the user message.
func (g *SquareGateway) HandleTokenization(res *TokenizeResponse) GatewayResponse {
	if res.Status == "OK" && res.Token != "" {
		return Tokenized(res.Token)
	}
	msg := "Card tokenization failed"
	detail := res.Status
	if len(res.Errors) > 0 {
		msg = fmt.Sprintf("%s: %s", msg, res.Errors[0])
		detail = fmt.Sprintf("%s: %v", res.Status, res.Errors)
	}
	return Failed(&NormalizedError{
		Code:        ErrTokenizationFailed,
		UserMessage: msg,
		Provider:    ProviderSquare,
		Detail:      detail,
	})
}

type squarePaymentRequest struct {
	SourceID       string      `json:"source_id"`
	IdempotencyKey string      `json:"idempotency_key"`
	AmountMoney    squareMoney `json:"amount_money"`
	LocationID     string      `json:"location_id"`
	ReferenceID    string      `json:"reference_id"`
	BuyerEmail     string      `json:"buyer_email_address,omitempty"`
	Note           string      `json:"note,omitempty"`
}

type squareMoney struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type squarePaymentResponse struct {
	Payment struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	} `json:"payment"`
	Errors []struct {
		Category string `json:"category"`
		Code     string `json:"code"`
		Detail   string `json:"detail"`
	} `json:"errors"`
}

func (g *SquareGateway) CreatePayment(ctx context.Context, req *PaymentRequest) (*PaymentResult, error) {
	if req.SourceToken == "" {
		return nil, &NormalizedError{
			Code:        ErrTokenizationFailed,
			UserMessage: "Card tokenization failed",
			Provider:    ProviderSquare,
			Detail:      "payment attempted without a source token",
		}
	}
	body := squarePaymentRequest{
		SourceID:       req.SourceToken,
		IdempotencyKey: uuid.NewString(),
		AmountMoney: squareMoney{
			Amount:   req.Amount.Shift(2).IntPart(),
			Currency: req.Currency,
		},
		LocationID:  g.creds.LocationID,
		ReferenceID: req.OrderID.String(),
		BuyerEmail:  req.CustomerEmail,
		Note:        req.Description,
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v2/payments", bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+g.creds.AccessToken)
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, &NormalizedError{
			Code:        ErrUnavailable,
			UserMessage: "Square did not respond. You have not been charged.",
			Provider:    ProviderSquare,
			Detail:      err.Error(),
		}
	}
	defer resp.Body.Close()
	var out squarePaymentResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK || len(out.Errors) > 0 {
		detail := fmt.Sprintf("status %d", resp.StatusCode)
		msg := "Your card was declined"
		if len(out.Errors) > 0 {
			detail = fmt.Sprintf("%s %s: %s", out.Errors[0].Category, out.Errors[0].Code, out.Errors[0].Detail)
		}
		return &PaymentResult{
			Success:  false,
			Provider: ProviderSquare,
			Error: &NormalizedError{
				Code:        ErrDeclined,
				UserMessage: msg,
				Provider:    ProviderSquare,
				Detail:      detail,
			},
		}, nil
	}
	return &PaymentResult{
		Success:        true,
		Provider:       ProviderSquare,
		TransactionRef: out.Payment.ID,
	}, nil
}

func (g *SquareGateway) Info() MethodInfo {
	return MethodInfo{
		Provider:    ProviderSquare,
		DisplayName: "Credit or debit card",
		FeeSchedule: "2.9% + 30¢ per transaction",
		Currencies:  []string{"USD", "CAD", "GBP", "AUD"},
	}
}

func (g *SquareGateway) Close() error {
	g.httpClient.CloseIdleConnections()
	return nil
}
