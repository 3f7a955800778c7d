package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
	"tix/src/config"
)

const (
	paypalSandboxBaseURL    = "https://api-m.sandbox.paypal.com"
	paypalProductionBaseURL = "https://api-m.paypal.com"
)

// PayPalGateway drives the Orders API redirect flow. The buyer approves the
// order on PayPal's side, so Dispatch always answers with a legacy redirect
// rather than a token.
type PayPalGateway struct {
	creds      config.GatewayCredentials
	baseURL    string
	httpClient *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

func NewPayPalGateway(creds config.GatewayCredentials) *PayPalGateway {
	baseURL := paypalSandboxBaseURL
	if creds.Environment == "production" {
		baseURL = paypalProductionBaseURL
	}
	return &PayPalGateway{
		creds:      creds,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (g *PayPalGateway) Provider() Provider {
	return ProviderPayPal
}

// Initialize exchanges the client credentials for an OAuth token. A bad
// client id or secret surfaces here rather than at checkout.
func (g *PayPalGateway) Initialize(ctx context.Context) error {
	if g.creds.ClientID == "" || g.creds.Secret == "" {
		return &NormalizedError{
			Code:        ErrNotConfigured,
			UserMessage: "PayPal payments are not set up",
			Provider:    ProviderPayPal,
			Detail:      "missing client id or secret",
		}
	}
	_, err := g.token(ctx)
	return err
}

func (g *PayPalGateway) token(ctx context.Context) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.accessToken != "" && time.Now().Before(g.tokenExpiry) {
		return g.accessToken, nil
	}
	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", &NormalizedError{Code: ErrInitFailed, UserMessage: "PayPal payments are unavailable", Provider: ProviderPayPal, Detail: err.Error()}
	}
	req.SetBasicAuth(g.creds.ClientID, g.creds.Secret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", &NormalizedError{Code: ErrInitFailed, UserMessage: "PayPal payments are unavailable", Provider: ProviderPayPal, Detail: err.Error()}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", &NormalizedError{
			Code:        ErrInitFailed,
			UserMessage: "PayPal payments are unavailable",
			Provider:    ProviderPayPal,
			Detail:      fmt.Sprintf("oauth returned %d: %s", resp.StatusCode, string(body)),
		}
	}
	var out struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &NormalizedError{Code: ErrInitFailed, UserMessage: "PayPal payments are unavailable", Provider: ProviderPayPal, Detail: err.Error()}
	}
	g.accessToken = out.AccessToken
	g.tokenExpiry = time.Now().Add(time.Duration(out.ExpiresIn-60) * time.Second)
	return g.accessToken, nil
}

// Dispatch creates the PayPal order and hands back the approval link.
func (g *PayPalGateway) Dispatch(ctx context.Context, req *PaymentRequest) GatewayResponse {
	approvalURL, _, err := g.createOrder(ctx, req)
	if err != nil {
		if nerr, ok := err.(*NormalizedError); ok {
			return Failed(nerr)
		}
		return Failed(&NormalizedError{
			Code:        ErrUnavailable,
			UserMessage: "PayPal is unavailable right now",
			Provider:    ProviderPayPal,
			Detail:      err.Error(),
		})
	}
	return LegacyRequested(approvalURL)
}

func (g *PayPalGateway) createOrder(ctx context.Context, req *PaymentRequest) (approvalURL string, orderID string, err error) {
	token, err := g.token(ctx)
	if err != nil {
		return "", "", err
	}
	payload := map[string]any{
		"intent": "CAPTURE",
		"purchase_units": []map[string]any{{
			"reference_id": req.OrderID.String(),
			"description":  req.Description,
			"amount": map[string]string{
				"currency_code": req.Currency,
				"value":         req.Amount.StringFixed(2),
			},
		}},
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", "", err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v2/checkout/orders", bytes.NewReader(raw))
	if err != nil {
		return "", "", err
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return "", "", &NormalizedError{
			Code:        ErrUnavailable,
			UserMessage: "PayPal did not respond. You have not been charged.",
			Provider:    ProviderPayPal,
			Detail:      err.Error(),
		}
	}
	defer resp.Body.Close()
	var out struct {
		ID    string `json:"id"`
		Links []struct {
			Href string `json:"href"`
			Rel  string `json:"rel"`
		} `json:"links"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", "", err
	}
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return "", "", &NormalizedError{
			Code:        ErrUnavailable,
			UserMessage: "PayPal could not start the payment",
			Provider:    ProviderPayPal,
			Detail:      fmt.Sprintf("order create returned %d", resp.StatusCode),
		}
	}
	for _, link := range out.Links {
		if link.Rel == "approve" {
			approvalURL = link.Href
		}
	}
	return approvalURL, out.ID, nil
}

// CreatePayment captures an already-approved PayPal order. SourceToken holds
// the PayPal order id returned from the approval redirect.
func (g *PayPalGateway) CreatePayment(ctx context.Context, req *PaymentRequest) (*PaymentResult, error) {
	if req.SourceToken == "" {
		approvalURL, orderID, err := g.createOrder(ctx, req)
		if err != nil {
			return nil, err
		}
		return &PaymentResult{
			Success:        false,
			Provider:       ProviderPayPal,
			TransactionRef: orderID,
			ApprovalURL:    approvalURL,
			Error: &NormalizedError{
				Code:        ErrUnavailable,
				UserMessage: "Approve the payment with PayPal to continue",
				Provider:    ProviderPayPal,
				Detail:      "order created, awaiting buyer approval",
			},
		}, nil
	}
	token, err := g.token(ctx)
	if err != nil {
		return nil, err
	}
	captureURL := fmt.Sprintf("%s/v2/checkout/orders/%s/capture", g.baseURL, req.SourceToken)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, captureURL, bytes.NewReader([]byte("{}")))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, &NormalizedError{
			Code:        ErrUnavailable,
			UserMessage: "PayPal did not respond. Check your PayPal account before retrying.",
			Provider:    ProviderPayPal,
			Detail:      err.Error(),
		}
	}
	defer resp.Body.Close()
	var out struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return &PaymentResult{
			Success:  false,
			Provider: ProviderPayPal,
			Error: &NormalizedError{
				Code:        ErrDeclined,
				UserMessage: "PayPal declined the payment",
				Provider:    ProviderPayPal,
				Detail:      fmt.Sprintf("capture returned %d status %s", resp.StatusCode, out.Status),
			},
		}, nil
	}
	return &PaymentResult{
		Success:        true,
		Provider:       ProviderPayPal,
		TransactionRef: out.ID,
	}, nil
}

func (g *PayPalGateway) Info() MethodInfo {
	return MethodInfo{
		Provider:    ProviderPayPal,
		DisplayName: "PayPal",
		FeeSchedule: "3.49% + 49¢ per transaction",
		Currencies:  []string{"USD", "EUR", "GBP", "CAD", "AUD"},
	}
}

func (g *PayPalGateway) Close() error {
	g.httpClient.CloseIdleConnections()
	return nil
}
