// Package bkash talks to the bKash tokenized checkout API.
package bkash

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/digkill/TivoaArt/internal/httpclient"
)

// StatusCompleted is the execute transactionStatus of a captured payment.
const StatusCompleted = "Completed"

type Credentials struct {
	Username  string
	Password  string
	AppKey    string
	AppSecret string
}

type Client struct {
	baseURL    string
	creds      Credentials
	httpClient *http.Client
	log        *zap.Logger
}

type CreatePaymentRequest struct {
	Mode                  string `json:"mode"`
	PayerReference        string `json:"payerReference"`
	CallbackURL           string `json:"callbackURL"`
	Amount                string `json:"amount"`
	Currency              string `json:"currency"`
	Intent                string `json:"intent"`
	MerchantInvoiceNumber string `json:"merchantInvoiceNumber"`
}

type CreatePaymentResponse struct {
	PaymentID     string `json:"paymentID"`
	BkashURL      string `json:"bkashURL"`
	StatusCode    string `json:"statusCode,omitempty"`
	StatusMessage string `json:"statusMessage,omitempty"`
}

// ExecutePaymentResponse keeps the raw body so it can be echoed back to the client on rejection.
type ExecutePaymentResponse struct {
	PaymentID         string `json:"paymentID"`
	TrxID             string `json:"trxID"`
	TransactionStatus string `json:"transactionStatus"`
	Amount            string `json:"amount"`
	StatusCode        string `json:"statusCode"`
	StatusMessage     string `json:"statusMessage"`

	Raw json.RawMessage `json:"-"`
}

func (r *ExecutePaymentResponse) Completed() bool {
	return r != nil && r.TransactionStatus == StatusCompleted
}

func NewClient(baseURL string, creds Credentials, httpClient *http.Client, log *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		creds:      creds,
		httpClient: httpClient,
		log:        log,
	}
}

// GrantToken exchanges the app credentials for an id_token.
func (c *Client) GrantToken(ctx context.Context) (string, error) {
	headers := map[string]string{
		"username": c.creds.Username,
		"password": c.creds.Password,
	}
	payload := map[string]string{
		"app_key":    c.creds.AppKey,
		"app_secret": c.creds.AppSecret,
	}

	var resp struct {
		IDToken       string `json:"id_token"`
		StatusCode    string `json:"statusCode"`
		StatusMessage string `json:"statusMessage"`
	}
	if _, err := c.post(ctx, "/token/grant", headers, payload, &resp); err != nil {
		return "", fmt.Errorf("grant token: %w", err)
	}
	if resp.IDToken == "" {
		return "", fmt.Errorf("grant token: empty id_token (status=%s msg=%s)", resp.StatusCode, resp.StatusMessage)
	}
	return resp.IDToken, nil
}

// CreatePayment opens a checkout. A missing paymentID is left for the caller to judge.
func (c *Client) CreatePayment(ctx context.Context, token string, req CreatePaymentRequest) (*CreatePaymentResponse, error) {
	var resp CreatePaymentResponse
	if _, err := c.post(ctx, "/create", c.authHeaders(token), req, &resp); err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}
	if resp.PaymentID == "" {
		c.log.Warn("bkash create returned no payment id",
			zap.String("invoice", req.MerchantInvoiceNumber),
			zap.String("status_code", resp.StatusCode),
			zap.String("status_message", resp.StatusMessage))
	}
	return &resp, nil
}

func (c *Client) ExecutePayment(ctx context.Context, token, paymentID string) (*ExecutePaymentResponse, error) {
	var resp ExecutePaymentResponse
	raw, err := c.post(ctx, "/execute", c.authHeaders(token), map[string]string{"paymentID": paymentID}, &resp)
	if err != nil {
		return nil, fmt.Errorf("execute payment: %w", err)
	}
	resp.Raw = raw
	return &resp, nil
}

func (c *Client) authHeaders(token string) map[string]string {
	return map[string]string{
		"authorization": token,
		"x-app-key":     c.creds.AppKey,
	}
}

func (c *Client) post(ctx context.Context, path string, headers map[string]string, payload any, out any) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	fullURL := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fullURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post bkash: %w", err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Error("bkash request failed",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("body", httpclient.TruncateBody(rawBody)))
		return nil, fmt.Errorf("bkash error: status=%d path=%s body=%s", resp.StatusCode, path, httpclient.TruncateBody(rawBody))
	}

	if err := json.Unmarshal(rawBody, out); err != nil {
		return nil, fmt.Errorf("decode response: %w (body=%s)", err, httpclient.TruncateBody(rawBody))
	}
	return rawBody, nil
}
