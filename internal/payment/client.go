package payment

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const ConfirmPath = "/v1/payments/confirm"

// ErrDeclined means the gateway did not confirm the payment, either because
// it answered with a non-2xx status or because the call never completed.
var ErrDeclined = errors.New("payment declined")

// Client calls the payment gateway's confirmation endpoint. It never retries.
type Client struct {
	baseURL string
	auth    string
	hc      *http.Client
}

// NewClient builds a client authenticating with secretKey. A nil hc gets a
// default client bounded by timeout.
func NewClient(baseURL, secretKey string, timeout time.Duration, hc *http.Client) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		auth:    BasicAuth(secretKey),
		hc:      hc,
	}
}

// BasicAuth encodes the gateway secret as "Basic base64(secret:)".
func BasicAuth(secretKey string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(secretKey+":"))
}

// Confirm posts payload as JSON and returns nil only on a 2xx answer.
func (c *Client) Confirm(ctx context.Context, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payment confirmation: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+ConfirmPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build payment confirmation: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", c.auth)

	res, err := c.hc.Do(req)
	if err != nil {
		slog.Error("payment confirmation request failed", slog.Any("error", err))
		return fmt.Errorf("%w: %v", ErrDeclined, err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 200 && res.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, res.Body)
		return nil
	}

	raw, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
	msg := upstreamMessage(raw)
	slog.Warn("payment confirmation rejected", slog.Int("status", res.StatusCode), slog.String("message", msg))
	return &DeclinedError{Status: res.StatusCode, Code: upstreamCode(raw), Message: msg}
}

// DeclinedError carries the gateway's rejection details.
type DeclinedError struct {
	Status  int
	Code    string
	Message string
}

func (e *DeclinedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("payment declined (status=%d)", e.Status)
	}
	return fmt.Sprintf("payment declined (status=%d): %s", e.Status, e.Message)
}

func (e *DeclinedError) Unwrap() error { return ErrDeclined }

type gatewayError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func upstreamMessage(raw []byte) string {
	var ge gatewayError
	if err := json.Unmarshal(raw, &ge); err == nil && ge.Message != "" {
		return ge.Message
	}
	return strings.TrimSpace(string(raw))
}

func upstreamCode(raw []byte) string {
	var ge gatewayError
	_ = json.Unmarshal(raw, &ge)
	return ge.Code
}
