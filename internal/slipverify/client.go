// Package slipverify calls the external bank-slip verification provider
// and normalizes its responses. It performs no retries and no storage;
// retry policy and idempotency belong to the topup coordinator.
package slipverify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"storefront/internal/money"
)

// ErrMalformedResponse is returned when the provider answers with a body
// that cannot be parsed. The outcome of the transfer is unknown; callers
// must not credit.
var ErrMalformedResponse = errors.New("verification provider returned malformed response")

// ProviderError mirrors the provider's numeric error codes without
// reinterpretation. Codes 1000-1008 are client-side (bad credential,
// malformed payload, quota exceeded); 2001-2006 are provider-side.
type ProviderError struct {
	Code    int
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("slip verification failed: code=%d message=%s", e.Code, e.Message)
}

// ClientSide reports whether the error is in the 1000-1008 range, i.e.
// caused by our request rather than a provider failure.
func (e *ProviderError) ClientSide() bool {
	return e.Code >= 1000 && e.Code <= 1008
}

// Result is one verified transfer as reported by the provider. Raw keeps
// the response verbatim for the audit record.
type Result struct {
	Valid           bool
	TransRef        string
	Discriminator   string
	AmountMinor     int64
	SenderName      string
	SenderDisplay   string
	SenderSuffix    string
	ReceiverName    string
	ReceiverDisplay string
	ReceiverSuffix  string
	TransferDate    string
	TransferTime    string
	Raw             []byte
}

type Client struct {
	baseURL    string
	credential string
	httpClient *http.Client
}

func New(baseURL, credential string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		credential: credential,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// VerifyPayload verifies a decoded QR payload string.
func (c *Client) VerifyPayload(ctx context.Context, payload string) (Result, error) {
	body, err := json.Marshal(map[string]string{"payload": payload})
	if err != nil {
		return Result{}, err
	}
	return c.do(ctx, "application/json", bytes.NewReader(body))
}

// VerifyImage verifies an uploaded slip image via multipart upload.
func (c *Client) VerifyImage(ctx context.Context, filename string, image io.Reader) (Result, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return Result{}, err
	}
	if _, err := io.Copy(part, image); err != nil {
		return Result{}, err
	}
	if err := writer.Close(); err != nil {
		return Result{}, err
	}
	return c.do(ctx, writer.FormDataContentType(), &buf)
}

// VerifyRaw verifies raw slip image bytes.
func (c *Client) VerifyRaw(ctx context.Context, data []byte) (Result, error) {
	return c.do(ctx, "application/octet-stream", bytes.NewReader(data))
}

type wireAccount struct {
	Value string `json:"value"`
}

type wireParty struct {
	DisplayName string      `json:"displayName"`
	Name        string      `json:"name"`
	Account     wireAccount `json:"account"`
}

type wireData struct {
	TransRef      string      `json:"transRef"`
	Discriminator string      `json:"discriminator"`
	TransDate     string      `json:"transDate"`
	TransTime     string      `json:"transTime"`
	Amount        json.Number `json:"amount"`
	Sender        wireParty   `json:"sender"`
	Receiver      wireParty   `json:"receiver"`
}

type wireResponse struct {
	Valid   bool      `json:"valid"`
	Code    int       `json:"code"`
	Message string    `json:"message"`
	Data    *wireData `json:"data"`
}

func (c *Client) do(ctx context.Context, contentType string, body io.Reader) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, body)
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Basic "+c.credential)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Result{}, err
	}

	var parsed wireResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return Result{}, ErrMalformedResponse
	}
	if parsed.Code != 0 {
		return Result{}, &ProviderError{Code: parsed.Code, Message: parsed.Message}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 || parsed.Data == nil {
		return Result{}, ErrMalformedResponse
	}

	amountMinor, err := parseAmountMinor(parsed.Data.Amount)
	if err != nil {
		return Result{}, ErrMalformedResponse
	}
	return Result{
		Valid:           parsed.Valid,
		TransRef:        parsed.Data.TransRef,
		Discriminator:   parsed.Data.Discriminator,
		AmountMinor:     amountMinor,
		SenderName:      parsed.Data.Sender.Name,
		SenderDisplay:   parsed.Data.Sender.DisplayName,
		SenderSuffix:    accountSuffix(parsed.Data.Sender.Account.Value),
		ReceiverName:    parsed.Data.Receiver.Name,
		ReceiverDisplay: parsed.Data.Receiver.DisplayName,
		ReceiverSuffix:  accountSuffix(parsed.Data.Receiver.Account.Value),
		TransferDate:    parsed.Data.TransDate,
		TransferTime:    parsed.Data.TransTime,
		Raw:             raw,
	}, nil
}

func parseAmountMinor(amount json.Number) (int64, error) {
	value, err := decimal.NewFromString(amount.String())
	if err != nil {
		return 0, err
	}
	return money.MinorFromDecimal(value)
}

// accountSuffix extracts the last four digits from a masked account
// number such as "xxx-x-x1234-5". A transfer receipt only exposes the
// trailing digits reliably.
func accountSuffix(masked string) string {
	digits := make([]byte, 0, len(masked))
	for i := 0; i < len(masked); i++ {
		if masked[i] >= '0' && masked[i] <= '9' {
			digits = append(digits, masked[i])
		}
	}
	if len(digits) < 4 {
		return string(digits)
	}
	return string(digits[len(digits)-4:])
}
