// Package gateway is the single path from the console to the remote fraud
// service. Every call carries the static API key, is capped by the configured
// timeout, and reports failures as *errors.AppError values.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"fraud-console/internal/config"
	"fraud-console/internal/errors"
	"fraud-console/internal/models"
	"fraud-console/internal/observability"
)

const (
	apiKeyHeader    = "x-api-key"
	maxResponseSize = 10 << 20
	maxErrorBody    = 4096
)

// Response is a successful answer from the fraud service. Body is the raw
// payload; its shape varies by endpoint and is resolved by package normalize.
type Response struct {
	Status int
	Body   json.RawMessage
}

type Client struct {
	baseURL    string
	apiKey     string
	providerID string
	timeout    time.Duration
	http       *http.Client
	logger     *slog.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the transport, mostly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

func New(cfg config.UpstreamConfig, logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		apiKey:     cfg.APIKey,
		providerID: cfg.ProviderID,
		timeout:    cfg.Timeout,
		http:       &http.Client{},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) Health(ctx context.Context) (*Response, error) {
	return c.doJSON(ctx, http.MethodGet, "/fraud/health", nil)
}

func (c *Client) RunETL(ctx context.Context, req models.ETLRequest) (*Response, error) {
	return c.doJSON(ctx, http.MethodPost, "/fraud/etl/run", req)
}

func (c *Client) CreateABTest(ctx context.Context, req models.CreateABTestRequest) (*Response, error) {
	return c.doJSON(ctx, http.MethodPost, "/fraud/abtest/create", req)
}

func (c *Client) ABTestResults(ctx context.Context, testID string) (*Response, error) {
	return c.doJSON(ctx, http.MethodGet, "/fraud/abtest/"+escape(testID)+"/results", nil)
}

func (c *Client) ProcessPayment(ctx context.Context, req models.PaymentRequest) (*Response, error) {
	return c.doJSON(ctx, http.MethodPost, "/fraud/process", req)
}

func (c *Client) ProcessWebhook(ctx context.Context, providerID string, event models.WebhookEvent) (*Response, error) {
	return c.doJSON(ctx, http.MethodPost, "/fraud/ingest/webhook/"+escape(providerID), event)
}

// TriggerPolling sends a POST without a body.
func (c *Client) TriggerPolling(ctx context.Context, providerID string) (*Response, error) {
	return c.doJSON(ctx, http.MethodPost, "/fraud/ingest/poll/"+escape(providerID), nil)
}

func (c *Client) FastInference(ctx context.Context, tx models.Transaction) (*Response, error) {
	return c.doJSON(ctx, http.MethodPost, "/fraud/inference/fast", tx)
}

func (c *Client) BatchInference(ctx context.Context, txs []models.Transaction) (*Response, error) {
	body := struct {
		Transactions []models.Transaction `json:"transactions"`
	}{Transactions: txs}
	return c.doJSON(ctx, http.MethodPost, "/fraud/inference/batch", body)
}

func (c *Client) InferenceStats(ctx context.Context) (*Response, error) {
	return c.doJSON(ctx, http.MethodGet, "/fraud/inference/stats", nil)
}

// UploadFile posts the file as multipart form data under dataFile, tagged
// with the configured provider id.
func (c *Client) UploadFile(ctx context.Context, filename string, file io.Reader) (*Response, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("dataFile", filename)
	if err != nil {
		return nil, errors.InternalWrap(err, "create multipart file part")
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, errors.BadRequestWrap(err, "read upload file")
	}
	if err := mw.WriteField("providerId", c.providerID); err != nil {
		return nil, errors.InternalWrap(err, "write providerId field")
	}
	if err := mw.Close(); err != nil {
		return nil, errors.InternalWrap(err, "close multipart body")
	}

	return c.do(ctx, http.MethodPost, "/fraud/ingest/file", &buf, mw.FormDataContentType())
}

func (c *Client) doJSON(ctx context.Context, method, path string, payload any) (*Response, error) {
	if payload == nil {
		return c.do(ctx, method, path, nil, "application/json")
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.InternalWrap(err, "encode request body")
	}
	return c.do(ctx, method, path, bytes.NewReader(body), "application/json")
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string) (*Response, error) {
	operation := method + " " + path

	ctx, span := observability.StartSpan(ctx, operation)
	defer func() {
		span.Finish()
		c.logger.Debug("fraud api call finished", "span", span)
	}()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	c.logger.Info("fraud api request",
		"method", method,
		"path", path,
		"request_id", observability.GetRequestID(ctx),
	)

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		span.SetError(err)
		return nil, errors.InternalWrap(err, "build request for "+operation)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set(apiKeyHeader, c.apiKey)
	if requestID := observability.GetRequestID(ctx); requestID != "" {
		req.Header.Set("X-Request-ID", requestID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		span.SetError(err)
		if isTimeout(ctx, err) {
			return nil, errors.UpstreamTimeout(err, operation)
		}
		return nil, errors.UpstreamUnavailable(err, operation)
	}
	defer resp.Body.Close()

	span.SetTag("http.status_code", fmt.Sprintf("%d", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		blob, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		appErr := errors.Upstream(resp.StatusCode, serverMessage(blob))
		span.SetError(appErr)
		c.logger.Warn("fraud api error response",
			"method", method,
			"path", path,
			"status", resp.StatusCode,
			"server_message", appErr.ServerMessage,
		)
		return nil, appErr
	}

	blob, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		span.SetError(err)
		if isTimeout(ctx, err) {
			return nil, errors.UpstreamTimeout(err, operation)
		}
		return nil, errors.UpstreamUnavailable(err, operation)
	}

	blob = bytes.TrimSpace(blob)
	if len(blob) == 0 {
		blob = []byte("{}")
	}
	if !json.Valid(blob) {
		appErr := errors.UpstreamBadResponse(nil, operation+" returned a non-JSON body")
		span.SetError(appErr)
		return nil, appErr
	}

	return &Response{Status: resp.StatusCode, Body: json.RawMessage(blob)}, nil
}

// serverMessage digs the human readable message out of an error body. The
// service uses {"message": ...}, {"error": "..."} and {"error": {"message": ...}}.
func serverMessage(blob []byte) string {
	var body struct {
		Message string          `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(blob, &body); err != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	if len(body.Error) == 0 {
		return ""
	}
	var text string
	if err := json.Unmarshal(body.Error, &text); err == nil {
		return text
	}
	var nested struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body.Error, &nested); err == nil {
		return nested.Message
	}
	return ""
}

func isTimeout(ctx context.Context, err error) bool {
	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return stderrors.As(err, &netErr) && netErr.Timeout()
}

func escape(segment string) string {
	return url.PathEscape(segment)
}
