// Package client talks to the evaluator and history service over HTTP and
// listens for its change notifications over a websocket.
//
// Failures are reported as *errors.CalcError values: a request that could
// not complete is a network error, an expression the evaluator refused is
// an evaluation error carrying the evaluator's message.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/conneroisu/abacus/internal/api"
	"github.com/conneroisu/abacus/internal/errors"
	"github.com/conneroisu/abacus/internal/logging"
	"github.com/conneroisu/abacus/internal/validation"
)

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 1 << 20

// Client is a client for the evaluator service. It is safe for concurrent
// use.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     logging.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout bounds every request. Zero leaves requests to the context.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d, Transport: c.httpClient.Transport}
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger logging.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a client for the service rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if err := validation.ValidateURL(baseURL); err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeConfigInvalid, "invalid service URL: "+err.Error())
	}
	parsed, _ := url.Parse(strings.TrimSuffix(baseURL, "/"))

	c := &Client{
		baseURL:    parsed,
		httpClient: &http.Client{},
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.WithComponent("client")

	return c, nil
}

// BaseURL returns the service root.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Evaluate submits expression in the given mode and returns the result
// text. A non-2xx status or an ok=false payload is an evaluation error
// carrying the service's message, which may be empty.
func (c *Client) Evaluate(ctx context.Context, expression, mode string) (string, error) {
	body, err := json.Marshal(api.EvalRequest{Expression: expression, Mode: mode})
	if err != nil {
		return "", errors.NewInternalError(errors.ErrCodeInternalError, "encode request", err)
	}

	op := logging.StartOperation(c.logger, "eval")
	status, raw, err := c.do(ctx, http.MethodPost, api.PathEval, body)
	if err != nil {
		op.EndWithError(ctx, err)
		return "", err
	}

	var resp api.EvalResponse
	if decodeErr := json.Unmarshal(raw, &resp); decodeErr != nil {
		rejected := errors.NewEvaluationError("")
		rejected.Cause = decodeErr
		op.EndWithError(ctx, rejected)
		return "", rejected.WithContext("status", status)
	}

	if !isSuccess(status) || !resp.OK {
		rejected := errors.NewEvaluationError(resp.Error).WithContext("status", status)
		op.EndWithError(ctx, rejected)
		return "", rejected
	}

	op.End(ctx)
	return resp.Result, nil
}

// History fetches the stored evaluations, newest first.
func (c *Client) History(ctx context.Context) ([]api.HistoryEntry, error) {
	var resp api.HistoryResponse
	if err := c.getJSON(ctx, api.PathHistory, &resp); err != nil {
		return nil, err
	}
	if !resp.OK {
		return nil, notOK(api.PathHistory, resp.Error)
	}
	if resp.Items == nil {
		resp.Items = []api.HistoryEntry{}
	}
	return resp.Items, nil
}

// Stats fetches the aggregate counters.
func (c *Client) Stats(ctx context.Context) (api.StatsSnapshot, error) {
	var resp api.StatsResponse
	if err := c.getJSON(ctx, api.PathStats, &resp); err != nil {
		return api.StatsSnapshot{}, err
	}
	if !resp.OK {
		return api.StatsSnapshot{}, notOK(api.PathStats, resp.Error)
	}
	return api.StatsSnapshot{Total: resp.Total, Last: resp.Last}, nil
}

// ClearHistory asks the service to delete every stored evaluation. The
// acknowledgement body is optional; only transport failures and non-2xx
// statuses are errors.
func (c *Client) ClearHistory(ctx context.Context) error {
	status, raw, err := c.do(ctx, http.MethodPost, api.PathHistoryClear, nil)
	if err != nil {
		return err
	}
	if !isSuccess(status) {
		var ack api.AckResponse
		_ = json.Unmarshal(raw, &ack)
		return notOK(api.PathHistoryClear, ack.Error).WithContext("status", status)
	}
	return nil
}

// Health reports whether the service answers its health endpoint.
func (c *Client) Health(ctx context.Context) error {
	status, _, err := c.do(ctx, http.MethodGet, api.PathHealth, nil)
	if err != nil {
		return err
	}
	if !isSuccess(status) {
		return notOK(api.PathHealth, http.StatusText(status))
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	status, raw, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errors.NewNetworkError(errors.ErrCodeBadResponse, "malformed response from "+path, err).
			WithContext("status", status)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), reader)
	if err != nil {
		return 0, nil, errors.NewInternalError(errors.ErrCodeInternalError, "build request", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, errors.NewNetworkError(errors.ErrCodeRequestFailed, fmt.Sprintf("%s %s", method, path), err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return resp.StatusCode, nil, errors.NewNetworkError(errors.ErrCodeRequestFailed, "read response from "+path, err)
	}

	c.logger.Debug(ctx, "Request completed", "method", method, "path", path, "status", resp.StatusCode)
	return resp.StatusCode, raw, nil
}

func (c *Client) endpoint(path string) string {
	return c.baseURL.String() + path
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

func notOK(path, message string) *errors.CalcError {
	msg := "service reported failure for " + path
	if message != "" {
		msg += ": " + message
	}
	return errors.NewNetworkError(errors.ErrCodeBadResponse, msg, nil)
}
