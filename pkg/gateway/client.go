package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/landlordheaven/heaven-backend/pkg/errors"
	"github.com/landlordheaven/heaven-backend/pkg/types"
)

const (
	defaultTimeout        = 15 * time.Second
	defaultActionTimeout  = 45 * time.Second
	responseReadLimit     = 4 << 20
	idempotencyHeaderName = "Idempotency-Key"
)

var errBaseURLRequired = errors.New("gateway base url is required")

// Client calls the Landlord Heaven HTTP API.
type Client struct {
	httpClient     *http.Client
	baseURL        *url.URL
	token          string
	requestTimeout time.Duration
	actionTimeout  time.Duration
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client. Its Timeout should stay zero;
// per-call bounds come from the request and action timeouts.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithToken sets the bearer token sent on every request.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = strings.TrimSpace(token)
	}
}

// WithRequestTimeout bounds ordinary reads and writes.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.requestTimeout = d
		}
	}
}

// WithActionTimeout bounds calls that reach external systems (refund, push PR).
func WithActionTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.actionTimeout = d
		}
	}
}

// NewClient builds a gateway client for the API rooted at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, errBaseURLRequired
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse gateway base url: %w", err)
	}

	client := &Client{
		httpClient:     &http.Client{},
		baseURL:        parsed,
		requestTimeout: defaultTimeout,
		actionTimeout:  defaultActionTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

type request struct {
	method  string
	path    string
	query   url.Values
	body    any
	headers map[string]string
	// action marks calls that reach external systems and get the longer bound.
	action bool
}

func (c *Client) do(ctx context.Context, req request, out any) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "gateway client not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeoutFor(req))
	defer cancel()

	target := *c.baseURL
	target.Path = strings.TrimRight(c.baseURL.Path, "/") + req.path
	if len(req.query) > 0 {
		target.RawQuery = req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		payload, err := json.Marshal(req.body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "encode request body")
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target.String(), body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build request")
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}
	for k, v := range req.headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, responseReadLimit))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read response")
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp.StatusCode, raw)
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode response")
	}
	return nil
}

// decodeError maps an error response onto a typed error, keeping the server's message.
func decodeError(status int, raw []byte) error {
	code := pkgerrors.CodeForStatus(status)
	message := http.StatusText(status)

	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && len(envelope.Error) > 0 {
		var apiErr types.APIError
		if err := json.Unmarshal(envelope.Error, &apiErr); err == nil {
			if apiErr.Message != "" {
				message = apiErr.Message
			}
			if known := pkgerrors.Code(apiErr.Code); apiErr.Code != "" && pkgerrors.MetadataFor(known).HTTPStatus == status {
				code = known
			}
			typed := pkgerrors.New(code, message)
			if apiErr.Details != nil {
				typed = typed.WithDetails(apiErr.Details)
			}
			return typed
		}
		var plain string
		if err := json.Unmarshal(envelope.Error, &plain); err == nil && plain != "" {
			message = plain
		}
	}
	return pkgerrors.New(code, message)
}

// timeoutFor picks the per-call bound. The HTTP client carries none of its own,
// so the action bound is never cut short by the request bound.
func (c *Client) timeoutFor(req request) time.Duration {
	if req.action {
		return c.actionTimeout
	}
	return c.requestTimeout
}

func newIdempotencyKey() map[string]string {
	return map[string]string{idempotencyHeaderName: uuid.NewString()}
}

// dataEnvelope unwraps {"data": ...} responses.
type dataEnvelope[T any] struct {
	Data T `json:"data"`
}

// resultEnvelope unwraps {"success": true, "data": ...} responses.
type resultEnvelope[T any] struct {
	Success bool `json:"success"`
	Data    T    `json:"data"`
}
