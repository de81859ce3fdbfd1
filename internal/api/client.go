package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/DukeRupert/treadline/internal/domain"
	"github.com/DukeRupert/treadline/internal/metrics"
)

const (
	// DefaultTimeout bounds a single backend call.
	DefaultTimeout = 15 * time.Second

	// MaxResponseSize caps how much of a response body is read (4MB).
	MaxResponseSize = 4 * 1024 * 1024

	tracerName = "treadline/api"
)

// Config contains configuration for the REST client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client // optional; Timeout is ignored when set
}

// Client implements Backend over HTTP.
type Client struct {
	base   *url.URL
	client *http.Client
	tracer trace.Tracer
	logger *slog.Logger
}

var _ Backend = (*Client)(nil)

// New creates a REST client.
func New(config Config, logger *slog.Logger) (*Client, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("api base URL is required")
	}
	base, err := url.Parse(strings.TrimSuffix(config.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse api base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("api base URL must be http or https, got %q", config.BaseURL)
	}

	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}
	client := config.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: config.Timeout}
	}

	return &Client{
		base:   base,
		client: client,
		tracer: otel.Tracer(tracerName),
		logger: logger.With("component", "api"),
	}, nil
}

// =============================================================================
// Auth
// =============================================================================

type signInResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

// SignIn posts credentials to /auth/login.
func (c *Client) SignIn(ctx context.Context, params domain.SignInParams) (*domain.SignInResult, error) {
	const op = "api.sign_in"

	if err := params.Validate(); err != nil {
		return nil, err
	}

	var resp signInResponse
	if err := c.do(ctx, call{
		op:       op,
		method:   http.MethodPost,
		resource: "auth",
		path:     "/auth/login",
		body:     params,
		out:      &resp,
	}); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, domain.Unavailable(nil, op, "The server did not return a session token.")
	}

	return &domain.SignInResult{Token: resp.Token, User: resp.User}, nil
}

// SignOut posts to /auth/logout. An already-invalid token is not an error.
func (c *Client) SignOut(ctx context.Context, token string) error {
	const op = "api.sign_out"

	err := c.do(ctx, call{
		op:       op,
		method:   http.MethodPost,
		resource: "auth",
		path:     "/auth/logout",
		token:    token,
	})
	if domain.Is(err, domain.EUNAUTHORIZED) {
		return nil
	}
	return err
}

// =============================================================================
// Rows
// =============================================================================

// List fetches GET /{resource}?currentPage=&itemsPerPage=&search=.
func (c *Client) List(ctx context.Context, token, resource string, req domain.ListRequest) (domain.ListResult[domain.Row], error) {
	const op = "api.list"

	decode, ok := decoders[resource]
	if !ok {
		return domain.ListResult[domain.Row]{}, domain.Invalid(op, fmt.Sprintf("Unknown resource %q.", resource))
	}

	q := url.Values{}
	q.Set("currentPage", strconv.Itoa(req.CurrentPage))
	q.Set("itemsPerPage", strconv.Itoa(req.ItemsPerPage))
	q.Set("search", req.Search)

	var raw json.RawMessage
	if err := c.do(ctx, call{
		op:       op,
		method:   http.MethodGet,
		resource: resource,
		path:     "/" + resource,
		query:    q,
		token:    token,
		out:      &raw,
	}); err != nil {
		return domain.ListResult[domain.Row]{}, err
	}

	res, err := decode(raw)
	if err != nil {
		c.logger.Error("Malformed list response", "resource", resource, "error", err)
		return domain.ListResult[domain.Row]{}, domain.Unavailable(err, op, "The server returned an unreadable response.")
	}
	return res, nil
}

// Delete sends DELETE /{resource}/{id}.
func (c *Client) Delete(ctx context.Context, token, resource, id string) error {
	const op = "api.delete"

	if !KnownResource(resource) {
		return domain.Invalid(op, fmt.Sprintf("Unknown resource %q.", resource))
	}
	if strings.TrimSpace(id) == "" {
		return domain.Invalid(op, "Missing record id.")
	}

	return c.do(ctx, call{
		op:       op,
		method:   http.MethodDelete,
		resource: resource,
		path:     "/" + resource + "/" + url.PathEscape(id),
		token:    token,
	})
}

// =============================================================================
// Transport
// =============================================================================

type call struct {
	op       string
	method   string
	resource string // metrics/span label
	path     string
	query    url.Values
	token    string
	body     any
	out      any
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// do executes one request and decodes a 2xx JSON body into c.out.
func (c *Client) do(ctx context.Context, cl call) (err error) {
	ctx, span := c.tracer.Start(ctx, cl.op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", cl.method),
			attribute.String("treadline.resource", cl.resource),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, domain.ErrorCode(err))
		}
		span.End()
	}()

	req, err := c.newRequest(ctx, cl)
	if err != nil {
		return domain.Internal(err, cl.op, "Failed to build request")
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		metrics.APIRequest(cl.resource, cl.method, 0, time.Since(start))
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		c.logger.Warn("Backend unreachable", "op", cl.op, "error", err)
		return domain.Unavailable(err, cl.op, "Could not reach the server. Please try again.")
	}
	defer resp.Body.Close()

	metrics.APIRequest(cl.resource, cl.method, resp.StatusCode, time.Since(start))
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return domain.Unavailable(err, cl.op, "The server response was interrupted.")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return mapHTTPError(cl.op, resp.StatusCode, body)
	}

	if cl.out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, cl.out); err != nil {
		return domain.Unavailable(fmt.Errorf("unmarshal response: %w", err), cl.op, "The server returned an unreadable response.")
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, cl call) (*http.Request, error) {
	u := *c.base
	u.Path = c.base.Path + cl.path
	if cl.query != nil {
		u.RawQuery = cl.query.Encode()
	}

	var body io.Reader
	if cl.body != nil {
		b, err := json.Marshal(cl.body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cl.token != "" {
		req.Header.Set("Authorization", "Bearer "+cl.token)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	return req, nil
}

// mapHTTPError maps a non-2xx response to a domain error. The backend's
// message is kept verbatim; a default is used only when it sent none.
func mapHTTPError(op string, status int, body []byte) error {
	var eb errorBody
	_ = json.Unmarshal(body, &eb)
	msg := strings.TrimSpace(eb.Message)
	if msg == "" {
		msg = strings.TrimSpace(eb.Error)
	}

	code, fallback := classify(status)
	if msg == "" {
		msg = fallback
	}
	return domain.Wrap(fmt.Errorf("backend status %d", status), code, op, msg)
}

func classify(status int) (code, fallback string) {
	switch {
	case status == http.StatusUnauthorized:
		return domain.EUNAUTHORIZED, "Your session has expired. Please sign in again."
	case status == http.StatusForbidden:
		return domain.EFORBIDDEN, "You do not have permission to do that."
	case status == http.StatusNotFound:
		return domain.ENOTFOUND, "The record was not found."
	case status == http.StatusConflict:
		return domain.ECONFLICT, "The record was changed by someone else."
	case status == http.StatusTooManyRequests:
		return domain.ERATELIMIT, "Too many requests. Please wait a moment and try again."
	case status >= 400 && status < 500:
		return domain.EINVALID, "The server rejected the request."
	default:
		return domain.EUNAVAILABLE, "The server is unavailable. Please try again later."
	}
}

// IsUnauthorized reports whether err means the token was rejected.
func IsUnauthorized(err error) bool {
	return domain.Is(err, domain.EUNAUTHORIZED)
}
