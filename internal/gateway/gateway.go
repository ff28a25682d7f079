// ABOUTME: BackendGateway: REST client for the platform admin API built on resty
// ABOUTME: Attaches the bearer credential, maps responses onto the error taxonomy

package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/2389/verify-console/internal/auth"
	"github.com/2389/verify-console/internal/model"
)

// DefaultBaseURL is the production admin API
const DefaultBaseURL = "https://backend-api.getnobis.com/api/v2"

// DefaultTimeout bounds every request when the config does not set one
const DefaultTimeout = 30 * time.Second

// Options configures a Gateway
type Options struct {
	BaseURL     string
	Timeout     time.Duration
	Credentials auth.CredentialProvider

	// OnUnauthorized runs after the credential has been invalidated.
	// The CLI uses it to send the operator back to sign-in.
	OnUnauthorized func()

	// HTTPClient overrides the underlying transport (tests)
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Gateway is the only path from the console to the backend
type Gateway struct {
	http           *resty.Client
	creds          auth.CredentialProvider
	onUnauthorized func()
	logger         *slog.Logger
}

// New creates a Gateway. Retries are disabled: the operator re-triggers actions.
func New(opts Options) *Gateway {
	var client *resty.Client
	if opts.HTTPClient != nil {
		client = resty.NewWithClient(opts.HTTPClient)
	} else {
		client = resty.New()
	}

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	client.
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Accept", "application/json")

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Gateway{
		http:           client,
		creds:          opts.Credentials,
		onUnauthorized: opts.OnUnauthorized,
		logger:         logger.With("component", "gateway"),
	}
}

// call describes one request
type call struct {
	op     string // operation name for errors and logs
	method string
	path   string
	query  url.Values
	body   any
	out    any
}

// do executes a call and decodes a successful JSON body into c.out
func (g *Gateway) do(ctx context.Context, c call) error {
	token, err := g.token(ctx)
	if err != nil {
		g.unauthorized()
		return &AuthError{Op: c.op, Err: err}
	}

	requestID := uuid.NewString()
	req := g.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetHeader("X-Request-Id", requestID)
	if c.query != nil {
		req.SetQueryParamsFromValues(c.query)
	}
	if c.body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(c.body)
	}

	start := time.Now()
	resp, err := req.Execute(c.method, c.path)
	if err != nil {
		g.logger.Warn("backend call failed", "op", c.op, "request_id", requestID, "error", err)
		return &TransportError{Op: c.op, Err: err}
	}

	status := resp.StatusCode()
	g.logger.Debug("backend call",
		"op", c.op,
		"method", c.method,
		"path", c.path,
		"status", status,
		"request_id", requestID,
		"duration", time.Since(start),
	)

	if status == http.StatusUnauthorized {
		g.logger.Warn("authorization failed, credential invalidated", "op", c.op, "request_id", requestID)
		if g.creds != nil {
			g.creds.Invalidate()
		}
		g.unauthorized()
		return &AuthError{Op: c.op, Status: status}
	}

	if status < 200 || status > 299 {
		return &Rejection{Op: c.op, Status: status, Message: extractMessage(resp.Body())}
	}

	if c.out != nil && len(resp.Body()) > 0 {
		if err := json.Unmarshal(resp.Body(), c.out); err != nil {
			return fmt.Errorf("%s: decoding response: %w", c.op, err)
		}
	}
	return nil
}

func (g *Gateway) token(ctx context.Context) (string, error) {
	if g.creds == nil {
		return "", auth.ErrNoCredential
	}
	return g.creds.Token(ctx)
}

func (g *Gateway) unauthorized() {
	if g.onUnauthorized != nil {
		g.onUnauthorized()
	}
}

// extractMessage returns the message (or error) field of a JSON error body
func extractMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Message != "" {
		return payload.Message
	}
	return payload.Error
}

// Health returns the backend's service status
func (g *Gateway) Health(ctx context.Context) (*model.Health, error) {
	var out model.Health
	if err := g.do(ctx, call{op: "health", method: http.MethodGet, path: "/super-admin/health", out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}
