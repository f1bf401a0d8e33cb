// ABOUTME: HTTP client for the sales reporting endpoint
// ABOUTME: Speaks the callback-channel query protocol and settles every request exactly once
package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/salesdash/models"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

const (
	// DefaultTimeout applies when a Request carries no timeout.
	DefaultTimeout = 30 * time.Second

	// PingTimeout bounds the status probe.
	PingTimeout = 10 * time.Second
)

// maxBodyBytes caps a response body; anything longer is a server error.
var maxBodyBytes int64 = 32 << 20

var callbackWrapper = regexp.MustCompile(`^(?:/\*\*/)?\s*([A-Za-z_$][\w$.]*)\s*\(([\s\S]*)\)\s*;?$`)

// Request is one logical load.
type Request struct {
	Filters models.Filters
	Timeout time.Duration
	Retry   bool
}

// Client issues requests to the reporting endpoint.
type Client struct {
	endpoint   *url.URL
	httpClient *http.Client
	logger     *zap.Logger
	seq        atomic.Int64
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client, e.g. one carrying OAuth credentials.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a client for the endpoint URL.
func NewClient(endpoint string, opts ...Option) (*Client, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("endpoint URL not configured")
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid endpoint URL %q: scheme must be http or https", endpoint)
	}

	c := &Client{
		endpoint:   u,
		httpClient: &http.Client{},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Endpoint returns the configured endpoint URL.
func (c *Client) Endpoint() string {
	return c.endpoint.String()
}

// Fetch performs one request. The returned error wraps one of ErrTimeout,
// ErrNetwork or ErrServer, or the parent context's error when ctx itself was
// cancelled.
func (c *Client) Fetch(ctx context.Context, req Request) (*models.Payload, error) {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	channel := c.nextChannel()
	reqURL := c.buildURL(req, channel)

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	payload, status, err := c.do(callCtx, reqURL, channel)
	if err != nil {
		err = c.classify(ctx, callCtx, err)
		c.logger.Debug("fetch failed",
			zap.String("channel", channel),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, &RequestError{Op: "fetch", Channel: channel, StatusCode: status, Err: err}
	}

	c.logger.Debug("fetch complete",
		zap.String("channel", channel),
		zap.Duration("elapsed", time.Since(start)))
	return payload, nil
}

// Ping runs the status probe: a one-day load with a short deadline.
func (c *Client) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	_, err := c.Fetch(ctx, Request{Filters: models.Filters{Days: 1}, Timeout: PingTimeout})
	if err != nil {
		var reqErr *RequestError
		if errors.As(err, &reqErr) {
			reqErr.Op = "ping"
		}
		return 0, err
	}
	return time.Since(start), nil
}

func (c *Client) do(ctx context.Context, reqURL, channel string) (*models.Payload, int, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/javascript, application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, resp.StatusCode, fmt.Errorf("%w: unexpected status %s", ErrServer, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, resp.StatusCode, err
	}
	if int64(len(body)) > maxBodyBytes {
		return nil, resp.StatusCode, fmt.Errorf("%w: response too large (over %d bytes)", ErrServer, maxBodyBytes)
	}

	payload, err := DecodeResponse(body, channel)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return payload, resp.StatusCode, nil
}

// classify maps a raw failure onto the error taxonomy.
func (c *Client) classify(parent, callCtx context.Context, err error) error {
	if errors.Is(err, ErrServer) {
		return err
	}
	if parent.Err() != nil {
		return parent.Err()
	}
	if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return ErrTimeout
	}
	return fmt.Errorf("%w: %v", ErrNetwork, err)
}

// DecodeResponse unwraps a callback-style or bare JSON body and checks the
// envelope. A wrapper naming a different channel is rejected.
func DecodeResponse(body []byte, channel string) (*models.Payload, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty response", ErrServer)
	}

	if trimmed[0] != '{' && trimmed[0] != '[' {
		m := callbackWrapper.FindSubmatch(trimmed)
		if m == nil {
			return nil, fmt.Errorf("%w: unrecognized response body", ErrServer)
		}
		if name := string(m[1]); channel != "" && name != channel {
			return nil, fmt.Errorf("%w: response addressed to %s", ErrServer, name)
		}
		trimmed = bytes.TrimSpace(m[2])
		if len(trimmed) == 0 {
			return nil, fmt.Errorf("%w: empty response", ErrServer)
		}
	}

	payload, err := models.ParsePayload(trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed response: %v", ErrServer, err)
	}
	if msg := payload.ErrorMessage(); msg != "" {
		return nil, fmt.Errorf("%w: %s", ErrServer, msg)
	}
	if !payload.Succeeded() {
		return nil, fmt.Errorf("%w: response has no success flag", ErrServer)
	}
	return payload, nil
}

func (c *Client) buildURL(req Request, channel string) string {
	u := *c.endpoint
	q := u.Query()
	for k, vs := range req.Filters.Values() {
		q[k] = vs
	}
	q.Set("callback", channel)
	q.Set("_", ulid.Make().String())
	if req.Retry {
		q.Set("retry", "1")
	} else {
		q.Set("retry", "0")
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// nextChannel returns a response channel name unique to this process.
func (c *Client) nextChannel() string {
	n := c.seq.Add(1)
	id := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("__cb_%d_%s", n, id)
}
