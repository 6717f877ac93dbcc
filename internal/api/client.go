// Package api talks to the to-do GraphQL server. It knows nothing about the
// local store; callers get plain records back.
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/machinebox/graphql"
	"go.uber.org/zap"
)

var (
	// ErrUnauthenticated is returned when the server rejects the session token
	ErrUnauthenticated = errors.New("not authenticated")
	// ErrUnavailable is returned when the server cannot be reached or fails
	ErrUnavailable = errors.New("server unavailable")
)

// TokenSource supplies the bearer token for each request. An empty token
// sends no Authorization header.
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a function to TokenSource
type TokenFunc func() string

// Token implements TokenSource
func (f TokenFunc) Token() string { return f() }

// Options configure a Client
type Options struct {
	Endpoint string
	Timeout  time.Duration // 0 means no client-side timeout
	Tokens   TokenSource
	Logger   *zap.Logger

	// HTTPClient overrides the transport, mostly for tests
	HTTPClient *http.Client
}

// Client is the remote fetcher
type Client struct {
	gql     *graphql.Client
	tokens  TokenSource
	timeout time.Duration
	log     *zap.Logger
}

// New creates a client for the GraphQL endpoint
func New(opts Options) (*Client, error) {
	if opts.Endpoint == "" {
		return nil, fmt.Errorf("graphql endpoint is empty")
	}

	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	base := hc.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	wrapped := *hc
	wrapped.Transport = &statusTransport{base: base}

	gql := graphql.NewClient(opts.Endpoint, graphql.WithHTTPClient(&wrapped))
	gql.Log = func(s string) { log.Debug(s) }

	return &Client{
		gql:     gql,
		tokens:  opts.Tokens,
		timeout: opts.Timeout,
		log:     log.Named("api"),
	}, nil
}

// run executes one GraphQL document and decodes its data into resp
func (c *Client) run(ctx context.Context, op string, req *graphql.Request, resp any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	err := c.gql.Run(ctx, req, resp)
	if err != nil {
		err = mapErr(ctx, err)
		c.log.Warn("request failed",
			zap.String("op", op),
			zap.String("request_id", requestID),
			zap.Duration("took", time.Since(start)),
			zap.Error(err),
		)
		return fmt.Errorf("%s: %w", op, err)
	}

	c.log.Debug("request done",
		zap.String("op", op),
		zap.String("request_id", requestID),
		zap.Duration("took", time.Since(start)),
	)
	return nil
}

// statusError carries an HTTP status the GraphQL client would otherwise
// swallow when the body happens to decode.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return "http status " + strconv.Itoa(e.code)
}

// statusTransport turns 401 and 5xx responses into transport errors
type statusTransport struct {
	base http.RoundTripper
}

func (t *statusTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	res, err := t.base.RoundTrip(r)
	if err != nil {
		return nil, err
	}
	if res.StatusCode == http.StatusUnauthorized || res.StatusCode >= http.StatusInternalServerError {
		_, _ = io.Copy(io.Discard, res.Body)
		res.Body.Close()
		return nil, &statusError{code: res.StatusCode}
	}
	return res, nil
}

func mapErr(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}

	var se *statusError
	if errors.As(err, &se) {
		if se.code == http.StatusUnauthorized {
			return fmt.Errorf("%w: %v", ErrUnauthenticated, err)
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "non-200 status code"):
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	case strings.Contains(msg, "unauthorized"), strings.Contains(msg, "unauthenticated"),
		strings.Contains(msg, "not authenticated"), strings.Contains(msg, "invalid token"):
		return fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	return err
}

// idVar sends numeric identifiers as GraphQL Int, everything else verbatim
func idVar(id string) any {
	if n, err := strconv.Atoi(id); err == nil {
		return n
	}
	return id
}
