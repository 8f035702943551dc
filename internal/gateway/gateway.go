package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/semaphore"

	"github.com/dmitrijs2005/guildstore/internal/common"
	"github.com/dmitrijs2005/guildstore/internal/logging"
)

const (
	DefaultMaxConcurrency = 2
	DefaultMaxRetries     = 5
	DefaultBaseBackoff    = 1 * time.Second
	DefaultMaxJitter      = 500 * time.Millisecond

	userAgent = "DiscordBot (https://github.com/dmitrijs2005/guildstore, 1.0)"
)

type Config struct {
	BaseURL        string
	Token          string
	MaxConcurrency int
	MaxRetries     int
	BaseBackoff    time.Duration
	MaxJitter      time.Duration
	RequestTimeout time.Duration
}

type Option func(*Gateway)

// WithHTTPClient replaces the default client. Its Timeout applies per attempt.
func WithHTTPClient(c *http.Client) Option {
	return func(g *Gateway) { g.client = c }
}

type Gateway struct {
	cfg      Config
	client   *http.Client
	slots    *semaphore.Weighted
	inFlight atomic.Int64
	logger   logging.Logger
}

// New builds a Gateway. Zero-valued limits in cfg take the package defaults;
// a negative MaxRetries or MaxJitter disables retries or jitter.
func New(cfg Config, logger logging.Logger, opts ...Option) *Gateway {
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = DefaultMaxConcurrency
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = DefaultBaseBackoff
	}
	if cfg.MaxJitter == 0 {
		cfg.MaxJitter = DefaultMaxJitter
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	g := &Gateway{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.RequestTimeout},
		slots:  semaphore.NewWeighted(int64(cfg.MaxConcurrency)),
		logger: logger.With("module", "gateway"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// InFlight returns the number of calls currently holding a slot.
func (g *Gateway) InFlight() int {
	return int(g.inFlight.Load())
}

// Execute sends req to the remote API. A nil *Response with a nil error means
// the resource does not exist.
func (g *Gateway) Execute(ctx context.Context, req Request) (*Response, error) {
	body, contentType, err := req.encode()
	if err != nil {
		return nil, err
	}

	url := g.cfg.BaseURL + req.Route
	build := func(ctx context.Context) (*http.Request, error) {
		var r io.Reader
		if body != nil {
			r = bytes.NewReader(body)
		}
		hr, err := http.NewRequestWithContext(ctx, req.Method, url, r)
		if err != nil {
			return nil, err
		}
		if contentType != "" {
			hr.Header.Set("Content-Type", contentType)
		}
		hr.Header.Set(common.AuthorizationHeaderName, "Bot "+g.cfg.Token)
		hr.Header.Set("User-Agent", userAgent)
		return hr, nil
	}

	return g.call(ctx, req.Method, req.Route, build)
}

// Download fetches attachment bytes from a CDN url through the same slots.
// CDN urls are pre-signed, so no credential is attached.
func (g *Gateway) Download(ctx context.Context, url string) ([]byte, error) {
	build := func(ctx context.Context) (*http.Request, error) {
		hr, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		hr.Header.Set("User-Agent", userAgent)
		return hr, nil
	}

	resp, err := g.call(ctx, http.MethodGet, url, build)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, fmt.Errorf("download %s: %w", url, common.ErrorNotFound)
	}
	return resp.Body, nil
}

func (g *Gateway) call(ctx context.Context, method, route string, build func(context.Context) (*http.Request, error)) (*Response, error) {
	if err := g.slots.Acquire(ctx, 1); err != nil {
		return nil, cancelled(method, route, err)
	}
	defer g.slots.Release(1)

	g.inFlight.Add(1)
	defer g.inFlight.Add(-1)

	var (
		result  *Response
		attempt int
		hint    time.Duration
	)

	backoff := retry.BackoffFunc(func() (time.Duration, bool) {
		wait := g.wait(attempt, hint)
		attempt++
		return wait, false
	})

	err := retry.Do(ctx, retry.WithMaxRetries(uint64(max(g.cfg.MaxRetries, 0)), backoff), func(ctx context.Context) error {
		resp, err := g.attempt(ctx, method, route, build)
		var t *throttled
		if errors.As(err, &t) {
			hint = t.wait
			g.logger.Warn(ctx, "request throttled", "method", method, "route", route,
				"global", t.global, "retry_after", t.wait, "attempt", attempt+1)
			return retry.RetryableError(err)
		}
		result = resp
		return err
	})

	if err != nil && ctx.Err() != nil {
		return nil, cancelled(method, route, ctx.Err())
	}

	var t *throttled
	if errors.As(err, &t) {
		g.logger.Error(ctx, "giving up after repeated throttling", "method", method, "route", route, "attempts", attempt+1)
		return nil, fmt.Errorf("%s %s: %w after %d attempts", method, route, common.ErrRateLimitExceeded, attempt+1)
	}
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (g *Gateway) attempt(ctx context.Context, method, route string, build func(context.Context) (*http.Request, error)) (*Response, error) {
	hr, err := build(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build request %s %s: %w", method, route, err)
	}

	g.logger.Debug(ctx, "sending request", "method", method, "route", route)

	resp, err := g.client.Do(hr)
	if err != nil {
		if ctx.Err() == nil {
			g.logger.Error(ctx, "request failed", "method", method, "route", route, "error", err)
		}
		return nil, fmt.Errorf("%s %s: %w", method, route, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response %s %s: %w", method, route, err)
	}

	switch {
	case resp.StatusCode == http.StatusNoContent:
		return &Response{Status: resp.StatusCode}, nil
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return &Response{Status: resp.StatusCode, Body: data}, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, parseThrottle(resp.Header, data)
	default:
		return nil, parseRemoteError(method, route, resp, data)
	}
}

// wait is the pause before retry number attempt+1.
func (g *Gateway) wait(attempt int, hint time.Duration) time.Duration {
	wait := hint
	if wait <= 0 {
		wait = g.cfg.BaseBackoff << attempt
	}
	if g.cfg.MaxJitter > 0 {
		wait += rand.N(g.cfg.MaxJitter)
	}
	return wait
}

type errorBody struct {
	Message    string  `json:"message"`
	Code       int     `json:"code"`
	RetryAfter float64 `json:"retry_after"`
	Global     bool    `json:"global"`
}

func parseThrottle(h http.Header, data []byte) *throttled {
	var body errorBody
	_ = json.Unmarshal(data, &body)

	t := &throttled{global: body.Global || strings.EqualFold(h.Get("X-RateLimit-Global"), "true")}

	secs := body.RetryAfter
	if secs <= 0 {
		if v, err := strconv.ParseFloat(h.Get("Retry-After"), 64); err == nil {
			secs = v
		}
	}
	if secs > 0 {
		t.wait = time.Duration(secs * float64(time.Second))
	}
	return t
}

func parseRemoteError(method, route string, resp *http.Response, data []byte) *RemoteError {
	e := &RemoteError{Status: resp.StatusCode, Method: method, Route: route}

	var body errorBody
	if json.Unmarshal(data, &body) == nil && body.Message != "" {
		e.Message = body.Message
		e.Code = body.Code
		return e
	}

	e.Message = http.StatusText(resp.StatusCode)
	if e.Message == "" {
		e.Message = resp.Status
	}
	return e
}

func cancelled(method, route string, err error) error {
	return fmt.Errorf("%s %s: %w: %w", method, route, common.ErrCancelled, err)
}
