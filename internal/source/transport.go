package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/hashicorp/go-retryablehttp"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/folioapp/folio-server/internal/metrics"
	"github.com/folioapp/folio-server/internal/ratelimit"
)

const (
	defaultTimeout   = 10 * time.Second
	defaultRPS       = 2.0
	defaultBurst     = 3
	defaultUserAgent = "Folio/1.0"
	maxBodyBytes     = 8 << 20

	// Breaker opens after this many consecutive failures and probes again after breakerTimeout.
	breakerFailures = 5
	breakerTimeout  = 30 * time.Second
)

// TransportOptions configures a Transport.
type TransportOptions struct {
	Timeout      time.Duration // per attempt, default 10s
	MaxRetries   int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	DefaultRPS   float64
	Burst        int
	UserAgent    string
	Logger       *slog.Logger
}

// Transport is the outbound HTTP client shared by all adapters. Requests
// are rate limited per source, retried on transient failures and guarded by
// a per-source circuit breaker.
type Transport struct {
	client    *retryablehttp.Client
	limiter   *ratelimit.KeyedRateLimiter
	userAgent string
	logger    *slog.Logger

	mu       sync.Mutex
	breakers map[Source]*gobreaker.CircuitBreaker[[]byte]
}

// NewTransport creates a Transport.
func NewTransport(opts TransportOptions) *Transport {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.DefaultRPS == 0 {
		opts.DefaultRPS = defaultRPS
	}
	if opts.Burst <= 0 {
		opts.Burst = defaultBurst
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	t := &Transport{
		limiter:   ratelimit.New(opts.DefaultRPS, opts.Burst),
		userAgent: opts.UserAgent,
		logger:    opts.Logger,
		breakers:  make(map[Source]*gobreaker.CircuitBreaker[[]byte]),
	}

	client := retryablehttp.NewClient()
	client.HTTPClient.Timeout = opts.Timeout
	client.RetryMax = max(opts.MaxRetries, 0)
	if opts.RetryWaitMin > 0 {
		client.RetryWaitMin = opts.RetryWaitMin
	}
	if opts.RetryWaitMax > 0 {
		client.RetryWaitMax = opts.RetryWaitMax
	}
	client.Logger = opts.Logger
	client.CheckRetry = t.checkRetry
	// Hand the final response back so status codes map to sentinel errors.
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	t.client = client

	return t
}

// SetRate overrides the request rate for one source.
func (t *Transport) SetRate(src Source, rps float64) {
	t.limiter.SetRate(string(src), rps)
}

// Get fetches rawURL on behalf of src and returns the response body.
func (t *Transport) Get(ctx context.Context, src Source, rawURL string, header http.Header) ([]byte, error) {
	if err := t.limiter.Wait(ctx, string(src)); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	start := time.Now()
	body, err := t.breaker(src).Execute(func() ([]byte, error) {
		return t.do(ctx, src, rawURL, header)
	})
	metrics.SourceRequestDuration.WithLabelValues(string(src)).Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		metrics.SourceRequests.WithLabelValues(string(src), "success").Inc()
		return body, nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.SourceRequests.WithLabelValues(string(src), "rejected").Inc()
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	default:
		metrics.SourceRequests.WithLabelValues(string(src), "failure").Inc()
		return nil, err
	}
}

// GetJSON fetches rawURL and decodes the body into v. A body that does not
// decode into v is reported as ErrInvalidResponse.
func (t *Transport) GetJSON(ctx context.Context, src Source, rawURL string, header http.Header, v any) error {
	body, err := t.Get(ctx, src, rawURL, header)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: decode: %v", ErrInvalidResponse, err)
	}
	return nil
}

func (t *Transport) do(ctx context.Context, src Source, rawURL string, header http.Header) ([]byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, vals := range header {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
	req.Header.Set("User-Agent", t.userAgent)

	t.logger.Debug("source request", "source", src, "url", redact(rawURL))

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case resp.StatusCode == http.StatusBadRequest:
		return nil, ErrBadRequest
	case resp.StatusCode >= 500:
		return nil, ErrServer
	default:
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
}

func (t *Transport) checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	should, policyErr := retryablehttp.ErrorPropagatedRetryPolicy(ctx, resp, err)
	// Status codes are mapped to sentinel errors by do; only transport and
	// context errors propagate from here.
	if err == nil && ctx.Err() == nil {
		policyErr = nil
	}
	if should && resp != nil {
		t.logger.Warn("retrying source request",
			"url", redact(resp.Request.URL.String()),
			"status", resp.StatusCode,
		)
	}
	return should, policyErr
}

func (t *Transport) breaker(src Source) *gobreaker.CircuitBreaker[[]byte] {
	t.mu.Lock()
	defer t.mu.Unlock()

	if cb, ok := t.breakers[src]; ok {
		return cb
	}

	metrics.CircuitBreakerState.WithLabelValues(string(src)).Set(0)
	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        string(src),
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     breakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerFailures
		},
		// A missing book or a malformed query says nothing about the source's health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, ErrBadRequest)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			t.logger.Warn("source circuit breaker state change",
				"source", name,
				"from", from.String(),
				"to", to.String(),
			)
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})
	t.breakers[src] = cb
	return cb
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// BuildURL joins base and path and encodes query.
func BuildURL(base, path string, query url.Values) (string, error) {
	u, err := url.Parse(strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/"))
	if err != nil {
		return "", fmt.Errorf("build url: %w", err)
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String(), nil
}

// redact drops query values that look like credentials before logging.
func redact(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	for k := range q {
		if strings.Contains(strings.ToLower(k), "key") {
			q.Set(k, "REDACTED")
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}
