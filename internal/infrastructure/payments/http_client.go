package payments

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"marketplace_payments/internal/infrastructure/metrics"
	"marketplace_payments/internal/usecase/interfaces"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

const maxProviderBody = 1 << 20

// HTTPClientConfig bounds every gateway round-trip.
type HTTPClientConfig struct {
	ConnectTimeout time.Duration
	RequestTimeout time.Duration
	MaxAttempts    int
	MinDelay       time.Duration
	MaxDelay       time.Duration
}

func (c HTTPClientConfig) withDefaults() HTTPClientConfig {
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = 15 * time.Second
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 60 * time.Second
	}
	if c.MaxAttempts < 1 {
		c.MaxAttempts = 3
	}
	if c.MinDelay <= 0 {
		c.MinDelay = time.Second
	}
	if c.MaxDelay < c.MinDelay {
		c.MaxDelay = 4 * c.MinDelay
	}
	return c
}

// apiClient is the JSON-over-HTTP transport shared by the REST gateways.
type apiClient struct {
	gateway string
	http    *http.Client
	cfg     HTTPClientConfig
	log     *zap.Logger
	metrics *metrics.PaymentMetrics
}

func newAPIClient(gateway string, cfg HTTPClientConfig, log *zap.Logger, m *metrics.PaymentMetrics) *apiClient {
	cfg = cfg.withDefaults()
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: cfg.ConnectTimeout, KeepAlive: 30 * time.Second}).DialContext,
		TLSHandshakeTimeout:   cfg.ConnectTimeout,
		MaxIdleConnsPerHost:   8,
		IdleConnTimeout:       90 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
	return &apiClient{
		gateway: gateway,
		http:    &http.Client{Transport: transport, Timeout: cfg.RequestTimeout},
		cfg:     cfg,
		log:     log.With(zap.String("gateway", gateway)),
		metrics: m,
	}
}

// retryPolicy is capped exponential backoff (MinDelay, 2x MinDelay, ... up to
// MaxDelay) allowing at most attempts calls.
func retryPolicy(ctx context.Context, cfg HTTPClientConfig, attempts int) backoff.BackOffContext {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = cfg.MinDelay
	eb.MaxInterval = cfg.MaxDelay
	eb.Multiplier = 2
	eb.RandomizationFactor = 0.1
	eb.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(eb, uint64(attempts-1)), ctx)
}

type apiRequest struct {
	operation string
	method    string
	url       string
	header    http.Header
	body      any
	// retryable marks requests that are safe to repeat: reads, and writes the
	// provider deduplicates (idempotence key, unique reference).
	retryable bool
}

type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// do sends req and decodes a 2xx JSON body into out. Transport failures, 429
// and 5xx are retried with capped exponential backoff when req.retryable;
// any other 4xx fails immediately with ErrGatewayRejected.
func (c *apiClient) do(ctx context.Context, req apiRequest, out any) error {
	start := time.Now()
	var payload []byte
	if req.body != nil {
		var err error
		if payload, err = json.Marshal(req.body); err != nil {
			return fmt.Errorf("encode %s request: %w", req.operation, err)
		}
	}

	attempts := c.cfg.MaxAttempts
	if !req.retryable {
		attempts = 1
	}
	policy := retryPolicy(ctx, c.cfg, attempts)

	attempt := 0
	var lastErr error
	err := backoff.Retry(func() error {
		attempt++
		err := c.once(ctx, req, payload, out)
		if err == nil {
			return nil
		}
		lastErr = err
		var te *transientError
		if errors.As(err, &te) {
			c.log.Warn("gateway call failed", zap.String("operation", req.operation), zap.Int("attempt", attempt), zap.Error(err))
			return err
		}
		return backoff.Permanent(err)
	}, policy)
	if err != nil && lastErr != nil && !errors.Is(err, lastErr) {
		// context ended between attempts; report the provider-side cause
		err = fmt.Errorf("%w (%v)", lastErr, err)
	}
	if err != nil {
		var te *transientError
		if errors.As(err, &te) {
			err = fmt.Errorf("%w: %s: %v", interfaces.ErrGatewayUnreachable, req.operation, te.err)
		}
	}
	c.metrics.ObserveGatewayCall(c.gateway, req.operation, start, err)
	return err
}

func (c *apiClient) once(ctx context.Context, req apiRequest, payload []byte, out any) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, req.url, body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", req.operation, err)
	}
	for k, vs := range req.header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	httpReq.Header.Set("Accept", "application/json")
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return &transientError{err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxProviderBody))
	if err != nil {
		return &transientError{err: fmt.Errorf("read response: %w", err)}
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return &transientError{err: fmt.Errorf("status %d: %s", resp.StatusCode, providerMessage(raw))}
	case resp.StatusCode >= 400:
		return fmt.Errorf("%w: status %d: %s", interfaces.ErrGatewayRejected, resp.StatusCode, providerMessage(raw))
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("%w: unexpected status %d", interfaces.ErrGatewayRejected, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: decode %s response: %v", interfaces.ErrGatewayRejected, req.operation, err)
	}
	return nil
}

func basicAuth(user, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+password))
}

// providerMessage extracts the human-readable error from the known provider
// envelopes. Used for operator logs only.
func providerMessage(raw []byte) string {
	var env struct {
		Description string `json:"description"`
		Message     string `json:"message"`
		Error       any    `json:"error"`
	}
	if err := json.Unmarshal(raw, &env); err == nil {
		switch {
		case env.Description != "":
			return env.Description
		case env.Message != "":
			return env.Message
		}
		switch e := env.Error.(type) {
		case string:
			return e
		case map[string]any:
			if d, ok := e["description"].(string); ok {
				return d
			}
		}
	}
	msg := strings.TrimSpace(string(raw))
	if len(msg) > 256 {
		msg = msg[:256]
	}
	return msg
}
