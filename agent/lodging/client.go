package lodging

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"

	statex "github.com/tanpawarit/Chative-Trip-Planner/agent/state"
)

const maxResponseSizeBytes = 4 << 20

// Searcher finds lodging offers for one stay. Upstream trouble is reported
// on the result; only input faults come back as errors.
type Searcher interface {
	Search(ctx context.Context, req SearchRequest) (statex.AccommodationResult, error)
}

type ClientOption func(*Client)

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithRateLimiter shares an existing limiter instead of building one from Config.
func WithRateLimiter(l *RateLimiter) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.limiter = l
		}
	}
}

// Client talks to the Agoda long-tail search API.
type Client struct {
	cfg        Config
	endpoint   string
	httpClient *http.Client
	limiter    *RateLimiter
	fallback   []FallbackStep
}

var _ Searcher = (*Client)(nil)

func NewClient(cfg Config, opts ...ClientOption) (*Client, error) {
	if !cfg.Configured() {
		return nil, ErrNotConfigured
	}
	cfg = cfg.withDefaults()

	steps, err := ParseFallbackOrder(cfg.FallbackOrder)
	if err != nil {
		return nil, err
	}

	path := strings.TrimSpace(cfg.SearchPath)
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	c := &Client{
		cfg:        cfg,
		endpoint:   strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/") + path,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		fallback:   steps,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if c.limiter == nil {
		c.limiter = NewRateLimiter(cfg.RateWindow, cfg.RateBurst)
	}
	return c, nil
}

// Search runs the configured search, then walks the fallback steps while
// the upstream keeps answering with nothing.
func (c *Client) Search(ctx context.Context, req SearchRequest) (statex.AccommodationResult, error) {
	if err := req.Validate(); err != nil {
		return statex.AccommodationResult{}, err
	}

	payload, err := buildPayload(c.cfg, req)
	if err != nil {
		return statex.AccommodationResult{}, err
	}

	logger := log.With().
		Int("city_id", req.CityID).
		Str("check_in", req.CheckIn.String()).
		Str("check_out", req.CheckOut.String()).
		Logger()

	offers, err := c.searchWithRetry(ctx, payload)
	if err != nil {
		logger.Warn().Err(err).Msg("lodging search failed")
		return statex.FailedAccommodation(failureReason(err), req.CheckIn, req.CheckOut), nil
	}
	if len(offers) > 0 {
		return c.result(req, offers, ""), nil
	}

	for _, step := range c.fallback {
		if payload, err = applyFallback(step, payload); err != nil {
			return statex.AccommodationResult{}, fmt.Errorf("apply fallback %s: %w", step, err)
		}
		logger.Info().Str("fallback", string(step)).Msg("lodging search empty, relaxing criteria")

		offers, err = c.searchWithRetry(ctx, payload)
		if err != nil {
			logger.Warn().Err(err).Str("fallback", string(step)).Msg("lodging fallback search failed")
			failed := statex.FailedAccommodation(failureReason(err), req.CheckIn, req.CheckOut)
			failed.FallbackStep = string(step)
			return failed, nil
		}
		if len(offers) > 0 {
			return c.result(req, offers, step), nil
		}
	}

	return statex.AccommodationResult{
		Offers:   []statex.Offer{},
		Reason:   statex.ReasonNoResults,
		CheckIn:  req.CheckIn,
		CheckOut: req.CheckOut,
	}, nil
}

func (c *Client) result(req SearchRequest, offers []statex.Offer, step FallbackStep) statex.AccommodationResult {
	return statex.AccommodationResult{
		Offers:       offers,
		FallbackStep: string(step),
		CheckIn:      req.CheckIn,
		CheckOut:     req.CheckOut,
	}
}

// searchWithRetry posts one payload, retrying transient failures with
// exponential backoff. Every attempt waits for a rate-limit permit.
func (c *Client) searchWithRetry(ctx context.Context, payload []byte) ([]statex.Offer, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.cfg.BaseDelay
	policy.MaxInterval = c.cfg.MaxDelay
	policy.Multiplier = 2
	policy.RandomizationFactor = 0
	policy.MaxElapsedTime = 0
	policy.Reset()

	var offers []statex.Offer
	attempt := 0
	op := func() error {
		attempt++
		if err := c.limiter.Acquire(ctx); err != nil {
			return backoff.Permanent(err)
		}
		got, err := c.post(ctx, payload)
		if err != nil {
			if errors.Is(err, errUpstreamTransient) {
				return err
			}
			return backoff.Permanent(err)
		}
		offers = got
		return nil
	}
	notify := func(err error, wait time.Duration) {
		log.Debug().Err(err).Int("attempt", attempt).Dur("wait", wait).Msg("retrying lodging search")
	}

	b := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(c.cfg.MaxAttempts-1)), ctx)
	if err := backoff.RetryNotify(op, b, notify); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			return nil, fmt.Errorf("%w (last error: %v)", ctxErr, err)
		}
		return nil, err
	}
	return offers, nil
}

func (c *Client) post(ctx context.Context, payload []byte) ([]statex.Offer, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build lodging request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", c.authorization())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %w", errUpstreamTransient, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", errUpstreamTransient, err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
		return nil, fmt.Errorf("%w: status=%d", errUpstreamTransient, resp.StatusCode)
	case resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices:
		return nil, fmt.Errorf("%w: status=%d body=%s", errUpstreamRejected, resp.StatusCode, preview(raw))
	}

	parsed := parseResponse(raw, c.cfg.Currency)
	if parsed.errorID != 0 && !parsed.noResults && len(parsed.offers) == 0 {
		return nil, fmt.Errorf("%w: error id=%d %s", errUpstreamRejected, parsed.errorID, parsed.errorMsg)
	}
	return parsed.offers, nil
}

func (c *Client) authorization() string {
	key := strings.TrimSpace(c.cfg.APIKey)
	if site := strings.TrimSpace(c.cfg.SiteID); site != "" {
		return site + ":" + key
	}
	return key
}

func failureReason(err error) string {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return statex.ReasonTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		return statex.ReasonTimeout
	case errors.Is(err, errUpstreamRejected):
		return statex.ReasonUpstreamRejected
	default:
		return statex.ReasonUpstreamUnavailable
	}
}

func preview(raw []byte) string {
	const limit = 300
	if len(raw) > limit {
		return string(raw[:limit]) + "..."
	}
	return string(raw)
}
