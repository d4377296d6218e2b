package dexscreener

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"dexscreener_stream/metrics"
	"dexscreener_stream/models"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

var (
	// ErrNotFound means the feed returned no pairs for a requested token.
	ErrNotFound = errors.New("token not found upstream")
	// ErrUnavailable covers transport errors, timeouts, non-2xx statuses
	// and an open circuit.
	ErrUnavailable = errors.New("upstream unavailable")
	// ErrMalformed means the body was not the expected JSON shape.
	ErrMalformed = errors.New("upstream response malformed")
)

const (
	endpointToken  = "token"
	endpointSearch = "search"

	maxBodyBytes = 8 << 20
)

type Options struct {
	BaseURL    string
	Timeout    time.Duration
	Limiter    Limiter
	Logger     *zap.SugaredLogger
	HTTPClient *http.Client
}

// Client talks to the DexScreener HTTP API.
type Client struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
	limiter Limiter
	breaker *gobreaker.CircuitBreaker
	log     *zap.SugaredLogger
}

func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	if opts.Limiter == nil {
		opts.Limiter = Unlimited{}
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}

	c := &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		timeout: opts.Timeout,
		http:    opts.HTTPClient,
		limiter: opts.Limiter,
		log:     opts.Logger,
	}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "dexscreener",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 10 && failureRatio >= 0.6
		},
		IsSuccessful: func(err error) bool {
			// A caller hanging up says nothing about the feed.
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			c.log.Warnw("Circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String())
		},
	})

	return c
}

// FetchOne returns the record of the first pair listed for address.
func (c *Client) FetchOne(ctx context.Context, address string) (models.Record, error) {
	u := c.baseURL + "/latest/dex/tokens/" + url.PathEscape(address)

	resp, err := c.get(ctx, endpointToken, u)
	if err != nil {
		return models.Record{}, err
	}
	if len(resp.Pairs) == 0 {
		return models.Record{}, fmt.Errorf("%w: %s", ErrNotFound, address)
	}

	rec := toRecord(resp.Pairs[0])
	if rec.Address == "" {
		rec.Address = address
	}
	return rec, nil
}

// FetchAll runs a free-text search and maps every pair. No pairs is an
// empty result, not an error.
func (c *Client) FetchAll(ctx context.Context, query string) ([]models.Record, error) {
	u := c.baseURL + "/latest/dex/search?q=" + url.QueryEscape(query)

	resp, err := c.get(ctx, endpointSearch, u)
	if err != nil {
		return nil, err
	}

	records := make([]models.Record, 0, len(resp.Pairs))
	for i, p := range resp.Pairs {
		rec := toRecord(p)
		if rec.Address == "" {
			c.log.Warnw("Skipping pair without base token address",
				"query", query,
				"index", i,
				"pair", p.PairAddress)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// Health reports an open circuit as unhealthy.
func (c *Client) Health(ctx context.Context) error {
	if state := c.breaker.State(); state == gobreaker.StateOpen {
		return fmt.Errorf("circuit %s", state)
	}
	return nil
}

func (c *Client) get(ctx context.Context, endpoint, u string) (*Response, error) {
	start := time.Now()
	resp, err := c.do(ctx, u)
	metrics.UpstreamRequest(endpoint, outcome(err), time.Since(start))
	if err != nil {
		c.log.Debugw("Upstream request failed", "endpoint", endpoint, "url", u, "error", err)
	}
	return resp, err
}

func (c *Client) do(ctx context.Context, u string) (*Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %v", ErrUnavailable, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	result, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: build request: %v", ErrUnavailable, err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
			return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
		}

		var out Response
		if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&out); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil, err
			}
			if errors.Is(err, context.DeadlineExceeded) {
				return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
			}
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return &out, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		if errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return nil, err
	}
	return result.(*Response), nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrMalformed):
		return "malformed"
	default:
		return "unavailable"
	}
}
