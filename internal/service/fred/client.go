package fred

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"MacroPull/internal/domain/models"
	drepo "MacroPull/internal/domain/repository"
	pkghttp "MacroPull/pkg/http"
	applogger "MacroPull/pkg/logger"
	"MacroPull/pkg/util"
)

const (
	defaultBaseURL = "https://api.stlouisfed.org/fred"
	missingValue   = "."
)

// Client implements a DataSource backed by the FRED observations API.
type Client struct {
	apiKey  string
	baseURL string
	start   string
	http    *pkghttp.Client
	limiter *rate.Limiter
	l       *applogger.Logger
}

var _ drepo.DataSource = (*Client)(nil)

// Option configures Client.
type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithObservationStart limits history to dates on or after start (YYYY-MM-DD).
func WithObservationStart(start string) Option {
	return func(c *Client) { c.start = start }
}

func WithHTTPClient(h *pkghttp.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithRateLimit caps outgoing requests per second.
func WithRateLimit(perSec float64, burst int) Option {
	return func(c *Client) {
		if perSec <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSec), burst)
	}
}

func WithLogger(l *applogger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.l = l
		}
	}
}

// New creates a FRED client.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http:    pkghttp.NewClient(pkghttp.WithTimeout(15 * time.Second)),
		limiter: rate.NewLimiter(rate.Limit(2), 1),
		l:       applogger.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type observation struct {
	Date  string `json:"date"`
	Value string `json:"value"`
}

type observationsResponse struct {
	Observations []observation `json:"observations"`
	ErrorCode    int           `json:"error_code"`
	ErrorMessage string        `json:"error_message"`
}

// Fetch returns the full observation history of seriesID, oldest first.
// FRED marks missing values with "."; those rows are dropped.
func (c *Client) Fetch(ctx context.Context, seriesID string) (models.RawSeries, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return models.RawSeries{}, fmt.Errorf("%w: %s: rate limit: %v", models.ErrFetch, seriesID, err)
		}
	}

	q := map[string][]string{
		"series_id":  {seriesID},
		"api_key":    {c.apiKey},
		"file_type":  {"json"},
		"sort_order": {"asc"},
	}
	if c.start != "" {
		q["observation_start"] = []string{c.start}
	}

	start := time.Now()
	var resp observationsResponse
	err := c.http.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method:      pkghttp.MethodGet,
		URL:         c.baseURL + "/series/observations",
		QueryParams: q,
	}, &resp)
	if err != nil {
		var se *pkghttp.StatusError
		if errors.As(err, &se) {
			c.l.Warn("fred bad status",
				applogger.String("series", seriesID),
				applogger.Int("status", se.StatusCode),
			)
		}
		return models.RawSeries{}, fmt.Errorf("%w: %s: %v", models.ErrFetch, seriesID, err)
	}
	if resp.ErrorCode != 0 {
		return models.RawSeries{}, fmt.Errorf("%w: %s: fred error %d: %s", models.ErrFetch, seriesID, resp.ErrorCode, resp.ErrorMessage)
	}

	out := parseObservations(seriesID, resp.Observations)
	c.l.Debug("fred fetch ok",
		applogger.String("series", seriesID),
		applogger.Int("observations", out.Len()),
		applogger.Int("skipped", len(resp.Observations)-out.Len()),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return out, nil
}

func parseObservations(seriesID string, in []observation) models.RawSeries {
	out := models.RawSeries{ID: seriesID, Observations: make([]models.Observation, 0, len(in))}
	for _, o := range in {
		v := strings.TrimSpace(o.Value)
		if v == "" || v == missingValue {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			continue
		}
		t, ok := util.ParseTime(o.Date)
		if !ok {
			continue
		}
		out.Observations = append(out.Observations, models.Observation{Time: t, Value: f})
	}
	return out
}
