// Package ingest provides SEC EDGAR API integration for the ticker directory and XBRL company facts.
// API Documentation: https://www.sec.gov/developer
package ingest

import (
	"compress/gzip"
	"compress/zlib"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"liquidity_stress/pkg/core/facts"
)

const (
	// SEC EDGAR API endpoints
	CompanyTickersURL = "https://www.sec.gov/files/company_tickers.json"
	CompanyFactsURL   = "https://data.sec.gov/api/xbrl/companyfacts/CIK%s.json"

	// Required User-Agent per SEC guidelines
	DefaultUserAgent = "LiquidityStress/1.0 (contact@example.com)"

	TaxonomyUSGAAP = "us-gaap"
	UnitUSD        = "USD"
)

// =============================================================================
// CONFIGURATION
// =============================================================================

// Endpoints holds the fixed URLs and identifying headers for SEC requests.
// It is passed by value and never mutated after construction.
type Endpoints struct {
	TickersURL      string
	FactsURLPattern string // fmt pattern taking the 10-digit CIK
	UserAgent       string
	AcceptEncoding  string
	FactsHost       string // sent as the Host header on facts requests; empty keeps the URL host
}

// DefaultEndpoints returns the production SEC endpoints.
func DefaultEndpoints(userAgent string) Endpoints {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return Endpoints{
		TickersURL:      CompanyTickersURL,
		FactsURLPattern: CompanyFactsURL,
		UserAgent:       userAgent,
		AcceptEncoding:  "gzip, deflate",
		FactsHost:       "data.sec.gov",
	}
}

// =============================================================================
// SEC EDGAR DATA TYPES
// =============================================================================

// tickerEntry is one record of company_tickers.json:
// { "0": {"cik_str": 320193, "ticker": "AAPL", "title": "Apple Inc."}, ... }
type tickerEntry struct {
	CIK    int64  `json:"cik_str"`
	Ticker string `json:"ticker"`
	Title  string `json:"title"`
}

// companyFactsDoc mirrors the companyfacts response down to the observation list.
type companyFactsDoc struct {
	CIK        int64                              `json:"cik"`
	EntityName string                             `json:"entityName"`
	Facts      map[string]map[string]conceptFacts `json:"facts"` // taxonomy -> tag -> concept
}

type conceptFacts struct {
	Label string                         `json:"label"`
	Units map[string][]facts.Observation `json:"units"` // unit code -> observations
}

// TickerDirectory maps an upper-case ticker to its 10-digit CIK.
type TickerDirectory map[string]string

// Resolve finds the CIK for ticker, matching case-insensitively.
func (d TickerDirectory) Resolve(ticker string) (string, error) {
	if cik, ok := d[strings.ToUpper(ticker)]; ok {
		return cik, nil
	}
	return "", &LookupError{Ticker: ticker}
}

// =============================================================================
// SEC EDGAR CLIENT
// =============================================================================

// RequestObserver is notified after every SEC request.
type RequestObserver func(step string, elapsed time.Duration, err error)

// Option configures an EDGARClient.
type Option func(*EDGARClient)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *EDGARClient) { c.httpClient = hc }
}

// WithRateLimit caps outbound requests per second. SEC fair access allows 10.
func WithRateLimit(rps float64) Option {
	return func(c *EDGARClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithObserver registers a callback for request timing.
func WithObserver(obs RequestObserver) Option {
	return func(c *EDGARClient) { c.observe = obs }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *EDGARClient) { c.logger = l }
}

// EDGARClient handles SEC EDGAR API requests.
type EDGARClient struct {
	endpoints  Endpoints
	httpClient *http.Client
	limiter    *rate.Limiter
	observe    RequestObserver
	logger     *slog.Logger
}

// NewEDGARClient creates a new SEC EDGAR API client with a bounded request timeout.
func NewEDGARClient(endpoints Endpoints, timeout time.Duration, opts ...Option) *EDGARClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &EDGARClient{
		endpoints:  endpoints,
		httpClient: &http.Client{Timeout: timeout},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(slog.String("component", "ingest"))
	return c
}

// FetchTickerDirectory downloads the full ticker -> CIK map.
func (c *EDGARClient) FetchTickerDirectory(ctx context.Context) (TickerDirectory, error) {
	const step = "ticker lookup"
	headers := map[string]string{"User-Agent": c.endpoints.UserAgent}

	var mapping map[string]tickerEntry
	if err := c.getJSON(ctx, step, c.endpoints.TickersURL, "", headers, &mapping); err != nil {
		return nil, err
	}

	// The document is an object keyed "0", "1", ... in listing order; walk it
	// in that order so the first listing of a duplicated ticker wins.
	keys := make([]string, 0, len(mapping))
	for k := range mapping {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return listingLess(keys[i], keys[j]) })

	dir := make(TickerDirectory, len(mapping))
	for _, k := range keys {
		entry := mapping[k]
		key := strings.ToUpper(entry.Ticker)
		if _, dup := dir[key]; dup {
			continue
		}
		dir[key] = PadCIK(entry.CIK)
	}
	c.logger.Debug("loaded ticker directory", slog.Int("tickers", len(dir)))
	return dir, nil
}

// ResolveCIK finds the 10-digit CIK for a ticker symbol.
// It downloads the directory on every call; callers wanting reuse should cache
// the result of FetchTickerDirectory.
func (c *EDGARClient) ResolveCIK(ctx context.Context, ticker string) (string, error) {
	dir, err := c.FetchTickerDirectory(ctx)
	if err != nil {
		return "", err
	}
	return dir.Resolve(ticker)
}

// FetchFacts retrieves the companyfacts document for a CIK and flattens the
// us-gaap USD observations into a facts.Series.
func (c *EDGARClient) FetchFacts(ctx context.Context, cik string) (*facts.Company, error) {
	const step = "company facts"
	url := fmt.Sprintf(c.endpoints.FactsURLPattern, cik)
	headers := map[string]string{
		"User-Agent":      c.endpoints.UserAgent,
		"Accept-Encoding": c.endpoints.AcceptEncoding,
	}

	var doc companyFactsDoc
	if err := c.getJSON(ctx, step, url, c.endpoints.FactsHost, headers, &doc); err != nil {
		return nil, err
	}

	series := facts.Series{}
	for tag, concept := range doc.Facts[TaxonomyUSGAAP] {
		if obs, ok := concept.Units[UnitUSD]; ok {
			series.Add(tag, obs...)
		}
	}

	return &facts.Company{
		CIK:        cik,
		EntityName: doc.EntityName,
		Facts:      series,
	}, nil
}

// getJSON performs one rate-limited GET and decodes the body into out.
func (c *EDGARClient) getJSON(ctx context.Context, step, url, host string, headers map[string]string, out interface{}) (err error) {
	start := time.Now()
	defer func() {
		if c.observe != nil {
			c.observe(step, time.Since(start), err)
		}
	}()

	if c.limiter != nil {
		if werr := c.limiter.Wait(ctx); werr != nil {
			return &NetworkError{Step: step, URL: url, Err: werr}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &NetworkError{Step: step, URL: url, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if host != "" {
		req.Host = host
	}

	c.logger.Debug("SEC request", slog.String("step", step), slog.String("url", url))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NetworkError{Step: step, URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &NetworkError{Step: step, URL: url, StatusCode: resp.StatusCode,
			Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	body, err := decodedBody(resp)
	if err != nil {
		return &NetworkError{Step: step, URL: url, Err: err}
	}
	defer body.Close()

	if err := json.NewDecoder(body).Decode(out); err != nil {
		return &NetworkError{Step: step, URL: url, Err: fmt.Errorf("failed to parse SEC response: %w", err)}
	}
	return nil
}

// decodedBody unwraps gzip or deflate bodies. The transport only does this
// itself when it chose Accept-Encoding, and SEC requires us to send it.
func decodedBody(resp *http.Response) (io.ReadCloser, error) {
	switch strings.ToLower(resp.Header.Get("Content-Encoding")) {
	case "gzip":
		zr, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip body: %w", err)
		}
		return zr, nil
	case "deflate":
		zr, err := zlib.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to open deflate body: %w", err)
		}
		return zr, nil
	default:
		return io.NopCloser(resp.Body), nil
	}
}

func listingLess(a, b string) bool {
	ai, aErr := strconv.Atoi(a)
	bi, bErr := strconv.Atoi(b)
	if aErr == nil && bErr == nil {
		return ai < bi
	}
	return a < b
}

// PadCIK formats a numeric CIK as the 10-digit string SEC URLs expect.
func PadCIK(cik int64) string {
	return fmt.Sprintf("%010d", cik)
}
