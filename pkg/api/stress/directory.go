package stress

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"liquidity_stress/pkg/core/ingest"
)

const (
	directoryKey         = "company_tickers"
	directoryLoadTimeout = time.Minute
)

// DirectoryFetcher downloads the full SEC ticker directory.
type DirectoryFetcher interface {
	FetchTickerDirectory(ctx context.Context) (ingest.TickerDirectory, error)
}

// CachedResolver resolves tickers against a cached copy of the SEC directory.
// Concurrent misses share one download.
type CachedResolver struct {
	fetcher DirectoryFetcher
	cache   *cache.Cache
	group   singleflight.Group
	metrics *Metrics
	logger  *slog.Logger
}

// NewCachedResolver keeps the directory for ttl. metrics may be nil.
func NewCachedResolver(fetcher DirectoryFetcher, ttl time.Duration, metrics *Metrics, logger *slog.Logger) *CachedResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedResolver{
		fetcher: fetcher,
		cache:   cache.New(ttl, 2*ttl),
		metrics: metrics,
		logger:  logger.With(slog.String("component", "ticker_cache")),
	}
}

// ResolveCIK satisfies fundamentals.IdentifierResolver.
func (c *CachedResolver) ResolveCIK(ctx context.Context, ticker string) (string, error) {
	dir, err := c.directory(ctx)
	if err != nil {
		return "", err
	}
	return dir.Resolve(strings.TrimSpace(ticker))
}

func (c *CachedResolver) directory(ctx context.Context) (ingest.TickerDirectory, error) {
	if v, ok := c.cache.Get(directoryKey); ok {
		c.observe(true)
		return v.(ingest.TickerDirectory), nil
	}
	c.observe(false)

	// The shared download must not die with whichever caller started it.
	ch := c.group.DoChan(directoryKey, func() (interface{}, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), directoryLoadTimeout)
		defer cancel()
		dir, err := c.fetcher.FetchTickerDirectory(loadCtx)
		if err != nil {
			return nil, err
		}
		c.cache.Set(directoryKey, dir, cache.DefaultExpiration)
		c.logger.Info("ticker directory refreshed", slog.Int("entries", len(dir)))
		return dir, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			c.logger.Debug("ticker directory load shared")
		}
		return res.Val.(ingest.TickerDirectory), nil
	}
}

func (c *CachedResolver) observe(hit bool) {
	if c.metrics != nil {
		c.metrics.observeCache(hit)
	}
}
