package stress

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"liquidity_stress/pkg/core/ingest"
)

type countingFetcher struct {
	calls   atomic.Int32
	release chan struct{}
	err     error
}

func (f *countingFetcher) FetchTickerDirectory(ctx context.Context) (ingest.TickerDirectory, error) {
	f.calls.Add(1)
	if f.release != nil {
		<-f.release
	}
	if f.err != nil {
		return nil, f.err
	}
	return ingest.TickerDirectory{"JPM": "0000019617", "BRK-B": "0001067983"}, nil
}

func TestCachedResolver_CachesDirectory(t *testing.T) {
	f := &countingFetcher{}
	metrics := NewMetrics()
	r := NewCachedResolver(f, time.Hour, metrics, nil)

	cik, err := r.ResolveCIK(context.Background(), "jpm")
	require.NoError(t, err)
	assert.Equal(t, "0000019617", cik)

	cik, err = r.ResolveCIK(context.Background(), " brk-b ")
	require.NoError(t, err)
	assert.Equal(t, "0001067983", cik)
	assert.Equal(t, int32(1), f.calls.Load())

	_, err = r.ResolveCIK(context.Background(), "ZZZZ")
	assert.True(t, errors.Is(err, ingest.ErrNotFound))
	assert.Equal(t, int32(1), f.calls.Load(), "misses against a loaded directory do not refetch")
}

func TestCachedResolver_ReloadsAfterTTL(t *testing.T) {
	f := &countingFetcher{}
	r := NewCachedResolver(f, 20*time.Millisecond, nil, nil)

	_, err := r.ResolveCIK(context.Background(), "JPM")
	require.NoError(t, err)
	time.Sleep(60 * time.Millisecond)
	_, err = r.ResolveCIK(context.Background(), "JPM")
	require.NoError(t, err)
	assert.Equal(t, int32(2), f.calls.Load())
}

func TestCachedResolver_CancelledCallerDoesNotFailOthers(t *testing.T) {
	f := &countingFetcher{release: make(chan struct{})}
	r := NewCachedResolver(f, time.Hour, nil, nil)

	first, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	firstErr := make(chan error, 1)
	go func() {
		_, err := r.ResolveCIK(first, "JPM")
		firstErr <- err
	}()

	// wait for the first caller's load to start
	require.Eventually(t, func() bool { return f.calls.Load() == 1 }, time.Second, time.Millisecond)

	type result struct {
		cik string
		err error
	}
	second := make(chan result, 1)
	go func() {
		cik, err := r.ResolveCIK(context.Background(), "JPM")
		second <- result{cik, err}
	}()

	assert.ErrorIs(t, <-firstErr, context.DeadlineExceeded)
	close(f.release)

	got := <-second
	require.NoError(t, got.err)
	assert.Equal(t, "0000019617", got.cik)
	assert.Equal(t, int32(1), f.calls.Load())
}

func TestCachedResolver_CollapsesConcurrentMisses(t *testing.T) {
	f := &countingFetcher{release: make(chan struct{})}
	r := NewCachedResolver(f, time.Hour, nil, nil)

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.ResolveCIK(context.Background(), "JPM")
			errs <- err
		}()
	}

	// let the goroutines pile up on the in-flight load
	time.Sleep(50 * time.Millisecond)
	close(f.release)
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), f.calls.Load())
}

func TestCachedResolver_ErrorsAreNotCached(t *testing.T) {
	f := &countingFetcher{err: &ingest.NetworkError{Step: "ticker lookup", StatusCode: 503}}
	r := NewCachedResolver(f, time.Hour, nil, nil)

	_, err := r.ResolveCIK(context.Background(), "JPM")
	var netErr *ingest.NetworkError
	require.True(t, errors.As(err, &netErr))

	f.err = nil
	cik, err := r.ResolveCIK(context.Background(), "JPM")
	require.NoError(t, err)
	assert.Equal(t, "0000019617", cik)
	assert.Equal(t, int32(2), f.calls.Load())
}
