package assets_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lvillar/medreport"
	"github.com/lvillar/medreport/assets"
)

// countingFetcher records how often each location was fetched.
type countingFetcher struct {
	mu     sync.Mutex
	calls  map[string]int
	delay  time.Duration
	failAt map[string]error
}

func newCountingFetcher(delay time.Duration) *countingFetcher {
	return &countingFetcher{calls: map[string]int{}, delay: delay, failAt: map[string]error{}}
}

func (f *countingFetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	f.mu.Lock()
	f.calls[location]++
	err := f.failAt[location]
	f.mu.Unlock()

	select {
	case <-time.After(f.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}
	return []byte("payload:" + location), nil
}

func (f *countingFetcher) count(location string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[location]
}

func testSources() []assets.Source {
	return []assets.Source{
		{Name: assets.FontRegular, Location: "mem://regular", Required: true},
		{Name: assets.FontBold, Location: "mem://bold", Required: true},
		{Name: assets.HeaderBackground, Location: "mem://header"},
		{Name: assets.FooterBackground, Location: "mem://footer"},
		{Name: assets.TopBanner, Location: "mem://top"},
		{Name: assets.BottomBanner},
	}
}

func TestEnsureReadyConcurrentFetchesOnce(t *testing.T) {
	fetcher := newCountingFetcher(20 * time.Millisecond)
	cache := assets.NewCache(fetcher, assets.WithSources(testSources()), assets.WithLogger(zap.NewNop()))

	const callers = 8
	var wg sync.WaitGroup
	start := make(chan struct{})
	bundles := make([]*assets.Bundle, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			bundles[i], errs[i] = cache.EnsureReady(context.Background())
		}(i)
	}
	close(start)
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Same(t, bundles[0], bundles[i])
	}
	for _, src := range testSources() {
		if src.Location == "" {
			continue
		}
		assert.Equal(t, 1, fetcher.count(src.Location), src.Location)
	}
	assert.True(t, cache.Ready())

	// later calls are served from memory
	b, err := cache.EnsureReady(context.Background())
	require.NoError(t, err)
	assert.Same(t, bundles[0], b)
	assert.Equal(t, 1, fetcher.count("mem://regular"))

	data, ok := b.Get(assets.FontBold)
	require.True(t, ok)
	assert.Equal(t, "payload:mem://bold", string(data))
	assert.False(t, b.Has(assets.BottomBanner))
}

func TestGetConcurrentSingleFlight(t *testing.T) {
	fetcher := newCountingFetcher(20 * time.Millisecond)
	cache := assets.NewCache(fetcher, assets.WithSources(testSources()))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			data, err := cache.Get(context.Background(), assets.HeaderBackground)
			assert.NoError(t, err)
			assert.Equal(t, "payload:mem://header", string(data))
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, fetcher.count("mem://header"))
}

func TestEnsureReadyOptionalFailureDegrades(t *testing.T) {
	fetcher := newCountingFetcher(0)
	fetcher.failAt["mem://header"] = errors.New("404")
	fetcher.failAt["mem://top"] = errors.New("timeout")
	cache := assets.NewCache(fetcher, assets.WithSources(testSources()))

	b, err := cache.EnsureReady(context.Background())
	require.NoError(t, err)
	assert.True(t, b.Has(assets.FontRegular))
	assert.True(t, b.Has(assets.FooterBackground))
	assert.False(t, b.Has(assets.HeaderBackground))
	assert.False(t, b.Has(assets.TopBanner))
	assert.Equal(t, []assets.Name{assets.FooterBackground, assets.FontBold, assets.FontRegular}, b.Names())
}

func TestEnsureReadyRequiredFailure(t *testing.T) {
	fetcher := newCountingFetcher(0)
	fetcher.failAt["mem://bold"] = errors.New("connection refused")
	cache := assets.NewCache(fetcher, assets.WithSources(testSources()))

	_, err := cache.EnsureReady(context.Background())
	require.Error(t, err)

	var loadErr *medreport.AssetLoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, string(assets.FontBold), loadErr.Asset)
	assert.Contains(t, err.Error(), "font-bold")
	assert.False(t, cache.Ready())

	// the failure is not memoized: the next attempt fetches again
	delete(fetcher.failAt, "mem://bold")
	b, err := cache.EnsureReady(context.Background())
	require.NoError(t, err)
	assert.True(t, b.Has(assets.FontBold))
	assert.Equal(t, 2, fetcher.count("mem://bold"))
}

func TestEnsureReadyRequiredWithoutLocation(t *testing.T) {
	sources := testSources()
	sources[0].Location = ""
	cache := assets.NewCache(newCountingFetcher(0), assets.WithSources(sources))

	_, err := cache.EnsureReady(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, medreport.ErrMissingAsset))
}

func TestGetUnknownAsset(t *testing.T) {
	cache := assets.NewCache(newCountingFetcher(0), assets.WithSources(testSources()))
	_, err := cache.Get(context.Background(), assets.Name("logo"))
	assert.Error(t, err)
}

func TestSharedIsSingleton(t *testing.T) {
	assert.Same(t, assets.Shared(), assets.Shared())
	assert.Len(t, assets.Shared().Sources(), len(assets.DefaultSources()))
}

func ExampleCache_EnsureReady() {
	cache := assets.NewCache(assets.NewRouter(nil))
	bundle, err := cache.EnsureReady(context.Background())
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(bundle.Names())
	// Output: [background-footer background-header font-bold font-regular]
}
