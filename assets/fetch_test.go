package assets_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/lvillar/medreport/assets"
)

func TestRouterEmbedded(t *testing.T) {
	r := assets.NewRouter(nil)

	font, err := r.Fetch(context.Background(), "embed:go-regular")
	require.NoError(t, err)
	assert.Equal(t, goregular.TTF, font)

	svg, err := r.Fetch(context.Background(), "embed:header.svg")
	require.NoError(t, err)
	assert.Contains(t, string(svg), "<svg")

	_, err = r.Fetch(context.Background(), "embed:nope.svg")
	assert.True(t, errors.Is(err, assets.ErrUnknownEmbed))
}

func TestRouterDataURLAndFile(t *testing.T) {
	r := assets.NewRouter(nil)

	data, err := r.Fetch(context.Background(), "data:text/plain;base64,aGVsbG8=")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	data, err = r.Fetch(context.Background(), "data:image/svg+xml,%3Csvg%3E")
	require.NoError(t, err)
	assert.Equal(t, "<svg>", string(data))

	path := filepath.Join(t.TempDir(), "banner.png")
	require.NoError(t, os.WriteFile(path, []byte("png"), 0o644))

	data, err = r.Fetch(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))

	data, err = r.Fetch(context.Background(), "file://"+path)
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))

	_, err = r.Fetch(context.Background(), filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)
}

func TestHTTPFetcherSingleFlightThroughCache(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		time.Sleep(20 * time.Millisecond)
		switch r.URL.Path {
		case "/missing.svg":
			http.NotFound(w, r)
		default:
			w.Write([]byte("asset " + r.URL.Path))
		}
	}))
	defer srv.Close()

	router := assets.NewRouter(assets.NewHTTPFetcher(5*time.Second, zap.NewNop()))
	cache := assets.NewCache(router, assets.WithSources([]assets.Source{
		{Name: assets.FontRegular, Location: srv.URL + "/regular.ttf", Required: true},
		{Name: assets.FontBold, Location: srv.URL + "/bold.ttf", Required: true},
		{Name: assets.HeaderBackground, Location: srv.URL + "/missing.svg"},
	}))

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b, err := cache.EnsureReady(context.Background())
			assert.NoError(t, err)
			assert.False(t, b.Has(assets.HeaderBackground))
		}()
	}
	wg.Wait()

	// one request per asset, no retry of the 404
	assert.Equal(t, int32(3), hits.Load())

	b, err := cache.EnsureReady(context.Background())
	require.NoError(t, err)
	data, _ := b.Get(assets.FontRegular)
	assert.Equal(t, "asset /regular.ttf", string(data))
}

func TestHTTPFetcherStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := assets.NewHTTPFetcher(time.Second, nil).Fetch(context.Background(), srv.URL+"/x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}
