package assets

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

// Fetcher retrieves the raw bytes at location.
type Fetcher interface {
	Fetch(ctx context.Context, location string) ([]byte, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, location string) ([]byte, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, location string) ([]byte, error) {
	return f(ctx, location)
}

// ErrUnknownEmbed is returned for embed: locations that name no built-in
// payload.
var ErrUnknownEmbed = errors.New("assets: unknown embedded asset")

// HTTPFetcher downloads assets over HTTP(S).
type HTTPFetcher struct {
	client *resty.Client
	logger *zap.Logger
}

// NewHTTPFetcher returns a fetcher with the given per-request timeout. It
// never retries: a failed download is reported to the caller as is.
func NewHTTPFetcher(timeout time.Duration, logger *zap.Logger) *HTTPFetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Accept", "*/*")
	return &HTTPFetcher{client: client, logger: logger}
}

// Fetch downloads location.
func (h *HTTPFetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	start := time.Now()
	resp, err := h.client.R().SetContext(ctx).Get(location)
	if err != nil {
		h.logger.Warn("asset download failed", zap.String("url", location), zap.Error(err))
		return nil, fmt.Errorf("assets: downloading %s: %w", location, err)
	}
	if resp.IsError() {
		h.logger.Warn("asset download rejected",
			zap.String("url", location),
			zap.Int("status_code", resp.StatusCode()),
		)
		return nil, fmt.Errorf("assets: downloading %s: %s", location, resp.Status())
	}
	h.logger.Debug("asset downloaded",
		zap.String("url", location),
		zap.Int("bytes", len(resp.Body())),
		zap.Duration("elapsed", time.Since(start)),
	)
	return resp.Body(), nil
}

// Router dispatches a location to the right fetcher by its scheme:
//
//	embed:<name>        built-in payloads (go-regular, go-bold, header.svg, footer.svg)
//	data:<mime>;base64, inline data URLs
//	http://, https://   HTTP
//	file://<path>, other local files
type Router struct {
	HTTP Fetcher
}

// NewRouter returns a router whose HTTP downloads go through h.
func NewRouter(h Fetcher) *Router {
	return &Router{HTTP: h}
}

// Fetch implements Fetcher.
func (r *Router) Fetch(ctx context.Context, location string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch {
	case location == "":
		return nil, errors.New("assets: empty location")
	case strings.HasPrefix(location, "embed:"):
		return fetchEmbedded(strings.TrimPrefix(location, "embed:"))
	case strings.HasPrefix(location, "data:"):
		return DecodeDataURL(location)
	case strings.HasPrefix(location, "http://"), strings.HasPrefix(location, "https://"):
		if r.HTTP == nil {
			return nil, fmt.Errorf("assets: no HTTP fetcher for %s", location)
		}
		return r.HTTP.Fetch(ctx, location)
	case strings.HasPrefix(location, "file://"):
		u, err := url.Parse(location)
		if err != nil {
			return nil, fmt.Errorf("assets: parsing %s: %w", location, err)
		}
		return readFile(u.Path)
	default:
		return readFile(location)
	}
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("assets: reading %s: %w", path, err)
	}
	return data, nil
}

func fetchEmbedded(name string) ([]byte, error) {
	switch name {
	case "go-regular":
		return goregular.TTF, nil
	case "go-bold":
		return gobold.TTF, nil
	}
	data, err := fs.ReadFile(static, "static/"+name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEmbed, name)
	}
	return data, nil
}

// DecodeDataURL returns the payload of a data URL. Both base64 and
// percent-encoded payloads are accepted.
func DecodeDataURL(location string) ([]byte, error) {
	rest, ok := strings.CutPrefix(location, "data:")
	if !ok {
		return nil, fmt.Errorf("assets: not a data URL")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, fmt.Errorf("assets: malformed data URL")
	}
	if strings.HasSuffix(meta, ";base64") {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("assets: decoding data URL: %w", err)
		}
		return data, nil
	}
	text, err := url.PathUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("assets: decoding data URL: %w", err)
	}
	return []byte(text), nil
}
