package doctpl

import (
	"time"

	"go.uber.org/zap"
)

// Option is a functional option for RenderDocument.
type Option func(*renderConfig)

type renderConfig struct {
	logger      *zap.Logger
	compress    bool
	created     time.Time
	catalogSort bool
}

// WithLogger sets the logger used for non-fatal problems such as an image
// that cannot be embedded.
func WithLogger(l *zap.Logger) Option {
	return func(c *renderConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithCompression toggles compression of page content streams.
// Compression is on by default.
func WithCompression(on bool) Option {
	return func(c *renderConfig) {
		c.compress = on
	}
}

// WithCreationDate fixes the creation and modification dates written into
// the PDF metadata.
func WithCreationDate(t time.Time) Option {
	return func(c *renderConfig) {
		c.created = t
	}
}

// WithDeterministicOutput sorts internal catalogs so that identical
// documents with a fixed creation date produce identical bytes.
func WithDeterministicOutput() Option {
	return func(c *renderConfig) {
		c.catalogSort = true
	}
}

func newRenderConfig(opts []Option) *renderConfig {
	cfg := &renderConfig{
		logger:   zap.NewNop(),
		compress: true,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
