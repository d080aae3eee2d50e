package export

import (
	"time"

	"go.uber.org/zap"

	"github.com/lvillar/medreport/doctpl"
)

// Option configures an Exporter.
type Option func(*Exporter)

// WithViewer replaces the system viewer. A nil viewer always saves to the
// downloads directory.
func WithViewer(v Viewer) Option {
	return func(e *Exporter) {
		e.viewer = v
	}
}

// WithDownloadDir sets where reports are saved when no viewer opens them.
func WithDownloadDir(dir string) Option {
	return func(e *Exporter) {
		if dir != "" {
			e.downloads = dir
		}
	}
}

// WithTempDir sets where the file handed to the viewer is written.
// The default is os.TempDir.
func WithTempDir(dir string) Option {
	return func(e *Exporter) {
		e.tempDir = dir
	}
}

// WithGrace sets how long the temporary file is kept after delivery.
func WithGrace(d time.Duration) Option {
	return func(e *Exporter) {
		if d > 0 {
			e.grace = d
		}
	}
}

// WithAfterFunc replaces the scheduler used for temporary-file cleanup.
func WithAfterFunc(f AfterFunc) Option {
	return func(e *Exporter) {
		if f != nil {
			e.after = f
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Exporter) {
		if l != nil {
			e.log = l
		}
	}
}

// WithRenderOptions passes options through to doctpl.RenderDocument.
func WithRenderOptions(opts ...doctpl.Option) Option {
	return func(e *Exporter) {
		e.renderOpts = append(e.renderOpts, opts...)
	}
}
