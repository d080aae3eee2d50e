package compose

import (
	"time"

	"go.uber.org/zap"

	"github.com/lvillar/medreport/layout"
)

// Option configures a Composer.
type Option func(*Composer)

// WithLogger sets the logger used for skipped images and missing optional
// assets.
func WithLogger(l *zap.Logger) Option {
	return func(c *Composer) {
		if l != nil {
			c.log = l
		}
	}
}

// WithThumbnailSide sets the pixel side of normalized gallery images.
func WithThumbnailSide(px int) Option {
	return func(c *Composer) {
		if px > 0 {
			c.thumbSide = px
		}
	}
}

// WithGallerySide sets the drawn side of gallery images, in points.
func WithGallerySide(pt float64) Option {
	return func(c *Composer) {
		if pt > 0 {
			c.gallerySide = pt
		}
	}
}

// WithGalleryMax sets how many uploaded images the gallery shows.
func WithGalleryMax(n int) Option {
	return func(c *Composer) {
		if n > 0 {
			c.galleryMax = n
		}
	}
}

// WithParallelism bounds how many images are normalized at once.
func WithParallelism(n int) Option {
	return func(c *Composer) {
		if n > 0 {
			c.parallel = n
		}
	}
}

// WithTitle sets the report heading and document title.
func WithTitle(title string) Option {
	return func(c *Composer) {
		if title != "" {
			c.title = title
		}
	}
}

// WithAbout sets the title and body of the about box.
func WithAbout(title, text string) Option {
	return func(c *Composer) {
		if title != "" {
			c.aboutTitle = title
		}
		if text != "" {
			c.aboutText = text
		}
	}
}

// WithClinic sets the clinic name recorded as the document author.
func WithClinic(name string) Option {
	return func(c *Composer) {
		c.clinic = name
	}
}

// WithReference selects the symbology of the reference code: "qr",
// "pdf417", or "none" to leave it out.
func WithReference(kind string) Option {
	return func(c *Composer) {
		c.reference = kind
	}
}

// WithWatermark draws text diagonally across every page. Empty disables it.
func WithWatermark(text string) Option {
	return func(c *Composer) {
		c.watermark = text
	}
}

// WithClock sets the clock used for the document creation date.
func WithClock(now func() time.Time) Option {
	return func(c *Composer) {
		if now != nil {
			c.now = now
		}
	}
}

func defaults() Composer {
	return Composer{
		log:         zap.NewNop(),
		thumbSide:   layout.ThumbnailSide,
		gallerySide: layout.GallerySide,
		galleryMax:  layout.GalleryMax,
		parallel:    4,
		title:       layout.ReportTitle,
		aboutTitle:  layout.AboutTitle,
		aboutText:   layout.AboutText,
		reference:   "qr",
		now:         time.Now,
	}
}
