package imaging

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/lvillar/medreport"
	"github.com/lvillar/medreport/assets"
)

// Source is an image to normalize: inline bytes, or a location the fetcher
// understands (data URL, file path, http(s) URL).
type Source struct {
	Name string
	Data []byte
	URL  string
}

// Normalizer loads images and produces square thumbnails.
type Normalizer struct {
	fetcher assets.Fetcher
	logger  *zap.Logger
}

// NewNormalizer returns a normalizer that resolves URLs through fetcher.
// A nil fetcher only accepts inline data and data URLs.
func NewNormalizer(fetcher assets.Fetcher, logger *zap.Logger) *Normalizer {
	if fetcher == nil {
		fetcher = assets.NewRouter(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Normalizer{fetcher: fetcher, logger: logger}
}

// Load returns the raw bytes of src.
func (n *Normalizer) Load(ctx context.Context, src Source) ([]byte, error) {
	if len(src.Data) > 0 {
		return src.Data, nil
	}
	if src.URL == "" {
		return nil, &medreport.ImageProcessError{Image: src.Name, Op: "load", Err: errors.New("no data or url")}
	}
	data, err := n.fetcher.Fetch(ctx, src.URL)
	if err != nil {
		return nil, &medreport.ImageProcessError{Image: src.Name, Op: "load", Err: err}
	}
	return data, nil
}

// Thumbnail loads src and returns its side×side thumbnail. Load failures are
// *medreport.ImageProcessError. Undecodable images come back unchanged with
// Square unset.
func (n *Normalizer) Thumbnail(ctx context.Context, src Source, side int) (Thumbnail, error) {
	data, err := n.Load(ctx, src)
	if err != nil {
		return Thumbnail{}, err
	}
	if err := ctx.Err(); err != nil {
		return Thumbnail{}, &medreport.ImageProcessError{Image: src.Name, Op: "decode", Err: err}
	}
	thumb, err := SquareThumbnail(data, side)
	if err != nil {
		return Thumbnail{}, &medreport.ImageProcessError{Image: src.Name, Op: "encode", Err: err}
	}
	if !thumb.Square {
		n.logger.Warn("image could not be decoded, using original",
			zap.String("image", src.Name),
			zap.String("format", thumb.Format),
			zap.Int("bytes", len(data)),
		)
	}
	return thumb, nil
}

// Describe returns a short human-readable summary of t.
func (t Thumbnail) Describe() string {
	if t.Square {
		return fmt.Sprintf("%dx%d %s", t.Width, t.Height, t.Format)
	}
	return fmt.Sprintf("original %s (%dx%d)", t.Format, t.Width, t.Height)
}
