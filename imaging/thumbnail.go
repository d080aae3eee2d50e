// Package imaging turns uploaded pictures into gallery-safe square
// thumbnails and prepares raster payloads for embedding into the report.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	stddraw "image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"net/http"

	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/lvillar/medreport"
)

// Thumbnail is the result of normalizing one image.
type Thumbnail struct {
	Data   []byte
	Format string // "png" for normalized output, otherwise the sniffed source format
	Width  int
	Height int
	Square bool // false when the source could not be decoded and was passed through
}

// SquareThumbnail center-crops data to its shorter side and scales the
// square to side×side, encoded as PNG. The result is deterministic for a
// given input and side.
//
// When data cannot be decoded it is returned unchanged with Square unset;
// only empty input or a non-positive side are errors.
func SquareThumbnail(data []byte, side int) (Thumbnail, error) {
	if len(data) == 0 {
		return Thumbnail{}, fmt.Errorf("imaging: empty image: %w", medreport.ErrInvalidImage)
	}
	if side <= 0 {
		return Thumbnail{}, fmt.Errorf("imaging: side %d: %w", side, medreport.ErrInvalidImage)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return passthrough(data), nil
	}

	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return passthrough(data), nil
	}
	crop := centerSquare(b)

	dst := image.NewNRGBA(image.Rect(0, 0, side, side))
	if crop.Dx() == side && crop.Dy() == side {
		stddraw.Draw(dst, dst.Bounds(), src, crop.Min, stddraw.Src)
	} else {
		xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, crop, xdraw.Src, nil)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return Thumbnail{}, fmt.Errorf("imaging: encoding thumbnail: %w", err)
	}
	return Thumbnail{Data: buf.Bytes(), Format: "png", Width: side, Height: side, Square: true}, nil
}

// centerSquare returns the largest square centered in b. A square b is
// returned as is.
func centerSquare(b image.Rectangle) image.Rectangle {
	w, h := b.Dx(), b.Dy()
	s := min(w, h)
	x0 := b.Min.X + (w-s)/2
	y0 := b.Min.Y + (h-s)/2
	return image.Rect(x0, y0, x0+s, y0+s)
}

func passthrough(data []byte) Thumbnail {
	t := Thumbnail{Data: data, Format: Sniff(data)}
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		t.Width, t.Height = cfg.Width, cfg.Height
	}
	return t
}

// Sniff returns "png", "jpeg", "gif", "webp", "svg" or "" for data.
func Sniff(data []byte) string {
	if _, format, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		return format
	}
	switch http.DetectContentType(data) {
	case "image/png":
		return "png"
	case "image/jpeg":
		return "jpeg"
	case "image/gif":
		return "gif"
	case "image/webp":
		return "webp"
	}
	if bytes.Contains(data[:min(len(data), 512)], []byte("<svg")) {
		return "svg"
	}
	return ""
}

// Embeddable reports whether data is a raster format the PDF backend can
// place directly, and returns the backend's image type for it.
func Embeddable(data []byte) (imageType string, ok bool) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || cfg.Width == 0 || cfg.Height == 0 {
		return "", false
	}
	switch format {
	case "png":
		// the backend rejects 16-bit and interlaced PNGs
		if len(data) < 29 || data[24] > 8 || data[28] != 0 {
			return "", false
		}
		return "png", true
	case "jpeg":
		return "jpg", true
	case "gif":
		return "gif", true
	}
	return "", false
}

// ToPNG decodes any supported raster format and re-encodes it as an 8-bit
// PNG, which the PDF backend always accepts.
func ToPNG(data []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("imaging: decoding: %w", err)
	}
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	stddraw.Draw(dst, dst.Bounds(), src, b.Min, stddraw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("imaging: encoding: %w", err)
	}
	return buf.Bytes(), nil
}
