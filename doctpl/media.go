package doctpl

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/boombuler/barcode/qr"
	"github.com/go-pdf/fpdf"
	"github.com/go-pdf/fpdf/contrib/barcode"
	"go.uber.org/zap"

	"github.com/lvillar/medreport"
	"github.com/lvillar/medreport/imaging"
)

// registerImage embeds img once and returns the key it is drawn by. Images
// the PDF backend cannot take as they are (16-bit or interlaced PNG, WebP,
// BMP, TIFF) are re-encoded as PNG first; undecodable ones are skipped.
func (r *renderer) registerImage(img *Image) (string, bool) {
	key := img.Name
	if key == "" {
		r.seq++
		key = fmt.Sprintf("image-%d", r.seq)
	}
	if ok, seen := r.images[key]; seen {
		return key, ok
	}
	ok := r.embed(key, img.Data)
	r.images[key] = ok
	return key, ok
}

func (r *renderer) embed(key string, data []byte) bool {
	if len(data) == 0 {
		r.log.Warn("image skipped", zap.String("image", key), zap.Error(medreport.ErrInvalidImage))
		return false
	}
	typ, ok := imaging.Embeddable(data)
	if !ok {
		flat, err := imaging.ToPNG(data)
		if err != nil {
			r.log.Warn("image skipped", zap.String("image", key), zap.Error(err))
			return false
		}
		data, typ = flat, "png"
	}
	r.pdf.RegisterImageOptionsReader(key, fpdf.ImageOptions{ImageType: typ}, bytes.NewReader(data))
	if r.pdf.Err() {
		err := r.pdf.Error()
		r.pdf.ClearError()
		r.log.Warn("image skipped", zap.String("image", key), zap.Error(err))
		return false
	}
	return true
}

var errUnknownBarcode = errors.New("unknown barcode kind")

// barcodeSize returns the drawn size of bc, with defaults per symbology.
func barcodeSize(bc *Barcode) (w, h float64) {
	w, h = bc.Width, bc.Height
	switch strings.ToLower(bc.Kind) {
	case BarcodePDF417:
		if w == 0 {
			w = 240
		}
		if h == 0 {
			h = 80
		}
	case BarcodeCode128:
		if w == 0 {
			w = 240
		}
		if h == 0 {
			h = 50
		}
	default:
		if w == 0 {
			w = 80
		}
		if h == 0 {
			h = w
		}
	}
	return w, h
}

func (r *renderer) registerBarcode(bc *Barcode) (string, error) {
	var key string
	switch strings.ToLower(bc.Kind) {
	case BarcodeQR, "":
		key = barcode.RegisterQR(r.pdf, bc.Value, qr.M, qr.Auto)
	case BarcodePDF417:
		key = barcode.RegisterPdf417(r.pdf, bc.Value, 5, 2)
	case BarcodeCode128:
		key = barcode.RegisterCode128(r.pdf, bc.Value)
	default:
		return "", fmt.Errorf("%w %q", errUnknownBarcode, bc.Kind)
	}
	if r.pdf.Err() {
		err := r.pdf.Error()
		r.pdf.ClearError()
		return "", err
	}
	if key == "" {
		return "", errors.New("barcode was not registered")
	}
	return key, nil
}

// renderBarcode draws a barcode element. Values the symbology cannot encode
// are logged and skipped.
func (r *renderer) renderBarcode(elem Element, b box) error {
	bc := elem.Barcode
	if bc == nil {
		return fmt.Errorf("barcode element requires 'barcode' field")
	}
	if strings.TrimSpace(bc.Value) == "" {
		return nil
	}
	key, err := r.registerBarcode(bc)
	if err != nil {
		if errors.Is(err, errUnknownBarcode) {
			return err
		}
		r.log.Warn("barcode skipped", zap.String("kind", bc.Kind), zap.Error(err))
		return nil
	}
	w, h := barcodeSize(bc)
	if w > b.w {
		h = h * b.w / w
		w = b.w
	}
	r.advance(elem.SpaceBefore)
	r.ensure(h)
	x := alignedX(elem.Align, b, w)
	y := r.pdf.GetY()
	barcode.Barcode(r.pdf, key, x, y, w, h, false)
	if r.pdf.Err() {
		err := r.pdf.Error()
		r.pdf.ClearError()
		r.log.Warn("barcode skipped", zap.String("kind", bc.Kind), zap.Error(err))
		return nil
	}
	r.pdf.SetY(y + h)
	r.advance(elem.SpaceAfter)
	return nil
}
