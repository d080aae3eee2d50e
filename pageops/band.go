package pageops

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
	"github.com/go-pdf/fpdf/contrib/gofpdi"

	"github.com/lvillar/medreport"
	"github.com/lvillar/medreport/imaging"
)

// Band is a full-width background graphic repeated on every page, such as a
// letterhead strip at the top or a decorative footer at the bottom.
//
// Data may be a basic SVG (path elements only), a raster image, or a PDF
// whose first page is imported as a template.
type Band struct {
	Name     string
	Data     []byte
	Position Position // Top* anchors at the page top, Bottom* at the bottom
	Height   float64  // drawn height in document units
	Stroke   RGBColor // stroke color for SVG paths
}

// BandKind classifies band data.
func BandKind(data []byte) string {
	switch {
	case bytes.HasPrefix(data, []byte("%PDF")):
		return "pdf"
	case imaging.Sniff(data) == "svg":
		return "svg"
	case imaging.Sniff(data) != "":
		return "raster"
	}
	return ""
}

// AddBackground prepares b and schedules it to be drawn under the content of
// every page. Invalid data is reported here, before any page exists, so a
// bad background never poisons the document.
func (d *Decorator) AddBackground(b Band) error {
	if len(b.Data) == 0 {
		return fmt.Errorf("pageops: band %s: %w", b.Name, medreport.ErrMissingAsset)
	}
	if b.Height <= 0 {
		return fmt.Errorf("pageops: band %s: height must be > 0", b.Name)
	}
	var draw func(x, y, w, h float64)
	var err error
	switch BandKind(b.Data) {
	case "svg":
		draw, err = d.svgBand(b)
	case "raster":
		draw, err = d.rasterBand(b)
	case "pdf":
		draw, err = d.pdfBand(b)
	default:
		err = fmt.Errorf("unrecognized format: %w", medreport.ErrInvalidImage)
	}
	if err != nil {
		return fmt.Errorf("pageops: band %s: %w", b.Name, err)
	}
	d.under = append(d.under, func() {
		pageW, pageH := d.pdf.GetPageSize()
		draw(0, bandTop(b.Position, pageH, b.Height), pageW, b.Height)
	})
	return nil
}

func (d *Decorator) svgBand(b Band) (func(x, y, w, h float64), error) {
	sig, err := fpdf.SVGBasicParse(b.Data)
	if err != nil {
		return nil, err
	}
	if sig.Wd <= 0 || sig.Ht <= 0 {
		return nil, errors.New("svg has no width or height")
	}
	return func(x, y, w, h float64) {
		scale := h / sig.Ht
		if sw := w / sig.Wd; sw < scale {
			scale = sw
		}
		d.pdf.SetDrawColor(b.Stroke.R, b.Stroke.G, b.Stroke.B)
		d.pdf.SetLineWidth(1)
		d.pdf.SetXY(x+(w-sig.Wd*scale)/2, y)
		d.pdf.SVGBasicWrite(&sig, scale)
	}, nil
}

func (d *Decorator) rasterBand(b Band) (func(x, y, w, h float64), error) {
	data := b.Data
	typ, ok := imaging.Embeddable(data)
	if !ok {
		flat, err := imaging.ToPNG(data)
		if err != nil {
			return nil, err
		}
		data, typ = flat, "png"
	}
	d.n++
	name := fmt.Sprintf("pageops-band-%d-%s", d.n, b.Name)
	d.pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: typ}, bytes.NewReader(data))
	if d.pdf.Err() {
		err := d.pdf.Error()
		d.pdf.ClearError()
		return nil, err
	}
	return func(x, y, w, h float64) {
		d.pdf.ImageOptions(name, x, y, w, h, false, fpdf.ImageOptions{ImageType: typ}, 0, "")
	}, nil
}

func (d *Decorator) pdfBand(b Band) (draw func(x, y, w, h float64), err error) {
	imp := gofpdi.NewImporter()
	defer func() {
		if r := recover(); r != nil {
			draw, err = nil, fmt.Errorf("importing page: %v", r)
		}
	}()
	rs := io.ReadSeeker(bytes.NewReader(b.Data))
	tpl := imp.ImportPageFromStream(d.pdf, &rs, 1, "/MediaBox")
	if d.pdf.Err() {
		err := d.pdf.Error()
		d.pdf.ClearError()
		return nil, err
	}
	return func(x, y, w, h float64) {
		imp.UseImportedTemplate(d.pdf, tpl, x, y, w, h)
	}, nil
}
