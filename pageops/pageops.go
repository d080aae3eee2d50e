// Package pageops decorates the pages of a document while it is being built:
// background bands imported from SVG, raster or PDF sources, text
// watermarks, and page numbers.
//
// fpdf keeps a single header and a single footer callback per document. A
// Decorator collects every decoration and installs them together: bands are
// drawn from the header callback, under the page content, and watermarks and
// page numbers from the footer callback, over it.
package pageops

import (
	"github.com/go-pdf/fpdf"
)

// Position specifies where to place an element on a page.
type Position int

const (
	Center Position = iota
	TopLeft
	TopCenter
	TopRight
	BottomLeft
	BottomCenter
	BottomRight
)

// RGBColor represents an RGB color value.
type RGBColor struct {
	R, G, B int
}

// Decorator accumulates page decorations for one document.
type Decorator struct {
	pdf   *fpdf.Fpdf
	under []func()
	over  []func()
	n     int
}

// NewDecorator returns a Decorator for pdf. Nothing is drawn until Install.
func NewDecorator(pdf *fpdf.Fpdf) *Decorator {
	return &Decorator{pdf: pdf}
}

// Install registers the header and footer callbacks. It must be called
// before the first AddPage.
func (d *Decorator) Install() {
	if len(d.under) > 0 {
		under := d.under
		d.pdf.SetHeaderFuncMode(func() {
			for _, fn := range under {
				fn()
			}
		}, true)
	}
	if len(d.over) > 0 {
		over := d.over
		d.pdf.SetFooterFunc(func() {
			for _, fn := range over {
				fn()
			}
		})
	}
}

// Len returns the number of decorations added.
func (d *Decorator) Len() int {
	return len(d.under) + len(d.over)
}

// calculatePosition returns x, y coordinates for text placement.
func calculatePosition(pos Position, pageW, pageH, textW, textH, margin float64) (x, y float64) {
	switch pos {
	case TopLeft:
		return margin, margin + textH
	case TopCenter:
		return (pageW - textW) / 2, margin + textH
	case TopRight:
		return pageW - textW - margin, margin + textH
	case BottomLeft:
		return margin, pageH - margin
	case BottomRight:
		return pageW - textW - margin, pageH - margin
	case Center:
		return (pageW - textW) / 2, pageH / 2
	default: // BottomCenter
		return (pageW - textW) / 2, pageH - margin
	}
}

// bandTop returns the y coordinate of a band of height h.
func bandTop(pos Position, pageH, h float64) float64 {
	switch pos {
	case TopLeft, TopCenter, TopRight:
		return 0
	case Center:
		return (pageH - h) / 2
	default:
		return pageH - h
	}
}
