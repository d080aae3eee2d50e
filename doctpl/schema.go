// Package doctpl provides a JSON-based document template DSL for generating PDFs.
//
// A Document is a fully resolved, declarative description of a PDF: page
// geometry, embedded fonts, named text styles, page decorations and a flow
// of elements. Images and fonts travel inside the document as bytes, so a
// Document can be serialized, stored, and rendered later without touching
// the network or the file system.
//
// Example JSON:
//
//	{
//	  "title": "My Document",
//	  "pageSize": "A4",
//	  "styles": {"boxTitle": {"font": {"style": "B", "size": 11}}},
//	  "pages": [{
//	    "elements": [
//	      {"type": "heading", "text": "Hello World", "level": 1},
//	      {"type": "table", "layout": "softBox", "columns": [{}, {}],
//	       "rows": [[{"text": "Totals", "colspan": 2, "style": "boxTitle"}],
//	                ["Subtotal", "100 USD"]]}
//	    ]
//	  }]
//	}
package doctpl

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Element types.
const (
	TypeText      = "text"
	TypeParagraph = "paragraph"
	TypeHeading   = "heading"
	TypeList      = "list"
	TypeTable     = "table"
	TypeImage     = "image"
	TypeStack     = "stack"
	TypeColumns   = "columns"
	TypeLine      = "line"
	TypeHR        = "hr"
	TypeSpacer    = "spacer"
	TypePageBreak = "pagebreak"
	TypeBarcode   = "barcode"
	TypeEmpty     = "empty"
)

// Table layouts.
const (
	LayoutGrid      = ""          // full grid with a colored header row
	LayoutSoftBox   = "softBox"   // light grid, heavier rule under the first row, pale fills
	LayoutNoBorders = "noBorders" // no grid, no fills
)

// Document is the top-level template that describes an entire PDF.
type Document struct {
	Title       string               `json:"title,omitempty"`
	Author      string               `json:"author,omitempty"`
	Subject     string               `json:"subject,omitempty"`
	Creator     string               `json:"creator,omitempty"`
	Keywords    string               `json:"keywords,omitempty"`
	Created     time.Time            `json:"created,omitempty"`  // creation date written to the metadata
	PageSize    string               `json:"pageSize,omitempty"` // A4, Letter, Legal (default: A4)
	Unit        string               `json:"unit,omitempty"`     // mm, cm, in, pt (default: pt)
	Margin      *Margin              `json:"margin,omitempty"`
	Font        *Font                `json:"font,omitempty"`  // default font for the document
	Fonts       []FontFace           `json:"fonts,omitempty"` // TrueType faces embedded in the PDF
	Styles      map[string]TextStyle `json:"styles,omitempty"`
	Background  []Layer              `json:"background,omitempty"` // drawn under every page
	PageNumbers *PageNumbers         `json:"pageNumbers,omitempty"`
	Watermark   *Watermark           `json:"watermark,omitempty"`
	Pages       []Page               `json:"pages"`
}

// Margin defines page margins.
type Margin struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// Font specifies a font face.
type Font struct {
	Family string  `json:"family,omitempty"` // Helvetica, Courier, Times, or an embedded family
	Style  string  `json:"style,omitempty"`  // "" (regular), "B" (bold), "I" (italic), "BI"
	Size   float64 `json:"size,omitempty"`
}

// FontFace is a TrueType font embedded into the document.
type FontFace struct {
	Family string `json:"family"`
	Style  string `json:"style,omitempty"`
	Data   []byte `json:"data"`
}

// Color is an RGB color. In JSON it is either {"r":..,"g":..,"b":..} or a
// "#rrggbb" string.
type Color struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// Hex parses "#rrggbb" or "#rgb".
func Hex(s string) (Color, error) {
	h := strings.TrimPrefix(s, "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	var c Color
	if len(h) != 6 {
		return c, fmt.Errorf("doctpl: invalid color %q", s)
	}
	if _, err := fmt.Sscanf(h, "%02x%02x%02x", &c.R, &c.G, &c.B); err != nil {
		return c, fmt.Errorf("doctpl: invalid color %q", s)
	}
	return c, nil
}

// MustHex is like Hex but panics on invalid input. It is meant for
// package-level style tables.
func MustHex(s string) *Color {
	c, err := Hex(s)
	if err != nil {
		panic(err)
	}
	return &c
}

func (c *Color) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		parsed, err := Hex(s)
		if err != nil {
			return err
		}
		*c = parsed
		return nil
	}
	type plain Color
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*c = Color(p)
	return nil
}

// TextStyle is a named style referenced by elements and table cells.
type TextStyle struct {
	Font  *Font  `json:"font,omitempty"`
	Color *Color `json:"color,omitempty"`
	Fill  *Color `json:"fill,omitempty"` // cell background when used in tables
}

// Layer is a full-width background graphic (SVG, raster or PDF) drawn
// under the content of every page.
type Layer struct {
	Name     string  `json:"name"`
	Data     []byte  `json:"data"`
	Position string  `json:"position"` // "top" or "bottom"
	Height   float64 `json:"height"`
	Stroke   *Color  `json:"stroke,omitempty"`
}

// PageNumbers adds a page number to every page.
type PageNumbers struct {
	Format string  `json:"format,omitempty"` // supports {page} and {pages} placeholders
	Align  string  `json:"align,omitempty"`  // L, C, R (default: C)
	Size   float64 `json:"size,omitempty"`
	Color  *Color  `json:"color,omitempty"`
	Margin float64 `json:"margin,omitempty"` // distance from the bottom edge
}

// Watermark draws diagonal text over every page.
type Watermark struct {
	Text    string  `json:"text"`
	Opacity float64 `json:"opacity,omitempty"`
	Size    float64 `json:"size,omitempty"`
	Color   *Color  `json:"color,omitempty"`
}

// Page represents a single page of the document. Content that overflows it
// continues on new pages.
type Page struct {
	Size     string    `json:"size,omitempty"` // override document page size
	Elements []Element `json:"elements"`
}

// Element is a single visual element within a page.
// The Type field determines which other fields are relevant.
type Element struct {
	Type string `json:"type"`

	// Text content (text, paragraph, heading)
	Text  string `json:"text,omitempty"`
	Level int    `json:"level,omitempty"` // heading level 1-6
	Align string `json:"align,omitempty"` // L, C, R (default: L)
	Style string `json:"style,omitempty"` // name of a document style

	// Font override for this element
	Font  *Font  `json:"font,omitempty"`
	Color *Color `json:"color,omitempty"`

	// Vertical spacing around the element
	SpaceBefore float64 `json:"spaceBefore,omitempty"`
	SpaceAfter  float64 `json:"spaceAfter,omitempty"`

	// Table
	Layout      string        `json:"layout,omitempty"`
	Columns     []TableColumn `json:"columns,omitempty"`
	Rows        [][]Cell      `json:"rows,omitempty"`
	HeaderRows  int           `json:"headerRows,omitempty"` // repeated after page breaks
	HeaderStyle *CellStyle    `json:"headerStyle,omitempty"`
	CellStyle   *CellStyle    `json:"cellStyle,omitempty"`

	// Image
	Image *Image `json:"image,omitempty"`

	// Stack and columns
	Children    []Element `json:"children,omitempty"`
	Unbreakable bool      `json:"unbreakable,omitempty"` // keep the stack on one page
	Gap         float64   `json:"gap,omitempty"`         // space between columns

	// Line / HR / Spacer
	Width        float64 `json:"width,omitempty"`
	LineWidth    float64 `json:"lineWidth,omitempty"`
	SpacerHeight float64 `json:"spacerHeight,omitempty"`

	// List
	Items     []string `json:"items,omitempty"`
	Ordered   bool     `json:"ordered,omitempty"`
	BulletStr string   `json:"bullet,omitempty"` // custom bullet character

	// Barcode
	Barcode *Barcode `json:"barcode,omitempty"`
}

// IsEmpty reports whether e draws nothing.
func (e Element) IsEmpty() bool {
	return e.Type == TypeEmpty
}

// TableColumn defines a column in a table element.
type TableColumn struct {
	Header string  `json:"header,omitempty"`
	Width  float64 `json:"width,omitempty"` // 0 = share the remaining width
	Align  string  `json:"align,omitempty"` // L, C, R
}

// CellStyle defines styling for table cells.
type CellStyle struct {
	FillColor *Color `json:"fillColor,omitempty"`
	TextColor *Color `json:"textColor,omitempty"`
	Font      *Font  `json:"font,omitempty"`
}

// Cell is one table cell: plain text, a label/value pair, or an image.
// A bare JSON string decodes as a text cell.
type Cell struct {
	Text       string `json:"text,omitempty"`
	Label      string `json:"label,omitempty"`
	Value      string `json:"value,omitempty"`
	Image      *Image `json:"image,omitempty"`
	Colspan    int    `json:"colspan,omitempty"`
	Style      string `json:"style,omitempty"`
	LabelStyle string `json:"labelStyle,omitempty"`
	ValueStyle string `json:"valueStyle,omitempty"`
	Align      string `json:"align,omitempty"`
	Fill       *Color `json:"fill,omitempty"`
	Blank      bool   `json:"blank,omitempty"`
}

// IsLabeled reports whether the cell renders as "label : value".
func (c Cell) IsLabeled() bool {
	return c.Label != ""
}

func (c *Cell) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*c = Cell{Text: s}
		return nil
	}
	type plain Cell
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*c = Cell(p)
	return nil
}

// Image is an embedded raster image. Width and Height are the drawn size;
// one of them may be zero to keep the aspect ratio.
type Image struct {
	Name   string  `json:"name,omitempty"`
	Data   []byte  `json:"data"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
}

// Barcode symbologies.
const (
	BarcodeQR      = "qr"
	BarcodePDF417  = "pdf417"
	BarcodeCode128 = "code128"
)

// Barcode is a machine-readable code drawn as an image.
type Barcode struct {
	Kind   string  `json:"kind"`
	Value  string  `json:"value"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
}

// Empty returns an element that draws nothing.
func Empty() Element {
	return Element{Type: TypeEmpty}
}
