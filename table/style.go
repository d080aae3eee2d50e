// Package table draws boxed tables onto an fpdf document.
//
// It supports fixed and auto-filled column widths, colspan, label/value
// pair cells, image cells, per-row fills, a heavier rule under the first
// row, repeating header rows on page breaks, and measuring a table's height
// before it is drawn.
package table

// RGBColor represents an RGB color value.
type RGBColor struct {
	R, G, B int
}

// Hex parses "#rrggbb" or "#rgb". Invalid input yields black.
func Hex(s string) RGBColor {
	if len(s) > 0 && s[0] == '#' {
		s = s[1:]
	}
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return RGBColor{}
	}
	v := [3]int{}
	for i := 0; i < 3; i++ {
		hi, ok1 := hexDigit(s[2*i])
		lo, ok2 := hexDigit(s[2*i+1])
		if !ok1 || !ok2 {
			return RGBColor{}
		}
		v[i] = hi<<4 | lo
	}
	return RGBColor{v[0], v[1], v[2]}
}

func hexDigit(c byte) (int, bool) {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0'), true
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10, true
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10, true
	}
	return 0, false
}

// FontSpec defines font properties for text rendering.
type FontSpec struct {
	Family string
	Style  string  // "", "B", "I", "BI"
	Size   float64 // in points
}

// Padding defines spacing inside a cell.
type Padding struct {
	Top, Right, Bottom, Left float64
}

// UniformPadding creates a Padding with the same value on all sides.
func UniformPadding(v float64) Padding {
	return Padding{Top: v, Right: v, Bottom: v, Left: v}
}

// BorderStyle defines the appearance of cell borders.
type BorderStyle struct {
	Width float64
	Color RGBColor
}

// CellStyle defines the visual appearance of a cell.
type CellStyle struct {
	FillColor *RGBColor
	TextColor *RGBColor
	Font      *FontSpec
	Align     string // "L", "C", "R"
	Padding   *Padding
}

// TableStyle defines the overall appearance of a table.
type TableStyle struct {
	Border       *BorderStyle // nil draws no grid
	HeaderRule   float64      // line width under the first row, 0 for none
	FirstRowFill *RGBColor
	RowFill      *RGBColor // fill for every row after the first
	HeaderStyle  *CellStyle
	CellPadding  Padding
	CellFont     *FontSpec
	LineHeight   float64 // multiple of the font size, default 1.25
}

// SoftBox returns the light boxed style used throughout the report: thin
// light-gray grid, a heavier rule under the title row, pale fills and
// uniform padding of 6.
func SoftBox(font FontSpec) TableStyle {
	line := Hex("#cfd8dc")
	first := Hex("#eef6ff")
	rest := Hex("#fafafa")
	return TableStyle{
		Border:       &BorderStyle{Width: 0.6, Color: line},
		HeaderRule:   1.2,
		FirstRowFill: &first,
		RowFill:      &rest,
		CellPadding:  UniformPadding(6),
		CellFont:     &font,
	}
}

// NoBorders returns a style without grid or fills, for layout-only tables.
func NoBorders(font FontSpec) TableStyle {
	return TableStyle{
		CellPadding: Padding{Top: 2, Right: 4, Bottom: 2, Left: 4},
		CellFont:    &font,
	}
}
