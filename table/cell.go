package table

import (
	"fmt"
)

// CellContent represents the content of a table cell.
type CellContent interface {
	cellContent()
}

// TextContent is a simple text cell content.
type TextContent struct {
	Text string
}

func (TextContent) cellContent() {}

// LabeledContent renders "Label : Value" with the label and the value in
// their own styles, side by side.
type LabeledContent struct {
	Label      string
	Value      string
	LabelStyle *CellStyle
	ValueStyle *CellStyle
}

func (LabeledContent) cellContent() {}

// ImageContent places an image registered on the document under Name.
// A zero Width or Height is derived from the image's aspect ratio.
type ImageContent struct {
	Name   string
	Width  float64
	Height float64
}

func (ImageContent) cellContent() {}

// Cell represents a single cell in a table row.
type Cell struct {
	content CellContent
	colspan int
	style   *CellStyle
}

// SetColspan sets the number of columns this cell spans.
func (c *Cell) SetColspan(n int) *Cell {
	if n > 0 {
		c.colspan = n
	}
	return c
}

// SetStyle sets the style for this cell, overriding table/row defaults.
func (c *Cell) SetStyle(s CellStyle) *Cell {
	c.style = &s
	return c
}

// SetAlign sets the horizontal alignment for this cell.
func (c *Cell) SetAlign(align string) *Cell {
	if c.style == nil {
		c.style = &CellStyle{}
	}
	c.style.Align = align
	return c
}

// SetFillColor sets the background color for this cell.
func (c *Cell) SetFillColor(r, g, b int) *Cell {
	if c.style == nil {
		c.style = &CellStyle{}
	}
	c.style.FillColor = &RGBColor{R: r, G: g, B: b}
	return c
}

// Row represents a single row in a table.
type Row struct {
	cells    []*Cell
	style    *CellStyle
	isHeader bool
	minH     float64 // minimum row height
}

func (r *Row) add(content CellContent) *Cell {
	c := &Cell{content: content, colspan: 1}
	r.cells = append(r.cells, c)
	return c
}

// AddCell adds a text cell to the row and returns the cell for chaining.
func (r *Row) AddCell(text string) *Cell {
	return r.add(TextContent{Text: text})
}

// AddCellf adds a formatted text cell to the row.
func (r *Row) AddCellf(format string, args ...any) *Cell {
	return r.AddCell(fmt.Sprintf(format, args...))
}

// AddLabeledCell adds a "label : value" cell.
func (r *Row) AddLabeledCell(c LabeledContent) *Cell {
	return r.add(c)
}

// AddImageCell adds a cell showing a registered image.
func (r *Row) AddImageCell(name string, w, h float64) *Cell {
	return r.add(ImageContent{Name: name, Width: w, Height: h})
}

// AddEmptyCell adds a blank cell.
func (r *Row) AddEmptyCell() *Cell {
	return r.add(TextContent{Text: " "})
}

// SetStyle sets the style for all cells in this row.
func (r *Row) SetStyle(s CellStyle) *Row {
	r.style = &s
	return r
}

// SetMinHeight sets the minimum height for this row.
func (r *Row) SetMinHeight(h float64) *Row {
	r.minH = h
	return r
}
