package table

import (
	"github.com/go-pdf/fpdf"
)

// ColumnDef defines the properties of a table column.
type ColumnDef struct {
	Width    float64 // Fixed width. 0 means auto/fill.
	MinWidth float64 // Minimum width for auto columns.
	MaxWidth float64 // Maximum width for auto columns. 0 means unlimited.
	Align    string  // Default alignment for this column ("L", "C", "R").
}

const (
	labelGap   = 4.0 // space on each side of the colon in labeled cells
	colonWidth = 6.0
	minRowH    = 5.0
)

// Table is a high-level table builder for generating PDF tables.
type Table struct {
	pdf        *fpdf.Fpdf
	columns    []ColumnDef
	rows       []*Row
	headerRows int
	style      TableStyle
	x, y       float64 // starting position (0,0 means current)
	tableWidth float64 // total table width (0 means page width minus margins)
	tr         func(string) string
}

// New creates a new Table associated with the given PDF document.
func New(pdf *fpdf.Fpdf) *Table {
	return &Table{
		pdf: pdf,
		style: TableStyle{
			CellPadding: UniformPadding(1),
		},
		tr: func(s string) string { return s },
	}
}

// SetColumns sets column definitions for the table.
func (t *Table) SetColumns(cols ...ColumnDef) *Table {
	t.columns = cols
	return t
}

// SetColumnWidths is a convenience method to set column widths directly.
// A width of 0 means the column will auto-fill remaining space.
func (t *Table) SetColumnWidths(widths ...float64) *Table {
	t.columns = make([]ColumnDef, len(widths))
	for i, w := range widths {
		t.columns[i] = ColumnDef{Width: w}
	}
	return t
}

// SetHeaderRows marks the first n rows as header rows.
// Header rows are repeated at the top of each new page.
func (t *Table) SetHeaderRows(n int) *Table {
	t.headerRows = n
	return t
}

// SetStyle sets the table-wide style.
func (t *Table) SetStyle(s TableStyle) *Table {
	t.style = s
	return t
}

// SetPosition sets the starting position for the table.
// If not called, the table starts at the current PDF cursor position.
func (t *Table) SetPosition(x, y float64) *Table {
	t.x = x
	t.y = y
	return t
}

// SetWidth sets the total table width. If not called, uses page width minus margins.
func (t *Table) SetWidth(w float64) *Table {
	t.tableWidth = w
	return t
}

// SetTranslator sets the function applied to text before it is measured or
// drawn, typically a code page translator for core fonts.
func (t *Table) SetTranslator(tr func(string) string) *Table {
	if tr != nil {
		t.tr = tr
	}
	return t
}

// AddRow adds a new data row to the table and returns it for chaining.
func (t *Table) AddRow() *Row {
	r := &Row{}
	t.rows = append(t.rows, r)
	return r
}

// AddHeaderRow adds a new header row and returns it for chaining.
func (t *Table) AddHeaderRow() *Row {
	r := &Row{isHeader: true}
	insertIdx := 0
	for i, existing := range t.rows {
		if !existing.isHeader {
			insertIdx = i
			break
		}
		insertIdx = i + 1
	}
	t.rows = append(t.rows, nil)
	copy(t.rows[insertIdx+1:], t.rows[insertIdx:])
	t.rows[insertIdx] = r
	t.headerRows++
	return r
}

// Rows returns the number of rows added so far.
func (t *Table) Rows() int {
	return len(t.rows)
}

// Measure returns the height the table occupies when drawn without page
// breaks. It leaves the last measured font selected.
func (t *Table) Measure() float64 {
	widths := t.calculateWidths()
	restore := t.saveState()
	defer restore()
	total := 0.0
	for i, r := range t.rows {
		total += t.rowHeight(r, i, widths)
	}
	return total
}

// Render draws the table to the PDF document, breaking pages between rows.
// Header rows are repeated on every new page.
func (t *Table) Render() error {
	if t.pdf.Err() {
		return t.pdf.Error()
	}
	widths := t.calculateWidths()
	if len(widths) == 0 {
		return nil
	}

	restore := t.saveState()
	defer restore()
	auto, breakMargin := t.pdf.GetAutoPageBreak()
	t.pdf.SetAutoPageBreak(false, breakMargin)
	defer t.pdf.SetAutoPageBreak(auto, breakMargin)

	startX := t.x
	if startX == 0 {
		startX = t.pdf.GetX()
	}
	if t.y != 0 {
		t.pdf.SetY(t.y)
	}

	_, pageH := t.pdf.GetPageSize()
	_, top, _, _ := t.pdf.GetMargins()
	limit := pageH - breakMargin

	for i, r := range t.rows {
		rowH := t.rowHeight(r, i, widths)
		y := t.pdf.GetY()
		if y+rowH > limit && y > top+0.01 {
			t.pdf.AddPage()
			if i >= t.headerRows {
				for h := 0; h < t.headerRows && h < len(t.rows); h++ {
					t.renderRow(t.rows[h], h, widths, startX)
				}
			}
		}
		t.renderRow(r, i, widths, startX)
	}
	return t.pdf.Error()
}

// saveState snapshots the colors, line width and cell margin and returns a
// func restoring them.
func (t *Table) saveState() func() {
	pdf := t.pdf
	dr, dg, db := pdf.GetDrawColor()
	fr, fg, fb := pdf.GetFillColor()
	tr, tg, tb := pdf.GetTextColor()
	lw := pdf.GetLineWidth()
	margin := pdf.GetCellMargin()
	pdf.SetCellMargin(0)
	return func() {
		pdf.SetDrawColor(dr, dg, db)
		pdf.SetFillColor(fr, fg, fb)
		pdf.SetTextColor(tr, tg, tb)
		pdf.SetLineWidth(lw)
		pdf.SetCellMargin(margin)
	}
}

// calculateWidths computes final column widths based on definitions and available space.
func (t *Table) calculateWidths() []float64 {
	totalWidth := t.tableWidth
	if totalWidth == 0 {
		pageW, _ := t.pdf.GetPageSize()
		lMargin, _, rMargin, _ := t.pdf.GetMargins()
		totalWidth = pageW - lMargin - rMargin
	}

	numCols := len(t.columns)
	if numCols == 0 {
		// Auto-detect from the widest row
		for _, r := range t.rows {
			n := 0
			for _, c := range r.cells {
				n += c.colspan
			}
			if n > numCols {
				numCols = n
			}
		}
		if numCols == 0 {
			return nil
		}
		t.columns = make([]ColumnDef, numCols)
	}

	widths := make([]float64, numCols)
	fixedTotal := 0.0
	autoCount := 0

	for i, col := range t.columns {
		if col.Width > 0 {
			widths[i] = col.Width
			fixedTotal += col.Width
		} else {
			autoCount++
		}
	}

	if autoCount > 0 {
		remaining := totalWidth - fixedTotal
		if remaining < 0 {
			remaining = 0
		}
		autoWidth := remaining / float64(autoCount)
		for i, col := range t.columns {
			if col.Width == 0 {
				w := autoWidth
				if col.MinWidth > 0 && w < col.MinWidth {
					w = col.MinWidth
				}
				if col.MaxWidth > 0 && w > col.MaxWidth {
					w = col.MaxWidth
				}
				widths[i] = w
			}
		}
	}

	return widths
}

// placed is a cell resolved to its column range.
type placed struct {
	cell  *Cell
	col   int
	x     float64 // offset from the table's left edge
	width float64
}

// layoutRow maps cells to columns, honoring colspan. Cells beyond the last
// column are dropped.
func layoutRow(r *Row, widths []float64) []placed {
	out := make([]placed, 0, len(r.cells))
	col := 0
	x := 0.0
	for _, c := range r.cells {
		if col >= len(widths) {
			break
		}
		w := 0.0
		span := c.colspan
		for j := 0; j < span && col+j < len(widths); j++ {
			w += widths[col+j]
		}
		out = append(out, placed{cell: c, col: col, x: x, width: w})
		x += w
		col += span
	}
	return out
}

func (t *Table) rowHeight(r *Row, idx int, widths []float64) float64 {
	maxH := minRowH
	if r.minH > maxH {
		maxH = r.minH
	}
	for _, p := range layoutRow(r, widths) {
		style := t.resolveCellStyle(p.cell, r, idx)
		pad := t.padding(style)
		contentW := p.width - pad.Left - pad.Right
		if contentW < 1 {
			contentW = 1
		}
		h := t.contentHeight(p.cell.content, style, contentW) + pad.Top + pad.Bottom
		if h > maxH {
			maxH = h
		}
	}
	return maxH
}

func (t *Table) contentHeight(content CellContent, style CellStyle, w float64) float64 {
	switch c := content.(type) {
	case TextContent:
		lineH := t.useFont(style.Font)
		return float64(len(t.wrap(c.Text, w))) * lineH
	case LabeledContent:
		lw, _, vw := labeledWidths(w)
		lineH := t.useFont(pick(c.LabelStyle, style).Font)
		labelH := float64(len(t.wrap(c.Label, lw))) * lineH
		lineH = t.useFont(pick(c.ValueStyle, style).Font)
		valueH := float64(len(t.wrap(c.Value, vw))) * lineH
		if labelH > valueH {
			return labelH
		}
		return valueH
	case ImageContent:
		_, h := t.imageSize(c, w)
		return h
	}
	return 0
}

// labeledWidths splits w into label, colon and value widths.
func labeledWidths(w float64) (label, colon, value float64) {
	half := (w - colonWidth - 2*labelGap) / 2
	if half < 1 {
		half = 1
	}
	return half, colonWidth, half
}

func pick(s *CellStyle, fallback CellStyle) CellStyle {
	if s == nil {
		return fallback
	}
	merged := fallback
	mergeStyle(&merged, s)
	return merged
}

// imageSize resolves the drawn size of an image cell, scaling it down to fit
// the available width.
func (t *Table) imageSize(c ImageContent, avail float64) (w, h float64) {
	w, h = c.Width, c.Height
	if w == 0 || h == 0 {
		info := t.pdf.GetImageInfo(c.Name)
		if info == nil {
			return w, h
		}
		iw, ih := info.Width(), info.Height()
		switch {
		case w == 0 && h == 0:
			w, h = iw, ih
		case w == 0 && ih > 0:
			w = h * iw / ih
		case h == 0 && iw > 0:
			h = w * ih / iw
		}
	}
	if w > avail && w > 0 {
		h = h * avail / w
		w = avail
	}
	return w, h
}

// useFont applies f and returns the resulting line height in user units.
func (t *Table) useFont(f *FontSpec) float64 {
	if f != nil {
		if f.Family != "" {
			t.pdf.SetFont(f.Family, f.Style, f.Size)
		} else {
			t.pdf.SetFontStyle(f.Style)
			if f.Size > 0 {
				t.pdf.SetFontSize(f.Size)
			}
		}
	}
	factor := t.style.LineHeight
	if factor <= 0 {
		factor = 1.25
	}
	_, unitSize := t.pdf.GetFontSize()
	return unitSize * factor
}

func (t *Table) wrap(s string, w float64) []string {
	measure := func(v string) float64 { return t.pdf.GetStringWidth(t.tr(v)) }
	return Wrap(measure, s, w)
}

func (t *Table) padding(style CellStyle) Padding {
	if style.Padding != nil {
		return *style.Padding
	}
	return t.style.CellPadding
}

// renderRow draws one row at the current Y and advances the cursor below it.
func (t *Table) renderRow(r *Row, idx int, widths []float64, startX float64) {
	rowH := t.rowHeight(r, idx, widths)
	y := t.pdf.GetY()
	cells := layoutRow(r, widths)
	styles := make([]CellStyle, len(cells))

	// Fills first so borders of neighbors are not painted over.
	for i, p := range cells {
		styles[i] = t.resolveCellStyle(p.cell, r, idx)
		if fill := styles[i].FillColor; fill != nil {
			t.pdf.SetFillColor(fill.R, fill.G, fill.B)
			t.pdf.Rect(startX+p.x, y, p.width, rowH, "F")
		}
	}

	for i, p := range cells {
		style := styles[i]
		pad := t.padding(style)
		x := startX + p.x
		align := style.Align
		if align == "" && p.col < len(t.columns) {
			align = t.columns[p.col].Align
		}
		if align == "" {
			align = "L"
		}
		t.drawContent(p.cell.content, style, align,
			x+pad.Left, y+pad.Top, p.width-pad.Left-pad.Right)
	}

	if b := t.style.Border; b != nil {
		t.pdf.SetDrawColor(b.Color.R, b.Color.G, b.Color.B)
		t.pdf.SetLineWidth(b.Width)
		for _, p := range cells {
			t.pdf.Rect(startX+p.x, y, p.width, rowH, "D")
		}
		if idx == 0 && t.style.HeaderRule > 0 && len(t.rows) > 1 {
			total := 0.0
			for _, w := range widths {
				total += w
			}
			t.pdf.SetLineWidth(t.style.HeaderRule)
			t.pdf.Line(startX, y+rowH, startX+total, y+rowH)
		}
	}

	t.pdf.SetXY(startX, y+rowH)
}

func (t *Table) drawContent(content CellContent, style CellStyle, align string, x, y, w float64) {
	switch c := content.(type) {
	case TextContent:
		t.drawLines(c.Text, style, align, x, y, w)
	case LabeledContent:
		lw, cw, vw := labeledWidths(w)
		t.drawLines(c.Label, pick(c.LabelStyle, style), "L", x, y, lw)
		t.drawLines(":", pick(c.LabelStyle, style), "C", x+lw+labelGap, y, cw)
		t.drawLines(c.Value, pick(c.ValueStyle, style), "L", x+lw+cw+2*labelGap, y, vw)
	case ImageContent:
		iw, ih := t.imageSize(c, w)
		if iw <= 0 || ih <= 0 || t.pdf.GetImageInfo(c.Name) == nil {
			return
		}
		ix := x
		switch align {
		case "C":
			ix = x + (w-iw)/2
		case "R":
			ix = x + w - iw
		}
		t.pdf.ImageOptions(c.Name, ix, y, iw, ih, false, fpdf.ImageOptions{}, 0, "")
	}
}

func (t *Table) drawLines(text string, style CellStyle, align string, x, y, w float64) {
	lineH := t.useFont(style.Font)
	if c := style.TextColor; c != nil {
		t.pdf.SetTextColor(c.R, c.G, c.B)
	} else {
		t.pdf.SetTextColor(0, 0, 0)
	}
	for i, line := range t.wrap(text, w) {
		t.pdf.SetXY(x, y+float64(i)*lineH)
		t.pdf.CellFormat(w, lineH, t.tr(line), "", 0, align, false, 0, "")
	}
}

// resolveCellStyle determines the effective style for a cell by merging
// table, row fill, header, row, and cell-level styles.
func (t *Table) resolveCellStyle(cell *Cell, row *Row, idx int) CellStyle {
	var result CellStyle

	if t.style.CellFont != nil {
		result.Font = t.style.CellFont
	}

	if idx == 0 && t.style.FirstRowFill != nil {
		result.FillColor = t.style.FirstRowFill
	} else if idx > 0 && t.style.RowFill != nil {
		result.FillColor = t.style.RowFill
	}

	if (row.isHeader || idx < t.headerRows) && t.style.HeaderStyle != nil {
		mergeStyle(&result, t.style.HeaderStyle)
	}

	if row.style != nil {
		mergeStyle(&result, row.style)
	}

	// Cell-level style (highest priority)
	if cell.style != nil {
		mergeStyle(&result, cell.style)
	}

	return result
}

// mergeStyle copies non-nil fields from src to dst.
func mergeStyle(dst, src *CellStyle) {
	if src.FillColor != nil {
		dst.FillColor = src.FillColor
	}
	if src.TextColor != nil {
		dst.TextColor = src.TextColor
	}
	if src.Font != nil {
		dst.Font = src.Font
	}
	if src.Align != "" {
		dst.Align = src.Align
	}
	if src.Padding != nil {
		dst.Padding = src.Padding
	}
}
