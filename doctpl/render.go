package doctpl

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"
	"go.uber.org/zap"

	"github.com/lvillar/medreport"
	"github.com/lvillar/medreport/pageops"
	"github.com/lvillar/medreport/table"
)

// lineFactor is the text line height as a multiple of the font size.
const lineFactor = 1.25

var coreFamilies = map[string]bool{
	"helvetica":    true,
	"arial":        true,
	"times":        true,
	"courier":      true,
	"symbol":       true,
	"zapfdingbats": true,
}

// Render parses a JSON template and writes the resulting PDF to w.
func Render(w io.Writer, jsonTemplate []byte, opts ...Option) error {
	var doc Document
	if err := json.Unmarshal(jsonTemplate, &doc); err != nil {
		return fmt.Errorf("doctpl: parsing template: %w", err)
	}
	return RenderDocument(w, &doc, opts...)
}

// RenderDocument renders a Document struct to a PDF written to w.
//
// Images that cannot be embedded and background layers that cannot be
// decoded are skipped and logged; everything else that goes wrong is
// returned as an error and nothing is written.
func RenderDocument(w io.Writer, doc *Document, opts ...Option) error {
	if doc == nil {
		return fmt.Errorf("doctpl: %w", medreport.ErrEmptyDocument)
	}
	r, err := newRenderer(doc, newRenderConfig(opts))
	if err != nil {
		return err
	}
	if err := r.run(); err != nil {
		return err
	}
	if r.pdf.Err() {
		return fmt.Errorf("doctpl: %w", r.pdf.Error())
	}
	return r.pdf.Output(w)
}

// box is the horizontal extent an element is laid out in.
type box struct {
	x, w float64
}

type renderer struct {
	pdf      *fpdf.Fpdf
	doc      *Document
	log      *zap.Logger
	pageSize string
	base     Font
	faces    map[string]map[string]bool // embedded family -> registered styles
	cp1252   func(string) string
	images   map[string]bool // image key -> registered successfully
	seq      int
}

func newRenderer(doc *Document, cfg *renderConfig) (*renderer, error) {
	pageSize := doc.PageSize
	if pageSize == "" {
		pageSize = "A4"
	}
	unit := doc.Unit
	if unit == "" {
		unit = "pt"
	}

	pdf := fpdf.New("P", unit, pageSize, "")
	pdf.SetCompression(cfg.compress)
	pdf.SetCatalogSort(cfg.catalogSort)
	created := cfg.created
	if created.IsZero() {
		created = doc.Created
	}
	if !created.IsZero() {
		pdf.SetCreationDate(created)
		pdf.SetModificationDate(created)
	}
	pdf.SetCellMargin(0)

	// Pagination is driven by the renderer, not by fpdf.
	if doc.Margin != nil {
		pdf.SetMargins(doc.Margin.Left, doc.Margin.Top, doc.Margin.Right)
		pdf.SetAutoPageBreak(false, doc.Margin.Bottom)
	} else {
		_, bottom := pdf.GetAutoPageBreak()
		pdf.SetAutoPageBreak(false, bottom)
	}

	if doc.Title != "" {
		pdf.SetTitle(doc.Title, true)
	}
	if doc.Author != "" {
		pdf.SetAuthor(doc.Author, true)
	}
	if doc.Subject != "" {
		pdf.SetSubject(doc.Subject, true)
	}
	if doc.Creator != "" {
		pdf.SetCreator(doc.Creator, true)
	}
	if doc.Keywords != "" {
		pdf.SetKeywords(doc.Keywords, true)
	}

	r := &renderer{
		pdf:      pdf,
		doc:      doc,
		log:      cfg.logger,
		pageSize: pageSize,
		faces:    make(map[string]map[string]bool),
		images:   make(map[string]bool),
		cp1252:   pdf.UnicodeTranslatorFromDescriptor(""),
	}

	for _, face := range doc.Fonts {
		if face.Family == "" || len(face.Data) == 0 {
			continue
		}
		style := normStyle(face.Style)
		pdf.AddUTF8FontFromBytes(face.Family, style, face.Data)
		if pdf.Err() {
			return nil, fmt.Errorf("doctpl: font %s %q: %w", face.Family, style, pdf.Error())
		}
		fam := strings.ToLower(face.Family)
		if r.faces[fam] == nil {
			r.faces[fam] = make(map[string]bool)
		}
		r.faces[fam][style] = true
	}

	r.base = Font{Family: "Helvetica", Size: 11}
	if doc.Font != nil {
		r.base = mergeFont(r.base, doc.Font)
	}
	r.base = r.face(r.base)

	r.decorate()
	return r, nil
}

func (r *renderer) run() error {
	if len(r.doc.Pages) == 0 {
		r.pdf.AddPage()
		return nil
	}
	for pageIdx, page := range r.doc.Pages {
		if page.Size != "" && page.Size != r.pageSize {
			r.pdf.AddPageFormat("P", r.pdf.GetPageSizeStr(page.Size))
		} else {
			r.pdf.AddPage()
		}
		for _, elem := range page.Elements {
			if err := r.element(elem, r.contentBox()); err != nil {
				return fmt.Errorf("doctpl: page %d: %w", pageIdx+1, err)
			}
		}
	}
	return nil
}

// decorate installs background layers, page numbers and the watermark.
func (r *renderer) decorate() {
	d := pageops.NewDecorator(r.pdf)
	for _, layer := range r.doc.Background {
		band := pageops.Band{
			Name:     layer.Name,
			Data:     layer.Data,
			Position: layerPosition(layer.Position),
			Height:   layer.Height,
		}
		if layer.Stroke != nil {
			band.Stroke = pageops.RGBColor{R: layer.Stroke.R, G: layer.Stroke.G, B: layer.Stroke.B}
		}
		if err := d.AddBackground(band); err != nil {
			r.log.Warn("background layer skipped", zap.String("layer", layer.Name), zap.Error(err))
		}
	}

	if pn := r.doc.PageNumbers; pn != nil {
		style := pageops.PageNumberStyle{
			Format:   pn.Format,
			Family:   r.base.Family,
			FontSize: pn.Size,
			Margin:   pn.Margin,
			Color:    pageops.RGBColor{R: 119, G: 119, B: 119},
		}
		switch strings.ToUpper(pn.Align) {
		case "L":
			style.Position = pageops.BottomLeft
		case "R":
			style.Position = pageops.BottomRight
		default:
			style.Position = pageops.BottomCenter
		}
		if pn.Size == 0 {
			style.FontSize = 8
		}
		if pn.Color != nil {
			style.Color = pageops.RGBColor{R: pn.Color.R, G: pn.Color.G, B: pn.Color.B}
		}
		d.AddPageNumbers(style)
	}

	if wm := r.doc.Watermark; wm != nil && strings.TrimSpace(wm.Text) != "" {
		family := r.face(Font{Family: r.base.Family, Style: "B"})
		if family.Style != "B" {
			family = Font{Family: "Helvetica", Style: "B"}
		}
		tw := pageops.TextWatermark{
			Text:     r.translator(family.Family)(wm.Text),
			Family:   family.Family,
			FontSize: wm.Size,
			Opacity:  wm.Opacity,
		}
		if wm.Color != nil {
			tw.Color = pageops.RGBColor{R: wm.Color.R, G: wm.Color.G, B: wm.Color.B}
		}
		d.AddWatermark(tw)
	}

	d.Install()
}

func layerPosition(s string) pageops.Position {
	switch strings.ToLower(s) {
	case "top":
		return pageops.TopCenter
	case "center":
		return pageops.Center
	default:
		return pageops.BottomCenter
	}
}

func (r *renderer) element(elem Element, b box) error {
	switch elem.Type {
	case TypeEmpty:
		return nil
	case TypeText, TypeParagraph:
		r.renderText(elem, b, r.elementFont(elem, r.base))
	case TypeHeading:
		r.renderText(headingSpacing(elem), b, r.headingFont(elem))
	case TypeList:
		r.renderList(elem, b)
	case TypeTable:
		return r.renderTable(elem, b)
	case TypeImage:
		return r.renderImage(elem, b)
	case TypeStack:
		return r.renderStack(elem, b)
	case TypeColumns:
		return r.renderColumns(elem, b)
	case TypeLine, TypeHR:
		r.renderLine(elem, b)
	case TypeSpacer:
		r.advance(spacerHeight(elem))
	case TypePageBreak:
		r.pdf.AddPage()
	case TypeBarcode:
		return r.renderBarcode(elem, b)
	default:
		return fmt.Errorf("unknown element type %q", elem.Type)
	}
	return nil
}

func (r *renderer) contentBox() box {
	pageW, _ := r.pdf.GetPageSize()
	lm, _, rm, _ := r.pdf.GetMargins()
	return box{x: lm, w: pageW - lm - rm}
}

// limit is the lowest y content may reach on the current page.
func (r *renderer) limit() float64 {
	_, pageH := r.pdf.GetPageSize()
	_, bottom := r.pdf.GetAutoPageBreak()
	return pageH - bottom
}

// ensure starts a new page when h does not fit below the cursor, unless the
// cursor is already at the top of a page.
func (r *renderer) ensure(h float64) {
	_, top, _, _ := r.pdf.GetMargins()
	y := r.pdf.GetY()
	if y+h > r.limit() && y > top+0.5 {
		r.pdf.AddPage()
	}
}

func (r *renderer) advance(h float64) {
	if h != 0 {
		r.pdf.SetY(r.pdf.GetY() + h)
	}
}

func (r *renderer) renderText(elem Element, b box, font Font) {
	lines, lineH := r.layoutText(elem.Text, font, b.w)
	tr := r.translator(font.Family)
	r.advance(elem.SpaceBefore)
	r.applyColor(r.elementColor(elem))
	align := alignOf(elem.Align)
	for _, line := range lines {
		r.ensure(lineH)
		r.pdf.SetXY(b.x, r.pdf.GetY())
		r.pdf.CellFormat(b.w, lineH, tr(line), "", 2, align, false, 0, "")
	}
	r.pdf.SetTextColor(0, 0, 0)
	r.advance(elem.SpaceAfter)
}

// layoutText selects font and wraps text to w.
func (r *renderer) layoutText(text string, font Font, w float64) ([]string, float64) {
	r.applyFont(font)
	tr := r.translator(font.Family)
	measure := func(s string) float64 { return r.pdf.GetStringWidth(tr(s)) }
	_, unitSize := r.pdf.GetFontSize()
	return table.Wrap(measure, text, w), unitSize * lineFactor
}

func (r *renderer) renderList(elem Element, b box) {
	font := r.elementFont(elem, r.base)
	const indent = 10.0
	r.advance(elem.SpaceBefore)
	for i, item := range elem.Items {
		r.renderText(Element{Text: listPrefix(elem, i) + item}, box{x: b.x + indent, w: b.w - indent}, font)
	}
	r.advance(elem.SpaceAfter)
}

func listPrefix(elem Element, i int) string {
	if elem.Ordered {
		return fmt.Sprintf("%d. ", i+1)
	}
	if elem.BulletStr != "" {
		return elem.BulletStr + " "
	}
	return "• "
}

func (r *renderer) renderTable(elem Element, b box) error {
	t := r.buildTable(elem, b)
	r.advance(elem.SpaceBefore)
	r.pdf.SetX(b.x)
	if err := t.Render(); err != nil {
		return err
	}
	r.advance(elem.SpaceAfter)
	return nil
}

func (r *renderer) buildTable(elem Element, b box) *table.Table {
	t := table.New(r.pdf).
		SetWidth(b.w).
		SetTranslator(r.translator(r.base.Family))

	if len(elem.Columns) > 0 {
		cols := make([]table.ColumnDef, len(elem.Columns))
		for i, c := range elem.Columns {
			cols[i] = table.ColumnDef{Width: c.Width, Align: strings.ToUpper(c.Align)}
		}
		t.SetColumns(cols...)
	}

	baseFont := fontSpec(r.base)
	var style table.TableStyle
	switch elem.Layout {
	case LayoutSoftBox:
		style = table.SoftBox(baseFont)
	case LayoutNoBorders:
		style = table.NoBorders(baseFont)
	default:
		style = table.TableStyle{
			CellPadding: table.UniformPadding(2),
			Border:      &table.BorderStyle{Width: 0.5, Color: table.RGBColor{R: 180, G: 180, B: 180}},
			CellFont:    &baseFont,
			HeaderStyle: &table.CellStyle{
				FillColor: &table.RGBColor{R: 63, G: 81, B: 181},
				TextColor: &table.RGBColor{R: 255, G: 255, B: 255},
				Font:      &table.FontSpec{Family: baseFont.Family, Style: "B", Size: baseFont.Size},
			},
		}
	}
	if hs := elem.HeaderStyle; hs != nil {
		if style.HeaderStyle == nil {
			style.HeaderStyle = &table.CellStyle{}
		}
		r.overrideCellStyle(style.HeaderStyle, hs)
	}
	t.SetStyle(style)

	headerRows := elem.HeaderRows
	if hasColumnHeaders(elem.Columns) {
		hr := t.AddHeaderRow()
		for _, c := range elem.Columns {
			hr.AddCell(c.Header)
		}
	}
	for _, cells := range elem.Rows {
		row := t.AddRow()
		if cs := elem.CellStyle; cs != nil {
			var rs table.CellStyle
			r.overrideCellStyle(&rs, cs)
			row.SetStyle(rs)
		}
		for _, c := range cells {
			r.addCell(row, c)
		}
	}
	if hasColumnHeaders(elem.Columns) {
		headerRows++
	}
	t.SetHeaderRows(headerRows)
	return t
}

func hasColumnHeaders(cols []TableColumn) bool {
	for _, c := range cols {
		if c.Header != "" {
			return true
		}
	}
	return false
}

func (r *renderer) overrideCellStyle(dst *table.CellStyle, src *CellStyle) {
	if src.FillColor != nil {
		dst.FillColor = rgb(src.FillColor)
	}
	if src.TextColor != nil {
		dst.TextColor = rgb(src.TextColor)
	}
	if src.Font != nil {
		base := r.base
		if dst.Font != nil {
			base = Font{Family: dst.Font.Family, Style: dst.Font.Style, Size: dst.Font.Size}
		}
		f := fontSpec(r.face(mergeFont(base, src.Font)))
		dst.Font = &f
	}
}

func (r *renderer) addCell(row *table.Row, c Cell) {
	var cell *table.Cell
	switch {
	case c.Image != nil:
		if key, ok := r.registerImage(c.Image); ok {
			cell = row.AddImageCell(key, c.Image.Width, c.Image.Height)
		} else {
			cell = row.AddEmptyCell()
		}
	case c.IsLabeled():
		cell = row.AddLabeledCell(table.LabeledContent{
			Label:      c.Label,
			Value:      c.Value,
			LabelStyle: r.cellStyle(c.LabelStyle, nil),
			ValueStyle: r.cellStyle(c.ValueStyle, nil),
		})
	case c.Blank:
		cell = row.AddEmptyCell()
	default:
		cell = row.AddCell(c.Text)
	}
	if c.Colspan > 1 {
		cell.SetColspan(c.Colspan)
	}
	if st := r.cellStyle(c.Style, c.Fill); st != nil {
		cell.SetStyle(*st)
	}
	if c.Align != "" {
		cell.SetAlign(strings.ToUpper(c.Align))
	}
}

// cellStyle resolves a named style and an optional fill into a table cell
// style. It returns nil when neither is set.
func (r *renderer) cellStyle(name string, fill *Color) *table.CellStyle {
	if name == "" && fill == nil {
		return nil
	}
	var st table.CellStyle
	if ts, ok := r.doc.Styles[name]; ok {
		if ts.Font != nil {
			f := fontSpec(r.face(mergeFont(r.base, ts.Font)))
			st.Font = &f
		}
		st.TextColor = rgb(ts.Color)
		st.FillColor = rgb(ts.Fill)
	} else if name != "" {
		r.log.Debug("unknown style", zap.String("style", name))
	}
	if fill != nil {
		st.FillColor = rgb(fill)
	}
	return &st
}

func (r *renderer) renderImage(elem Element, b box) error {
	if elem.Image == nil {
		return fmt.Errorf("image element requires 'image' field")
	}
	key, ok := r.registerImage(elem.Image)
	if !ok {
		return nil
	}
	w, h := r.imageSize(key, elem.Image, b.w)
	r.advance(elem.SpaceBefore)
	r.ensure(h)
	x := alignedX(elem.Align, b, w)
	y := r.pdf.GetY()
	r.pdf.ImageOptions(key, x, y, w, h, false, fpdf.ImageOptions{}, 0, "")
	r.pdf.SetY(y + h)
	r.advance(elem.SpaceAfter)
	return nil
}

// imageSize resolves the drawn size, keeping the aspect ratio for a
// missing dimension and shrinking the image to fit maxW.
func (r *renderer) imageSize(key string, img *Image, maxW float64) (w, h float64) {
	w, h = img.Width, img.Height
	if info := r.pdf.GetImageInfo(key); info != nil && (w == 0 || h == 0) {
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
	if w > maxW && w > 0 {
		h = h * maxW / w
		w = maxW
	}
	return w, h
}

func alignedX(align string, b box, w float64) float64 {
	switch alignOf(align) {
	case "C":
		return b.x + (b.w-w)/2
	case "R":
		return b.x + b.w - w
	}
	return b.x
}

func (r *renderer) renderStack(elem Element, b box) error {
	if elem.Unbreakable {
		r.ensure(r.measure(elem, b))
	}
	r.advance(elem.SpaceBefore)
	for _, child := range elem.Children {
		if err := r.element(child, b); err != nil {
			return err
		}
	}
	r.advance(elem.SpaceAfter)
	return nil
}

func columnBoxes(elem Element, b box) []box {
	n := len(elem.Children)
	if n == 0 {
		return nil
	}
	w := (b.w - elem.Gap*float64(n-1)) / float64(n)
	boxes := make([]box, n)
	for i := range boxes {
		boxes[i] = box{x: b.x + float64(i)*(w+elem.Gap), w: w}
	}
	return boxes
}

func (r *renderer) renderColumns(elem Element, b box) error {
	boxes := columnBoxes(elem, b)
	if len(boxes) == 0 {
		return nil
	}
	r.advance(elem.SpaceBefore)
	r.ensure(r.measure(Element{Type: TypeColumns, Children: elem.Children, Gap: elem.Gap}, b))
	y0 := r.pdf.GetY()
	page := r.pdf.PageNo()
	maxY := y0
	for i, child := range elem.Children {
		r.pdf.SetXY(boxes[i].x, y0)
		if err := r.element(child, boxes[i]); err != nil {
			return err
		}
		if r.pdf.PageNo() == page && r.pdf.GetY() > maxY {
			maxY = r.pdf.GetY()
		}
	}
	if r.pdf.PageNo() == page {
		r.pdf.SetY(maxY)
	}
	r.advance(elem.SpaceAfter)
	return nil
}

func lineSpacing(elem Element) (before, after float64) {
	if elem.Type == TypeHR && elem.SpaceBefore == 0 && elem.SpaceAfter == 0 {
		return 3, 3
	}
	return elem.SpaceBefore, elem.SpaceAfter
}

func lineWidth(elem Element) float64 {
	if elem.LineWidth > 0 {
		return elem.LineWidth
	}
	if elem.Type == TypeHR {
		return 0.3
	}
	return 0.5
}

func (r *renderer) renderLine(elem Element, b box) {
	before, after := lineSpacing(elem)
	lw := lineWidth(elem)
	w := elem.Width
	if w <= 0 || w > b.w {
		w = b.w
	}
	c := r.elementColor(elem)
	if c == nil {
		c = &Color{R: 180, G: 180, B: 180}
	}

	r.advance(before)
	r.ensure(lw)
	y := r.pdf.GetY() + lw/2
	r.pdf.SetLineWidth(lw)
	r.pdf.SetDrawColor(c.R, c.G, c.B)
	r.pdf.Line(b.x, y, b.x+w, y)
	r.pdf.SetDrawColor(0, 0, 0)
	r.pdf.SetY(r.pdf.GetY() + lw)
	r.advance(after)
}

func spacerHeight(elem Element) float64 {
	if elem.SpacerHeight == 0 {
		return 10
	}
	return elem.SpacerHeight
}

// elementFont applies the element's named style and font override to base.
func (r *renderer) elementFont(elem Element, base Font) Font {
	f := base
	if ts, ok := r.doc.Styles[elem.Style]; ok && ts.Font != nil {
		f = mergeFont(f, ts.Font)
	}
	if elem.Font != nil {
		f = mergeFont(f, elem.Font)
	}
	return r.face(f)
}

func (r *renderer) elementColor(elem Element) *Color {
	if elem.Color != nil {
		return elem.Color
	}
	if ts, ok := r.doc.Styles[elem.Style]; ok {
		return ts.Color
	}
	return nil
}

// Heading sizes: h1=24, h2=20, h3=16, h4=14, h5=12, h6=11
var headingSizes = []float64{24, 20, 16, 14, 12, 11}

func headingLevel(elem Element) int {
	return min(max(elem.Level, 1), 6)
}

func (r *renderer) headingFont(elem Element) Font {
	base := r.base
	base.Style = "B"
	base.Size = headingSizes[headingLevel(elem)-1]
	return r.elementFont(elem, base)
}

// headingSpacing fills in default spacing around a heading.
func headingSpacing(elem Element) Element {
	size := headingSizes[headingLevel(elem)-1]
	if elem.SpaceBefore == 0 {
		if headingLevel(elem) <= 2 {
			elem.SpaceBefore = size * 0.4
		} else {
			elem.SpaceBefore = size * 0.3
		}
	}
	if elem.SpaceAfter == 0 {
		elem.SpaceAfter = size * 0.2
	}
	return elem
}

// face maps f onto a font the document can draw: unknown families fall back
// to Helvetica and unregistered styles of embedded families to regular.
func (r *renderer) face(f Font) Font {
	f.Style = normStyle(f.Style)
	fam := strings.ToLower(f.Family)
	if coreFamilies[fam] {
		return f
	}
	styles, ok := r.faces[fam]
	if !ok {
		f.Family = "Helvetica"
		return f
	}
	if !styles[f.Style] {
		for _, s := range []string{"", "B", "I", "BI"} {
			if styles[s] {
				f.Style = s
				break
			}
		}
	}
	return f
}

func (r *renderer) applyFont(f Font) {
	r.pdf.SetFont(f.Family, f.Style, f.Size)
}

func (r *renderer) applyColor(c *Color) {
	if c != nil {
		r.pdf.SetTextColor(c.R, c.G, c.B)
	} else {
		r.pdf.SetTextColor(0, 0, 0)
	}
}

// translator returns the text conversion for family: code page 1252 for
// the core fonts, and for embedded fonts removal of runes outside the
// basic multilingual plane.
func (r *renderer) translator(family string) func(string) string {
	if coreFamilies[strings.ToLower(family)] {
		return r.cp1252
	}
	return stripAstral
}

func stripAstral(s string) string {
	return strings.Map(func(c rune) rune {
		if c > 0xFFFF {
			return -1
		}
		return c
	}, s)
}

func mergeFont(base Font, over *Font) Font {
	if over == nil {
		return base
	}
	if over.Family != "" {
		base.Family = over.Family
	}
	if over.Style != "" {
		base.Style = over.Style
	}
	if over.Size > 0 {
		base.Size = over.Size
	}
	return base
}

func normStyle(s string) string {
	s = strings.ToUpper(s)
	b := strings.Contains(s, "B")
	i := strings.Contains(s, "I")
	switch {
	case b && i:
		return "BI"
	case b:
		return "B"
	case i:
		return "I"
	}
	return ""
}

func alignOf(a string) string {
	switch strings.ToUpper(a) {
	case "C", "CENTER":
		return "C"
	case "R", "RIGHT":
		return "R"
	}
	return "L"
}

func fontSpec(f Font) table.FontSpec {
	return table.FontSpec{Family: f.Family, Style: f.Style, Size: f.Size}
}

func rgb(c *Color) *table.RGBColor {
	if c == nil {
		return nil
	}
	return &table.RGBColor{R: c.R, G: c.G, B: c.B}
}
