package pageops

import (
	"strconv"
	"strings"
)

// TextWatermark defines a text-based watermark.
type TextWatermark struct {
	Text     string   // watermark text
	Family   string   // font family (default: Helvetica)
	FontSize float64  // font size in points (default: 60)
	Color    RGBColor // text color (default: light gray)
	Opacity  float64  // 0.0 to 1.0 (default: 0.3)
	Angle    float64  // rotation angle in degrees (default: 45)
}

// AddWatermark draws wm diagonally across every page, over the content.
// An empty text adds nothing.
func (d *Decorator) AddWatermark(wm TextWatermark) {
	if strings.TrimSpace(wm.Text) == "" {
		return
	}
	if wm.Family == "" {
		wm.Family = "Helvetica"
	}
	if wm.FontSize == 0 {
		wm.FontSize = 60
	}
	if wm.Opacity == 0 {
		wm.Opacity = 0.3
	}
	if wm.Angle == 0 {
		wm.Angle = 45
	}
	if wm.Color == (RGBColor{}) {
		wm.Color = RGBColor{200, 200, 200}
	}
	d.over = append(d.over, func() { d.drawWatermark(wm) })
}

// drawWatermark renders the watermark text centered on the current page.
func (d *Decorator) drawWatermark(wm TextWatermark) {
	pdf := d.pdf
	pageW, pageH := pdf.GetPageSize()
	pdf.SetFont(wm.Family, "B", wm.FontSize)
	pdf.SetTextColor(wm.Color.R, wm.Color.G, wm.Color.B)
	pdf.SetAlpha(wm.Opacity, "Normal")

	textW := pdf.GetStringWidth(wm.Text)
	_, unitSize := pdf.GetFontSize()
	cx := pageW / 2
	cy := pageH / 2

	pdf.TransformBegin()
	pdf.TransformRotate(wm.Angle, cx, cy)
	pdf.Text(cx-textW/2, cy+unitSize/3, wm.Text)
	pdf.TransformEnd()

	pdf.SetAlpha(1.0, "Normal")
}

// PageNumberStyle defines the appearance and position of page numbers.
type PageNumberStyle struct {
	Format   string   // "{page}" and "{pages}" are substituted (default: "Page {page} of {pages}")
	Position Position // where to place the number (default: BottomCenter)
	Family   string   // font family (default: Helvetica)
	FontSize float64  // font size in points (default: 9)
	Color    RGBColor // text color (default: black)
	Margin   float64  // distance from the page edge (default: 30)
}

// totalAlias is replaced with the final page count when the document closes.
const totalAlias = "{nb}"

// AddPageNumbers stamps a page number on every page, over the content.
func (d *Decorator) AddPageNumbers(style PageNumberStyle) {
	if style.Format == "" {
		style.Format = "Page {page} of {pages}"
	}
	if style.Family == "" {
		style.Family = "Helvetica"
	}
	if style.FontSize == 0 {
		style.FontSize = 9
	}
	if style.Margin == 0 {
		style.Margin = 30
	}
	if style.Position == Center {
		style.Position = BottomCenter
	}
	if strings.Contains(style.Format, "{pages}") {
		d.pdf.AliasNbPages(totalAlias)
	}
	d.over = append(d.over, func() {
		pdf := d.pdf
		pageW, pageH := pdf.GetPageSize()
		text := pageLabel(style.Format, pdf.PageNo())
		pdf.SetFont(style.Family, "", style.FontSize)
		pdf.SetTextColor(style.Color.R, style.Color.G, style.Color.B)
		_, unitSize := pdf.GetFontSize()
		textW := pdf.GetStringWidth(text)
		x, y := calculatePosition(style.Position, pageW, pageH, textW, unitSize, style.Margin)
		pdf.Text(x, y, text)
	})
}

func pageLabel(format string, page int) string {
	s := strings.ReplaceAll(format, "{page}", strconv.Itoa(page))
	return strings.ReplaceAll(s, "{pages}", totalAlias)
}
