package layout

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/lvillar/medreport/doctpl"
	"github.com/lvillar/medreport/form"
)

// Section titles.
const (
	ReportTitle         = "Medical Form Report"
	PersonalInfoTitle   = "Personal Information"
	FirstVisitTitle     = "First Visit Information"
	FirstServicesTitle  = "First Visit Service Entries"
	SecondVisitTitle    = "Second Visit Information"
	SecondServicesTitle = "Second Visit Service Entries"
	TreatmentPlanTitle  = "Medical Treatment Plan"
	NotesTitle          = "Medical Notes"
	ExternalLinkTitle   = "External Link"
	AboutTitle          = "About the Clinic"
	GalleryTitle        = "Uploaded Images"
	GrandTotalLabel     = "Grand Total"
	NoEntriesText       = "No service entries"
)

// AboutText is the default body of the about box.
const AboutText = "At DENTAL CLINIC, we are committed to providing the highest standards of " +
	"quality, expertise, and healthcare, delivered by the most experienced medical and " +
	"administrative staff. We offer cosmetic medical services by a team of the best " +
	"doctors in the field of aesthetic medicine in Turkey."

var serviceHeaders = []string{"Service Name", "Service Type", "Price", "Quantity", "Total"}

// Title returns the centered report heading.
func Title(text string) doctpl.Element {
	return doctpl.Element{
		Type:       doctpl.TypeText,
		Text:       text,
		Style:      StyleHeader,
		Align:      "C",
		SpaceAfter: 6,
	}
}

// Banner returns a centered full-width banner image, or an empty element
// when img is nil.
func Banner(img *doctpl.Image) doctpl.Element {
	if img == nil || len(img.Data) == 0 {
		return doctpl.Empty()
	}
	return doctpl.Element{
		Type:        doctpl.TypeImage,
		Image:       &doctpl.Image{Name: img.Name, Data: img.Data, Width: BannerWidth},
		Align:       "C",
		SpaceBefore: 6,
		SpaceAfter:  10,
	}
}

// PageBreak starts the following content on a new page.
func PageBreak() doctpl.Element {
	return doctpl.Element{Type: doctpl.TypePageBreak}
}

// fact returns a "label : value" cell. Empty values are printed as the
// placeholder in placeholder style.
func fact(label, value string) doctpl.Cell {
	c := doctpl.Cell{Label: label, Value: value, LabelStyle: StyleLabel, ValueStyle: StyleValue}
	if strings.TrimSpace(value) == "" || value == Placeholder {
		c.Value = Placeholder
		c.ValueStyle = StylePlaceholder
	}
	return c
}

func titleCell(title string, span int) doctpl.Cell {
	return doctpl.Cell{Text: title, Style: StyleBoxTitle, Colspan: span}
}

// PersonalInfoBox lays out the personal-information fields as label/value
// pairs, two per row, under a spanning title.
func PersonalInfoBox(data form.FormData) doctpl.Element {
	rows := [][]doctpl.Cell{{titleCell(PersonalInfoTitle, 2)}}
	fields := form.PersonalFields
	for i := 0; i < len(fields); i += 2 {
		row := []doctpl.Cell{fact(fields[i].Label, data.DisplayValue(fields[i]))}
		if i+1 < len(fields) {
			row = append(row, fact(fields[i+1].Label, data.DisplayValue(fields[i+1])))
		} else {
			row = append(row, doctpl.Cell{Blank: true})
		}
		rows = append(rows, row)
	}
	return doctpl.Element{
		Type:        doctpl.TypeTable,
		Layout:      doctpl.LayoutSoftBox,
		Columns:     []doctpl.TableColumn{{}, {}},
		Rows:        rows,
		SpaceBefore: 6,
		SpaceAfter:  10,
	}
}

// VisitBox lays out the date and day count of a visit.
func VisitBox(title string, v form.Visit) doctpl.Element {
	return doctpl.Element{
		Type:    doctpl.TypeTable,
		Layout:  doctpl.LayoutSoftBox,
		Columns: []doctpl.TableColumn{{}, {}},
		Rows: [][]doctpl.Cell{
			{titleCell(title, 2)},
			{fact("Visit Date", v.VisitDate), fact("Visit Days", v.VisitDays.String())},
		},
		SpaceBefore: 6,
		SpaceAfter:  8,
	}
}

// ServicesBox lays out one row per service entry. The title and column
// header rows repeat when the table continues on a new page.
func ServicesBox(title string, entries []form.ServiceEntry, currency string) doctpl.Element {
	header := make([]doctpl.Cell, len(serviceHeaders))
	for i, h := range serviceHeaders {
		header[i] = doctpl.Cell{Text: h, Style: StyleTableHeader, Align: "C"}
	}
	rows := [][]doctpl.Cell{titleRow(title, len(serviceHeaders)), header}

	for _, e := range entries {
		rows = append(rows, []doctpl.Cell{
			{Text: ServiceLabel(e.ServiceName), Align: "C"},
			{Text: AsText(e.ServiceType), Align: "C"},
			{Text: Money(e.Price, currency), Align: "C"},
			{Text: NumberText(e.Quantity), Align: "C"},
			{Text: LineTotalText(e, currency), Align: "C"},
		})
	}
	if len(entries) == 0 {
		rows = append(rows, []doctpl.Cell{{
			Text:    NoEntriesText,
			Style:   StylePlaceholder,
			Align:   "C",
			Colspan: len(serviceHeaders),
		}})
	}

	return doctpl.Element{
		Type:   doctpl.TypeTable,
		Layout: doctpl.LayoutSoftBox,
		Columns: []doctpl.TableColumn{
			{}, {}, {Width: 55}, {Width: 55}, {Width: 60},
		},
		HeaderRows:  2,
		Rows:        rows,
		SpaceBefore: 4,
		SpaceAfter:  8,
	}
}

func titleRow(title string, span int) []doctpl.Cell {
	return []doctpl.Cell{titleCell(title, span)}
}

// GrandTotal returns the right-aligned "Grand Total" line.
func GrandTotal(total decimal.Decimal, currency string) doctpl.Element {
	return doctpl.Element{
		Type: doctpl.TypeColumns,
		Gap:  8,
		Children: []doctpl.Element{
			{Type: doctpl.TypeText, Text: GrandTotalLabel, Style: StyleLabel, Align: "R"},
			{Type: doctpl.TypeText, Text: Amount(total, currency), Style: StyleValue, Align: "R"},
		},
		SpaceBefore: 6,
		SpaceAfter:  6,
	}
}

// NoteBox returns a titled block of free text. Blank text yields an empty
// element rather than a titled empty box.
func NoteBox(title, text string) doctpl.Element {
	if AsText(text) == Placeholder {
		return doctpl.Empty()
	}
	return doctpl.Element{
		Type: doctpl.TypeStack,
		Children: []doctpl.Element{
			{Type: doctpl.TypeText, Text: title, Style: StyleBoxTitle, SpaceAfter: 4},
			{Type: doctpl.TypeParagraph, Text: text, Style: StyleValue},
		},
		SpaceBefore: 8,
		SpaceAfter:  8,
	}
}

// Divider returns a thin gray rule. A width of 0 spans the content box.
func Divider(width float64) doctpl.Element {
	return doctpl.Element{
		Type:        doctpl.TypeLine,
		Width:       width,
		LineWidth:   0.5,
		Color:       doctpl.MustHex("#cccccc"),
		SpaceBefore: 4,
		SpaceAfter:  4,
	}
}

// AboutBox returns a single-column box with a title and body text.
func AboutBox(title, text string) doctpl.Element {
	return doctpl.Element{
		Type:    doctpl.TypeTable,
		Layout:  doctpl.LayoutSoftBox,
		Columns: []doctpl.TableColumn{{}},
		Rows: [][]doctpl.Cell{
			{titleCell(title, 1)},
			{{Text: text, Style: StyleValue, Align: "L"}},
		},
		SpaceBefore: 6,
	}
}

// Gallery arranges up to limit thumbnails two per row under a title, followed
// by the optional banner. The whole block is kept on one page. When images
// has more than limit entries a caption says how many are shown. No images
// yields an empty element.
func Gallery(images []doctpl.Image, banner *doctpl.Image, limit int) doctpl.Element {
	total := len(images)
	if limit > 0 && len(images) > limit {
		images = images[:limit]
	}
	if len(images) == 0 {
		return doctpl.Empty()
	}

	stack := []doctpl.Element{
		{Type: doctpl.TypeText, Text: GalleryTitle, Style: StyleBoxTitle, SpaceBefore: 6, SpaceAfter: 6},
	}
	if total > len(images) {
		stack = append(stack, doctpl.Element{
			Type:       doctpl.TypeText,
			Text:       fmt.Sprintf("Showing %d of %d uploaded images", len(images), total),
			Style:      StylePlaceholder,
			SpaceAfter: 4,
		})
	}
	for i := 0; i < len(images); i += 2 {
		row := []doctpl.Cell{thumbCell(images[i])}
		if i+1 < len(images) {
			row = append(row, thumbCell(images[i+1]))
		} else {
			row = append(row, doctpl.Cell{Blank: true})
		}
		stack = append(stack, doctpl.Element{
			Type:    doctpl.TypeTable,
			Layout:  doctpl.LayoutNoBorders,
			Columns: []doctpl.TableColumn{{}, {}},
			Rows:    [][]doctpl.Cell{row},
		})
	}
	if banner != nil && len(banner.Data) > 0 {
		stack = append(stack, doctpl.Element{
			Type:        doctpl.TypeImage,
			Image:       &doctpl.Image{Name: banner.Name, Data: banner.Data, Width: BannerWidth},
			Align:       "C",
			SpaceBefore: 10,
		})
	}

	return doctpl.Element{
		Type:        doctpl.TypeStack,
		Unbreakable: true,
		Children:    stack,
		SpaceBefore: 8,
	}
}

func thumbCell(img doctpl.Image) doctpl.Cell {
	if img.Width == 0 {
		img.Width = GallerySide
	}
	if img.Height == 0 {
		img.Height = img.Width
	}
	return doctpl.Cell{Image: &img, Align: "C"}
}

// ReferenceValue returns the machine-readable report reference: patient id,
// patient name and entry date joined by "|". It is empty when all three are.
func ReferenceValue(data form.FormData) string {
	parts := []string{
		strings.TrimSpace(data.PatientID),
		strings.TrimSpace(data.PatientName),
		strings.TrimSpace(data.EntryDate),
	}
	if parts[0] == "" && parts[1] == "" && parts[2] == "" {
		return ""
	}
	return strings.Join(parts, "|")
}

// ReferenceCode returns a barcode carrying value in the given symbology
// ("qr" or "pdf417"). "none", an unknown kind or an empty value yields an
// empty element.
func ReferenceCode(value, kind string) doctpl.Element {
	kind = strings.ToLower(kind)
	if value == "" || (kind != doctpl.BarcodeQR && kind != doctpl.BarcodePDF417) {
		return doctpl.Empty()
	}
	bc := &doctpl.Barcode{Kind: kind, Value: value}
	if kind == doctpl.BarcodeQR {
		bc.Width, bc.Height = 72, 72
	}
	return doctpl.Element{
		Type:        doctpl.TypeBarcode,
		Barcode:     bc,
		Align:       "R",
		SpaceBefore: 8,
	}
}
