package layout

import "github.com/lvillar/medreport/doctpl"

// Named text styles referenced by the builders.
const (
	StyleHeader      = "header"
	StyleBoxTitle    = "boxTitle"
	StyleTableHeader = "tableHeader"
	StyleLabel       = "label"
	StyleValue       = "value"
	StylePlaceholder = "placeholder"
)

// Page geometry, in points on A4.
const (
	PageSize     = "A4"
	HeaderHeight = 70.0  // height of the header underlay
	FooterHeight = 120.0 // height of the footer underlay
	SideMargin   = 20.0
	BandGap      = 16.0 // space kept between an underlay and the content
	BannerWidth  = 515.0
	BaseFontSize = 9.0
)

// Gallery geometry. Thumbnails are produced at ThumbnailSide pixels and
// drawn slightly smaller so that two rows and a banner fit on one page.
const (
	ThumbnailSide = 220
	GallerySide   = 215.0
	GalleryMax    = 4
)

// Margins returns the page margins that keep content clear of the header
// and footer underlays.
func Margins() *doctpl.Margin {
	return &doctpl.Margin{
		Left:   SideMargin,
		Top:    HeaderHeight + BandGap,
		Right:  SideMargin,
		Bottom: FooterHeight + BandGap,
	}
}

// Styles returns the text styles the builders refer to by name.
func Styles() map[string]doctpl.TextStyle {
	return map[string]doctpl.TextStyle{
		StyleHeader:      {Font: &doctpl.Font{Style: "B", Size: 16}},
		StyleBoxTitle:    {Font: &doctpl.Font{Style: "B", Size: 11}},
		StyleTableHeader: {Font: &doctpl.Font{Style: "B"}, Fill: doctpl.MustHex("#e3f2fd")},
		StyleLabel:       {Font: &doctpl.Font{Style: "B", Size: BaseFontSize}},
		StyleValue:       {Font: &doctpl.Font{Size: BaseFontSize}},
		StylePlaceholder: {Font: &doctpl.Font{Style: "B", Size: BaseFontSize}, Color: doctpl.MustHex("#999999")},
	}
}
