package compose_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/lvillar/medreport"
	"github.com/lvillar/medreport/assets"
	"github.com/lvillar/medreport/compose"
	"github.com/lvillar/medreport/doctpl"
	"github.com/lvillar/medreport/form"
	"github.com/lvillar/medreport/imaging"
	"github.com/lvillar/medreport/layout"
)

// bundleProvider serves a fixed bundle or error.
type bundleProvider struct {
	bundle *assets.Bundle
	err    error
}

func (p bundleProvider) EnsureReady(context.Context) (*assets.Bundle, error) {
	return p.bundle, p.err
}

// countingNormalizer wraps the real normalizer and counts calls.
type countingNormalizer struct {
	calls atomic.Int32
	next  compose.ImageNormalizer
}

func (n *countingNormalizer) Thumbnail(ctx context.Context, src imaging.Source, side int) (imaging.Thumbnail, error) {
	n.calls.Add(1)
	return n.next.Thumbnail(ctx, src, side)
}

func embeddedCache() *assets.Cache {
	return assets.NewCache(assets.NewRouter(nil))
}

func pngBytes(t testing.TB, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.NRGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func jpegBytes(t testing.TB, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func scenarioForm() form.FormData {
	return form.FormData{
		ConsultantName: "Dr. A",
		PatientName:    "John Doe",
		PatientID:      "P-001",
		EntryDate:      "2024-01-15",
		Currency:       "USD",
		FirstVisit: form.Visit{
			VisitDate: "2024-02-01",
			VisitDays: form.Num(3),
			ServiceEntries: []form.ServiceEntry{
				form.NewServiceEntry("dental_implant", "", form.Num(500), form.Num(2)),
			},
		},
	}
}

// walk visits every element of doc, depth first.
func walk(doc *doctpl.Document, fn func(doctpl.Element)) {
	var visit func([]doctpl.Element)
	visit = func(elems []doctpl.Element) {
		for _, e := range elems {
			fn(e)
			visit(e.Children)
		}
	}
	for _, p := range doc.Pages {
		visit(p.Elements)
	}
}

// texts returns every string drawn by doc: element text and cell text.
func texts(doc *doctpl.Document) []string {
	var out []string
	walk(doc, func(e doctpl.Element) {
		if e.Text != "" {
			out = append(out, e.Text)
		}
		for _, row := range e.Rows {
			for _, c := range row {
				if c.Text != "" {
					out = append(out, c.Text)
				}
			}
		}
	})
	return out
}

func hasText(doc *doctpl.Document, s string) bool {
	for _, t := range texts(doc) {
		if t == s {
			return true
		}
	}
	return false
}

// servicesTables returns the service tables in report order.
func servicesTables(doc *doctpl.Document) []doctpl.Element {
	var out []doctpl.Element
	walk(doc, func(e doctpl.Element) {
		if e.Type == doctpl.TypeTable && len(e.Columns) == 5 {
			out = append(out, e)
		}
	})
	return out
}

func gallery(doc *doctpl.Document) (doctpl.Element, bool) {
	var g doctpl.Element
	var found bool
	walk(doc, func(e doctpl.Element) {
		if e.Type == doctpl.TypeStack && e.Unbreakable {
			g, found = e, true
		}
	})
	return g, found
}

func galleryImages(g doctpl.Element) []string {
	var names []string
	for _, child := range g.Children {
		if child.Type != doctpl.TypeTable {
			continue
		}
		for _, row := range child.Rows {
			for _, c := range row {
				if c.Image != nil {
					names = append(names, c.Image.Name)
				}
			}
		}
	}
	return names
}

func grandTotal(doc *doctpl.Document) string {
	var total string
	walk(doc, func(e doctpl.Element) {
		if e.Type == doctpl.TypeColumns && len(e.Children) == 2 && e.Children[0].Text == layout.GrandTotalLabel {
			total = e.Children[1].Text
		}
	})
	return total
}

func TestComposeScenario(t *testing.T) {
	c := compose.New(embeddedCache(), nil)
	doc, err := c.Compose(context.Background(), scenarioForm())
	require.NoError(t, err)

	tables := servicesTables(doc)
	require.Len(t, tables, 1)
	rows := tables[0].Rows[tables[0].HeaderRows:]
	require.Len(t, rows, 1)
	assert.Equal(t, "1000 USD", rows[0][4].Text)
	assert.Equal(t, "Dental Implant", rows[0][0].Text)

	assert.Equal(t, "1000 USD", grandTotal(doc))
	assert.False(t, hasText(doc, layout.SecondVisitTitle))
	_, ok := gallery(doc)
	assert.False(t, ok)

	assert.Equal(t, layout.ReportTitle, doc.Title)
	assert.Equal(t, "Medical report for John Doe", doc.Subject)
	assert.Equal(t, *layout.Margins(), *doc.Margin)
	assert.Len(t, doc.Fonts, 2)
	assert.Len(t, doc.Background, 2)
}

func TestComposeContentOrder(t *testing.T) {
	data := scenarioForm()
	data.SecondVisit = form.SlotOf(form.Visit{VisitDate: "2024-03-01"})
	data.MedicalTreatmentPlan = "Two implants"
	data.MedicalNotes = "No allergies"
	data.UploadedImages = []form.Upload{{Name: "a.png", Data: pngBytes(t, 40, 20)}}

	doc, err := compose.New(embeddedCache(), nil, compose.WithReference("none")).
		Compose(context.Background(), data)
	require.NoError(t, err)

	var order []string
	for _, e := range doc.Pages[0].Elements {
		switch {
		case e.Type == doctpl.TypePageBreak:
			order = append(order, "break")
		case e.Type == doctpl.TypeLine:
			order = append(order, "divider")
		case e.Type == doctpl.TypeStack && e.Unbreakable:
			order = append(order, "gallery")
		case e.Type == doctpl.TypeColumns:
			order = append(order, "total")
		case e.Type == doctpl.TypeStack:
			order = append(order, e.Children[0].Text)
		case e.Type == doctpl.TypeTable:
			order = append(order, e.Rows[0][0].Text)
		default:
			order = append(order, e.Text)
		}
	}
	assert.Equal(t, []string{
		layout.ReportTitle,
		layout.PersonalInfoTitle,
		"break",
		layout.FirstVisitTitle,
		layout.FirstServicesTitle,
		layout.SecondVisitTitle,
		layout.SecondServicesTitle,
		"total",
		layout.TreatmentPlanTitle,
		"divider",
		layout.NotesTitle,
		layout.AboutTitle,
		"gallery",
	}, order)
}

func TestComposeSecondVisitTotals(t *testing.T) {
	data := scenarioForm()
	data.SecondVisit = form.SlotOf(form.Visit{
		ServiceEntries: []form.ServiceEntry{
			form.NewServiceEntry("veneer_lens", "", form.Num(100), form.Num(3)),
			form.NewServiceEntry("veneer_lens", "", form.Num(100), form.Number{}),
		},
	})
	doc, err := compose.New(embeddedCache(), nil).Compose(context.Background(), data)
	require.NoError(t, err)

	assert.True(t, hasText(doc, layout.SecondVisitTitle))
	assert.Len(t, servicesTables(doc), 2)
	assert.Equal(t, "1300 USD", grandTotal(doc))
}

func TestComposeEmptySecondVisitIsAbsent(t *testing.T) {
	data := scenarioForm()
	data.SecondVisit = form.SlotOf(form.Visit{ServiceEntries: []form.ServiceEntry{{ID: "x"}}})

	doc, err := compose.New(embeddedCache(), nil).Compose(context.Background(), data)
	require.NoError(t, err)
	assert.False(t, hasText(doc, layout.SecondVisitTitle))
	assert.Len(t, servicesTables(doc), 1)
}

func TestComposeAssetFailure(t *testing.T) {
	loadErr := &medreport.AssetLoadError{Asset: "font-regular", Err: errors.New("404")}
	c := compose.New(bundleProvider{err: loadErr}, nil)

	_, err := c.Compose(context.Background(), scenarioForm())
	require.Error(t, err)

	var rae *medreport.ReportAssemblyError
	require.ErrorAs(t, err, &rae)
	assert.Equal(t, "assets", rae.Stage)

	var ale *medreport.AssetLoadError
	require.ErrorAs(t, err, &ale)
	assert.Equal(t, "font-regular", ale.Asset)
}

func TestComposeSkipsBadImages(t *testing.T) {
	data := scenarioForm()
	data.UploadedImages = []form.Upload{
		{Name: "wide.png", Data: pngBytes(t, 300, 100)},
		{Name: "broken.png", Data: []byte("definitely not an image")},
		{Name: "tall.jpg", Data: jpegBytes(t, 50, 120)},
		{Name: "missing.png", URL: "/nonexistent/missing.png"},
		{Name: "square.png", Data: pngBytes(t, 64, 64)},
	}
	doc, err := compose.New(embeddedCache(), nil, compose.WithGalleryMax(5)).
		Compose(context.Background(), data)
	require.NoError(t, err)

	g, ok := gallery(doc)
	require.True(t, ok)
	// order of the surviving images is kept
	assert.Equal(t, []string{"upload-1", "upload-3", "upload-5"}, galleryImages(g))

	var buf bytes.Buffer
	require.NoError(t, doctpl.RenderDocument(&buf, doc))
}

func TestComposeTruncatesUploads(t *testing.T) {
	data := scenarioForm()
	for i := 0; i < 6; i++ {
		data.UploadedImages = append(data.UploadedImages, form.Upload{Data: pngBytes(t, 30, 30)})
	}
	norm := &countingNormalizer{next: imaging.NewNormalizer(nil, nil)}
	doc, err := compose.New(embeddedCache(), norm).Compose(context.Background(), data)
	require.NoError(t, err)

	assert.EqualValues(t, 6, norm.calls.Load())
	g, ok := gallery(doc)
	require.True(t, ok)
	assert.Len(t, galleryImages(g), 4)
	assert.True(t, hasText(doc, "Showing 4 of 6 uploaded images"))
}

func TestComposeBadImageLeavesNoCaption(t *testing.T) {
	data := scenarioForm()
	data.UploadedImages = []form.Upload{
		{Name: "ok.png", Data: pngBytes(t, 40, 40)},
		{Name: "nope.png", Data: []byte("nope")},
	}
	doc, err := compose.New(embeddedCache(), nil).Compose(context.Background(), data)
	require.NoError(t, err)

	g, ok := gallery(doc)
	require.True(t, ok)
	assert.Equal(t, []string{"upload-1"}, galleryImages(g))
	for _, s := range texts(doc) {
		assert.NotContains(t, s, "Showing")
	}
}

func TestComposeLogsNormalizedThumbnails(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	data := scenarioForm()
	data.UploadedImages = []form.Upload{{Name: "a.png", Data: pngBytes(t, 40, 40)}}

	_, err := compose.New(embeddedCache(), nil, compose.WithLogger(zap.New(core)), compose.WithThumbnailSide(32)).
		Compose(context.Background(), data)
	require.NoError(t, err)

	entries := logs.FilterMessage("image normalized").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "a.png", entries[0].ContextMap()["image"])
	assert.Equal(t, "32x32 png", entries[0].ContextMap()["thumbnail"])
}

func TestComposeBadImageMakesRoomForLaterUpload(t *testing.T) {
	data := scenarioForm()
	data.UploadedImages = []form.Upload{
		{Data: pngBytes(t, 30, 30)},
		{Data: []byte("broken")},
		{Data: pngBytes(t, 30, 30)},
		{Data: pngBytes(t, 30, 30)},
		{Data: pngBytes(t, 30, 30)},
	}
	doc, err := compose.New(embeddedCache(), nil).Compose(context.Background(), data)
	require.NoError(t, err)

	g, ok := gallery(doc)
	require.True(t, ok)
	assert.Equal(t, []string{"upload-1", "upload-3", "upload-4", "upload-5"}, galleryImages(g))
	for _, s := range texts(doc) {
		assert.NotContains(t, s, "Showing")
	}
}

func TestComposeThumbnailsAreSquare(t *testing.T) {
	data := scenarioForm()
	data.UploadedImages = []form.Upload{{Data: pngBytes(t, 400, 90)}}

	doc, err := compose.New(embeddedCache(), nil, compose.WithThumbnailSide(64)).
		Compose(context.Background(), data)
	require.NoError(t, err)

	g, _ := gallery(doc)
	img := g.Children[1].Rows[0][0].Image
	require.NotNil(t, img)
	cfg, err := png.DecodeConfig(bytes.NewReader(img.Data))
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.Width)
	assert.Equal(t, 64, cfg.Height)
	assert.Equal(t, layout.GallerySide, img.Width)
}

func TestComposeCanceled(t *testing.T) {
	bundle, err := embeddedCache().EnsureReady(context.Background())
	require.NoError(t, err)

	data := scenarioForm()
	data.UploadedImages = []form.Upload{{Data: pngBytes(t, 10, 10)}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = compose.New(bundleProvider{bundle: bundle}, nil).Compose(ctx, data)

	var rae *medreport.ReportAssemblyError
	require.ErrorAs(t, err, &rae)
	assert.Equal(t, "images", rae.Stage)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestComposeWithoutOptionalAssets(t *testing.T) {
	bundle := assets.NewBundle(map[assets.Name][]byte{})
	doc, err := compose.New(bundleProvider{bundle: bundle}, nil).Compose(context.Background(), scenarioForm())
	require.NoError(t, err)

	assert.Empty(t, doc.Fonts)
	assert.Empty(t, doc.Background)

	var buf bytes.Buffer
	require.NoError(t, doctpl.RenderDocument(&buf, doc))
}

func TestComposeBannersAndOptions(t *testing.T) {
	bundle := assets.NewBundle(map[assets.Name][]byte{
		assets.TopBanner:    pngBytes(t, 515, 60),
		assets.BottomBanner: []byte("<svg/>"),
	})
	fixed := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	c := compose.New(bundleProvider{bundle: bundle}, nil,
		compose.WithTitle("Intake Summary"),
		compose.WithClinic("Dental Clinic"),
		compose.WithWatermark("COPY"),
		compose.WithReference("pdf417"),
		compose.WithClock(func() time.Time { return fixed }),
	)
	data := scenarioForm()
	data.UploadedImages = []form.Upload{{Data: pngBytes(t, 20, 20)}}

	doc, err := c.Compose(context.Background(), data)
	require.NoError(t, err)

	assert.Equal(t, "Intake Summary", doc.Title)
	assert.Equal(t, "Dental Clinic", doc.Author)
	assert.Equal(t, fixed, doc.Created)
	require.NotNil(t, doc.Watermark)
	assert.Equal(t, "COPY", doc.Watermark.Text)

	var banners, barcodes int
	walk(doc, func(e doctpl.Element) {
		if e.Type == doctpl.TypeImage && strings.HasPrefix(e.Image.Name, "banner-") {
			banners++
		}
		if e.Type == doctpl.TypeBarcode {
			barcodes++
			assert.Equal(t, "P-001|John Doe|2024-01-15", e.Barcode.Value)
		}
	})
	// the SVG bottom banner cannot be embedded and is left out
	assert.Equal(t, 1, banners)
	assert.Equal(t, 1, barcodes)
}

func TestComposedDocumentRenders(t *testing.T) {
	data := scenarioForm()
	data.PatientName = "Gülşen Öztürk"
	data.MedicalNotes = "Ağrı yok 😀"
	data.UploadedImages = []form.Upload{
		{Data: pngBytes(t, 120, 80)},
		{Data: jpegBytes(t, 80, 120)},
		{Data: pngBytes(t, 50, 50)},
	}
	doc, err := compose.New(embeddedCache(), nil).Compose(context.Background(), data)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, doctpl.RenderDocument(&buf, doc))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
}
