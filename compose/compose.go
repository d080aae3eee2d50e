// Package compose assembles a complete, self-contained document from a
// form snapshot: it waits for the report assets, normalizes the uploaded
// pictures, computes totals and lays the sections out in report order.
//
// The resulting doctpl.Document carries every byte it needs (fonts,
// underlays, banners, thumbnails) and can be rendered later without
// further I/O.
package compose

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lvillar/medreport"
	"github.com/lvillar/medreport/assets"
	"github.com/lvillar/medreport/doctpl"
	"github.com/lvillar/medreport/form"
	"github.com/lvillar/medreport/imaging"
	"github.com/lvillar/medreport/layout"
)

// FontFamily is the family name the report font is embedded under.
const FontFamily = "Report"

// AssetProvider makes the report assets available. *assets.Cache
// implements it.
type AssetProvider interface {
	EnsureReady(ctx context.Context) (*assets.Bundle, error)
}

// ImageNormalizer turns an uploaded picture into a gallery thumbnail.
// *imaging.Normalizer implements it.
type ImageNormalizer interface {
	Thumbnail(ctx context.Context, src imaging.Source, side int) (imaging.Thumbnail, error)
}

// Composer builds report documents.
type Composer struct {
	assets AssetProvider
	images ImageNormalizer
	log    *zap.Logger

	thumbSide   int
	gallerySide float64
	galleryMax  int
	parallel    int

	title      string
	aboutTitle string
	aboutText  string
	clinic     string
	reference  string
	watermark  string
	now        func() time.Time
}

// New returns a Composer that loads assets from provider and thumbnails
// through normalizer. A nil normalizer accepts inline data and data URLs
// only.
func New(provider AssetProvider, normalizer ImageNormalizer, opts ...Option) *Composer {
	c := defaults()
	for _, opt := range opts {
		opt(&c)
	}
	c.assets = provider
	c.images = normalizer
	if c.images == nil {
		c.images = imaging.NewNormalizer(nil, c.log)
	}
	return &c
}

// Compose builds the report document for data. It fails with
// *medreport.ReportAssemblyError when the required assets cannot be loaded
// or ctx ends; pictures that cannot be used are logged and left out.
func (c *Composer) Compose(ctx context.Context, data form.FormData) (*doctpl.Document, error) {
	if c.assets == nil {
		return nil, &medreport.ReportAssemblyError{Stage: "assets", Err: medreport.ErrMissingAsset}
	}
	bundle, err := c.assets.EnsureReady(ctx)
	if err != nil {
		return nil, &medreport.ReportAssemblyError{Stage: "assets", Err: err}
	}

	thumbs, err := c.thumbnails(ctx, data.UploadedImages)
	if err != nil {
		return nil, &medreport.ReportAssemblyError{Stage: "images", Err: err}
	}

	second, hasSecondVisit := data.SecondVisit.Get()
	currency := data.Currency

	total := data.GrandTotal()

	var content []doctpl.Element
	add := func(elems ...doctpl.Element) {
		for _, e := range elems {
			if !e.IsEmpty() {
				content = append(content, e)
			}
		}
	}

	add(
		layout.Title(c.title),
		layout.Banner(c.banner(bundle, assets.TopBanner)),
		layout.PersonalInfoBox(data),
		layout.PageBreak(),
		layout.VisitBox(layout.FirstVisitTitle, data.FirstVisit),
		layout.ServicesBox(layout.FirstServicesTitle, data.FirstVisit.ServiceEntries, currency),
	)
	if hasSecondVisit {
		add(
			layout.VisitBox(layout.SecondVisitTitle, second),
			layout.ServicesBox(layout.SecondServicesTitle, second.ServiceEntries, currency),
		)
	}
	add(
		layout.GrandTotal(total, currency),
		layout.NoteBox(layout.TreatmentPlanTitle, data.MedicalTreatmentPlan),
		layout.Divider(layout.BannerWidth),
		layout.NoteBox(layout.NotesTitle, data.MedicalNotes),
		layout.NoteBox(layout.ExternalLinkTitle, data.ExternalLink),
		layout.AboutBox(c.aboutTitle, c.aboutText),
		layout.Gallery(thumbs, c.banner(bundle, assets.BottomBanner), c.galleryMax),
		layout.ReferenceCode(layout.ReferenceValue(data), c.reference),
	)

	doc := &doctpl.Document{
		Title:    c.title,
		Author:   c.clinic,
		Subject:  subject(data),
		Creator:  "medreport",
		Created:  c.now(),
		PageSize: layout.PageSize,
		Unit:     "pt",
		Margin:   layout.Margins(),
		Font:     &doctpl.Font{Size: layout.BaseFontSize},
		Styles:   layout.Styles(),
		PageNumbers: &doctpl.PageNumbers{
			Format: "Page {page} of {pages}",
			Margin: layout.FooterHeight + 4,
		},
		Pages: []doctpl.Page{{Elements: content}},
	}
	c.embedFonts(doc, bundle)
	c.underlay(doc, bundle)
	if c.watermark != "" {
		doc.Watermark = &doctpl.Watermark{Text: c.watermark}
	}

	c.log.Info("report composed",
		zap.Int("elements", len(content)),
		zap.Int("images", len(thumbs)),
		zap.Bool("second_visit", hasSecondVisit),
		zap.String("grand_total", layout.Amount(total, currency)),
	)
	return doc, nil
}

func subject(data form.FormData) string {
	if data.PatientName == "" {
		return "Medical report"
	}
	return "Medical report for " + data.PatientName
}

// thumbnails normalizes every upload in parallel, keeping their order.
// Failed images are logged and dropped; only the end of ctx is an error.
// The gallery shows the first galleryMax survivors.
func (c *Composer) thumbnails(ctx context.Context, uploads []form.Upload) ([]doctpl.Image, error) {
	results := make([]*doctpl.Image, len(uploads))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.parallel)
	for i, up := range uploads {
		i, up := i, up
		g.Go(func() error {
			img, err := c.thumbnail(gctx, i, up)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				c.log.Warn("image skipped", zap.String("image", up.Label(i)), zap.Error(err))
				return nil
			}
			results[i] = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []doctpl.Image
	for _, img := range results {
		if img != nil {
			out = append(out, *img)
		}
	}
	if len(out) > c.galleryMax {
		c.log.Warn("too many images, extra ones left out of the gallery",
			zap.Int("readable", len(out)),
			zap.Int("dropped", len(out)-c.galleryMax),
		)
	}
	return out, nil
}

func (c *Composer) thumbnail(ctx context.Context, i int, up form.Upload) (*doctpl.Image, error) {
	name := fmt.Sprintf("upload-%d", i+1)
	src := imaging.Source{Name: up.Label(i), Data: up.Data, URL: up.URL}
	thumb, err := c.images.Thumbnail(ctx, src, c.thumbSide)
	if err != nil {
		var ipe *medreport.ImageProcessError
		if errors.As(err, &ipe) {
			return nil, err
		}
		return nil, &medreport.ImageProcessError{Image: src.Name, Op: "normalize", Err: err}
	}
	c.log.Debug("image normalized", zap.String("image", src.Name), zap.String("thumbnail", thumb.Describe()))
	data := thumb.Data
	if !thumb.Square {
		if _, ok := imaging.Embeddable(data); !ok {
			flat, err := imaging.ToPNG(data)
			if err != nil {
				return nil, &medreport.ImageProcessError{Image: src.Name, Op: "embed", Err: medreport.ErrInvalidImage}
			}
			data = flat
		}
	}
	return &doctpl.Image{Name: name, Data: data, Width: c.gallerySide, Height: c.gallerySide}, nil
}

// banner returns the named banner as an embeddable image, or nil when it is
// absent or cannot be decoded.
func (c *Composer) banner(bundle *assets.Bundle, name assets.Name) *doctpl.Image {
	data, ok := bundle.Get(name)
	if !ok {
		return nil
	}
	if _, ok := imaging.Embeddable(data); !ok {
		flat, err := imaging.ToPNG(data)
		if err != nil {
			c.log.Warn("banner skipped", zap.String("asset", string(name)), zap.Error(err))
			return nil
		}
		data = flat
	}
	return &doctpl.Image{Name: string(name), Data: data}
}

func (c *Composer) embedFonts(doc *doctpl.Document, bundle *assets.Bundle) {
	regular, ok := bundle.Get(assets.FontRegular)
	if !ok {
		return
	}
	doc.Fonts = append(doc.Fonts, doctpl.FontFace{Family: FontFamily, Data: regular})
	if bold, ok := bundle.Get(assets.FontBold); ok {
		doc.Fonts = append(doc.Fonts, doctpl.FontFace{Family: FontFamily, Style: "B", Data: bold})
	}
	doc.Font.Family = FontFamily
}

func (c *Composer) underlay(doc *doctpl.Document, bundle *assets.Bundle) {
	if data, ok := bundle.Get(assets.HeaderBackground); ok {
		doc.Background = append(doc.Background, doctpl.Layer{
			Name:     string(assets.HeaderBackground),
			Data:     data,
			Position: "top",
			Height:   layout.HeaderHeight,
		})
	}
	if data, ok := bundle.Get(assets.FooterBackground); ok {
		doc.Background = append(doc.Background, doctpl.Layer{
			Name:     string(assets.FooterBackground),
			Data:     data,
			Position: "bottom",
			Height:   layout.FooterHeight,
		})
	}
}
