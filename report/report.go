// Package report ties composition and delivery together: it turns a form
// snapshot into a PDF named after the patient and the day it was produced.
package report

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/lvillar/medreport/compose"
	"github.com/lvillar/medreport/doctpl"
	"github.com/lvillar/medreport/export"
	"github.com/lvillar/medreport/form"
)

// Composer builds a document from form data. *compose.Composer implements it.
type Composer interface {
	Compose(ctx context.Context, data form.FormData) (*doctpl.Document, error)
}

// Deliverer hands a rendered report to the user. *export.Exporter
// implements it.
type Deliverer interface {
	DeliverBytes(ctx context.Context, data []byte, filename string) (export.Delivery, error)
}

// Service generates reports.
type Service struct {
	composer   Composer
	deliverer  Deliverer
	reportType string
	now        func() time.Time
	log        *zap.Logger
	renderOpts []doctpl.Option
}

// Option configures a Service.
type Option func(*Service)

// WithReportType sets the filename prefix. The default is
// export.DefaultReportType.
func WithReportType(kind string) Option {
	return func(s *Service) {
		if kind != "" {
			s.reportType = kind
		}
	}
}

// WithClock sets the time source used for the filename date.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithRenderOptions passes options through to the renderer.
func WithRenderOptions(opts ...doctpl.Option) Option {
	return func(s *Service) {
		s.renderOpts = append(s.renderOpts, opts...)
	}
}

// New returns a Service. deliverer may be nil when only Build is used.
func New(composer Composer, deliverer Deliverer, opts ...Option) *Service {
	s := &Service{
		composer:   composer,
		deliverer:  deliverer,
		reportType: export.DefaultReportType,
		now:        time.Now,
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Build composes and renders the report for data and returns the PDF
// together with its filename.
func (s *Service) Build(ctx context.Context, data form.FormData) ([]byte, string, error) {
	doc, err := s.composer.Compose(ctx, data)
	if err != nil {
		return nil, "", err
	}
	pdf, err := export.Render(doc, s.renderOpts...)
	if err != nil {
		return nil, "", err
	}
	name := s.Filename(data)
	s.log.Debug("report rendered", zap.String("filename", name), zap.Int("bytes", len(pdf)))
	return pdf, name, nil
}

// Generate builds the report for data and delivers it.
func (s *Service) Generate(ctx context.Context, data form.FormData) (export.Delivery, error) {
	pdf, name, err := s.Build(ctx, data)
	if err != nil {
		s.log.Error("report generation failed", zap.Error(err))
		return export.Delivery{}, err
	}
	d, err := s.deliverer.DeliverBytes(ctx, pdf, name)
	if err != nil {
		s.log.Error("report delivery failed", zap.String("filename", name), zap.Error(err))
		return export.Delivery{}, err
	}
	return d, nil
}

// Filename returns the file name the report for data is delivered under.
func (s *Service) Filename(data form.FormData) string {
	return export.Filename(s.reportType, data.PatientName, s.now())
}

var _ Composer = (*compose.Composer)(nil)
var _ Deliverer = (*export.Exporter)(nil)
