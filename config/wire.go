package config

import (
	"go.uber.org/zap"

	"github.com/lvillar/medreport/assets"
	"github.com/lvillar/medreport/compose"
	"github.com/lvillar/medreport/export"
	"github.com/lvillar/medreport/imaging"
	"github.com/lvillar/medreport/report"
)

// Components are the long-lived parts a command runs on.
type Components struct {
	Cache    *assets.Cache
	Composer *compose.Composer
	Exporter *export.Exporter
	Service  *report.Service
}

// Build wires the report pipeline from c.
func (c *Config) Build(logger *zap.Logger) *Components {
	if logger == nil {
		logger = zap.NewNop()
	}
	router := assets.NewRouter(assets.NewHTTPFetcher(c.Assets.HTTPTimeout, logger.Named("http")))
	cache := assets.NewCache(router,
		assets.WithSources(c.Sources()),
		assets.WithLogger(logger.Named("assets")),
	)

	composer := compose.New(cache, imaging.NewNormalizer(router, logger.Named("imaging")),
		compose.WithLogger(logger.Named("compose")),
		compose.WithTitle(c.Report.Title),
		compose.WithAbout(c.Report.AboutTitle, c.Report.AboutText),
		compose.WithClinic(c.Report.Clinic),
		compose.WithReference(c.Report.Reference),
		compose.WithWatermark(c.Report.Watermark),
		compose.WithGalleryMax(c.Report.GalleryMax),
		compose.WithThumbnailSide(c.Report.ThumbnailSide),
		compose.WithParallelism(c.Report.Parallelism),
	)

	opts := []export.Option{
		export.WithLogger(logger.Named("export")),
		export.WithDownloadDir(c.Export.DownloadDir),
		export.WithTempDir(c.Export.TempDir),
		export.WithGrace(c.Export.Grace),
	}
	if c.Export.NoViewer {
		opts = append(opts, export.WithViewer(nil))
	}
	exporter := export.New(opts...)

	service := report.New(composer, exporter,
		report.WithReportType(c.Report.Type),
		report.WithLogger(logger.Named("report")),
	)
	return &Components{Cache: cache, Composer: composer, Exporter: exporter, Service: service}
}
