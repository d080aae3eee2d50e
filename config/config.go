// Package config loads medreport settings from defaults, an optional config
// file, MEDREPORT_* environment variables and command-line flags, in
// increasing order of precedence.
//
// Keys are dotted ("export.grace"); the matching environment variable
// replaces dots and dashes with underscores (MEDREPORT_EXPORT_GRACE).
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/lvillar/medreport/assets"
	"github.com/lvillar/medreport/export"
	"github.com/lvillar/medreport/layout"
)

// EnvPrefix prefixes every environment variable.
const EnvPrefix = "MEDREPORT"

// Config is the full set of settings.
type Config struct {
	Log struct {
		Level  string
		Format string
	}

	Assets struct {
		HTTPTimeout time.Duration
		// Locations overrides the location of a named asset. An empty
		// location leaves an optional asset out.
		Locations map[assets.Name]string
	}

	Report struct {
		Type          string
		Title         string
		Clinic        string
		AboutTitle    string
		AboutText     string
		Reference     string
		Watermark     string
		GalleryMax    int
		ThumbnailSide int
		Parallelism   int
	}

	Export struct {
		NoViewer    bool
		DownloadDir string
		TempDir     string
		Grace       time.Duration
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("assets.http-timeout", 30*time.Second)
	for _, src := range assets.DefaultSources() {
		v.SetDefault(locationKey(src.Name), src.Location)
	}

	v.SetDefault("report.type", export.DefaultReportType)
	v.SetDefault("report.title", layout.ReportTitle)
	v.SetDefault("report.clinic", "")
	v.SetDefault("report.about-title", layout.AboutTitle)
	v.SetDefault("report.about-text", layout.AboutText)
	v.SetDefault("report.reference", "qr")
	v.SetDefault("report.watermark", "")
	v.SetDefault("report.gallery-max", layout.GalleryMax)
	v.SetDefault("report.thumbnail-side", layout.ThumbnailSide)
	v.SetDefault("report.parallelism", 4)

	v.SetDefault("export.no-viewer", false)
	v.SetDefault("export.download-dir", export.DefaultDownloadDir())
	v.SetDefault("export.temp-dir", "")
	v.SetDefault("export.grace", export.DefaultGrace)
}

func locationKey(name assets.Name) string {
	return "assets." + string(name)
}

// Flags returns the command-line flags that override configuration keys.
func Flags(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.StringP("config", "c", "", "config file (yaml, json or toml)")
	fs.String("log.level", "info", "log level: debug, info, warn, error")
	fs.String("log.format", "json", "log format: json or console")
	fs.String("report.type", export.DefaultReportType, "report type used as the filename prefix")
	fs.String("report.clinic", "", "clinic name recorded as the document author")
	fs.String("report.reference", "qr", "reference code: qr, pdf417 or none")
	fs.String("report.watermark", "", "watermark text drawn on every page")
	fs.Bool("export.no-viewer", false, "always save into the download directory")
	fs.String("export.download-dir", "", "directory reports are saved into")
	fs.Duration("export.grace", export.DefaultGrace, "how long the temporary file is kept")
	return fs
}

// Load resolves the configuration. fs may be nil; only flags that were set
// on the command line override other sources. The "config" flag, when
// present, names a config file that must exist.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	var file string
	if fs != nil {
		var err error
		fs.VisitAll(func(f *pflag.Flag) {
			if err != nil || f.Name == "config" || !f.Changed {
				return
			}
			err = v.BindPFlag(f.Name, f)
		})
		if err != nil {
			return nil, fmt.Errorf("config: binding flags: %w", err)
		}
		if f := fs.Lookup("config"); f != nil {
			file = f.Value.String()
		}
	}

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", file, err)
		}
	} else {
		v.SetConfigName("medreport")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("config: %w", err)
			}
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	cfg.Log.Level = v.GetString("log.level")
	cfg.Log.Format = v.GetString("log.format")

	cfg.Assets.HTTPTimeout = v.GetDuration("assets.http-timeout")
	cfg.Assets.Locations = make(map[assets.Name]string)
	for _, src := range assets.DefaultSources() {
		cfg.Assets.Locations[src.Name] = v.GetString(locationKey(src.Name))
	}

	cfg.Report.Type = v.GetString("report.type")
	cfg.Report.Title = v.GetString("report.title")
	cfg.Report.Clinic = v.GetString("report.clinic")
	cfg.Report.AboutTitle = v.GetString("report.about-title")
	cfg.Report.AboutText = v.GetString("report.about-text")
	cfg.Report.Reference = v.GetString("report.reference")
	cfg.Report.Watermark = v.GetString("report.watermark")
	cfg.Report.GalleryMax = v.GetInt("report.gallery-max")
	cfg.Report.ThumbnailSide = v.GetInt("report.thumbnail-side")
	cfg.Report.Parallelism = v.GetInt("report.parallelism")

	cfg.Export.NoViewer = v.GetBool("export.no-viewer")
	cfg.Export.DownloadDir = v.GetString("export.download-dir")
	cfg.Export.TempDir = v.GetString("export.temp-dir")
	cfg.Export.Grace = v.GetDuration("export.grace")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that would otherwise fail late.
func (c *Config) Validate() error {
	switch c.Report.Reference {
	case "qr", "pdf417", "none":
	default:
		return fmt.Errorf("config: report.reference must be qr, pdf417 or none, got %q", c.Report.Reference)
	}
	if c.Report.GalleryMax < 1 || c.Report.GalleryMax > layout.GalleryMax {
		return fmt.Errorf("config: report.gallery-max must be between 1 and %d", layout.GalleryMax)
	}
	if c.Export.Grace <= 0 {
		return errors.New("config: export.grace must be positive")
	}
	if c.Assets.HTTPTimeout <= 0 {
		return errors.New("config: assets.http-timeout must be positive")
	}
	return nil
}

// Sources returns the asset sources with configured locations applied.
func (c *Config) Sources() []assets.Source {
	sources := assets.DefaultSources()
	for i, src := range sources {
		if loc, ok := c.Assets.Locations[src.Name]; ok {
			sources[i].Location = loc
		}
	}
	return sources
}
