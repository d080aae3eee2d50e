// Package export renders a composed document to PDF bytes and hands the
// artifact to the user: it opens the PDF in the system viewer and, when no
// viewer can be started, saves it into a downloads directory instead.
//
// The temporary file given to the viewer is kept for a grace period so the
// viewer has time to read it, and removed afterwards.
package export

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/lvillar/medreport"
	"github.com/lvillar/medreport/doctpl"
)

// DefaultGrace is how long a delivered temporary file is kept.
const DefaultGrace = 30 * time.Second

// Delivery methods.
const (
	MethodViewer   = "viewer"
	MethodDownload = "download"
)

// Delivery describes where a rendered report ended up.
type Delivery struct {
	Method   string `json:"method"`   // "viewer" or "download"
	Path     string `json:"path"`     // file opened or saved
	Filename string `json:"filename"` // suggested name of the artifact
	Size     int    `json:"size"`     // bytes written
}

// Render renders doc into memory. Any failure is a *medreport.RenderError.
func Render(doc *doctpl.Document, opts ...doctpl.Option) ([]byte, error) {
	var buf bytes.Buffer
	if err := doctpl.RenderDocument(&buf, doc, opts...); err != nil {
		return nil, &medreport.RenderError{Op: "render", Err: err}
	}
	if buf.Len() == 0 {
		return nil, &medreport.RenderError{Op: "render", Err: medreport.ErrEmptyDocument}
	}
	return buf.Bytes(), nil
}

// Timer is a pending cleanup.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f to run after d.
type AfterFunc func(d time.Duration, f func()) Timer

// SystemClock schedules with time.AfterFunc.
func SystemClock(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Exporter delivers rendered reports.
type Exporter struct {
	viewer     Viewer
	downloads  string
	tempDir    string
	grace      time.Duration
	after      AfterFunc
	log        *zap.Logger
	renderOpts []doctpl.Option
}

// New returns an Exporter. Without options it uses the system viewer,
// saves downloads into the user's Downloads directory and removes
// temporary files after DefaultGrace.
func New(opts ...Option) *Exporter {
	e := &Exporter{
		viewer:    NewSystemViewer(),
		downloads: DefaultDownloadDir(),
		grace:     DefaultGrace,
		after:     SystemClock,
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// DefaultDownloadDir returns ~/Downloads, or the working directory when the
// home directory is unknown.
func DefaultDownloadDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, "Downloads")
}

// Deliver renders doc and opens it in the viewer, falling back to saving it
// under filename in the downloads directory. The temporary file is removed
// once the grace period has passed, never before.
func (e *Exporter) Deliver(ctx context.Context, doc *doctpl.Document, filename string) (Delivery, error) {
	data, err := Render(doc, e.renderOpts...)
	if err != nil {
		return Delivery{}, err
	}
	return e.DeliverBytes(ctx, data, filename)
}

// DeliverBytes delivers an already rendered PDF.
func (e *Exporter) DeliverBytes(ctx context.Context, data []byte, filename string) (Delivery, error) {
	if filename == "" {
		filename = DefaultReportType + ".pdf"
	}
	d := Delivery{Filename: filename, Size: len(data)}

	if e.viewer != nil {
		tmp, err := e.writeTemp(data)
		if err != nil {
			return Delivery{}, err
		}
		e.scheduleCleanup(tmp)

		err = e.viewer.Open(ctx, tmp)
		if err == nil {
			d.Method, d.Path = MethodViewer, tmp
			e.log.Info("report opened in viewer", zap.String("path", tmp), zap.Int("bytes", len(data)))
			return d, nil
		}
		e.log.Warn("viewer unavailable, saving report instead", zap.Error(err))
	}

	path, err := e.save(data, filename)
	if err != nil {
		return Delivery{}, err
	}
	d.Method, d.Path = MethodDownload, path
	e.log.Info("report saved", zap.String("path", path), zap.Int("bytes", len(data)))
	return d, nil
}

func (e *Exporter) writeTemp(data []byte) (string, error) {
	f, err := os.CreateTemp(e.tempDir, "medreport-*.pdf")
	if err != nil {
		return "", &medreport.RenderError{Op: "write", Err: err}
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", &medreport.RenderError{Op: "write", Err: err}
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", &medreport.RenderError{Op: "write", Err: err}
	}
	return f.Name(), nil
}

func (e *Exporter) scheduleCleanup(path string) {
	e.after(e.grace, func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			e.log.Warn("removing temporary report", zap.String("path", path), zap.Error(err))
			return
		}
		e.log.Debug("temporary report removed", zap.String("path", path))
	})
}

// save writes data into the downloads directory without replacing an
// existing file: "name.pdf" becomes "name (1).pdf" and so on.
func (e *Exporter) save(data []byte, filename string) (string, error) {
	if err := os.MkdirAll(e.downloads, 0o755); err != nil {
		return "", &medreport.RenderError{Op: "download", Err: err}
	}
	ext := filepath.Ext(filename)
	stem := filename[:len(filename)-len(ext)]
	for i := 0; i < 100; i++ {
		name := filename
		if i > 0 {
			name = fmt.Sprintf("%s (%d)%s", stem, i, ext)
		}
		path := filepath.Join(e.downloads, name)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if os.IsExist(err) {
			continue
		}
		if err != nil {
			return "", &medreport.RenderError{Op: "download", Err: err}
		}
		if _, err := f.Write(data); err != nil {
			f.Close()
			return "", &medreport.RenderError{Op: "download", Err: err}
		}
		if err := f.Close(); err != nil {
			return "", &medreport.RenderError{Op: "download", Err: err}
		}
		return path, nil
	}
	return "", &medreport.RenderError{Op: "download", Err: fmt.Errorf("no free name for %s in %s", filename, e.downloads)}
}
