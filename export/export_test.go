package export

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lvillar/medreport"
	"github.com/lvillar/medreport/doctpl"
)

// fakeClock records scheduled cleanups and runs them on demand.
type fakeClock struct {
	mu      sync.Mutex
	pending []func()
	delays  []time.Duration
}

type fakeTimer struct{}

func (fakeTimer) Stop() bool { return true }

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = append(c.pending, f)
	c.delays = append(c.delays, d)
	return fakeTimer{}
}

func (c *fakeClock) fire() {
	c.mu.Lock()
	pending := c.pending
	c.pending = nil
	c.mu.Unlock()
	for _, f := range pending {
		f()
	}
}

func sampleDoc() *doctpl.Document {
	return &doctpl.Document{Pages: []doctpl.Page{{Elements: []doctpl.Element{
		{Type: doctpl.TypeText, Text: "Medical Form Report"},
	}}}}
}

func TestRender(t *testing.T) {
	data, err := Render(sampleDoc())
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(data[:4]))

	_, err = Render(nil)
	var re *medreport.RenderError
	require.ErrorAs(t, err, &re)
	assert.ErrorIs(t, err, medreport.ErrEmptyDocument)

	bad := &doctpl.Document{Pages: []doctpl.Page{{Elements: []doctpl.Element{{Type: "bogus"}}}}}
	_, err = Render(bad)
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "render", re.Op)
}

func TestDeliverOpensViewer(t *testing.T) {
	clock := &fakeClock{}
	var opened string
	viewer := ViewerFunc(func(_ context.Context, path string) error {
		opened = path
		return nil
	})
	downloads := t.TempDir()
	e := New(
		WithViewer(viewer),
		WithDownloadDir(downloads),
		WithTempDir(t.TempDir()),
		WithAfterFunc(clock.AfterFunc),
	)

	d, err := e.Deliver(context.Background(), sampleDoc(), "medical-report_John_Doe_2024-01-15.pdf")
	require.NoError(t, err)
	assert.Equal(t, MethodViewer, d.Method)
	assert.Equal(t, opened, d.Path)
	assert.Positive(t, d.Size)

	// the viewer's file survives until the grace period ends
	assert.FileExists(t, d.Path)
	require.Equal(t, []time.Duration{DefaultGrace}, clock.delays)
	clock.fire()
	assert.NoFileExists(t, d.Path)

	entries, err := os.ReadDir(downloads)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDeliverFallsBackToDownload(t *testing.T) {
	clock := &fakeClock{}
	viewer := ViewerFunc(func(context.Context, string) error {
		return medreport.ErrNoViewer
	})
	downloads := filepath.Join(t.TempDir(), "nested", "Downloads")
	tmpDir := t.TempDir()
	e := New(
		WithViewer(viewer),
		WithDownloadDir(downloads),
		WithTempDir(tmpDir),
		WithAfterFunc(clock.AfterFunc),
		WithGrace(time.Minute),
	)

	name := "medical-report_John_Doe_2024-01-15.pdf"
	d, err := e.Deliver(context.Background(), sampleDoc(), name)
	require.NoError(t, err)
	assert.Equal(t, MethodDownload, d.Method)
	assert.Equal(t, filepath.Join(downloads, name), d.Path)
	assert.FileExists(t, d.Path)

	// a second delivery does not overwrite the first
	d2, err := e.Deliver(context.Background(), sampleDoc(), name)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(downloads, "medical-report_John_Doe_2024-01-15 (1).pdf"), d2.Path)

	// temporary files are still pending cleanup
	temps, _ := filepath.Glob(filepath.Join(tmpDir, "medreport-*.pdf"))
	assert.Len(t, temps, 2)
	assert.Equal(t, []time.Duration{time.Minute, time.Minute}, clock.delays)
	clock.fire()
	temps, _ = filepath.Glob(filepath.Join(tmpDir, "medreport-*.pdf"))
	assert.Empty(t, temps)
	assert.FileExists(t, d.Path)
}

func TestDeliverWithoutViewer(t *testing.T) {
	clock := &fakeClock{}
	downloads := t.TempDir()
	e := New(WithViewer(nil), WithDownloadDir(downloads), WithAfterFunc(clock.AfterFunc))

	d, err := e.DeliverBytes(context.Background(), []byte("%PDF-1.3"), "")
	require.NoError(t, err)
	assert.Equal(t, MethodDownload, d.Method)
	assert.Equal(t, filepath.Join(downloads, "medical-report.pdf"), d.Path)
	assert.Empty(t, clock.pending)
}

func TestDeliverRenderFailure(t *testing.T) {
	e := New(WithViewer(ViewerFunc(func(context.Context, string) error {
		t.Fatal("viewer must not be called")
		return nil
	})), WithDownloadDir(t.TempDir()))

	_, err := e.Deliver(context.Background(), nil, "x.pdf")
	var re *medreport.RenderError
	require.ErrorAs(t, err, &re)
}

func TestFilename(t *testing.T) {
	date := time.Date(2024, 1, 15, 18, 30, 0, 0, time.UTC)
	cases := []struct {
		kind, name, want string
	}{
		{"", "John Doe", "medical-report_John_Doe_2024-01-15.pdf"},
		{"medical-report", "  John   Doe ", "medical-report_John_Doe_2024-01-15.pdf"},
		{"intake", "Gülşen Öztürk", "intake_Gülşen_Öztürk_2024-01-15.pdf"},
		{"", "../../etc/passwd", "medical-report_etcpasswd_2024-01-15.pdf"},
		{"", "A/B\\C: D*?", "medical-report_ABC_D_2024-01-15.pdf"},
		{"", "", "medical-report_patient_2024-01-15.pdf"},
		{"", "***", "medical-report_patient_2024-01-15.pdf"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Filename(tc.kind, tc.name, date), tc.name)
	}
}

func TestSystemViewerCommand(t *testing.T) {
	found := func(name string) (string, error) { return "/usr/bin/" + name, nil }
	missing := func(string) (string, error) { return "", errors.New("not found") }
	env := func(vals map[string]string) func(string) string {
		return func(k string) string { return vals[k] }
	}

	v := &SystemViewer{goos: "darwin", lookPath: found, getenv: env(nil)}
	bin, args, err := v.command("/tmp/r.pdf")
	require.NoError(t, err)
	assert.Equal(t, "/usr/bin/open", bin)
	assert.Equal(t, []string{"/tmp/r.pdf"}, args)

	v = &SystemViewer{goos: "windows", lookPath: found, getenv: env(nil)}
	_, args, err = v.command(`C:\r.pdf`)
	require.NoError(t, err)
	assert.Equal(t, []string{"url.dll,FileProtocolHandler", `C:\r.pdf`}, args)

	v = &SystemViewer{goos: "linux", lookPath: found, getenv: env(map[string]string{"DISPLAY": ":0"})}
	bin, _, err = v.command("/tmp/r.pdf")
	require.NoError(t, err)
	assert.Equal(t, "/usr/bin/xdg-open", bin)

	v = &SystemViewer{goos: "linux", lookPath: found, getenv: env(nil)}
	_, _, err = v.command("/tmp/r.pdf")
	assert.ErrorIs(t, err, medreport.ErrNoViewer)

	v = &SystemViewer{goos: "linux", lookPath: missing, getenv: env(map[string]string{"WAYLAND_DISPLAY": "wayland-0"})}
	err = v.Open(context.Background(), "/tmp/r.pdf")
	assert.ErrorIs(t, err, medreport.ErrNoViewer)

	v = &SystemViewer{goos: "plan9", lookPath: found, getenv: env(nil)}
	_, _, err = v.command("/tmp/r.pdf")
	assert.ErrorIs(t, err, medreport.ErrNoViewer)
}
