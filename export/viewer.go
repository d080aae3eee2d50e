package export

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/lvillar/medreport"
)

// Viewer opens a file for the user.
type Viewer interface {
	Open(ctx context.Context, path string) error
}

// ViewerFunc adapts a function to the Viewer interface.
type ViewerFunc func(ctx context.Context, path string) error

// Open implements Viewer.
func (f ViewerFunc) Open(ctx context.Context, path string) error {
	return f(ctx, path)
}

// SystemViewer opens files with the desktop's default application.
type SystemViewer struct {
	goos     string
	lookPath func(string) (string, error)
	getenv   func(string) string
}

// NewSystemViewer returns a viewer for the running platform.
func NewSystemViewer() *SystemViewer {
	return &SystemViewer{goos: runtime.GOOS, lookPath: exec.LookPath, getenv: os.Getenv}
}

// command returns the opener invocation for path, or ErrNoViewer when the
// platform has none or no display to show it on.
func (v *SystemViewer) command(path string) (string, []string, error) {
	var name string
	var args []string
	switch v.goos {
	case "darwin":
		name, args = "open", []string{path}
	case "windows":
		name, args = "rundll32", []string{"url.dll,FileProtocolHandler", path}
	case "linux", "freebsd", "openbsd", "netbsd", "dragonfly":
		if v.getenv("DISPLAY") == "" && v.getenv("WAYLAND_DISPLAY") == "" {
			return "", nil, fmt.Errorf("%w: no display", medreport.ErrNoViewer)
		}
		name, args = "xdg-open", []string{path}
	default:
		return "", nil, fmt.Errorf("%w: unsupported platform %s", medreport.ErrNoViewer, v.goos)
	}
	bin, err := v.lookPath(name)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %s not found", medreport.ErrNoViewer, name)
	}
	return bin, args, nil
}

// Open implements Viewer.
func (v *SystemViewer) Open(ctx context.Context, path string) error {
	bin, args, err := v.command(path)
	if err != nil {
		return err
	}
	cmd := exec.CommandContext(ctx, bin, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("export: %s: %w: %s", bin, err, out)
	}
	return nil
}
