// Package medreport turns medical-intake form data into a paginated PDF
// report. The subpackages hold the pipeline stages; this package holds the
// error taxonomy they share.
package medreport

import (
	"errors"
	"fmt"
)

// Sentinel errors for common report generation failure conditions.
var (
	ErrMissingAsset  = errors.New("medreport: required asset is unavailable")
	ErrInvalidImage  = errors.New("medreport: invalid image")
	ErrNoViewer      = errors.New("medreport: no document viewer available")
	ErrEmptyDocument = errors.New("medreport: document has no content")
)

// AssetLoadError reports that a required asset (a font payload) could not be
// fetched. It is fatal for report generation.
type AssetLoadError struct {
	Asset    string // logical asset name, e.g. "font-regular"
	Location string // where it was fetched from
	Err      error
}

func (e *AssetLoadError) Error() string {
	if e.Location != "" {
		return fmt.Sprintf("medreport: loading asset %s from %s: %v", e.Asset, e.Location, e.Err)
	}
	return fmt.Sprintf("medreport: loading asset %s: %v", e.Asset, e.Err)
}

func (e *AssetLoadError) Unwrap() error {
	return e.Err
}

// ImageProcessError reports that one uploaded image could not be loaded or
// normalized. Callers drop the image and continue.
type ImageProcessError struct {
	Image string // upload name or index
	Op    string // "load", "decode", "encode", "embed"
	Err   error
}

func (e *ImageProcessError) Error() string {
	return fmt.Sprintf("medreport: image %s: %s: %v", e.Image, e.Op, e.Err)
}

func (e *ImageProcessError) Unwrap() error {
	return e.Err
}

// RenderError reports that the PDF backend failed to produce the artifact.
type RenderError struct {
	Op  string // "render", "write", "open"
	Err error
}

func (e *RenderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("medreport.%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("medreport.%s: unknown error", e.Op)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// ReportAssemblyError reports that the document definition could not be
// composed, usually because assets never became ready.
type ReportAssemblyError struct {
	Stage string // "assets", "images", "layout"
	Err   error
}

func (e *ReportAssemblyError) Error() string {
	return fmt.Sprintf("medreport: composing report (%s): %v", e.Stage, e.Err)
}

func (e *ReportAssemblyError) Unwrap() error {
	return e.Err
}
