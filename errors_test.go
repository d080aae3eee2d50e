package medreport

import (
	"errors"
	"fmt"
	"io"
	"testing"
)

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&AssetLoadError{Asset: "font-regular", Location: "embed:go-regular", Err: io.EOF},
			"medreport: loading asset font-regular from embed:go-regular: EOF"},
		{&AssetLoadError{Asset: "font-bold", Err: ErrMissingAsset},
			"medreport: loading asset font-bold: medreport: required asset is unavailable"},
		{&ImageProcessError{Image: "scan.png", Op: "decode", Err: ErrInvalidImage},
			"medreport: image scan.png: decode: medreport: invalid image"},
		{&RenderError{Op: "download", Err: io.ErrShortWrite}, "medreport.download: short write"},
		{&RenderError{Op: "render"}, "medreport.render: unknown error"},
		{&ReportAssemblyError{Stage: "images", Err: io.ErrUnexpectedEOF},
			"medreport: composing report (images): unexpected EOF"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

func TestErrorUnwrap(t *testing.T) {
	inner := &AssetLoadError{Asset: "font-regular", Err: ErrMissingAsset}
	err := fmt.Errorf("generate: %w", &ReportAssemblyError{Stage: "assets", Err: inner})

	if !errors.Is(err, ErrMissingAsset) {
		t.Fatal("sentinel not reachable through the chain")
	}
	var ale *AssetLoadError
	if !errors.As(err, &ale) || ale.Asset != "font-regular" {
		t.Fatalf("AssetLoadError not found: %v", err)
	}
	var rae *ReportAssemblyError
	if !errors.As(err, &rae) || rae.Stage != "assets" {
		t.Fatalf("ReportAssemblyError not found: %v", err)
	}

	re := &RenderError{Op: "open", Err: ErrNoViewer}
	if !errors.Is(re, ErrNoViewer) {
		t.Fatal("RenderError does not unwrap")
	}
	ie := &ImageProcessError{Image: "#2", Op: "load", Err: ErrInvalidImage}
	if !errors.Is(ie, ErrInvalidImage) {
		t.Fatal("ImageProcessError does not unwrap")
	}
}
