package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lvillar/medreport/assets"
	"github.com/lvillar/medreport/form"
)

// AssetStatus reports the configured asset sources. *assets.Cache
// implements it.
type AssetStatus interface {
	Sources() []assets.Source
	Ready() bool
}

// RegisterDefaultResources adds the report resources to the server.
// Resources use the report:// scheme.
func RegisterDefaultResources(s *Server, status AssetStatus) {
	s.AddResource(Resource{
		URI:         "report://labels",
		Name:        "Form Lookup Tables",
		Description: "Codes and display labels for currency, language, healthCondition and services fields.",
		MIMEType:    "application/json",
		Handler:     handleLabelsResource,
	})

	s.AddResource(Resource{
		URI:         "report://assets",
		Name:        "Report Assets",
		Description: "Fonts, underlays and banners the report is drawn with, and whether they are loaded.",
		MIMEType:    "application/json",
		Handler: func(_ context.Context, uri string) ([]ResourceContent, error) {
			return handleAssetsResource(status, uri)
		},
	})
}

func jsonContent(uri string, v any) ([]ResourceContent, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", uri, err)
	}
	return []ResourceContent{{
		URI:      uri,
		MIMEType: "application/json",
		Text:     string(data),
	}}, nil
}

func handleLabelsResource(_ context.Context, uri string) ([]ResourceContent, error) {
	return jsonContent(uri, form.Tables())
}

func handleAssetsResource(status AssetStatus, uri string) ([]ResourceContent, error) {
	if status == nil {
		return nil, fmt.Errorf("no asset cache configured")
	}
	type sourceInfo struct {
		Name     assets.Name `json:"name"`
		Location string      `json:"location,omitempty"`
		Required bool        `json:"required"`
	}
	info := struct {
		Ready   bool         `json:"ready"`
		Sources []sourceInfo `json:"sources"`
	}{Ready: status.Ready()}
	for _, src := range status.Sources() {
		loc := src.Location
		if len(loc) > 64 {
			// data URLs
			loc = loc[:61] + "..."
		}
		info.Sources = append(info.Sources, sourceInfo{Name: src.Name, Location: loc, Required: src.Required})
	}
	return jsonContent(uri, info)
}
