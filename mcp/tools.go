package mcp

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/lvillar/medreport/export"
	"github.com/lvillar/medreport/form"
)

// Reports builds report PDFs. *report.Service implements it.
type Reports interface {
	Build(ctx context.Context, data form.FormData) ([]byte, string, error)
}

// RegisterDefaultTools adds the report tools to the server. reportType
// prefixes computed filenames; empty means export.DefaultReportType.
func RegisterDefaultTools(s *Server, reports Reports, reportType string) {
	s.AddTool(generateReportTool(reports))
	s.AddTool(validateFormTool())
	s.AddTool(reportFilenameTool(reportType))
}

// decodeArgs decodes a tool's arguments into v, rejecting unknown fields.
func decodeArgs(raw json.RawMessage, v any) error {
	if len(bytes.TrimSpace(raw)) == 0 || string(raw) == "null" {
		raw = json.RawMessage("{}")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

func decodeForm(raw json.RawMessage) (form.FormData, error) {
	if len(raw) == 0 {
		return form.FormData{}, errors.New("missing 'form' argument")
	}
	return form.Decode(bytes.NewReader(raw))
}

var formSchema = map[string]any{
	"type":        "object",
	"description": "Intake form data: personal fields, firstVisit, optional secondVisit, uploadedImages, notes",
}

func generateReportTool(reports Reports) Tool {
	return Tool{
		Name:        "generate_report",
		Description: "Generate the medical report PDF for a completed intake form. Returns the PDF as base64, or writes it to outputPath.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"form": formSchema,
				"outputPath": map[string]any{
					"type":        "string",
					"description": "Optional file or directory to save the PDF into. If omitted, returns base64.",
				},
				"validate": map[string]any{
					"type":        "boolean",
					"description": "Reject forms that fail validation before generating",
				},
			},
			"required": []string{"form"},
		},
		Handler: func(ctx context.Context, raw json.RawMessage) (ToolResult, error) {
			var args struct {
				Form       json.RawMessage `json:"form"`
				OutputPath string          `json:"outputPath"`
				Validate   bool            `json:"validate"`
			}
			if err := decodeArgs(raw, &args); err != nil {
				return ToolResult{}, err
			}
			data, err := decodeForm(args.Form)
			if err != nil {
				return ToolResult{}, err
			}
			if args.Validate {
				if err := data.Validate(); err != nil {
					return ToolResult{}, err
				}
			}

			pdf, name, err := reports.Build(ctx, data)
			if err != nil {
				return ToolResult{}, fmt.Errorf("generating report: %w", err)
			}

			if args.OutputPath != "" {
				path := args.OutputPath
				if info, err := os.Stat(path); err == nil && info.IsDir() {
					path = filepath.Join(path, name)
				}
				if err := os.WriteFile(path, pdf, 0o644); err != nil {
					return ToolResult{}, fmt.Errorf("writing file: %w", err)
				}
				return TextResult("Report created successfully: %s (%d bytes)", path, len(pdf)), nil
			}

			return ToolResult{Content: []ContentBlock{
				{Type: "text", Text: fmt.Sprintf("Report %s created successfully (%d bytes).", name, len(pdf))},
				{Type: "resource", MIMEType: "application/pdf", Data: base64.StdEncoding.EncodeToString(pdf)},
			}}, nil
		},
	}
}

// validation is the JSON body of a validate_form result.
type validation struct {
	Valid  bool              `json:"valid"`
	Step   int               `json:"step,omitempty"`
	Errors []form.FieldError `json:"errors"`
}

func validateFormTool() Tool {
	return Tool{
		Name:        "validate_form",
		Description: "Check an intake form against the wizard rules. Step 1 is personal info, 2 is visits, 3 is uploads; omit step to check all.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"form": formSchema,
				"step": map[string]any{
					"type":        "integer",
					"description": "Wizard step to check (1-3)",
					"minimum":     1,
					"maximum":     3,
				},
			},
			"required": []string{"form"},
		},
		Handler: func(_ context.Context, raw json.RawMessage) (ToolResult, error) {
			var args struct {
				Form json.RawMessage `json:"form"`
				Step int             `json:"step"`
			}
			if err := decodeArgs(raw, &args); err != nil {
				return ToolResult{}, err
			}
			data, err := decodeForm(args.Form)
			if err != nil {
				return ToolResult{}, err
			}

			if args.Step != 0 {
				err = data.ValidateStep(args.Step)
			} else {
				err = data.Validate()
			}
			res := validation{Valid: err == nil, Step: args.Step, Errors: []form.FieldError{}}
			var ve *form.ValidationError
			switch {
			case errors.As(err, &ve):
				res.Errors = ve.Fields
			case err != nil:
				return ToolResult{}, err
			}

			out, err := json.MarshalIndent(res, "", "  ")
			if err != nil {
				return ToolResult{}, err
			}
			return ToolResult{Content: []ContentBlock{{Type: "text", Text: string(out)}}}, nil
		},
	}
}

func reportFilenameTool(reportType string) Tool {
	return Tool{
		Name:        "report_filename",
		Description: "Compute the file name a report is saved under: <report-type>_<patient-name>_<YYYY-MM-DD>.pdf",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"patientName": map[string]any{
					"type":        "string",
					"description": "Patient name as entered on the form",
				},
				"date": map[string]any{
					"type":        "string",
					"description": "Report date (YYYY-MM-DD). Defaults to today.",
				},
				"reportType": map[string]any{
					"type":        "string",
					"description": "Filename prefix. Defaults to " + export.DefaultReportType,
				},
			},
			"required": []string{"patientName"},
		},
		Handler: func(_ context.Context, raw json.RawMessage) (ToolResult, error) {
			var args struct {
				PatientName string `json:"patientName"`
				Date        string `json:"date"`
				ReportType  string `json:"reportType"`
			}
			if err := decodeArgs(raw, &args); err != nil {
				return ToolResult{}, err
			}
			date := time.Now()
			if args.Date != "" {
				d, err := time.Parse(time.DateOnly, args.Date)
				if err != nil {
					return ToolResult{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", args.Date)
				}
				date = d
			}
			kind := args.ReportType
			if kind == "" {
				kind = reportType
			}
			return TextResult("%s", export.Filename(kind, args.PatientName, date)), nil
		},
	}
}
