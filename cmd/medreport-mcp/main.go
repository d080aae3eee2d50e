// Command medreport-mcp is an MCP (Model Context Protocol) server that
// exposes medical report generation to AI assistants.
//
// # Installation
//
//	go install github.com/lvillar/medreport/cmd/medreport-mcp@latest
//
// # Configuration for Claude Desktop
//
// Add to ~/.config/claude/claude_desktop_config.json:
//
//	{
//	  "mcpServers": {
//	    "medreport": {
//	      "command": "medreport-mcp",
//	      "args": ["--report.clinic", "Harbor Clinic"]
//	    }
//	  }
//	}
//
// # Available Tools
//
//   - generate_report: Build the report PDF for an intake form
//   - validate_form: Check an intake form against the wizard rules
//   - report_filename: Compute the file name a report is saved under
//
// # Available Resources
//
//   - report://labels : Lookup tables for enum-coded form fields
//   - report://assets : Asset sources and whether they are loaded
//
// Logs go to stderr; stdout carries the protocol.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/lvillar/medreport/config"
	"github.com/lvillar/medreport/logging"
	"github.com/lvillar/medreport/mcp"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "medreport-mcp: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := config.Flags("medreport-mcp")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	cfg, err := config.Load(fs)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, "medreport-mcp")
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := cfg.Build(logger)
	server := mcp.NewServer(logger.Named("mcp"))
	mcp.RegisterDefaultTools(server, c.Service, cfg.Report.Type)
	mcp.RegisterDefaultResources(server, c.Cache)

	logger.Info("serving on stdio", zap.String("protocol", mcp.ProtocolVersion))
	if err := server.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
