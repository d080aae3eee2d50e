// Command medreport turns an intake form saved as JSON into the medical
// report PDF and opens it in the system viewer. When no viewer can be
// started the report is saved into the download directory instead.
//
//	medreport [flags] form.json
//
// Use "-" to read the form from standard input. Flags override the
// MEDREPORT_* environment and the config file; see --help.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/lvillar/medreport"
	"github.com/lvillar/medreport/config"
	"github.com/lvillar/medreport/export"
	"github.com/lvillar/medreport/form"
	"github.com/lvillar/medreport/logging"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := config.Flags("medreport")
	skipValidation := fs.Bool("no-validate", false, "generate even when the form is incomplete")
	output := fs.StringP("output", "o", "", "write the PDF to this path instead of delivering it")
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "usage: medreport [flags] form.json\n\n%s", fs.FlagUsages())
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}

	cfg, err := config.Load(fs)
	if err != nil {
		fmt.Fprintf(stderr, "medreport: %v\n", err)
		return 2
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, "medreport")
	if err != nil {
		fmt.Fprintf(stderr, "medreport: %v\n", err)
		return 2
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	data, err := readForm(fs.Arg(0), stdin)
	if err != nil {
		fmt.Fprintf(stderr, "medreport: %v\n", err)
		return 1
	}
	if !*skipValidation {
		if err := data.Validate(); err != nil {
			fmt.Fprintln(stderr, describe(err))
			return 1
		}
	}

	c := cfg.Build(logger)
	if *output != "" {
		pdf, name, err := c.Service.Build(ctx, data)
		if err != nil {
			fmt.Fprintln(stderr, describe(err))
			return 1
		}
		if err := os.WriteFile(*output, pdf, 0o644); err != nil {
			fmt.Fprintf(stderr, "medreport: %v\n", err)
			return 1
		}
		logger.Info("report written", zap.String("path", *output), zap.String("filename", name))
		fmt.Fprintln(stdout, *output)
		return 0
	}

	d, err := c.Service.Generate(ctx, data)
	if err != nil {
		fmt.Fprintln(stderr, describe(err))
		return 1
	}
	switch d.Method {
	case export.MethodViewer:
		fmt.Fprintf(stdout, "opened %s\n", d.Filename)
		// the viewer reads the temporary file after we return
		waitForGrace(ctx, cfg.Export.Grace)
	default:
		fmt.Fprintf(stdout, "saved %s\n", d.Path)
	}
	return 0
}

// waitForGrace keeps the process alive until the temporary file has been
// cleaned up.
func waitForGrace(ctx context.Context, grace time.Duration) {
	t := time.NewTimer(grace + 250*time.Millisecond)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

func readForm(path string, stdin io.Reader) (form.FormData, error) {
	if path == "-" {
		return form.Decode(stdin)
	}
	return form.DecodeFile(path)
}

// describe turns a failure into the message shown to the user.
func describe(err error) string {
	var (
		ve  *form.ValidationError
		ale *medreport.AssetLoadError
		re  *medreport.RenderError
	)
	switch {
	case errors.As(err, &ve):
		msg := "medreport: the form is incomplete:"
		for _, f := range ve.Fields {
			msg += "\n  - " + f.Message
		}
		return msg
	case errors.As(err, &ale):
		return fmt.Sprintf("medreport: could not load %s from %s: %v", ale.Asset, ale.Location, ale.Err)
	case errors.Is(err, context.Canceled):
		return "medreport: canceled"
	case errors.As(err, &re):
		return fmt.Sprintf("medreport: could not produce the PDF: %v", re.Err)
	default:
		return fmt.Sprintf("medreport: %v", err)
	}
}
