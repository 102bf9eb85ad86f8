package main

import (
	"bytes"
	"fmt"
	"os"

	flags "github.com/jessevdk/go-flags"

	"github.com/danielpatrickdp/softfloat-lab/internal/logging"
	"github.com/danielpatrickdp/softfloat-lab/internal/report"
)

type options struct {
	Out string `long:"out" default:"docs/precision_over_range.svg" description:"output SVG path"`
}

// #region main
func main() {
	var opts options
	if _, err := flags.NewParser(&opts, flags.Default).Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(2)
	}

	logger, err := logging.NewLogger("info", "text", os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}

	var buf bytes.Buffer
	if err := report.WritePrecisionSVG(&buf, report.NativePrecision()); err != nil {
		logger.WithError(err).Fatal("render precision graph")
	}
	if err := report.WriteFile(opts.Out, buf.Bytes()); err != nil {
		logger.WithError(err).Fatal("write precision graph")
	}
	fmt.Printf("Wrote %s\n", opts.Out)
}

// #endregion main
