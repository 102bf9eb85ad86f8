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
	Out      string `long:"out" default:"docs/profile_quantizer_examples" description:"output path prefix (.md and .csv are appended)"`
	LogLevel string `long:"log-level" default:"info" description:"debug, info, warn or error"`
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

	logger, err := logging.NewLogger(opts.LogLevel, "text", os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(2)
	}

	profile, err := report.AsymmetricDemo()
	if err != nil {
		logger.WithError(err).Fatal("build profile")
	}
	logger.WithField("samples", len(profile.Xs)).Debug("profile sampled")

	var md, csvBuf bytes.Buffer
	if err := profile.WriteMarkdown(&md); err != nil {
		logger.WithError(err).Fatal("render markdown")
	}
	if err := profile.WriteCSV(&csvBuf); err != nil {
		logger.WithError(err).Fatal("render csv")
	}

	outputs := []struct {
		path string
		data []byte
	}{
		{opts.Out + ".md", md.Bytes()},
		{opts.Out + ".csv", csvBuf.Bytes()},
	}
	for _, o := range outputs {
		if err := report.WriteFile(o.path, o.data); err != nil {
			logger.WithError(err).Fatal("write report")
		}
		fmt.Printf("Wrote %s\n", o.path)
	}
}

// #endregion main
