package main

import (
	"fmt"
	"os"

	flags "github.com/jessevdk/go-flags"

	"github.com/danielpatrickdp/softfloat-lab/internal/replay"
	"github.com/danielpatrickdp/softfloat-lab/internal/report"
	"github.com/danielpatrickdp/softfloat-lab/internal/store"
)

type options struct {
	DB          string `long:"db" env:"SOFTFLOAT_DB" required:"true" description:"SQLite run store path"`
	Run         string `long:"run" description:"run to export; defaults to the latest"`
	Out         string `long:"out" required:"true" description:"output fixture YAML path"`
	Description string `long:"description" description:"fixture description; defaults to one naming the run"`
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

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region extract

func run(opts options) error {
	st, err := store.NewStore(opts.DB)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer st.Close()

	var stored store.Run
	if opts.Run != "" {
		stored, err = st.GetRun(opts.Run)
	} else {
		stored, err = st.LatestRun()
	}
	if err != nil {
		return err
	}

	fixture, err := replay.FromRun(stored)
	if err != nil {
		return err
	}
	if opts.Description != "" {
		fixture.Description = opts.Description
	}
	return writeFixture(fixture, opts.Out)
}

// #endregion extract

// #region output

// writeFixture always writes YAML so infinite scores survive (.inf).
func writeFixture(fixture *replay.Fixture, outPath string) error {
	data, err := fixture.Encode()
	if err != nil {
		return fmt.Errorf("encode fixture: %w", err)
	}
	if err := report.WriteFile(outPath, data); err != nil {
		return err
	}

	fmt.Printf("Wrote fixture to %s (%d bytes, %d formats)\n", outPath, len(data), len(fixture.Expected.Ranking))
	return nil
}

// #endregion output
