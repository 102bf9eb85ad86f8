package main

import (
	"context"
	"fmt"
	"os"

	flags "github.com/jessevdk/go-flags"
	"github.com/sirupsen/logrus"

	"github.com/danielpatrickdp/softfloat-lab/internal/logging"
	"github.com/danielpatrickdp/softfloat-lab/internal/replay"
	"github.com/danielpatrickdp/softfloat-lab/internal/store"
)

type options struct {
	Fixture  string `long:"fixture" description:"path to a YAML or JSON fixture (fixture mode)"`
	DB       string `long:"db" env:"SOFTFLOAT_DB" description:"SQLite run store path (DB mode)"`
	Run      string `long:"run" description:"stored run to re-check; defaults to the latest (DB mode)"`
	LogLevel string `long:"log-level" default:"warn" description:"debug, info, warn or error"`
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

	if (opts.DB == "" && opts.Fixture == "") || (opts.DB != "" && opts.Fixture != "") {
		fmt.Fprintln(os.Stderr, "usage: replay --fixture path/to/fixture.yaml")
		fmt.Fprintln(os.Stderr, "       replay --db path/to/runs.db [--run id]")
		os.Exit(2)
	}

	logger, err := logging.NewLogger(opts.LogLevel, "text", os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(2)
	}

	var fixture *replay.Fixture
	if opts.Fixture != "" {
		fixture, err = replay.LoadFixture(opts.Fixture)
	} else {
		fixture, err = storedFixture(opts.DB, opts.Run)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "load fixture: %v\n", err)
		os.Exit(2)
	}

	os.Exit(runFixture(context.Background(), fixture, logger))
}

// #endregion main

// #region db-extract

func storedFixture(dbPath, runID string) (*replay.Fixture, error) {
	st, err := store.NewStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	defer st.Close()

	var run store.Run
	if runID != "" {
		run, err = st.GetRun(runID)
	} else {
		run, err = st.LatestRun()
	}
	if err != nil {
		return nil, err
	}
	return replay.FromRun(run)
}

// #endregion db-extract

// #region output

// runFixture replays f, prints a comparison table and returns the exit
// code: 0 when every expectation holds, 1 on mismatches, 2 on errors.
func runFixture(ctx context.Context, f *replay.Fixture, log logrus.FieldLogger) int {
	summary, err := replay.Replay(ctx, f, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "replay: %v\n", err)
		return 2
	}

	if summary.Description != "" {
		fmt.Printf("%s\n\n", summary.Description)
	}

	expected := f.Expected.Ranking
	fmt.Printf("%-6s| %-15s| %-15s| %-10s| %s\n", "Rank", "Expected", "Replayed", "Score", "Match")
	fmt.Printf("%-6s+%-16s+%-16s+%-11s+%s\n",
		"------", "----------------", "----------------", "-----------", "------")
	for i, m := range summary.Result.Ranking {
		exp := "-"
		match := ""
		if i < len(expected) {
			exp = expected[i]
			match = "DIFF"
			if exp == m.Name {
				match = "OK"
			}
		}
		fmt.Printf("%-6d| %-15s| %-15s| %-10.4f| %s\n", i+1, exp, m.Name, m.Score, match)
	}

	for _, mm := range summary.Mismatches {
		fmt.Printf("  %s\n", mm)
	}

	fmt.Printf("\nSummary: %d formats, %d mismatches\n", len(summary.Result.Ranking), len(summary.Mismatches))
	if !summary.Passed() {
		return 1
	}
	return 0
}

// #endregion output
