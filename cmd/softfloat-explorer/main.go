package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	flags "github.com/jessevdk/go-flags"
	"github.com/sirupsen/logrus"

	"github.com/danielpatrickdp/softfloat-lab/internal/config"
	"github.com/danielpatrickdp/softfloat-lab/internal/logging"
	"github.com/danielpatrickdp/softfloat-lab/internal/report"
	"github.com/danielpatrickdp/softfloat-lab/internal/store"
	"github.com/danielpatrickdp/softfloat-lab/internal/sweep"
)

// #region main
func main() {
	cfg, err := config.ParseArgs(os.Args[1:])
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			fmt.Println(flagsErr.Message)
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(2)
	}

	logger, err := logging.NewLogger(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.WithError(err).Error("sweep failed")
		os.Exit(1)
	}
}

// #endregion main

// #region run
func run(ctx context.Context, cfg config.Config, log logrus.FieldLogger) error {
	res, err := sweep.Run(ctx, cfg, log)
	if err != nil {
		return err
	}

	paths, err := report.WriteSweep(cfg.OutPrefix, res)
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Printf("Wrote %s\n", p)
	}

	if w, ok := res.Winner(); ok {
		fmt.Printf("Winner: %s (score %.4f)\n", w.Name, w.Score)
	}

	if cfg.DBPath == "" {
		return nil
	}
	st, err := store.NewStore(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()
	if err := sweep.Persist(st, res, "cli", log); err != nil {
		return err
	}
	fmt.Printf("Stored run %s in %s\n", res.RunID, cfg.DBPath)
	return nil
}

// #endregion run
