package report

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/danielpatrickdp/softfloat-lab/internal/eval"
	"github.com/danielpatrickdp/softfloat-lab/internal/sweep"
)

// Generator names the tool in generated page headers.
const Generator = "softfloat-explorer"

// #region write-sweep
// WriteSweep writes <prefix>.svg, <prefix>.csv, <prefix>_summary.md and
// <prefix>_ranking.md for res, creating parent directories, and returns
// the written paths in that order.
func WriteSweep(prefix string, res sweep.Result) ([]string, error) {
	cfg := res.Config
	labeled := make([]Labeled, len(cfg.Formats))
	targets := make([]eval.Target, len(cfg.Formats))
	for i, f := range cfg.Formats {
		labeled[i] = f
		targets[i] = f
	}

	files := []struct {
		path  string
		write func(*bytes.Buffer) error
	}{
		{prefix + ".svg", func(b *bytes.Buffer) error {
			return WriteSweepSVG(b, labeled, res.Sequence, cfg.KMin, cfg.KMax)
		}},
		{prefix + ".csv", func(b *bytes.Buffer) error {
			return WriteSamplesCSV(b, targets, res.Sequence)
		}},
		{prefix + "_summary.md", func(b *bytes.Buffer) error {
			return WriteSummary(b, SummaryInput{
				Generator: Generator,
				KMin:      cfg.KMin,
				KMax:      cfg.KMax,
				KStep:     cfg.KStep,
				Samples:   res.Sequence.Len(),
				Formats:   cfg.Formats,
			})
		}},
		{prefix + "_ranking.md", func(b *bytes.Buffer) error {
			return WriteRanking(b, Generator, cfg.Score, res.Ranking)
		}},
	}

	paths := make([]string, 0, len(files))
	for _, f := range files {
		var buf bytes.Buffer
		if err := f.write(&buf); err != nil {
			return paths, err
		}
		if err := WriteFile(f.path, buf.Bytes()); err != nil {
			return paths, err
		}
		paths = append(paths, f.path)
	}
	return paths, nil
}

// WriteFile writes data to path, creating parent directories.
func WriteFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "create %s", dir)
		}
	}
	return errors.Wrapf(os.WriteFile(path, data, 0o644), "write %s", path)
}

// #endregion write-sweep
