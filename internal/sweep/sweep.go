package sweep

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/danielpatrickdp/softfloat-lab/internal/config"
	"github.com/danielpatrickdp/softfloat-lab/internal/eval"
	"github.com/danielpatrickdp/softfloat-lab/internal/logging"
	"github.com/danielpatrickdp/softfloat-lab/internal/sample"
	"github.com/danielpatrickdp/softfloat-lab/internal/softfloat"
	"github.com/danielpatrickdp/softfloat-lab/internal/store"
)

// #region result
// Result is one completed sweep.
type Result struct {
	RunID     string
	CreatedAt time.Time
	Config    config.Config
	Sequence  sample.Sequence
	Targets   []softfloat.Quantizer
	Ranking   []eval.FormatMetrics
}

// Winner returns the best ranked target, if any.
func (r Result) Winner() (eval.FormatMetrics, bool) {
	if len(r.Ranking) == 0 {
		return eval.FormatMetrics{}, false
	}
	return r.Ranking[0], true
}

// #endregion result

// #region run
// Run samples the configured range, ranks every configured format and
// returns the result under a fresh run ID.
func Run(ctx context.Context, cfg config.Config, log logrus.FieldLogger) (Result, error) {
	seq, err := cfg.Sequence()
	if err != nil {
		return Result{}, fmt.Errorf("build sequence: %w", err)
	}
	targets := make([]softfloat.Quantizer, len(cfg.Formats))
	for i, f := range cfg.Formats {
		targets[i] = softfloat.Uniform(f)
	}
	return RunTargets(ctx, cfg, seq, targets, log)
}

// RunTargets ranks arbitrary quantizers over seq using cfg's weights.
// Overlapping piecewise regions are logged, not rejected.
func RunTargets(ctx context.Context, cfg config.Config, seq sample.Sequence, targets []softfloat.Quantizer, log logrus.FieldLogger) (Result, error) {
	res := Result{
		RunID:     uuid.New().String(),
		CreatedAt: time.Now().UTC(),
		Config:    cfg,
		Sequence:  seq,
		Targets:   targets,
	}
	log = log.WithField("run_id", res.RunID)

	evalTargets := make([]eval.Target, len(targets))
	for i, q := range targets {
		warnOverlaps(q, log)
		evalTargets[i] = q
	}

	log.WithFields(logrus.Fields{
		"formats": len(targets),
		"samples": seq.Len(),
		"focus":   cfg.FocusLabel(),
	}).Info("sweep started")

	ranking, err := eval.NewEvaluator(cfg.Score).Rank(ctx, evalTargets, seq)
	if err != nil {
		return Result{}, fmt.Errorf("rank formats: %w", err)
	}
	res.Ranking = ranking

	for i, m := range ranking {
		log.WithFields(logrus.Fields{
			"rank":   i + 1,
			"format": m.Name,
			"score":  m.Score,
		}).Debug("ranked")
	}
	if w, ok := res.Winner(); ok {
		log.WithFields(logrus.Fields{"winner": w.Name, "score": w.Score}).Info("sweep complete")
	}
	return res, nil
}

func warnOverlaps(q softfloat.Quantizer, log logrus.FieldLogger) {
	regions := q.Regions()
	for _, o := range q.Overlaps() {
		a, b := regions[o.First], regions[o.Second]
		log.WithFields(logrus.Fields{
			"quantizer": q.Name(),
			"first":     fmt.Sprintf("[%g, %g) %s", a.Min, a.Max, a.Format.Name()),
			"second":    fmt.Sprintf("[%g, %g) %s", b.Min, b.Max, b.Format.Name()),
		}).Warn("overlapping regions; first match wins")
	}
}

// #endregion run

// #region record
// Record converts r into its stored form. ConfigJSON is set only when a
// config reproduces the ranked sweep: every target uniform and the sample
// sequence equal to the config's own.
func (r Result) Record() (store.Run, error) {
	var cfgJSON []byte
	if cfg, ok := r.replayConfig(); ok {
		var err error
		if cfgJSON, err = json.Marshal(cfg.File()); err != nil {
			return store.Run{}, fmt.Errorf("marshal config: %w", err)
		}
	}

	run := store.Run{
		ID:          r.RunID,
		CreatedAt:   r.CreatedAt,
		Domain:      r.Sequence.Domain().String(),
		KMin:        r.Config.KMin,
		KMax:        r.Config.KMax,
		KStep:       r.Config.KStep,
		SampleCount: r.Sequence.Len(),
		ConfigJSON:  string(cfgJSON),
		Ranking:     append([]eval.FormatMetrics(nil), r.Ranking...),
	}
	for _, q := range r.Targets {
		f, ok := q.Format()
		if !ok {
			f = q.Fallback()
		}
		run.Formats = append(run.Formats, store.FormatRecord{
			Kind:         q.Kind().String(),
			Name:         q.Name(),
			MantissaBits: f.MantissaBits(),
			MinExp2:      f.MinExp2(),
			MaxExp2:      f.MaxExp2(),
		})
	}
	return run, nil
}

// replayConfig returns r's config with its formats replaced by the ranked
// targets, if that config reproduces r.
func (r Result) replayConfig() (config.Config, bool) {
	formats := make([]softfloat.Format, len(r.Targets))
	for i, q := range r.Targets {
		f, ok := q.Format()
		if !ok {
			return config.Config{}, false
		}
		formats[i] = f
	}
	seq, err := r.Config.Sequence()
	if err != nil || seq.Domain() != r.Sequence.Domain() || !slices.Equal(seq.Params(), r.Sequence.Params()) {
		return config.Config{}, false
	}
	cfg := r.Config
	cfg.Formats = formats
	return cfg, true
}

// Entry is the provenance row for r.
func (r Result) Entry(trigger string) logging.RunEntry {
	e := logging.RunEntry{
		RunID:     r.RunID,
		Trigger:   trigger,
		Focus:     r.Config.FocusLabel(),
		Formats:   len(r.Targets),
		Samples:   r.Sequence.Len(),
		CreatedAt: r.CreatedAt,
	}
	if w, ok := r.Winner(); ok {
		e.Winner = w.Name
		e.WinnerScore = w.Score
	}
	return e
}

// #endregion record

// #region persist
// Persist saves r to st together with its provenance row. Either both
// are stored or neither is.
func Persist(st *store.Store, r Result, trigger string, log logrus.FieldLogger) error {
	run, err := r.Record()
	if err != nil {
		return err
	}
	entry := r.Entry(trigger)
	_, err = st.SaveRunWith(run, func(tx *sql.Tx, _ string) error {
		return logging.LogRun(tx, entry)
	})
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	log.WithFields(logrus.Fields{"run_id": r.RunID, "trigger": trigger}).Info("run stored")
	return nil
}

// #endregion persist
