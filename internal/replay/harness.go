package replay

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/danielpatrickdp/softfloat-lab/internal/eval"
	"github.com/danielpatrickdp/softfloat-lab/internal/sweep"
)

// #region types
// Mismatch is one expectation the replayed sweep did not meet.
type Mismatch struct {
	Kind     string // "ranking" | "winner" | "score" | "missing"
	Format   string
	Expected string
	Actual   string
}

func (m Mismatch) String() string {
	if m.Format == "" {
		return fmt.Sprintf("%s: expected %s, got %s", m.Kind, m.Expected, m.Actual)
	}
	return fmt.Sprintf("%s %s: expected %s, got %s", m.Kind, m.Format, m.Expected, m.Actual)
}

// ReplaySummary is the outcome of replaying one fixture.
type ReplaySummary struct {
	Description string
	Result      sweep.Result
	Mismatches  []Mismatch
}

// Passed reports whether every expectation held.
func (s ReplaySummary) Passed() bool {
	return len(s.Mismatches) == 0
}

// #endregion types

// #region replay
// Replay re-runs the fixture's sweep and checks it against the
// fixture's expectations. Configuration errors abort the replay; failed
// expectations are reported in the summary.
func Replay(ctx context.Context, f *Fixture, log logrus.FieldLogger) (ReplaySummary, error) {
	cfg, err := f.ToConfig()
	if err != nil {
		return ReplaySummary{}, fmt.Errorf("fixture config: %w", err)
	}
	res, err := sweep.Run(ctx, cfg, log)
	if err != nil {
		return ReplaySummary{}, fmt.Errorf("replay sweep: %w", err)
	}

	s := ReplaySummary{
		Description: f.Description,
		Result:      res,
		Mismatches:  Check(f.Expected, res.Ranking),
	}
	fields := logrus.Fields{"run_id": res.RunID, "mismatches": len(s.Mismatches)}
	if s.Passed() {
		log.WithFields(fields).Info("replay passed")
	} else {
		log.WithFields(fields).Warn("replay failed")
	}
	return s, nil
}

// Check compares a ranking with an expectation.
func Check(exp Expectation, ranking []eval.FormatMetrics) []Mismatch {
	var out []Mismatch

	names := make([]string, len(ranking))
	byName := make(map[string]eval.FormatMetrics, len(ranking))
	for i, m := range ranking {
		names[i] = m.Name
		byName[m.Name] = m
	}

	if len(exp.Ranking) > 0 && !slices.Equal(exp.Ranking, names) {
		out = append(out, Mismatch{
			Kind:     "ranking",
			Expected: strings.Join(exp.Ranking, " > "),
			Actual:   strings.Join(names, " > "),
		})
	}

	if exp.Winner != "" {
		actual := "<none>"
		if len(names) > 0 {
			actual = names[0]
		}
		if actual != exp.Winner {
			out = append(out, Mismatch{Kind: "winner", Expected: exp.Winner, Actual: actual})
		}
	}

	for _, name := range sortedKeys(exp.Scores) {
		want := exp.Scores[name]
		m, ok := byName[name]
		if !ok {
			out = append(out, Mismatch{Kind: "missing", Format: name, Expected: "present", Actual: "absent"})
			continue
		}
		if !want.Matches(m.Score) {
			out = append(out, Mismatch{
				Kind:     "score",
				Format:   name,
				Expected: fmt.Sprintf("%.9g", want.Score),
				Actual:   fmt.Sprintf("%.9g", m.Score),
			})
		}
	}
	return out
}

// #endregion replay

// #region helpers
func sortedKeys(m map[string]ExpectedScore) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// #endregion helpers
