package replay

import (
	"context"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/danielpatrickdp/softfloat-lab/internal/config"
	"github.com/danielpatrickdp/softfloat-lab/internal/eval"
	"github.com/danielpatrickdp/softfloat-lab/internal/sample"
	"github.com/danielpatrickdp/softfloat-lab/internal/softfloat"
	"github.com/danielpatrickdp/softfloat-lab/internal/store"
	"github.com/danielpatrickdp/softfloat-lab/internal/sweep"
)

// helper: a ranking with the given names and scores.
func ranking(pairs ...interface{}) []eval.FormatMetrics {
	var out []eval.FormatMetrics
	for i := 0; i < len(pairs); i += 2 {
		out = append(out, eval.FormatMetrics{Name: pairs[i].(string), Score: pairs[i+1].(float64)})
	}
	return out
}

// 1. Matching expectations produce no mismatches.
func TestCheck_AllMatch(t *testing.T) {
	exp := Expectation{
		Ranking: []string{"a", "b"},
		Winner:  "a",
		Scores:  map[string]ExpectedScore{"a": {Score: -1, Tolerance: 0.01}, "b": {Score: math.Inf(1)}},
	}
	got := Check(exp, ranking("a", -1.005, "b", math.Inf(1)))
	if len(got) != 0 {
		t.Fatalf("expected no mismatches, got %v", got)
	}
}

// 2. A swapped order reports ranking and winner mismatches.
func TestCheck_OrderChanged(t *testing.T) {
	exp := Expectation{Ranking: []string{"a", "b"}, Winner: "a"}
	got := Check(exp, ranking("b", -2.0, "a", -1.0))
	if len(got) != 2 {
		t.Fatalf("expected 2 mismatches, got %v", got)
	}
	if got[0].Kind != "ranking" || got[0].Actual != "b > a" {
		t.Errorf("unexpected ranking mismatch: %v", got[0])
	}
	if got[1].Kind != "winner" || got[1].Expected != "a" || got[1].Actual != "b" {
		t.Errorf("unexpected winner mismatch: %v", got[1])
	}
}

// 3. Scores outside tolerance and missing formats are reported in name order.
func TestCheck_ScoresAndMissing(t *testing.T) {
	exp := Expectation{Scores: map[string]ExpectedScore{
		"z": {Score: 1},
		"a": {Score: 1},
		"m": {Score: math.Inf(1)},
	}}
	got := Check(exp, ranking("a", 1.1, "m", 3.0))
	if len(got) != 3 {
		t.Fatalf("expected 3 mismatches, got %v", got)
	}
	if got[0].Format != "a" || got[0].Kind != "score" {
		t.Errorf("expected score mismatch for a, got %v", got[0])
	}
	if got[1].Format != "m" || got[1].Kind != "score" {
		t.Errorf("expected score mismatch for m, got %v", got[1])
	}
	if got[2].Format != "z" || got[2].Kind != "missing" {
		t.Errorf("expected z missing, got %v", got[2])
	}
	if !strings.Contains(got[0].String(), "score a: expected 1, got 1.1") {
		t.Errorf("unexpected string: %s", got[0].String())
	}
}

// 4. Empty ranking cannot satisfy a winner expectation.
func TestCheck_EmptyRanking(t *testing.T) {
	got := Check(Expectation{Winner: "a"}, nil)
	if len(got) != 1 || got[0].Actual != "<none>" {
		t.Fatalf("expected <none> winner mismatch, got %v", got)
	}
}

// 5. Default tolerance is tight.
func TestExpectedScore_DefaultTolerance(t *testing.T) {
	e := ExpectedScore{Score: 2}
	if !e.Matches(2 + 1e-12) {
		t.Error("expected 1e-12 drift to match")
	}
	if e.Matches(2 + 1e-6) {
		t.Error("expected 1e-6 drift to fail")
	}
	if e.Matches(math.Inf(1)) {
		t.Error("expected +Inf to fail a finite expectation")
	}
}

// 6. A stored sweep exported to a fixture replays cleanly.
func TestReplay_StoredRunRoundTrip(t *testing.T) {
	log, hook := test.NewNullLogger()
	cfg, err := config.ParseArgs([]string{"--k-min", "-8", "--k-max", "8", "--k-step", "0.25", "--add-format", "mine,5,-12,12"})
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	res, err := sweep.Run(context.Background(), cfg, log)
	if err != nil {
		t.Fatalf("sweep.Run: %v", err)
	}

	st, err := store.NewStore(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer st.Close()
	if err := sweep.Persist(st, res, "sweep", log); err != nil {
		t.Fatalf("Persist: %v", err)
	}
	run, err := st.GetRun(res.RunID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}

	fx, err := FromRun(run)
	if err != nil {
		t.Fatalf("FromRun: %v", err)
	}
	if len(fx.Expected.Ranking) != 6 {
		t.Fatalf("expected 6 ranked formats, got %d", len(fx.Expected.Ranking))
	}

	summary, err := Replay(context.Background(), fx, log)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if !summary.Passed() {
		t.Fatalf("expected replay to pass, mismatches: %v", summary.Mismatches)
	}
	if summary.Result.RunID == res.RunID {
		t.Error("expected replay to get a fresh run ID")
	}
	if last := hook.LastEntry(); last == nil || last.Message != "replay passed" || last.Level != logrus.InfoLevel {
		t.Errorf("expected 'replay passed' info log, got %+v", last)
	}
}

// 7. A stored run ranking its own quantizers cannot be exported as a
// fixture, since the config alone would replay a different sweep.
func TestReplay_PiecewiseRunDoesNotExport(t *testing.T) {
	log, _ := test.NewNullLogger()
	cfg, err := config.ParseArgs(nil)
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	seq := sample.FromParams(sample.Linear, []float64{-0.5, 0.5, 1.5})
	res, err := sweep.RunTargets(context.Background(), cfg, seq, []softfloat.Quantizer{softfloat.AsymmetricProfile()}, log)
	if err != nil {
		t.Fatalf("RunTargets: %v", err)
	}

	st, err := store.NewStore(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer st.Close()
	if err := sweep.Persist(st, res, "profile", log); err != nil {
		t.Fatalf("Persist: %v", err)
	}
	run, err := st.GetRun(res.RunID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.ConfigJSON != "" {
		t.Errorf("expected no config snapshot for a RunTargets result, got %s", run.ConfigJSON)
	}
	if fx, err := FromRun(run); err == nil {
		t.Fatalf("expected FromRun to reject the run, got fixture %+v", fx)
	}
}

// 8. A uniform RunTargets result over the config's grid keeps the
// config's weights in the export and replays cleanly.
func TestReplay_RunTargetsUniformRoundTrip(t *testing.T) {
	log, _ := test.NewNullLogger()
	cfg, err := config.ParseArgs([]string{"--k-min", "-3", "--k-max", "3", "--k-step", "0.5",
		"--focus-min", "-1", "--focus-max", "1"})
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	seq, err := cfg.Sequence()
	if err != nil {
		t.Fatalf("Sequence: %v", err)
	}
	targets := []softfloat.Quantizer{
		softfloat.Uniform(softfloat.NewFormat("coarse", 2, -20, 20)),
		softfloat.Uniform(softfloat.NewFormat("fine", 12, -20, 20)),
	}
	res, err := sweep.RunTargets(context.Background(), cfg, seq, targets, log)
	if err != nil {
		t.Fatalf("RunTargets: %v", err)
	}
	run, err := res.Record()
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	fx, err := FromRun(run)
	if err != nil {
		t.Fatalf("FromRun: %v", err)
	}
	if got := fx.Config.AddFormats; len(got) != 2 || got[0] != "coarse,2,-20,20" {
		t.Errorf("expected the ranked targets as formats, got %v", got)
	}
	if fx.Config.FocusMin == nil || *fx.Config.FocusMin != -1 {
		t.Errorf("expected focus to survive the export, got %v", fx.Config.FocusMin)
	}

	summary, err := Replay(context.Background(), fx, log)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if !summary.Passed() {
		t.Fatalf("expected replay to pass, mismatches: %v", summary.Mismatches)
	}
}

// 9. A failing expectation is reported, not returned as an error.
func TestReplay_MismatchIsNotError(t *testing.T) {
	f, err := DecodeFixture([]byte("config:\n  k_min: -1\n  k_max: 1\n  k_step: 0.5\nexpected:\n  winner: tiny8\n"))
	if err != nil {
		t.Fatalf("DecodeFixture: %v", err)
	}
	log, hook := test.NewNullLogger()
	s, err := Replay(context.Background(), f, log)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if s.Passed() {
		t.Fatal("expected tiny8 not to win")
	}
	if hook.LastEntry().Level != logrus.WarnLevel {
		t.Errorf("expected warn log, got %v", hook.LastEntry().Level)
	}
}
