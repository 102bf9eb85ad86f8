package replay

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"

	"github.com/danielpatrickdp/softfloat-lab/internal/eval"
	"github.com/danielpatrickdp/softfloat-lab/internal/store"
)

// #region fixture-tests

// TestFixture_DefaultPresets is the primary regression test: if quantization
// or scoring drifts, the preset ranking or the f64 log-floor score moves.
func TestFixture_DefaultPresets(t *testing.T) {
	f, err := LoadFixture(filepath.Join("testdata", "default_presets.yaml"))
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}

	log, _ := test.NewNullLogger()
	s, err := Replay(context.Background(), f, log)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if !s.Passed() {
		t.Fatalf("expected fixture to pass, mismatches: %v", s.Mismatches)
	}
	if s.Result.Sequence.Len() != 401 {
		t.Errorf("expected 401 samples, got %d", s.Result.Sequence.Len())
	}
}

// TestFixture_JSON verifies JSON fixtures load through the same decoder.
func TestFixture_JSON(t *testing.T) {
	f, err := LoadFixture(filepath.Join("testdata", "focus_two_formats.json"))
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}
	cfg, err := f.ToConfig()
	if err != nil {
		t.Fatalf("ToConfig: %v", err)
	}
	if cfg.Score.Focus == nil || cfg.Score.FocusWeight != 8 {
		t.Errorf("expected focus weight 8, got %+v", cfg.Score)
	}

	log, _ := test.NewNullLogger()
	s, err := Replay(context.Background(), f, log)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if !s.Passed() {
		t.Errorf("expected pass, mismatches: %v", s.Mismatches)
	}
}

// TestLoadFixture_NotFound verifies error on missing file.
func TestLoadFixture_NotFound(t *testing.T) {
	_, err := LoadFixture("testdata/nonexistent.yaml")
	if err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}

// TestLoadFixture_Malformed verifies error on invalid content.
func TestLoadFixture_Malformed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(path, []byte("{not: [valid"), 0644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}

	_, err := LoadFixture(path)
	if err == nil {
		t.Fatal("expected error for malformed fixture, got nil")
	}
}

// TestDecodeFixture_NoExpectations rejects fixtures that cannot fail.
func TestDecodeFixture_NoExpectations(t *testing.T) {
	_, err := DecodeFixture([]byte("description: empty\nconfig: {}\n"))
	if err == nil {
		t.Fatal("expected error for fixture without expectations")
	}
}

// TestFixture_InvalidConfig surfaces configuration errors from Replay.
func TestFixture_InvalidConfig(t *testing.T) {
	f, err := DecodeFixture([]byte("config:\n  k_step: -1\nexpected:\n  winner: x\n"))
	if err != nil {
		t.Fatalf("DecodeFixture: %v", err)
	}
	log, _ := test.NewNullLogger()
	if _, err := Replay(context.Background(), f, log); err == nil {
		t.Fatal("expected config error")
	}
}

// #endregion fixture-tests

// #region from-run-tests

func storedRun() store.Run {
	return store.Run{
		ID:          "run-1",
		Domain:      "decade",
		KMin:        -2,
		KMax:        2,
		KStep:       0.5,
		SampleCount: 9,
		Formats: []store.FormatRecord{
			{Kind: "uniform", Name: "a", MantissaBits: 4, MinExp2: -10, MaxExp2: 10},
			{Kind: "uniform", Name: "b", MantissaBits: 8, MinExp2: -10, MaxExp2: 10},
		},
		Ranking: []eval.FormatMetrics{
			{Name: "b", Score: -3.5},
			{Name: "a", Score: math.Inf(1)},
		},
	}
}

func TestFromRun_WithoutConfigJSON(t *testing.T) {
	f, err := FromRun(storedRun())
	if err != nil {
		t.Fatalf("FromRun: %v", err)
	}
	if f.SourceRunID != "run-1" || f.Expected.Winner != "b" {
		t.Errorf("unexpected fixture: %+v", f)
	}
	if len(f.Config.AddFormats) != 2 || f.Config.AddFormats[0] != "a,4,-10,10" {
		t.Errorf("unexpected formats: %v", f.Config.AddFormats)
	}
	if !math.IsInf(f.Expected.Scores["a"].Score, 1) {
		t.Errorf("expected +Inf score for a, got %v", f.Expected.Scores["a"])
	}

	// YAML keeps the infinite score.
	data, err := f.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	back, err := DecodeFixture(data)
	if err != nil {
		t.Fatalf("DecodeFixture: %v", err)
	}
	if !math.IsInf(back.Expected.Scores["a"].Score, 1) {
		t.Errorf("expected +Inf after round trip, got %v", back.Expected.Scores["a"])
	}
	if len(back.Expected.Ranking) != 2 || back.Expected.Ranking[0] != "b" {
		t.Errorf("unexpected ranking after round trip: %v", back.Expected.Ranking)
	}
}

func TestFromRun_RejectsPiecewise(t *testing.T) {
	run := storedRun()
	run.Formats[0].Kind = "piecewise"
	if _, err := FromRun(run); err == nil {
		t.Fatal("expected error for piecewise format")
	}
}

func TestFromRun_RejectsPiecewiseWithConfigJSON(t *testing.T) {
	run := storedRun()
	run.ConfigJSON = `{"k_min": -2, "k_max": 2, "k_step": 0.5}`
	run.Formats[1].Kind = "piecewise"
	if _, err := FromRun(run); err == nil {
		t.Fatal("expected error for piecewise format even with a stored config")
	}
}

func TestFromRun_RejectsLinearDomain(t *testing.T) {
	run := storedRun()
	run.Domain = "linear"
	if _, err := FromRun(run); err == nil || !strings.Contains(err.Error(), "linear") {
		t.Fatalf("expected linear domain error, got %v", err)
	}
}

func TestFromRun_SampleCountMismatch(t *testing.T) {
	run := storedRun()
	run.SampleCount = 3
	if _, err := FromRun(run); err == nil {
		t.Fatal("expected error when the stored sample count does not match the range")
	}
}

func TestFromRun_EmptyRanking(t *testing.T) {
	run := storedRun()
	run.Ranking = nil
	if _, err := FromRun(run); err == nil {
		t.Fatal("expected error for run without ranking")
	}
}

// #endregion from-run-tests
