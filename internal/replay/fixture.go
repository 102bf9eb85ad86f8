package replay

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/danielpatrickdp/softfloat-lab/internal/config"
	"github.com/danielpatrickdp/softfloat-lab/internal/sample"
	"github.com/danielpatrickdp/softfloat-lab/internal/softfloat"
	"github.com/danielpatrickdp/softfloat-lab/internal/store"
)

// defaultTolerance applies to finite expected scores without a tolerance.
const defaultTolerance = 1e-9

// #region fixture-types

// Fixture is the top-level structure of a replay fixture (YAML or JSON).
type Fixture struct {
	Description string      `yaml:"description" json:"description"`
	SourceRunID string      `yaml:"source_run_id,omitempty" json:"source_run_id,omitempty"`
	Config      config.File `yaml:"config" json:"config"`
	Expected    Expectation `yaml:"expected" json:"expected"`
}

// Expectation is what a replayed sweep must reproduce. Every field is
// optional, but a fixture needs at least one.
type Expectation struct {
	Ranking []string                 `yaml:"ranking,omitempty" json:"ranking,omitempty"`
	Winner  string                   `yaml:"winner,omitempty" json:"winner,omitempty"`
	Scores  map[string]ExpectedScore `yaml:"scores,omitempty" json:"scores,omitempty"`
}

// ExpectedScore is a score with an absolute tolerance. Infinite scores
// (YAML .inf) must match exactly.
type ExpectedScore struct {
	Score     float64 `yaml:"score" json:"score"`
	Tolerance float64 `yaml:"tolerance,omitempty" json:"tolerance,omitempty"`
}

// Matches reports whether actual is within tolerance of the expectation.
func (e ExpectedScore) Matches(actual float64) bool {
	if math.IsInf(e.Score, 0) || math.IsNaN(e.Score) {
		return e.Score == actual
	}
	tol := e.Tolerance
	if tol == 0 {
		tol = defaultTolerance
	}
	return math.Abs(actual-e.Score) <= tol
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a fixture file. JSON is accepted as YAML.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	f, err := DecodeFixture(data)
	if err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return f, nil
}

// DecodeFixture parses fixture content and checks it has an expectation.
func DecodeFixture(data []byte) (*Fixture, error) {
	var f Fixture
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, err
	}
	if len(f.Expected.Ranking) == 0 && f.Expected.Winner == "" && len(f.Expected.Scores) == 0 {
		return nil, fmt.Errorf("fixture has no expectations")
	}
	return &f, nil
}

// Encode renders f as YAML.
func (f *Fixture) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return nil, fmt.Errorf("encode fixture: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode fixture: %w", err)
	}
	return buf.Bytes(), nil
}

// ToConfig validates the fixture's sweep settings.
func (f *Fixture) ToConfig() (config.Config, error) {
	return config.FromFile(f.Config)
}

// #endregion fixture-loader

// #region from-run

// FromRun turns a stored run into a fixture expecting its exact ranking.
// Only decade sweeps over uniform formats can be replayed.
func FromRun(run store.Run) (*Fixture, error) {
	domain, err := sample.ParseDomain(run.Domain)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", run.ID, err)
	}
	if domain != sample.Decade {
		return nil, fmt.Errorf("run %s: %s sweeps do not replay", run.ID, domain)
	}
	for _, fr := range run.Formats {
		if fr.Kind != softfloat.KindUniform.String() {
			return nil, fmt.Errorf("run %s: format %s is %s; only uniform formats replay", run.ID, fr.Name, fr.Kind)
		}
	}

	var file config.File
	if run.ConfigJSON != "" {
		if err := json.Unmarshal([]byte(run.ConfigJSON), &file); err != nil {
			return nil, fmt.Errorf("parse run config %s: %w", run.ID, err)
		}
	} else {
		noPresets := true
		file = config.File{KMin: &run.KMin, KMax: &run.KMax, KStep: &run.KStep, NoPresets: &noPresets}
		for _, fr := range run.Formats {
			f := softfloat.NewFormat(fr.Name, fr.MantissaBits, fr.MinExp2, fr.MaxExp2)
			file.AddFormats = append(file.AddFormats, f.Descriptor())
		}
		params, err := sample.Range(run.KMin, run.KMax, run.KStep)
		if err != nil {
			return nil, fmt.Errorf("run %s: %w", run.ID, err)
		}
		if len(params) != run.SampleCount {
			return nil, fmt.Errorf("run %s: %d stored samples do not match [%g, %g] step %g",
				run.ID, run.SampleCount, run.KMin, run.KMax, run.KStep)
		}
	}
	file.Out = nil

	fx := &Fixture{
		Description: fmt.Sprintf("exported from run %s", run.ID),
		SourceRunID: run.ID,
		Config:      file,
		Expected:    Expectation{Scores: make(map[string]ExpectedScore, len(run.Ranking))},
	}
	for _, m := range run.Ranking {
		fx.Expected.Ranking = append(fx.Expected.Ranking, m.Name)
		fx.Expected.Scores[m.Name] = ExpectedScore{Score: m.Score}
	}
	if w, ok := run.Winner(); ok {
		fx.Expected.Winner = w.Name
	} else {
		return nil, fmt.Errorf("run %s has no ranking", run.ID)
	}
	return fx, nil
}

// #endregion from-run
