package report

import (
	"bytes"
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/softfloat-lab/internal/config"
	"github.com/danielpatrickdp/softfloat-lab/internal/eval"
	"github.com/danielpatrickdp/softfloat-lab/internal/sample"
	"github.com/danielpatrickdp/softfloat-lab/internal/softfloat"
	"github.com/danielpatrickdp/softfloat-lab/internal/sweep"
)

var tiny8 = softfloat.NewFormat("tiny8", 3, -6, 7)

// #region csv-tests
func TestWriteSamplesCSV(t *testing.T) {
	var buf bytes.Buffer
	seq := sample.FromParams(sample.Decade, []float64{0, 1, -1})
	require.NoError(t, WriteSamplesCSV(&buf, []eval.Target{tiny8}, seq))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "format,k,x,quantized,abs_error,rel_error", lines[0])
	assert.Equal(t, "tiny8,0.000000,1.0000000000000000e+00,1.0000000000000000e+00,0.0000000000000000e+00,0.0000000000000000e+00", lines[1])
	assert.Equal(t, "tiny8,1.000000,1.0000000000000000e+01,1.0000000000000000e+01,0.0000000000000000e+00,0.0000000000000000e+00", lines[2])
	assert.True(t, strings.HasPrefix(lines[3], "tiny8,-1.000000,1.0000000000000001e-01,1.0156250000000000e-01,"))
}

func TestWriteSamplesCSVZeroInput(t *testing.T) {
	var buf bytes.Buffer
	seq := sample.FromParams(sample.Linear, []float64{0})
	require.NoError(t, WriteSamplesCSV(&buf, []eval.Target{tiny8}, seq))
	assert.Contains(t, buf.String(), "tiny8,0.000000,0.0000000000000000e+00,0.0000000000000000e+00,0.0000000000000000e+00,0.0000000000000000e+00")
}

func TestErrorsOf(t *testing.T) {
	abs, rel := errorsOf(4, 5)
	assert.Equal(t, 1.0, abs)
	assert.Equal(t, 0.25, rel)

	abs, rel = errorsOf(0, 0)
	assert.Equal(t, 0.0, abs)
	assert.Equal(t, 0.0, rel)
}

// #endregion csv-tests

// #region markdown-tests
func TestWriteSummary(t *testing.T) {
	var buf bytes.Buffer
	err := WriteSummary(&buf, SummaryInput{
		Generator: "test-gen",
		KMin:      -20,
		KMax:      20,
		KStep:     0.01,
		Samples:   4001,
		Formats:   softfloat.DefaultPresets(),
	})
	require.NoError(t, err)

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "---\ntitle: Soft Float Sweep Summary\n---\n"))
	assert.Contains(t, out, "generated by `test-gen`")
	assert.Contains(t, out, "- k range: [-20.00, 20.00] step 0.010")
	assert.Contains(t, out, "- number of samples: 4,001")
	assert.Contains(t, out, "- number of formats: 5")
	assert.Contains(t, out, "| tiny8 | 3 | -6 | 7 |")
	assert.Contains(t, out, "| f64_like | 52 | -1022 | 1023 |")
}

func TestWriteRanking(t *testing.T) {
	ranking := []eval.FormatMetrics{
		{Name: "best", Score: -45, FiniteFrac: 1},
		{Name: "worst", MeanRelErr: math.Inf(1), MaxRelErr: math.Inf(1), OverflowFrac: 1, Score: math.Inf(1)},
	}

	var plain bytes.Buffer
	require.NoError(t, WriteRanking(&plain, "gen", eval.DefaultScoreConfig(), ranking))
	out := plain.String()
	assert.Contains(t, out, "+ 0.500*log10(max_rel_err) + 4.000*underflow_frac + 4.000*overflow_frac")
	assert.Contains(t, out, "Focus weighting disabled")
	assert.Contains(t, out, "| 1 | best | -45.0000 |")
	assert.Contains(t, out, "| 0.00% | 0.00% | 100.00% |")
	assert.Contains(t, out, "| 2 | worst | +Inf |")

	cfg := eval.DefaultScoreConfig()
	cfg.Focus = &eval.Interval{Min: -2, Max: 3}
	var focused bytes.Buffer
	require.NoError(t, WriteRanking(&focused, "gen", cfg, ranking))
	assert.Contains(t, focused.String(), "k in [-2.000, 3.000] gets weight 5.000")
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, os.ErrClosed }

func TestMarkdownWriteError(t *testing.T) {
	err := WriteRanking(failWriter{}, "gen", eval.DefaultScoreConfig(), nil)
	assert.ErrorIs(t, err, os.ErrClosed)
}

// #endregion markdown-tests

// #region svg-tests
func TestWriteSweepSVG(t *testing.T) {
	formats := softfloat.DefaultPresets()
	labeled := make([]Labeled, len(formats))
	for i, f := range formats {
		labeled[i] = f
	}
	seq, err := sample.NewSequence(sample.Decade, -10, 10, 0.5)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteSweepSVG(&buf, labeled, seq, -10, 10))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, `<svg xmlns="http://www.w3.org/2000/svg" width="1400" height="860"`))
	assert.True(t, strings.HasSuffix(out, "</svg>"))
	assert.Equal(t, 5, strings.Count(out, "<polyline"))
	assert.Contains(t, out, "tiny8 (m=3, e=[-6,7])")
	assert.Contains(t, out, palette[4])
	assert.NotContains(t, out, "NaN")
	assert.NotContains(t, out, "Inf")
}

func TestEscape(t *testing.T) {
	assert.Equal(t, "a &lt;b&gt; &amp; &quot;c&quot;", escape(`a <b> & "c"`))
}

func TestNativePrecision(t *testing.T) {
	s := NativePrecision()
	require.NotEmpty(t, s.F64)
	require.NotEmpty(t, s.F32)
	assert.Len(t, s.F64Residual, 41*8)
	assert.Len(t, s.F32Residual, 41*8)

	// At x = 1 the f64 ULP is 2^-52.
	for _, p := range s.F64 {
		if p.x == 0 {
			assert.InDelta(t, -52*log10Two, p.y, 1e-12)
		}
	}
	for _, p := range append(s.F64Residual, s.F32Residual...) {
		assert.LessOrEqual(t, p.y, 1e-6)
		assert.GreaterOrEqual(t, p.y, -log10Two-1e-6)
	}

	var buf bytes.Buffer
	require.NoError(t, WritePrecisionSVG(&buf, s))
	assert.Equal(t, 4, strings.Count(buf.String(), "<polyline"))
	assert.Contains(t, buf.String(), "Jagged view")
}

func TestSteps(t *testing.T) {
	assert.Nil(t, steps(nil))
	got := steps([]point{{0, 0}, {1, 2}, {2, 1}})
	assert.Equal(t, []point{{0, 0}, {1, 0}, {1, 2}, {2, 2}, {2, 1}}, got)
}

// #endregion svg-tests

// #region profile-tests
func TestAsymmetricDemo(t *testing.T) {
	p, err := AsymmetricDemo()
	require.NoError(t, err)
	assert.Len(t, p.Xs, 301)

	metrics := p.ZoneMetrics()
	bf16 := metrics["bf16_like"]
	profile := metrics["profile_pos_fine_neg_coarse"]
	require.Len(t, bf16, 2)
	require.Len(t, profile, 2)

	// coarse on the negative side, fine on the positive side
	assert.Greater(t, profile[0].MeanRelErr, bf16[0].MeanRelErr)
	assert.Less(t, profile[1].MeanRelErr, bf16[1].MeanRelErr)

	var md bytes.Buffer
	require.NoError(t, p.WriteMarkdown(&md))
	assert.Contains(t, md.String(), "| x | bf16_like | f32_like | profile_pos_fine_neg_coarse |")
	assert.Contains(t, md.String(), "Sampled x in [-1.00, 2.00], 301 points.")
	assert.Contains(t, md.String(), "exactly 0 and counts toward [0, 2)")
	assert.Contains(t, md.String(), "| ---: | ---: | ---: | ---: |")
	assert.Contains(t, md.String(), "| 1.000 | 1.00000000 | 1.00000000 | 1.00000000 |")

	var csvBuf bytes.Buffer
	require.NoError(t, p.WriteCSV(&csvBuf))
	lines := strings.Split(strings.TrimSpace(csvBuf.String()), "\n")
	assert.Len(t, lines, 1+301*3)
	assert.Equal(t, "x,quantizer,quantized,abs_error,rel_error", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "-1.000000,bf16_like,-1.000000000000,"))
}

// #endregion profile-tests

// #region write-sweep-tests
func TestWriteSweep(t *testing.T) {
	log, _ := test.NewNullLogger()
	cfg, err := config.ParseArgs([]string{"--k-min", "-3", "--k-max", "3", "--k-step", "0.5"})
	require.NoError(t, err)

	res, err := sweep.Run(context.Background(), cfg, log)
	require.NoError(t, err)

	prefix := filepath.Join(t.TempDir(), "nested", "dir", "sweep")
	paths, err := WriteSweep(prefix, res)
	require.NoError(t, err)
	assert.Equal(t, []string{prefix + ".svg", prefix + ".csv", prefix + "_summary.md", prefix + "_ranking.md"}, paths)

	for _, p := range paths {
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0))
	}

	data, err := os.ReadFile(prefix + ".csv")
	require.NoError(t, err)
	assert.Equal(t, 1+13*5, strings.Count(string(data), "\n"))

	ranking, err := os.ReadFile(prefix + "_ranking.md")
	require.NoError(t, err)
	assert.Contains(t, string(ranking), "| 1 | "+res.Ranking[0].Name+" |")
}

// #endregion write-sweep-tests
