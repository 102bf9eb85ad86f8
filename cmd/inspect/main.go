package main

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strconv"

	flags "github.com/jessevdk/go-flags"

	"github.com/danielpatrickdp/softfloat-lab/internal/eval"
	"github.com/danielpatrickdp/softfloat-lab/internal/store"
)

type options struct {
	DB     string `long:"db" env:"SOFTFLOAT_DB" required:"true" description:"SQLite run store path"`
	Last   int    `long:"last" default:"20" description:"show N most recent runs"`
	Run    string `long:"run" description:"show a single run's ranking"`
	Latest bool   `long:"latest" description:"show the most recent run's ranking"`
	JSON   bool   `long:"json" description:"output as JSON instead of a table"`
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

	st, err := store.NewStore(opts.DB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	switch {
	case opts.Run != "" || opts.Latest:
		err = runDetailMode(st, opts.Run, opts.JSON)
	default:
		err = runListMode(st, opts.Last, opts.JSON)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region list-mode

type listRow struct {
	RunID       string    `json:"run_id"`
	CreatedAt   string    `json:"created_at"`
	KRange      string    `json:"k_range"`
	Samples     int       `json:"samples"`
	Formats     int       `json:"formats"`
	Winner      string    `json:"winner,omitempty"`
	WinnerScore jsonFloat `json:"winner_score"`
}

func runListMode(st *store.Store, last int, jsonOut bool) error {
	runs, err := st.ListRuns(last)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(os.Stderr, "no runs found")
		return nil
	}

	rows := make([]listRow, len(runs))
	for i, r := range runs {
		rows[i] = listRow{
			RunID:       r.ID,
			CreatedAt:   r.CreatedAt.Format("2006-01-02T15:04:05Z"),
			KRange:      fmt.Sprintf("[%g, %g] step %g", r.KMin, r.KMax, r.KStep),
			Samples:     r.SampleCount,
			Formats:     r.FormatCount,
			Winner:      r.Winner,
			WinnerScore: jsonFloat(r.WinnerScore),
		}
	}

	if jsonOut {
		return printJSON(rows)
	}

	fmt.Printf("%-10s  %-26s  %7s  %7s  %-14s  %10s  %s\n",
		"Run", "K Range", "Samples", "Formats", "Winner", "Score", "Time")
	fmt.Printf("%-10s+-%-26s+-%7s+-%7s+-%-14s+-%10s+-%s\n",
		"----------", "--------------------------", "-------", "-------", "--------------", "----------", "--------------------")
	for _, r := range rows {
		winner := r.Winner
		if winner == "" {
			winner = "-"
		}
		fmt.Printf("%-10s  %-26s  %7d  %7d  %-14s  %10s  %s\n",
			shortID(r.RunID), r.KRange, r.Samples, r.Formats, winner, fmtScore(float64(r.WinnerScore)), r.CreatedAt)
	}
	return nil
}

// #endregion list-mode

// #region detail-mode

type detailOutput struct {
	RunID      string         `json:"run_id"`
	CreatedAt  string         `json:"created_at"`
	Domain     string         `json:"domain"`
	KMin       float64        `json:"k_min"`
	KMax       float64        `json:"k_max"`
	KStep      float64        `json:"k_step"`
	Samples    int            `json:"samples"`
	Formats    []formatDetail `json:"formats"`
	Ranking    []rankDetail   `json:"ranking"`
}

type formatDetail struct {
	Kind         string `json:"kind"`
	Name         string `json:"name"`
	MantissaBits uint   `json:"mantissa_bits"`
	MinExp2      int    `json:"min_exp2"`
	MaxExp2      int    `json:"max_exp2"`
}

type rankDetail struct {
	Rank          int       `json:"rank"`
	Name          string    `json:"name"`
	Score         jsonFloat `json:"score"`
	MeanRelErr    jsonFloat `json:"mean_rel_err"`
	MaxRelErr     jsonFloat `json:"max_rel_err"`
	UnderflowFrac float64   `json:"underflow_frac"`
	OverflowFrac  float64   `json:"overflow_frac"`
	FiniteFrac    float64   `json:"finite_frac"`
}

func runDetailMode(st *store.Store, runID string, jsonOut bool) error {
	var run store.Run
	var err error
	if runID != "" {
		run, err = st.GetRun(runID)
	} else {
		run, err = st.LatestRun()
	}
	if err != nil {
		return err
	}

	out := detailOutput{
		RunID:      run.ID,
		CreatedAt:  run.CreatedAt.Format("2006-01-02T15:04:05Z"),
		Domain:     run.Domain,
		KMin:       run.KMin,
		KMax:       run.KMax,
		KStep:      run.KStep,
		Samples:    run.SampleCount,
	}
	for _, f := range run.Formats {
		out.Formats = append(out.Formats, formatDetail(f))
	}
	for i, m := range run.Ranking {
		out.Ranking = append(out.Ranking, rankRow(i+1, m))
	}

	if jsonOut {
		return printJSON(out)
	}

	fmt.Printf("Run:      %s\n", out.RunID)
	fmt.Printf("Created:  %s\n", out.CreatedAt)
	fmt.Printf("Domain:   %s\n", out.Domain)
	fmt.Printf("K Range:  [%g, %g] step %g\n", out.KMin, out.KMax, out.KStep)
	fmt.Printf("Samples:  %d\n", out.Samples)

	fmt.Printf("\nFormats:\n")
	for _, f := range out.Formats {
		fmt.Printf("  %-14s %-9s m=%-3d e=[%d, %d]\n", f.Name, f.Kind, f.MantissaBits, f.MinExp2, f.MaxExp2)
	}

	fmt.Printf("\nRanking:\n")
	fmt.Printf("  %4s  %-14s  %10s  %12s  %12s  %9s  %9s\n",
		"Rank", "Format", "Score", "Mean RelErr", "Max RelErr", "Underflow", "Overflow")
	for _, r := range out.Ranking {
		fmt.Printf("  %4d  %-14s  %10s  %12.3e  %12.3e  %8.2f%%  %8.2f%%\n",
			r.Rank, r.Name, fmtScore(float64(r.Score)), float64(r.MeanRelErr), float64(r.MaxRelErr),
			100*r.UnderflowFrac, 100*r.OverflowFrac)
	}
	return nil
}

func rankRow(rank int, m eval.FormatMetrics) rankDetail {
	return rankDetail{
		Rank:          rank,
		Name:          m.Name,
		Score:         jsonFloat(m.Score),
		MeanRelErr:    jsonFloat(m.MeanRelErr),
		MaxRelErr:     jsonFloat(m.MaxRelErr),
		UnderflowFrac: m.UnderflowFrac,
		OverflowFrac:  m.OverflowFrac,
		FiniteFrac:    m.FiniteFrac,
	}
}

// #endregion detail-mode

// #region output

// jsonFloat encodes infinities and NaN as strings, which encoding/json
// otherwise refuses.
type jsonFloat float64

func (f jsonFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return json.Marshal(strconv.FormatFloat(v, 'g', -1, 64))
	}
	return json.Marshal(v)
}

func fmtScore(v float64) string {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return fmt.Sprint(v)
	}
	return fmt.Sprintf("%.4f", v)
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// #endregion output
