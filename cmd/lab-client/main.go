package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	flags "github.com/jessevdk/go-flags"

	"github.com/danielpatrickdp/softfloat-lab/internal/config"
	"github.com/danielpatrickdp/softfloat-lab/internal/rpc"
	"github.com/danielpatrickdp/softfloat-lab/internal/softfloat"
)

type globalOptions struct {
	Addr    string        `long:"addr" env:"SOFTFLOAT_LISTEN" default:"localhost:50051" description:"lab server address"`
	Timeout time.Duration `long:"timeout" default:"30s" description:"per-call deadline"`
}

type quantizeCommand struct {
	Format string `long:"format" required:"true" value-name:"name,m,min_e,max_e" description:"format descriptor"`
	Args   struct {
		Values []string `positional-arg-name:"value" required:"1"`
	} `positional-args:"yes"`
}

type rankCommand struct {
	Args struct {
		Config string `positional-arg-name:"sweep.yaml" required:"yes"`
	} `positional-args:"yes"`
}

var opts globalOptions

// #region main
func main() {
	parser := flags.NewParser(&opts, flags.Default)
	quantize := &quantizeCommand{}
	rank := &rankCommand{}
	if _, err := parser.AddCommand("quantize", "Quantize values on the server", "", quantize); err != nil {
		panic(err)
	}
	if _, err := parser.AddCommand("rank", "Rank the formats of a sweep file on the server", "", rank); err != nil {
		panic(err)
	}

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(2)
	}
}

// #endregion main

// #region commands
func (c *quantizeCommand) Execute([]string) error {
	f, err := softfloat.ParseFormat(c.Format)
	if err != nil {
		return err
	}
	values := make([]float64, len(c.Args.Values))
	for i, s := range c.Args.Values {
		if values[i], err = strconv.ParseFloat(s, 64); err != nil {
			return fmt.Errorf("value %q: %w", s, err)
		}
	}

	client, err := rpc.NewClient(opts.Addr)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
	defer cancel()
	out, err := client.Quantize(ctx, f, values)
	if err != nil {
		return err
	}
	for i, q := range out {
		fmt.Printf("%-24s -> %s\n", c.Args.Values[i], strconv.FormatFloat(q, 'g', -1, 64))
	}
	return nil
}

func (c *rankCommand) Execute([]string) error {
	file, err := config.LoadFile(c.Args.Config)
	if err != nil {
		return err
	}

	client, err := rpc.NewClient(opts.Addr)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
	defer cancel()
	res, err := client.Rank(ctx, file)
	if err != nil {
		return err
	}

	fmt.Printf("Run %s\n\n", res.RunID)
	fmt.Printf("%4s  %-14s  %10s  %12s  %12s\n", "Rank", "Format", "Score", "Mean RelErr", "Max RelErr")
	for i, m := range res.Ranking {
		fmt.Printf("%4d  %-14s  %10.4f  %12.3e  %12.3e\n", i+1, m.Name, m.Score, m.MeanRelErr, m.MaxRelErr)
	}
	return nil
}

// #endregion commands
