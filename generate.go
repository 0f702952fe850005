package main

import (
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"xpug.it/packscore/internal/generate"
)

func newGenerateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write random packings of the initial rectangles and their scores",
		Long: `generate packs the 10x10, 20x10, 10x20 and 20x20 rectangles at random
positions, once per trial, and writes one row per packing:

  score,spread_score,packing,order,closeness

A .gz, .zst or .lz4 suffix on --output compresses the file. A fixed --seed
gives identical output regardless of --workers.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.generate(cmd)
		},
	}
	f := cmd.Flags()
	f.String("output", "out.csv", "file to write")
	f.Int("trials", 10_000_000, "number of rows")
	f.Int64("seed", 0, "random seed (0 picks one from the clock)")
	f.Int("workers", runtime.NumCPU(), "concurrent batch builders")
	a.bind(f, map[string]string{
		"output":  "generate.output",
		"trials":  "generate.trials",
		"seed":    "generate.seed",
		"workers": "generate.workers",
	})
	return cmd
}

func (a *app) generate(cmd *cobra.Command) error {
	c := a.cfg.Generate
	if err := c.Validate(); err != nil {
		return err
	}
	seed := c.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	estimate, err := generate.EstimateSize(c.Trials, seed)
	if err != nil {
		return err
	}
	a.log.Info().
		Str("output", c.Output).
		Int("trials", c.Trials).
		Int64("seed", seed).
		Int("workers", c.Workers).
		Str("estimated_size", estimate).
		Msg("building test data")

	stats, err := generate.WriteFile(cmd.Context(), generate.RealFileWriter{}, c.Output, generate.Options{
		Trials:  c.Trials,
		Seed:    seed,
		Workers: c.Workers,
		Log:     a.log,
	})
	if err != nil {
		return err
	}
	a.log.Info().
		Int("rows", stats.Rows).
		Int("tries", stats.Tries).
		Int64("bytes", stats.Bytes).
		Dur("elapsed", stats.Elapsed).
		Msg("test data written")
	return nil
}
