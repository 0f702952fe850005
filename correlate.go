package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gonum.org/v1/plot/vg"

	"xpug.it/packscore/internal/config"
	"xpug.it/packscore/internal/correlation"
	"xpug.it/packscore/internal/record"
	"xpug.it/packscore/internal/scatter"
)

func newCorrelateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "correlate",
		Short: "Correlate the area score with the spread or closeness score",
		Long: `correlate prints the 2x2 Pearson correlation matrix of the score column and
the chosen column, then shows a scatter plot of the two. The plot opens in an
image viewer and the command waits until the viewer exits or, for launchers
that return at once, until Enter is pressed; --plot-out saves it instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.correlate(cmd)
		},
	}
	f := cmd.Flags()
	f.String("column", "spread_score", "column to correlate with score: spread_score or closeness")
	f.String("plot-out", "", "save the scatter plot to `file` instead of opening a viewer")
	f.String("viewer", "", "image viewer command (default depends on the platform)")
	f.String("plot-width", "6in", "plot width")
	f.String("plot-height", "4in", "plot height")
	f.Bool("no-plot", false, "skip the scatter plot")
	a.bind(f, map[string]string{
		"column":      "correlate.column",
		"plot-out":    "plot.out",
		"viewer":      "plot.viewer",
		"plot-width":  "plot.width",
		"plot-height": "plot.height",
		"no-plot":     "plot.skip",
	})
	return cmd
}

func plotSize(c config.PlotConfig) (scatter.Size, error) {
	size := scatter.DefaultSize
	var err error
	if c.Width != "" {
		if size.Width, err = vg.ParseLength(c.Width); err != nil {
			return scatter.Size{}, fmt.Errorf("plot width %q: %w", c.Width, err)
		}
	}
	if c.Height != "" {
		if size.Height, err = vg.ParseLength(c.Height); err != nil {
			return scatter.Size{}, fmt.Errorf("plot height %q: %w", c.Height, err)
		}
	}
	return size, nil
}

func (a *app) correlate(cmd *cobra.Command) error {
	col, err := record.ParseColumn(a.cfg.Correlate.Column)
	if err != nil {
		return err
	}
	size, err := plotSize(a.cfg.Plot)
	if err != nil {
		return err
	}

	records, _, err := a.readData(cmd.Context())
	if err != nil {
		return err
	}
	series, err := correlation.Extract(records, col)
	if err != nil {
		return fmt.Errorf("%s: %w", a.cfg.Input, err)
	}
	res, err := correlation.Compute(series)
	if err != nil {
		return fmt.Errorf("%s: %w", a.cfg.Input, err)
	}

	scores, values := correlation.Describe(series)
	a.log.Debug().
		Int("n", res.N).
		Float64("score_mean", scores.Mean).
		Float64("score_stddev", scores.StdDev).
		Float64("value_mean", values.Mean).
		Float64("value_stddev", values.StdDev).
		Msg("series")
	if !res.Defined() {
		a.log.Warn().
			Int("n", res.N).
			Stringer("column", col).
			Msg("correlation undefined: fewer than two records or a constant series")
	}
	if err := res.Print(a.out); err != nil {
		return err
	}

	if a.cfg.Plot.Skip {
		return nil
	}
	p, err := scatter.New(series.Scores, series.Values, correlation.Label(record.ColumnScore), correlation.Label(col))
	if err != nil {
		return err
	}
	if a.cfg.Plot.Out != "" {
		if err := scatter.Save(p, size, a.cfg.Plot.Out); err != nil {
			return fmt.Errorf("save plot: %w", err)
		}
		a.log.Info().Str("path", a.cfg.Plot.Out).Msg("plot saved")
		return nil
	}
	return a.display(cmd.Context(), p, size, scatter.ParseViewer(a.cfg.Plot.Viewer))
}
