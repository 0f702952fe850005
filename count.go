package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"xpug.it/packscore/internal/config"
	"xpug.it/packscore/internal/tally"
)

func newCountCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "count",
		Short: "Count the order column among rows whose score satisfies a predicate",
		Long: `count prints "<order>: <count>" for every order seen in a matching row,
most frequent first. The default variant "below" counts rows with score < 6 and
"zero" counts rows with score == 0; --predicate and --value override either.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.count(cmd)
		},
	}
	f := cmd.Flags()
	f.String("variant", "below", "predicate preset: below (score < 6) or zero (score == 0)")
	f.String("predicate", "", "comparison: lt or eq")
	f.String("value", "", "value the score is compared against")
	a.bind(f, map[string]string{
		"variant":   "count.variant",
		"predicate": "count.predicate",
		"value":     "count.value",
	})
	return cmd
}

// predicate resolves the configured preset and applies any overrides.
func predicate(c config.CountConfig) (tally.Predicate, error) {
	p, err := tally.Variant(c.Variant)
	if err != nil {
		return tally.Predicate{}, err
	}
	if c.Predicate != "" {
		if p.Kind, err = tally.ParseKind(c.Predicate); err != nil {
			return tally.Predicate{}, err
		}
	}
	if c.Value != "" {
		if p.Value, err = strconv.Atoi(c.Value); err != nil {
			return tally.Predicate{}, fmt.Errorf("count value %q: %w", c.Value, err)
		}
	}
	return p, nil
}

func (a *app) count(cmd *cobra.Command) error {
	p, err := predicate(a.cfg.Count)
	if err != nil {
		return err
	}

	records, _, err := a.readData(cmd.Context())
	if err != nil {
		return err
	}

	t, err := tally.Run(records, p)
	if err != nil {
		return fmt.Errorf("%s: %w", a.cfg.Input, err)
	}
	a.log.Info().
		Stringer("predicate", p).
		Int("records", len(records)).
		Int("matched", t.Total()).
		Int("orders", len(t.Entries())).
		Msg("counted")
	return t.Print(a.out)
}
