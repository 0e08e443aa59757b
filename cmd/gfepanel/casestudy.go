package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/banshee-data/gfe-panel/internal/casestudy"
	"github.com/banshee-data/gfe-panel/internal/chart"
	"github.com/banshee-data/gfe-panel/internal/monitoring"
	"github.com/banshee-data/gfe-panel/internal/stata"
)

func newCaseStudyCmd(a *app) *cobra.Command {
	var ranges bool
	cmd := &cobra.Command{
		Use:   "casestudy [results.dta]",
		Short: "Plot democracy and income by estimated group",
		Long: `Reads the estimator's output for the democracy/income panel (default
5yearpanel_GFE.dta, or GFE_CASESTUDY_INPUT) and writes democracy.png,
gdp.png and casestudy.html to the output directory. --ranges prints the
spread of each country's assignments.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := a.cfg.GetCaseStudy()
			if len(args) == 1 {
				input = args[0]
			}
			return runCaseStudy(cmd.OutOrStdout(), input, a.cfg.GetOutputDir(), ranges)
		},
	}
	cmd.Flags().BoolVar(&ranges, "ranges", false, "print per-country assignment ranges")
	return cmd
}

func runCaseStudy(out io.Writer, input, dir string, ranges bool) error {
	f, err := stata.ReadFile(input)
	if err != nil {
		return err
	}
	obs, err := casestudy.Load(f, casestudy.DefaultColumns(), casestudy.DefaultLabels)
	if err != nil {
		return err
	}
	monitoring.Logf("loaded %d country-years from %s", len(obs), input)

	dem, gdp, err := casestudy.Figures(obs, casestudy.DefaultOptions())
	if err != nil {
		return err
	}
	for name, fig := range map[string]chart.Figure{"democracy.png": dem, "gdp.png": gdp} {
		path := filepath.Join(dir, name)
		if err := chart.SavePNG(fig, path, 0, 0); err != nil {
			return err
		}
		monitoring.Logf("wrote %s", path)
	}
	path := filepath.Join(dir, "casestudy.html")
	if err := writeHTML(path, dem, gdp); err != nil {
		return err
	}
	monitoring.Logf("wrote %s", path)

	if ranges {
		fmt.Fprintf(out, "%-8s %6s %4s %4s %5s\n", "code", "mean", "min", "max", "range")
		for _, r := range casestudy.AssignmentRanges(obs) {
			fmt.Fprintf(out, "%-8s %6.2f %4g %4g %5g\n", r.Code, r.Mean, r.Min, r.Max, r.Range)
		}
	}
	return nil
}
