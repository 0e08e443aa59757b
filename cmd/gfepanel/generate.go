package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/banshee-data/gfe-panel/internal/chart"
	"github.com/banshee-data/gfe-panel/internal/export"
	"github.com/banshee-data/gfe-panel/internal/monitoring"
	"github.com/banshee-data/gfe-panel/internal/panel"
	"github.com/banshee-data/gfe-panel/internal/stata"
)

type generateFlags struct {
	seed        uint64
	individuals int
	periods     int
	formats     string
	figures     bool
	html        bool
}

func newGenerateCmd(a *app) *cobra.Command {
	var f generateFlags
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a synthetic panel and export it",
		Long: `Generates a panel from the configured seed, prints each individual's
group, and writes df.<format> (and trends.<format>) to the output
directory together with panel and trend figures. With --db the run is
also stored for later scoring.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runGenerate(cmd, f)
		},
	}
	fl := cmd.Flags()
	fl.Uint64Var(&f.seed, "seed", 0, "random seed (default 5)")
	fl.IntVar(&f.individuals, "individuals", 0, "number of individuals (default 10)")
	fl.IntVar(&f.periods, "periods", 0, "number of periods (default 20)")
	fl.StringVar(&f.formats, "formats", "", "comma-separated export formats: dta, csv, xlsx (default dta)")
	fl.BoolVar(&f.figures, "figures", true, "write panel.png and trends.png")
	fl.BoolVar(&f.html, "html", true, "write the interactive panel.html")
	return cmd
}

func (a *app) runGenerate(cmd *cobra.Command, f generateFlags) error {
	flags := cmd.Flags()
	if flags.Changed("seed") {
		a.cfg.Seed = &f.seed
	}
	if flags.Changed("individuals") {
		a.cfg.Individuals = &f.individuals
	}
	if flags.Changed("periods") {
		a.cfg.Periods = &f.periods
	}
	if flags.Changed("formats") {
		a.cfg.Formats = &f.formats
	}

	s, err := a.cfg.Resolve()
	if err != nil {
		return err
	}
	p, err := panel.GenerateSeeded(s.Panel, s.Seed)
	if err != nil {
		return err
	}
	monitoring.Logf("generated %d rows (%d individuals x %d periods, seed %d)",
		len(p.Rows), p.Config.Individuals, p.Config.Periods, p.Seed)

	out := cmd.OutOrStdout()
	for i, g := range p.Membership {
		fmt.Fprintf(out, "individual %d: group %d\n", i, g)
	}

	opts := export.Options{Stata: stata.WriteOptions{Label: "Synthetic GFE panel"}}
	paths, err := export.WriteAll(s.OutputDir, "df", s.Formats, p.Frame(), opts)
	if err != nil {
		return err
	}
	opts.Stata.Label = "Latent group trends"
	trendPaths, err := export.WriteAll(s.OutputDir, "trends", s.Formats, p.TrendFrame(), opts)
	if err != nil {
		return err
	}
	paths = append(paths, trendPaths...)

	if f.figures {
		for name, fig := range map[string]chart.Figure{
			"panel.png":  chart.PanelFigure(p),
			"trends.png": chart.TrendFigure(p),
		} {
			path := filepath.Join(s.OutputDir, name)
			if err := chart.SavePNG(fig, path, 0, 0); err != nil {
				return err
			}
			paths = append(paths, path)
		}
	}
	if f.html {
		path := filepath.Join(s.OutputDir, "panel.html")
		if err := writeHTML(path, chart.PanelFigure(p), chart.TrendFigure(p)); err != nil {
			return err
		}
		paths = append(paths, path)
	}
	for _, path := range paths {
		monitoring.Logf("wrote %s", path)
	}

	if s.DBPath != "" {
		st, err := a.openStore()
		if err != nil {
			return err
		}
		defer st.Close()
		id, err := st.SaveRun(p)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "run %s\n", id)
	}
	return nil
}

func writeHTML(path string, figs ...chart.Figure) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	fh, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	err = chart.RenderHTML(fh, figs...)
	if cerr := fh.Close(); err == nil {
		err = cerr
	}
	return err
}
