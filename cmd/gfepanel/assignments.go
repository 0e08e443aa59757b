package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/banshee-data/gfe-panel/internal/gfe"
	"github.com/banshee-data/gfe-panel/internal/monitoring"
	"github.com/banshee-data/gfe-panel/internal/stata"
)

type assignmentsFlags struct {
	truth string
	run   string
	save  bool
	cols  gfe.Columns
}

func newAssignmentsCmd(a *app) *cobra.Command {
	f := assignmentsFlags{cols: gfe.DefaultColumns()}
	cmd := &cobra.Command{
		Use:   "assignments <results.dta>",
		Short: "Summarise and score the estimator's group assignments",
		Long: `Reads the GFE estimator's result file and prints each individual's
assignment summary. With --truth (an exported df.dta) or --run (a stored
run id) the estimated groups are matched to the true ones and scored.
--save stores the assignments under --run.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runAssignments(cmd.OutOrStdout(), args[0], f)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.truth, "truth", "", "exported panel (.dta) holding the true groups")
	fl.StringVar(&f.run, "run", "", "stored run id holding the true groups")
	fl.BoolVar(&f.save, "save", false, "store the assignments under --run")
	fl.StringVar(&f.cols.Individual, "individual-col", f.cols.Individual, "individual id variable")
	fl.StringVar(&f.cols.Time, "time-col", f.cols.Time, "time variable (optional in the file)")
	fl.StringVar(&f.cols.Assignment, "assignment-col", f.cols.Assignment, "group assignment variable")
	cmd.MarkFlagsMutuallyExclusive("truth", "run")
	return cmd
}

func (a *app) runAssignments(out io.Writer, path string, f assignmentsFlags) error {
	if f.save && f.run == "" {
		return fmt.Errorf("--save needs --run")
	}

	res, err := stata.ReadFile(path)
	if err != nil {
		return err
	}
	as, err := gfe.AssignmentsFromFrame(res, f.cols)
	if err != nil {
		return err
	}
	sums := gfe.Summarize(as)
	monitoring.Logf("read %d assignments for %d individuals from %s", len(as), len(sums), path)

	fmt.Fprintf(out, "%10s %6s %8s %5s %5s %6s\n", "individual", "count", "mean", "min", "max", "modal")
	for _, s := range sums {
		fmt.Fprintf(out, "%10d %6d %8.3f %5g %5g %6d\n", s.Individual, s.Count, s.Mean, s.Min, s.Max, s.Modal)
	}

	var truth map[int]int
	switch {
	case f.truth != "":
		tf, err := stata.ReadFile(f.truth)
		if err != nil {
			return err
		}
		if truth, err = gfe.TruthFromFrame(tf); err != nil {
			return err
		}
	case f.run != "":
		st, err := a.openStore()
		if err != nil {
			return err
		}
		defer st.Close()
		p, err := st.LoadRun(f.run)
		if err != nil {
			return err
		}
		truth = gfe.TruthFromPanel(p)
		if f.save {
			if err := st.SaveAssignments(f.run, as); err != nil {
				return err
			}
			monitoring.Logf("stored %d assignments under run %s", len(as), f.run)
		}
	default:
		return nil
	}

	rec, err := gfe.Recover(truth, sums)
	if err != nil {
		return err
	}
	printRecovery(out, rec)
	return nil
}

func printRecovery(out io.Writer, rec *gfe.Recovery) {
	fmt.Fprintf(out, "\naccuracy %.3f (%d of %d)\n", rec.Accuracy, rec.Correct, rec.Scored)
	for _, est := range rec.EstimatedLabels {
		if tru, ok := rec.Mapping[est]; ok {
			fmt.Fprintf(out, "estimated %d -> true %d\n", est, tru)
		} else {
			fmt.Fprintf(out, "estimated %d -> unmatched\n", est)
		}
	}

	fmt.Fprintf(out, "\n%9s", "est\\true")
	for _, tru := range rec.TrueLabels {
		fmt.Fprintf(out, " %5d", tru)
	}
	fmt.Fprintln(out)
	for i, est := range rec.EstimatedLabels {
		fmt.Fprintf(out, "%9d", est)
		for _, n := range rec.Confusion[i] {
			fmt.Fprintf(out, " %5d", n)
		}
		fmt.Fprintln(out)
	}

	if len(rec.Unstable) > 0 {
		fmt.Fprintf(out, "unstable individuals: %v\n", rec.Unstable)
	}
	if len(rec.Missing) > 0 {
		fmt.Fprintf(out, "missing from results: %v\n", rec.Missing)
	}
	if len(rec.Unknown) > 0 {
		fmt.Fprintf(out, "not in ground truth: %v\n", rec.Unknown)
	}
}

