package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/budgetsolve/pkg/api"
	"github.com/matzehuels/budgetsolve/pkg/pipeline"
	"github.com/matzehuels/budgetsolve/pkg/solver"
)

// compareCommand creates the compare command.
func (c *CLI) compareCommand() *cobra.Command {
	var (
		flags      problemFlags
		algorithms []string
	)

	cmd := &cobra.Command{
		Use:   "compare [dataset]",
		Short: "Run several strategies on one problem side by side",
		Long: `Run several strategies on the same problem and report each result with
its accuracy against the best exact answer. Strategies that exceed their
limits are listed with the error instead of a selection.`,
		Example: `  budgetsolve compare --costs 120,80,150,40 --budget 300
  budgetsolve compare portfolio.json --algorithms dp,greedy,hybrid`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := c.load(cmd, args, &flags)
			if err != nil {
				return err
			}
			return c.runCompare(cmd, in, algorithms, flags)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringSliceVar(&algorithms, "algorithms", nil, "strategies to compare (default: all)")

	return cmd
}

func (c *CLI) runCompare(cmd *cobra.Command, in *problemInput, names []string, flags problemFlags) error {
	ctx := cmd.Context()
	runner, err := c.newRunner(ctx, runnerOpts{noCache: flags.noCache, noRecord: flags.noRecord})
	if err != nil {
		return err
	}
	defer runner.Close()

	algorithms := make([]solver.Algorithm, len(names))
	for i, n := range names {
		algorithms[i] = solver.Algorithm(n)
	}

	var spinner *Spinner
	if !flags.jsonOut {
		spinner = newSpinner(ctx, "Comparing strategies...")
		spinner.Start()
	}
	prog := newProgress(c.Logger)

	res, err := runner.Compare(ctx, pipeline.CompareOptions{
		Items:      in.items,
		Budget:     in.budget,
		Precision:  &in.precision,
		Algorithms: algorithms,
		Timeout:    in.timeout,
		Refresh:    flags.refresh,
		NoRecord:   flags.noRecord,
		Logger:     c.Logger,
	})
	if spinner != nil {
		spinner.Stop()
	}
	if err != nil {
		return err
	}
	prog.done("comparison finished")

	cmp := res.Comparison
	if flags.jsonOut {
		out := api.CompareResponse{
			ComparisonID:   res.ComparisonID,
			ReferenceValue: cmp.ReferenceValue,
			ReferenceExact: cmp.ReferenceExact,
			CacheHit:       res.CacheHit,
			Results:        make([]api.CompareEntry, len(cmp.Results)),
		}
		for i, r := range cmp.Results {
			out.Results[i] = api.CompareEntry{RunID: res.RunIDs[i], ComparisonResult: r}
		}
		return writeJSONOut(out)
	}

	fmt.Fprintln(stdout, renderComparison(cmp))
	if cmp.ReferenceExact {
		printInfo("Reference value %s (exact)", StyleNumber.Render(formatFloat(cmp.ReferenceValue)))
	} else {
		printWarning("No exact strategy finished; accuracy is not reported")
	}
	if res.ComparisonID != "" {
		printDetail("comparison %s", res.ComparisonID)
	}
	return nil
}
