package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/matzehuels/budgetsolve/pkg/api"
	errs "github.com/matzehuels/budgetsolve/pkg/errors"
	"github.com/matzehuels/budgetsolve/pkg/pipeline"
	"github.com/matzehuels/budgetsolve/pkg/solver"
)

// solveCommand creates the solve command.
func (c *CLI) solveCommand() *cobra.Command {
	var (
		flags     problemFlags
		algorithm string
		watch     bool
	)

	cmd := &cobra.Command{
		Use:   "solve [dataset]",
		Short: "Pick the best subset of items that fits a budget",
		Long: `Pick the subset of items with the highest total value whose total cost
stays within the budget. Items come from a dataset file (json, yaml, toml
or csv; "-" reads stdin) or from --costs.

Algorithms: auto (default), brute_force, dp, backtracking, greedy, hybrid.`,
		Example: `  budgetsolve solve --costs 120,80,150,40 --budget 300
  budgetsolve solve portfolio.yaml --algorithm dp
  cat items.csv | budgetsolve solve - --format csv --budget 1000 --json
  budgetsolve solve portfolio.yaml --watch`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			solve := func() error {
				in, err := c.load(cmd, args, &flags)
				if err != nil {
					return err
				}
				if cmd.Flags().Changed("algorithm") {
					in.algorithm = algorithm
				}
				return c.runSolve(cmd, in, flags)
			}
			if !watch {
				return solve()
			}
			if len(args) != 1 || args[0] == "-" {
				return errs.New(errs.ErrCodeInvalidInput, "--watch needs a dataset file")
			}
			return c.watchSolve(cmd, args[0], solve)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&algorithm, "algorithm", "a", string(solver.Auto), "strategy to use")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "solve again whenever the dataset file changes")

	return cmd
}

func (c *CLI) runSolve(cmd *cobra.Command, in *problemInput, flags problemFlags) error {
	ctx := cmd.Context()
	runner, err := c.newRunner(ctx, runnerOpts{noCache: flags.noCache, noRecord: flags.noRecord})
	if err != nil {
		return err
	}
	defer runner.Close()

	var spinner *Spinner
	if !flags.jsonOut {
		spinner = newSpinner(ctx, "Solving...")
		spinner.Start()
	}
	prog := newProgress(c.Logger)

	res, err := runner.Solve(ctx, pipeline.Options{
		Items:     in.items,
		Budget:    in.budget,
		Algorithm: solver.Algorithm(in.algorithm),
		Precision: &in.precision,
		Timeout:   in.timeout,
		Refresh:   flags.refresh,
		NoRecord:  flags.noRecord,
		Logger:    c.Logger,
	})
	if spinner != nil {
		spinner.Stop()
	}
	if err != nil {
		return err
	}
	prog.done("solve finished")

	if flags.jsonOut {
		return writeJSONOut(api.SolveResponse{
			RunID:     res.RunID,
			CacheHit:  res.CacheHit,
			Selection: res.Selection,
		})
	}

	printSelection(res.Selection, len(in.items), res.CacheHit)
	if res.RunID != "" {
		printNewline()
		printNextStep("Details", "budgetsolve runs show "+res.RunID)
	}
	return nil
}

// watchSolve solves once, then again after every change to path until the
// command is interrupted. Failed solves are reported and watching goes on.
func (c *CLI) watchSolve(cmd *cobra.Command, path string, solve func() error) error {
	w, err := newDatasetWatcher(path, c.Logger)
	if err != nil {
		return err
	}
	report := func() error {
		err := solve()
		if err != nil {
			printError("%s", errs.UserMessage(err))
		}
		printDetail("watching %s (ctrl+c to stop)", path)
		return err
	}
	_ = report()
	return w.run(cmd.Context(), func() error {
		printNewline()
		return report()
	})
}

// writeJSONOut prints v as indented JSON.
func writeJSONOut(v any) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
