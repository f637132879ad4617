package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/budgetsolve/pkg/dataset"
	errs "github.com/matzehuels/budgetsolve/pkg/errors"
	"github.com/matzehuels/budgetsolve/pkg/solver"
)

// problemFlags are the flags shared by solve and compare for describing a
// problem inline or overriding parts of a dataset file.
type problemFlags struct {
	costs     []float64
	budget    float64
	precision int
	timeout   time.Duration
	format    string
	noCache   bool
	noRecord  bool
	refresh   bool
	jsonOut   bool
}

// problemInput is a problem after flags, dataset file and config are merged.
type problemInput struct {
	items     []solver.Item
	budget    float64
	precision int
	algorithm string
	timeout   time.Duration
}

func (f *problemFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.Float64SliceVar(&f.costs, "costs", nil, "item costs, comma separated")
	fl.Float64VarP(&f.budget, "budget", "b", 0, "budget the selection must fit")
	fl.IntVarP(&f.precision, "precision", "p", solver.DefaultPrecision, "decimal places kept from costs (0-6)")
	fl.DurationVar(&f.timeout, "timeout", 0, "abort after this long (default from config)")
	fl.StringVarP(&f.format, "format", "f", "", "dataset format when reading stdin: json, yaml, toml, csv")
	fl.BoolVar(&f.noCache, "no-cache", false, "disable the result cache")
	fl.BoolVar(&f.noRecord, "no-record", false, "do not record the run")
	fl.BoolVar(&f.refresh, "refresh", false, "ignore cached results")
	fl.BoolVar(&f.jsonOut, "json", false, "print the result as JSON")
}

// load builds the problem from args and flags. A dataset file supplies the
// defaults; explicitly set flags win over it, and the config fills whatever
// neither sets.
func (c *CLI) load(cmd *cobra.Command, args []string, f *problemFlags) (*problemInput, error) {
	in := &problemInput{
		precision: c.cfg.Solver.Precision,
		algorithm: c.cfg.Solver.Algorithm,
		timeout:   c.cfg.Solver.Timeout.Std(),
	}
	budgetSet := false

	if len(args) == 1 {
		ds, err := c.readDataset(cmd, args[0], f.format)
		if err != nil {
			return nil, err
		}
		in.items = ds.Items
		if ds.Budget != nil {
			in.budget, budgetSet = *ds.Budget, true
		}
		if ds.Precision != nil {
			in.precision = *ds.Precision
		}
		if ds.Algorithm != "" {
			in.algorithm = ds.Algorithm
		}
	}

	fl := cmd.Flags()
	if fl.Changed("costs") {
		if len(args) == 1 {
			return nil, errs.New(errs.ErrCodeInvalidInput, "give either a dataset file or --costs, not both")
		}
		in.items = solver.ItemsFromCosts(f.costs)
	}
	if fl.Changed("budget") {
		in.budget, budgetSet = f.budget, true
	}
	if fl.Changed("precision") {
		in.precision = f.precision
	}
	if fl.Changed("timeout") {
		in.timeout = f.timeout
	}

	if len(args) == 0 && !fl.Changed("costs") {
		return nil, errs.New(errs.ErrCodeInvalidInput, "no items: pass a dataset file or --costs")
	}
	if !budgetSet {
		return nil, errs.New(errs.ErrCodeInvalidBudget, "no budget: set --budget or budget in the dataset")
	}
	return in, nil
}

// readDataset loads path, or stdin when path is "-".
func (c *CLI) readDataset(cmd *cobra.Command, path, format string) (*dataset.Dataset, error) {
	if path != "-" {
		c.Logger.Debug("reading dataset", "path", path)
		return dataset.Load(path)
	}
	if format == "" {
		format = string(dataset.FormatJSON)
	}
	fmtName, err := dataset.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	return dataset.Read(cmd.InOrStdin(), fmtName)
}
