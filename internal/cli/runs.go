package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/budgetsolve/pkg/config"
	"github.com/matzehuels/budgetsolve/pkg/dataset"
	errs "github.com/matzehuels/budgetsolve/pkg/errors"
	"github.com/matzehuels/budgetsolve/pkg/store"
)

// runsCommand creates the runs command for working with run history.
func (c *CLI) runsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "runs",
		Aliases: []string{"history"},
		Short:   "List, show, browse and export recorded runs",
	}

	cmd.AddCommand(c.runsListCommand())
	cmd.AddCommand(c.runsShowCommand())
	cmd.AddCommand(c.runsBrowseCommand())
	cmd.AddCommand(c.runsExportCommand())

	return cmd
}

// runsListCommand creates the "runs list" subcommand.
func (c *CLI) runsListCommand() *cobra.Command {
	var (
		limit   int
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 || limit > store.MaxListLimit {
				return errs.New(errs.ErrCodeInvalidInput, "--limit must be between 1 and %d", store.MaxListLimit)
			}
			runs, err := c.listRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if jsonOut {
				if runs == nil {
					runs = []*store.Run{}
				}
				return writeJSONOut(runs)
			}
			if len(runs) == 0 {
				printInfo("No runs recorded yet")
				return nil
			}
			fmt.Fprintln(stdout, renderRuns(runs))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", config.DefaultRunsLimit, "number of runs to show")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print runs as JSON")

	return cmd
}

// runsShowCommand creates the "runs show" subcommand.
func (c *CLI) runsShowCommand() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one recorded run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := c.getRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSONOut(run)
			}
			printRun(run)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the run as JSON")

	return cmd
}

// runsBrowseCommand creates the "runs browse" subcommand.
func (c *CLI) runsBrowseCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse recorded runs interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runs, err := c.listRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				printInfo("No runs recorded yet")
				return nil
			}

			p := tea.NewProgram(NewRunListModel(runs), tea.WithContext(cmd.Context()))
			finalModel, err := p.Run()
			if err != nil {
				return err
			}
			fm, ok := finalModel.(RunListModel)
			if !ok || fm.Selected == nil {
				printDetail("No selection made")
				return nil
			}
			printRun(fm.Selected)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", store.MaxListLimit, "number of runs to load")

	return cmd
}

// runsExportCommand creates the "runs export" subcommand.
func (c *CLI) runsExportCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "export <id> <file>",
		Short: "Write the problem of a run back out as a dataset",
		Long: `Write the items, budget and precision of a recorded run as a dataset file
that solve and compare accept. The format follows the file extension;
"-" writes to stdout in --format (default json).`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := c.getRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return exportRun(run, args[1], format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "dataset format: json, yaml, toml, csv")

	return cmd
}

func (c *CLI) listRuns(ctx context.Context, limit int) ([]*store.Run, error) {
	st, err := c.newStore(ctx)
	if err != nil {
		return nil, err
	}
	defer st.Close()
	return st.List(ctx, limit)
}

func (c *CLI) getRun(ctx context.Context, id string) (*store.Run, error) {
	st, err := c.newStore(ctx)
	if err != nil {
		return nil, err
	}
	defer st.Close()
	return st.Get(ctx, id)
}

// exportRun writes run as a dataset to path.
func exportRun(run *store.Run, path, format string) error {
	precision := run.Precision
	budget := run.Budget
	ds := &dataset.Dataset{
		Budget:    &budget,
		Precision: &precision,
		Algorithm: string(run.Requested),
		Items:     run.Items,
	}

	var (
		f   dataset.Format
		err error
	)
	switch {
	case format != "":
		f, err = dataset.ParseFormat(format)
	case path == "-":
		f = dataset.FormatJSON
	default:
		f, err = dataset.DetectFormat(path)
	}
	if err != nil {
		return err
	}

	if path == "-" {
		return dataset.Write(stdout, ds, f)
	}
	data, err := dataset.Marshal(ds, f)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errs.Wrap(errs.ErrCodeInternal, err, "write %s: %v", path, err)
	}
	printSuccess("Exported %d items to %s", len(run.Items), path)
	if f == dataset.FormatCSV {
		printDetail("csv holds items only; pass --budget when solving it")
	}
	return nil
}

// printRun prints the header of a run followed by its selection.
func printRun(run *store.Run) {
	fmt.Fprint(stdout, renderRun(run))
}

// renderRun formats a run the way printRun shows it.
func renderRun(run *store.Run) string {
	var b strings.Builder
	fmt.Fprintln(&b, StyleTitle.Render("Run "+run.ID))
	fprintKeyValue(&b, "Recorded", run.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	fprintKeyValue(&b, "Kind", run.Kind)
	fprintKeyValue(&b, "Requested", string(run.Requested))
	fprintKeyValue(&b, "Budget", formatFloat(run.Budget))
	fprintKeyValue(&b, "Precision", fmt.Sprint(run.Precision))
	if run.Accuracy != nil {
		fprintKeyValue(&b, "Accuracy", fmt.Sprintf("%.3f", *run.Accuracy))
	}
	if run.ComparisonID != "" {
		fprintKeyValue(&b, "Comparison", run.ComparisonID)
	}
	fmt.Fprintln(&b)
	if run.Selection != nil {
		fprintSelection(&b, run.Selection, len(run.Items), false)
	}
	return b.String()
}
