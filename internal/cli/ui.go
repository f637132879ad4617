package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/budgetsolve/pkg/solver"
)

// stdout receives everything the commands print. Tests replace it.
var stdout io.Writer = os.Stdout

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - commands
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleNumber for numeric values.
	StyleNumber = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleSuccess for success messages.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)

	// StyleError for failures.
	StyleError = lipgloss.NewStyle().Foreground(colorRed)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)

	styleCommand = lipgloss.NewStyle().Foreground(colorBlue)
	styleHeader  = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconCached  = "cached"
	iconFresh   = "fresh"
)

// =============================================================================
// Status Output
// =============================================================================

// printSuccess prints a success message.
func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(stdout, styleIconSuccess.Render(iconSuccess)+" "+msg)
}

// printError prints an error message.
func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(stdout, styleIconError.Render(iconError)+" "+msg)
}

// printWarning prints a warning message.
func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(stdout, styleIconWarning.Render(iconWarning)+" "+StyleWarning.Render(msg))
}

// printInfo prints an info/status message.
func printInfo(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(stdout, styleIconInfo.Render(iconInfo)+" "+msg)
}

// printDetail prints a detail line (indented).
func printDetail(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(stdout, "  "+StyleDim.Render(msg))
}

// printKeyValue prints a labeled value.
func printKeyValue(key, value string) {
	fprintKeyValue(stdout, key, value)
}

func fprintKeyValue(w io.Writer, key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(12)
	fmt.Fprintln(w, keyStyle.Render(key)+" "+StyleValue.Render(value))
}

// printNextStep prints a suggested next command.
func printNextStep(description, cmd string) {
	fmt.Fprintln(stdout, StyleDim.Render(description+":")+" "+styleCommand.Render(cmd))
}

// printNewline prints an empty line.
func printNewline() {
	fmt.Fprintln(stdout)
}

// =============================================================================
// Selection Display
// =============================================================================

// printSelection prints a Selection as a status line plus key-value block.
func printSelection(sel *solver.Selection, n int, cached bool) {
	fprintSelection(stdout, sel, n, cached)
}

func fprintSelection(w io.Writer, sel *solver.Selection, n int, cached bool) {
	switch sel.Status {
	case solver.StatusFailed:
		fmt.Fprintln(w, styleIconWarning.Render(iconWarning)+" "+StyleWarning.Render("No item fits the budget"))
	case solver.StatusApproximate:
		fmt.Fprintf(w, "%s Selected %d of %d items %s\n", styleIconSuccess.Render(iconSuccess),
			len(sel.SelectedIndices), n, StyleWarning.Render("(approximate)"))
	default:
		fmt.Fprintf(w, "%s Selected %d of %d items\n", styleIconSuccess.Render(iconSuccess),
			len(sel.SelectedIndices), n)
	}

	fprintKeyValue(w, "Indices", formatIndices(sel.SelectedIndices))
	fprintKeyValue(w, "Total cost", formatFloat(sel.TotalCost))
	if sel.TotalValue != sel.TotalCost {
		fprintKeyValue(w, "Total value", formatFloat(sel.TotalValue))
	}
	fprintKeyValue(w, "Status", string(sel.Status))
	fprintKeyValue(w, "Algorithm", algorithmLabel(sel))
	fmt.Fprintln(w, formatStats(sel, cached))
	for _, fb := range sel.Fallbacks {
		fmt.Fprintln(w, "  "+StyleDim.Render("fallback "+fb))
	}
}

// formatStats renders run statistics on a single line.
func formatStats(sel *solver.Selection, cached bool) string {
	parts := []string{
		fmt.Sprintf("%.3f ms", sel.ExecutionTimeMS),
		fmt.Sprintf("%.3f MB", sel.MemoryUsedMB),
		fmt.Sprintf("%d nodes", sel.NodesExplored),
	}
	if sel.Truncated {
		parts = append(parts, "truncated")
	}

	status := iconFresh
	statusStyle := styleComputed
	if cached {
		status = iconCached
		statusStyle = styleCached
	}

	var b strings.Builder
	b.WriteString("  ")
	for i, part := range parts {
		if i > 0 {
			b.WriteString(StyleDim.Render(" · "))
		}
		b.WriteString(StyleDim.Render(part))
	}
	b.WriteString(StyleDim.Render(" · "))
	b.WriteString(statusStyle.Render(status))
	return b.String()
}

// algorithmLabel names the strategy, noting the request when auto chose it.
func algorithmLabel(sel *solver.Selection) string {
	if sel.Requested != "" && sel.Requested != sel.AlgorithmName {
		return fmt.Sprintf("%s (via %s)", sel.AlgorithmName, sel.Requested)
	}
	return string(sel.AlgorithmName)
}

// =============================================================================
// Comparison Display
// =============================================================================

// renderComparison draws a comparison as a table.
func renderComparison(cmp *solver.Comparison) string {
	rows := make([][]string, len(cmp.Results))
	for i, r := range cmp.Results {
		if r.Selection == nil {
			rows[i] = []string{string(r.Algorithm), "error", "—", "—", "—", "—", "—", r.Error}
			continue
		}
		s := r.Selection
		accuracy := "—"
		if cmp.ReferenceExact {
			accuracy = fmt.Sprintf("%.3f", r.Accuracy)
		}
		rows[i] = []string{
			string(r.Algorithm),
			string(s.Status),
			formatFloat(s.TotalCost),
			formatFloat(s.TotalValue),
			accuracy,
			fmt.Sprintf("%.3f", s.ExecutionTimeMS),
			fmt.Sprintf("%.3f", s.MemoryUsedMB),
			formatIndices(s.SelectedIndices),
		}
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Algorithm", "Status", "Cost", "Value", "Accuracy", "Time ms", "Mem MB", "Indices").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			base := lipgloss.NewStyle().Padding(0, 1)
			if row == -1 {
				return styleHeader.Padding(0, 1)
			}
			if row < 0 || row >= len(cmp.Results) {
				return base
			}
			r := cmp.Results[row]
			switch {
			case r.Selection == nil:
				return base.Foreground(colorRed)
			case col == 1 && r.Selection.Status == solver.StatusExact:
				return base.Foreground(colorGreen)
			case col == 1 && r.Selection.Status == solver.StatusApproximate:
				return base.Foreground(colorYellow)
			case col == 0:
				return base.Foreground(colorCyan)
			}
			return base
		})
	return t.Render()
}

// =============================================================================
// Formatting
// =============================================================================

// formatFloat prints v without trailing zeros.
func formatFloat(v float64) string {
	return fmt.Sprintf("%g", v)
}

// formatIndices prints indices as a bracketed list, shortening long ones.
func formatIndices(idx []int) string {
	const maxShown = 12
	if len(idx) == 0 {
		return "[]"
	}
	parts := make([]string, 0, maxShown+1)
	for i, v := range idx {
		if i == maxShown {
			parts = append(parts, fmt.Sprintf("… +%d", len(idx)-maxShown))
			break
		}
		parts = append(parts, fmt.Sprint(v))
	}
	return "[" + strings.Join(parts, " ") + "]"
}
