package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/budgetsolve/pkg/solver"
	"github.com/matzehuels/budgetsolve/pkg/store"
)

var listDimStyle = lipgloss.NewStyle().Foreground(colorDim)

// runHeaders are the columns of the run table.
var runHeaders = []string{"", "Run", "When", "Kind", "Algorithm", "Items", "Budget", "Value", "Status"}

// =============================================================================
// RunListModel - Interactive run history browser
// =============================================================================

// RunListModel is the bubbletea model for browsing recorded runs. Enter
// opens a scrollable detail view of the run under the cursor; enter there
// selects it.
type RunListModel struct {
	Runs     []*store.Run
	Cursor   int
	Selected *store.Run
	Height   int
	Offset   int

	detail   bool
	viewport viewport.Model
}

// NewRunListModel creates a new run list model.
func NewRunListModel(runs []*store.Run) RunListModel {
	return RunListModel{
		Runs:     runs,
		Height:   15,
		viewport: viewport.New(80, 20),
	}
}

// Detail reports whether the detail view is open.
func (m RunListModel) Detail() bool { return m.detail }

func (m RunListModel) Init() tea.Cmd {
	return nil
}

func (m RunListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if size, ok := msg.(tea.WindowSizeMsg); ok {
		m.Height = size.Height - 6
		if m.Height < 5 {
			m.Height = 5
		}
		m.viewport.Width = size.Width
		m.viewport.Height = max(size.Height-4, 3)
		return m, nil
	}
	if m.detail {
		return m.updateDetail(msg)
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Runs)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "home", "g":
			m.Cursor, m.Offset = 0, 0
		case "end", "G":
			if n := len(m.Runs); n > 0 {
				m.Cursor = n - 1
				if m.Cursor >= m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			if len(m.Runs) == 0 {
				return m, nil
			}
			m.detail = true
			m.viewport.SetContent(renderRun(m.Runs[m.Cursor]))
			m.viewport.GotoTop()
		}
	}
	return m, nil
}

func (m RunListModel) updateDetail(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "esc", "backspace", "left", "h":
			m.detail = false
			return m, nil
		case "enter":
			m.Selected = m.Runs[m.Cursor]
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m RunListModel) View() string {
	if m.detail {
		var b strings.Builder
		b.WriteString(m.viewport.View())
		b.WriteString("\n\n")
		b.WriteString(listDimStyle.Render("↑/↓ scroll  esc back  ⏎ print  q quit"))
		return b.String()
	}

	var b strings.Builder

	b.WriteString(StyleTitle.Render("Recorded Runs"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ details  q quit"))
	b.WriteString("\n\n")

	end := m.Offset + m.Height
	if end > len(m.Runs) {
		end = len(m.Runs)
	}

	rows := make([][]string, 0, end-m.Offset)
	for i := m.Offset; i < end; i++ {
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, append([]string{cursor}, runRow(m.Runs[i])...))
	}

	b.WriteString(runTable(rows, func(row int) (*store.Run, bool) {
		idx := m.Offset + row
		if idx < 0 || idx >= len(m.Runs) {
			return nil, false
		}
		return m.Runs[idx], idx == m.Cursor
	}))
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Runs))))

	return b.String()
}

// =============================================================================
// Run Table
// =============================================================================

// renderRuns draws runs as a static table for `runs list`.
func renderRuns(runs []*store.Run) string {
	rows := make([][]string, len(runs))
	for i, r := range runs {
		rows[i] = append([]string{""}, runRow(r)...)
	}
	return runTable(rows, func(row int) (*store.Run, bool) {
		if row < 0 || row >= len(runs) {
			return nil, false
		}
		return runs[row], false
	})
}

// runTable renders rows; at maps a table row back to its run and whether
// it is under the cursor.
func runTable(rows [][]string, at func(row int) (*store.Run, bool)) string {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(runHeaders...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			run, current := at(row)
			if run == nil {
				return lipgloss.NewStyle()
			}

			base := lipgloss.NewStyle()
			if col == 2 {
				base = base.Foreground(colorDim)
			}
			if current {
				base = base.Bold(true)
				if col == 1 {
					return base.Foreground(colorCyan)
				}
			}
			if col == 8 {
				return base.Foreground(statusColor(run))
			}
			return base
		}).
		Render()
}

// runRow formats the columns of one run, after the cursor column.
func runRow(r *store.Run) []string {
	algo, value, status := string(r.Requested), "—", "—"
	if s := r.Selection; s != nil {
		algo = algorithmLabel(s)
		value = formatFloat(s.TotalValue)
		status = string(s.Status)
	}
	return []string{
		shortID(r.ID),
		formatRelativeTime(r.CreatedAt),
		r.Kind,
		algo,
		fmt.Sprint(len(r.Items)),
		formatFloat(r.Budget),
		value,
		status,
	}
}

func statusColor(r *store.Run) lipgloss.Color {
	if r.Selection == nil {
		return colorGray
	}
	switch r.Selection.Status {
	case solver.StatusExact:
		return colorGreen
	case solver.StatusApproximate:
		return colorYellow
	default:
		return colorRed
	}
}

// =============================================================================
// Helpers
// =============================================================================

// shortID returns the first block of a run ID.
func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}

func formatRelativeTime(t time.Time) string {
	if t.IsZero() {
		return "—"
	}
	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Format("Jan 2, 2006")
	}
}
