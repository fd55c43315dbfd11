package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/cadpage/pkg/export"
	"github.com/matzehuels/cadpage/pkg/pipeline"
)

// List styles
var (
	listDimStyle = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// LayoutPickerModel - Interactive layout selection
// =============================================================================

// LayoutPickerModel is the bubbletea model for choosing the layout to export.
type LayoutPickerModel struct {
	Pages    []export.PageSummary
	Cursor   int
	Selected *export.PageSummary
	Height   int
	Offset   int
}

// NewLayoutPickerModel creates a picker over the planned pages.
func NewLayoutPickerModel(pages []export.PageSummary) LayoutPickerModel {
	return LayoutPickerModel{
		Pages:  pages,
		Height: 15,
	}
}

func (m LayoutPickerModel) Init() tea.Cmd {
	return nil
}

func (m LayoutPickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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
			if m.Cursor < len(m.Pages)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			if len(m.Pages) == 0 {
				return m, tea.Quit
			}
			p := m.Pages[m.Cursor]
			m.Selected = &p
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 6
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m LayoutPickerModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Layout"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Pages))

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		p := m.Pages[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{cursor, p.Layout, p.Kind, p.Paper, p.Mode})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Layout", "Kind", "Paper", "Mode").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if m.Offset+row == m.Cursor {
				return lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
			}
			if col >= 2 {
				return lipgloss.NewStyle().Foreground(colorDim)
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Pages))))

	return b.String()
}

// pickLayout plans the drawing and lets the user choose one page. It returns
// the empty string when the user quits without choosing.
func (c *CLI) pickLayout(ctx context.Context, runner *pipeline.Runner, opts pipeline.Options) (string, error) {
	summary, err := runner.Plan(ctx, opts)
	if err != nil {
		return "", fmt.Errorf("plan: %w", err)
	}
	if len(summary.Pages) == 0 {
		return "", fmt.Errorf("drawing %s has no plottable layouts", opts.Input)
	}

	final, err := tea.NewProgram(NewLayoutPickerModel(summary.Pages), tea.WithContext(ctx)).Run()
	if err != nil {
		return "", fmt.Errorf("layout picker: %w", err)
	}
	if m, ok := final.(LayoutPickerModel); ok && m.Selected != nil {
		return m.Selected.Layout, nil
	}
	return "", nil
}
