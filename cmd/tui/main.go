package main

// Terminal browser for a computed identity matrix (matrix.json from the
// pipeline): pick a sequence on the left, inspect its pairwise identities
// on the right.

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/SyafiqSamsolnizam/DFR-of-Fagopyrum/internal/identity"
	"github.com/SyafiqSamsolnizam/DFR-of-Fagopyrum/internal/report"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Colors for modern design
var (
	primaryColor = lipgloss.Color("#7C3AED") // Purple
	highColor    = lipgloss.Color("#10B981") // Green
	midColor     = lipgloss.Color("#F59E0B") // Amber
	surfaceColor = lipgloss.Color("#1F2937") // Dark gray
	textColor    = lipgloss.Color("#F3F4F6") // Light gray
	mutedColor   = lipgloss.Color("#9CA3AF") // Muted gray
	borderColor  = lipgloss.Color("#374151") // Border gray
)

// Styles
var (
	containerStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor)

	titleStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true).
			Align(lipgloss.Center)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(textColor).
			Background(surfaceColor).
			Padding(0, 1)

	mutedStyle = lipgloss.NewStyle().Foreground(mutedColor)

	highStyle = lipgloss.NewStyle().Foreground(highColor).Bold(true)
	midStyle  = lipgloss.NewStyle().Foreground(midColor)
)

type listItem struct {
	id    string
	index int
	mean  float64
}

func (i listItem) FilterValue() string { return i.id }

func (i listItem) Title() string { return i.id }

func (i listItem) Description() string {
	return fmt.Sprintf("mean identity vs others: %.1f%%", i.mean)
}

type mode int

const (
	modePairs mode = iota
	modeNearest
	modeStats
)

func (m mode) String() string {
	switch m {
	case modePairs:
		return "Pairs"
	case modeNearest:
		return "Nearest"
	case modeStats:
		return "Stats"
	default:
		return "Unknown"
	}
}

type model struct {
	list        list.Model
	matrix      *identity.Matrix
	currentMode mode
	showHelp    bool
	width       int
	height      int
}

// rowMean averages a row excluding the diagonal.
func rowMean(m *identity.Matrix, i int) float64 {
	if len(m.Order) < 2 {
		return 0
	}
	sum := 0.0
	for j := range m.Order {
		if j != i {
			sum += m.Values[i][j]
		}
	}
	return sum / float64(len(m.Order)-1)
}

func newModel(m *identity.Matrix) model {
	items := make([]list.Item, len(m.Order))
	for i, id := range m.Order {
		items[i] = listItem{id: id, index: i, mean: rowMean(m, i)}
	}

	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Sequences"
	l.SetShowStatusBar(false)
	l.SetShowPagination(true)
	l.SetFilteringEnabled(true)

	return model{
		list:        l,
		matrix:      m,
		currentMode: modePairs,
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) cycleMode() model {
	m.currentMode = (m.currentMode + 1) % 3
	return m
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetWidth(msg.Width / 3)
		m.list.SetHeight(msg.Height - 4)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "h":
			m.showHelp = !m.showHelp
			return m, nil
		case "tab":
			return m.cycleMode(), nil
		case "1":
			m.currentMode = modePairs
			return m, nil
		case "2":
			m.currentMode = modeNearest
			return m, nil
		case "3":
			m.currentMode = modeStats
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m model) View() string {
	if m.width == 0 {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelpModal()
	}

	main := lipgloss.JoinHorizontal(
		lipgloss.Top,
		m.renderLeftPanel(),
		m.renderRightPanel(),
	)
	return lipgloss.JoinVertical(
		lipgloss.Left,
		main,
		m.renderStatusBar(),
	)
}

func (m model) renderLeftPanel() string {
	return containerStyle.
		Width(m.width/3 - 2).
		Height(m.height - 4).
		Render(m.list.View())
}

// identityStyle picks a style by how similar the pair is.
func identityStyle(v float64) lipgloss.Style {
	switch {
	case v >= 90:
		return highStyle
	case v >= 70:
		return midStyle
	default:
		return mutedStyle
	}
}

// pairLines lists all partners for row i in the requested order.
func (m model) pairLines(i int, sorted bool) []string {
	type pair struct {
		id string
		v  float64
	}
	pairs := make([]pair, 0, len(m.matrix.Order)-1)
	for j, id := range m.matrix.Order {
		if j == i {
			continue
		}
		pairs = append(pairs, pair{id: id, v: m.matrix.Values[i][j]})
	}
	if sorted {
		sort.SliceStable(pairs, func(a, b int) bool { return pairs[a].v > pairs[b].v })
	}
	lines := make([]string, 0, len(pairs))
	for _, p := range pairs {
		val := identityStyle(p.v).Render(fmt.Sprintf("%6.2f%%", p.v))
		lines = append(lines, fmt.Sprintf("%s  %s", val, p.id))
	}
	return lines
}

// statsLines summarizes row i.
func (m model) statsLines(i int) []string {
	n := len(m.matrix.Order)
	if n < 2 {
		return []string{"single sequence; nothing to compare"}
	}
	var min, max float64
	minID, maxID := "", ""
	for j, id := range m.matrix.Order {
		if j == i {
			continue
		}
		v := m.matrix.Values[i][j]
		if minID == "" || v < min {
			min, minID = v, id
		}
		if maxID == "" || v >= max {
			max, maxID = v, id
		}
	}
	return []string{
		fmt.Sprintf("partners: %d", n-1),
		fmt.Sprintf("mean:     %.2f%%", rowMean(m.matrix, i)),
		fmt.Sprintf("closest:  %.2f%%  %s", max, maxID),
		fmt.Sprintf("farthest: %.2f%%  %s", min, minID),
	}
}

// buildRightLines renders the detail view for the selected row under the
// current mode.
func (m model) buildRightLines(i int) []string {
	switch m.currentMode {
	case modeNearest:
		return m.pairLines(i, true)
	case modeStats:
		return m.statsLines(i)
	default:
		return m.pairLines(i, false)
	}
}

func (m model) renderRightPanel() string {
	rightWidth := (m.width * 2) / 3

	if len(m.matrix.Order) == 0 {
		return containerStyle.
			Width(rightWidth - 2).
			Height(m.height - 4).
			Render("No sequences available")
	}

	selectedItem := m.list.SelectedItem()
	if selectedItem == nil {
		return containerStyle.
			Width(rightWidth - 2).
			Height(m.height - 4).
			Render("No sequence selected")
	}
	item := selectedItem.(listItem)

	header := titleStyle.Render(item.id)
	body := strings.Join(m.buildRightLines(item.index), "\n")

	return containerStyle.
		Width(rightWidth - 2).
		Height(m.height - 4).
		Render(lipgloss.JoinVertical(lipgloss.Left, header, "", body))
}

func (m model) renderStatusBar() string {
	leftInfo := fmt.Sprintf("%d/%d sequences", m.list.Index()+1, len(m.matrix.Order))
	centerInfo := fmt.Sprintf("Mode: %s", m.currentMode.String())
	rightInfo := "Press 'h' for help, 'q' to quit"

	totalUsed := len(leftInfo) + len(centerInfo) + len(rightInfo)
	spacing := m.width - totalUsed - 6

	var statusContent string
	if spacing > 0 {
		leftSpacing := spacing / 2
		rightSpacing := spacing - leftSpacing
		statusContent = leftInfo +
			strings.Repeat(" ", leftSpacing) +
			centerInfo +
			strings.Repeat(" ", rightSpacing) +
			rightInfo
	} else {
		// Fallback for narrow terminals
		statusContent = fmt.Sprintf("%s | %s", leftInfo, centerInfo)
	}

	return statusBarStyle.
		Width(m.width).
		Render(statusContent)
}

func (m model) renderHelpModal() string {
	helpContent := `Identity Matrix Browser - Help

Navigation:
  up/down, j/k  Navigate list
  /             Filter sequences
  tab           Cycle view modes

View Modes:
  1             Pairwise identities in input order
  2             Partners sorted by identity
  3             Row statistics

General:
  h             Toggle this help
  q, Ctrl+C     Quit

Current Mode: ` + m.currentMode.String() + `
Sequences: ` + fmt.Sprintf("%d", len(m.matrix.Order)) + `
`

	modalStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(primaryColor).
		Padding(1, 2).
		Background(surfaceColor).
		Foreground(textColor).
		Width(60).
		Align(lipgloss.Center)

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		modalStyle.Render(helpContent),
	)
}

func main() {
	matrixPath := flag.String("matrix", report.MatrixFile, "path to matrix.json written by the pipeline")
	flag.Parse()

	matrix, err := report.ReadJSON(*matrixPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "cannot load matrix:", err)
		os.Exit(1)
	}

	p := tea.NewProgram(newModel(matrix), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error: %v", err)
		os.Exit(1)
	}
}
