package cli

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/findreq/pkg/scan"
)

// List styles
var (
	listDimStyle = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// PackagePickerModel - Interactive install command selection
// =============================================================================

// pickerItem is one install identifier and the imports that need it.
type pickerItem struct {
	Package  string
	Modules  []string
	Declared bool
}

// PackagePickerModel is the bubbletea model for choosing which packages go
// into the install command. Undeclared packages start selected.
type PackagePickerModel struct {
	Items     []pickerItem
	Chosen    map[int]bool
	Cursor    int
	Height    int
	Offset    int
	Confirmed bool
}

// NewPackagePickerModel builds a picker from a scan result.
func NewPackagePickerModel(r *scan.Result) PackagePickerModel {
	byPkg := make(map[string][]string)
	for mod, pkg := range r.ThirdParty {
		byPkg[pkg] = append(byPkg[pkg], mod)
	}

	items := make([]pickerItem, 0, len(byPkg))
	for pkg, mods := range byPkg {
		sort.Strings(mods)
		items = append(items, pickerItem{Package: pkg, Modules: mods, Declared: r.Declared[pkg]})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Package < items[j].Package })

	chosen := make(map[int]bool, len(items))
	for i, it := range items {
		chosen[i] = !it.Declared
	}
	return PackagePickerModel{Items: items, Chosen: chosen, Height: 15}
}

// Selected returns the chosen packages, sorted. It is empty unless the user
// confirmed with enter.
func (m PackagePickerModel) Selected() []string {
	if !m.Confirmed {
		return nil
	}
	var out []string
	for i, it := range m.Items {
		if m.Chosen[i] {
			out = append(out, it.Package)
		}
	}
	slices.Sort(out)
	return out
}

func (m PackagePickerModel) Init() tea.Cmd {
	return nil
}

func (m PackagePickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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
			if m.Cursor < len(m.Items)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case " ", "x":
			if len(m.Items) > 0 {
				m.Chosen[m.Cursor] = !m.Chosen[m.Cursor]
			}
		case "a":
			all := true
			for i := range m.Items {
				all = all && m.Chosen[i]
			}
			for i := range m.Items {
				m.Chosen[i] = !all
			}
		case "enter":
			m.Confirmed = true
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

func (m PackagePickerModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Packages"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  space toggle  a all  ⏎ confirm  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Items))

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		it := m.Items[i]

		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		box := "[ ]"
		if m.Chosen[i] {
			box = "[x]"
		}
		declared := ""
		if it.Declared {
			declared = "✓"
		}
		rows = append(rows, []string{cursor + box, it.Package, strings.Join(it.Modules, ", "), declared})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Package", "Imports", "Declared").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			idx := m.Offset + row
			if idx >= len(m.Items) {
				return lipgloss.NewStyle()
			}
			base := lipgloss.NewStyle()
			if col == 2 || col == 3 {
				base = base.Foreground(colorGray)
			}
			switch {
			case idx == m.Cursor && m.Chosen[idx]:
				return base.Foreground(colorGreen).Bold(true)
			case idx == m.Cursor:
				return base.Bold(true)
			case m.Chosen[idx]:
				return base.Foreground(colorGreen)
			}
			return base.Foreground(colorDim)
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]  %d selected", m.Cursor+1, len(m.Items), len(m.selectedIndexes()))))

	return b.String()
}

func (m PackagePickerModel) selectedIndexes() []int {
	var out []int
	for i := range m.Items {
		if m.Chosen[i] {
			out = append(out, i)
		}
	}
	return out
}

// pickPackages runs the picker; ok is false when the user quit without
// confirming.
func pickPackages(r *scan.Result, opts ...tea.ProgramOption) (pkgs []string, ok bool, err error) {
	final, err := tea.NewProgram(NewPackagePickerModel(r), opts...).Run()
	if err != nil {
		return nil, false, err
	}
	m := final.(PackagePickerModel)
	return m.Selected(), m.Confirmed, nil
}
