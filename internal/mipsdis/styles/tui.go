package styles

import "github.com/charmbracelet/lipgloss/v2"

// TUI groups the lipgloss styles of the interactive view.
type TUI struct {
	Menu       lipgloss.Style
	ListTitle  lipgloss.Style
	Address    lipgloss.Style
	AddressSel lipgloss.Style
	Symbol     lipgloss.Style
	SymbolSel  lipgloss.Style
	Spinner    lipgloss.Style
	Error      lipgloss.Style
}

// NewTUI derives the TUI styles from a palette.
func NewTUI(p Palette) TUI {
	return TUI{
		Menu: lipgloss.NewStyle().
			Background(lipgloss.Color(p.MenuBg)).
			Foreground(lipgloss.Color(p.MenuFg)).
			Padding(0, 1),
		ListTitle:  lipgloss.NewStyle().Foreground(lipgloss.Color(p.Heading)).MarginLeft(2),
		Address:    lipgloss.NewStyle().Foreground(lipgloss.Color(p.Muted)),
		AddressSel: lipgloss.NewStyle().Foreground(lipgloss.Color(p.Selected)),
		Symbol:     lipgloss.NewStyle().Foreground(lipgloss.Color(p.Foreground)),
		SymbolSel:  lipgloss.NewStyle().Foreground(lipgloss.Color(p.Accent)).Bold(true),
		Spinner:    lipgloss.NewStyle().Foreground(lipgloss.Color(p.Selected)),
		Error:      lipgloss.NewStyle().Foreground(lipgloss.Color("#F44747")),
	}
}
