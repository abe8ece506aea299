// Package styles holds the glamour and lipgloss themes of the mipsdis TUI.
package styles

import (
	"github.com/charmbracelet/x/exp/charmtone"
)

// Palette is the set of colors a theme is built from.
type Palette struct {
	Name       string
	Foreground string
	Muted      string
	Heading    string
	Title      string
	TitleBg    string
	Code       string
	CodeBlock  string
	Link       string
	Accent     string
	Comment    string
	Rule       string
	MenuFg     string
	MenuBg     string
	Selected   string
}

// VS Code Dark theme colors
var VSCodeDark = Palette{
	Name:       "vscode",
	Foreground: "#D4D4D4",
	Muted:      "#858585",
	Heading:    "#569CD6",
	Title:      "#569CD6",
	Code:       "#EACD53",
	CodeBlock:  "#D4D4D4",
	Link:       "#4FC1FF",
	Accent:     "#DCDCAA",
	Comment:    "#6A9955",
	Rule:       "#3C3C3C",
	MenuFg:     "#D4D4D4",
	MenuBg:     "#252526",
	Selected:   "#C586C0",
}

// Charm uses the charmtone colors.
var Charm = Palette{
	Name:       "charm",
	Foreground: charmtone.Smoke.Hex(),
	Muted:      charmtone.Squid.Hex(),
	Heading:    charmtone.Malibu.Hex(),
	Title:      charmtone.Zest.Hex(),
	TitleBg:    charmtone.Charple.Hex(),
	Code:       charmtone.Malibu.Hex(),
	CodeBlock:  charmtone.Smoke.Hex(),
	Link:       charmtone.Zinc.Hex(),
	Accent:     charmtone.Guac.Hex(),
	Comment:    charmtone.Cheeky.Hex(),
	Rule:       charmtone.Charcoal.Hex(),
	MenuFg:     charmtone.Smoke.Hex(),
	MenuBg:     charmtone.Charcoal.Hex(),
	Selected:   charmtone.Charple.Hex(),
}

// PaletteFor returns the palette named name, VS Code dark when unknown.
func PaletteFor(name string) Palette {
	if name == Charm.Name {
		return Charm
	}
	return VSCodeDark
}
