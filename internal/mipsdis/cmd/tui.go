package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/v2/list"
	"github.com/charmbracelet/bubbles/v2/spinner"
	"github.com/charmbracelet/bubbles/v2/viewport"
	tea "github.com/charmbracelet/bubbletea/v2"

	"mipsdis/internal/analysis"
	"mipsdis/internal/mipsdis/log"
	"mipsdis/internal/mipsdis/styles"
)

type viewMode int

const (
	viewListing viewMode = iota
	viewSymbols
	viewDetails
)

type symbolItem struct {
	target     target
	filterTerm string
}

func (i symbolItem) Title() string       { return fmt.Sprintf("%x  %s", i.target.VA, i.target.Name) }
func (i symbolItem) Description() string { return "" }
func (i symbolItem) FilterValue() string { return i.filterTerm }

// itemDelegate renders one symbol per line.
type itemDelegate struct {
	st styles.TUI
}

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d itemDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	i, ok := listItem.(symbolItem)
	if !ok {
		return
	}
	indicator, addr, name := " ", d.st.Address, d.st.Symbol
	if index == m.Index() {
		indicator, addr, name = ">", d.st.AddressSel, d.st.SymbolSel
	}
	fmt.Fprintf(w, " %s  %s  %s", indicator, addr.Render(fmt.Sprintf("%8x", i.target.VA)), name.Render(i.target.Name))
}

type model struct {
	ctx      context.Context
	sess     *session
	palette  styles.Palette
	st       styles.TUI
	listing  viewport.Model
	symbols  list.Model
	details  viewport.Model
	spinner  spinner.Model
	mode     viewMode
	targets  []target
	digest   string
	current  *target
	result   *analysis.AnnotatorResult
	traceErr error
	loading  bool
	width    int
	height   int
}

type digestMsg struct{ digest string }

type traceMsg struct {
	target target
	result *analysis.AnnotatorResult
	err    error
}

func digestCmd(s *session) tea.Cmd {
	return func() tea.Msg {
		d, err := s.digest()
		if err != nil {
			d = fmt.Sprintf("error: %v", err)
		}
		return digestMsg{digest: d}
	}
}

func traceCmd(ctx context.Context, s *session, t target) tea.Cmd {
	return func() tea.Msg {
		defer log.RecoverPanic("trace", nil)
		res, err := s.trace(ctx, t)
		return traceMsg{target: t, result: res, err: err}
	}
}

func newModel(ctx context.Context, s *session, targets []target, palette styles.Palette) model {
	st := styles.NewTUI(palette)

	vp := viewport.New()
	vp.SetWidth(80)
	vp.SetHeight(24)

	dvp := viewport.New()
	dvp.SetWidth(80)
	dvp.SetHeight(24)

	items := make([]list.Item, 0, len(targets))
	for _, t := range targets {
		items = append(items, symbolItem{target: t, filterTerm: fmt.Sprintf("%x %s", t.VA, t.Name)})
	}
	symbols := list.New(items, itemDelegate{st: st}, 80, 24)
	symbols.SetShowStatusBar(false)
	symbols.SetFilteringEnabled(true)
	symbols.Title = fmt.Sprintf("Symbols (%d total)", len(targets))
	symbols.Styles.Title = st.ListTitle

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = st.Spinner

	m := model{
		ctx:     ctx,
		sess:    s,
		palette: palette,
		st:      st,
		listing: vp,
		symbols: symbols,
		details: dvp,
		spinner: sp,
		targets: targets,
		width:   80,
		height:  24,
	}
	if len(targets) > 0 {
		m.mode = viewSymbols
	}
	if len(targets) == 1 {
		m.mode = viewListing
		m.current = &m.targets[0]
		m.loading = true
	}
	m.updateContent()
	return m
}

func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{digestCmd(m.sess), m.spinner.Tick}
	if m.current != nil {
		cmds = append(cmds, traceCmd(m.ctx, m.sess, *m.current))
	}
	return tea.Batch(cmds...)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case digestMsg:
		m.digest = msg.digest
		m.updateContent()
		return m, nil

	case traceMsg:
		if m.current == nil || msg.target.VA != m.current.VA {
			return m, nil
		}
		m.loading = false
		m.result, m.traceErr = msg.result, msg.err
		m.updateContent()
		m.listing.GotoTop()
		m.details.GotoTop()
		return m, nil

	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
		if m.loading {
			m.updateContent()
			return m, cmd
		}
		return m, nil

	case tea.WindowSizeMsg:
		if msg.Width != m.width || msg.Height != m.height {
			m.width, m.height = msg.Width, msg.Height
			m.listing.SetWidth(msg.Width)
			m.listing.SetHeight(msg.Height - 2)
			m.symbols.SetWidth(msg.Width)
			m.symbols.SetHeight(msg.Height - 2)
			m.details.SetWidth(msg.Width)
			m.details.SetHeight(msg.Height - 2)
			m.updateContent()
		}

	case tea.KeyMsg:
		if m.mode == viewSymbols && m.symbols.FilterState() == list.Filtering {
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
			break
		}
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "l", "r":
			m.mode = viewListing
			return m, nil
		case "s":
			if len(m.targets) > 0 {
				m.mode = viewSymbols
			}
			return m, nil
		case "d":
			m.mode = viewDetails
			return m, nil
		case "enter":
			if m.mode != viewSymbols {
				break
			}
			if item, ok := m.symbols.SelectedItem().(symbolItem); ok {
				t := item.target
				m.current = &t
				m.result, m.traceErr = nil, nil
				m.loading = true
				m.mode = viewListing
				m.updateContent()
				return m, tea.Batch(traceCmd(m.ctx, m.sess, t), m.spinner.Tick)
			}
			return m, nil
		case "tab":
			m.mode = m.cycle(1)
			return m, nil
		case "shift+tab":
			m.mode = m.cycle(-1)
			return m, nil
		}
	}

	switch m.mode {
	case viewSymbols:
		m.symbols, cmd = m.symbols.Update(msg)
	case viewDetails:
		m.details, cmd = m.details.Update(msg)
	default:
		m.listing, cmd = m.listing.Update(msg)
	}
	return m, cmd
}

// cycle steps through the views, skipping the symbol list when empty.
func (m model) cycle(step int) viewMode {
	next := m.mode
	for range 3 {
		next = viewMode((int(next) + step + 3) % 3)
		if next != viewSymbols || len(m.targets) > 0 {
			return next
		}
	}
	return m.mode
}

func (m model) View() string {
	var content, menu string
	switch m.mode {
	case viewSymbols:
		content = m.symbols.View()
		menu = " Enter: disassemble • L: listing • D: details • Tab: cycle • Q: quit "
	case viewDetails:
		content = m.details.View()
		menu = " L: listing • S: symbols • Tab: cycle • Q: quit "
	default:
		content = m.listing.View()
		menu = " S: symbols • D: details • Tab: cycle • Q: quit "
	}
	return content + "\n" + m.st.Menu.Width(m.width).Render(menu)
}

func (m *model) render(markdown string) string {
	width := m.width
	if width <= 2 {
		width = 80
	}
	r, err := styles.GetMarkdownRenderer(m.palette, width-2)
	if err != nil {
		return markdown
	}
	out, err := r.Render(markdown)
	if err != nil {
		return markdown
	}
	return strings.TrimSuffix(out, "\n")
}

func (m *model) header() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "; %s (%s)\n", m.sess.path, m.sess.kind())
	if m.digest != "" {
		fmt.Fprintf(&sb, "; %s\n", m.digest)
	}
	fmt.Fprintf(&sb, "; %s\n", m.sess.img.Arch().Describe())
	fmt.Fprintf(&sb, "; decoder %s\n", m.sess.backend.Name())
	return sb.String()
}

func (m *model) updateContent() {
	md := fmt.Sprintf("# mipsdis\n\n```\n%s```\n", m.header())
	switch {
	case m.current == nil:
		md += "\nSelect a symbol to disassemble.\n"
	case m.loading:
		md += fmt.Sprintf("\n%s Disassembling %s...\n", m.spinner.View(), m.current.Name)
	case m.traceErr != nil:
		md += "\n" + m.st.Error.Render(fmt.Sprintf("%s: %v", m.current.Name, m.traceErr)) + "\n"
	}
	top := m.render(md)

	// Listings skip glamour so columns and colors survive.
	if m.result != nil && !m.loading {
		var sb strings.Builder
		sb.WriteString(top)
		sb.WriteString("\n\n")
		for _, line := range m.result.Listing {
			sb.WriteString(formatAssemblyLine(line))
			sb.WriteByte('\n')
		}
		m.listing.SetContent(sb.String())
	} else {
		m.listing.SetContent(top)
	}
	m.details.SetContent(m.render(m.detailsMarkdown()))
}

func (m *model) detailsMarkdown() string {
	if m.current == nil || m.result == nil {
		return "# Details\n\nNothing disassembled yet.\n"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", m.current.Name)
	fmt.Fprintf(&sb, "Address: `0x%x`  \n", m.current.VA)
	fmt.Fprintf(&sb, "Instructions: %d decoded, %d invalid\n\n", m.result.Stats.Decoded, m.result.Stats.Invalid)
	if len(m.result.Findings) == 0 {
		sb.WriteString("No findings.\n")
		return sb.String()
	}
	sb.WriteString("## Findings\n\n")
	for _, f := range m.result.Findings {
		fmt.Fprintf(&sb, "- `%x` **%s** %s\n", f.VA, f.Kind, escapeBackticks(f.Comment))
	}
	return sb.String()
}

func escapeBackticks(s string) string {
	return strings.ReplaceAll(s, "`", "'")
}
