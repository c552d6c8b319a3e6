package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/imagecombiner/pkg/compositor"
	"github.com/matzehuels/imagecombiner/pkg/errors"
	"github.com/matzehuels/imagecombiner/pkg/export"
	"github.com/matzehuels/imagecombiner/pkg/intake"
	"github.com/matzehuels/imagecombiner/pkg/layout"
	"github.com/matzehuels/imagecombiner/pkg/sequence"
	"github.com/matzehuels/imagecombiner/pkg/workspace"
)

// Arranger styles
var (
	arrangeSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	arrangeDraggingStyle = lipgloss.NewStyle().Bold(true).Foreground(colorYellow)
	arrangeDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	arrangeErrorStyle    = lipgloss.NewStyle().Foreground(colorRed)
)

// arrangeCommand creates the interactive arrange command.
func (c *CLI) arrangeCommand() *cobra.Command {
	var f combineFlags

	cmd := &cobra.Command{
		Use:   "arrange [images...]",
		Short: "Interactively reorder images and adjust the layout",
		Long: `Arrange opens a terminal editor over the given images. Reorder them,
remove or paste images, switch the layout, and export when done.

Keys:
  up/down, k/j    move the cursor
  space           pick up / drop the selected image (drag)
  K/J             move the selected image up or down
  d, x, delete    remove the selected image
  p               paste images from the clipboard
  o               toggle row / column
  a               cycle alignment
  +/-             change the gap
  enter, s        export
  q, ctrl+c       quit`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runArrange(cmd.Context(), args, &f, cmd.Flags().Changed)
		},
	}

	f.registerLayout(cmd)
	f.registerExport(cmd)
	return cmd
}

func (c *CLI) runArrange(ctx context.Context, paths []string, f *combineFlags, changed func(string) bool) error {
	opts, err := c.options(f, changed)
	if err != nil {
		return err
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}

	payloads, err := intake.FromFiles(paths)
	if err != nil {
		return err
	}
	refs, failures := intake.DecodeAll(ctx, intake.FilterImages(payloads))
	for _, failure := range failures {
		printWarning("Skipped %s", errors.UserMessage(failure))
	}

	ws := workspace.New(workspace.WithLayout(opts.LayoutSettings()), workspace.WithLogger(c.Logger))
	ws.Add(refs...)

	settings := opts.ExportSettings()
	m := newArrangeModel(ctx, ws, c.Clipboard, settings, c.outputPath(f, settings.Format))
	final, err := tea.NewProgram(m, tea.WithContext(ctx)).Run()
	if err != nil {
		return err
	}
	if am, ok := final.(arrangeModel); ok && am.saved != "" {
		printSuccess("Exported %d images", am.ws.Len())
		printFile(am.saved)
	}
	return nil
}

// =============================================================================
// arrangeModel - Interactive arranger
// =============================================================================

// recomposedMsg reports a finished background recomposition.
type recomposedMsg struct {
	committed bool
	err       error
}

// pastedMsg carries decoded clipboard images.
type pastedMsg struct {
	added  int
	failed []error
	err    error
}

// exportedMsg reports a finished export.
type exportedMsg struct {
	path string
	err  error
}

type arrangeModel struct {
	ctx       context.Context
	ws        *workspace.Workspace
	clipboard intake.Clipboard
	settings  export.Settings
	output    string

	cursor int
	drag   sequence.Drag

	status string
	err    error
	saved  string
}

func newArrangeModel(ctx context.Context, ws *workspace.Workspace, cb intake.Clipboard, s export.Settings, output string) arrangeModel {
	return arrangeModel{ctx: ctx, ws: ws, clipboard: cb, settings: s, output: output}
}

func (m arrangeModel) Init() tea.Cmd {
	return m.recompose()
}

// recompose runs a recomposition in the background. Results from
// recompositions overtaken by later edits are dropped by the workspace.
func (m arrangeModel) recompose() tea.Cmd {
	ws, ctx := m.ws, m.ctx
	return func() tea.Msg {
		_, committed, err := ws.Recompose(ctx)
		return recomposedMsg{committed: committed, err: err}
	}
}

func (m arrangeModel) paste() tea.Cmd {
	ws, ctx, cb := m.ws, m.ctx, m.clipboard
	return func() tea.Msg {
		payloads, err := cb.Read(ctx)
		if err != nil {
			return pastedMsg{err: err}
		}
		refs, failed := intake.DecodeAll(ctx, intake.FilterImages(payloads))
		ws.Add(refs...)
		return pastedMsg{added: len(refs), failed: failed}
	}
}

func (m arrangeModel) export() tea.Cmd {
	ws, ctx, s, out := m.ws, m.ctx, m.settings, m.output
	return func() tea.Msg {
		data, err := ws.Export(ctx, s)
		if err != nil {
			return exportedMsg{err: err}
		}
		return exportedMsg{path: out, err: writeOutput(out, data)}
	}
}

func (m arrangeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case recomposedMsg:
		m.err = msg.err

	case pastedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.status = fmt.Sprintf("pasted %d image(s)", msg.added)
		if len(msg.failed) > 0 {
			m.status += fmt.Sprintf(", %d skipped", len(msg.failed))
		}
		return m, m.recompose()

	case exportedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.saved = msg.path
		return m, tea.Quit
	}
	return m, nil
}

func (m arrangeModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	n := m.ws.Len()
	m.status = ""
	// Any key replaces the last error; esc only dismisses it.
	hadErr := m.err != nil
	m.err = nil

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "esc":
		if hadErr {
			return m, nil
		}
		if m.drag.Active() {
			m.drag.End()
			return m, nil
		}
		return m, tea.Quit

	case "up", "k":
		return m.step(-1)
	case "down", "j":
		return m.step(1)

	case "K", "shift+up":
		if m.cursor > 0 {
			m.ws.Move(m.cursor, m.cursor-1)
			m.cursor--
			return m, m.recompose()
		}
	case "J", "shift+down":
		if m.cursor < n-1 {
			m.ws.Move(m.cursor, m.cursor+1)
			m.cursor++
			return m, m.recompose()
		}

	case " ":
		if m.drag.Active() {
			m.drag.End()
		} else if n > 0 {
			m.drag.StartDrag(m.cursor)
		}

	case "d", "x", "delete", "backspace":
		if n == 0 {
			return m, nil
		}
		m.drag.End()
		if err := m.ws.Remove(m.cursor); err != nil {
			m.err = err
			return m, nil
		}
		if m.cursor >= n-1 && m.cursor > 0 {
			m.cursor--
		}
		return m, m.recompose()

	case "p":
		m.status = "reading clipboard..."
		return m, m.paste()

	case "o":
		return m.updateLayout(func(s *layout.Settings) { s.Orientation = s.Orientation.Toggle() })
	case "a":
		return m.updateLayout(func(s *layout.Settings) { s.Alignment = s.Alignment.Next() })
	case "+", "=":
		return m.updateLayout(func(s *layout.Settings) { s.Gap++ })
	case "-", "_":
		return m.updateLayout(func(s *layout.Settings) { s.Gap-- })

	case "enter", "s":
		m.status = "exporting..."
		return m, m.export()
	}
	return m, nil
}

// step moves the cursor by delta. While dragging, the held image moves with it.
func (m arrangeModel) step(delta int) (tea.Model, tea.Cmd) {
	to := m.cursor + delta
	if to < 0 || to >= m.ws.Len() {
		return m, nil
	}
	m.cursor = to
	if !m.drag.Active() {
		return m, nil
	}
	m.ws.DragOver(&m.drag, to)
	return m, m.recompose()
}

func (m arrangeModel) updateLayout(edit func(*layout.Settings)) (tea.Model, tea.Cmd) {
	s := m.ws.Layout()
	edit(&s)
	if err := m.ws.SetLayout(s); err != nil {
		m.status = errors.UserMessage(err)
		return m, nil
	}
	return m, m.recompose()
}

func (m arrangeModel) View() string {
	var b strings.Builder
	st := m.ws.Snapshot()

	b.WriteString(StyleTitle.Render("Arrange Images"))
	b.WriteString("\n")
	b.WriteString(arrangeDimStyle.Render("↑/↓ navigate  space drag  K/J move  d remove  p paste  o a +/- layout  ⏎ export  q quit"))
	b.WriteString("\n\n")

	l := st.Layout
	b.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n",
		arrangeDimStyle.Render("layout"), StyleValue.Render(string(l.Orientation)),
		arrangeDimStyle.Render("align"), StyleValue.Render(l.Alignment.Label(l.Orientation)),
		arrangeDimStyle.Render("gap"), StyleValue.Render(fmt.Sprintf("%dpx", l.Gap))))
	b.WriteString(arrangeDimStyle.Render("canvas ") + canvasLabel(st))
	b.WriteString("\n\n")

	if len(st.Images) == 0 {
		b.WriteString(arrangeDimStyle.Render("  no images, press p to paste"))
		b.WriteString("\n")
	} else {
		b.WriteString(m.imageTable(st))
		b.WriteString("\n")
	}

	switch {
	case m.err != nil:
		b.WriteString(arrangeErrorStyle.Render(errors.UserMessage(m.err)))
		b.WriteString(arrangeDimStyle.Render("  (esc to dismiss)"))
	case m.status != "":
		b.WriteString(arrangeDimStyle.Render(m.status))
	default:
		b.WriteString(arrangeDimStyle.Render("output " + m.output))
	}
	b.WriteString("\n")
	return b.String()
}

func canvasLabel(st workspace.State) string {
	switch {
	case st.Result == nil && len(st.Images) < 2:
		return arrangeDimStyle.Render("add at least two images")
	case st.Result == nil || !st.Current:
		return arrangeDimStyle.Render("composing...")
	}
	return StyleValue.Render(fmt.Sprintf("%d x %d", st.Result.Width(), st.Result.Height()))
}

func (m arrangeModel) imageTable(st workspace.State) string {
	var placements []string
	if st.Result != nil && st.Current {
		placements = placementLabels(st.Result)
	}

	rows := make([][]string, len(st.Images))
	for i, ref := range st.Images {
		cursor := "  "
		switch {
		case i == m.drag.Index():
			cursor = "≡ "
		case i == m.cursor:
			cursor = "▸ "
		}
		pos := ""
		if i < len(placements) {
			pos = placements[i]
		}
		rows[i] = []string{cursor, fmt.Sprintf("%d", i+1), ref.Name, fmt.Sprintf("%dx%d", ref.Width(), ref.Height()), pos}
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "#", "Image", "Size", "Position").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return headerStyle
			case row == m.drag.Index():
				return arrangeDraggingStyle
			case row == m.cursor:
				return arrangeSelectedStyle
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		}).
		Render()
}

func placementLabels(res *compositor.Result) []string {
	out := make([]string, len(res.Plan.Placements))
	for i, p := range res.Plan.Placements {
		out[i] = fmt.Sprintf("(%d, %d)", p.X, p.Y)
	}
	return out
}
