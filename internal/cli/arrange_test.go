package cli

import (
	"context"
	"errors"
	"image"
	"image/jpeg"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/imagecombiner/pkg/export"
	"github.com/matzehuels/imagecombiner/pkg/imageref"
	"github.com/matzehuels/imagecombiner/pkg/intake"
	"github.com/matzehuels/imagecombiner/pkg/layout"
	"github.com/matzehuels/imagecombiner/pkg/workspace"
)

func ref(name string, w, h int) imageref.Ref {
	return imageref.New(name, image.NewNRGBA(image.Rect(0, 0, w, h)))
}

func key(s string) tea.KeyMsg {
	switch s {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press feeds keys to the model, running any returned command synchronously
// and feeding its message back, as the bubbletea runtime would.
func press(t *testing.T, m arrangeModel, keys ...string) arrangeModel {
	t.Helper()
	for _, k := range keys {
		next, cmd := m.Update(key(k))
		m = next.(arrangeModel)
		for cmd != nil {
			msg := cmd()
			if _, quit := msg.(tea.QuitMsg); quit {
				break
			}
			next, cmd = m.Update(msg)
			m = next.(arrangeModel)
		}
	}
	return m
}

func names(ws *workspace.Workspace) []string {
	st := ws.Snapshot()
	out := make([]string, len(st.Images))
	for i, r := range st.Images {
		out[i] = r.Name
	}
	return out
}

func newTestArranger(t *testing.T, cb intake.Clipboard, refs ...imageref.Ref) arrangeModel {
	t.Helper()
	ws := workspace.New()
	ws.Add(refs...)
	out := filepath.Join(t.TempDir(), "out.jpg")
	return newArrangeModel(context.Background(), ws, cb, export.DefaultSettings(), out)
}

func TestArrangeDrag(t *testing.T) {
	m := newTestArranger(t, intake.StaticClipboard{}, ref("A", 10, 10), ref("B", 10, 10), ref("C", 10, 10))

	m = press(t, m, " ", "down", "down", " ")
	if got := strings.Join(names(m.ws), ""); got != "BCA" {
		t.Errorf("order after drag = %s, want BCA", got)
	}
	if m.cursor != 2 {
		t.Errorf("cursor = %d, want 2", m.cursor)
	}
	if m.drag.Active() {
		t.Error("drag should have ended")
	}

	// Without a drag, the cursor moves alone.
	m = press(t, m, "up")
	if got := strings.Join(names(m.ws), ""); got != "BCA" {
		t.Errorf("order after cursor move = %s, want BCA", got)
	}
	if m.cursor != 1 {
		t.Errorf("cursor = %d, want 1", m.cursor)
	}
}

func TestArrangeMoveAndRemove(t *testing.T) {
	m := newTestArranger(t, intake.StaticClipboard{}, ref("A", 10, 10), ref("B", 10, 10), ref("C", 10, 10))

	m = press(t, m, "J")
	if got := strings.Join(names(m.ws), ""); got != "BAC" {
		t.Errorf("order after J = %s, want BAC", got)
	}

	m = press(t, m, "down", "x")
	if got := strings.Join(names(m.ws), ""); got != "BA" {
		t.Errorf("order after remove = %s, want BA", got)
	}
	if m.cursor != 1 {
		t.Errorf("cursor = %d, want 1 (clamped to last)", m.cursor)
	}

	m = press(t, m, "x")
	if got := m.ws.Snapshot(); got.Result != nil || !got.Current {
		t.Error("a single image should leave no composite")
	}
	if m.err != nil {
		t.Errorf("insufficient images should not surface as an error: %v", m.err)
	}
}

func TestArrangeLayoutKeys(t *testing.T) {
	m := newTestArranger(t, intake.StaticClipboard{}, ref("A", 10, 20), ref("B", 30, 10))

	m = press(t, m, "o", "a", "+", "+")
	s := m.ws.Layout()
	if s.Orientation != layout.Column || s.Alignment != layout.End || s.Gap != 2 {
		t.Errorf("layout = %+v, want column/end/2", s)
	}

	st := m.ws.Snapshot()
	if st.Result == nil || !st.Current {
		t.Fatal("composite should be current after layout change")
	}
	if st.Result.Width() != 30 || st.Result.Height() != 32 {
		t.Errorf("composite = %dx%d, want 30x32", st.Result.Width(), st.Result.Height())
	}

	// The gap never leaves its range.
	m = press(t, m, "-", "-", "-")
	if got := m.ws.Layout().Gap; got != 0 {
		t.Errorf("gap = %d, want 0", got)
	}
	if m.status == "" {
		t.Error("rejected gap should be reported")
	}
}

func TestArrangePaste(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 5, 5))
	data, err := export.Bytes(img, export.Settings{Format: export.PNG})
	if err != nil {
		t.Fatal(err)
	}
	cb := intake.StaticClipboard{Payloads: []intake.Payload{intake.NewPayload("clipboard.png", "image/png", data)}}
	m := newTestArranger(t, cb, ref("A", 10, 10))

	m = press(t, m, "p")
	if m.ws.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", m.ws.Len())
	}
	if !strings.Contains(m.status, "pasted 1") {
		t.Errorf("status = %q", m.status)
	}

	denied := newTestArranger(t, intake.StaticClipboard{Err: errors.New("denied")})
	denied = press(t, denied, "p")
	if denied.err == nil {
		t.Error("clipboard failure should be shown")
	}
}

func TestArrangeDismissError(t *testing.T) {
	m := newTestArranger(t, intake.StaticClipboard{Err: errors.New("denied")}, ref("A", 10, 10), ref("B", 10, 10))
	m = press(t, m, "p")
	if m.err == nil {
		t.Fatal("clipboard failure should be shown")
	}

	next, cmd := m.Update(key("esc"))
	m = next.(arrangeModel)
	if m.err != nil {
		t.Errorf("esc should dismiss the error, still have %v", m.err)
	}
	if cmd != nil {
		t.Error("esc with an error showing should not quit")
	}

	// The next esc quits as usual.
	if _, cmd := m.Update(key("esc")); cmd == nil {
		t.Error("esc without an error should quit")
	}

	// Other keys replace the error too.
	m = press(t, m, "p", "down")
	if m.err != nil {
		t.Errorf("cursor key should clear the error, still have %v", m.err)
	}
	if m.cursor != 1 {
		t.Errorf("cursor = %d, want 1", m.cursor)
	}
}

func TestArrangeExport(t *testing.T) {
	m := newTestArranger(t, intake.StaticClipboard{}, ref("A", 10, 10), ref("B", 20, 10))

	m = press(t, m, "enter")
	if m.err != nil {
		t.Fatalf("export: %v", m.err)
	}
	if m.saved != m.output {
		t.Fatalf("saved = %q, want %q", m.saved, m.output)
	}
	cfg := decodeConfig(t, m.saved, jpeg.DecodeConfig)
	if cfg.Width != 30 || cfg.Height != 10 {
		t.Errorf("export = %dx%d, want 30x10", cfg.Width, cfg.Height)
	}
}

func TestArrangeView(t *testing.T) {
	m := newTestArranger(t, intake.StaticClipboard{}, ref("first.png", 10, 10), ref("second.png", 10, 10))
	m = press(t, m, "down")

	view := m.View()
	for _, want := range []string{"Arrange Images", "first.png", "second.png", "row"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}

	empty := newTestArranger(t, intake.StaticClipboard{})
	if !strings.Contains(empty.View(), "no images") {
		t.Error("empty view should prompt for images")
	}
}

