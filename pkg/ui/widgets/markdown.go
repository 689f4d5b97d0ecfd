package widgets

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"

	"github.com/odvcencio/mosaic/pkg/ui/backend"
)

// Markdown renders a markdown document as plain wrapped text. The layout
// is cached per width, so one *Markdown can be pushed every frame.
type Markdown struct {
	Source string
	Style  backend.Style
	Block  *Block

	mu    sync.Mutex
	width int
	lines []string
	err   error
}

// NewMarkdown creates a markdown drawable.
func NewMarkdown(source string) *Markdown {
	return &Markdown{Source: source, Style: backend.DefaultStyle()}
}

// Lines returns the rendered lines for width, rendering on first use.
func (m *Markdown) Lines(width int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.lines != nil && m.width == width {
		return m.lines, m.err
	}
	m.width = width
	m.lines, m.err = renderMarkdown(m.Source, width)
	return m.lines, m.err
}

func renderMarkdown(source string, width int) ([]string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("notty"),
		glamour.WithColorProfile(termenv.Ascii),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return []string{}, err
	}
	out, err := r.Render(source)
	if err != nil {
		return []string{}, err
	}

	lines := SplitLines(Plain(out))
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " ")
	}
	// glamour pads documents with blank lines
	for len(lines) > 0 && lines[0] == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines, nil
}

// Draw paints the document. Render failures fall back to the raw source.
func (m *Markdown) Draw(dst backend.RenderTarget) {
	w, h := dst.Size()
	area := backend.NewRect(0, 0, w, h)
	if m.Block != nil {
		m.Block.Draw(dst)
		area = m.Block.Inner(w, h)
	}
	if area.Empty() {
		return
	}

	lines, err := m.Lines(area.Width)
	if err != nil {
		lines = SplitLines(m.Source)
	}
	Paragraph{Lines: lines, Style: m.Style}.Draw(
		backend.NewSubTarget(dst, area.X, area.Y, area.Width, area.Height))
}
