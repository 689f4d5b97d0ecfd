package widgets

import (
	"github.com/odvcencio/mosaic/pkg/ui/backend"
)

// Paragraph draws lines of text, optionally inside a block.
type Paragraph struct {
	Lines []string
	Style backend.Style
	Align Alignment
	Block *Block
}

// NewParagraph splits text into lines.
func NewParagraph(text string) Paragraph {
	return Paragraph{Lines: SplitLines(text), Style: backend.DefaultStyle()}
}

// Draw paints the paragraph. Lines beyond the area are dropped.
func (p Paragraph) Draw(dst backend.RenderTarget) {
	w, h := dst.Size()
	area := backend.NewRect(0, 0, w, h)
	if p.Block != nil {
		p.Block.Draw(dst)
		area = p.Block.Inner(w, h)
	}
	if area.Empty() {
		return
	}

	inner := backend.NewSubTarget(dst, area.X, area.Y, area.Width, area.Height)
	for i, line := range p.Lines {
		if i >= area.Height {
			break
		}
		SetString(inner, 0, i, Align(Plain(line), area.Width, p.Align), p.Style)
	}
}
