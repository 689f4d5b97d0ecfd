package widgets

import "github.com/odvcencio/mosaic/pkg/ui/backend"

// Clear blanks its area, so a popup drawn above it hides what is below.
type Clear struct {
	Style backend.Style
}

// Draw fills the area with spaces.
func (c Clear) Draw(dst backend.RenderTarget) {
	backend.Fill(dst, ' ', c.Style)
}
