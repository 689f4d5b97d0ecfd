package widgets

import (
	"github.com/mattn/go-runewidth"

	"github.com/odvcencio/mosaic/pkg/ui/backend"
)

// BorderSet is the runes used to draw a box.
type BorderSet struct {
	TopLeft, TopRight, BottomLeft, BottomRight rune
	Horizontal, Vertical                       rune
}

var (
	BorderPlain   = BorderSet{'┌', '┐', '└', '┘', '─', '│'}
	BorderRounded = BorderSet{'╭', '╮', '╰', '╯', '─', '│'}
	BorderThick   = BorderSet{'┏', '┓', '┗', '┛', '━', '┃'}
)

// Block is a bordered box with optional titles on the top and bottom edges.
type Block struct {
	Border      BorderSet
	BorderStyle backend.Style

	// Fill paints the interior with Style before the border is drawn.
	Fill  bool
	Style backend.Style

	Title       string
	BottomTitle string
	TitleStyle  backend.Style
	TitleAlign  Alignment
}

// NewBlock creates a rounded block with a top title.
func NewBlock(title string) Block {
	return Block{
		Border:      BorderRounded,
		BorderStyle: backend.DefaultStyle(),
		Style:       backend.DefaultStyle(),
		Title:       title,
		TitleStyle:  backend.DefaultStyle(),
	}
}

// Inner returns the area inside the border for a block of the given size.
func (b Block) Inner(width, height int) backend.Rect {
	return backend.NewRect(0, 0, width, height).Inset(1, 1, 1, 1)
}

// Draw paints the block.
func (b Block) Draw(dst backend.RenderTarget) {
	w, h := dst.Size()
	if w < 2 || h < 2 {
		return
	}
	border := b.Border
	if border == (BorderSet{}) {
		border = BorderPlain
	}

	if b.Fill {
		backend.Fill(dst, ' ', b.Style)
	}

	for x := 1; x < w-1; x++ {
		dst.SetContent(x, 0, border.Horizontal, nil, b.BorderStyle)
		dst.SetContent(x, h-1, border.Horizontal, nil, b.BorderStyle)
	}
	for y := 1; y < h-1; y++ {
		dst.SetContent(0, y, border.Vertical, nil, b.BorderStyle)
		dst.SetContent(w-1, y, border.Vertical, nil, b.BorderStyle)
	}
	dst.SetContent(0, 0, border.TopLeft, nil, b.BorderStyle)
	dst.SetContent(w-1, 0, border.TopRight, nil, b.BorderStyle)
	dst.SetContent(0, h-1, border.BottomLeft, nil, b.BorderStyle)
	dst.SetContent(w-1, h-1, border.BottomRight, nil, b.BorderStyle)

	b.drawTitle(dst, b.Title, 0, w)
	b.drawTitle(dst, b.BottomTitle, h-1, w)
}

func (b Block) drawTitle(dst backend.RenderTarget, title string, y, w int) {
	if title == "" || w < 5 {
		return
	}
	// one column of border plus one of padding on each side
	room := w - 4
	title = " " + Truncate(Plain(title), room) + " "
	tw := runewidth.StringWidth(title)

	x := 1
	switch b.TitleAlign {
	case AlignCenter:
		x = (w - tw) / 2
	case AlignRight:
		x = w - 1 - tw
	}
	SetString(backend.NewSubTarget(dst, 0, y, w-1, 1), x, 0, title, b.TitleStyle)
}
