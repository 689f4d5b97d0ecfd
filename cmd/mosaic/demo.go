package main

import (
	"fmt"

	"github.com/odvcencio/mosaic/pkg/ui/backend"
	"github.com/odvcencio/mosaic/pkg/ui/gate"
	"github.com/odvcencio/mosaic/pkg/ui/panel"
	"github.com/odvcencio/mosaic/pkg/ui/runtime"
	"github.com/odvcencio/mosaic/pkg/ui/terminal"
	"github.com/odvcencio/mosaic/pkg/ui/theme"
	"github.com/odvcencio/mosaic/pkg/ui/widgets"
)

type popupMode int

const (
	popupClosed popupMode = iota
	popupOpen
)

// Counter is the counter panel's state.
type Counter struct{ N int }

// Progress is the progress panel's state, 0..100.
type Progress struct{ Value int }

// Status is what the status line last recorded.
type Status struct {
	Frame uint64
	Last  string
}

const aboutText = `# mosaic

Every panel sees the same event each frame and draws into one z-ordered buffer.

- **←/→** counter
- **↑/↓** progress
- **Space** toggle this box
- **Esc** quit
`

type layout struct {
	counter, progress, status, popup backend.Rect
}

func computeLayout(area backend.Rect) layout {
	inner := area.Inset(1, 1, 1, 1)
	half := inner.Width / 2
	return layout{
		counter:  backend.NewRect(inner.X, inner.Y, half, 3),
		progress: backend.NewRect(inner.X+half, inner.Y, inner.Width-half, 3),
		status:   backend.NewRect(inner.X, inner.Y+inner.Height-1, inner.Width, 1),
		popup:    area.Center(min(44, inner.Width), min(12, inner.Height-1)),
	}
}

// demo wires the demo panels into an App.
type demo struct {
	th    *theme.Theme
	popup *gate.State[popupMode]
	about *widgets.Markdown
}

func newDemo(th *theme.Theme) *demo {
	d := &demo{th: th, popup: gate.NewState(popupClosed)}
	d.about = widgets.NewMarkdown(aboutText)
	d.about.Style = th.TextPrimary
	d.about.Block = d.block("about")
	d.about.Block.BorderStyle = th.BorderFocus
	return d
}

func (d *demo) install(app *runtime.App) error {
	app.AddState(d.popup)

	steps := []struct {
		id    panel.ID
		setup func(*runtime.Panel) error
	}{
		{"app", d.setupApp},
		{"counter", d.setupCounter},
		{"progress", d.setupProgress},
		{"popup", d.setupPopup},
		{"status", d.setupStatus},
	}
	for _, s := range steps {
		if err := app.AddPanel(s.id, s.setup); err != nil {
			return err
		}
	}
	return nil
}

func (d *demo) block(title string) *widgets.Block {
	b := widgets.NewBlock(title)
	b.BorderStyle = d.th.Border
	b.TitleStyle = d.th.Title
	return &b
}

func (d *demo) setupApp(p *runtime.Panel) error {
	p.OnUpdate(func(c *runtime.UpdateContext) error {
		ev := c.Event()
		if terminal.IsKey(ev, terminal.KeyEscape) || terminal.IsKey(ev, terminal.KeyCtrlC) {
			c.Exit()
		}
		return nil
	})
	p.OnRender(func(c *runtime.RenderContext) error {
		frame := d.block("mosaic")
		frame.Border = widgets.BorderThick
		frame.BottomTitle = "esc quit"
		frame.TitleAlign = widgets.AlignCenter
		c.Draw(frame, c.Area(), 0)
		return nil
	})
	return nil
}

func (d *demo) setupCounter(p *runtime.Panel) error {
	if _, err := panel.Register(p.Scope(), Counter{}); err != nil {
		return err
	}
	p.OnUpdate(func(c *runtime.UpdateContext) error {
		cell := panel.MustGet[Counter](c.Scope())
		switch ev := c.Event(); {
		case terminal.IsKey(ev, terminal.KeyLeft):
			cell.Update(func(s *Counter) {
				if s.N > 0 {
					s.N--
				}
			})
		case terminal.IsKey(ev, terminal.KeyRight):
			cell.Update(func(s *Counter) { s.N++ })
		}
		return nil
	})
	p.OnRender(func(c *runtime.RenderContext) error {
		n := panel.MustGet[Counter](c.Scope()).Load().N
		para := widgets.NewParagraph(fmt.Sprintf("count: %d", n))
		para.Style = d.th.TextPrimary
		para.Block = d.block("counter")
		c.Draw(para, computeLayout(c.Area()).counter, 1)
		return nil
	})
	return nil
}

func (d *demo) setupProgress(p *runtime.Panel) error {
	cell, err := panel.Register(p.Scope(), Progress{})
	if err != nil {
		return err
	}
	p.OnUpdate(func(c *runtime.UpdateContext) error {
		switch ev := c.Event(); {
		case terminal.IsKey(ev, terminal.KeyUp):
			cell.Update(func(s *Progress) { s.Value = (s.Value + 1) % 101 })
		case terminal.IsKey(ev, terminal.KeyDown):
			cell.Update(func(s *Progress) {
				if s.Value > 0 {
					s.Value--
				}
			})
		}
		return nil
	})
	p.OnRender(func(c *runtime.RenderContext) error {
		g := widgets.Gauge{
			Ratio:      float64(cell.Load().Value) / 100,
			LabelStyle: d.th.TextPrimary,
			Style:      widgets.ThemeGaugeStyle(d.th),
			Block:      d.block("progress"),
		}
		c.Draw(g, computeLayout(c.Area()).progress, 1)
		return nil
	})
	return nil
}

func (d *demo) setupPopup(p *runtime.Panel) error {
	p.OnUpdate(func(c *runtime.UpdateContext) error {
		if !terminal.IsRune(c.Event(), ' ') {
			return nil
		}
		if d.popup.Current() == popupOpen {
			d.popup.Set(popupClosed)
		} else {
			d.popup.Set(popupOpen)
		}
		return nil
	})
	p.OnRender(func(c *runtime.RenderContext) error {
		area := computeLayout(c.Area()).popup
		c.Draw(widgets.Clear{Style: d.th.Surface}, area, 2)
		c.Draw(d.about, area, 2)
		return nil
	}, gate.InState(d.popup, popupOpen))
	return nil
}

// The status line keeps rendering while its update is frozen by the popup,
// so it shows the last event seen before the popup opened.
func (d *demo) setupStatus(p *runtime.Panel) error {
	cell, err := panel.Register(p.Scope(), Status{Last: terminal.Describe(nil)})
	if err != nil {
		return err
	}
	p.OnUpdate(func(c *runtime.UpdateContext) error {
		cell.Update(func(s *Status) {
			s.Frame = c.Frame()
			if ev := c.Event(); ev != nil {
				s.Last = terminal.Describe(ev)
			}
		})
		return nil
	}, gate.InState(d.popup, popupClosed))
	p.OnRender(func(c *runtime.RenderContext) error {
		s := cell.Load()
		style := d.th.TextSecondary
		if d.popup.Current() == popupOpen {
			style = d.th.TextMuted
		}
		line := fmt.Sprintf("frame %d  last: %s", s.Frame, s.Last)
		c.Draw(widgets.Paragraph{Lines: []string{line}, Style: style}, computeLayout(c.Area()).status, 3)
		return nil
	})
	return nil
}
