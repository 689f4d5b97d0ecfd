package runtime

import (
	"github.com/odvcencio/mosaic/pkg/ui/gate"
	"github.com/odvcencio/mosaic/pkg/ui/panel"
)

// UpdateFunc mutates panel state for the current frame.
type UpdateFunc func(ctx *UpdateContext) error

// RenderFunc reads panel state and pushes drawables for the current frame.
type RenderFunc func(ctx *RenderContext) error

type behavior[F any] struct {
	fn   F
	gate gate.Gate
}

// Panel is one registered UI panel: its state scope plus its behaviors,
// run in registration order within each phase.
type Panel struct {
	id      panel.ID
	scope   *panel.Scope
	updates []behavior[UpdateFunc]
	renders []behavior[RenderFunc]
}

// ID returns the panel id.
func (p *Panel) ID() panel.ID { return p.id }

// Scope returns the panel's state capability.
func (p *Panel) Scope() *panel.Scope { return p.scope }

// OnUpdate adds an update behavior. With several gates the behavior runs
// only when all are open.
func (p *Panel) OnUpdate(fn UpdateFunc, gates ...gate.Gate) {
	p.updates = append(p.updates, behavior[UpdateFunc]{fn: fn, gate: combine(gates)})
}

// OnRender adds a render behavior, gated like OnUpdate.
func (p *Panel) OnRender(fn RenderFunc, gates ...gate.Gate) {
	p.renders = append(p.renders, behavior[RenderFunc]{fn: fn, gate: combine(gates)})
}

func (p *Panel) has(phase string) bool {
	if phase == phaseUpdate {
		return len(p.updates) > 0
	}
	return len(p.renders) > 0
}

func combine(gates []gate.Gate) gate.Gate {
	switch len(gates) {
	case 0:
		return gate.Always
	case 1:
		return gates[0]
	default:
		return gate.All(gates...)
	}
}
