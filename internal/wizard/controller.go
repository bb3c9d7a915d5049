package wizard

import "strings"

// PrepareFunc readies a step right before it becomes visible.
type PrepareFunc func()

// Controller owns the step sequence and the next/prev enablement.
type Controller struct {
	st      *State
	prepare map[Step]PrepareFunc
}

// NewController creates a controller over st and computes the initial nav.
func NewController(st *State) *Controller {
	c := &Controller{st: st, prepare: make(map[Step]PrepareFunc)}
	c.Refresh()
	return c
}

// OnPrepare registers the prepare hook of a step.
func (c *Controller) OnPrepare(step Step, fn PrepareFunc) {
	c.prepare[step] = fn
}

// Advance moves to the next step when allowed. The entered step is prepared
// before the cursor moves. It reports whether the cursor moved.
func (c *Controller) Advance() bool {
	c.Refresh()
	if !c.st.CanGoNext {
		return false
	}
	next := c.st.Steps[c.st.Cursor+1]
	if fn := c.prepare[next]; fn != nil {
		fn()
	}
	c.st.Cursor++
	c.Refresh()
	return true
}

// Retreat moves back one step. Earlier steps keep their prepared state.
func (c *Controller) Retreat() bool {
	if c.st.Cursor == 0 {
		return false
	}
	c.st.Cursor--
	c.Refresh()
	return true
}

// Refresh recomputes CanGoNext and CanGoPrev.
func (c *Controller) Refresh() {
	last := len(c.st.Steps) - 1
	c.st.CanGoPrev = c.st.Cursor > 0
	c.st.CanGoNext = c.st.Cursor < last && c.gate(c.st.Current())
}

// gate reports whether the step's own requirements are met.
func (c *Controller) gate(step Step) bool {
	switch step {
	case StepLocation:
		return c.st.Area.Ready()
	case StepPaperSize:
		return c.st.Paper.Status == PaperReady && c.st.Options.PaperSize != ""
	case StepTitle:
		return strings.TrimSpace(c.st.Title) != ""
	}
	return true
}
