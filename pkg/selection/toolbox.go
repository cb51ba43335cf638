package selection

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/menta2k/image-annotator/internal/logging"
	"github.com/menta2k/image-annotator/pkg/geometry"
)

// Toolbox holds one operator per tool and routes pointer events to the
// active one. It is not safe for concurrent use.
type Toolbox struct {
	operators map[Tool]Operator
	active    Tool
	hasActive bool
}

// NewToolbox creates an empty toolbox.
func NewToolbox() *Toolbox {
	return &Toolbox{operators: make(map[Tool]Operator)}
}

// Register installs op under its own tool, replacing any previous operator.
// A replaced operator is deselected first.
func (t *Toolbox) Register(op Operator) {
	if prev, ok := t.operators[op.Tool()]; ok && prev != op {
		prev.Deselect()
	}
	t.operators[op.Tool()] = op
}

// Operator returns the operator registered for tool.
func (t *Toolbox) Operator(tool Tool) (Operator, bool) {
	op, ok := t.operators[tool]
	return op, ok
}

// Activate switches to tool. The previously active operator is deselected.
func (t *Toolbox) Activate(tool Tool) error {
	next, ok := t.operators[tool]
	if !ok {
		return fmt.Errorf("no operator registered for %s", tool)
	}
	if t.hasActive && t.active != tool {
		if prev := t.operators[t.active]; prev != nil {
			prev.Deselect()
		}
	}
	t.active = tool
	t.hasActive = true
	logging.Logger.Debug("tool activated", zap.Stringer("tool", tool), zap.Stringer("state", next.State()))
	return nil
}

// Active returns the active operator, nil before the first Activate.
func (t *Toolbox) Active() Operator {
	if !t.hasActive {
		return nil
	}
	return t.operators[t.active]
}

func (t *Toolbox) Down(p geometry.Point) {
	if op := t.Active(); op != nil {
		op.OnPointerDown(p)
	}
}

func (t *Toolbox) Move(p geometry.Point) {
	if op := t.Active(); op != nil {
		op.OnPointerMove(p)
	}
}

func (t *Toolbox) Up(p geometry.Point) {
	if op := t.Active(); op != nil {
		op.OnPointerUp(p)
	}
}

func (t *Toolbox) Deselect() {
	if op := t.Active(); op != nil {
		op.Deselect()
	}
}
