// Package selection implements the selection operators that turn pointer
// input into region masks.
//
// Every operator follows the same small state machine:
//
//	Idle --down--> Selecting --up--> Selected --Deselect--> Idle
//
// Events delivered in the wrong state are ignored. Quick selection skips
// Selecting and moves straight to Selected on the click.
package selection

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/menta2k/image-annotator/internal/logging"
	"github.com/menta2k/image-annotator/pkg/geometry"
	"github.com/menta2k/image-annotator/pkg/rle"
)

var (
	// ErrInvalidImage is returned by setup functions for nil or empty images.
	ErrInvalidImage = errors.New("invalid image")
	// ErrInvalidBrushSize is returned for a non-positive pen diameter.
	ErrInvalidBrushSize = errors.New("invalid brush size")
)

// State is the lifecycle position of an operator.
type State int

const (
	Idle State = iota
	Selecting
	Selected
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Selecting:
		return "selecting"
	case Selected:
		return "selected"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Tool tags the operator variants.
type Tool int

const (
	Rectangular Tool = iota
	Pen
	Quick
	Object
)

func (t Tool) String() string {
	switch t {
	case Rectangular:
		return "rectangular"
	case Pen:
		return "pen"
	case Quick:
		return "quick"
	case Object:
		return "object"
	default:
		return fmt.Sprintf("Tool(%d)", int(t))
	}
}

// ParseTool maps a tool name back to its Tool.
func ParseTool(name string) (Tool, error) {
	for _, t := range []Tool{Rectangular, Pen, Quick, Object} {
		if t.String() == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown tool %q", name)
}

// Operator is the capability set shared by every selection technique.
type Operator interface {
	Tool() Tool
	State() State

	OnPointerDown(p geometry.Point)
	OnPointerMove(p geometry.Point)
	OnPointerUp(p geometry.Point)
	Deselect()

	// BoundingBox reports false until a non-empty selection exists, and
	// always for variants without explicit geometry.
	BoundingBox() (geometry.Box, bool)
	Contour() []float64
	Mask() rle.Runs
	// Size is the width and height of the image the mask refers to.
	Size() (int, int)
}

// machine is the state shared by every variant.
type machine struct {
	state State
}

func (m *machine) State() State { return m.state }

func (m *machine) begin() bool {
	if m.state != Idle {
		return false
	}
	m.state = Selecting
	return true
}

func (m *machine) selecting() bool { return m.state == Selecting }

func (m *machine) finish(tool Tool) {
	m.state = Selected
	logging.Logger.Debug("selection finished", zap.Stringer("tool", tool))
}

func (m *machine) reset() { m.state = Idle }

// Record is the durable output of a finished selection, handed to category
// assignment and training.
type Record struct {
	ID          uuid.UUID     `json:"id"`
	Tool        string        `json:"tool"`
	BoundingBox *geometry.Box `json:"box,omitempty"`
	Category    uuid.UUID     `json:"category"`
	Mask        rle.Runs      `json:"mask"`
	Width       int           `json:"width"`
	Height      int           `json:"height"`
}

// Select builds the record for op's current selection. It returns false when
// op is not Selected or selected nothing; such selections must not be
// forwarded.
func Select(op Operator, category uuid.UUID) (Record, bool) {
	if op.State() != Selected {
		return Record{}, false
	}
	mask := op.Mask()
	if mask == nil || mask.Empty() {
		return Record{}, false
	}
	w, h := op.Size()
	rec := Record{
		ID:       uuid.New(),
		Tool:     op.Tool().String(),
		Category: category,
		Mask:     mask,
		Width:    w,
		Height:   h,
	}
	if box, ok := op.BoundingBox(); ok {
		rec.BoundingBox = &box
	}
	return rec, true
}

// Decode expands the record's mask.
func (r Record) Decode() ([]byte, error) {
	return rle.Decode(r.Mask, r.Width, r.Height)
}
