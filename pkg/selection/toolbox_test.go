package selection

import (
	"testing"

	"github.com/menta2k/image-annotator/pkg/geometry"
)

func TestToolboxDispatch(t *testing.T) {
	tb := NewToolbox()
	if tb.Active() != nil {
		t.Fatal("Expected no active operator")
	}
	tb.Down(geometry.Pt(1, 1)) // no-op without an active operator

	rect := NewRectangularOperator(100, 100)
	obj := NewObjectOperator(100, 100)
	tb.Register(rect)
	tb.Register(obj)

	if err := tb.Activate(Rectangular); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}
	tb.Down(geometry.Pt(10, 10))
	tb.Move(geometry.Pt(20, 20))
	tb.Up(geometry.Pt(30, 30))
	if rect.State() != Selected {
		t.Fatalf("Expected rectangular Selected, got %s", rect.State())
	}
	if obj.State() != Idle {
		t.Error("Inactive operator should not receive events")
	}

	if err := tb.Activate(Object); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}
	if rect.State() != Idle {
		t.Error("Switching tools should deselect the previous operator")
	}
	if tb.Active().Tool() != Object {
		t.Errorf("Expected object active, got %s", tb.Active().Tool())
	}

	tb.Down(geometry.Pt(10, 10))
	tb.Deselect()
	if obj.State() != Idle {
		t.Error("Deselect should reach the active operator")
	}
}

func TestToolboxUnknownTool(t *testing.T) {
	tb := NewToolbox()
	if err := tb.Activate(Quick); err == nil {
		t.Error("Expected error for an unregistered tool")
	}
}

func TestToolboxRegisterReplaces(t *testing.T) {
	tb := NewToolbox()
	first := NewRectangularOperator(10, 10)
	tb.Register(first)
	drag(first, geometry.Pt(1, 1), geometry.Pt(5, 5))

	second := NewRectangularOperator(20, 20)
	tb.Register(second)
	if first.State() != Idle {
		t.Error("Replaced operator should be deselected")
	}
	op, ok := tb.Operator(Rectangular)
	if !ok || op != Operator(second) {
		t.Error("Expected the new operator to be registered")
	}
}
