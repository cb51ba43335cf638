package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/menta2k/image-annotator/pkg/geometry"
	"github.com/menta2k/image-annotator/pkg/selection"
)

// event is one pointer event of a replay script:
//
//	[{"type":"down","x":10,"y":10},{"type":"move","x":40,"y":20},{"type":"up","x":60,"y":30}]
type event struct {
	Type string  `json:"type"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

func readEvents(r io.Reader) ([]event, error) {
	var events []event
	if err := json.NewDecoder(r).Decode(&events); err != nil {
		return nil, fmt.Errorf("failed to parse events: %w", err)
	}
	for i, e := range events {
		switch e.Type {
		case "down", "move", "up", "deselect":
		default:
			return nil, fmt.Errorf("event %d: unknown type %q", i, e.Type)
		}
	}
	return events, nil
}

// replay feeds events to op in order.
func replay(op selection.Operator, events []event) {
	for _, e := range events {
		p := geometry.Pt(e.X, e.Y)
		switch e.Type {
		case "down":
			op.OnPointerDown(p)
		case "move":
			op.OnPointerMove(p)
		case "up":
			op.OnPointerUp(p)
		case "deselect":
			op.Deselect()
		}
	}
}
