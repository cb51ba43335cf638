package types

import "github.com/google/uuid"

// Box represents a normalized bounding box with coordinates in [0,1] range
type Box struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Primary is the main object a vision model found in a region
type Primary struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Box        Box     `json:"box"`
}

// AnalysisResult contains the complete answer from the vision model
type AnalysisResult struct {
	Primary     Primary  `json:"primary"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

// Category is an annotation class selections are assigned to
type Category struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Color   string    `json:"color"`
	Visible bool      `json:"visible"`
}

// Unknown is the category every project starts with
var Unknown = Category{
	ID:      uuid.Nil,
	Name:    "Unknown",
	Color:   "rgb(255, 255, 0)",
	Visible: true,
}

// NewCategory creates a visible category with a fresh id
func NewCategory(name, color string) Category {
	return Category{
		ID:      uuid.New(),
		Name:    name,
		Color:   color,
		Visible: true,
	}
}
