package domain

import "studio/internal/geom"

type GuideKind string

const (
	GuideVertical   GuideKind = "vertical"
	GuideHorizontal GuideKind = "horizontal"
	GuideSpacing    GuideKind = "spacing"
)

type Axis string

const (
	AxisHorizontal Axis = "horizontal"
	AxisVertical   Axis = "vertical"
)

// SnapGuide is a transient render hint describing why a drag snapped.
// For vertical guides Position is an x coordinate and the range runs along y;
// horizontal guides are the reverse. Spacing guides sit at the midpoint of a
// gap and carry its size.
type SnapGuide struct {
	Kind       GuideKind `json:"kind"`
	Position   float64   `json:"position"`
	RangeStart float64   `json:"rangeStart"`
	RangeEnd   float64   `json:"rangeEnd"`
	Gap        float64   `json:"gap,omitempty"`
	GapAxis    Axis      `json:"gapAxis,omitempty"`
}

// MarqueeRect is the rubber-band rectangle in screen space.
type MarqueeRect struct {
	StartX   float64 `json:"startX"`
	StartY   float64 `json:"startY"`
	CurrentX float64 `json:"currentX"`
	CurrentY float64 `json:"currentY"`
}

// Rect returns the normalized screen-space rectangle.
func (m MarqueeRect) Rect() geom.Rect {
	return geom.RectFromPoints(
		geom.Point{X: m.StartX, Y: m.StartY},
		geom.Point{X: m.CurrentX, Y: m.CurrentY},
	)
}
