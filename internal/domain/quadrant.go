package domain

import (
	"fmt"
	"math"
)

// Quadrant is an Eisenhower matrix bucket.
type Quadrant int

const (
	QuadrantDo Quadrant = iota + 1
	QuadrantDecide
	QuadrantDelegate
	QuadrantDelete
)

const (
	ColorDo       = "hsl(0 100% 50%)"
	ColorDecide   = "hsl(39 80% 53%)"
	ColorDelegate = "hsl(153 96% 49%)"
	ColorDelete   = "hsl(259 89% 53%)"
)

// scoreThreshold splits urgent from not urgent and important from not important.
const scoreThreshold = 5

// Classify is the canonical classification that drives a task's color. A
// score must be strictly greater than 5 to count; missing scores count as 0.
func Classify(urgency, importance *float64) Quadrant {
	u, i := valueOr(urgency), valueOr(importance)
	switch {
	case u > scoreThreshold && i > scoreThreshold:
		return QuadrantDo
	case u <= scoreThreshold && i > scoreThreshold:
		return QuadrantDecide
	case u > scoreThreshold && i <= scoreThreshold:
		return QuadrantDelegate
	default:
		return QuadrantDelete
	}
}

// BadgeQuadrant is the display-only classification used for badges and
// timeline ordering. It treats a score of exactly 5 as urgent/important,
// which differs from Classify at the boundary. Color is never derived from it.
func BadgeQuadrant(urgency, importance *float64) Quadrant {
	u, i := valueOr(urgency), valueOr(importance)
	switch {
	case u >= scoreThreshold && i >= scoreThreshold:
		return QuadrantDo
	case u < scoreThreshold && i >= scoreThreshold:
		return QuadrantDecide
	case u >= scoreThreshold && i < scoreThreshold:
		return QuadrantDelegate
	default:
		return QuadrantDelete
	}
}

// ColorFor derives the persisted color of a task.
func ColorFor(urgency, importance *float64) string {
	return Classify(urgency, importance).Color()
}

func (q Quadrant) Color() string {
	switch q {
	case QuadrantDo:
		return ColorDo
	case QuadrantDecide:
		return ColorDecide
	case QuadrantDelegate:
		return ColorDelegate
	default:
		return ColorDelete
	}
}

func (q Quadrant) String() string {
	switch q {
	case QuadrantDo:
		return "do"
	case QuadrantDecide:
		return "decide"
	case QuadrantDelegate:
		return "delegate"
	case QuadrantDelete:
		return "delete"
	default:
		return fmt.Sprintf("quadrant(%d)", int(q))
	}
}

// Label is the human-readable quadrant name shown on badges.
func (q Quadrant) Label() string {
	switch q {
	case QuadrantDo:
		return "Urgent & Important"
	case QuadrantDecide:
		return "Not Urgent & Important"
	case QuadrantDelegate:
		return "Urgent & Not Important"
	default:
		return "Not Urgent & Not Important"
	}
}

// Recolor re-derives the color of every task in place.
func Recolor(tasks []Task) {
	for i := range tasks {
		tasks[i].Color = ColorFor(tasks[i].Urgency, tasks[i].Importance)
	}
}

// MatrixScore clamps a score dropped on the matrix to [0, 10] and rounds it
// to one decimal.
func MatrixScore(v float64) float64 {
	v = math.Max(0, math.Min(10, v))
	return math.Round(v*10) / 10
}
