package models

import (
	"fmt"
	"time"
)

// Status is a column of a board. Statuses are ordered by Position inside their lane.
type Status struct {
	ID        int       `json:"id"`
	BoardID   int       `json:"boardId"`
	Lane      Lane      `json:"lane"`
	Title     string    `json:"title"`
	Color     Color     `json:"color"`
	Position  float64   `json:"position"`
	CreatedAt time.Time `json:"createdAt"`
}

// Lane groups statuses into the three phases of work.
type Lane string

const (
	LaneTodo       Lane = "todo"
	LaneInProgress Lane = "inProgress"
	LaneComplete   Lane = "complete"
)

// Lanes lists every lane in board order.
var Lanes = []Lane{LaneTodo, LaneInProgress, LaneComplete}

// ParseLane validates a lane name.
func ParseLane(s string) (Lane, error) {
	for _, l := range Lanes {
		if string(l) == s {
			return l, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidLane, s)
}

// Color is the display color of a status.
type Color string

const (
	ColorBlack  Color = "black"
	ColorGray   Color = "gray"
	ColorBrown  Color = "brown"
	ColorOrange Color = "orange"
	ColorYellow Color = "yellow"
	ColorGreen  Color = "green"
	ColorBlue   Color = "blue"
	ColorPurple Color = "purple"
	ColorPink   Color = "pink"
	ColorRed    Color = "red"
)

// Colors lists the accepted colors.
var Colors = []Color{
	ColorBlack, ColorGray, ColorBrown, ColorOrange, ColorYellow,
	ColorGreen, ColorBlue, ColorPurple, ColorPink, ColorRed,
}

// ParseColor validates a color name.
func ParseColor(s string) (Color, error) {
	for _, c := range Colors {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidColor, s)
}

// DefaultStatus describes a status seeded into every new board.
type DefaultStatus struct {
	Title string
	Lane  Lane
	Color Color
}

// DefaultStatuses are created, in order, with each new board.
var DefaultStatuses = []DefaultStatus{
	{Title: "Not started", Lane: LaneTodo, Color: ColorBlack},
	{Title: "In progress", Lane: LaneInProgress, Color: ColorBlue},
	{Title: "Done", Lane: LaneComplete, Color: ColorGreen},
}
