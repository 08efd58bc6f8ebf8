package model

import "time"

// Color is one of the fixed project accent colors.
type Color string

// Colors accepted by the API.
const (
	ColorBlue   Color = "blue"
	ColorGreen  Color = "green"
	ColorPurple Color = "purple"
	ColorRed    Color = "red"
	ColorOrange Color = "orange"
	ColorPink   Color = "pink"
)

// Colors lists every project color in picker order.
var Colors = []Color{ColorBlue, ColorGreen, ColorPurple, ColorRed, ColorOrange, ColorPink}

// Valid reports whether c is a known color.
func (c Color) Valid() bool {
	for _, known := range Colors {
		if c == known {
			return true
		}
	}
	return false
}

// Project is a grouping container for tasks. TaskCount is computed by the
// server and only ever replaced by a fresh fetch.
type Project struct {
	ID          ID        `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Color       Color     `json:"color" db:"color"`
	Owner       ID        `json:"user" db:"user_id"`
	OwnerName   string    `json:"user_name" db:"user_name"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	TaskCount   int       `json:"task_count" db:"task_count"`
}
