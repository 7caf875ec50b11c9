package shared

import "fmt"

// Direction represents the trade direction of an up/down market position.
type Direction int

const (
	// Up positions pay out when the underlying resolves above the open, and
	// read yes prices off the book.
	Up Direction = iota
	// Down positions pay out when the underlying resolves below the open, and
	// read no prices off the book.
	Down
)

// String stringifies the provided direction.
func (d *Direction) String() string {
	switch *d {
	case Up:
		return "up"
	case Down:
		return "down"
	default:
		return "unknown"
	}
}

// ParseDirection parses a direction from the provided string.
func ParseDirection(direction string) (Direction, error) {
	switch direction {
	case "up", "UP", "Up":
		return Up, nil
	case "down", "DOWN", "Down":
		return Down, nil
	default:
		return 0, fmt.Errorf("unknown direction: %s", direction)
	}
}
