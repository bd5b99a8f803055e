package arcade

import (
	"fmt"
	"strings"

	"github.com/jeremyjr/portfolio/internal/tron"
)

// Browser keyCodes for the arrow keys and WASD.
const (
	KeyLeft  = 37
	KeyUp    = 38
	KeyRight = 39
	KeyDown  = 40
	KeyA     = 65
	KeyD     = 68
	KeyS     = 83
	KeyW     = 87
)

var keyDirections = map[int]tron.Direction{
	KeyLeft:  tron.Left,
	KeyUp:    tron.Up,
	KeyRight: tron.Right,
	KeyDown:  tron.Down,
	KeyA:     tron.Left,
	KeyW:     tron.Up,
	KeyD:     tron.Right,
	KeyS:     tron.Down,
}

// DirectionForKey maps a keyCode to a heading. ok is false for keys the
// arcade does not react to.
func DirectionForKey(code int) (tron.Direction, bool) {
	d, ok := keyDirections[code]
	return d, ok
}

// Mode selects who sits in the second seat.
type Mode string

const (
	ModeTwoPlayer Mode = "two-player"
	ModeComputer  Mode = "computer"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeTwoPlayer:
		return ModeTwoPlayer, nil
	case ModeComputer:
		return ModeComputer, nil
	}
	return "", fmt.Errorf("unknown mode %q", s)
}

// seatName is the display name of the second seat.
func (m Mode) seatName() string {
	if m == ModeComputer {
		return "Computer"
	}
	return "Player 2"
}

// boardFor applies the mode to a board config.
func boardFor(base tron.Config, m Mode) tron.Config {
	base.Player1.Name = "Player 1"
	base.Player2.Name = m.seatName()
	return base
}
