package tron

import (
	"fmt"
	"strings"
)

// Direction is the heading of a light cycle.
type Direction int

const (
	Up Direction = iota
	Down
	Left
	Right
)

var directionName = map[Direction]string{
	Up:    "up",
	Down:  "down",
	Left:  "left",
	Right: "right",
}

func (d Direction) String() string {
	if name, ok := directionName[d]; ok {
		return name
	}
	return "unknown"
}

// Valid reports whether d is one of the four headings.
func (d Direction) Valid() bool {
	_, ok := directionName[d]
	return ok
}

// Delta returns the unit vector of d. Row 0 is the top of the board.
func (d Direction) Delta() (dRow, dCol int) {
	switch d {
	case Up:
		return -1, 0
	case Down:
		return 1, 0
	case Left:
		return 0, -1
	case Right:
		return 0, 1
	}
	return 0, 0
}

func (d Direction) Opposite() Direction {
	switch d {
	case Up:
		return Down
	case Down:
		return Up
	case Left:
		return Right
	case Right:
		return Left
	}
	return d
}

// ParseDirection accepts "up", "down", "left" or "right" in any case.
func ParseDirection(s string) (Direction, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for d, name := range directionName {
		if name == s {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown direction %q", s)
}

func (d Direction) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("invalid direction %d", int(d))
	}
	return []byte(d.String()), nil
}

func (d *Direction) UnmarshalText(text []byte) error {
	parsed, err := ParseDirection(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Coordinate is a board cell. Row grows downwards, Col grows to the right.
type Coordinate struct {
	Row int `json:"row" msgpack:"row"`
	Col int `json:"col" msgpack:"col"`
}

func (c Coordinate) Add(d Direction) Coordinate {
	dr, dc := d.Delta()
	return Coordinate{Row: c.Row + dr, Col: c.Col + dc}
}

// In reports whether c lies on a width×height board.
func (c Coordinate) In(width, height int) bool {
	return c.Row >= 0 && c.Row < height && c.Col >= 0 && c.Col < width
}

func (c Coordinate) String() string {
	return fmt.Sprintf("(%d,%d)", c.Row, c.Col)
}

// PlayerID identifies one of the two seats of a game.
type PlayerID int

const (
	Player1 PlayerID = 1
	Player2 PlayerID = 2
)

func (id PlayerID) Valid() bool {
	return id == Player1 || id == Player2
}

func (id PlayerID) String() string {
	switch id {
	case Player1:
		return "player1"
	case Player2:
		return "player2"
	default:
		return "unknown"
	}
}

// Outcome is the state of a game after a tick.
type Outcome int

const (
	InProgress Outcome = iota
	Player1Wins
	Player2Wins
	Tie
)

func (o Outcome) String() string {
	switch o {
	case InProgress:
		return "in_progress"
	case Player1Wins:
		return "player1_wins"
	case Player2Wins:
		return "player2_wins"
	case Tie:
		return "tie"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further ticks can change the game.
func (o Outcome) Terminal() bool {
	return o == Player1Wins || o == Player2Wins || o == Tie
}

func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

func (o *Outcome) UnmarshalText(text []byte) error {
	for _, candidate := range []Outcome{InProgress, Player1Wins, Player2Wins, Tie} {
		if candidate.String() == string(text) {
			*o = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown outcome %q", text)
}

// Player is one light cycle. The last trail element is the head.
type Player struct {
	Name      string       `json:"name" msgpack:"name"`
	Direction Direction    `json:"direction" msgpack:"direction"`
	Trail     []Coordinate `json:"trail" msgpack:"trail"`
	Alive     bool         `json:"alive" msgpack:"alive"`
}

func (p Player) Head() Coordinate {
	return p.Trail[len(p.Trail)-1]
}

func (p Player) clone() Player {
	p.Trail = append([]Coordinate(nil), p.Trail...)
	return p
}
