package arcade

import (
	"strings"

	"github.com/jeremyjr/portfolio/internal/tron"
)

// Frame is what a renderer needs after a tick.
type Frame struct {
	ID      string        `json:"id" msgpack:"id"`
	Mode    Mode          `json:"mode" msgpack:"mode"`
	Running bool          `json:"running" msgpack:"running"`
	Message string        `json:"message,omitempty" msgpack:"message,omitempty"`
	State   tron.Snapshot `json:"state" msgpack:"state"`
}

// EndMessage is the banner shown for a finished game. It is empty while the
// game is still running.
func EndMessage(o tron.Outcome, p2Name string) string {
	switch o {
	case tron.Tie:
		return "It's a tie!"
	case tron.Player1Wins:
		return "Player 1 wins!"
	case tron.Player2Wins:
		if p2Name == "" {
			p2Name = "Player 2"
		}
		return p2Name + " wins!"
	}
	return ""
}

// RenderText draws the board one row per line: '.' empty, '1' and '2'
// trails, 'A' and 'B' heads, '*' where both heads share a cell.
func RenderText(s tron.Snapshot) string {
	if s.Width <= 0 || s.Height <= 0 {
		return ""
	}
	cells := make([][]byte, s.Height)
	for r := range cells {
		cells[r] = []byte(strings.Repeat(".", s.Width))
	}

	trailMark := [2]byte{'1', '2'}
	headMark := [2]byte{'A', 'B'}
	for i, p := range s.Players {
		for _, c := range p.Trail {
			cells[c.Row][c.Col] = trailMark[i]
		}
	}
	for i, p := range s.Players {
		if len(p.Trail) == 0 {
			continue
		}
		h := p.Head()
		if i == 1 && cells[h.Row][h.Col] == headMark[0] {
			cells[h.Row][h.Col] = '*'
			continue
		}
		cells[h.Row][h.Col] = headMark[i]
	}

	var b strings.Builder
	b.Grow((s.Width + 1) * s.Height)
	for _, row := range cells {
		b.Write(row)
		b.WriteByte('\n')
	}
	return b.String()
}
