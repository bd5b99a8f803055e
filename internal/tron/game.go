// Package tron simulates a two-player light-cycle game on a bounded grid.
//
// A Game is a pure state machine: it never starts timers, reads input or draws
// anything. Callers serialise Turn and Tick onto one goroutine (or guard them
// with a mutex) and read the result through Snapshot.
package tron

import "fmt"

// Seat is the fixed starting position of one player.
type Seat struct {
	Name      string
	Start     Coordinate
	Direction Direction
}

type Config struct {
	Width   int
	Height  int
	Player1 Seat
	Player2 Seat
}

// DefaultConfig is the 50×50 arena used by the site.
func DefaultConfig() Config {
	return Config{
		Width:   50,
		Height:  50,
		Player1: Seat{Name: "Player 1", Start: Coordinate{Row: 25, Col: 10}, Direction: Right},
		Player2: Seat{Name: "Player 2", Start: Coordinate{Row: 25, Col: 39}, Direction: Left},
	}
}

func (c Config) validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("tron: invalid board %dx%d", c.Width, c.Height)
	}
	for _, seat := range []Seat{c.Player1, c.Player2} {
		if !seat.Start.In(c.Width, c.Height) {
			return fmt.Errorf("tron: start %s of %q outside %dx%d board", seat.Start, seat.Name, c.Width, c.Height)
		}
		if !seat.Direction.Valid() {
			return fmt.Errorf("tron: invalid direction for %q", seat.Name)
		}
	}
	if c.Player1.Start == c.Player2.Start {
		return fmt.Errorf("tron: both players start at %s", c.Player1.Start)
	}
	return nil
}

type Game struct {
	cfg     Config
	players [2]Player
	outcome Outcome
	ticks   int
}

// New creates a game with both players seeded at their starting cells.
// An invalid config is a programming error and panics.
func New(cfg Config) *Game {
	if err := cfg.validate(); err != nil {
		panic(err)
	}
	g := &Game{cfg: cfg}
	g.seed()
	return g
}

func (g *Game) seed() {
	for i, seat := range []Seat{g.cfg.Player1, g.cfg.Player2} {
		g.players[i] = Player{
			Name:      seat.Name,
			Direction: seat.Direction,
			Trail:     []Coordinate{seat.Start},
			Alive:     true,
		}
	}
	g.outcome = InProgress
	g.ticks = 0
}

// Reset discards both trails and reseeds the players from the config.
func (g *Game) Reset() {
	g.seed()
}

func (g *Game) player(id PlayerID) *Player {
	if !id.Valid() {
		return nil
	}
	return &g.players[id-1]
}

// Turn sets the heading a player will use on the next tick. Only the last
// call before a tick counts. Unknown players, invalid directions and
// finished games are ignored. Reversing onto the player's own trail is allowed.
func (g *Game) Turn(id PlayerID, d Direction) {
	if g.outcome.Terminal() || !d.Valid() {
		return
	}
	p := g.player(id)
	if p == nil || !p.Alive {
		return
	}
	p.Direction = d
}

// Tick advances both players one cell and returns the resulting outcome.
// Occupancy is taken before either player moves, so two heads entering the
// same empty cell both survive this tick. A finished game is left untouched.
func (g *Game) Tick() Outcome {
	if g.outcome.Terminal() {
		return g.outcome
	}

	occupied := make(map[Coordinate]struct{}, len(g.players[0].Trail)+len(g.players[1].Trail))
	for i := range g.players {
		for _, c := range g.players[i].Trail {
			occupied[c] = struct{}{}
		}
	}

	for i := range g.players {
		p := &g.players[i]
		if !p.Alive {
			continue
		}
		next := p.Head().Add(p.Direction)
		if !next.In(g.cfg.Width, g.cfg.Height) {
			p.Alive = false
			continue
		}
		if _, hit := occupied[next]; hit {
			p.Alive = false
			continue
		}
		p.Trail = append(p.Trail, next)
	}

	g.ticks++
	g.outcome = classify(g.players[0].Alive, g.players[1].Alive)
	return g.outcome
}

func classify(p1Alive, p2Alive bool) Outcome {
	switch {
	case !p1Alive && !p2Alive:
		return Tie
	case !p1Alive:
		return Player2Wins
	case !p2Alive:
		return Player1Wins
	default:
		return InProgress
	}
}

func (g *Game) Outcome() Outcome { return g.outcome }

// Ticks is the number of ticks that advanced the game since the last reset.
func (g *Game) Ticks() int { return g.ticks }

func (g *Game) Width() int  { return g.cfg.Width }
func (g *Game) Height() int { return g.cfg.Height }

func (g *Game) Config() Config { return g.cfg }

// Player returns a copy of the given player. ok is false for unknown ids.
func (g *Game) Player(id PlayerID) (Player, bool) {
	p := g.player(id)
	if p == nil {
		return Player{}, false
	}
	return p.clone(), true
}

// Snapshot is a deep copy of the game state for renderers.
type Snapshot struct {
	Width   int       `json:"width" msgpack:"width"`
	Height  int       `json:"height" msgpack:"height"`
	Tick    int       `json:"tick" msgpack:"tick"`
	Outcome Outcome   `json:"outcome" msgpack:"outcome"`
	Players [2]Player `json:"players" msgpack:"players"`
}

func (g *Game) Snapshot() Snapshot {
	return Snapshot{
		Width:   g.cfg.Width,
		Height:  g.cfg.Height,
		Tick:    g.ticks,
		Outcome: g.outcome,
		Players: [2]Player{g.players[0].clone(), g.players[1].clone()},
	}
}

// Head returns the head of the given player in the snapshot. ok is false
// for an unknown id.
func (s Snapshot) Head(id PlayerID) (Coordinate, bool) {
	if !id.Valid() {
		return Coordinate{}, false
	}
	return s.Players[id-1].Head(), true
}
