package arcade

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jeremyjr/portfolio/internal/tron"
)

// DefaultStep is the tick cadence of the browser game.
const DefaultStep = 100 * time.Millisecond

// Result describes a finished game.
type Result struct {
	SessionID     string
	Mode          Mode
	Outcome       tron.Outcome
	Ticks         int
	Player1Length int
	Player2Length int
	FinishedAt    time.Time
}

// ResultRecorder stores finished games.
type ResultRecorder interface {
	RecordResult(ctx context.Context, r Result) error
}

// Session is one running game: the simulation, the timer driving it and the
// renderers watching it. All access to the game goes through mu.
type Session struct {
	id       uuid.UUID
	mode     Mode
	board    tron.Config
	step     time.Duration
	recorder ResultRecorder

	mu      sync.Mutex
	game    *tron.Game
	started bool
	running bool
	closed  bool
	cancel  context.CancelFunc
	subs    map[chan Frame]struct{}
	touched time.Time
}

func newSession(mode Mode, board tron.Config, step time.Duration, recorder ResultRecorder) *Session {
	if step <= 0 {
		step = DefaultStep
	}
	cfg := boardFor(board, mode)
	return &Session{
		id:       uuid.New(),
		mode:     mode,
		board:    cfg,
		step:     step,
		recorder: recorder,
		game:     tron.New(cfg),
		subs:     make(map[chan Frame]struct{}),
		touched:  time.Now(),
	}
}

func (s *Session) ID() string { return s.id.String() }
func (s *Session) Mode() Mode { return s.mode }

// Start launches the timer. It is a no-op if the timer is already running.
func (s *Session) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = true
	s.startLocked()
}

func (s *Session) startLocked() {
	if s.closed || s.running || s.game.Outcome().Terminal() {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.running = true
	go s.loop(ctx, s.game)
}

func (s *Session) loop(ctx context.Context, game *tron.Game) {
	ticker := time.NewTicker(s.step)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			frame, finished, ok := s.advance(game)
			if !ok {
				return
			}
			if finished {
				s.record(frame)
				return
			}
		}
	}
}

// Advance runs a single tick outside the timer and returns the new frame.
func (s *Session) Advance() Frame {
	s.mu.Lock()
	game := s.game
	s.mu.Unlock()

	frame, finished, ok := s.advance(game)
	if !ok {
		return s.Frame()
	}
	if finished {
		s.record(frame)
	}
	return frame
}

// advance ticks game if it is still the session's current game and the
// session is open. finished is true only for the tick that ended the game.
func (s *Session) advance(game *tron.Game) (frame Frame, finished, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.game != game {
		return Frame{}, false, false
	}
	wasTerminal := game.Outcome().Terminal()
	out := game.Tick()
	finished = out.Terminal() && !wasTerminal
	if finished {
		s.stopLocked()
	}
	frame = s.frameLocked()
	s.publishLocked(frame)
	return frame, finished, true
}

func (s *Session) record(frame Frame) {
	log.Printf("Tron game %s finished: %s after %d ticks", s.id, frame.State.Outcome, frame.State.Tick)
	if s.recorder == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := s.recorder.RecordResult(ctx, Result{
		SessionID:     s.ID(),
		Mode:          s.mode,
		Outcome:       frame.State.Outcome,
		Ticks:         frame.State.Tick,
		Player1Length: len(frame.State.Players[0].Trail),
		Player2Length: len(frame.State.Players[1].Trail),
		FinishedAt:    time.Now(),
	})
	if err != nil {
		log.Printf("Error recording tron result for %s: %v", s.id, err)
	}
}

// Key applies a keyCode to both players. It reports whether the key is one
// the arcade reacts to.
func (s *Session) Key(code int) bool {
	d, ok := DirectionForKey(code)
	if !ok {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return true
	}
	s.game.Turn(tron.Player1, d)
	s.game.Turn(tron.Player2, d)
	s.touched = time.Now()
	return true
}

// Turn steers a single player.
func (s *Session) Turn(id tron.PlayerID, d tron.Direction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.game.Turn(id, d)
	s.touched = time.Now()
}

// Restart replaces the game with a fresh one and restarts the timer if the
// session was started before. A stopped session is left as it is.
func (s *Session) Restart() Frame {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return s.frameLocked()
	}
	s.stopLocked()
	s.game = tron.New(s.board)
	s.touched = time.Now()
	if s.started {
		s.startLocked()
	}

	frame := s.frameLocked()
	s.publishLocked(frame)
	return frame
}

// Stop halts the timer and closes every subscription. A stopped session
// never ticks or restarts again.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.stopLocked()
	for ch := range s.subs {
		delete(s.subs, ch)
		close(ch)
	}
}

func (s *Session) stopLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.running = false
}

// Closed reports whether Stop has been called.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Session) Frame() Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frameLocked()
}

func (s *Session) frameLocked() Frame {
	snap := s.game.Snapshot()
	return Frame{
		ID:      s.ID(),
		Mode:    s.mode,
		Running: s.running,
		Message: EndMessage(snap.Outcome, snap.Players[1].Name),
		State:   snap,
	}
}

// Subscribe returns a channel receiving a frame after every tick and
// restart. Frames are dropped for a subscriber that falls behind. The
// returned func cancels the subscription.
func (s *Session) Subscribe() (<-chan Frame, func()) {
	ch := make(chan Frame, 16)
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	s.subs[ch] = struct{}{}
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if _, ok := s.subs[ch]; ok {
				delete(s.subs, ch)
				close(ch)
			}
		})
	}
}

func (s *Session) publishLocked(f Frame) {
	for ch := range s.subs {
		select {
		case ch <- f:
		default:
		}
	}
}

// idleSince reports when the session was last steered or restarted, and
// whether its timer is running.
func (s *Session) idleSince() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touched, s.running
}
