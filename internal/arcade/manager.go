// Package arcade runs Tron games for the site: it drives each game with a
// timer, maps keyboard input to turns and hands frames to renderers.
package arcade

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/jeremyjr/portfolio/internal/tron"
)

var (
	ErrSessionNotFound = errors.New("arcade: session not found")
	ErrTooManySessions = errors.New("arcade: too many live sessions")
)

// ContentTypeMsgpack is the media type clients send in Accept to receive
// frames as MessagePack.
const ContentTypeMsgpack = "application/msgpack"

type Options struct {
	Step        time.Duration
	MaxSessions int
	// IdleTTL is how long a session may go without input before it is reaped.
	IdleTTL  time.Duration
	Board    tron.Config
	Recorder ResultRecorder
}

func (o Options) withDefaults() Options {
	if o.Step <= 0 {
		o.Step = DefaultStep
	}
	if o.MaxSessions <= 0 {
		o.MaxSessions = 64
	}
	if o.IdleTTL <= 0 {
		o.IdleTTL = 10 * time.Minute
	}
	if o.Board.Width == 0 {
		o.Board = tron.DefaultConfig()
	}
	return o
}

type Manager struct {
	opts Options

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

func NewManager(opts Options) *Manager {
	return &Manager{
		opts:     opts.withDefaults(),
		sessions: make(map[uuid.UUID]*Session),
	}
}

// Create registers a new session and starts its timer.
func (m *Manager) Create(mode Mode) (*Session, error) {
	m.mu.Lock()
	if len(m.sessions) >= m.opts.MaxSessions {
		m.reapLocked(time.Now(), true)
	}
	if len(m.sessions) >= m.opts.MaxSessions {
		m.mu.Unlock()
		return nil, ErrTooManySessions
	}
	s := newSession(mode, m.opts.Board, m.opts.Step, m.opts.Recorder)
	m.sessions[s.id] = s
	m.mu.Unlock()

	s.Start()
	log.Printf("Tron game %s started (%s)", s.id, mode)
	return s, nil
}

func (m *Manager) Get(id string) (*Session, error) {
	key, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrSessionNotFound
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[key]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (m *Manager) Remove(id string) error {
	key, err := uuid.Parse(id)
	if err != nil {
		return ErrSessionNotFound
	}
	m.mu.Lock()
	s, ok := m.sessions[key]
	delete(m.sessions, key)
	m.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	s.Stop()
	return nil
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Reap drops sessions idle for longer than IdleTTL and returns how many were
// removed. Running games are kept; a game with no input ends on its own.
func (m *Manager) Reap(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reapLocked(now, false)
}

// reapLocked with force set also drops finished sessions that are not yet idle.
func (m *Manager) reapLocked(now time.Time, force bool) int {
	removed := 0
	for key, s := range m.sessions {
		touched, running := s.idleSince()
		if running {
			continue
		}
		if force || now.Sub(touched) > m.opts.IdleTTL {
			delete(m.sessions, key)
			s.Stop()
			removed++
		}
	}
	return removed
}

// Run reaps idle sessions until ctx is cancelled.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := m.Reap(now); n > 0 {
				log.Printf("Reaped %d idle tron sessions", n)
			}
		}
	}
}

// Shutdown stops every session.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, s := range m.sessions {
		s.Stop()
		delete(m.sessions, key)
	}
}

// EncodeFrame serialises a frame as MessagePack.
func EncodeFrame(f Frame) ([]byte, error) {
	return msgpack.Marshal(f)
}

func DecodeFrame(b []byte) (Frame, error) {
	var f Frame
	err := msgpack.Unmarshal(b, &f)
	return f, err
}
