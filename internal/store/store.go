// Package store keeps visitor metrics and finished Tron games in SQLite.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jeremyjr/portfolio/internal/arcade"
	"github.com/jeremyjr/portfolio/internal/tron"
)

// Privacy-conscious visitor record; the IP is hashed before it gets here.
type VisitorMetric struct {
	ID        int       `json:"id"`
	HashedIP  string    `json:"hashed_ip"`
	UserAgent string    `json:"user_agent"`
	Path      string    `json:"path"`
	Timestamp time.Time `json:"timestamp"`
	Country   string    `json:"country,omitempty"`
}

type GameResult struct {
	ID            int       `json:"id"`
	SessionID     string    `json:"session_id"`
	Mode          string    `json:"mode"`
	Outcome       string    `json:"outcome"`
	Ticks         int       `json:"ticks"`
	Player1Length int       `json:"player1_length"`
	Player2Length int       `json:"player2_length"`
	FinishedAt    time.Time `json:"finished_at"`
}

type AdminStats struct {
	TotalVisitors    int64           `json:"total_visitors"`
	UniqueVisitors   int64           `json:"unique_visitors"`
	VisitorsToday    int64           `json:"visitors_today"`
	VisitorsThisWeek int64           `json:"visitors_this_week"`
	GamesPlayed      int64           `json:"games_played"`
	Player1Wins      int64           `json:"player1_wins"`
	Player2Wins      int64           `json:"player2_wins"`
	Ties             int64           `json:"ties"`
	LongestGame      int64           `json:"longest_game_ticks"`
	RecentResults    []GameResult    `json:"recent_results"`
	RecentVisitors   []VisitorMetric `json:"recent_visitors"`
}

type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
// Use ":memory:" for a throwaway database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serialises
	// writers the way SQLite wants them.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS visitors (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			hashed_ip TEXT NOT NULL,
			user_agent TEXT,
			path TEXT,
			timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
			country TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS visitors_timestamp ON visitors (timestamp)`,
		`CREATE TABLE IF NOT EXISTS tron_results (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			mode TEXT NOT NULL,
			outcome TEXT NOT NULL,
			ticks INTEGER NOT NULL,
			p1_length INTEGER NOT NULL,
			p2_length INTEGER NOT NULL,
			finished_at DATETIME NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	log.Println("Database schema ready")
	return nil
}

func (s *Store) RecordVisit(ctx context.Context, hashedIP, userAgent, path string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO visitors (hashed_ip, user_agent, path, timestamp)
		VALUES (?, ?, ?, ?)
	`, hashedIP, userAgent, path, at.UTC())
	return err
}

// RecordResult stores a finished game.
func (s *Store) RecordResult(ctx context.Context, r arcade.Result) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tron_results (session_id, mode, outcome, ticks, p1_length, p2_length, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, r.SessionID, string(r.Mode), r.Outcome.String(), r.Ticks, r.Player1Length, r.Player2Length, r.FinishedAt.UTC())
	return err
}

// CleanupVisitors deletes visitor rows older than the cutoff.
func (s *Store) CleanupVisitors(ctx context.Context, olderThan time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM visitors WHERE timestamp < ?`, olderThan.UTC())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (s *Store) RecentVisitors(ctx context.Context, limit int) ([]VisitorMetric, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, hashed_ip, COALESCE(user_agent, ''), COALESCE(path, ''), timestamp
		FROM visitors
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var visitors []VisitorMetric
	for rows.Next() {
		var v VisitorMetric
		if err := rows.Scan(&v.ID, &v.HashedIP, &v.UserAgent, &v.Path, &v.Timestamp); err != nil {
			return nil, err
		}
		visitors = append(visitors, v)
	}
	return visitors, rows.Err()
}

func (s *Store) RecentResults(ctx context.Context, limit int) ([]GameResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, mode, outcome, ticks, p1_length, p2_length, finished_at
		FROM tron_results
		ORDER BY finished_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []GameResult
	for rows.Next() {
		var r GameResult
		err := rows.Scan(&r.ID, &r.SessionID, &r.Mode, &r.Outcome, &r.Ticks, &r.Player1Length, &r.Player2Length, &r.FinishedAt)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// Stats gathers the admin dashboard numbers as of now.
func (s *Store) Stats(ctx context.Context, now time.Time) (*AdminStats, error) {
	stats := &AdminStats{}
	now = now.UTC()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	counts := []struct {
		dst   *int64
		query string
		args  []any
	}{
		{&stats.TotalVisitors, `SELECT COUNT(*) FROM visitors`, nil},
		{&stats.UniqueVisitors, `SELECT COUNT(DISTINCT hashed_ip) FROM visitors`, nil},
		{&stats.VisitorsToday, `SELECT COUNT(*) FROM visitors WHERE timestamp >= ?`, []any{startOfDay}},
		{&stats.VisitorsThisWeek, `SELECT COUNT(*) FROM visitors WHERE timestamp >= ?`, []any{now.AddDate(0, 0, -7)}},
		{&stats.GamesPlayed, `SELECT COUNT(*) FROM tron_results`, nil},
		{&stats.Player1Wins, `SELECT COUNT(*) FROM tron_results WHERE outcome = ?`, []any{tron.Player1Wins.String()}},
		{&stats.Player2Wins, `SELECT COUNT(*) FROM tron_results WHERE outcome = ?`, []any{tron.Player2Wins.String()}},
		{&stats.Ties, `SELECT COUNT(*) FROM tron_results WHERE outcome = ?`, []any{tron.Tie.String()}},
		{&stats.LongestGame, `SELECT COALESCE(MAX(ticks), 0) FROM tron_results`, nil},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query, c.args...).Scan(c.dst); err != nil {
			return nil, fmt.Errorf("stats: %w", err)
		}
	}

	var err error
	if stats.RecentResults, err = s.RecentResults(ctx, 10); err != nil {
		return nil, err
	}
	if stats.RecentVisitors, err = s.RecentVisitors(ctx, 50); err != nil {
		return nil, err
	}
	return stats, nil
}
