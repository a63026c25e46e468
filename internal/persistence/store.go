// Package persistence stores game history in SQLite so a game can be
// reloaded by replaying its changes into a freshly built GameData.
package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/mitchelldurbincs/wargame/internal/game/state"
)

// ErrNoHistory is returned when a game has no stored entries.
var ErrNoHistory = errors.New("no stored history")

// Store is a SQLite-backed state.HistoryWriter for one game.
type Store struct {
	conn   *sql.DB
	gameID string
	logger zerolog.Logger
}

// StoredEntry is one persisted history row.
type StoredEntry struct {
	Index      int
	Round      int
	Step       string
	ChangeType string
	Payload    []byte
	CreatedAt  time.Time
}

// Open opens (creating if needed) the database at path and binds the store to
// gameID. Use ":memory:" for a throwaway database.
func Open(path, gameID string) (*Store, error) {
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	dsn += "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Appends arrive under the game's write lock; one connection keeps them ordered.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{
		conn:   conn,
		gameID: gameID,
		logger: log.With().Str("component", "history_store").Str("game_id", gameID).Logger(),
	}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// GameID is the game this store writes for.
func (s *Store) GameID() string { return s.gameID }

// Append implements state.HistoryWriter.
func (s *Store) Append(ctx context.Context, e state.HistoryEntry) error {
	payload, err := state.MarshalChange(e.Change)
	if err != nil {
		return fmt.Errorf("encode entry %d: %w", e.Index, err)
	}
	_, err = s.conn.ExecContext(ctx, `
		INSERT INTO change_history (game_id, idx, round, step, change_type, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, s.gameID, e.Index, e.Round, e.Step, state.ChangeTypeOf(e.Change), payload, e.At)
	if err != nil {
		return fmt.Errorf("store entry %d: %w", e.Index, err)
	}
	s.logger.Debug().
		Int("history_index", e.Index).
		Int("bytes", len(payload)).
		Msg("History entry stored")
	return nil
}

// Truncate implements state.HistoryWriter.
func (s *Store) Truncate(ctx context.Context, length int) error {
	res, err := s.conn.ExecContext(ctx, `DELETE FROM change_history WHERE game_id = ? AND idx >= ?`, s.gameID, length)
	if err != nil {
		return fmt.Errorf("truncate to %d: %w", length, err)
	}
	n, _ := res.RowsAffected()
	s.logger.Info().
		Int("length", length).
		Int64("removed", n).
		Msg("History truncated")
	return nil
}

// Entries returns the stored entries with index >= from, in order.
func (s *Store) Entries(ctx context.Context, from int) ([]StoredEntry, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT idx, round, step, change_type, payload, created_at
		FROM change_history
		WHERE game_id = ? AND idx >= ?
		ORDER BY idx ASC
	`, s.gameID, from)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []StoredEntry
	for rows.Next() {
		var e StoredEntry
		if err := rows.Scan(&e.Index, &e.Round, &e.Step, &e.ChangeType, &e.Payload, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Len is one past the highest stored index, or 0 when nothing is stored.
func (s *Store) Len(ctx context.Context) (int, error) {
	var n sql.NullInt64
	err := s.conn.QueryRowContext(ctx, `SELECT MAX(idx) + 1 FROM change_history WHERE game_id = ?`, s.gameID).Scan(&n)
	if err != nil {
		return 0, err
	}
	return int(n.Int64), nil
}

// Replay decodes every stored entry and performs it against target in
// order. It returns the number of entries applied.
func (s *Store) Replay(ctx context.Context, target *state.GameData) (int, error) {
	entries, err := s.Entries(ctx, 0)
	if err != nil {
		return 0, fmt.Errorf("load history: %w", err)
	}
	if len(entries) == 0 {
		return 0, fmt.Errorf("game %q: %w", s.gameID, ErrNoHistory)
	}

	start := time.Now()
	for i, e := range entries {
		if e.Index != i {
			return i, fmt.Errorf("entry %d stored at position %d: %w", e.Index, i, state.ErrHistoryIndex)
		}
		c, err := state.UnmarshalChange(e.Payload)
		if err != nil {
			return i, fmt.Errorf("decode entry %d: %w", e.Index, err)
		}
		if err := target.PerformChange(ctx, c); err != nil {
			return i, fmt.Errorf("replay entry %d: %w", e.Index, err)
		}
	}
	s.logger.Info().
		Int("entries", len(entries)).
		Dur("duration", time.Since(start)).
		Msg("History replayed")
	return len(entries), nil
}

// Games lists every game with stored history.
func (s *Store) Games(ctx context.Context) ([]string, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT DISTINCT game_id FROM change_history ORDER BY game_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var games []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		games = append(games, id)
	}
	return games, rows.Err()
}

// ForGame returns a store sharing this connection but bound to another game.
func (s *Store) ForGame(gameID string) *Store {
	return &Store{
		conn:   s.conn,
		gameID: gameID,
		logger: log.With().Str("component", "history_store").Str("game_id", gameID).Logger(),
	}
}
