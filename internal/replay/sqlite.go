package replay

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteLog is the concrete Log backing store: two tables, games and
// actions, with in-memory buffering per game. Buffers are written to
// sqlite only when Flush or Finish is called; there is no background
// or timed flush.
type SQLiteLog struct {
	db *sql.DB

	mu      sync.Mutex
	buffers map[int64][]bufferedAction
}

type bufferedAction struct {
	code    ActionCode
	message string
	date    time.Time
}

// OpenSQLite opens (creating if needed) the replay database at uri
// (e.g. "file:replay.db" or "file::memory:?cache=shared") and ensures
// its schema exists.
func OpenSQLite(uri string) (*SQLiteLog, error) {
	db, err := sql.Open("sqlite", uri)
	if err != nil {
		return nil, fmt.Errorf("replay: open: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteLog{db: db, buffers: make(map[int64][]bufferedAction)}, nil
}

func migrate(db *sql.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS games (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	map_name TEXT NOT NULL,
	date DATETIME NOT NULL,
	num_players INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS actions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	game_id INTEGER NOT NULL REFERENCES games(id),
	code INTEGER NOT NULL,
	message TEXT NOT NULL,
	date DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_actions_game ON actions(game_id);
`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("replay: migrate: %w", err)
	}
	return nil
}

func (s *SQLiteLog) AddGame(ctx context.Context, name, mapName string, date time.Time, numPlayers int) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO games (name, map_name, date, num_players) VALUES (?, ?, ?, ?)`,
		name, mapName, date, numPlayers)
	if err != nil {
		return 0, fmt.Errorf("replay: add game: %w", err)
	}
	return res.LastInsertId()
}

// AddAction buffers the action in memory; it lands in sqlite on the
// next Flush or Finish. Ordering within a game is preserved by
// appending under the same mutex that Flush drains from.
func (s *SQLiteLog) AddAction(_ context.Context, gameID int64, code ActionCode, message string, date time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buffers[gameID] = append(s.buffers[gameID], bufferedAction{code: code, message: message, date: date})
	return nil
}

// Flush writes every buffered action for gameID to sqlite.
func (s *SQLiteLog) Flush(ctx context.Context, gameID int64) error {
	s.mu.Lock()
	pending := s.buffers[gameID]
	delete(s.buffers, gameID)
	s.mu.Unlock()

	if len(pending) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("replay: flush begin: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO actions (game_id, code, message, date) VALUES (?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("replay: flush prepare: %w", err)
	}
	defer stmt.Close()

	for _, a := range pending {
		if _, err := stmt.ExecContext(ctx, gameID, a.code, a.message, a.date); err != nil {
			tx.Rollback()
			return fmt.Errorf("replay: flush insert: %w", err)
		}
	}
	return tx.Commit()
}

// Finish flushes gameID's buffer; callers transition the game to
// FINISHED only after this returns, per §5's ordering requirement.
func (s *SQLiteLog) Finish(ctx context.Context, gameID int64) error {
	return s.Flush(ctx, gameID)
}

func (s *SQLiteLog) GetAllGames(ctx context.Context) ([]GameSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT g.id, g.name, g.date, g.map_name, g.num_players,
       (SELECT COUNT(*) FROM actions a WHERE a.game_id = g.id AND a.code = ?)
FROM games g ORDER BY g.id`, ActionTurn)
	if err != nil {
		return nil, fmt.Errorf("replay: get all games: %w", err)
	}
	defer rows.Close()

	var out []GameSummary
	for rows.Next() {
		var g GameSummary
		if err := rows.Scan(&g.ID, &g.Name, &g.Date, &g.MapName, &g.NumPlayers, &g.Length); err != nil {
			return nil, fmt.Errorf("replay: scan game: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *SQLiteLog) GetAllActions(ctx context.Context, gameID int64) ([]ActionRecord, error) {
	// Buffered-but-not-yet-flushed actions must still be visible to a
	// reader (e.g. the observer loading an in-progress game).
	s.mu.Lock()
	pending := append([]bufferedAction(nil), s.buffers[gameID]...)
	s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT code, message, date FROM actions WHERE game_id = ? ORDER BY id`, gameID)
	if err != nil {
		return nil, fmt.Errorf("replay: get all actions: %w", err)
	}
	defer rows.Close()

	var out []ActionRecord
	for rows.Next() {
		var a ActionRecord
		if err := rows.Scan(&a.Code, &a.Message, &a.Date); err != nil {
			return nil, fmt.Errorf("replay: scan action: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, a := range pending {
		out = append(out, ActionRecord{Code: a.code, Message: a.message, Date: a.date})
	}
	return out, nil
}

func (s *SQLiteLog) Close() error {
	return s.db.Close()
}
