// Package replay implements the append-only action log (spec §4.3):
// add_game/add_action/get_all_games/get_all_actions, backed by
// modernc.org/sqlite, a pure-Go sqlite driver well suited to this kind
// of append-only event store.
package replay

import (
	"context"
	"time"
)

// ActionCode mirrors the subset of wire.Action the replay log
// records: LOGIN, MOVE, UPGRADE, TURN, EVENT.
type ActionCode uint32

const (
	ActionLogin   ActionCode = 1
	ActionMove    ActionCode = 3
	ActionUpgrade ActionCode = 4
	ActionTurn    ActionCode = 5
	ActionEvent   ActionCode = 102
)

// GameSummary is one row of get_all_games.
type GameSummary struct {
	ID         int64
	Name       string
	Date       time.Time
	MapName    string
	Length     int // count of TURN actions
	NumPlayers int
}

// ActionRecord is one row of get_all_actions, in insertion order.
type ActionRecord struct {
	Code    ActionCode
	Message string // raw JSON payload
	Date    time.Time
}

// Log is the replay store contract. Writes may be buffered internally;
// Finish persists them and must be called before a game is reported
// FINISHED, per §5.
type Log interface {
	AddGame(ctx context.Context, name, mapName string, date time.Time, numPlayers int) (int64, error)
	AddAction(ctx context.Context, gameID int64, code ActionCode, message string, date time.Time) error
	GetAllGames(ctx context.Context) ([]GameSummary, error)
	GetAllActions(ctx context.Context, gameID int64) ([]ActionRecord, error)
	// Finish flushes any buffered writes for gameID and marks it done
	// flushing; subsequent reads of that game are guaranteed to see
	// every action recorded before this call returns.
	Finish(ctx context.Context, gameID int64) error
	Close() error
}
