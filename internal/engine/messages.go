// Package engine implements the game engine (spec §4.4): the tick
// loop, movement state machine, collisions, upgrades, random events,
// and the turn barrier, all modeled as a single GameActor per running
// game (DESIGN NOTES §9's "model the game as an actor").
package engine

import "github.com/kipod/server/internal/mapmodel"

// tickMsg is sent by the dedicated ticker goroutine to advance the game
// by one tick. A forced early tick from the turn barrier calls runTick
// directly instead of posting this message.
type tickMsg struct{}

// LoginCmd claims or verifies a player and seats them in the game.
type LoginCmd struct {
	Name        string
	SecurityKey string
}

// LoginResult is LoginCmd's reply.
type LoginResult struct {
	Player *mapmodel.Player
	Err    error
}

// LogoutCmd marks a player no longer in the game.
type LogoutCmd struct {
	PlayerID string
}

// MapCmd requests one serialized layer.
type MapCmd struct {
	PlayerID string // "" for an observer: no event-clearing, per §4.6
	Layer    int
}

// MapResult is MapCmd's reply.
type MapResult struct {
	Layer0  *mapmodel.Layer0
	Layer1  *mapmodel.Layer1
	Layer10 *mapmodel.Layer10
	Err     error
}

// MoveCmd requests a train's direction/line be changed, per §4.4.5.
type MoveCmd struct {
	PlayerID string
	TrainIdx int
	Speed    int
	LineIdx  int
}

// UpgradeCmd requests posts and/or trains be leveled up, per §4.4.6.
type UpgradeCmd struct {
	PlayerID string
	PostIDs  []int
	TrainIDs []int
}

// TurnCmd is a player's end-of-turn signal (§4.4.2).
type TurnCmd struct {
	PlayerID string
}

// TurnResult is TurnCmd's reply once the barrier-triggered (or
// timed-out) tick resolves it.
type TurnResult struct {
	NotReady bool
}

// AdvanceTickCmd forces exactly one tick to run synchronously,
// independent of the ticker or the turn barrier. Used by the observer
// (§4.6) to drive TURN replay actions.
type AdvanceTickCmd struct{}

// SnapshotCmd returns a deep-enough read of engine state for replay
// bookkeeping (current tick, whether the game is over).
type SnapshotCmd struct{}

// SnapshotResult is SnapshotCmd's reply.
type SnapshotResult struct {
	CurrentTick     int
	State           State
	AnyPlayerInGame bool
}
