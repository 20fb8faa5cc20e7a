package engine

import (
	"encoding/json"

	"github.com/kipod/server/internal/mapmodel"
	"github.com/kipod/server/internal/replay"
)

// handleMove implements the MOVE state machine, §4.4.5, exactly in
// the order given: validation, immediate accept (stop/reverse/resume
// on the current line), re-anchor-while-stopped, defer-while-moving.
func (a *GameActor) handleMove(cmd MoveCmd) error {
	t, ok := a.m.Train(cmd.TrainIdx)
	if !ok {
		return ErrResourceNotFound
	}
	if t.PlayerID != cmd.PlayerID {
		return ErrAccessDenied
	}
	line, ok := a.m.Line(cmd.LineIdx)
	if !ok {
		return ErrResourceNotFound
	}
	if t.Cooldown > 0 {
		return ErrBadCommand
	}

	// Rule 2: same line, or stopping.
	if cmd.Speed == 0 || cmd.LineIdx == t.LineIdx {
		t.Speed = cmd.Speed
		delete(a.nextTrainMoves, t.Idx)
		a.recordMove(cmd)
		return nil
	}

	currentLine, ok := a.m.Line(t.LineIdx)
	if !ok {
		return ErrResourceNotFound
	}

	if t.Speed == 0 {
		// Rule 3: stopped, switching lines — must be exactly at an
		// endpoint, and the new line must touch that same point.
		pointIdx, at := t.AtEndpoint(currentLine)
		if !at {
			return ErrBadCommand
		}
		if !line.Touches(pointIdx) {
			return ErrBadCommand
		}
		t.LineIdx = cmd.LineIdx
		if line.P1 == pointIdx {
			t.Position = line.Length
		} else {
			t.Position = 0
		}
		t.Speed = cmd.Speed
		delete(a.nextTrainMoves, t.Idx)
		a.recordMove(cmd)
		return nil
	}

	// Rule 4: moving, switching lines — defer until the train reaches
	// its forward endpoint, if that endpoint is compatible.
	forward := forwardEndpoint(currentLine, t)
	if !line.Touches(forward) {
		return ErrBadCommand
	}
	a.nextTrainMoves[t.Idx] = queuedMove{speed: cmd.Speed, lineIdx: cmd.LineIdx}
	a.recordMove(cmd)
	return nil
}

// recordMove appends a MOVE action to the replay log, keyed by the
// player's login name rather than its session-scoped uuid so observer
// replay can re-resolve ownership against its own freshly-seated
// players instead of a stale recorded uuid (§4.3, §4.6).
func (a *GameActor) recordMove(cmd MoveCmd) {
	name := a.playerName(cmd.PlayerID)
	if name == "" {
		return
	}
	raw, err := json.Marshal(struct {
		Name     string `json:"name"`
		TrainIdx int    `json:"train_idx"`
		Speed    int    `json:"speed"`
		LineIdx  int    `json:"line_idx"`
	}{Name: name, TrainIdx: cmd.TrainIdx, Speed: cmd.Speed, LineIdx: cmd.LineIdx})
	if err != nil {
		return
	}
	a.recordAction(replay.ActionMove, string(raw))
}

// forwardEndpoint returns the point id the train is heading toward
// given its current line and speed sign.
func forwardEndpoint(line mapmodel.Line, t *mapmodel.Train) int {
	if t.Speed > 0 {
		return line.P1
	}
	return line.P0
}
