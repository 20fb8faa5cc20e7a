// Package observer implements time-travel replay over a single
// recorded game (spec §4.6): OBSERVER lists recorded games, GAME
// loads one, TURN seeks forward or backward, MAP reads without
// clearing events. It drives a GameActor constructed in observer mode
// through the same command messages a live session would send, so the
// state machine is the identical code path (SPEC_FULL.md C7).
package observer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kipod/server/internal/actor"
	"github.com/kipod/server/internal/config"
	"github.com/kipod/server/internal/engine"
	"github.com/kipod/server/internal/mapgen"
	"github.com/kipod/server/internal/mapmodel"
	"github.com/kipod/server/internal/replay"
)

const askTimeout = 5 * time.Second

// Session is one observer connection's state: the loaded game's
// recorded actions and the GameActor currently replaying them.
type Session struct {
	eng *actor.Engine
	cfg config.Config
	gen mapgen.Generator
	log replay.Log

	gameID      int64
	mapName     string
	actions     []replay.ActionRecord
	currentTurn int
	maxTurn     int

	pid            *actor.PID
	playerIdxByName map[string]string // replay login name -> seated player uuid
}

// New constructs an observer session bound to a replay log.
func New(eng *actor.Engine, cfg config.Config, gen mapgen.Generator, log replay.Log) *Session {
	return &Session{eng: eng, cfg: cfg, gen: gen, log: log}
}

// ListGames is the OBSERVER action: lists every recorded game. Returns
// an empty list, not an error, when replay recording is disabled.
func (s *Session) ListGames(ctx context.Context) ([]replay.GameSummary, error) {
	if s.log == nil {
		return nil, nil
	}
	return s.log.GetAllGames(ctx)
}

// loginAction/moveAction/upgradeAction mirror the JSON payload shapes
// recorded by a live session, so replay can decode them generically.
type loginAction struct {
	Name        string `json:"name"`
	SecurityKey string `json:"security_key"`
}

type moveAction struct {
	Name     string `json:"name"`
	TrainIdx int    `json:"train_idx"`
	Speed    int    `json:"speed"`
	LineIdx  int    `json:"line_idx"`
}

type upgradeAction struct {
	Name     string `json:"name"`
	PostIDs  []int  `json:"post"`
	TrainIDs []int  `json:"train"`
}

// Load is the GAME{idx} action: fetches the recorded action list and
// rebuilds a fresh observer-mode GameActor by replaying LOGIN actions
// only, per §4.6.
func (s *Session) Load(ctx context.Context, gameID int64) error {
	if s.log == nil {
		return fmt.Errorf("%w: replay recording is disabled", engine.ErrResourceNotFound)
	}
	games, err := s.log.GetAllGames(ctx)
	if err != nil {
		return err
	}
	var mapName string
	found := false
	for _, g := range games {
		if g.ID == gameID {
			mapName = g.MapName
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("%w: no such recorded game", engine.ErrResourceNotFound)
	}

	actions, err := s.log.GetAllActions(ctx, gameID)
	if err != nil {
		return err
	}

	s.gameID = gameID
	s.mapName = mapName
	s.actions = actions
	s.maxTurn = countTurns(actions)
	return s.resetAndReplay(0)
}

func countTurns(actions []replay.ActionRecord) int {
	n := 0
	for _, a := range actions {
		if a.Code == replay.ActionTurn {
			n++
		}
	}
	return n
}

// resetAndReplay discards the current observer actor (if any) and
// rebuilds it from scratch, replaying up to targetTurn TURN actions.
func (s *Session) resetAndReplay(targetTurn int) error {
	if s.pid != nil {
		s.eng.Stop(s.pid)
		s.pid = nil
	}

	topo, err := s.gen.Generate(1, 1, 1, 1)
	if err != nil {
		return err
	}
	if s.mapName != "" {
		if loaded, ferr := mapgen.LoadFixture(s.mapName); ferr == nil {
			topo = loaded
		}
	}
	m := mapmodel.NewMap(topo)

	s.pid = engine.Spawn(s.eng, engine.Options{
		Name:       fmt.Sprintf("observed-%d", s.gameID),
		NumPlayers: 0,
		Map:        m,
		MapName:    s.mapName,
		Cfg:        s.cfg,
		Logger:     logrus.NewEntry(logrus.New()),
		Observed:   true,
	})
	s.playerIdxByName = make(map[string]string)
	s.currentTurn = 0

	return s.replayTo(targetTurn)
}

// Turn is the TURN{idx} observer action: advance or rewind to the
// given turn, clamped to [0, maxTurn] (§4.6, §8 scenario 6).
func (s *Session) Turn(target int) error {
	if target < 0 {
		target = 0
	}
	if target > s.maxTurn {
		target = s.maxTurn
	}
	if target >= s.currentTurn {
		return s.replayTo(target)
	}
	return s.resetAndReplay(target)
}

// replayTo consumes recorded actions forward until currentTurn
// reaches target, replaying LOGIN/MOVE/UPGRADE through the engine's
// normal command API and advancing one real tick per TURN action.
func (s *Session) replayTo(target int) error {
	turnsSeen := 0
	for _, rec := range s.actions {
		if turnsSeen >= target {
			break
		}
		// Records up to and including the currentTurn-th TURN are
		// already applied to the running actor.
		if turnsSeen < s.currentTurn {
			if rec.Code == replay.ActionTurn {
				turnsSeen++
			}
			continue
		}
		switch rec.Code {
		case replay.ActionLogin:
			var a loginAction
			if err := json.Unmarshal([]byte(rec.Message), &a); err != nil {
				continue
			}
			res, err := s.eng.Ask(s.pid, engine.LoginCmd{Name: a.Name, SecurityKey: a.SecurityKey}, askTimeout)
			if err == nil {
				if lr, ok := res.(engine.LoginResult); ok && lr.Player != nil {
					s.playerIdxByName[a.Name] = lr.Player.Idx
				}
			}
		case replay.ActionMove:
			var a moveAction
			if err := json.Unmarshal([]byte(rec.Message), &a); err == nil {
				if playerID, ok := s.playerIdxByName[a.Name]; ok {
					s.eng.Ask(s.pid, engine.MoveCmd{PlayerID: playerID, TrainIdx: a.TrainIdx, Speed: a.Speed, LineIdx: a.LineIdx}, askTimeout)
				}
			}
		case replay.ActionUpgrade:
			var a upgradeAction
			if err := json.Unmarshal([]byte(rec.Message), &a); err == nil {
				if playerID, ok := s.playerIdxByName[a.Name]; ok {
					s.eng.Ask(s.pid, engine.UpgradeCmd{PlayerID: playerID, PostIDs: a.PostIDs, TrainIDs: a.TrainIDs}, askTimeout)
				}
			}
		case replay.ActionTurn:
			s.eng.Ask(s.pid, engine.AdvanceTickCmd{}, askTimeout)
			turnsSeen++
		}
	}
	s.currentTurn = turnsSeen
	return nil
}

// Map is the MAP{layer} observer action: reads without clearing
// events (empty player id, per mapmodel.Map.BuildLayer1's observer
// path).
func (s *Session) Map(layer int) (engine.MapResult, error) {
	res, err := s.eng.Ask(s.pid, engine.MapCmd{Layer: layer}, askTimeout)
	if err != nil {
		return engine.MapResult{}, err
	}
	return res.(engine.MapResult), nil
}

// CurrentTurn/MaxTurn expose the observer's cursor for the session
// layer's responses.
func (s *Session) CurrentTurn() int { return s.currentTurn }
func (s *Session) MaxTurn() int     { return s.maxTurn }
