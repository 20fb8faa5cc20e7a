// Package session implements the per-connection command dispatcher
// (spec §4.7): one goroutine per accepted connection, decoding frames
// via internal/wire and dispatching LOGIN/LOGOUT/MAP/MOVE/UPGRADE/
// TURN/OBSERVER against the engine through the registry. Recovers from
// panics with a logged stack trace and maps every engine.Ask timeout
// or sentinel error to a specific wire.Result.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"runtime/debug"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kipod/server/internal/actor"
	"github.com/kipod/server/internal/config"
	"github.com/kipod/server/internal/engine"
	"github.com/kipod/server/internal/mapmodel"
	"github.com/kipod/server/internal/observer"
	"github.com/kipod/server/internal/registry"
	"github.com/kipod/server/internal/replay"
	"github.com/kipod/server/internal/wire"
)

// Handler serves exactly one connection for its entire lifetime.
type Handler struct {
	conn   net.Conn
	reg    *registry.Registry
	genCtx context.Context
	replay replay.Log
	cfg    config.Config
	eng    *actor.Engine
	log    *logrus.Entry

	player     *mapmodel.Player
	playerName string
	gameName   string
	gamePID    *actor.PID
	isObserver bool
	obs        *observer.Session
}

// NewHandlerFunc returns a func(net.Conn) suitable for handing one
// accepted connection to, closing over shared server-scoped state —
// the same "explicit server-scoped state passed into constructors"
// shape as Registry (DESIGN NOTES §9).
func NewHandlerFunc(eng *actor.Engine, reg *registry.Registry, replayLog replay.Log, cfg config.Config, log *logrus.Logger, obsFactory func() *observer.Session) func(net.Conn) {
	return func(conn net.Conn) {
		h := &Handler{
			conn:   conn,
			reg:    reg,
			genCtx: context.Background(),
			replay: replayLog,
			cfg:    cfg,
			eng:    eng,
			log:    log.WithField("remote", conn.RemoteAddr().String()),
		}
		h.obs = obsFactory()
		h.run()
	}
}

func (h *Handler) run() {
	defer func() {
		if r := recover(); r != nil {
			h.log.Errorf("PANIC recovered: %v\n%s", r, string(debug.Stack()))
		}
		h.onDisconnect()
		h.conn.Close()
	}()

	for {
		req, err := wire.ReadRequest(h.conn)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			h.log.WithError(err).Warn("frame read failed")
			return
		}
		result, payload := h.dispatch(req)
		if err := wire.WriteResponse(h.conn, result, payload); err != nil {
			h.log.WithError(err).Warn("response write failed")
			return
		}
		if req.Action == wire.ActionLogout {
			return
		}
	}
}

// onDisconnect marks the player logged out and, if that left the game
// empty, stops it via the registry (§4.8 "stop games with no connected
// players").
func (h *Handler) onDisconnect() {
	if h.player == nil || h.gamePID == nil {
		return
	}
	h.eng.Send(h.gamePID, engine.LogoutCmd{PlayerID: h.player.Idx}, nil)

	res, err := h.eng.Ask(h.gamePID, engine.SnapshotCmd{}, time.Second)
	if err != nil {
		return
	}
	if snap, ok := res.(engine.SnapshotResult); ok && !snap.AnyPlayerInGame {
		h.reg.Stop(h.gameName)
	}
}

func (h *Handler) dispatch(req wire.Request) (wire.Result, []byte) {
	switch req.Action {
	case wire.ActionLogin:
		return h.handleLogin(req.Payload)
	case wire.ActionLogout:
		return h.handleLogout()
	case wire.ActionMap:
		return h.handleMap(req.Payload)
	case wire.ActionMove:
		return h.handleMove(req.Payload)
	case wire.ActionUpgrade:
		return h.handleUpgrade(req.Payload)
	case wire.ActionTurn:
		return h.handleTurn(req.Payload)
	case wire.ActionObserver:
		return h.handleObserver()
	case wire.ActionGame:
		return h.handleGame(req.Payload)
	default:
		return errorResponse(wire.ResultBadCommand, "unknown action")
	}
}

func errorResponse(result wire.Result, msg string) (wire.Result, []byte) {
	body, _ := json.Marshal(map[string]string{"error": msg})
	return result, body
}

func okResponse(v interface{}) (wire.Result, []byte) {
	if v == nil {
		return wire.ResultOK, []byte{}
	}
	body, err := json.Marshal(v)
	if err != nil {
		return errorResponse(wire.ResultInternalServerError, "marshal failed")
	}
	return wire.ResultOK, body
}

func resultForEngineErr(err error) wire.Result {
	switch {
	case errors.Is(err, engine.ErrBadCommand):
		return wire.ResultBadCommand
	case errors.Is(err, engine.ErrResourceNotFound):
		return wire.ResultResourceNotFound
	case errors.Is(err, engine.ErrAccessDenied):
		return wire.ResultAccessDenied
	case errors.Is(err, engine.ErrNotReady):
		return wire.ResultNotReady
	default:
		return wire.ResultInternalServerError
	}
}

func (h *Handler) requireLoggedIn() bool {
	return h.player != nil && h.gamePID != nil
}

type loginRequest struct {
	Name        string `json:"name"`
	SecurityKey string `json:"security_key"`
	Game        string `json:"game"`
	NumPlayers  int    `json:"num_players"`
}

func (h *Handler) handleLogin(payload []byte) (wire.Result, []byte) {
	var req loginRequest
	if err := json.Unmarshal(payload, &req); err != nil || req.Name == "" {
		return errorResponse(wire.ResultBadCommand, "invalid login payload")
	}

	gameName := req.Game
	numPlayers := req.NumPlayers
	if gameName == "" {
		gameName = fmt.Sprintf("Game of %s", req.Name)
		numPlayers = 1
	}
	if numPlayers == 0 {
		numPlayers = 1
	}

	pid, err := h.reg.GetOrCreate(h.genCtx, gameName, numPlayers)
	if err != nil {
		return errorResponse(resultForEngineErr(err), err.Error())
	}

	res, err := h.eng.Ask(pid, engine.LoginCmd{Name: req.Name, SecurityKey: req.SecurityKey}, h.cfg.TurnTimeout())
	if err != nil {
		return errorResponse(wire.ResultTimeout, "login timed out")
	}
	lr := res.(engine.LoginResult)
	if lr.Err != nil {
		return errorResponse(resultForEngineErr(lr.Err), lr.Err.Error())
	}

	h.player = lr.Player
	h.playerName = req.Name
	h.gameName = gameName
	h.gamePID = pid
	return okResponse(lr.Player)
}

func (h *Handler) handleLogout() (wire.Result, []byte) {
	h.onDisconnect()
	h.player = nil
	h.gamePID = nil
	return wire.ResultOK, []byte{}
}

type mapRequest struct {
	Layer int `json:"layer"`
}

func (h *Handler) handleMap(payload []byte) (wire.Result, []byte) {
	if !h.requireLoggedIn() && !h.isObserver {
		return errorResponse(wire.ResultAccessDenied, "login required")
	}
	var req mapRequest
	json.Unmarshal(payload, &req)

	if h.isObserver {
		res, err := h.obs.Map(req.Layer)
		if err != nil {
			return errorResponse(wire.ResultInternalServerError, err.Error())
		}
		return okResponse(mapPayload(res))
	}

	playerID := ""
	if h.player != nil {
		playerID = h.player.Idx
	}
	res, err := h.eng.Ask(h.gamePID, engine.MapCmd{PlayerID: playerID, Layer: req.Layer}, h.cfg.TurnTimeout())
	if err != nil {
		return errorResponse(wire.ResultTimeout, "map request timed out")
	}
	mr := res.(engine.MapResult)
	if mr.Err != nil {
		return errorResponse(resultForEngineErr(mr.Err), mr.Err.Error())
	}
	return okResponse(mapPayload(mr))
}

func mapPayload(mr engine.MapResult) interface{} {
	switch {
	case mr.Layer0 != nil:
		return mr.Layer0
	case mr.Layer1 != nil:
		return mr.Layer1
	case mr.Layer10 != nil:
		return mr.Layer10
	default:
		return struct{}{}
	}
}

type moveRequest struct {
	TrainIdx int `json:"train_idx"`
	Speed    int `json:"speed"`
	LineIdx  int `json:"line_idx"`
}

func (h *Handler) handleMove(payload []byte) (wire.Result, []byte) {
	if !h.requireLoggedIn() {
		return errorResponse(wire.ResultAccessDenied, "login required")
	}
	var req moveRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return errorResponse(wire.ResultBadCommand, "invalid move payload")
	}
	res, err := h.eng.Ask(h.gamePID, engine.MoveCmd{
		PlayerID: h.player.Idx, TrainIdx: req.TrainIdx, Speed: req.Speed, LineIdx: req.LineIdx,
	}, h.cfg.TurnTimeout())
	if err != nil {
		return errorResponse(wire.ResultTimeout, "move timed out")
	}
	if res != nil {
		if moveErr, ok := res.(error); ok {
			return errorResponse(resultForEngineErr(moveErr), moveErr.Error())
		}
	}
	return wire.ResultOK, []byte{}
}

type upgradeRequest struct {
	Post  []int `json:"post"`
	Train []int `json:"train"`
}

func (h *Handler) handleUpgrade(payload []byte) (wire.Result, []byte) {
	if !h.requireLoggedIn() {
		return errorResponse(wire.ResultAccessDenied, "login required")
	}
	var req upgradeRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return errorResponse(wire.ResultBadCommand, "invalid upgrade payload")
	}
	res, err := h.eng.Ask(h.gamePID, engine.UpgradeCmd{
		PlayerID: h.player.Idx, PostIDs: req.Post, TrainIDs: req.Train,
	}, h.cfg.TurnTimeout())
	if err != nil {
		return errorResponse(wire.ResultTimeout, "upgrade timed out")
	}
	if res != nil {
		if upErr, ok := res.(error); ok {
			return errorResponse(resultForEngineErr(upErr), upErr.Error())
		}
	}
	return wire.ResultOK, []byte{}
}

type observerTurnRequest struct {
	Idx int `json:"idx"`
}

func (h *Handler) handleTurn(payload []byte) (wire.Result, []byte) {
	if h.isObserver {
		var req observerTurnRequest
		json.Unmarshal(payload, &req)
		if err := h.obs.Turn(req.Idx); err != nil {
			return errorResponse(wire.ResultInternalServerError, err.Error())
		}
		return okResponse(map[string]int{"current_turn": h.obs.CurrentTurn(), "max_turn": h.obs.MaxTurn()})
	}
	if !h.requireLoggedIn() {
		return errorResponse(wire.ResultAccessDenied, "login required")
	}
	res, err := h.eng.Ask(h.gamePID, engine.TurnCmd{PlayerID: h.player.Idx}, h.cfg.TurnTimeout())
	if err != nil {
		return errorResponse(wire.ResultTimeout, "turn barrier timed out")
	}
	tr := res.(engine.TurnResult)
	if tr.NotReady {
		return errorResponse(wire.ResultNotReady, "game not running")
	}
	return wire.ResultOK, []byte{}
}

func (h *Handler) handleObserver() (wire.Result, []byte) {
	h.isObserver = true
	h.player = nil
	h.gamePID = nil
	games, err := h.obs.ListGames(h.genCtx)
	if err != nil {
		return errorResponse(wire.ResultInternalServerError, err.Error())
	}
	return okResponse(games)
}

type gameRequest struct {
	Idx int64 `json:"idx"`
}

func (h *Handler) handleGame(payload []byte) (wire.Result, []byte) {
	if !h.isObserver {
		return errorResponse(wire.ResultAccessDenied, "observer mode required")
	}
	var req gameRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return errorResponse(wire.ResultBadCommand, "invalid game payload")
	}
	if err := h.obs.Load(h.genCtx, req.Idx); err != nil {
		return errorResponse(resultForEngineErr(err), err.Error())
	}
	return wire.ResultOK, []byte{}
}
