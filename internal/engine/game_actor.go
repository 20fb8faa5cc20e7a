package engine

import (
	"context"
	"fmt"
	"math/rand"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/kipod/server/internal/actor"
	"github.com/kipod/server/internal/config"
	"github.com/kipod/server/internal/mapmodel"
	"github.com/kipod/server/internal/replay"
)

// Options configures one GameActor instance.
type Options struct {
	Name       string
	NumPlayers int
	Map        *mapmodel.Map
	MapName    string
	Cfg        config.Config
	Logger     *logrus.Entry

	// ReplayLog/ReplayGameID are nil/0 for an observer-mode game: no
	// writes happen, per §4.6 "no tick thread, no replay writes".
	ReplayLog    replay.Log
	ReplayGameID int64

	Observed bool
}

// bgCtx is used for replay calls made from inside the actor's own
// goroutine, which never carries a request-scoped context of its own.
var bgCtx = context.Background()

type queuedMove struct {
	speed   int
	lineIdx int
}

type turnWaiter struct {
	requestID string
	playerID  string
}

// GameActor is the per-game actor: it owns the map, the players, the
// tick loop, and the turn barrier. One actor is spawned per running
// game: a ticker goroutine posts tick messages into its own mailbox,
// a single Receive switch handles every command, and panics are
// recovered with a logged stack trace rather than crashing the
// process.
type GameActor struct {
	opts Options

	m          *mapmodel.Map
	players    map[string]*mapmodel.Player // by Player.Idx (uuid)
	byName     map[string]*mapmodel.Player // by Name, for security_key binding
	nextTrain  int
	currentTick int
	state      State

	eventCooldowns  map[mapmodel.EventType]int
	nextTrainMoves  map[int]queuedMove
	arrivedThisTick []int
	rng             *rand.Rand

	engine  *actor.Engine
	selfPID *actor.PID

	ticker       *time.Ticker
	stopTickerCh chan struct{}

	turnWaiters []turnWaiter

	log *logrus.Entry
}

// NewProducer returns an actor.Producer that builds one GameActor.
func NewProducer(eng *actor.Engine, opts Options) actor.Producer {
	return func() actor.Actor {
		log := opts.Logger
		if log == nil {
			log = logrus.NewEntry(logrus.New())
		}
		return &GameActor{
			opts:           opts,
			m:              opts.Map,
			players:        make(map[string]*mapmodel.Player),
			byName:         make(map[string]*mapmodel.Player),
			state:          StateWaiting,
			eventCooldowns: make(map[mapmodel.EventType]int),
			nextTrainMoves: make(map[int]queuedMove),
			rng:            rand.New(rand.NewSource(time.Now().UnixNano())),
			engine:         eng,
			stopTickerCh:   make(chan struct{}),
			log:            log.WithField("game", opts.Name),
		}
	}
}

// Spawn starts the actor and, for non-observed games, its ticker.
func Spawn(eng *actor.Engine, opts Options) *actor.PID {
	return eng.Spawn(actor.NewProps(NewProducer(eng, opts)))
}

func (a *GameActor) Receive(ctx actor.Context) {
	defer func() {
		if r := recover(); r != nil {
			a.log.Errorf("PANIC recovered: %v\n%s", r, string(debug.Stack()))
		}
	}()

	if a.selfPID == nil {
		a.selfPID = ctx.Self()
	}

	switch msg := ctx.Message().(type) {
	case actor.Started:
		if !a.opts.Observed {
			a.ticker = time.NewTicker(a.opts.Cfg.TickPeriod)
			go a.runTicker()
		}

	case actor.Stopping:
		if a.ticker != nil {
			a.ticker.Stop()
			select {
			case <-a.stopTickerCh:
			default:
				close(a.stopTickerCh)
			}
		}
		a.flushReplay()

	case actor.Stopped:
		// no-op; actor.Engine removes us from its table.

	case tickMsg:
		a.runTick()

	case LoginCmd:
		ctx.Reply(a.handleLogin(msg))

	case LogoutCmd:
		a.handleLogout(msg)

	case MapCmd:
		ctx.Reply(a.handleMap(msg))

	case MoveCmd:
		ctx.Reply(a.handleMove(msg))

	case UpgradeCmd:
		ctx.Reply(a.handleUpgrade(msg))

	case TurnCmd:
		a.handleTurn(ctx, msg)

	case AdvanceTickCmd:
		a.runTick()
		ctx.Reply(struct{}{})

	case SnapshotCmd:
		ctx.Reply(SnapshotResult{CurrentTick: a.currentTick, State: a.state, AnyPlayerInGame: a.AnyPlayerInGame()})

	default:
		a.log.Warnf("unhandled message type %T", msg)
	}
}

func (a *GameActor) runTicker() {
	for {
		select {
		case <-a.stopTickerCh:
			return
		case <-a.ticker.C:
			a.engine.Send(a.selfPID, tickMsg{}, nil)
		}
	}
}

func (a *GameActor) handleLogin(cmd LoginCmd) LoginResult {
	if existing, ok := a.byName[cmd.Name]; ok {
		if existing.SecurityKey != "" && existing.SecurityKey != cmd.SecurityKey {
			return LoginResult{Err: ErrAccessDenied}
		}
		existing.InGame = true
		return LoginResult{Player: existing}
	}

	if !a.opts.Observed && len(a.players) >= a.opts.NumPlayers {
		return LoginResult{Err: ErrAccessDenied}
	}

	player := &mapmodel.Player{
		Idx:         uuid.NewString(),
		Name:        cmd.Name,
		SecurityKey: cmd.SecurityKey,
		InGame:      true,
	}
	if err := a.seatPlayer(player); err != nil {
		return LoginResult{Err: err}
	}

	a.players[player.Idx] = player
	a.byName[player.Name] = player
	a.recordAction(replay.ActionLogin, fmt.Sprintf(`{"name":%q}`, cmd.Name))

	if len(a.players) == a.opts.NumPlayers {
		a.state = StateRun
	}
	return LoginResult{Player: player}
}

// seatPlayer gives a freshly logged-in player a home town and a
// starting train, per §3's implicit "a player owns a town and at
// least one train" invariant.
func (a *GameActor) seatPlayer(player *mapmodel.Player) error {
	var home *mapmodel.Post
	for _, t := range a.m.Towns() {
		if t.PlayerID == "" {
			home = t
			break
		}
	}
	if home == nil {
		return fmt.Errorf("%w: no unclaimed town available", ErrAccessDenied)
	}
	home.PlayerID = player.Idx
	player.HomePoint = home.PointIdx
	player.TownIdx = home.Idx

	train := &mapmodel.Train{
		Idx:      a.nextTrain,
		LineIdx:  -1,
		Position: 0,
		PlayerID: player.Idx,
		Level:    1,
	}
	a.nextTrain++
	if stats, ok := mapmodel.TrainLevel(1); ok {
		train.GoodsCapacity = stats.GoodsCapacity
		train.FuelCapacity = stats.FuelCapacity
		train.NextLevelPrice = stats.NextLevelPrice
	}
	train.Fuel = train.FuelCapacity
	// Anchor the train at its home town's point via the first line
	// touching that point, stopped (speed 0).
	for _, l := range a.linesAt(home.PointIdx) {
		train.LineIdx = l.Idx
		if l.P1 == home.PointIdx {
			train.Position = l.Length
		}
		break
	}
	a.m.AddTrain(train)
	player.TrainIdxs = append(player.TrainIdxs, train.Idx)
	return nil
}

func (a *GameActor) linesAt(pointIdx int) []mapmodel.Line {
	var out []mapmodel.Line
	for i := 0; i < a.m.NumLines(); i++ {
		if l, ok := a.m.Line(i); ok && l.Touches(pointIdx) {
			out = append(out, l)
		}
	}
	return out
}

func (a *GameActor) handleLogout(cmd LogoutCmd) {
	if p, ok := a.players[cmd.PlayerID]; ok {
		p.InGame = false
	}
}

// playerName resolves a seated player's uuid to its login name, used
// when recording actions so replay stays keyed by name rather than a
// session-scoped uuid (§4.3).
func (a *GameActor) playerName(playerID string) string {
	if p, ok := a.players[playerID]; ok {
		return p.Name
	}
	return ""
}

// AnyPlayerInGame reports whether at least one logged-in player is
// still connected, used by the session layer to decide whether to
// stop an emptied game.
func (a *GameActor) AnyPlayerInGame() bool {
	for _, p := range a.players {
		if p.InGame {
			return true
		}
	}
	return false
}

func (a *GameActor) handleMap(cmd MapCmd) MapResult {
	switch cmd.Layer {
	case 0:
		l := a.m.BuildLayer0()
		return MapResult{Layer0: &l}
	case 1:
		l := a.m.BuildLayer1(a.currentTick, cmd.PlayerID)
		return MapResult{Layer1: &l}
	case 10:
		l := a.m.BuildLayer10()
		return MapResult{Layer10: &l}
	default:
		return MapResult{Err: ErrResourceNotFound}
	}
}

func (a *GameActor) handleTurn(ctx actor.Context, cmd TurnCmd) {
	if a.state != StateRun {
		ctx.Reply(TurnResult{NotReady: true})
		return
	}
	player, ok := a.players[cmd.PlayerID]
	if !ok {
		ctx.Reply(TurnResult{NotReady: true})
		return
	}
	player.TurnDone = true
	a.turnWaiters = append(a.turnWaiters, turnWaiter{requestID: ctx.RequestID(), playerID: cmd.PlayerID})

	if a.allPlayersReady() {
		a.runTick()
	}
}

func (a *GameActor) allPlayersReady() bool {
	if len(a.players) == 0 {
		return false
	}
	for _, p := range a.players {
		if p.InGame && !p.TurnDone {
			return false
		}
	}
	return true
}

func (a *GameActor) flushReplay() {
	if a.opts.ReplayLog == nil {
		return
	}
	if err := a.opts.ReplayLog.Finish(bgCtx, a.opts.ReplayGameID); err != nil {
		a.log.WithError(err).Error("replay flush failed")
	}
}

func (a *GameActor) recordAction(code replay.ActionCode, message string) {
	if a.opts.ReplayLog == nil {
		return
	}
	if err := a.opts.ReplayLog.AddAction(bgCtx, a.opts.ReplayGameID, code, message, time.Now()); err != nil {
		a.log.WithError(err).Warn("replay record failed")
	}
}
