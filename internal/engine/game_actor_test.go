package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kipod/server/internal/actor"
	"github.com/kipod/server/internal/config"
	"github.com/kipod/server/internal/mapmodel"
)

func twoTownMap() *mapmodel.Map {
	topo := &mapmodel.Topology{
		Name: "test",
		Points: []mapmodel.Point{
			{Idx: 0}, {Idx: 1}, {Idx: 2},
		},
		Lines: []mapmodel.Line{
			{Idx: 0, Length: 5, P0: 0, P1: 1},
			{Idx: 1, Length: 5, P0: 1, P1: 2},
		},
		Posts: []mapmodel.Post{
			{Idx: 0, Type: mapmodel.PostTown, PointIdx: 0, PopulationCapacity: 100, ProductCapacity: 100, ArmorCapacity: 100, Population: 50, Product: 50, Armor: 50, Level: 1, TrainCooldown: 3},
			{Idx: 1, Type: mapmodel.PostMarket, PointIdx: 1, Product: 20, ProductCapacity: 40, Replenishment: 1},
			{Idx: 2, Type: mapmodel.PostTown, PointIdx: 2, PopulationCapacity: 100, ProductCapacity: 100, ArmorCapacity: 100, Population: 50, Product: 50, Armor: 50, Level: 1, TrainCooldown: 3},
		},
		Coordinates: map[int][2]int{0: {0, 0}, 1: {64, 0}, 2: {128, 0}},
	}
	return mapmodel.NewMap(topo)
}

func newTestGame(t *testing.T, numPlayers int) (*actor.Engine, *actor.PID) {
	t.Helper()
	eng := actor.NewEngine()
	cfg := config.Default()
	cfg.TickPeriod = 50 * time.Millisecond
	cfg.TurnTimeoutExtra = 200 * time.Millisecond

	pid := Spawn(eng, Options{
		Name:       "test-game",
		NumPlayers: numPlayers,
		Map:        twoTownMap(),
		Cfg:        cfg,
	})
	return eng, pid
}

func login(t *testing.T, eng *actor.Engine, pid *actor.PID, name string) *mapmodel.Player {
	t.Helper()
	res, err := eng.Ask(pid, LoginCmd{Name: name}, time.Second)
	require.NoError(t, err)
	lr := res.(LoginResult)
	require.NoError(t, lr.Err)
	return lr.Player
}

func TestLoginSeatsPlayerWithHomeTownAndTrain(t *testing.T) {
	eng, pid := newTestGame(t, 1)
	defer eng.Shutdown(time.Second)

	p := login(t, eng, pid, "ada")
	assert.NotEmpty(t, p.Idx)
	assert.Len(t, p.TrainIdxs, 1)
}

func TestMoveOnOwnedTrainSucceeds(t *testing.T) {
	eng, pid := newTestGame(t, 1)
	defer eng.Shutdown(time.Second)

	p := login(t, eng, pid, "ada")
	trainIdx := p.TrainIdxs[0]

	res, err := eng.Ask(pid, MoveCmd{PlayerID: p.Idx, TrainIdx: trainIdx, Speed: 1, LineIdx: 0}, time.Second)
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestMoveOnAnotherPlayersTrainIsDenied(t *testing.T) {
	eng, pid := newTestGame(t, 2)
	defer eng.Shutdown(time.Second)

	a := login(t, eng, pid, "ada")
	b := login(t, eng, pid, "bob")

	res, err := eng.Ask(pid, MoveCmd{PlayerID: b.Idx, TrainIdx: a.TrainIdxs[0], Speed: 1, LineIdx: 0}, time.Second)
	require.NoError(t, err)
	assert.ErrorIs(t, res.(error), ErrAccessDenied)
}

func TestTurnBeforeRunIsNotReady(t *testing.T) {
	eng, pid := newTestGame(t, 2)
	defer eng.Shutdown(time.Second)

	p := login(t, eng, pid, "ada")

	res, err := eng.Ask(pid, TurnCmd{PlayerID: p.Idx}, time.Second)
	require.NoError(t, err)
	tr := res.(TurnResult)
	assert.True(t, tr.NotReady)
}

func TestTurnBarrierResolvesOnceAllPlayersReady(t *testing.T) {
	eng, pid := newTestGame(t, 2)
	defer eng.Shutdown(time.Second)

	a := login(t, eng, pid, "ada")
	b := login(t, eng, pid, "bob")

	type result struct {
		res interface{}
		err error
	}
	doneA := make(chan result, 1)
	doneB := make(chan result, 1)

	go func() {
		res, err := eng.Ask(pid, TurnCmd{PlayerID: a.Idx}, time.Second)
		doneA <- result{res, err}
	}()
	time.Sleep(10 * time.Millisecond)
	go func() {
		res, err := eng.Ask(pid, TurnCmd{PlayerID: b.Idx}, time.Second)
		doneB <- result{res, err}
	}()

	ra := <-doneA
	rb := <-doneB
	require.NoError(t, ra.err)
	require.NoError(t, rb.err)
	assert.False(t, ra.res.(TurnResult).NotReady)
	assert.False(t, rb.res.(TurnResult).NotReady)
}

func TestUpgradeAtomicFailureLeavesStateUnchanged(t *testing.T) {
	eng, pid := newTestGame(t, 1)
	defer eng.Shutdown(time.Second)

	p := login(t, eng, pid, "ada")

	// The town itself is a valid upgrade target; the unknown train makes
	// the whole request fail.
	res, err := eng.Ask(pid, UpgradeCmd{PlayerID: p.Idx, PostIDs: []int{p.TownIdx}, TrainIDs: []int{999}}, time.Second)
	require.NoError(t, err)
	assert.Error(t, res.(error))

	snap, err := eng.Ask(pid, SnapshotCmd{}, time.Second)
	require.NoError(t, err)
	assert.Equal(t, 0, snap.(SnapshotResult).CurrentTick)

	mr, err := eng.Ask(pid, MapCmd{Layer: 1}, time.Second)
	require.NoError(t, err)
	for _, post := range mr.(MapResult).Layer1.Posts {
		if post.Idx == p.TownIdx {
			assert.Equal(t, 1, post.Level)
		}
	}
}
