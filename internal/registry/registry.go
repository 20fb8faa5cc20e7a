// Package registry implements the process-wide game registry (C6):
// name -> running game, constructed once and passed down explicitly
// (DESIGN NOTES §9: "explicit server-scoped state passed into
// constructors" instead of the source's module-level Game.GAMES).
package registry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kipod/server/internal/actor"
	"github.com/kipod/server/internal/config"
	"github.com/kipod/server/internal/engine"
	"github.com/kipod/server/internal/mapgen"
	"github.com/kipod/server/internal/mapmodel"
	"github.com/kipod/server/internal/replay"
)

// entry is one running game tracked by the registry.
type entry struct {
	pid        *actor.PID
	numPlayers int
	mapName    string
	gameID     int64
}

// Registry owns every running (non-observer) game in the process.
type Registry struct {
	eng       *actor.Engine
	gen       mapgen.Generator
	replayLog replay.Log
	cfg       config.Config
	log       *logrus.Logger

	mu     sync.Mutex
	byName map[string]*entry
}

// New constructs a Registry. gen is the map-seed generator used for
// any newly created game; replayLog may be nil to disable recording.
func New(eng *actor.Engine, gen mapgen.Generator, replayLog replay.Log, cfg config.Config, log *logrus.Logger) *Registry {
	return &Registry{
		eng:       eng,
		gen:       gen,
		replayLog: replayLog,
		cfg:       cfg,
		log:       log,
		byName:    make(map[string]*entry),
	}
}

// GetOrCreate returns the existing game named name, or constructs one
// for numPlayers. Returns an error if the name exists with a
// different num_players (§4.7's "num_players mismatch" rule).
func (r *Registry) GetOrCreate(ctx context.Context, name string, numPlayers int) (*actor.PID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.byName[name]; ok {
		if e.numPlayers != numPlayers {
			return nil, fmt.Errorf("%w: game %q has num_players=%d", engine.ErrBadCommand, name, e.numPlayers)
		}
		return e.pid, nil
	}

	topo, err := r.gen.Generate(time.Now().UnixNano(), numPlayers, numPlayers*2, numPlayers*2)
	if err != nil {
		return nil, fmt.Errorf("registry: generate map: %w", err)
	}
	m := mapmodel.NewMap(topo)

	var gameID int64
	if r.replayLog != nil {
		gameID, err = r.replayLog.AddGame(ctx, name, topo.Name, time.Now(), numPlayers)
		if err != nil {
			return nil, fmt.Errorf("registry: record game: %w", err)
		}
	}

	pid := engine.Spawn(r.eng, engine.Options{
		Name:         name,
		NumPlayers:   numPlayers,
		Map:          m,
		MapName:      topo.Name,
		Cfg:          r.cfg,
		Logger:       logrus.NewEntry(r.log),
		ReplayLog:    r.replayLog,
		ReplayGameID: gameID,
	})

	r.byName[name] = &entry{pid: pid, numPlayers: numPlayers, mapName: topo.Name, gameID: gameID}
	return pid, nil
}

// Lookup returns the PID for an already-running game, if any.
func (r *Registry) Lookup(name string) (*actor.PID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	return e.pid, true
}

// Stop removes and stops one named game.
func (r *Registry) Stop(name string) {
	r.mu.Lock()
	e, ok := r.byName[name]
	if ok {
		delete(r.byName, name)
	}
	r.mu.Unlock()
	if ok {
		r.eng.Stop(e.pid)
	}
}

// StopAll stops every running game, called on server shutdown (§4.8).
func (r *Registry) StopAll() {
	r.mu.Lock()
	pids := make([]*actor.PID, 0, len(r.byName))
	for _, e := range r.byName {
		pids = append(pids, e.pid)
	}
	r.byName = make(map[string]*entry)
	r.mu.Unlock()

	for _, pid := range pids {
		r.eng.Stop(pid)
	}
}
