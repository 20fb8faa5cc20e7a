package engine

import (
	"fmt"

	"github.com/kipod/server/internal/mapmodel"
	"github.com/kipod/server/internal/replay"
)

// runTick executes exactly one tick in the fixed order from §4.4.1.
// Called either by the ticker goroutine's tickMsg, by the turn
// barrier firing early, or synchronously by the observer's
// AdvanceTickCmd — always on the actor's own goroutine, so no locking
// is needed beyond that serialization.
func (a *GameActor) runTick() {
	a.decrementCooldowns()
	a.replenishMarketsAndStorages()
	a.moveTrains()
	if a.opts.Cfg.CollisionsEnabled {
		a.resolveCollisions()
	}
	a.processArrivals()
	a.decayTownsAndCheckGameOver()
	a.rollRandomEvents()

	a.currentTick++
	a.recordAction(replay.ActionTurn, fmt.Sprintf(`{"tick":%d}`, a.currentTick))

	for _, p := range a.players {
		p.TurnDone = false
	}
	for _, w := range a.turnWaiters {
		a.engine.ResolveAsk(w.requestID, TurnResult{})
	}
	a.turnWaiters = a.turnWaiters[:0]
}

func (a *GameActor) decrementCooldowns() {
	for _, t := range a.m.Trains() {
		if t.Cooldown > 0 {
			t.Cooldown--
		}
	}
	for kind, cd := range a.eventCooldowns {
		if cd > 0 {
			a.eventCooldowns[kind] = cd - 1
		}
	}
}

func (a *GameActor) replenishMarketsAndStorages() {
	for _, p := range a.m.Markets() {
		p.Product += p.Replenishment
		if p.Product > p.ProductCapacity {
			p.Product = p.ProductCapacity
		}
	}
	for _, p := range a.m.Storages() {
		p.Armor += p.Replenishment
		if p.Armor > p.ArmorCapacity {
			p.Armor = p.ArmorCapacity
		}
	}
}

// moveTrains advances every running train by one position unit and
// records which ones just reached an endpoint, for processArrivals.
func (a *GameActor) moveTrains() {
	a.arrivedThisTick = a.arrivedThisTick[:0]

	for _, t := range a.m.Trains() {
		if t.Speed == 0 {
			continue
		}
		line, ok := a.m.Line(t.LineIdx)
		if !ok {
			continue
		}
		next := t.Position + t.Speed
		if next < 0 {
			next = 0
		}
		if next > line.Length {
			next = line.Length
		}
		t.Position = next

		if next == 0 || next == line.Length {
			a.arrivedThisTick = append(a.arrivedThisTick, t.Idx)
		}

		if a.opts.Cfg.FuelEnabled {
			t.Fuel--
			if t.Fuel < 0 {
				a.sendTrainHome(t)
			}
		}
	}
}

// sendTrainHome teleports a train to its owner's home town, per the
// fuel-exhaustion rule in §4.4.1 step 3 and the collision-resolution
// rule in §4.4.3 (shared behavior, factored out).
func (a *GameActor) sendTrainHome(t *mapmodel.Train) {
	player, ok := a.players[t.PlayerID]
	if !ok {
		return
	}
	home, ok := a.m.Post(player.TownIdx)
	if !ok {
		return
	}
	for _, l := range a.linesAt(home.PointIdx) {
		t.LineIdx = l.Idx
		if l.P1 == home.PointIdx {
			t.Position = l.Length
		} else {
			t.Position = 0
		}
		break
	}
	t.Speed = 0
	t.Goods = 0
	t.PostType = mapmodel.PostNone
	t.Cooldown = home.TrainCooldown
	t.Fuel = t.FuelCapacity
}

func (a *GameActor) decayTownsAndCheckGameOver() {
	for _, town := range a.m.Towns() {
		if town.Product < town.Population {
			town.Population--
		}
		town.Product -= town.Population
		if town.Product < 0 {
			town.Product = 0
		}
		if town.Population <= 0 {
			a.appendEvent(town, mapmodel.Event{Type: mapmodel.EventGameOver, Tick: a.currentTick})
		}
		if town.Product <= 0 || town.Armor <= 0 {
			a.appendEvent(town, mapmodel.Event{Type: mapmodel.EventResourceLack, Tick: a.currentTick})
		}
	}
}

func (a *GameActor) appendEvent(post *mapmodel.Post, ev mapmodel.Event) {
	post.Events = append(post.Events, ev)
	a.recordAction(replay.ActionEvent, fmt.Sprintf(`{"type":%q,"post":%d,"tick":%d}`, ev.Type, post.Idx, ev.Tick))
}

func (a *GameActor) appendTrainEvent(t *mapmodel.Train, ev mapmodel.Event) {
	t.Events = append(t.Events, ev)
	a.recordAction(replay.ActionEvent, fmt.Sprintf(`{"type":%q,"train":%d,"tick":%d}`, ev.Type, t.Idx, ev.Tick))
}
