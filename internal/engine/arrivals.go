package engine

import "github.com/kipod/server/internal/mapmodel"

// processArrivals runs "train-at-point"/"train-in-post" (§4.4.4) for
// every train that reached an endpoint this tick, then applies any
// queued deferred move for that train (§4.4.6's "apply the queued
// next_train_move").
func (a *GameActor) processArrivals() {
	for _, idx := range a.arrivedThisTick {
		t, ok := a.m.Train(idx)
		if !ok {
			continue
		}
		line, ok := a.m.Line(t.LineIdx)
		if !ok {
			continue
		}
		pointIdx, at := t.AtEndpoint(line)
		if !at {
			continue
		}
		if post, ok := a.m.PostAtPoint(pointIdx); ok {
			a.trainInPost(t, post)
		}
		a.applyQueuedMove(t, pointIdx)
	}
}

func (a *GameActor) trainInPost(t *mapmodel.Train, post *mapmodel.Post) {
	switch post.Type {
	case mapmodel.PostTown:
		if post.PlayerID != t.PlayerID {
			return
		}
		a.unloadTrain(t, post)
		t.Fuel = t.FuelCapacity

	case mapmodel.PostMarket:
		if t.PostType == mapmodel.PostStorage && t.Goods > 0 {
			return
		}
		room := t.GoodsCapacity - t.Goods
		if room <= 0 || post.Product <= 0 {
			return
		}
		take := room
		if take > post.Product {
			take = post.Product
		}
		t.Goods += take
		t.PostType = mapmodel.PostMarket
		post.Product -= take

	case mapmodel.PostStorage:
		if t.PostType == mapmodel.PostMarket && t.Goods > 0 {
			return
		}
		room := t.GoodsCapacity - t.Goods
		if room <= 0 || post.Armor <= 0 {
			return
		}
		take := room
		if take > post.Armor {
			take = post.Armor
		}
		t.Goods += take
		t.PostType = mapmodel.PostStorage
		post.Armor -= take
	}
}

// unloadTrain implements §4.4.4's TOWN unload: full devastation by
// default, or a partial unload capped at the town's remaining
// capacity when PartialUnload is enabled.
func (a *GameActor) unloadTrain(t *mapmodel.Train, town *mapmodel.Post) {
	if t.Goods == 0 {
		return
	}
	switch t.PostType {
	case mapmodel.PostMarket:
		room := town.ProductCapacity - town.Product
		unload := t.Goods
		if !a.opts.Cfg.PartialUnload || unload <= room {
			if unload > room {
				a.appendEvent(town, mapmodel.Event{Type: mapmodel.EventResourceOverflow, Tick: a.currentTick})
				unload = room
			}
			town.Product += unload
			t.Goods = 0
			t.PostType = mapmodel.PostNone
		} else {
			town.Product += room
			t.Goods -= room
			a.appendEvent(town, mapmodel.Event{Type: mapmodel.EventResourceOverflow, Tick: a.currentTick})
		}
	case mapmodel.PostStorage:
		room := town.ArmorCapacity - town.Armor
		unload := t.Goods
		if !a.opts.Cfg.PartialUnload || unload <= room {
			if unload > room {
				a.appendEvent(town, mapmodel.Event{Type: mapmodel.EventResourceOverflow, Tick: a.currentTick})
				unload = room
			}
			town.Armor += unload
			t.Goods = 0
			t.PostType = mapmodel.PostNone
		} else {
			town.Armor += room
			t.Goods -= room
			a.appendEvent(town, mapmodel.Event{Type: mapmodel.EventResourceOverflow, Tick: a.currentTick})
		}
	}
}

// applyQueuedMove applies a deferred MOVE queued while t was still in
// transit. A train with nothing queued stops dead at the endpoint
// instead of holding its old speed, which would otherwise keep
// re-triggering trainInPost every tick forever.
func (a *GameActor) applyQueuedMove(t *mapmodel.Train, atPoint int) {
	qm, ok := a.nextTrainMoves[t.Idx]
	if !ok {
		t.Speed = 0
		return
	}
	delete(a.nextTrainMoves, t.Idx)
	newLine, ok := a.m.Line(qm.lineIdx)
	if !ok {
		return
	}
	t.LineIdx = qm.lineIdx
	if newLine.P1 == atPoint {
		t.Position = newLine.Length
	} else {
		t.Position = 0
	}
	t.Speed = qm.speed
}
