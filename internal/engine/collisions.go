package engine

import "github.com/kipod/server/internal/mapmodel"

// resolveCollisions implements §4.4.3: two trains collide either at a
// shared non-TOWN point, or on the same line at equal/adjacent
// positions moving toward each other.
func (a *GameActor) resolveCollisions() {
	trains := a.m.Trains()
	collided := make(map[int]bool)

	for i := 0; i < len(trains); i++ {
		for j := i + 1; j < len(trains); j++ {
			t1, t2 := trains[i], trains[j]
			if collided[t1.Idx] || collided[t2.Idx] {
				continue
			}
			if a.trainsCollide(t1, t2) {
				a.collide(t1, t2)
				collided[t1.Idx] = true
				collided[t2.Idx] = true
			}
		}
	}
}

func (a *GameActor) trainsCollide(t1, t2 *mapmodel.Train) bool {
	if l1, ok := a.m.Line(t1.LineIdx); ok {
		if l2, ok := a.m.Line(t2.LineIdx); ok {
			p1, at1 := t1.AtEndpoint(l1)
			p2, at2 := t2.AtEndpoint(l2)
			if at1 && at2 && p1 == p2 {
				if post, ok := a.m.PostAtPoint(p1); !ok || !post.IsTown() {
					return true
				}
			}
		}
	}

	if t1.LineIdx == t2.LineIdx {
		if t1.Position == t2.Position {
			return true
		}
		diff := t1.Position - t2.Position
		if diff == 1 || diff == -1 {
			if t1.Speed+t2.Speed == 0 && t1.Speed != 0 {
				return true
			}
		}
	}
	return false
}

func (a *GameActor) collide(t1, t2 *mapmodel.Train) {
	other1, other2 := t1.Idx, t2.Idx
	a.appendTrainEvent(t1, mapmodel.Event{Type: mapmodel.EventTrainCollision, Tick: a.currentTick, OtherTrainIdx: &other2})
	a.appendTrainEvent(t2, mapmodel.Event{Type: mapmodel.EventTrainCollision, Tick: a.currentTick, OtherTrainIdx: &other1})
	a.sendTrainHome(t1)
	a.sendTrainHome(t2)
}
