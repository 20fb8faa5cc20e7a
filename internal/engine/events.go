package engine

import "github.com/kipod/server/internal/mapmodel"

// rollRandomEvents implements §4.4.7: for each event kind whose
// cooldown is 0, roll 1..100 against its configured probability; on a
// hit, draw a power/number and mutate every town.
func (a *GameActor) rollRandomEvents() {
	a.rollEvent(mapmodel.EventRefugeesArrival, a.opts.Cfg.RefugeesProbability,
		a.opts.Cfg.RefugeesMin, a.opts.Cfg.RefugeesMax, a.opts.Cfg.RefugeesCoefficient, a.applyRefugees)
	a.rollEvent(mapmodel.EventHijackersAssault, a.opts.Cfg.HijackersProbability,
		a.opts.Cfg.HijackersMin, a.opts.Cfg.HijackersMax, a.opts.Cfg.HijackersCoefficient, a.applyHijackers)
	a.rollEvent(mapmodel.EventParasitesAssault, a.opts.Cfg.ParasitesProbability,
		a.opts.Cfg.ParasitesMin, a.opts.Cfg.ParasitesMax, a.opts.Cfg.ParasitesCoefficient, a.applyParasites)
}

func (a *GameActor) rollEvent(kind mapmodel.EventType, probability, min, max, coefficient int, apply func(power int)) {
	if a.eventCooldowns[kind] > 0 {
		return
	}
	if a.rng.Intn(100)+1 > probability {
		return
	}
	spread := max - min + 1
	power := min
	if spread > 1 {
		power += a.rng.Intn(spread)
	}
	apply(power)
	a.eventCooldowns[kind] = coefficient * power
}

func (a *GameActor) applyRefugees(power int) {
	for _, town := range a.m.Towns() {
		before := town.Population
		town.Population += power
		overflowed := town.Population > town.PopulationCapacity
		if overflowed {
			town.Population = town.PopulationCapacity
		}
		if town.Population != before {
			a.appendEvent(town, mapmodel.Event{Type: mapmodel.EventRefugeesArrival, Tick: a.currentTick, RefugeesNumber: intPtr(power)})
		}
		if overflowed {
			a.appendEvent(town, mapmodel.Event{Type: mapmodel.EventResourceOverflow, Tick: a.currentTick})
		}
	}
}

func (a *GameActor) applyHijackers(power int) {
	for _, town := range a.m.Towns() {
		town.Population -= power
		if town.Population < 0 {
			town.Population = 0
		}
		town.Armor -= power
		if town.Armor < 0 {
			town.Armor = 0
		}
		a.appendEvent(town, mapmodel.Event{Type: mapmodel.EventHijackersAssault, Tick: a.currentTick, HijackersPower: intPtr(power)})
	}
}

func (a *GameActor) applyParasites(power int) {
	for _, town := range a.m.Towns() {
		town.Product -= power
		if town.Product < 0 {
			town.Product = 0
		}
		a.appendEvent(town, mapmodel.Event{Type: mapmodel.EventParasitesAssault, Tick: a.currentTick, ParasitesPower: intPtr(power)})
	}
}

func intPtr(n int) *int { return &n }
