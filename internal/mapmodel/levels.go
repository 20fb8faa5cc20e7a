package mapmodel

// LevelKind distinguishes which entity's level table to consult.
type LevelKind int

const (
	LevelKindTown LevelKind = iota
	LevelKindTrain
)

// TownLevelStats holds the per-level attributes a Town copies onto
// itself on level-up (DESIGN NOTES §9: "a sealed level-config map
// keyed by level and a levelUp method that copies explicit fields").
type TownLevelStats struct {
	PopulationCapacity int
	ProductCapacity    int
	ArmorCapacity      int
	TrainCooldown      int
	NextLevelPrice     int // cost to reach the *next* level; 0 at max level
}

// TrainLevelStats holds the per-level attributes a Train copies onto
// itself on level-up.
type TrainLevelStats struct {
	GoodsCapacity  int
	FuelCapacity   int
	NextLevelPrice int
}

var townLevels = map[int]TownLevelStats{
	1: {PopulationCapacity: 100, ProductCapacity: 100, ArmorCapacity: 50, TrainCooldown: 3, NextLevelPrice: 20},
	2: {PopulationCapacity: 200, ProductCapacity: 200, ArmorCapacity: 100, TrainCooldown: 2, NextLevelPrice: 50},
	3: {PopulationCapacity: 400, ProductCapacity: 400, ArmorCapacity: 200, TrainCooldown: 1, NextLevelPrice: 0},
}

var trainLevels = map[int]TrainLevelStats{
	1: {GoodsCapacity: 10, FuelCapacity: 50, NextLevelPrice: 10},
	2: {GoodsCapacity: 20, FuelCapacity: 80, NextLevelPrice: 30},
	3: {GoodsCapacity: 40, FuelCapacity: 120, NextLevelPrice: 0},
}

// LevelExists reports whether level is a defined level for kind.
func LevelExists(kind LevelKind, level int) bool {
	switch kind {
	case LevelKindTown:
		_, ok := townLevels[level]
		return ok
	case LevelKindTrain:
		_, ok := trainLevels[level]
		return ok
	default:
		return false
	}
}

// TownLevel returns the stats for a given town level; ok is false for
// an undefined level.
func TownLevel(level int) (TownLevelStats, bool) {
	stats, ok := townLevels[level]
	return stats, ok
}

// TrainLevel returns the stats for a given train level; ok is false
// for an undefined level.
func TrainLevel(level int) (TrainLevelStats, bool) {
	stats, ok := trainLevels[level]
	return stats, ok
}

// ApplyLevel copies a town's new-level attributes onto it (capacities
// clamp current values down if needed is intentionally NOT done here:
// per spec invariants population/product/armor never exceed capacity,
// and level-ups only ever raise capacity).
func (p *Post) ApplyLevel(level int) bool {
	stats, ok := TownLevel(level)
	if !ok {
		return false
	}
	p.Level = level
	p.PopulationCapacity = stats.PopulationCapacity
	p.ProductCapacity = stats.ProductCapacity
	p.ArmorCapacity = stats.ArmorCapacity
	p.TrainCooldown = stats.TrainCooldown
	p.NextLevelPrice = stats.NextLevelPrice
	return true
}

// ApplyLevel copies a train's new-level attributes onto it.
func (t *Train) ApplyLevel(level int) bool {
	stats, ok := TrainLevel(level)
	if !ok {
		return false
	}
	t.Level = level
	t.GoodsCapacity = stats.GoodsCapacity
	t.FuelCapacity = stats.FuelCapacity
	t.NextLevelPrice = stats.NextLevelPrice
	return true
}
