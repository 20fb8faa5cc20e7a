// Package mapmodel holds the CORE data model: the static graph
// (Point/Line), the posts that sit on it (Town/Market/Storage), the
// live entities that move across it (Train), the players that own
// them, and the event log each entity carries since it was last
// observed. Each type is a plain struct with small behavior methods;
// ids are resolved through the owning Map at use-site rather than
// embedding pointers between entities.
package mapmodel

// Point is a stable vertex of the transport graph.
type Point struct {
	Idx    int  `json:"idx"`
	PostID *int `json:"post_id,omitempty"`
}

// Line is an undirected edge of integer length between two points.
// Positions along a line are integers in [0, Length].
type Line struct {
	Idx    int `json:"idx"`
	Length int `json:"length"`
	P0     int `json:"p0"`
	P1     int `json:"p1"`
}

// OtherEnd returns the endpoint of the line that is not p, or (-1,
// false) if p is not one of its endpoints.
func (l Line) OtherEnd(p int) (int, bool) {
	switch p {
	case l.P0:
		return l.P1, true
	case l.P1:
		return l.P0, true
	default:
		return -1, false
	}
}

// Touches reports whether point p is one of this line's endpoints.
func (l Line) Touches(p int) bool {
	return l.P0 == p || l.P1 == p
}

// EndpointAt returns the point id at position 0 or Length along the
// line; pos must be 0 or l.Length.
func (l Line) EndpointAt(pos int) int {
	if pos == 0 {
		return l.P0
	}
	return l.P1
}

// PostType distinguishes the three kinds of fixture a Point can host.
type PostType int

const (
	PostNone PostType = iota
	PostTown
	PostMarket
	PostStorage
)

func (t PostType) String() string {
	switch t {
	case PostTown:
		return "TOWN"
	case PostMarket:
		return "MARKET"
	case PostStorage:
		return "STORAGE"
	default:
		return "NONE"
	}
}

// Post is the sum type over Town/Market/Storage, placed at exactly
// one Point (PointIdx).
type Post struct {
	Idx      int      `json:"idx"`
	Type     PostType `json:"type"`
	PointIdx int      `json:"point_idx"`
	Events   []Event  `json:"event"`

	// Town fields
	Population         int    `json:"population,omitempty"`
	PopulationCapacity int    `json:"population_capacity,omitempty"`
	Product            int    `json:"product,omitempty"`
	ProductCapacity    int    `json:"product_capacity,omitempty"`
	Armor              int    `json:"armor,omitempty"`
	ArmorCapacity      int    `json:"armor_capacity,omitempty"`
	Level              int    `json:"level,omitempty"`
	PlayerID           string `json:"player_id,omitempty"`
	TrainCooldown      int    `json:"train_cooldown,omitempty"`
	NextLevelPrice     int    `json:"next_level_price,omitempty"`

	// Market/Storage fields (Product/ProductCapacity reused for
	// Market; Armor/ArmorCapacity reused for Storage)
	Replenishment int `json:"replenishment,omitempty"`
}

// IsTown, IsMarket, IsStorage are small readability helpers used
// throughout the engine's collision and arrival handling.
func (p *Post) IsTown() bool    { return p.Type == PostTown }
func (p *Post) IsMarket() bool  { return p.Type == PostMarket }
func (p *Post) IsStorage() bool { return p.Type == PostStorage }

// HasNextLevel reports whether this post (a Town; Market/Storage never
// level up) has a defined next level.
func (p *Post) HasNextLevel() bool {
	return p.IsTown() && LevelExists(LevelKindTown, p.Level+1)
}

// Train is a live, per-game entity moving along the graph.
type Train struct {
	Idx            int      `json:"idx"`
	LineIdx        int      `json:"line_idx"`
	Position       int      `json:"position"`
	Speed          int      `json:"speed"` // -1, 0, +1
	PlayerID       string   `json:"player_id"`
	Level          int      `json:"level"`
	Goods          int      `json:"goods"`
	GoodsCapacity  int      `json:"goods_capacity"`
	PostType       PostType `json:"post_type"`
	Cooldown       int      `json:"cooldown"`
	Fuel           int      `json:"fuel"`
	FuelCapacity   int      `json:"fuel_capacity"`
	NextLevelPrice int      `json:"next_level_price"`
	Events         []Event  `json:"event"`
}

// IsEmpty reports whether the train is carrying no goods, in which
// case PostType must be PostNone (spec invariant).
func (t *Train) IsEmpty() bool { return t.Goods == 0 }

// AtEndpoint reports whether the train currently sits exactly at one
// of its line's two endpoints (position 0 or Length), returning which
// point id that is.
func (t *Train) AtEndpoint(line Line) (pointIdx int, at bool) {
	switch t.Position {
	case 0:
		return line.P0, true
	case line.Length:
		return line.P1, true
	default:
		return -1, false
	}
}

// Player is a connected (or previously connected) participant.
type Player struct {
	Idx         string `json:"idx"` // uuid
	Name        string `json:"name"`
	SecurityKey string `json:"-"`
	HomePoint   int    `json:"home"`
	TownIdx     int    `json:"town"`
	TrainIdxs   []int  `json:"train"`
	InGame      bool   `json:"-"`
	TurnDone    bool   `json:"-"`
}

// EventType enumerates the kinds of events a Post or Train can carry.
type EventType int

const (
	EventTrainCollision EventType = iota
	EventHijackersAssault
	EventParasitesAssault
	EventRefugeesArrival
	EventResourceOverflow
	EventResourceLack
	EventGameOver
)

func (e EventType) String() string {
	switch e {
	case EventTrainCollision:
		return "TRAIN_COLLISION"
	case EventHijackersAssault:
		return "HIJACKERS_ASSAULT"
	case EventParasitesAssault:
		return "PARASITES_ASSAULT"
	case EventRefugeesArrival:
		return "REFUGEES_ARRIVAL"
	case EventResourceOverflow:
		return "RESOURCE_OVERFLOW"
	case EventResourceLack:
		return "RESOURCE_LACK"
	case EventGameOver:
		return "GAME_OVER"
	default:
		return "UNKNOWN"
	}
}

// Event is an immutable record appended to an entity's event list.
type Event struct {
	Type             EventType `json:"type"`
	Tick             int       `json:"tick"`
	OtherTrainIdx    *int      `json:"train,omitempty"`
	HijackersPower   *int      `json:"hijackers_power,omitempty"`
	ParasitesPower   *int      `json:"parasites_power,omitempty"`
	RefugeesNumber   *int      `json:"refugees_number,omitempty"`
	ResourceQuantity *int      `json:"resource_quantity,omitempty"`
}
