package mapmodel

import "strconv"

// Layers are the three JSON views a session hands back for a MAP
// request (spec §4.5): Layer 0 is the static topology, Layer 1 is the
// live economy/train state (scoped per player for events), and Layer
// 10 is the render-hint coordinate table.

// Layer0 is the static graph: never changes for the lifetime of a game.
type Layer0 struct {
	Name   string  `json:"name"`
	Points []Point `json:"points"`
	Lines  []Line  `json:"lines"`
}

// Layer1 is the live economic/train state, plus a per-player
// scoreboard (§4 "rating{}").
type Layer1 struct {
	Tick    int      `json:"tick"`
	Posts   []*Post  `json:"posts"`
	Trains  []*Train `json:"trains"`
	Ratings []Rating `json:"ratings"`
}

// Layer10 is the render-hint coordinate table, kept separate from
// Layer0 so a client can skip it entirely for a headless/AI player.
type Layer10 struct {
	Coordinates map[int][2]int `json:"coordinates"`
}

// Rating is one player's scoreboard entry for Layer 1, derived from
// the population/product/armor of every town they own.
type Rating struct {
	PlayerID   string `json:"player_id"`
	Population int    `json:"population"`
	Product    int    `json:"product"`
	Armor      int    `json:"armor"`
	Towns      int    `json:"towns"`
}

// BuildLayer0 snapshots the static graph. Posts are intentionally
// omitted: Layer0 describes topology only, Layer1 carries post state.
func (m *Map) BuildLayer0() Layer0 {
	points := make([]Point, 0, len(m.points))
	for _, p := range m.points {
		points = append(points, p)
	}
	lines := make([]Line, 0, len(m.lines))
	for _, l := range m.lines {
		lines = append(lines, l)
	}
	return Layer0{Name: m.Name, Points: points, Lines: lines}
}

// BuildLayer10 snapshots render coordinates.
func (m *Map) BuildLayer10() Layer10 {
	coords := make(map[int][2]int, len(m.coords))
	for k, v := range m.coords {
		coords[k] = v
	}
	return Layer10{Coordinates: coords}
}

// BuildLayer1 snapshots live state for tick, scoped to forPlayer: each
// post/train's Events slice is filtered down to events that player has
// not yet been shown, and this call marks them shown. A player with no
// prior cursor (a fresh login) sees every event still pending on
// entities they can observe.
func (m *Map) BuildLayer1(tick int, forPlayer string) Layer1 {
	posts := make([]*Post, 0, len(m.posts))
	for _, p := range m.posts {
		scoped := *p
		scoped.Events = m.scopeEvents(forPlayer, eventOwnerKey("post", p.Idx), p.Events)
		posts = append(posts, &scoped)
	}
	trains := make([]*Train, 0, len(m.trains))
	for _, t := range m.trains {
		scoped := *t
		scoped.Events = m.scopeEvents(forPlayer, eventOwnerKey("train", t.Idx), t.Events)
		trains = append(trains, &scoped)
	}
	return Layer1{Tick: tick, Posts: posts, Trains: trains, Ratings: m.Ratings()}
}

// eventOwnerKey namespaces the per-player-per-entity cursor so a post
// and a train sharing the same numeric idx don't collide.
func eventOwnerKey(kind string, idx int) string {
	return kind + ":" + strconv.Itoa(idx)
}

// scopeEvents returns the suffix of events this player has not yet
// been shown for the given entity key, then advances that player's
// cursor to the end of the slice.
func (m *Map) scopeEvents(playerID, key string, events []Event) []Event {
	if playerID == "" {
		// Observer/no-player context: show the full current log without
		// advancing any cursor.
		return events
	}
	if m.eventCursors == nil {
		m.eventCursors = make(map[string]map[string]int)
	}
	cursors, ok := m.eventCursors[playerID]
	if !ok {
		cursors = make(map[string]int)
		m.eventCursors[playerID] = cursors
	}
	seen := cursors[key]
	if seen > len(events) {
		seen = len(events)
	}
	fresh := events[seen:]
	cursors[key] = len(events)
	return fresh
}

// Ratings computes the current scoreboard: one entry per player who
// owns at least one town, summed across every town they own.
func (m *Map) Ratings() []Rating {
	byPlayer := make(map[string]*Rating)
	order := make([]string, 0)
	for _, idx := range m.towns {
		post, ok := m.posts[idx]
		if !ok || post.PlayerID == "" {
			continue
		}
		r, ok := byPlayer[post.PlayerID]
		if !ok {
			r = &Rating{PlayerID: post.PlayerID}
			byPlayer[post.PlayerID] = r
			order = append(order, post.PlayerID)
		}
		r.Population += post.Population
		r.Product += post.Product
		r.Armor += post.Armor
		r.Towns++
	}
	out := make([]Rating, 0, len(order))
	for _, id := range order {
		out = append(out, *byPlayer[id])
	}
	return out
}
