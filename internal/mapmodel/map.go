package mapmodel

import "fmt"

// Topology is the static, seed-generated part of a map: points, lines,
// the posts fixed on them, and render coordinates. It never changes
// once a game starts; Map wraps it with the live per-game state.
type Topology struct {
	Name        string
	Points      []Point
	Lines       []Line
	Posts       []Post
	Coordinates map[int][2]int // point idx -> (x, y), render hint layer
}

// Map is the live, per-game view of a Topology: static lookups plus
// the trains running on it right now, split from the static Topology
// the same way a fixed layout is separated from its live occupants.
type Map struct {
	Name string

	points map[int]Point
	lines  map[int]Line
	posts  map[int]*Post
	coords map[int][2]int

	towns    []int // post idx, filtered view
	markets  []int
	storages []int

	trains map[int]*Train

	// eventCursors[playerID][entityKey] is how many of that entity's
	// events this player has already been shown via BuildLayer1.
	eventCursors map[string]map[string]int
}

// NewMap builds a live Map from a generated Topology. Posts are
// deep-copied so each game gets its own mutable state even if two
// games share one Topology instance.
func NewMap(topo *Topology) *Map {
	m := &Map{
		Name:   topo.Name,
		points: make(map[int]Point, len(topo.Points)),
		lines:  make(map[int]Line, len(topo.Lines)),
		posts:  make(map[int]*Post, len(topo.Posts)),
		coords: topo.Coordinates,
		trains: make(map[int]*Train),
	}
	for _, p := range topo.Points {
		m.points[p.Idx] = p
	}
	for _, l := range topo.Lines {
		m.lines[l.Idx] = l
	}
	for _, p := range topo.Posts {
		post := p
		m.posts[post.Idx] = &post
		switch post.Type {
		case PostTown:
			m.towns = append(m.towns, post.Idx)
		case PostMarket:
			m.markets = append(m.markets, post.Idx)
		case PostStorage:
			m.storages = append(m.storages, post.Idx)
		}
	}
	return m
}

func (m *Map) Point(idx int) (Point, bool) {
	p, ok := m.points[idx]
	return p, ok
}

func (m *Map) Line(idx int) (Line, bool) {
	l, ok := m.lines[idx]
	return l, ok
}

func (m *Map) Post(idx int) (*Post, bool) {
	p, ok := m.posts[idx]
	return p, ok
}

// PostAtPoint returns the post sitting on point idx, if any.
func (m *Map) PostAtPoint(pointIdx int) (*Post, bool) {
	point, ok := m.points[pointIdx]
	if !ok || point.PostID == nil {
		return nil, false
	}
	return m.Post(*point.PostID)
}

func (m *Map) Coordinate(idx int) ([2]int, bool) {
	c, ok := m.coords[idx]
	return c, ok
}

// Towns, Markets, Storages return the pre-computed filtered views.
func (m *Map) Towns() []*Post    { return m.filterPosts(m.towns) }
func (m *Map) Markets() []*Post  { return m.filterPosts(m.markets) }
func (m *Map) Storages() []*Post { return m.filterPosts(m.storages) }

func (m *Map) filterPosts(idxs []int) []*Post {
	out := make([]*Post, 0, len(idxs))
	for _, idx := range idxs {
		if p, ok := m.posts[idx]; ok {
			out = append(out, p)
		}
	}
	return out
}

// Train returns the live train state for idx.
func (m *Map) Train(idx int) (*Train, bool) {
	t, ok := m.trains[idx]
	return t, ok
}

// Trains returns every live train, in no particular order.
func (m *Map) Trains() []*Train {
	out := make([]*Train, 0, len(m.trains))
	for _, t := range m.trains {
		out = append(out, t)
	}
	return out
}

// AddTrain registers a newly spawned train.
func (m *Map) AddTrain(t *Train) {
	m.trains[t.Idx] = t
}

// RemoveTrain deletes a train. Nothing in the engine calls it: trains
// persist across ticks and across a player's logout.
func (m *Map) RemoveTrain(idx int) {
	delete(m.trains, idx)
}

// NumPoints/NumLines report topology size; the engine uses NumLines
// when scanning for the lines that touch a point.
func (m *Map) NumPoints() int { return len(m.points) }
func (m *Map) NumLines() int  { return len(m.lines) }

func (m *Map) String() string {
	return fmt.Sprintf("Map(%s, %d points, %d lines, %d posts, %d trains)",
		m.Name, len(m.points), len(m.lines), len(m.posts), len(m.trains))
}
