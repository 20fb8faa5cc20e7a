package mapgen

import (
	"embed"
	"encoding/json"
	"fmt"

	"github.com/kipod/server/internal/mapmodel"
)

//go:embed fixtures/*.json
var fixtureFS embed.FS

// fixtureTopology mirrors mapmodel.Topology's shape for JSON decoding;
// Topology itself stays free of struct tags tying it to one encoding.
type fixtureTopology struct {
	Name        string            `json:"name"`
	Points      []mapmodel.Point  `json:"points"`
	Lines       []mapmodel.Line   `json:"lines"`
	Posts       []mapmodel.Post   `json:"posts"`
	Coordinates map[string][2]int `json:"coordinates"`
}

// LoadFixture reads a named built-in map (e.g. "map02") from the
// embedded fixtures directory, used in place of a database-backed map
// provider (a CORE repo still needs a few ready-made maps to run).
func LoadFixture(name string) (*mapmodel.Topology, error) {
	raw, err := fixtureFS.ReadFile("fixtures/" + name + ".json")
	if err != nil {
		return nil, fmt.Errorf("mapgen: unknown fixture map %q: %w", name, err)
	}
	var ft fixtureTopology
	if err := json.Unmarshal(raw, &ft); err != nil {
		return nil, fmt.Errorf("mapgen: decode fixture %q: %w", name, err)
	}

	coords := make(map[int][2]int, len(ft.Coordinates))
	for k, v := range ft.Coordinates {
		var idx int
		if _, err := fmt.Sscanf(k, "%d", &idx); err != nil {
			return nil, fmt.Errorf("mapgen: fixture %q: bad coordinate key %q: %w", name, k, err)
		}
		coords[idx] = v
	}

	return &mapmodel.Topology{
		Name:        ft.Name,
		Points:      ft.Points,
		Lines:       ft.Lines,
		Posts:       ft.Posts,
		Coordinates: coords,
	}, nil
}
