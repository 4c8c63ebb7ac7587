// Package bench runs pathfinding algorithms over a set of maps and queries
// and summarises their running time, search effort and path quality.
package bench

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"

	"gopkg.in/yaml.v3"

	"anyangle/services/pathfinder-svc/internal/grid"
)

// Scenario is a benchmark definition, usually loaded from YAML:
//
//	name: small-rooms
//	maps:
//	  - name: wall
//	    rows: ["......", "..#...", "......"]
//	    queries:
//	      - {start: [0, 1], goal: [6, 1]}
//	  - name: random-64
//	    width: 64
//	    height: 64
//	    blocked_ratio: 0.2
//	    seed: 7
//	    random_queries: 50
type Scenario struct {
	Name string    `yaml:"name"`
	Maps []MapSpec `yaml:"maps"`
}

// MapSpec describes one map. Either Rows or Width/Height is set.
type MapSpec struct {
	Name string   `yaml:"name"`
	Rows []string `yaml:"rows,omitempty"`

	Width        int     `yaml:"width,omitempty"`
	Height       int     `yaml:"height,omitempty"`
	BlockedRatio float64 `yaml:"blocked_ratio,omitempty"`
	Seed         uint64  `yaml:"seed,omitempty"`

	Queries []QuerySpec `yaml:"queries,omitempty"`
	// RandomQueries adds this many queries between random free vertices.
	RandomQueries int `yaml:"random_queries,omitempty"`
}

// QuerySpec is a start and goal vertex given as [x, y].
type QuerySpec struct {
	Start [2]int `yaml:"start"`
	Goal  [2]int `yaml:"goal"`
}

// Case is one resolved map with its queries.
type Case struct {
	Name    string
	Grid    *grid.Grid
	Queries []Query
}

// Query is a start and goal vertex id.
type Query struct {
	Start int
	Goal  int
}

// LoadScenario reads a YAML scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes a YAML scenario. Unknown keys are rejected.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if len(s.Maps) == 0 {
		return nil, errors.New("scenario has no maps")
	}
	return &s, nil
}

// RandomScenario builds maps random maps of size x size with random queries.
func RandomScenario(maps, size int, blockedRatio float64, queries int, seed uint64) *Scenario {
	s := &Scenario{Name: fmt.Sprintf("random-%dx%d", size, size)}
	for i := range maps {
		s.Maps = append(s.Maps, MapSpec{
			Name:          fmt.Sprintf("random-%d", i),
			Width:         size,
			Height:        size,
			BlockedRatio:  blockedRatio,
			Seed:          seed + uint64(i),
			RandomQueries: queries,
		})
	}
	return s
}

// Cases resolves every map and query. Random queries draw from a generator
// seeded by the map seed, so a scenario always yields the same cases.
func (s *Scenario) Cases() ([]Case, error) {
	cases := make([]Case, 0, len(s.Maps))
	for i, spec := range s.Maps {
		name := spec.Name
		if name == "" {
			name = fmt.Sprintf("map-%d", i)
		}
		c, err := spec.resolve(name)
		if err != nil {
			return nil, fmt.Errorf("map %s: %w", name, err)
		}
		cases = append(cases, c)
	}
	return cases, nil
}

func (spec MapSpec) resolve(name string) (Case, error) {
	var g *grid.Grid
	switch {
	case len(spec.Rows) > 0:
		parsed, err := grid.Parse(spec.Rows)
		if err != nil {
			return Case{}, err
		}
		g = parsed
	case spec.Width > 0 && spec.Height > 0:
		if spec.BlockedRatio < 0 || spec.BlockedRatio >= 1 {
			return Case{}, fmt.Errorf("blocked_ratio %v outside [0, 1)", spec.BlockedRatio)
		}
		g = grid.Generate(spec.Width, spec.Height, spec.BlockedRatio, spec.Seed)
	default:
		return Case{}, errors.New("either rows or width and height are required")
	}

	c := Case{Name: name, Grid: g}
	for _, q := range spec.Queries {
		if !g.IsValidCoordinate(q.Start[0], q.Start[1]) || !g.IsValidCoordinate(q.Goal[0], q.Goal[1]) {
			return Case{}, fmt.Errorf("query %v -> %v outside the %dx%d grid", q.Start, q.Goal, g.SizeX, g.SizeY)
		}
		c.Queries = append(c.Queries, Query{
			Start: g.ToIndex(q.Start[0], q.Start[1]),
			Goal:  g.ToIndex(q.Goal[0], q.Goal[1]),
		})
	}

	rng := rand.New(rand.NewPCG(spec.Seed, uint64(len(c.Queries))))
	for range spec.RandomQueries {
		sx, sy, ok := g.RandomVertex(rng)
		if !ok {
			return Case{}, errors.New("map has no free vertex for random queries")
		}
		gx, gy, _ := g.RandomVertex(rng)
		c.Queries = append(c.Queries, Query{Start: g.ToIndex(sx, sy), Goal: g.ToIndex(gx, gy)})
	}

	if len(c.Queries) == 0 {
		return Case{}, errors.New("map has no queries")
	}
	return c, nil
}
