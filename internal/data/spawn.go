package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Region is a horizontal rectangle bodies are scattered across.
type Region struct {
	MinX float64 `yaml:"min_x"`
	MinZ float64 `yaml:"min_z"`
	MaxX float64 `yaml:"max_x"`
	MaxZ float64 `yaml:"max_z"`
}

// SpawnEntry describes one archetype of body to spawn into a world.
type SpawnEntry struct {
	Name   string  `yaml:"name"`
	World  string  `yaml:"world"` // empty spawns into every world
	Count  int     `yaml:"count"`
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
	Y      float64 `yaml:"y"`
	Speed  float64 `yaml:"speed"` // max horizontal speed, units per second
	Solid  *bool   `yaml:"solid"` // default true
	Region Region  `yaml:"region"`
}

// IsSolid reports whether bodies of this archetype take part in collision.
func (e *SpawnEntry) IsSolid() bool {
	return e.Solid == nil || *e.Solid
}

// SpawnTable holds spawn entries grouped by target world.
type SpawnTable struct {
	entries []SpawnEntry
	byWorld map[string][]*SpawnEntry
	shared  []*SpawnEntry
}

// LoadSpawnTable loads spawn_list.yaml.
func LoadSpawnTable(path string) (*SpawnTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read spawn list: %w", err)
	}
	return ParseSpawnTable(raw)
}

// ParseSpawnTable builds a table from raw YAML.
func ParseSpawnTable(raw []byte) (*SpawnTable, error) {
	var entries []SpawnEntry
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse spawn list: %w", err)
	}
	t := &SpawnTable{
		entries: entries,
		byWorld: make(map[string][]*SpawnEntry),
	}
	for i := range entries {
		e := &entries[i]
		if err := e.validate(); err != nil {
			return nil, fmt.Errorf("spawn entry %d (%s): %w", i, e.Name, err)
		}
		if e.World == "" {
			t.shared = append(t.shared, e)
			continue
		}
		t.byWorld[e.World] = append(t.byWorld[e.World], e)
	}
	return t, nil
}

func (e *SpawnEntry) validate() error {
	if e.Count < 0 {
		return fmt.Errorf("negative count %d", e.Count)
	}
	if e.Width <= 0 || e.Height <= 0 {
		return fmt.Errorf("width and height must be positive")
	}
	if e.Region.MaxX < e.Region.MinX || e.Region.MaxZ < e.Region.MinZ {
		return fmt.Errorf("inverted region")
	}
	return nil
}

// ForWorld returns the entries that spawn into world, shared entries first.
func (t *SpawnTable) ForWorld(world string) []*SpawnEntry {
	out := make([]*SpawnEntry, 0, len(t.shared)+len(t.byWorld[world]))
	out = append(out, t.shared...)
	return append(out, t.byWorld[world]...)
}

// Total returns how many bodies spawn into world.
func (t *SpawnTable) Total(world string) int {
	n := 0
	for _, e := range t.ForWorld(world) {
		n += e.Count
	}
	return n
}

// Count returns the total number of entries loaded.
func (t *SpawnTable) Count() int {
	return len(t.entries)
}
