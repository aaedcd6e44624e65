package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Engine  EngineConfig  `toml:"engine"`
	Sim     SimConfig     `toml:"sim"`
	Loader  LoaderConfig  `toml:"loader"`
	Debug   DebugConfig   `toml:"debug"`
	Logging LoggingConfig `toml:"logging"`
}

type EngineConfig struct {
	CellSize        float64 `toml:"cell_size"`        // grid cell edge in world units
	InitialCapacity int     `toml:"initial_capacity"` // SoA slots allocated per world up front
}

type SimConfig struct {
	Worlds        []string      `toml:"worlds"`
	TickRate      time.Duration `toml:"tick_rate"`
	Bounds        float64       `toml:"bounds"` // worlds span [-bounds, bounds] on X and Z
	SpawnList     string        `toml:"spawn_list"`
	ProbeScript   string        `toml:"probe_script"` // empty disables the Lua predicate
	ProbesPerTick int           `toml:"probes_per_tick"`
	ProbeRadius   float64       `toml:"probe_radius"`
	DespawnChance float64       `toml:"despawn_chance"` // per body per tick (0.0-1.0)
	MaxTicks      int           `toml:"max_ticks"`      // 0 runs until signalled
}

type LoaderConfig struct {
	Workers         int     `toml:"workers"`
	SpawnsPerSecond float64 `toml:"spawns_per_second"`
	Burst           int     `toml:"burst"`
	InboxSize       int     `toml:"inbox_size"`
}

type DebugConfig struct {
	Enabled     bool   `toml:"enabled"`
	BindAddress string `toml:"bind_address"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return defaults()
}

func (c *Config) validate() error {
	if c.Engine.CellSize <= 0 {
		return fmt.Errorf("engine.cell_size must be positive, got %v", c.Engine.CellSize)
	}
	if len(c.Sim.Worlds) == 0 {
		return fmt.Errorf("sim.worlds must name at least one world")
	}
	if c.Sim.TickRate <= 0 {
		return fmt.Errorf("sim.tick_rate must be positive, got %s", c.Sim.TickRate)
	}
	if c.Sim.DespawnChance < 0 || c.Sim.DespawnChance > 1 {
		return fmt.Errorf("sim.despawn_chance must be within [0,1], got %v", c.Sim.DespawnChance)
	}
	if c.Loader.Workers < 1 {
		return fmt.Errorf("loader.workers must be at least 1, got %d", c.Loader.Workers)
	}
	return nil
}

func defaults() *Config {
	return &Config{
		Engine: EngineConfig{
			CellSize:        16,
			InitialCapacity: 1024,
		},
		Sim: SimConfig{
			Worlds:        []string{"overworld"},
			TickRate:      50 * time.Millisecond,
			Bounds:        256,
			SpawnList:     "data/yaml/spawn_list.yaml",
			ProbeScript:   "scripts/probe.lua",
			ProbesPerTick: 64,
			ProbeRadius:   4,
			DespawnChance: 0.001,
		},
		Loader: LoaderConfig{
			Workers:         4,
			SpawnsPerSecond: 2000,
			Burst:           200,
			InboxSize:       4096,
		},
		Debug: DebugConfig{
			Enabled:     true,
			BindAddress: "127.0.0.1:6060",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
