package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/flatcollision/flatcollision/internal/config"
	"github.com/flatcollision/flatcollision/internal/data"
	"github.com/flatcollision/flatcollision/internal/debugapi"
	"github.com/flatcollision/flatcollision/internal/physics"
	"github.com/flatcollision/flatcollision/internal/scripting"
	"github.com/flatcollision/flatcollision/internal/sim"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(worlds []string) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m            flatsim  v0.1.0                \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m     flat-array broad-phase collision      \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mworlds:\033[0m %s\n\n", strings.Join(worlds, ", "))
}

func printSection(title string) {
	lineLen := max(46-len(title)-1, 3)
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := max(42-len(label)-len(numStr), 3)
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main host logic ───────────────────────────────────────────────

const statusInterval = 200 // ticks between status log lines

func run() error {
	// 1. Load config
	cfgPath := "config/flatsim.toml"
	if p := os.Getenv("FLATSIM_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Sim.Worlds)

	// 3. Load spawn list and probe script
	printSection("data")

	spawns, err := data.LoadSpawnTable(cfg.Sim.SpawnList)
	if err != nil {
		return fmt.Errorf("load spawn table: %w", err)
	}
	printStat("spawn archetypes", spawns.Count())
	for _, w := range cfg.Sim.Worlds {
		printStat("bodies in "+w, spawns.Total(w))
	}

	var probe func(physics.Entity) bool
	if cfg.Sim.ProbeScript != "" {
		luaEngine, err := scripting.NewEngine(cfg.Sim.ProbeScript, log)
		if err != nil {
			return fmt.Errorf("lua engine: %w", err)
		}
		defer luaEngine.Close()
		probe = luaEngine.Predicate()
		printOK("probe script loaded")
	}
	fmt.Println()

	// 4. Physics registry, metrics and simulation
	registry := physics.NewRegistry(physics.Options{
		CellSize:        cfg.Engine.CellSize,
		InitialCapacity: cfg.Engine.InitialCapacity,
	}, log)
	defer registry.RemoveAll()

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		physics.NewCollector(registry),
	)

	simulation, err := sim.New(registry, spawns, probe, sim.NewMetrics(promReg), sim.Options{
		Worlds:        cfg.Sim.Worlds,
		Bounds:        cfg.Sim.Bounds,
		ProbesPerTick: cfg.Sim.ProbesPerTick,
		ProbeRadius:   cfg.Sim.ProbeRadius,
		DespawnChance: cfg.Sim.DespawnChance,
		InboxSize:     cfg.Loader.InboxSize,
		Seed:          time.Now().UnixNano(),
		Loader: sim.LoaderOptions{
			Workers:         cfg.Loader.Workers,
			SpawnsPerSecond: cfg.Loader.SpawnsPerSecond,
			Burst:           cfg.Loader.Burst,
		},
	}, log)
	if err != nil {
		return fmt.Errorf("simulation: %w", err)
	}
	defer simulation.Shutdown()

	// 5. Debug server
	if cfg.Debug.Enabled {
		dbg := debugapi.NewServer(cfg.Debug.BindAddress, debugapi.NewRouter(debugapi.RouterConfig{
			Registry:   registry,
			Simulation: simulation,
			Gatherer:   promReg,
			Log:        log,
		}), log)
		dbg.Start()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			dbg.Shutdown(ctx)
		}()
	}

	// 6. Start async loaders
	loadCtx, stopLoaders := context.WithCancel(context.Background())
	loaderDone := make(chan error, 1)
	go func() { loaderDone <- simulation.RunLoaders(loadCtx) }()
	defer func() {
		stopLoaders()
		if err := <-loaderDone; err != nil {
			log.Warn("loader error during shutdown", zap.Error(err))
		}
	}()

	// 7. Start tick loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Sim.TickRate)
	defer ticker.Stop()

	printSection("ready")
	if cfg.Debug.Enabled {
		printReady(fmt.Sprintf("debug server %s", cfg.Debug.BindAddress))
	}
	printReady(fmt.Sprintf("tick loop started (tick: %s)", cfg.Sim.TickRate))
	fmt.Println()

	ticks := 0
	loaderCh := loaderDone
	for {
		select {
		case <-ticker.C:
			if err := simulation.Tick(cfg.Sim.TickRate); err != nil {
				return fmt.Errorf("tick %d: %w", ticks, err)
			}
			ticks++
			if ticks%statusInterval == 0 {
				logStatus(log, simulation)
			}
			if cfg.Sim.MaxTicks > 0 && ticks >= cfg.Sim.MaxTicks {
				log.Info("tick limit reached", zap.Int("ticks", ticks))
				logStatus(log, simulation)
				return nil
			}
		case err := <-loaderCh:
			loaderDone <- err // the deferred shutdown receives it again
			if err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("loaders: %w", err)
			}
			loaderCh = nil
		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
			return nil
		}
	}
}

func logStatus(log *zap.Logger, s *sim.Simulation) {
	for _, w := range s.Worlds() {
		es := w.Engine().Stats()
		ws := w.Stats()
		log.Info("world status",
			zap.String("world", string(es.World)),
			zap.Int("tracked", es.Tracked),
			zap.Int("grid_cells", es.GridCells),
			zap.Int("oversized", es.Oversized),
			zap.Int("pending", es.Pending),
			zap.Duration("last_tick", es.LastTick),
			zap.Uint64("probes", ws.Probes),
			zap.Uint64("hits", ws.Hits),
			zap.Uint64("contacts", ws.Contacts),
			zap.Uint64("despawned", ws.Despawned),
			zap.Any("population", s.Population(string(es.World))))
	}
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
