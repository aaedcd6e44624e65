package sim

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"github.com/flatcollision/flatcollision/internal/data"
	"github.com/flatcollision/flatcollision/internal/physics"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// LoaderOptions paces the async loaders.
type LoaderOptions struct {
	Workers         int
	SpawnsPerSecond float64 // <= 0 disables pacing
	Burst           int
}

type spawnJob struct {
	world *World
	entry *data.SpawnEntry
}

// RunLoaders spawns every body in the spawn table from a pool of worker
// goroutines. Each body is tracked through the engine's staging queue from
// the worker and then handed to the tick goroutine through the world inbox.
// It returns when all bodies are delivered or ctx is cancelled; cancellation
// is not an error.
func (s *Simulation) RunLoaders(ctx context.Context) error {
	jobs := s.spawnJobs()
	if len(jobs) == 0 {
		return nil
	}

	workers := max(s.opts.Loader.Workers, 1)
	limit := rate.Inf
	if s.opts.Loader.SpawnsPerSecond > 0 {
		limit = rate.Limit(s.opts.Loader.SpawnsPerSecond)
	}
	limiter := rate.NewLimiter(limit, max(s.opts.Loader.Burst, 1))

	s.log.Info("loaders starting",
		zap.Int("workers", workers),
		zap.Int("bodies", len(jobs)),
		zap.Float64("spawns_per_second", s.opts.Loader.SpawnsPerSecond))

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		w := w
		rng := rand.New(rand.NewSource(s.opts.Seed + int64(w) + 1))
		g.Go(func() error {
			for i := w; i < len(jobs); i += workers {
				if err := limiter.Wait(ctx); err != nil {
					if ctx.Err() != nil {
						return nil
					}
					return fmt.Errorf("loader %d: %w", w, err)
				}
				job := jobs[i]
				b := s.spawn(job, rng)
				select {
				case job.world.inbox <- b:
				case <-ctx.Done():
					return nil
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	s.log.Info("loaders finished", zap.Int("bodies", len(jobs)))
	return nil
}

func (s *Simulation) spawnJobs() []spawnJob {
	if s.spawns == nil {
		return nil
	}
	var jobs []spawnJob
	for _, w := range s.worlds {
		for _, e := range s.spawns.ForWorld(string(w.name)) {
			for i := 0; i < e.Count; i++ {
				jobs = append(jobs, spawnJob{world: w, entry: e})
			}
		}
	}
	return jobs
}

func (s *Simulation) spawn(job spawnJob, rng *rand.Rand) *Body {
	e := job.entry
	pos := physics.Vec3{
		X: lerp(e.Region.MinX, e.Region.MaxX, rng.Float64()),
		Y: e.Y,
		Z: lerp(e.Region.MinZ, e.Region.MaxZ, rng.Float64()),
	}
	var vel physics.Vec3
	if e.Speed > 0 {
		heading := rng.Float64() * 2 * math.Pi
		speed := e.Speed * (0.25 + 0.75*rng.Float64())
		vel.X = math.Cos(heading) * speed
		vel.Z = math.Sin(heading) * speed
	}
	b := job.world.Spawn(e.Name, pos, vel, e.Width, e.Height, e.IsSolid())
	s.metrics.spawned.WithLabelValues(string(job.world.name)).Inc()
	return b
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
