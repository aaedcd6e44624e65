package physics

import "github.com/prometheus/client_golang/prometheus"

// Collector exports per-world engine stats. Reads only published snapshots,
// so scraping never touches tick-goroutine state.
type Collector struct {
	registry *Registry

	tracked   *prometheus.Desc
	gridCells *prometheus.Desc
	oversized *prometheus.Desc
	pending   *prometheus.Desc
	capacity  *prometheus.Desc
	ticks     *prometheus.Desc
	applied   *prometheus.Desc
	queries   *prometheus.Desc
	lastTick  *prometheus.Desc
}

// NewCollector returns a collector over every engine in r. The only label
// is the world ID, bounded by the number of loaded worlds.
func NewCollector(r *Registry) *Collector {
	labels := []string{"world"}
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName("flatcollision", "engine", name), help, labels, nil)
	}
	return &Collector{
		registry:  r,
		tracked:   desc("tracked_entities", "Entities holding a slot"),
		gridCells: desc("grid_cells", "Occupied grid cells"),
		oversized: desc("oversized_entities", "Entities in the oversized list"),
		pending:   desc("staging_pending", "Staged requests not yet drained"),
		capacity:  desc("slot_capacity", "Allocated SoA slot capacity"),
		ticks:     desc("ticks_total", "Ticks processed"),
		applied:   desc("staging_applied_total", "Staged requests applied"),
		queries:   desc("queries_total", "Spatial queries served"),
		lastTick:  desc("last_tick_seconds", "Duration of the most recent tick start"),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.tracked
	ch <- c.gridCells
	ch <- c.oversized
	ch <- c.pending
	ch <- c.capacity
	ch <- c.ticks
	ch <- c.applied
	ch <- c.queries
	ch <- c.lastTick
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.registry.Each(func(e *Engine) {
		s := e.Stats()
		w := string(s.World)
		ch <- prometheus.MustNewConstMetric(c.tracked, prometheus.GaugeValue, float64(s.Tracked), w)
		ch <- prometheus.MustNewConstMetric(c.gridCells, prometheus.GaugeValue, float64(s.GridCells), w)
		ch <- prometheus.MustNewConstMetric(c.oversized, prometheus.GaugeValue, float64(s.Oversized), w)
		ch <- prometheus.MustNewConstMetric(c.pending, prometheus.GaugeValue, float64(s.Pending), w)
		ch <- prometheus.MustNewConstMetric(c.capacity, prometheus.GaugeValue, float64(s.Capacity), w)
		ch <- prometheus.MustNewConstMetric(c.ticks, prometheus.CounterValue, float64(s.Ticks), w)
		ch <- prometheus.MustNewConstMetric(c.applied, prometheus.CounterValue, float64(s.Applied), w)
		ch <- prometheus.MustNewConstMetric(c.queries, prometheus.CounterValue, float64(s.Queries), w)
		ch <- prometheus.MustNewConstMetric(c.lastTick, prometheus.GaugeValue, s.LastTick.Seconds(), w)
	})
}
