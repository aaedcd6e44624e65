package debugapi

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/flatcollision/flatcollision/internal/physics"
	"github.com/flatcollision/flatcollision/internal/sim"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap/zaptest"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	log := zaptest.NewLogger(t)
	reg := physics.NewRegistry(physics.Options{CellSize: 16}, log)
	promReg := prometheus.NewRegistry()
	promReg.MustRegister(physics.NewCollector(reg))

	s, err := sim.New(reg, nil, nil, sim.NewMetrics(promReg), sim.Options{Worlds: []string{"overworld"}}, log)
	if err != nil {
		t.Fatal(err)
	}
	w := s.World("overworld")
	w.Adopt(w.Spawn("crate", physics.Vec3{}, physics.Vec3{}, 1, 1, true))
	w.Adopt(w.Spawn("titan", physics.Vec3{X: 40}, physics.Vec3{}, 20, 8, true))
	if err := s.Tick(50 * time.Millisecond); err != nil {
		t.Fatal(err)
	}

	ts := httptest.NewServer(NewRouter(RouterConfig{
		Registry:   reg,
		Simulation: s,
		Gatherer:   promReg,
		Log:        log,
	}))
	t.Cleanup(func() {
		ts.Close()
		reg.RemoveAll()
	})
	return ts
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp.StatusCode, string(body)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	status, body := get(t, ts.URL+"/healthz")
	if status != http.StatusOK || body != "OK" {
		t.Errorf("Expected 200 OK, got %d %q", status, body)
	}
}

func TestEngines(t *testing.T) {
	ts := newTestServer(t)

	status, body := get(t, ts.URL+"/debug/engines")
	if status != http.StatusOK {
		t.Fatalf("Expected 200, got %d", status)
	}
	var all []physics.EngineStats
	if err := json.Unmarshal([]byte(body), &all); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("Expected 1 engine, got %d", len(all))
	}
	got := all[0]
	if got.World != "overworld" || !got.Active || got.Tracked != 2 || got.Oversized != 1 || got.Ticks != 1 {
		t.Errorf("Unexpected stats %+v", got)
	}
}

func TestEngineByWorld(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		path   string
		status int
		want   string
	}{
		{"/debug/engines/overworld", http.StatusOK, `"tracked":2`},
		{"/debug/engines/nether", http.StatusNotFound, "unknown world"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			status, body := get(t, ts.URL+tt.path)
			if status != tt.status {
				t.Errorf("Expected %d, got %d", tt.status, status)
			}
			if !strings.Contains(body, tt.want) {
				t.Errorf("Expected body to contain %q, got %s", tt.want, body)
			}
		})
	}
}

func TestWorlds(t *testing.T) {
	ts := newTestServer(t)
	status, body := get(t, ts.URL+"/debug/worlds")
	if status != http.StatusOK {
		t.Fatalf("Expected 200, got %d", status)
	}
	var worlds []sim.WorldStats
	if err := json.Unmarshal([]byte(body), &worlds); err != nil {
		t.Fatal(err)
	}
	if len(worlds) != 1 || worlds[0].Spawned != 2 || worlds[0].Bodies != 2 {
		t.Errorf("Unexpected world stats %+v", worlds)
	}
}

func TestMetrics(t *testing.T) {
	ts := newTestServer(t)
	status, body := get(t, ts.URL+"/metrics")
	if status != http.StatusOK {
		t.Fatalf("Expected 200, got %d", status)
	}
	for _, want := range []string{
		`flatcollision_engine_tracked_entities{world="overworld"} 2`,
		`flatcollision_engine_oversized_entities{world="overworld"} 1`,
		"flatsim_tick_duration_seconds_count 1",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("Expected metrics to contain %q", want)
		}
	}
}

func TestUnknownRoute(t *testing.T) {
	ts := newTestServer(t)
	if status, _ := get(t, ts.URL+"/nope"); status != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", status)
	}
}
