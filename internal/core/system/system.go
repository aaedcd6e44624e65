package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseInput   Phase = iota // 0: drain loader inboxes
	PhasePhysics              // 1: engine tick start (staging drain + resync)
	PhaseQuery                // 2: broad-phase probes
	PhaseUpdate               // 3: movement, despawn decisions
	PhaseCleanup              // 4: destroy queued entities
)

func (p Phase) String() string {
	switch p {
	case PhaseInput:
		return "input"
	case PhasePhysics:
		return "physics"
	case PhaseQuery:
		return "query"
	case PhaseUpdate:
		return "update"
	case PhaseCleanup:
		return "cleanup"
	}
	return "unknown"
}

// System is the interface every ECS system implements.
// A returned error aborts the tick.
type System interface {
	Phase() Phase
	Update(dt time.Duration) error
}
