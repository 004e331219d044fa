package core

import (
	"time"

	"github.com/xmesh-net/trellis/perf"
	"github.com/xmesh-net/trellis/state"
)

type neighborHealth struct {
	lastHeard time.Time
	warned    bool
	failed    bool
}

// HealthMonitor watches per-neighbor silence. A neighbor that stays quiet for
// one safety interval gets a warning; past two safety intervals it is declared
// failed, its direct route is removed from the transport and the trickle timer
// is collapsed so replacements propagate quickly. Both transitions fire at
// most once per silence episode. All state lives on the dispatch goroutine.
type HealthMonitor struct {
	safety    time.Duration
	neighbors map[state.Addr]*neighborHealth
}

func (h *HealthMonitor) Init(s *state.State) error {
	h.safety = s.Trickle.SafetyInterval
	h.neighbors = make(map[state.Addr]*neighborHealth)
	s.Env.RepeatTask(healthSweep, state.HealthSweepDelay)
	return nil
}

func (h *HealthMonitor) Cleanup(s *state.State) error {
	return nil
}

// Heard records activity from a neighbor, clearing any pending warning or
// failure state. Dispatch goroutine only.
func (h *HealthMonitor) Heard(addr state.Addr, now time.Time) {
	n := h.neighbors[addr]
	if n == nil {
		n = &neighborHealth{}
		h.neighbors[addr] = n
	}
	if n.failed {
		perf.NeighborRecoveries.Add(1)
	}
	n.lastHeard = now
	n.warned = false
	n.failed = false
}

func healthSweep(s *state.State) error {
	return Get[*HealthMonitor](s).sweep(s, time.Now())
}

func (h *HealthMonitor) sweep(s *state.State, now time.Time) error {
	for addr, n := range h.neighbors {
		silence := now.Sub(n.lastHeard)
		if silence > 2*h.safety {
			if !n.failed {
				n.failed = true
				perf.NeighborFailures.Add(1)
				s.Log.Warn("neighbor declared failed", "addr", addr, "silence", silence)
				s.Transport.RemoveRoute(addr)
				Get[*Hello](s).ResetTrickle(s, "neighbor failed")
			}
		} else if silence > h.safety {
			if !n.warned {
				n.warned = true
				s.Log.Warn("neighbor silent past safety interval", "addr", addr, "silence", silence)
			}
		}
	}
	return nil
}

// Tracked reports how many neighbors are under observation, for diagnostics.
func (h *HealthMonitor) Tracked() int {
	return len(h.neighbors)
}

// Failed reports whether a neighbor is currently in the failed state.
func (h *HealthMonitor) Failed(addr state.Addr) bool {
	n := h.neighbors[addr]
	return n != nil && n.failed
}
