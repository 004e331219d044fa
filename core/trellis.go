package core

import (
	"errors"
	"time"

	"github.com/xmesh-net/trellis/state"
)

// Trellis is the orchestrator. It flips the transport from fixed-interval to
// adaptive advertisements, wires the frame hooks into the dispatch loop, and
// answers the "which gateway should I use" question by combining the load
// override with the full cost comparison.
type Trellis struct {
	env *state.Env
}

func (t *Trellis) Init(s *state.State) error {
	if s.Transport == nil {
		return errors.New("no transport configured")
	}
	t.env = s.Env

	if !s.Trickle.Disabled {
		s.Transport.DisableFixedAdvertisements()
	}

	// hooks arrive on transport goroutines; hop onto the dispatch loop before
	// touching any module state
	s.Transport.RegisterAdvertisementHook(t.onAdvertisement)
	s.Transport.RegisterDataHook(t.onData)

	if state.DBG_log_table {
		s.Env.RepeatTask(dumpDiagnostics, state.DiagnosticDumpDelay)
	}
	return nil
}

func (t *Trellis) Cleanup(s *state.State) error {
	return nil
}

func (t *Trellis) onAdvertisement(obs state.Observation) {
	t.env.Dispatch(func(s *state.State) error {
		now := time.Now()
		s.Links.Observe(obs, now)
		Get[*HealthMonitor](s).Heard(obs.From, now)
		Get[*Hello](s).HeardConsistent()
		return nil
	})
}

func (t *Trellis) onData(obs state.Observation) {
	t.env.Dispatch(func(s *state.State) error {
		now := time.Now()
		s.Links.Observe(obs, now)
		Get[*HealthMonitor](s).Heard(obs.From, now)
		if s.Gateway {
			Get[*GatewayLoads](s).CountLocalPacket()
		}
		return nil
	})
}

// PreferredGatewayRoute picks the gateway this node should sink traffic
// through. The load override wins outright when the spread between the two
// least-loaded gateways clears the switch threshold; otherwise the cheapest
// gateway by composite cost is chosen. Dispatch goroutine only.
func (t *Trellis) PreferredGatewayRoute(s *state.State) (state.RouteEntry, bool) {
	snapshot := s.Transport.RoutingSnapshot()
	loads := Get[*GatewayLoads](s)
	eval := Get[*CostEvaluator](s)

	if addr, ok := loads.LoadOverride(); ok {
		for _, e := range snapshot {
			if e.Address == addr && e.IsGateway() {
				return e, true
			}
		}
	}

	best := state.RouteEntry{}
	bestCost := 0.0
	found := false
	for _, e := range snapshot {
		if !e.IsGateway() {
			continue
		}
		cost := eval.Cost(e.HopMetric, e.Via, e.Address)
		if !found || cost < bestCost {
			best = e
			bestCost = cost
			found = true
		}
	}
	return best, found
}

// LinkQualitySnapshot exposes the current per-neighbour link estimates.
func (t *Trellis) LinkQualitySnapshot(s *state.State) []state.LinkSnapshot {
	return s.Links.Snapshots()
}

func dumpDiagnostics(s *state.State) error {
	hello := Get[*Hello](s)
	health := Get[*HealthMonitor](s)
	eval := Get[*CostEvaluator](s)
	st := hello.Stats()
	s.Log.Debug("diagnostics",
		"links", s.Links.Len(),
		"neighbors", health.Tracked(),
		"destinations", eval.HistoryLen(),
		"interval", st.Interval,
		"transmits", st.Transmits,
		"suppressions", st.Suppressions,
		"efficiency", st.Efficiency(),
	)
	for _, l := range s.Links.Snapshots() {
		s.Log.Debug("link", "addr", l.Addr, "rssi", l.Rssi, "snr", l.Snr, "etx", l.Etx, "ratio", l.DeliveryRatio)
	}
	return nil
}
