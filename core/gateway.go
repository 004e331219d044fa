package core

import (
	"slices"
	"sync"
	"time"

	"github.com/xmesh-net/trellis/state"
)

type gatewayLoadSample struct {
	load    uint8
	sampled time.Time
}

// GatewayLoads tracks destination-gateway load on both sides of the gossip:
// as a producer it counts the data packets this node sinks (gateways only)
// and quantizes them into the advertisement load byte; as a consumer it
// caches the load bytes seen in routing snapshots and turns them into a cost
// bias. The cache carries its own lock because the transport's cost callback
// reads it from a foreign goroutine.
type GatewayLoads struct {
	mu sync.Mutex

	// producer side
	isGateway   bool
	packetCount uint32
	windowStart time.Time

	// consumer side, keyed by gateway address
	gateways map[state.Addr]gatewayLoadSample
}

func (g *GatewayLoads) Init(s *state.State) error {
	g.isGateway = s.Gateway
	g.gateways = make(map[state.Addr]gatewayLoadSample)
	return nil
}

func (g *GatewayLoads) Cleanup(s *state.State) error {
	return nil
}

// CountLocalPacket records one data packet processed by this node. Only
// meaningful when the node is itself a gateway.
func (g *GatewayLoads) CountLocalPacket() {
	if !g.isGateway {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.packetCount++
}

// SampleForAdvertisement closes the current sampling window and returns the
// load byte to stamp onto the outgoing advertisement. The first call only
// opens the window and reports LoadUnknown; the counter is reset on every
// sample, never interpolated.
func (g *GatewayLoads) SampleForAdvertisement(now time.Time) uint8 {
	if !g.isGateway {
		return state.LoadUnknown
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.windowStart.IsZero() {
		g.windowStart = now
		return state.LoadUnknown
	}
	elapsed := now.Sub(g.windowStart)
	if elapsed < state.LoadSampleFloor {
		elapsed = state.LoadSampleFloor
	}
	perMinute := float64(g.packetCount) * float64(time.Minute) / float64(elapsed)
	g.packetCount = 0
	g.windowStart = now
	return encodeLoad(perMinute)
}

// encodeLoad quantizes packets-per-minute into the wire byte, 1 pkt/min per
// unit, clamped to [0, 254]. 255 stays reserved for "no data yet".
func encodeLoad(perMinute float64) uint8 {
	v := int(perMinute + 0.5)
	if v < 0 {
		v = 0
	}
	if v > int(state.LoadMax) {
		v = int(state.LoadMax)
	}
	return uint8(v)
}

// Refresh rebuilds the consumer cache from a routing snapshot. A gateway that
// drops out of the snapshot is forgotten; until then its last-known byte is
// kept even if stale.
func (g *GatewayLoads) Refresh(snapshot []state.RouteEntry, now time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	next := make(map[state.Addr]gatewayLoadSample, len(g.gateways))
	for _, e := range snapshot {
		if !e.IsGateway() {
			continue
		}
		next[e.Address] = gatewayLoadSample{load: e.GatewayLoad, sampled: now}
	}
	g.gateways = next
}

// Bias returns the relative load deviation for a known gateway destination:
// (load - avg) / avg over all gateways reporting a real value. It is zero
// unless at least two gateways report and their average clears the
// significance threshold. The second return is false when dest is not a
// known gateway at all.
func (g *GatewayLoads) Bias(dest state.Addr) (float64, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	sample, ok := g.gateways[dest]
	if !ok {
		return 0, false
	}
	count := 0
	total := 0.0
	for _, gw := range g.gateways {
		if gw.load == state.LoadUnknown {
			continue
		}
		count++
		total += float64(gw.load)
	}
	if count < 2 {
		return 0, true
	}
	avg := total / float64(count)
	if avg < state.MinSignificantLoad {
		return 0, true
	}
	if sample.load == state.LoadUnknown {
		// unknown and observed-zero stay distinct: unknown never biases
		return 0, true
	}
	return (float64(sample.load) - avg) / avg, true
}

// LoadOverride selects a gateway directly when the two least-loaded gateways
// differ by more than the switch threshold, bypassing the full cost
// comparison. This guards against the bias weight being too small to move an
// otherwise near-tied cost.
func (g *GatewayLoads) LoadOverride() (state.Addr, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	type cand struct {
		addr state.Addr
		load float64
	}
	cands := make([]cand, 0, len(g.gateways))
	for addr, gw := range g.gateways {
		if gw.load == state.LoadUnknown {
			continue
		}
		cands = append(cands, cand{addr: addr, load: float64(gw.load)})
	}
	if len(cands) < 2 {
		return 0, false
	}
	slices.SortFunc(cands, func(a, b cand) int {
		if a.load != b.load {
			if a.load < b.load {
				return -1
			}
			return 1
		}
		// deterministic tie-break
		return int(a.addr) - int(b.addr)
	})
	if cands[1].load-cands[0].load > state.LoadSwitchThreshold {
		return cands[0].addr, true
	}
	return 0, false
}

// KnownGateways returns the addresses currently cached as gateways.
func (g *GatewayLoads) KnownGateways() []state.Addr {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]state.Addr, 0, len(g.gateways))
	for addr := range g.gateways {
		out = append(out, addr)
	}
	slices.Sort(out)
	return out
}
