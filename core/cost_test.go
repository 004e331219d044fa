package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/xmesh-net/trellis/state"
)

// observe feeds n consecutive clean frames so the link reads as healthy.
func observe(s *state.State, addr state.Addr, n int, rssi, snr float64) {
	now := time.Unix(0, 0)
	for seq := 1; seq <= n; seq++ {
		s.Links.Observe(state.Observation{
			From: addr, Seq: uint32(seq), Rssi: rssi, Snr: snr, HasSignal: true,
		}, now)
	}
}

func TestCostMonotonicInHops(t *testing.T) {
	s, _ := newTestEnv(t, nil)
	c := Get[*CostEvaluator](s)
	observe(s, 0x0002, 5, -60, 8)

	one := c.Cost(1, 0x0002, 0x0010)
	three := c.Cost(3, 0x0002, 0x0010)
	assert.Greater(t, three, one)
	assert.InDelta(t, 2*state.HopWeight, three-one, 1e-9)
}

func TestCostPrefersRelayOverMarginalDirect(t *testing.T) {
	s, _ := newTestEnv(t, nil)
	c := Get[*CostEvaluator](s)

	observe(s, 0x0002, 5, -110, 5) // marginal direct neighbour
	observe(s, 0x0003, 5, -60, 8)  // healthy relay

	direct := c.Cost(1, 0x0002, 0x0010)
	relayed := c.Cost(2, 0x0003, 0x0010)
	assert.Less(t, relayed, direct)
}

func TestCostReflectsEtx(t *testing.T) {
	s, _ := newTestEnv(t, nil)
	c := Get[*CostEvaluator](s)

	observe(s, 0x0002, 10, -60, 8)
	// lossy neighbour: every other frame missing
	now := time.Unix(0, 0)
	for seq := uint32(2); seq <= 20; seq += 2 {
		s.Links.Observe(state.Observation{
			From: 0x0003, Seq: seq, Rssi: -60, Snr: 8, HasSignal: true,
		}, now)
	}

	clean := c.Cost(1, 0x0002, 0x0010)
	lossy := c.Cost(1, 0x0003, 0x0010)
	assert.Greater(t, lossy, clean)
}

func TestCostGatewayBias(t *testing.T) {
	s, _ := newTestEnv(t, nil)
	c := Get[*CostEvaluator](s)
	g := Get[*GatewayLoads](s)
	now := time.Unix(0, 0)

	observe(s, 0x0002, 5, -60, 8)
	g.Refresh([]state.RouteEntry{
		gatewayEntry(0x000A, 40),
		gatewayEntry(0x000B, 10),
	}, now)

	loaded := c.Cost(1, 0x0002, 0x000A)
	idle := c.Cost(1, 0x0002, 0x000B)
	// biases are +0.6 and -0.6 around the average load
	assert.InDelta(t, 1.2*state.BiasWeight, loaded-idle, 1e-9)
}

func TestCostHysteresis(t *testing.T) {
	s, _ := newTestEnv(t, nil)
	c := Get[*CostEvaluator](s)
	rec := RouteCostRecord{Dest: 0x0010, Via: 0x0002, Cost: 1.0, LastUpdate: time.Unix(0, 0)}

	// 10% drift stays inside the band, in both directions; 20% clears it
	assert.False(t, c.actionable(rec, 1.1))
	assert.False(t, c.actionable(rec, 0.9))
	assert.True(t, c.actionable(rec, 1.2))
	assert.True(t, c.actionable(rec, 0.8))
}

func TestSweepDetectsTopologyChanges(t *testing.T) {
	s, transport := newTestEnv(t, nil)
	c := Get[*CostEvaluator](s)
	h := Get[*Hello](s)
	now := time.Now()

	transport.SetRoute(state.RouteEntry{Address: 0x0002, Via: 0x0002, HopMetric: 1})
	assert.NoError(t, c.sweep(s, now))

	// widen the trickle interval so a reset is observable
	for h.Stats().Interval == s.Trickle.IMin {
		now = now.Add(s.Trickle.IMax)
		h.timer.ShouldTransmit(now)
	}
	widened := h.Stats().Interval

	// a new destination collapses the interval
	transport.SetRoute(state.RouteEntry{Address: 0x0003, Via: 0x0002, HopMetric: 2})
	assert.NoError(t, c.sweep(s, now))
	assert.Equal(t, s.Trickle.IMin, h.Stats().Interval)
	assert.Less(t, s.Trickle.IMin, widened)

	// a next-hop flip is always actionable, regardless of cost delta
	for h.Stats().Interval == s.Trickle.IMin {
		now = now.Add(s.Trickle.IMax)
		h.timer.ShouldTransmit(now)
	}
	transport.SetRoute(state.RouteEntry{Address: 0x0003, Via: 0x0004, HopMetric: 2})
	assert.NoError(t, c.sweep(s, now))
	assert.Equal(t, s.Trickle.IMin, h.Stats().Interval)

	// steady state stays quiet
	for h.Stats().Interval == s.Trickle.IMin {
		now = now.Add(s.Trickle.IMax)
		h.timer.ShouldTransmit(now)
	}
	widened = h.Stats().Interval
	assert.NoError(t, c.sweep(s, now))
	assert.Equal(t, widened, h.Stats().Interval)
}

func TestSweepDetectsExpiredRoutes(t *testing.T) {
	s, transport := newTestEnv(t, nil)
	c := Get[*CostEvaluator](s)
	h := Get[*Hello](s)
	now := time.Now()

	transport.SetRoute(state.RouteEntry{
		Address: 0x0002, Via: 0x0002, HopMetric: 1,
		Expiry: now.Add(time.Minute),
	})
	assert.NoError(t, c.sweep(s, now))

	for h.Stats().Interval == s.Trickle.IMin {
		now = now.Add(s.Trickle.IMax)
		h.timer.ShouldTransmit(now)
	}

	// the entry is now past its expiry
	assert.NoError(t, c.sweep(s, now))
	assert.Equal(t, s.Trickle.IMin, h.Stats().Interval)
}
