package core

import (
	"math"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/xmesh-net/trellis/perf"
	"github.com/xmesh-net/trellis/state"
)

// RouteCostRecord is the last-accepted cost for a destination, kept for
// hysteresis and topology-change detection. Records expire when the
// destination stops appearing in routing snapshots.
type RouteCostRecord struct {
	Dest       state.Addr
	Via        state.Addr
	Cost       float64
	LastUpdate time.Time
}

// CostEvaluator scores routing alternatives over hop count, link quality,
// delivery reliability and destination load. Cost is registered with the
// transport as its next-hop ranking function and must therefore be safe to
// call from any goroutine; it only touches plain arguments, the lock-guarded
// link table and the lock-guarded gateway load cache, never the transport's
// live routing table.
type CostEvaluator struct {
	cfg   state.CostCfg
	links *state.LinkTable
	loads *GatewayLoads

	// sweep-only state, dispatch goroutine
	history  *ttlcache.Cache[state.Addr, RouteCostRecord]
	prevSize int
}

func (c *CostEvaluator) Init(s *state.State) error {
	c.cfg = s.Cost
	c.links = s.Links
	c.loads = Get[*GatewayLoads](s)
	c.history = ttlcache.New[state.Addr, RouteCostRecord](
		ttlcache.WithTTL[state.Addr, RouteCostRecord](state.RouteExpiryTime),
		ttlcache.WithDisableTouchOnHit[state.Addr, RouteCostRecord](),
	)
	go c.history.Start()
	s.Transport.RegisterCostFunction(c.Cost)
	s.Env.RepeatTask(costSweep, state.CostEvalDelay)
	return nil
}

func (c *CostEvaluator) Cleanup(s *state.State) error {
	c.history.Stop()
	return nil
}

// norm maps x from [lo, hi] onto [0, 1], clamped at the edges.
func norm(x, lo, hi float64) float64 {
	if x <= lo {
		return 0
	}
	if x >= hi {
		return 1
	}
	return (x - lo) / (hi - lo)
}

// Cost computes the composite route cost, lower is better. The bias term
// only applies when dest is a known gateway.
func (c *CostEvaluator) Cost(hops uint8, via state.Addr, dest state.Addr) float64 {
	link := c.links.Get(via, time.Now())

	cost := c.cfg.HopWeight * float64(hops)
	cost += c.cfg.RssiWeight * (1 - norm(link.Rssi, state.RssiFloor, state.RssiCeil))
	cost += c.cfg.SnrWeight * (1 - norm(link.Snr, state.SnrFloor, state.SnrCeil))
	cost += c.cfg.EtxWeight * (link.Etx - 1)
	if link.Rssi < state.MarginalRssi || link.Snr < state.MarginalSnr {
		// large enough that a 2-hop path through a healthy relay beats a
		// 1-hop path over a marginal direct link
		cost += c.cfg.WeakLinkPenalty
	}
	if bias, ok := c.loads.Bias(dest); ok {
		cost += c.cfg.BiasWeight * bias
	}
	return cost
}

func costSweep(s *state.State) error {
	c := Get[*CostEvaluator](s)
	return c.sweep(s, time.Now())
}

// sweep re-evaluates every visible destination against its history. Any
// detected topology change (table size, next-hop flip, expired entry)
// collapses the trickle interval so the network reconverges quickly; mere
// cost drift inside the hysteresis band is ignored.
func (c *CostEvaluator) sweep(s *state.State, now time.Time) error {
	snapshot := s.Transport.RoutingSnapshot()
	c.loads.Refresh(snapshot, now)

	changed := ""
	if len(snapshot) != c.prevSize && c.prevSize != 0 {
		changed = "table size changed"
	}
	for _, e := range snapshot {
		if !e.Expiry.IsZero() && e.Expiry.Before(now) {
			changed = "route entry expired"
		}
		cost := c.Cost(e.HopMetric, e.Via, e.Address)
		if state.DBG_log_cost {
			s.Log.Debug("route cost", "dest", e.Address, "via", e.Via, "hops", e.HopMetric, "cost", cost)
		}
		item := c.history.Get(e.Address)
		if item == nil {
			// first sighting
			c.history.Set(e.Address, RouteCostRecord{
				Dest: e.Address, Via: e.Via, Cost: cost, LastUpdate: now,
			}, ttlcache.DefaultTTL)
			continue
		}
		rec := item.Value()
		if rec.Via != e.Via {
			// a next-hop change is always actionable
			changed = "next hop changed"
			rec.Via = e.Via
			rec.Cost = cost
			rec.LastUpdate = now
		} else if c.actionable(rec, cost) {
			rec.Cost = cost
			rec.LastUpdate = now
		}
		// re-set even when unchanged so the record outlives the destination
		// by at most one expiry period
		c.history.Set(e.Address, rec, ttlcache.DefaultTTL)
	}
	c.prevSize = len(snapshot)

	if changed != "" {
		perf.TopologyChanges.Add(1)
		s.Log.Debug("topology change detected", "reason", changed)
		Get[*Hello](s).ResetTrickle(s, changed)
	}
	return nil
}

// actionable applies hysteresis: a cost delta only counts once it moves more
// than the configured fraction of the last accepted cost.
func (c *CostEvaluator) actionable(rec RouteCostRecord, cost float64) bool {
	if rec.LastUpdate.IsZero() || rec.Cost == 0 {
		return true
	}
	return math.Abs(cost-rec.Cost)/rec.Cost > c.cfg.Hysteresis
}

// HistoryLen reports the number of tracked destinations, for diagnostics.
func (c *CostEvaluator) HistoryLen() int {
	return c.history.Len()
}
