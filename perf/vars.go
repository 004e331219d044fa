package perf

import (
	"expvar"
	"net/http"

	"github.com/encodeous/metric"
)

var (
	DispatchLatency    = metric.NewHistogram("1m1s")
	HelloSent          = metric.NewCounter("10m1m")
	SafetyHellos       = metric.NewCounter("10m1m")
	TrickleResets      = metric.NewCounter("10m1m")
	TopologyChanges    = metric.NewCounter("10m1m")
	NeighborFailures   = metric.NewCounter("10m1m")
	NeighborRecoveries = metric.NewCounter("10m1m")
)

func init() {
	http.Handle("/debug/metrics", metric.Handler(metric.Exposed))
	expvar.Publish("trellis:DispatchLatency (µs)", DispatchLatency)
	expvar.Publish("trellis:HelloSent", HelloSent)
	expvar.Publish("trellis:SafetyHellos", SafetyHellos)
	expvar.Publish("trellis:TrickleResets", TrickleResets)
	expvar.Publish("trellis:TopologyChanges", TopologyChanges)
	expvar.Publish("trellis:NeighborFailures", NeighborFailures)
	expvar.Publish("trellis:NeighborRecoveries", NeighborRecoveries)
}
