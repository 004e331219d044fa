package state

import (
	"fmt"
	"time"
)

// Addr is a 16-bit mesh node address assigned by the transport.
type Addr uint16

func (a Addr) String() string {
	return fmt.Sprintf("%04X", uint16(a))
}

// RouteEntry is a value copy of one transport routing-table row. Snapshots
// are taken with the table lock held, released before any computation.
type RouteEntry struct {
	Address     Addr
	Via         Addr
	HopMetric   uint8
	Role        uint8
	GatewayLoad uint8
	Expiry      time.Time
}

func (e RouteEntry) IsGateway() bool {
	return e.Role&RoleGateway != 0
}

// Observation describes a single received frame from a direct neighbour.
type Observation struct {
	From Addr
	Seq  uint32
	Rssi float64
	Snr  float64
	// HasSignal is false when the radio did not report a measurement for
	// this frame; the signal estimate is then left untouched.
	HasSignal bool
}

// Advertisement is the payload stamped onto the node's own route broadcast.
// The load byte rides inside the per-node metadata the transport's gossip
// already carries, there is no new message kind.
type Advertisement struct {
	GatewayLoad uint8
}

// CostFunc ranks a routing alternative. It takes only plain copied values so
// that the transport can never hand it a live table reference while holding
// the table lock. Implementations must be safe to call from any goroutine.
type CostFunc func(hops uint8, via Addr, dest Addr) float64

// Transport is the lower-layer mesh collaborator. It owns addressing, frame
// forwarding and the hop-count routing table; trellis only reads snapshots,
// registers hooks, and removes entries for neighbours it has declared dead.
type Transport interface {
	LocalAddr() Addr
	// RoutingSnapshot returns value copies of every routing-table entry.
	RoutingSnapshot() []RouteEntry
	// RegisterCostFunction installs fn for the transport's next-hop selection.
	RegisterCostFunction(fn CostFunc)
	// RegisterAdvertisementHook is invoked synchronously per accepted
	// advertisement from a direct neighbour.
	RegisterAdvertisementHook(fn func(obs Observation))
	// RegisterDataHook is invoked synchronously per received data frame.
	RegisterDataHook(fn func(obs Observation))
	// DisableFixedAdvertisements switches off the transport's own
	// fixed-interval advertisement task. Called once at init, before the
	// adaptive scheduler starts, so the two can never run concurrently.
	DisableFixedAdvertisements()
	SendAdvertisement(adv Advertisement) error
	RemoveRoute(addr Addr)
}
