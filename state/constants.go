package state

import "time"

const (
	// LoadUnknown is the gateway load byte carried before a gateway has
	// completed its first sampling window.
	LoadUnknown = uint8(255)
	// LoadMax is the largest encodable load value, in packets per minute.
	LoadMax = uint8(254)

	// RoleGateway marks a destination that sinks sensor traffic.
	RoleGateway = uint8(0b00000001)
)

var (
	// trickle advertisement scheduling
	TrickleIMin    = time.Second * 60
	TrickleIMax    = time.Second * 600
	TrickleK       = 1
	HelloPollDelay = time.Second * 1
	// SafetyInterval bounds worst-case advertisement silence, independent of
	// trickle suppression. Failure detection latency is [1x, 2x] this value.
	SafetyInterval = 3 * TrickleIMin

	// link quality estimation
	EtxWindowSize       = 10
	EtxDefault          = 1.5
	EtxAlpha            = 0.3
	EtxMin              = 1.0
	EtxMax              = 10.0
	EtxBootstrapSamples = 3
	SignalAlpha         = 0.3
	DefaultRssi         = -120.0
	DefaultSnr          = -20.0
	MaxTrackedLinks     = 10

	// cost function
	HopWeight           = 1.0
	RssiWeight          = 0.3
	SnrWeight           = 0.2
	EtxWeight           = 0.4
	BiasWeight          = 1.0
	RssiFloor           = -120.0
	RssiCeil            = -30.0
	SnrFloor            = -20.0
	SnrCeil             = 10.0
	MarginalRssi        = -100.0
	MarginalSnr         = -15.0
	WeakLinkPenalty     = 1.5
	HysteresisThreshold = 0.15

	// gateway load sampling
	LoadSampleFloor     = time.Second * 1
	MinSignificantLoad  = 1.0  // pkt/min, below this bias stays zero
	LoadSwitchThreshold = 0.25 // pkt/min gap that triggers the direct override

	// periodic sweeps
	CostEvalDelay       = time.Second * 10
	HealthSweepDelay    = time.Second * 30
	DiagnosticDumpDelay = time.Second * 30

	// RouteExpiryTime mirrors the transport's own route timeout; cost history
	// entries are kept at most this long without a refresh.
	RouteExpiryTime = time.Second * 600
)

// debug toggles
var (
	DBG_log_cost  = false
	DBG_log_table = false
)
