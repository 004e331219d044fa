package state

import (
	"sync"
	"time"
)

// LinkSnapshot is a value copy of one neighbour's link estimates.
type LinkSnapshot struct {
	Addr          Addr
	Rssi          float64
	Snr           float64
	Etx           float64
	WindowFilled  int
	DeliveryRatio float64
	Attempts      uint32
	Successes     uint32
}

// NeighborLink tracks signal quality and delivery reliability for one direct
// neighbour, estimated purely from received traffic.
type NeighborLink struct {
	addr Addr

	rssi      float64
	snr       float64
	hasSignal bool

	etx          float64
	window       []bool
	windowIndex  int
	windowFilled int

	lastSeq uint32
	seqInit bool

	attempts   uint32
	successes  uint32
	lastUpdate time.Time
}

func (l *NeighborLink) deliveryRatio() float64 {
	if l.windowFilled == 0 {
		return 0
	}
	succ := 0
	for i := 0; i < l.windowFilled; i++ {
		if l.window[i] {
			succ++
		}
	}
	return float64(succ) / float64(l.windowFilled)
}

// push records one inferred transmission outcome into the circular window.
func (l *NeighborLink) push(success bool) {
	l.window[l.windowIndex] = success
	l.windowIndex = (l.windowIndex + 1) % len(l.window)
	if l.windowFilled < len(l.window) {
		l.windowFilled++
	}
	l.attempts++
	if success {
		l.successes++
	}
}

// recomputeEtx derives the instantaneous ETX from the window and smooths it
// once enough samples exist; below the bootstrap count the instant value is
// used directly.
func (l *NeighborLink) recomputeEtx() {
	ratio := l.deliveryRatio()
	instant := EtxMax
	if ratio > 0 {
		instant = clamp(1/ratio, EtxMin, EtxMax)
	}
	if l.windowFilled >= EtxBootstrapSamples {
		l.etx = EtxAlpha*instant + (1-EtxAlpha)*l.etx
	} else {
		l.etx = instant
	}
	l.etx = clamp(l.etx, EtxMin, EtxMax)
}

func (l *NeighborLink) snapshot() LinkSnapshot {
	return LinkSnapshot{
		Addr:          l.addr,
		Rssi:          l.rssi,
		Snr:           l.snr,
		Etx:           l.etx,
		WindowFilled:  l.windowFilled,
		DeliveryRatio: l.deliveryRatio(),
		Attempts:      l.attempts,
		Successes:     l.successes,
	}
}

// LinkTable is a bounded map of NeighborLink entries, created lazily on first
// observed traffic and LRU-evicted on overflow. It never persists; links are
// rebuilt from live traffic after a restart.
type LinkTable struct {
	mu     sync.Mutex
	cap    int
	window int
	links  map[Addr]*NeighborLink
}

func NewLinkTable() *LinkTable {
	return &LinkTable{
		cap:    MaxTrackedLinks,
		window: EtxWindowSize,
		links:  make(map[Addr]*NeighborLink),
	}
}

// get returns the entry for addr, creating it with documented defaults if
// missing. Caller holds t.mu.
func (t *LinkTable) get(addr Addr, now time.Time) *NeighborLink {
	l, ok := t.links[addr]
	if ok {
		return l
	}
	l = &NeighborLink{
		addr:       addr,
		rssi:       DefaultRssi,
		snr:        DefaultSnr,
		etx:        EtxDefault,
		window:     make([]bool, t.window),
		lastUpdate: now,
	}
	t.links[addr] = l
	t.evictOverflow()
	return l
}

// evictOverflow drops the entry with the oldest lastUpdate when the table
// exceeds capacity. Caller holds t.mu.
func (t *LinkTable) evictOverflow() {
	for len(t.links) > t.cap {
		var victim Addr
		var oldest time.Time
		first := true
		for addr, l := range t.links {
			if first || l.lastUpdate.Before(oldest) {
				victim = addr
				oldest = l.lastUpdate
				first = false
			}
		}
		delete(t.links, victim)
	}
}

// Observe folds one received frame into the sender's link estimates: signal
// EWMA plus sequence-gap ETX inference. Packet loss shows up as a worse ETX,
// never as an error.
func (t *LinkTable) Observe(obs Observation, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	l := t.get(obs.From, now)

	if obs.HasSignal {
		if !l.hasSignal {
			l.rssi = obs.Rssi
			l.snr = obs.Snr
			l.hasSignal = true
		} else {
			l.rssi = (1-SignalAlpha)*l.rssi + SignalAlpha*obs.Rssi
			l.snr = (1-SignalAlpha)*l.snr + SignalAlpha*obs.Snr
		}
	}

	switch {
	case !l.seqInit:
		l.push(true)
	case obs.Seq == l.lastSeq+1:
		l.push(true)
	case obs.Seq > l.lastSeq+1:
		// every skipped sequence number is an inferred loss
		gap := int(obs.Seq - (l.lastSeq + 1))
		if gap > len(l.window) {
			gap = len(l.window)
		}
		for i := 0; i < gap; i++ {
			l.push(false)
		}
		l.push(true)
	default:
		// duplicate or reordered frame, never penalized
		l.push(true)
	}
	l.seqInit = true
	l.lastSeq = obs.Seq

	l.recomputeEtx()
	l.lastUpdate = now
}

// Get returns the snapshot for addr, lazily creating a default entry. It
// never fails; unknown neighbours read as a median-quality link.
func (t *LinkTable) Get(addr Addr, now time.Time) LinkSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.get(addr, now).snapshot()
}

// Peek returns the snapshot for addr without creating an entry.
func (t *LinkTable) Peek(addr Addr) (LinkSnapshot, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	l, ok := t.links[addr]
	if !ok {
		return LinkSnapshot{}, false
	}
	return l.snapshot(), true
}

// Snapshots returns value copies of every tracked link.
func (t *LinkTable) Snapshots() []LinkSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]LinkSnapshot, 0, len(t.links))
	for _, l := range t.links {
		out = append(out, l.snapshot())
	}
	return out
}

func (t *LinkTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.links)
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
