package state

import (
	"math/rand"
	"time"
)

type TricklePhase int

const (
	TrickleIdle TricklePhase = iota
	TrickleActive
	TrickleReset
)

func (p TricklePhase) String() string {
	switch p {
	case TrickleActive:
		return "active"
	case TrickleReset:
		return "reset"
	default:
		return "idle"
	}
}

type TrickleStats struct {
	Transmits    uint32
	Suppressions uint32
	Interval     time.Duration
}

// Efficiency is the fraction of decision points that were suppressed.
func (st TrickleStats) Efficiency() float64 {
	total := st.Transmits + st.Suppressions
	if total == 0 {
		return 0
	}
	return float64(st.Suppressions) / float64(total)
}

// TrickleTimer decides when the node's own advertisement is due, doubling its
// interval while the neighbourhood is consistent and collapsing back to iMin
// on any inconsistency (RFC 6206 style). Not safe for concurrent use; all
// calls happen on the dispatch goroutine.
type TrickleTimer struct {
	imin, imax time.Duration
	k          int

	icur            time.Duration
	intervalStart   time.Time
	nextTransmit    time.Time
	fired           bool
	consistentHeard int
	transmits       uint32
	suppressions    uint32
	phase           TricklePhase

	// jitter draws a random duration in [0, max); replaced in tests
	jitter func(max time.Duration) time.Duration
}

func NewTrickleTimer(imin, imax time.Duration, k int) *TrickleTimer {
	return &TrickleTimer{
		imin: imin,
		imax: imax,
		k:    k,
		icur: imin,
		jitter: func(max time.Duration) time.Duration {
			return time.Duration(rand.Int63n(int64(max)))
		},
	}
}

func (t *TrickleTimer) Start(now time.Time) {
	if t.phase != TrickleIdle {
		return
	}
	t.phase = TrickleActive
	t.icur = t.imin
	t.reschedule(now)
}

// Reset collapses the interval to iMin on a detected inconsistency. Resetting
// while already at iMin in the reset phase only clears the heard counter, so
// repeated upstream signals cannot push the transmit point out forever.
func (t *TrickleTimer) Reset(now time.Time) {
	if t.phase == TrickleIdle {
		return
	}
	t.consistentHeard = 0
	if t.phase == TrickleReset && t.icur == t.imin {
		return
	}
	t.phase = TrickleReset
	t.icur = t.imin
	t.reschedule(now)
}

// HeardConsistent records one accepted advertisement heard from any neighbour
// during the current interval.
func (t *TrickleTimer) HeardConsistent() {
	if t.phase == TrickleIdle {
		return
	}
	t.consistentHeard++
}

// ShouldTransmit is polled about once per second. It returns true at most
// once per interval, at the randomized decision point, and only when fewer
// than k consistent advertisements were heard this interval.
func (t *TrickleTimer) ShouldTransmit(now time.Time) bool {
	if t.phase == TrickleIdle {
		return false
	}
	if now.Sub(t.intervalStart) >= t.icur {
		// the transmit decision belongs to the new interval
		t.expire(now)
		return false
	}
	if t.fired || now.Before(t.nextTransmit) {
		return false
	}
	t.fired = true
	if t.consistentHeard >= t.k {
		t.suppressions++
		return false
	}
	t.transmits++
	return true
}

// expire doubles the interval, clamped at iMax, and starts a fresh one.
func (t *TrickleTimer) expire(now time.Time) {
	t.icur = min(2*t.icur, t.imax)
	t.consistentHeard = 0
	t.phase = TrickleActive
	t.reschedule(now)
}

// reschedule picks a random transmit point in [icur/2, icur).
func (t *TrickleTimer) reschedule(now time.Time) {
	t.intervalStart = now
	half := t.icur / 2
	t.nextTransmit = now.Add(half + t.jitter(half))
	t.fired = false
}

func (t *TrickleTimer) Interval() time.Duration {
	return t.icur
}

func (t *TrickleTimer) Phase() TricklePhase {
	return t.phase
}

func (t *TrickleTimer) ConsistentHeard() int {
	return t.consistentHeard
}

func (t *TrickleTimer) Stats() TrickleStats {
	return TrickleStats{
		Transmits:    t.transmits,
		Suppressions: t.suppressions,
		Interval:     t.icur,
	}
}
