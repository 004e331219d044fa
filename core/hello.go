package core

import (
	"time"

	"github.com/xmesh-net/trellis/perf"
	"github.com/xmesh-net/trellis/state"
)

// Hello owns the node's advertisement schedule. When the adaptive scheduler
// is enabled it polls the trickle timer about once per second and sends an
// advertisement whenever the timer fires, or unconditionally once a safety
// interval has passed without one, so silent nodes are never mistaken for
// dead ones. With trickle disabled the transport keeps its fixed-interval
// advertisements and this module stays inert.
type Hello struct {
	enabled      bool
	safety       time.Duration
	timer        *state.TrickleTimer
	lastTransmit time.Time
}

func (h *Hello) Init(s *state.State) error {
	if s.Trickle.Disabled {
		s.Log.Info("adaptive advertisement scheduler disabled, transport keeps fixed intervals")
		return nil
	}
	h.enabled = true
	h.safety = s.Trickle.SafetyInterval
	h.timer = state.NewTrickleTimer(s.Trickle.IMin, s.Trickle.IMax, s.Trickle.K)
	now := time.Now()
	h.timer.Start(now)
	h.lastTransmit = now
	s.Env.RepeatTask(helloTick, state.HelloPollDelay)
	return nil
}

func (h *Hello) Cleanup(s *state.State) error {
	return nil
}

func helloTick(s *state.State) error {
	return Get[*Hello](s).tick(s, time.Now())
}

func (h *Hello) tick(s *state.State, now time.Time) error {
	if !h.enabled {
		return nil
	}
	force := now.Sub(h.lastTransmit) > h.safety
	if !h.timer.ShouldTransmit(now) && !force {
		return nil
	}
	load := Get[*GatewayLoads](s).SampleForAdvertisement(now)
	err := s.Transport.SendAdvertisement(state.Advertisement{GatewayLoad: load})
	if err != nil {
		// transient radio failure; the next interval retries
		s.Log.Warn("failed to send advertisement", "error", err)
		return nil
	}
	h.lastTransmit = now
	perf.HelloSent.Add(1)
	if force {
		perf.SafetyHellos.Add(1)
		s.Log.Debug("safety advertisement sent", "interval", h.timer.Interval())
	}
	return nil
}

// ResetTrickle collapses the advertisement interval to iMin in response to a
// detected inconsistency. Dispatch goroutine only.
func (h *Hello) ResetTrickle(s *state.State, reason string) {
	if !h.enabled {
		return
	}
	perf.TrickleResets.Add(1)
	s.Log.Debug("trickle reset", "reason", reason, "interval", h.timer.Interval())
	h.timer.Reset(time.Now())
}

// HeardConsistent forwards a consistent-advertisement signal to the timer.
func (h *Hello) HeardConsistent() {
	if !h.enabled {
		return
	}
	h.timer.HeardConsistent()
}

// Stats exposes the scheduler's transmit/suppression counters.
func (h *Hello) Stats() state.TrickleStats {
	if !h.enabled {
		return state.TrickleStats{}
	}
	return h.timer.Stats()
}
