package core

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/xmesh-net/trellis/state"
)

func TestHelloTransmitsOncePerInterval(t *testing.T) {
	s, transport := newTestEnv(t, nil)
	h := Get[*Hello](s)

	// fresh timer with a known start so the poll loop is deterministic
	start := time.Unix(0, 0)
	h.timer = state.NewTrickleTimer(s.Trickle.IMin, s.Trickle.IMax, s.Trickle.K)
	h.timer.Start(start)
	h.lastTransmit = start

	// poll through the first interval second by second, as the tick task does;
	// the final poll sits just inside the interval so a transmit point in the
	// last second is still seen
	for i := 1; i < int(s.Trickle.IMin/time.Second); i++ {
		assert.NoError(t, h.tick(s, start.Add(time.Duration(i)*time.Second)))
	}
	assert.NoError(t, h.tick(s, start.Add(s.Trickle.IMin-time.Nanosecond)))
	assert.Len(t, transport.Sent(), 1)
}

func TestHelloSafetyOverride(t *testing.T) {
	s, transport := newTestEnv(t, nil)
	h := Get[*Hello](s)

	// silence past the safety interval forces a transmission even though the
	// trickle timer has not fired
	now := time.Now()
	h.lastTransmit = now.Add(-h.safety - time.Second)
	assert.NoError(t, h.tick(s, now))
	assert.Len(t, transport.Sent(), 1)
	// non-gateways always stamp the unknown load byte
	assert.Equal(t, state.LoadUnknown, transport.Sent()[0].GatewayLoad)
	assert.Equal(t, now, h.lastTransmit)
}

func TestHelloStampsGatewayLoad(t *testing.T) {
	s, transport := newTestEnv(t, func(cfg *state.LocalCfg) {
		cfg.Gateway = true
		cfg.Trickle.SafetyInterval = 60 * time.Second
	})
	h := Get[*Hello](s)
	g := Get[*GatewayLoads](s)

	// first forced transmission opens the sampling window
	now := time.Now()
	h.lastTransmit = now.Add(-2 * time.Minute)
	assert.NoError(t, h.tick(s, now))
	assert.Equal(t, state.LoadUnknown, transport.Sent()[0].GatewayLoad)

	// 80 packets over the next two minutes reads as 40 pkt/min
	for i := 0; i < 80; i++ {
		g.CountLocalPacket()
	}
	assert.NoError(t, h.tick(s, now.Add(2*time.Minute)))
	sent := transport.Sent()
	assert.Len(t, sent, 2)
	assert.EqualValues(t, 40, sent[1].GatewayLoad)
}

func TestHelloSendFailureRetries(t *testing.T) {
	s, transport := newTestEnv(t, nil)
	h := Get[*Hello](s)

	now := time.Now()
	h.lastTransmit = now.Add(-h.safety - time.Second)
	before := h.lastTransmit

	transport.FailSends(errors.New("radio busy"))
	assert.NoError(t, h.tick(s, now))
	assert.Empty(t, transport.Sent())
	// lastTransmit stays put, so the next tick forces again
	assert.Equal(t, before, h.lastTransmit)

	transport.FailSends(nil)
	assert.NoError(t, h.tick(s, now.Add(time.Second)))
	assert.Len(t, transport.Sent(), 1)
}

func TestHelloDisabled(t *testing.T) {
	s, transport := newTestEnv(t, func(cfg *state.LocalCfg) {
		cfg.Trickle.Disabled = true
	})
	h := Get[*Hello](s)

	assert.False(t, h.enabled)
	assert.NoError(t, h.tick(s, time.Now().Add(time.Hour)))
	assert.Empty(t, transport.Sent())
	h.ResetTrickle(s, "ignored")
	h.HeardConsistent()
	assert.Equal(t, state.TrickleStats{}, h.Stats())
	// the transport keeps its fixed-interval advertisements
	assert.False(t, transport.FixedDisabled())
}
