package core

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/xmesh-net/trellis/state"
)

// newTestEnv builds a fully initialized state over a MockTransport without
// running the main loop, so tests can invoke module logic directly with
// fabricated clocks.
func newTestEnv(t *testing.T, mutate func(cfg *state.LocalCfg)) (*state.State, *MockTransport) {
	t.Helper()

	cfg := state.LocalCfg{Id: "test-node"}
	state.ExpandLocalConfig(&cfg)
	if mutate != nil {
		mutate(&cfg)
	}

	transport := NewMockTransport(0x0001)
	ctx, cancel := context.WithCancelCause(context.Background())
	s := &state.State{
		Modules: make(map[string]state.TlModule),
		Links:   state.NewLinkTable(),
		Env: &state.Env{
			Context:         ctx,
			Cancel:          cancel,
			DispatchChannel: make(chan func(*state.State) error, 128),
			LocalCfg:        cfg,
			Transport:       transport,
			Log:             slog.New(slog.NewTextHandler(io.Discard, nil)),
		},
	}
	if err := initModules(s); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		Stop(s)
	})
	return s, transport
}
