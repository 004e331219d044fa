package state

import (
	"context"
	"log/slog"
	"sync/atomic"
)

type TlModule interface {
	Init(s *State) error
	Cleanup(s *State) error
}

// State access must be done only on the dispatch goroutine
type State struct {
	*Env
	Modules map[string]TlModule
	// Links is the per-neighbour link quality table. It carries its own lock
	// because the transport's cost callback and diagnostics read it from
	// foreign goroutines; all writes happen on the dispatch goroutine.
	Links *LinkTable
}

// Env can be read from any goroutine
type Env struct {
	DispatchChannel chan<- func(s *State) error
	LocalCfg
	Transport Transport
	Context   context.Context
	Cancel    context.CancelCauseFunc
	Log       *slog.Logger
	Started   atomic.Bool
	Stopping  atomic.Bool
}
