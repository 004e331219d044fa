package core

import (
	"reflect"

	"github.com/xmesh-net/trellis/state"
)

func Get[T state.TlModule](s *state.State) T {
	t := reflect.TypeOf((*T)(nil)).Elem()
	return s.Modules[t.String()].(T)
}
