package core

import (
	"sync"

	"github.com/xmesh-net/trellis/state"
)

// MockTransport is an in-memory state.Transport for tests and simulation. It
// keeps a routing table that tests populate directly and records everything
// the control layer asks it to do.
type MockTransport struct {
	mu sync.Mutex

	addr   state.Addr
	routes map[state.Addr]state.RouteEntry

	costFn   state.CostFunc
	advHook  func(state.Observation)
	dataHook func(state.Observation)

	fixedDisabled bool
	sent          []state.Advertisement
	removed       []state.Addr
	sendErr       error
}

func NewMockTransport(addr state.Addr) *MockTransport {
	return &MockTransport{
		addr:   addr,
		routes: make(map[state.Addr]state.RouteEntry),
	}
}

func (m *MockTransport) LocalAddr() state.Addr {
	return m.addr
}

func (m *MockTransport) RoutingSnapshot() []state.RouteEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]state.RouteEntry, 0, len(m.routes))
	for _, e := range m.routes {
		out = append(out, e)
	}
	return out
}

func (m *MockTransport) RegisterCostFunction(fn state.CostFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.costFn = fn
}

func (m *MockTransport) RegisterAdvertisementHook(fn func(state.Observation)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.advHook = fn
}

func (m *MockTransport) RegisterDataHook(fn func(state.Observation)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dataHook = fn
}

func (m *MockTransport) DisableFixedAdvertisements() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fixedDisabled = true
}

func (m *MockTransport) SendAdvertisement(adv state.Advertisement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, adv)
	return nil
}

func (m *MockTransport) RemoveRoute(addr state.Addr) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.routes, addr)
	m.removed = append(m.removed, addr)
}

// SetRoute inserts or replaces a routing-table entry.
func (m *MockTransport) SetRoute(e state.RouteEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes[e.Address] = e
}

// FailSends makes SendAdvertisement return err until called with nil.
func (m *MockTransport) FailSends(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sendErr = err
}

// DeliverAdvertisement feeds an observation into the advertisement hook, as
// the real transport would on frame receipt.
func (m *MockTransport) DeliverAdvertisement(obs state.Observation) {
	m.mu.Lock()
	hook := m.advHook
	m.mu.Unlock()
	if hook != nil {
		hook(obs)
	}
}

// DeliverData feeds an observation into the data hook.
func (m *MockTransport) DeliverData(obs state.Observation) {
	m.mu.Lock()
	hook := m.dataHook
	m.mu.Unlock()
	if hook != nil {
		hook(obs)
	}
}

// Cost invokes the registered cost function, as the transport's next-hop
// selection would.
func (m *MockTransport) Cost(hops uint8, via, dest state.Addr) float64 {
	m.mu.Lock()
	fn := m.costFn
	m.mu.Unlock()
	if fn == nil {
		return float64(hops)
	}
	return fn(hops, via, dest)
}

// Sent returns a copy of every advertisement sent so far.
func (m *MockTransport) Sent() []state.Advertisement {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]state.Advertisement, len(m.sent))
	copy(out, m.sent)
	return out
}

// Removed returns a copy of every address removed so far.
func (m *MockTransport) Removed() []state.Addr {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]state.Addr, len(m.removed))
	copy(out, m.removed)
	return out
}

// FixedDisabled reports whether the fixed advertisement task was switched off.
func (m *MockTransport) FixedDisabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fixedDisabled
}
