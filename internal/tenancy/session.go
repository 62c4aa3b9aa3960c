package tenancy

import (
	"context"
	"net/url"
	"sync"

	"github.com/nt8816/bibliotecai-core/internal/domain"
)

// State is the observable lifecycle of one resolution pass: Loading is true
// from begin until exactly one terminal outcome (Tenant populated, or Err
// set for tenant hosts) is applied.
type State struct {
	Loading   bool
	Mode      Mode
	Subdomain string
	Tenant    *domain.Tenant
	Err       string
}

// Session owns the resolution state for one page load. Each call to Resolve
// starts a new generation; a result belonging to an older generation, or
// arriving after Close, is dropped so a stale async outcome never overwrites
// newer state.
type Session struct {
	resolver *Resolver

	mu     sync.Mutex
	gen    uint64
	closed bool
	state  State
}

func NewSession(resolver *Resolver) *Session {
	return &Session{resolver: resolver}
}

// Resolve runs one resolution pass and returns the resulting state. Safe for
// concurrent use; only the most recently started pass may publish its result.
func (s *Session) Resolve(ctx context.Context, host string, query url.Values) State {
	gen := s.begin()
	res := s.resolver.Resolve(ctx, host, query)
	s.complete(gen, res)
	return s.State()
}

// State returns a snapshot of the current session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Close tears the session down; any in-flight resolution result is discarded.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *Session) begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.state = State{Loading: true}
	return s.gen
}

// complete applies a terminal outcome. Returns false when the result was
// stale (superseded generation or closed session) and therefore dropped.
func (s *Session) complete(gen uint64, res *Resolution) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || gen != s.gen {
		return false
	}

	s.state = State{
		Loading:   false,
		Mode:      res.Mode,
		Subdomain: res.Subdomain,
		Tenant:    res.Tenant,
		Err:       res.Err,
	}
	return true
}
