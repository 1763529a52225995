package proxy

import (
	"math/rand/v2"
	"slices"
	"sync"
)

// Pool is the concurrency-safe collection of validated working proxies.
// Validation results populate it once; the cycle controller drains it via
// Evict as proxies fail in use.
type Pool struct {
	mu      sync.Mutex
	working []Validated
	failed  map[string]struct{}
}

// NewPool creates a pool over the given validated proxies.
func NewPool(validated []Validated) *Pool {
	return &Pool{
		working: slices.Clone(validated),
		failed:  make(map[string]struct{}),
	}
}

// Select returns a random working proxy address. The second return is
// false when the pool is empty; callers fall back to direct connections.
func (p *Pool) Select() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.working) == 0 {
		return "", false
	}
	return p.working[rand.IntN(len(p.working))].Address, true
}

// SelectFastest returns the lowest-latency working proxy address.
// The working set is kept in ascending RTT order by the validator.
func (p *Pool) SelectFastest() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.working) == 0 {
		return "", false
	}
	return p.working[0].Address, true
}

// Evict removes an address from the working set and records it as failed.
// Evicting an address not present is a no-op.
func (p *Pool) Evict(addr string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	before := len(p.working)
	p.working = slices.DeleteFunc(p.working, func(v Validated) bool {
		return v.Address == addr
	})
	if len(p.working) != before {
		p.failed[addr] = struct{}{}
	}
}

// Len returns the number of working proxies.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.working)
}

// Snapshot returns copies of the working and failed sets for persistence
// or diagnostics.
func (p *Pool) Snapshot() (working []Validated, failed []string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	working = slices.Clone(p.working)
	failed = make([]string, 0, len(p.failed))
	for addr := range p.failed {
		failed = append(failed, addr)
	}
	slices.Sort(failed)
	return working, failed
}
