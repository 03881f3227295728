package transport

import (
	"fmt"
	"sync"

	"github.com/att/vrm/internal/ids"
)

// Registry is the process-wide id -> Proxy directory, a map guarded for
// reader-writer access.
type Registry struct {
	mu    sync.RWMutex
	procs map[ids.ComponentId]*Proxy
}

func NewRegistry() *Registry {
	return &Registry{procs: map[ids.ComponentId]*Proxy{}}
}

func (r *Registry) Register(p *Proxy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.procs[p.Id] = p
}

// Deregister removes a component, e.g. after a TransportError detects the
// peer is gone.
func (r *Registry) Deregister(id ids.ComponentId) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.procs, id)
}

func (r *Registry) Lookup(id ids.ComponentId) (*Proxy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.procs[id]
	if !ok {
		return nil, fmt.Errorf("transport: no component registered for id %s", id)
	}
	return p, nil
}
