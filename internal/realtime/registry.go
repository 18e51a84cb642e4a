package realtime

import "sync"

// registry owns the set of live connections, keyed by connection id. It knows
// nothing about rooms; removal of room memberships on disconnect is the hub's
// responsibility, so the two concerns stay independently testable.
type registry struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

func newRegistry() *registry {
	return &registry{
		clients: make(map[string]*Client),
	}
}

// register records a client under its connection id.
func (r *registry) register(c *Client) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[c.id] = c
	return c.id
}

// get looks a client up by connection id.
func (r *registry) get(id string) (*Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[id]
	if !ok {
		return nil, ErrClientNotFound
	}
	return c, nil
}

// remove drops a client from the registry. Removing an unknown id is a no-op.
func (r *registry) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, id)
}

func (r *registry) count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// snapshot returns all live clients, for shutdown.
func (r *registry) snapshot() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Client, 0, len(r.clients))
	for _, c := range r.clients {
		out = append(out, c)
	}
	return out
}
