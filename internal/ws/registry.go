package ws

import "sync"

// Registry tracks every live connection and the identity bound to it.
// It holds no lobby state; rooms are the Hub's concern.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]*clientConn
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]*clientConn)}
}

func (r *Registry) register(c *clientConn) {
	r.mu.Lock()
	r.conns[c.id] = c
	r.mu.Unlock()
}

// unregister removes the entry and reports the connection, if any. Unknown
// ids are a silent no-op; disconnect and explicit leave race routinely.
func (r *Registry) unregister(connID string) *clientConn {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conns[connID]
	if !ok {
		return nil
	}
	delete(r.conns, connID)
	return c
}

func (r *Registry) get(connID string) (*clientConn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[connID]
	return c, ok
}

func (r *Registry) count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
