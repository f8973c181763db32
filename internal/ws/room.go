package ws

import "sync"

// room is the set of connections currently joined to one lobby.
type room struct {
	mu    sync.Mutex
	conns map[*clientConn]struct{}
}

func newRoom() *room { return &room{conns: map[*clientConn]struct{}{}} }

func (r *room) add(c *clientConn) {
	r.mu.Lock()
	r.conns[c] = struct{}{}
	r.mu.Unlock()
}

func (r *room) remove(c *clientConn) {
	r.mu.Lock()
	delete(r.conns, c)
	r.mu.Unlock()
}

// broadcast enqueues the payload on every joined connection. Enqueueing
// never blocks, so callers may hold a lobby region across this.
func (r *room) broadcast(payload []byte) {
	r.mu.Lock()
	for c := range r.conns {
		c.enqueue(payload)
	}
	r.mu.Unlock()
}

// drain delivers a final payload, clears every member's binding to lobbyID
// and empties the set.
func (r *room) drain(lobbyID string, payload []byte) {
	r.mu.Lock()
	for c := range r.conns {
		c.enqueue(payload)
		c.unbind(lobbyID)
	}
	r.conns = map[*clientConn]struct{}{}
	r.mu.Unlock()
}
