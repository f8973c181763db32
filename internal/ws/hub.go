package ws

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"studylobby/internal/services/lobby"
)

// Hub keeps the per-lobby connection sets and implements lobby.Notifier for
// the coordinator. All notification methods only enqueue; transport waits
// happen in each connection's writePump.
type Hub struct {
	registry *Registry
	rooms    sync.Map // lobbyID -> *room
}

var _ lobby.Notifier = (*Hub)(nil)

func NewHub(registry *Registry) *Hub {
	return &Hub{registry: registry}
}

func (h *Hub) JoinRoom(lobbyID, connID string) {
	c, ok := h.registry.get(connID)
	if !ok {
		return
	}
	r, _ := h.rooms.LoadOrStore(lobbyID, newRoom())
	r.(*room).add(c)
	c.bind(lobbyID)
}

func (h *Hub) LeaveRoom(lobbyID, connID string) {
	c, ok := h.registry.get(connID)
	if !ok {
		return
	}
	if v, ok := h.rooms.Load(lobbyID); ok {
		v.(*room).remove(c)
	}
	c.unbind(lobbyID)
}

func (h *Hub) ActiveLobby(connID string) (string, bool) {
	c, ok := h.registry.get(connID)
	if !ok {
		return "", false
	}
	bound := c.boundLobby()
	return bound, bound != ""
}

func (h *Hub) RosterUpdate(lobbyID string, roster []string) {
	h.broadcast(lobbyID, EventUserList, roster)
}

func (h *Hub) MessageDelivered(lobbyID string, msg lobby.Message) {
	h.broadcast(lobbyID, EventReceiveMessage, msg)
}

// LobbyClosed pushes the closure notice to everyone still joined, then
// evicts the whole room. The room entry is removed first, so connections
// racing in through a stale id find no room to join.
func (h *Hub) LobbyClosed(lobbyID, reason string) {
	payload, err := marshalEnvelope(EventLobbyClosed, LobbyClosedBody{LobbyID: lobbyID, Reason: reason})
	if err != nil {
		return
	}
	if v, ok := h.rooms.LoadAndDelete(lobbyID); ok {
		v.(*room).drain(lobbyID, payload)
	}
}

func (h *Hub) broadcast(lobbyID, event string, body any) {
	payload, err := marshalEnvelope(event, body)
	if err != nil {
		return
	}
	if v, ok := h.rooms.Load(lobbyID); ok {
		v.(*room).broadcast(payload)
	}
}

func marshalEnvelope(event string, body any) ([]byte, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		zap.L().Warn("ws.marshal_notification", zap.Error(err), zap.String("event", event))
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Body: raw})
}
