package ws

import "encoding/json"

// Client -> server intents. The set is closed: every intent is registered in
// registerHandlers and anything else is rejected as unknown_event.
const (
	IntentJoinLobby   = "joinLobby"
	IntentLeaveLobby  = "leaveLobby"
	IntentSendMessage = "sendMessage"
	IntentCreateLobby = "createLobby"
	IntentCloseLobby  = "closeLobby"
)

// Server -> client notifications.
const (
	EventUserList       = "userList"
	EventReceiveMessage = "receiveMessage"
	EventLobbyClosed    = "lobbyClosed"
	EventError          = "error"
)

// Envelope wraps every WS frame, both directions.
type Envelope struct {
	Event string          `json:"event"`
	Body  json.RawMessage `json:"body,omitempty"`
}

// ──────────────────────────── Request / Response DTOs ─────────────────────────

type JoinLobbyRequest struct {
	LobbyID string `json:"lobbyId"`
}

type LeaveLobbyRequest struct {
	LobbyID string `json:"lobbyId"`
}

type SendMessageRequest struct {
	LobbyID string `json:"lobbyId"`
	Message string `json:"message"`
}

type CreateLobbyRequest struct {
	Name      string `json:"name"`
	ClassName string `json:"className"`
	School    string `json:"school"`
	MaxUsers  int    `json:"maxUsers"`
}

type CloseLobbyRequest struct {
	LobbyID string `json:"lobbyId"`
}

// LobbyClosedBody is pushed to every joined connection when a lobby ends.
type LobbyClosedBody struct {
	LobbyID string `json:"lobbyId"`
	Reason  string `json:"reason"`
}

// Empty ACK body (useful for most intent handlers).
type AckBody struct{}

// ErrorBody is returned for failures.
type ErrorBody struct {
	Error string `json:"error"`
}
