package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"studylobby/internal/auth"
	"studylobby/internal/services/lobby"
)

const dispatchTimeout = 1900 * time.Millisecond

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true }, // dev-only
}

type WsServer struct {
	registry *Registry
	hub      *Hub
	router   *Router
	verifier *auth.Verifier
	lobbySvc lobby.ILobbyService
}

func NewWsServer(registry *Registry, hub *Hub, verifier *auth.Verifier, lobbySvc lobby.ILobbyService) *WsServer {
	srv := &WsServer{
		registry: registry,
		hub:      hub,
		router:   NewRouter(),
		verifier: verifier,
		lobbySvc: lobbySvc,
	}
	srv.registerHandlers() // ← all WS intents configured here
	return srv
}

// ---------------------------------------------------------------------------
//  Public: Gin entry-point
// ---------------------------------------------------------------------------

// Handle upgrades GET /ws?token=<jwt>. Identity is resolved before the
// upgrade; intents never carry a username the server would trust.
func (s *WsServer) Handle(ginCtx *gin.Context) {
	token := ginCtx.Query("token")
	if token == "" {
		token = auth.FromAuthHeader(ginCtx.GetHeader("Authorization"))
	}
	identity, err := s.verifier.Identity(token)
	if err != nil {
		ginCtx.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	rawConn, err := upgrader.Upgrade(ginCtx.Writer, ginCtx.Request, nil)
	if err != nil {
		zap.L().Warn("ws.upgrade", zap.Error(err))
		return
	}

	conn := newClientConn(uuid.NewString(), identity, rawConn)
	s.registry.register(conn)
	zap.L().Debug("ws.connected",
		zap.String("conn_id", conn.id),
		zap.String("identity", identity),
	)

	go conn.writePump()
	go s.reader(conn)
}

// ---------------------------------------------------------------------------
//  Private helpers
// ---------------------------------------------------------------------------

func (s *WsServer) registerHandlers() {
	Register(s.router, IntentJoinLobby,
		func(ctx context.Context, cc *ConnContext, req JoinLobbyRequest) (AckBody, error) {
			// One lobby per connection: joining elsewhere leaves first.
			if prev, ok := s.hub.ActiveLobby(cc.ConnID); ok && prev != req.LobbyID {
				_ = s.lobbySvc.LeaveLobby(ctx, cc.ConnID, prev, cc.Identity)
			}
			return AckBody{}, s.lobbySvc.JoinLobby(ctx, cc.ConnID, req.LobbyID, cc.Identity)
		},
	)

	Register(s.router, IntentLeaveLobby,
		func(ctx context.Context, cc *ConnContext, req LeaveLobbyRequest) (AckBody, error) {
			return AckBody{}, s.lobbySvc.LeaveLobby(ctx, cc.ConnID, req.LobbyID, cc.Identity)
		},
	)

	Register(s.router, IntentSendMessage,
		func(ctx context.Context, cc *ConnContext, req SendMessageRequest) (AckBody, error) {
			return AckBody{}, s.lobbySvc.SendMessage(ctx, cc.ConnID, req.LobbyID, cc.Identity, req.Message)
		},
	)

	Register(s.router, IntentCreateLobby,
		func(ctx context.Context, cc *ConnContext, req CreateLobbyRequest) (lobby.Summary, error) {
			if prev, ok := s.hub.ActiveLobby(cc.ConnID); ok {
				_ = s.lobbySvc.LeaveLobby(ctx, cc.ConnID, prev, cc.Identity)
			}
			return s.lobbySvc.CreateLobby(ctx, cc.ConnID, cc.Identity, req.Name, req.ClassName, req.School, req.MaxUsers)
		},
	)

	Register(s.router, IntentCloseLobby,
		func(ctx context.Context, cc *ConnContext, req CloseLobbyRequest) (AckBody, error) {
			return AckBody{}, s.lobbySvc.CloseLobby(ctx, req.LobbyID, cc.Identity)
		},
	)
}

func (s *WsServer) reader(conn *clientConn) {
	defer func() {
		// Channel close degrades to an implicit leave; LeaveLobby is
		// idempotent, so racing with an explicit leave is harmless.
		if bound := conn.boundLobby(); bound != "" {
			_ = s.lobbySvc.LeaveLobby(context.Background(), conn.id, bound, conn.identity)
		}
		s.registry.unregister(conn.id)
		conn.shutdown()
		zap.L().Debug("ws.disconnected", zap.String("conn_id", conn.id))
	}()

	conn.rawConn.SetReadLimit(maxMessageSize)
	_ = conn.rawConn.SetReadDeadline(time.Now().Add(pongWait))
	conn.rawConn.SetPongHandler(func(string) error {
		return conn.rawConn.SetReadDeadline(time.Now().Add(pongWait))
	})

	cc := &ConnContext{ConnID: conn.id, Identity: conn.identity}

	for {
		_, data, err := conn.rawConn.ReadMessage()
		if err != nil {
			return // client closed or errored
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			conn.enqueueJSON(EventError, ErrorBody{Error: "malformed_envelope"})
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		res, err := s.router.dispatch(ctx, cc, env)
		cancel()

		// ---- error -> {"event":"error", "body":{...}} ---------------
		if err != nil {
			conn.enqueueJSON(EventError, ErrorBody{Error: err.Error()})
			continue
		}

		// ---- success -> {"event":"<evt>-ack", "body":{...}} --------
		conn.enqueueJSON(env.Event+"-ack", res)
	}
}
