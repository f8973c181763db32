package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10 // must be < pongWait
	maxMessageSize = 4096

	// Outbound frames are enqueued while a lobby's region is held, so the
	// buffer absorbs bursts; a reader that can't keep up gets dropped.
	sendBuffer = 32
)

// clientConn is one live duplex channel. Notifications are enqueued on send
// and written by the writePump goroutine, which keeps broadcasters from ever
// blocking on transport I/O.
type clientConn struct {
	id       string
	identity string
	rawConn  *websocket.Conn

	send chan []byte
	quit chan struct{}
	once sync.Once

	mu          sync.Mutex
	activeLobby string
}

func newClientConn(id, identity string, rawConn *websocket.Conn) *clientConn {
	return &clientConn{
		id:       id,
		identity: identity,
		rawConn:  rawConn,
		send:     make(chan []byte, sendBuffer),
		quit:     make(chan struct{}),
	}
}

func (c *clientConn) bind(lobbyID string) {
	c.mu.Lock()
	c.activeLobby = lobbyID
	c.mu.Unlock()
}

// unbind clears the binding only if it still points at lobbyID, so a stale
// teardown can't clobber a newer join.
func (c *clientConn) unbind(lobbyID string) {
	c.mu.Lock()
	if c.activeLobby == lobbyID {
		c.activeLobby = ""
	}
	c.mu.Unlock()
}

func (c *clientConn) boundLobby() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeLobby
}

// enqueue queues an already-marshalled envelope. A full buffer means the
// peer stopped reading; the connection is torn down rather than blocking
// the broadcast path.
func (c *clientConn) enqueue(payload []byte) {
	select {
	case c.send <- payload:
	case <-c.quit:
	default:
		zap.L().Warn("ws.slow_consumer_dropped",
			zap.String("conn_id", c.id),
			zap.String("identity", c.identity),
		)
		c.shutdown()
	}
}

func (c *clientConn) enqueueJSON(event string, body any) {
	payload, err := marshalEnvelope(event, body)
	if err != nil {
		return
	}
	c.enqueue(payload)
}

// shutdown is safe to call from any goroutine, any number of times.
func (c *clientConn) shutdown() {
	c.once.Do(func() {
		close(c.quit)
		_ = c.rawConn.Close()
	})
}

// writePump owns all writes on the raw connection, including pings.
func (c *clientConn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.shutdown()
	}()

	for {
		select {
		case <-c.quit:
			return
		case payload := <-c.send:
			_ = c.rawConn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.rawConn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.rawConn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.rawConn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
