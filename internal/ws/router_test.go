package ws

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRouterDispatchTyped(t *testing.T) {
	req := require.New(t)
	r := NewRouter()

	Register(r, "echo", func(ctx context.Context, c *ConnContext, in SendMessageRequest) (SendMessageRequest, error) {
		req.Equal("conn-1", c.ConnID)
		return in, nil
	})

	body, _ := json.Marshal(SendMessageRequest{LobbyID: "l1", Message: "hi"})
	res, err := r.dispatch(context.Background(), &ConnContext{ConnID: "conn-1"}, Envelope{Event: "echo", Body: body})
	req.NoError(err)
	req.Equal(SendMessageRequest{LobbyID: "l1", Message: "hi"}, res)
}

func TestRouterDispatchEmptyBody(t *testing.T) {
	r := NewRouter()
	Register(r, "ping", func(ctx context.Context, c *ConnContext, _ AckBody) (AckBody, error) {
		return AckBody{}, nil
	})

	_, err := r.dispatch(context.Background(), &ConnContext{}, Envelope{Event: "ping"})
	require.NoError(t, err)
}

func TestRouterUnknownIntent(t *testing.T) {
	r := NewRouter()
	_, err := r.dispatch(context.Background(), &ConnContext{}, Envelope{Event: "teleport"})
	require.EqualError(t, err, "unknown_event")
}

func TestRouterMalformedBody(t *testing.T) {
	r := NewRouter()
	Register(r, "join", func(ctx context.Context, c *ConnContext, _ JoinLobbyRequest) (AckBody, error) {
		return AckBody{}, nil
	})

	_, err := r.dispatch(context.Background(), &ConnContext{}, Envelope{Event: "join", Body: json.RawMessage(`{`)})
	require.Error(t, err)
}
