package ws

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistryRegisterAndUnregister(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()

	c := newClientConn("conn-1", "alice", nil)
	reg.register(c)
	req.Equal(1, reg.count())

	got, ok := reg.get("conn-1")
	req.True(ok)
	req.Same(c, got)

	req.Same(c, reg.unregister("conn-1"))
	req.Equal(0, reg.count())

	// Unknown ids are a silent no-op: disconnect and explicit leave race.
	req.Nil(reg.unregister("conn-1"))
	req.Nil(reg.unregister("never-seen"))
}

func TestClientConnBinding(t *testing.T) {
	req := require.New(t)
	c := newClientConn("conn-1", "alice", nil)

	req.Empty(c.boundLobby())
	c.bind("lobby-1")
	req.Equal("lobby-1", c.boundLobby())

	// A stale unbind for a previous lobby must not clobber a newer join.
	c.bind("lobby-2")
	c.unbind("lobby-1")
	req.Equal("lobby-2", c.boundLobby())

	c.unbind("lobby-2")
	req.Empty(c.boundLobby())
}
