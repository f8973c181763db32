package lobby

import "errors"

var (
	ErrInvalidLobbyConfig = errors.New("invalid lobby config")
	ErrLobbyNotFound      = errors.New("lobby not found")
	ErrLobbyFull          = errors.New("lobby full")
	ErrNotAMember         = errors.New("not a member of this lobby")
)
