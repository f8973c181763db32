package lobby

import (
	"context"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Close reasons carried by the lobbyClosed notification.
const (
	ReasonHostLeft   = "host left"
	ReasonHostClosed = "host closed"
	ReasonEmpty      = "lobby empty"
	ReasonShutdown   = "server shutdown"
)

// Notifier pushes derived views to the live connections of a lobby and owns
// the connection-to-lobby binding. Calls made while the per-lobby region is
// held must only enqueue, never wait on transport.
type Notifier interface {
	JoinRoom(lobbyID, connID string)
	LeaveRoom(lobbyID, connID string)
	ActiveLobby(connID string) (string, bool)

	RosterUpdate(lobbyID string, roster []string)
	MessageDelivered(lobbyID string, msg Message)
	// LobbyClosed delivers the closure notice to every joined connection,
	// then evicts them all and clears their bindings.
	LobbyClosed(lobbyID, reason string)
}

// DirectoryNotifier tells directory subscribers that listings for a
// class/school pair went stale.
type DirectoryNotifier interface {
	DirectoryChanged(className, school string)
}

// ClosedSession is the audit record handed to the archive when a lobby
// closes. Message bodies are not part of it; only the count survives.
type ClosedSession struct {
	LobbyID      string
	Name         string
	ClassName    string
	School       string
	Host         string
	MaxUsers     int
	PeakMembers  int
	MessageCount int
	OpenedAt     time.Time
	ClosedAt     time.Time
	CloseReason  string
}

// Archiver persists closed-session records. Must not block the caller.
type Archiver interface {
	SessionClosed(rec ClosedSession)
}

type ILobbyService interface {
	// CreateLobby registers a lobby with the requester as host and first
	// member. connID may be empty (REST create); a non-empty connID is
	// joined to the new lobby immediately.
	CreateLobby(ctx context.Context, connID, host, name, className, school string, maxUsers int) (Summary, error)
	JoinLobby(ctx context.Context, connID, lobbyID, identity string) error
	LeaveLobby(ctx context.Context, connID, lobbyID, identity string) error
	SendMessage(ctx context.Context, connID, lobbyID, identity, text string) error
	CloseLobby(ctx context.Context, lobbyID, identity string) error
	GetLobby(ctx context.Context, lobbyID string) (Summary, error)
	ListLobbies(ctx context.Context, className, school string) []Summary
	// Shutdown force-closes every open lobby.
	Shutdown(ctx context.Context)
}

var _ ILobbyService = (*lobbyService)(nil)

type lobbyService struct {
	store     *Store
	notifier  Notifier
	directory DirectoryNotifier
	archiver  Archiver
}

func NewLobbyService(store *Store, notifier Notifier, directory DirectoryNotifier, archiver Archiver) ILobbyService {
	return &lobbyService{
		store:     store,
		notifier:  notifier,
		directory: directory,
		archiver:  archiver,
	}
}

func (svc *lobbyService) CreateLobby(ctx context.Context, connID, host, name, className, school string, maxUsers int) (Summary, error) {
	lb, err := svc.store.Create(name, className, school, host, maxUsers)
	if err != nil {
		return Summary{}, err
	}

	lb.mu.Lock()
	if connID != "" {
		svc.notifier.JoinRoom(lb.id, connID)
		svc.notifier.RosterUpdate(lb.id, slices.Clone(lb.members))
	}
	sum := lb.summaryLocked()
	lb.mu.Unlock()

	svc.directory.DirectoryChanged(className, school)
	zap.L().Info("lobby_created",
		zap.String("lobby_id", sum.LobbyID),
		zap.String("host", host),
		zap.String("class", className),
		zap.String("school", school),
		zap.Int("max_users", maxUsers),
	)
	return sum, nil
}

func (svc *lobbyService) JoinLobby(ctx context.Context, connID, lobbyID, identity string) error {
	lb, err := svc.store.Get(lobbyID)
	if err != nil {
		return err
	}

	lb.mu.Lock()
	if lb.closed {
		lb.mu.Unlock()
		return ErrLobbyNotFound
	}

	joined := slices.Contains(lb.members, identity)
	if !joined {
		if len(lb.members) == lb.maxUsers {
			lb.mu.Unlock()
			return ErrLobbyFull
		}
		lb.members = append(lb.members, identity)
		if len(lb.members) > lb.peakMembers {
			lb.peakMembers = len(lb.members)
		}
	}

	// Rejoin of a present identity is a no-op membership-wise but still
	// binds the connection and re-pushes the roster.
	svc.notifier.JoinRoom(lobbyID, connID)
	svc.notifier.RosterUpdate(lobbyID, slices.Clone(lb.members))
	className, school := lb.className, lb.school
	lb.mu.Unlock()

	if !joined {
		svc.directory.DirectoryChanged(className, school)
	}
	zap.L().Debug("lobby_join",
		zap.String("lobby_id", lobbyID),
		zap.String("identity", identity),
		zap.Bool("rejoin", joined),
	)
	return nil
}

func (svc *lobbyService) LeaveLobby(ctx context.Context, connID, lobbyID, identity string) error {
	lb, err := svc.store.Get(lobbyID)
	if err != nil {
		// Races between disconnect cleanup and explicit leave are
		// expected; leaving a vanished lobby is not an error.
		svc.notifier.LeaveRoom(lobbyID, connID)
		return nil
	}

	lb.mu.Lock()
	if lb.closed {
		lb.mu.Unlock()
		svc.notifier.LeaveRoom(lobbyID, connID)
		return nil
	}

	idx := slices.Index(lb.members, identity)
	if idx < 0 {
		// Duplicate leave: drop the binding, no second roster broadcast.
		svc.notifier.LeaveRoom(lobbyID, connID)
		lb.mu.Unlock()
		return nil
	}

	lb.members = slices.Delete(lb.members, idx, idx+1)
	svc.notifier.LeaveRoom(lobbyID, connID)

	if identity == lb.host || len(lb.members) == 0 {
		reason := ReasonEmpty
		if identity == lb.host {
			reason = ReasonHostLeft
		}
		svc.closeLocked(lb, reason)
		lb.mu.Unlock()
		return nil
	}

	svc.notifier.RosterUpdate(lobbyID, slices.Clone(lb.members))
	className, school := lb.className, lb.school
	lb.mu.Unlock()

	svc.directory.DirectoryChanged(className, school)
	zap.L().Debug("lobby_leave",
		zap.String("lobby_id", lobbyID),
		zap.String("identity", identity),
	)
	return nil
}

func (svc *lobbyService) SendMessage(ctx context.Context, connID, lobbyID, identity, text string) error {
	// Whitespace-only input is dropped without surfacing anything.
	if strings.TrimSpace(text) == "" {
		return nil
	}

	if bound, ok := svc.notifier.ActiveLobby(connID); !ok || bound != lobbyID {
		return ErrNotAMember
	}

	lb, err := svc.store.Get(lobbyID)
	if err != nil {
		return err
	}

	lb.mu.Lock()
	if lb.closed {
		lb.mu.Unlock()
		return ErrLobbyNotFound
	}
	msg := Message{Username: identity, Text: text, Seq: len(lb.log) + 1}
	lb.log = append(lb.log, msg)
	svc.notifier.MessageDelivered(lobbyID, msg)
	lb.mu.Unlock()
	return nil
}

func (svc *lobbyService) CloseLobby(ctx context.Context, lobbyID, identity string) error {
	lb, err := svc.store.Get(lobbyID)
	if err != nil {
		// Closing an already-closed lobby id is a no-op.
		return nil
	}

	lb.mu.Lock()
	if lb.closed {
		lb.mu.Unlock()
		return nil
	}
	if identity != lb.host {
		lb.mu.Unlock()
		return ErrNotAMember
	}
	svc.closeLocked(lb, ReasonHostClosed)
	lb.mu.Unlock()
	return nil
}

func (svc *lobbyService) GetLobby(ctx context.Context, lobbyID string) (Summary, error) {
	lb, err := svc.store.Get(lobbyID)
	if err != nil {
		return Summary{}, err
	}
	lb.mu.Lock()
	defer lb.mu.Unlock()
	if lb.closed {
		return Summary{}, ErrLobbyNotFound
	}
	return lb.summaryLocked(), nil
}

func (svc *lobbyService) ListLobbies(ctx context.Context, className, school string) []Summary {
	return svc.store.ListByCourseAndSchool(className, school)
}

func (svc *lobbyService) Shutdown(ctx context.Context) {
	for _, lb := range svc.store.All() {
		lb.mu.Lock()
		if !lb.closed {
			svc.closeLocked(lb, ReasonShutdown)
		}
		lb.mu.Unlock()
	}
}

// closeLocked transitions the lobby to its terminal state. Must be called
// with lb.mu held. The closure notice is enqueued before the region is
// released, so an admitted joiner is guaranteed to receive it.
func (svc *lobbyService) closeLocked(lb *Lobby, reason string) {
	lb.closed = true
	svc.notifier.LobbyClosed(lb.id, reason)
	svc.store.Delete(lb.id)

	rec := ClosedSession{
		LobbyID:      lb.id,
		Name:         lb.name,
		ClassName:    lb.className,
		School:       lb.school,
		Host:         lb.host,
		MaxUsers:     lb.maxUsers,
		PeakMembers:  lb.peakMembers,
		MessageCount: len(lb.log),
		OpenedAt:     lb.openedAt,
		ClosedAt:     time.Now().UTC(),
		CloseReason:  reason,
	}
	lb.members = nil
	lb.log = nil

	svc.archiver.SessionClosed(rec)
	svc.directory.DirectoryChanged(lb.className, lb.school)
	zap.L().Info("lobby_closed",
		zap.String("lobby_id", lb.id),
		zap.String("reason", reason),
	)
}
