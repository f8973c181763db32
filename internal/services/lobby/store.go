package lobby

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	MinUsers = 2
	MaxUsers = 4
)

// Message is an immutable entry of a lobby's session log. Seq is the
// position in append order, starting at 1.
type Message struct {
	Username string `json:"username"`
	Text     string `json:"text"`
	Seq      int    `json:"seq"`
}

// Summary is the read-only projection served to the lobby directory. It
// never carries the message log or the full member list.
type Summary struct {
	LobbyID      string `json:"lobbyId"`
	Name         string `json:"name"`
	ClassName    string `json:"className"`
	School       string `json:"school"`
	Host         string `json:"host"`
	MaxUsers     int    `json:"maxUsers"`
	CurrentUsers int    `json:"currentUsers"`
}

// Lobby is one open session. The zero-indexed member is the host; members
// keeps join order. All fields behind mu are written only while mu is held,
// and only by the service in this package.
type Lobby struct {
	mu sync.Mutex

	id        string
	name      string
	className string
	school    string
	host      string
	maxUsers  int

	members []string
	log     []Message

	peakMembers int
	openedAt    time.Time
	closed      bool
}

func (l *Lobby) ID() string { return l.id }

// summaryLocked must be called with l.mu held.
func (l *Lobby) summaryLocked() Summary {
	return Summary{
		LobbyID:      l.id,
		Name:         l.name,
		ClassName:    l.className,
		School:       l.school,
		Host:         l.host,
		MaxUsers:     l.maxUsers,
		CurrentUsers: len(l.members),
	}
}

// Store is the authoritative in-memory lobby table. The map is guarded by
// mu; each lobby carries its own mutex so traffic on one lobby never blocks
// another. Lock order is lobby first, store second (close deletes the map
// entry while the lobby region is held); nothing acquires a lobby mutex
// while holding store.mu.
type Store struct {
	mu         sync.RWMutex
	lobbies    map[string]*Lobby
	nameMaxLen int
}

func NewStore(nameMaxLen int) *Store {
	return &Store{
		lobbies:    make(map[string]*Lobby),
		nameMaxLen: nameMaxLen,
	}
}

// Create validates the configuration, generates an id and registers the
// lobby with the host as member #1.
func (s *Store) Create(name, className, school, host string, maxUsers int) (*Lobby, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidLobbyConfig)
	}
	if len(name) > s.nameMaxLen {
		return nil, fmt.Errorf("%w: name longer than %d characters", ErrInvalidLobbyConfig, s.nameMaxLen)
	}
	if maxUsers < MinUsers || maxUsers > MaxUsers {
		return nil, fmt.Errorf("%w: maxUsers must be between %d and %d", ErrInvalidLobbyConfig, MinUsers, MaxUsers)
	}

	lb := &Lobby{
		id:          uuid.NewString(),
		name:        name,
		className:   className,
		school:      school,
		host:        host,
		maxUsers:    maxUsers,
		members:     []string{host},
		peakMembers: 1,
		openedAt:    time.Now().UTC(),
	}

	s.mu.Lock()
	s.lobbies[lb.id] = lb
	s.mu.Unlock()
	return lb, nil
}

func (s *Store) Get(id string) (*Lobby, error) {
	s.mu.RLock()
	lb, ok := s.lobbies[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrLobbyNotFound
	}
	return lb, nil
}

// ListByCourseAndSchool snapshots the open lobbies for one class/school
// pair. Lobby mutexes are taken one at a time after the map snapshot, so a
// listing never holds the store lock while touching a lobby region.
func (s *Store) ListByCourseAndSchool(className, school string) []Summary {
	s.mu.RLock()
	candidates := make([]*Lobby, 0, len(s.lobbies))
	for _, lb := range s.lobbies {
		candidates = append(candidates, lb)
	}
	s.mu.RUnlock()

	out := make([]Summary, 0, len(candidates))
	for _, lb := range candidates {
		lb.mu.Lock()
		if !lb.closed && lb.className == className && lb.school == school {
			out = append(out, lb.summaryLocked())
		}
		lb.mu.Unlock()
	}
	return out
}

// All returns every registered lobby; used by the shutdown force-close.
func (s *Store) All() []*Lobby {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Lobby, 0, len(s.lobbies))
	for _, lb := range s.lobbies {
		out = append(out, lb)
	}
	return out
}

// Delete is idempotent; deleting an unknown id is a no-op.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	delete(s.lobbies, id)
	s.mu.Unlock()
}
