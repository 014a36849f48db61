package hub

import (
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Subscriber is one registry entry returned by Snapshot.
type Subscriber struct {
	ParticipantId uuid.UUID
	Client        *Client
}

// Registry is the single source of truth for which transports are live. It is
// keyed by (room, participant): at most one connection per pair, a new
// registration supersedes the old one. The registry holds no business logic
// and no persistence.
type Registry struct {
	mu    sync.RWMutex
	rooms map[uuid.UUID]map[uuid.UUID]*Client
}

func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[uuid.UUID]map[uuid.UUID]*Client),
	}
}

// Register upserts the client for (room, participant) and returns the
// superseded client, if any. Closing the superseded transport is the caller's
// decision, not the registry's.
func (r *Registry) Register(roomId, participantId uuid.UUID, c *Client) *Client {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomId]
	if !ok {
		room = make(map[uuid.UUID]*Client)
		r.rooms[roomId] = room
	}

	prev := room[participantId]
	room[participantId] = c

	return prev
}

// Unregister removes the entry for (room, participant) only if it still
// belongs to the given session. A stale unregister from a superseded
// connection must not delete its replacement. Removing the last entry drops
// the room bucket.
func (r *Registry) Unregister(roomId, participantId uuid.UUID, session string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomId]
	if !ok {
		return false
	}

	c, ok := room[participantId]
	if !ok || c.session != session {
		return false
	}

	delete(room, participantId)
	if len(room) == 0 {
		delete(r.rooms, roomId)
	}

	return true
}

// Snapshot returns a copy of the room's entries ordered by participant id.
// The copy is safe to iterate while registrations change underneath it.
func (r *Registry) Snapshot(roomId uuid.UUID) []Subscriber {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room := r.rooms[roomId]
	subs := make([]Subscriber, 0, len(room))
	for id, c := range room {
		subs = append(subs, Subscriber{ParticipantId: id, Client: c})
	}

	sort.Slice(subs, func(i, j int) bool {
		return subs[i].ParticipantId.String() < subs[j].ParticipantId.String()
	})

	return subs
}

// IsConnected reports whether the participant has a live transport in the room.
func (r *Registry) IsConnected(roomId, participantId uuid.UUID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.rooms[roomId][participantId]
	return ok
}

// RoomSize returns the number of live transports in the room.
func (r *Registry) RoomSize(roomId uuid.UUID) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.rooms[roomId])
}

// NumRooms returns the number of rooms with at least one live transport.
func (r *Registry) NumRooms() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.rooms)
}

// Clients returns every registered client across all rooms.
func (r *Registry) Clients() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var clients []*Client
	for _, room := range r.rooms {
		for _, c := range room {
			clients = append(clients, c)
		}
	}

	return clients
}
