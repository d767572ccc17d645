package runtime

import (
	"sync"

	"fable-lab/contract"
	"fable-lab/domain"
)

type Set map[string]struct{}

type Registry struct {
	mu          sync.RWMutex
	sessions    map[string]contract.EventSink // map session -> Sink
	roomMembers map[domain.RoomID]Set         // map room to sessions
}

func NewRegistry() *Registry {
	return &Registry{
		sessions:    make(map[string]contract.EventSink),
		roomMembers: make(map[domain.RoomID]Set),
	}
}

// GetSinksForRoom retrieves all active communication channels for a specific room.
// It performs a two-step lookup:
// 1. Identifies session IDs associated with the room via roomMembers.
// 2. Resolves those IDs into actual EventSinks using the sessions map.
//
// This decoupled approach ensures that even if a session is in multiple rooms,
// their connection (Sink) is managed in a single place.
// Returns nil if the room doesn't exist or has no members.
func (r *Registry) GetSinksForRoom(roomID domain.RoomID) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.roomMembers[roomID]
	if !ok {
		return nil
	}
	var activeSinks []contract.EventSink
	for sessionID := range members {
		if sink, exists := r.sessions[sessionID]; exists {
			activeSinks = append(activeSinks, sink)
		}
	}
	return activeSinks
}

// AllSinks returns every connected sink regardless of room membership.
// Lobby-wide events like room list updates go through here.
func (r *Registry) AllSinks() []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sinks := make([]contract.EventSink, 0, len(r.sessions))
	for _, sink := range r.sessions {
		sinks = append(sinks, sink)
	}
	return sinks
}

// GetSinkForSession resolves a single session's connection, for events
// addressed to one client such as a kick notification.
func (r *Registry) GetSinkForSession(sessionID string) (contract.EventSink, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sink, ok := r.sessions[sessionID]
	return sink, ok
}

// Subscribe registers a session's active connection and assigns it to a specific room.
// If the room does not yet exist in the registry, it is initialized on the fly.
func (r *Registry) Subscribe(sessionID string, roomID domain.RoomID, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[sessionID] = sink

	if _, ok := r.roomMembers[roomID]; !ok {
		r.roomMembers[roomID] = make(Set)
	}
	r.roomMembers[roomID][sessionID] = struct{}{}
}

// Unsubscribe removes a session from a room. The connection itself stays
// registered: leaving a room is not disconnecting.
// It ensures no empty sets are left in the room map to prevent memory
// leaks over time.
func (r *Registry) Unsubscribe(sessionID string, roomID domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if members, ok := r.roomMembers[roomID]; ok {
		delete(members, sessionID)

		// If no one is left in the room, remove the room entry entirely
		if len(members) == 0 {
			delete(r.roomMembers, roomID)
		}
	}
}

// UnsubscribeSession drops a session's connection entirely and returns the
// rooms it was a member of, so the caller can evict the player from each.
// The caller passes the sink it registered: when the session has since been
// reclaimed by a newer connection, the dying one must not evict it.
func (r *Registry) UnsubscribeSession(sessionID string, sink contract.EventSink) []domain.RoomID {
	r.mu.Lock()
	defer r.mu.Unlock()

	if current, ok := r.sessions[sessionID]; !ok || current != sink {
		return nil
	}
	delete(r.sessions, sessionID)

	var rooms []domain.RoomID
	for roomID, members := range r.roomMembers {
		if _, ok := members[sessionID]; !ok {
			continue
		}
		delete(members, sessionID)
		rooms = append(rooms, roomID)
		if len(members) == 0 {
			delete(r.roomMembers, roomID)
		}
	}
	return rooms
}
