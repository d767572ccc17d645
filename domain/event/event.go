// Package event defines the domain events fanned out to connected clients
// and persistence sinks. Events carry snapshots, never live room pointers.
package event

import (
	"fable-lab/domain"
)

// DomainEvent is anything the fanout distributes to sinks. RoomID scopes
// delivery: the empty RoomID means every sink receives the event.
type DomainEvent interface {
	Room() domain.RoomID
}

// RoomUpdated carries the full room snapshot after any state change.
type RoomUpdated struct {
	RoomID domain.RoomID
	State  domain.Room
}

func (e RoomUpdated) Room() domain.RoomID { return e.RoomID }

// RoomListChanged is broadcast to every sink so lobby views stay current.
type RoomListChanged struct {
	Rooms []domain.Room
}

func (e RoomListChanged) Room() domain.RoomID { return "" }

// PlayerJoined announces a new roster member to the room.
type PlayerJoined struct {
	RoomID   domain.RoomID
	Nickname string
}

func (e PlayerJoined) Room() domain.RoomID { return e.RoomID }

// TurnCue notifies the room that a new turn is ready and who holds it.
type TurnCue struct {
	RoomID    domain.RoomID
	SessionID string
	Nickname  string
}

func (e TurnCue) Room() domain.RoomID { return e.RoomID }

// Kicked tells a specific session it has been evicted by an admin action.
type Kicked struct {
	RoomID    domain.RoomID
	SessionID string
}

func (e Kicked) Room() domain.RoomID { return e.RoomID }

// RoomRemoved announces the room no longer exists.
type RoomRemoved struct {
	RoomID domain.RoomID
}

func (e RoomRemoved) Room() domain.RoomID { return e.RoomID }
