// Package ws is the WebSocket transport: one connection per client,
// JSON envelopes in both directions.
package ws

import (
	"encoding/json"

	"fable-lab/domain"
)

// Inbound message types accepted from clients.
const (
	TypeCreateRoom  = "createRoom"
	TypeJoinRoom    = "joinRoom"
	TypeLeaveRoom   = "leaveRoom"
	TypeMakeChoice  = "makeChoice"
	TypeRegenerate  = "regenerateResponse"
	TypeRequestTurn = "requestTurn"
	TypeListRooms   = "listRooms"
	TypeAdmin       = "admin"
)

// Outbound message types pushed to clients.
const (
	TypeRoomList     = "roomList"
	TypeRoomUpdate   = "roomUpdate"
	TypePlayerJoined = "playerJoined"
	TypeTurnCue      = "turn"
	TypeKicked       = "kicked"
	TypeRoomRemoved  = "roomRemoved"
	TypeError        = "error"
	TypeAdminResult  = "adminResult"
)

// Envelope is the wire frame for inbound messages. Payload stays raw until
// the type is known.
type Envelope struct {
	Type    string          `json:"type" validate:"required"`
	Payload json.RawMessage `json:"payload"`
}

type CreateRoomPayload struct {
	Name     string `json:"name" validate:"required,max=80"`
	Premise  string `json:"premise" validate:"required,max=2000"`
	Nickname string `json:"nickname" validate:"required,max=32"`
	FastMode bool   `json:"fastMode"`
}

type JoinRoomPayload struct {
	RoomID    string            `json:"roomId" validate:"required,uuid4"`
	Nickname  string            `json:"nickname" validate:"required,max=32"`
	Spectator bool              `json:"spectator"`
	Character *domain.Character `json:"character,omitempty"`
}

type RoomScopedPayload struct {
	RoomID string `json:"roomId" validate:"required,uuid4"`
}

type MakeChoicePayload struct {
	RoomID string `json:"roomId" validate:"required,uuid4"`
	Choice string `json:"choice" validate:"required,max=500"`
}

// AdminPayload guards destructive actions behind the admin password.
type AdminPayload struct {
	Password string `json:"password" validate:"required"`
	Action   string `json:"action" validate:"required,oneof=clearRooms removeRoom removeAllPlayers"`
	RoomID   string `json:"roomId,omitempty" validate:"omitempty,uuid4"`
}

type OutboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

type RoomListPayload struct {
	Rooms []domain.Room `json:"rooms"`
}

type RoomUpdatePayload struct {
	Room domain.Room `json:"room"`
}

type PlayerJoinedPayload struct {
	RoomID   string `json:"roomId"`
	Nickname string `json:"nickname"`
}

type TurnCuePayload struct {
	RoomID   string `json:"roomId"`
	Nickname string `json:"nickname"`
	YourTurn bool   `json:"yourTurn"`
}

type RoomRemovedPayload struct {
	RoomID string `json:"roomId"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

type AdminResultPayload struct {
	Action string `json:"action"`
	OK     bool   `json:"ok"`
	Error  string `json:"error,omitempty"`
}
