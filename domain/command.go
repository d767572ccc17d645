package domain

// Command is a unit of work addressed to a single room worker. Commands for
// the same room are applied strictly in arrival order.
type Command interface {
	Room() RoomID
}

// JoinRoomCommand asks the room to admit a session, optionally as spectator.
type JoinRoomCommand struct {
	RoomID    RoomID
	Player    Player
	Spectator bool
}

func (c JoinRoomCommand) Room() RoomID { return c.RoomID }

// LeaveRoomCommand removes a session from the room roster.
type LeaveRoomCommand struct {
	RoomID    RoomID
	SessionID string
}

func (c LeaveRoomCommand) Room() RoomID { return c.RoomID }

// MakeChoiceCommand records the acting player's pick and advances the turn.
type MakeChoiceCommand struct {
	RoomID    RoomID
	SessionID string
	Choice    string
}

func (c MakeChoiceCommand) Room() RoomID { return c.RoomID }

// RegenerateCommand discards the pending AI response and produces a new one
// for the same turn holder.
type RegenerateCommand struct {
	RoomID    RoomID
	SessionID string
}

func (c RegenerateCommand) Room() RoomID { return c.RoomID }

// RequestTurnCommand lets an active player claim a paused room's turn.
type RequestTurnCommand struct {
	RoomID    RoomID
	SessionID string
}

func (c RequestTurnCommand) Room() RoomID { return c.RoomID }

// ResetPlayersCommand evicts every player from the room. Admin surface only.
type ResetPlayersCommand struct {
	RoomID RoomID
}

func (c ResetPlayersCommand) Room() RoomID { return c.RoomID }

// AttachNarrationCommand binds generated audio to a turn. Generation guards
// against late audio landing on a turn the room has already moved past.
type AttachNarrationCommand struct {
	RoomID     RoomID
	Generation uint64
	AudioRef   string
}

func (c AttachNarrationCommand) Room() RoomID { return c.RoomID }
