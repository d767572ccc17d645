// Package domain contains the core concepts of the game: rooms, players,
// history and turn rules. No runtime, network, or storage logic lives here.
package domain

// Character is a free-form descriptive sheet fed verbatim into the
// game master prompt. It carries no numeric game mechanics.
type Character struct {
	Class      string   `json:"class"`
	Race       string   `json:"race"`
	Background string   `json:"background"`
	Traits     []string `json:"traits,omitempty"`
	Skills     []string `json:"skills,omitempty"`
	Equipment  []string `json:"equipment,omitempty"`
}

// Player is one participant of a room.
//
// SessionID identifies the live connection and changes across reconnects.
// ClientID is the stable identity used to re-bind a session after a
// reconnect without losing the player's position in the turn order.
type Player struct {
	SessionID   string     `json:"sessionId"`
	ClientID    string     `json:"clientId"`
	Nickname    string     `json:"nickname"`
	IsSpectator bool       `json:"isSpectator"`
	Character   *Character `json:"character,omitempty"`
}
