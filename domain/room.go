package domain

import (
	"time"
)

type RoomID string

// LastAIResponse is the most recently generated turn content. Choices may be
// empty when generation degraded; clients must tolerate that (only
// "regenerate" remains meaningful). TTS is resolved after the text is
// already visible and may stay empty forever.
type LastAIResponse struct {
	Intro     string   `json:"intro"`
	Narrative string   `json:"narrative"`
	Choices   []string `json:"choices"`
	TTS       string   `json:"tts,omitempty"`
}

// LoadingState is non-nil exactly while a generation call is in flight.
type LoadingState struct {
	Message  string `json:"message"`
	Progress int    `json:"progress,omitempty"`
}

// Room is one running game instance. All mutations go through the room's
// dedicated worker; the struct itself carries no synchronization.
type Room struct {
	ID        RoomID    `json:"id"`
	Name      string    `json:"name"`
	Premise   string    `json:"premise"`
	FastMode  bool      `json:"fastMode"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`

	Players []Player `json:"players"`
	History History  `json:"history"`

	// CurrentTurn indexes into ActivePlayers(), not Players.
	CurrentTurn int `json:"currentTurn"`
	// CurrentPlayer is the session of the player empowered to act, or ""
	// while the room is paused. It must agree with CurrentTurn after every
	// successful mutation.
	CurrentPlayer string `json:"currentPlayer,omitempty"`

	LastAIResponse *LastAIResponse `json:"lastAiResponse,omitempty"`
	Loading        *LoadingState   `json:"loading,omitempty"`

	// Generation counts committed pipeline results. Late side effects
	// (narration) carry the value they were produced for and are dropped
	// when the room has moved on.
	Generation uint64 `json:"-"`
}

// Snapshot returns a deep copy safe to hand to other goroutines.
func (r Room) Snapshot() Room {
	out := r
	out.Players = append([]Player(nil), r.Players...)
	out.History = append(History(nil), r.History...)
	if r.LastAIResponse != nil {
		resp := *r.LastAIResponse
		resp.Choices = append([]string(nil), r.LastAIResponse.Choices...)
		out.LastAIResponse = &resp
	}
	if r.Loading != nil {
		loading := *r.Loading
		out.Loading = &loading
	}
	return out
}

// FindBySession returns the player bound to the given session, or nil.
// The pointer reaches into the roster so callers holding the room may
// update the player in place.
func (r *Room) FindBySession(sessionID string) *Player {
	for i := range r.Players {
		if r.Players[i].SessionID == sessionID {
			return &r.Players[i]
		}
	}
	return nil
}

// FindByClientID returns the index of the player with the given stable
// client identity, or -1. Used to re-bind sessions on reconnect.
func (r *Room) FindByClientID(clientID string) int {
	for i, p := range r.Players {
		if p.ClientID == clientID {
			return i
		}
	}
	return -1
}

// AddPlayer appends a player; join order is turn order and never reshuffled.
func (r *Room) AddPlayer(p Player) {
	r.Players = append(r.Players, p)
}

// RebindSession points an existing seat at a new session after a reconnect.
// The seat keeps its position; the turn follows the seat, so a reconnecting
// turn holder keeps the turn under the new session.
func (r *Room) RebindSession(p *Player, sessionID string) {
	if r.CurrentPlayer == p.SessionID {
		r.CurrentPlayer = sessionID
	}
	p.SessionID = sessionID
}

// RemovePlayer drops the player bound to sessionID and re-anchors the turn:
// if the removed player held the turn the room pauses, otherwise the index
// is recomputed so CurrentPlayer and CurrentTurn stay in agreement.
func (r *Room) RemovePlayer(sessionID string) (Player, bool) {
	idx := -1
	for i, p := range r.Players {
		if p.SessionID == sessionID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Player{}, false
	}
	removed := r.Players[idx]
	r.Players = append(r.Players[:idx], r.Players[idx+1:]...)
	r.reanchorTurn()
	return removed, true
}

// AppendTurnCycle writes the turn-closing unit: the intro and narrative the
// choice responds to, then the choice itself. The three entries form one
// atomic append.
func (r *Room) AppendTurnCycle(resp LastAIResponse, choice Choice) {
	r.History = append(r.History,
		Narrative{Kind: KindIntro, Text: resp.Intro},
		Narrative{Kind: KindNarrative, Text: resp.Narrative},
		choice,
	)
}
