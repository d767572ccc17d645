package domain

import (
	"github.com/samber/lo"
)

// Turn rules are pure functions over room state. The rotation is always
// computed over active (non-spectator) players; spectators never occupy a
// turn slot.

// ActivePlayers returns the players participating in the turn rotation,
// in join order.
func (r *Room) ActivePlayers() []Player {
	return lo.Filter(r.Players, func(p Player, _ int) bool {
		return !p.IsSpectator
	})
}

// ActiveIndexOf returns the position of the session within the active
// rotation, or -1 when the session is absent or spectating.
func (r *Room) ActiveIndexOf(sessionID string) int {
	for i, p := range r.ActivePlayers() {
		if p.SessionID == sessionID {
			return i
		}
	}
	return -1
}

// NextTurnIndex computes which active player follows the acting session,
// wrapping around. Returns -1 when there is no rotation to advance.
func (r *Room) NextTurnIndex(actingSessionID string) int {
	active := r.ActivePlayers()
	if len(active) == 0 {
		return -1
	}
	pos := r.ActiveIndexOf(actingSessionID)
	if pos < 0 {
		// Acting player vanished from the rotation; keep the current slot
		// in range rather than inventing a position.
		return r.CurrentTurn % len(active)
	}
	return (pos + 1) % len(active)
}

// IsActorsTurn reports whether the given session holds the current turn.
func (r *Room) IsActorsTurn(sessionID string) bool {
	active := r.ActivePlayers()
	if len(active) == 0 || r.CurrentTurn < 0 || r.CurrentTurn >= len(active) {
		return false
	}
	return active[r.CurrentTurn].SessionID == sessionID
}

// CurrentActor returns the player currently empowered to act.
func (r *Room) CurrentActor() (Player, bool) {
	active := r.ActivePlayers()
	if len(active) == 0 || r.CurrentTurn < 0 || r.CurrentTurn >= len(active) {
		return Player{}, false
	}
	return active[r.CurrentTurn], true
}

// Paused reports whether the room has nobody empowered to act.
func (r *Room) Paused() bool {
	return r.CurrentPlayer == ""
}

// reanchorTurn restores the CurrentTurn/CurrentPlayer invariant after a
// roster change. The current player's identity wins over the raw index:
// removing an earlier player shifts positions but must not steal the turn.
func (r *Room) reanchorTurn() {
	active := r.ActivePlayers()
	if len(active) == 0 {
		r.CurrentPlayer = ""
		r.CurrentTurn = 0
		return
	}
	if r.CurrentPlayer != "" {
		if pos := r.ActiveIndexOf(r.CurrentPlayer); pos >= 0 {
			r.CurrentTurn = pos
			return
		}
	}
	// Turn holder is gone: pause until someone claims or re-seeds the turn.
	r.CurrentPlayer = ""
	if r.CurrentTurn >= len(active) {
		r.CurrentTurn = 0
	}
}

// SetSpectator flips a player's role and re-anchors the turn. A holder
// stepping back to spectating pauses the room; a spectator opting in shifts
// active indexes, so the holder's index is recomputed without moving the
// turn itself. Reports whether the role actually changed.
func (r *Room) SetSpectator(sessionID string, spectator bool) bool {
	p := r.FindBySession(sessionID)
	if p == nil || p.IsSpectator == spectator {
		return false
	}
	p.IsSpectator = spectator
	r.reanchorTurn()
	return true
}

// ClaimTurn hands the turn to the given session if it is part of the active
// rotation. Reports whether the claim took effect.
func (r *Room) ClaimTurn(sessionID string) bool {
	pos := r.ActiveIndexOf(sessionID)
	if pos < 0 {
		return false
	}
	r.CurrentTurn = pos
	r.CurrentPlayer = sessionID
	return true
}
