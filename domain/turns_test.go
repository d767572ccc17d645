package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func activeRoom() *Room {
	return &Room{
		ID: "room-1",
		Players: []Player{
			{SessionID: "alice", Nickname: "Alice"},
			{SessionID: "bob", Nickname: "Bob", IsSpectator: true},
			{SessionID: "carol", Nickname: "Carol"},
		},
		CurrentTurn:   0,
		CurrentPlayer: "alice",
	}
}

func TestActivePlayers_ExcludesSpectators(t *testing.T) {
	req := require.New(t)
	room := activeRoom()

	active := room.ActivePlayers()

	req.Len(active, 2)
	req.Equal("alice", active[0].SessionID)
	req.Equal("carol", active[1].SessionID)
}

func TestNextTurnIndex_WrapsAroundActiveRotation(t *testing.T) {
	req := require.New(t)
	room := activeRoom()

	// Given Alice holds slot 0, the rotation has two active players
	req.Equal(1, room.NextTurnIndex("alice"))
	req.Equal(0, room.NextTurnIndex("carol"))
}

func TestNextTurnIndex_NoActivePlayers(t *testing.T) {
	req := require.New(t)
	room := &Room{Players: []Player{{SessionID: "bob", IsSpectator: true}}}

	req.Equal(-1, room.NextTurnIndex("bob"))
}

func TestIsActorsTurn(t *testing.T) {
	req := require.New(t)
	room := activeRoom()

	req.True(room.IsActorsTurn("alice"))
	req.False(room.IsActorsTurn("carol"))
	// Spectators never hold a turn
	req.False(room.IsActorsTurn("bob"))
}

func TestCurrentActor_OutOfRangeIndex(t *testing.T) {
	req := require.New(t)
	room := activeRoom()
	room.CurrentTurn = 5

	_, ok := room.CurrentActor()
	req.False(ok)
}

func TestRemovePlayer_EarlierLeaverDoesNotStealTurn(t *testing.T) {
	req := require.New(t)
	room := &Room{
		Players: []Player{
			{SessionID: "alice"},
			{SessionID: "bob"},
			{SessionID: "carol"},
		},
		CurrentTurn:   2,
		CurrentPlayer: "carol",
	}

	// When the first player leaves, positions shift
	_, removed := room.RemovePlayer("alice")

	// Then Carol keeps the turn under her new index
	req.True(removed)
	req.Equal("carol", room.CurrentPlayer)
	req.Equal(1, room.CurrentTurn)
	req.True(room.IsActorsTurn("carol"))
}

func TestRemovePlayer_TurnHolderLeavesPausesRoom(t *testing.T) {
	req := require.New(t)
	room := &Room{
		Players: []Player{
			{SessionID: "alice"},
			{SessionID: "bob"},
		},
		CurrentTurn:   0,
		CurrentPlayer: "alice",
	}

	room.RemovePlayer("alice")

	req.True(room.Paused())
	req.Empty(room.CurrentPlayer)
}

func TestRemovePlayer_LastPlayerLeavesResetsTurn(t *testing.T) {
	req := require.New(t)
	room := &Room{
		Players:       []Player{{SessionID: "alice"}},
		CurrentTurn:   0,
		CurrentPlayer: "alice",
	}

	room.RemovePlayer("alice")

	req.True(room.Paused())
	req.Zero(room.CurrentTurn)
	req.Empty(room.ActivePlayers())
}

func TestClaimTurn(t *testing.T) {
	req := require.New(t)
	room := activeRoom()
	room.CurrentPlayer = ""

	// Spectators cannot claim
	req.False(room.ClaimTurn("bob"))
	req.True(room.Paused())

	req.True(room.ClaimTurn("carol"))
	req.Equal("carol", room.CurrentPlayer)
	req.Equal(1, room.CurrentTurn)
}
