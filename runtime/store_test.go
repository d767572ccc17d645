package runtime

import (
	"log/slog"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"

	"fable-lab/domain"
	"fable-lab/domain/event"
	apperrors "fable-lab/errors"
)

func drain(events chan event.DomainEvent) []event.DomainEvent {
	var collected []event.DomainEvent
	for {
		select {
		case e := <-events:
			collected = append(collected, e)
		default:
			return collected
		}
	}
}

func TestRoomStore_Create_Announces_Snapshot_And_Room_List(t *testing.T) {
	req := require.New(t)
	events := make(chan event.DomainEvent, 16)
	store := NewRoomStore(events, logs.GetLoggerFromLevel(slog.LevelDebug))

	// When a room is created
	err := store.Create(&domain.Room{ID: "r1", Name: "The Hollow"})
	req.NoError(err)

	// Then an update and a room list change go out
	collected := drain(events)
	req.Len(collected, 2)

	updated, ok := collected[0].(event.RoomUpdated)
	req.True(ok)
	req.Equal(domain.RoomID("r1"), updated.RoomID)
	req.Equal("The Hollow", updated.State.Name)

	listed, ok := collected[1].(event.RoomListChanged)
	req.True(ok)
	req.Len(listed.Rooms, 1)

	// And creating the same room again fails
	req.Error(store.Create(&domain.Room{ID: "r1"}))
}

func TestRoomStore_Get_Returns_An_Isolated_Snapshot(t *testing.T) {
	req := require.New(t)
	events := make(chan event.DomainEvent, 16)
	store := NewRoomStore(events, logs.GetLoggerFromLevel(slog.LevelDebug))

	req.NoError(store.Create(&domain.Room{
		ID:      "r1",
		Players: []domain.Player{{SessionID: "alice", Nickname: "Alice"}},
	}))

	// Given a snapshot of the room
	snapshot, ok := store.Get("r1")
	req.True(ok)

	// When the caller scribbles on it
	snapshot.Players[0].Nickname = "Mallory"

	// Then the stored room is untouched
	fresh, _ := store.Get("r1")
	req.Equal("Alice", fresh.Players[0].Nickname)
}

func TestRoomStore_Mutate_Unknown_Room(t *testing.T) {
	req := require.New(t)
	events := make(chan event.DomainEvent, 16)
	store := NewRoomStore(events, logs.GetLoggerFromLevel(slog.LevelDebug))

	err := store.Mutate("ghost", func(room *domain.Room) error { return nil })

	req.ErrorIs(err, apperrors.ErrRoomNotFound)
	req.Empty(drain(events))
}

func TestRoomStore_Mutate_Error_Aborts_Without_Announcing(t *testing.T) {
	req := require.New(t)
	events := make(chan event.DomainEvent, 16)
	store := NewRoomStore(events, logs.GetLoggerFromLevel(slog.LevelDebug))

	req.NoError(store.Create(&domain.Room{ID: "r1"}))
	drain(events)

	// When the mutation rejects the change
	err := store.Mutate("r1", func(room *domain.Room) error {
		room.Name = "should not stick announcement"
		return apperrors.ErrNotYourTurn
	})

	// Then the error surfaces and nothing is announced
	req.ErrorIs(err, apperrors.ErrNotYourTurn)
	req.Empty(drain(events))
}

func TestRoomStore_Mutate_Announces_The_Updated_State(t *testing.T) {
	req := require.New(t)
	events := make(chan event.DomainEvent, 16)
	store := NewRoomStore(events, logs.GetLoggerFromLevel(slog.LevelDebug))

	req.NoError(store.Create(&domain.Room{ID: "r1"}))
	drain(events)

	// When a player joins under the lock
	err := store.Mutate("r1", func(room *domain.Room) error {
		room.AddPlayer(domain.Player{SessionID: "alice", Nickname: "Alice"})
		return nil
	})
	req.NoError(err)

	// Then the announced snapshot carries the new roster
	collected := drain(events)
	req.Len(collected, 2)
	updated, ok := collected[0].(event.RoomUpdated)
	req.True(ok)
	req.Len(updated.State.Players, 1)
}

func TestRoomStore_Remove_Emits_Removal_And_Room_List(t *testing.T) {
	req := require.New(t)
	events := make(chan event.DomainEvent, 16)
	store := NewRoomStore(events, logs.GetLoggerFromLevel(slog.LevelDebug))

	req.NoError(store.Create(&domain.Room{ID: "r1"}))
	drain(events)

	// When the room is removed
	req.True(store.Remove("r1"))

	// Then removal and an empty room list go out
	collected := drain(events)
	req.Len(collected, 2)
	removed, ok := collected[0].(event.RoomRemoved)
	req.True(ok)
	req.Equal(domain.RoomID("r1"), removed.RoomID)

	listed, ok := collected[1].(event.RoomListChanged)
	req.True(ok)
	req.Empty(listed.Rooms)

	// And removing it again reports false
	req.False(store.Remove("r1"))
}

func TestRoomStore_Load_Strips_Connection_State(t *testing.T) {
	req := require.New(t)
	events := make(chan event.DomainEvent, 16)
	store := NewRoomStore(events, logs.GetLoggerFromLevel(slog.LevelDebug))

	// Given a persisted room with a roster and a generation in flight
	store.Load([]domain.Room{{
		ID:            "r1",
		Name:          "The Hollow",
		Players:       []domain.Player{{SessionID: "alice"}},
		CurrentPlayer: "alice",
		CurrentTurn:   3,
		Loading:       &domain.LoadingState{Message: "Generating next turn..."},
		History: domain.History{
			domain.Narrative{Kind: domain.KindIntro, Text: "once upon a time"},
		},
	}})

	// Then the room comes back paused with an empty roster
	room, ok := store.Get("r1")
	req.True(ok)
	req.Empty(room.Players)
	req.Empty(room.CurrentPlayer)
	req.Zero(room.CurrentTurn)
	req.Nil(room.Loading)

	// And the story itself survives the restart
	req.Len(room.History, 1)

	// And loading announces nothing
	req.Empty(drain(events))
}
