package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSnapshot_IsDeepCopy(t *testing.T) {
	req := require.New(t)
	room := Room{
		ID:      "room-1",
		Players: []Player{{SessionID: "alice", Nickname: "Alice"}},
		History: History{Narrative{Kind: KindIntro, Text: "opening"}},
		LastAIResponse: &LastAIResponse{
			Intro:   "intro",
			Choices: []string{"left", "right"},
		},
		Loading: &LoadingState{Message: "working"},
	}

	snapshot := room.Snapshot()

	// Mutating the snapshot must not leak back into the original
	snapshot.Players[0].Nickname = "Mallory"
	snapshot.LastAIResponse.Choices[0] = "up"
	snapshot.Loading.Message = "changed"

	req.Equal("Alice", room.Players[0].Nickname)
	req.Equal("left", room.LastAIResponse.Choices[0])
	req.Equal("working", room.Loading.Message)
}

func TestFindBySession_ReturnsLivePointer(t *testing.T) {
	req := require.New(t)
	room := Room{Players: []Player{{SessionID: "alice", ClientID: "c1"}}}

	player := room.FindBySession("alice")
	req.NotNil(player)

	// Re-binding through the pointer updates the roster
	player.ClientID = "c2"
	req.Equal("c2", room.Players[0].ClientID)

	req.Nil(room.FindBySession("nobody"))
}

func TestAppendTurnCycle(t *testing.T) {
	req := require.New(t)
	room := Room{}
	resp := LastAIResponse{Intro: "the intro", Narrative: "the narrative"}

	room.AppendTurnCycle(resp, Choice{Text: "open the door", Player: "Alice"})

	req.Len(room.History, 3)
	req.Equal(Narrative{Kind: KindIntro, Text: "the intro"}, room.History[0])
	req.Equal(Narrative{Kind: KindNarrative, Text: "the narrative"}, room.History[1])
	req.Equal(Choice{Text: "open the door", Player: "Alice"}, room.History[2])
}
