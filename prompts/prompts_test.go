package prompts

import (
	"testing"

	"github.com/stretchr/testify/require"

	"fable-lab/domain"
)

func TestGameMasterSystem_CuesCurrentPlayer(t *testing.T) {
	req := require.New(t)

	prompt := GameMasterSystem("Alice")

	req.Contains(prompt, "cue Alice to make a decision")
	req.Contains(prompt, "First choice Alice can make")
	req.Contains(prompt, "<intro>")
	req.Contains(prompt, "</choices>")
}

func TestGameMasterUser_FullLayout(t *testing.T) {
	req := require.New(t)

	prompt := GameMasterUser(UserPromptInput{
		Premise:       "a haunted lighthouse",
		History:       []string{"the keeper vanished", "Bob chose: **search the tower**"},
		LatestEvent:   "Alice chose: **light the lamp**",
		CurrentPlayer: "Carol",
		Character: &domain.Character{
			Class: "Rogue",
			Race:  "Human",
		},
	})

	req.Contains(prompt, "Original premise: a haunted lighthouse\n")
	req.Contains(prompt, "Events:\nthe keeper vanished\nBob chose: **search the tower**\n")
	req.Contains(prompt, "Latest event:\nAlice chose: **light the lamp**")
	req.Contains(prompt, "\n\nCurrent Player: Carol")
	req.Contains(prompt, "\n\tClass: Rogue")
	req.Contains(prompt, "\n\tRace: Human")
	req.NotContains(prompt, "Background:")
}

func TestGameMasterUser_NewPlayerIsFlagged(t *testing.T) {
	req := require.New(t)

	prompt := GameMasterUser(UserPromptInput{
		Premise:       "a desert caravan",
		CurrentPlayer: "Dave",
		IsNewPlayer:   true,
	})

	req.Contains(prompt, "New Player: Dave")
	req.NotContains(prompt, "Current Player:")
}

func TestGameMasterUser_EmptyHistoryOmitsSections(t *testing.T) {
	req := require.New(t)

	prompt := GameMasterUser(UserPromptInput{Premise: "a quiet village"})

	req.NotContains(prompt, "Events:")
	req.NotContains(prompt, "Latest event:")
	req.NotContains(prompt, "Player")
}
