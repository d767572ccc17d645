// Package prompts assembles the chat messages sent to the language model.
// Templates live here so the generation pipeline stays free of prose.
package prompts

import (
	"fmt"
	"strings"

	"fable-lab/domain"
)

// GameMasterSystem frames the model as the game master and pins the exact
// sectioned output format the parser expects.
func GameMasterSystem(currentPlayer string) string {
	return fmt.Sprintf(`Assistant is a creative game master crafting a multiplayer interactive story.
Assistant's task is to create a response with the following format:
<intro>
A brief intro of the current situation
</intro>
<narrative>
Detailed description of the events and actions that happen. Talk in the 3rd person to keep it clear who is doing what. Follow up with relevant context and cue %s to make a decision.
</narrative>
<choices>
- First choice %s can make
- Next choice
- (Up to 5 total choices)
</choices>
Use the choice text without anything preceding. Create choices which make sense to push the events forward.
Pay attention and react to the latest choice in a natural way.`, currentPlayer, currentPlayer)
}

type UserPromptInput struct {
	Premise       string
	History       []string
	LatestEvent   string
	CurrentPlayer string
	IsNewPlayer   bool
	Character     *domain.Character
}

// GameMasterUser lays out premise, prior events and the latest event, then
// tags the turn holder. A player without any recorded choice yet is flagged
// as new so the model introduces them.
func GameMasterUser(in UserPromptInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Original premise: %s\n", in.Premise)
	if len(in.History) > 0 {
		fmt.Fprintf(&b, "Events:\n%s\n", strings.Join(in.History, "\n"))
	}
	if in.LatestEvent != "" {
		fmt.Fprintf(&b, "Latest event:\n%s", in.LatestEvent)
	}
	switch {
	case in.CurrentPlayer == "":
	case in.IsNewPlayer:
		fmt.Fprintf(&b, "\n\nNew Player: %s", in.CurrentPlayer)
	default:
		fmt.Fprintf(&b, "\n\nCurrent Player: %s", in.CurrentPlayer)
	}
	if in.CurrentPlayer != "" && in.Character != nil {
		if in.Character.Class != "" {
			fmt.Fprintf(&b, "\n\tClass: %s", in.Character.Class)
		}
		if in.Character.Race != "" {
			fmt.Fprintf(&b, "\n\tRace: %s", in.Character.Race)
		}
		if in.Character.Background != "" {
			fmt.Fprintf(&b, "\n\tBackground: %s", in.Character.Background)
		}
	}
	return b.String()
}
