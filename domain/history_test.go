package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHistory_JSONRoundTrip(t *testing.T) {
	req := require.New(t)
	history := History{
		Narrative{Kind: KindIntro, Text: "a storm gathers"},
		Narrative{Kind: KindNarrative, Text: "lightning splits the oak"},
		Choice{Text: "take shelter", Player: "Alice"},
	}

	raw, err := json.Marshal(history)
	req.NoError(err)

	var decoded History
	req.NoError(json.Unmarshal(raw, &decoded))
	req.Equal(history, decoded)
}

func TestHistory_UnmarshalRejectsUnknownType(t *testing.T) {
	req := require.New(t)
	var decoded History

	err := json.Unmarshal([]byte(`[{"type":"mystery","text":"x"}]`), &decoded)
	req.Error(err)
}

func TestHistory_PromptLines(t *testing.T) {
	req := require.New(t)
	history := History{
		Narrative{Kind: KindIntro, Text: "intro text"},
		Choice{Text: "run", Player: "Bob"},
	}

	lines := history.PromptLines()

	req.Equal([]string{"intro text", "Bob chose: **run**"}, lines)
}

func TestHistory_HasChoiceBy(t *testing.T) {
	req := require.New(t)
	history := History{
		Narrative{Kind: KindIntro, Text: "intro"},
		Choice{Text: "run", Player: "Bob"},
	}

	req.True(history.HasChoiceBy("Bob"))
	req.False(history.HasChoiceBy("Alice"))
}
