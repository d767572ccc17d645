package domain

import (
	"encoding/json"
	"fmt"
)

type NarrativeKind string

const (
	KindIntro     NarrativeKind = "intro"
	KindNarrative NarrativeKind = "narrative"
)

// HistoryEntry is a sealed sum type: either an AI-authored Narrative or a
// player's Choice. Consumers are expected to switch exhaustively on the
// concrete type so that a new entry kind fails loudly at the call sites.
type HistoryEntry interface {
	// PromptLine renders the entry the way the game master prompt expects it.
	PromptLine() string

	historyEntry()
}

// Narrative is AI-authored scene content, either the short intro or the
// detailed narrative of a turn.
type Narrative struct {
	Kind NarrativeKind `json:"kind"`
	Text string        `json:"text"`
}

func (n Narrative) PromptLine() string { return n.Text }
func (Narrative) historyEntry()        {}

// Choice records the action a player selected to close a turn.
type Choice struct {
	Text   string `json:"text"`
	Player string `json:"player"`
}

func (c Choice) PromptLine() string {
	return fmt.Sprintf("%s chose: **%s**", c.Player, c.Text)
}
func (Choice) historyEntry() {}

// History is the append-only turn log of a room. Entries are immutable once
// appended; the slice itself shrinks only on explicit truncation.
type History []HistoryEntry

// historyRecord is the wire/disk envelope of a HistoryEntry.
type historyRecord struct {
	Type   string `json:"type"`
	Text   string `json:"text"`
	Player string `json:"player,omitempty"`
}

func (h History) MarshalJSON() ([]byte, error) {
	records := make([]historyRecord, 0, len(h))
	for _, entry := range h {
		switch e := entry.(type) {
		case Narrative:
			records = append(records, historyRecord{Type: string(e.Kind), Text: e.Text})
		case Choice:
			records = append(records, historyRecord{Type: "choice", Text: e.Text, Player: e.Player})
		default:
			return nil, fmt.Errorf("unknown history entry %T", entry)
		}
	}
	return json.Marshal(records)
}

func (h *History) UnmarshalJSON(data []byte) error {
	var records []historyRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return err
	}
	entries := make(History, 0, len(records))
	for _, r := range records {
		switch r.Type {
		case string(KindIntro), string(KindNarrative):
			entries = append(entries, Narrative{Kind: NarrativeKind(r.Type), Text: r.Text})
		case "choice":
			entries = append(entries, Choice{Text: r.Text, Player: r.Player})
		default:
			return fmt.Errorf("unknown history entry type %q", r.Type)
		}
	}
	*h = entries
	return nil
}

// PromptLines renders every entry for inclusion in the game master prompt.
func (h History) PromptLines() []string {
	lines := make([]string, 0, len(h))
	for _, entry := range h {
		lines = append(lines, entry.PromptLine())
	}
	return lines
}

// HasChoiceBy reports whether the given nickname already closed a turn.
// A player without any recorded choice is new to the rotation.
func (h History) HasChoiceBy(nickname string) bool {
	for _, entry := range h {
		if c, ok := entry.(Choice); ok && c.Player == nickname {
			return true
		}
	}
	return false
}
