package generation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseSections_CompleteResponse(t *testing.T) {
	req := require.New(t)
	raw := `<intro>
The cave mouth yawns.
</intro>
<narrative>
Alice steps inside, torch high.
</narrative>
<choices>
- Go deeper
- Turn back
- Call out
</choices>`

	resp := ParseSections(raw)

	req.Equal("The cave mouth yawns.", resp.Intro)
	req.Equal("Alice steps inside, torch high.", resp.Narrative)
	req.Equal([]string{"Go deeper", "Turn back", "Call out"}, resp.Choices)
}

func TestParseSections_SynthesizesMissingClosingTag(t *testing.T) {
	req := require.New(t)
	// Models routinely truncate the final tag
	raw := `<intro>x</intro><narrative>y</narrative><choices>
- Only option`

	resp := ParseSections(raw)

	req.Equal([]string{"Only option"}, resp.Choices)
}

func TestParseSections_DropsBlankChoiceLines(t *testing.T) {
	req := require.New(t)
	raw := `<choices>
- First

-
- Second
</choices>`

	resp := ParseSections(raw)

	req.Equal([]string{"First", "Second"}, resp.Choices)
}

func TestParseSections_GarbageYieldsEmptySections(t *testing.T) {
	req := require.New(t)

	resp := ParseSections("Error generating AI response")

	req.Empty(resp.Intro)
	req.Empty(resp.Narrative)
	req.Empty(resp.Choices)
}

func TestParseSections_MultilineNarrativeIsTrimmed(t *testing.T) {
	req := require.New(t)
	raw := "<narrative>\nline one\nline two\n</narrative>"

	resp := ParseSections(raw)

	req.Equal("line one\nline two", resp.Narrative)
}
