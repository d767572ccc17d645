package runtime

import (
	"embed"
	"testing"

	"github.com/stretchr/testify/require"
)

//go:embed censored/*
var censoredTestFS embed.FS

func TestCensoredLoader_LoadAll(t *testing.T) {
	req := require.New(t)
	loader := NewCensoredLoader(censoredTestFS)

	data, err := loader.LoadAll("censored")
	req.NoError(err)

	// One language per dictionary file
	req.Contains(data.Languages, "en")

	// Words are unique and trimmed
	req.NotEmpty(data.Words)
	seen := make(map[string]struct{})
	for _, w := range data.Words {
		req.NotEmpty(w)
		req.NotContains(seen, w)
		seen[w] = struct{}{}
	}
}

func TestCensoredLoader_MissingDirectory(t *testing.T) {
	req := require.New(t)
	loader := NewCensoredLoader(censoredTestFS)

	_, err := loader.LoadAll("nope")

	req.Error(err)
}
