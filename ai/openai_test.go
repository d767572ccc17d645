package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"

	"fable-lab/contract"
)

func completionsHandler(t *testing.T, content string, capture *chatRequest) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		if capture != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(capture))
		}

		_, err := fmt.Fprintf(w, `{"choices":[{"message":{"content":%q}}]}`, content)
		require.NoError(t, err)
	}
}

func TestOpenAIGenerator_ReturnsTheCompletion(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	var captured chatRequest
	server := httptest.NewServer(completionsHandler(t, "The torch gutters.", &captured))
	defer server.Close()

	generator := NewOpenAIGenerator(server.URL, "big-model", "", "", "test-key", log)

	messages := []contract.Message{
		{Role: "system", Content: "You are a game master."},
		{Role: "user", Content: "Continue the story."},
	}
	content := generator.Generate(context.Background(), messages, contract.TierQuality, contract.Metadata{RoomID: "r1"})

	req.Equal("The torch gutters.", content)
	req.Equal("big-model", captured.Model)
	req.Len(captured.Messages, 2)
	req.Equal("system", captured.Messages[0].Role)
}

func TestOpenAIGenerator_FastTierRoutesToTheFastEndpoint(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	quality := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("quality endpoint should not be called in fast mode")
	}))
	defer quality.Close()

	var captured chatRequest
	fast := httptest.NewServer(completionsHandler(t, "quick beat", &captured))
	defer fast.Close()

	generator := NewOpenAIGenerator(quality.URL, "big-model", fast.URL, "small-model", "test-key", log)

	content := generator.Generate(context.Background(), nil, contract.TierFast, contract.Metadata{})

	req.Equal("quick beat", content)
	req.Equal("small-model", captured.Model)
}

func TestOpenAIGenerator_BackendErrorCollapsesToFailureResponse(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	generator := NewOpenAIGenerator(server.URL, "big-model", "", "", "test-key", log)

	content := generator.Generate(context.Background(), nil, contract.TierQuality, contract.Metadata{})

	req.Equal(FailureResponse, content)
}

func TestOpenAIGenerator_EmptyChoices(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	generator := NewOpenAIGenerator(server.URL, "big-model", "", "", "test-key", log)

	content := generator.Generate(context.Background(), nil, contract.TierQuality, contract.Metadata{})

	req.Equal("No response generated", content)
}
