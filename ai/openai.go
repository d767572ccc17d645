// Package ai holds the outbound clients for narrative generation and
// speech synthesis.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"fable-lab/contract"
)

// FailureResponse is what the generator hands back when the backend is
// unreachable or answers garbage. Callers compare against it instead of
// handling an error.
const FailureResponse = "Error generating AI response"

const temperature = 0.25

type endpoint struct {
	baseURL string
	model   string
}

// OpenAIGenerator speaks the OpenAI chat completions protocol. Two
// endpoints are held so fast mode can route to a cheaper model.
type OpenAIGenerator struct {
	client  *http.Client
	apiKey  string
	quality endpoint
	fast    endpoint
	logger  *slog.Logger
}

func NewOpenAIGenerator(baseURL, model, fastURL, fastModel, apiKey string, logger *slog.Logger) *OpenAIGenerator {
	return &OpenAIGenerator{
		client:  &http.Client{Timeout: 2 * time.Minute},
		apiKey:  apiKey,
		quality: endpoint{baseURL: baseURL, model: model},
		fast:    endpoint{baseURL: fastURL, model: fastModel},
		logger:  logger,
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Generate runs one completion. Any failure is logged and collapsed into
// FailureResponse so the turn pipeline stays branch-free.
func (g *OpenAIGenerator) Generate(ctx context.Context, messages []contract.Message, tier contract.SpeedTier, meta contract.Metadata) string {
	ep := g.quality
	if tier == contract.TierFast && g.fast.baseURL != "" {
		ep = g.fast
	}
	g.logger.Debug(
		fmt.Sprintf("Generating response with model %s", ep.model),
		"room_id", meta.RoomID,
		"player", meta.Player,
		"retrying", meta.Retrying,
	)

	content, err := g.complete(ctx, ep, messages)
	if err != nil {
		g.logger.Error(
			"Error generating response",
			"error", err,
			"room_id", meta.RoomID,
			"model", ep.model,
		)
		return FailureResponse
	}
	if content == "" {
		return "No response generated"
	}
	return content
}

func (g *OpenAIGenerator) complete(ctx context.Context, ep endpoint, messages []contract.Message) (string, error) {
	body := chatRequest{
		Model:       ep.model,
		Temperature: temperature,
	}
	for _, m := range messages {
		body.Messages = append(body.Messages, chatMessage(m))
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ep.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call %s: %w", ep.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("chat completions status %d: %s", resp.StatusCode, raw)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", nil
	}
	return parsed.Choices[0].Message.Content, nil
}
