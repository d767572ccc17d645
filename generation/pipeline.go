package generation

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"fable-lab/contract"
	"fable-lab/domain"
	apperrors "fable-lab/errors"
	"fable-lab/observability"
	"fable-lab/prompts"
)

// Censor rewrites disallowed words in player-visible text.
type Censor interface {
	Censor(text string) string
}

// Pipeline drives a single turn generation: prompt assembly, model call,
// parsing and moderation. It works on a room snapshot and never touches
// shared state, so callers are free to run it outside any lock.
type Pipeline struct {
	generator contract.Generator
	censor    Censor
	timeout   time.Duration
	attempts  int
	stats     *observability.GameStats
	logger    *slog.Logger
}

func NewPipeline(
	generator contract.Generator,
	censor Censor,
	timeout time.Duration,
	attempts int,
	stats *observability.GameStats,
	logger *slog.Logger,
) *Pipeline {
	if attempts < 1 {
		attempts = 1
	}
	return &Pipeline{
		generator: generator,
		censor:    censor,
		timeout:   timeout,
		attempts:  attempts,
		stats:     stats,
		logger:    logger,
	}
}

// NextTurn generates the next narrative beat for the given turn holder.
// An answer without any parseable choice triggers a bounded retry; once
// attempts are exhausted the best-effort parse comes back with
// ErrGenerationExhausted so the caller can still surface the text.
func (p *Pipeline) NextTurn(ctx context.Context, room domain.Room, current domain.Player) (domain.LastAIResponse, error) {
	lines := room.History.PromptLines()
	latestEvent := ""
	if len(lines) > 0 {
		latestEvent = lines[len(lines)-1]
		lines = lines[:len(lines)-1]
	}

	messages := []contract.Message{
		{Role: "system", Content: prompts.GameMasterSystem(current.Nickname)},
		{Role: "user", Content: prompts.GameMasterUser(prompts.UserPromptInput{
			Premise:       room.Premise,
			History:       lines,
			LatestEvent:   latestEvent,
			CurrentPlayer: current.Nickname,
			IsNewPlayer:   !room.History.HasChoiceBy(current.Nickname),
			Character:     current.Character,
		})},
	}

	tier := contract.TierQuality
	if room.FastMode {
		tier = contract.TierFast
	}

	var parsed domain.LastAIResponse
	var raw string
	for attempt := 1; attempt <= p.attempts; attempt++ {
		if attempt == 1 {
			p.stats.GenerationStarted()
		} else {
			p.stats.GenerationRetried()
			p.logger.Warn(
				"no choices found, regenerating response",
				"room_id", room.ID,
				"attempt", attempt,
			)
		}

		raw = p.generate(ctx, messages, tier, contract.Metadata{
			RoomID:   room.ID,
			Player:   current.Nickname,
			Retrying: attempt > 1,
		})

		parsed = ParseSections(raw)
		if len(parsed.Choices) > 0 {
			return p.moderate(parsed), nil
		}
	}

	p.stats.GenerationFailed()
	if parsed.Narrative == "" && strings.TrimSpace(raw) != "" {
		parsed.Narrative = strings.TrimSpace(raw)
	}
	return p.moderate(parsed), apperrors.ErrGenerationExhausted
}

func (p *Pipeline) generate(ctx context.Context, messages []contract.Message, tier contract.SpeedTier, meta contract.Metadata) string {
	gctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.generator.Generate(gctx, messages, tier, meta)
}

func (p *Pipeline) moderate(resp domain.LastAIResponse) domain.LastAIResponse {
	if p.censor == nil {
		return resp
	}
	resp.Intro = p.censor.Censor(resp.Intro)
	resp.Narrative = p.censor.Censor(resp.Narrative)
	for i, c := range resp.Choices {
		resp.Choices[i] = p.censor.Censor(c)
	}
	return resp
}
