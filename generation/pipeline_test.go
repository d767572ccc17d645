package generation

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"fable-lab/contract"
	"fable-lab/domain"
	apperrors "fable-lab/errors"
	"fable-lab/mocks"
	"fable-lab/observability"
)

const goodResponse = `<intro>i</intro><narrative>n</narrative><choices>
- A
- B
</choices>`

func pipelineRoom() domain.Room {
	return domain.Room{
		ID:      "room-1",
		Premise: "a flooded mine",
		Players: []domain.Player{{SessionID: "alice", Nickname: "Alice"}},
		History: domain.History{
			domain.Narrative{Kind: domain.KindIntro, Text: "first intro"},
			domain.Choice{Text: "descend", Player: "Bob"},
		},
	}
}

func TestPipeline_FirstAttemptSucceeds(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	generator := mocks.NewMockGenerator(ctrl)
	stats := &observability.GameStats{}

	room := pipelineRoom()
	current := room.Players[0]

	// The latest history entry travels separately from the rest
	generator.EXPECT().
		Generate(gomock.Any(), gomock.Any(), contract.TierQuality, contract.Metadata{
			RoomID: "room-1", Player: "Alice", Retrying: false,
		}).
		DoAndReturn(func(_ context.Context, messages []contract.Message, _ contract.SpeedTier, _ contract.Metadata) string {
			req.Len(messages, 2)
			req.Equal("system", messages[0].Role)
			req.Contains(messages[1].Content, "Latest event:\nBob chose: **descend**")
			req.NotContains(messages[1].Content, "Events:\nBob chose")
			return goodResponse
		}).
		Times(1)

	p := NewPipeline(generator, nil, time.Second, 2, stats, log)
	resp, err := p.NextTurn(context.Background(), room, current)

	req.NoError(err)
	req.Equal([]string{"A", "B"}, resp.Choices)
	req.Equal(int64(1), stats.Snapshot().GenerationsStarted)
	req.Zero(stats.Snapshot().GenerationRetries)
}

func TestPipeline_RetriesOnceThenSucceeds(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	generator := mocks.NewMockGenerator(ctrl)
	stats := &observability.GameStats{}

	room := pipelineRoom()

	gomock.InOrder(
		generator.EXPECT().
			Generate(gomock.Any(), gomock.Any(), gomock.Any(), contract.Metadata{
				RoomID: "room-1", Player: "Alice", Retrying: false,
			}).
			Return("Error generating AI response"),
		generator.EXPECT().
			Generate(gomock.Any(), gomock.Any(), gomock.Any(), contract.Metadata{
				RoomID: "room-1", Player: "Alice", Retrying: true,
			}).
			Return(goodResponse),
	)

	p := NewPipeline(generator, nil, time.Second, 2, stats, log)
	resp, err := p.NextTurn(context.Background(), room, room.Players[0])

	req.NoError(err)
	req.NotEmpty(resp.Choices)
	req.Equal(int64(1), stats.Snapshot().GenerationRetries)
}

func TestPipeline_ExhaustedAttemptsSurfaceRawText(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	generator := mocks.NewMockGenerator(ctrl)
	stats := &observability.GameStats{}

	// Every attempt comes back without choices; the retry loop must stop
	generator.EXPECT().
		Generate(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return("  something went sideways  ").
		Times(2)

	p := NewPipeline(generator, nil, time.Second, 2, stats, log)
	resp, err := p.NextTurn(context.Background(), pipelineRoom(), domain.Player{SessionID: "alice", Nickname: "Alice"})

	req.ErrorIs(err, apperrors.ErrGenerationExhausted)
	req.Equal("something went sideways", resp.Narrative)
	req.Empty(resp.Choices)
	req.Equal(int64(1), stats.Snapshot().GenerationFailures)
}

func TestPipeline_FastModeUsesFastTier(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	generator := mocks.NewMockGenerator(ctrl)

	room := pipelineRoom()
	room.FastMode = true

	generator.EXPECT().
		Generate(gomock.Any(), gomock.Any(), contract.TierFast, gomock.Any()).
		Return(goodResponse).
		Times(1)

	p := NewPipeline(generator, nil, time.Second, 1, &observability.GameStats{}, log)
	_, err := p.NextTurn(context.Background(), room, room.Players[0])
	req.NoError(err)
}
