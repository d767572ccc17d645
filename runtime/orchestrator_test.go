package runtime_test

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"fable-lab/domain"
	"fable-lab/domain/event"
	"fable-lab/mocks"
	"fable-lab/observability"
	"fable-lab/runtime"
	"fable-lab/runtime/workers"
)

const storyResponse = `<intro>The gate creaks open.</intro>
<narrative>Beyond it, the orchard is silent.</narrative>
<choices>
- Enter
- Wait
</choices>`

// recordingSink collects every event a connection would receive.
type recordingSink struct {
	mu     sync.Mutex
	events []event.DomainEvent
}

func (s *recordingSink) Consume(ctx context.Context, e event.DomainEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func (s *recordingSink) received() []event.DomainEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]event.DomainEvent(nil), s.events...)
}

func TestOrchestrator_CreateJoinAndPlayATurn(t *testing.T) {
	req := require.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	roomRepository := mocks.NewMockIRoomRepository(ctrl)
	roomRepository.EXPECT().ListRooms().Return(nil, nil).Times(1)
	roomRepository.EXPECT().StoreRoom(gomock.Any()).Return(nil).AnyTimes()
	roomRepository.EXPECT().DeleteRoom(gomock.Any()).Return(nil).AnyTimes()

	generator := mocks.NewMockGenerator(ctrl)
	generator.EXPECT().
		Generate(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(storyResponse).
		AnyTimes()

	log := slog.New(slog.DiscardHandler)
	supervisor := workers.NewSupervisor(log)
	registry := runtime.NewRegistry()
	stats := &observability.GameStats{}

	o := runtime.NewOrchestrator(
		log, supervisor, registry, roomRepository,
		generator, nil, stats,
		runtime.OrchestratorOptions{
			BufferSize:         64,
			RoomQueueSize:      16,
			SinkTimeout:        time.Second,
			MetricInterval:     time.Minute,
			GenerationTimeout:  time.Second,
			GenerationAttempts: 2,
			CharReplacement:    '*',
		},
	)
	defer o.Stop()

	go func() {
		if err := o.Start(ctx); err != nil {
			t.Errorf("orchestrator failed to start: %v", err)
		}
	}()
	time.Sleep(100 * time.Millisecond) // Let the workers spin up

	// When a room is created
	room, err := o.CreateRoom(ctx, "The Orchard", "an abandoned orchard at dusk", "Alice", false)
	req.NoError(err)
	req.Len(o.ListRooms(), 1)

	// And Alice connects and joins
	aliceSink := &recordingSink{}
	o.RegisterParticipant("alice", room.ID, aliceSink)
	o.Dispatch(domain.JoinRoomCommand{
		RoomID: room.ID,
		Player: domain.Player{SessionID: "alice", ClientID: "c1", Nickname: "Alice"},
	})

	// Then the opening beat is generated and Alice holds the turn
	req.Eventually(func() bool {
		rooms := o.ListRooms()
		return len(rooms) == 1 &&
			rooms[0].CurrentPlayer == "alice" &&
			rooms[0].LastAIResponse != nil &&
			rooms[0].Loading == nil
	}, 2*time.Second, 20*time.Millisecond)

	// When Alice makes her choice
	o.Dispatch(domain.MakeChoiceCommand{RoomID: room.ID, SessionID: "alice", Choice: "Enter"})

	// Then the turn cycle lands in history and comes back around to her
	req.Eventually(func() bool {
		rooms := o.ListRooms()
		return len(rooms) == 1 && len(rooms[0].History) == 3
	}, 2*time.Second, 20*time.Millisecond)
	req.Equal(int64(1), stats.Snapshot().TurnsPlayed)

	// And her connection saw the room updates and the turn cues
	req.Eventually(func() bool {
		var cues int
		for _, e := range aliceSink.received() {
			if _, ok := e.(event.TurnCue); ok {
				cues++
			}
		}
		return cues >= 2
	}, 2*time.Second, 20*time.Millisecond)
}

func TestOrchestrator_RemoveRoom_StopsItsWorker(t *testing.T) {
	req := require.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	roomRepository := mocks.NewMockIRoomRepository(ctrl)
	roomRepository.EXPECT().ListRooms().Return(nil, nil).Times(1)
	roomRepository.EXPECT().StoreRoom(gomock.Any()).Return(nil).AnyTimes()
	roomRepository.EXPECT().DeleteRoom(gomock.Any()).Return(nil).AnyTimes()

	generator := mocks.NewMockGenerator(ctrl)
	generator.EXPECT().
		Generate(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(storyResponse).
		AnyTimes()

	log := slog.New(slog.DiscardHandler)
	o := runtime.NewOrchestrator(
		log, workers.NewSupervisor(log), runtime.NewRegistry(), roomRepository,
		generator, nil, &observability.GameStats{},
		runtime.OrchestratorOptions{
			BufferSize:         64,
			RoomQueueSize:      16,
			SinkTimeout:        time.Second,
			MetricInterval:     time.Minute,
			GenerationTimeout:  time.Second,
			GenerationAttempts: 1,
			CharReplacement:    '*',
		},
	)
	defer o.Stop()

	go func() { _ = o.Start(ctx) }()
	time.Sleep(100 * time.Millisecond)

	room, err := o.CreateRoom(ctx, "Doomed", "a short-lived room", "Alice", false)
	req.NoError(err)

	// When the room is removed
	req.NoError(o.RemoveRoom(room.ID))
	req.Empty(o.ListRooms())

	// Then removing it again reports it gone
	req.Error(o.RemoveRoom(room.ID))
}

func TestOrchestrator_RemoveRoom_KicksItsPlayers(t *testing.T) {
	req := require.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	roomRepository := mocks.NewMockIRoomRepository(ctrl)
	roomRepository.EXPECT().ListRooms().Return(nil, nil).Times(1)
	roomRepository.EXPECT().StoreRoom(gomock.Any()).Return(nil).AnyTimes()
	roomRepository.EXPECT().DeleteRoom(gomock.Any()).Return(nil).AnyTimes()

	generator := mocks.NewMockGenerator(ctrl)
	generator.EXPECT().
		Generate(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(storyResponse).
		AnyTimes()

	log := slog.New(slog.DiscardHandler)
	registry := runtime.NewRegistry()
	o := runtime.NewOrchestrator(
		log, workers.NewSupervisor(log), registry, roomRepository,
		generator, nil, &observability.GameStats{},
		runtime.OrchestratorOptions{
			BufferSize:         64,
			RoomQueueSize:      16,
			SinkTimeout:        time.Second,
			MetricInterval:     time.Minute,
			GenerationTimeout:  time.Second,
			GenerationAttempts: 1,
			CharReplacement:    '*',
		},
	)
	defer o.Stop()

	go func() { _ = o.Start(ctx) }()
	time.Sleep(100 * time.Millisecond)

	room, err := o.CreateRoom(ctx, "Condemned", "a room about to close", "Alice", false)
	req.NoError(err)

	// Given Alice is seated and subscribed
	aliceSink := &recordingSink{}
	o.RegisterParticipant("alice", room.ID, aliceSink)
	o.Dispatch(domain.JoinRoomCommand{
		RoomID: room.ID,
		Player: domain.Player{SessionID: "alice", ClientID: "c1", Nickname: "Alice"},
	})
	req.Eventually(func() bool {
		rooms := o.ListRooms()
		return len(rooms) == 1 && len(rooms[0].Players) == 1 && rooms[0].Loading == nil
	}, 2*time.Second, 20*time.Millisecond)

	// When the room is removed
	req.NoError(o.RemoveRoom(room.ID))

	// Then her connection is told the room is gone and that she was kicked
	req.Eventually(func() bool {
		var removed, kicked bool
		for _, e := range aliceSink.received() {
			switch evt := e.(type) {
			case event.RoomRemoved:
				removed = true
			case event.Kicked:
				kicked = kicked || evt.SessionID == "alice"
			}
		}
		return removed && kicked
	}, 2*time.Second, 20*time.Millisecond)
}

func TestOrchestrator_CreateRoomBeforeStartIsRejected(t *testing.T) {
	req := require.New(t)
	log := slog.New(slog.DiscardHandler)
	o := runtime.NewOrchestrator(
		log, workers.NewSupervisor(log), runtime.NewRegistry(), nil,
		nil, nil, &observability.GameStats{},
		runtime.OrchestratorOptions{BufferSize: 1, RoomQueueSize: 1},
	)

	// Rooms cannot exist before the generation pipeline does
	_, err := o.CreateRoom(context.Background(), "Early", "created before boot", "Alice", false)
	req.Error(err)
}
