package workers

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
	"fable-lab/domain/event"
	"fable-lab/mocks"
)

func TestEventFanout_RoomEventReachesPermanentAndRoomSinks(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockRegistry := mocks.NewMockIRegistry(ctrl)

	permanentSink := mocks.NewMockEventSink(ctrl)
	roomSink := mocks.NewMockEventSink(ctrl)
	roomSinks := []contract.EventSink{roomSink, roomSink}

	fanout := NewEventFanout(
		log, []contract.EventSink{permanentSink},
		mockRegistry, nil, 10*time.Second)

	// Given two connections in the room
	mockRegistry.EXPECT().GetSinksForRoom(domain.RoomID("r1")).Return(roomSinks).Times(1)
	permanentSink.EXPECT().Consume(gomock.Any(), gomock.Any()).Return(nil).Times(1)
	roomSink.EXPECT().Consume(gomock.Any(), gomock.Any()).Return(nil).Times(2)

	evt := event.RoomUpdated{RoomID: "r1"}

	// When the event is fanned out
	fanout.Fanout(context.Background(), evt)

	// Then Fanout returned only after every sink consumed, which the
	// controller verifies on Finish
	req.Equal(domain.RoomID("r1"), evt.Room())
}

func TestEventFanout_LobbyEventReachesEveryConnection(t *testing.T) {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockRegistry := mocks.NewMockIRegistry(ctrl)

	sink := mocks.NewMockEventSink(ctrl)

	fanout := NewEventFanout(
		log, nil,
		mockRegistry, nil, 10*time.Second)

	// Given an event with no room
	// Then every connection is resolved, not a room's members
	mockRegistry.EXPECT().AllSinks().Return([]contract.EventSink{sink, sink, sink}).Times(1)
	sink.EXPECT().Consume(gomock.Any(), gomock.Any()).Return(nil).Times(3)

	fanout.Fanout(context.Background(), event.RoomListChanged{})
}

func TestEventFanout_SinkTimeout(t *testing.T) {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRegistry := mocks.NewMockIRegistry(ctrl)
	sink := mocks.NewMockEventSink(ctrl)

	sinkTimeout := 20 * time.Millisecond
	fanout := NewEventFanout(
		log, nil,
		mockRegistry, nil, sinkTimeout)

	mockRegistry.EXPECT().GetSinksForRoom(gomock.Any()).Return([]contract.EventSink{sink}).Times(1)

	// Given a sink that never consumes in time
	sink.EXPECT().Consume(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, evt event.DomainEvent) error {
			<-ctx.Done()     // Waiting for timeout to trigger cancellation
			return ctx.Err() // Sending back "context deadline exceeded"
		}).
		Times(1)

	start := time.Now()

	// When the event is fanned out
	fanout.Fanout(context.Background(), event.RoomUpdated{RoomID: "r1"})

	// Then the stuck sink delayed delivery by at most the timeout
	require.New(t).Less(time.Since(start), time.Second)
}

func TestEventFanout_RunStopsWhenChannelCloses(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRegistry := mocks.NewMockIRegistry(ctrl)
	sink := mocks.NewMockEventSink(ctrl)
	events := make(chan event.DomainEvent, 1)

	fanout := NewEventFanout(
		log, nil,
		mockRegistry, events, time.Second)

	mockRegistry.EXPECT().GetSinksForRoom(domain.RoomID("r1")).Return([]contract.EventSink{sink}).Times(1)
	sink.EXPECT().Consume(gomock.Any(), gomock.Any()).Return(nil).Times(1)

	events <- event.RoomUpdated{RoomID: "r1"}
	close(events)

	done := make(chan error, 1)
	go func() { done <- fanout.Run(context.Background()) }()

	select {
	case err := <-done:
		req.NoError(err)
	case <-time.After(time.Second):
		req.Fail("Fanout worker should have stopped on channel close")
	}
}
