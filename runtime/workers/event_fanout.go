package workers

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"fable-lab/contract"
	"fable-lab/domain/event"
)

// EventFanout broadcasts domain events to multiple in-process consumers.
//
// It provides best-effort fan-out with no guarantees regarding delivery,
// durability, or retries. EventFanout is not a message broker. Events are
// fanned out one at a time: sinks run in parallel for a single event, but
// event N+1 never starts before every sink finished (or timed out) on N.
//
// Permanent sinks receive everything. Connection sinks are resolved per
// event through the registry, scoped to the event's room. An event with no
// room is a lobby broadcast and reaches every connection.
type EventFanout struct {
	log            *slog.Logger
	permanentSinks []contract.EventSink
	registry       contract.IRegistry
	events         chan event.DomainEvent
	sinkTimeout    time.Duration
}

func NewEventFanout(
	log *slog.Logger,
	permanentSinks []contract.EventSink,
	registry contract.IRegistry,
	events chan event.DomainEvent,
	sinkTimeout time.Duration,
) *EventFanout {
	return &EventFanout{
		log:            log,
		permanentSinks: permanentSinks,
		registry:       registry,
		events:         events,
		sinkTimeout:    sinkTimeout,
	}
}

func (w *EventFanout) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping event fanout")
			return nil
		case evt, ok := <-w.events:
			if !ok {
				return nil
			}
			w.Fanout(ctx, evt)
		}
	}
}

// Fanout delivers one event to every resolved sink, each under its own
// timeout. A slow connection delays at most one event by sinkTimeout.
func (w *EventFanout) Fanout(ctx context.Context, evt event.DomainEvent) {
	sinks := w.resolve(evt)

	var wg sync.WaitGroup
	for _, sink := range sinks {
		wg.Add(1)
		go func(sink contract.EventSink) {
			defer wg.Done()

			sinkCtx, cancel := context.WithTimeout(ctx, w.sinkTimeout)
			defer cancel()

			if err := sink.Consume(sinkCtx, evt); err != nil {
				w.log.Warn("Sink failed to consume event", "room_id", evt.Room(), "error", err)
			}
		}(sink)
	}
	wg.Wait()
}

func (w *EventFanout) resolve(evt event.DomainEvent) []contract.EventSink {
	sinks := make([]contract.EventSink, 0, len(w.permanentSinks))
	sinks = append(sinks, w.permanentSinks...)

	if roomID := evt.Room(); roomID != "" {
		sinks = append(sinks, w.registry.GetSinksForRoom(roomID)...)
	} else {
		sinks = append(sinks, w.registry.AllSinks()...)
	}
	return sinks
}
