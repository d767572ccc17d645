package sink

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fable-lab/domain/event"
	"fable-lab/infrastructure/storage"
)

const retryBackoff = 50 * time.Millisecond

// DiskSink persists room snapshots as they change, so a restart can bring
// rooms back with their premise and history intact. Persistence is best
// effort: a failed write never rolls back the in-memory state, it just gets
// a bounded retry and a log line.
type DiskSink struct {
	repository storage.IRoomRepository
	retries    int
	log        *slog.Logger
}

func NewDiskSink(repository storage.IRoomRepository, retries int, log *slog.Logger) DiskSink {
	if retries < 0 {
		retries = 0
	}
	return DiskSink{repository: repository, retries: retries, log: log}
}

func (d DiskSink) Consume(ctx context.Context, e event.DomainEvent) error {
	switch evt := e.(type) {
	case event.RoomUpdated:
		return d.withRetry(ctx, "store", func() error {
			return d.repository.StoreRoom(evt.State)
		})
	case event.RoomRemoved:
		return d.withRetry(ctx, "delete", func() error {
			return d.repository.DeleteRoom(evt.RoomID)
		})
	default:
		d.log.Debug(fmt.Sprintf("Not implemented event : %v", evt))
		return nil
	}
}

func (d DiskSink) withRetry(ctx context.Context, op string, fn func() error) error {
	var err error
	for attempt := 0; attempt <= d.retries; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt < d.retries {
			select {
			case <-ctx.Done():
				return err
			case <-time.After(retryBackoff):
			}
		}
	}
	d.log.Warn(fmt.Sprintf("Giving up on %s after %d attempts", op, d.retries+1), "error", err)
	return err
}
