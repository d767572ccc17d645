package runtime

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"fable-lab/contract"
	"fable-lab/domain"
	"fable-lab/domain/event"
	apperrors "fable-lab/errors"
	"fable-lab/generation"
	"fable-lab/infrastructure/storage"
	"fable-lab/moderation"
	"fable-lab/observability"
	"fable-lab/runtime/workers"
	"fable-lab/sink"
)

//go:embed censored/*
var censoredFolder embed.FS

// Orchestrator owns the room lifecycle: one command queue and one
// supervised worker per room, a shared fanout for events, and the store
// holding canonical state. All public methods are safe for concurrent use.
type Orchestrator struct {
	mu             sync.Mutex
	log            *slog.Logger
	store          contract.IRoomStore
	supervisor     contract.ISupervisor
	registry       contract.IRegistry
	roomRepository storage.IRoomRepository
	generator      contract.Generator
	narrator       contract.Narrator
	stats          *observability.GameStats
	pipeline       *generation.Pipeline
	moderator      *moderation.Moderator

	events         chan event.DomainEvent
	queues         map[domain.RoomID]chan domain.Command
	permanentSinks []contract.EventSink
	runCtx         context.Context

	roomQueueSize      int
	persistRetries     int
	sinkTimeout        time.Duration
	metricInterval     time.Duration
	generationTimeout  time.Duration
	generationAttempts int
	charReplacement    rune
}

type OrchestratorOptions struct {
	BufferSize         int
	RoomQueueSize      int
	PersistRetries     int
	SinkTimeout        time.Duration
	MetricInterval     time.Duration
	GenerationTimeout  time.Duration
	GenerationAttempts int
	CharReplacement    rune
}

func NewOrchestrator(
	log *slog.Logger,
	supervisor *workers.Supervisor,
	registry *Registry,
	roomRepository storage.IRoomRepository,
	generator contract.Generator,
	narrator contract.Narrator,
	stats *observability.GameStats,
	opts OrchestratorOptions,
) *Orchestrator {
	events := make(chan event.DomainEvent, opts.BufferSize)
	return &Orchestrator{
		log:                log,
		store:              NewRoomStore(events, log),
		supervisor:         supervisor,
		registry:           registry,
		roomRepository:     roomRepository,
		generator:          generator,
		narrator:           narrator,
		stats:              stats,
		events:             events,
		queues:             make(map[domain.RoomID]chan domain.Command),
		roomQueueSize:      opts.RoomQueueSize,
		persistRetries:     opts.PersistRetries,
		sinkTimeout:        opts.SinkTimeout,
		metricInterval:     opts.MetricInterval,
		generationTimeout:  opts.GenerationTimeout,
		generationAttempts: opts.GenerationAttempts,
		charReplacement:    opts.CharReplacement,
	}
}

func (o *Orchestrator) RegisterSinks(sinks ...contract.EventSink) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.permanentSinks = append(o.permanentSinks, sinks...)
}

// Dispatch routes a command to its room's queue without blocking. A full
// queue drops the command: the room is overloaded and a lost command is
// recoverable client-side, a stalled dispatcher is not.
func (o *Orchestrator) Dispatch(cmd domain.Command) {
	o.mu.Lock()
	queue, ok := o.queues[cmd.Room()]
	o.mu.Unlock()

	if !ok {
		o.log.Warn(fmt.Sprintf("No queue for room %s, dropping %T", cmd.Room(), cmd))
		return
	}
	select {
	case queue <- cmd:
	default:
		o.stats.CommandDropped()
		o.log.Warn(fmt.Sprintf("Command queue full for room %s, dropping %T", cmd.Room(), cmd))
	}
}

// Start prepares moderation, rehydrates persisted rooms and launches the
// supervised workers. It blocks until the context is canceled.
// Heavy work (loading files, building the Aho-Corasick automaton, badger
// scans) happens before taking the lock.
func (o *Orchestrator) Start(ctx context.Context) error {
	moderator, err := o.prepareModeration("censored", o.charReplacement)
	if err != nil {
		return err
	}
	pipeline := generation.NewPipeline(
		o.generator,
		moderator,
		o.generationTimeout,
		o.generationAttempts,
		o.stats,
		o.log,
	)
	o.mu.Lock()
	o.moderator = moderator
	o.pipeline = pipeline
	o.mu.Unlock()

	restored, err := o.rehydrate()
	if err != nil {
		return err
	}

	fanout := workers.NewEventFanout(
		o.log,
		append(o.permanentSinks, sink.NewDiskSink(o.roomRepository, o.persistRetries, o.log)),
		o.registry,
		o.events,
		o.sinkTimeout,
	)
	telemetry := workers.NewTelemetryWorker(o.log, o.metricInterval, o.stats, o.store, o.registry)

	o.mu.Lock()
	o.runCtx = ctx
	o.supervisor.Add(fanout, telemetry)
	for _, w := range restored {
		o.supervisor.Add(w)
	}
	o.mu.Unlock()

	o.log.Info("Starting orchestrator and all supervised workers")
	o.supervisor.Run(ctx)
	return nil
}

// CreateRoom registers a new room and spawns its worker. Rooms created
// after boot attach to the already-running supervisor.
func (o *Orchestrator) CreateRoom(ctx context.Context, name, premise, createdBy string, fastMode bool) (*domain.Room, error) {
	o.mu.Lock()
	moderator := o.moderator
	ready := o.pipeline != nil
	o.mu.Unlock()
	if !ready {
		return nil, fmt.Errorf("orchestrator is not started")
	}

	if moderator != nil {
		name = moderator.Censor(name)
		premise = moderator.Censor(premise)
	}
	room := &domain.Room{
		ID:        domain.RoomID(uuid.NewString()),
		Name:      name,
		Premise:   premise,
		FastMode:  fastMode,
		CreatedBy: createdBy,
		CreatedAt: time.Now().UTC(),
	}
	if err := o.store.Create(room); err != nil {
		return nil, err
	}

	worker := o.registerWorker(room.ID)

	o.mu.Lock()
	runCtx := o.runCtx
	o.mu.Unlock()
	if runCtx == nil {
		runCtx = ctx
	}
	o.supervisor.Start(runCtx, worker)

	o.log.Info(fmt.Sprintf("Room %q created", name), "room_id", room.ID, "created_by", createdBy)
	snapshot := room.Snapshot()
	return &snapshot, nil
}

func (o *Orchestrator) ListRooms() []domain.Room {
	return o.store.List()
}

// RemoveRoom tears the room down: the queue closes, which ends the worker
// cleanly, the store emits the removal for sinks to act on, and every
// seated session is kicked so its connection detaches from the dead room.
func (o *Orchestrator) RemoveRoom(roomID domain.RoomID) error {
	room, found := o.store.Get(roomID)
	if !found {
		return apperrors.ErrRoomNotFound
	}

	o.mu.Lock()
	queue, ok := o.queues[roomID]
	delete(o.queues, roomID)
	o.mu.Unlock()

	if !o.store.Remove(roomID) {
		return apperrors.ErrRoomNotFound
	}
	if ok {
		close(queue)
	}
	o.kickAll(room)
	return nil
}

func (o *Orchestrator) ClearRooms() {
	rooms := o.store.List()
	rosters := make(map[domain.RoomID]domain.Room, len(rooms))
	for _, room := range rooms {
		rosters[room.ID] = room
	}

	for _, roomID := range o.store.RemoveAll() {
		o.mu.Lock()
		queue, ok := o.queues[roomID]
		delete(o.queues, roomID)
		o.mu.Unlock()
		if ok {
			close(queue)
		}
		o.kickAll(rosters[roomID])
	}
}

// kickAll tells every seated session its room is gone. The Kicked event is
// what makes each connection leave, which in turn clears the room's entry
// in the registry.
func (o *Orchestrator) kickAll(room domain.Room) {
	for _, p := range room.Players {
		o.emit(event.Kicked{RoomID: room.ID, SessionID: p.SessionID})
	}
}

func (o *Orchestrator) emit(e event.DomainEvent) {
	select {
	case o.events <- e:
	default:
		o.log.Warn("Event channel full, dropping event", "room_id", e.Room())
	}
}

func (o *Orchestrator) RemoveAllPlayers(roomID domain.RoomID) error {
	if _, ok := o.store.Get(roomID); !ok {
		return apperrors.ErrRoomNotFound
	}
	o.Dispatch(domain.ResetPlayersCommand{RoomID: roomID})
	return nil
}

func (o *Orchestrator) RegisterParticipant(sessionID string, roomID domain.RoomID, s contract.EventSink) {
	o.registry.Subscribe(sessionID, roomID, s)
}

func (o *Orchestrator) UnregisterParticipant(sessionID string, roomID domain.RoomID) {
	o.registry.Unsubscribe(sessionID, roomID)
}

// DisconnectSession drops the connection and evicts the session from every
// room it was in, as if it had left each one. The sink identifies which
// connection is dying: a reclaimed session under a newer connection stays.
func (o *Orchestrator) DisconnectSession(sessionID string, s contract.EventSink) {
	for _, roomID := range o.registry.UnsubscribeSession(sessionID, s) {
		o.Dispatch(domain.LeaveRoomCommand{RoomID: roomID, SessionID: sessionID})
	}
}

// Stop initiates a graceful shutdown by canceling the supervision context.
func (o *Orchestrator) Stop() {
	o.log.Info("Requesting orchestrator shutdown")
	o.supervisor.Stop()
}

// rehydrate loads persisted rooms into the store and builds a worker for
// each. Rosters come back empty: players reconnect on their own.
func (o *Orchestrator) rehydrate() ([]contract.Worker, error) {
	rooms, err := o.roomRepository.ListRooms()
	if err != nil {
		return nil, err
	}
	o.store.Load(rooms)
	o.log.Info(fmt.Sprintf("%d rooms restored from disk", len(rooms)))

	restored := make([]contract.Worker, 0, len(rooms))
	for _, room := range rooms {
		restored = append(restored, o.registerWorker(room.ID))
	}
	return restored, nil
}

func (o *Orchestrator) registerWorker(roomID domain.RoomID) contract.Worker {
	queue := make(chan domain.Command, o.roomQueueSize)

	o.mu.Lock()
	o.queues[roomID] = queue
	pipeline := o.pipeline
	moderator := o.moderator
	o.mu.Unlock()

	return workers.NewRoomWorker(
		roomID,
		queue,
		o.store,
		pipeline,
		o.narrator,
		moderator,
		o.events,
		o.Dispatch,
		o.stats,
		o.log,
	)
}

// prepareModeration loads censored words and builds the Aho-Corasick automaton.
func (o *Orchestrator) prepareModeration(path string, charReplacement rune) (*moderation.Moderator, error) {
	loader := NewCensoredLoader(censoredFolder)
	data, err := loader.LoadAll(path)
	if err != nil {
		return nil, err
	}

	o.log.Info(fmt.Sprintf("%d censored files loaded [%s]",
		len(data.Languages), strings.Join(data.Languages, ",")))
	o.log.Info(fmt.Sprintf("%d unique censored words loaded", len(data.Words)))

	moderator, err := moderation.NewModerator(data.Words, charReplacement)
	if err != nil {
		return nil, err
	}
	return &moderator, nil
}
