//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"fable-lab/domain"
	"fable-lab/domain/event"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

type IRegistry interface {
	GetSinksForRoom(roomID domain.RoomID) []EventSink
	AllSinks() []EventSink
	GetSinkForSession(sessionID string) (EventSink, bool)
	Subscribe(sessionID string, roomID domain.RoomID, sink EventSink)
	Unsubscribe(sessionID string, roomID domain.RoomID)
	UnsubscribeSession(sessionID string, sink EventSink) []domain.RoomID
}

type IOrchestrator interface {
	RegisterSinks(sink ...EventSink)
	Dispatch(cmd domain.Command)
	CreateRoom(ctx context.Context, name, premise, createdBy string, fastMode bool) (*domain.Room, error)
	RemoveRoom(roomID domain.RoomID) error
	ClearRooms()
	RemoveAllPlayers(roomID domain.RoomID) error
	ListRooms() []domain.Room
	RegisterParticipant(sessionID string, roomID domain.RoomID, sink EventSink)
	UnregisterParticipant(sessionID string, roomID domain.RoomID)
	DisconnectSession(sessionID string, sink EventSink)
	Start(ctx context.Context) error
	Stop()
}

// SpeedTier selects which model endpoint serves a generation request.
type SpeedTier int

const (
	TierQuality SpeedTier = iota
	TierFast
)

type Message struct {
	Role    string
	Content string
}

// Metadata travels with a generation request for logging and retry bookkeeping.
type Metadata struct {
	RoomID   domain.RoomID
	Player   string
	Retrying bool
}

// Generator produces narrative text from a chat transcript.
// It never fails: a backend error comes back as a sentinel failure string.
type Generator interface {
	Generate(ctx context.Context, messages []Message, tier SpeedTier, meta Metadata) string
}

type Narration struct {
	CacheKey string
}

// Narrator synthesizes speech for a block of narrative text.
type Narrator interface {
	Synthesize(ctx context.Context, text string) (*Narration, error)
}

type IRoomStore interface {
	Create(room *domain.Room) error
	Get(roomID domain.RoomID) (domain.Room, bool)
	List() []domain.Room
	Mutate(roomID domain.RoomID, fn func(room *domain.Room) error) error
	Remove(roomID domain.RoomID) bool
	RemoveAll() []domain.RoomID
	Load(rooms []domain.Room)
}

type IGameService interface {
	CreateRoom(ctx context.Context, name, premise, createdBy string, fastMode bool) (*domain.Room, error)
	ListRooms() []domain.Room
	Dispatch(cmd domain.Command)
	Join(sessionID string, roomID domain.RoomID, sink EventSink)
	Leave(sessionID string, roomID domain.RoomID)
	Disconnect(sessionID string, sink EventSink)
	Admin() IAdminService
}

// IAdminService groups the password-guarded destructive operations.
type IAdminService interface {
	Authenticate(password string) error
	ClearRooms() error
	RemoveRoom(roomID domain.RoomID) error
	RemoveAllPlayers(roomID domain.RoomID) error
}
