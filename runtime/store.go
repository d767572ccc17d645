package runtime

import (
	"fmt"
	"log/slog"
	"sync"

	"fable-lab/domain"
	"fable-lab/domain/event"
	apperrors "fable-lab/errors"
)

// RoomStore owns every room's canonical state. Each access copies: callers
// only ever see snapshots, mutation happens under the store lock through
// Mutate. State changes are announced on the events channel so the fanout
// can push fresh snapshots to clients and the disk sink.
type RoomStore struct {
	mu     sync.RWMutex
	rooms  map[domain.RoomID]*domain.Room
	events chan<- event.DomainEvent
	log    *slog.Logger
}

func NewRoomStore(events chan<- event.DomainEvent, log *slog.Logger) *RoomStore {
	return &RoomStore{
		rooms:  make(map[domain.RoomID]*domain.Room),
		events: events,
		log:    log,
	}
}

func (s *RoomStore) Create(room *domain.Room) error {
	s.mu.Lock()
	if _, ok := s.rooms[room.ID]; ok {
		s.mu.Unlock()
		return fmt.Errorf("room %s already exists", room.ID)
	}
	s.rooms[room.ID] = room
	s.mu.Unlock()

	s.announce(*room)
	return nil
}

func (s *RoomStore) Get(roomID domain.RoomID) (domain.Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return domain.Room{}, false
	}
	return room.Snapshot(), true
}

func (s *RoomStore) List() []domain.Room {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rooms := make([]domain.Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		rooms = append(rooms, room.Snapshot())
	}
	return rooms
}

// Mutate applies fn to the live room under the store lock, then announces
// the updated snapshot. fn must be quick and must not block: anything slow
// belongs outside, working on a snapshot.
func (s *RoomStore) Mutate(roomID domain.RoomID, fn func(room *domain.Room) error) error {
	s.mu.Lock()
	room, ok := s.rooms[roomID]
	if !ok {
		s.mu.Unlock()
		return apperrors.ErrRoomNotFound
	}
	if err := fn(room); err != nil {
		s.mu.Unlock()
		return err
	}
	snapshot := room.Snapshot()
	s.mu.Unlock()

	s.announce(snapshot)
	return nil
}

func (s *RoomStore) Remove(roomID domain.RoomID) bool {
	s.mu.Lock()
	_, ok := s.rooms[roomID]
	delete(s.rooms, roomID)
	s.mu.Unlock()

	if ok {
		s.emit(event.RoomRemoved{RoomID: roomID})
		s.emitRoomList()
	}
	return ok
}

func (s *RoomStore) RemoveAll() []domain.RoomID {
	s.mu.Lock()
	ids := make([]domain.RoomID, 0, len(s.rooms))
	for id := range s.rooms {
		ids = append(ids, id)
	}
	s.rooms = make(map[domain.RoomID]*domain.Room)
	s.mu.Unlock()

	for _, id := range ids {
		s.emit(event.RoomRemoved{RoomID: id})
	}
	s.emitRoomList()
	return ids
}

// Load seeds the store from persisted snapshots at boot. Rooms come back
// paused with empty rosters: connections do not survive a restart.
func (s *RoomStore) Load(rooms []domain.Room) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, room := range rooms {
		r := room.Snapshot()
		r.Players = nil
		r.CurrentPlayer = ""
		r.CurrentTurn = 0
		r.Loading = nil
		s.rooms[r.ID] = &r
	}
}

func (s *RoomStore) announce(snapshot domain.Room) {
	s.emit(event.RoomUpdated{RoomID: snapshot.ID, State: snapshot})
	s.emitRoomList()
}

func (s *RoomStore) emitRoomList() {
	s.emit(event.RoomListChanged{Rooms: s.List()})
}

// emit never blocks. A full event channel means the fanout is drowning;
// dropping here keeps room mutation responsive.
func (s *RoomStore) emit(e event.DomainEvent) {
	select {
	case s.events <- e:
	default:
		s.log.Warn("Event channel full, dropping event", "room_id", e.Room())
	}
}
