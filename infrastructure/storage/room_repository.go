//go:generate go run go.uber.org/mock/mockgen -source=room_repository.go -destination=../../mocks/mock_room_repository.go -package=mocks
package storage

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"fable-lab/domain"
)

type IRoomRepository interface {
	StoreRoom(room domain.Room) error
	GetRoom(roomID domain.RoomID) (*domain.Room, error)
	ListRooms() ([]domain.Room, error)
	DeleteRoom(roomID domain.RoomID) error
}

type RoomRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewRoomRepository(db *badger.DB, log *slog.Logger) RoomRepository {
	return RoomRepository{db: db, log: log}
}

func roomKey(roomID domain.RoomID) []byte {
	return []byte(fmt.Sprintf("room:%s", roomID))
}

// StoreRoom persists the full room snapshot under "room:{id}". The whole
// room is small enough that rewriting it on every change beats maintaining
// per-field keys.
func (r RoomRepository) StoreRoom(room domain.Room) error {
	bytes, err := json.Marshal(room)
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(roomKey(room.ID), bytes)
	})
}

func (r RoomRepository) GetRoom(roomID domain.RoomID) (*domain.Room, error) {
	var room domain.Room
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(roomKey(roomID))
		if err != nil {
			return err
		}
		return item.Value(func(value []byte) error {
			return json.Unmarshal(value, &room)
		})
	})
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// ListRooms scans the "room:" prefix. Used once at boot to rehydrate the
// in-memory store.
func (r RoomRepository) ListRooms() ([]domain.Room, error) {
	var rooms []domain.Room
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := []byte("room:")
		options := badger.DefaultIteratorOptions
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(value []byte) error {
				var room domain.Room
				if err := json.Unmarshal(value, &room); err != nil {
					return err
				}
				rooms = append(rooms, room)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rooms, nil
}

func (r RoomRepository) DeleteRoom(roomID domain.RoomID) error {
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(roomKey(roomID))
	})
}
