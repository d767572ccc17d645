//go:generate go run go.uber.org/mock/mockgen -source=audio_repository.go -destination=../../mocks/mock_audio_repository.go -package=mocks
package storage

import (
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
)

type IAudioRepository interface {
	StoreAudio(hash string, audio []byte) error
	GetAudio(hash string) ([]byte, error)
}

// AudioRepository keeps synthesized narration under "tts:{md5}". Audio is
// immutable once written, so there is no update path.
type AudioRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewAudioRepository(db *badger.DB, log *slog.Logger) AudioRepository {
	return AudioRepository{db: db, log: log}
}

func audioKey(hash string) []byte {
	return []byte(fmt.Sprintf("tts:%s", hash))
}

func (a AudioRepository) StoreAudio(hash string, audio []byte) error {
	a.log.Debug(fmt.Sprintf("Storing %d audio bytes", len(audio)), "hash", hash)
	return a.db.Update(func(txn *badger.Txn) error {
		return txn.Set(audioKey(hash), audio)
	})
}

func (a AudioRepository) GetAudio(hash string) ([]byte, error) {
	var audio []byte
	err := a.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(audioKey(hash))
		if err != nil {
			return err
		}
		audio, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return audio, nil
}
