package services

import (
	"log/slog"

	"fable-lab/auth"
	"fable-lab/contract"
	"fable-lab/domain"
	"fable-lab/errors"
)

// AdminService wraps the destructive room operations. Every call must have
// been authenticated first; a nil password hash disables the whole surface.
type AdminService struct {
	orchestrator contract.IOrchestrator
	passwordHash *string
	log          *slog.Logger
}

func NewAdminService(o contract.IOrchestrator, passwordHash *string, log *slog.Logger) *AdminService {
	return &AdminService{orchestrator: o, passwordHash: passwordHash, log: log}
}

func (s *AdminService) Authenticate(password string) error {
	if s.passwordHash == nil {
		return errors.ErrInvalidAdminPassword
	}
	match, err := auth.ComparePassword(password, *s.passwordHash)
	if err != nil {
		return err
	}
	if !match {
		return errors.ErrInvalidAdminPassword
	}
	return nil
}

func (s *AdminService) ClearRooms() error {
	s.log.Warn("Admin clearing all rooms")
	s.orchestrator.ClearRooms()
	return nil
}

func (s *AdminService) RemoveRoom(roomID domain.RoomID) error {
	s.log.Warn("Admin removing room", "room_id", roomID)
	return s.orchestrator.RemoveRoom(roomID)
}

func (s *AdminService) RemoveAllPlayers(roomID domain.RoomID) error {
	s.log.Warn("Admin evicting all players", "room_id", roomID)
	return s.orchestrator.RemoveAllPlayers(roomID)
}
