// Package services exposes the orchestrator to transports behind small
// intention-revealing facades.
package services

import (
	"context"

	"fable-lab/contract"
	"fable-lab/domain"
)

type GameService struct {
	orchestrator contract.IOrchestrator
	admin        *AdminService
}

func NewGameService(o contract.IOrchestrator, admin *AdminService) *GameService {
	return &GameService{orchestrator: o, admin: admin}
}

func (s *GameService) CreateRoom(ctx context.Context, name, premise, createdBy string, fastMode bool) (*domain.Room, error) {
	return s.orchestrator.CreateRoom(ctx, name, premise, createdBy, fastMode)
}

func (s *GameService) ListRooms() []domain.Room {
	return s.orchestrator.ListRooms()
}

func (s *GameService) Dispatch(cmd domain.Command) {
	s.orchestrator.Dispatch(cmd)
}

// Join subscribes the connection to room events before the join command is
// queued, so the joining player receives their own snapshot.
func (s *GameService) Join(sessionID string, roomID domain.RoomID, sink contract.EventSink) {
	s.orchestrator.RegisterParticipant(sessionID, roomID, sink)
}

func (s *GameService) Leave(sessionID string, roomID domain.RoomID) {
	s.orchestrator.UnregisterParticipant(sessionID, roomID)
	s.orchestrator.Dispatch(domain.LeaveRoomCommand{RoomID: roomID, SessionID: sessionID})
}

func (s *GameService) Disconnect(sessionID string, sink contract.EventSink) {
	s.orchestrator.DisconnectSession(sessionID, sink)
}

func (s *GameService) Admin() contract.IAdminService {
	return s.admin
}
