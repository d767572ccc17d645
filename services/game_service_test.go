package services

import (
	"log/slog"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"fable-lab/domain"
	"fable-lab/mocks"
)

func TestGameService_Leave_Unsubscribes_Then_Evicts(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	orchestrator := mocks.NewMockIOrchestrator(ctrl)

	service := NewGameService(orchestrator, nil)

	gomock.InOrder(
		orchestrator.EXPECT().UnregisterParticipant("s1", domain.RoomID("r1")),
		orchestrator.EXPECT().Dispatch(domain.LeaveRoomCommand{RoomID: "r1", SessionID: "s1"}),
	)

	service.Leave("s1", "r1")
}

func TestGameService_Admin_Surface(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	orchestrator := mocks.NewMockIOrchestrator(ctrl)

	admin := NewAdminService(orchestrator, nil, log)
	service := NewGameService(orchestrator, admin)

	req.NotNil(service.Admin())
}
