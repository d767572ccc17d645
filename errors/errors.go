package errors

import "fmt"

var (
	ErrWorkerPanic          = fmt.Errorf("worker panic")
	ErrRoomNotFound         = fmt.Errorf("room not found")
	ErrNotYourTurn          = fmt.Errorf("not your turn")
	ErrSpectatorCannotAct   = fmt.Errorf("spectators cannot act")
	ErrEmptyWords           = fmt.Errorf("no censored words have been found")
	ErrGenerationExhausted  = fmt.Errorf("generation attempts exhausted")
	ErrInvalidAdminPassword = fmt.Errorf("invalid admin password")
	ErrInvalidHashFormat    = fmt.Errorf("invalid password hash format")
)
