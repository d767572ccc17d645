package workers

import (
	"context"
	"fmt"
	"log/slog"

	"fable-lab/contract"
	"fable-lab/domain"
	"fable-lab/domain/event"
	"fable-lab/generation"
	"fable-lab/observability"
)

const generatingMessage = "Generating next turn..."

// RoomWorker serializes all activity for a single room. Commands are
// consumed one at a time from a buffered channel, so there is never a
// concurrent mutation of one room's state. Turn generation runs inline on
// a snapshot: commands arriving meanwhile buffer and apply after the
// generated turn is committed.
type RoomWorker struct {
	roomID   domain.RoomID
	commands chan domain.Command
	store    contract.IRoomStore
	pipeline *generation.Pipeline
	narrator contract.Narrator // nil disables narration
	censor   generation.Censor
	events   chan<- event.DomainEvent
	dispatch func(domain.Command)
	stats    *observability.GameStats
	log      *slog.Logger
}

func NewRoomWorker(
	roomID domain.RoomID,
	commands chan domain.Command,
	store contract.IRoomStore,
	pipeline *generation.Pipeline,
	narrator contract.Narrator,
	censor generation.Censor,
	events chan<- event.DomainEvent,
	dispatch func(domain.Command),
	stats *observability.GameStats,
	log *slog.Logger,
) *RoomWorker {
	return &RoomWorker{
		roomID:   roomID,
		commands: commands,
		store:    store,
		pipeline: pipeline,
		narrator: narrator,
		censor:   censor,
		events:   events,
		dispatch: dispatch,
		stats:    stats,
		log:      log,
	}
}

func (w *RoomWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping room worker", "room_id", w.roomID)
			return nil
		case cmd, ok := <-w.commands:
			if !ok {
				return nil
			}
			w.handle(ctx, cmd)
		}
	}
}

func (w *RoomWorker) handle(ctx context.Context, cmd domain.Command) {
	switch c := cmd.(type) {
	case domain.JoinRoomCommand:
		w.handleJoin(ctx, c)
	case domain.LeaveRoomCommand:
		w.handleLeave(c)
	case domain.MakeChoiceCommand:
		w.handleChoice(ctx, c)
	case domain.RegenerateCommand:
		w.handleRegenerate(ctx, c)
	case domain.RequestTurnCommand:
		w.handleRequestTurn(ctx, c)
	case domain.ResetPlayersCommand:
		w.handleResetPlayers(c)
	case domain.AttachNarrationCommand:
		w.handleAttachNarration(c)
	default:
		w.log.Warn(fmt.Sprintf("Unknown command %T for room %s", cmd, w.roomID))
	}
}

// handleJoin admits a new player or rebinds an existing seat. The client
// identity is what survives reconnects: a known clientId arriving under a
// fresh session takes over its old seat, keeping position and turn. When
// the first active player arrives in an idle room, they get the turn and
// the opening beat is generated for them.
func (w *RoomWorker) handleJoin(ctx context.Context, cmd domain.JoinRoomCommand) {
	player := cmd.Player
	player.IsSpectator = cmd.Spectator
	if w.censor != nil {
		player.Nickname = w.censor.Censor(player.Nickname)
	}

	seeded := false
	err := w.store.Mutate(w.roomID, func(room *domain.Room) error {
		activeBefore := len(room.ActivePlayers())

		var existing *domain.Player
		if player.ClientID != "" {
			if idx := room.FindByClientID(player.ClientID); idx >= 0 {
				existing = &room.Players[idx]
			}
		}
		if existing == nil {
			existing = room.FindBySession(player.SessionID)
		}
		if existing != nil {
			room.RebindSession(existing, player.SessionID)
			if player.ClientID != "" {
				existing.ClientID = player.ClientID
			}
			if player.Nickname != "" {
				existing.Nickname = player.Nickname
			}
			if player.Character != nil {
				existing.Character = player.Character
			}
			room.SetSpectator(existing.SessionID, player.IsSpectator)
			return nil
		}

		room.AddPlayer(player)

		if !player.IsSpectator && activeBefore == 0 {
			room.ClaimTurn(player.SessionID)
			seeded = room.LastAIResponse == nil && room.Loading == nil
		}
		return nil
	})
	if err != nil {
		w.log.Warn("Join failed", "room_id", w.roomID, "session_id", player.SessionID, "error", err)
		return
	}

	w.emit(event.PlayerJoined{RoomID: w.roomID, Nickname: player.Nickname})

	if seeded {
		w.generate(ctx, player.SessionID)
	}
}

func (w *RoomWorker) handleLeave(cmd domain.LeaveRoomCommand) {
	err := w.store.Mutate(w.roomID, func(room *domain.Room) error {
		room.RemovePlayer(cmd.SessionID)
		return nil
	})
	if err != nil {
		w.log.Debug("Leave on missing room", "room_id", w.roomID, "error", err)
	}
}

// handleChoice validates the acting player, records the turn triple in
// history and launches generation for the next player in rotation. Every
// failed guard is a silent drop: a stale client resending a choice must
// not corrupt the room.
func (w *RoomWorker) handleChoice(ctx context.Context, cmd domain.MakeChoiceCommand) {
	choice := cmd.Choice
	if w.censor != nil {
		choice = w.censor.Censor(choice)
	}

	var nextSession string
	err := w.store.Mutate(w.roomID, func(room *domain.Room) error {
		actor := room.FindBySession(cmd.SessionID)
		switch {
		case actor == nil,
			actor.IsSpectator,
			!room.IsActorsTurn(cmd.SessionID),
			room.CurrentPlayer != cmd.SessionID,
			room.Loading != nil,
			room.LastAIResponse == nil:
			return fmt.Errorf("choice rejected for session %s", cmd.SessionID)
		}

		room.AppendTurnCycle(*room.LastAIResponse, domain.Choice{
			Text:   choice,
			Player: actor.Nickname,
		})

		room.CurrentTurn = room.NextTurnIndex(cmd.SessionID)
		next, ok := room.CurrentActor()
		if !ok {
			room.CurrentPlayer = ""
			return nil
		}
		room.CurrentPlayer = next.SessionID
		nextSession = next.SessionID

		room.LastAIResponse = nil
		return nil
	})
	if err != nil {
		w.log.Debug("Dropping choice", "room_id", w.roomID, "session_id", cmd.SessionID, "reason", err)
		return
	}

	w.stats.TurnPlayed()

	if nextSession != "" {
		w.generate(ctx, nextSession)
	}
}

// handleRegenerate throws away the pending response and produces a new one
// for the same turn holder. History is untouched: nothing was consumed yet.
func (w *RoomWorker) handleRegenerate(ctx context.Context, cmd domain.RegenerateCommand) {
	var turnHolder string
	err := w.store.Mutate(w.roomID, func(room *domain.Room) error {
		actor := room.FindBySession(cmd.SessionID)
		switch {
		case actor == nil,
			actor.IsSpectator,
			room.Loading != nil,
			room.LastAIResponse == nil,
			room.CurrentPlayer == "":
			return fmt.Errorf("regenerate rejected for session %s", cmd.SessionID)
		}
		room.LastAIResponse = nil
		turnHolder = room.CurrentPlayer
		return nil
	})
	if err != nil {
		w.log.Debug("Dropping regenerate", "room_id", w.roomID, "session_id", cmd.SessionID, "reason", err)
		return
	}

	w.generate(ctx, turnHolder)
}

// handleRequestTurn covers two intents. A spectator requesting the turn
// always opts into the rotation at their seat position. Claiming the turn
// on top of that only happens when nobody holds it, which is the state a
// room lands in after the turn holder left mid-game.
func (w *RoomWorker) handleRequestTurn(ctx context.Context, cmd domain.RequestTurnCommand) {
	seeded := false
	claimed := false
	err := w.store.Mutate(w.roomID, func(room *domain.Room) error {
		if room.Loading != nil {
			return fmt.Errorf("turn request rejected for session %s, generation in flight", cmd.SessionID)
		}
		if room.FindBySession(cmd.SessionID) == nil {
			return fmt.Errorf("session %s is not in the room", cmd.SessionID)
		}
		if !room.Paused() {
			// Someone holds the turn: the request can only be a spectator
			// stepping into the rotation.
			if !room.SetSpectator(cmd.SessionID, false) {
				return fmt.Errorf("turn request rejected for session %s, turn is held", cmd.SessionID)
			}
			return nil
		}
		room.SetSpectator(cmd.SessionID, false)
		if !room.ClaimTurn(cmd.SessionID) {
			return fmt.Errorf("session %s cannot claim a turn", cmd.SessionID)
		}
		claimed = true
		seeded = room.LastAIResponse == nil
		return nil
	})
	if err != nil {
		w.log.Debug("Dropping turn request", "room_id", w.roomID, "session_id", cmd.SessionID, "reason", err)
		return
	}
	if !claimed {
		return
	}

	if seeded {
		w.generate(ctx, cmd.SessionID)
		return
	}
	w.cueTurn()
}

func (w *RoomWorker) handleResetPlayers(cmd domain.ResetPlayersCommand) {
	var kicked []string
	err := w.store.Mutate(w.roomID, func(room *domain.Room) error {
		for _, p := range room.Players {
			kicked = append(kicked, p.SessionID)
		}
		room.Players = nil
		room.CurrentPlayer = ""
		room.CurrentTurn = 0
		return nil
	})
	if err != nil {
		w.log.Debug("Reset on missing room", "room_id", w.roomID, "error", err)
		return
	}

	for _, sessionID := range kicked {
		w.emit(event.Kicked{RoomID: w.roomID, SessionID: sessionID})
	}
}

// handleAttachNarration binds audio to the turn it was synthesized for.
// The generation counter rejects audio that finished after the room
// already moved to another turn.
func (w *RoomWorker) handleAttachNarration(cmd domain.AttachNarrationCommand) {
	err := w.store.Mutate(w.roomID, func(room *domain.Room) error {
		if room.Generation != cmd.Generation || room.LastAIResponse == nil {
			return fmt.Errorf("narration %s arrived for a stale turn", cmd.AudioRef)
		}
		room.LastAIResponse.TTS = cmd.AudioRef
		return nil
	})
	if err != nil {
		w.log.Debug("Dropping narration", "room_id", w.roomID, "reason", err)
	}
}

// generate produces the next turn for the given session. It runs inline:
// the worker does not consume further commands until the result is
// committed, which is exactly the serialization the room needs.
func (w *RoomWorker) generate(ctx context.Context, sessionID string) {
	var snapshot domain.Room
	err := w.store.Mutate(w.roomID, func(room *domain.Room) error {
		room.Loading = &domain.LoadingState{Message: generatingMessage}
		room.CurrentPlayer = sessionID
		snapshot = room.Snapshot()
		return nil
	})
	if err != nil {
		w.log.Warn("Generation aborted, room is gone", "room_id", w.roomID, "error", err)
		return
	}

	current := snapshot.FindBySession(sessionID)
	if current == nil {
		w.clearLoading()
		return
	}

	resp, genErr := w.pipeline.NextTurn(ctx, snapshot, *current)
	if genErr != nil {
		w.log.Error("Turn generation exhausted retries", "room_id", w.roomID, "error", genErr)
	}

	var generationID uint64
	err = w.store.Mutate(w.roomID, func(room *domain.Room) error {
		room.Generation++
		generationID = room.Generation
		room.LastAIResponse = &resp
		room.Loading = nil
		if pos := room.ActiveIndexOf(sessionID); pos >= 0 {
			room.CurrentTurn = pos
			room.CurrentPlayer = sessionID
		}
		return nil
	})
	if err != nil {
		w.log.Warn("Generated turn lost, room is gone", "room_id", w.roomID, "error", err)
		return
	}

	w.cueTurn()
	if resp.Narrative != "" {
		// The voiced text is the intro followed by the narrative, which is
		// also what the audio cache is keyed on.
		w.narrate(ctx, resp.Intro+"\n"+resp.Narrative, generationID)
	}
}

// narrate synthesizes audio off the worker goroutine and hands the result
// back through the command channel, tagged with the generation it belongs to.
func (w *RoomWorker) narrate(ctx context.Context, text string, generationID uint64) {
	if w.narrator == nil || text == "" {
		return
	}
	go func() {
		narration, err := w.narrator.Synthesize(ctx, text)
		if err != nil {
			w.log.Warn("Narration failed", "room_id", w.roomID, "error", err)
			return
		}
		w.dispatch(domain.AttachNarrationCommand{
			RoomID:     w.roomID,
			Generation: generationID,
			AudioRef:   narration.CacheKey,
		})
	}()
}

func (w *RoomWorker) cueTurn() {
	snapshot, ok := w.store.Get(w.roomID)
	if !ok || snapshot.CurrentPlayer == "" {
		return
	}
	actor := snapshot.FindBySession(snapshot.CurrentPlayer)
	if actor == nil {
		return
	}
	w.emit(event.TurnCue{RoomID: w.roomID, SessionID: actor.SessionID, Nickname: actor.Nickname})
}

func (w *RoomWorker) clearLoading() {
	_ = w.store.Mutate(w.roomID, func(room *domain.Room) error {
		room.Loading = nil
		return nil
	})
}

func (w *RoomWorker) emit(e event.DomainEvent) {
	select {
	case w.events <- e:
	default:
		w.log.Warn("Event channel full, dropping event", "room_id", w.roomID)
	}
}
