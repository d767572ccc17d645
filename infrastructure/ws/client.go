package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"

	"fable-lab/contract"
	"fable-lab/domain"
	"fable-lab/domain/event"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBufferSize = 64
)

// Client binds one WebSocket connection to a session. It doubles as the
// session's EventSink: domain events are translated to outbound frames and
// queued on a buffered channel consumed by the write pump. A full queue
// drops the frame rather than stalling the fanout; the next room snapshot
// makes the client whole again.
type Client struct {
	conn      *websocket.Conn
	sessionID string
	clientID  string
	game      contract.IGameService
	validate  *validator.Validate
	log       *slog.Logger
	send      chan []byte
	closed    atomic.Bool
}

func NewClient(conn *websocket.Conn, sessionID, clientID string, game contract.IGameService, validate *validator.Validate, log *slog.Logger) *Client {
	return &Client{
		conn:      conn,
		sessionID: sessionID,
		clientID:  clientID,
		game:      game,
		validate:  validate,
		log:       log,
		send:      make(chan []byte, sendBufferSize),
	}
}

// Consume implements contract.EventSink.
func (c *Client) Consume(_ context.Context, e event.DomainEvent) error {
	switch evt := e.(type) {
	case event.RoomUpdated:
		c.enqueue(TypeRoomUpdate, RoomUpdatePayload{Room: evt.State})
	case event.RoomListChanged:
		c.enqueue(TypeRoomList, RoomListPayload{Rooms: evt.Rooms})
	case event.PlayerJoined:
		c.enqueue(TypePlayerJoined, PlayerJoinedPayload{RoomID: string(evt.RoomID), Nickname: evt.Nickname})
	case event.TurnCue:
		c.enqueue(TypeTurnCue, TurnCuePayload{
			RoomID:   string(evt.RoomID),
			Nickname: evt.Nickname,
			YourTurn: evt.SessionID == c.sessionID,
		})
	case event.Kicked:
		if evt.SessionID != c.sessionID {
			return nil
		}
		c.enqueue(TypeKicked, RoomRemovedPayload{RoomID: string(evt.RoomID)})
		c.game.Leave(c.sessionID, evt.RoomID)
	case event.RoomRemoved:
		c.enqueue(TypeRoomRemoved, RoomRemovedPayload{RoomID: string(evt.RoomID)})
	}
	return nil
}

// Serve runs the read and write pumps until the connection dies, then
// evicts the session from every room it was in. The eviction is scoped to
// this connection: if a reconnect already reclaimed the session, the stale
// socket dying must not tear the new one down.
func (c *Client) Serve(ctx context.Context) {
	go c.writePump()
	c.readPump(ctx)

	c.game.Disconnect(c.sessionID, c)
	c.close()
}

func (c *Client) readPump(ctx context.Context) {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug("Connection closed unexpectedly", "session_id", c.sessionID, "error", err)
			}
			return
		}
		c.handle(ctx, raw)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handle(ctx context.Context, raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.sendError("malformed message")
		return
	}
	if err := c.validate.Struct(env); err != nil {
		c.sendError("missing message type")
		return
	}

	switch env.Type {
	case TypeCreateRoom:
		c.handleCreateRoom(ctx, env.Payload)
	case TypeJoinRoom:
		c.handleJoinRoom(env.Payload)
	case TypeLeaveRoom:
		c.handleLeaveRoom(env.Payload)
	case TypeMakeChoice:
		c.handleMakeChoice(env.Payload)
	case TypeRegenerate:
		c.handleRoomCommand(env.Payload, func(roomID domain.RoomID) domain.Command {
			return domain.RegenerateCommand{RoomID: roomID, SessionID: c.sessionID}
		})
	case TypeRequestTurn:
		c.handleRoomCommand(env.Payload, func(roomID domain.RoomID) domain.Command {
			return domain.RequestTurnCommand{RoomID: roomID, SessionID: c.sessionID}
		})
	case TypeListRooms:
		c.enqueue(TypeRoomList, RoomListPayload{Rooms: c.game.ListRooms()})
	case TypeAdmin:
		c.handleAdmin(env.Payload)
	default:
		c.sendError(fmt.Sprintf("unknown message type %q", env.Type))
	}
}

// handleCreateRoom creates the room and immediately seats the creator in
// it, which hands them the first turn.
func (c *Client) handleCreateRoom(ctx context.Context, raw json.RawMessage) {
	var payload CreateRoomPayload
	if !c.decode(raw, &payload) {
		return
	}

	room, err := c.game.CreateRoom(ctx, payload.Name, payload.Premise, payload.Nickname, payload.FastMode)
	if err != nil {
		c.log.Error("Room creation failed", "session_id", c.sessionID, "error", err)
		c.sendError("could not create room")
		return
	}

	c.joinRoom(room.ID, payload.Nickname, false, nil)
}

func (c *Client) handleJoinRoom(raw json.RawMessage) {
	var payload JoinRoomPayload
	if !c.decode(raw, &payload) {
		return
	}
	c.joinRoom(domain.RoomID(payload.RoomID), payload.Nickname, payload.Spectator, payload.Character)
}

func (c *Client) joinRoom(roomID domain.RoomID, nickname string, spectator bool, character *domain.Character) {
	c.game.Join(c.sessionID, roomID, c)
	c.game.Dispatch(domain.JoinRoomCommand{
		RoomID: roomID,
		Player: domain.Player{
			SessionID: c.sessionID,
			ClientID:  c.clientID,
			Nickname:  nickname,
			Character: character,
		},
		Spectator: spectator,
	})
}

func (c *Client) handleLeaveRoom(raw json.RawMessage) {
	var payload RoomScopedPayload
	if !c.decode(raw, &payload) {
		return
	}
	c.game.Leave(c.sessionID, domain.RoomID(payload.RoomID))
}

func (c *Client) handleMakeChoice(raw json.RawMessage) {
	var payload MakeChoicePayload
	if !c.decode(raw, &payload) {
		return
	}
	c.game.Dispatch(domain.MakeChoiceCommand{
		RoomID:    domain.RoomID(payload.RoomID),
		SessionID: c.sessionID,
		Choice:    payload.Choice,
	})
}

func (c *Client) handleRoomCommand(raw json.RawMessage, build func(domain.RoomID) domain.Command) {
	var payload RoomScopedPayload
	if !c.decode(raw, &payload) {
		return
	}
	c.game.Dispatch(build(domain.RoomID(payload.RoomID)))
}

func (c *Client) handleAdmin(raw json.RawMessage) {
	var payload AdminPayload
	if !c.decode(raw, &payload) {
		return
	}

	admin := c.game.Admin()
	if err := admin.Authenticate(payload.Password); err != nil {
		c.log.Warn("Admin authentication failed", "session_id", c.sessionID)
		c.enqueue(TypeAdminResult, AdminResultPayload{Action: payload.Action, Error: "authentication failed"})
		return
	}

	var err error
	switch payload.Action {
	case "clearRooms":
		err = admin.ClearRooms()
	case "removeRoom":
		err = admin.RemoveRoom(domain.RoomID(payload.RoomID))
	case "removeAllPlayers":
		err = admin.RemoveAllPlayers(domain.RoomID(payload.RoomID))
	}

	result := AdminResultPayload{Action: payload.Action, OK: err == nil}
	if err != nil {
		result.Error = err.Error()
	}
	c.enqueue(TypeAdminResult, result)
}

func (c *Client) decode(raw json.RawMessage, payload any) bool {
	if err := json.Unmarshal(raw, payload); err != nil {
		c.sendError("malformed payload")
		return false
	}
	if err := c.validate.Struct(payload); err != nil {
		c.sendError(fmt.Sprintf("invalid payload: %v", err))
		return false
	}
	return true
}

func (c *Client) enqueue(msgType string, payload any) {
	if c.closed.Load() {
		return
	}
	raw, err := json.Marshal(OutboundMessage{Type: msgType, Payload: payload})
	if err != nil {
		c.log.Error("Failed to marshal outbound message", "type", msgType, "error", err)
		return
	}
	select {
	case c.send <- raw:
	default:
		c.log.Warn("Send queue full, dropping frame", "session_id", c.sessionID, "type", msgType)
	}
}

func (c *Client) sendError(message string) {
	c.enqueue(TypeError, ErrorPayload{Message: message})
}

func (c *Client) close() {
	if c.closed.CompareAndSwap(false, true) {
		close(c.send)
	}
}
