package ws

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"fable-lab/contract"
	"fable-lab/infrastructure/storage"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Server terminates WebSocket connections and serves cached narration audio.
type Server struct {
	game     contract.IGameService
	audio    storage.IAudioRepository
	validate *validator.Validate
	log      *slog.Logger
	httpSrv  *http.Server
}

func NewServer(host string, port int, game contract.IGameService, audio storage.IAudioRepository, log *slog.Logger) *Server {
	s := &Server{
		game:     game,
		audio:    audio,
		validate: validator.New(),
		log:      log,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", s.handleWS)
	mux.HandleFunc("GET /audio/{hash}", s.handleAudio)

	s.httpSrv = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", host, port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Run serves until the context is canceled, then drains connections.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info(fmt.Sprintf("Listening on %s", s.httpSrv.Addr))
		errCh <- s.httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpSrv.Shutdown(shutdownCtx)
	}
}

// handleWS upgrades the connection. The client presents its stable client
// ID so a rejoin after a dropped socket rebinds its old seat; first-time
// clients get one minted here. The session ID is per connection, though a
// client may present its previous one to reclaim it.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	clientID := r.URL.Query().Get("clientId")
	if clientID == "" {
		clientID = uuid.NewString()
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("Upgrade failed", "error", err)
		return
	}

	s.log.Debug("Client connected", "session_id", sessionID, "client_id", clientID)
	client := NewClient(conn, sessionID, clientID, s.game, s.validate, s.log)
	// The request context dies when this handler returns; the client's
	// lifetime is the connection itself.
	go client.Serve(context.Background())
}

// handleAudio streams cached narration by content hash. Audio is immutable,
// so clients may cache it forever.
func (s *Server) handleAudio(w http.ResponseWriter, r *http.Request) {
	hash := r.PathValue("hash")
	audio, err := s.audio.GetAudio(hash)
	if err != nil {
		http.Error(w, "audio not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", mimetype.Detect(audio).String())
	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Cache-Control", "public, max-age=31536000")
	_, _ = w.Write(audio)
}
