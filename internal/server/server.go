// Package server exposes a Session over HTTP and pushes live snapshots to
// websocket clients.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/lox/llmholdem/internal/game"
	"github.com/lox/llmholdem/internal/session"
)

var errBadRequest = errors.New("bad request")

// Option configures a Server.
type Option func(*Server)

// WithAutoBots makes the server drive bot turns in the background after
// every command that can hand the turn to a bot.
func WithAutoBots() Option {
	return func(s *Server) { s.autoBots = true }
}

// Server serves one session.
type Server struct {
	addr        string
	session     *session.Session
	upgrader    websocket.Upgrader
	connections map[*Connection]bool
	register    chan *Connection
	unregister  chan *Connection
	logger      *log.Logger
	mu          sync.RWMutex
	ctx         context.Context
	cancel      context.CancelFunc
	autoBots    bool
	botsMu      sync.Mutex // orders bots.Add against Stop
	bots        sync.WaitGroup
	stopped     bool
}

// NewServer creates a server for sess listening on addr.
func NewServer(addr string, sess *session.Session, logger *log.Logger, opts ...Option) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		addr:    addr,
		session: sess,
		upgrader: websocket.Upgrader{
			// Single-table local game; any origin may watch.
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		connections: make(map[*Connection]bool),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		logger:      logger.WithPrefix("server"),
		ctx:         ctx,
		cancel:      cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	go s.run()
	return s
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/hand", s.command(MessageTypeStartHand))
	mux.HandleFunc("POST /api/action", s.command(MessageTypeAction))
	mux.HandleFunc("POST /api/bot", s.command(MessageTypeRunBots))
	mux.HandleFunc("POST /api/advance", s.command(MessageTypeAdvance))
	mux.HandleFunc("POST /api/bots", s.command(MessageTypeSetBots))
	mux.HandleFunc("POST /api/rebuy", s.command(MessageTypeRebuy))
	mux.HandleFunc("POST /api/interact", s.command(MessageTypeInteract))
	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	mux.HandleFunc("GET /health", s.handleHealth)
	return mux
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting server", "addr", s.addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		_ = s.Stop()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.Stop()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Stop closes every websocket and waits for background bot runs.
func (s *Server) Stop() error {
	s.cancel()

	s.mu.Lock()
	for conn := range s.connections {
		_ = conn.Close()
	}
	s.mu.Unlock()

	s.botsMu.Lock()
	s.stopped = true
	s.botsMu.Unlock()
	s.bots.Wait()
	return nil
}

func (s *Server) run() {
	for {
		select {
		case conn := <-s.register:
			s.mu.Lock()
			s.connections[conn] = true
			total := len(s.connections)
			s.mu.Unlock()
			s.logger.Info("Client connected", "total", total)

		case conn := <-s.unregister:
			s.mu.Lock()
			if _, ok := s.connections[conn]; ok {
				delete(s.connections, conn)
				_ = conn.Close()
			}
			total := len(s.connections)
			s.mu.Unlock()
			s.logger.Info("Client disconnected", "total", total)

		case <-s.ctx.Done():
			return
		}
	}
}

// ConnectionCount returns the number of open websocket clients.
func (s *Server) ConnectionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.connections)
}

// dispatch runs one host operation. HTTP and websocket clients share it.
func (s *Server) dispatch(ctx context.Context, typ MessageType, data json.RawMessage) error {
	var err error
	switch typ {
	case MessageTypeStartHand:
		err = s.session.StartHand()
	case MessageTypeAction:
		var d ActionData
		if err := decode(data, &d); err != nil {
			return err
		}
		kind, perr := game.ParseActionKind(d.Action)
		if perr != nil {
			return fmt.Errorf("%w: %v", errBadRequest, perr)
		}
		err = s.session.SubmitAction(game.Move{Kind: kind, Amount: d.Amount})
	case MessageTypeRunBots:
		return s.session.RunBots(ctx)
	case MessageTypeAdvance:
		err = s.session.AdvanceStage()
	case MessageTypeSetBots:
		var d SetBotsData
		if err := decode(data, &d); err != nil {
			return err
		}
		return s.session.SetBotCount(d.Count)
	case MessageTypeRebuy:
		return s.session.Rebuy()
	case MessageTypeInteract:
		var d InteractData
		if err := decode(data, &d); err != nil {
			return err
		}
		return s.session.Interact(d.Target, d.Item)
	case MessageTypeGetState:
		return nil
	default:
		return fmt.Errorf("%w: unknown message type %q", errBadRequest, typ)
	}
	if err == nil && s.autoBots {
		s.driveBots()
	}
	return err
}

// driveBots runs bot turns in the background on the server's lifetime.
func (s *Server) driveBots() {
	s.botsMu.Lock()
	defer s.botsMu.Unlock()
	if s.stopped {
		return
	}
	s.bots.Add(1)
	go func() {
		defer s.bots.Done()
		if err := s.session.RunBots(s.ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("Bot run failed", "error", err)
		}
	}()
}

func decode(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: missing body", errBadRequest)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

func (s *Server) command(typ MessageType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxMessageSize))
		if err != nil {
			s.writeError(w, fmt.Errorf("%w: %v", errBadRequest, err))
			return
		}
		if err := s.dispatch(r.Context(), typ, body); err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, s.session.Snapshot())
	}
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.session.Snapshot())
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	client := NewConnection(conn, s.logger, s)
	select {
	case s.register <- client:
	case <-s.ctx.Done():
		_ = client.Close()
		return
	}
	client.Start()

	go func() {
		<-client.ctx.Done()
		select {
		case s.unregister <- client:
		case <-s.ctx.Done():
		}
	}()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK")
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug("Failed to write response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed", "error", err)
	} else {
		s.logger.Debug("Request rejected", "code", code, "error", err)
	}
	s.writeJSON(w, status, ErrorData{Code: code, Message: err.Error()})
}

// classify maps an operation error to an HTTP status and an error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, game.ErrNotYourTurn):
		return http.StatusConflict, "not_your_turn"
	case errors.Is(err, game.ErrHandInProgress):
		return http.StatusConflict, "hand_in_progress"
	case errors.Is(err, game.ErrNoHandInProgress):
		return http.StatusConflict, "no_hand_in_progress"
	case errors.Is(err, game.ErrRoundInProgress):
		return http.StatusConflict, "round_in_progress"
	case errors.Is(err, game.ErrGameOver):
		return http.StatusConflict, "game_over"
	case errors.Is(err, game.ErrSeatLimit):
		return http.StatusBadRequest, "seat_limit"
	case errors.Is(err, session.ErrInvalidEmote):
		return http.StatusBadRequest, "invalid_emote"
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "cancelled"
	default:
		return http.StatusInternalServerError, "internal"
	}
}
