package http

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"quiz-bot/internal/domain"
	"quiz-bot/internal/logger"
)

// Receiver takes inbound chat messages (the bot).
type Receiver interface {
	Receive(ctx context.Context, msg domain.Message)
}

// Reactor registers join signals on enrollment messages.
type Reactor interface {
	React(handle domain.MessageHandle, player domain.Player) bool
}

// StandingsReader serves mirrored leaderboards.
type StandingsReader interface {
	Standings(ctx context.Context, channelID string, limit int) ([]domain.Standing, error)
}

// Server exposes chat rooms over WebSocket plus a small HTTP API. Without a receiver only the HTTP
// API is served.
type Server struct {
	rooms       *Rooms
	receiver    Receiver
	reactor     Reactor
	leaderboard StandingsReader
	key         string
	upgrader    websocket.Upgrader

	// base outlives individual connections; games started from a socket run on it.
	base context.Context
}

func NewServer(rooms *Rooms, receiver Receiver, reactor Reactor, leaderboard StandingsReader, key string) *Server {
	return &Server{
		rooms:       rooms,
		receiver:    receiver,
		reactor:     reactor,
		leaderboard: leaderboard,
		key:         key,
		base:        context.Background(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Router wires the HTTP routes.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	if s.receiver != nil {
		r.HandleFunc("/ws/{channel}", s.ServeWS)
	}
	r.HandleFunc("/v1/channels/{channel}/leaderboard", s.serveLeaderboard).Methods(http.MethodGet)
	return r
}

// Run serves on addr until ctx is done. Games started over WebSocket are bound to ctx.
func (s *Server) Run(ctx context.Context, addr string) error {
	s.base = ctx
	server := &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	logger.Info("Shutting down HTTP server")
	return server.Shutdown(shutdownCtx)
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type textPayload struct {
	Text string `json:"text"`
}

type reactPayload struct {
	MessageID string `json:"messageId"`
}

type reactResult struct {
	MessageID string `json:"messageId"`
	Accepted  bool   `json:"accepted"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and joins the client to a channel room.
//
// Client frames: {"type":"message","payload":{"text":"..."}} and
// {"type":"react","payload":{"messageId":"..."}}. Server frames: "joined", "message", "reacted",
// "error".
func (s *Server) ServeWS(w http.ResponseWriter, r *http.Request) {
	channelID := mux.Vars(r)["channel"]
	userID := r.URL.Query().Get("userId")
	displayName := r.URL.Query().Get("name")
	if channelID == "" || userID == "" || displayName == "" {
		http.Error(w, "missing channel, userId, or name", http.StatusBadRequest)
		return
	}
	if !s.authorized(r.URL.Query().Get("key")) {
		http.Error(w, "invalid key", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("WebSocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	player := domain.Player{ID: userID, Name: displayName}
	updates, cancel := s.rooms.subscribe(channelID)
	defer cancel()

	out := newOutbox(16)
	go out.run(conn, func(err error) {
		logger.Debug("WebSocket write failed", "channel", channelID, "user", userID, "error", err)
	})

	closeSignals := make(chan struct{})
	updatesDone := make(chan struct{})
	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case out.frames <- outboundMessage[any]{Type: "message", Payload: update}:
				case <-out.done:
					return
				case <-closeSignals:
					return
				}
			case <-out.done:
				return
			case <-closeSignals:
				return
			}
		}
	}()

	if out.push(outboundMessage[any]{Type: "joined", Payload: player}) {
		s.readLoop(conn, channelID, player, out)
	}

	close(closeSignals)
	<-updatesDone
	close(out.frames)
	<-out.done
}

// readLoop handles client frames until the connection fails or the writer stops.
func (s *Server) readLoop(conn *websocket.Conn, channelID string, player domain.Player, out *outbox) {
	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			return
		}

		var reply *outboundMessage[any]
		switch inbound.Type {
		case "message":
			var payload textPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				reply = &outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid message payload"}}
				break
			}
			msg := domain.Message{
				ID:        uuid.NewString(),
				ChannelID: channelID,
				Author:    player,
				Text:      payload.Text,
				SentAt:    time.Now(),
			}
			s.rooms.relay(msg)
			s.receiver.Receive(s.base, msg)
		case "react":
			var payload reactPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.MessageID == "" {
				reply = &outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid react payload"}}
				break
			}
			handle := domain.MessageHandle{ChannelID: channelID, MessageID: payload.MessageID}
			accepted := s.reactor.React(handle, player)
			reply = &outboundMessage[any]{Type: "reacted", Payload: reactResult{MessageID: payload.MessageID, Accepted: accepted}}
		default:
			reply = &outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
		}

		if reply != nil && !out.push(*reply) {
			return
		}
	}
}

type frameWriter interface {
	WriteJSON(v interface{}) error
	Close() error
}

// outbox queues frames for a connection's single writer goroutine. done closes when the writer
// exits, after which push refuses new frames.
type outbox struct {
	frames chan outboundMessage[any]
	done   chan struct{}
}

func newOutbox(size int) *outbox {
	return &outbox{
		frames: make(chan outboundMessage[any], size),
		done:   make(chan struct{}),
	}
}

// run writes frames until the channel closes or a write fails. A failed write closes the
// connection so the reader unblocks too.
func (o *outbox) run(w frameWriter, onError func(error)) {
	defer close(o.done)
	for msg := range o.frames {
		if err := w.WriteJSON(msg); err != nil {
			onError(err)
			_ = w.Close()
			return
		}
	}
}

func (o *outbox) push(msg outboundMessage[any]) bool {
	select {
	case o.frames <- msg:
		return true
	case <-o.done:
		return false
	}
}

type leaderboardResponse struct {
	ChannelID string            `json:"channelId"`
	Standings []domain.Standing `json:"standings"`
}

func (s *Server) serveLeaderboard(w http.ResponseWriter, r *http.Request) {
	channelID := mux.Vars(r)["channel"]
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	standings, err := s.leaderboard.Standings(r.Context(), channelID, limit)
	if err != nil {
		logger.Error("Failed to read leaderboard", "channel", channelID, "error", err)
		http.Error(w, "leaderboard unavailable", http.StatusServiceUnavailable)
		return
	}
	if standings == nil {
		standings = []domain.Standing{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(leaderboardResponse{ChannelID: channelID, Standings: standings})
}

func (s *Server) authorized(key string) bool {
	if s.key == "" {
		return true
	}
	return subtle.ConstantTimeCompare([]byte(key), []byte(s.key)) == 1
}
