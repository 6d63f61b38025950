package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/gomoku-backend/internal/session"
)

var ErrNotConnected = errors.New("connect first")

type Server struct {
	logger   *slog.Logger
	registry registry
	sessions *session.Manager
	upgrader websocket.Upgrader

	handlers map[string]func(sess *session.Session, msg *session.Message) error
}

func New(logger *slog.Logger, reg registry, sessions *session.Manager) *Server {
	server := &Server{
		logger:   logger.With("component", "websocket"),
		registry: reg,
		sessions: sessions,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(_ *http.Request) bool { return true },
		},
		handlers: make(map[string]func(*session.Session, *session.Message) error),
	}

	server.handlers["room:create"] = server.handleCreateRoom
	server.handlers["room:join"] = server.handleJoinRoom
	server.handlers["room:leave"] = server.handleLeaveRoom
	server.handlers["room:ready"] = server.handleReady
	server.handlers["game:start"] = server.handleStartGame
	server.handlers["game:turn"] = server.handleGameTurn
	server.handlers["game:surrender"] = server.handleSurrender
	server.handlers["game:clear"] = server.handleClearBoard
	server.handlers["game:state"] = server.handleGameState
	server.handlers["draw:request"] = server.handleRequestDraw
	server.handlers["draw:respond"] = server.handleRespondDraw
	server.handlers["draw:cancel"] = server.handleCancelDraw

	return server
}

// Start - starts the WebSocket server. No read/write timeouts here: the
// upgraded connections are long-lived and liveness is handled by heartbeats.
func (that *Server) Start(ctx context.Context, port string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", that.serveWS)

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: mux,
	}

	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

func (that *Server) serveWS(writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "serveWS")

	conn, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	log.Info("WebSocket connection established", "remote", conn.RemoteAddr().String())

	that.readLoop(conn)
}

// readLoop processes inbound messages for one connection. The first accepted
// action must be connect, which binds the identity and triggers
// reconciliation; everything else is dispatched through the handler map.
func (that *Server) readLoop(conn *websocket.Conn) {
	log := that.logger.With("method", "readLoop")

	var sess *session.Session

	defer func() {
		if sess == nil {
			_ = conn.Close()
			return
		}

		// A superseded session means the identity reconnected over a newer
		// connection, whose reader owns the disconnect from here on. Telling
		// the engine would flag a live player as gone.
		if !that.sessions.Unregister(sess) {
			return
		}

		sess.Close()
		that.registry.HandleDisconnect(sess.PlayerID)
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug("connection dropped", "error", err)
			}

			return
		}

		var msg session.Message
		if err = json.Unmarshal(raw, &msg); err != nil {
			log.Error("failed to unmarshal message", "error", err)
			continue
		}

		if msg.Action == "connect" {
			newSess, err := that.handleConnect(conn, &msg)
			if err != nil {
				log.Error("failed to connect", "error", err)
				return
			}

			sess = newSess

			continue
		}

		if sess == nil {
			that.rejectUnconnected(conn, msg.Action)
			continue
		}

		if msg.Action == "heartbeat" {
			that.handleHeartbeat(sess)
			continue
		}

		handler, ok := that.handlers[msg.Action]
		if !ok {
			that.sendError(sess, msg.Action, fmt.Errorf("unknown action %q", msg.Action))
			continue
		}

		if err = handler(sess, &msg); err != nil {
			log.Info("action rejected", "action", msg.Action, "playerID", sess.PlayerID, "error", err)
			that.sendError(sess, msg.Action, err)
		}
	}
}

// rejectUnconnected writes directly to the connection: before connect there
// is no session, so no writer goroutine owns it yet.
func (that *Server) rejectUnconnected(conn *websocket.Conn, action string) {
	payload, _ := json.Marshal(session.ErrorPayload{Error: ErrNotConnected.Error()})
	msg, _ := json.Marshal(session.Message{Action: action, Payload: payload})

	if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
		that.logger.Debug("failed to reject unconnected client", "error", err)
	}
}

func (that *Server) sendError(sess *session.Session, action string, err error) {
	that.sessions.Send(sess.PlayerID, action, session.ErrorPayload{Error: err.Error()})
}
