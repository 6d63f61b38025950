package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Manager owns the identity to connection mapping. It is injected into
// everything that needs to reach a player, nothing else holds connections.
type Manager struct {
	logger *slog.Logger

	heartbeatInterval time.Duration
	heartbeatGrace    time.Duration

	mu       sync.RWMutex
	sessions map[string]*Session
	lastSeen map[string]time.Time

	onStale func(playerID string)
}

func NewManager(logger *slog.Logger, heartbeatInterval, heartbeatGrace time.Duration) *Manager {
	return &Manager{
		logger:            logger.With("component", "sessions"),
		heartbeatInterval: heartbeatInterval,
		heartbeatGrace:    heartbeatGrace,
		sessions:          make(map[string]*Session),
		lastSeen:          make(map[string]time.Time),
	}
}

// OnStale registers the callback invoked when a connection misses heartbeats
// past the grace window. Must be set before Run.
func (that *Manager) OnStale(fn func(playerID string)) {
	that.onStale = fn
}

// Register binds a connection to an identity and starts its writer. A second
// connection for the same identity takes over: the old one is closed.
func (that *Manager) Register(playerID, name string, conn *websocket.Conn) *Session {
	sess := newSession(that.logger, playerID, name, conn)

	that.mu.Lock()
	old := that.sessions[playerID]
	that.sessions[playerID] = sess
	that.lastSeen[playerID] = time.Now()
	that.mu.Unlock()

	if old != nil {
		that.logger.Info("session takeover", "playerID", playerID)
		old.Close()
	}

	go sess.writePump()

	return sess
}

// Unregister drops the mapping, but only if it still points at this session,
// and reports whether it did. A takeover by a newer connection must not be
// undone by the old reader winding down: for a superseded session this
// returns false and the identity stays bound to the newer connection.
func (that *Manager) Unregister(sess *Session) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	if current, ok := that.sessions[sess.PlayerID]; ok && current == sess {
		delete(that.sessions, sess.PlayerID)
		delete(that.lastSeen, sess.PlayerID)

		return true
	}

	return false
}

// Touch records an inbound heartbeat for the identity.
func (that *Manager) Touch(playerID string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.sessions[playerID]; ok {
		that.lastSeen[playerID] = time.Now()
	}
}

// Send marshals the payload into the wire envelope and enqueues it on the
// identity's connection. Unknown identities and full queues are dropped.
func (that *Manager) Send(playerID, action string, payload any) {
	that.mu.RLock()
	sess, ok := that.sessions[playerID]
	that.mu.RUnlock()

	if !ok {
		return
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		that.logger.Error("failed to marshal payload", "action", action, "error", err)
		return
	}

	msg, err := json.Marshal(Message{Action: action, Payload: raw})
	if err != nil {
		that.logger.Error("failed to marshal message", "action", action, "error", err)
		return
	}

	sess.Enqueue(msg)
}

// Run sweeps for stale connections until the context is canceled. A stale
// session is closed and reported through the OnStale callback; the engine
// decides what the disconnect means for the room.
func (that *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(that.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			that.sweep()
		}
	}
}

func (that *Manager) sweep() {
	cutoff := time.Now().Add(-that.heartbeatGrace)

	var stale []*Session

	that.mu.Lock()
	for playerID, seen := range that.lastSeen {
		if seen.Before(cutoff) {
			stale = append(stale, that.sessions[playerID])
			delete(that.sessions, playerID)
			delete(that.lastSeen, playerID)
		}
	}
	that.mu.Unlock()

	for _, sess := range stale {
		that.logger.Info("session stale, closing", "playerID", sess.PlayerID)
		sess.Close()

		if that.onStale != nil {
			that.onStale(sess.PlayerID)
		}
	}
}
