package websocket

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
	"github.com/rocketscienceinc/gomoku-backend/internal/room"
	"github.com/rocketscienceinc/gomoku-backend/internal/session"
)

// registry is the slice of the room registry the transport needs.
type registry interface {
	CreateRoom(hostID, hostName string, cfg entity.RoomConfig) (*entity.Room, error)
	JoinRoom(playerID, playerName, roomID, password string) (*entity.Room, error)
	LeaveRoom(playerID, roomID string) error
	Room(roomID string) (*room.Room, error)
	HandleDisconnect(playerID string)
	Reconcile(playerID string) (*entity.Room, error)
}

// handleConnect binds the connection to an identity and reconciles it
// against any room it is still seated in. An empty id gets a fresh one.
func (that *Server) handleConnect(conn *websocket.Conn, msg *session.Message) (*session.Session, error) {
	var payload ConnectPayload
	if len(msg.Payload) > 0 {
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
		}
	}

	if payload.Player.ID == "" {
		payload.Player.ID = uuid.NewString()
	}

	sess := that.sessions.Register(payload.Player.ID, payload.Player.Name, conn)

	resp := ConnectResponse{
		Player: PlayerInfo{ID: sess.PlayerID, Name: sess.Name},
	}

	snapshot, err := that.registry.Reconcile(sess.PlayerID)
	if err == nil {
		resp.Room = snapshot
	} else if !errors.Is(err, apperror.ErrRoomNotFound) {
		that.logger.Error("failed to reconcile", "playerID", sess.PlayerID, "error", err)
	}

	that.sessions.Send(sess.PlayerID, "connect", resp)
	that.logger.Info("player connected", "playerID", sess.PlayerID, "seated", resp.Room != nil)

	return sess, nil
}

func (that *Server) handleHeartbeat(sess *session.Session) {
	that.sessions.Touch(sess.PlayerID)
	that.sessions.Send(sess.PlayerID, "heartbeat", HeartbeatResponse{ServerTime: time.Now()})
}

func (that *Server) handleCreateRoom(sess *session.Session, msg *session.Message) error {
	var payload CreateRoomPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	cfg := entity.RoomConfig{
		Name:       payload.Name,
		MaxPlayers: payload.MaxPlayers,
		Password:   payload.Password,
		TurnTime:   time.Duration(payload.TurnTimeSeconds) * time.Second,
		FirstTurn:  payload.FirstTurn,
		HostMark:   payload.HostMark,
	}

	snapshot, err := that.registry.CreateRoom(sess.PlayerID, sess.Name, cfg)
	if err != nil {
		return err
	}

	that.sessions.Send(sess.PlayerID, msg.Action, RoomResponse{Room: snapshot})

	return nil
}

func (that *Server) handleJoinRoom(sess *session.Session, msg *session.Message) error {
	var payload JoinRoomPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	snapshot, err := that.registry.JoinRoom(sess.PlayerID, sess.Name, payload.RoomID, payload.Password)
	if err != nil {
		return err
	}

	that.sessions.Send(sess.PlayerID, msg.Action, RoomResponse{Room: snapshot})

	return nil
}

func (that *Server) handleLeaveRoom(sess *session.Session, msg *session.Message) error {
	var payload RoomIDPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	if err := that.registry.LeaveRoom(sess.PlayerID, payload.RoomID); err != nil {
		return err
	}

	that.sessions.Send(sess.PlayerID, msg.Action, RoomIDPayload{RoomID: payload.RoomID})

	return nil
}

func (that *Server) handleReady(sess *session.Session, msg *session.Message) error {
	var payload ReadyPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	target, err := that.registry.Room(payload.RoomID)
	if err != nil {
		return err
	}

	return target.SetReady(sess.PlayerID, payload.IsReady)
}

func (that *Server) handleStartGame(sess *session.Session, msg *session.Message) error {
	target, err := that.roomFromPayload(msg)
	if err != nil {
		return err
	}

	return target.Start(sess.PlayerID)
}

func (that *Server) handleGameTurn(sess *session.Session, msg *session.Message) error {
	var payload TurnPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	target, err := that.registry.Room(payload.RoomID)
	if err != nil {
		return err
	}

	return target.MakeMove(sess.PlayerID, payload.X, payload.Y)
}

func (that *Server) handleSurrender(sess *session.Session, msg *session.Message) error {
	target, err := that.roomFromPayload(msg)
	if err != nil {
		return err
	}

	return target.Surrender(sess.PlayerID)
}

func (that *Server) handleClearBoard(sess *session.Session, msg *session.Message) error {
	target, err := that.roomFromPayload(msg)
	if err != nil {
		return err
	}

	return target.Clear(sess.PlayerID)
}

func (that *Server) handleGameState(sess *session.Session, msg *session.Message) error {
	target, err := that.roomFromPayload(msg)
	if err != nil {
		return err
	}

	snapshot, err := target.Snapshot()
	if err != nil {
		return err
	}

	that.sessions.Send(sess.PlayerID, msg.Action, RoomResponse{Room: snapshot})

	return nil
}

func (that *Server) handleRequestDraw(sess *session.Session, msg *session.Message) error {
	target, err := that.roomFromPayload(msg)
	if err != nil {
		return err
	}

	return target.RequestDraw(sess.PlayerID)
}

func (that *Server) handleRespondDraw(sess *session.Session, msg *session.Message) error {
	var payload DrawResponsePayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	target, err := that.registry.Room(payload.RoomID)
	if err != nil {
		return err
	}

	return target.RespondDraw(sess.PlayerID, payload.Accept)
}

func (that *Server) handleCancelDraw(sess *session.Session, msg *session.Message) error {
	target, err := that.roomFromPayload(msg)
	if err != nil {
		return err
	}

	return target.CancelDraw(sess.PlayerID)
}

func (that *Server) roomFromPayload(msg *session.Message) (*room.Room, error) {
	var payload RoomIDPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	return that.registry.Room(payload.RoomID)
}
