package room

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
)

// Registry is the in-memory room catalog. It owns the roomID index and the
// one-room-per-identity index; everything inside a room is owned by that
// room's serialized context. Registry methods never hold the lock while
// waiting on a room operation.
type Registry struct {
	logger   *slog.Logger
	rules    Rules
	sender   Sender
	archive  Archiver
	presence Presence

	mu         sync.RWMutex
	rooms      map[string]*Room
	playerRoom map[string]string
}

func NewRegistry(logger *slog.Logger, rules Rules, sender Sender, archive Archiver, presence Presence) *Registry {
	return &Registry{
		logger:     logger.With("component", "registry"),
		rules:      rules,
		sender:     sender,
		archive:    archive,
		presence:   presence,
		rooms:      make(map[string]*Room),
		playerRoom: make(map[string]string),
	}
}

// CreateRoom creates a room with the creator seated as host.
func (that *Registry) CreateRoom(hostID, hostName string, cfg entity.RoomConfig) (*entity.Room, error) {
	if cfg.MaxPlayers == 0 {
		cfg.MaxPlayers = that.rules.MinPlayers
	}

	if cfg.MaxPlayers < that.rules.MinPlayers || cfg.MaxPlayers > that.rules.MaxPlayers {
		return nil, fmt.Errorf("%w: max players must be in [%d,%d]", apperror.ErrBadRoomConfig, that.rules.MinPlayers, that.rules.MaxPlayers)
	}

	if cfg.TurnTime <= 0 {
		cfg.TurnTime = that.rules.DefaultTurnTime
	}

	switch cfg.FirstTurn {
	case "":
		cfg.FirstTurn = entity.MarkBlack
	case entity.MarkBlack, entity.MarkWhite:
	default:
		return nil, fmt.Errorf("%w: unknown first turn %q", apperror.ErrBadRoomConfig, cfg.FirstTurn)
	}

	switch cfg.HostMark {
	case "":
		cfg.HostMark = entity.MarkBlack
	case entity.MarkBlack, entity.MarkWhite:
	default:
		return nil, fmt.Errorf("%w: unknown host mark %q", apperror.ErrBadRoomConfig, cfg.HostMark)
	}

	var passwordHash []byte
	if cfg.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}

		passwordHash = hash
	}

	host := &entity.Player{
		ID:        hostID,
		Name:      hostName,
		IsHost:    true,
		Connected: true,
	}

	state := &entity.Room{
		ID:           uuid.NewString(),
		Name:         cfg.Name,
		HostID:       hostID,
		Players:      []*entity.Player{host},
		MaxPlayers:   cfg.MaxPlayers,
		IsPrivate:    passwordHash != nil,
		Status:       entity.RoomWaiting,
		CreatedAt:    time.Now(),
		TurnTime:     cfg.TurnTime,
		FirstTurn:    cfg.FirstTurn,
		HostMark:     cfg.HostMark,
		PasswordHash: passwordHash,
	}

	that.mu.Lock()
	if _, seated := that.playerRoom[hostID]; seated {
		that.mu.Unlock()
		return nil, apperror.ErrAlreadyInRoom
	}

	hook := hooks{
		playerLeft: that.releaseSeat,
		roomEmpty:  that.dropRoom,
	}

	newlyCreated := newRoom(that.logger, that.rules, that.sender, that.archive, that.presence, hook, state)
	that.rooms[state.ID] = newlyCreated
	that.playerRoom[hostID] = state.ID
	that.mu.Unlock()

	that.presence.PlayerJoined(state.ID, hostID)
	that.logger.Info("room created", "roomID", state.ID, "hostID", hostID, "private", state.IsPrivate)

	snapshot, err := newlyCreated.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot new room: %w", err)
	}

	return snapshot, nil
}

// JoinRoom seats an identity. The seat index is reserved first so that an
// identity can never end up in two rooms, then the room itself decides.
func (that *Registry) JoinRoom(playerID, playerName, roomID, password string) (*entity.Room, error) {
	that.mu.Lock()
	target, ok := that.rooms[roomID]
	if !ok {
		that.mu.Unlock()
		return nil, apperror.ErrRoomNotFound
	}

	if _, seated := that.playerRoom[playerID]; seated {
		that.mu.Unlock()
		return nil, apperror.ErrAlreadyInRoom
	}

	that.playerRoom[playerID] = roomID
	that.mu.Unlock()

	if err := target.checkPassword(password); err != nil {
		that.releaseSeat(playerID)
		return nil, err
	}

	player := &entity.Player{ID: playerID, Name: playerName}

	if err := target.Join(player); err != nil {
		that.releaseSeat(playerID)
		return nil, fmt.Errorf("failed to join room: %w", err)
	}

	snapshot, err := target.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot room: %w", err)
	}

	return snapshot, nil
}

// LeaveRoom unseats an identity from the given room.
func (that *Registry) LeaveRoom(playerID, roomID string) error {
	target, err := that.Room(roomID)
	if err != nil {
		return err
	}

	if err = target.Leave(playerID); err != nil {
		return fmt.Errorf("failed to leave room: %w", err)
	}

	return nil
}

// Room resolves a room id.
func (that *Registry) Room(roomID string) (*Room, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	target, ok := that.rooms[roomID]
	if !ok {
		return nil, apperror.ErrRoomNotFound
	}

	return target, nil
}

// RoomByPlayer resolves the room an identity is seated in, if any.
func (that *Registry) RoomByPlayer(playerID string) (*Room, error) {
	that.mu.RLock()
	roomID, seated := that.playerRoom[playerID]
	target, ok := that.rooms[roomID]
	that.mu.RUnlock()

	if !seated || !ok {
		return nil, apperror.ErrRoomNotFound
	}

	return target, nil
}

// List returns the public catalog.
func (that *Registry) List() []entity.RoomInfo {
	that.mu.RLock()
	targets := make([]*Room, 0, len(that.rooms))
	for _, target := range that.rooms {
		targets = append(targets, target)
	}
	that.mu.RUnlock()

	infos := make([]entity.RoomInfo, 0, len(targets))
	for _, target := range targets {
		info, err := target.Info()
		if err != nil {
			continue // room closed between listing and query
		}

		infos = append(infos, info)
	}

	return infos
}

// HandleDisconnect is wired to the session manager's staleness callback and
// to the transport's read-loop exit.
func (that *Registry) HandleDisconnect(playerID string) {
	target, err := that.RoomByPlayer(playerID)
	if err != nil {
		return
	}

	target.MarkDisconnected(playerID)
}

// Reconcile resolves a (re)connecting identity to its seat and returns the
// authoritative snapshot, or ErrRoomNotFound when not seated anywhere.
func (that *Registry) Reconcile(playerID string) (*entity.Room, error) {
	target, err := that.RoomByPlayer(playerID)
	if err != nil {
		return nil, err
	}

	snapshot, err := target.Reconcile(playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to reconcile: %w", err)
	}

	return snapshot, nil
}

// Shutdown closes every room. Used on process exit.
func (that *Registry) Shutdown() {
	that.mu.RLock()
	targets := make([]*Room, 0, len(that.rooms))
	for _, target := range that.rooms {
		targets = append(targets, target)
	}
	that.mu.RUnlock()

	for _, target := range targets {
		target.Close()
	}
}

func (that *Registry) releaseSeat(playerID string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	delete(that.playerRoom, playerID)
}

func (that *Registry) dropRoom(roomID string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	delete(that.rooms, roomID)
}

// checkPassword gates private rooms. The hash is immutable after creation,
// so comparing outside the room's serialized context is safe.
func (that *Room) checkPassword(password string) error {
	if that.state.PasswordHash == nil {
		return nil
	}

	if err := bcrypt.CompareHashAndPassword(that.state.PasswordHash, []byte(password)); err != nil {
		return apperror.ErrWrongPassword
	}

	return nil
}
