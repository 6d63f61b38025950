package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
	"github.com/rocketscienceinc/gomoku-backend/internal/repository"
)

// roomLister is the read-only slice of the registry exposed over HTTP.
type roomLister interface {
	List() []entity.RoomInfo
}

// matchReader resolves the last archived result of a room.
type matchReader interface {
	GetLastByRoomID(ctx context.Context, roomID string) (*entity.FinishedMatch, error)
}

func Start(ctx context.Context, logger *slog.Logger, port string, rooms roomLister, matches matchReader) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ping", pingHandler)
	mux.HandleFunc("/rooms", roomsHandler(logger, rooms))
	mux.HandleFunc("GET /rooms/{id}/last", lastMatchHandler(logger, matches))

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
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

func pingHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("pong")); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
}

func roomsHandler(logger *slog.Logger, rooms roomLister) http.HandlerFunc {
	log := logger.With("component", "rest", "handler", "rooms")

	return func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}

		w.Header().Set("Content-Type", "application/json")

		if err := json.NewEncoder(w).Encode(rooms.List()); err != nil {
			log.Error("failed to encode room list", "error", err)
		}
	}
}

// lastMatchResponse carries the archived record plus the final board rebuilt
// from its move log, so clients can render the finished position without
// replaying moves themselves.
type lastMatchResponse struct {
	Match *entity.FinishedMatch `json:"match"`
	Board []string              `json:"board"`
}

func lastMatchHandler(logger *slog.Logger, matches matchReader) http.HandlerFunc {
	log := logger.With("component", "rest", "handler", "lastMatch")

	return func(w http.ResponseWriter, req *http.Request) {
		record, err := matches.GetLastByRoomID(req.Context(), req.PathValue("id"))
		if errors.Is(err, repository.ErrMatchNotFound) {
			http.Error(w, "Not Found", http.StatusNotFound)
			return
		}

		if err != nil {
			log.Error("failed to get last match", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)

			return
		}

		resp := lastMatchResponse{
			Match: record,
			Board: entity.ReplayBoard(record.BoardSize, record.Moves),
		}

		w.Header().Set("Content-Type", "application/json")

		if err = json.NewEncoder(w).Encode(resp); err != nil {
			log.Error("failed to encode last match", "error", err)
		}
	}
}
