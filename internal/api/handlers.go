package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"sol-arena/internal/game"
	"sol-arena/internal/journal"
)

type handlers struct {
	pool    *game.Pool
	journal *journal.Journal
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handlers) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.pool.Stats())
}

func (h *handlers) handleLeaderboard(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.pool.Stats().Leaderboard)
}

func (h *handlers) handleRooms(w http.ResponseWriter, _ *http.Request) {
	rooms := h.pool.Rooms()
	out := make([]game.RoomSummary, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, r.GetGameState().Summary)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handlers) handleRoom(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid room id")
		return
	}
	for _, room := range h.pool.Rooms() {
		if room.ID == id {
			writeJSON(w, http.StatusOK, room.GetGameState())
			return
		}
	}
	writeError(w, http.StatusNotFound, "no such room")
}

type cashOutRequest struct {
	Address string `json:"address"`
}

func (h *handlers) handleCashOut(w http.ResponseWriter, r *http.Request) {
	var req cashOutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Address == "" {
		writeError(w, http.StatusBadRequest, "address required")
		return
	}
	value, err := h.pool.CashOut(req.Address)
	switch {
	case errors.Is(err, game.ErrInCombat):
		writeError(w, http.StatusConflict, "in combat, try again shortly")
	case errors.Is(err, game.ErrNoSuchPlayer):
		writeError(w, http.StatusNotFound, "player not in any room")
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"lamports": value,
			"sol":      game.SolDisplay(value),
		})
	}
}

func (h *handlers) handleSettlements(w http.ResponseWriter, r *http.Request) {
	if h.journal == nil {
		writeError(w, http.StatusServiceUnavailable, "journal disabled")
		return
	}
	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	rows, err := h.journal.Recent(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *handlers) handleEarnings(w http.ResponseWriter, r *http.Request) {
	if h.journal == nil {
		writeError(w, http.StatusServiceUnavailable, "journal disabled")
		return
	}
	address := chi.URLParam(r, "address")
	total, err := h.journal.PlayerEarnings(address)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"address":  address,
		"lamports": total,
		"sol":      game.SolDisplay(total),
	})
}
