package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/rocketscienceinc/tictactoe-matchmaker/internal/entity"
)

type statsSource interface {
	Get(ctx context.Context) (*entity.Stats, error)
}

type sessionCounter interface {
	Len() int
}

type waitingSlot interface {
	Waiting() (entity.ParticipantID, bool)
}

type StatsResponse struct {
	ActiveSessions int          `json:"activeSessions"`
	Waiting        bool         `json:"waiting"`
	Totals         entity.Stats `json:"totals"`
}

// StatsHandler - live counts from memory, totals from the stats source when there is one.
type StatsHandler struct {
	logger   *slog.Logger
	sessions sessionCounter
	queue    waitingSlot
	totals   statsSource
}

// NewStatsHandler - totals may be nil.
func NewStatsHandler(logger *slog.Logger, sessions sessionCounter, queue waitingSlot, totals statsSource) *StatsHandler {
	return &StatsHandler{
		logger:   logger.With("component", "stats"),
		sessions: sessions,
		queue:    queue,
		totals:   totals,
	}
}

func (that *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	_, waiting := that.queue.Waiting()

	response := StatsResponse{
		ActiveSessions: that.sessions.Len(),
		Waiting:        waiting,
	}

	if that.totals != nil {
		totals, err := that.totals.Get(r.Context())
		if err != nil {
			that.logger.Error("failed to get stats", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		response.Totals = *totals
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		that.logger.Error("failed to write stats", "error", err)
	}
}
