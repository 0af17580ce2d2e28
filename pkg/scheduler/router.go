package scheduler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Router exposes the scheduler's HTTP surface for mounting into a host
// application:
//
//	GET  /run    — trigger one processing cycle
//	POST /       — enqueue an action
//	GET  /status — last cycle summary
//
// The trigger endpoint returns 200 on a completed cycle even when
// individual actions failed; only cycle-level orchestration failures
// surface as a non-2xx result.
func Router(svc *Service) chi.Router {
	r := chi.NewRouter()

	r.Get("/run", handleRun(svc))
	r.Post("/", handleEnqueue(svc))
	r.Get("/status", handleStatus(svc))

	return r
}

type runResponse struct {
	Message         string `json:"message"`
	StartedAt       string `json:"startedAt"`
	Duration        int64  `json:"duration"`
	NumberOfActions int    `json:"numberOfActions"`
	ErrorCount      int    `json:"errorCount"`
}

func handleRun(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := svc.RunCycle(r.Context())

		resp := runResponse{
			Message:         "Action Scheduler Completed",
			StartedAt:       result.StartedAt.Format("2006-01-02T15:04:05.000Z07:00"),
			Duration:        result.Duration.Milliseconds(),
			NumberOfActions: result.NumberOfActions,
			ErrorCount:      result.ErrorCount,
		}
		status := http.StatusOK

		if err != nil {
			svc.logger.ErrorContext(r.Context(), "cycle failed",
				slog.String("error", err.Error()))
			resp.Message = "Action Scheduler Failed to run processes"
			status = http.StatusInternalServerError
		}

		writeJSON(w, status, resp)
	}
}

func handleEnqueue(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ActionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}

		action, err := svc.Enqueue(r.Context(), req)
		switch {
		case errors.Is(err, ErrAlreadyScheduled):
			writeJSON(w, http.StatusConflict, map[string]string{"error": "Action is already scheduled"})
		case errors.Is(err, ErrEndpointRequired),
			errors.Is(err, ErrScheduledInPast),
			errors.Is(err, ErrInvalidCron),
			errors.Is(err, ErrInvalidArgs):
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		case err != nil:
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to schedule action"})
		default:
			writeJSON(w, http.StatusCreated, action)
		}
	}
}

func handleStatus(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := svc.Summary(r.Context())
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load summary"})
			return
		}
		writeJSON(w, http.StatusOK, summary)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
