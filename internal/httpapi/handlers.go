package httpapi

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"time"

	"github.com/HMasataka/scoreline/internal/logging"
	"github.com/HMasataka/scoreline/pkg/domain"
	"github.com/HMasataka/scoreline/pkg/errors"
	"github.com/HMasataka/scoreline/pkg/match"
	"github.com/go-chi/chi/v5"
)

type matchResponse struct {
	MatchID string `json:"matchId"`
	domain.View
}

type commandRequest struct {
	Team        string          `json:"team"`
	Step        *int            `json:"step"`
	Winner      string          `json:"winner"`
	Reason      string          `json:"reason"`
	Rules       json.RawMessage `json:"rules"`
	CourtID     string          `json:"courtId"`
	ScheduledAt string          `json:"scheduledAt"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Healthz reports liveness together with the push channel status
func Healthz(status StatusSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":     "ok",
			"connection": string(status.Status()),
		})
	}
}

// GetMatch returns the observed match id and its current view
func GetMatch(o Observer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, matchResponse{MatchID: o.MatchID().String(), View: o.View()})
	}
}

// ObserveMatch switches observation to the match in the path. The view in the
// response is still loading until the first snapshot arrives.
func ObserveMatch(o Observer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := domain.ParseMatchID(chi.URLParam(r, "matchID"))
		if err != nil {
			writeError(w, errors.Wrap(err, errors.ErrorTypeValidation, "INVALID_MATCH_ID", "match id must not be blank"))
			return
		}

		o.Observe(id)
		logging.FromContext(r.Context()).Info("observing match", "match_id", id)
		writeJSON(w, http.StatusAccepted, matchResponse{MatchID: id.String(), View: o.View()})
	}
}

// StopMatch leaves the observed match, if any
func StopMatch(o Observer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logging.FromContext(r.Context()).Info("stopped observing match", "match_id", o.MatchID())
		o.Stop()
		w.WriteHeader(http.StatusNoContent)
	}
}

// SendCommand emits one operator command for the observed match. A command
// that could not be handed to the channel answers 409; the client sees the
// effect of an accepted one only through later state.
func SendCommand(o Observer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req commandRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !stderrors.Is(err, io.EOF) {
			writeError(w, errors.Wrap(err, errors.ErrorTypeValidation, "INVALID_BODY", "request body is not valid JSON"))
			return
		}

		op := chi.URLParam(r, "op")
		logger := logging.FromContext(r.Context())

		sent, err := dispatch(o.Commands(), op, req)
		if err != nil {
			logger.Warn("command rejected", "op", op, "error", err)
			writeError(w, err)
			return
		}
		if !sent {
			logger.Warn("command not sent", "op", op, "match_id", o.MatchID())
			writeError(w, errors.New(errors.ErrorTypeCommand, "NOT_SENT", "no active match or no live connection"))
			return
		}

		logger.Debug("command sent", "op", op, "match_id", o.MatchID())
		w.WriteHeader(http.StatusAccepted)
	}
}

func dispatch(c *match.Commands, op string, req commandRequest) (bool, error) {
	switch op {
	case "start":
		return c.Start(), nil
	case "point":
		if req.Team == "" {
			return false, errors.New(errors.ErrorTypeValidation, "MISSING_FIELD", "team is required")
		}
		if req.Step != nil {
			return c.PointFor(req.Team, *req.Step), nil
		}
		return c.PointFor(req.Team), nil
	case "undo":
		return c.Undo(), nil
	case "finish":
		return c.Finish(req.Winner), nil
	case "forfeit":
		return c.Forfeit(req.Winner, req.Reason), nil
	case "rules":
		return c.SetRules(req.Rules), nil
	case "court":
		return c.AssignCourt(req.CourtID), nil
	case "schedule":
		at, err := time.Parse(time.RFC3339, req.ScheduledAt)
		if err != nil {
			return false, errors.Wrap(err, errors.ErrorTypeValidation, "INVALID_FIELD", "scheduledAt must be RFC 3339")
		}
		return c.ScheduleAt(at), nil
	default:
		return false, errors.Wrap(domain.ErrUnknownCommand, errors.ErrorTypeNotFound, "UNKNOWN_COMMAND", "unknown command").
			WithDetails(op)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	resp := errorResponse{Error: "INTERNAL", Message: err.Error()}

	var e *errors.Error
	if stderrors.As(err, &e) {
		resp = errorResponse{Error: e.Code, Message: e.Message}
		switch e.Type {
		case errors.ErrorTypeValidation:
			status = http.StatusBadRequest
		case errors.ErrorTypeNotFound:
			status = http.StatusNotFound
		case errors.ErrorTypeCommand:
			status = http.StatusConflict
		}
	}

	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
