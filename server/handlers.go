package server

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"

	"github.com/boyangli/sentinelmap-dashboard/inference"
	"github.com/boyangli/sentinelmap-dashboard/inspector"
	"github.com/boyangli/sentinelmap-dashboard/logging"
	"github.com/boyangli/sentinelmap-dashboard/navigator"
	"github.com/boyangli/sentinelmap-dashboard/session"
)

// DashboardHandler maps HTTP requests onto session commands
type DashboardHandler struct {
	session *session.Session
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(sess *session.Session) *DashboardHandler {
	return &DashboardHandler{session: sess}
}

type selectDateRequest struct {
	Date string `json:"date"`
}

type toggleAISRequest struct {
	On bool `json:"on"`
}

// errorResponse carries the view alongside the error so the client can keep
// rendering whatever the session still shows
type errorResponse struct {
	Error string        `json:"error"`
	View  *session.View `json:"view,omitempty"`
}

// GetView returns the current view model
func (h *DashboardHandler) GetView(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.session.View())
}

// GetDetections returns only the current detection table
func (h *DashboardHandler) GetDetections(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.session.View().Table)
}

// SelectDate jumps to a date from the request body
func (h *DashboardHandler) SelectDate(w http.ResponseWriter, r *http.Request) {
	var req selectDateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err, nil)
		return
	}
	h.dispatch(w, r, session.SelectDate{Date: req.Date})
}

// AdvanceDate moves to the next date
func (h *DashboardHandler) AdvanceDate(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, session.AdvanceDate{})
}

// RetreatDate moves to the previous date
func (h *DashboardHandler) RetreatDate(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, session.RetreatDate{})
}

// Run triggers inference over the current date's tiles
func (h *DashboardHandler) Run(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, session.RunInference{})
}

// SelectPoint inspects a clicked point. An empty body clears the selection.
func (h *DashboardHandler) SelectPoint(w http.ResponseWriter, r *http.Request) {
	var decoded inspector.SelectionEvent
	ev := &decoded
	err := json.NewDecoder(r.Body).Decode(&decoded)
	switch {
	case errors.Is(err, io.EOF):
		ev = nil
	case err != nil:
		respondWithError(w, http.StatusBadRequest, "Invalid selection event", err, nil)
		return
	}
	h.dispatch(w, r, session.SelectPoint{Event: ev})
}

// ToggleAIS shows or hides the AIS overlay
func (h *DashboardHandler) ToggleAIS(w http.ResponseWriter, r *http.Request) {
	var req toggleAISRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err, nil)
		return
	}
	h.dispatch(w, r, session.ToggleAIS{On: req.On})
}

func (h *DashboardHandler) dispatch(w http.ResponseWriter, r *http.Request, cmd session.Command) {
	view, err := h.session.Dispatch(r.Context(), cmd)
	if err == nil {
		respondWithJSON(w, http.StatusOK, view)
		return
	}

	logging.Debug().Err(err).Str("path", r.URL.Path).Msg("Command rejected")

	var failure *inference.InferenceFailure
	switch {
	case errors.Is(err, navigator.ErrUnknownDate):
		respondWithError(w, http.StatusBadRequest, "Unknown date", err, &view)
	case errors.Is(err, session.ErrSuperseded):
		respondWithError(w, http.StatusConflict, "Run superseded by a newer run", err, &view)
	case errors.As(err, &failure):
		respondWithError(w, http.StatusBadGateway, "Inference run failed", err, &view)
	default:
		respondWithError(w, http.StatusInternalServerError, "Command failed", err, &view)
	}
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to encode response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(body)
}

func respondWithError(w http.ResponseWriter, code int, message string, err error, view *session.View) {
	resp := errorResponse{Error: message, View: view}
	if err != nil {
		resp.Error = message + ": " + err.Error()
	}
	respondWithJSON(w, code, resp)
}

// requestLogger logs each request through the zerolog global logger
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		logging.Info().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("HTTP request")
	})
}
