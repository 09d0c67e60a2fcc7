package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/conneroisu/abacus/internal/api"
	"github.com/conneroisu/abacus/internal/evaluator"
	"github.com/conneroisu/abacus/internal/mode"
	"github.com/conneroisu/abacus/internal/version"
)

// maxRequestBytes bounds an evaluation request body.
const maxRequestBytes = 64 << 10

const messageStorage = "storage error"

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// HandleEval evaluates an expression and records it. A body that is not
// valid JSON is treated as an empty expression; fields of the wrong type
// are rejected without recording anything.
func (s *Server) HandleEval(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.EvalRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBytes)).Decode(&req); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			s.logger.Debug(ctx, "Malformed evaluation request", "field", typeErr.Field, "error", err.Error())
			writeJSON(w, http.StatusBadRequest, api.EvalResponse{OK: false, Error: evaluator.MessageInvalidExpression})
			return
		}
		req = api.EvalRequest{}
	}
	m := mode.Normalize(req.Mode)

	result, err := evaluator.Evaluate(req.Expression)
	if err != nil {
		s.logger.Debug(ctx, "Expression rejected", "expression", req.Expression, "mode", m.String(), "error", err.Error())
		writeJSON(w, http.StatusBadRequest, api.EvalResponse{OK: false, Error: evaluator.Message(err)})
		return
	}

	if _, err := s.store.Add(ctx, req.Expression, result, m.String()); err != nil {
		s.errs.Handle(ctx, err)
		writeJSON(w, http.StatusInternalServerError, api.EvalResponse{OK: false, Error: messageStorage})
		return
	}
	s.hub.Broadcast(api.Event{Type: api.EventHistoryUpdated})

	writeJSON(w, http.StatusOK, api.EvalResponse{OK: true, Result: result})
}

// HandleHistory lists the most recent evaluations, newest first.
func (s *Server) HandleHistory(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.List(r.Context(), s.config.Server.HistoryLimit)
	if err != nil {
		s.errs.Handle(r.Context(), err)
		writeJSON(w, http.StatusInternalServerError, api.HistoryResponse{OK: false, Error: messageStorage})
		return
	}
	if items == nil {
		items = []api.HistoryEntry{}
	}
	writeJSON(w, http.StatusOK, api.HistoryResponse{OK: true, Items: items})
}

// HandleClearHistory deletes every recorded evaluation.
func (s *Server) HandleClearHistory(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Clear(r.Context()); err != nil {
		s.errs.Handle(r.Context(), err)
		writeJSON(w, http.StatusInternalServerError, api.AckResponse{OK: false, Error: messageStorage})
		return
	}
	s.logger.Info(r.Context(), "History cleared")
	s.hub.Broadcast(api.Event{Type: api.EventHistoryUpdated})
	writeJSON(w, http.StatusOK, api.AckResponse{OK: true})
}

// HandleStats reports the number of recorded evaluations and when the
// latest happened.
func (s *Server) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Stats(r.Context())
	if err != nil {
		s.errs.Handle(r.Context(), err)
		writeJSON(w, http.StatusInternalServerError, api.StatsResponse{OK: false, Error: messageStorage})
		return
	}
	writeJSON(w, http.StatusOK, api.StatsResponse{OK: true, Total: stats.Total, Last: stats.Last})
}

// HandleHealth reports liveness. The store is probed so a broken database
// shows up as 503.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status":  "healthy",
		"version": version.Short(),
		"uptime":  time.Since(s.started).Round(time.Second).String(),
		"clients": s.hub.Clients(),
	}
	if _, err := s.store.Stats(r.Context()); err != nil {
		s.errs.Handle(r.Context(), err)
		status["status"] = "unhealthy"
		writeJSON(w, http.StatusServiceUnavailable, status)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// HandleWebSocket subscribes the caller to history notifications.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	s.hub.ServeHTTP(w, r)
}

// HandleIndex renders the calculator page with the current history and
// stats already filled in.
func (s *Server) HandleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSON(w, http.StatusNotFound, api.AckResponse{OK: false, Error: "not found"})
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", http.MethodGet)
		writeJSON(w, http.StatusMethodNotAllowed, api.AckResponse{OK: false, Error: "method not allowed"})
		return
	}

	ctx := r.Context()
	data := PageData{Version: version.Short()}
	if items, err := s.store.List(ctx, s.config.Server.HistoryLimit); err != nil {
		s.errs.Handle(ctx, err)
	} else {
		data.History = items
	}
	if stats, err := s.store.Stats(ctx); err != nil {
		s.errs.Handle(ctx, err)
	} else {
		data.Stats = stats
	}

	templ.Handler(Page(data)).ServeHTTP(w, r)
}
