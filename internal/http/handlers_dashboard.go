package http

import (
	"net/http"
	"strings"

	applog "spendlens/internal/log"
)

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.deps.Dashboard.Summary(r.Context(), userFrom(r.Context()))
	if err != nil {
		fail(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleChartData(w http.ResponseWriter, r *http.Request) {
	sum, err := s.deps.Dashboard.Summary(r.Context(), userFrom(r.Context()))
	if err != nil {
		fail(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, sum.Chart())
}

type chatRequest struct {
	Message string `json:"message"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	msg := sanitizeInput(req.Message)
	if msg == "" {
		writeError(w, http.StatusBadRequest, "message is empty")
		return
	}
	name := sanitizeInput(r.Header.Get(headerUserName))
	reply, err := s.deps.Assistant.Reply(r.Context(), userFrom(r.Context()), strings.TrimSpace(name), msg)
	if err != nil {
		fail(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}
