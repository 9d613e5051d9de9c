package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/muurk/bobil/internal/coordinator"
	"github.com/muurk/bobil/internal/heater"
	"github.com/muurk/bobil/internal/logging"
)

// errorResponse is the JSON body of every non-2xx API response.
type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// commandResponse is returned by POST /api/commands/{name}. RefreshError is
// set on 202 responses: the heater took the command but the follow-up
// refresh failed, so Snapshot is the last published one (possibly null).
type commandResponse struct {
	Command      string           `json:"command"`
	Snapshot     *heater.Snapshot `json:"snapshot"`
	RefreshError string           `json:"refresh_error,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	snapshot, ok := s.config.Status.Current()
	if !ok {
		resp := errorResponse{Error: "no heater data yet"}
		if err := s.config.Status.LastError(); err != nil {
			resp.Detail = err.Error()
		}
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.config.Status.Refresh(r.Context())
	if err != nil {
		writeError(w, refreshStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	cmd, err := heater.ParseCommand(r.PathValue("name"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	snapshot, err := s.config.Commands.Execute(r.Context(), cmd)
	if coordinator.IsUpdateFailed(err) {
		logging.Warn("Command sent but refresh failed",
			zap.String("command", cmd.String()),
			zap.Error(err),
		)
		current, _ := s.config.Status.Current()
		writeJSON(w, http.StatusAccepted, commandResponse{
			Command:      cmd.String(),
			Snapshot:     current,
			RefreshError: heater.GetShortErrorMessage(err),
		})
		return
	}
	if err != nil {
		logging.Warn("Command request failed",
			zap.String("command", cmd.String()),
			zap.Error(err),
		)
		writeError(w, commandStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, commandResponse{Command: cmd.String(), Snapshot: snapshot})
}

// refreshStatus maps a Refresh error to an HTTP status.
func refreshStatus(err error) int {
	if coordinator.IsUpdateFailed(err) {
		return http.StatusBadGateway
	}
	return http.StatusGatewayTimeout
}

// commandStatus maps a command error to an HTTP status. Communication errors
// are the heater's fault (502); API errors are ours (500). Refresh failures
// after a sent command never get here.
func commandStatus(err error) int {
	switch {
	case heater.IsAPIError(err):
		return http.StatusInternalServerError
	case heater.IsCommunicationError(err):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	msg := heater.GetShortErrorMessage(err)
	writeJSON(w, status, errorResponse{Error: msg, Detail: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Debug("Failed to write response", zap.Error(err))
	}
}
