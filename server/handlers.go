package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/poiesic/worldsignal/answer"
	"github.com/poiesic/worldsignal/core"
)

// maxRequestSize bounds a chat request body.
const maxRequestSize = 64 << 10

// doneSentinel terminates every chat stream.
const doneSentinel = "[DONE]"

type errorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type messageResponse struct {
	ID        int64     `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Sources   []string  `json:"sources,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type historyResponse struct {
	SessionID string            `json:"session_id"`
	Messages  []messageResponse `json:"messages"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req answer.Request
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestSize)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	ctx := r.Context()
	rc := http.NewResponseController(w)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	for event, err := range s.answerer.Answer(ctx, req) {
		if err != nil {
			if ctx.Err() != nil {
				// Client went away
				return
			}
			s.logger.Error("answer failed", "err", err)
			if werr := writeEvent(w, rc, errorEvent{Type: "error", Message: err.Error()}); werr != nil {
				return
			}
			break
		}
		if event.Type == answer.EventDone {
			continue
		}
		if err := writeEvent(w, rc, event); err != nil {
			s.logger.Debug("client stopped reading", "err", err)
			return
		}
	}

	if err := writeData(w, rc, []byte(doneSentinel)); err != nil {
		s.logger.Debug("client stopped reading", "err", err)
	}
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	limit := s.cfg.HistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, s.cfg.HistoryLimit)
	}

	messages, err := s.history.Messages(r.Context(), sessionID, limit)
	if err != nil {
		s.logger.Error("loading history failed", "session", sessionID, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	writeJSON(w, http.StatusOK, historyResponse{SessionID: sessionID, Messages: toMessageResponses(messages)})
}

func toMessageResponses(messages []*core.ChatMessage) []messageResponse {
	out := make([]messageResponse, len(messages))
	for i, m := range messages {
		out[i] = messageResponse{
			ID:        m.ID,
			Role:      m.Role,
			Content:   m.Content,
			Sources:   m.Sources,
			CreatedAt: m.CreatedAt,
		}
	}
	return out
}

// writeEvent sends one server-sent event carrying v as JSON.
func writeEvent(w http.ResponseWriter, rc *http.ResponseController, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}
	return writeData(w, rc, data)
}

func writeData(w http.ResponseWriter, rc *http.ResponseController, data []byte) error {
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return err
	}
	if err := rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
