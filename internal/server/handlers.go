package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"captionrag/internal/domain"
	"captionrag/internal/usecase"
)

type askRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k,omitempty"`
	Validate *bool  `json:"validate,omitempty"`
}

type statsResponse struct {
	Records int `json:"records"`
	Videos  int `json:"videos"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.TopK < 0 {
		s.respondError(w, http.StatusBadRequest, "top_k must not be negative")
		return
	}
	s.logger.Debug("ask request", zap.String("question", req.Question), zap.Int("top_k", req.TopK))

	answer, err := s.asker.Ask(r.Context(), usecase.AskRequest{
		Question: req.Question,
		TopK:     req.TopK,
		Validate: req.Validate,
	})
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			s.logger.Error("ask failed", zap.Error(err))
		}
		s.respondError(w, status, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, answer)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.stats == nil {
		s.respondError(w, http.StatusNotImplemented, "stats not available")
		return
	}
	stats, err := s.stats.GetStats()
	if err != nil {
		s.logger.Error("stats failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, statsResponse{Records: stats.Records, Videos: stats.Videos})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func statusFor(err error) int {
	var pe *domain.ProviderError
	switch {
	case errors.Is(err, domain.ErrEmptyQuestion), errors.Is(err, domain.ErrTopKTooLarge):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrIndexMismatch):
		return http.StatusConflict
	case errors.As(err, &pe):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("encode response", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
