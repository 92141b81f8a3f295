package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"tomgalvin.uk/monoform/internal/bitmap"
	"tomgalvin.uk/monoform/internal/codegen"
	"tomgalvin.uk/monoform/internal/convert"
	"tomgalvin.uk/monoform/internal/history"
)

const (
	maxUploadBytes   = 32 << 20
	maxDimension     = 4096
	defaultListLimit = 20
)

type Server struct {
	logger     *slog.Logger
	worker     *convert.Worker
	repository *history.Repository
	tokens     atomic.Uint64
}

func NewServer(logger *slog.Logger, worker *convert.Worker, repository *history.Repository) *Server {
	return &Server{
		logger:     logger,
		worker:     worker,
		repository: repository,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/generate", s.handleGenerate)
	mux.HandleFunc("POST /api/crop", s.handleCrop)
	mux.HandleFunc("GET /api/documents", s.handleListDocuments)
	mux.HandleFunc("GET /api/documents/{id}", s.handleGetDocument)
	mux.HandleFunc("DELETE /api/documents/{id}", s.handleDeleteDocument)
	mux.HandleFunc("GET /api/resolutions", s.handleResolutions)
	return s.logRequests(mux)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("Request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Couldn't write response", "err", err)
	}
}

// Input errors are the client's fault, anything else is ours.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, bitmap.ErrInvalidDimensions),
		errors.Is(err, codegen.ErrInvalidSymbolName),
		errors.Is(err, codegen.ErrUnsupportedMode),
		errors.Is(err, errBadRequest):
		status = http.StatusBadRequest
	default:
		s.logger.Error("Request failed", "err", err)
	}
	s.writeJSON(w, status, ErrorResponse{Error: err.Error()})
}
