// Package routes exposes the small HTTP surface: route previews and
// on-demand generation.
package routes

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/fieldroute/routegen/internal/jobs"
	"github.com/fieldroute/routegen/providers"
	"github.com/fieldroute/routegen/route"
)

// PipelineFactory builds a ready-to-run pipeline for one request. provider
// may be empty to take the configured default; dryRun previews never write
// back.
type PipelineFactory func(provider string, dryRun bool) (*route.Pipeline, error)

type Server struct {
	Router *chi.Mux

	pipelines PipelineFactory
	queue     *asynq.Client // nil when no queue is configured
	log       zerolog.Logger
}

type ServerOptions struct {
	Pipelines PipelineFactory
	Queue     *asynq.Client
	Log       zerolog.Logger
}

func New(opts ServerOptions) *Server {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	s := &Server{Router: r, pipelines: opts.Pipelines, queue: opts.Queue, log: opts.Log}

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if _, err := w.Write([]byte("ok")); err != nil {
			s.log.Warn().Err(err).Msg("health check write failed")
		}
	})

	r.Get("/users/{userID}/route/preview", s.handlePreview)
	r.Post("/users/{userID}/route", s.handleGenerate)

	return s
}

// handlePreview runs the identical pipeline in dry-run mode and returns the
// result without writing anything back.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.Atoi(chi.URLParam(r, "userID"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	p, err := s.pipelines(r.URL.Query().Get("provider"), true)
	if err != nil {
		s.writeError(w, statusForError(err), err.Error())
		return
	}

	res, err := p.Run(r.Context(), userID)
	if err != nil {
		s.log.Error().Int("user_id", userID).Err(err).Msg("preview failed")
		s.writeError(w, statusForError(err), err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, res)
}

// handleGenerate enqueues a worker task rather than blocking the request on
// upstream rate limits.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.Atoi(chi.URLParam(r, "userID"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	if s.queue == nil {
		s.writeError(w, http.StatusServiceUnavailable, "task queue not configured")
		return
	}

	payload, err := json.Marshal(jobs.GenerateRoutePayload{
		UserID:   userID,
		Provider: r.URL.Query().Get("provider"),
	})
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	info, err := s.queue.EnqueueContext(r.Context(), asynq.NewTask(jobs.TaskGenerateRoute, payload))
	if err != nil {
		s.log.Error().Int("user_id", userID).Err(err).Msg("enqueue failed")
		s.writeError(w, http.StatusBadGateway, "enqueue failed")
		return
	}

	s.writeJSON(w, http.StatusAccepted, map[string]string{"task_id": info.ID})
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, route.ErrNoAssignments):
		return http.StatusNotFound
	case errors.Is(err, providers.ErrUnknownProvider),
		errors.Is(err, providers.ErrMissingProviderKey):
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn().Err(err).Msg("response write failed")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
