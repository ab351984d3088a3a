// Package server exposes the soot HTTP API: job submission, job inspection,
// the event ingest endpoint, and the websocket event stream.
package server

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sootlabs/soot/internal/config"
	"github.com/sootlabs/soot/internal/gateway"
	"github.com/sootlabs/soot/internal/model"
	"github.com/sootlabs/soot/internal/pipeline"
	"github.com/sootlabs/soot/internal/store"
	"github.com/sootlabs/soot/internal/webhook"
)

// FixRunner is the job-execution surface the server needs.
// *pipeline.Runner satisfies it.
type FixRunner interface {
	RunFix(ctx context.Context, instruction, repo string, opts pipeline.Options) (*model.Job, *model.Result, error)
	RunFixDefaultRepo(ctx context.Context, instruction string, opts pipeline.Options) (*model.Job, *model.Result, error)
	RunAnalysis(ctx context.Context, question, repo string) (*model.Job, *model.Result, error)
	DefaultOptions() pipeline.Options
}

// Server is the soot HTTP server.
type Server struct {
	cfg    *config.Config
	store  *store.Store
	hub    *gateway.Hub
	runner FixRunner
}

// New creates a server around its collaborators.
func New(cfg *config.Config, st *store.Store, hub *gateway.Hub, runner FixRunner) *Server {
	return &Server{cfg: cfg, store: st, hub: hub, runner: runner}
}

// EventFanout delivers pipeline events to both the webhook emitter and the
// websocket hub. It satisfies pipeline.EventSink.
type EventFanout struct {
	Hub     *gateway.Hub
	Emitter *webhook.Emitter
}

func (f EventFanout) Emit(ev model.Event) {
	f.Hub.Publish(ev)
	f.Emitter.Emit(ev)
}

// Router builds the chi router with all routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/ws", s.hub.ServeWS)

	r.Route("/api", func(r chi.Router) {
		r.Post("/fix", s.handleFix)
		r.Post("/fix/default", s.handleFixDefault)
		r.Post("/analyze", s.handleAnalyze)
		r.Get("/jobs", s.handleListJobs)
		r.Get("/jobs/{id}", s.handleGetJob)
	})

	r.Post("/internal/events", s.handleIngestEvent)

	return r
}

// Start runs the HTTP server until the context is canceled or the listener
// fails, then drains in-flight requests.
func (s *Server) Start(ctx context.Context) error {
	httpSrv := &http.Server{Addr: s.cfg.ServerAddr, Handler: s.Router()}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("soot server listening on %s", s.cfg.ServerAddr)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

type fixRequest struct {
	Instruction string `json:"instruction"`
	Repo        string `json:"repo,omitempty"`
	Background  *bool  `json:"background,omitempty"`
	SmokeTest   *bool  `json:"smoke_test,omitempty"`
}

func (s *Server) runOptions(req fixRequest) pipeline.Options {
	opts := s.runner.DefaultOptions()
	if req.Background != nil {
		opts.Background = *req.Background
	}
	if req.SmokeTest != nil {
		opts.SmokeTest = *req.SmokeTest
	}
	return opts
}

func (s *Server) handleFix(w http.ResponseWriter, r *http.Request) {
	var req fixRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Repo == "" {
		writeError(w, http.StatusBadRequest, "repo is required")
		return
	}

	opts := s.runOptions(req)
	job, result, err := s.runner.RunFix(r.Context(), req.Instruction, req.Repo, opts)
	s.respondRun(w, opts, job, result, err)
}

func (s *Server) handleFixDefault(w http.ResponseWriter, r *http.Request) {
	var req fixRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	opts := s.runOptions(req)
	job, result, err := s.runner.RunFixDefaultRepo(r.Context(), req.Instruction, opts)
	s.respondRun(w, opts, job, result, err)
}

func (s *Server) respondRun(w http.ResponseWriter, opts pipeline.Options, job *model.Job, result *model.Result, err error) {
	if err != nil {
		if job == nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"job":   job,
			"error": err.Error(),
		})
		return
	}

	if opts.Background {
		writeJSON(w, http.StatusAccepted, map[string]any{"job": job})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"job": job, "result": result})
}

type analyzeRequest struct {
	Question string `json:"question"`
	Repo     string `json:"repo,omitempty"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	job, result, err := s.runner.RunAnalysis(r.Context(), req.Question, req.Repo)
	if err != nil {
		if job == nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"job":   job,
			"error": err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"job": job, "result": result})
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.store.ListJobs()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if jobs == nil {
		jobs = []*model.Job{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"jobs": jobs})
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job, err := s.store.GetJob(id)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	events, err := s.store.ListEvents(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if events == nil {
		events = []model.Event{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"job": job, "events": events})
}

// handleIngestEvent accepts an externally produced lifecycle event and
// broadcasts it to every connected observer. Acceptance means broadcast was
// attempted, not that anyone received it.
func (s *Server) handleIngestEvent(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<16))
	if err != nil {
		writeError(w, http.StatusBadRequest, "reading body")
		return
	}

	ev, err := model.DecodeEvent(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.hub.Publish(ev)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("server: encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
