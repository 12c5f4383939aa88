package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"echonexus/internal/config"
	"echonexus/internal/creative"
	"echonexus/internal/dispatch"
	"echonexus/internal/logging"
	"echonexus/internal/memory"
	"echonexus/internal/services"
	"echonexus/internal/staging"
	"echonexus/internal/workqueue"
)

const maxUploadBytes = 64 << 20

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon

	listener net.Listener
	server   *http.Server
}

type ingestResponse struct {
	CorrelationID string `json:"correlation_id"`
	State         string `json:"state"`
}

type chatRequest struct {
	Message       string         `json:"message"`
	MemoryContext map[string]any `json:"memory_context"`
}

type eventRecord struct {
	ID            string         `json:"id"`
	Timestamp     time.Time      `json:"timestamp"`
	EventType     string         `json:"event_type"`
	CorrelationID string         `json:"correlation_id,omitempty"`
	Payload       memory.Payload `json:"payload"`
}

type eventsResponse struct {
	Events []eventRecord `json:"events"`
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, errors.New("paths.api_bind is required")
	}

	srv := &apiServer{
		bind:   bind,
		logger: logger,
		daemon: d,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/ingest", srv.handleIngest)
	mux.HandleFunc("/api/status/", srv.handleStatus)
	mux.HandleFunc("/api/chat", srv.handleChat)
	mux.HandleFunc("/api/create", srv.handleCreate)
	mux.HandleFunc("/api/creative/", srv.handleCreative)
	mux.HandleFunc("/api/events", srv.handleEvents)
	mux.HandleFunc("/api/health", srv.handleHealth)

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

func (s *apiServer) start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", logging.Args(logging.Error(err))...)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", logging.Args(logging.String("address", listener.Addr().String()))...)
	return nil
}

func (s *apiServer) stop() {
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) address() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// handleIngest accepts a multipart upload and queues the pipeline run. The
// response carries the correlation id the client polls status with.
func (s *apiServer) handleIngest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.writeError(w, http.StatusBadRequest, "malformed multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	meta := staging.Metadata{
		CategoryHint: strings.TrimSpace(r.FormValue("document_type")),
	}
	if raw := strings.TrimSpace(r.FormValue("priority")); raw != "" {
		priority, convErr := strconv.Atoi(raw)
		if convErr != nil {
			s.writeError(w, http.StatusBadRequest, "priority must be an integer")
			return
		}
		meta.Priority = priority
	}
	if raw := strings.TrimSpace(r.FormValue("tags")); raw != "" {
		for _, tag := range strings.Split(raw, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				meta.Tags = append(meta.Tags, tag)
			}
		}
	}

	correlationID, err := s.daemon.SubmitDocument(r.Context(), header.Filename, file, meta)
	if err != nil {
		switch {
		case errors.Is(err, workqueue.ErrQueueFull), errors.Is(err, workqueue.ErrStopped):
			s.writeError(w, http.StatusServiceUnavailable, err.Error())
		case errors.Is(err, services.ErrIngestion):
			s.writeError(w, http.StatusUnprocessableEntity, services.FaultMessage(err))
		default:
			s.writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	s.writeJSON(w, http.StatusAccepted, ingestResponse{CorrelationID: correlationID, State: "accepted"})
}

// handleStatus reports derived pipeline status. An unknown correlation id is
// a valid answer, not an error.
func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/status/")
	if id == "" || strings.Contains(id, "/") {
		s.writeError(w, http.StatusBadRequest, "correlation id is required")
		return
	}
	st, err := s.daemon.DocumentStatus(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, st)
}

func (s *apiServer) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	result, err := s.daemon.Chat(r.Context(), req.Message, req.MemoryContext)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrValidation):
			s.writeError(w, http.StatusBadRequest, services.FaultMessage(err))
		case errors.Is(err, dispatch.ErrUnhandledTask):
			s.writeError(w, http.StatusNotFound, err.Error())
		default:
			s.writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *apiServer) handleCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var input creative.Input
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if input.Empty() {
		s.writeError(w, http.StatusBadRequest, "at least one of text, image, audio, or symbolic is required")
		return
	}
	correlationID, err := s.daemon.CreateConstruct(r.Context(), input)
	if err != nil {
		if errors.Is(err, workqueue.ErrQueueFull) || errors.Is(err, workqueue.ErrStopped) {
			s.writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusAccepted, ingestResponse{CorrelationID: correlationID, State: "accepted"})
}

func (s *apiServer) handleCreative(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/creative/")
	if id == "" || strings.Contains(id, "/") {
		s.writeError(w, http.StatusBadRequest, "correlation id is required")
		return
	}
	st, err := s.daemon.CreativeStatus(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, st)
}

func (s *apiServer) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	query := r.URL.Query()
	limit, _ := strconv.Atoi(query.Get("limit"))
	events, err := s.daemon.Events(r.Context(), strings.TrimSpace(query.Get("correlation_id")), limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	records := make([]eventRecord, 0, len(events))
	for _, event := range events {
		records = append(records, eventRecord{
			ID:            event.ID,
			Timestamp:     event.Timestamp,
			EventType:     string(event.Type),
			CorrelationID: event.CorrelationID,
			Payload:       event.Payload,
		})
	}
	s.writeJSON(w, http.StatusOK, eventsResponse{Events: records})
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, s.daemon.Status())
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", logging.Args(logging.Error(err))...)
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *apiServer) log() *slog.Logger {
	return logging.NewComponentLogger(s.logger, "api-server")
}
