package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"go.temporal.io/sdk/client"

	"github.com/leowmjw/go-temporal-playercount/pkg/hcl"
	"github.com/leowmjw/go-temporal-playercount/pkg/playercount"
	"github.com/leowmjw/go-temporal-playercount/pkg/temporal"
	"github.com/leowmjw/go-temporal-playercount/pkg/timeline"
)

// maxBodyBytes bounds batch submissions.
const maxBodyBytes = 1 << 20

// Server represents the HTTP server for the player-count service
type Server struct {
	logger         *slog.Logger
	temporalClient client.Client
	addr           string
	taskQueue      string
	config         *playercount.Config
	calendar       *playercount.SaleCalendar
}

// NewServer creates a new HTTP server. config and calendar describe the
// datasets the workers know about.
func NewServer(logger *slog.Logger, temporalClient client.Client, addr, taskQueue string, config *playercount.Config, calendar *playercount.SaleCalendar) *Server {
	if taskQueue == "" {
		taskQueue = temporal.DefaultTaskQueue
	}
	return &Server{
		logger:         logger,
		temporalClient: temporalClient,
		addr:           addr,
		taskQueue:      taskQueue,
		config:         config,
		calendar:       calendar,
	}
}

// Handler returns the routed handler with middleware applied
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /batches", s.handleRunBatch)
	mux.HandleFunc("GET /datasets", s.handleListDatasets)
	mux.HandleFunc("GET /calendar/{date}", s.handleCalendarLookup)
	mux.HandleFunc("GET /health", s.handleHealth)

	return s.loggingMiddleware(mux)
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("Starting HTTP server", "addr", s.addr)

	errChan := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}
}

// batchSubmission selects configured datasets by slug. An empty list means
// every configured dataset.
type batchSubmission struct {
	Datasets    []string         `json:"datasets,omitempty"`
	Mode        playercount.Mode `json:"mode,omitempty"`
	Parallelism int              `json:"parallelism,omitempty"`
}

type batchResponse struct {
	WorkflowID string                   `json:"workflow_id"`
	Succeeded  int                      `json:"succeeded"`
	Failed     int                      `json:"failed"`
	Report     *playercount.BatchReport `json:"report"`
}

// Batch endpoint. Accepts a JSON slug selection or an HCL document of
// dataset blocks naming configured datasets, runs the batch workflow and waits for its report. The mode
// may also be given as a query parameter.
func (s *Server) handleRunBatch(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	contentType, err := hcl.DetectContentType(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	var (
		datasets []playercount.DatasetConfig
		sub      batchSubmission
	)

	switch contentType {
	case hcl.ContentTypeHCL:
		body, err := io.ReadAll(r.Body)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "failed to read request body")
			return
		}
		submitted, err := hcl.ParseHCLDatasets(body, "batch.hcl")
		if err != nil {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		datasets, err = s.resolveSubmitted(submitted)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	default:
		if err := json.NewDecoder(r.Body).Decode(&sub); err != nil && !errors.Is(err, io.EOF) {
			s.respondError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		datasets, err = s.selectDatasets(sub.Datasets)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	if sub.Mode == "" {
		sub.Mode = playercount.Mode(r.URL.Query().Get("mode"))
	}
	switch sub.Mode {
	case "", playercount.ModeEnrich, playercount.ModeClean:
	default:
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("unknown mode %q", sub.Mode))
		return
	}

	request := temporal.NewBatchRequest(s.calendarVersion(), datasets, sub.Mode)
	request.Parallelism = sub.Parallelism
	workflowID := temporal.GenerateBatchWorkflowID(request.RunID)

	s.logger.Info("Starting batch", "runID", request.RunID, "datasets", len(datasets))

	report, err := temporal.RunBatch(r.Context(), s.temporalClient, s.taskQueue, request)
	if err != nil {
		s.logger.Error("Batch workflow failed", "runID", request.RunID, "error", err)
		s.respondError(w, http.StatusInternalServerError, "batch execution failed")
		return
	}

	s.logger.Info("Batch completed", "runID", report.RunID, "succeeded", report.Succeeded(), "failed", report.Failed())
	s.respondJSON(w, http.StatusOK, batchResponse{
		WorkflowID: workflowID,
		Succeeded:  report.Succeeded(),
		Failed:     report.Failed(),
		Report:     report,
	})
}

func (s *Server) selectDatasets(slugs []string) ([]playercount.DatasetConfig, error) {
	if len(slugs) == 0 {
		return s.config.Datasets, nil
	}
	selected := make([]playercount.DatasetConfig, 0, len(slugs))
	for _, slug := range slugs {
		ds, ok := s.config.Dataset(slug)
		if !ok {
			return nil, fmt.Errorf("unknown dataset %q", slug)
		}
		selected = append(selected, ds)
	}
	return selected, nil
}

// resolveSubmitted checks HCL dataset blocks against the configured
// catalog. A block may override columns, weekend days and title of a known
// dataset; its raw_file must be the configured one.
func (s *Server) resolveSubmitted(submitted []playercount.DatasetConfig) ([]playercount.DatasetConfig, error) {
	resolved := make([]playercount.DatasetConfig, 0, len(submitted))
	for _, sub := range submitted {
		ds, ok := s.config.Dataset(sub.OutputSlug)
		if !ok {
			return nil, fmt.Errorf("unknown dataset %q", sub.OutputSlug)
		}
		if sub.RawFilename != ds.RawFilename {
			return nil, fmt.Errorf("dataset %q: raw_file must be %q", sub.OutputSlug, ds.RawFilename)
		}
		if sub.Columns != nil {
			ds.Columns = sub.Columns
		}
		if sub.Weekend != nil {
			ds.Weekend = sub.Weekend
		}
		if sub.Title != "" {
			ds.Title = sub.Title
		}
		resolved = append(resolved, ds)
	}
	return resolved, nil
}

func (s *Server) calendarVersion() string {
	if s.calendar != nil {
		return s.calendar.Version()
	}
	return s.config.CalendarVersion
}

type datasetInfo struct {
	Slug        string `json:"slug"`
	Title       string `json:"title,omitempty"`
	AppID       int    `json:"app_id,omitempty"`
	RawFilename string `json:"raw_filename"`
	Output      string `json:"output"`
	Weekend     string `json:"weekend"`
}

// Dataset catalog endpoint
func (s *Server) handleListDatasets(w http.ResponseWriter, r *http.Request) {
	infos := make([]datasetInfo, 0, len(s.config.Datasets))
	for _, ds := range s.config.Datasets {
		infos = append(infos, datasetInfo{
			Slug:        ds.OutputSlug,
			Title:       ds.Title,
			AppID:       ds.AppID,
			RawFilename: ds.RawFilename,
			Output:      playercount.EnrichedFilename(ds.OutputSlug),
			Weekend:     s.config.WeekendFor(ds).String(),
		})
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"calendar_version": s.calendarVersion(),
		"datasets":         infos,
	})
}

type calendarDay struct {
	Date      string   `json:"date"`
	IsWeekend bool     `json:"is_weekend"`
	IsSaleDay bool     `json:"is_sale_day"`
	Windows   []string `json:"windows,omitempty"`
}

// Calendar lookup endpoint
func (s *Server) handleCalendarLookup(w http.ResponseWriter, r *http.Request) {
	date, err := timeline.ParseDate(r.PathValue("date"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	if s.calendar == nil {
		s.respondError(w, http.StatusServiceUnavailable, "sale calendar not loaded")
		return
	}

	windows, sale := s.calendar.Lookup(date)
	s.respondJSON(w, http.StatusOK, calendarDay{
		Date:      timeline.FormatDate(date),
		IsWeekend: s.config.WeekendFor(playercount.DatasetConfig{}).IsWeekend(date),
		IsSaleDay: sale,
		Windows:   windows,
	})
}

// Health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// Middleware for request logging
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapper, r)

		s.logger.Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapper.statusCode,
			"duration", time.Since(start),
			"user_agent", r.UserAgent(),
		)
	})
}

// Response helpers
func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("Failed to encode JSON response", "error", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.logger.Warn("HTTP error response", "status", status, "message", message)
	s.respondJSON(w, status, map[string]string{"error": message})
}

// responseWrapper wraps http.ResponseWriter to capture status code
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
