// Package rcaserver exposes the Investigation Core over HTTP: a single
// endpoint that accepts an incident and streams its progress events back as
// Server-Sent Events, plus health, readiness, and Prometheus metrics.
package rcaserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fourkites/rca-core/internal/logging"
	"github.com/fourkites/rca-core/internal/rcacore"
)

// ReadinessChecker reports whether the server is ready to accept investigation requests.
type ReadinessChecker interface {
	IsReady() bool
}

// AlwaysReady is a ReadinessChecker that never fails, for deployments with
// no external dependency to probe.
type AlwaysReady struct{}

// IsReady always returns true.
func (AlwaysReady) IsReady() bool { return true }

// Server handles HTTP requests for starting and streaming investigations.
type Server struct {
	port             int
	httpServer       *http.Server
	logger           *logging.Logger
	orchestrator     *rcacore.Orchestrator
	router           *http.ServeMux
	readinessChecker ReadinessChecker
	metricsHandler   http.Handler

	investigationsStarted   prometheus.Counter
	investigationsCompleted *prometheus.CounterVec
	investigationDuration   prometheus.Histogram
}

// New builds a Server wrapping the given orchestrator.
func New(port int, orchestrator *rcacore.Orchestrator, readinessChecker ReadinessChecker) *Server {
	if readinessChecker == nil {
		readinessChecker = AlwaysReady{}
	}

	reg := prometheus.NewRegistry()
	s := &Server{
		port:             port,
		logger:           logging.GetLogger("rcaserver"),
		orchestrator:     orchestrator,
		router:           http.NewServeMux(),
		readinessChecker: readinessChecker,
		metricsHandler:   promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		investigationsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rca_investigations_started_total",
			Help: "Total number of investigations started.",
		}),
		investigationsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rca_investigations_completed_total",
			Help: "Total number of investigations completed, by terminal event type.",
		}, []string{"terminal"}),
		investigationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "rca_investigation_duration_seconds",
			Help:    "Wall-clock duration of completed investigations.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
	}
	reg.MustRegister(s.investigationsStarted, s.investigationsCompleted, s.investigationDuration)

	s.registerHandlers()
	return s
}

// Start begins listening and blocks until the server stops or ctx is done.
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: s.router,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening on %s", s.httpServer.Addr)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

type investigationRequest struct {
	Description string            `json:"description"`
	Identifiers map[string]string `json:"identifiers"`
	ModeHint    string            `json:"mode_hint"`
}

func (s *Server) handleCreateInvestigation(w http.ResponseWriter, r *http.Request) {
	var req investigationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.handleBadRequest(w, "invalid JSON body: "+err.Error())
		return
	}

	incident := rcacore.Incident{
		Description: req.Description,
		ModeHint:    req.ModeHint,
		TrackingID:  req.Identifiers["tracking_id"],
		LoadNumber:  req.Identifiers["load_number"],
		TicketID:    req.Identifiers["ticket_id"],
		ShipperHint: req.Identifiers["shipper_hint"],
		CarrierHint: req.Identifiers["carrier_hint"],
	}
	if !incident.HasUsableInput() {
		s.handleBadRequest(w, "at least one of description, load_number, or tracking_id is required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	s.investigationsStarted.Inc()
	start := time.Now()

	ctx := r.Context()
	stream := s.orchestrator.Investigate(ctx, incident)

	terminal := "none"
	events := stream.Events()
readLoop:
	for {
		select {
		case <-ctx.Done():
			// The client disconnected or the request context was otherwise
			// cancelled. CloseOnDisconnect stops the investigation's
			// producers and closes the stream; we don't wait for that to
			// drain here since ctx is already gone.
			stream.CloseOnDisconnect()
			break readLoop
		case event, ok := <-events:
			if !ok {
				break readLoop
			}
			payload, err := json.Marshal(event)
			if err != nil {
				s.logger.ErrorWithErr("failed to marshal event", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, payload)
			flusher.Flush()

			if event.Type == rcacore.EventComplete || event.Type == rcacore.EventError {
				terminal = string(event.Type)
			}
		}
	}

	s.investigationsCompleted.WithLabelValues(terminal).Inc()
	s.investigationDuration.Observe(time.Since(start).Seconds())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = WriteJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if !s.readinessChecker.IsReady() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = WriteJSON(w, map[string]string{"status": "not ready"})
		return
	}
	_ = WriteJSON(w, map[string]string{"status": "ready"})
}
