package rcaserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/fourkites/rca-core/internal/oracle"
	"github.com/fourkites/rca-core/internal/rcacore"
)

func testOrchestrator() *rcacore.Orchestrator {
	registry := rcacore.NewRegistry(nil)
	return rcacore.NewOrchestrator(registry, rcacore.StandardDescriptors(), oracle.NewMockOracle(), rcacore.OrchestratorConfig{
		MaxParallel: 2, MaxChildDepth: 1, MaxIterationsPerAgent: 2,
		HighConfidence: 0.85, MedConfidence: 0.60, LowConfidence: 0.10,
		HighRoute: 0.85, MedRoute: 0.60,
		HeartbeatInterval: time.Hour, InvestigationDeadline: 5 * time.Second, SubInvestigatorDeadline: 3 * time.Second,
	})
}

func TestHandleCreateInvestigation_StreamsSSEToCompletion(t *testing.T) {
	srv := New(0, testOrchestrator(), nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/investigations", strings.NewReader(`{"description":"load is not tracking since pickup"}`))
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		srv.router.ServeHTTP(rec, req)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("handler did not complete within deadline")
	}

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Contains(t, body, "event: started")
	assert.Contains(t, body, "event: complete")
}

func TestHandleCreateInvestigation_ClientDisconnectUnblocksHandler(t *testing.T) {
	srv := New(0, testOrchestrator(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodPost, "/v1/investigations", strings.NewReader(`{"description":"load is not tracking since pickup"}`))
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		srv.router.ServeHTTP(rec, req)
		close(done)
	}()

	// Cancel right away. The mock oracle finds no identifiers in this
	// description, so the run may finish at once; the handler then leaves
	// via ctx.Done() or via the stream closing, and either way must return.
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("handler did not unblock after client disconnect")
	}
}

func TestHandleCreateInvestigation_RejectsEmptyIncident(t *testing.T) {
	srv := New(0, testOrchestrator(), nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/investigations", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	srv.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleCreateInvestigation_RejectsMalformedJSON(t *testing.T) {
	srv := New(0, testOrchestrator(), nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/investigations", strings.NewReader(`not json`))
	rec := httptest.NewRecorder()

	srv.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterHandlers_RejectsWrongMethod(t *testing.T) {
	srv := New(0, testOrchestrator(), nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/investigations", nil)
	rec := httptest.NewRecorder()

	srv.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleHealth(t *testing.T) {
	srv := New(0, testOrchestrator(), nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

type alwaysUnready struct{}

func (alwaysUnready) IsReady() bool { return false }

func TestHandleReady_ReflectsReadinessChecker(t *testing.T) {
	srv := New(0, testOrchestrator(), alwaysUnready{})

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCorsMiddleware_HandlesPreflight(t *testing.T) {
	srv := New(0, testOrchestrator(), nil)

	req := httptest.NewRequest(http.MethodOptions, "/v1/investigations", nil)
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestStart_ShutsDownOnContextCancel(t *testing.T) {
	srv := New(0, testOrchestrator(), nil)
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not shut down after context cancel")
	}
}
