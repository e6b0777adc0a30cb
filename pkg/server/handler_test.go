package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/mikeboe/deep-research/pkg/research"
)

func newTestRouter(s *Service, mcp http.Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler(s)
	h.MCP = mcp
	h.RegisterRoutes(r)
	return r
}

func TestHealthEndpoint(t *testing.T) {
	r := newTestRouter(newTestService(succeedingRun("", &research.Result{})), nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", w.Code)
	}
}

func TestCreateJobEndpoint(t *testing.T) {
	s := newTestService(succeedingRun("# Report", &research.Result{}))
	r := newTestRouter(s, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/research", strings.NewReader(`{"query":"go runtime","breadth":3,"depth":1}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("got status %d, want 201: %s", w.Code, w.Body.String())
	}

	var job Job
	if err := json.Unmarshal(w.Body.Bytes(), &job); err != nil {
		t.Fatalf("failed to decode job: %v", err)
	}
	if job.Topic != "go runtime" || job.Breadth != 3 || job.Depth != 1 {
		t.Errorf("unexpected job: %+v", job)
	}
	s.workers.Wait()

	// The job should now be visible as completed.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/research/"+job.ID.String(), nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", w.Code)
	}
	var fetched Job
	if err := json.Unmarshal(w.Body.Bytes(), &fetched); err != nil {
		t.Fatalf("failed to decode job: %v", err)
	}
	if fetched.Status != StatusCompleted {
		t.Errorf("got status %q, want %q", fetched.Status, StatusCompleted)
	}
	if fetched.Report == nil || *fetched.Report != "# Report" {
		t.Errorf("report missing from response: %v", fetched.Report)
	}
}

func TestCreateJobEndpointRejectsEmptyQuery(t *testing.T) {
	r := newTestRouter(newTestService(succeedingRun("", &research.Result{})), nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/research", strings.NewReader(`{"query":""}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want 400", w.Code)
	}
}

func TestGetJobEndpointErrors(t *testing.T) {
	r := newTestRouter(newTestService(succeedingRun("", &research.Result{})), nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/research/not-a-uuid", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("got status %d, want 400 for invalid uuid", w.Code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/research/00000000-0000-0000-0000-000000000001", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("got status %d, want 404 for unknown job", w.Code)
	}
}

func TestListJobsEndpoint(t *testing.T) {
	s := newTestService(succeedingRun("", &research.Result{}))
	r := newTestRouter(s, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/research", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", w.Code)
	}
	if body := strings.TrimSpace(w.Body.String()); body != "[]" {
		t.Errorf("empty registry should serialize to [], got %s", body)
	}
}

func TestJobLogsEndpoint(t *testing.T) {
	s := newTestService(succeedingRun("", &research.Result{}))
	r := newTestRouter(s, nil)

	job, err := s.CreateJob(CreateJobRequest{Query: "topic"})
	if err != nil {
		t.Fatalf("CreateJob returned error: %v", err)
	}
	s.workers.Wait()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/research/"+job.ID.String()+"/logs", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", w.Code)
	}
	var logs []LogEntry
	if err := json.Unmarshal(w.Body.Bytes(), &logs); err != nil {
		t.Fatalf("failed to decode logs: %v", err)
	}
	if len(logs) == 0 {
		t.Error("expected log entries in the response")
	}
}

func TestMCPMount(t *testing.T) {
	mcp := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("mcp"))
	})
	r := newTestRouter(newTestService(succeedingRun("", &research.Result{})), mcp)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK || w.Body.String() != "mcp" {
		t.Errorf("mounted handler not reached: %d %q", w.Code, w.Body.String())
	}
}

func TestMCPNotMountedWithoutHandler(t *testing.T) {
	r := newTestRouter(newTestService(succeedingRun("", &research.Result{})), nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("got status %d, want 404 when MCP is not configured", w.Code)
	}
}
