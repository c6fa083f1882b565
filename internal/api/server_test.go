package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/ah-its-andy/vid2hevc/internal/config"
	"github.com/ah-its-andy/vid2hevc/internal/db"
	"github.com/ah-its-andy/vid2hevc/internal/livelog"
	"github.com/ah-its-andy/vid2hevc/internal/session"
	"github.com/ah-its-andy/vid2hevc/internal/watcher"
	"github.com/ah-its-andy/vid2hevc/internal/worker"
)

func testServer(t *testing.T) (*Server, *session.Manager) {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		WatchDirs:  []string{dir},
		DBPath:     filepath.Join(dir, "test.db"),
		SessionDir: filepath.Join(dir, "sessions"),
		MaxWorkers: 1,
	}
	conn, err := db.Init(cfg)
	if err != nil {
		t.Fatalf("db init: %v", err)
	}
	t.Cleanup(func() {
		sqlDB, _ := conn.DB()
		_ = sqlDB.Close()
	})
	sessions, err := session.NewManager(cfg.SessionDir, time.Second)
	if err != nil {
		t.Fatalf("session manager: %v", err)
	}
	q := worker.NewQueue(1)
	w, err := watcher.NewRecursiveWatcher(cfg, conn, q)
	if err != nil {
		t.Fatalf("watcher: %v", err)
	}
	t.Cleanup(func() { _ = w.Close() })
	return NewServer(cfg, conn, q, w, sessions, livelog.NewManager()), sessions
}

func doRequest(t *testing.T, s *Server, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, req)
	return rec
}

func TestStatsEndpoint(t *testing.T) {
	s, _ := testServer(t)
	rec := doRequest(t, s, http.MethodGet, "/api/stats")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["watcher_state"] != "running" {
		t.Errorf("watcher_state = %v", body["watcher_state"])
	}
}

func TestSessionStatusWithoutSession(t *testing.T) {
	s, _ := testServer(t)
	rec := doRequest(t, s, http.MethodGet, "/api/session/status")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestSessionPauseResumeFlow(t *testing.T) {
	s, sessions := testServer(t)
	_, err := sessions.CreateSession([]string{"/videos/a.mp4"}, "", session.ConfigSnapshot{Mode: "batch"})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	rec := doRequest(t, s, http.MethodGet, "/api/session/status")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var report session.StatusReport
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatal(err)
	}
	if report.Status != session.StatusActive || report.Pending != 1 {
		t.Errorf("report = %+v", report)
	}

	if rec := doRequest(t, s, http.MethodPost, "/api/session/pause"); rec.Code != http.StatusOK {
		t.Fatalf("pause status = %d", rec.Code)
	}
	// pausing twice conflicts
	if rec := doRequest(t, s, http.MethodPost, "/api/session/pause"); rec.Code != http.StatusConflict {
		t.Errorf("double pause status = %d, want 409", rec.Code)
	}
	if rec := doRequest(t, s, http.MethodPost, "/api/session/resume"); rec.Code != http.StatusOK {
		t.Fatalf("resume status = %d", rec.Code)
	}
	if rec := doRequest(t, s, http.MethodPost, "/api/session/cancel"); rec.Code != http.StatusOK {
		t.Fatalf("cancel status = %d", rec.Code)
	}
	if rec := doRequest(t, s, http.MethodGet, "/api/session/status"); rec.Code != http.StatusNotFound {
		t.Errorf("status after cancel = %d, want 404", rec.Code)
	}
}

func TestResumableEndpoint(t *testing.T) {
	s, sessions := testServer(t)
	if _, err := sessions.CreateSession([]string{"/videos/a.mp4"}, "", session.ConfigSnapshot{}); err != nil {
		t.Fatal(err)
	}
	if err := sessions.PauseSession(); err != nil {
		t.Fatal(err)
	}

	rec := doRequest(t, s, http.MethodGet, "/api/session/resumable")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Data []session.ResumableInfo `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Data) != 1 || body.Data[0].Status != session.StatusPaused {
		t.Errorf("resumable = %+v", body.Data)
	}
}

func TestListFilesEmpty(t *testing.T) {
	s, _ := testServer(t)
	rec := doRequest(t, s, http.MethodGet, "/api/files?limit=10")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Total int64 `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Total != 0 {
		t.Errorf("total = %d", body.Total)
	}
}
