package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/timmy/artmatch/internal/config"
	"github.com/timmy/artmatch/internal/domain"
	"github.com/timmy/artmatch/internal/matcher"
	"github.com/timmy/artmatch/internal/repository"
	"github.com/timmy/artmatch/internal/service"
	"github.com/timmy/artmatch/internal/source"
	"github.com/timmy/artmatch/internal/source/catalog"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router *gin.Engine
	runs   *repository.MatchRepository
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db, err := repository.InitDB(&config.DatabaseConfig{
		Driver:      "sqlite",
		Path:        filepath.Join(t.TempDir(), "runs.db"),
		AutoMigrate: true,
		LogLevel:    "silent",
	})
	if err != nil {
		t.Fatalf("InitDB() error = %v", err)
	}
	runs := repository.NewMatchRepository(db)

	src := catalog.NewAdapterFromItems([]domain.Candidate{
		{ID: "Q100", Title: "Seascape", ArtworkType: source.TypePainting, SubjectCodes: []string{"Q16970"}},
		{ID: "Q200", Title: "Portrait", ArtworkType: source.TypePainting, SubjectCodes: []string{"Q5"}},
	}, 7)
	scheduler := service.NewScheduler(matcher.NewFilter(), matcher.NewScorer(matcher.DefaultWeights()), nil, nil)
	orch := service.NewOrchestrator(src, scheduler, &service.OrchestratorConfig{
		Rand: rand.New(rand.NewPCG(1, 2)),
	})

	matchHandler := NewMatchHandler(orch, service.NewKeywordAnalyzer(), service.NewRunRecorder(runs, nil, ""))
	runsHandler := NewRunsHandler(runs)
	health := NewHealthHandler(orch, src.GetSourceID())

	r := gin.New()
	r.GET("/health", health.Health)
	r.POST("/match", matchHandler.Match)
	r.GET("/runs", runsHandler.ListRuns)
	r.GET("/runs/:id", runsHandler.GetRun)
	r.GET("/stats", runsHandler.Stats)
	return &testServer{router: r, runs: runs}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func TestMatchFromPoemText(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/match", gin.H{
		"poem":    gin.H{"title": "Tide", "text": "The sea rolls in with every wave."},
		"explain": true,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		RunID    string               `json:"run_id"`
		Reason   domain.RunReason     `json:"reason"`
		Strategy string               `json:"strategy"`
		Matches  []domain.ScoredMatch `json:"matches"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Reason != domain.RunReasonAccepted || resp.Strategy != "direct subject match" {
		t.Fatalf("response = %+v", resp)
	}
	if len(resp.Matches) != 1 || resp.Matches[0].Candidate.ID != "Q100" {
		t.Fatalf("matches = %+v", resp.Matches)
	}
	if resp.Matches[0].Explanation == nil {
		t.Error("missing explanation")
	}

	run, err := s.runs.GetByID(context.Background(), resp.RunID)
	if err != nil {
		t.Fatalf("run not recorded: %v", err)
	}
	if run.PoemTitle != "Tide" || len(run.Records) != 1 {
		t.Errorf("run = %+v", run)
	}

	w = s.do(t, http.MethodGet, "/runs/"+resp.RunID, nil)
	if w.Code != http.StatusOK {
		t.Errorf("GET run status = %d", w.Code)
	}
}

func TestMatchFromStructuredAnalysis(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/match", gin.H{
		"analysis": gin.H{"themes": []string{"water"}, "primary_emotions": []string{"peace"}},
		"count":    2,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestMatchBadRequests(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		body interface{}
	}{
		{"empty body", gin.H{}},
		{"empty poem", gin.H{"poem": gin.H{"text": ""}}},
		{"negative count", gin.H{"poem": gin.H{"text": "the sea"}, "count": -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := s.do(t, http.MethodPost, "/match", tt.body); w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400; body = %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestRunsEndpoints(t *testing.T) {
	s := newTestServer(t)

	if w := s.do(t, http.MethodGet, "/runs/missing", nil); w.Code != http.StatusNotFound {
		t.Errorf("missing run status = %d", w.Code)
	}

	s.do(t, http.MethodPost, "/match", gin.H{"poem": gin.H{"text": "The sea."}})

	w := s.do(t, http.MethodGet, "/runs?limit=500", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	var list struct {
		Total int64 `json:"total"`
		Limit int   `json:"limit"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if list.Total != 1 || list.Limit != maxRunPageSize {
		t.Errorf("list = %+v", list)
	}

	w = s.do(t, http.MethodGet, "/stats", nil)
	var stats struct {
		RunsByReason map[string]int64 `json:"runs_by_reason"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.RunsByReason["accepted"] != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" || body["query_cache"] == nil {
		t.Errorf("body = %v", body)
	}
}
