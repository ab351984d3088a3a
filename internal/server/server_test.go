package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sootlabs/soot/internal/config"
	"github.com/sootlabs/soot/internal/gateway"
	"github.com/sootlabs/soot/internal/model"
	"github.com/sootlabs/soot/internal/pipeline"
	"github.com/sootlabs/soot/internal/store"
)

// stubRunner returns canned responses.
type stubRunner struct {
	job    *model.Job
	result *model.Result
	err    error

	lastRepo string
}

func (s *stubRunner) RunFix(ctx context.Context, instruction, repo string, opts pipeline.Options) (*model.Job, *model.Result, error) {
	if strings.TrimSpace(instruction) == "" {
		return nil, nil, errors.New("instruction must not be empty")
	}
	s.lastRepo = repo
	if s.err != nil {
		return s.job, nil, s.err
	}
	if opts.Background {
		return s.job, nil, nil
	}
	return s.job, s.result, nil
}

func (s *stubRunner) RunFixDefaultRepo(ctx context.Context, instruction string, opts pipeline.Options) (*model.Job, *model.Result, error) {
	return s.RunFix(ctx, instruction, "default/repo", opts)
}

func (s *stubRunner) RunAnalysis(ctx context.Context, question, repo string) (*model.Job, *model.Result, error) {
	if strings.TrimSpace(question) == "" {
		return nil, nil, errors.New("question must not be empty")
	}
	return s.job, s.result, nil
}

func (s *stubRunner) DefaultOptions() pipeline.Options { return pipeline.Options{} }

func newTestServer(t *testing.T, runner FixRunner) (*Server, *store.Store, *gateway.Hub) {
	t.Helper()
	st, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	hub := gateway.NewHub(time.Second)
	cfg := &config.Config{ServerAddr: ":0", DefaultRepo: "acme/shop"}
	return New(cfg, st, hub, runner), st, hub
}

func sampleJob() *model.Job {
	now := time.Now().UTC()
	return &model.Job{
		ID: "ab12cd34", Instruction: "fix it", Repo: "acme/shop",
		Stage: model.StageSucceeded, Slot: 1,
		CreatedAt: now, UpdatedAt: now,
	}
}

func TestHandleFix(t *testing.T) {
	runner := &stubRunner{
		job:    sampleJob(),
		result: &model.Result{PRUrl: "https://github.com/acme/shop/pull/1", Output: "done"},
	}
	srv, _, _ := newTestServer(t, runner)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/fix", "application/json",
		strings.NewReader(`{"instruction":"fix the navbar","repo":"acme/shop"}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Job    *model.Job    `json:"job"`
		Result *model.Result `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Result.PRUrl != "https://github.com/acme/shop/pull/1" {
		t.Fatalf("unexpected result %+v", body.Result)
	}
	if runner.lastRepo != "acme/shop" {
		t.Fatalf("unexpected repo %q", runner.lastRepo)
	}
}

func TestHandleFixRequiresRepo(t *testing.T) {
	srv, _, _ := newTestServer(t, &stubRunner{job: sampleJob()})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/fix", "application/json",
		strings.NewReader(`{"instruction":"fix it"}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestHandleFixDefaultRepo(t *testing.T) {
	runner := &stubRunner{job: sampleJob(), result: &model.Result{}}
	srv, _, _ := newTestServer(t, runner)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/fix/default", "application/json",
		strings.NewReader(`{"instruction":"fix it"}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if runner.lastRepo != "default/repo" {
		t.Fatalf("expected the default-repo path, got %q", runner.lastRepo)
	}
}

func TestHandleFixBackground(t *testing.T) {
	runner := &stubRunner{job: sampleJob()}
	srv, _, _ := newTestServer(t, runner)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/fix", "application/json",
		strings.NewReader(`{"instruction":"fix it","repo":"acme/shop","background":true}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}
}

func TestHandleGetJob(t *testing.T) {
	srv, st, _ := newTestServer(t, &stubRunner{})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	job := sampleJob()
	if err := st.CreateJob(job); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := st.AppendEvent(job.ID, model.AgentCreated(1, "fix it")); err != nil {
		t.Fatalf("append: %v", err)
	}

	resp, err := http.Get(ts.URL + "/api/jobs/" + job.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Job    *model.Job    `json:"job"`
		Events []model.Event `json:"events"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Job.ID != job.ID || len(body.Events) != 1 {
		t.Fatalf("unexpected body: %+v", body)
	}

	missing, err := http.Get(ts.URL + "/api/jobs/nope")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer missing.Body.Close()
	if missing.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", missing.StatusCode)
	}
}

func TestEventIngestReachesWebsocket(t *testing.T) {
	srv, _, _ := newTestServer(t, &stubRunner{})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	resp, err := http.Post(ts.URL+"/internal/events", "application/json",
		strings.NewReader(`{"type":"agent_start_working","agent_id":2}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	ev, err := model.DecodeEvent(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev.Type != model.EventAgentStartWorking || ev.Slot != 2 {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestEventIngestRejectsMalformed(t *testing.T) {
	srv, _, _ := newTestServer(t, &stubRunner{})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	for _, payload := range []string{
		`{"type":"agent_exploded","agent_id":1}`,
		`{"type":"agent_created","agent_id":0}`,
		`not json`,
	} {
		resp, err := http.Post(ts.URL+"/internal/events", "application/json", strings.NewReader(payload))
		if err != nil {
			t.Fatalf("post: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("payload %q: expected 400, got %d", payload, resp.StatusCode)
		}
	}
}

func TestHealth(t *testing.T) {
	srv, _, _ := newTestServer(t, &stubRunner{})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}
