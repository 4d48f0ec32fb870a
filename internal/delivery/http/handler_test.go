package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/shodhacode/judge/internal/domain"
	"github.com/shodhacode/judge/internal/language"
	mockpub "github.com/shodhacode/judge/internal/queue/mock"
	mockrepo "github.com/shodhacode/judge/internal/repository/mock"
	"github.com/shodhacode/judge/internal/usecase"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	router   *gin.Engine
	subs     *mockrepo.SubmissionRepository
	problems *mockrepo.ProblemRepository
	pub      *mockpub.Publisher
}

func sumProblem() *domain.Problem {
	return &domain.Problem{
		ID:        1,
		Title:     "Sum",
		Statement: "Add two numbers.",
		TestCases: []domain.TestCase{{Input: "1 2", ExpectedOutput: "3"}},
	}
}

func setupTestRouter(checks map[string]HealthCheck) *testEnv {
	env := &testEnv{
		subs:     mockrepo.NewSubmissionRepository(),
		problems: mockrepo.NewProblemRepository(sumProblem()),
		pub:      mockpub.NewPublisher(),
	}
	logger := zap.NewNop()

	env.router = NewRouter(&RouterDeps{
		SubmitUC:     usecase.NewSubmitSubmissionUsecase(env.subs, env.problems, env.pub, logger),
		GetUC:        usecase.NewGetSubmissionUsecase(env.subs, logger),
		ProblemsUC:   usecase.NewProblemsUsecase(env.problems, logger),
		HealthChecks: checks,
		Logger:       logger,
		MaxBodyBytes: 2 << 20,
	})
	return env
}

func postSubmission(t *testing.T, router *gin.Engine, body any) *httptest.ResponseRecorder {
	t.Helper()
	jsonBody, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/submissions", bytes.NewBuffer(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func get(router *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func validBody() map[string]any {
	return map[string]any{
		"userName":  "alice",
		"problemId": 1,
		"language":  "python",
		"code":      "a, b = map(int, input().split())\nprint(a + b)",
	}
}

func TestSubmitHandler_Success(t *testing.T) {
	env := setupTestRouter(nil)

	w := postSubmission(t, env.router, validBody())
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	id, err := uuid.Parse(resp["submissionId"])
	if err != nil {
		t.Fatalf("expected submissionId to be a uuid, got %q", resp["submissionId"])
	}
	if env.pub.Count() != 1 {
		t.Errorf("expected 1 published submission, got %d", env.pub.Count())
	}

	stored, err := env.subs.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("submission not stored: %v", err)
	}
	if stored.Status != domain.StatusPending {
		t.Errorf("expected PENDING, got %s", stored.Status)
	}
}

func TestSubmitHandler_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(map[string]any)
		want   int
	}{
		{"missing user", func(b map[string]any) { delete(b, "userName") }, http.StatusBadRequest},
		{"blank user", func(b map[string]any) { b["userName"] = "   " }, http.StatusBadRequest},
		{"empty code", func(b map[string]any) { b["code"] = "" }, http.StatusBadRequest},
		{"missing language", func(b map[string]any) { delete(b, "language") }, http.StatusBadRequest},
		{"missing problem", func(b map[string]any) { delete(b, "problemId") }, http.StatusBadRequest},
		{"unknown problem", func(b map[string]any) { b["problemId"] = 99 }, http.StatusNotFound},
		{"code too large", func(b map[string]any) { b["code"] = strings.Repeat("x", usecase.MaxSourceCodeSize+1) }, http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestRouter(nil)
			body := validBody()
			tt.mutate(body)

			w := postSubmission(t, env.router, body)
			if w.Code != tt.want {
				t.Errorf("expected status %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
			if env.pub.Count() != 0 {
				t.Errorf("rejected submission was published")
			}
		})
	}
}

func TestSubmitHandler_EmptyBody(t *testing.T) {
	env := setupTestRouter(nil)

	req := httptest.NewRequest(http.MethodPost, "/api/submissions", bytes.NewBufferString("{"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestSubmitHandler_PublishFailure(t *testing.T) {
	env := setupTestRouter(nil)
	env.pub.PublishFn = func(context.Context, *domain.Submission) error {
		return domain.ErrQueueFull
	}

	w := postSubmission(t, env.router, validBody())
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d: %s", w.Code, w.Body.String())
	}

	statuses := env.subs.Statuses()
	if len(statuses) != 1 || statuses[0] != domain.StatusRuntimeError {
		t.Errorf("expected unqueued submission to be closed as RUNTIME_ERROR, got %v", statuses)
	}
}

func TestGetByIDHandler_Success(t *testing.T) {
	env := setupTestRouter(nil)

	w := postSubmission(t, env.router, validBody())
	var resp domain.SubmitResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal submit response: %v", err)
	}

	getW := get(env.router, "/api/submissions/"+resp.SubmissionID.String())
	if getW.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", getW.Code, getW.Body.String())
	}

	var view domain.SubmissionView
	if err := json.Unmarshal(getW.Body.Bytes(), &view); err != nil {
		t.Fatalf("failed to unmarshal submission: %v", err)
	}
	if view.ID != resp.SubmissionID {
		t.Errorf("expected id %s, got %s", resp.SubmissionID, view.ID)
	}
	if view.Status != domain.StatusPending {
		t.Errorf("expected status PENDING, got %s", view.Status)
	}
	if strings.Contains(getW.Body.String(), "\"code\"") {
		t.Error("submission view must not expose source code")
	}
}

func TestGetByIDHandler_NotFound(t *testing.T) {
	env := setupTestRouter(nil)

	w := get(env.router, "/api/submissions/00000000-0000-0000-0000-000000000001")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d: %s", w.Code, w.Body.String())
	}
}

func TestGetByIDHandler_InvalidUUID(t *testing.T) {
	env := setupTestRouter(nil)

	w := get(env.router, "/api/submissions/not-a-uuid")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestListSubmissionsHandler(t *testing.T) {
	env := setupTestRouter(nil)
	for i := 0; i < 3; i++ {
		if w := postSubmission(t, env.router, validBody()); w.Code != http.StatusCreated {
			t.Fatalf("submit %d: %d", i, w.Code)
		}
	}

	w := get(env.router, "/api/submissions?limit=2")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var resp map[string][]domain.SubmissionView
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp["submissions"]) != 2 {
		t.Errorf("expected 2 submissions, got %d", len(resp["submissions"]))
	}

	if w := get(env.router, "/api/submissions?limit=abc"); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad limit, got %d", w.Code)
	}
}

func TestProblemHandlers(t *testing.T) {
	env := setupTestRouter(nil)

	w := get(env.router, "/api/problems")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "expectedOutput") {
		t.Error("problem list must not expose test cases")
	}
	var list map[string][]domain.ProblemView
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(list["problems"]) != 1 || list["problems"][0].Title != "Sum" {
		t.Errorf("unexpected problems: %+v", list["problems"])
	}

	w = get(env.router, "/api/problems/1")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "expectedOutput") {
		t.Error("problem must not expose test cases")
	}

	if w := get(env.router, "/api/problems/42"); w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
	if w := get(env.router, "/api/problems/x"); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestLanguageHandler(t *testing.T) {
	handler := NewLanguageHandler(nil)

	router := gin.New()
	router.GET("/api/languages", handler.List)

	w := get(router, "/api/languages")
	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	var resp map[string][]LanguageInfo
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	languages := resp["languages"]
	if len(languages) != 3 {
		t.Fatalf("expected 3 languages, got %d", len(languages))
	}
	if languages[0].Name != language.Cpp || !languages[0].Compiled {
		t.Errorf("unexpected first language: %+v", languages[0])
	}
}

func TestHealthHandler(t *testing.T) {
	env := setupTestRouter(map[string]HealthCheck{
		"postgres": func(context.Context) error { return nil },
	})
	if w := get(env.router, "/api/health"); w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	env = setupTestRouter(map[string]HealthCheck{
		"postgres": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return errors.New("connection refused") },
	})
	w := get(env.router, "/api/health")
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "connection refused") {
		t.Errorf("expected failing check in body: %s", w.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := setupTestRouter(nil)
	postSubmission(t, env.router, validBody())

	w := get(env.router, "/metrics")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "judge_submissions_received_total") {
		t.Error("expected intake counter in metrics output")
	}
}

func dialStream(t *testing.T, srv *httptest.Server, id uuid.UUID) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/submissions/" + id.String() + "/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestWebSocketHandler_StreamsUntilTerminal(t *testing.T) {
	subs := mockrepo.NewSubmissionRepository()
	s := &domain.Submission{ID: uuid.New(), UserName: "bob", ProblemID: 1, Status: domain.StatusPending}
	subs.Put(s)

	handler := NewWebSocketHandler(usecase.NewGetSubmissionUsecase(subs, zap.NewNop()), zap.NewNop())
	handler.pollInterval = 10 * time.Millisecond
	router := gin.New()
	router.GET("/api/submissions/:id/stream", handler.Stream)
	srv := httptest.NewServer(router)
	defer srv.Close()

	conn := dialStream(t, srv, s.ID)
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var first domain.SubmissionView
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("read first update: %v", err)
	}
	if first.Status != domain.StatusPending {
		t.Errorf("expected first update PENDING, got %s", first.Status)
	}

	done := s.Clone()
	done.Status = domain.StatusAccepted
	done.Result = "All test cases passed"
	subs.Put(done)

	var last domain.SubmissionView
	for {
		var v domain.SubmissionView
		if err := conn.ReadJSON(&v); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				t.Fatalf("unexpected read error: %v", err)
			}
			break
		}
		last = v
	}
	if last.Status != domain.StatusAccepted {
		t.Errorf("expected final update ACCEPTED, got %s", last.Status)
	}
}

func TestWebSocketHandler_UnknownSubmission(t *testing.T) {
	env := setupTestRouter(nil)

	w := get(env.router, "/api/submissions/"+uuid.New().String()+"/stream")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 before upgrade, got %d", w.Code)
	}
}
