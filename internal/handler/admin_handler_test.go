package handler

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/deptflow/internal/db"
	"github.com/deptflow/internal/service"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
	"golang.org/x/crypto/bcrypt"
)

type stubHTMLRender struct {
	last *stubHTMLInstance
}

type stubHTMLInstance struct {
	name string
	data interface{}
}

func (r *stubHTMLRender) Instance(name string, data interface{}) render.Render {
	r.last = &stubHTMLInstance{name: name, data: data}
	return r.last
}

func (r *stubHTMLInstance) Render(http.ResponseWriter) error {
	return nil
}

func (r *stubHTMLInstance) WriteContentType(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
}

func (r *stubHTMLRender) lastData(t *testing.T) gin.H {
	t.Helper()
	if r.last == nil {
		t.Fatal("expected a template to be rendered")
	}
	data, ok := r.last.data.(gin.H)
	if !ok {
		t.Fatalf("unexpected template data type %T", r.last.data)
	}
	return data
}

type testEnv struct {
	api      *API
	router   *gin.Engine
	html     *stubHTMLRender
	tracker  *service.Tracker
	webhooks *service.WebhookService
}

func setupHandlerTest(t *testing.T, opts Options) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	habitsDB, err := db.OpenHabits(filepath.Join(dir, "habits.db"), db.Options{Silent: true})
	if err != nil {
		t.Fatalf("failed to open habits db: %v", err)
	}
	t.Cleanup(func() { db.Close(habitsDB) })
	webhookDB, err := db.OpenWebhooks(filepath.Join(dir, "webhooks.db"), db.Options{Silent: true})
	if err != nil {
		t.Fatalf("failed to open webhooks db: %v", err)
	}
	t.Cleanup(func() { db.Close(webhookDB) })

	tracker := service.NewTracker(habitsDB)
	webhooks := service.NewWebhookService(webhookDB)
	api := NewAPI(tracker, webhooks, opts)
	api.now = func() time.Time { return time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC) }

	html := &stubHTMLRender{}
	router := gin.New()
	router.HTMLRender = html
	router.Use(sessions.Sessions("deptflow_session", cookie.NewStore([]byte("test-secret"))))

	router.GET("/login", api.ShowLoginPage)
	router.POST("/login", api.Login)
	router.GET("/logout", api.Logout)
	auth := router.Group("")
	auth.Use(api.AuthRequired())
	auth.GET("/checkin", api.ShowCheckIn)
	auth.POST("/checkin", api.SubmitCheckIn)
	auth.GET("/habits", api.ShowHabits)
	auth.POST("/habits", api.CreateHabitForm)
	auth.POST("/habits/:id/rename", api.RenameHabitForm)
	auth.POST("/habits/:id/delete", api.DeleteHabitForm)
	auth.GET("/analytics", api.ShowAnalytics)
	auth.GET("/webhooks", api.ShowWebhooks)
	auth.GET("/export", api.ShowExport)
	auth.GET("/export/download", api.Export)
	apiGroup := auth.Group("/api")
	apiGroup.GET("/habits", api.ListHabits)
	apiGroup.POST("/habits", api.CreateHabit)
	apiGroup.PUT("/habits/:id", api.RenameHabit)
	apiGroup.DELETE("/habits/:id", api.DeleteHabit)
	apiGroup.PUT("/habits/:id/logs", api.UpsertLog)
	apiGroup.GET("/habits/:id/analytics", api.GetAnalytics)
	apiGroup.GET("/habits/:id/charts/weekly.png", api.WeeklyChart)
	apiGroup.GET("/habits/:id/charts/heatmap.png", api.HeatmapChart)
	apiGroup.GET("/habits/:id/charts/daily.png", api.DailyChart)
	apiGroup.GET("/logs", api.QueryLogs)
	apiGroup.POST("/checkin", api.CheckIn)
	apiGroup.GET("/overview", api.GetOverview)
	apiGroup.GET("/summary", api.GetSummary)
	apiGroup.GET("/charts/daily.png", api.OverviewChart)
	apiGroup.GET("/webhooks", api.ListWebhooks)

	return &testEnv{api: api, router: router, html: html, tracker: tracker, webhooks: webhooks}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestAuthDisabledAllowsRequests(t *testing.T) {
	env := setupHandlerTest(t, Options{})

	w := env.do(httptest.NewRequest(http.MethodGet, "/api/habits", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	w = env.do(httptest.NewRequest(http.MethodGet, "/login", nil))
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/checkin" {
		t.Fatalf("expected login to redirect when auth is disabled, got %d %q", w.Code, w.Header().Get("Location"))
	}
}

func TestAuthRequiredBlocksAnonymous(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	env := setupHandlerTest(t, Options{PasswordHash: string(hash)})

	w := env.do(httptest.NewRequest(http.MethodGet, "/api/habits", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401 for API, got %d", w.Code)
	}

	w = env.do(httptest.NewRequest(http.MethodGet, "/checkin", nil))
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/login" {
		t.Fatalf("expected redirect to /login, got %d %q", w.Code, w.Header().Get("Location"))
	}
}

func TestLoginFlow(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	env := setupHandlerTest(t, Options{PasswordHash: string(hash)})

	bad := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(url.Values{"password": {"wrong"}}.Encode()))
	bad.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if w := env.do(bad); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401 for wrong password, got %d", w.Code)
	}

	good := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(url.Values{"password": {"hunter2"}}.Encode()))
	good.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := env.do(good)
	if w.Code != http.StatusFound {
		t.Fatalf("expected redirect after login, got %d", w.Code)
	}
	cookies := w.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("expected session cookie")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/habits", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	if w := env.do(req); w.Code != http.StatusOK {
		t.Fatalf("expected authenticated request to pass, got %d", w.Code)
	}
}
