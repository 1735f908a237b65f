package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image/png"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// localClient 直接调用 handler，并用 cookie jar 维持会话
type localClient struct {
	handler http.Handler
	jar     http.CookieJar
}

func newLocalClient(handler http.Handler) *localClient {
	jar, _ := cookiejar.New(nil)
	return &localClient{handler: handler, jar: jar}
}

func (c *localClient) Do(req *http.Request) *http.Response {
	for _, cookie := range c.jar.Cookies(req.URL) {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	c.handler.ServeHTTP(w, req)
	resp := w.Result()
	c.jar.SetCookies(req.URL, resp.Cookies())
	return resp
}

func (c *localClient) json(t *testing.T, method, path string, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, "http://deptflow.test"+path, reader)
	req.Header.Set("Content-Type", "application/json")
	resp := c.Do(req)
	defer resp.Body.Close()

	var payload map[string]any
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			t.Fatalf("%s %s: decode response: %v", method, path, err)
		}
	}
	return resp.StatusCode, payload
}

func (c *localClient) form(path string, values url.Values) *http.Response {
	req := httptest.NewRequest(http.MethodPost, "http://deptflow.test"+path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.Do(req)
}

func (c *localClient) get(path string) *http.Response {
	return c.Do(httptest.NewRequest(http.MethodGet, "http://deptflow.test"+path, nil))
}

func TestE2E_DashboardWithLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("letmein"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	suite := newRouterSuite(t, string(hash))
	client := newLocalClient(suite.server.Config.Handler)

	if status, payload := client.json(t, http.MethodGet, "/api/habits", nil); status != http.StatusUnauthorized || payload["error"] == nil {
		t.Fatalf("expected 401 JSON before login, got %d %v", status, payload)
	}

	resp := client.form("/login", url.Values{"password": {"letmein"}})
	if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != "/checkin" {
		t.Fatalf("login failed: %d %s", resp.StatusCode, resp.Header.Get("Location"))
	}

	status, payload := client.json(t, http.MethodPost, "/api/habits", map[string]string{"name": "Read"})
	if status != http.StatusCreated {
		t.Fatalf("create habit returned %d: %v", status, payload)
	}
	habitID := int(payload["habit"].(map[string]any)["id"].(float64))

	today := time.Now()
	yesterday := today.AddDate(0, 0, -1)

	status, payload = client.json(t, http.MethodPost, "/api/checkin", map[string]any{
		"date":      yesterday.Format("2006-01-02"),
		"completed": []int{habitID},
	})
	if status != http.StatusOK {
		t.Fatalf("check-in returned %d: %v", status, payload)
	}

	status, payload = client.json(t, http.MethodPut, fmt.Sprintf("/api/habits/%d/logs", habitID), map[string]any{
		"date":      today.Format("2006-01-02"),
		"completed": true,
	})
	if status != http.StatusOK {
		t.Fatalf("upsert log returned %d: %v", status, payload)
	}

	status, payload = client.json(t, http.MethodGet, fmt.Sprintf("/api/habits/%d/analytics?days=7", habitID), nil)
	if status != http.StatusOK {
		t.Fatalf("analytics returned %d: %v", status, payload)
	}
	if payload["current_streak"].(float64) != 2 || payload["completion_rate"].(float64) != 100 {
		t.Fatalf("unexpected analytics: %v", payload)
	}

	resp = client.get(fmt.Sprintf("/api/habits/%d/charts/heatmap.png", habitID))
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "image/png" {
		t.Fatalf("heatmap returned %d %s", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
	if _, err := png.Decode(resp.Body); err != nil {
		t.Fatalf("heatmap is not a PNG: %v", err)
	}
	resp.Body.Close()

	resp = client.get("/api/export?format=csv")
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/csv") {
		t.Fatalf("export returned %d %s", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
	if !strings.Contains(string(body), "Read,"+today.Format("2006-01-02")+",true") {
		t.Fatalf("export missing today's row: %s", body)
	}

	resp = client.get("/analytics")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("analytics page returned %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = client.get("/logout")
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("logout returned %d", resp.StatusCode)
	}
	if status, _ := client.json(t, http.MethodGet, "/api/habits", nil); status != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", status)
	}
	resp = client.get("/checkin")
	if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != "/login" {
		t.Fatalf("expected redirect to login, got %d %s", resp.StatusCode, resp.Header.Get("Location"))
	}
}
