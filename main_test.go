package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jeremyjr/portfolio/internal/arcade"
	"github.com/jeremyjr/portfolio/internal/content"
	"github.com/jeremyjr/portfolio/internal/github"
	"github.com/jeremyjr/portfolio/internal/store"
	"github.com/jeremyjr/portfolio/internal/tron"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type testEnv struct {
	srv    *server
	router *gin.Engine
	store  *store.Store
	mails  []contactMessage
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st, err := store.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })

	cfg := Config{
		TemplateGlob:     "templates/*",
		TronStep:         time.Hour,
		AdminUsername:    "root",
		AdminPassword:    "hunter2",
		VisitorRetention: 24 * time.Hour,
	}
	games := arcade.NewManager(arcade.Options{Step: cfg.TronStep, MaxSessions: 4, Recorder: st})
	t.Cleanup(games.Shutdown)

	env := &testEnv{store: st}
	env.srv = newServer(cfg, content.Default(), st, games, github.NewProvider(github.NewClient(""), "", time.Hour))
	env.srv.mailer = func(_ SMTPConfig, m contactMessage) error {
		if m.Name == "fail" {
			return errors.New("smtp down")
		}
		env.mails = append(env.mails, m)
		return nil
	}
	env.router = env.srv.routes()
	return env
}

func (e *testEnv) do(method, path, body string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeFrame(t *testing.T, w *httptest.ResponseRecorder) arcade.Frame {
	t.Helper()
	var f arcade.Frame
	if err := json.Unmarshal(w.Body.Bytes(), &f); err != nil {
		t.Fatalf("decode frame: %v\n%s", err, w.Body.String())
	}
	return f
}

func TestPages(t *testing.T) {
	env := newTestEnv(t)
	site := content.Default()

	cases := []struct {
		path string
		want string
	}{
		{"/", site.Name},
		{"/work-content", site.Work[0].Organization},
		{"/education-content", site.Education[0].Title},
		{"/contact-form", "Contact Me"},
		{"/games/tron", "tron-board"},
		{"/privacy", "Privacy Policy"},
		{"/projects", github.Fallback().Repos[0].Name},
	}
	for _, tc := range cases {
		w := env.do(http.MethodGet, tc.path, "", nil)
		if w.Code != http.StatusOK {
			t.Errorf("%s: status %d", tc.path, w.Code)
			continue
		}
		if !strings.Contains(w.Body.String(), tc.want) {
			t.Errorf("%s: body does not contain %q", tc.path, tc.want)
		}
	}
}

func TestTronGameFlow(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/tron/games", `{"mode":"computer"}`, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", w.Code, w.Body.String())
	}
	f := decodeFrame(t, w)
	if f.Mode != arcade.ModeComputer || f.State.Outcome != tron.InProgress || f.State.Players[1].Name != "Computer" {
		t.Fatalf("unexpected frame %+v", f)
	}
	base := "/api/tron/games/" + f.ID

	if w := env.do(http.MethodPost, base+"/keys", `{"key":38}`, nil); w.Code != http.StatusNoContent {
		t.Fatalf("keys: %d", w.Code)
	}
	if w := env.do(http.MethodPost, base+"/keys", `{"key":32}`, nil); w.Code != http.StatusNoContent {
		t.Errorf("unknown key should be ignored, got %d", w.Code)
	}
	if w := env.do(http.MethodPost, base+"/keys", `{}`, nil); w.Code != http.StatusBadRequest {
		t.Errorf("missing key: %d", w.Code)
	}

	session, err := env.srv.games.Get(f.ID)
	if err != nil {
		t.Fatal(err)
	}
	session.Advance()

	f = decodeFrame(t, env.do(http.MethodGet, base, "", nil))
	if f.State.Players[0].Head() != (tron.Coordinate{Row: 24, Col: 10}) || f.State.Players[1].Head() != (tron.Coordinate{Row: 24, Col: 39}) {
		t.Errorf("both players should have turned up: %+v", f.State.Players)
	}

	if w := env.do(http.MethodPost, base+"/turn", `{"player":2,"direction":"down"}`, nil); w.Code != http.StatusNoContent {
		t.Errorf("turn: %d %s", w.Code, w.Body.String())
	}
	if w := env.do(http.MethodPost, base+"/turn", `{"player":1,"direction":"north"}`, nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad direction: %d", w.Code)
	}
	for _, body := range []string{`{"player":0,"direction":"up"}`, `{"player":3,"direction":"up"}`, `{"direction":"up"}`} {
		if w := env.do(http.MethodPost, base+"/turn", body, nil); w.Code != http.StatusNoContent {
			t.Errorf("unknown player %s: %d", body, w.Code)
		}
	}

	board := env.do(http.MethodGet, base+"/board", "", nil)
	if board.Code != http.StatusOK || strings.Count(board.Body.String(), "\n") != 50 {
		t.Errorf("board: %d\n%s", board.Code, board.Body.String())
	}

	f = decodeFrame(t, env.do(http.MethodPost, base+"/restart", "", nil))
	if f.State.Tick != 0 || len(f.State.Players[0].Trail) != 1 {
		t.Errorf("restart: %+v", f.State)
	}

	if w := env.do(http.MethodDelete, base, "", nil); w.Code != http.StatusNoContent {
		t.Errorf("delete: %d", w.Code)
	}
	if w := env.do(http.MethodGet, base, "", nil); w.Code != http.StatusNotFound {
		t.Errorf("deleted game still served: %d", w.Code)
	}
}

func TestTronMsgpack(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/tron/games", "", http.Header{"Accept": {arcade.ContentTypeMsgpack}})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != arcade.ContentTypeMsgpack {
		t.Errorf("content type %q", ct)
	}
	f, err := arcade.DecodeFrame(w.Body.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if f.Mode != arcade.ModeTwoPlayer || f.State.Width != 50 {
		t.Errorf("decoded %+v", f)
	}
}

func TestTronErrors(t *testing.T) {
	env := newTestEnv(t)

	if w := env.do(http.MethodPost, "/api/tron/games", `{"mode":"solo"}`, nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad mode: %d", w.Code)
	}
	for _, path := range []string{"/api/tron/games/nope", "/api/tron/games/00000000-0000-0000-0000-000000000000/board"} {
		if w := env.do(http.MethodGet, path, "", nil); w.Code != http.StatusNotFound {
			t.Errorf("%s: %d", path, w.Code)
		}
	}
	for i := 0; i < 4; i++ {
		env.do(http.MethodPost, "/api/tron/games", "", nil)
	}
	if w := env.do(http.MethodPost, "/api/tron/games", "", nil); w.Code != http.StatusServiceUnavailable {
		t.Errorf("over capacity: %d", w.Code)
	}
}

func TestGitHubAPIWithoutUsername(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/api/github", "", nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "GITHUB_USERNAME environment variable is not set.") {
		t.Errorf("body %s", w.Body.String())
	}
}

func TestGitHubAPIFallsBackOnFailure(t *testing.T) {
	env := newTestEnv(t)
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer api.Close()

	client := github.NewClient("")
	client.BaseURL = api.URL
	env.srv.github = github.NewProvider(client, "octo", time.Hour)

	w := env.do(http.MethodGet, "/api/github", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	var d github.Data
	if err := json.Unmarshal(w.Body.Bytes(), &d); err != nil {
		t.Fatal(err)
	}
	if d.Profile.Login != github.Fallback().Profile.Login {
		t.Errorf("expected fallback data, got %q", d.Profile.Login)
	}
	if w.Header().Get("Cache-Control") != "no-store" {
		t.Errorf("fallback should not be cached by the CDN")
	}
}

func TestContactForm(t *testing.T) {
	env := newTestEnv(t)
	post := func(form url.Values) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)
		return w
	}

	w := post(url.Values{"fullName": {"Ada"}, "email": {"ada@example.com"}, "message": {"hello"}})
	if !strings.Contains(w.Body.String(), "Thank you") || len(env.mails) != 1 {
		t.Errorf("expected success, got %s", w.Body.String())
	}

	w = post(url.Values{"fullName": {"fail"}, "email": {"x@example.com"}, "message": {"hi"}})
	if !strings.Contains(w.Body.String(), "error sending") {
		t.Errorf("expected send error, got %s", w.Body.String())
	}

	w = post(url.Values{"fullName": {"Eve\r\nBcc: all"}, "email": {"e@example.com"}, "message": {"hi"}})
	if !strings.Contains(w.Body.String(), "notice error") || len(env.mails) != 1 {
		t.Errorf("header injection not rejected: %s", w.Body.String())
	}

	w = post(url.Values{"fullName": {"Ada"}})
	if !strings.Contains(w.Body.String(), "Please fill in") {
		t.Errorf("expected validation error, got %s", w.Body.String())
	}
}

func TestContactMail(t *testing.T) {
	msg := contactMessage{Name: "Ada", Email: "ada@example.com", Message: "line one\nline two"}
	raw := string(msg.mail("site@example.com", "me@example.com"))

	head, body, ok := strings.Cut(raw, "\r\n\r\n")
	if !ok {
		t.Fatalf("no header/body separator:\n%s", raw)
	}
	for _, want := range []string{"To: me@example.com", "From: site@example.com", "Reply-To: ada@example.com", "Subject: Portfolio Contact: Ada"} {
		if !strings.Contains(head, want+"\r\n") {
			t.Errorf("missing header %q in\n%s", want, head)
		}
	}
	if !strings.Contains(body, "line one\r\nline two") {
		t.Errorf("message lines not CRLF terminated:\n%q", body)
	}
}

func TestAdminLogin(t *testing.T) {
	env := newTestEnv(t)

	if w := env.do(http.MethodGet, "/admin/dashboard", "", nil); w.Code != http.StatusFound {
		t.Fatalf("unauthenticated dashboard: %d", w.Code)
	}

	if w := env.login("root", "wrong"); w.Code != http.StatusUnauthorized {
		t.Errorf("bad password: %d", w.Code)
	}

	cookie := env.adminCookie(t)
	for _, path := range []string{"/admin/dashboard", "/admin/visitors", "/admin/games", "/admin/api/stats"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.AddCookie(cookie)
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("%s: %d", path, rec.Code)
		}
	}
}

func (e *testEnv) login(user, pass string) *httptest.ResponseRecorder {
	form := url.Values{"username": {user}, "password": {pass}}
	req := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) adminCookie(t *testing.T) *http.Cookie {
	t.Helper()
	w := e.login("root", "hunter2")
	if w.Code != http.StatusFound {
		t.Fatalf("login: %d", w.Code)
	}
	cookies := w.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("no admin cookie set")
	}
	return cookies[0]
}

func TestAdminStopGame(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.adminCookie(t)

	id := decodeFrame(t, env.do(http.MethodPost, "/api/tron/games", "", nil)).ID
	session, err := env.srv.games.Get(id)
	if err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name   string
		id     string
		auth   bool
		status int
	}{
		{"unauthenticated", id, false, http.StatusFound},
		{"running game", id, true, http.StatusOK},
		{"already stopped", id, true, http.StatusNotFound},
		{"unknown id", "nope", true, http.StatusNotFound},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodDelete, "/admin/games/"+tc.id, nil)
		if tc.auth {
			req.AddCookie(cookie)
		}
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)
		if w.Code != tc.status {
			t.Errorf("%s: status %d, want %d", tc.name, w.Code, tc.status)
		}
	}

	if w := env.do(http.MethodGet, "/api/tron/games/"+id, "", nil); w.Code != http.StatusNotFound {
		t.Errorf("stopped game still served: %d", w.Code)
	}
	if f := session.Restart(); f.Running {
		t.Error("stopped game restarted its timer")
	}
}

func TestVisitorTracking(t *testing.T) {
	env := newTestEnv(t)

	env.do(http.MethodGet, "/", "", nil)
	env.do(http.MethodGet, "/", "", http.Header{"Dnt": {"1"}})
	env.do(http.MethodGet, "/api/tron/games/none", "", nil)

	deadline := time.Now().Add(2 * time.Second)
	var visitors []store.VisitorMetric
	for time.Now().Before(deadline) {
		var err error
		visitors, err = env.store.RecentVisitors(context.Background(), 10)
		if err != nil {
			t.Fatal(err)
		}
		if len(visitors) > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	// Give any stray writes a moment before checking nothing else landed.
	time.Sleep(50 * time.Millisecond)
	visitors, _ = env.store.RecentVisitors(context.Background(), 10)
	if len(visitors) != 1 || visitors[0].Path != "/" {
		t.Fatalf("expected one tracked visit to /, got %+v", visitors)
	}
	if len(visitors[0].HashedIP) != 16 || strings.Contains(visitors[0].HashedIP, ".") {
		t.Errorf("ip not hashed: %q", visitors[0].HashedIP)
	}
}
