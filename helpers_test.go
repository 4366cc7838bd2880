package goAuthClient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

// fakeAPI is a storefront backend with login, refresh, logout, a public area
// and bearer-protected resources.
type fakeAPI struct {
	t   *testing.T
	srv *httptest.Server

	mu            sync.Mutex
	validAccess   map[string]bool
	validRefresh  map[string]bool
	issued        int
	rotate        bool
	alwaysDeny    bool
	refreshStatus int
	refreshBody   string
	loginStatus   int
	logoutStatus  int

	// refreshEntered receives once per refresh call before refreshGate is
	// awaited. Both are optional.
	refreshEntered chan struct{}
	refreshGate    chan struct{}

	refreshCalls     atomic.Int64
	unauthorized     atomic.Int64
	resourceHits     atomic.Int64
	authOnAuthPaths  atomic.Int64
	lastPublicAuth   atomic.Value
	lastResourceAuth atomic.Value
	lastResourceBody atomic.Value
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()
	api := &fakeAPI{
		t:            t,
		validAccess:  map[string]bool{},
		validRefresh: map[string]bool{},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", api.handleLogin)
	mux.HandleFunc("/api/auth/oauth/", api.handleLogin)
	mux.HandleFunc("/api/auth/refresh", api.handleRefresh)
	mux.HandleFunc("/api/auth/logout", api.handleLogout)
	mux.HandleFunc("/api/public/", api.handlePublic)
	mux.HandleFunc("/", api.handleResource)
	api.srv = httptest.NewServer(mux)
	t.Cleanup(api.srv.Close)
	return api
}

// grant makes access/refresh valid.
func (a *fakeAPI) grant(access, refresh string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if access != "" {
		a.validAccess[access] = true
	}
	if refresh != "" {
		a.validRefresh[refresh] = true
	}
}

func (a *fakeAPI) set(fn func(a *fakeAPI)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fn(a)
}

func (a *fakeAPI) nextToken(prefix string) string {
	a.issued++
	return fmt.Sprintf("%s%d", prefix, a.issued+1)
}

func (a *fakeAPI) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "" {
		a.authOnAuthPaths.Add(1)
	}
	var body map[string]string
	_ = json.NewDecoder(r.Body).Decode(&body)

	a.mu.Lock()
	status := a.loginStatus
	a.mu.Unlock()
	if status != 0 {
		w.WriteHeader(status)
		return
	}
	if body["password"] != "pw" && body["idToken"] == "" && body["accessToken"] == "" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	a.mu.Lock()
	access, refresh := a.nextToken("A"), a.nextToken("R")
	a.validAccess[access] = true
	a.validRefresh[refresh] = true
	a.mu.Unlock()

	writeJSON(w, map[string]any{
		"access_token":  access,
		"refresh_token": refresh,
		"user":          map[string]any{"id": "u1"},
	})
}

func (a *fakeAPI) handleRefresh(w http.ResponseWriter, r *http.Request) {
	a.refreshCalls.Add(1)
	if r.Header.Get("Authorization") != "" {
		a.authOnAuthPaths.Add(1)
	}
	if a.refreshEntered != nil {
		a.refreshEntered <- struct{}{}
	}
	if a.refreshGate != nil {
		<-a.refreshGate
	}

	var body map[string]string
	_ = json.NewDecoder(r.Body).Decode(&body)

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.refreshStatus != 0 {
		w.WriteHeader(a.refreshStatus)
		_, _ = io.WriteString(w, a.refreshBody)
		return
	}
	if a.refreshBody != "" {
		_, _ = io.WriteString(w, a.refreshBody)
		return
	}
	rt := body["refreshToken"]
	if rt == "" || rt != body["refresh_token"] || !a.validRefresh[rt] {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	access := a.nextToken("A")
	a.validAccess[access] = true
	resp := map[string]any{"accessToken": access}
	if a.rotate {
		next := a.nextToken("R")
		delete(a.validRefresh, rt)
		a.validRefresh[next] = true
		resp["refreshToken"] = next
	}
	writeJSON(w, resp)
}

func (a *fakeAPI) handleLogout(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	status := a.logoutStatus
	a.mu.Unlock()
	if status != 0 {
		w.WriteHeader(status)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *fakeAPI) handlePublic(w http.ResponseWriter, r *http.Request) {
	a.lastPublicAuth.Store(r.Header.Get("Authorization"))
	writeJSON(w, map[string]any{"public": true})
}

func (a *fakeAPI) handleResource(w http.ResponseWriter, r *http.Request) {
	a.resourceHits.Add(1)
	auth := r.Header.Get("Authorization")
	a.lastResourceAuth.Store(auth)
	body, _ := io.ReadAll(r.Body)
	a.lastResourceBody.Store(string(body))

	token := strings.TrimPrefix(auth, "Bearer ")
	a.mu.Lock()
	ok := auth != "" && a.validAccess[token] && !a.alwaysDeny
	a.mu.Unlock()
	if !ok {
		a.unauthorized.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":"unauthorized"}`)
		return
	}
	writeJSON(w, map[string]any{"ok": true})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func loadString(v *atomic.Value) string {
	s, _ := v.Load().(string)
	return s
}

// newTestClient builds a client against api with an in-memory store seeded
// with creds.
func newTestClient(t *testing.T, api *fakeAPI, creds Credentials, configure func(*Builder)) *Client {
	t.Helper()
	store := NewMemoryTokenStore()
	if !creds.Empty() {
		store.SetCredentials(creds)
	}
	b := New().
		WithBaseURL(api.srv.URL).
		WithTokenStore(store).
		WithBaseTransport(api.srv.Client().Transport).
		WithLogger(discardLogger())
	if configure != nil {
		configure(b)
	}
	c, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func mustGet(t *testing.T, c *Client, path string) *http.Response {
	t.Helper()
	req, err := c.NewRequest(t.Context(), http.MethodGet, path, nil)
	if err != nil {
		t.Fatalf("NewRequest failed: %v", err)
	}
	resp, err := c.Execute(req)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func waitFor(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}
