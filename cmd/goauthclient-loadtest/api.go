package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// tokenAPI is an in-process storefront backend issuing HS256 access tokens.
// Expire invalidates every access token issued so far.
type tokenAPI struct {
	srv    *httptest.Server
	secret []byte
	ttl    time.Duration

	mu      sync.Mutex
	epoch   int64
	refresh map[string]bool

	refreshCalls atomic.Int64
}

type accessClaims struct {
	Epoch int64 `json:"epoch"`
	jwt.RegisteredClaims
}

func newTokenAPI(secret []byte, ttl time.Duration) *tokenAPI {
	a := &tokenAPI{
		secret:  secret,
		ttl:     ttl,
		refresh: map[string]bool{},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", a.handleLogin)
	mux.HandleFunc("POST /api/auth/refresh", a.handleRefresh)
	mux.HandleFunc("GET /api/products", a.handleProducts)
	a.srv = httptest.NewServer(mux)
	return a
}

func (a *tokenAPI) URL() string         { return a.srv.URL }
func (a *tokenAPI) Close()              { a.srv.Close() }
func (a *tokenAPI) RefreshCalls() int64 { return a.refreshCalls.Load() }

func (a *tokenAPI) Expire() {
	a.mu.Lock()
	a.epoch++
	a.mu.Unlock()
}

func (a *tokenAPI) issueAccess() (string, error) {
	a.mu.Lock()
	epoch := a.epoch
	a.mu.Unlock()
	now := time.Now()
	return jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims{
		Epoch: epoch,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "load-user",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}).SignedString(a.secret)
}

func (a *tokenAPI) handleLogin(w http.ResponseWriter, _ *http.Request) {
	access, err := a.issueAccess()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	refresh := uuid.NewString()
	a.mu.Lock()
	a.refresh[refresh] = true
	a.mu.Unlock()
	writeJSON(w, map[string]string{"accessToken": access, "refreshToken": refresh})
}

func (a *tokenAPI) handleRefresh(w http.ResponseWriter, r *http.Request) {
	a.refreshCalls.Add(1)
	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	a.mu.Lock()
	ok := a.refresh[body.RefreshToken]
	a.mu.Unlock()
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	access, err := a.issueAccess()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]string{"accessToken": access})
}

func (a *tokenAPI) handleProducts(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	var claims accessClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	a.mu.Lock()
	current := a.epoch
	a.mu.Unlock()
	if err != nil || claims.Epoch != current {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	writeJSON(w, []map[string]any{{"sku": "tea-001", "price": 450}})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
