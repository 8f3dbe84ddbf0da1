package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"

	sharedauth "docchat-backend/internal/shared/auth"
	"docchat-backend/internal/users"
)

func newGoogleTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"access-1","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"123","email":"ada@example.com","name":"Ada","picture":"https://img"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestGoogleLoginIssuesTokenAndStoresProfile(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := newGoogleTestServer(t)
	signer, err := sharedauth.NewJWTVerifier("test-secret", "dev")
	if err != nil {
		t.Fatalf("NewJWTVerifier: %v", err)
	}
	profiles := users.NewService(users.NewMemoryRepo())

	svc := NewGoogleService("client", "secret", "http://api/callback", "http://ui/done", signer, profiles)
	svc.oauthConfig.Endpoint = oauth2.Endpoint{AuthURL: srv.URL + "/auth", TokenURL: srv.URL + "/token"}
	svc.userInfoURL = srv.URL + "/userinfo"

	r := gin.New()
	svc.RegisterRoutes(r.Group("/api/v1"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/start", nil))
	if w.Code != http.StatusFound {
		t.Fatalf("expected redirect, got %d", w.Code)
	}
	loc, err := url.Parse(w.Header().Get("Location"))
	if err != nil {
		t.Fatalf("parse location: %v", err)
	}
	state := loc.Query().Get("state")
	if state == "" {
		t.Fatal("expected state in auth redirect")
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/callback?state="+state+"&code=abc", nil))
	if w.Code != http.StatusFound {
		t.Fatalf("expected redirect to UI, got %d: %s", w.Code, w.Body.String())
	}
	done, err := url.Parse(w.Header().Get("Location"))
	if err != nil {
		t.Fatalf("parse ui redirect: %v", err)
	}
	token := done.Query().Get("token")
	identity, err := signer.Verify(context.Background(), token)
	if err != nil {
		t.Fatalf("issued token does not verify: %v", err)
	}
	if identity.UserID != "google:123" || identity.Email != "ada@example.com" {
		t.Fatalf("unexpected identity: %+v", identity)
	}

	user, err := profiles.GetByID(context.Background(), "google:123")
	if err != nil {
		t.Fatalf("expected stored profile: %v", err)
	}
	if user.FullName != "Ada" {
		t.Fatalf("unexpected profile: %+v", user)
	}

	// states are single use
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/callback?state="+state+"&code=abc", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected replayed state to fail, got %d", w.Code)
	}
}

func TestGoogleStartNotConfigured(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewGoogleService("", "", "", "", nil, nil).RegisterRoutes(r.Group("/api/v1"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/start", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}

func TestAppendToken(t *testing.T) {
	got, err := appendToken("http://ui/done?x=1", "tok")
	if err != nil {
		t.Fatalf("appendToken: %v", err)
	}
	if got != "http://ui/done?token=tok&x=1" {
		t.Fatalf("unexpected url %q", got)
	}
	if _, err := appendToken("", "tok"); err == nil {
		t.Fatal("expected error for empty redirect")
	}
}

func TestLoginStatesExpireAndPrune(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	states := newLoginStates(time.Minute)
	states.now = func() time.Time { return now }

	states.issue("old")
	now = now.Add(2 * time.Minute)
	states.issue("fresh")

	if _, ok := states.expires["old"]; ok {
		t.Fatal("expected expired state to be pruned on issue")
	}
	if !states.redeem("fresh") {
		t.Fatal("expected fresh state to redeem")
	}
	if states.redeem("fresh") {
		t.Fatal("expected state to be single use")
	}

	states.issue("late")
	now = now.Add(time.Minute + time.Second)
	if states.redeem("late") {
		t.Fatal("expected expired state to be rejected")
	}
}
