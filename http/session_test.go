package http

import (
	"context"
	"encoding/json"
	"errors"
	nethttp "net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"yeoladin/router"
	"yeoladin/storage"
)

func newTestSession(t *testing.T, baseURL string, store storage.Store) (*SessionManager, *router.MemoryRouter) {
	t.Helper()
	sm, err := NewSessionManager(SessionConfig{
		BaseURL: baseURL,
		Timeout: 5 * time.Second,
		Store:   store,
	})
	if err != nil {
		t.Fatalf("NewSessionManager() error = %v", err)
	}
	nav := router.NewMemoryRouter(sm)
	sm.SetNavigator(nav)
	return sm, nav
}

func seedSession(t *testing.T, store storage.Store, access, refresh string) {
	t.Helper()
	if err := store.Set(storage.KeyAccessToken, access); err != nil {
		t.Fatalf("seed access token: %v", err)
	}
	if err := store.Set(storage.KeyRefreshToken, refresh); err != nil {
		t.Fatalf("seed refresh token: %v", err)
	}
}

func TestNewSessionManagerRequiresStore(t *testing.T) {
	if _, err := NewSessionManager(SessionConfig{BaseURL: "http://localhost"}); err == nil {
		t.Error("NewSessionManager() without store expected error, got nil")
	}
	if _, err := NewSessionManager(SessionConfig{Store: storage.NewMemoryStore()}); err == nil {
		t.Error("NewSessionManager() without base URL expected error, got nil")
	}
}

func TestSessionHydratesFromStore(t *testing.T) {
	store := storage.NewMemoryStore()
	seedSession(t, store, "access-1", "refresh-1")
	if err := store.Set(storage.KeyUserInfo, &storage.Member{ID: 7, Name: "Kim", Email: "kim@example.com"}); err != nil {
		t.Fatalf("seed user info: %v", err)
	}

	sm, _ := newTestSession(t, "http://localhost", store)

	if !sm.Authenticated() {
		t.Error("Authenticated() = false, want true")
	}
	if got := sm.AccessToken(); got != "access-1" {
		t.Errorf("AccessToken() = %q, want %q", got, "access-1")
	}
	if user := sm.User(); user == nil || user.Name != "Kim" {
		t.Errorf("User() = %v, want Kim", user)
	}
}

func TestSessionHydrateDropsOrphanedUser(t *testing.T) {
	store := storage.NewMemoryStore()
	if err := store.Set(storage.KeyUserInfo, &storage.Member{ID: 7, Name: "Kim"}); err != nil {
		t.Fatalf("seed user info: %v", err)
	}

	sm, _ := newTestSession(t, "http://localhost", store)

	if sm.User() != nil {
		t.Error("User() != nil for a session without an access token")
	}
	var member storage.Member
	if err := store.Get(storage.KeyUserInfo, &member); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("stored user info error = %v, want ErrNotFound", err)
	}
}

func TestLoginStoresSessionAndNavigatesHome(t *testing.T) {
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.URL.Path != "/member/login" {
			t.Errorf("login path = %q, want /member/login", r.URL.Path)
		}
		var creds Credentials
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			t.Errorf("decode credentials: %v", err)
		}
		if creds.Email != "kim@example.com" || creds.Password != "secret" {
			t.Errorf("credentials = %+v", creds)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"accessToken":  "access-1",
			"refreshToken": "refresh-1",
			"memberInfo":   map[string]any{"id": 7, "name": "Kim", "email": "kim@example.com"},
		})
	}))
	defer srv.Close()

	store := storage.NewMemoryStore()
	sm, nav := newTestSession(t, srv.URL, store)

	member, err := sm.Login(context.Background(), Credentials{Email: "kim@example.com", Password: "secret"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if member == nil || member.Name != "Kim" {
		t.Errorf("Login() member = %v, want Kim", member)
	}
	if got := sm.AccessToken(); got != "access-1" {
		t.Errorf("AccessToken() = %q, want %q", got, "access-1")
	}
	if route := nav.Current(); route.Name != router.NameHome {
		t.Errorf("current route = %v, want home", route)
	}

	var stored string
	if err := store.Get(storage.KeyAccessToken, &stored); err != nil || stored != "access-1" {
		t.Errorf("persisted access token = %q, %v", stored, err)
	}
}

func TestLoginReturnsToRememberedURL(t *testing.T) {
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		json.NewEncoder(w).Encode(map[string]any{"accessToken": "access-1"})
	}))
	defer srv.Close()

	sm, nav := newTestSession(t, srv.URL, storage.NewMemoryStore())

	// An anonymous navigation to a guarded route remembers where the user
	// was headed.
	if err := nav.Push(router.Route{Name: router.NameBoard}); err != nil {
		t.Fatalf("Push() error = %v", err)
	}
	if route := nav.Current(); route.Name != router.NameLogin {
		t.Fatalf("guard route = %v, want login", route)
	}

	if _, err := sm.Login(context.Background(), Credentials{Email: "a@b.c", Password: "x"}); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	if route := nav.Current(); route.Path != "/board" {
		t.Errorf("post-login route = %v, want path /board", route)
	}
	if sm.ReturnURL() != "" {
		t.Errorf("ReturnURL() = %q, want cleared", sm.ReturnURL())
	}
}

func TestLoginFailure(t *testing.T) {
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.WriteHeader(nethttp.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"message": "bad credentials"})
	}))
	defer srv.Close()

	sm, _ := newTestSession(t, srv.URL, storage.NewMemoryStore())

	_, err := sm.Login(context.Background(), Credentials{Email: "a@b.c", Password: "wrong"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != 401 {
		t.Fatalf("Login() error = %v, want 401 APIError", err)
	}
	if sm.Authenticated() {
		t.Error("Authenticated() = true after failed login")
	}
}

func TestLogoutClearsStateEvenWhenServerFails(t *testing.T) {
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.WriteHeader(nethttp.StatusInternalServerError)
	}))
	defer srv.Close()

	store := storage.NewMemoryStore()
	seedSession(t, store, "access-1", "refresh-1")
	sm, nav := newTestSession(t, srv.URL, store)

	sm.Logout(context.Background())

	if sm.Authenticated() {
		t.Error("Authenticated() = true after logout")
	}
	var token string
	if err := store.Get(storage.KeyAccessToken, &token); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("stored access token error = %v, want ErrNotFound", err)
	}
	if route := nav.Current(); route.Name != router.NameLogin {
		t.Errorf("current route = %v, want login", route)
	}
}

func TestRefreshWithoutTokenFailsImmediately(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	store := storage.NewMemoryStore()
	if err := store.Set(storage.KeyAccessToken, "stale-access"); err != nil {
		t.Fatalf("seed access token: %v", err)
	}
	sm, nav := newTestSession(t, srv.URL, store)

	err := sm.Refresh(context.Background())
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("Refresh() error = %v, want ErrSessionExpired", err)
	}
	if calls.Load() != 0 {
		t.Errorf("server called %d times, want 0", calls.Load())
	}
	if sm.Authenticated() {
		t.Error("Authenticated() = true, want session cleared")
	}
	if route := nav.Current(); route.Name != router.NameLogin {
		t.Errorf("current route = %v, want login", route)
	}
}

func TestRefreshRotatesTokens(t *testing.T) {
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.URL.Path != "/token/refresh" {
			t.Errorf("refresh path = %q, want /token/refresh", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer refresh-1" {
			t.Errorf("Authorization = %q, want the refresh token", got)
		}
		json.NewEncoder(w).Encode(map[string]string{
			"accessToken":  "access-2",
			"refreshToken": "refresh-2",
		})
	}))
	defer srv.Close()

	store := storage.NewMemoryStore()
	seedSession(t, store, "access-1", "refresh-1")
	sm, _ := newTestSession(t, srv.URL, store)

	if err := sm.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if got := sm.AccessToken(); got != "access-2" {
		t.Errorf("AccessToken() = %q, want %q", got, "access-2")
	}
	if got := sm.RefreshToken(); got != "refresh-2" {
		t.Errorf("RefreshToken() = %q, want %q", got, "refresh-2")
	}
}

func TestRefreshKeepsTokenWithoutRotation(t *testing.T) {
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		json.NewEncoder(w).Encode(map[string]string{"accessToken": "access-2"})
	}))
	defer srv.Close()

	store := storage.NewMemoryStore()
	seedSession(t, store, "access-1", "refresh-1")
	sm, _ := newTestSession(t, srv.URL, store)

	if err := sm.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if got := sm.RefreshToken(); got != "refresh-1" {
		t.Errorf("RefreshToken() = %q, want the original token kept", got)
	}
}

func TestRefreshFailureClearsSession(t *testing.T) {
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.WriteHeader(nethttp.StatusUnauthorized)
	}))
	defer srv.Close()

	store := storage.NewMemoryStore()
	seedSession(t, store, "access-1", "refresh-1")
	sm, nav := newTestSession(t, srv.URL, store)

	err := sm.Refresh(context.Background())
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("Refresh() error = %v, want ErrSessionExpired", err)
	}
	if sm.Authenticated() || sm.RefreshToken() != "" {
		t.Error("session not cleared after terminal refresh failure")
	}
	if route := nav.Current(); route.Name != router.NameLogin {
		t.Errorf("current route = %v, want login", route)
	}
}

func TestConcurrentRefreshSharesOneAttempt(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		calls.Add(1)
		time.Sleep(50 * time.Millisecond)
		json.NewEncoder(w).Encode(map[string]string{"accessToken": "access-2"})
	}))
	defer srv.Close()

	store := storage.NewMemoryStore()
	seedSession(t, store, "access-1", "refresh-1")
	sm, _ := newTestSession(t, srv.URL, store)

	const workers = 8
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = sm.Refresh(context.Background())
		}(i)
	}
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Errorf("refresh endpoint called %d times, want 1", got)
	}
	for i, err := range errs {
		if err != nil {
			t.Errorf("worker %d: Refresh() error = %v", i, err)
		}
	}
	if got := sm.AccessToken(); got != "access-2" {
		t.Errorf("AccessToken() = %q, want %q", got, "access-2")
	}
}
