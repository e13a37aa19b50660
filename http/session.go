package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	nethttp "net/http"
	"strings"
	"sync"
	"time"

	"yeoladin/router"
	"yeoladin/storage"
)

// Backend paths owned by the session manager. Refresh requests go through
// the manager's own bare client, never through the 401-handling Client, so
// an expired refresh token can never recurse into another refresh.
const (
	loginPath   = "/member/login"
	logoutPath  = "/member/logout"
	refreshPath = "/token/refresh"
)

// SessionManager owns the access/refresh token pair and the authenticated
// member record. It attaches credentials to outgoing requests via Client,
// performs the token refresh cycle, and persists session state so it
// survives restarts.
type SessionManager struct {
	baseURL string
	http    *nethttp.Client
	store   storage.Store

	mu           sync.Mutex
	nav          router.Navigator
	accessToken  string
	refreshToken string
	user         *storage.Member
	returnURL    string
	refresh      *refreshAttempt
}

// refreshAttempt is a single in-flight refresh; concurrent callers wait on
// the same attempt instead of issuing duplicate refresh requests.
type refreshAttempt struct {
	done chan struct{}
	err  error
}

// SessionConfig configures a SessionManager.
type SessionConfig struct {
	// BaseURL is the backend API base URL.
	BaseURL string
	// Timeout for login/refresh/logout requests.
	Timeout time.Duration
	// Store persists tokens and the member record. Required.
	Store storage.Store
}

// Credentials are the login form fields.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"pw"`
}

// loginResponse is the body returned by the login endpoint.
type loginResponse struct {
	AccessToken  string          `json:"accessToken"`
	RefreshToken string          `json:"refreshToken"`
	MemberInfo   *storage.Member `json:"memberInfo"`
}

// refreshResponse is the body returned by the refresh endpoint. The
// refresh token is only present when the server rotates it.
type refreshResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// NewSessionManager creates a session manager and hydrates any persisted
// session from the store.
func NewSessionManager(cfg SessionConfig) (*SessionManager, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("session: store is required")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("session: base URL is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	sm := &SessionManager{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &nethttp.Client{Timeout: timeout},
		store:   cfg.Store,
	}
	sm.hydrate()
	return sm, nil
}

// SetNavigator wires the navigator used for post-login/logout redirects.
// Session manager and router reference each other, so the navigator is
// attached after both exist. A nil navigator disables redirects.
func (sm *SessionManager) SetNavigator(nav router.Navigator) {
	sm.mu.Lock()
	sm.nav = nav
	sm.mu.Unlock()
}

// hydrate restores tokens and the member record from the store. A member
// record without an access token is dropped to keep the session invariant.
func (sm *SessionManager) hydrate() {
	var token string
	if err := sm.store.Get(storage.KeyAccessToken, &token); err == nil {
		sm.accessToken = token
	}
	var refresh string
	if err := sm.store.Get(storage.KeyRefreshToken, &refresh); err == nil {
		sm.refreshToken = refresh
	}
	var member storage.Member
	if err := sm.store.Get(storage.KeyUserInfo, &member); err == nil {
		sm.user = &member
	} else if !errors.Is(err, storage.ErrNotFound) {
		log.Printf("session: discarding stored user info: %v", err)
	}

	if sm.accessToken == "" && sm.user != nil {
		sm.user = nil
		sm.store.Delete(storage.KeyUserInfo)
	}
}

// Login exchanges credentials for a token pair and the member record,
// persists them, and navigates to the remembered return URL or home.
func (sm *SessionManager) Login(ctx context.Context, creds Credentials) (*storage.Member, error) {
	body, err := json.Marshal(creds)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRequestConfig, err)
	}

	resp, err := sm.post(ctx, loginPath, body, "")
	if err != nil {
		return nil, err
	}

	var lr loginResponse
	if err := json.Unmarshal(resp, &lr); err != nil {
		return nil, fmt.Errorf("session: decode login response: %w", err)
	}
	if lr.AccessToken == "" {
		return nil, fmt.Errorf("session: login response missing access token")
	}

	sm.mu.Lock()
	sm.accessToken = lr.AccessToken
	sm.refreshToken = lr.RefreshToken
	sm.user = lr.MemberInfo
	sm.persistLocked()
	target := router.Route{Name: router.NameHome}
	if sm.returnURL != "" {
		target = router.Route{Path: sm.returnURL}
		sm.returnURL = ""
	}
	nav := sm.nav
	sm.mu.Unlock()

	sm.navigate(nav, target)
	return lr.MemberInfo, nil
}

// Logout notifies the server best-effort, always clears local state, and
// navigates to the login route.
func (sm *SessionManager) Logout(ctx context.Context) {
	sm.mu.Lock()
	token := sm.accessToken
	sm.mu.Unlock()

	if token != "" {
		if _, err := sm.post(ctx, logoutPath, nil, token); err != nil {
			// Local logout proceeds regardless.
			log.Printf("session: server logout failed: %v", err)
		}
	}

	sm.mu.Lock()
	sm.clearLocked()
	nav := sm.nav
	sm.mu.Unlock()

	sm.navigate(nav, router.Route{Name: router.NameLogin})
}

// Refresh exchanges the refresh token for a new access token. Only one
// refresh is in flight at a time; concurrent callers share its outcome.
// Failure is terminal: the session is cleared and the user is sent to the
// login route.
func (sm *SessionManager) Refresh(ctx context.Context) error {
	sm.mu.Lock()
	if sm.refreshToken == "" {
		sm.clearLocked()
		nav := sm.nav
		sm.mu.Unlock()
		sm.navigate(nav, router.Route{Name: router.NameLogin})
		return ErrSessionExpired
	}
	if attempt := sm.refresh; attempt != nil {
		sm.mu.Unlock()
		select {
		case <-attempt.done:
			return attempt.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	attempt := &refreshAttempt{done: make(chan struct{})}
	sm.refresh = attempt
	token := sm.refreshToken
	sm.mu.Unlock()

	err := sm.doRefresh(ctx, token)

	sm.mu.Lock()
	sm.refresh = nil
	var nav router.Navigator
	if err != nil {
		sm.clearLocked()
		nav = sm.nav
	}
	sm.mu.Unlock()

	if err != nil {
		sm.navigate(nav, router.Route{Name: router.NameLogin})
		err = fmt.Errorf("%w: %v", ErrSessionExpired, err)
	}
	attempt.err = err
	close(attempt.done)
	return err
}

// doRefresh performs one refresh call and stores the returned tokens.
func (sm *SessionManager) doRefresh(ctx context.Context, refreshToken string) error {
	resp, err := sm.post(ctx, refreshPath, []byte("{}"), refreshToken)
	if err != nil {
		return err
	}

	var rr refreshResponse
	if err := json.Unmarshal(resp, &rr); err != nil {
		return fmt.Errorf("decode refresh response: %w", err)
	}
	if rr.AccessToken == "" {
		return fmt.Errorf("refresh response missing access token")
	}

	sm.mu.Lock()
	sm.accessToken = rr.AccessToken
	if rr.RefreshToken != "" {
		sm.refreshToken = rr.RefreshToken
	}
	sm.persistLocked()
	sm.mu.Unlock()

	log.Printf("session: access token refreshed")
	return nil
}

// post issues a JSON POST on the manager's bare client. The bearer token is
// attached when non-empty.
func (sm *SessionManager) post(ctx context.Context, path string, body []byte, bearer string) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := nethttp.NewRequestWithContext(ctx, nethttp.MethodPost, sm.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRequestConfig, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := sm.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoResponse, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: data}
	}
	return data, nil
}

// persistLocked writes the current session to durable storage.
// Callers hold sm.mu.
func (sm *SessionManager) persistLocked() {
	if err := sm.store.Set(storage.KeyAccessToken, sm.accessToken); err != nil {
		log.Printf("session: persist access token: %v", err)
	}
	if err := sm.store.Set(storage.KeyRefreshToken, sm.refreshToken); err != nil {
		log.Printf("session: persist refresh token: %v", err)
	}
	if sm.user != nil {
		if err := sm.store.Set(storage.KeyUserInfo, sm.user); err != nil {
			log.Printf("session: persist user info: %v", err)
		}
	} else {
		sm.store.Delete(storage.KeyUserInfo)
	}
}

// clearLocked wipes session fields and their persisted keys.
// Callers hold sm.mu.
func (sm *SessionManager) clearLocked() {
	sm.accessToken = ""
	sm.refreshToken = ""
	sm.user = nil
	sm.store.Delete(storage.KeyAccessToken)
	sm.store.Delete(storage.KeyRefreshToken)
	sm.store.Delete(storage.KeyUserInfo)
}

func (sm *SessionManager) navigate(nav router.Navigator, target router.Route) {
	if nav == nil {
		return
	}
	if err := nav.Push(target); err != nil {
		log.Printf("session: navigate to %s: %v", target, err)
	}
}

// AccessToken returns the current access token, empty when anonymous.
func (sm *SessionManager) AccessToken() string {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.accessToken
}

// RefreshToken returns the current refresh token, empty when none is held.
func (sm *SessionManager) RefreshToken() string {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.refreshToken
}

// User returns the authenticated member record, nil when anonymous.
func (sm *SessionManager) User() *storage.Member {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.user
}

// Authenticated reports whether an access token is held.
func (sm *SessionManager) Authenticated() bool {
	return sm.AccessToken() != ""
}

// SetReturnURL remembers the path to return to after the next login.
func (sm *SessionManager) SetReturnURL(path string) {
	sm.mu.Lock()
	sm.returnURL = path
	sm.mu.Unlock()
}

// ReturnURL returns the remembered post-login path, empty when none.
func (sm *SessionManager) ReturnURL() string {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.returnURL
}
