package router

import (
	"fmt"
	"log"
	"strconv"
	"sync"
)

// SessionState is the slice of session state the navigation guard reads.
type SessionState interface {
	// Authenticated reports whether a session is currently held.
	Authenticated() bool
	// SetReturnURL remembers the path to return to after the next login.
	SetReturnURL(path string)
}

// Navigator performs navigations. State stores depend on this interface
// only, never on a concrete router.
type Navigator interface {
	// Push navigates to the given route.
	Push(r Route) error
	// Current returns the route currently displayed.
	Current() Route
}

// MemoryRouter is an in-process Navigator that applies the route guard and
// records navigation history. It backs the CLI and tests.
type MemoryRouter struct {
	mu      sync.Mutex
	session SessionState
	current Route
	history []Route
}

// NewMemoryRouter creates a router guarding navigations with the given
// session state. A nil session disables the guard.
func NewMemoryRouter(session SessionState) *MemoryRouter {
	return &MemoryRouter{
		session: session,
		current: Route{Name: NameHome},
	}
}

// Push resolves the target through page normalization and the auth guard,
// then records it as the current route.
func (mr *MemoryRouter) Push(r Route) error {
	if r.Name != "" && !Known(r.Name) {
		return fmt.Errorf("router: unknown route %q", r.Name)
	}

	r = normalizePage(r)

	mr.mu.Lock()
	defer mr.mu.Unlock()

	r = mr.guard(r)
	mr.current = r
	mr.history = append(mr.history, r)
	return nil
}

// Current returns the route currently displayed.
func (mr *MemoryRouter) Current() Route {
	mr.mu.Lock()
	defer mr.mu.Unlock()
	return mr.current
}

// History returns all routes navigated to, oldest first.
func (mr *MemoryRouter) History() []Route {
	mr.mu.Lock()
	defer mr.mu.Unlock()
	return append([]Route(nil), mr.history...)
}

// guard applies the application navigation rules: auth-required targets
// bounce anonymous users to login (remembering where they were headed),
// and login/register bounce authenticated users home.
func (mr *MemoryRouter) guard(to Route) Route {
	if mr.session == nil || to.Name == "" {
		return to
	}

	authed := mr.session.Authenticated()

	if RequiresAuth(to.Name) && !authed {
		mr.session.SetReturnURL(to.FullPath())
		log.Printf("router: %s requires auth, redirecting to login", to.Name)
		return Route{Name: NameLogin}
	}
	if (to.Name == NameLogin || to.Name == NameRegister) && authed {
		return Route{Name: NameHome}
	}
	return to
}

// normalizePage rewrites shortform routes whose page parameter is missing,
// non-numeric, or below 1 to page 1, preserving query context.
func normalizePage(r Route) Route {
	if r.Name != NameShortform && r.Name != NameShortformDetail {
		return r
	}
	page, ok := r.Params["page"]
	if ok {
		if n, err := strconv.Atoi(page); err == nil && n >= 1 {
			return r
		}
	}

	params := make(map[string]string, len(r.Params)+1)
	for k, v := range r.Params {
		params[k] = v
	}
	params["page"] = "1"
	r.Params = params
	return r
}
