// Package yeoladin is the client toolkit for the yeoladin trip-board
// service: session handling, routing, and state stores for short-form
// videos, the main page, and the board.
//
// Overview
//
// The toolkit is split into focused sub-packages that are wired together
// explicitly by the caller:
//
//   - config: Configuration management
//   - storage: Persistent key/value state (tokens, member info, board prefs)
//   - http: API client, session manager with token refresh, error classification
//   - router: Named routes, auth guard, page normalization
//   - shortform: Video list synchronizer with optimistic updates
//   - mainpage: Popular shortforms for the landing page
//   - board: Board list preferences
//
// Quick Start
//
// Wire a client and list videos:
//
//	cfg, err := config.Load()
//	if err != nil {
//		log.Fatal(err)
//	}
//	store, err := storage.NewFileStore(cfg.StateDir)
//	if err != nil {
//		log.Fatal(err)
//	}
//	session, err := http.NewSessionManager(http.SessionConfig{
//		BaseURL: cfg.BaseURL,
//		Timeout: cfg.Timeout,
//		Store:   store,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	nav := router.NewMemoryRouter(session)
//	session.SetNavigator(nav)
//
//	client := http.New(&http.Config{BaseURL: cfg.BaseURL}, session)
//	videos, err := shortform.NewStore(shortform.StoreConfig{
//		API:       shortform.NewAPI(client),
//		Session:   session,
//		Navigator: nav,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := videos.FetchAll(ctx); err != nil {
//		log.Fatal(videos.Err())
//	}
//	for _, v := range videos.Videos() {
//		fmt.Println(v.Title)
//	}
//
// Configuration
//
// yeoladin loads settings from multiple sources:
//
//   1. Environment variables (highest priority)
//   2. Config file (yeoladin.json or ~/.config/yeoladin/yeoladin.json)
//   3. Default values (lowest priority)
//
// Environment variables:
//
//   - YEOLADIN_BASE_URL: API base URL
//   - YEOLADIN_TIMEOUT: HTTP request timeout
//   - YEOLADIN_USER_AGENT: User-Agent header value
//   - YEOLADIN_STATE_DIR: Directory for persisted session state
//   - YEOLADIN_RPS: Outgoing request rate limit (requests per second)
//   - YEOLADIN_BURST: Rate limiter burst size
//   - YEOLADIN_ITEMS_PER_PAGE: Videos per list page
//
// Error Handling
//
// All operations return errors that implement standard Go error handling.
//
// Checking for sentinel errors:
//
//	if errors.Is(err, http.ErrSessionExpired) {
//		fmt.Println("Session expired, log in again")
//	}
//
// Extracting wrapped error details:
//
//	var apiErr *http.APIError
//	if errors.As(err, &apiErr) {
//		fmt.Printf("status %d: %s\n", apiErr.StatusCode, apiErr.Message())
//	}
//
// Converting any error to a display string:
//
//	fmt.Println(http.UserMessage(err, "Something went wrong."))
package yeoladin
