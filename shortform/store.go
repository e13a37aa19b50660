package shortform

import (
	"context"
	"fmt"
	"log"
	"sync"

	"yeoladin/http"
	"yeoladin/router"
)

// AuthState is the slice of session state the store reads before mutations
// that require a logged-in member.
type AuthState interface {
	Authenticated() bool
}

// Scope names accepted by SetViewingScope. They arrive as the "source"
// query parameter of the detail route.
const (
	ScopeMain    = "main"
	ScopeRelated = "related"
)

// StoreConfig configures a Store.
type StoreConfig struct {
	// API is the remote video service. Required.
	API Service
	// Session gates auth-required mutations. Required.
	Session AuthState
	// Navigator performs detail-route navigations. Required.
	Navigator router.Navigator
	// ItemsPerPage is the main-list page size (default 5).
	ItemsPerPage int
}

// Store is the video list synchronizer. Videos are held once in a
// normalized entity map keyed by pk; the main and related lists carry pk
// order only, and the active list is derived from the viewing scope rather
// than kept as a second physical collection. Any state-changing field
// written for one pk is therefore visible through every list at once.
//
// Mutations are optimistic: the local record changes first, the remote
// confirmation follows, and the record is rolled back when the call fails.
type Store struct {
	api          Service
	session      AuthState
	nav          router.Navigator
	itemsPerPage int

	mu             sync.Mutex
	entities       map[PK]*Video
	mainOrder      []PK
	relatedOrder   []PK
	viewingRelated bool

	currentPK    PK
	currentIndex int

	viewed    map[PK]struct{}
	loading   bool
	lastError string
}

// NewStore creates an empty store.
func NewStore(cfg StoreConfig) (*Store, error) {
	if cfg.API == nil {
		return nil, fmt.Errorf("shortform: api is required")
	}
	if cfg.Session == nil {
		return nil, fmt.Errorf("shortform: session state is required")
	}
	if cfg.Navigator == nil {
		return nil, fmt.Errorf("shortform: navigator is required")
	}
	perPage := cfg.ItemsPerPage
	if perPage <= 0 {
		perPage = 5
	}
	return &Store{
		api:          cfg.API,
		session:      cfg.Session,
		nav:          cfg.Navigator,
		itemsPerPage: perPage,
		entities:     make(map[PK]*Video),
		currentIndex: -1,
		viewed:       make(map[PK]struct{}),
	}, nil
}

// FetchAll replaces the main catalog wholesale. When the related scope is
// not active, the active list follows the new catalog and the current
// index is recomputed.
func (s *Store) FetchAll(ctx context.Context) error {
	s.beginLoad()
	defer s.endLoad()

	videos, err := s.api.List(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.lastError = http.UserMessage(err, "Failed to load the video list.")
		s.mainOrder = nil
		if !s.viewingRelated {
			s.currentIndex = -1
		}
		s.gcLocked()
		return err
	}

	s.mainOrder = s.ingestLocked(videos)
	if !s.viewingRelated && s.currentPK != "" {
		s.currentIndex = s.indexOfLocked(s.currentPK)
	}
	s.gcLocked()
	return nil
}

// FetchRelated replaces the related list wholesale from a content-type
// scoped query. The active list is not touched here.
func (s *Store) FetchRelated(ctx context.Context, contentTypeName string) error {
	s.beginLoad()
	defer s.endLoad()

	s.mu.Lock()
	s.relatedOrder = nil
	s.mu.Unlock()

	videos, err := s.api.ListRelated(ctx, contentTypeName)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.lastError = http.UserMessage(err, "Failed to load related videos.")
		s.gcLocked()
		return err
	}

	s.relatedOrder = s.ingestLocked(videos)
	s.gcLocked()
	return nil
}

// LoadRelatedAndFocus fetches the related scope and opens the detail view
// on its first record. Failures route to an error display, an empty result
// routes to a no-videos display; in both cases the active list is left
// alone. pageContext is the main-list page to return to when the detail
// view closes.
func (s *Store) LoadRelatedAndFocus(ctx context.Context, contentTypeName, pageContext string) error {
	err := s.FetchRelated(ctx, contentTypeName)

	query := relatedQuery(contentTypeName)

	if err != nil {
		s.pushDetail(router.PKError, pageContext, query)
		return err
	}

	s.mu.Lock()
	if len(s.relatedOrder) == 0 {
		s.lastError = fmt.Sprintf("No videos related to %q.", contentTypeName)
		s.mu.Unlock()
		log.Printf("shortform: no related videos for %q", contentTypeName)
		s.pushDetail(router.PKNoVideos, pageContext, query)
		return nil
	}

	s.viewingRelated = true
	first := s.relatedOrder[0]
	s.currentPK = first
	s.currentIndex = 0
	s.mu.Unlock()

	s.pushDetail(first.String(), pageContext, query)
	return nil
}

// SetViewingScope reassigns the active list to the requested scope and
// recomputes the current index for pk against it. Leaving the related
// scope clears the related list.
func (s *Store) SetViewingScope(source, contentTypeName string, pk PK) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.viewingRelated = source == ScopeRelated
	if !s.viewingRelated {
		s.relatedOrder = nil
		s.gcLocked()
	}
	log.Printf("shortform: viewing scope %q (category %q) for pk %s", source, contentTypeName, pk)

	s.currentIndex = s.indexOfLocked(pk)
	if s.currentIndex >= 0 {
		s.currentPK = pk
	}
}

// FetchDetail fetches one authoritative record, makes it current, and
// patches the stored entity so every list holding the pk reflects it.
func (s *Store) FetchDetail(ctx context.Context, pk PK) (*Video, error) {
	s.beginLoad()
	defer s.endLoad()

	video, err := s.api.Get(ctx, pk)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.lastError = http.UserMessage(err, fmt.Sprintf("Failed to load video details (PK: %s).", pk))
		return nil, err
	}

	if video.PK == "" {
		video.PK = pk
	}
	s.entities[video.PK] = video
	s.currentPK = video.PK
	s.currentIndex = s.indexOfLocked(video.PK)

	copied := *video
	return &copied, nil
}

// Next navigates to the record after the current one in the active list,
// preserving the page parameter and query context of the current route.
// At the end of the list it is a no-op.
func (s *Store) Next() {
	s.step(+1, "next")
}

// Previous navigates to the record before the current one in the active
// list. At the start of the list it is a no-op.
func (s *Store) Previous() {
	s.step(-1, "previous")
}

func (s *Store) step(delta int, direction string) {
	s.mu.Lock()
	order := s.activeOrderLocked()
	idx := s.currentIndex
	target := idx + delta
	if idx < 0 || target < 0 || target >= len(order) {
		s.mu.Unlock()
		log.Printf("shortform: no %s video from index %d", direction, idx)
		return
	}
	pk := order[target]
	s.mu.Unlock()

	current := s.nav.Current()
	route := router.Route{
		Name:   router.NameShortformDetail,
		Params: map[string]string{"pk": pk.String(), "page": current.Params["page"]},
	}.WithQuery(current.Query)

	if err := s.nav.Push(route); err != nil {
		s.mu.Lock()
		s.lastError = http.UserMessage(err, fmt.Sprintf("Failed to move to the %s video.", direction))
		s.mu.Unlock()
	}
}

// IncrementView bumps the view count for pk once per store lifetime. The
// local count is incremented optimistically and rolled back when the
// remote call fails; the pk is only remembered as viewed after the call
// succeeds.
func (s *Store) IncrementView(ctx context.Context, pk PK) error {
	s.mu.Lock()
	if _, seen := s.viewed[pk]; seen {
		s.mu.Unlock()
		log.Printf("shortform: view already counted for pk %s this session", pk)
		return nil
	}
	video, ok := s.entities[pk]
	if !ok {
		s.lastError = fmt.Sprintf("Video not found (PK: %s).", pk)
		s.mu.Unlock()
		return ErrNotFound
	}
	previous := video.Views
	video.Views = previous + 1
	s.mu.Unlock()

	err := s.api.IncrementView(ctx, pk)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		if video, ok := s.entities[pk]; ok {
			video.Views = previous
		}
		s.lastError = http.UserMessage(err, fmt.Sprintf("Failed to update the view count (PK: %s).", pk))
		return err
	}

	s.viewed[pk] = struct{}{}
	return nil
}

// ToggleFavorite flips the favorite state for pk. Requires a session. The
// local record changes optimistically, then is overwritten with the
// server-confirmed values on success or rolled back on failure.
// favoriteCount never goes below zero.
func (s *Store) ToggleFavorite(ctx context.Context, pk PK) error {
	if !s.session.Authenticated() {
		s.mu.Lock()
		s.lastError = http.UserMessage(http.ErrAuthRequired, "")
		s.mu.Unlock()
		return http.ErrAuthRequired
	}

	s.mu.Lock()
	video, ok := s.entities[pk]
	if !ok {
		s.lastError = fmt.Sprintf("Video not found (PK: %s).", pk)
		s.mu.Unlock()
		return ErrNotFound
	}
	prevFavorited := video.FavoritedByCurrentUser
	prevCount := video.FavoriteCount

	video.FavoritedByCurrentUser = !prevFavorited
	video.FavoriteCount = clampCount(prevCount, video.FavoritedByCurrentUser)
	s.mu.Unlock()

	status, err := s.api.ToggleFavorite(ctx, pk)

	s.mu.Lock()
	defer s.mu.Unlock()

	video, ok = s.entities[pk]
	if err != nil {
		if ok {
			video.FavoritedByCurrentUser = prevFavorited
			video.FavoriteCount = prevCount
		}
		s.lastError = http.UserMessage(err, fmt.Sprintf("Failed to process the favorite (PK: %s).", pk))
		return err
	}

	if ok {
		video.FavoritedByCurrentUser = status.FavoritedByCurrentUser
		count := status.FavoriteCount
		if count < 0 {
			count = 0
		}
		video.FavoriteCount = count
	}
	return nil
}

// clampCount applies a favorite delta without letting the count go
// negative.
func clampCount(count int, favorited bool) int {
	if favorited {
		return count + 1
	}
	if count <= 0 {
		return 0
	}
	return count - 1
}

// Update submits edited fields for pk. Requires a session. On success the
// stored entity is replaced with the server's record.
func (s *Store) Update(ctx context.Context, pk PK, in UpdateInput) (*Video, error) {
	if !s.session.Authenticated() {
		s.mu.Lock()
		s.lastError = http.UserMessage(http.ErrAuthRequired, "")
		s.mu.Unlock()
		return nil, http.ErrAuthRequired
	}

	s.beginLoad()
	defer s.endLoad()

	updated, err := s.api.Update(ctx, pk, in)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.lastError = http.UserMessage(err, fmt.Sprintf("Failed to update the video (PK: %s).", pk))
		return nil, err
	}

	if updated.PK == "" {
		updated.PK = pk
	}
	s.entities[updated.PK] = updated

	copied := *updated
	return &copied, nil
}

// Delete removes pk everywhere. Requires a session. If the deleted record
// was current, the selection is cleared.
func (s *Store) Delete(ctx context.Context, pk PK) error {
	if !s.session.Authenticated() {
		s.mu.Lock()
		s.lastError = http.UserMessage(http.ErrAuthRequired, "")
		s.mu.Unlock()
		return http.ErrAuthRequired
	}

	s.beginLoad()
	defer s.endLoad()

	err := s.api.Delete(ctx, pk)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.lastError = http.UserMessage(err, fmt.Sprintf("Failed to delete the video (PK: %s).", pk))
		return err
	}

	s.mainOrder = removePK(s.mainOrder, pk)
	s.relatedOrder = removePK(s.relatedOrder, pk)
	delete(s.entities, pk)

	if s.currentPK == pk {
		s.currentPK = ""
		s.currentIndex = -1
	} else if s.currentPK != "" {
		s.currentIndex = s.indexOfLocked(s.currentPK)
	}
	return nil
}

// ClearRelatedView leaves the related scope: the related list empties, the
// active list follows the main catalog again, and the current index is
// recomputed there.
func (s *Store) ClearRelatedView() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.relatedOrder = nil
	s.viewingRelated = false
	if s.currentPK != "" {
		s.currentIndex = s.indexOfLocked(s.currentPK)
	} else {
		s.currentIndex = -1
	}
	s.gcLocked()
}

// ClearCurrent drops the current selection.
func (s *Store) ClearCurrent() {
	s.mu.Lock()
	s.currentPK = ""
	s.currentIndex = -1
	s.gcLocked()
	s.mu.Unlock()
}

// ClearError resets the shared error field.
func (s *Store) ClearError() {
	s.mu.Lock()
	s.lastError = ""
	s.mu.Unlock()
}

// Videos returns a snapshot of the main catalog.
func (s *Store) Videos() []Video {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolveLocked(s.mainOrder)
}

// Related returns a snapshot of the related list.
func (s *Store) Related() []Video {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolveLocked(s.relatedOrder)
}

// ActiveList returns a snapshot of the list currently driving detail
// navigation: the related list when the related scope is active, the main
// catalog otherwise.
func (s *Store) ActiveList() []Video {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolveLocked(s.activeOrderLocked())
}

// Current returns a snapshot of the selected record, nil when none.
func (s *Store) Current() *Video {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.currentPK == "" {
		return nil
	}
	video, ok := s.entities[s.currentPK]
	if !ok {
		return nil
	}
	copied := *video
	return &copied
}

// CurrentIndex returns the position of the current record within the
// active list, -1 when absent.
func (s *Store) CurrentIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentIndex
}

// ViewingRelated reports whether the related scope drives the active list.
func (s *Store) ViewingRelated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewingRelated
}

// Loading reports whether a fetch or mutation is in flight.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Err returns the last user-facing error message, empty when none.
func (s *Store) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}

// HasNext reports whether a record follows the current one in the active
// list.
func (s *Store) HasNext() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	order := s.activeOrderLocked()
	return s.currentIndex >= 0 && s.currentIndex < len(order)-1
}

// HasPrevious reports whether a record precedes the current one in the
// active list.
func (s *Store) HasPrevious() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentIndex > 0 && len(s.activeOrderLocked()) > 0
}

// VideosForPage returns one page of the main catalog (1-based page
// numbers).
func (s *Store) VideosForPage(page int) []Video {
	s.mu.Lock()
	defer s.mu.Unlock()

	if page < 1 || len(s.mainOrder) == 0 {
		return nil
	}
	start := (page - 1) * s.itemsPerPage
	if start >= len(s.mainOrder) {
		return nil
	}
	end := start + s.itemsPerPage
	if end > len(s.mainOrder) {
		end = len(s.mainOrder)
	}
	return s.resolveLocked(s.mainOrder[start:end])
}

// TotalPages returns the page count of the main catalog.
func (s *Store) TotalPages() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (len(s.mainOrder) + s.itemsPerPage - 1) / s.itemsPerPage
}

// beginLoad flips the loading flag on and clears the shared error field.
func (s *Store) beginLoad() {
	s.mu.Lock()
	s.loading = true
	s.lastError = ""
	s.mu.Unlock()
}

func (s *Store) endLoad() {
	s.mu.Lock()
	s.loading = false
	s.mu.Unlock()
}

// ingestLocked folds fetched records into the entity map and returns their
// pk order. Later fetches win: the shared entity for a pk is replaced, so
// every list referencing it sees the fresh record.
func (s *Store) ingestLocked(videos []*Video) []PK {
	order := make([]PK, 0, len(videos))
	for _, v := range videos {
		if v == nil || v.PK == "" {
			continue
		}
		s.entities[v.PK] = v
		order = append(order, v.PK)
	}
	return order
}

// gcLocked drops entities no list references and that are not current.
func (s *Store) gcLocked() {
	referenced := make(map[PK]struct{}, len(s.mainOrder)+len(s.relatedOrder)+1)
	for _, pk := range s.mainOrder {
		referenced[pk] = struct{}{}
	}
	for _, pk := range s.relatedOrder {
		referenced[pk] = struct{}{}
	}
	if s.currentPK != "" {
		referenced[s.currentPK] = struct{}{}
	}
	for pk := range s.entities {
		if _, ok := referenced[pk]; !ok {
			delete(s.entities, pk)
		}
	}
}

func (s *Store) activeOrderLocked() []PK {
	if s.viewingRelated {
		return s.relatedOrder
	}
	return s.mainOrder
}

func (s *Store) indexOfLocked(pk PK) int {
	for i, candidate := range s.activeOrderLocked() {
		if candidate == pk {
			return i
		}
	}
	return -1
}

func (s *Store) resolveLocked(order []PK) []Video {
	videos := make([]Video, 0, len(order))
	for _, pk := range order {
		if v, ok := s.entities[pk]; ok {
			videos = append(videos, *v)
		}
	}
	return videos
}

func (s *Store) pushDetail(pk, page string, query map[string][]string) {
	route := router.Route{
		Name:   router.NameShortformDetail,
		Params: map[string]string{"pk": pk, "page": page},
		Query:  query,
	}
	if err := s.nav.Push(route); err != nil {
		s.mu.Lock()
		s.lastError = http.UserMessage(err, "Failed to open the video detail view.")
		s.mu.Unlock()
	}
}

func relatedQuery(contentTypeName string) map[string][]string {
	return map[string][]string{
		"source":      {ScopeRelated},
		"mapCategory": {contentTypeName},
	}
}

func removePK(order []PK, pk PK) []PK {
	kept := order[:0]
	for _, candidate := range order {
		if candidate != pk {
			kept = append(kept, candidate)
		}
	}
	return kept
}
