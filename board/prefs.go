// Package board holds the board list browsing state. Page and view state
// persist across restarts the way the browser client kept them in
// localStorage; search category and keyword are session-only.
package board

import (
	"errors"
	"log"
	"sync"

	"yeoladin/storage"
)

// View states of the board list.
const (
	ViewBoard  = "board"
	ViewFilter = "filter"
)

// Search categories of the board list.
const (
	CategoryAuthor = "author"
	CategoryTitle  = "title"
)

// persisted is the subset of preferences written to durable storage.
type persisted struct {
	CurrentPage int    `json:"currentPage"`
	BoardState  string `json:"boardState"`
}

// Prefs is the board list preference store.
type Prefs struct {
	store storage.Store

	mu       sync.Mutex
	page     int
	view     string
	category string
	keyword  string
}

// NewPrefs creates board preferences backed by the given store, restoring
// any persisted page and view state.
func NewPrefs(store storage.Store) *Prefs {
	p := &Prefs{
		store:    store,
		page:     1,
		view:     ViewBoard,
		category: CategoryAuthor,
	}

	var saved persisted
	err := store.Get(storage.KeyBoardPage, &saved)
	switch {
	case err == nil:
		if saved.CurrentPage >= 1 {
			p.page = saved.CurrentPage
		}
		if saved.BoardState == ViewBoard || saved.BoardState == ViewFilter {
			p.view = saved.BoardState
		}
	case !errors.Is(err, storage.ErrNotFound):
		log.Printf("board: discarding stored preferences: %v", err)
	}
	return p
}

// SetPage records the current board list page.
func (p *Prefs) SetPage(page int) {
	if page < 1 {
		page = 1
	}
	p.mu.Lock()
	p.page = page
	p.persistLocked()
	p.mu.Unlock()
}

// SetView records the board/filter view state.
func (p *Prefs) SetView(view string) {
	if view != ViewBoard && view != ViewFilter {
		return
	}
	p.mu.Lock()
	p.view = view
	p.persistLocked()
	p.mu.Unlock()
}

// SetCategory records the search category.
func (p *Prefs) SetCategory(category string) {
	if category != CategoryAuthor && category != CategoryTitle {
		return
	}
	p.mu.Lock()
	p.category = category
	p.mu.Unlock()
}

// SetKeyword records the search keyword.
func (p *Prefs) SetKeyword(keyword string) {
	p.mu.Lock()
	p.keyword = keyword
	p.mu.Unlock()
}

// Page returns the current board list page.
func (p *Prefs) Page() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.page
}

// View returns the board/filter view state.
func (p *Prefs) View() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.view
}

// Category returns the search category.
func (p *Prefs) Category() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.category
}

// Keyword returns the search keyword.
func (p *Prefs) Keyword() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.keyword
}

// persistLocked writes the durable subset. Callers hold p.mu.
func (p *Prefs) persistLocked() {
	err := p.store.Set(storage.KeyBoardPage, persisted{
		CurrentPage: p.page,
		BoardState:  p.view,
	})
	if err != nil {
		log.Printf("board: persist preferences: %v", err)
	}
}
