// Package mainpage holds the landing-page state: the popular shortform
// list shown before any login.
package mainpage

import (
	"context"
	"sync"

	"yeoladin/http"
	"yeoladin/shortform"
)

// PopularLister fetches the popular shortform ranking.
type PopularLister interface {
	ListPopular(ctx context.Context) ([]*shortform.Video, error)
}

// Store caches the popular shortforms with their own loading and error
// state, independent of the main video store.
type Store struct {
	api PopularLister

	mu      sync.Mutex
	popular []shortform.Video
	loading bool
	lastErr string
}

// NewStore creates an empty main-page store.
func NewStore(api PopularLister) *Store {
	return &Store{api: api}
}

// FetchPopular loads the popular shortform list. Overlapping calls are
// dropped while one is in flight.
func (s *Store) FetchPopular(ctx context.Context) error {
	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		return nil
	}
	s.loading = true
	s.lastErr = ""
	s.mu.Unlock()

	videos, err := s.api.ListPopular(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false

	if err != nil {
		s.lastErr = http.UserMessage(err, "Failed to load popular shortforms.")
		s.popular = nil
		return err
	}

	s.popular = make([]shortform.Video, 0, len(videos))
	for _, v := range videos {
		if v != nil {
			s.popular = append(s.popular, *v)
		}
	}
	return nil
}

// Popular returns a snapshot of the popular list.
func (s *Store) Popular() []shortform.Video {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]shortform.Video(nil), s.popular...)
}

// Loading reports whether a fetch is in flight.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Err returns the last user-facing error message, empty when none.
func (s *Store) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}
