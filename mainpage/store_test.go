package mainpage

import (
	"context"
	"errors"
	"testing"

	"yeoladin/shortform"
)

type fakeLister struct {
	videos []*shortform.Video
	err    error
	calls  int
}

func (f *fakeLister) ListPopular(ctx context.Context) ([]*shortform.Video, error) {
	f.calls++
	return f.videos, f.err
}

func TestFetchPopular(t *testing.T) {
	lister := &fakeLister{videos: []*shortform.Video{
		{PK: "1", Title: "Hot", Views: 999},
		nil,
		{PK: "2", Title: "Warm", Views: 500},
	}}
	store := NewStore(lister)

	if err := store.FetchPopular(context.Background()); err != nil {
		t.Fatalf("FetchPopular() error = %v", err)
	}

	popular := store.Popular()
	if len(popular) != 2 {
		t.Fatalf("Popular() returned %d videos, want 2 (nil dropped)", len(popular))
	}
	if popular[0].Title != "Hot" || popular[1].Title != "Warm" {
		t.Errorf("Popular() = %+v", popular)
	}
	if store.Err() != "" {
		t.Errorf("Err() = %q, want empty", store.Err())
	}
}

func TestFetchPopularError(t *testing.T) {
	lister := &fakeLister{videos: []*shortform.Video{{PK: "1"}}}
	store := NewStore(lister)
	if err := store.FetchPopular(context.Background()); err != nil {
		t.Fatal(err)
	}

	lister.err = errors.New("boom")
	if err := store.FetchPopular(context.Background()); err == nil {
		t.Fatal("FetchPopular() expected error, got nil")
	}

	if popular := store.Popular(); len(popular) != 0 {
		t.Errorf("Popular() after failure = %v, want empty", popular)
	}
	if store.Err() == "" {
		t.Error("Err() is empty, want a user-facing message")
	}
}

func TestFetchPopularSnapshotIsolation(t *testing.T) {
	lister := &fakeLister{videos: []*shortform.Video{{PK: "1", Title: "Hot"}}}
	store := NewStore(lister)
	if err := store.FetchPopular(context.Background()); err != nil {
		t.Fatal(err)
	}

	snapshot := store.Popular()
	snapshot[0].Title = "mutated"

	if got := store.Popular()[0].Title; got != "Hot" {
		t.Errorf("stored title = %q, want unaffected by snapshot mutation", got)
	}
}
