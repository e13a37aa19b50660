// Package shortform holds the client-side state for short-video lists:
// the main catalog, the related-videos scope, the active display list and
// the current selection, with optimistic mutations reconciled against the
// backend.
package shortform

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// PK is a video identifier. The backend serializes it sometimes as a JSON
// number and sometimes as a string; values are normalized to their string
// form so equality works across both representations.
type PK string

// UnmarshalJSON accepts both string and number forms.
func (p *PK) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if string(data) == "null" {
		*p = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("pk: %w", err)
		}
		*p = PK(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("pk: %w", err)
	}
	*p = PK(n.String())
	return nil
}

// String returns the normalized string form.
func (p PK) String() string { return string(p) }

// Video represents one short-video record as served by the backend.
type Video struct {
	// PK is the primary-key identifier.
	PK PK `json:"pk"`
	// Title is the video title.
	Title string `json:"title"`
	// Author is the uploader's display name.
	Author string `json:"author,omitempty"`
	// Content is the description text.
	Content string `json:"content,omitempty"`
	// Views is the play count. Never negative.
	Views int `json:"views"`
	// FavoriteCount is the number of members who favorited this video.
	// Never negative.
	FavoriteCount int `json:"favoriteCount"`
	// FavoritedByCurrentUser reports whether the logged-in member has
	// favorited this video.
	FavoritedByCurrentUser bool `json:"favoritedByCurrentUser"`
	// CreateTime is the formatted upload timestamp.
	CreateTime string `json:"createTime,omitempty"`
	// VideoFile is the stored media file reference.
	VideoFile string `json:"videofile,omitempty"`
	// ContentTypes are the content-type tags attached to the video.
	ContentTypes []string `json:"contentTypes,omitempty"`
	// SelectedContentTypeID is the primary content-type id, if any.
	SelectedContentTypeID *int `json:"selectedContentTypeId,omitempty"`
}

// FavoriteStatus is the authoritative state returned by the favorite
// toggle endpoint.
type FavoriteStatus struct {
	FavoritedByCurrentUser bool `json:"favoritedByCurrentUser"`
	FavoriteCount          int  `json:"favoriteCount"`
}
