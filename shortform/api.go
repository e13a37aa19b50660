package shortform

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	nethttp "net/http"
	"net/url"

	"yeoladin/http"
)

// Service is the remote video API consumed by the Store.
type Service interface {
	// List returns the full video catalog.
	List(ctx context.Context) ([]*Video, error)
	// ListRelated returns videos scoped to a content-type name.
	ListRelated(ctx context.Context, contentTypeName string) ([]*Video, error)
	// Get returns one authoritative video record.
	Get(ctx context.Context, pk PK) (*Video, error)
	// IncrementView bumps the view count server-side. No response payload.
	IncrementView(ctx context.Context, pk PK) error
	// ToggleFavorite flips the favorite state and returns the
	// server-confirmed result.
	ToggleFavorite(ctx context.Context, pk PK) (*FavoriteStatus, error)
	// Update submits changed fields (and optionally replacement media) as
	// multipart form data and returns the updated record.
	Update(ctx context.Context, pk PK, in UpdateInput) (*Video, error)
	// Delete removes the video.
	Delete(ctx context.Context, pk PK) error
	// ListPopular returns the main-page popular shortforms.
	ListPopular(ctx context.Context) ([]*Video, error)
}

// UpdateInput carries the editable video fields. VideoFile is optional;
// when nil only the text fields are submitted.
type UpdateInput struct {
	Title         string
	Content       string
	ContentTypeID *int
	VideoFile     io.Reader
	VideoFilename string
}

// API implements Service against the yeoladin backend.
type API struct {
	client *http.Client
}

// NewAPI creates the remote video API bound to the given client.
func NewAPI(client *http.Client) *API {
	return &API{client: client}
}

// List fetches the full catalog from GET /video.
func (a *API) List(ctx context.Context) ([]*Video, error) {
	var videos []*Video
	if err := a.client.GetJSON(ctx, "/video", &videos); err != nil {
		return nil, err
	}
	return videos, nil
}

// ListRelated fetches GET /video/related scoped by content type.
func (a *API) ListRelated(ctx context.Context, contentTypeName string) ([]*Video, error) {
	var videos []*Video
	path := "/video/related?contentTypeName=" + url.QueryEscape(contentTypeName)
	if err := a.client.GetJSON(ctx, path, &videos); err != nil {
		return nil, err
	}
	return videos, nil
}

// Get fetches one record from GET /video/{pk}.
func (a *API) Get(ctx context.Context, pk PK) (*Video, error) {
	var video Video
	if err := a.client.GetJSON(ctx, videoPath(pk), &video); err != nil {
		return nil, err
	}
	return &video, nil
}

// IncrementView calls PUT /video/{pk}/view.
func (a *API) IncrementView(ctx context.Context, pk PK) error {
	return a.client.PutJSON(ctx, videoPath(pk)+"/view", nil, nil)
}

// ToggleFavorite calls POST /video/{pk}/favorite.
func (a *API) ToggleFavorite(ctx context.Context, pk PK) (*FavoriteStatus, error) {
	var status FavoriteStatus
	if err := a.client.PostJSON(ctx, videoPath(pk)+"/favorite", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Update calls PUT /video/{pk} with multipart form data.
func (a *API) Update(ctx context.Context, pk PK, in UpdateInput) (*Video, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if err := mw.WriteField("title", in.Title); err != nil {
		return nil, fmt.Errorf("build update form: %w", err)
	}
	if err := mw.WriteField("content", in.Content); err != nil {
		return nil, fmt.Errorf("build update form: %w", err)
	}
	if in.ContentTypeID != nil {
		if err := mw.WriteField("contentTypeId", fmt.Sprintf("%d", *in.ContentTypeID)); err != nil {
			return nil, fmt.Errorf("build update form: %w", err)
		}
	}
	if in.VideoFile != nil {
		name := in.VideoFilename
		if name == "" {
			name = "video"
		}
		part, err := mw.CreateFormFile("videofile", name)
		if err != nil {
			return nil, fmt.Errorf("build update form: %w", err)
		}
		if _, err := io.Copy(part, in.VideoFile); err != nil {
			return nil, fmt.Errorf("read replacement media: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("build update form: %w", err)
	}

	resp, err := a.client.Do(ctx, nethttp.MethodPut, videoPath(pk), mw.FormDataContentType(), buf.Bytes())
	if err != nil {
		return nil, err
	}

	var video Video
	if err := resp.Decode(&video); err != nil {
		return nil, err
	}
	return &video, nil
}

// Delete calls DELETE /video/{pk}.
func (a *API) Delete(ctx context.Context, pk PK) error {
	return a.client.Delete(ctx, videoPath(pk))
}

// ListPopular fetches GET /main/popular-shortforms.
func (a *API) ListPopular(ctx context.Context) ([]*Video, error) {
	var videos []*Video
	if err := a.client.GetJSON(ctx, "/main/popular-shortforms", &videos); err != nil {
		return nil, err
	}
	return videos, nil
}

func videoPath(pk PK) string {
	return "/video/" + url.PathEscape(pk.String())
}
