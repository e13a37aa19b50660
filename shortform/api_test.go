package shortform

import (
	"context"
	"encoding/json"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"yeoladin/http"
)

func newTestAPI(t *testing.T, handler nethttp.Handler) (*API, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := http.New(&http.Config{BaseURL: srv.URL, Timeout: 5 * time.Second}, nil)
	return NewAPI(client), srv
}

func TestAPIList(t *testing.T) {
	api, _ := newTestAPI(t, nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodGet || r.URL.Path != "/video" {
			t.Errorf("request = %s %s, want GET /video", r.Method, r.URL.Path)
		}
		w.Write([]byte(`[
			{"pk": 1, "title": "A", "views": 10},
			{"pk": "2", "title": "B", "favoriteCount": 3}
		]`))
	}))

	videos, err := api.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(videos) != 2 {
		t.Fatalf("List() returned %d videos, want 2", len(videos))
	}
	// pk arrives as a number or a string; both normalize.
	if videos[0].PK != "1" || videos[1].PK != "2" {
		t.Errorf("pks = %s, %s, want 1, 2", videos[0].PK, videos[1].PK)
	}
	if videos[0].Views != 10 || videos[1].FavoriteCount != 3 {
		t.Errorf("videos = %+v", videos)
	}
}

func TestAPIListRelatedEscapesContentType(t *testing.T) {
	api, _ := newTestAPI(t, nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.URL.Path != "/video/related" {
			t.Errorf("path = %q, want /video/related", r.URL.Path)
		}
		if got := r.URL.Query().Get("contentTypeName"); got != "맛집 투어" {
			t.Errorf("contentTypeName = %q, want the decoded original", got)
		}
		w.Write([]byte(`[]`))
	}))

	if _, err := api.ListRelated(context.Background(), "맛집 투어"); err != nil {
		t.Fatalf("ListRelated() error = %v", err)
	}
}

func TestAPIGetEscapesPK(t *testing.T) {
	api, _ := newTestAPI(t, nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.URL.Path != "/video/42" {
			t.Errorf("path = %q, want /video/42", r.URL.Path)
		}
		w.Write([]byte(`{"pk": 42, "title": "Answer"}`))
	}))

	video, err := api.Get(context.Background(), "42")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if video.PK != "42" || video.Title != "Answer" {
		t.Errorf("Get() = %+v", video)
	}
}

func TestAPIIncrementView(t *testing.T) {
	api, _ := newTestAPI(t, nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodPut || r.URL.Path != "/video/7/view" {
			t.Errorf("request = %s %s, want PUT /video/7/view", r.Method, r.URL.Path)
		}
	}))

	if err := api.IncrementView(context.Background(), "7"); err != nil {
		t.Fatalf("IncrementView() error = %v", err)
	}
}

func TestAPIToggleFavorite(t *testing.T) {
	api, _ := newTestAPI(t, nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodPost || r.URL.Path != "/video/7/favorite" {
			t.Errorf("request = %s %s, want POST /video/7/favorite", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"favoritedByCurrentUser": true,
			"favoriteCount":          6,
		})
	}))

	status, err := api.ToggleFavorite(context.Background(), "7")
	if err != nil {
		t.Fatalf("ToggleFavorite() error = %v", err)
	}
	if !status.FavoritedByCurrentUser || status.FavoriteCount != 6 {
		t.Errorf("ToggleFavorite() = %+v, want (true, 6)", status)
	}
}

func TestAPIUpdateMultipart(t *testing.T) {
	api, _ := newTestAPI(t, nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodPut || r.URL.Path != "/video/7" {
			t.Errorf("request = %s %s, want PUT /video/7", r.Method, r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart form: %v", err)
		}
		if got := r.FormValue("title"); got != "New title" {
			t.Errorf("title = %q", got)
		}
		if got := r.FormValue("content"); got != "New content" {
			t.Errorf("content = %q", got)
		}
		if got := r.FormValue("contentTypeId"); got != "3" {
			t.Errorf("contentTypeId = %q, want 3", got)
		}
		file, header, err := r.FormFile("videofile")
		if err != nil {
			t.Fatalf("videofile part: %v", err)
		}
		defer file.Close()
		if header.Filename != "clip.mp4" {
			t.Errorf("filename = %q, want clip.mp4", header.Filename)
		}
		json.NewEncoder(w).Encode(map[string]any{"pk": 7, "title": "New title"})
	}))

	id := 3
	video, err := api.Update(context.Background(), "7", UpdateInput{
		Title:         "New title",
		Content:       "New content",
		ContentTypeID: &id,
		VideoFile:     strings.NewReader("fake video bytes"),
		VideoFilename: "clip.mp4",
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if video.PK != "7" || video.Title != "New title" {
		t.Errorf("Update() = %+v", video)
	}
}

func TestAPIUpdateWithoutFile(t *testing.T) {
	api, _ := newTestAPI(t, nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart form: %v", err)
		}
		if _, _, err := r.FormFile("videofile"); err == nil {
			t.Error("videofile part present, want none")
		}
		if _, ok := r.MultipartForm.Value["contentTypeId"]; ok {
			t.Error("contentTypeId present, want omitted when nil")
		}
		json.NewEncoder(w).Encode(map[string]any{"pk": 7})
	}))

	if _, err := api.Update(context.Background(), "7", UpdateInput{Title: "t", Content: "c"}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
}

func TestAPIDelete(t *testing.T) {
	api, _ := newTestAPI(t, nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodDelete || r.URL.Path != "/video/7" {
			t.Errorf("request = %s %s, want DELETE /video/7", r.Method, r.URL.Path)
		}
	}))

	if err := api.Delete(context.Background(), "7"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
}

func TestAPIListPopular(t *testing.T) {
	api, _ := newTestAPI(t, nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.URL.Path != "/main/popular-shortforms" {
			t.Errorf("path = %q, want /main/popular-shortforms", r.URL.Path)
		}
		w.Write([]byte(`[{"pk": 1, "title": "Hot", "views": 999}]`))
	}))

	videos, err := api.ListPopular(context.Background())
	if err != nil {
		t.Fatalf("ListPopular() error = %v", err)
	}
	if len(videos) != 1 || videos[0].Views != 999 {
		t.Errorf("ListPopular() = %+v", videos)
	}
}

func TestPKUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want PK
	}{
		{"number", `{"pk": 42}`, "42"},
		{"string", `{"pk": "42"}`, "42"},
		{"null", `{"pk": null}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v Video
			if err := json.Unmarshal([]byte(tt.in), &v); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if v.PK != tt.want {
				t.Errorf("PK = %q, want %q", v.PK, tt.want)
			}
		})
	}
}
