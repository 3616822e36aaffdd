package testsupport

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// FakeVideo is one catalog entry served by FakeYouTube.
type FakeVideo struct {
	Title     string
	Duration  string
	ViewCount string
}

// FakeYouTube serves the search and videos endpoints of the Data API from
// in-memory maps.
type FakeYouTube struct {
	URL     string
	Results map[string][]string
	Videos  map[string]FakeVideo

	mu       sync.Mutex
	searches []string
}

// NewFakeYouTube starts a fake Data API server closed at test cleanup.
func NewFakeYouTube(t testing.TB, results map[string][]string, videos map[string]FakeVideo) *FakeYouTube {
	t.Helper()
	fake := &FakeYouTube{Results: results, Videos: videos}
	server := httptest.NewServer(http.HandlerFunc(fake.serve))
	t.Cleanup(server.Close)
	fake.URL = server.URL + "/"
	return fake
}

// Searches returns the queries received so far.
func (f *FakeYouTube) Searches() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.searches...)
}

func (f *FakeYouTube) serve(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/youtube/v3/search":
		query := r.URL.Query().Get("q")
		f.mu.Lock()
		f.searches = append(f.searches, query)
		f.mu.Unlock()
		items := make([]map[string]any, 0)
		for _, id := range f.Results[query] {
			items = append(items, map[string]any{"id": map[string]string{"videoId": id}})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"items": items})
	case "/youtube/v3/videos":
		items := make([]map[string]any, 0)
		for _, id := range strings.Split(r.URL.Query().Get("id"), ",") {
			video, ok := f.Videos[id]
			if !ok {
				continue
			}
			items = append(items, map[string]any{
				"id":             id,
				"snippet":        map[string]string{"title": video.Title, "channelTitle": "Test Channel"},
				"contentDetails": map[string]string{"duration": video.Duration},
				"statistics":     map[string]string{"viewCount": video.ViewCount},
			})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"items": items})
	default:
		http.NotFound(w, r)
	}
}
