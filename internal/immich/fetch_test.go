package immich

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/hashicorp/go-version"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"folder-albums/internal/model"
)

type searchBody struct {
	IsNotInAlbum *bool  `json:"isNotInAlbum"`
	WithArchived *bool  `json:"withArchived"`
	Visibility   string `json:"visibility"`
	IsTrashed    *bool  `json:"isTrashed"`
	IsOffline    *bool  `json:"isOffline"`
	OriginalPath string `json:"originalPath"`
	Page         int    `json:"page"`
	Size         int    `json:"size"`
}

func searchPage(items []map[string]any) map[string]any {
	return map[string]any{"assets": map[string]any{"items": items}}
}

func TestSearchAssetsPaginates(t *testing.T) {
	var pages []int
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/search/metadata", func(w http.ResponseWriter, r *http.Request) {
		var body searchBody
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, 2, body.Size)
		pages = append(pages, body.Page)
		var items []map[string]any
		n := 2
		if body.Page == 3 {
			n = 1
		}
		for i := 0; i < n; i++ {
			items = append(items, map[string]any{"id": fmt.Sprintf("p%d-%d", body.Page, i)})
		}
		writeJSON(w, searchPage(items))
	})
	client := newTestClient(t, mux, WithFetchChunkSize(2))

	assets, err := client.SearchAssets(context.Background(), SearchOptions{})
	require.NoError(t, err)
	assert.Len(t, assets, 5)
	assert.Equal(t, []int{1, 2, 3}, pages)
}

func TestFetchChunkSizeIsCapped(t *testing.T) {
	client := NewClient(http.DefaultClient, "http://unused/api", WithFetchChunkSize(5000))
	assert.Equal(t, MaxFetchChunkSize, client.fetchChunkSize)
}

func TestFetchAssetsFansOutAndDeduplicates(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/search/metadata", func(w http.ResponseWriter, r *http.Request) {
		var body searchBody
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if assert.NotNil(t, body.IsNotInAlbum) {
			assert.True(t, *body.IsNotInAlbum)
		}
		assert.Empty(t, body.OriginalPath, "roots are filtered on the results")
		mu.Lock()
		seen = append(seen, body.Visibility)
		mu.Unlock()

		items := []map[string]any{
			{"id": "shared", "originalPath": "/lib/a/shared.jpg"},
			{"id": "lib" + body.Visibility, "originalPath": "/lib/x/" + body.Visibility + ".jpg"},
			{"id": "photos" + body.Visibility, "originalPath": "/photos/x/" + body.Visibility + ".jpg"},
			{"id": "outside", "originalPath": "/elsewhere/x.jpg"},
			{"id": "sibling", "originalPath": "/library/x.jpg"},
		}
		writeJSON(w, searchPage(items))
	})
	client := newTestClient(t, mux)

	assets, err := client.FetchAssets(context.Background(), AssetQuery{
		Roots:        []string{"/lib/", "/photos/"},
		NotInAlbum:   true,
		Visibilities: []model.Visibility{model.VisibilityTimeline, model.VisibilityArchive},
		Workers:      2,
	})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"", "archive"}, seen)
	assert.Equal(t, []string{"shared", "lib", "photos", "libarchive", "photosarchive"}, model.AssetIDs(assets))
}

func TestFetchAssetsLegacyServer(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/search/metadata", func(w http.ResponseWriter, r *http.Request) {
		var body searchBody
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Empty(t, body.Visibility)
		if assert.NotNil(t, body.WithArchived) {
			assert.True(t, *body.WithArchived)
		}
		writeJSON(w, searchPage([]map[string]any{{"id": "a1", "originalPath": "/lib/a/1.jpg"}}))
	})
	client := newTestClient(t, mux)
	client.version = version.Must(version.NewVersion("1.120.0"))

	assets, err := client.FetchAssets(context.Background(), AssetQuery{
		Visibilities: []model.Visibility{model.VisibilityArchive},
	})
	require.NoError(t, err)
	assert.Len(t, assets, 1)
}

func TestFetchAssetsFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/search/metadata", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	})
	client := newTestClient(t, mux)

	_, err := client.FetchAssets(context.Background(), AssetQuery{Roots: []string{"/lib/"}})
	assert.True(t, IsAuthError(err))
}

func TestListOfflineAssets(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/search/metadata", func(w http.ResponseWriter, r *http.Request) {
		var body searchBody
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		for _, flag := range []*bool{body.IsTrashed, body.IsOffline, body.WithArchived} {
			if assert.NotNil(t, flag) {
				assert.True(t, *flag)
			}
		}
		writeJSON(w, searchPage([]map[string]any{
			{"id": "gone", "isOffline": true, "isTrashed": true},
			{"id": "trashed", "isOffline": false, "isTrashed": true},
		}))
	})
	client := newTestClient(t, mux)

	assets, err := client.ListOfflineAssets(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"gone"}, model.AssetIDs(assets))
}
