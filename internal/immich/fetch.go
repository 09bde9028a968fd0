package immich

import (
	"context"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"folder-albums/internal/model"
)

// DefaultFetchWorkers bounds the parallel asset searches.
const DefaultFetchWorkers = 4

// SearchOptions is the body of a metadata search. nil fields are not sent.
type SearchOptions struct {
	IsNotInAlbum *bool            `json:"isNotInAlbum,omitempty"`
	WithArchived *bool            `json:"withArchived,omitempty"`
	Visibility   model.Visibility `json:"visibility,omitempty"`
	IsTrashed    *bool            `json:"isTrashed,omitempty"`
	IsOffline    *bool            `json:"isOffline,omitempty"`
	Page         int              `json:"page"`
	Size         int              `json:"size"`
}

func boolPtr(b bool) *bool {
	return &b
}

// SearchAssets pages through a metadata search until a short page arrives.
func (c *Client) SearchAssets(ctx context.Context, opts SearchOptions) ([]model.Asset, error) {
	opts.Size = min(MaxFetchChunkSize, c.fetchChunkSize)
	var found []model.Asset
	for page := 1; ; page++ {
		opts.Page = page
		var result struct {
			Assets struct {
				Items []model.Asset `json:"items"`
			} `json:"assets"`
		}
		if err := c.do(ctx, "search assets", http.MethodPost, "search/metadata", opts, &result); err != nil {
			return nil, err
		}
		log.Debugf("Received %d assets with chunk %d", len(result.Assets.Items), page)
		found = append(found, result.Assets.Items...)
		if len(result.Assets.Items) < opts.Size {
			return found, nil
		}
	}
}

// AssetQuery selects the assets to discover.
type AssetQuery struct {
	// Roots limits the search to assets below these paths. Empty searches
	// everything.
	Roots []string
	// NotInAlbum skips assets that are already part of an album.
	NotInAlbum bool
	// Visibilities lists the visibilities to search besides the timeline.
	Visibilities []model.Visibility
	// Workers bounds the parallel searches.
	Workers int
}

// searches expands the query into one search per visibility. Roots are
// filtered on the results, the server compares originalPath as a whole path.
func (c *Client) searches(q AssetQuery) []SearchOptions {
	if !c.SupportsVisibility() {
		withArchived := false
		for _, v := range q.Visibilities {
			withArchived = withArchived || v == model.VisibilityArchive
		}
		return []SearchOptions{{IsNotInAlbum: boolPtr(q.NotInAlbum), WithArchived: boolPtr(withArchived)}}
	}
	searches := []SearchOptions{{IsNotInAlbum: boolPtr(q.NotInAlbum)}}
	for _, v := range q.Visibilities {
		// The timeline is what the plain search returns.
		if v == model.VisibilityTimeline {
			continue
		}
		searches = append(searches, SearchOptions{IsNotInAlbum: boolPtr(q.NotInAlbum), Visibility: v})
	}
	return searches
}

// FetchAssets runs the searches of a query on a bounded worker pool and joins
// the results. Assets found by several searches are returned once, in the
// order of the first search that found them.
func (c *Client) FetchAssets(ctx context.Context, q AssetQuery) ([]model.Asset, error) {
	searches := c.searches(q)
	results := make([][]model.Asset, len(searches))

	workers := q.Workers
	if workers <= 0 {
		workers = DefaultFetchWorkers
	}
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, opts := range searches {
		g.Go(func() error {
			assets, err := c.SearchAssets(gCtx, opts)
			if err != nil {
				return err
			}
			results[i] = assets
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var assets []model.Asset
	for _, found := range results {
		for _, a := range found {
			if seen[a.ID] || !underRoot(a.OriginalPath, q.Roots) {
				continue
			}
			seen[a.ID] = true
			assets = append(assets, a)
		}
	}
	return assets, nil
}

func underRoot(p string, roots []string) bool {
	if len(roots) == 0 {
		return true
	}
	for _, root := range roots {
		if strings.HasPrefix(p, root) {
			return true
		}
	}
	return false
}

// ListOfflineAssets returns assets whose files are no longer reachable.
func (c *Client) ListOfflineAssets(ctx context.Context) ([]model.Asset, error) {
	trashed, err := c.SearchAssets(ctx, SearchOptions{
		IsTrashed:    boolPtr(true),
		IsOffline:    boolPtr(true),
		WithArchived: boolPtr(true),
	})
	if err != nil {
		return nil, err
	}
	// Some server versions ignore the offline filter.
	offline := trashed[:0]
	for _, a := range trashed {
		if a.IsOffline {
			offline = append(offline, a)
		}
	}
	return offline, nil
}
