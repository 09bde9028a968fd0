package immich

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/hashicorp/go-version"
	log "github.com/sirupsen/logrus"

	"folder-albums/internal/model"
)

const (
	// DefaultChunkSize is the number of assets added to an album per call.
	DefaultChunkSize = 2000
	// DefaultFetchChunkSize is the number of assets requested per search page.
	DefaultFetchChunkSize = 1000
	// MaxFetchChunkSize is the largest page the search endpoint returns.
	MaxFetchChunkSize = 1000
)

// Client talks to the Immich REST API.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	chunkSize      int
	fetchChunkSize int
	maxRetries     uint64
	version        *version.Version
}

// NewClient returns a client for the API rooted at baseURL, e.g.
// https://photos.example.com/api/.
func NewClient(httpClient *http.Client, baseURL string, opts ...Option) *Client {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	c := &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		chunkSize:      DefaultChunkSize,
		fetchChunkSize: DefaultFetchChunkSize,
		maxRetries:     DefaultMaxRetries,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Option configures a Client.
type Option func(*Client)

// WithChunkSize sets how many assets are added to an album per call.
func WithChunkSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.chunkSize = n
		}
	}
}

// WithFetchChunkSize sets the search page size, capped at MaxFetchChunkSize.
func WithFetchChunkSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.fetchChunkSize = min(n, MaxFetchChunkSize)
		}
	}
}

// WithMaxRetries sets how often retryable calls are repeated.
func WithMaxRetries(n uint64) Option {
	return func(c *Client) {
		c.maxRetries = n
	}
}

func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	return c.withRetry(ctx, op, func(ctx context.Context) error {
		return c.once(ctx, op, method, path, in, out)
	})
}

func (c *Client) once(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: failed to encode request: %w", op, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: failed to create request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return &RetryableError{Op: op, Err: err}
		}
		return &RetryableError{Op: op, Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return statusError(op, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: failed to decode response: %w", op, err)
	}
	return nil
}

// ListAlbums returns every album the user can see
func (c *Client) ListAlbums(ctx context.Context) ([]model.RemoteAlbum, error) {
	var albums []model.RemoteAlbum
	if err := c.do(ctx, "list albums", http.MethodGet, "albums", nil, &albums); err != nil {
		return nil, err
	}
	return albums, nil
}

// GetAlbum returns an album including its assets and shares
func (c *Client) GetAlbum(ctx context.Context, albumID string) (model.RemoteAlbum, error) {
	var album model.RemoteAlbum
	err := c.do(ctx, "get album", http.MethodGet, "albums/"+albumID, nil, &album)
	return album, err
}

// CreateAlbum creates a new album and returns its ID
func (c *Client) CreateAlbum(ctx context.Context, name string) (string, error) {
	var result struct {
		ID string `json:"id"`
	}
	in := map[string]string{"albumName": name}
	if err := c.do(ctx, "create album", http.MethodPost, "albums", in, &result); err != nil {
		return "", err
	}
	if _, err := uuid.Parse(result.ID); err != nil {
		return "", fmt.Errorf("create album: server returned invalid album id %q: %w", result.ID, err)
	}
	return result.ID, nil
}

// DeleteAlbum deletes an album. Its assets stay on the server.
func (c *Client) DeleteAlbum(ctx context.Context, albumID string) error {
	return c.do(ctx, "delete album", http.MethodDelete, "albums/"+albumID, nil, nil)
}

type bulkResult struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// AddAssetsToAlbum adds assets to an album in chunks and returns the IDs that
// were not members before. Assets already in the album are skipped silently.
func (c *Client) AddAssetsToAlbum(ctx context.Context, albumID string, assetIDs []string) ([]string, error) {
	var added []string
	for start := 0; start < len(assetIDs); start += c.chunkSize {
		end := min(start+c.chunkSize, len(assetIDs))
		var results []bulkResult
		in := map[string][]string{"ids": assetIDs[start:end]}
		if err := c.do(ctx, "add assets to album", http.MethodPut, "albums/"+albumID+"/assets", in, &results); err != nil {
			return added, err
		}
		for _, r := range results {
			switch {
			case r.Success:
				added = append(added, r.ID)
			case r.Error != "duplicate":
				log.WithField("asset", r.ID).Warnf("Error adding an asset to an album: %s", r.Error)
			}
		}
	}
	return added, nil
}

// ListUsers returns all users of the server
func (c *Client) ListUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := c.do(ctx, "list users", http.MethodGet, "users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// ShareAlbum shares an album with users, all in the same role
func (c *Client) ShareAlbum(ctx context.Context, albumID string, userIDs []string, role model.Role) error {
	type albumUser struct {
		UserID string     `json:"userId"`
		Role   model.Role `json:"role"`
	}
	users := make([]albumUser, len(userIDs))
	for i, id := range userIDs {
		users[i] = albumUser{UserID: id, Role: role}
	}
	in := map[string][]albumUser{"albumUsers": users}
	return c.do(ctx, "share album", http.MethodPut, "albums/"+albumID+"/users", in, nil)
}

// UpdateShareRole changes the role of a user the album is shared with
func (c *Client) UpdateShareRole(ctx context.Context, albumID, userID string, role model.Role) error {
	in := map[string]model.Role{"role": role}
	return c.do(ctx, "update share role", http.MethodPut, "albums/"+albumID+"/user/"+userID, in, nil)
}

// UnshareAlbum removes a user from an album's shares
func (c *Client) UnshareAlbum(ctx context.Context, albumID, userID string) error {
	return c.do(ctx, "unshare album", http.MethodDelete, "albums/"+albumID+"/user/"+userID, nil, nil)
}

// AlbumUpdate holds the album fields to change. Empty fields are left alone.
type AlbumUpdate struct {
	ThumbnailAssetID string          `json:"albumThumbnailAssetId,omitempty"`
	Description      string          `json:"description,omitempty"`
	Order            model.SortOrder `json:"order,omitempty"`
	ActivityEnabled  *bool           `json:"isActivityEnabled,omitempty"`
}

// IsEmpty reports whether the update changes nothing.
func (u AlbumUpdate) IsEmpty() bool {
	return u == AlbumUpdate{}
}

// UpdateAlbum changes album properties. An empty update is not sent.
func (c *Client) UpdateAlbum(ctx context.Context, albumID string, update AlbumUpdate) error {
	if update.IsEmpty() {
		return nil
	}
	if update.ThumbnailAssetID != "" {
		if _, err := uuid.Parse(update.ThumbnailAssetID); err != nil {
			return fmt.Errorf("update album: invalid thumbnail asset id %q: %w", update.ThumbnailAssetID, err)
		}
	}
	return c.do(ctx, "update album", http.MethodPatch, "albums/"+albumID, update, nil)
}

// SetAssetsVisibility changes the visibility of assets. Servers without the
// visibility API only know archived and not archived; other values are
// skipped there.
func (c *Client) SetAssetsVisibility(ctx context.Context, assetIDs []string, visibility model.Visibility) error {
	if len(assetIDs) == 0 {
		return nil
	}
	in := map[string]any{"ids": assetIDs}
	if c.SupportsVisibility() {
		in["visibility"] = visibility
	} else {
		switch visibility {
		case model.VisibilityArchive:
			in["isArchived"] = true
		case model.VisibilityTimeline:
			in["isArchived"] = false
		default:
			log.Debugf("Visibility %s is not supported by server version %s, skipping", visibility, c.version)
			return nil
		}
	}
	return c.do(ctx, "set assets visibility", http.MethodPut, "assets", in, nil)
}

// DeleteAssets deletes assets. With force they skip the trash.
func (c *Client) DeleteAssets(ctx context.Context, assetIDs []string, force bool) error {
	in := map[string]any{"ids": assetIDs, "force": force}
	return c.do(ctx, "delete assets", http.MethodDelete, "assets", in, nil)
}

// Library is an external library on the server.
type Library struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ListLibraries returns all libraries. Requires an admin key.
func (c *Client) ListLibraries(ctx context.Context) ([]Library, error) {
	var libraries []Library
	if err := c.do(ctx, "list libraries", http.MethodGet, "libraries", nil, &libraries); err != nil {
		return nil, err
	}
	return libraries, nil
}

// RemoveOfflineFromLibrary starts the server job removing offline assets of
// a library. Only servers without offline search need this.
func (c *Client) RemoveOfflineFromLibrary(ctx context.Context, libraryID string) error {
	return c.do(ctx, "remove offline assets", http.MethodPost, "libraries/"+libraryID+"/removeOffline", nil, nil)
}
