package reconcile

import (
	"context"

	"folder-albums/internal/immich"
	"folder-albums/internal/model"
)

// Gateway is the part of the server API the reconciler changes albums
// through. *immich.Client implements it.
type Gateway interface {
	ListAlbums(ctx context.Context) ([]model.RemoteAlbum, error)
	GetAlbum(ctx context.Context, albumID string) (model.RemoteAlbum, error)
	CreateAlbum(ctx context.Context, name string) (string, error)
	DeleteAlbum(ctx context.Context, albumID string) error
	AddAssetsToAlbum(ctx context.Context, albumID string, assetIDs []string) ([]string, error)
	UpdateAlbum(ctx context.Context, albumID string, update immich.AlbumUpdate) error

	ListUsers(ctx context.Context) ([]model.User, error)
	ShareAlbum(ctx context.Context, albumID string, userIDs []string, role model.Role) error
	UpdateShareRole(ctx context.Context, albumID, userID string, role model.Role) error
	UnshareAlbum(ctx context.Context, albumID, userID string) error

	SetAssetsVisibility(ctx context.Context, assetIDs []string, visibility model.Visibility) error
	DeleteAssets(ctx context.Context, assetIDs []string, force bool) error
	ListOfflineAssets(ctx context.Context) ([]model.Asset, error)
	SupportsOfflineSearch() bool
	ListLibraries(ctx context.Context) ([]immich.Library, error)
	RemoveOfflineFromLibrary(ctx context.Context, libraryID string) error
}

var _ Gateway = (*immich.Client)(nil)
