package reconcile

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"folder-albums/internal/immich"
	"folder-albums/internal/model"
)

// fakeGateway keeps albums in memory and records every call that changes
// something.
type fakeGateway struct {
	albums  map[string]*model.RemoteAlbum
	assets  map[string]model.Asset
	users   []model.User
	offline []model.Asset
	legacy  bool
	libs    []immich.Library

	nextID int
	calls  []string
	// failures maps an operation and album name, like "add:Trip", to the
	// error it returns.
	failures map[string]error
}

func newFakeGateway(assets ...model.Asset) *fakeGateway {
	g := &fakeGateway{
		albums:   map[string]*model.RemoteAlbum{},
		assets:   map[string]model.Asset{},
		failures: map[string]error{},
	}
	for _, a := range assets {
		g.assets[a.ID] = a
	}
	return g
}

func (g *fakeGateway) addAlbum(name string, users []model.AlbumUser, assetIDs ...string) *model.RemoteAlbum {
	g.nextID++
	a := &model.RemoteAlbum{ID: fmt.Sprintf("album-%d", g.nextID), Name: name, AlbumUsers: users}
	for _, id := range assetIDs {
		a.Assets = append(a.Assets, g.assets[id])
	}
	a.AssetCount = len(a.Assets)
	g.albums[a.ID] = a
	return a
}

func (g *fakeGateway) byName(name string) *model.RemoteAlbum {
	for _, a := range g.albums {
		if a.Name == name {
			return a
		}
	}
	return nil
}

func (g *fakeGateway) record(format string, args ...any) {
	g.calls = append(g.calls, fmt.Sprintf(format, args...))
}

func (g *fakeGateway) fail(op, albumID string) error {
	if a, ok := g.albums[albumID]; ok {
		return g.failures[op+":"+a.Name]
	}
	return g.failures[op+":"+albumID]
}

func (g *fakeGateway) ListAlbums(ctx context.Context) ([]model.RemoteAlbum, error) {
	if err := g.failures["list"]; err != nil {
		return nil, err
	}
	var albums []model.RemoteAlbum
	for _, a := range g.albums {
		summary := *a
		summary.Assets = nil
		albums = append(albums, summary)
	}
	sort.Slice(albums, func(i, j int) bool { return albums[i].Name < albums[j].Name })
	return albums, nil
}

func (g *fakeGateway) GetAlbum(ctx context.Context, albumID string) (model.RemoteAlbum, error) {
	a, ok := g.albums[albumID]
	if !ok {
		return model.RemoteAlbum{}, &immich.FatalError{Op: "get album", StatusCode: 404}
	}
	return *a, nil
}

func (g *fakeGateway) CreateAlbum(ctx context.Context, name string) (string, error) {
	if err := g.failures["create:"+name]; err != nil {
		return "", err
	}
	g.record("create %s", name)
	return g.addAlbum(name, nil).ID, nil
}

func (g *fakeGateway) DeleteAlbum(ctx context.Context, albumID string) error {
	if err := g.fail("delete", albumID); err != nil {
		return err
	}
	g.record("delete %s", g.albums[albumID].Name)
	delete(g.albums, albumID)
	return nil
}

func (g *fakeGateway) AddAssetsToAlbum(ctx context.Context, albumID string, assetIDs []string) ([]string, error) {
	if err := g.fail("add", albumID); err != nil {
		return nil, err
	}
	a := g.albums[albumID]
	have := map[string]bool{}
	for _, asset := range a.Assets {
		have[asset.ID] = true
	}
	var added []string
	for _, id := range assetIDs {
		if have[id] {
			continue
		}
		have[id] = true
		a.Assets = append(a.Assets, g.assets[id])
		added = append(added, id)
	}
	a.AssetCount = len(a.Assets)
	if len(added) > 0 {
		g.record("add %s %s", a.Name, strings.Join(added, ","))
	}
	return added, nil
}

func (g *fakeGateway) UpdateAlbum(ctx context.Context, albumID string, update immich.AlbumUpdate) error {
	if update.IsEmpty() {
		return nil
	}
	if err := g.fail("update", albumID); err != nil {
		return err
	}
	var parts []string
	if update.Description != "" {
		parts = append(parts, "description="+update.Description)
	}
	if update.Order != "" {
		parts = append(parts, "order="+string(update.Order))
	}
	if update.ActivityEnabled != nil {
		parts = append(parts, fmt.Sprintf("activity=%t", *update.ActivityEnabled))
	}
	if update.ThumbnailAssetID != "" {
		parts = append(parts, "thumbnail="+update.ThumbnailAssetID)
	}
	g.record("update %s %s", g.albums[albumID].Name, strings.Join(parts, " "))
	return nil
}

func (g *fakeGateway) ListUsers(ctx context.Context) ([]model.User, error) {
	g.record("list users")
	return g.users, nil
}

func (g *fakeGateway) ShareAlbum(ctx context.Context, albumID string, userIDs []string, role model.Role) error {
	a := g.albums[albumID]
	for _, id := range userIDs {
		a.AlbumUsers = append(a.AlbumUsers, model.AlbumUser{User: model.User{ID: id}, Role: role})
	}
	g.record("share %s %s %s", a.Name, strings.Join(userIDs, ","), role)
	return nil
}

func (g *fakeGateway) UpdateShareRole(ctx context.Context, albumID, userID string, role model.Role) error {
	g.record("role %s %s %s", g.albums[albumID].Name, userID, role)
	return nil
}

func (g *fakeGateway) UnshareAlbum(ctx context.Context, albumID, userID string) error {
	g.record("unshare %s %s", g.albums[albumID].Name, userID)
	return nil
}

func (g *fakeGateway) SetAssetsVisibility(ctx context.Context, assetIDs []string, visibility model.Visibility) error {
	if len(assetIDs) == 0 {
		return nil
	}
	sorted := append([]string(nil), assetIDs...)
	sort.Strings(sorted)
	g.record("visibility %s %s", strings.Join(sorted, ","), visibility)
	return nil
}

func (g *fakeGateway) DeleteAssets(ctx context.Context, assetIDs []string, force bool) error {
	g.record("delete assets %s force=%t", strings.Join(assetIDs, ","), force)
	return nil
}

func (g *fakeGateway) ListOfflineAssets(ctx context.Context) ([]model.Asset, error) {
	return g.offline, nil
}

func (g *fakeGateway) SupportsOfflineSearch() bool {
	return !g.legacy
}

func (g *fakeGateway) ListLibraries(ctx context.Context) ([]immich.Library, error) {
	return g.libs, nil
}

func (g *fakeGateway) RemoveOfflineFromLibrary(ctx context.Context, libraryID string) error {
	g.record("remove offline %s", libraryID)
	return nil
}
