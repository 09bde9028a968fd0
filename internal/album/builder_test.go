package album

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"folder-albums/internal/model"
)

func asset(id, p string) model.Asset {
	return model.Asset{ID: id, OriginalPath: p, OriginalMimeType: "image/jpeg"}
}

func newBuilder(t *testing.T, levels string, store *Store) *Builder {
	t.Helper()
	spec, err := ParseLevelSpec(levels)
	require.NoError(t, err)
	b := &Builder{
		Roots:     NewRoots([]string{"/lib"}),
		Levels:    spec,
		Formatter: Formatter{Separator: " "},
	}
	if store != nil {
		b.Resolver = NewResolver(store)
	}
	return b
}

func albumNames(albums []*LogicalAlbum) []string {
	names := make([]string, len(albums))
	for i, a := range albums {
		names[i] = a.Name
	}
	return names
}

func TestBuildConvergingDerivedNames(t *testing.T) {
	b := newBuilder(t, "-1", nil)
	albums, errs := b.Build([]model.Asset{
		asset("1", "/lib/2020/02 Feb/Vacation/a.jpg"),
		asset("2", "/lib/2020/08 Aug/Vacation/b.jpg"),
	})
	require.Empty(t, errs)
	require.Len(t, albums, 1)
	assert.Equal(t, "Vacation", albums[0].Name)
	assert.Equal(t, []string{"1", "2"}, albums[0].AssetIDs())
	assert.Equal(t, []string{"/lib/2020/02 Feb/Vacation", "/lib/2020/08 Aug/Vacation"}, albums[0].Directories)
}

func TestBuildOverrideNameConflict(t *testing.T) {
	store := NewStore(
		decl("/lib/a", false, Properties{OverrideName: ptr("Family"), Description: ptr("A")}),
		decl("/lib/b", false, Properties{OverrideName: ptr("Family"), Description: ptr("B")}),
		decl("/lib/c", false, Properties{Description: ptr("C")}),
	)
	b := newBuilder(t, "1", store)
	albums, errs := b.Build([]model.Asset{
		asset("1", "/lib/a/x.jpg"),
		asset("2", "/lib/b/y.jpg"),
		asset("3", "/lib/c/z.jpg"),
	})
	require.Len(t, errs, 1)
	var cfgErr *ConfigurationError
	require.True(t, errors.As(errs[0], &cfgErr))
	assert.Equal(t, "Family", cfgErr.Album)
	assert.Equal(t, []string{"/lib/a", "/lib/b"}, cfgErr.Directories)

	assert.Equal(t, []string{"c"}, albumNames(albums))
}

func TestBuildOverrideNameConflictWithoutAssets(t *testing.T) {
	store := NewStore(
		decl("/lib/a", false, Properties{OverrideName: ptr("Family"), Description: ptr("A")}),
		decl("/lib/b", false, Properties{OverrideName: ptr("Family"), Description: ptr("B")}),
	)
	b := newBuilder(t, "1", store)

	// Only one of the converging directories has assets in this run.
	albums, errs := b.Build([]model.Asset{asset("1", "/lib/a/x.jpg")})
	require.Len(t, errs, 1)
	var cfgErr *ConfigurationError
	require.True(t, errors.As(errs[0], &cfgErr))
	assert.Equal(t, []string{"/lib/a", "/lib/b"}, cfgErr.Directories)
	assert.Empty(t, albums)

	// None of them has.
	albums, errs = b.Build(nil)
	assert.Len(t, errs, 1)
	assert.Empty(t, albums)
}

func TestBuildRevokedShareWithoutAssets(t *testing.T) {
	store := NewStore(
		decl("/lib/a", false, Properties{
			OverrideName: ptr("Family"),
			Shares:       NewShareSet(ShareEntry{User: "bob", Role: model.RoleEditor}),
		}),
		decl("/lib/b", false, Properties{
			OverrideName: ptr("Family"),
			Shares:       NewShareSet(ShareEntry{User: "bob", Role: model.RoleNone}),
		}),
	)
	b := newBuilder(t, "1", store)
	albums, errs := b.Build([]model.Asset{asset("1", "/lib/a/x.jpg")})
	require.Empty(t, errs)
	require.Len(t, albums, 1)
	assert.Equal(t, "Family", albums[0].Name)
	assert.Empty(t, albums[0].Properties.Shares.Entries())
	assert.Equal(t, []string{"bob"}, albums[0].Properties.Shares.Revoked())
	assert.Equal(t, []string{"/lib/a", "/lib/b"}, albums[0].Directories)
	assert.Equal(t, []string{"1"}, albums[0].AssetIDs())
}

func TestBuildOverrideNameWithoutAssetsCreatesNoAlbum(t *testing.T) {
	store := NewStore(
		decl("/lib/a", false, Properties{OverrideName: ptr("Family")}),
	)
	b := newBuilder(t, "1", store)
	albums, errs := b.Build([]model.Asset{asset("1", "/lib/c/z.jpg")})
	require.Empty(t, errs)
	assert.Equal(t, []string{"c"}, albumNames(albums))
}

func TestBuildOverrideNameMergesShares(t *testing.T) {
	store := NewStore(
		decl("/lib/a", false, Properties{
			OverrideName: ptr("Family"),
			Shares:       NewShareSet(ShareEntry{User: "alice", Role: model.RoleEditor}),
		}),
		decl("/lib/b", false, Properties{
			OverrideName: ptr("Family"),
			Shares: NewShareSet(
				ShareEntry{User: "alice", Role: model.RoleViewer},
				ShareEntry{User: "bob", Role: model.RoleNone},
			),
		}),
		decl("/lib/c", false, Properties{
			OverrideName: ptr("Family"),
			Shares:       NewShareSet(ShareEntry{User: "bob", Role: model.RoleEditor}),
		}),
	)
	b := newBuilder(t, "1", store)
	albums, errs := b.Build([]model.Asset{
		asset("3", "/lib/c/z.jpg"),
		asset("1", "/lib/a/x.jpg"),
		asset("2", "/lib/b/y.jpg"),
	})
	require.Empty(t, errs)
	require.Len(t, albums, 1)
	assert.Equal(t, "Family", albums[0].Name)
	assert.Equal(t, []ShareEntry{{User: "alice", Role: model.RoleViewer}}, albums[0].Properties.Shares.Entries())
	assert.ElementsMatch(t, []string{"1", "2", "3"}, albums[0].AssetIDs())
}

func TestBuildGlobalPropertiesAreLowestLayer(t *testing.T) {
	store := NewStore(
		decl("/lib/a", false, Properties{Thumbnail: ptr(ThumbnailLast)}),
	)
	b := newBuilder(t, "1", store)
	b.Global = Properties{
		Thumbnail:   ptr(ThumbnailFirst),
		Description: ptr("global"),
		Shares:      NewShareSet(ShareEntry{User: "dave", Role: model.RoleViewer}),
	}
	albums, errs := b.Build([]model.Asset{
		asset("1", "/lib/a/x.jpg"),
		asset("2", "/lib/b/y.jpg"),
	})
	require.Empty(t, errs)
	require.Len(t, albums, 2)

	assert.Equal(t, ThumbnailLast, *albums[0].Properties.Thumbnail)
	assert.Equal(t, "global", *albums[0].Properties.Description)
	assert.Equal(t, ThumbnailFirst, *albums[1].Properties.Thumbnail)
	assert.Equal(t, []ShareEntry{{User: "dave", Role: model.RoleViewer}}, albums[1].Properties.Shares.Entries())
}

func TestBuildGlobalAndDirectoryPropertiesDoNotConflict(t *testing.T) {
	store := NewStore(
		decl("/lib/2020/a", false, Properties{Thumbnail: ptr(ThumbnailLast)}),
	)
	b := newBuilder(t, "1", store)
	b.Global = Properties{Thumbnail: ptr(ThumbnailFirst)}
	albums, errs := b.Build([]model.Asset{
		asset("1", "/lib/2020/a/x.jpg"),
		asset("2", "/lib/2020/b/y.jpg"),
	})
	require.Empty(t, errs)
	require.Len(t, albums, 1)
	assert.Equal(t, ThumbnailLast, *albums[0].Properties.Thumbnail)
}

func TestBuildSkipsUnusableAssets(t *testing.T) {
	b := newBuilder(t, "2,3", nil)
	filter, err := NewFilter(nil, []string{"Private"})
	require.NoError(t, err)
	b.Filter = filter
	b.Formatter.Rules, err = ParseRules([]string{`^Drop$`})
	require.NoError(t, err)

	albums, errs := b.Build([]model.Asset{
		asset("1", "/lib/top.jpg"),
		asset("2", "/lib/shallow/a.jpg"),
		asset("3", "/lib/2020/Private/a.jpg"),
		asset("4", "/elsewhere/2020/x/a.jpg"),
		asset("5", "/lib/2020/Drop/a.jpg"),
		asset("6", "/lib/2020/Trip/a.jpg"),
	})
	require.Empty(t, errs)
	assert.Equal(t, []string{"Trip"}, albumNames(albums))
}

func TestBuildResolvesFullDirectory(t *testing.T) {
	store := NewStore(
		decl("/lib/2020/Trip/Day1", false, Properties{Description: ptr("day one")}),
	)
	b := newBuilder(t, "1", store)
	albums, errs := b.Build([]model.Asset{asset("1", "/lib/2020/Trip/Day1/a.jpg")})
	require.Empty(t, errs)
	require.Len(t, albums, 1)
	assert.Equal(t, "2020", albums[0].Name)
	assert.Equal(t, "day one", *albums[0].Properties.Description)
}

func TestDropLivePhotoVideos(t *testing.T) {
	still := asset("still", "/lib/a/IMG_1.HEIC")
	still.LivePhotoVideoID = ptr("video")
	video := model.Asset{ID: "video", OriginalPath: "/lib/a/IMG_1.MOV", OriginalMimeType: "video/quicktime"}
	clip := model.Asset{ID: "clip", OriginalPath: "/lib/a/clip.mp4", OriginalMimeType: "video/mp4"}

	kept := DropLivePhotoVideos([]model.Asset{video, clip}, []model.Asset{still, video, clip})
	assert.Equal(t, []string{"clip"}, model.AssetIDs(kept))

	assert.True(t, HasVideos([]model.Asset{still, clip}))
	assert.False(t, HasVideos([]model.Asset{still}))
	assert.Len(t, DropLivePhotoVideos([]model.Asset{clip}, []model.Asset{clip}), 1)
}
