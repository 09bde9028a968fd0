package album

import (
	"path"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"

	"folder-albums/internal/model"
)

// LogicalAlbum is one album to reconcile against the server.
type LogicalAlbum struct {
	Name        string
	Directories []string
	Assets      []model.Asset
	Properties  Properties
}

// AssetIDs returns the ids of the album's assets.
func (a *LogicalAlbum) AssetIDs() []string {
	return model.AssetIDs(a.Assets)
}

// Builder derives logical albums from asset paths.
type Builder struct {
	Roots     Roots
	Filter    *Filter
	Levels    LevelSpec
	Formatter Formatter
	// Resolver is nil when property files are not read.
	Resolver *Resolver
	// Global holds run-wide properties. They apply below every property
	// file and never take part in conflict detection.
	Global Properties
}

type group struct {
	dirs   map[string]Properties
	assets []model.Asset
}

// Name derives the display name of an asset's album together with the
// directory holding the asset. ok is false for assets that do not get an
// album.
func (b *Builder) Name(asset model.Asset) (name, root, dir string, ok bool) {
	if b.Filter.PathIgnored(b.Roots, asset.OriginalPath) {
		return "", "", "", false
	}
	root, rel, matched := b.Roots.Match(asset.OriginalPath)
	if !matched {
		return "", "", "", false
	}
	chunks := strings.Split(rel, "/")
	// A single chunk is a file directly in the root.
	if len(chunks) == 1 {
		return "", "", "", false
	}
	segments := chunks[:len(chunks)-1]
	selected, enough := b.Levels.Select(segments)
	if !enough {
		log.Debugf("Skipping asset %s, path is too shallow for album levels %s", asset.OriginalPath, b.Levels)
		return "", "", "", false
	}
	name = b.Formatter.Format(selected)
	if name == "" {
		log.Warnf("Got empty album name for asset path %s, check your album_levels settings!", asset.OriginalPath)
		return "", "", "", false
	}
	return name, root, path.Join(append([]string{root}, segments...)...), true
}

// Build groups assets into logical albums sorted by name. Albums whose
// contributing directories disagree on a property are left out and reported
// as errors.
func (b *Builder) Build(assets []model.Asset) ([]*LogicalAlbum, []error) {
	groups := make(map[string]*group)
	for _, asset := range assets {
		name, root, dir, ok := b.Name(asset)
		if !ok {
			continue
		}

		var props Properties
		if b.Resolver != nil {
			props, _ = b.Resolver.Resolve(root, dir)
		}
		if props.OverrideName != nil && *props.OverrideName != "" {
			name = *props.OverrideName
		}

		g, ok := groups[name]
		if !ok {
			g = &group{dirs: make(map[string]Properties)}
			groups[name] = g
		}
		g.dirs[dir] = props
		g.assets = append(g.assets, asset)
	}

	b.addDeclaredOverrides(groups)

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	var albums []*LogicalAlbum
	var errs []error
	for _, name := range names {
		g := groups[name]
		contributions := make([]Contribution, 0, len(g.dirs))
		dirs := make([]string, 0, len(g.dirs))
		for dir, props := range g.dirs {
			contributions = append(contributions, Contribution{Directory: dir, Properties: props})
			dirs = append(dirs, dir)
		}
		sort.Strings(dirs)

		merged, err := Merge(name, contributions)
		if err != nil {
			log.WithError(err).WithField("album", name).Error("Skipping album")
			errs = append(errs, err)
			continue
		}
		if len(g.assets) == 0 {
			continue
		}
		final := b.Global.Overlay(merged)
		log.Debugf("Final album properties for '%s': %s", name, final)
		albums = append(albums, &LogicalAlbum{
			Name:        name,
			Directories: dirs,
			Assets:      g.assets,
			Properties:  final,
		})
	}
	return albums, errs
}

// addDeclaredOverrides adds every declared directory that sets an override
// name to the group of that name, whether or not it holds any of the assets.
// Conflicts and revoked shares of an album thus do not depend on which assets
// a run discovers.
func (b *Builder) addDeclaredOverrides(groups map[string]*group) {
	if b.Resolver == nil {
		return
	}
	for _, dir := range b.Resolver.Directories() {
		root, _, ok := b.Roots.Match(dir + "/")
		if !ok {
			continue
		}
		props, ok := b.Resolver.Resolve(root, dir)
		if !ok || props.OverrideName == nil || *props.OverrideName == "" {
			continue
		}
		name := *props.OverrideName
		g, ok := groups[name]
		if !ok {
			g = &group{dirs: make(map[string]Properties)}
			groups[name] = g
		}
		if _, seen := g.dirs[dir]; !seen {
			g.dirs[dir] = props
		}
	}
}

// DropLivePhotoVideos removes the video components of live photos from
// assets. all must contain every asset that may reference a video component,
// which can be more than assets when discovery was restricted.
func DropLivePhotoVideos(assets, all []model.Asset) []model.Asset {
	videos := make(map[string]bool)
	for _, a := range all {
		if a.LivePhotoVideoID != nil && *a.LivePhotoVideoID != "" {
			videos[*a.LivePhotoVideoID] = true
		}
	}
	if len(videos) == 0 {
		return assets
	}
	kept := make([]model.Asset, 0, len(assets))
	for _, a := range assets {
		if videos[a.ID] && strings.Contains(a.OriginalMimeType, "video") {
			log.Debugf("File %s is a video component of a live photo, removing from list", a.OriginalPath)
			continue
		}
		kept = append(kept, a)
	}
	log.Infof("Removed %d live photo video components from asset list", len(assets)-len(kept))
	return kept
}

// HasVideos reports whether any asset is a video, which is when live photo
// components have to be looked for.
func HasVideos(assets []model.Asset) bool {
	for _, a := range assets {
		if strings.Contains(a.OriginalMimeType, "video") {
			return true
		}
	}
	return false
}
