// Package media reads capture times from the locally mounted originals of
// server assets.
package media

import (
	"sort"
	"time"

	"github.com/rwcarlsen/goexif/exif"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"folder-albums/internal/model"
)

var fs = afero.NewOsFs()

// SetFs replaces the filesystem originals are read from.
func SetFs(f afero.Fs) {
	fs = f
}

// CaptureTime returns the EXIF capture time of the file at path. ok is false
// when the file is missing or carries no usable date.
func CaptureTime(path string) (t time.Time, ok bool) {
	f, err := fs.Open(path)
	if err != nil {
		return time.Time{}, false
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if x == nil {
		log.Debugf("No EXIF data in %s: %v", path, err)
		return time.Time{}, false
	}
	dt, err := x.DateTime()
	if err != nil {
		return time.Time{}, false
	}
	return dt, true
}

// Dater decides when an asset was taken.
type Dater struct {
	// UseExif reads the capture time from the original file when it is
	// reachable. The server's file creation time is used otherwise.
	UseExif bool
}

// TakenAt returns the capture time of an asset.
func (d Dater) TakenAt(a model.Asset) time.Time {
	if d.UseExif && a.OriginalPath != "" {
		if t, ok := CaptureTime(a.OriginalPath); ok {
			return t
		}
	}
	return a.FileCreatedAt
}

// Sorted returns the assets ordered by capture time, oldest first. Assets
// taken at the same time keep their order.
func (d Dater) Sorted(assets []model.Asset) []model.Asset {
	type dated struct {
		asset model.Asset
		at    time.Time
	}
	items := make([]dated, len(assets))
	for i, a := range assets {
		items[i] = dated{asset: a, at: d.TakenAt(a)}
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].at.Before(items[j].at) })

	sorted := make([]model.Asset, len(items))
	for i, item := range items {
		sorted[i] = item.asset
	}
	return sorted
}

// First returns the earliest asset.
func (d Dater) First(assets []model.Asset) (model.Asset, bool) {
	if len(assets) == 0 {
		return model.Asset{}, false
	}
	return d.Sorted(assets)[0], true
}

// Last returns the latest asset.
func (d Dater) Last(assets []model.Asset) (model.Asset, bool) {
	if len(assets) == 0 {
		return model.Asset{}, false
	}
	sorted := d.Sorted(assets)
	return sorted[len(sorted)-1], true
}
