package reconcile

import (
	"context"

	log "github.com/sirupsen/logrus"

	"folder-albums/internal/album"
	"folder-albums/internal/immich"
	"folder-albums/internal/model"
)

// thumbnail picks the asset a thumbnail setting refers to. An absolute path
// selects the album asset with that original path.
func (r *Reconciler) thumbnail(setting string, assets []model.Asset) (model.Asset, bool) {
	switch setting {
	case album.ThumbnailFirst:
		return r.opts.Dater.First(assets)
	case album.ThumbnailLast:
		return r.opts.Dater.Last(assets)
	case album.ThumbnailRandom:
		return r.pick(assets)
	case album.ThumbnailRandomAll, album.ThumbnailRandomFiltered:
		// Applied to all albums after reconciling.
		return model.Asset{}, false
	}
	for _, a := range assets {
		if a.OriginalPath == setting {
			return a, true
		}
	}
	log.Warnf("Thumbnail asset %s is not part of the album, skipping", setting)
	return model.Asset{}, false
}

func (r *Reconciler) pick(assets []model.Asset) (model.Asset, bool) {
	if len(assets) == 0 {
		return model.Asset{}, false
	}
	return assets[r.opts.Rand.IntN(len(assets))], true
}

// shuffleThumbnails gives every album on the server a random thumbnail. With
// random-filtered only assets passing the path filters are candidates, and
// albums without such assets keep their thumbnail.
func (r *Reconciler) shuffleThumbnails(ctx context.Context, report *Report) error {
	remote, err := r.gw.ListAlbums(ctx)
	if err != nil {
		return err
	}
	filtered := r.opts.Thumbnail == album.ThumbnailRandomFiltered
	for _, summary := range remote {
		logger := log.WithField("album", summary.Name)
		full, err := r.gw.GetAlbum(ctx, summary.ID)
		if err != nil {
			if immich.IsAuthError(err) {
				return err
			}
			report.Fail(summary.Name, err)
			continue
		}

		candidates := full.Assets
		if filtered {
			candidates = candidates[:0:0]
			for _, a := range full.Assets {
				if _, _, ok := r.opts.Roots.Match(a.OriginalPath); ok && !r.opts.Filter.PathIgnored(r.opts.Roots, a.OriginalPath) {
					candidates = append(candidates, a)
				}
			}
		}
		asset, ok := r.pick(candidates)
		if !ok {
			logger.Debug("No thumbnail candidates")
			continue
		}
		logger.Debugf("Using %s as thumbnail", asset.OriginalPath)
		if err := r.gw.UpdateAlbum(ctx, summary.ID, immich.AlbumUpdate{ThumbnailAssetID: asset.ID}); err != nil {
			if immich.IsAuthError(err) {
				return err
			}
			report.Fail(summary.Name, err)
		}
	}
	return nil
}
