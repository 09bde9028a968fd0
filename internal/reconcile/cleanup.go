package reconcile

import (
	"context"
	"fmt"
	"sort"

	log "github.com/sirupsen/logrus"

	"folder-albums/internal/album"
	"folder-albums/internal/immich"
	"folder-albums/internal/model"
)

// cleanup deletes the albums the tool would create, or every album in
// DELETE_ALL mode. Without DeleteConfirm it only prints what would go.
func (r *Reconciler) cleanup(ctx context.Context, albums []*album.LogicalAlbum, report *Report) error {
	remote, err := r.gw.ListAlbums(ctx)
	if err != nil {
		return fmt.Errorf("list albums: %w", err)
	}

	wanted := make(map[string]bool, len(albums))
	for _, la := range albums {
		wanted[la.Name] = true
	}
	var doomed []model.RemoteAlbum
	for _, a := range remote {
		if r.opts.Mode == ModeDeleteAll || wanted[a.Name] {
			doomed = append(doomed, a)
		}
	}
	sort.Slice(doomed, func(i, j int) bool { return doomed[i].Name < doomed[j].Name })

	if !r.opts.DeleteConfirm {
		r.preview("Would delete album", doomed)
		return nil
	}
	for _, a := range doomed {
		err := r.deleteAlbum(ctx, a)
		if err == nil {
			report.Deleted = append(report.Deleted, a.Name)
			continue
		}
		if immich.IsAuthError(err) {
			return err
		}
		log.WithError(err).WithField("album", a.Name).Error("Failed to delete album")
		report.Fail(a.Name, err)
	}
	log.Infof("Deleted %d/%d albums", len(report.Deleted), len(doomed))
	return nil
}

// deleteAlbum removes an album. With a run-wide visibility its assets get
// that visibility first.
func (r *Reconciler) deleteAlbum(ctx context.Context, a model.RemoteAlbum) error {
	if r.opts.Visibility != "" {
		full, err := r.gw.GetAlbum(ctx, a.ID)
		if err != nil {
			return err
		}
		if err := r.gw.SetAssetsVisibility(ctx, model.AssetIDs(full.Assets), r.opts.Visibility); err != nil {
			return err
		}
	}
	log.WithField("album", a.Name).Info("Deleting album")
	return r.gw.DeleteAlbum(ctx, a.ID)
}

func (r *Reconciler) preview(action string, albums []model.RemoteAlbum) {
	if len(albums) == 0 {
		return
	}
	for _, a := range albums {
		fmt.Fprintf(r.opts.Out, "%s %s (%d assets)\n", action, a.Name, a.AssetCount)
	}
	fmt.Fprintln(r.opts.Out, "Run with delete_confirm to actually delete.")
}

// sync removes what no longer exists locally: offline assets first in sync
// mode 2, then albums left empty.
func (r *Reconciler) sync(ctx context.Context, report *Report) error {
	if r.opts.SyncMode >= SyncOfflineFirst {
		if err := r.removeOffline(ctx); err != nil {
			return err
		}
	}
	if r.opts.SyncMode < SyncEmptyAlbums {
		return nil
	}

	remote, err := r.gw.ListAlbums(ctx)
	if err != nil {
		return fmt.Errorf("list albums: %w", err)
	}
	var empty []model.RemoteAlbum
	for _, a := range remote {
		if a.AssetCount == 0 {
			empty = append(empty, a)
		}
	}
	sort.Slice(empty, func(i, j int) bool { return empty[i].Name < empty[j].Name })

	if !r.opts.DeleteConfirm {
		r.preview("Would delete empty album", empty)
		return nil
	}
	for _, a := range empty {
		err := r.gw.DeleteAlbum(ctx, a.ID)
		if err == nil {
			log.WithField("album", a.Name).Info("Deleted empty album")
			report.Deleted = append(report.Deleted, a.Name)
			continue
		}
		if immich.IsAuthError(err) {
			return err
		}
		report.Fail(a.Name, err)
	}
	return nil
}

// removeOffline forgets assets whose files are gone. Older servers only
// offer a per library job for this.
func (r *Reconciler) removeOffline(ctx context.Context) error {
	if !r.gw.SupportsOfflineSearch() {
		libraries, err := r.gw.ListLibraries(ctx)
		if err != nil {
			return fmt.Errorf("list libraries: %w", err)
		}
		for _, lib := range libraries {
			if !r.opts.DeleteConfirm {
				fmt.Fprintf(r.opts.Out, "Would remove offline assets of library %s\n", lib.Name)
				continue
			}
			log.Infof("Removing offline assets of library %s", lib.Name)
			if err := r.gw.RemoveOfflineFromLibrary(ctx, lib.ID); err != nil {
				return err
			}
		}
		return nil
	}

	offline, err := r.gw.ListOfflineAssets(ctx)
	if err != nil {
		return fmt.Errorf("list offline assets: %w", err)
	}
	if len(offline) == 0 {
		return nil
	}
	if !r.opts.DeleteConfirm {
		fmt.Fprintf(r.opts.Out, "Would delete %d offline assets\n", len(offline))
		return nil
	}
	log.Infof("Deleting %d offline assets", len(offline))
	return r.gw.DeleteAssets(ctx, model.AssetIDs(offline), true)
}
