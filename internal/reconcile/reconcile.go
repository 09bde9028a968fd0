// Package reconcile applies logical albums to the server: it creates missing
// albums, adds assets, updates properties and shares, sets thumbnails and
// cleans up.
package reconcile

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"folder-albums/internal/album"
	"folder-albums/internal/immich"
	"folder-albums/internal/media"
	"folder-albums/internal/model"
)

// Mode selects what a run does with the logical albums.
type Mode string

const (
	// ModeCreate creates and updates albums.
	ModeCreate Mode = "CREATE"
	// ModeCleanup deletes the albums the tool would create.
	ModeCleanup Mode = "CLEANUP"
	// ModeDeleteAll deletes every album.
	ModeDeleteAll Mode = "DELETE_ALL"
)

// ParseMode validates a run mode, case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToUpper(s)); m {
	case ModeCreate, ModeCleanup, ModeDeleteAll:
		return m, nil
	}
	return "", fmt.Errorf("invalid mode %q, must be one of CREATE, CLEANUP, DELETE_ALL", s)
}

// Update modes for albums that already exist.
const (
	UpdateNone       = 0
	UpdateProperties = 1
	UpdateAll        = 2
)

// Sync modes run after albums were reconciled.
const (
	SyncOff          = 0
	SyncEmptyAlbums  = 1
	SyncOfflineFirst = 2
)

// Options configure a run.
type Options struct {
	Mode Mode
	// DeleteConfirm turns destructive previews into actual deletions.
	DeleteConfirm bool
	// Unattended creates albums without asking.
	Unattended bool
	// InContainer replaces the creation prompt by a message, since there is
	// nobody to answer it.
	InContainer bool
	UpdateMode  int
	SyncMode    int
	// Visibility is the run-wide asset visibility. Deleted albums hand it to
	// their assets.
	Visibility model.Visibility
	// Thumbnail is the run-wide thumbnail setting. random-all and
	// random-filtered are applied here; other settings arrive with the
	// album properties.
	Thumbnail string
	// Roots and Filter pick the assets random-filtered may choose from.
	Roots  album.Roots
	Filter *album.Filter
	Dater  media.Dater

	In   io.Reader
	Out  io.Writer
	Rand *rand.Rand
}

// Reconciler applies logical albums through a Gateway.
type Reconciler struct {
	gw    Gateway
	opts  Options
	in    *bufio.Reader
	users []model.User
	// usersLoaded is set once the user list was fetched, even if it failed.
	usersLoaded bool
}

// New returns a Reconciler. Missing streams default to the process's stdin
// and stdout.
func New(gw Gateway, opts Options) *Reconciler {
	if opts.Mode == "" {
		opts.Mode = ModeCreate
	}
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
	}
	return &Reconciler{gw: gw, opts: opts, in: bufio.NewReader(opts.In)}
}

// Run reconciles the logical albums according to the configured mode. The
// returned error is set only when the run had to stop, e.g. because the
// server rejected the credentials. Failures of single albums are listed in
// the report.
func (r *Reconciler) Run(ctx context.Context, albums []*album.LogicalAlbum) (*Report, error) {
	report := NewReport()
	defer func() { report.Finished = time.Now() }()

	var err error
	switch r.opts.Mode {
	case ModeCleanup, ModeDeleteAll:
		err = r.cleanup(ctx, albums, report)
	default:
		err = r.create(ctx, albums, report)
		if err == nil && !report.Aborted {
			err = r.sync(ctx, report)
		}
	}
	return report, err
}

func (r *Reconciler) create(ctx context.Context, albums []*album.LogicalAlbum, report *Report) error {
	remote, err := r.gw.ListAlbums(ctx)
	if err != nil {
		return fmt.Errorf("list albums: %w", err)
	}
	log.Infof("%d existing albums identified", len(remote))
	existing := make(map[string]model.RemoteAlbum, len(remote))
	for _, a := range remote {
		existing[a.Name] = a
	}

	var missing []string
	for _, la := range albums {
		if _, ok := existing[la.Name]; !ok && !isLocked(la.Properties) {
			missing = append(missing, la.Name)
		}
	}
	if len(missing) > 0 && !r.confirmCreate(missing) {
		report.Aborted = true
		return nil
	}

	for _, la := range albums {
		if err := ctx.Err(); err != nil {
			return err
		}
		current, ok := existing[la.Name]
		err := r.reconcileAlbum(ctx, la, current, ok, report)
		if err == nil {
			continue
		}
		if immich.IsAuthError(err) {
			return err
		}
		log.WithError(err).WithField("album", la.Name).Error("Failed to reconcile album")
		report.Fail(la.Name, err)
	}

	switch r.opts.Thumbnail {
	case album.ThumbnailRandomAll, album.ThumbnailRandomFiltered:
		return r.shuffleThumbnails(ctx, report)
	}
	return nil
}

// confirmCreate asks before albums are created unless the run is
// unattended.
func (r *Reconciler) confirmCreate(names []string) bool {
	if r.opts.Unattended {
		return true
	}
	fmt.Fprintf(r.opts.Out, "Albums to create (%d):\n", len(names))
	for _, name := range names {
		fmt.Fprintf(r.opts.Out, "  %s\n", name)
	}
	if r.opts.InContainer {
		fmt.Fprintln(r.opts.Out, "Check that this is the list of albums you want to create. Run the container with UNATTENDED=1 to actually create them.")
		return false
	}
	if !confirm("Create these albums?", r.in, r.opts.Out) {
		log.Info("Album creation aborted")
		return false
	}
	return true
}

func isLocked(props album.Properties) bool {
	return props.Visibility != nil && *props.Visibility == model.VisibilityLocked
}

// reconcileAlbum brings one album in line with its logical counterpart.
func (r *Reconciler) reconcileAlbum(ctx context.Context, la *album.LogicalAlbum, current model.RemoteAlbum, exists bool, report *Report) error {
	ids := la.AssetIDs()
	logger := log.WithField("album", la.Name)

	// Locked assets leave every album, there is nothing to add them to.
	if isLocked(la.Properties) {
		logger.Infof("Moving %d assets to the locked folder", len(ids))
		return r.gw.SetAssetsVisibility(ctx, ids, model.VisibilityLocked)
	}

	albumID := current.ID
	if !exists {
		id, err := r.gw.CreateAlbum(ctx, la.Name)
		if err != nil {
			return err
		}
		albumID = id
		current = model.RemoteAlbum{ID: id, Name: la.Name}
		report.Created = append(report.Created, la.Name)
		logger.Info("Created album")
	}

	added, err := r.gw.AddAssetsToAlbum(ctx, albumID, ids)
	if err != nil {
		return err
	}
	report.AssetsAdded += len(added)
	if len(added) > 0 {
		logger.Infof("%d new assets added", len(added))
	}

	// Only new members get the visibility, earlier ones may have been
	// changed by hand since.
	if v := la.Properties.Visibility; v != nil {
		if err := r.gw.SetAssetsVisibility(ctx, added, *v); err != nil {
			return err
		}
	}

	if exists && r.opts.UpdateMode == UpdateNone {
		return nil
	}

	update, err := r.albumUpdate(ctx, la, albumID, exists)
	if err != nil {
		return err
	}
	if err := r.gw.UpdateAlbum(ctx, albumID, update); err != nil {
		return err
	}
	changed := !update.IsEmpty()

	if !exists || r.opts.UpdateMode == UpdateAll {
		shared, err := r.applyShares(ctx, la, current, exists)
		if err != nil {
			return err
		}
		changed = changed || shared
	}

	if exists && changed {
		report.Updated = append(report.Updated, la.Name)
	}
	return nil
}

// albumUpdate collects the album level properties to send. Thumbnails of
// existing albums are picked among all their assets, not only the ones found
// in this run.
func (r *Reconciler) albumUpdate(ctx context.Context, la *album.LogicalAlbum, albumID string, exists bool) (immich.AlbumUpdate, error) {
	p := la.Properties
	var update immich.AlbumUpdate
	if p.Description != nil {
		update.Description = *p.Description
	}
	if p.SortOrder != nil {
		update.Order = *p.SortOrder
	}
	if p.CommentsEnabled != nil {
		enabled := *p.CommentsEnabled
		update.ActivityEnabled = &enabled
	}
	if p.Thumbnail != nil && !isShuffled(*p.Thumbnail) {
		candidates := la.Assets
		if exists {
			full, err := r.gw.GetAlbum(ctx, albumID)
			if err != nil {
				return update, err
			}
			candidates = full.Assets
		}
		if asset, ok := r.thumbnail(*p.Thumbnail, candidates); ok {
			update.ThumbnailAssetID = asset.ID
		}
	}
	return update, nil
}

// isShuffled reports whether a thumbnail setting is applied to all albums
// after reconciling.
func isShuffled(setting string) bool {
	return setting == album.ThumbnailRandomAll || setting == album.ThumbnailRandomFiltered
}
