package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"slices"
	"time"

	log "github.com/sirupsen/logrus"

	"folder-albums/internal/album"
	"folder-albums/internal/config"
	"folder-albums/internal/immich"
	"folder-albums/internal/logging"
	"folder-albums/internal/media"
	"folder-albums/internal/model"
	"folder-albums/internal/reconcile"
)

// Run reconciles albums once per configured API key and returns the combined
// report. It stops at the first key whose run cannot finish, e.g. because the
// server rejects it.
func Run(ctx context.Context, cfg *config.Config, in io.Reader, out io.Writer) (*reconcile.Report, error) {
	keys, err := cfg.APIKeys()
	if err != nil {
		return nil, err
	}
	// A token file alone authenticates a single run.
	if len(keys) == 0 {
		keys = []string{""}
	}

	resolver := loadResolver(cfg)
	stdin := bufio.NewReader(in)

	report := reconcile.NewReport()
	for i, key := range keys {
		logger := log.WithField("api_key", logging.MaskKey(key))
		if len(keys) > 1 {
			logger.Infof("Processing API key %d of %d", i+1, len(keys))
		}
		r, err := runKey(ctx, cfg, key, resolver, stdin, out)
		if r != nil {
			report.Merge(r)
		}
		if err != nil {
			return report, err
		}
		if report.Aborted {
			break
		}
	}
	report.Finished = time.Now()

	if cfg.ReportFile != "" {
		if err := report.Save(cfg.ReportFile); err != nil {
			return report, fmt.Errorf("failed to write report: %w", err)
		}
	}
	log.Infof("Done: %d albums created, %d updated, %d deleted, %d failed, %d assets added",
		len(report.Created), len(report.Updated), len(report.Deleted), len(report.Failed), report.AssetsAdded)
	return report, nil
}

// loadResolver reads the property files below the roots. Broken files are
// logged and ignored.
func loadResolver(cfg *config.Config) *album.Resolver {
	if !cfg.ReadAlbumProps {
		return nil
	}
	store, problems := album.LoadStore(cfg.Roots(), cfg.Filter())
	for _, err := range problems {
		log.WithError(err).Warn("Ignoring album properties file")
	}
	log.Infof("Loaded %d album properties files", store.Len())
	return album.NewResolver(store)
}

func newClient(ctx context.Context, cfg *config.Config, key string) (*immich.Client, error) {
	opts := immich.HTTPOptions{
		APIKey:   key,
		Timeout:  time.Duration(cfg.APITimeout) * time.Second,
		Insecure: cfg.Insecure,
	}
	if tokenFile := cfg.TokenFile(); tokenFile != "" {
		opts.OAuth = &immich.OAuthOptions{
			TokenFile:    tokenFile,
			TokenURL:     cfg.OAuth.TokenURL,
			ClientID:     cfg.OAuth.ClientID,
			ClientSecret: cfg.OAuth.ClientSecret,
		}
	}
	httpClient, err := immich.NewHTTPClient(ctx, opts)
	if err != nil {
		return nil, err
	}
	return immich.NewClient(httpClient, cfg.APIURL,
		immich.WithChunkSize(cfg.ChunkSize),
		immich.WithFetchChunkSize(cfg.FetchChunkSize),
		immich.WithMaxRetries(uint64(cfg.MaxRetryCount)),
	), nil
}

func assetQuery(cfg *config.Config, mode reconcile.Mode) immich.AssetQuery {
	q := immich.AssetQuery{
		Roots:      cfg.Roots(),
		NotInAlbum: !cfg.FindAssetsInAlbums,
		Workers:    cfg.FetchWorkers,
	}
	// Cleanup has to see every asset to know every album it would create.
	if mode != reconcile.ModeCreate {
		q.NotInAlbum = false
	}
	if cfg.FindArchivedAssets || mode != reconcile.ModeCreate {
		q.Visibilities = append(q.Visibilities, model.VisibilityArchive)
	}
	return q
}

// fetchAssets runs the query and removes the video components of live
// photos. A query that skips assets in albums or archived assets may miss the
// photo a video belongs to, so those are looked up with a wider query.
func fetchAssets(ctx context.Context, client *immich.Client, q immich.AssetQuery) ([]model.Asset, error) {
	assets, err := client.FetchAssets(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch assets: %w", err)
	}
	log.Infof("%d photos found", len(assets))
	if !album.HasVideos(assets) {
		return assets, nil
	}

	all := assets
	if q.NotInAlbum || !slices.Contains(q.Visibilities, model.VisibilityArchive) {
		log.Debug("Fetching all assets to find live photo video components")
		wide := q
		wide.NotInAlbum = false
		wide.Visibilities = []model.Visibility{model.VisibilityArchive}
		all, err = client.FetchAssets(ctx, wide)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch assets: %w", err)
		}
	}
	return album.DropLivePhotoVideos(assets, all), nil
}

func runKey(ctx context.Context, cfg *config.Config, key string, resolver *album.Resolver, in io.Reader, out io.Writer) (*reconcile.Report, error) {
	mode, err := reconcile.ParseMode(cfg.Mode)
	if err != nil {
		return nil, err
	}
	client, err := newClient(ctx, cfg, key)
	if err != nil {
		return nil, err
	}
	if _, err := client.CheckVersion(ctx); err != nil {
		return nil, err
	}

	// DELETE_ALL removes every album, there is nothing to derive.
	var albums []*album.LogicalAlbum
	var buildErrs []error
	if mode != reconcile.ModeDeleteAll {
		assets, err := fetchAssets(ctx, client, assetQuery(cfg, mode))
		if err != nil {
			return nil, err
		}
		builder := &album.Builder{
			Roots:     cfg.Roots(),
			Filter:    cfg.Filter(),
			Levels:    cfg.Levels(),
			Formatter: cfg.Formatter(),
			Resolver:  resolver,
			Global:    cfg.GlobalProperties(),
		}
		albums, buildErrs = builder.Build(assets)
		log.Infof("%d albums identified", len(albums))
	}

	var visibility model.Visibility
	if cfg.Visibility != "" {
		visibility = model.Visibility(cfg.Visibility)
	}
	rec := reconcile.New(client, reconcile.Options{
		Mode:          mode,
		DeleteConfirm: cfg.DeleteConfirm,
		Unattended:    cfg.Unattended,
		InContainer:   cfg.InContainer,
		UpdateMode:    cfg.UpdateAlbumPropsMode,
		SyncMode:      cfg.SyncMode,
		Visibility:    visibility,
		Thumbnail:     cfg.SetAlbumThumbnail,
		Roots:         cfg.Roots(),
		Filter:        cfg.Filter(),
		Dater:         media.Dater{UseExif: cfg.ThumbnailExifDates},
		In:            in,
		Out:           out,
	})
	report, err := rec.Run(ctx, albums)
	for _, e := range buildErrs {
		report.Fail("", e)
	}
	return report, err
}
