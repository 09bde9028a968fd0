package config

import (
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Defaults for keys whose zero value is not a sensible default.
const (
	DefaultAlbumLevels    = "1"
	DefaultAlbumSeparator = " "
	DefaultChunkSize      = 2000
	DefaultFetchChunkSize = 1000
	DefaultLogLevel       = "INFO"
	DefaultMode           = "CREATE"
	DefaultShareRole      = "viewer"
	DefaultAPITimeout     = 20
	DefaultMaxRetryCount  = 3
	DefaultFetchWorkers   = 4
	DefaultAPIKeyType     = "literal"
)

// setDefaults registers every key with viper, which makes environment
// variables visible to Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("root_path", []string{})
	v.SetDefault("api_url", "")
	v.SetDefault("api_key", []string{})
	v.SetDefault("api_key_type", DefaultAPIKeyType)
	v.SetDefault("unattended", false)
	v.SetDefault("album_levels", DefaultAlbumLevels)
	v.SetDefault("album_separator", DefaultAlbumSeparator)
	v.SetDefault("album_name_post_regex", []string{})
	v.SetDefault("chunk_size", DefaultChunkSize)
	v.SetDefault("fetch_chunk_size", DefaultFetchChunkSize)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("insecure", false)
	v.SetDefault("ignore", []string{})
	v.SetDefault("path_filter", []string{})
	v.SetDefault("mode", DefaultMode)
	v.SetDefault("delete_confirm", false)
	v.SetDefault("share_with", []string{})
	v.SetDefault("share_role", DefaultShareRole)
	v.SetDefault("sync_mode", 0)
	v.SetDefault("album_order", "")
	v.SetDefault("find_assets_in_albums", false)
	v.SetDefault("find_archived_assets", false)
	v.SetDefault("set_album_thumbnail", "")
	v.SetDefault("visibility", "")
	v.SetDefault("read_album_properties", false)
	v.SetDefault("api_timeout", DefaultAPITimeout)
	v.SetDefault("comments_and_likes_enabled", false)
	v.SetDefault("comments_and_likes_disabled", false)
	v.SetDefault("update_album_props_mode", 0)
	v.SetDefault("max_retry_count", DefaultMaxRetryCount)
	v.SetDefault("fetch_workers", DefaultFetchWorkers)
	v.SetDefault("report_file", "")
	v.SetDefault("thumbnail_exif_dates", false)
	v.SetDefault("is_docker", false)
	v.SetDefault("oauth.token_file", "")
	v.SetDefault("oauth.token_url", "")
	v.SetDefault("oauth.client_id", "")
	v.SetDefault("oauth.client_secret", "")
}

// RegisterFlags defines a flag for every key that makes sense on the command
// line.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.StringSliceP("root-path", "r", nil, "External library root path in Immich; may be given multiple times")
	flags.String("api-url", "", "The root API URL of Immich, e.g. https://immich.mydomain.com/api/")
	flags.StringSlice("api-key", nil, "Immich API key; may be given multiple times to run for multiple users")
	flags.StringP("api-key-type", "t", DefaultAPIKeyType, "The type of the API keys: literal or file")
	flags.BoolP("unattended", "u", false, "Do not ask for confirmation before creating albums")
	flags.StringP("album-levels", "a", DefaultAlbumLevels, "Folder levels used for album names: <level> or <startLevel>,<endLevel>, negative levels count from the bottom")
	flags.StringP("album-separator", "s", DefaultAlbumSeparator, "Separator between folder names in album names")
	flags.StringArrayP("album-name-post-regex", "R", nil, "PATTERN or PATTERN=>REPLACEMENT applied to album names in order")
	flags.IntP("chunk-size", "c", DefaultChunkSize, "Maximum number of assets to add to an album with a single call")
	flags.IntP("fetch-chunk-size", "C", DefaultFetchChunkSize, "Number of assets to fetch with a single call, at most 1000")
	flags.StringP("log-level", "l", DefaultLogLevel, "Log level: CRITICAL, ERROR, WARNING, INFO or DEBUG")
	flags.BoolP("insecure", "k", false, "Skip TLS certificate verification")
	flags.StringArrayP("ignore", "i", nil, "Glob or literal; matching asset paths are ignored")
	flags.StringP("mode", "m", DefaultMode, "CREATE, CLEANUP or DELETE_ALL")
	flags.BoolP("delete-confirm", "d", false, "Actually delete in CLEANUP and DELETE_ALL mode and when syncing")
	flags.StringArrayP("share-with", "x", nil, "User name or e-mail to share albums with, optionally as USER=ROLE")
	flags.StringP("share-role", "o", DefaultShareRole, "Default share role: viewer or editor")
	flags.IntP("sync-mode", "S", 0, "0: off, 1: delete empty albums, 2: remove offline assets, then delete empty albums")
	flags.StringP("album-order", "O", "", "Sort order of assets in albums: asc or desc")
	flags.BoolP("find-assets-in-albums", "A", false, "Also add assets that already belong to an album")
	flags.StringArrayP("path-filter", "f", nil, "Glob or literal; only matching asset paths are used")
	flags.String("set-album-thumbnail", "", "first, last, random, random-all, random-filtered or an absolute asset path")
	flags.String("visibility", "", "Asset visibility to set: archive, hidden, locked or timeline")
	flags.Bool("find-archived-assets", false, "Also add archived assets")
	flags.Bool("read-album-properties", false, "Read .albumprops files")
	flags.Int("api-timeout", DefaultAPITimeout, "Timeout for API calls in seconds")
	flags.Bool("comments-and-likes-enabled", false, "Enable comments and likes in albums")
	flags.Bool("comments-and-likes-disabled", false, "Disable comments and likes in albums")
	flags.Int("update-album-props-mode", 0, "0: never update existing albums, 1: update properties except sharing, 2: also replace shares")
	flags.Int("max-retry-count", DefaultMaxRetryCount, "How often a failed API call is retried")
	flags.Int("fetch-workers", DefaultFetchWorkers, "Number of parallel asset searches")
	flags.String("report-file", "", "Write a JSON report of the run to this file")
	flags.Bool("thumbnail-exif-dates", false, "Order first and last thumbnails by EXIF capture time of the local files")
}

// ApplyDefaults normalizes values that may be spelled in several ways.
func ApplyDefaults(cfg *Config) {
	cfg.LogLevel = strings.ToUpper(strings.TrimSpace(cfg.LogLevel))
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	cfg.Mode = strings.ToUpper(strings.TrimSpace(cfg.Mode))
	if cfg.Mode == "" {
		cfg.Mode = DefaultMode
	}
	cfg.AlbumOrder = strings.ToLower(strings.TrimSpace(cfg.AlbumOrder))
	if cfg.AlbumOrder == "false" {
		cfg.AlbumOrder = ""
	}
	if cfg.AlbumLevels == "" {
		cfg.AlbumLevels = DefaultAlbumLevels
	}
	if cfg.APIKeyType == "" {
		cfg.APIKeyType = DefaultAPIKeyType
	}
	if cfg.ShareRole == "" {
		cfg.ShareRole = DefaultShareRole
	}
	if cfg.APIURL != "" && !strings.HasSuffix(cfg.APIURL, "/") {
		cfg.APIURL += "/"
	}
	// Deleting is never unattended.
	if cfg.Mode == "CLEANUP" || cfg.Mode == "DELETE_ALL" {
		cfg.Unattended = false
	}
}
