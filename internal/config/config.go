// Package config loads the run configuration from flags, environment
// variables and an optional YAML file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"folder-albums/internal/album"
)

// Config is the complete run configuration. Keys are spelled the same in the
// config file and, upper-cased, as environment variables. APITimeout is in
// seconds.
type Config struct {
	RootPath                 []string `mapstructure:"root_path" validate:"min=1,dive,required"`
	APIURL                   string   `mapstructure:"api_url" validate:"required,url"`
	APIKey                   []string `mapstructure:"api_key" validate:"dive,required"`
	APIKeyType               string   `mapstructure:"api_key_type" validate:"oneof=literal file"`
	Unattended               bool     `mapstructure:"unattended"`
	AlbumLevels              string   `mapstructure:"album_levels" validate:"required"`
	AlbumSeparator           string   `mapstructure:"album_separator"`
	AlbumNamePostRegex       []string `mapstructure:"album_name_post_regex"`
	ChunkSize                int      `mapstructure:"chunk_size" validate:"gt=0"`
	FetchChunkSize           int      `mapstructure:"fetch_chunk_size" validate:"gt=0,lte=1000"`
	LogLevel                 string   `mapstructure:"log_level" validate:"oneof=CRITICAL FATAL ERROR WARNING WARN INFO DEBUG"`
	Insecure                 bool     `mapstructure:"insecure"`
	Ignore                   []string `mapstructure:"ignore"`
	PathFilter               []string `mapstructure:"path_filter"`
	Mode                     string   `mapstructure:"mode" validate:"oneof=CREATE CLEANUP DELETE_ALL"`
	DeleteConfirm            bool     `mapstructure:"delete_confirm"`
	ShareWith                []string `mapstructure:"share_with" validate:"dive,required"`
	ShareRole                string   `mapstructure:"share_role" validate:"oneof=viewer editor"`
	SyncMode                 int      `mapstructure:"sync_mode" validate:"gte=0,lte=2"`
	AlbumOrder               string   `mapstructure:"album_order" validate:"omitempty,oneof=asc desc"`
	FindAssetsInAlbums       bool     `mapstructure:"find_assets_in_albums"`
	FindArchivedAssets       bool     `mapstructure:"find_archived_assets"`
	SetAlbumThumbnail        string   `mapstructure:"set_album_thumbnail"`
	Visibility               string   `mapstructure:"visibility" validate:"omitempty,oneof=archive hidden locked timeline"`
	ReadAlbumProps           bool     `mapstructure:"read_album_properties"`
	APITimeout               int      `mapstructure:"api_timeout" validate:"gt=0"`
	CommentsAndLikesEnabled  bool     `mapstructure:"comments_and_likes_enabled"`
	CommentsAndLikesDisabled bool     `mapstructure:"comments_and_likes_disabled"`
	UpdateAlbumPropsMode     int      `mapstructure:"update_album_props_mode" validate:"gte=0,lte=2"`
	MaxRetryCount            int      `mapstructure:"max_retry_count" validate:"gte=0"`
	FetchWorkers             int      `mapstructure:"fetch_workers" validate:"gt=0"`
	ReportFile               string   `mapstructure:"report_file"`
	ThumbnailExifDates       bool     `mapstructure:"thumbnail_exif_dates"`

	// InContainer is set through the IS_DOCKER environment variable.
	InContainer bool        `mapstructure:"is_docker"`
	OAuth       OAuthConfig `mapstructure:"oauth"`

	// Parsed during validation.
	levels album.LevelSpec
	rules  []album.Rule
	filter *album.Filter
	shares album.ShareSet
}

// OAuthConfig enables bearer token authentication.
type OAuthConfig struct {
	TokenFile    string `mapstructure:"token_file"`
	TokenURL     string `mapstructure:"token_url" validate:"omitempty,url"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
}

// Load builds the configuration. Precedence from highest to lowest: flags,
// environment variables, the config file, defaults. args are the optional
// positional root path, API URL and API key; they add to the configured
// lists.
func Load(configPath string, flags *pflag.FlagSet, args []string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)
	if err := bindFlags(v, flags); err != nil {
		return nil, err
	}
	if err := readConfigFile(v, configPath); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	applyArgs(&cfg, args)
	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// setupViper configures environment variables and the config file.
// Environment variables carry no prefix, e.g. ROOT_PATH or OAUTH_TOKEN_FILE.
func setupViper(v *viper.Viper, configPath string) {
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		if expanded, err := homedir.Expand(configPath); err == nil {
			configPath = expanded
		}
		v.SetConfigFile(configPath)
		return
	}
	v.AddConfigPath(configDir())
	v.SetConfigName("config")
	v.SetConfigType("yaml")
}

// bindFlags binds every flag to the key of the same name, with dashes
// replaced by underscores.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	if flags == nil {
		return nil
	}
	var err error
	flags.VisitAll(func(f *pflag.Flag) {
		if err != nil || f.Name == "config" {
			return
		}
		err = v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f)
	})
	return err
}

func readConfigFile(v *viper.Viper, configPath string) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok && configPath == "" {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

func applyArgs(cfg *Config, args []string) {
	if len(args) > 0 {
		cfg.RootPath = append([]string{args[0]}, cfg.RootPath...)
	}
	if len(args) > 1 {
		cfg.APIURL = args[1]
	}
	if len(args) > 2 {
		cfg.APIKey = append([]string{args[2]}, cfg.APIKey...)
	}
}

// configDir returns $XDG_CONFIG_HOME/folder-albums, ~/.config/folder-albums,
// or the working directory if the home directory is unknown.
func configDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "folder-albums")
	}
	home, err := homedir.Dir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "folder-albums")
}

// Levels returns the parsed album level spec.
func (c *Config) Levels() album.LevelSpec {
	return c.levels
}

// Formatter returns the album name formatter.
func (c *Config) Formatter() album.Formatter {
	return album.Formatter{Separator: c.AlbumSeparator, Rules: c.rules}
}

// Filter returns the compiled path filter and ignore patterns.
func (c *Config) Filter() *album.Filter {
	return c.filter
}

// Roots returns the normalized root paths.
func (c *Config) Roots() album.Roots {
	return album.NewRoots(c.RootPath)
}
