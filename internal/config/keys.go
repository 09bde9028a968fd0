package config

import (
	"fmt"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"

	"folder-albums/internal/album"
	"folder-albums/internal/model"
)

var fs = afero.NewOsFs()

// SetFs replaces the filesystem API key files are read from.
func SetFs(f afero.Fs) {
	fs = f
}

// APIKeys returns the API keys to run with. Keys of type file are read from
// the named files.
func (c *Config) APIKeys() ([]string, error) {
	keys := make([]string, 0, len(c.APIKey))
	for _, source := range c.APIKey {
		if c.APIKeyType != "file" {
			keys = append(keys, strings.TrimSpace(source))
			continue
		}
		path, err := homedir.Expand(source)
		if err != nil {
			return nil, err
		}
		data, err := afero.ReadFile(fs, path)
		if err != nil {
			return nil, fmt.Errorf("cannot read API key file: %w", err)
		}
		key := strings.TrimSpace(string(data))
		if key == "" {
			return nil, fmt.Errorf("API key file %s is empty", path)
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// TokenFile returns the expanded path of the oauth token file.
func (c *Config) TokenFile() string {
	if c.OAuth.TokenFile == "" {
		return ""
	}
	path, err := homedir.Expand(c.OAuth.TokenFile)
	if err != nil {
		return c.OAuth.TokenFile
	}
	return path
}

// GlobalProperties returns the album properties set for the whole run. They
// apply below every album properties file. Thumbnail settings that shuffle
// all albums are not album properties and are left out.
func (c *Config) GlobalProperties() album.Properties {
	props := album.Properties{Shares: c.shares}
	switch c.SetAlbumThumbnail {
	case "", album.ThumbnailRandomAll, album.ThumbnailRandomFiltered:
	default:
		thumbnail := c.SetAlbumThumbnail
		props.Thumbnail = &thumbnail
	}
	if c.AlbumOrder != "" {
		order := model.SortOrder(c.AlbumOrder)
		props.SortOrder = &order
	}
	if c.Visibility != "" {
		visibility := model.Visibility(c.Visibility)
		props.Visibility = &visibility
	}
	switch {
	case c.CommentsAndLikesEnabled:
		enabled := true
		props.CommentsEnabled = &enabled
	case c.CommentsAndLikesDisabled:
		enabled := false
		props.CommentsEnabled = &enabled
	}
	return props
}
