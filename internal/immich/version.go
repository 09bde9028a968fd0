package immich

import (
	"context"
	"fmt"
	"net/http"

	"github.com/hashicorp/go-version"
	log "github.com/sirupsen/logrus"
)

var (
	// MinServerVersion is the oldest server the tool works with.
	MinServerVersion = version.Must(version.NewVersion("1.106.0"))
	// offlineSearchVersion introduced searchable offline assets in the trash.
	offlineSearchVersion = version.Must(version.NewVersion("1.116.0"))
	// visibilityVersion replaced the archived flag with asset visibility.
	visibilityVersion = version.Must(version.NewVersion("1.133.0"))
)

type serverVersion struct {
	Major int `json:"major"`
	Minor int `json:"minor"`
	Patch int `json:"patch"`
}

// CheckVersion fetches the server version and refuses servers that are too
// old. The version decides which API variants the client uses afterwards.
func (c *Client) CheckVersion(ctx context.Context) (*version.Version, error) {
	var sv serverVersion
	err := c.do(ctx, "server version", http.MethodGet, "server/version", nil, &sv)
	if IsNotFound(err) {
		// Servers before 1.118 only know the legacy endpoint.
		err = c.do(ctx, "server version", http.MethodGet, "server-info/version", nil, &sv)
	}
	if err != nil {
		return nil, fmt.Errorf("communication with Immich server failed, check API URL and API key: %w", err)
	}

	v, err := version.NewVersion(fmt.Sprintf("%d.%d.%d", sv.Major, sv.Minor, sv.Patch))
	if err != nil {
		return nil, fmt.Errorf("parse server version: %w", err)
	}
	log.Infof("Detected Immich server version %s", v)
	if v.LessThan(MinServerVersion) {
		return nil, fmt.Errorf("server version %s is not supported, Immich server v%s or newer is required", v, MinServerVersion)
	}
	c.version = v
	return v, nil
}

// SupportsVisibility reports whether the server knows asset visibility.
// Before the version is checked the current API is assumed.
func (c *Client) SupportsVisibility() bool {
	return c.version == nil || !c.version.LessThan(visibilityVersion)
}

// SupportsOfflineSearch reports whether offline assets can be searched and
// deleted directly, rather than through a per-library job.
func (c *Client) SupportsOfflineSearch() bool {
	return c.version == nil || !c.version.LessThan(offlineSearchVersion)
}
