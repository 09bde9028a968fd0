package model

import (
	"fmt"
	"strings"
	"time"
)

// Asset is a media item as reported by the server.
type Asset struct {
	ID               string     `json:"id"`
	OriginalPath     string     `json:"originalPath"`
	OriginalMimeType string     `json:"originalMimeType"`
	FileCreatedAt    time.Time  `json:"fileCreatedAt"`
	LivePhotoVideoID *string    `json:"livePhotoVideoId"`
	Visibility       Visibility `json:"visibility"`
	IsOffline        bool       `json:"isOffline"`
	IsTrashed        bool       `json:"isTrashed"`
}

// RemoteAlbum is an album as it currently exists on the server.
type RemoteAlbum struct {
	ID         string      `json:"id"`
	Name       string      `json:"albumName"`
	AssetCount int         `json:"assetCount"`
	Assets     []Asset     `json:"assets,omitempty"`
	AlbumUsers []AlbumUser `json:"albumUsers,omitempty"`
}

// AlbumUser is one share of an album.
type AlbumUser struct {
	User User `json:"user"`
	Role Role `json:"role"`
}

// User is a server account albums can be shared with.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// FindUser looks a user up by name or e-mail address.
func FindUser(users []User, nameOrEmail string) (User, bool) {
	for _, u := range users {
		if u.Name == nameOrEmail || u.Email == nameOrEmail {
			return u, true
		}
	}
	return User{}, false
}

// Role is an album share role.
type Role string

const (
	RoleViewer Role = "viewer"
	RoleEditor Role = "editor"
	// RoleNone removes a user from an album's share set for good.
	RoleNone Role = "none"
)

// ParseRole accepts viewer, editor and none. An empty string means viewer.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case "", RoleViewer:
		return RoleViewer, nil
	case RoleEditor:
		return RoleEditor, nil
	case RoleNone:
		return RoleNone, nil
	}
	return "", fmt.Errorf("invalid share role %q, must be one of viewer, editor, none", s)
}

// MoreRestrictive returns the stricter of two share roles.
func MoreRestrictive(a, b Role) Role {
	if a == RoleViewer || b == RoleViewer {
		return RoleViewer
	}
	return a
}

// Visibility of an asset on the server timeline.
type Visibility string

const (
	VisibilityTimeline Visibility = "timeline"
	VisibilityArchive  Visibility = "archive"
	VisibilityHidden   Visibility = "hidden"
	VisibilityLocked   Visibility = "locked"
)

// ParseVisibility validates a visibility value.
func ParseVisibility(s string) (Visibility, error) {
	switch v := Visibility(s); v {
	case VisibilityTimeline, VisibilityArchive, VisibilityHidden, VisibilityLocked:
		return v, nil
	}
	return "", fmt.Errorf("invalid visibility %q, must be one of archive, hidden, locked, timeline", s)
}

// SortOrder of assets inside an album.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ParseSortOrder validates a sort order value.
func ParseSortOrder(s string) (SortOrder, error) {
	switch o := SortOrder(s); o {
	case SortAsc, SortDesc:
		return o, nil
	}
	return "", fmt.Errorf("invalid sort order %q, must be asc or desc", s)
}

// AssetIDs collects the ids of the given assets.
func AssetIDs(assets []Asset) []string {
	ids := make([]string, len(assets))
	for i, a := range assets {
		ids[i] = a.ID
	}
	return ids
}
