package album

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"folder-albums/internal/model"
)

// Property names a single album property as it is spelled in property files
// and inherit_properties lists.
type Property string

const (
	PropOverrideName Property = "override_name"
	PropDescription  Property = "description"
	PropThumbnail    Property = "thumbnail_setting"
	PropSortOrder    Property = "sort_order"
	PropVisibility   Property = "visibility"
	PropComments     Property = "comments_and_likes_enabled"
	PropShareWith    Property = "share_with"
)

// scalarProperties lists every property that is overridden rather than
// accumulated, in reporting order.
var scalarProperties = []Property{
	PropOverrideName,
	PropDescription,
	PropThumbnail,
	PropSortOrder,
	PropVisibility,
	PropComments,
}

// ParseProperty validates an inheritable property name.
func ParseProperty(s string) (Property, error) {
	p := Property(s)
	if p == PropShareWith {
		return p, nil
	}
	for _, known := range scalarProperties {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown property %q", s)
}

// Thumbnail settings besides an absolute asset path.
const (
	ThumbnailFirst          = "first"
	ThumbnailLast           = "last"
	ThumbnailRandom         = "random"
	ThumbnailRandomAll      = "random-all"
	ThumbnailRandomFiltered = "random-filtered"
)

// ValidateThumbnail checks a thumbnail setting. random-all and
// random-filtered only make sense as run-wide settings.
func ValidateThumbnail(s string, global bool) error {
	switch s {
	case ThumbnailFirst, ThumbnailLast, ThumbnailRandom:
		return nil
	case ThumbnailRandomAll, ThumbnailRandomFiltered:
		if global {
			return nil
		}
		return fmt.Errorf("thumbnail setting %q can only be set globally", s)
	}
	if path.IsAbs(s) {
		return nil
	}
	return fmt.Errorf("invalid thumbnail setting %q, must be first, last, random or an absolute asset path", s)
}

// ShareEntry is a user an album is shared with.
type ShareEntry struct {
	User string
	Role model.Role
}

func (e ShareEntry) String() string {
	return e.User + "=" + string(e.Role)
}

// ShareSet accumulates share declarations from several sources. A user given
// the role none is revoked for good; every other user ends up with the most
// restrictive role declared for them. The result does not depend on the order
// declarations are added in.
//
// The zero value is an empty set. Sets are immutable, Merge returns a new one.
type ShareSet struct {
	roles   map[string]model.Role
	revoked map[string]struct{}
}

// NewShareSet builds a set from entries.
func NewShareSet(entries ...ShareEntry) ShareSet {
	s := ShareSet{}
	for _, e := range entries {
		s.add(e.User, e.Role)
	}
	return s
}

func (s *ShareSet) add(user string, role model.Role) {
	if role == model.RoleNone {
		if s.revoked == nil {
			s.revoked = make(map[string]struct{})
		}
		s.revoked[user] = struct{}{}
		return
	}
	if s.roles == nil {
		s.roles = make(map[string]model.Role)
	}
	if have, ok := s.roles[user]; ok {
		role = model.MoreRestrictive(have, role)
	}
	s.roles[user] = role
}

// Merge folds two sets into a new one.
func (s ShareSet) Merge(other ShareSet) ShareSet {
	merged := ShareSet{}
	for _, src := range []ShareSet{s, other} {
		for user := range src.revoked {
			merged.add(user, model.RoleNone)
		}
		for user, role := range src.roles {
			merged.add(user, role)
		}
	}
	return merged
}

// Entries returns the users the album is shared with, sorted by user.
// Revoked users are absent.
func (s ShareSet) Entries() []ShareEntry {
	entries := make([]ShareEntry, 0, len(s.roles))
	for user, role := range s.roles {
		if _, gone := s.revoked[user]; gone {
			continue
		}
		entries = append(entries, ShareEntry{User: user, Role: role})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].User < entries[j].User })
	return entries
}

// Revoked returns the sorted users that may never be shared with.
func (s ShareSet) Revoked() []string {
	users := make([]string, 0, len(s.revoked))
	for user := range s.revoked {
		users = append(users, user)
	}
	sort.Strings(users)
	return users
}

// IsEmpty reports whether the set carries no declaration at all, not even a
// revocation.
func (s ShareSet) IsEmpty() bool {
	return len(s.roles) == 0 && len(s.revoked) == 0
}

func (s ShareSet) String() string {
	parts := make([]string, 0, len(s.roles)+len(s.revoked))
	for _, e := range s.Entries() {
		parts = append(parts, e.String())
	}
	for _, user := range s.Revoked() {
		parts = append(parts, user+"="+string(model.RoleNone))
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// Properties is a partially populated set of album properties. nil fields are
// unset, which is different from being set to the zero value.
type Properties struct {
	OverrideName    *string
	Description     *string
	Thumbnail       *string
	SortOrder       *model.SortOrder
	Visibility      *model.Visibility
	CommentsEnabled *bool
	Shares          ShareSet
}

// IsSet reports whether a property carries a value.
func (p Properties) IsSet(prop Property) bool {
	if prop == PropShareWith {
		return !p.Shares.IsEmpty()
	}
	_, ok := p.scalar(prop)
	return ok
}

// scalar returns the printable value of a scalar property.
func (p Properties) scalar(prop Property) (string, bool) {
	switch prop {
	case PropOverrideName:
		if p.OverrideName != nil {
			return *p.OverrideName, true
		}
	case PropDescription:
		if p.Description != nil {
			return *p.Description, true
		}
	case PropThumbnail:
		if p.Thumbnail != nil {
			return *p.Thumbnail, true
		}
	case PropSortOrder:
		if p.SortOrder != nil {
			return string(*p.SortOrder), true
		}
	case PropVisibility:
		if p.Visibility != nil {
			return string(*p.Visibility), true
		}
	case PropComments:
		if p.CommentsEnabled != nil {
			return fmt.Sprint(*p.CommentsEnabled), true
		}
	}
	return "", false
}

// Overlay returns p with every property set in top replacing its own. Share
// sets are merged.
func (p Properties) Overlay(top Properties) Properties {
	out := p
	if top.OverrideName != nil {
		out.OverrideName = top.OverrideName
	}
	if top.Description != nil {
		out.Description = top.Description
	}
	if top.Thumbnail != nil {
		out.Thumbnail = top.Thumbnail
	}
	if top.SortOrder != nil {
		out.SortOrder = top.SortOrder
	}
	if top.Visibility != nil {
		out.Visibility = top.Visibility
	}
	if top.CommentsEnabled != nil {
		out.CommentsEnabled = top.CommentsEnabled
	}
	out.Shares = p.Shares.Merge(top.Shares)
	return out
}

// Only keeps the listed properties. A nil list keeps everything.
func (p Properties) Only(allow []Property) Properties {
	if allow == nil {
		return p
	}
	keep := make(map[Property]bool, len(allow))
	for _, prop := range allow {
		keep[prop] = true
	}
	var out Properties
	if keep[PropOverrideName] {
		out.OverrideName = p.OverrideName
	}
	if keep[PropDescription] {
		out.Description = p.Description
	}
	if keep[PropThumbnail] {
		out.Thumbnail = p.Thumbnail
	}
	if keep[PropSortOrder] {
		out.SortOrder = p.SortOrder
	}
	if keep[PropVisibility] {
		out.Visibility = p.Visibility
	}
	if keep[PropComments] {
		out.CommentsEnabled = p.CommentsEnabled
	}
	if keep[PropShareWith] {
		out.Shares = p.Shares
	}
	return out
}

// IsEmpty reports whether no property is set.
func (p Properties) IsEmpty() bool {
	for _, prop := range scalarProperties {
		if p.IsSet(prop) {
			return false
		}
	}
	return p.Shares.IsEmpty()
}

func (p Properties) String() string {
	var parts []string
	for _, prop := range scalarProperties {
		if v, ok := p.scalar(prop); ok {
			parts = append(parts, fmt.Sprintf("%s=%q", prop, v))
		}
	}
	if !p.Shares.IsEmpty() {
		parts = append(parts, fmt.Sprintf("%s=%s", PropShareWith, p.Shares))
	}
	return "{" + strings.Join(parts, " ") + "}"
}

// Declaration is the parsed content of one directory's property file.
type Declaration struct {
	Directory string
	Properties
	// Inherit makes the directory receive the properties of its declared
	// ancestors. Without it the directory starts a fresh chain.
	Inherit bool
	// InheritProperties restricts which properties are taken from ancestors.
	// nil takes all of them.
	InheritProperties []Property
}
