package reconcile

import (
	"context"
	"sort"

	log "github.com/sirupsen/logrus"

	"folder-albums/internal/album"
	"folder-albums/internal/model"
)

// shareChange is one call needed to make the shares of an album match.
type shareChange struct {
	add    map[model.Role][]string
	update map[string]model.Role
	remove []string
}

func (c shareChange) isEmpty() bool {
	return len(c.add) == 0 && len(c.update) == 0 && len(c.remove) == 0
}

// diffShares compares the current album users with the desired user ids and
// roles. Only with exact are users missing from desired removed.
func diffShares(current []model.AlbumUser, desired map[string]model.Role, exact bool) shareChange {
	change := shareChange{add: map[model.Role][]string{}, update: map[string]model.Role{}}
	have := make(map[string]model.Role, len(current))
	for _, au := range current {
		have[au.User.ID] = au.Role
	}

	for userID, role := range desired {
		got, ok := have[userID]
		switch {
		case !ok:
			change.add[role] = append(change.add[role], userID)
		case got != role:
			change.update[userID] = role
		}
	}
	for role := range change.add {
		sort.Strings(change.add[role])
	}
	if len(change.add) == 0 {
		change.add = nil
	}
	if len(change.update) == 0 {
		change.update = nil
	}

	if exact {
		for _, au := range current {
			if _, ok := desired[au.User.ID]; !ok {
				change.remove = append(change.remove, au.User.ID)
			}
		}
		sort.Strings(change.remove)
	}
	return change
}

// loadUsers fetches the server's users the first time they are needed.
func (r *Reconciler) loadUsers(ctx context.Context) ([]model.User, error) {
	if r.usersLoaded {
		return r.users, nil
	}
	users, err := r.gw.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	r.users = users
	r.usersLoaded = true
	return users, nil
}

// desiredShares resolves the share entries of an album to user ids.
// Unknown users are skipped.
func (r *Reconciler) desiredShares(ctx context.Context, la *album.LogicalAlbum) (map[string]model.Role, error) {
	entries := la.Properties.Shares.Entries()
	desired := make(map[string]model.Role, len(entries))
	if len(entries) == 0 {
		return desired, nil
	}
	users, err := r.loadUsers(ctx)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		u, ok := model.FindUser(users, e.User)
		if !ok {
			log.WithField("album", la.Name).Warnf("User %s to share album with does not exist", e.User)
			continue
		}
		desired[u.ID] = e.Role
	}
	return desired, nil
}

// applyShares shares the album with its desired users. Existing albums get
// their shares replaced exactly. It reports whether anything changed.
func (r *Reconciler) applyShares(ctx context.Context, la *album.LogicalAlbum, current model.RemoteAlbum, exists bool) (bool, error) {
	desired, err := r.desiredShares(ctx, la)
	if err != nil {
		return false, err
	}
	change := diffShares(current.AlbumUsers, desired, exists)
	if change.isEmpty() {
		return false, nil
	}

	logger := log.WithField("album", la.Name)
	for _, role := range []model.Role{model.RoleViewer, model.RoleEditor} {
		userIDs := change.add[role]
		if len(userIDs) == 0 {
			continue
		}
		logger.Debugf("Sharing with %d users as %s", len(userIDs), role)
		if err := r.gw.ShareAlbum(ctx, current.ID, userIDs, role); err != nil {
			return false, err
		}
	}

	userIDs := make([]string, 0, len(change.update))
	for userID := range change.update {
		userIDs = append(userIDs, userID)
	}
	sort.Strings(userIDs)
	for _, userID := range userIDs {
		if err := r.gw.UpdateShareRole(ctx, current.ID, userID, change.update[userID]); err != nil {
			return false, err
		}
	}

	for _, userID := range change.remove {
		logger.Debugf("Removing share with user %s", userID)
		if err := r.gw.UnshareAlbum(ctx, current.ID, userID); err != nil {
			return false, err
		}
	}
	return true, nil
}
