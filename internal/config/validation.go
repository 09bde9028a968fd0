package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"folder-albums/internal/album"
	"folder-albums/internal/model"
)

// validate is the singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate checks the configuration using struct tags and the rules that
// cannot be expressed in tags. It also parses level spec, name rules,
// filters and shares for later use.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}
	return validateCustomRules(cfg)
}

func validateCustomRules(cfg *Config) error {
	if len(cfg.APIKey) == 0 && cfg.OAuth.TokenFile == "" {
		return errors.New("api_key: at least one API key or an oauth token file must be configured")
	}
	if cfg.CommentsAndLikesEnabled && cfg.CommentsAndLikesDisabled {
		return errors.New("comments_and_likes_enabled and comments_and_likes_disabled are mutually exclusive")
	}

	levels, err := album.ParseLevelSpec(cfg.AlbumLevels)
	if err != nil {
		return err
	}
	rules, err := album.ParseRules(cfg.AlbumNamePostRegex)
	if err != nil {
		return err
	}
	filter, err := album.NewFilter(cfg.PathFilter, cfg.Ignore)
	if err != nil {
		return err
	}

	if cfg.SetAlbumThumbnail != "" {
		if err := album.ValidateThumbnail(cfg.SetAlbumThumbnail, true); err != nil {
			return fmt.Errorf("set_album_thumbnail: %w", err)
		}
	}

	defaultRole, err := model.ParseRole(cfg.ShareRole)
	if err != nil {
		return fmt.Errorf("share_role: %w", err)
	}
	entries := make([]album.ShareEntry, 0, len(cfg.ShareWith))
	for i, s := range cfg.ShareWith {
		e, err := parseShareWith(s, defaultRole)
		if err != nil {
			return fmt.Errorf("share_with[%d]: %w", i, err)
		}
		entries = append(entries, e)
	}

	cfg.levels = levels
	cfg.rules = rules
	cfg.filter = filter
	cfg.shares = album.NewShareSet(entries...)
	return nil
}

// parseShareWith parses "user" or "user=role".
func parseShareWith(s string, defaultRole model.Role) (album.ShareEntry, error) {
	user, roleName, hasRole := strings.Cut(s, "=")
	user = strings.TrimSpace(user)
	if user == "" {
		return album.ShareEntry{}, fmt.Errorf("missing user in %q", s)
	}
	if !hasRole {
		return album.ShareEntry{User: user, Role: defaultRole}, nil
	}
	role, err := model.ParseRole(roleName)
	if err != nil {
		return album.ShareEntry{}, err
	}
	if role == model.RoleNone {
		return album.ShareEntry{}, fmt.Errorf("role none is only allowed in album properties files")
	}
	return album.ShareEntry{User: user, Role: role}, nil
}

// formatValidationError converts validator errors into user-friendly messages.
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
		e := validationErrs[0]
		return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)", e.Namespace(), e.Tag(), e.Value())
	}
	return err
}
