package album

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/mitchellh/mapstructure"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"folder-albums/internal/model"
)

// PropsFileName is the name of the per-directory declaration file.
const PropsFileName = ".albumprops"

var fs = afero.NewOsFs()

// SetFs replaces the filesystem declarations are read from.
func SetFs(f afero.Fs) {
	fs = f
}

type rawShare struct {
	User string `mapstructure:"user"`
	Role string `mapstructure:"role"`
}

type rawDeclaration struct {
	OverrideName      *string    `mapstructure:"override_name"`
	Description       *string    `mapstructure:"description"`
	ThumbnailSetting  *string    `mapstructure:"thumbnail_setting"`
	SortOrder         *string    `mapstructure:"sort_order"`
	Visibility        *string    `mapstructure:"visibility"`
	Archive           *bool      `mapstructure:"archive"`
	CommentsAndLikes  *bool      `mapstructure:"comments_and_likes_enabled"`
	ShareWith         []rawShare `mapstructure:"share_with"`
	Inherit           *bool      `mapstructure:"inherit"`
	InheritProperties []string   `mapstructure:"inherit_properties"`
}

var knownKeys = map[string]bool{
	"override_name":              true,
	"description":                true,
	"thumbnail_setting":          true,
	"sort_order":                 true,
	"visibility":                 true,
	"archive":                    true,
	"comments_and_likes_enabled": true,
	"share_with":                 true,
	"inherit":                    true,
	"inherit_properties":         true,
}

// ParseDeclaration parses the content of a property file found in dir. An
// empty file yields a nil declaration.
func ParseDeclaration(dir string, data []byte) (*Declaration, error) {
	invalid := func(field string, err error) error {
		return &ValidationError{Directory: dir, Field: field, Err: err}
	}

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, invalid("", err)
	}
	if len(doc) == 0 {
		return nil, nil
	}

	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !knownKeys[k] {
			return nil, invalid(k, errors.New("unknown property"))
		}
	}

	var raw rawDeclaration
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused: true,
		Result:      &raw,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(doc); err != nil {
		return nil, invalid("", err)
	}

	decl := &Declaration{Directory: dir}
	p := &decl.Properties
	p.OverrideName = raw.OverrideName
	p.Description = raw.Description
	p.CommentsEnabled = raw.CommentsAndLikes

	if raw.ThumbnailSetting != nil {
		if err := ValidateThumbnail(*raw.ThumbnailSetting, false); err != nil {
			return nil, invalid(string(PropThumbnail), err)
		}
		p.Thumbnail = raw.ThumbnailSetting
	}
	if raw.SortOrder != nil {
		order, err := model.ParseSortOrder(*raw.SortOrder)
		if err != nil {
			return nil, invalid(string(PropSortOrder), err)
		}
		p.SortOrder = &order
	}
	if raw.Visibility != nil {
		v, err := model.ParseVisibility(*raw.Visibility)
		if err != nil {
			return nil, invalid(string(PropVisibility), err)
		}
		p.Visibility = &v
	}
	if raw.Archive != nil {
		log.Warnf("Found deprecated property archive in %s! This will be removed in the future, use visibility: archive instead!", dir)
		if p.Visibility == nil && *raw.Archive {
			v := model.VisibilityArchive
			p.Visibility = &v
		}
	}

	entries := make([]ShareEntry, 0, len(raw.ShareWith))
	for i, s := range raw.ShareWith {
		if s.User == "" {
			return nil, invalid(fmt.Sprintf("%s[%d].user", PropShareWith, i), errors.New("user is required"))
		}
		role, err := model.ParseRole(s.Role)
		if err != nil {
			return nil, invalid(fmt.Sprintf("%s[%d].role", PropShareWith, i), err)
		}
		entries = append(entries, ShareEntry{User: s.User, Role: role})
	}
	p.Shares = NewShareSet(entries...)

	if raw.Inherit != nil {
		decl.Inherit = *raw.Inherit
	}
	if raw.InheritProperties != nil {
		decl.InheritProperties = make([]Property, 0, len(raw.InheritProperties))
		for _, name := range raw.InheritProperties {
			prop, err := ParseProperty(name)
			if err != nil {
				return nil, invalid("inherit_properties", err)
			}
			decl.InheritProperties = append(decl.InheritProperties, prop)
		}
	}
	return decl, nil
}

// Store holds the declarations of every directory that has one, keyed by
// the cleaned directory path.
type Store struct {
	decls map[string]*Declaration
}

// NewStore builds a store from already parsed declarations.
func NewStore(decls ...*Declaration) *Store {
	s := &Store{decls: make(map[string]*Declaration, len(decls))}
	for _, d := range decls {
		s.decls[path.Clean(d.Directory)] = d
	}
	return s
}

// Lookup returns the declaration of dir, if any.
func (s *Store) Lookup(dir string) (*Declaration, bool) {
	d, ok := s.decls[path.Clean(dir)]
	return d, ok
}

// Len returns the number of declared directories.
func (s *Store) Len() int {
	return len(s.decls)
}

// Directories returns the declared directories in sorted order.
func (s *Store) Directories() []string {
	dirs := make([]string, 0, len(s.decls))
	for dir := range s.decls {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	return dirs
}

// LoadStore walks every root for property files. Files whose path is
// excluded by filter are skipped. Files that fail validation are returned
// as errors and leave their directory undeclared.
func LoadStore(roots Roots, filter *Filter) (*Store, []error) {
	s := NewStore()
	var problems []error
	for _, root := range roots {
		err := afero.Walk(fs, root, func(p string, info os.FileInfo, err error) error {
			if err != nil {
				log.WithError(err).WithField("path", p).Warn("Could not read directory")
				if info != nil && info.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if info.IsDir() || info.Name() != PropsFileName {
				return nil
			}
			p = filepath.ToSlash(p)
			if filter.PathIgnored(roots, p) {
				return nil
			}
			dir := path.Dir(p)
			if _, seen := s.decls[dir]; seen {
				return nil
			}
			data, err := afero.ReadFile(fs, p)
			if err != nil {
				problems = append(problems, &ValidationError{Directory: dir, Err: err})
				return nil
			}
			decl, err := ParseDeclaration(dir, data)
			if err != nil {
				problems = append(problems, err)
				return nil
			}
			if decl == nil {
				return nil
			}
			log.Debugf("Loaded %s from %s", PropsFileName, dir)
			s.decls[dir] = decl
			return nil
		})
		if err != nil {
			problems = append(problems, fmt.Errorf("walking %s: %w", root, err))
		}
	}
	return s, problems
}
