package album

import (
	"path"
	"strings"

	log "github.com/sirupsen/logrus"
)

// node is a declared directory. parent indexes the nearest declared ancestor
// or is -1.
type node struct {
	decl   *Declaration
	parent int
}

type resolveKey struct {
	root string
	node int
}

// Resolver computes effective properties by walking declared directories from
// a root down to a target directory.
//
// A directory that declares inherit receives its ancestors' effective
// properties, restricted to its inherit_properties list, and overrides them
// with its own. A directory that does not declare inherit only carries its
// own properties, but those are still passed down to its descendants.
// Directories without a property file take over the effective properties of
// their nearest declared ancestor.
type Resolver struct {
	nodes []node
	index map[string]int
	cache map[resolveKey]Properties
}

// NewResolver builds the directory arena of a store.
func NewResolver(store *Store) *Resolver {
	r := &Resolver{
		index: make(map[string]int, store.Len()),
		cache: make(map[resolveKey]Properties),
	}
	dirs := store.Directories()
	for _, dir := range dirs {
		decl, _ := store.Lookup(dir)
		r.index[dir] = len(r.nodes)
		r.nodes = append(r.nodes, node{decl: decl, parent: -1})
	}
	for i := range r.nodes {
		r.nodes[i].parent = r.declaredAt(path.Dir(r.nodes[i].decl.Directory), "")
	}
	return r
}

// Directories returns the declared directories in sorted order.
func (r *Resolver) Directories() []string {
	dirs := make([]string, len(r.nodes))
	for i, n := range r.nodes {
		dirs[i] = path.Clean(n.decl.Directory)
	}
	return dirs
}

// declaredAt finds the nearest declared directory at or above dir, not
// leaving root. An empty root does not limit the walk.
func (r *Resolver) declaredAt(dir, root string) int {
	for {
		if root != "" && !inRoot(dir, root) {
			return -1
		}
		if i, ok := r.index[dir]; ok {
			return i
		}
		up := path.Dir(dir)
		if up == dir {
			return -1
		}
		dir = up
	}
}

func inRoot(dir, root string) bool {
	return dir == strings.TrimSuffix(root, "/") || strings.HasPrefix(dir, root)
}

// Resolve returns the effective properties of dir below root. ok is false
// when no declaration applies to the directory.
func (r *Resolver) Resolve(root, dir string) (props Properties, ok bool) {
	if !strings.HasSuffix(root, "/") {
		root += "/"
	}
	start := r.declaredAt(path.Clean(dir), root)
	if start < 0 {
		return Properties{}, false
	}
	key := resolveKey{root: root, node: start}
	if cached, hit := r.cache[key]; hit {
		return cached, true
	}

	// Collect the chain bottom-up, then apply it top-down.
	chain := []int{start}
	for cur := start; r.nodes[cur].decl.Inherit; {
		parent := r.nodes[cur].parent
		if parent < 0 || !inRoot(r.nodes[parent].decl.Directory, root) {
			break
		}
		chain = append(chain, parent)
		cur = parent
	}

	var acc Properties
	for i := len(chain) - 1; i >= 0; i-- {
		decl := r.nodes[chain[i]].decl
		if i == len(chain)-1 {
			acc = decl.Properties
			continue
		}
		acc = acc.Only(decl.InheritProperties).Overlay(decl.Properties)
	}
	log.Debugf("Inheritance chain for %s has %d levels: %s", dir, len(chain), acc)
	r.cache[key] = acc
	return acc, true
}
