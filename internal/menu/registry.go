package menu

import (
	"sort"
	"strings"
	"unicode"

	"github.com/atomicstack/kbconsole/internal/markup"
)

// Registry indexes a linked tree by slash-separated label paths such as
// "connect/change-lighting". The top of the tree has the empty path.
type Registry struct {
	root  *Item
	nodes map[string]*Item
}

// BuildRegistry links the tree and records every reachable item. When two
// siblings share a slug the first one wins.
func BuildRegistry(root *Item) *Registry {
	Link(root)
	nodes := map[string]*Item{"": root}
	var walk func(prefix string, parent *Item)
	walk = func(prefix string, parent *Item) {
		for _, child := range parent.Children() {
			id := joinPath(prefix, Slug(child.Label))
			if _, exists := nodes[id]; exists {
				continue
			}
			nodes[id] = child
			walk(id, child)
		}
	}
	walk("", root)
	return &Registry{root: root, nodes: nodes}
}

// Root returns the registry root item.
func (r *Registry) Root() *Item {
	return r.root
}

// Find locates an item by path. Leading and trailing slashes are ignored.
func (r *Registry) Find(path string) (*Item, bool) {
	item, ok := r.nodes[normalisePath(path)]
	return item, ok
}

// Child resolves a child under the given parent path for the provided key.
func (r *Registry) Child(parentPath, key string) (*Item, bool) {
	return r.Find(joinPath(normalisePath(parentPath), Slug(key)))
}

// Paths lists every indexed path in sorted order.
func (r *Registry) Paths() []string {
	paths := make([]string, 0, len(r.nodes))
	for id := range r.nodes {
		paths = append(paths, id)
	}
	sort.Strings(paths)
	return paths
}

// PathOf returns the registry path of item.
func (r *Registry) PathOf(item *Item) (string, bool) {
	for id, node := range r.nodes {
		if node == item {
			return id, true
		}
	}
	return "", false
}

// Slug lowercases the plain text of a label and joins its words with '-'.
func Slug(label string) string {
	parts := strings.FieldsFunc(strings.ToLower(markup.Plain(label)), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.Join(parts, "-")
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "/" + key
}

func normalisePath(path string) string {
	parts := strings.FieldsFunc(path, func(r rune) bool { return r == '/' })
	for i, part := range parts {
		parts[i] = Slug(part)
	}
	return strings.Join(parts, "/")
}

