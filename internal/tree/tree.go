// Package tree holds the navigational page tree built during a catalog
// crawl. Nodes mirror the site hierarchy (category, sub-category, product
// page); leaves are product pages. The tree is append-only during a build
// and supports a resumable depth-first traversal over its leaves.
package tree

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"biedronka/scraper/internal/domain"
)

var (
	// ErrBranchNotFound is returned by AddPage when the parent path does
	// not resolve. Pages must be added parent-before-child.
	ErrBranchNotFound = errors.New("branch does not exist")

	// ErrPathNotFound is returned when a lookup or resume marker path does
	// not resolve to an existing node.
	ErrPathNotFound = errors.New("path not found")

	// ErrDuplicateName is returned by AddPage when the parent already has a
	// child with the same name. Sibling names must be unique because path
	// lookup and resume descend by name.
	ErrDuplicateName = errors.New("duplicate sibling name")
)

// Node is a single page in the tree. Name and URL are fixed at creation;
// the absolute path is derived when the node is attached to its parent.
type Node struct {
	Name string
	URL  string

	absolutePath string
	children     []*Node
}

// AbsolutePath returns the slash-joined path from the root to this node.
// The root has an empty path.
func (n *Node) AbsolutePath() string { return n.absolutePath }

// Children returns the node's children in discovery order.
func (n *Node) Children() []*Node { return n.children }

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool { return len(n.children) == 0 }

func (n *Node) addChild(child *Node) {
	if n.absolutePath == "" {
		child.absolutePath = child.Name
	} else {
		child.absolutePath = n.absolutePath + "/" + child.Name
	}
	n.children = append(n.children, child)
}

func (n *Node) childByName(name string) *Node {
	for _, ch := range n.children {
		if ch.Name == name {
			return ch
		}
	}
	return nil
}

// Tree is an ordered, named tree of pages rooted at a sentinel node with an
// empty name and URL.
type Tree struct {
	root *Node
}

// New returns an empty tree containing only the sentinel root.
func New() *Tree {
	return &Tree{root: &Node{}}
}

// Root returns the sentinel root node.
func (t *Tree) Root() *Node { return t.root }

// AddPage attaches a new page under the node at parentPath (empty string for
// the root) and returns it. The parent must already exist and must not have
// a child with the same name.
func (t *Tree) AddPage(parentPath, name, url string) (*Node, error) {
	parent, err := t.lookup(parentPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrBranchNotFound, parentPath)
	}

	if parent.childByName(name) != nil {
		return nil, fmt.Errorf("%w: %q under %q", ErrDuplicateName, name, parentPath)
	}

	child := &Node{Name: name, URL: url}
	parent.addChild(child)
	return child, nil
}

// Lookup resolves an absolute path to its node by descending from the root
// and matching one name per segment.
func (t *Tree) Lookup(path string) (*Node, error) {
	node, err := t.lookup(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrPathNotFound, path)
	}
	return node, nil
}

func (t *Tree) lookup(path string) (*Node, error) {
	node := t.root
	if path == "" {
		return node, nil
	}
	for _, part := range strings.Split(path, "/") {
		node = node.childByName(part)
		if node == nil {
			return nil, ErrPathNotFound
		}
	}
	return node, nil
}

// DepthFirstLeavesAfter walks the tree pre-order, left to right in insertion
// order, and calls visit for every leaf. When resumeAfter is non-empty, all
// leaves up to and including the one at that path are skipped and visiting
// starts with the next leaf in traversal order. An unresolvable resumeAfter
// fails with ErrPathNotFound before any leaf is visited.
func (t *Tree) DepthFirstLeavesAfter(visit func(*Node), resumeAfter string) error {
	var marker *Node
	if resumeAfter != "" {
		var err error
		marker, err = t.Lookup(resumeAfter)
		if err != nil {
			return err
		}
	}

	passedMarker := marker == nil

	var dfs func(*Node)
	dfs = func(n *Node) {
		if n.IsLeaf() && n != t.root {
			if passedMarker {
				visit(n)
			} else if n == marker {
				passedMarker = true
			}
		}
		for _, ch := range n.children {
			dfs(ch)
		}
	}
	dfs(t.root)
	return nil
}

// Leaves returns all leaves after the given resume marker in traversal order.
func (t *Tree) Leaves(resumeAfter string) ([]*Node, error) {
	var leaves []*Node
	err := t.DepthFirstLeavesAfter(func(n *Node) {
		leaves = append(leaves, n)
	}, resumeAfter)
	if err != nil {
		return nil, err
	}
	return leaves, nil
}

// Categories walks the non-leaf levels of the tree and returns one
// name/parent pair per category or sub-category, in discovery order.
// Top-level categories have an empty parent.
func (t *Tree) Categories() []domain.CategoryPair {
	var pairs []domain.CategoryPair

	var walk func(n *Node, parentName string)
	walk = func(n *Node, parentName string) {
		for _, ch := range n.children {
			if ch.IsLeaf() {
				continue
			}
			pairs = append(pairs, domain.CategoryPair{Name: ch.Name, Parent: parentName})
			walk(ch, ch.Name)
		}
	}
	walk(t.root, "")
	return pairs
}

// nodeDoc is the on-disk shape of a node. The stored absolute_path is kept
// for downstream consumers but recomputed on load so hand-edited snapshots
// cannot corrupt path lookup.
type nodeDoc struct {
	Name         string    `json:"name"`
	URL          string    `json:"url"`
	AbsolutePath string    `json:"absolute_path"`
	Children     []nodeDoc `json:"children"`
}

func toDoc(n *Node) nodeDoc {
	doc := nodeDoc{
		Name:         n.Name,
		URL:          n.URL,
		AbsolutePath: n.absolutePath,
		Children:     make([]nodeDoc, 0, len(n.children)),
	}
	for _, ch := range n.children {
		doc.Children = append(doc.Children, toDoc(ch))
	}
	return doc
}

func fromDoc(doc nodeDoc) *Node {
	node := &Node{Name: doc.Name, URL: doc.URL}
	for _, ch := range doc.Children {
		node.addChild(fromDoc(ch))
	}
	return node
}

// Encode writes the whole tree as a nested JSON document.
func (t *Tree) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(toDoc(t.root)); err != nil {
		return fmt.Errorf("failed to encode tree: %w", err)
	}
	return nil
}

// Decode reads a tree previously written by Encode. Parent/child links and
// absolute paths are rebuilt from the nested structure.
func Decode(r io.Reader) (*Tree, error) {
	var doc nodeDoc
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode tree: %w", err)
	}
	return &Tree{root: fromDoc(doc)}, nil
}

// SaveFile writes the tree snapshot wholesale to the given path.
func (t *Tree) SaveFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create tree snapshot %s: %w", path, err)
	}
	defer f.Close()

	if err := t.Encode(f); err != nil {
		return err
	}
	return f.Close()
}

// LoadFile reads a tree snapshot from the given path.
func LoadFile(path string) (*Tree, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open tree snapshot %s: %w", path, err)
	}
	defer f.Close()

	return Decode(f)
}
