package index

import (
	"bytes"
	"sort"
	"strconv"
	"strings"

	"github.com/jaredkent/gitgo/internal/readutil"
	"github.com/jaredkent/gitgo/object"
	"golang.org/x/xerrors"
)

// cacheTreeNode is one directory node of the TREE extension forest.
// The root node represents the empty path.
type cacheTreeNode struct {
	name string

	// entryCount is the number of blobs recursively under this node.
	// -1 means the node is INVALID and must be recomputed.
	entryCount int
	oid        object.Oid

	children map[string]*cacheTreeNode
	order    []string // never populated; children are ordered by sortedChildNames
}

func newCacheTreeNode(name string) *cacheTreeNode {
	return &cacheTreeNode{
		name:       name,
		entryCount: -1,
		children:   map[string]*cacheTreeNode{},
	}
}

// subtreeCount returns the number of immediate subdirectories
func (n *cacheTreeNode) subtreeCount() int {
	return len(n.children)
}

func (n *cacheTreeNode) valid() bool {
	return n.entryCount >= 0
}

func (n *cacheTreeNode) sortedChildNames() []string {
	names := make([]string, 0, len(n.children))
	for name := range n.children {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// splitPath breaks a relative path into its segments. The root path
// ("") has zero segments.
func splitPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

// dirOf returns the directory component of an index entry path,
// "" for a top-level file.
func dirOf(path string) string {
	idx := strings.LastIndexByte(path, '/')
	if idx < 0 {
		return ""
	}
	return path[:idx]
}

// CacheTree is the in-memory forest backing the TREE extension
type CacheTree struct {
	root *cacheTreeNode
}

func newCacheTree() *CacheTree {
	return &CacheTree{root: newCacheTreeNode("")}
}

// ensurePath returns the node at path, creating it (and its ancestors) as
// INVALID stubs if missing. Returns whether any node was created.
func (t *CacheTree) ensurePath(path string) (*cacheTreeNode, bool) {
	node := t.root
	created := false
	for _, seg := range splitPath(path) {
		child, ok := node.children[seg]
		if !ok {
			child = newCacheTreeNode(seg)
			node.children[seg] = child
			created = true
		}
		node = child
	}
	return node, created
}

// lookup returns the node at path if it exists
func (t *CacheTree) lookup(path string) (*cacheTreeNode, bool) {
	node := t.root
	for _, seg := range splitPath(path) {
		child, ok := node.children[seg]
		if !ok {
			return nil, false
		}
		node = child
	}
	return node, true
}

// removeNode detaches the node at path from its parent. Removing the
// root or a missing node is a no-op.
func (t *CacheTree) removeNode(path string) {
	segments := splitPath(path)
	if len(segments) == 0 {
		return
	}
	parent, ok := t.lookup(dirOf(path))
	if !ok {
		return
	}
	delete(parent.children, segments[len(segments)-1])
}

// invalidate marks the node at path, and every ancestor up to the
// root, INVALID. Missing nodes along the way are created as stubs.
func (t *CacheTree) invalidate(path string) {
	node := t.root
	node.entryCount = -1
	for _, seg := range splitPath(path) {
		child, ok := node.children[seg]
		if !ok {
			child = newCacheTreeNode(seg)
			node.children[seg] = child
		}
		child.entryCount = -1
		node = child
	}
}

// allDirs returns every directory path (including "") present as a
// node in the tree.
func (t *CacheTree) allDirs() []string {
	var out []string
	var walk func(path string, n *cacheTreeNode)
	walk = func(path string, n *cacheTreeNode) {
		out = append(out, path)
		for _, name := range n.sortedChildNames() {
			child := path + "/" + name
			if path == "" {
				child = name
			}
			walk(child, n.children[name])
		}
	}
	walk("", t.root)
	return out
}

// invalidDirs returns the paths of every existing node currently
// INVALID.
func (t *CacheTree) invalidDirs() []string {
	var out []string
	for _, p := range t.allDirs() {
		n, _ := t.lookup(p)
		if !n.valid() {
			out = append(out, p)
		}
	}
	return out
}

// serialize encodes the TREE extension payload: a preorder walk of
// the forest, root first, where each node writes
// "<path>\0<entry_count> <subtree_count>\n" followed by its 20-byte
// raw oid when entry_count >= 0 (an INVALID node has no oid to write).
// The path is the component relative to the parent node, the way git
// writes it; the root's component is the empty string.
func (t *CacheTree) serialize() []byte {
	buf := new(bytes.Buffer)
	var walk func(n *cacheTreeNode)
	walk = func(n *cacheTreeNode) {
		buf.WriteString(n.name)
		buf.WriteByte(0)
		buf.WriteString(strconv.Itoa(n.entryCount))
		buf.WriteByte(' ')
		buf.WriteString(strconv.Itoa(n.subtreeCount()))
		buf.WriteByte('\n')
		if n.valid() {
			buf.Write(n.oid.Bytes())
		}
		for _, name := range n.sortedChildNames() {
			walk(n.children[name])
		}
	}
	walk(t.root)
	return buf.Bytes()
}

// parseCacheTree decodes a TREE extension payload back into a forest.
// Children are recreated purely from the preorder walk: a node's
// subtreeCount tells us how many of the following serialised nodes
// are its direct children (transitively, via their own subtreeCount).
func parseCacheTree(data []byte) (*CacheTree, error) {
	offset := 0

	var readNode func() (*cacheTreeNode, string, error)
	readNode = func() (*cacheTreeNode, string, error) {
		pathBytes := readutil.ReadTo(data[offset:], 0)
		if pathBytes == nil {
			return nil, "", xerrors.Errorf("unterminated path: %w", ErrCorruptIndex)
		}
		// git stores the component relative to the parent node, but
		// some writers store the full path; keep only the last segment
		p := string(pathBytes)
		offset += len(pathBytes) + 1 // +1 for the NUL

		line := readutil.ReadTo(data[offset:], '\n')
		if line == nil {
			return nil, "", xerrors.Errorf("missing counts line for %q: %w", p, ErrCorruptIndex)
		}
		offset += len(line) + 1 // +1 for the \n

		fields := bytes.SplitN(line, []byte(" "), 2)
		if len(fields) != 2 {
			return nil, "", xerrors.Errorf("malformed counts line for %q: %w", p, ErrCorruptIndex)
		}
		entryCount, err := strconv.Atoi(string(fields[0]))
		if err != nil {
			return nil, "", xerrors.Errorf("invalid entry_count for %q: %w", p, ErrCorruptIndex)
		}
		subtreeCount, err := strconv.Atoi(string(fields[1]))
		if err != nil {
			return nil, "", xerrors.Errorf("invalid subtree_count for %q: %w", p, ErrCorruptIndex)
		}

		name := p
		if i := strings.LastIndexByte(p, '/'); i >= 0 {
			name = p[i+1:]
		}
		node := newCacheTreeNode(name)
		node.entryCount = entryCount

		if entryCount >= 0 {
			if offset+20 > len(data) {
				return nil, "", xerrors.Errorf("truncated oid for %q: %w", p, ErrCorruptIndex)
			}
			oid, err := object.NewOidFromHex(data[offset : offset+20])
			if err != nil {
				return nil, "", xerrors.Errorf("invalid oid for %q: %w", p, err)
			}
			node.oid = oid
			offset += 20
		}

		for i := 0; i < subtreeCount; i++ {
			child, _, err := readNode()
			if err != nil {
				return nil, "", err
			}
			node.children[child.name] = child
		}

		return node, p, nil
	}

	root, _, err := readNode()
	if err != nil {
		return nil, err
	}
	if offset != len(data) {
		return nil, xerrors.Errorf("trailing bytes in TREE extension: %w", ErrCorruptIndex)
	}
	return &CacheTree{root: root}, nil
}

// updateTreeEntry stamps a freshly written tree's oid into the node at
// path and recounts its entryCount from the given blob count and the
// sum of its (already valid) child subtree entry counts.
func (t *CacheTree) updateTreeEntry(path string, oid object.Oid, blobCount int) {
	node, _ := t.ensurePath(path)

	total := blobCount
	for _, name := range node.sortedChildNames() {
		total += node.children[name].entryCount
	}
	node.entryCount = total
	node.oid = oid
}
