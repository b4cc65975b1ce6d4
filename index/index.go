// Package index implements the binary DIRC v2 staging index: the
// list of staged paths with their stat-cache metadata, and the TREE
// (cache-tree) extension that lets write-tree skip unchanged
// subtrees. See the on-disk layout at
// https://git-scm.com/docs/index-format
package index

import (
	"bytes"
	"crypto/sha1" //nolint:gosec // the index checksum is contractually SHA-1
	"encoding/binary"
	"errors"
	"io"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jaredkent/gitgo/internal/readutil"
	"github.com/jaredkent/gitgo/object"
	"golang.org/x/xerrors"
)

const (
	headerMagic   = "DIRC"
	headerVersion = 2
	headerSize    = 12
	entryFixedLen = 62
	checksumLen   = 20
	extTagTree    = "TREE"
	maxNameLen    = 0xFFF
)

// ErrCorruptIndex is returned when the index file is truncated, has
// an invalid magic/version, or fails its trailing checksum.
var ErrCorruptIndex = errors.New("corrupt index")

// ErrUnsupportedExtension is returned when the index contains a
// mandatory (uppercase-tagged) extension this implementation doesn't
// understand.
var ErrUnsupportedExtension = errors.New("unsupported index extension")

// Index represents the staging area: every entry that will make up
// the next commit's tree, plus the cache-tree bookkeeping that lets
// write-tree avoid re-hashing unchanged directories.
type Index struct {
	byPath map[string]*Entry
	tree   *CacheTree
}

// New returns an empty Index.
func New() *Index {
	return &Index{
		byPath: map[string]*Entry{},
		tree:   newCacheTree(),
	}
}

// Entries returns the index entries, sorted byte-lexicographically by
// path, the order Git always stores and emits them in.
func (idx *Index) Entries() []*Entry {
	out := make([]*Entry, 0, len(idx.byPath))
	for _, e := range idx.byPath {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Get returns the entry at path, if staged.
func (idx *Index) Get(p string) (*Entry, bool) {
	e, ok := idx.byPath[p]
	return e, ok
}

// AddEntry inserts or replaces the entry at e.Path, then invalidates
// every ancestor cache-tree node up to the root so write-tree knows
// to recompute them.
func (idx *Index) AddEntry(e *Entry) {
	idx.byPath[e.Path] = e
	idx.tree.invalidate(dirOf(e.Path))
}

// RemoveEntry erases the entry at path, if present, then invalidates
// every ancestor cache-tree node up to the root. Cache-tree nodes left
// without any staged entry or subtree are pruned so a later WriteTrees
// never embeds a stale oid for a directory that no longer exists.
func (idx *Index) RemoveEntry(p string) {
	if _, ok := idx.byPath[p]; !ok {
		return
	}
	delete(idx.byPath, p)
	idx.tree.invalidate(dirOf(p))
	idx.pruneEmptyDirs(dirOf(p))
}

// pruneEmptyDirs walks from dir up to the root, removing each
// cache-tree node that has neither subtrees nor staged entries under
// it. It stops at the first non-empty ancestor (the root is never
// removed).
func (idx *Index) pruneEmptyDirs(dir string) {
	for dir != "" {
		node, ok := idx.tree.lookup(dir)
		if ok && (node.subtreeCount() > 0 || idx.dirHasEntries(dir)) {
			return
		}
		if ok {
			idx.tree.removeNode(dir)
		}
		dir = dirOf(dir)
	}
}

// dirHasEntries returns whether any staged entry lives under dir,
// at any depth.
func (idx *Index) dirHasEntries(dir string) bool {
	prefix := dir + "/"
	for p := range idx.byPath {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return false
}

// CacheTree returns the index's cache-tree forest.
func (idx *Index) CacheTree() *CacheTree {
	return idx.tree
}

// GetBlobs returns the tree entries for every staged path whose
// parent directory is exactly dir.
func (idx *Index) GetBlobs(dir string) []object.TreeEntry {
	var out []object.TreeEntry
	for _, e := range idx.Entries() {
		if dirOf(e.Path) != dir {
			continue
		}
		out = append(out, object.TreeEntry{
			Path: baseName(e.Path),
			Mode: object.TreeObjectMode(e.Mode),
			ID:   e.Oid,
		})
	}
	return out
}

// GetSubtrees returns the tree entries for every immediate child
// directory of dir currently present in the cache-tree. Callers must
// only invoke this once those children have already been written
// (bottom-up), so their oid is valid.
func (idx *Index) GetSubtrees(dir string) []object.TreeEntry {
	node, ok := idx.tree.lookup(dir)
	if !ok {
		return nil
	}
	var out []object.TreeEntry
	for _, name := range node.sortedChildNames() {
		child := node.children[name]
		out = append(out, object.TreeEntry{
			Path: name,
			Mode: object.ModeDirectory,
			ID:   child.oid,
		})
	}
	return out
}

// dirSet returns every directory path (including "", the root)
// referenced by the current entries, along with all of its ancestors.
func (idx *Index) dirSet() []string {
	set := map[string]struct{}{"": {}}
	for _, e := range idx.byPath {
		d := dirOf(e.Path)
		for {
			if _, ok := set[d]; ok {
				break
			}
			set[d] = struct{}{}
			if d == "" {
				break
			}
			d = dirOf(d)
		}
	}
	out := make([]string, 0, len(set))
	for d := range set {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// TreesToAddOrUpdate returns the directories write-tree has work to do
// on: newDirs is every directory referenced by the index that has no
// cache-tree node yet, dirsToUpdate is every existing node currently
// INVALID. Both are returned in path order.
func (idx *Index) TreesToAddOrUpdate() (newDirs, dirsToUpdate []string) {
	for _, d := range idx.dirSet() {
		node, ok := idx.tree.lookup(d)
		if !ok {
			newDirs = append(newDirs, d)
			continue
		}
		if !node.valid() {
			dirsToUpdate = append(dirsToUpdate, d)
		}
	}
	return newDirs, dirsToUpdate
}

// ObjectWriter is the subset of objstore.Store the cache-tree engine
// needs to materialise tree objects.
type ObjectWriter interface {
	Write(o *object.Object) (object.Oid, error)
}

// WriteTrees recomputes every invalid (or missing) cache-tree node
// bottom-up, writing a tree object for each through store, and stamps
// the result back into the cache-tree. It returns the oid of the root
// tree. Re-running WriteTrees with no staged mutations writes nothing
// and returns the already-cached root oid.
func (idx *Index) WriteTrees(store ObjectWriter) (object.Oid, error) {
	newDirs, dirsToUpdate := idx.TreesToAddOrUpdate()
	for _, d := range newDirs {
		idx.tree.ensurePath(d)
	}

	dirty := make([]string, 0, len(newDirs)+len(dirsToUpdate))
	dirty = append(dirty, newDirs...)
	dirty = append(dirty, dirsToUpdate...)
	sort.Strings(dirty)
	// deepest directories must be written before their parents, since
	// a parent tree embeds its children's oids. A directory's path is
	// always a strict prefix of its descendants', so reversing an
	// ascending sort puts children first; SliceStable keeps sibling
	// order for directories at the same depth.
	sort.SliceStable(dirty, func(i, j int) bool { return dirty[i] > dirty[j] })

	for _, d := range dirty {
		blobs := idx.GetBlobs(d)
		subs := idx.GetSubtrees(d)
		entries := make([]object.TreeEntry, 0, len(blobs)+len(subs))
		entries = append(entries, blobs...)
		entries = append(entries, subs...)
		object.SortEntries(entries)

		tree := object.NewTree(entries)
		oid, err := store.Write(tree.ToObject())
		if err != nil {
			return object.NullOid, xerrors.Errorf("could not write tree for %q: %w", d, err)
		}
		idx.tree.updateTreeEntry(d, oid, len(blobs))
	}

	root, ok := idx.tree.lookup("")
	if !ok || !root.valid() {
		return object.NullOid, xerrors.Errorf("root cache-tree node was not computed: %w", ErrCorruptIndex)
	}
	return root.oid, nil
}

// dirOf and baseName both operate on unix-style "/" separated index
// paths, regardless of the host OS.
func baseName(p string) string {
	if i := strings.LastIndexByte(p, '/'); i >= 0 {
		return p[i+1:]
	}
	return p
}

// Parse reads a DIRC v2 index from r, validating the header, every
// entry, the TREE extension if present, and the trailing checksum.
func Parse(r io.Reader) (*Index, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, xerrors.Errorf("could not read index: %w", err)
	}
	if len(raw) < headerSize+checksumLen {
		return nil, xerrors.Errorf("index too short: %w", ErrCorruptIndex)
	}

	body, sum := raw[:len(raw)-checksumLen], raw[len(raw)-checksumLen:]
	expected := sha1.Sum(body) //nolint:gosec
	if !bytes.Equal(sum, expected[:]) {
		return nil, xerrors.Errorf("checksum mismatch: %w", ErrCorruptIndex)
	}

	if string(body[0:4]) != headerMagic {
		return nil, xerrors.Errorf("bad magic %q: %w", body[0:4], ErrCorruptIndex)
	}
	version := binary.BigEndian.Uint32(body[4:8])
	if version != headerVersion {
		return nil, xerrors.Errorf("unsupported version %d: %w", version, ErrCorruptIndex)
	}
	count := binary.BigEndian.Uint32(body[8:12])

	idx := New()
	offset := headerSize
	for i := uint32(0); i < count; i++ {
		e, consumed, err := decodeEntry(body[offset:])
		if err != nil {
			return nil, xerrors.Errorf("entry %d: %w", i, err)
		}
		idx.byPath[e.Path] = e
		offset += consumed
	}

	for offset+8 <= len(body) {
		tag := string(body[offset : offset+4])
		size := binary.BigEndian.Uint32(body[offset+4 : offset+8])
		offset += 8
		if offset+int(size) > len(body) {
			return nil, xerrors.Errorf("extension %q truncated: %w", tag, ErrCorruptIndex)
		}
		payload := body[offset : offset+int(size)]
		offset += int(size)

		switch tag {
		case extTagTree:
			tree, err := parseCacheTree(payload)
			if err != nil {
				return nil, xerrors.Errorf("could not parse TREE extension: %w", err)
			}
			idx.tree = tree
		default:
			if tag[0] >= 'A' && tag[0] <= 'Z' {
				return nil, xerrors.Errorf("extension %q: %w", tag, ErrUnsupportedExtension)
			}
			// unknown optional (lowercase-tagged) extension: ignored
		}
	}

	return idx, nil
}

// Write serialises the index (entries in path order, then the TREE
// extension, then the trailing checksum) to w.
func (idx *Index) Write(w io.Writer) error {
	buf := new(bytes.Buffer)

	header := make([]byte, headerSize)
	copy(header[0:4], headerMagic)
	binary.BigEndian.PutUint32(header[4:8], headerVersion)
	entries := idx.Entries()
	binary.BigEndian.PutUint32(header[8:12], uint32(len(entries)))
	buf.Write(header)

	for _, e := range entries {
		buf.Write(encodeEntry(e))
	}

	treePayload := idx.tree.serialize()
	extHeader := make([]byte, 8)
	copy(extHeader[0:4], extTagTree)
	binary.BigEndian.PutUint32(extHeader[4:8], uint32(len(treePayload)))
	buf.Write(extHeader)
	buf.Write(treePayload)

	sum := sha1.Sum(buf.Bytes()) //nolint:gosec
	buf.Write(sum[:])

	_, err := w.Write(buf.Bytes())
	if err != nil {
		return xerrors.Errorf("could not write index: %w", err)
	}
	return nil
}

// encodeEntry serialises a single entry: its 62-byte fixed prefix,
// its NUL-terminated name, and enough extra NUL padding that the
// total entry length is a multiple of 8.
func encodeEntry(e *Entry) []byte {
	fixed := make([]byte, entryFixedLen)
	binary.BigEndian.PutUint32(fixed[0:4], e.CtimeSec)
	binary.BigEndian.PutUint32(fixed[4:8], e.CtimeNano)
	binary.BigEndian.PutUint32(fixed[8:12], e.MtimeSec)
	binary.BigEndian.PutUint32(fixed[12:16], e.MtimeNano)
	binary.BigEndian.PutUint32(fixed[16:20], e.Dev)
	binary.BigEndian.PutUint32(fixed[20:24], e.Ino)
	binary.BigEndian.PutUint32(fixed[24:28], e.Mode)
	binary.BigEndian.PutUint32(fixed[28:32], e.UID)
	binary.BigEndian.PutUint32(fixed[32:36], e.GID)
	binary.BigEndian.PutUint32(fixed[36:40], e.Size)
	copy(fixed[40:60], e.Oid.Bytes())
	binary.BigEndian.PutUint16(fixed[60:62], e.flags())

	name := []byte(e.Path)
	consumed := entryFixedLen + len(name)
	padding := 8 - (consumed % 8)
	if padding == 0 {
		padding = 8
	}

	out := make([]byte, 0, consumed+padding)
	out = append(out, fixed...)
	out = append(out, name...)
	out = append(out, make([]byte, padding)...)
	return out
}

// decodeEntry parses a single entry starting at the beginning of b,
// returning the entry and the number of bytes consumed.
func decodeEntry(b []byte) (*Entry, int, error) {
	if len(b) < entryFixedLen {
		return nil, 0, xerrors.Errorf("truncated entry: %w", ErrCorruptIndex)
	}
	e := &Entry{
		CtimeSec:  binary.BigEndian.Uint32(b[0:4]),
		CtimeNano: binary.BigEndian.Uint32(b[4:8]),
		MtimeSec:  binary.BigEndian.Uint32(b[8:12]),
		MtimeNano: binary.BigEndian.Uint32(b[12:16]),
		Dev:       binary.BigEndian.Uint32(b[16:20]),
		Ino:       binary.BigEndian.Uint32(b[20:24]),
		Mode:      binary.BigEndian.Uint32(b[24:28]),
		UID:       binary.BigEndian.Uint32(b[28:32]),
		GID:       binary.BigEndian.Uint32(b[32:36]),
		Size:      binary.BigEndian.Uint32(b[36:40]),
	}
	oid, err := object.NewOidFromHex(b[40:60])
	if err != nil {
		return nil, 0, xerrors.Errorf("invalid entry oid: %w", err)
	}
	e.Oid = oid

	flags := binary.BigEndian.Uint16(b[60:62])
	e.AssumeValid = flags&(1<<15) != 0
	e.Stage = uint8((flags >> 12) & 0x3)
	nameLen := int(flags & maxNameLen)

	rest := b[entryFixedLen:]
	var name []byte
	if nameLen == maxNameLen {
		name = readutil.ReadTo(rest, 0)
		if name == nil {
			return nil, 0, xerrors.Errorf("unterminated entry name: %w", ErrCorruptIndex)
		}
	} else {
		if len(rest) < nameLen {
			return nil, 0, xerrors.Errorf("truncated entry name: %w", ErrCorruptIndex)
		}
		name = rest[:nameLen]
	}
	e.Path = string(name)

	consumed := entryFixedLen + len(name)
	padding := 8 - (consumed % 8)
	if padding == 0 {
		padding = 8
	}
	total := consumed + padding
	if len(b) < total {
		return nil, 0, xerrors.Errorf("truncated entry padding: %w", ErrCorruptIndex)
	}
	return e, total, nil
}

// CleanPath normalises a working-tree-relative path to the unix-style
// form the index always stores, the way Git does regardless of host OS.
func CleanPath(p string) string {
	return path.Clean(filepath.ToSlash(p))
}
