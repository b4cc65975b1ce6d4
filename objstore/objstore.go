// Package objstore implements the loose-object database stored under
// .git/objects: content-addressed read/write of git objects and
// short-SHA prefix resolution.
package objstore

import (
	"compress/zlib"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/jaredkent/gitgo/internal/cache"
	"github.com/jaredkent/gitgo/internal/errutil"
	"github.com/jaredkent/gitgo/internal/readutil"
	"github.com/jaredkent/gitgo/internal/syncutil"
	"github.com/jaredkent/gitgo/object"
	"github.com/spf13/afero"
	"golang.org/x/xerrors"
)

// MinPrefixLen is the shortest hex prefix Resolve will accept, mirroring
// upstream Git's abbreviation floor.
const MinPrefixLen = 4

// DefaultMaxObjectSize is the largest inflated size Read accepts for a
// single loose object. Inflating is bounded so a crafted object can't
// expand into all available memory.
const DefaultMaxObjectSize = 1<<31 - 1

var (
	// ErrObjectNotFound is returned when an oid/prefix matches no object
	ErrObjectNotFound = errors.New("object not found")
	// ErrAmbiguousPrefix is returned when a prefix matches more than one object
	ErrAmbiguousPrefix = errors.New("ambiguous object prefix")
	// ErrObjectCorrupt is returned when a loose object's content does not
	// match its declared header
	ErrObjectCorrupt = errors.New("corrupt object")
	// ErrObjectTooLarge is returned when a loose object inflates past the
	// store's maximum object size
	ErrObjectTooLarge = errors.New("object too large")
	// ErrPrefixTooShort is returned when a prefix shorter than MinPrefixLen
	// is given to Resolve
	ErrPrefixTooShort = errors.New("prefix too short")

	// defaultCacheSize bounds how many parsed objects are kept in memory
	defaultCacheSize = 256
)

// Store is a loose-object database rooted at a .git/objects directory
type Store struct {
	fs   afero.Fs
	root string

	// MaxObjectSize bounds the inflated size of a single object on
	// Read. Defaults to DefaultMaxObjectSize; change it before the
	// first Read.
	MaxObjectSize int64

	mu    *syncutil.NamedMutex
	cache *cache.LRU
}

// New returns a Store backed by the given filesystem, rooted at
// objectDirPath (typically .git/objects)
func New(fs afero.Fs, objectDirPath string) *Store {
	lru, err := cache.NewLRU(defaultCacheSize)
	if err != nil {
		// defaultCacheSize is positive, this can't happen
		panic(err)
	}
	return &Store{
		fs:            fs,
		root:          objectDirPath,
		MaxObjectSize: DefaultMaxObjectSize,
		mu:            syncutil.NewNamedMutex(64),
		cache:         lru,
	}
}

// path returns the on-disk path of a loose object given its hex oid
func (s *Store) path(hex string) string {
	return filepath.Join(s.root, hex[:2], hex[2:])
}

// Exists returns whether the given oid is present in the store
func (s *Store) Exists(oid object.Oid) bool {
	key := oid.Bytes()
	s.mu.RLock(key)
	defer s.mu.RUnlock(key)
	return s.existsUnsafe(oid)
}

func (s *Store) existsUnsafe(oid object.Oid) bool {
	_, err := s.fs.Stat(s.path(oid.String()))
	return err == nil
}

// Read returns the object matching the given oid
func (s *Store) Read(oid object.Oid) (o *object.Object, err error) {
	key := oid.Bytes()
	s.mu.RLock(key)
	defer s.mu.RUnlock(key)
	return s.readUnsafe(oid)
}

func (s *Store) readUnsafe(oid object.Oid) (o *object.Object, err error) {
	if cached, found := s.cache.Get(oid); found {
		if obj, ok := cached.(*object.Object); ok {
			return obj, nil
		}
	}

	hex := oid.String()
	p := s.path(hex)
	f, err := s.fs.Open(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, xerrors.Errorf("%s: %w", hex, ErrObjectNotFound)
		}
		return nil, xerrors.Errorf("could not open object %s: %w", hex, err)
	}
	defer errutil.Close(f, &err)

	zr, err := zlib.NewReader(f)
	if err != nil {
		return nil, xerrors.Errorf("could not inflate object %s: %w", hex, err)
	}
	defer errutil.Close(zr, &err)

	// read at most one byte past the bound so an oversized object is
	// detected without inflating the whole thing
	buf, err := io.ReadAll(io.LimitReader(zr, s.MaxObjectSize+1))
	if err != nil {
		return nil, xerrors.Errorf("could not read object %s: %w", hex, err)
	}
	if int64(len(buf)) > s.MaxObjectSize {
		return nil, xerrors.Errorf("%s inflates past %d bytes: %w", hex, s.MaxObjectSize, ErrObjectTooLarge)
	}

	o, err = parseLooseObject(buf)
	if err != nil {
		return nil, xerrors.Errorf("%s: %w", hex, err)
	}

	s.cache.Add(oid, o)
	return o, nil
}

// parseLooseObject parses the inflated "<type> <size>\0<payload>" stream
func parseLooseObject(buf []byte) (*object.Object, error) {
	pos := 0

	typ := readutil.ReadTo(buf, ' ')
	if typ == nil {
		return nil, xerrors.Errorf("could not find object type: %w", ErrObjectCorrupt)
	}
	oType, err := object.NewTypeFromString(string(typ))
	if err != nil {
		return nil, xerrors.Errorf("unsupported type %q: %w", string(typ), ErrObjectCorrupt)
	}
	pos += len(typ) + 1

	size := readutil.ReadTo(buf[pos:], 0)
	if size == nil {
		return nil, xerrors.Errorf("could not find object size: %w", ErrObjectCorrupt)
	}
	oSize, err := strconv.Atoi(string(size))
	if err != nil {
		return nil, xerrors.Errorf("invalid size %q: %w", string(size), ErrObjectCorrupt)
	}
	pos += len(size) + 1
	payload := buf[pos:]

	if len(payload) != oSize {
		return nil, xerrors.Errorf("declared size %d, got %d: %w", oSize, len(payload), ErrObjectCorrupt)
	}

	return object.New(oType, payload), nil
}

// Write persists the given object, short-circuiting if an object with
// the same oid is already present. Returns the object's oid.
func (s *Store) Write(o *object.Object) (oid object.Oid, err error) {
	oid = o.ID()
	key := oid.Bytes()
	s.mu.Lock(key)
	defer s.mu.Unlock(key)

	if s.existsUnsafe(oid) {
		return oid, nil
	}

	data, err := o.Compress()
	if err != nil {
		return object.NullOid, xerrors.Errorf("could not compress object: %w", err)
	}

	hex := oid.String()
	p := s.path(hex)
	dir := filepath.Dir(p)
	if err = s.fs.MkdirAll(dir, 0o755); err != nil {
		return object.NullOid, xerrors.Errorf("could not create directory %s: %w", dir, err)
	}

	tmp, err := afero.TempFile(s.fs, dir, "tmp_obj_")
	if err != nil {
		return object.NullOid, xerrors.Errorf("could not create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	if _, err = tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck // best effort cleanup below
		_ = s.fs.Remove(tmpName)
		return object.NullOid, xerrors.Errorf("could not write object %s: %w", hex, err)
	}
	if err = tmp.Close(); err != nil {
		_ = s.fs.Remove(tmpName)
		return object.NullOid, xerrors.Errorf("could not close object %s: %w", hex, err)
	}

	if err = s.fs.Rename(tmpName, p); err != nil {
		return object.NullOid, xerrors.Errorf("could not persist object %s: %w", hex, err)
	}
	if err = s.fs.Chmod(p, 0o444); err != nil {
		return object.NullOid, xerrors.Errorf("could not set permissions on object %s: %w", hex, err)
	}

	s.cache.Add(oid, o)
	return oid, nil
}

// Resolve returns the full oid matching the given hex prefix.
// prefix must be at least MinPrefixLen characters; it's an error if
// zero or more than one object matches.
func (s *Store) Resolve(prefix string) (object.Oid, error) {
	prefix = strings.ToLower(prefix)
	if len(prefix) < MinPrefixLen {
		return object.NullOid, xerrors.Errorf("prefix %q: %w", prefix, ErrPrefixTooShort)
	}
	if len(prefix) == 40 {
		oid, err := object.NewOidFromStr(prefix)
		if err != nil {
			return object.NullOid, err
		}
		if !s.Exists(oid) {
			return object.NullOid, xerrors.Errorf("prefix %q: %w", prefix, ErrObjectNotFound)
		}
		return oid, nil
	}

	shardName := prefix[:2]
	shardPath := filepath.Join(s.root, shardName)
	entries, err := afero.ReadDir(s.fs, shardPath)
	if err != nil {
		if os.IsNotExist(err) {
			return object.NullOid, xerrors.Errorf("prefix %q: %w", prefix, ErrObjectNotFound)
		}
		return object.NullOid, xerrors.Errorf("could not list %s: %w", shardPath, err)
	}

	rest := prefix[2:]
	matches := make([]string, 0, 2)
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), rest) {
			matches = append(matches, shardName+e.Name())
		}
	}

	switch len(matches) {
	case 0:
		return object.NullOid, xerrors.Errorf("prefix %q: %w", prefix, ErrObjectNotFound)
	case 1:
		return object.NewOidFromStr(matches[0])
	default:
		sort.Strings(matches)
		return object.NullOid, xerrors.Errorf("prefix %q matches %v: %w", prefix, matches, ErrAmbiguousPrefix)
	}
}
