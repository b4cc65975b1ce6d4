package refs

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"golang.org/x/xerrors"
)

// Store reads and writes references under a .git directory.
type Store struct {
	fs   afero.Fs
	root string
}

// NewStore returns a Store rooted at the given .git directory
func NewStore(fs afero.Fs, gitDirPath string) *Store {
	return &Store{fs: fs, root: gitDirPath}
}

// systemPath returns a path from a ref name
// Ex.: On windows refs/heads/master would return refs\heads\master
func (s *Store) systemPath(name string) string {
	if os.PathSeparator == '/' {
		return filepath.Join(s.root, name)
	}
	return filepath.Join(s.root, filepath.FromSlash(name))
}

// Get returns a stored reference from its name, following symbolic
// references. ErrRefNotFound is returned if the reference doesn't exist.
func (s *Store) Get(name string) (*Reference, error) {
	finder := func(name string) ([]byte, error) {
		data, err := afero.ReadFile(s.fs, s.systemPath(name))
		if err != nil {
			if os.IsNotExist(err) {
				return nil, xerrors.Errorf(`ref "%s": %w`, name, ErrRefNotFound)
			}
			return nil, xerrors.Errorf("could not read reference content: %w", err)
		}
		return data, nil
	}
	return Resolve(name, finder)
}

// Set writes the given reference on disk. If the reference already
// exists it is overwritten.
func (s *Store) Set(ref *Reference) error {
	if !IsRefNameValid(ref.Name()) {
		return ErrRefNameInvalid
	}

	content := ""
	switch ref.Type() {
	case SymbolicReference:
		content = fmt.Sprintf("ref: %s\n", ref.SymbolicTarget())
	case OidReference:
		content = fmt.Sprintf("%s\n", ref.Target().String())
	default:
		return xerrors.Errorf("reference type %d: %w", ref.Type(), ErrUnknownRefType)
	}

	p := s.systemPath(ref.Name())
	if err := s.fs.MkdirAll(filepath.Dir(p), 0o750); err != nil {
		return xerrors.Errorf("could not create directory for reference %s: %w", ref.Name(), err)
	}
	if err := afero.WriteFile(s.fs, p, []byte(content), 0o644); err != nil {
		return xerrors.Errorf("could not persist reference to disk: %w", err)
	}
	return nil
}

// SetSafe writes the given reference, returning ErrRefExists if a
// reference with the same name is already present on disk.
func (s *Store) SetSafe(ref *Reference) error {
	if !IsRefNameValid(ref.Name()) {
		return ErrRefNameInvalid
	}

	p := s.systemPath(ref.Name())
	_, err := s.fs.Stat(p)
	if err == nil {
		return ErrRefExists
	}
	if !os.IsNotExist(err) {
		return xerrors.Errorf("could not check if reference exists on disk: %w", err)
	}

	return s.Set(ref)
}
