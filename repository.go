// Package git ties the object store, the refs store and the staging
// index together into a single repository boundary, the way the
// command dispatcher expects to find them.
package git

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/jaredkent/gitgo/config"
	"github.com/jaredkent/gitgo/env"
	"github.com/jaredkent/gitgo/identity"
	"github.com/jaredkent/gitgo/index"
	"github.com/jaredkent/gitgo/internal/gitpath"
	"github.com/jaredkent/gitgo/object"
	"github.com/jaredkent/gitgo/objstore"
	"github.com/jaredkent/gitgo/refs"
	"github.com/spf13/afero"
	"golang.org/x/xerrors"
)

// ErrRepositoryNotExist is returned when Open can't find a HEAD file
// at the resolved git directory.
var ErrRepositoryNotExist = errors.New("repository does not exist")

// Repository is the explicit context threaded through every
// operation: it owns the loose-object store, the refs store, and
// knows how to load/persist the staging index.
type Repository struct {
	Config  *config.Config
	Objects *objstore.Store
	Refs    *refs.Store

	fs afero.Fs
}

// Open loads an existing repository from an already-resolved config.
// It does not itself walk up the directory tree; that discovery
// happens in config.LoadConfig.
func Open(cfg *config.Config) (*Repository, error) {
	r := newRepository(cfg)
	if _, err := cfg.FS.Stat(cfg.HeadPath()); err != nil {
		if os.IsNotExist(err) {
			return nil, ErrRepositoryNotExist
		}
		return nil, xerrors.Errorf("could not check repository at %s: %w", cfg.GitDirPath, err)
	}
	return r, nil
}

func newRepository(cfg *config.Config) *Repository {
	return &Repository{
		Config:  cfg,
		Objects: objstore.New(cfg.FS, cfg.ObjectDirPath),
		Refs:    refs.NewStore(cfg.FS, cfg.GitDirPath),
		fs:      cfg.FS,
	}
}

// InitOptions controls Init's behavior.
type InitOptions struct {
	// InitialBranchName overrides the name of the branch HEAD will
	// point to. Defaults to refs.Master.
	InitialBranchName string
}

// Init creates, or reinitializes, a repository at the location
// described by cfg: it creates the skeleton directories, HEAD, a
// minimal config and a description file, the way `git init` does. It
// never overwrites a ref or config value that's already on disk.
// wasReinit reports whether a repository already existed at this
// location.
func Init(cfg *config.Config, opts InitOptions) (r *Repository, wasReinit bool, err error) {
	fs := cfg.FS

	if _, statErr := fs.Stat(cfg.HeadPath()); statErr == nil {
		wasReinit = true
	}

	dirs := []string{
		cfg.ObjectDirPath,
		cfg.BranchesPath(),
		cfg.TagsPath(),
		filepath.Join(cfg.GitDirPath, "branches"),
	}
	for _, d := range dirs {
		if mkErr := fs.MkdirAll(d, 0o750); mkErr != nil {
			return nil, wasReinit, xerrors.Errorf("could not create directory %s: %w", d, mkErr)
		}
	}

	branch := opts.InitialBranchName
	if branch == "" {
		branch = refs.Master
	}

	r = newRepository(cfg)
	if !wasReinit {
		head := refs.NewSymbolicReference(refs.Head, config.LocalBranchFullName(branch))
		if setErr := r.Refs.Set(head); setErr != nil {
			return nil, wasReinit, xerrors.Errorf("could not write HEAD: %w", setErr)
		}
	}

	if _, statErr := fs.Stat(cfg.DescriptionFilePath()); os.IsNotExist(statErr) {
		desc := []byte("Unnamed repository; edit this file 'description' to name the repository.\n")
		if writeErr := afero.WriteFile(fs, cfg.DescriptionFilePath(), desc, 0o644); writeErr != nil {
			return nil, wasReinit, xerrors.Errorf("could not write description file: %w", writeErr)
		}
	}

	if !wasReinit {
		if saveErr := cfg.Files().Save(); saveErr != nil {
			return nil, wasReinit, xerrors.Errorf("could not persist default config: %w", saveErr)
		}
	}

	return r, wasReinit, nil
}

// HeadRev returns the SHA HEAD currently resolves to, following
// symbolic indirection. ok is false when the branch HEAD
// points at hasn't been committed to yet (no `fatal:`, this is the
// normal state of a freshly initialized repository).
func (r *Repository) HeadRev() (oid object.Oid, ok bool, err error) {
	ref, err := r.Refs.Get(refs.Head)
	if err != nil {
		if errors.Is(err, refs.ErrRefNotFound) {
			return object.NullOid, false, nil
		}
		return object.NullOid, false, err
	}
	return ref.Target(), true, nil
}

// headTarget returns the ref name HEAD currently points to, and
// whether it is a symbolic reference. For a detached HEAD (pointing
// directly at an oid) it returns "HEAD" itself, so AdvanceHead then
// rewrites HEAD with the new oid.
func (r *Repository) headTarget() (target string, symbolic bool, err error) {
	data, err := afero.ReadFile(r.fs, r.Config.HeadPath())
	if err != nil {
		return "", false, xerrors.Errorf("could not read HEAD: %w", err)
	}
	data = trimNewline(data)
	const symbolicPrefix = "ref: "
	if len(data) > len(symbolicPrefix) && string(data[:len(symbolicPrefix)]) == symbolicPrefix {
		return string(data[len(symbolicPrefix):]), true, nil
	}
	return refs.Head, false, nil
}

func trimNewline(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == ' ') {
		b = b[:len(b)-1]
	}
	return b
}

// AdvanceHead writes oid to whichever ref HEAD currently resolves
// through, creating that ref if it doesn't exist yet (the common case
// the first time a branch is committed to).
func (r *Repository) AdvanceHead(oid object.Oid) error {
	target, _, err := r.headTarget()
	if err != nil {
		return err
	}
	return r.Refs.Set(refs.NewReference(target, oid))
}

// GetObject reads the object named by oid from the loose-object store.
func (r *Repository) GetObject(oid object.Oid) (*object.Object, error) {
	return r.Objects.Read(oid)
}

// WriteObject persists o to the loose-object store, returning its oid.
func (r *Repository) WriteObject(o *object.Object) (object.Oid, error) {
	return r.Objects.Write(o)
}

// GetReference resolves name (following any symbolic indirection)
// through the refs store.
func (r *Repository) GetReference(name string) (*refs.Reference, error) {
	return r.Refs.Get(name)
}

// ResolveAuthor resolves the identity to record as a new commit's
// author, consulting the environment then the repository's config.
func (r *Repository) ResolveAuthor(e *env.Env) (identity.Identity, error) {
	return identity.ResolveAuthor(e, r.Config.Files())
}

// ResolveCommitter resolves the identity to record as a new commit's
// committer, consulting the environment then the repository's config.
func (r *Repository) ResolveCommitter(e *env.Env) (identity.Identity, error) {
	return identity.ResolveCommitter(e, r.Config.Files())
}

// LoadIndex reads and parses the staging index. A repository that has
// never staged anything has no index file yet; that's not an error,
// it just yields an empty Index.
func (r *Repository) LoadIndex() (*index.Index, error) {
	f, err := r.fs.Open(r.indexPath())
	if err != nil {
		if os.IsNotExist(err) {
			return index.New(), nil
		}
		return nil, xerrors.Errorf("could not open index: %w", err)
	}
	defer f.Close() //nolint:errcheck // read-only handle, nothing to recover

	idx, err := index.Parse(f)
	if err != nil {
		return nil, xerrors.Errorf("could not parse index: %w", err)
	}
	return idx, nil
}

// SaveIndex serialises idx to a temporary file in .git/ and atomically
// renames it over the existing index, the same temp-then-rename pattern
// objstore.Store.Write uses for objects.
func (r *Repository) SaveIndex(idx *index.Index) error {
	lockPath := r.indexPath() + ".lock"
	f, err := r.fs.Create(lockPath)
	if err != nil {
		return xerrors.Errorf("could not create index lock: %w", err)
	}
	if err := idx.Write(f); err != nil {
		f.Close() //nolint:errcheck // best effort cleanup below
		_ = r.fs.Remove(lockPath)
		return xerrors.Errorf("could not write index: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = r.fs.Remove(lockPath)
		return xerrors.Errorf("could not close index lock: %w", err)
	}
	if err := r.fs.Rename(lockPath, r.indexPath()); err != nil {
		return xerrors.Errorf("could not persist index: %w", err)
	}
	return nil
}

func (r *Repository) indexPath() string {
	return filepath.Join(r.Config.GitDirPath, gitpath.IndexPath)
}

// WorkTreePath returns the absolute path to the root of the working
// tree, empty for a bare repository.
func (r *Repository) WorkTreePath() string {
	return r.Config.WorkTreePath
}

// FS returns the filesystem implementation backing both the working
// tree and the .git directory.
func (r *Repository) FS() afero.Fs {
	return r.fs
}
