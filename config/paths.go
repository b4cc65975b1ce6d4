package config

import (
	"path"
	"path/filepath"
	"strings"
)

// .git/ file and directory names.
// Refs paths are kept in unix format since they must be stored this
// way inside the repository; callers are responsible for converting
// them to the current OS' path format when touching the filesystem.
const (
	refsDirName      = "refs"
	refsTagsRelPath  = refsDirName + "/tags"
	refsHeadsRelPath = refsDirName + "/heads"
)

// LocalTagFullName returns the full name of a tag.
// ex. for `my-tag` returns `refs/tags/my-tag`
func LocalTagFullName(shortName string) string {
	return path.Join(refsTagsRelPath, shortName)
}

// LocalTagShortName returns the short name of a tag.
// ex. for `refs/tags/my-tag` returns `my-tag`
func LocalTagShortName(fullName string) string {
	return strings.TrimPrefix(fullName, refsTagsRelPath+"/")
}

// LocalBranchFullName returns the full name of a branch.
// ex. for `main` returns `refs/heads/main`
func LocalBranchFullName(shortName string) string {
	return path.Join(refsHeadsRelPath, shortName)
}

// LocalBranchShortName returns the short name of a branch.
// ex. for `refs/heads/main` returns `main`
func LocalBranchShortName(fullName string) string {
	return strings.TrimPrefix(fullName, refsHeadsRelPath+"/")
}

// RefFullName returns the unix path of a ref relative to the git dir.
func RefFullName(shortName string) string {
	return path.Join("refs", shortName)
}

// RefsPath returns the path to the directory that contains all the refs
func (cfg *Config) RefsPath() string {
	return filepath.Join(cfg.GitDirPath, filepath.FromSlash(refsDirName))
}

// TagsPath returns the path to the directory that contains the tags
func (cfg *Config) TagsPath() string {
	return filepath.Join(cfg.GitDirPath, filepath.FromSlash(refsTagsRelPath))
}

// BranchesPath returns the path to the directory containing the
// local branches
func (cfg *Config) BranchesPath() string {
	return filepath.Join(cfg.GitDirPath, filepath.FromSlash(refsHeadsRelPath))
}

// HeadPath returns the path of the HEAD file
func (cfg *Config) HeadPath() string {
	return filepath.Join(cfg.GitDirPath, "HEAD")
}

// ObjectsInfoPath returns the path to the directory that contains
// info about the objects
func (cfg *Config) ObjectsInfoPath() string {
	return filepath.Join(cfg.ObjectDirPath, "info")
}

// ObjectsPacksPath returns the path to the directory that contains
// the packfiles
func (cfg *Config) ObjectsPacksPath() string {
	return filepath.Join(cfg.ObjectDirPath, "pack")
}

// ConfigPath returns the path to the local config file
func (cfg *Config) ConfigPath() string {
	return cfg.LocalConfig
}

// DescriptionFilePath returns the path to the description file
func (cfg *Config) DescriptionFilePath() string {
	return filepath.Join(cfg.GitDirPath, "description")
}

// LooseObjectPath returns the path of a loose object.
// Path is .git/objects/first_2_chars_of_sha/remaining_chars_of_sha
//
// Ex. path of fcfe68a0e44e04bd7fd564fc0b75f1ae457e18b3 is:
// .git/objects/fc/fe68a0e44e04bd7fd564fc0b75f1ae457e18b3
func (cfg *Config) LooseObjectPath(sha string) string {
	return filepath.Join(cfg.ObjectDirPath, sha[:2], sha[2:])
}
