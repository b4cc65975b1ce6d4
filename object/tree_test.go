package object_test

import (
	"testing"

	"github.com/jaredkent/gitgo/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func oidFor(t *testing.T, content string) object.Oid {
	t.Helper()
	o := object.New(object.TypeBlob, []byte(content))
	return o.ID()
}

func TestSortEntries(t *testing.T) {
	t.Parallel()

	// "foo" as a directory must sort after "foo" as a file but before
	// "foobar", since it compares as "foo/"
	entries := []object.TreeEntry{
		{Path: "foobar", Mode: object.ModeFile},
		{Path: "foo", Mode: object.ModeDirectory},
		{Path: "foo", Mode: object.ModeFile},
	}
	object.SortEntries(entries)

	require.Len(t, entries, 3)
	assert.Equal(t, "foo", entries[0].Path)
	assert.Equal(t, object.ModeFile, entries[0].Mode)
	assert.Equal(t, "foo", entries[1].Path)
	assert.Equal(t, object.ModeDirectory, entries[1].Mode)
	assert.Equal(t, "foobar", entries[2].Path)
}

func TestTreeToObjectAndBack(t *testing.T) {
	t.Parallel()

	fileID := oidFor(t, "1234\n")
	dirID := oidFor(t, "4321\n")

	entries := []object.TreeEntry{
		{Path: "test_file_1", Mode: object.ModeFile, ID: fileID},
		{Path: "test_dir", Mode: object.ModeDirectory, ID: dirID},
	}
	object.SortEntries(entries)

	tree := object.NewTree(entries)
	o := tree.ToObject()
	assert.Equal(t, object.TypeTree, o.Type())

	parsed, err := object.NewTreeFromObject(o)
	require.NoError(t, err)
	assert.Equal(t, entries, parsed.Entries())
	assert.Equal(t, tree.ID(), parsed.ID())
}

func TestNewTreeFromObjectRejectsWrongType(t *testing.T) {
	t.Parallel()

	o := object.New(object.TypeBlob, []byte("hello"))
	_, err := object.NewTreeFromObject(o)
	require.Error(t, err)
	assert.ErrorIs(t, err, object.ErrObjectInvalid)
}

func TestNewTreeFromObjectRejectsUnsupportedMode(t *testing.T) {
	t.Parallel()

	// 100664 is a valid octal string but not a mode git writes
	raw := append([]byte("100664 a.txt\x00"), make([]byte, 20)...)
	o := object.New(object.TypeTree, raw)
	_, err := object.NewTreeFromObject(o)
	require.Error(t, err)
	assert.ErrorIs(t, err, object.ErrTreeInvalid)
}

func TestNewTreeFromObjectRejectsTruncatedEntry(t *testing.T) {
	t.Parallel()

	// valid mode + name, but the trailing SHA is short
	raw := append([]byte("100644 a.txt\x00"), []byte{1, 2, 3}...)
	o := object.New(object.TypeTree, raw)
	_, err := object.NewTreeFromObject(o)
	require.Error(t, err)
	assert.ErrorIs(t, err, object.ErrTreeInvalid)
}
