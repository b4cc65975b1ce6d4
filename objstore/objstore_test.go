package objstore_test

import (
	"testing"

	"github.com/jaredkent/gitgo/object"
	"github.com/jaredkent/gitgo/objstore"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadRoundTrip(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	store := objstore.New(fs, "/repo/.git/objects")

	blob := object.New(object.TypeBlob, []byte("hello\n"))
	oid, err := store.Write(blob)
	require.NoError(t, err)
	assert.Equal(t, blob.ID(), oid)

	assert.True(t, store.Exists(oid))

	read, err := store.Read(oid)
	require.NoError(t, err)
	assert.Equal(t, object.TypeBlob, read.Type())
	assert.Equal(t, []byte("hello\n"), read.Bytes())
}

func TestWriteIsIdempotent(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	store := objstore.New(fs, "/repo/.git/objects")

	blob := object.New(object.TypeBlob, []byte("1234\n"))
	oid1, err := store.Write(blob)
	require.NoError(t, err)
	oid2, err := store.Write(blob)
	require.NoError(t, err)
	assert.Equal(t, oid1, oid2)
}

func TestKnownBlobSHAs(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	store := objstore.New(fs, "/repo/.git/objects")

	testCases := []struct {
		content  string
		expected string
	}{
		{content: "1234\n", expected: "81c545efebe5f57d4cab2ba9ec294c4b0cadf672"},
		{content: "4321\n", expected: "79ed404b9b839e31ab01724a986c7d67218c1471"},
		{content: "", expected: "e69de29bb2d1d6434b8b29ae775ad8c2e48c5391"},
	}
	for _, tc := range testCases {
		tc := tc
		t.Run(tc.expected, func(t *testing.T) {
			t.Parallel()

			blob := object.New(object.TypeBlob, []byte(tc.content))
			oid, err := store.Write(blob)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, oid.String())
		})
	}
}

func TestReadRejectsOversizedObject(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	store := objstore.New(fs, "/repo/.git/objects")

	blob := object.New(object.TypeBlob, []byte("this content is way past the bound"))
	oid, err := store.Write(blob)
	require.NoError(t, err)

	// a fresh store so the write-time cache can't serve the read
	bounded := objstore.New(fs, "/repo/.git/objects")
	bounded.MaxObjectSize = 8

	_, err = bounded.Read(oid)
	require.Error(t, err)
	assert.ErrorIs(t, err, objstore.ErrObjectTooLarge)
}

func TestReadNotFound(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	store := objstore.New(fs, "/repo/.git/objects")

	oid, err := object.NewOidFromStr("000000000000000000000000000000000000000a")
	require.NoError(t, err)

	_, err = store.Read(oid)
	require.Error(t, err)
	assert.ErrorIs(t, err, objstore.ErrObjectNotFound)
	assert.False(t, store.Exists(oid))
}

func TestResolve(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	store := objstore.New(fs, "/repo/.git/objects")

	blob := object.New(object.TypeBlob, []byte("1234\n"))
	oid, err := store.Write(blob)
	require.NoError(t, err)

	t.Run("unique prefix resolves", func(t *testing.T) {
		t.Parallel()
		got, err := store.Resolve(oid.String()[:6])
		require.NoError(t, err)
		assert.Equal(t, oid, got)
	})

	t.Run("prefix too short is rejected", func(t *testing.T) {
		t.Parallel()
		_, err := store.Resolve(oid.String()[:3])
		require.Error(t, err)
		assert.ErrorIs(t, err, objstore.ErrPrefixTooShort)
	})

	t.Run("unknown prefix is not found", func(t *testing.T) {
		t.Parallel()
		_, err := store.Resolve("ffffffff")
		require.Error(t, err)
		assert.ErrorIs(t, err, objstore.ErrObjectNotFound)
	})

	t.Run("ambiguous prefix is rejected", func(t *testing.T) {
		t.Parallel()

		other := object.New(object.TypeBlob, []byte("4321\n"))
		otherOid, err := store.Write(other)
		require.NoError(t, err)

		// find the shortest common prefix between the two oids, if any,
		// to exercise ambiguity; otherwise just assert both resolve fine
		// on their own unique prefixes.
		a, b := oid.String(), otherOid.String()
		common := 0
		for common < len(a) && a[common] == b[common] {
			common++
		}
		if common >= 4 {
			_, err := store.Resolve(a[:common])
			require.Error(t, err)
			assert.ErrorIs(t, err, objstore.ErrAmbiguousPrefix)
		}
	})
}
