package repo_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Atsuko87/ccnx-sub001/repo"
)

func openTestStore(t *testing.T) *repo.Store {
	t.Helper()
	s, err := repo.OpenStore(filepath.Join(t.TempDir(), "badger"))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, s.Close()) })
	return s
}

func TestStorePutGetExact(t *testing.T) {
	s := openTestStore(t)
	n := mustName(t, "/docs/readme")

	require.NoError(t, s.Put(n, []byte("hello")))

	wire, found, err := s.Get(n, false)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []byte("hello"), wire)
}

func TestStoreGetExactMissing(t *testing.T) {
	s := openTestStore(t)
	_, found, err := s.Get(mustName(t, "/nope"), false)
	require.NoError(t, err)
	require.False(t, found)
}

func TestStoreGetPrefixPicksLexicographicallyLast(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Put(mustName(t, "/docs/readme/%FD%00"), []byte("v1")))
	require.NoError(t, s.Put(mustName(t, "/docs/readme/%FD%02"), []byte("v2")))

	wire, found, err := s.Get(mustName(t, "/docs/readme"), true)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []byte("v2"), wire)
}

func TestStoreRemove(t *testing.T) {
	s := openTestStore(t)
	n := mustName(t, "/docs/readme")
	require.NoError(t, s.Put(n, []byte("hello")))
	require.NoError(t, s.Remove(n))

	_, found, err := s.Get(n, false)
	require.NoError(t, err)
	require.False(t, found)
}

func TestStoreChildren(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Put(mustName(t, "/docs/a"), []byte("1")))
	require.NoError(t, s.Put(mustName(t, "/docs/b"), []byte("2")))
	require.NoError(t, s.Put(mustName(t, "/docs/b/nested"), []byte("3")))

	children, err := s.Children(mustName(t, "/docs"))
	require.NoError(t, err)

	var names []string
	for _, c := range children {
		names = append(names, c.String())
	}
	require.ElementsMatch(t, []string{"a", "b"}, names)
}
