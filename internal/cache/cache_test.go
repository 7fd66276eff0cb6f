package cache

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func record(version, id string) Record {
	return Record{
		Name:      "Xtest",
		Version:   version,
		PackageID: id,
		Settings:  "os=Linux",
		Options:   "shared=False",
		Path:      "/tmp/package",
	}
}

func digestOf(s string) string {
	return digest.FromString(s).String()
}

func TestRegisterRejectsBadDigest(t *testing.T) {
	s := newTestStore(t)

	r := record("1.1.2", "abc")
	r.Digest = "sha256:nothex"
	_, err := s.Register(r)
	assert.Error(t, err)
}

func TestRegisterFillsDefaults(t *testing.T) {
	s := newTestStore(t)

	r, err := s.Register(record("1.1.2", "abc"))
	require.NoError(t, err)
	assert.Len(t, r.RunID, 36)
	assert.False(t, r.CreatedAt.IsZero())
	assert.Equal(t, "Xtest/1.1.2", r.Ref())

	_, err = s.Register(Record{Name: "Xtest"})
	assert.Error(t, err)
}

func TestRegisterReplaces(t *testing.T) {
	s := newTestStore(t)

	first := record("1.1.2", "abc")
	first.Digest = digestOf("a")
	_, err := s.Register(first)
	require.NoError(t, err)

	second := record("1.1.2", "abc")
	second.Digest = digestOf("b")
	_, err = s.Register(second)
	require.NoError(t, err)

	records, err := s.List("Xtest")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, digestOf("b"), records[0].Digest)
}

func TestListOrdersByVersion(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, v := range []string{"1.9.2", "1.10.0", "1.1.2"} {
		r := record(v, "abc")
		r.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		_, err := s.Register(r)
		require.NoError(t, err)
	}
	other := record("9.9.9", "abc")
	other.Name = "xmock"
	_, err := s.Register(other)
	require.NoError(t, err)

	records, err := s.List("Xtest")
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "1.10.0", records[0].Version)
	assert.Equal(t, "1.9.2", records[1].Version)
	assert.Equal(t, "1.1.2", records[2].Version)
	assert.Equal(t, base.Add(time.Minute), records[0].CreatedAt)

	latest, err := s.Latest("Xtest")
	require.NoError(t, err)
	assert.Equal(t, "1.10.0", latest.Version)

	all, err := s.List("")
	require.NoError(t, err)
	assert.Len(t, all, 4)

	_, err = s.Latest("missing")
	assert.Error(t, err)
}

func TestRemove(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Register(record("1.1.2", "abc"))
	require.NoError(t, err)

	removed, err := s.Remove("Xtest/1.1.2", "abc")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = s.Remove("Xtest/1.1.2", "abc")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestOpenOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cache.db")

	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.Register(record("1.1.2", "abc"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	records, err := s.List("Xtest")
	require.NoError(t, err)
	assert.Len(t, records, 1)
}
