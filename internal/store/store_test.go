package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokendex/tokendex/pkg/tokenizer"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(tokenizer.NewWordTokenizer(), Options{})
	require.NoError(t, err)
	return s
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func requireConsistent(t *testing.T, s *Store) {
	t.Helper()
	result := s.CheckConsistency()
	require.True(t, result.Consistent(), "inconsistencies: %v", result.Inconsistencies)
}

func TestStore_AddAndLookup(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a", "TEST\n")
	b := writeFile(t, dir, "b", "TEST\nTWO\n")

	s := newTestStore(t)
	s.AddFile(a)
	s.AddFile(b)

	assert.ElementsMatch(t, []string{a, b}, s.Lookup("TEST"))
	assert.Equal(t, []string{b}, s.Lookup("TWO"))
	assert.Empty(t, s.Lookup("NONE"))
	requireConsistent(t, s)
}

func TestStore_LookupReturnsFreshSlice(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a", "TOKEN\n")

	s := newTestStore(t)
	s.AddFile(a)

	first := s.Lookup("TOKEN")
	first[0] = "mutated"
	assert.Equal(t, []string{a}, s.Lookup("TOKEN"))
}

func TestStore_AddIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a", "ALPHA beta\n")

	s := newTestStore(t)
	s.AddFile(a)
	s.AddFile(a)

	assert.Equal(t, []string{a}, s.Lookup("ALPHA"))
	files, tokens := s.Stats()
	assert.Equal(t, 1, files)
	assert.Equal(t, 2, tokens)
	requireConsistent(t, s)
}

func TestStore_RemoveFileDropsTokensKeepsIdentity(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a", "GONE shared\n")
	b := writeFile(t, dir, "b", "shared\n")

	s := newTestStore(t)
	s.AddFile(a)
	s.AddFile(b)

	s.RemoveFile(a)

	assert.Empty(t, s.Lookup("GONE"), "last id leaving drops the token key")
	assert.Equal(t, []string{b}, s.Lookup("shared"))
	assert.False(t, s.Indexed(a))
	assert.True(t, s.Known(a), "FileID survives removal")
	requireConsistent(t, s)
}

func TestStore_RemoveUnknownIsNoop(t *testing.T) {
	s := newTestStore(t)
	s.RemoveFile("/never/seen")
	requireConsistent(t, s)
}

func TestStore_RemoveTwiceIsNoop(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a", "X\n")

	s := newTestStore(t)
	s.AddFile(a)
	s.RemoveFile(a)
	s.RemoveFile(a)
	requireConsistent(t, s)
}

func TestStore_ReindexSwapsTokenSets(t *testing.T) {
	dir := t.TempDir()
	f := writeFile(t, dir, "f", "UNMODIFIED\n")

	s := newTestStore(t)
	s.AddFile(f)
	require.Equal(t, []string{f}, s.Lookup("UNMODIFIED"))

	require.NoError(t, os.WriteFile(f, []byte("MODIFY\n"), 0o644))
	s.ReindexFile(f)

	assert.Equal(t, []string{f}, s.Lookup("MODIFY"))
	assert.Empty(t, s.Lookup("UNMODIFIED"))
	requireConsistent(t, s)
}

func TestStore_ReindexKeepsOverlap(t *testing.T) {
	dir := t.TempDir()
	f := writeFile(t, dir, "f", "keep drop\n")

	s := newTestStore(t)
	s.AddFile(f)

	require.NoError(t, os.WriteFile(f, []byte("keep new\n"), 0o644))
	s.ReindexFile(f)

	assert.Equal(t, []string{f}, s.Lookup("keep"))
	assert.Equal(t, []string{f}, s.Lookup("new"))
	assert.Empty(t, s.Lookup("drop"))
	requireConsistent(t, s)
}

func TestStore_ReindexUnchangedIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	f := writeFile(t, dir, "f", "STABLE content\n")

	s := newTestStore(t)
	s.AddFile(f)

	before := s.Lookup("STABLE")
	filesBefore, tokensBefore := s.Stats()

	s.ReindexFile(f)

	assert.Equal(t, before, s.Lookup("STABLE"))
	files, tokens := s.Stats()
	assert.Equal(t, filesBefore, files)
	assert.Equal(t, tokensBefore, tokens)
	requireConsistent(t, s)
}

func TestStore_ReindexUnknownPathActsAsAdd(t *testing.T) {
	dir := t.TempDir()
	f := writeFile(t, dir, "f", "FRESH\n")

	s := newTestStore(t)
	s.ReindexFile(f)

	assert.Equal(t, []string{f}, s.Lookup("FRESH"))
	requireConsistent(t, s)
}

func TestStore_MissingFileIndexedAsEmpty(t *testing.T) {
	s := newTestStore(t)
	s.AddFile("/does/not/exist")

	files, tokens := s.Stats()
	assert.Equal(t, 1, files, "registration is kept")
	assert.Equal(t, 0, tokens)
	requireConsistent(t, s)
}

func TestStore_OversizedFileIndexedAsEmpty(t *testing.T) {
	dir := t.TempDir()
	f := writeFile(t, dir, "big", "HUGE token payload\n")

	s, err := New(tokenizer.NewWordTokenizer(), Options{MaxFileSize: 4})
	require.NoError(t, err)
	s.AddFile(f)

	assert.Empty(t, s.Lookup("HUGE"))
	assert.True(t, s.Indexed(f))
}

func TestStore_RecreateAfterRemoveKeepsFileID(t *testing.T) {
	dir := t.TempDir()
	f := writeFile(t, dir, "g", "DELETE\n")

	s := newTestStore(t)
	s.AddFile(f)
	s.RemoveFile(f)

	require.NoError(t, os.WriteFile(f, []byte("RECREATE\n"), 0o644))
	s.AddFile(f)

	assert.Equal(t, []string{f}, s.Lookup("RECREATE"))
	assert.Empty(t, s.Lookup("DELETE"))
	requireConsistent(t, s)
}

func TestStore_IndexedUnder(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
	top := writeFile(t, dir, "top", "A\n")
	deep := writeFile(t, filepath.Join(dir, "sub"), "deep", "B\n")
	outside := writeFile(t, t.TempDir(), "other", "C\n")

	s := newTestStore(t)
	s.AddFile(top)
	s.AddFile(deep)
	s.AddFile(outside)

	assert.ElementsMatch(t, []string{top, deep}, s.IndexedUnder(dir))
	assert.Equal(t, []string{deep}, s.IndexedUnder(filepath.Join(dir, "sub")))
	assert.Empty(t, s.IndexedUnder(filepath.Join(dir, "nope")))
}

func TestStore_BinaryContentUsesAlnumRuns(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bin")
	require.NoError(t, os.WriteFile(path, []byte{0x00, 'A', 'B', 0xFF, '1', 0x07}, 0o644))

	s := newTestStore(t)
	s.AddFile(path)

	assert.Equal(t, []string{path}, s.Lookup("AB"))
	assert.Equal(t, []string{path}, s.Lookup("1"))
	requireConsistent(t, s)
}
