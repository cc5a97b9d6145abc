package manifest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/standardbeagle/fuzzyhash/internal/config"
	fherrors "github.com/standardbeagle/fuzzyhash/internal/errors"
	"github.com/standardbeagle/fuzzyhash/pkg/fuzzyhash"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0644))
	}
	return root
}

func TestBuild(t *testing.T) {
	root := writeTree(t, map[string]string{
		"hello.txt":        "Hello, World!",
		"nested/a.txt":     "a",
		"nested/deep/b.md": "abc",
		"empty.txt":        "",
		".git/config":      "[core]",
	})

	m, err := Build(context.Background(), root, BuildOptions{
		Include: []string{"**"},
		Exclude: []string{"**/.git/**"},
		Workers: 2,
	})
	require.NoError(t, err)

	paths := make([]string, 0, len(m.Entries))
	for _, e := range m.Entries {
		paths = append(paths, e.Path)
	}
	assert.Equal(t, []string{"empty.txt", "hello.txt", "nested/a.txt", "nested/deep/b.md"}, paths)

	idx := m.Index()
	assert.Equal(t, "fuzzy_3ecbf53b", idx["hello.txt"].Digest)
	assert.Equal(t, int64(13), idx["hello.txt"].Size)
	assert.Equal(t, "fuzzy_00000013", idx["nested/a.txt"].Digest)
	assert.Equal(t, "fuzzy_0b6bba5d", idx["nested/deep/b.md"].Digest)
	assert.Equal(t, "", idx["empty.txt"].Digest)
	assert.Equal(t, int64(0), idx["empty.txt"].Size)

	assert.Equal(t, "fuzzy", m.Algorithm)
	assert.Equal(t, FormatVersion, m.Version)
}

func TestBuild_IncludeFilter(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.txt":     "a",
		"b.json":    "{}",
		"sub/c.txt": "c",
	})

	m, err := Build(context.Background(), root, BuildOptions{Include: []string{"**/*.txt"}})
	require.NoError(t, err)
	require.Len(t, m.Entries, 2)
	assert.Equal(t, "a.txt", m.Entries[0].Path)
	assert.Equal(t, "sub/c.txt", m.Entries[1].Path)
}

func TestBuild_SkipsLargeFiles(t *testing.T) {
	root := writeTree(t, map[string]string{
		"small.txt": "ok",
		"large.bin": strings.Repeat("x", 100),
	})

	m, err := Build(context.Background(), root, BuildOptions{MaxFileSize: 10})
	require.NoError(t, err)
	require.Len(t, m.Entries, 1)
	assert.Equal(t, "small.txt", m.Entries[0].Path)
}

func TestBuild_MissingRoot(t *testing.T) {
	_, err := Build(context.Background(), filepath.Join(t.TempDir(), "nope"), BuildOptions{})
	require.Error(t, err)

	var fe *fherrors.FileError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, fherrors.ErrorTypeFileNotFound, fe.Type)
}

func TestBuild_Cancelled(t *testing.T) {
	root := writeTree(t, map[string]string{"a.txt": "a", "b.txt": "b"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Build(ctx, root, BuildOptions{Workers: 1})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	root := writeTree(t, map[string]string{
		"hello.txt": "Hello, World!",
		"empty.txt": "",
	})

	m, err := Build(context.Background(), root, BuildOptions{})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "fuzzyhash.toml")
	require.NoError(t, m.Save(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "[[entry]]")
	assert.Contains(t, string(raw), "fuzzy_3ecbf53b")

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, m.Entries, loaded.Entries)
	assert.Equal(t, m.Root, loaded.Root)
	assert.True(t, m.Created.Equal(loaded.Created))
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		toml string
	}{
		{"wrong algorithm", "version = 1\nalgorithm = \"sha256\"\n"},
		{"future version", "version = 9\nalgorithm = \"fuzzy\"\n"},
		{"bad digest", "version = 1\nalgorithm = \"fuzzy\"\n[[entry]]\npath = \"a\"\nsize = 1\ndigest = \"fuzzy_XYZ\"\n"},
		{"escaping path", "version = 1\nalgorithm = \"fuzzy\"\n[[entry]]\npath = \"../a\"\nsize = 1\ndigest = \"fuzzy_00000013\"\n"},
		{"absolute path", "version = 1\nalgorithm = \"fuzzy\"\n[[entry]]\npath = \"/etc/passwd\"\nsize = 1\ndigest = \"fuzzy_00000013\"\n"},
		{"duplicate", "version = 1\nalgorithm = \"fuzzy\"\n[[entry]]\npath = \"a\"\nsize = 1\ndigest = \"fuzzy_00000013\"\n[[entry]]\npath = \"a\"\nsize = 1\ndigest = \"fuzzy_00000013\"\n"},
		{"missing digest", "version = 1\nalgorithm = \"fuzzy\"\n[[entry]]\npath = \"a\"\nsize = 4\n"},
		{"not toml", "this is = = not toml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "m.toml")
			require.NoError(t, os.WriteFile(path, []byte(tt.toml), 0644))

			_, err := Load(path)
			require.Error(t, err)

			var me *fherrors.ManifestError
			assert.True(t, errors.As(err, &me), "got %T: %v", err, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	var fe *fherrors.FileError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, fherrors.ErrorTypeFileNotFound, fe.Type)
}

func TestCheck(t *testing.T) {
	root := writeTree(t, map[string]string{
		"keep.txt":   "unchanged",
		"change.txt": "before",
		"gone.txt":   "soon deleted",
		"empty.txt":  "",
	})

	m, err := Build(context.Background(), root, BuildOptions{})
	require.NoError(t, err)

	results, err := Check(context.Background(), root, m, 4)
	require.NoError(t, err)
	s := Summarize(results)
	assert.Equal(t, Summary{Total: 4, OK: 4}, s)
	assert.False(t, s.Failed())

	require.NoError(t, os.WriteFile(filepath.Join(root, "change.txt"), []byte("after"), 0644))
	require.NoError(t, os.Remove(filepath.Join(root, "gone.txt")))
	require.NoError(t, os.WriteFile(filepath.Join(root, "empty.txt"), []byte("now full"), 0644))

	results, err = Check(context.Background(), root, m, 4)
	require.NoError(t, err)

	byPath := make(map[string]CheckResult)
	for _, r := range results {
		byPath[r.Path] = r
	}
	assert.Equal(t, StatusOK, byPath["keep.txt"].Status)
	assert.Equal(t, StatusMismatch, byPath["change.txt"].Status)
	assert.Equal(t, fuzzyhash.Format(mustSum(t, "after")), byPath["change.txt"].Actual)
	assert.Equal(t, StatusMissing, byPath["gone.txt"].Status)
	assert.Equal(t, StatusMismatch, byPath["empty.txt"].Status, "empty record no longer matches")

	s = Summarize(results)
	assert.Equal(t, Summary{Total: 4, OK: 1, Mismatch: 2, Missing: 1}, s)
	assert.True(t, s.Failed())
}

func TestCheckFile_EmptyAgainstDigest(t *testing.T) {
	root := writeTree(t, map[string]string{"a.txt": ""})

	r := CheckFile(root, Entry{Path: "a.txt", Size: 1, Digest: "fuzzy_00000013"})
	assert.Equal(t, StatusMismatch, r.Status)
	assert.False(t, r.OK())
}

func TestCheckFile_Directory(t *testing.T) {
	root := writeTree(t, map[string]string{"dir/a.txt": "a"})

	r := CheckFile(root, Entry{Path: "dir", Size: 1, Digest: "fuzzy_00000013"})
	assert.Equal(t, StatusError, r.Status)
	assert.NotEmpty(t, r.Error)
}

func TestBuildOptions_Matches(t *testing.T) {
	opts := BuildOptions{
		Include: []string{"**/*.txt", "docs/**"},
		Exclude: []string{"**/tmp/**"},
	}

	assert.True(t, opts.Matches("a.txt"))
	assert.True(t, opts.Matches("x/y/z.txt"))
	assert.True(t, opts.Matches("docs/readme.md"))
	assert.False(t, opts.Matches("main.go"))
	assert.False(t, opts.Matches("tmp/a.txt"))
	assert.False(t, opts.Matches("x/tmp/a.txt"))

	assert.True(t, BuildOptions{}.Matches("anything/at/all"))
}

func mustSum(t *testing.T, s string) uint32 {
	t.Helper()
	h, err := fuzzyhash.Sum32String(s)
	require.NoError(t, err)
	return h
}

func TestOptionsForRoot_Gitignore(t *testing.T) {
	root := writeTree(t, map[string]string{
		".gitignore":    "*.log\nbuild/\n",
		"keep.txt":      "keep",
		"debug.log":     "noise",
		"build/out.bin": "binary",
	})

	cfg := config.Default().Manifest
	opts, err := OptionsForRoot(cfg, root)
	require.NoError(t, err)

	m, err := Build(context.Background(), root, opts)
	require.NoError(t, err)
	idx := m.Index()
	assert.Contains(t, idx, "keep.txt")
	assert.Contains(t, idx, ".gitignore")
	assert.NotContains(t, idx, "debug.log")
	assert.NotContains(t, idx, "build/out.bin")

	cfg.RespectGitignore = false
	opts, err = OptionsForRoot(cfg, root)
	require.NoError(t, err)
	assert.Equal(t, config.Default().Manifest.Exclude, opts.Exclude)

	m, err = Build(context.Background(), root, opts)
	require.NoError(t, err)
	assert.Len(t, m.Entries, 4)
}

func TestBuild_SkipsOutputManifest(t *testing.T) {
	root := writeTree(t, map[string]string{
		"keep.txt":      "keep",
		"sums.toml":     "stale manifest",
		"sub/sums.toml": "not the output",
	})

	opts := BuildOptions{Skip: []string{"sums.toml"}}
	assert.False(t, opts.Matches("sums.toml"))
	assert.True(t, opts.Matches("sub/sums.toml"))

	m, err := Build(context.Background(), root, opts)
	require.NoError(t, err)
	require.NoError(t, m.Save(filepath.Join(root, "sums.toml")))

	m, err = Build(context.Background(), root, opts)
	require.NoError(t, err)
	idx := m.Index()
	assert.NotContains(t, idx, "sums.toml")
	assert.Contains(t, idx, "sub/sums.toml")
	assert.Len(t, m.Entries, 2)

	loaded, err := Load(filepath.Join(root, "sums.toml"))
	require.NoError(t, err)
	results, err := Check(context.Background(), root, loaded, 2)
	require.NoError(t, err)
	assert.False(t, Summarize(results).Failed())
}

func TestBuildOptions_WorkerCount(t *testing.T) {
	assert.Equal(t, 3, BuildOptions{Workers: 3}.WorkerCount())
	assert.GreaterOrEqual(t, BuildOptions{}.WorkerCount(), 1)
	assert.GreaterOrEqual(t, BuildOptions{Workers: -2}.WorkerCount(), 1)
}

func TestCheckData(t *testing.T) {
	r := CheckData(Entry{Path: "a.txt", Digest: "fuzzy_00000013"}, []byte("a"))
	assert.Equal(t, StatusOK, r.Status)
	assert.Equal(t, "fuzzy_00000013", r.Actual)
	assert.Empty(t, r.Error)

	r = CheckData(Entry{Path: "a.txt", Digest: "fuzzy_00000013"}, []byte("abc"))
	assert.Equal(t, StatusMismatch, r.Status)
	assert.Equal(t, "fuzzy_0b6bba5d", r.Actual)
	assert.Empty(t, r.Error)

	r = CheckData(Entry{Path: "empty.txt"}, nil)
	assert.Equal(t, StatusOK, r.Status)
	assert.Empty(t, r.Actual)
}
