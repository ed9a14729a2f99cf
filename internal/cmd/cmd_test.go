package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dendrascience/filecoder/mapping"
	"github.com/dendrascience/filecoder/util"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	root := NewRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func onlySnapshot(t *testing.T, dir, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	require.NoError(t, err)
	require.Len(t, matches, 1, "snapshots in %s: %v", dir, matches)
	return matches[0]
}

func TestEncode_FirstRunAndFollowUp(t *testing.T) {
	base := t.TempDir()
	src := filepath.Join(base, "images")
	dest := filepath.Join(base, "coded")
	snaps := filepath.Join(base, "snapshots")
	writeTree(t, src, map[string]string{
		"a.jpg":          "a",
		"day1/b.png":     "b",
		"day1/Thumbs.db": "junk",
	})

	stdout, _, err := execute(t, "encode", "-s", src, "-d", dest, "-l", "4", "--snapshot-dir", snaps)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Coding is finished.")
	assert.Contains(t, stdout, "Coded:      2 files")
	assert.Contains(t, stdout, "Excluded:   1 bookkeeping files")

	first := onlySnapshot(t, snaps, "mapping_*.csv")
	store, err := mapping.Load(first, nil)
	require.NoError(t, err)
	require.Equal(t, 2, store.Len())
	firstBytes, err := os.ReadFile(first)
	require.NoError(t, err)

	meta, err := mapping.LoadMetadata(first)
	require.NoError(t, err)
	assert.Equal(t, 2, meta.TotalEntryCount)
	assert.Equal(t, 4, meta.CodeLength)
	assert.Equal(t, "csv", meta.Format)

	src2 := filepath.Join(base, "more")
	dest2 := filepath.Join(base, "coded2")
	writeTree(t, src2, map[string]string{"c.tif": "c", "a.jpg": "another a"})

	_, _, err = execute(t, "encode", "-s", src2, "-d", dest2, "-l", "4", "--snapshot", first)
	require.NoError(t, err)

	after, err := os.ReadFile(first)
	require.NoError(t, err)
	assert.Equal(t, firstBytes, after, "the prior snapshot must not change")

	matches, err := filepath.Glob(filepath.Join(snaps, "mapping_*.csv"))
	require.NoError(t, err)
	require.Len(t, matches, 2)
	var second string
	for _, m := range matches {
		if m != first {
			second = m
		}
	}
	next, err := mapping.Load(second, nil)
	require.NoError(t, err)
	require.Equal(t, 4, next.Len())
	assert.Equal(t, store.Entries(), next.Entries()[:2])

	seen := map[string]bool{}
	for e := range next.Iterate {
		assert.False(t, seen[e.Code], "code %s issued twice", e.Code)
		seen[e.Code] = true
	}
}

func TestEncode_FormatFromFlag(t *testing.T) {
	base := t.TempDir()
	src := filepath.Join(base, "images")
	writeTree(t, src, map[string]string{"a.jpg": "a"})
	snaps := filepath.Join(base, "snapshots")

	_, _, err := execute(t, "encode", "-s", src, "-d", filepath.Join(base, "coded"), "-l", "3",
		"--snapshot-dir", snaps, "--format", "sqlite", "--workers", "2", "--verify")
	require.NoError(t, err)

	snap := onlySnapshot(t, snaps, "mapping_*.db")
	store, err := mapping.Load(snap, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, store.Len())
}

func TestEncode_RejectsOverlapBeforeIO(t *testing.T) {
	base := t.TempDir()
	src := filepath.Join(base, "images")
	writeTree(t, src, map[string]string{"a.jpg": "a"})

	_, _, err := execute(t, "encode", "-s", src, "-d", src, "-l", "4", "--snapshot-dir", filepath.Join(base, "snaps"))
	require.ErrorIs(t, err, util.ErrConfiguration)

	entries, err := os.ReadDir(src)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	_, err = os.Stat(filepath.Join(base, "snaps"))
	assert.True(t, os.IsNotExist(err))
}

func TestEncode_FailureWritesNoSnapshot(t *testing.T) {
	base := t.TempDir()
	src := filepath.Join(base, "images")
	snaps := filepath.Join(base, "snapshots")
	writeTree(t, src, map[string]string{"a.jpg": "a", "archive.tar.gz": "tgz"})

	stdout, _, err := execute(t, "encode", "-s", src, "-d", filepath.Join(base, "coded"), "-l", "4", "--snapshot-dir", snaps)
	require.ErrorIs(t, err, util.ErrConfiguration)
	assert.Contains(t, stdout, "no snapshot was written")

	matches, err := filepath.Glob(filepath.Join(snaps, "*"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

// openFDsFor lists descriptors of this process that point at path.
func openFDsFor(t *testing.T, path string) []string {
	t.Helper()
	fds, err := os.ReadDir("/proc/self/fd")
	if err != nil {
		t.Skipf("cannot list open files: %v", err)
	}
	var open []string
	for _, fd := range fds {
		target, err := os.Readlink(filepath.Join("/proc/self/fd", fd.Name()))
		if err == nil && target == path {
			open = append(open, fd.Name())
		}
	}
	return open
}

func TestLogFileClosedWhenCommandFails(t *testing.T) {
	base := t.TempDir()
	src := filepath.Join(base, "images")
	writeTree(t, src, map[string]string{"a.jpg": "a", "archive.tar.gz": "tgz"})
	logFile, err := filepath.EvalSymlinks(base)
	require.NoError(t, err)
	logFile = filepath.Join(logFile, "run.log")

	_, _, err = execute(t, "encode", "-s", src, "-d", filepath.Join(base, "coded"), "-l", "4",
		"--snapshot-dir", filepath.Join(base, "snapshots"), "--log-file", logFile)
	require.ErrorIs(t, err, util.ErrConfiguration)

	assert.Empty(t, openFDsFor(t, logFile))
	logged, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(logged), "coding aborted")
}

func TestEncode_SkipPolicy(t *testing.T) {
	base := t.TempDir()
	src := filepath.Join(base, "images")
	writeTree(t, src, map[string]string{"a.jpg": "a", "archive.tar.gz": "tgz"})

	stdout, _, err := execute(t, "encode", "-s", src, "-d", filepath.Join(base, "coded"), "-l", "4",
		"--snapshot-dir", filepath.Join(base, "snaps"), "--split-policy", "skip")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Skipped:    1 files")
	assert.Contains(t, stdout, "archive.tar.gz")
}

func encodeSample(t *testing.T) (dest, snap string) {
	t.Helper()
	base := t.TempDir()
	src := filepath.Join(base, "images")
	dest = filepath.Join(base, "coded")
	snaps := filepath.Join(base, "snapshots")
	writeTree(t, src, map[string]string{"a.jpg": "a", "b.png": "b"})
	_, _, err := execute(t, "encode", "-s", src, "-d", dest, "-l", "4", "--snapshot-dir", snaps)
	require.NoError(t, err)
	return dest, onlySnapshot(t, snaps, "mapping_*.csv")
}

func TestDecode(t *testing.T) {
	dest, snap := encodeSample(t)
	coded, err := os.ReadDir(dest)
	require.NoError(t, err)
	require.Len(t, coded, 2)

	args := []string{"decode", "--snapshot", snap}
	for _, f := range coded {
		args = append(args, filepath.Join(dest, f.Name()))
	}
	stdout, _, err := execute(t, args...)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 2)
	var names []string
	for _, l := range lines {
		code, name, ok := strings.Cut(l, "\t")
		require.True(t, ok)
		assert.Len(t, code, 4)
		names = append(names, name)
	}
	assert.ElementsMatch(t, []string{"a.jpg", "b.png"}, names)

	_, stderr, err := execute(t, "decode", "--snapshot", snap, "12345")
	require.Error(t, err)
	assert.Contains(t, stderr, "12345: unknown code")

	_, _, err = execute(t, "decode", "12345")
	require.ErrorIs(t, err, util.ErrConfiguration)
}

func TestValidate(t *testing.T) {
	dest, snap := encodeSample(t)

	stdout, _, err := execute(t, "validate", snap, "--dir", dest)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Coded files checked: 2")
	assert.Contains(t, stdout, "Problems: 0")

	require.NoError(t, os.WriteFile(filepath.Join(dest, "12345.jpg"), []byte("orphan"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dest, util.TempPrefix+"x.jpg-1"), nil, 0o644))
	stdout, _, err = execute(t, "validate", snap, "--dir", dest)
	require.Error(t, err)
	assert.Contains(t, stdout, "Problems: 2")
	assert.Contains(t, stdout, "orphan")
	assert.Contains(t, stdout, "leftover temp file")
}

func TestValidate_MetadataMismatch(t *testing.T) {
	_, snap := encodeSample(t)
	meta, err := mapping.LoadMetadata(snap)
	require.NoError(t, err)
	meta.TotalEntryCount = 99
	require.NoError(t, meta.Save(snap))

	stdout, _, err := execute(t, "validate", snap)
	require.Error(t, err)
	assert.Contains(t, stdout, "metadata records 99 entries, snapshot holds 2")
}

func TestValidate_BadSnapshot(t *testing.T) {
	snap := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(snap, []byte("5231,a.jpg\n5231,b.jpg\n"), 0o644))
	_, _, err := execute(t, "validate", snap)
	require.ErrorIs(t, err, util.ErrFormat)
}

func TestCount(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a.jpg":          "a",
		"sub/b.png":      "b",
		"sub/.DS_Store":  "junk",
		"archive.tar.gz": "tgz",
	})

	stdout, _, err := execute(t, "count", root)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Files to code: 2")
	assert.Contains(t, stdout, "Bookkeeping files excluded: 1")
	assert.Contains(t, stdout, "Would abort encode: 1")

	stdout, _, err = execute(t, "count", root, "--split-policy", "last")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Files to code: 3")
}

func TestSeed(t *testing.T) {
	out := filepath.Join(t.TempDir(), "sample")
	stdout, _, err := execute(t, "seed", "-o", out, "-c", "30", "--buckets", "3", "--awkward")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Created 30 files")

	stdout, _, err = execute(t, "count", out, "--split-policy", "skip")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Files to code: 30")
	assert.Contains(t, stdout, "Would be skipped: 3")
}
