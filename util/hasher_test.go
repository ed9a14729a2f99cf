package util

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetFileHash(t *testing.T) {
	tmpDir := t.TempDir()

	emptyFile := filepath.Join(tmpDir, "empty.jpg")
	require.NoError(t, os.WriteFile(emptyFile, []byte{}, 0o644))

	helloFile := filepath.Join(tmpDir, "hello.png")
	require.NoError(t, os.WriteFile(helloFile, []byte("hello world"), 0o644))

	subDir := filepath.Join(tmpDir, "subdir")
	require.NoError(t, os.Mkdir(subDir, 0o755))

	tests := []struct {
		name     string
		path     string
		wantHash string
		wantErr  error
	}{
		{
			name:     "empty file",
			path:     emptyFile,
			wantHash: "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		},
		{
			name:     "hello world file",
			path:     helloFile,
			wantHash: "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9",
		},
		{
			name:    "directory returns error",
			path:    subDir,
			wantErr: ErrExpectedFile,
		},
		{
			name:    "missing file",
			path:    filepath.Join(tmpDir, "missing.jpg"),
			wantErr: os.ErrNotExist,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GetFileHash(tt.path)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantHash, got)
		})
	}
}

func TestGetHash(t *testing.T) {
	got, err := GetHash(strings.NewReader("hello\n"))
	require.NoError(t, err)
	assert.Equal(t, "5891b5b522d5df086d0ff0b110fbd9d21bb4fc7163af34d08286a2e846f6be03", got)
}

func TestHashingWriter_MatchesGetHash(t *testing.T) {
	var sb strings.Builder
	hw := newHashingWriter(&sb)
	_, err := hw.Write([]byte("hello world"))
	require.NoError(t, err)

	assert.Equal(t, "hello world", sb.String())
	assert.Equal(t, "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9", hw.Sum())
}
