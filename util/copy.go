package util

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// TempPrefix marks in-progress files. Anything in a destination directory
// that starts with TempPrefix is a leftover from an interrupted write.
const TempPrefix = ".fctmp-"

// swappable so tests can force link/rename failures.
var (
	linkFunc   = os.Link
	renameFunc = os.Rename
)

// CopyOptions controls how CopyFile materializes a copy.
type CopyOptions struct {
	// Verify re-reads the finished copy and compares its SHA-256 with the
	// hash of the bytes read from the source.
	Verify bool
}

// CopyFile copies src to dst, preserving the file bytes, permission bits and
// modification time. ctx is only checked before the copy starts; a copy that
// has begun runs to completion. The copy is written to a hidden temp file in dst's
// directory first and only appears under dst once it is complete, so readers
// never observe a partial file. dst must not exist.
//
// Failures are returned as *IOError.
func CopyFile(ctx context.Context, src, dst string, opts CopyOptions) error {
	if err := ctx.Err(); err != nil {
		return &IOError{Op: "copy", Src: src, Dst: dst, Err: err}
	}
	info, err := os.Lstat(src)
	if err != nil {
		return &IOError{Op: "stat", Src: src, Dst: dst, Err: err}
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return &IOError{Op: "stat", Src: src, Dst: dst, Err: ErrUnexpectedSymlink}
	}
	if info.IsDir() {
		return &IOError{Op: "stat", Src: src, Dst: dst, Err: ErrExpectedFile}
	}

	in, err := os.Open(src)
	if err != nil {
		return &IOError{Op: "open", Src: src, Dst: dst, Err: err}
	}
	defer in.Close()

	dir := filepath.Dir(dst)
	tmp, err := os.CreateTemp(dir, TempPrefix+filepath.Base(dst)+"-*")
	if err != nil {
		return &IOError{Op: "create", Src: src, Dst: dst, Err: err}
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	hw := newHashingWriter(tmp)
	if _, err := io.Copy(hw, in); err != nil {
		return &IOError{Op: "copy", Src: src, Dst: dst, Err: err}
	}
	if err := tmp.Chmod(info.Mode().Perm()); err != nil {
		return &IOError{Op: "chmod", Src: src, Dst: dst, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		return &IOError{Op: "sync", Src: src, Dst: dst, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &IOError{Op: "close", Src: src, Dst: dst, Err: err}
	}
	if err := os.Chtimes(tmpName, info.ModTime(), info.ModTime()); err != nil {
		return &IOError{Op: "chtimes", Src: src, Dst: dst, Err: err}
	}

	if opts.Verify {
		got, err := GetFileHash(tmpName)
		if err != nil {
			return &IOError{Op: "verify", Src: src, Dst: dst, Err: err}
		}
		if want := hw.Sum(); got != want {
			return &IOError{Op: "verify", Src: src, Dst: dst,
				Err: fmt.Errorf("checksum mismatch: source %s, copy %s", want, got)}
		}
	}

	if err := PublishNoOverwrite(tmpName, dst); err != nil {
		return &IOError{Op: "publish", Src: src, Dst: dst, Err: err}
	}
	_ = syncDirBestEffort(dir)
	return nil
}

// PublishNoOverwrite moves the finished temp file tmp to dst, failing with
// os.ErrExist if dst is already present. A hard link is used where the
// filesystem supports it so the existence check and the publish are one step.
func PublishNoOverwrite(tmp, dst string) error {
	err := linkFunc(tmp, dst)
	if err == nil {
		return os.Remove(tmp)
	}
	if errors.Is(err, os.ErrExist) {
		return os.ErrExist
	}
	// No hard links here (FAT, some network mounts): check, then rename.
	if _, statErr := os.Lstat(dst); statErr == nil {
		return os.ErrExist
	} else if !os.IsNotExist(statErr) {
		return statErr
	}
	return renameFunc(tmp, dst)
}

// WriteJSONFile writes any value as JSON to the specified file path.
// The file is written to a temp file in the same directory and renamed over path.
func WriteJSONFile(path string, v any) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, TempPrefix+filepath.Base(path)+"-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := renameFunc(tmpName, path); err != nil {
		return err
	}
	_ = syncDirBestEffort(dir)
	return nil
}

// IsTempName reports whether name is an in-progress file written by this package.
func IsTempName(name string) bool {
	return strings.HasPrefix(name, TempPrefix)
}

func syncDirBestEffort(dir string) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
