// Package fileutil moves session files without losing data.
package fileutil

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

// CopyFileVerified copies src to dst, then re-reads dst and compares size
// and SHA256 against the source. dst is removed on any mismatch.
func CopyFileVerified(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, srcInfo.Mode().Perm())
	if err != nil {
		return err
	}
	srcHasher := sha256.New()
	written, err := io.Copy(out, io.TeeReader(in, srcHasher))
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(dst)
		return err
	}

	if written != srcInfo.Size() {
		_ = os.Remove(dst)
		return fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", srcInfo.Size(), written)
	}
	dstSum, err := fileSHA256(dst)
	if err != nil {
		_ = os.Remove(dst)
		return err
	}
	if !bytes.Equal(srcHasher.Sum(nil), dstSum) {
		_ = os.Remove(dst)
		return errors.New("copy hash mismatch: file corrupted during copy")
	}
	return nil
}

// MoveVerified moves src into dir and returns the new path. A rename is used
// when both live on the same filesystem; otherwise the file is copied with
// CopyFileVerified and the source removed only after verification. Existing
// files in dir are never overwritten.
func MoveVerified(src, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}
	dst, err := UniquePath(dir, filepath.Base(src))
	if err != nil {
		return "", err
	}

	err = os.Rename(src, dst)
	if err == nil {
		return dst, nil
	}
	if !errors.Is(err, unix.EXDEV) {
		return "", fmt.Errorf("move %s: %w", src, err)
	}
	if err := CopyFileVerified(src, dst); err != nil {
		return "", fmt.Errorf("copy %s: %w", src, err)
	}
	if err := os.Remove(src); err != nil {
		return dst, fmt.Errorf("remove %s after copy: %w", src, err)
	}
	return dst, nil
}

// UniquePath returns dir/name, or dir/name-N.ext for the smallest N that
// does not exist yet.
func UniquePath(dir, name string) (string, error) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	candidate := filepath.Join(dir, name)
	for n := 1; ; n++ {
		_, err := os.Lstat(candidate)
		if errors.Is(err, os.ErrNotExist) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("stat %s: %w", candidate, err)
		}
		candidate = filepath.Join(dir, fmt.Sprintf("%s-%d%s", stem, n, ext))
	}
}

func fileSHA256(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return nil, err
	}
	return h.Sum(nil), nil
}
