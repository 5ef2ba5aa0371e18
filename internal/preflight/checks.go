package preflight

import (
	"context"
	"fmt"
	"os"

	"github.com/gofrs/flock"
	"golang.org/x/sys/unix"

	"multitrack/internal/history"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckReadable verifies that path exists, has the expected type and can be read.
func CheckReadable(name, path string, wantDir bool) Result {
	if path == "" {
		return Result{Name: name, Detail: "not set"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	mode := uint32(unix.R_OK)
	switch {
	case wantDir && !info.IsDir():
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	case !wantDir && info.IsDir():
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is a directory)", path)}
	case wantDir:
		mode |= unix.X_OK
	}
	if err := unix.Access(path, mode); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not readable: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (readable)", path)}
}

// CheckHistory opens the history database and verifies its schema version.
func CheckHistory(ctx context.Context, path string) Result {
	const name = "History database"
	if err := ctx.Err(); err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	store, err := history.OpenPath(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	defer store.Close()
	runs, err := store.List(ctx, 0)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d runs)", path, len(runs))}
}

// CheckLock reports whether the run lock is free.
func CheckLock(path string) Result {
	const name = "Run lock"
	lock := flock.New(path)
	locked, err := lock.TryLock()
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	if !locked {
		return Result{Name: name, Detail: fmt.Sprintf("%s (held by another run)", path)}
	}
	_ = lock.Unlock()
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (free)", path)}
}
