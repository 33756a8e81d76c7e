// Package fs provides the filesystem primitives shared by the artifact
// cache, the SDK manager, and the host API's filesystem capability: atomic
// rename-with-fallback, recursive directory copy, and small predicates
// like IsDir/IsRegular, trimmed to the platforms LABt actually targets.
package fs

import (
	"io"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/karrick/godirwalk"
	"github.com/pkg/errors"
	shutil "github.com/termie/go-shutil"
)

// IsDir determines if the given path is a directory.
func IsDir(name string) (bool, error) {
	fi, err := os.Stat(name)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return fi.IsDir(), nil
}

// IsRegular determines if the given path is a regular file.
func IsRegular(name string) (bool, error) {
	fi, err := os.Stat(name)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if fi.Mode()&os.ModeType != 0 {
		return false, errors.Errorf("%q is a %v, expected a regular file", name, fi.Mode())
	}
	return true, nil
}

// Exists reports whether path exists at all, following symlinks.
func Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// RenameWithFallback attempts to rename a file or directory, falling back to
// a recursive copy-then-remove whenever the rename fails (for example across
// a device boundary). Every on-disk state transition in LABt (cache stores,
// SDK installs, lockfile writes) goes through this. Only the plain rename is
// atomic; during a copy fallback a reader can see a partly copied dst.
func RenameWithFallback(src, dst string) error {
	if _, err := os.Stat(src); err != nil {
		return errors.Wrapf(err, "cannot stat %s", src)
	}

	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	return renameByCopy(src, dst)
}

func renameByCopy(src, dst string) error {
	isDir, err := IsDir(src)
	if err != nil {
		return errors.Wrapf(err, "rename fallback: cannot stat %s", src)
	}

	if isDir {
		err = CopyDir(src, dst)
	} else {
		err = copyFile(src, dst)
	}
	if err != nil {
		return errors.Wrapf(err, "rename fallback failed: cannot rename %s to %s", src, dst)
	}

	return errors.Wrapf(os.RemoveAll(src), "cannot delete %s after rename fallback", src)
}

// WriteFileAtomic writes data to a temp file in the same directory as path,
// then renames it into place, so a reader either sees the old content in
// full or the new content in full, never a partial write.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "creating parent directory for %s", path)
	}

	tmp, err := ioutil.TempFile(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.Wrapf(err, "creating temp file for %s", path)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrapf(err, "writing temp file for %s", path)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrapf(err, "syncing temp file for %s", path)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrapf(err, "closing temp file for %s", path)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		os.Remove(tmpName)
		return errors.Wrapf(err, "setting mode on temp file for %s", path)
	}

	return RenameWithFallback(tmpName, path)
}

// CopyDir recursively copies the src directory tree to dst using
// go-shutil, the same recursive-copy library wired for the host API's
// copy(src, dst, recursive=true) call.
func CopyDir(src, dst string) error {
	return shutil.CopyTree(src, dst, nil)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	fi, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fi.Mode())
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}

// CopyFile copies a single regular file from src to dst, overwriting dst.
func CopyFile(src, dst string) error {
	return copyFile(src, dst)
}

// Walk walks root depth-first in lexical order, using godirwalk for its
// lower allocation overhead over filepath.Walk on large trees. Its caller
// is the SDK manager's installed-package scan.
func Walk(root string, fn func(path string, dirent *godirwalk.Dirent) error) error {
	return godirwalk.Walk(root, &godirwalk.Options{
		Callback: fn,
		Unsorted: false,
	})
}
