package hostapi

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"go.starlark.net/starlark"

	"github.com/labt-build/labt/internal/fs"
)

// resolvePath resolves a plugin-supplied path against the project root, as
// every filesystem capability requires.
func (env *Environment) resolvePath(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(env.Project.Root, p)
}

func (env *Environment) mkdir(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var target string
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "target", &target); err != nil {
		return nil, err
	}
	path := env.resolvePath(target)
	if exists, _ := fs.Exists(path); exists {
		return nil, errors.Errorf("mkdir: %s already exists", target)
	}
	if err := os.Mkdir(path, 0o755); err != nil {
		return nil, errors.Wrapf(err, "mkdir %s", target)
	}
	return starlark.None, nil
}

func (env *Environment) mkdirAll(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var target string
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "target", &target); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(env.resolvePath(target), 0o755); err != nil {
		return nil, errors.Wrapf(err, "mkdir_all %s", target)
	}
	return starlark.None, nil
}

// copy implements copy(src, dst, recursive?): a directory copy requires
// recursive=True; copying a file into an existing directory appends the
// source's basename.
func (env *Environment) copy(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var src, dst string
	recursive := false
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "src", &src, "dst", &dst, "recursive?", &recursive); err != nil {
		return nil, err
	}

	srcPath := env.resolvePath(src)
	dstPath := env.resolvePath(dst)

	isDir, err := fs.IsDir(srcPath)
	if err != nil {
		return nil, errors.Wrapf(err, "copy %s", src)
	}
	if isDir {
		if !recursive {
			return nil, errors.Errorf("copy: %s is a directory, recursive=True required", src)
		}
		if err := fs.CopyDir(srcPath, dstPath); err != nil {
			return nil, errors.Wrapf(err, "copy %s to %s", src, dst)
		}
		return starlark.None, nil
	}

	if dstIsDir, _ := fs.IsDir(dstPath); dstIsDir {
		dstPath = filepath.Join(dstPath, filepath.Base(srcPath))
	}
	if err := fs.CopyFile(srcPath, dstPath); err != nil {
		return nil, errors.Wrapf(err, "copy %s to %s", src, dst)
	}
	return starlark.None, nil
}

func (env *Environment) move(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var src, dst string
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "src", &src, "dst", &dst); err != nil {
		return nil, err
	}
	if err := fs.RenameWithFallback(env.resolvePath(src), env.resolvePath(dst)); err != nil {
		return nil, errors.Wrapf(err, "mv %s to %s", src, dst)
	}
	return starlark.None, nil
}

func (env *Environment) remove(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var target string
	recursive := false
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "target", &target, "recursive?", &recursive); err != nil {
		return nil, err
	}

	path := env.resolvePath(target)
	if recursive {
		if err := os.RemoveAll(path); err != nil {
			return nil, errors.Wrapf(err, "rm %s", target)
		}
		return starlark.None, nil
	}
	if err := os.Remove(path); err != nil {
		return nil, errors.Wrapf(err, "rm %s", target)
	}
	return starlark.None, nil
}

func (env *Environment) exists(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var target string
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "target", &target); err != nil {
		return nil, err
	}
	ok, err := fs.Exists(env.resolvePath(target))
	if err != nil {
		return nil, errors.Wrapf(err, "exists %s", target)
	}
	return starlark.Bool(ok), nil
}

// isNewer implements the is_newer(a, b) predicate: true if b is missing,
// false if a is missing, otherwise by modification time.
func (env *Environment) isNewer(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var a, bPath string
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "a", &a, "b", &bPath); err != nil {
		return nil, err
	}

	aInfo, aErr := os.Stat(env.resolvePath(a))
	bInfo, bErr := os.Stat(env.resolvePath(bPath))

	switch {
	case bErr != nil:
		return starlark.Bool(true), nil
	case aErr != nil:
		return starlark.Bool(false), nil
	default:
		return starlark.Bool(aInfo.ModTime().After(bInfo.ModTime())), nil
	}
}

// globBuiltin implements glob(pattern) -> ordered sequence of matching
// paths.
func (env *Environment) globBuiltin(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var pattern string
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "pattern", &pattern); err != nil {
		return nil, err
	}

	matches, err := filepath.Glob(env.resolvePath(pattern))
	if err != nil {
		return nil, errors.Wrapf(err, "glob %s", pattern)
	}
	return strList(matches), nil
}
