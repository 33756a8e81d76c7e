package hostapi

import (
	"os"

	"github.com/pkg/errors"
	"go.starlark.net/starlark"

	"github.com/labt-build/labt/internal/archivefs"
)

// archiveModule exposes archive.writer(path) / archive.reader(path), the
// host API's zip archive I/O surface for plugin scripts.
type archiveModule struct {
	env *Environment
}

func newArchiveModule(env *Environment) *namespace {
	m := &archiveModule{env: env}
	return newNamespace("archive", starlark.StringDict{
		"writer": starlark.NewBuiltin("writer", m.writer),
		"reader": starlark.NewBuiltin("reader", m.reader),
	})
}

func (m *archiveModule) writer(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var dest string
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "dest", &dest); err != nil {
		return nil, err
	}

	w, err := archivefs.NewWriter(m.env.resolvePath(dest))
	if err != nil {
		return nil, errors.Wrapf(err, "opening archive writer for %s", dest)
	}
	return &archiveWriterObject{env: m.env, w: w}, nil
}

func (m *archiveModule) reader(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var src string
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "src", &src); err != nil {
		return nil, err
	}
	return &archiveReaderObject{env: m.env, src: m.env.resolvePath(src)}, nil
}

// archiveWriterObject wraps an archivefs.Writer with add_file/add_dir/close
// methods, committing atomically on close.
type archiveWriterObject struct {
	env *Environment
	w   *archivefs.Writer
}

var _ starlark.Value = (*archiveWriterObject)(nil)
var _ starlark.HasAttrs = (*archiveWriterObject)(nil)

func (a *archiveWriterObject) String() string       { return "<archive writer>" }
func (a *archiveWriterObject) Type() string          { return "archive_writer" }
func (a *archiveWriterObject) Freeze()               {}
func (a *archiveWriterObject) Truth() starlark.Bool  { return starlark.True }
func (a *archiveWriterObject) Hash() (uint32, error) { return 0, errors.New("archive writer is not hashable") }

func (a *archiveWriterObject) Attr(name string) (starlark.Value, error) {
	switch name {
	case "add_file":
		return starlark.NewBuiltin("add_file", a.addFile), nil
	case "add_dir":
		return starlark.NewBuiltin("add_dir", a.addDir), nil
	case "close":
		return starlark.NewBuiltin("close", a.close), nil
	}
	return nil, nil
}

func (a *archiveWriterObject) AttrNames() []string {
	return []string{"add_file", "add_dir", "close"}
}

// addFile(name, src, align=0) copies the file at src into the archive at
// name. A positive align pads the entry so its data begins at an offset
// that is a multiple of align, for entries (typically native libraries)
// that need to be mmap-friendly after extraction.
func (a *archiveWriterObject) addFile(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var name, src string
	var align int
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "name", &name, "src", &src, "align?", &align); err != nil {
		return nil, err
	}

	f, err := os.Open(a.env.resolvePath(src))
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s for archive entry %s", src, name)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}

	if err := a.w.AddFile(name, f, fi.Mode(), align); err != nil {
		return nil, err
	}
	return starlark.None, nil
}

// addDir(name, align=0) records a directory entry. align is accepted for
// symmetry with addFile but has no effect on a directory entry.
func (a *archiveWriterObject) addDir(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var name string
	var align int
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "name", &name, "align?", &align); err != nil {
		return nil, err
	}
	if err := a.w.AddDir(name, align); err != nil {
		return nil, err
	}
	return starlark.None, nil
}

func (a *archiveWriterObject) close(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackArgs(b.Name(), args, kwargs); err != nil {
		return nil, err
	}
	if err := a.w.Close(); err != nil {
		return nil, err
	}
	return starlark.None, nil
}

// archiveReaderObject wraps archivefs extraction behind an extract(dest)
// method.
type archiveReaderObject struct {
	env *Environment
	src string
}

var _ starlark.Value = (*archiveReaderObject)(nil)
var _ starlark.HasAttrs = (*archiveReaderObject)(nil)

func (a *archiveReaderObject) String() string       { return "<archive reader>" }
func (a *archiveReaderObject) Type() string          { return "archive_reader" }
func (a *archiveReaderObject) Freeze()               {}
func (a *archiveReaderObject) Truth() starlark.Bool  { return starlark.True }
func (a *archiveReaderObject) Hash() (uint32, error) { return 0, errors.New("archive reader is not hashable") }

func (a *archiveReaderObject) Attr(name string) (starlark.Value, error) {
	if name == "extract" {
		return starlark.NewBuiltin("extract", a.extract), nil
	}
	return nil, nil
}

func (a *archiveReaderObject) AttrNames() []string { return []string{"extract"} }

// extract(dest, entries=None) unpacks the archive into dest. When entries
// is given (a list of entry names), only those entries are unpacked;
// otherwise every entry in the archive is extracted.
func (a *archiveReaderObject) extract(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var dest string
	var entries *starlark.List
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "dest", &dest, "entries?", &entries); err != nil {
		return nil, err
	}

	var selected []string
	if entries != nil {
		names, err := listToStrings(entries)
		if err != nil {
			return nil, errors.Wrap(err, "entries")
		}
		selected = names
	}

	if err := archivefs.ExtractSelected(a.src, a.env.resolvePath(dest), selected); err != nil {
		return nil, err
	}
	return starlark.None, nil
}
