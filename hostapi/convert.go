package hostapi

import (
	"github.com/pkg/errors"
	"go.starlark.net/starlark"
)

// dict is a small builder around starlark.Dict to keep the project/lockfile
// marshaling functions in project.go readable.
type dict struct {
	*starlark.Dict
}

func newDict() dict {
	return dict{starlark.NewDict(0)}
}

func (d dict) set(key string, value starlark.Value) dict {
	d.SetKey(starlark.String(key), value)
	return d
}

func strList(items []string) *starlark.List {
	values := make([]starlark.Value, len(items))
	for i, s := range items {
		values[i] = starlark.String(s)
	}
	return starlark.NewList(values)
}

// namespace is a fixed-attribute module object, the shape of the `sys`,
// `archive`, `log`, `prompt`, and `template` globals bound into a task's
// environment: each is a handful of named functions accessed with
// attribute syntax (`archive.writer(...)`), unlike the dynamically
// dispatched process/SDK capability objects.
type namespace struct {
	name  string
	attrs starlark.StringDict
}

func newNamespace(name string, attrs starlark.StringDict) *namespace {
	return &namespace{name: name, attrs: attrs}
}

var _ starlark.Value = (*namespace)(nil)
var _ starlark.HasAttrs = (*namespace)(nil)

func (n *namespace) String() string       { return "<" + n.name + " module>" }
func (n *namespace) Type() string          { return "module" }
func (n *namespace) Freeze()               {}
func (n *namespace) Truth() starlark.Bool  { return starlark.True }
func (n *namespace) Hash() (uint32, error) { return 0, errors.New(n.name + " module is not hashable") }

func (n *namespace) Attr(name string) (starlark.Value, error) {
	v, ok := n.attrs[name]
	if !ok {
		return nil, nil
	}
	return v, nil
}

func (n *namespace) AttrNames() []string {
	names := make([]string, 0, len(n.attrs))
	for k := range n.attrs {
		names = append(names, k)
	}
	return names
}
