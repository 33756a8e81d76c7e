package hostapi

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"go.starlark.net/starlark"
)

const sdkModulePrefix = "sdk:"

// require implements the module loader behind calls like
// `require("sdk:platform").file("android.jar")`. LABt's host API only
// defines one requireable module family, the SDK dispatch; any other name
// is a script-visible error.
func (env *Environment) require(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var name string
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "name", &name); err != nil {
		return nil, err
	}

	if !strings.HasPrefix(name, sdkModulePrefix) {
		return nil, errors.Errorf("require: unknown module %q", name)
	}

	rest := strings.TrimPrefix(name, sdkModulePrefix)
	logical, subdir, _ := strings.Cut(rest, "/")

	installed, ok := env.Installed[logical]
	if !ok {
		return nil, errors.Errorf("require: sdk package %q is not installed", logical)
	}

	root := filepath.Join(env.SDKRoot, filepath.FromSlash(installed.DiskPath))
	if subdir != "" {
		root = filepath.Join(root, filepath.FromSlash(subdir))
	}

	return newSDKObject(env, logical, installed, root), nil
}

// sdkObject is the virtual object returned by sdk: dispatch: fixed fields
// path/version/channel, a file(name) helper, and the same two process
// dispatch styles as the bare sys capability, rooted at the package's
// install directory.
type sdkObject struct {
	*processObject
	logical   string
	installed InstalledPackage
	root      string
}

func newSDKObject(env *Environment, logical string, installed InstalledPackage, root string) *sdkObject {
	return &sdkObject{
		processObject: newProcessObject(env, root),
		logical:       logical,
		installed:     installed,
		root:          root,
	}
}

func (s *sdkObject) String() string { return "<sdk:" + s.logical + ">" }
func (s *sdkObject) Type() string   { return "sdk_module" }

func (s *sdkObject) Attr(name string) (starlark.Value, error) {
	switch name {
	case "path":
		return starlark.String(s.root), nil
	case "version":
		return starlark.String(s.installed.Version.String()), nil
	case "channel":
		return starlark.String(s.installed.Channel), nil
	case "file":
		return starlark.NewBuiltin("file", s.file), nil
	}
	return s.processObject.Attr(name)
}

func (s *sdkObject) AttrNames() []string {
	return []string{"path", "version", "channel", "file"}
}

func (s *sdkObject) file(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var name string
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "name", &name); err != nil {
		return nil, err
	}
	return starlark.String(filepath.Join(s.root, filepath.FromSlash(name))), nil
}
