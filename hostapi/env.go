// Package hostapi implements the host API surface: the fixed vocabulary of
// capabilities bound into every plugin task's Starlark environment.
// Interpreter internals belong to go.starlark.net itself; this package
// only supplies the bindings.
package hostapi

import (
	"go.starlark.net/starlark"

	"github.com/labt-build/labt/internal/semverx"
	"github.com/labt-build/labt/log"
	"github.com/labt-build/labt/plugin"
	"github.com/labt-build/labt/project"
	"github.com/labt-build/labt/resolver"
)

// Resolver is the subset of resolver behavior the host API needs, kept as
// an interface so a task's `resolve()` call can be exercised without a
// live network resolver in tests.
type Resolver interface {
	Resolve(direct []resolver.DirectRequest) (*project.Lockfile, error)
}

// CachePather mirrors cache.Cache.PathFor without importing the cache
// package directly, keeping hostapi decoupled from the artifact cache's
// storage details.
type CachePather interface {
	PathFor(group, artifact, version, packaging string) string
}

// Environment carries everything a single task evaluation needs bound
// into its Starlark globals: the project state, which stage is running,
// the resolver and cache for `resolve`/`get_cache_path`, the SDK root for
// `sdk:` dispatch, and whether unsafe capabilities are permitted.
type Environment struct {
	Project   *project.Project
	Stage     plugin.Stage
	Resolver  Resolver
	Cache     CachePather
	SDKRoot   string // <home>/sdk
	Installed map[string]InstalledPackage
	Unsafe    bool
	Prompter  Prompter
	Logger    *log.Logger

	// TemplateRoot and TemplateGlob ground the init path's template.render:
	// TemplateRoot is the installed plugin's directory, TemplateGlob the
	// pattern from its manifest's [init] table (default "templates/*").
	TemplateRoot string
	TemplateGlob string
}

// InstalledPackage is the minimal installed-package fact the sdk: dispatch
// needs: its disk path under SDKRoot, version, and channel. cmd/labt builds
// the Installed map from sdk.Manager's installed-package scan before
// constructing a task's Environment.
type InstalledPackage struct {
	DiskPath string
	Version  semverx.Version
	Channel  string
}

// Builtins returns the complete StringDict bound as globals for one task
// evaluation. Every capability is a fresh closure over env, so concurrent
// task evaluations (were the driver ever to allow them) don't share
// mutable state beyond what env itself exposes.
func Builtins(env *Environment) starlark.StringDict {
	dict := starlark.StringDict{
		"get_project_config":   starlark.NewBuiltin("get_project_config", env.getProjectConfig),
		"get_lock_dependencies": starlark.NewBuiltin("get_lock_dependencies", env.getLockDependencies),
		"get_project_root":     starlark.NewBuiltin("get_project_root", env.getProjectRoot),
		"get_build_step":       starlark.NewBuiltin("get_build_step", env.getBuildStep),
		"get_cache_path":       starlark.NewBuiltin("get_cache_path", env.getCachePath),
		"resolve":              starlark.NewBuiltin("resolve", env.resolveBuiltin),

		"mkdir":     starlark.NewBuiltin("mkdir", env.mkdir),
		"mkdir_all": starlark.NewBuiltin("mkdir_all", env.mkdirAll),
		"copy":      starlark.NewBuiltin("copy", env.copy),
		"mv":        starlark.NewBuiltin("mv", env.move),
		"rm":        starlark.NewBuiltin("rm", env.remove),
		"exists":    starlark.NewBuiltin("exists", env.exists),
		"is_newer":  starlark.NewBuiltin("is_newer", env.isNewer),
		"glob":      starlark.NewBuiltin("glob", env.globBuiltin),

		"require": starlark.NewBuiltin("require", env.require),

		"sys":      newProcessObject(env, ""),
		"archive":  newArchiveModule(env),
		"log":      newLogModule(env),
		"prompt":   newPromptModule(env),
		"template": newTemplateModule(env),
	}
	return dict
}
