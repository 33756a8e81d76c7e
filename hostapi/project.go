package hostapi

import (
	"go.starlark.net/starlark"

	"github.com/labt-build/labt/resolver"
)

// getProjectConfig returns a deep structural mapping of the project file.
func (env *Environment) getProjectConfig(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackArgs(b.Name(), args, kwargs); err != nil {
		return nil, err
	}

	cfg := env.Project.Config
	meta := newDict().
		set("name", starlark.String(cfg.Meta.Name)).
		set("package", starlark.String(cfg.Meta.Package)).
		set("version_name", starlark.String(cfg.Meta.VersionName)).
		set("version_code", starlark.MakeInt64(cfg.Meta.VersionCode)).
		set("description", starlark.String(cfg.Meta.Description))

	deps := make([]starlark.Value, len(cfg.Dependencies))
	for i, d := range cfg.Dependencies {
		deps[i] = newDict().
			set("artifact_id", starlark.String(d.ArtifactID)).
			set("group", starlark.String(d.Group)).
			set("version", starlark.String(d.Version)).
			set("exclusions", strList(d.Exclusions)).Dict
	}

	plugins := make([]starlark.Value, len(cfg.Plugins))
	for i, p := range cfg.Plugins {
		plugins[i] = newDict().
			set("id", starlark.String(p.ID)).
			set("version", starlark.String(p.Version)).
			set("git", starlark.String(p.Git)).Dict
	}

	out := newDict().
		set("project", meta.Dict).
		set("dependencies", starlark.NewList(deps)).
		set("plugins", starlark.NewList(plugins))

	return out.Dict, nil
}

// getLockDependencies returns the lockfile as an ordered sequence.
func (env *Environment) getLockDependencies(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackArgs(b.Name(), args, kwargs); err != nil {
		return nil, err
	}

	if env.Project.Lock == nil {
		return starlark.NewList(nil), nil
	}

	entries := make([]starlark.Value, len(env.Project.Lock.Dependencies))
	for i, dep := range env.Project.Lock.Dependencies {
		entries[i] = newDict().
			set("group", starlark.String(dep.Group)).
			set("artifact", starlark.String(dep.Artifact)).
			set("version", starlark.String(dep.Version)).
			set("packaging", starlark.String(dep.Packaging)).
			set("url", starlark.String(dep.URL)).
			set("direct", starlark.Bool(dep.Direct)).
			set("dependency_of", starlark.String(dep.DependencyOf)).Dict
	}
	return starlark.NewList(entries), nil
}

func (env *Environment) getProjectRoot(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackArgs(b.Name(), args, kwargs); err != nil {
		return nil, err
	}
	return starlark.String(env.Project.Root), nil
}

func (env *Environment) getBuildStep(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackArgs(b.Name(), args, kwargs); err != nil {
		return nil, err
	}
	return starlark.String(string(env.Stage)), nil
}

// getCachePath returns the path an artifact would occupy without touching
// disk.
func (env *Environment) getCachePath(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var group, artifact, version, packaging string
	if err := starlark.UnpackArgs(b.Name(), args, kwargs,
		"group", &group, "artifact", &artifact, "version", &version, "packaging", &packaging,
	); err != nil {
		return nil, err
	}
	return starlark.String(env.Cache.PathFor(group, artifact, version, packaging)), nil
}

// resolveBuiltin invokes the resolver and writes the lockfile.
func (env *Environment) resolveBuiltin(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackArgs(b.Name(), args, kwargs); err != nil {
		return nil, err
	}

	var direct []resolver.DirectRequest
	for _, d := range env.Project.Config.Dependencies {
		excl := make(map[string]bool, len(d.Exclusions))
		for _, e := range d.Exclusions {
			excl[e] = true
		}
		direct = append(direct, resolver.DirectRequest{
			Coordinate: resolver.Coordinate{Group: d.Group, Artifact: d.ArtifactID, Version: d.Version},
			Exclusions: excl,
		})
	}

	lf, err := env.Resolver.Resolve(direct)
	if err != nil {
		return nil, err
	}
	if err := lf.WriteTo(env.Project.Root); err != nil {
		return nil, err
	}
	env.Project.Lock = lf

	return starlark.None, nil
}
