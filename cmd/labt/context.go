package main

import (
	"log"

	"github.com/pkg/errors"

	"github.com/labt-build/labt/cache"
	"github.com/labt-build/labt/plugin"
	"github.com/labt-build/labt/project"
	"github.com/labt-build/labt/resolver"
	"github.com/labt-build/labt/sdk"
)

// cliContext bundles everything a subcommand needs: where it's running,
// where to write output, and the LABt home directory every stateful
// component (cache, sdk, plugins) is rooted under.
type cliContext struct {
	WorkingDir string
	Out, Err   *log.Logger
	Verbose    bool
}

func (c *cliContext) logf(format string, args ...interface{}) {
	if c.Verbose {
		c.Out.Printf(format, args...)
	}
}

// loadProject discovers and parses the project file starting at the
// working directory.
func (c *cliContext) loadProject() (*project.Project, error) {
	return project.Load(c.WorkingDir)
}

// home resolves LABT_HOME.
func (c *cliContext) home() (string, error) {
	return project.Home()
}

// resolverChain builds the ordered backend chain: the artifact cache
// first, then one MavenBackend per configured resolver.
func resolverChain(home string, cfg *project.Config) *resolver.Resolver {
	artifactCache := cache.New(home)
	cacheBackend := &resolver.CacheBackend{Cache: artifactCache}

	var remotes []resolver.Backend
	for _, r := range cfg.Resolvers {
		remotes = append(remotes, resolver.NewMavenBackend(r.Name, r.URL))
	}
	if len(remotes) == 0 {
		remotes = append(remotes, resolver.NewMavenBackend("central", resolver.DefaultMavenCentral))
	}
	return resolver.New(cacheBackend, remotes...)
}

// directRequests converts a project's configured dependencies into the
// resolver's input shape.
func directRequests(cfg *project.Config) []resolver.DirectRequest {
	out := make([]resolver.DirectRequest, len(cfg.Dependencies))
	for i, d := range cfg.Dependencies {
		excl := make(map[string]bool, len(d.Exclusions))
		for _, e := range d.Exclusions {
			excl[e] = true
		}
		out[i] = resolver.DirectRequest{
			Coordinate: resolver.Coordinate{Group: d.Group, Artifact: d.ArtifactID, Version: d.Version},
			Exclusions: excl,
		}
	}
	return out
}

// sdkManager builds the SDK repository manager rooted at <home>/sdk.
func sdkManager(home string) *sdk.Manager {
	return sdk.NewManager(home)
}

// pluginHost builds the plugin host rooted at <home>/plugins.
func pluginHost(home string) *plugin.Host {
	return plugin.NewHost(home)
}

// activePlugins loads every plugin named in the project file, in
// declaration order, failing the whole command if one is missing from
// <home>/plugins (a project must `labt plugin add` before building).
func activePlugins(host *plugin.Host, cfg *project.Config) ([]*plugin.Plugin, error) {
	var out []*plugin.Plugin
	for _, ref := range cfg.Plugins {
		p, err := host.Load(ref.ID)
		if err != nil {
			return nil, errors.Wrapf(err, "loading plugin %s (run `labt plugin add` first)", ref.ID)
		}
		out = append(out, p)
	}
	return out, nil
}
