package main

import (
	"context"
	"flag"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/labt-build/labt/cache"
	"github.com/labt-build/labt/driver"
	"github.com/labt-build/labt/hostapi"
	"github.com/labt-build/labt/log"
	"github.com/labt-build/labt/plugin"
)

const buildShortHelp = `Run every build stage for the project's active plugins`
const buildLongHelp = `
build runs the fixed stage order (pre, aapt, compile, dex, bundle, post)
over every task contributed by the project's configured plugins, skipping
any task whose declared outputs are already newer than its inputs, and
stopping the whole build at the first task failure.
`

type buildCommand struct {
	unsafe bool
}

func (cmd *buildCommand) Name() string      { return "build" }
func (cmd *buildCommand) Args() string      { return "" }
func (cmd *buildCommand) ShortHelp() string { return buildShortHelp }
func (cmd *buildCommand) LongHelp() string  { return buildLongHelp }
func (cmd *buildCommand) Hidden() bool      { return false }

func (cmd *buildCommand) Register(fs *flag.FlagSet) {
	fs.BoolVar(&cmd.unsafe, "unsafe", false, "force every task's unsafe capability on, overriding manifest/task declarations")
}

func (cmd *buildCommand) Run(ctx *cliContext, args []string) error {
	p, err := ctx.loadProject()
	if err != nil {
		return err
	}

	home, err := ctx.home()
	if err != nil {
		return err
	}

	host := pluginHost(home)
	plugins, err := activePlugins(host, p.Config)
	if err != nil {
		return err
	}
	if len(plugins) == 0 {
		ctx.Out.Printf("no plugins configured, nothing to build\n")
		return nil
	}

	manager := sdkManager(home)
	installedSDK, err := manager.Installed()
	if err != nil {
		return errors.Wrap(err, "scanning installed sdk packages")
	}
	installed := make(map[string]hostapi.InstalledPackage, len(installedSDK))
	for path, pkg := range installedSDK {
		installed[path] = hostapi.InstalledPackage{
			DiskPath: filepath.FromSlash(strings.ReplaceAll(path, ";", "/")),
			Version:  pkg.Version,
			Channel:  string(pkg.Channel),
		}
	}

	r := resolverChain(home, p.Config)
	artifactCache := cache.New(home)
	logger := log.New(ctx.Out.Writer())

	factory := func(task driver.Task) (*hostapi.Environment, error) {
		var plug *plugin.Plugin
		for _, candidate := range plugins {
			if candidate.ID == task.PluginID {
				plug = candidate
				break
			}
		}
		var templateRoot, templateGlob string
		if plug != nil {
			templateRoot = plug.Dir
			if plug.Manifest.Init != nil {
				templateGlob = plug.Manifest.Init.Templates
			}
		}

		return &hostapi.Environment{
			Project:      p,
			Stage:        task.Stage,
			Resolver:     r,
			Cache:        artifactCache,
			SDKRoot:      manager.Home,
			Installed:    installed,
			Unsafe:       cmd.unsafe || task.Unsafe,
			Prompter:     &hostapi.PromptUIPrompter{},
			Logger:       logger,
			TemplateRoot: templateRoot,
			TemplateGlob: templateGlob,
		}, nil
	}

	// cmd.unsafe is folded into each task's Environment.Unsafe above via the
	// factory closure; Driver.Unsafe is the separate "force every task safe"
	// switch init-style flows use and has no role in a normal build.
	d := driver.New(p.Root, driver.NewStarlarkRunner(factory))

	if err := d.Run(context.Background(), plugins); err != nil {
		return err
	}
	ctx.Out.Printf("build complete\n")
	return nil
}
