package main

import (
	"flag"
	"strings"

	"github.com/pkg/errors"

	"github.com/labt-build/labt/plugin"
)

const pluginShortHelp = `Add, remove, and inspect plugins`
const pluginLongHelp = `
plugin manages git-hosted plugins under <home>/plugins.

Subcommands:

  labt plugin add <id> <git-url>[@ref]   clone and pin a plugin
  labt plugin remove <id>                delete a plugin's checkout
  labt plugin list                       show the project's configured plugins

ref defaults to "latest", the highest semver-looking tag in the
repository; a plugin's own manifest version, if set, still wins over
whatever ref was requested.
`

type pluginCommand struct{}

func (cmd *pluginCommand) Name() string      { return "plugin" }
func (cmd *pluginCommand) Args() string      { return "<add|remove|list> [args...]" }
func (cmd *pluginCommand) ShortHelp() string { return pluginShortHelp }
func (cmd *pluginCommand) LongHelp() string  { return pluginLongHelp }
func (cmd *pluginCommand) Hidden() bool      { return false }
func (cmd *pluginCommand) Register(fs *flag.FlagSet) {}

func (cmd *pluginCommand) Run(ctx *cliContext, args []string) error {
	if len(args) < 1 {
		return errors.New("plugin requires a subcommand: add, remove, or list")
	}

	home, err := ctx.home()
	if err != nil {
		return err
	}
	host := pluginHost(home)

	switch args[0] {
	case "add":
		if len(args) != 3 {
			return errors.New("plugin add requires an id and a git-url[@ref]")
		}
		return cmd.add(ctx, host, args[1], args[2])
	case "remove":
		if len(args) != 2 {
			return errors.New("plugin remove requires a plugin id")
		}
		if err := host.Remove(args[1]); err != nil {
			return errors.Wrapf(err, "removing plugin %s", args[1])
		}
		ctx.Out.Printf("removed %s\n", args[1])
		return nil
	case "list":
		return cmd.list(ctx)
	default:
		return errors.Errorf("plugin: unknown subcommand %q", args[0])
	}
}

func (cmd *pluginCommand) add(ctx *cliContext, host *plugin.Host, id, gitRef string) error {
	git, ref := gitRef, plugin.LatestRef
	if idx := strings.LastIndex(gitRef, "@"); idx > 0 {
		git, ref = gitRef[:idx], gitRef[idx+1:]
	}

	p, err := host.Install(plugin.Source{ID: id, Git: git, Ref: ref})
	if err != nil {
		return errors.Wrapf(err, "installing plugin %s", id)
	}

	ctx.Out.Printf("installed %s %s\n", p.ID, p.Manifest.Version)
	return nil
}

func (cmd *pluginCommand) list(ctx *cliContext) error {
	p, err := ctx.loadProject()
	if err != nil {
		return err
	}
	for _, ref := range p.Config.Plugins {
		ctx.Out.Printf("%s\t%s\n", ref.ID, ref.Version)
	}
	return nil
}
