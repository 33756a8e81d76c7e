package main

import (
	"context"
	"flag"
	"sort"

	"github.com/pkg/errors"

	"github.com/labt-build/labt/project"
	"github.com/labt-build/labt/sdk"
)

const sdkShortHelp = `Install, remove, and list SDK packages`
const sdkLongHelp = `
sdk manages packages under <home>/sdk against a Google-format repository
manifest.

Subcommands:

  labt sdk add <path:version:channel>   plan and install/upgrade a package
  labt sdk remove <path>                uninstall a package and its leaves
  labt sdk list [-installed]            list manifest or installed packages

A bare path with no version installs the highest release on the "stable"
channel; pass -channel to track a different one.
`

type sdkCommand struct {
	manifestURL string
	channel     string
	installed   bool
}

func (cmd *sdkCommand) Name() string      { return "sdk" }
func (cmd *sdkCommand) Args() string      { return "<add|remove|list> [package]" }
func (cmd *sdkCommand) ShortHelp() string { return sdkShortHelp }
func (cmd *sdkCommand) LongHelp() string  { return sdkLongHelp }
func (cmd *sdkCommand) Hidden() bool      { return false }

func (cmd *sdkCommand) Register(fs *flag.FlagSet) {
	fs.StringVar(&cmd.manifestURL, "manifest", "", "repository manifest URL (default: Google's published manifest)")
	fs.StringVar(&cmd.channel, "channel", string(sdk.ChannelStable), "channel to track when no version is given")
	fs.BoolVar(&cmd.installed, "installed", false, "list only installed packages")
}

func (cmd *sdkCommand) Run(ctx *cliContext, args []string) error {
	if len(args) < 1 {
		return errors.New("sdk requires a subcommand: add, remove, or list")
	}

	home, err := ctx.home()
	if err != nil {
		return err
	}
	manager := sdkManager(home)

	switch args[0] {
	case "add":
		if len(args) != 2 {
			return errors.New("sdk add requires exactly one package reference")
		}
		return cmd.add(ctx, manager, args[1])
	case "remove":
		if len(args) != 2 {
			return errors.New("sdk remove requires exactly one package path")
		}
		return cmd.remove(ctx, manager, args[1])
	case "list":
		return cmd.list(ctx, manager)
	default:
		return errors.Errorf("sdk: unknown subcommand %q", args[0])
	}
}

func (cmd *sdkCommand) add(ctx *cliContext, manager *sdk.Manager, raw string) error {
	ref, err := project.ParseSDKReferenceString(padSDKReference(raw))
	if err != nil {
		return err
	}

	manifest, err := manager.FetchManifest(cmd.manifestURL)
	if err != nil {
		return err
	}

	installed, err := manager.Installed()
	if err != nil {
		return errors.Wrap(err, "scanning installed packages")
	}

	channel := sdk.Channel(ref.Channel)
	if channel == "" {
		channel = sdk.Channel(cmd.channel)
	}

	steps, err := sdk.Plan(manifest, installed, []sdk.Request{
		{Path: ref.Path, Version: ref.Version, Channel: channel},
	})
	if err != nil {
		return err
	}
	if len(steps) == 0 {
		ctx.Out.Printf("%s already up to date\n", ref.Path)
		return nil
	}

	if err := manager.Installer.ApplyAll(context.Background(), steps); err != nil {
		return errors.Wrap(err, "installing sdk packages")
	}
	for _, step := range steps {
		ctx.Out.Printf("%s %s\n", step.Action, step.Path)
	}
	return nil
}

func (cmd *sdkCommand) remove(ctx *cliContext, manager *sdk.Manager, path string) error {
	installed, err := manager.Installed()
	if err != nil {
		return errors.Wrap(err, "scanning installed packages")
	}
	if _, ok := installed[path]; !ok {
		return errors.Errorf("%s is not installed", path)
	}

	steps, err := sdk.Plan(&sdk.Manifest{}, installed, []sdk.Request{{Path: path, Remove: true}})
	if err != nil {
		return err
	}
	if err := manager.Installer.ApplyAll(context.Background(), steps); err != nil {
		return errors.Wrap(err, "removing sdk package")
	}
	ctx.Out.Printf("removed %s\n", path)
	return nil
}

func (cmd *sdkCommand) list(ctx *cliContext, manager *sdk.Manager) error {
	installed, err := manager.Installed()
	if err != nil {
		return errors.Wrap(err, "scanning installed packages")
	}

	if cmd.installed {
		paths := make([]string, 0, len(installed))
		for p := range installed {
			paths = append(paths, p)
		}
		sort.Strings(paths)
		for _, p := range paths {
			pkg := installed[p]
			ctx.Out.Printf("%s\t%s\t%s\n", p, pkg.Version, pkg.Channel)
		}
		return nil
	}

	manifest, err := manager.FetchManifest(cmd.manifestURL)
	if err != nil {
		return err
	}
	for _, pkg := range manifest.Packages {
		marker := ""
		if cur, ok := installed[pkg.Path]; ok {
			marker = " (installed " + cur.Version.String() + ")"
		}
		ctx.Out.Printf("%s\t%s\t%s%s\n", pkg.Path, pkg.Version, pkg.Channel, marker)
	}
	return nil
}

// padSDKReference lets `sdk add` accept a bare "path" or "path:version"
// the way the project file's compact SDK reference form requires a full
// "path:version:channel" triple.
func padSDKReference(raw string) string {
	colons := 0
	for _, r := range raw {
		if r == ':' {
			colons++
		}
	}
	switch colons {
	case 0:
		return raw + "::"
	case 1:
		return raw + ":"
	default:
		return raw
	}
}
