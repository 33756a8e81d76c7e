package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/labt-build/labt/driver"
	"github.com/labt-build/labt/hostapi"
	"github.com/labt-build/labt/log"
	"github.com/labt-build/labt/plugin"
	"github.com/labt-build/labt/project"
)

const initShortHelp = `Scaffold a new project from an init-capable plugin`
const initLongHelp = `
init installs a plugin that declares an [init] table in its manifest and
runs its entry-point script once, with the target directory as the
project root. The script is expected to use
template.render and the host API's filesystem capabilities to write the
new project's files, typically including a Labt.toml.

The target directory defaults to the current directory; pass a second
argument to scaffold somewhere else. The directory must not already
contain a Labt.toml.
`

type initCommand struct{}

func (cmd *initCommand) Name() string      { return "init" }
func (cmd *initCommand) Args() string      { return "<plugin-git-url>[@ref] [dir]" }
func (cmd *initCommand) ShortHelp() string { return initShortHelp }
func (cmd *initCommand) LongHelp() string  { return initLongHelp }
func (cmd *initCommand) Hidden() bool      { return false }
func (cmd *initCommand) Register(fs *flag.FlagSet) {}

func (cmd *initCommand) Run(ctx *cliContext, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return errors.New("init requires a plugin git-url[@ref] and an optional target directory")
	}

	target := ctx.WorkingDir
	if len(args) == 2 {
		var err error
		target, err = filepath.Abs(args[1])
		if err != nil {
			return errors.Wrap(err, "resolving target directory")
		}
	}

	if exists, err := configExists(target); err != nil {
		return err
	} else if exists {
		return errors.Errorf("%s already contains a %s", target, project.ConfigName)
	}
	if err := os.MkdirAll(target, 0o755); err != nil {
		return errors.Wrapf(err, "creating %s", target)
	}

	home, err := ctx.home()
	if err != nil {
		return err
	}

	git, ref := args[0], plugin.LatestRef
	if idx := strings.LastIndex(args[0], "@"); idx > 0 {
		git, ref = args[0][:idx], args[0][idx+1:]
	}

	host := pluginHost(home)
	p, err := host.Install(plugin.Source{ID: "init-scaffold", Git: git, Ref: ref})
	if err != nil {
		return errors.Wrap(err, "installing init plugin")
	}
	if p.Manifest.Init == nil {
		return errors.Errorf("plugin %s declares no [init] table", p.ID)
	}

	task := driver.Task{
		PluginID:   p.ID,
		Task:       plugin.Task{Name: "init", File: p.Manifest.Init.File},
		ScriptPath: filepath.Join(p.Dir, p.Manifest.Init.File),
	}

	env := &hostapi.Environment{
		Project:      &project.Project{Root: target, Config: &project.Config{}},
		Unsafe:       false,
		Prompter:     &hostapi.PromptUIPrompter{},
		Logger:       log.New(ctx.Out.Writer()),
		TemplateRoot: p.Dir,
		TemplateGlob: p.Manifest.Init.Templates,
	}

	runner := driver.NewStarlarkRunner(func(driver.Task) (*hostapi.Environment, error) { return env, nil })
	if err := runner.Execute(context.Background(), task); err != nil {
		return errors.Wrap(err, "running init script")
	}

	ctx.Out.Printf("initialized project in %s\n", target)
	return nil
}

func configExists(dir string) (bool, error) {
	_, err := os.Stat(filepath.Join(dir, project.ConfigName))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}
