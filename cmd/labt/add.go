package main

import (
	"flag"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/labt-build/labt/internal/fs"
	"github.com/labt-build/labt/project"
)

const addShortHelp = `Add a dependency to the project file`
const addLongHelp = `
Adds or replaces a dependency entry in Labt.toml. The coordinate is given as
group:artifact:version, e.g. com.squareup.okhttp3:okhttp:4.12.0. The
artifact id becomes the dependency's table key.

add does not resolve; run "labt resolve" afterward to update Labt.lock.
`

type addCommand struct {
	exclude string
}

func (cmd *addCommand) Name() string      { return "add" }
func (cmd *addCommand) Args() string      { return "<group:artifact:version>" }
func (cmd *addCommand) ShortHelp() string { return addShortHelp }
func (cmd *addCommand) LongHelp() string  { return addLongHelp }
func (cmd *addCommand) Hidden() bool      { return false }

func (cmd *addCommand) Register(fs *flag.FlagSet) {
	fs.StringVar(&cmd.exclude, "exclude", "", "comma-separated group:artifact exclusions")
}

func (cmd *addCommand) Run(ctx *cliContext, args []string) error {
	if len(args) != 1 {
		return errors.New("add requires exactly one group:artifact:version argument")
	}

	parts := strings.Split(args[0], ":")
	if len(parts) != 3 {
		return errors.Errorf("invalid coordinate %q: expected group:artifact:version", args[0])
	}
	group, artifact, version := parts[0], parts[1], parts[2]

	var exclusions []string
	if cmd.exclude != "" {
		exclusions = strings.Split(cmd.exclude, ",")
	}

	p, err := ctx.loadProject()
	if err != nil {
		return err
	}

	data, err := p.Config.AddDependency(project.Dependency{
		ArtifactID: artifact,
		Group:      group,
		Version:    version,
		Exclusions: exclusions,
	})
	if err != nil {
		return errors.Wrap(err, "updating project file")
	}

	path := filepath.Join(p.Root, project.ConfigName)
	if err := fs.WriteFileAtomic(path, data, 0o644); err != nil {
		return errors.Wrap(err, "writing "+project.ConfigName)
	}

	ctx.Out.Printf("added %s:%s:%s\n", group, artifact, version)
	return nil
}
