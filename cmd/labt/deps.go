package main

import (
	"flag"

	"github.com/pkg/errors"
)

const depsShortHelp = `Print the resolved dependency list from Labt.lock`
const depsLongHelp = `
Prints every locked dependency, one per line, in resolution order: direct
dependencies first, then their transitive closure. Each line is
group:artifact:version, annotated with "(direct)" or the coordinate of the
parent that pulled it in.

deps reads Labt.lock only; run "labt resolve" first if it is missing or
stale.
`

type depsCommand struct{}

func (cmd *depsCommand) Name() string      { return "deps" }
func (cmd *depsCommand) Args() string      { return "" }
func (cmd *depsCommand) ShortHelp() string { return depsShortHelp }
func (cmd *depsCommand) LongHelp() string  { return depsLongHelp }
func (cmd *depsCommand) Hidden() bool      { return false }
func (cmd *depsCommand) Register(fs *flag.FlagSet) {}

func (cmd *depsCommand) Run(ctx *cliContext, args []string) error {
	p, err := ctx.loadProject()
	if err != nil {
		return err
	}
	if p.Lock == nil {
		return errors.New("no Labt.lock found; run `labt resolve` first")
	}

	for _, d := range p.Lock.Dependencies {
		coord := d.Group + ":" + d.Artifact + ":" + d.Version
		if d.Direct {
			ctx.Out.Printf("%s (direct)\n", coord)
		} else {
			ctx.Out.Printf("%s (via %s)\n", coord, d.DependencyOf)
		}
	}
	return nil
}
