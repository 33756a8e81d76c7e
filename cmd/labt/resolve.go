package main

import (
	"crypto/sha256"
	"flag"
	"fmt"

	"github.com/pkg/errors"

	"github.com/labt-build/labt/project"
)

const resolveShortHelp = `Resolve the project's dependencies and write Labt.lock`
const resolveLongHelp = `
Resolves every dependency named in Labt.toml through the configured resolver
chain (the artifact cache first, then each configured repository in order)
and writes the result to Labt.lock.

If the direct-dependency set and resolver chain are unchanged since the last
resolution, resolve is a no-op unless -force is given.
`

type resolveCommand struct {
	force bool
}

func (cmd *resolveCommand) Name() string      { return "resolve" }
func (cmd *resolveCommand) Args() string      { return "" }
func (cmd *resolveCommand) ShortHelp() string { return resolveShortHelp }
func (cmd *resolveCommand) LongHelp() string  { return resolveLongHelp }
func (cmd *resolveCommand) Hidden() bool      { return false }

func (cmd *resolveCommand) Register(fs *flag.FlagSet) {
	fs.BoolVar(&cmd.force, "force", false, "resolve even if the input memo matches the existing lockfile")
}

func (cmd *resolveCommand) Run(ctx *cliContext, args []string) error {
	p, err := ctx.loadProject()
	if err != nil {
		return err
	}

	home, err := ctx.home()
	if err != nil {
		return err
	}

	direct := directRequests(p.Config)
	memo := memoize(p.Config)

	if !cmd.force && p.Lock != nil && bytesEqual(p.Lock.Memo, memo) {
		ctx.logf("resolve: inputs unchanged, Labt.lock is up to date\n")
		return nil
	}

	r := resolverChain(home, p.Config)
	lf, err := r.Resolve(direct)
	if err != nil {
		return errors.Wrap(err, "resolving dependencies")
	}
	lf.Memo = memo

	if err := lf.WriteTo(p.Root); err != nil {
		return errors.Wrap(err, "writing Labt.lock")
	}

	ctx.Out.Printf("resolved %d dependencies\n", len(lf.Dependencies))
	return nil
}

// memoize hashes the direct-dependency set and resolver chain so resolve
// can short-circuit when nothing relevant has changed.
func memoize(cfg *project.Config) []byte {
	h := sha256.New()
	for _, d := range cfg.Dependencies {
		fmt.Fprintf(h, "%s:%s:%s:%v\n", d.Group, d.ArtifactID, d.Version, d.Exclusions)
	}
	for _, r := range cfg.Resolvers {
		fmt.Fprintf(h, "%s:%s:%s\n", r.Name, r.Type, r.URL)
	}
	return h.Sum(nil)
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
