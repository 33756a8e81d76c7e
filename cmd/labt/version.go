package main

import "flag"

// Version, CommitHash, and BuildDate are set by the release build's
// ldflags (hack/magefile.go's Build target); they stay at these
// defaults for a plain `go build`.
var (
	Version    = "dev"
	CommitHash = ""
	BuildDate  = ""
)

const versionShortHelp = `Print the labt version`

type versionCommand struct{}

func (cmd *versionCommand) Name() string      { return "version" }
func (cmd *versionCommand) Args() string      { return "" }
func (cmd *versionCommand) ShortHelp() string { return versionShortHelp }
func (cmd *versionCommand) LongHelp() string  { return versionShortHelp }
func (cmd *versionCommand) Hidden() bool      { return false }
func (cmd *versionCommand) Register(fs *flag.FlagSet) {}

func (cmd *versionCommand) Run(ctx *cliContext, args []string) error {
	if CommitHash != "" {
		ctx.Out.Printf("labt %s (%s, built %s)\n", Version, CommitHash, BuildDate)
		return nil
	}
	ctx.Out.Printf("labt %s\n", Version)
	return nil
}
