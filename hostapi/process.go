package hostapi

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"go.starlark.net/starlark"
)

// processObject is the dynamically dispatched capability object:
// `<name>(args...)` spawns an executable, and `get_<name>(args...)`
// captures its output instead of inheriting stdio. Neither form is
// enumerable ahead of time, so it implements HasAttrs rather than
// exposing a fixed StringDict, intercepting arbitrary attribute access
// and validating the command name as the attribute is looked up.
type processObject struct {
	env  *Environment
	root string // working directory commands run from; "" means project root
}

func newProcessObject(env *Environment, root string) *processObject {
	return &processObject{env: env, root: root}
}

var _ starlark.Value = (*processObject)(nil)
var _ starlark.HasAttrs = (*processObject)(nil)

func (p *processObject) String() string        { return "<process capability>" }
func (p *processObject) Type() string           { return "process" }
func (p *processObject) Freeze()                {}
func (p *processObject) Truth() starlark.Bool   { return starlark.True }
func (p *processObject) Hash() (uint32, error)  { return 0, errors.New("process capability is not hashable") }

// Attr resolves <name> to a bound builtin spawning that executable, and
// get_<name> to the captured-output variant, validating the underlying
// command name against path separators either way.
func (p *processObject) Attr(name string) (starlark.Value, error) {
	cmdName := name
	captured := false
	if strings.HasPrefix(name, "get_") {
		cmdName = strings.TrimPrefix(name, "get_")
		captured = true
	}

	if err := validateCommandName(cmdName); err != nil {
		return nil, err
	}

	if captured {
		return starlark.NewBuiltin(name, p.runCaptured(cmdName)), nil
	}
	return starlark.NewBuiltin(name, p.runInherited(cmdName)), nil
}

// AttrNames cannot enumerate the infinite dispatch surface; it returns
// none, matching Starlark's contract that AttrNames is best-effort (used
// only for dir()/error-message suggestions).
func (p *processObject) AttrNames() []string { return nil }

func validateCommandName(name string) error {
	if name == "" {
		return errors.New("process: empty command name")
	}
	if strings.ContainsAny(name, "/\\") {
		return errors.Errorf("process: command name %q must not contain path separators", name)
	}
	return nil
}

// resolveCommand finds the executable to run, honoring the unsafe flag: a
// safe task may only dispatch an executable found directly under its
// working root, never one reached through $PATH; an unsafe task may run
// anything the host's PATH resolves, the nearest equivalent a sandboxed
// Starlark embedding has to "loading external native libraries".
func (p *processObject) resolveCommand(cmdName string) (string, error) {
	local := filepath.Join(p.workDir(), cmdName)
	if fi, err := os.Stat(local); err == nil && !fi.IsDir() {
		return local, nil
	}

	if !p.env.Unsafe {
		return "", errors.Errorf("process: %q is not a safe task capability; mark the task (or plugin) unsafe to reach it", cmdName)
	}

	resolved, err := exec.LookPath(cmdName)
	if err != nil {
		return "", errors.Wrapf(err, "resolving %s", cmdName)
	}
	return resolved, nil
}

func (p *processObject) runInherited(cmdName string) func(*starlark.Thread, *starlark.Builtin, starlark.Tuple, []starlark.Tuple) (starlark.Value, error) {
	return func(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		argv, err := stringArgs(args)
		if err != nil {
			return nil, err
		}

		resolved, err := p.resolveCommand(cmdName)
		if err != nil {
			return nil, err
		}

		cmd := exec.Command(resolved, argv...)
		cmd.Dir = p.workDir()
		cmd.Stdin = os.Stdin
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		err = cmd.Run()

		exitCode := 0
		success := true
		if err != nil {
			success = false
			if exitErr, ok := err.(*exec.ExitError); ok {
				exitCode = exitErr.ExitCode()
			} else {
				return nil, errors.Wrapf(err, "running %s", cmdName)
			}
		}

		return starlark.Tuple{starlark.Bool(success), starlark.MakeInt(exitCode)}, nil
	}
}

func (p *processObject) runCaptured(cmdName string) func(*starlark.Thread, *starlark.Builtin, starlark.Tuple, []starlark.Tuple) (starlark.Value, error) {
	return func(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		argv, err := stringArgs(args)
		if err != nil {
			return nil, err
		}

		resolved, err := p.resolveCommand(cmdName)
		if err != nil {
			return nil, err
		}

		var stdout, stderr bytes.Buffer
		cmd := exec.Command(resolved, argv...)
		cmd.Dir = p.workDir()
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
		err = cmd.Run()

		success := err == nil
		if err != nil {
			if _, ok := err.(*exec.ExitError); !ok {
				return nil, errors.Wrapf(err, "running %s", cmdName)
			}
		}

		// Stdout and stderr are returned exactly as captured, never merged
		// or reordered.
		return starlark.Tuple{starlark.Bool(success), starlark.String(stdout.String()), starlark.String(stderr.String())}, nil
	}
}

func (p *processObject) workDir() string {
	if p.root != "" {
		return p.root
	}
	return p.env.Project.Root
}

func stringArgs(args starlark.Tuple) ([]string, error) {
	out := make([]string, len(args))
	for i, a := range args {
		s, ok := starlark.AsString(a)
		if !ok {
			return nil, errors.Errorf("argument %d must be a string", i)
		}
		out[i] = s
	}
	return out, nil
}
