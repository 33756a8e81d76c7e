package driver

import (
	"context"

	"github.com/pkg/errors"
	"go.starlark.net/starlark"

	"github.com/labt-build/labt/hostapi"
)

// EnvironmentFactory builds the Host API environment a single task runs
// under; the driver asks for a fresh one per task so Stage and Unsafe
// always reflect that task, not whatever ran before it.
type EnvironmentFactory func(task Task) (*hostapi.Environment, error)

// StarlarkRunner executes a task's script file as a Starlark module: the
// Host API's fixed vocabulary is bound as the module's predeclared
// globals, and the script's top-level statements run to completion, the
// same "whole-file program, not a function call" model Android's own
// build tooling uses for its go.starlark.net-based bp2build scripts.
type StarlarkRunner struct {
	NewEnvironment EnvironmentFactory
}

func NewStarlarkRunner(factory EnvironmentFactory) *StarlarkRunner {
	return &StarlarkRunner{NewEnvironment: factory}
}

func (r *StarlarkRunner) Execute(ctx context.Context, task Task) error {
	env, err := r.NewEnvironment(task)
	if err != nil {
		return errors.Wrapf(err, "building host environment for %s/%s", task.PluginID, task.Name)
	}

	thread := &starlark.Thread{
		Name: task.PluginID + "/" + task.Name,
		Load: rejectLoad,
	}

	if ctx != nil {
		thread.SetLocal("context", ctx)
	}

	globals := hostapi.Builtins(env)
	_, err = starlark.ExecFile(thread, task.ScriptPath, nil, globals)
	if err != nil {
		if evalErr, ok := err.(*starlark.EvalError); ok {
			return errors.Errorf("%s/%s: %s", task.PluginID, task.Name, evalErr.Backtrace())
		}
		return errors.Wrapf(err, "%s/%s", task.PluginID, task.Name)
	}
	return nil
}

// rejectLoad disables Starlark's load() statement: a task's only access to
// other code is the fixed Host API, a closed capability set, never an
// arbitrary sibling file or a module system.
func rejectLoad(thread *starlark.Thread, module string) (starlark.StringDict, error) {
	return nil, errors.Errorf("load(%q): plugin tasks cannot load additional Starlark modules", module)
}
