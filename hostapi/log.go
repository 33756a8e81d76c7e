package hostapi

import (
	"go.starlark.net/starlark"

	"github.com/labt-build/labt/log"
)

// newLogModule binds the three logging severities, each taking
// (target, message) strings, onto the task's shared *log.Logger.
func newLogModule(env *Environment) *namespace {
	sev := func(level log.Severity) func(*starlark.Thread, *starlark.Builtin, starlark.Tuple, []starlark.Tuple) (starlark.Value, error) {
		return func(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var target, message string
			if err := starlark.UnpackArgs(b.Name(), args, kwargs, "target", &target, "message", &message); err != nil {
				return nil, err
			}
			env.Logger.Target(level, target, message)
			return starlark.None, nil
		}
	}

	return newNamespace("log", starlark.StringDict{
		"info":  starlark.NewBuiltin("info", sev(log.Info)),
		"warn":  starlark.NewBuiltin("warn", sev(log.Warn)),
		"error": starlark.NewBuiltin("error", sev(log.Error)),
	})
}
