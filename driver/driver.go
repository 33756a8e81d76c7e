// Package driver implements the plugin driver: running every active
// plugin's contributed tasks through the fixed stage order, skipping a
// task whose declared outputs are already newer than its inputs, and
// aborting the whole build on the first task failure.
package driver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/labt-build/labt/plugin"
)

// Task is one plugin's stage contribution, resolved to an absolute script
// path and ready to execute.
type Task struct {
	PluginID string
	plugin.Task
	ScriptPath string
}

// Runner executes Tasks for a project's active plugins; Execute is
// pluggable so tests can substitute a fake without a real Starlark runtime.
type Runner interface {
	Execute(ctx context.Context, task Task) error
}

// Driver collects and runs tasks across the fixed stage order for one
// build invocation.
type Driver struct {
	ProjectRoot string
	Runner      Runner
	Unsafe      bool // init mode forces this off regardless of manifest/task declarations
}

// New builds a Driver bound to a project root and execution Runner.
func New(projectRoot string, runner Runner) *Driver {
	return &Driver{ProjectRoot: projectRoot, Runner: runner}
}

// CollectTasks gathers every task from the given plugins for one stage,
// ordered by descending priority and then by plugin id then task name for
// a fully deterministic tie-break.
func CollectTasks(plugins []*plugin.Plugin, stage plugin.Stage) []Task {
	var out []Task
	for _, p := range plugins {
		for _, t := range p.Manifest.Tasks {
			if t.Stage != stage {
				continue
			}
			if p.Manifest.Unsafe {
				t.Unsafe = true // plugin-wide flag applies to every task
			}
			out = append(out, Task{
				PluginID:   p.ID,
				Task:       t,
				ScriptPath: filepath.Join(p.Dir, t.File),
			})
		}
	}

	stableSort(out)
	return out
}

func stableSort(tasks []Task) {
	// Insertion sort: stage lists are short (a handful of plugins at most),
	// and this keeps the tie-break rule inline and obviously correct rather
	// than split across a sort.Interface implementation.
	for i := 1; i < len(tasks); i++ {
		j := i
		for j > 0 && less(tasks[j], tasks[j-1]) {
			tasks[j], tasks[j-1] = tasks[j-1], tasks[j]
			j--
		}
	}
}

func less(a, b Task) bool {
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	if a.PluginID != b.PluginID {
		return a.PluginID < b.PluginID
	}
	return a.Name < b.Name
}

// Run executes stages in the fixed order, running every task of one stage
// before moving to the next, and stops the entire build at the first task
// that returns an error: there is no keep-going mode, so a failing task
// leaves later stages entirely unattempted.
func (d *Driver) Run(ctx context.Context, plugins []*plugin.Plugin) error {
	for _, stage := range plugin.Stages {
		tasks := CollectTasks(plugins, stage)
		for _, task := range tasks {
			unsafe := task.Unsafe
			if d.Unsafe {
				unsafe = false
			}
			task.Task.Unsafe = unsafe

			stale, err := isStale(d.ProjectRoot, task.Inputs, task.Outputs)
			if err != nil {
				return errors.Wrapf(err, "checking freshness for %s/%s", task.PluginID, task.Name)
			}
			if !stale {
				continue
			}

			if err := d.Runner.Execute(ctx, task); err != nil {
				return fmt.Errorf("stage %s, task %s/%s: %w", stage, task.PluginID, task.Name, err)
			}
		}
	}
	return nil
}

// isStale reports whether a task needs to run: true if it declares no
// inputs and no outputs (always runs), true if any output is missing, and
// otherwise true if any input is newer than any output.
func isStale(root string, inputs, outputs []string) (bool, error) {
	if len(inputs) == 0 && len(outputs) == 0 {
		return true, nil
	}

	var outFiles []string
	for _, pattern := range outputs {
		matches, err := expandGlobs(root, []string{pattern})
		if err != nil {
			return false, err
		}
		if len(matches) == 0 {
			return true, nil // this output not produced yet
		}
		outFiles = append(outFiles, matches...)
	}

	inFiles, err := expandGlobs(root, inputs)
	if err != nil {
		return false, err
	}

	oldestOutput, err := oldestModTime(outFiles)
	if err != nil {
		return false, err
	}

	for _, in := range inFiles {
		fi, err := os.Stat(in)
		if err != nil {
			return false, errors.Wrapf(err, "statting input %s", in)
		}
		if fi.ModTime().After(oldestOutput) {
			return true, nil
		}
	}

	return false, nil
}

func expandGlobs(root string, patterns []string) ([]string, error) {
	var out []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(root, pattern))
		if err != nil {
			return nil, errors.Wrapf(err, "expanding glob %q", pattern)
		}
		out = append(out, matches...)
	}
	return out, nil
}

func oldestModTime(files []string) (time.Time, error) {
	var oldest time.Time
	first := true
	for _, f := range files {
		fi, err := os.Stat(f)
		if err != nil {
			return oldest, errors.Wrapf(err, "statting output %s", f)
		}
		mt := fi.ModTime()
		if first || mt.Before(oldest) {
			oldest, first = mt, false
		}
	}
	return oldest, nil
}
