package driver

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/labt-build/labt/plugin"
)

func testPlugin(id string, tasks ...plugin.Task) *plugin.Plugin {
	return &plugin.Plugin{ID: id, Dir: filepath.Join("/plugins", id), Manifest: &plugin.Manifest{Tasks: tasks}}
}

func TestCollectTasksFiltersByStageAndOrdersByPriority(t *testing.T) {
	plugins := []*plugin.Plugin{
		testPlugin("a",
			plugin.Task{Stage: plugin.StagePre, Name: "low", File: "low.star", Priority: 1},
			plugin.Task{Stage: plugin.StageCompile, Name: "compile", File: "compile.star"},
		),
		testPlugin("b",
			plugin.Task{Stage: plugin.StagePre, Name: "high", File: "high.star", Priority: 10},
		),
	}

	tasks := CollectTasks(plugins, plugin.StagePre)
	if len(tasks) != 2 {
		t.Fatalf("tasks = %+v, want 2 pre-stage tasks", tasks)
	}
	if tasks[0].Name != "high" || tasks[1].Name != "low" {
		t.Errorf("tasks = %+v, want descending priority order", tasks)
	}
	if tasks[0].ScriptPath != filepath.Join("/plugins", "b", "high.star") {
		t.Errorf("ScriptPath = %q", tasks[0].ScriptPath)
	}
}

func TestCollectTasksTieBreaksByPluginThenName(t *testing.T) {
	plugins := []*plugin.Plugin{
		testPlugin("z", plugin.Task{Stage: plugin.StagePre, Name: "t", File: "t.star"}),
		testPlugin("a", plugin.Task{Stage: plugin.StagePre, Name: "t", File: "t.star"}),
	}
	tasks := CollectTasks(plugins, plugin.StagePre)
	if len(tasks) != 2 || tasks[0].PluginID != "a" {
		t.Errorf("tasks = %+v, want plugin 'a' first on equal priority", tasks)
	}
}

// fakeRunner records every task it's asked to execute and can be made to
// fail on a named task.
type fakeRunner struct {
	executed []string
	failOn   string
}

func (f *fakeRunner) Execute(ctx context.Context, task Task) error {
	f.executed = append(f.executed, task.Name)
	if task.Name == f.failOn {
		return errTest
	}
	return nil
}

type testErr string

func (e testErr) Error() string { return string(e) }

var errTest = testErr("task failed")

func TestDriverRunStopsAtFirstFailure(t *testing.T) {
	root := t.TempDir()
	plugins := []*plugin.Plugin{
		testPlugin("a",
			plugin.Task{Stage: plugin.StagePre, Name: "one", File: "one.star"},
			plugin.Task{Stage: plugin.StagePre, Name: "two", File: "two.star"},
			plugin.Task{Stage: plugin.StageCompile, Name: "three", File: "three.star"},
		),
	}

	runner := &fakeRunner{failOn: "two"}
	d := New(root, runner)

	err := d.Run(context.Background(), plugins)
	if err == nil {
		t.Fatal("expected Run to stop and return an error")
	}
	if len(runner.executed) != 2 {
		t.Fatalf("executed = %v, want exactly [one, two]", runner.executed)
	}
}

func TestDriverRunSkipsUpToDateTask(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "input.txt"), []byte("in"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "output.txt"), []byte("out"), 0o644); err != nil {
		t.Fatal(err)
	}
	// Make the output strictly newer than the input so the task is skipped.
	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(filepath.Join(root, "output.txt"), future, future); err != nil {
		t.Fatal(err)
	}

	plugins := []*plugin.Plugin{
		testPlugin("a", plugin.Task{
			Stage: plugin.StagePre, Name: "build", File: "build.star",
			Inputs: []string{"input.txt"}, Outputs: []string{"output.txt"},
		}),
	}

	runner := &fakeRunner{}
	d := New(root, runner)
	if err := d.Run(context.Background(), plugins); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(runner.executed) != 0 {
		t.Errorf("executed = %v, want the up-to-date task skipped", runner.executed)
	}
}

func TestDriverUnsafeOverridesTaskDeclaration(t *testing.T) {
	root := t.TempDir()
	plugins := []*plugin.Plugin{
		testPlugin("a", plugin.Task{Stage: plugin.StagePre, Name: "t", File: "t.star", Unsafe: true}),
	}

	var sawUnsafe bool
	runner := runnerFunc(func(ctx context.Context, task Task) error {
		sawUnsafe = task.Unsafe
		return nil
	})

	d := New(root, runner)
	d.Unsafe = true // init mode forces every task's unsafe flag off
	if err := d.Run(context.Background(), plugins); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sawUnsafe {
		t.Error("expected Driver.Unsafe=true to force the task's own unsafe declaration off")
	}
}

type runnerFunc func(ctx context.Context, task Task) error

func (f runnerFunc) Execute(ctx context.Context, task Task) error { return f(ctx, task) }
