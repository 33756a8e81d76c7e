package hostapi

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.starlark.net/starlark"

	"github.com/labt-build/labt/internal/semverx"
	"github.com/labt-build/labt/log"
	"github.com/labt-build/labt/plugin"
	"github.com/labt-build/labt/project"
	"github.com/labt-build/labt/resolver"
)

func run(t *testing.T, env *Environment, src string) starlark.StringDict {
	t.Helper()
	thread := &starlark.Thread{Name: "test"}
	globals, err := starlark.ExecFile(thread, "task.star", src, Builtins(env))
	if err != nil {
		if evalErr, ok := err.(*starlark.EvalError); ok {
			t.Fatalf("exec: %s", evalErr.Backtrace())
		}
		t.Fatalf("exec: %v", err)
	}
	return globals
}

func newTestEnv(t *testing.T) (*Environment, string) {
	root := t.TempDir()
	var out strings.Builder
	return &Environment{
		Project: &project.Project{Root: root, Config: &project.Config{}},
		Stage:   plugin.StageCompile,
		Logger:  log.New(&out),
	}, root
}

func TestFilesystemBuiltinsMkdirExistsGlob(t *testing.T) {
	env, root := newTestEnv(t)

	run(t, env, `
mkdir_all("a/b")
exists_ab = exists("a/b")
`)
	if _, err := os.Stat(filepath.Join(root, "a", "b")); err != nil {
		t.Fatalf("mkdir_all did not create a/b: %v", err)
	}

	if err := os.WriteFile(filepath.Join(root, "a", "b", "one.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	globals := run(t, env, `matches = glob("a/b/*.txt")`)
	matches, ok := globals["matches"].(*starlark.List)
	if !ok || matches.Len() != 1 {
		t.Errorf("glob result = %v", globals["matches"])
	}
}

func TestFilesystemBuiltinsCopyMoveRemove(t *testing.T) {
	env, root := newTestEnv(t)
	if err := os.WriteFile(filepath.Join(root, "src.txt"), []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}

	run(t, env, `
copy("src.txt", "dst.txt")
mv("dst.txt", "moved.txt")
rm("src.txt")
`)

	if _, err := os.Stat(filepath.Join(root, "moved.txt")); err != nil {
		t.Errorf("expected moved.txt to exist: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "src.txt")); !os.IsNotExist(err) {
		t.Errorf("expected src.txt removed, got err=%v", err)
	}
}

func TestFilesystemCopyDirectoryRequiresRecursive(t *testing.T) {
	env, root := newTestEnv(t)
	if err := os.MkdirAll(filepath.Join(root, "srcdir"), 0o755); err != nil {
		t.Fatal(err)
	}

	thread := &starlark.Thread{Name: "test"}
	_, err := starlark.ExecFile(thread, "task.star", `copy("srcdir", "dstdir")`, Builtins(env))
	if err == nil {
		t.Fatal("expected copying a directory without recursive=True to fail")
	}
}

func TestIsNewerMissingFiles(t *testing.T) {
	env, root := newTestEnv(t)
	if err := os.WriteFile(filepath.Join(root, "present.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	globals := run(t, env, `
missing_b = is_newer("present.txt", "absent.txt")
missing_a = is_newer("absent.txt", "present.txt")
`)
	if bool(globals["missing_b"].(starlark.Bool)) != true {
		t.Error("is_newer should be true when b is missing")
	}
	if bool(globals["missing_a"].(starlark.Bool)) != false {
		t.Error("is_newer should be false when a is missing")
	}
}

func TestGetProjectConfigAndRoot(t *testing.T) {
	env, root := newTestEnv(t)
	env.Project.Config.Meta = project.Meta{Name: "demo", Package: "com.example.demo"}
	env.Project.Config.Dependencies = []project.Dependency{
		{ArtifactID: "okhttp", Group: "com.squareup.okhttp3", Version: "4.12.0"},
	}

	globals := run(t, env, `
cfg = get_project_config()
name = cfg["project"]["name"]
dep_group = cfg["dependencies"][0]["group"]
root_path = get_project_root()
stage = get_build_step()
`)

	if string(globals["name"].(starlark.String)) != "demo" {
		t.Errorf("name = %v", globals["name"])
	}
	if string(globals["dep_group"].(starlark.String)) != "com.squareup.okhttp3" {
		t.Errorf("dep_group = %v", globals["dep_group"])
	}
	if string(globals["root_path"].(starlark.String)) != root {
		t.Errorf("root_path = %v, want %v", globals["root_path"], root)
	}
	if string(globals["stage"].(starlark.String)) != string(plugin.StageCompile) {
		t.Errorf("stage = %v", globals["stage"])
	}
}

func TestGetLockDependenciesEmptyWhenNoLock(t *testing.T) {
	env, _ := newTestEnv(t)
	globals := run(t, env, `deps = get_lock_dependencies()`)
	deps, ok := globals["deps"].(*starlark.List)
	if !ok || deps.Len() != 0 {
		t.Errorf("deps = %v, want empty list", globals["deps"])
	}
}

func TestGetLockDependenciesReturnsEntries(t *testing.T) {
	env, _ := newTestEnv(t)
	env.Project.Lock = &project.Lockfile{
		Dependencies: []project.LockedDependency{
			{Group: "com.squareup.okhttp3", Artifact: "okhttp", Version: "4.12.0", Direct: true},
		},
	}
	globals := run(t, env, `deps = get_lock_dependencies()
artifact = deps[0]["artifact"]
direct = deps[0]["direct"]`)
	if string(globals["artifact"].(starlark.String)) != "okhttp" {
		t.Errorf("artifact = %v", globals["artifact"])
	}
	if !bool(globals["direct"].(starlark.Bool)) {
		t.Error("direct should be true")
	}
}

type fakeCache struct{}

func (fakeCache) PathFor(group, artifact, version, packaging string) string {
	return filepath.Join("/cache", group, artifact, version, artifact+"-"+version+"."+packaging)
}

func TestGetCachePath(t *testing.T) {
	env, _ := newTestEnv(t)
	env.Cache = fakeCache{}
	globals := run(t, env, `p = get_cache_path("com.squareup.okhttp3", "okhttp", "4.12.0", "jar")`)
	want := filepath.Join("/cache", "com.squareup.okhttp3", "okhttp", "4.12.0", "okhttp-4.12.0.jar")
	if string(globals["p"].(starlark.String)) != want {
		t.Errorf("p = %v, want %v", globals["p"], want)
	}
}

type fakeResolver struct {
	called bool
	got    []resolver.DirectRequest
}

func (f *fakeResolver) Resolve(direct []resolver.DirectRequest) (*project.Lockfile, error) {
	f.called = true
	f.got = direct
	return &project.Lockfile{Dependencies: []project.LockedDependency{
		{Group: direct[0].Group, Artifact: direct[0].Artifact, Version: direct[0].Version, Direct: true},
	}}, nil
}

func TestResolveBuiltinWritesLockfile(t *testing.T) {
	env, root := newTestEnv(t)
	env.Project.Config.Dependencies = []project.Dependency{
		{ArtifactID: "okhttp", Group: "com.squareup.okhttp3", Version: "4.12.0", Exclusions: []string{"com.squareup.okio:okio"}},
	}
	fr := &fakeResolver{}
	env.Resolver = fr

	run(t, env, `resolve()`)

	if !fr.called {
		t.Fatal("expected resolve() to call the resolver")
	}
	if !fr.got[0].Exclusions["com.squareup.okio:okio"] {
		t.Error("expected the exclusion to be forwarded to the resolver")
	}
	if env.Project.Lock == nil || len(env.Project.Lock.Dependencies) != 1 {
		t.Errorf("Project.Lock = %+v", env.Project.Lock)
	}
	if _, err := os.Stat(filepath.Join(root, project.LockName)); err != nil {
		t.Errorf("expected a lockfile written to disk: %v", err)
	}
}

func TestProcessDispatchRejectsUnsafeByDefault(t *testing.T) {
	env, root := newTestEnv(t)
	if err := os.WriteFile(filepath.Join(root, "localtool"), []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	// A local executable found directly under the working root is always safe.
	run(t, env, `ok, code = sys.localtool()`)

	thread := &starlark.Thread{Name: "test"}
	_, err := starlark.ExecFile(thread, "task.star", `sys.echo("hi")`, Builtins(env))
	if err == nil {
		t.Fatal("expected dispatching a non-local command without Unsafe to fail")
	}
}

func TestProcessDispatchCapturedOutput(t *testing.T) {
	env, root := newTestEnv(t)
	script := "#!/bin/sh\necho captured\n"
	if err := os.WriteFile(filepath.Join(root, "greet"), []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}

	globals := run(t, env, `ok, out, err = sys.get_greet()`)
	if !bool(globals["ok"].(starlark.Bool)) {
		t.Fatal("expected greet to succeed")
	}
	if got := string(globals["out"].(starlark.String)); strings.TrimSpace(got) != "captured" {
		t.Errorf("out = %q", got)
	}
}

func TestSDKDispatchViaRequire(t *testing.T) {
	env, _ := newTestEnv(t)
	env.SDKRoot = t.TempDir()
	diskDir := filepath.Join(env.SDKRoot, "platforms", "android-34")
	if err := os.MkdirAll(diskDir, 0o755); err != nil {
		t.Fatal(err)
	}
	env.Installed = map[string]InstalledPackage{
		"platform": {DiskPath: "platforms/android-34", Version: semverx.Parse("34.0.0"), Channel: "stable"},
	}

	globals := run(t, env, `
mod = require("sdk:platform")
p = mod.path
v = mod.version
f = mod.file("android.jar")
`)
	if string(globals["p"].(starlark.String)) != diskDir {
		t.Errorf("path = %v, want %v", globals["p"], diskDir)
	}
	if string(globals["v"].(starlark.String)) != "34.0.0" {
		t.Errorf("version = %v", globals["v"])
	}
	if string(globals["f"].(starlark.String)) != filepath.Join(diskDir, "android.jar") {
		t.Errorf("file() = %v", globals["f"])
	}
}

func TestSDKDispatchUnknownPackageErrors(t *testing.T) {
	env, _ := newTestEnv(t)
	env.Installed = map[string]InstalledPackage{}
	thread := &starlark.Thread{Name: "test"}
	_, err := starlark.ExecFile(thread, "task.star", `require("sdk:missing")`, Builtins(env))
	if err == nil {
		t.Fatal("expected an error requiring an uninstalled sdk package")
	}
}

func TestRequireRejectsNonSDKModule(t *testing.T) {
	env, _ := newTestEnv(t)
	thread := &starlark.Thread{Name: "test"}
	_, err := starlark.ExecFile(thread, "task.star", `require("net:http")`, Builtins(env))
	if err == nil {
		t.Fatal("expected an error for a module name outside the sdk: family")
	}
}

func TestLogModuleWritesTargetLines(t *testing.T) {
	env, _ := newTestEnv(t)
	var buf strings.Builder
	env.Logger = log.New(&buf)

	run(t, env, `log.info("compiler", "starting")`)
	if got := buf.String(); !strings.Contains(got, "compiler") || !strings.Contains(got, "starting") {
		t.Errorf("log output = %q", got)
	}
}

func TestTemplateRenderUsesTemplateRootAndGlob(t *testing.T) {
	env, _ := newTestEnv(t)
	tmplDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(tmplDir, "templates"), 0o755); err != nil {
		t.Fatal(err)
	}
	tmplFile := filepath.Join(tmplDir, "templates", "AndroidManifest.xml.tmpl")
	if err := os.WriteFile(tmplFile, []byte(`package="{{.Package}}"`), 0o644); err != nil {
		t.Fatal(err)
	}
	env.TemplateRoot = tmplDir

	globals := run(t, env, `
out = template.render("AndroidManifest.xml.tmpl", {"Package": "com.example.demo"})
`)
	if got := string(globals["out"].(starlark.String)); got != `package="com.example.demo"` {
		t.Errorf("render = %q", got)
	}
}

func TestArchiveWriterReaderRoundTrip(t *testing.T) {
	env, root := newTestEnv(t)
	if err := os.WriteFile(filepath.Join(root, "payload.txt"), []byte("payload"), 0o644); err != nil {
		t.Fatal(err)
	}

	run(t, env, `
w = archive.writer("out.zip")
w.add_file("payload.txt", "payload.txt")
w.close()
`)
	if _, err := os.Stat(filepath.Join(root, "out.zip")); err != nil {
		t.Fatalf("expected out.zip to exist: %v", err)
	}

	run(t, env, `
r = archive.reader("out.zip")
r.extract("extracted")
`)
	if _, err := os.Stat(filepath.Join(root, "extracted", "payload.txt")); err != nil {
		t.Errorf("expected extracted/payload.txt to exist: %v", err)
	}
}
