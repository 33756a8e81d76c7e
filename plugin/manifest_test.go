package plugin

import "testing"

const sampleManifest = `
name = "android-basic"
version = "1.4.0"
author = "example"

[stage.pre.clean]
file = "tasks/clean.star"
priority = 10

[stage.compile]
file = "tasks/javac.star"
priority = 5
inputs = ["src/**/*.java"]
outputs = ["build/classes/**"]
unsafe = true

[sdk.platform]
path = "platforms;android-34"
version = "34.0.0"

[[repository]]
name = "central"
type = "maven"
url = "https://repo1.maven.org/maven2"

[init]
file = "scaffold/init.star"
`

func TestParseManifest(t *testing.T) {
	m, err := ParseManifest([]byte(sampleManifest))
	if err != nil {
		t.Fatalf("ParseManifest: %v", err)
	}

	if m.Name != "android-basic" || m.Version != "1.4.0" {
		t.Errorf("manifest = %+v", m)
	}

	if len(m.Tasks) != 2 {
		t.Fatalf("Tasks = %+v", m.Tasks)
	}
	// Higher priority sorts first within a stage; stage order is pre before compile.
	if m.Tasks[0].Stage != StagePre || m.Tasks[0].Name != "clean" {
		t.Errorf("Tasks[0] = %+v, want the pre-stage clean task first", m.Tasks[0])
	}
	if m.Tasks[1].Stage != StageCompile || !m.Tasks[1].Unsafe {
		t.Errorf("Tasks[1] = %+v, want the unsafe compile task", m.Tasks[1])
	}

	if len(m.SDKBindings) != 1 || m.SDKBindings[0].Path != "platforms;android-34" {
		t.Errorf("SDKBindings = %+v", m.SDKBindings)
	}

	if len(m.Repositories) != 1 || m.Repositories[0].Name != "central" {
		t.Errorf("Repositories = %+v", m.Repositories)
	}

	if m.Init == nil || m.Init.File != "scaffold/init.star" || m.Init.Templates != "templates/*" {
		t.Errorf("Init = %+v, want the default template glob filled in", m.Init)
	}
}

func TestParseManifestRejectsUnknownStage(t *testing.T) {
	_, err := ParseManifest([]byte(`
[stage.nonsense]
file = "x.star"
`))
	if err == nil {
		t.Fatal("expected an error for an unknown stage name")
	}
}

func TestParseManifestRejectsTaskWithoutFile(t *testing.T) {
	_, err := ParseManifest([]byte(`
[stage.pre.broken]
priority = 1
`))
	if err == nil {
		t.Fatal("expected an error for a task with no file")
	}
}

func TestSDKBindingCompactStringForm(t *testing.T) {
	m, err := ParseManifest([]byte(`
[sdk]
tools = "tools:26.0.0"
`))
	if err != nil {
		t.Fatalf("ParseManifest: %v", err)
	}
	if len(m.SDKBindings) != 1 {
		t.Fatalf("SDKBindings = %+v", m.SDKBindings)
	}
	b := m.SDKBindings[0]
	if b.Path != "tools" || b.Version != "26.0.0" {
		t.Errorf("binding = %+v", b)
	}
}

func TestParseManifestStageOrdering(t *testing.T) {
	m, err := ParseManifest([]byte(`
[stage.post.finalize]
file = "post.star"

[stage.pre.first]
file = "pre.star"
`))
	if err != nil {
		t.Fatalf("ParseManifest: %v", err)
	}
	if len(m.Tasks) != 2 || m.Tasks[0].Stage != StagePre || m.Tasks[1].Stage != StagePost {
		t.Errorf("Tasks = %+v, want pre before post regardless of declaration order", m.Tasks)
	}
}
