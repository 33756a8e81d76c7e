package sdk

import (
	"testing"

	"github.com/labt-build/labt/internal/semverx"
)

func pkg(path, version string, channel Channel) Package {
	return Package{Path: path, Version: semverx.Parse(version), Channel: channel}
}

func TestPlanFreshInstall(t *testing.T) {
	manifest := &Manifest{Packages: []Package{
		pkg("platforms;android-34", "34.0.0", ChannelStable),
	}}

	steps, err := Plan(manifest, map[string]Installed{}, []Request{
		{Path: "platforms;android-34", Channel: ChannelStable},
	})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(steps) != 1 || steps[0].Action != ActionInstall {
		t.Fatalf("steps = %+v, want a single install", steps)
	}
}

func TestPlanUpgradeAndDowngrade(t *testing.T) {
	manifest := &Manifest{Packages: []Package{
		pkg("build-tools;34", "34.0.0", ChannelStable),
	}}

	installed := map[string]Installed{
		"build-tools;34": {Path: "build-tools;34", Version: semverx.Parse("33.0.0")},
	}
	steps, err := Plan(manifest, installed, []Request{{Path: "build-tools;34", Channel: ChannelStable}})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(steps) != 1 || steps[0].Action != ActionUpgrade {
		t.Fatalf("steps = %+v, want a single upgrade", steps)
	}

	installed["build-tools;34"] = Installed{Path: "build-tools;34", Version: semverx.Parse("35.0.0")}
	steps, err = Plan(manifest, installed, []Request{{Path: "build-tools;34", Version: "34.0.0"}})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(steps) != 1 || steps[0].Action != ActionDowngrade {
		t.Fatalf("steps = %+v, want a single downgrade", steps)
	}
}

func TestPlanNoopWhenAlreadyCurrent(t *testing.T) {
	manifest := &Manifest{Packages: []Package{
		pkg("platforms;android-34", "34.0.0", ChannelStable),
	}}
	installed := map[string]Installed{
		"platforms;android-34": {Path: "platforms;android-34", Version: semverx.Parse("34.0.0")},
	}

	steps, err := Plan(manifest, installed, []Request{{Path: "platforms;android-34", Channel: ChannelStable}})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(steps) != 0 {
		t.Errorf("steps = %+v, want no steps for an already-current package", steps)
	}
}

func TestPlanPullsInDependencies(t *testing.T) {
	manifest := &Manifest{Packages: []Package{
		{Path: "platforms;android-34", Version: semverx.Parse("34.0.0"), Channel: ChannelStable,
			DependsOn: []Dependency{{Path: "tools", MinRevision: semverx.Parse("26.0.0")}}},
		pkg("tools", "26.0.0", ChannelStable),
	}}

	steps, err := Plan(manifest, map[string]Installed{}, []Request{
		{Path: "platforms;android-34", Channel: ChannelStable},
	})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}

	if len(steps) != 2 {
		t.Fatalf("steps = %+v, want 2 installs", steps)
	}
	if steps[0].Path != "tools" || steps[1].Path != "platforms;android-34" {
		t.Errorf("steps = %+v, want [tools, platforms;android-34] (dependency before dependent)", steps)
	}
}

func TestPlanOrdersTransitiveDependenciesBeforeDependents(t *testing.T) {
	manifest := &Manifest{Packages: []Package{
		{Path: "a", Version: semverx.Parse("1.0.0"), Channel: ChannelStable,
			DependsOn: []Dependency{{Path: "b", MinRevision: semverx.Parse("1.0.0")}}},
		{Path: "b", Version: semverx.Parse("1.0.0"), Channel: ChannelStable,
			DependsOn: []Dependency{{Path: "c", MinRevision: semverx.Parse("1.0.0")}}},
		pkg("c", "1.0.0", ChannelStable),
	}}

	steps, err := Plan(manifest, map[string]Installed{}, []Request{
		{Path: "a", Channel: ChannelStable},
	})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}

	order := make(map[string]int, len(steps))
	for i, s := range steps {
		order[s.Path] = i
	}
	if !(order["c"] < order["b"] && order["b"] < order["a"]) {
		t.Errorf("steps = %+v, want c before b before a (post-order)", steps)
	}
}

func TestPlanUninstallMissingFromManifest(t *testing.T) {
	installed := map[string]Installed{
		"platforms;android-21": {Path: "platforms;android-21", Version: semverx.Parse("21.0.0")},
	}
	steps, err := Plan(&Manifest{}, installed, []Request{{Path: "platforms;android-21", Remove: true}})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(steps) != 1 || steps[0].Action != ActionUninstall {
		t.Fatalf("steps = %+v, want a single uninstall", steps)
	}
}

func TestPlanUninstallOrdersLeavesFirst(t *testing.T) {
	installed := map[string]Installed{
		"platforms":            {Path: "platforms", Version: semverx.Parse("1.0.0")},
		"platforms;android-34": {Path: "platforms;android-34", Version: semverx.Parse("34.0.0")},
	}

	steps, err := Plan(&Manifest{}, installed, []Request{
		{Path: "platforms", Remove: true},
		{Path: "platforms;android-34", Remove: true},
	})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(steps) != 2 {
		t.Fatalf("steps = %+v, want 2 uninstalls", steps)
	}
	if steps[0].Path != "platforms;android-34" {
		t.Errorf("steps[0].Path = %q, want the nested package removed first", steps[0].Path)
	}
}

func TestPlanUnknownVersionErrors(t *testing.T) {
	manifest := &Manifest{Packages: []Package{pkg("tools", "26.0.0", ChannelStable)}}
	_, err := Plan(manifest, map[string]Installed{}, []Request{{Path: "tools", Version: "99.0.0"}})
	if err == nil {
		t.Fatal("expected an error requesting a version absent from the manifest")
	}
}
