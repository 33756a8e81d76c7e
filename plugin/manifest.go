// Package plugin implements the plugin host: resolving and installing
// git-hosted plugins, and parsing their plugin.toml manifests into the
// stage task list the Driver executes.
package plugin

import (
	"sort"
	"strings"

	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
)

// ManifestName is the plugin's own declarative file, read from its
// checked-out repository root.
const ManifestName = "plugin.toml"

// Stage is one of the Driver's fixed build stages, always executed in
// this order regardless of which plugins contribute tasks to it.
type Stage string

const (
	StagePre     Stage = "pre"
	StageAAPT    Stage = "aapt"
	StageCompile Stage = "compile"
	StageDex     Stage = "dex"
	StageBundle  Stage = "bundle"
	StagePost    Stage = "post"
)

// Stages is the fixed execution order.
var Stages = []Stage{StagePre, StageAAPT, StageCompile, StageDex, StageBundle, StagePost}

// Task is one stage.<name> entry in a plugin's manifest: a file to run,
// its priority among other tasks in the same stage, the glob patterns that
// decide whether it needs to re-run, and whether it requires unrestricted
// host API access.
type Task struct {
	Stage    Stage
	Name     string
	File     string
	Priority int64
	Inputs   []string
	Outputs  []string
	Unsafe   bool
}

// SDKBinding is one sdk.<logical> entry: the logical name a plugin's
// Starlark code uses to reach an installed SDK package.
type SDKBinding struct {
	Logical string
	Path    string
	Version string // constraint or exact version; empty means "any installed version"
	Channel string
}

// Repository is one [[repository]] entry: an additional Maven-like
// repository a plugin wants added to the resolver chain when it is
// active.
type Repository struct {
	Name string
	Type string
	URL  string
}

// Init describes the scaffold a plugin contributes to `labt init`: a
// Starlark entry point and a glob of template files rendered into the new
// project.
type Init struct {
	File      string
	Templates string // glob, relative to the plugin root; defaults to "templates/*"
}

// Manifest is the parsed structure of a plugin's plugin.toml.
type Manifest struct {
	Name    string
	Version string
	Author  string
	Unsafe  bool // plugin-wide; when true every task of the plugin is unsafe

	Tasks        []Task
	SDKBindings  []SDKBinding
	Repositories []Repository
	Init         *Init
}

// ParseManifest parses raw plugin.toml bytes.
func ParseManifest(data []byte) (*Manifest, error) {
	tree, err := toml.LoadBytes(data)
	if err != nil {
		return nil, errors.Wrap(err, "parsing "+ManifestName)
	}

	m := &Manifest{
		Name:    getString(tree, "name"),
		Version: getString(tree, "version"),
		Author:  getString(tree, "author"),
		Unsafe:  getBool(tree, "unsafe"),
	}

	if stageTree, ok := tree.Get("stage").(*toml.Tree); ok {
		for _, stageName := range stageTree.Keys() {
			stage := Stage(strings.ToLower(stageName))
			if !validStage(stage) {
				return nil, errors.Errorf("plugin.toml: unknown stage %q", stageName)
			}

			sub, ok := stageTree.Get(stageName).(*toml.Tree)
			if !ok {
				return nil, errors.Errorf("plugin.toml: stage.%s must be a table", stageName)
			}

			// A stage table may itself hold one task directly, or a nested
			// table of named tasks; LABt's manifest subset supports the
			// common one-task-per-stage shape plus named sub-tasks.
			if _, hasFile := sub.Get("file").(string); hasFile {
				t, err := taskFromTree(stage, stageName, sub)
				if err != nil {
					return nil, err
				}
				m.Tasks = append(m.Tasks, t)
				continue
			}

			for _, taskName := range sub.Keys() {
				taskTree, ok := sub.Get(taskName).(*toml.Tree)
				if !ok {
					continue
				}
				t, err := taskFromTree(stage, taskName, taskTree)
				if err != nil {
					return nil, err
				}
				m.Tasks = append(m.Tasks, t)
			}
		}
	}

	if sdkTree, ok := tree.Get("sdk").(*toml.Tree); ok {
		for _, logical := range sdkTree.Keys() {
			binding, err := sdkBindingFromValue(logical, sdkTree.Get(logical))
			if err != nil {
				return nil, err
			}
			m.SDKBindings = append(m.SDKBindings, binding)
		}
	}

	if arr, ok := tree.Get("repository").([]*toml.Tree); ok {
		for _, sub := range arr {
			m.Repositories = append(m.Repositories, Repository{
				Name: getString(sub, "name"),
				Type: getString(sub, "type"),
				URL:  getString(sub, "url"),
			})
		}
	}

	if initTree, ok := tree.Get("init").(*toml.Tree); ok {
		templates := getString(initTree, "templates")
		if templates == "" {
			templates = "templates/*"
		}
		m.Init = &Init{File: getString(initTree, "file"), Templates: templates}
	}

	sort.Slice(m.Tasks, func(i, j int) bool {
		if m.Tasks[i].Stage != m.Tasks[j].Stage {
			return indexOfStage(m.Tasks[i].Stage) < indexOfStage(m.Tasks[j].Stage)
		}
		if m.Tasks[i].Priority != m.Tasks[j].Priority {
			return m.Tasks[i].Priority > m.Tasks[j].Priority // descending priority
		}
		return m.Tasks[i].Name < m.Tasks[j].Name // then lexicographic, for determinism
	})

	return m, nil
}

func taskFromTree(stage Stage, name string, tree *toml.Tree) (Task, error) {
	t := Task{
		Stage:    stage,
		Name:     name,
		File:     getString(tree, "file"),
		Priority: getInt(tree, "priority"),
		Unsafe:   getBool(tree, "unsafe"),
	}
	if t.File == "" {
		return Task{}, errors.Errorf("plugin.toml: stage %q task %q has no file", stage, name)
	}

	inputs, err := stringList(tree, "inputs")
	if err != nil {
		return Task{}, errors.Wrapf(err, "stage %q task %q", stage, name)
	}
	outputs, err := stringList(tree, "outputs")
	if err != nil {
		return Task{}, errors.Wrapf(err, "stage %q task %q", stage, name)
	}
	t.Inputs, t.Outputs = inputs, outputs
	return t, nil
}

func sdkBindingFromValue(logical string, raw interface{}) (SDKBinding, error) {
	switch v := raw.(type) {
	case string:
		parts := strings.SplitN(v, ":", 2)
		binding := SDKBinding{Logical: logical, Path: parts[0]}
		if len(parts) == 2 {
			binding.Version = parts[1]
		}
		return binding, nil
	case *toml.Tree:
		return SDKBinding{
			Logical: logical,
			Path:    getString(v, "path"),
			Version: getString(v, "version"),
			Channel: getString(v, "channel"),
		}, nil
	default:
		return SDKBinding{}, errors.Errorf("plugin.toml: sdk %q must be a string or table", logical)
	}
}

func validStage(s Stage) bool {
	for _, known := range Stages {
		if s == known {
			return true
		}
	}
	return false
}

func indexOfStage(s Stage) int {
	for i, known := range Stages {
		if s == known {
			return i
		}
	}
	return len(Stages)
}

func getString(tree *toml.Tree, key string) string {
	v := tree.Get(key)
	s, _ := v.(string)
	return s
}

func getBool(tree *toml.Tree, key string) bool {
	v := tree.Get(key)
	b, _ := v.(bool)
	return b
}

func getInt(tree *toml.Tree, key string) int64 {
	switch n := tree.Get(key).(type) {
	case int64:
		return n
	case int:
		return int64(n)
	default:
		return 0
	}
}

func stringList(tree *toml.Tree, key string) ([]string, error) {
	raw := tree.Get(key)
	if raw == nil {
		return nil, nil
	}
	items, ok := raw.([]interface{})
	if !ok {
		return nil, errors.Errorf("%q must be a list of strings", key)
	}
	out := make([]string, len(items))
	for i, it := range items {
		s, ok := it.(string)
		if !ok {
			return nil, errors.Errorf("%q[%d] must be a string", key, i)
		}
		out[i] = s
	}
	return out, nil
}
