// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package project implements the project model: parsing and serializing
// Labt.toml and Labt.lock, and discovering the project root by walking
// ancestor directories until one is found.
package project

import (
	"sort"

	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
)

// ConfigName is the name of the declarative project file.
const ConfigName = "Labt.toml"

// Meta holds the project's descriptive metadata.
type Meta struct {
	Name        string
	Package     string
	VersionName string
	VersionCode int64
	Description string
}

// Dependency is one entry in the project file's dependency mapping: an
// artifact id maps to a group, a version, and an optional exclusion list.
type Dependency struct {
	ArtifactID string
	Group      string
	Version    string
	Exclusions []string // "group:artifact" pairs excluded from the transitive closure
}

// PluginRef is one entry in the project file's plugin mapping.
type PluginRef struct {
	ID      string
	Version string
	Git     string
}

// ResolverSpec names one backend in the ordered resolver chain. Type is
// either "cache" (implicit, always first) or "maven" for a remote
// Maven-like repository.
type ResolverSpec struct {
	Name string
	Type string
	URL  string
}

// Config is the parsed structure of Labt.toml.
type Config struct {
	Meta         Meta
	Dependencies []Dependency
	Plugins      []PluginRef
	Resolvers    []ResolverSpec
	SDK          map[string]SDKReference // logical name -> SDK reference, optional

	tree *toml.Tree // retained for round-trip Encode; nil for a freshly built Config
}

// ParseConfig parses raw Labt.toml bytes into a Config, accepting both
// compact-string and table forms for SDK references.
func ParseConfig(data []byte) (*Config, error) {
	tree, err := toml.LoadBytes(data)
	if err != nil {
		return nil, errors.Wrap(err, "parsing "+ConfigName)
	}
	return configFromTree(tree)
}

func configFromTree(tree *toml.Tree) (*Config, error) {
	c := &Config{tree: tree}

	c.Meta = Meta{
		Name:        getString(tree, "project.name"),
		Package:     getString(tree, "project.package"),
		VersionName: getString(tree, "project.version_name"),
		VersionCode: getInt(tree, "project.version_code"),
		Description: getString(tree, "project.description"),
	}

	if depsTree, ok := tree.Get("dependencies").(*toml.Tree); ok {
		for _, id := range depsTree.Keys() {
			sub, ok := depsTree.Get(id).(*toml.Tree)
			if !ok {
				return nil, errors.Errorf("dependency %q must be a table", id)
			}
			excl, err := stringList(sub, "exclusions")
			if err != nil {
				return nil, errors.Wrapf(err, "dependency %q exclusions", id)
			}
			c.Dependencies = append(c.Dependencies, Dependency{
				ArtifactID: id,
				Group:      getString(sub, "group"),
				Version:    getString(sub, "version"),
				Exclusions: excl,
			})
		}
		sort.Slice(c.Dependencies, func(i, j int) bool { return c.Dependencies[i].ArtifactID < c.Dependencies[j].ArtifactID })
	}

	if pluginsTree, ok := tree.Get("plugins").(*toml.Tree); ok {
		for _, id := range pluginsTree.Keys() {
			sub, ok := pluginsTree.Get(id).(*toml.Tree)
			if !ok {
				return nil, errors.Errorf("plugin %q must be a table", id)
			}
			c.Plugins = append(c.Plugins, PluginRef{
				ID:      id,
				Version: getString(sub, "version"),
				Git:     getString(sub, "git"),
			})
		}
		sort.Slice(c.Plugins, func(i, j int) bool { return c.Plugins[i].ID < c.Plugins[j].ID })
	}

	if arr, ok := tree.Get("resolvers").([]*toml.Tree); ok {
		for _, sub := range arr {
			c.Resolvers = append(c.Resolvers, ResolverSpec{
				Name: getString(sub, "name"),
				Type: getString(sub, "type"),
				URL:  getString(sub, "url"),
			})
		}
	}

	if sdkTree, ok := tree.Get("sdk").(*toml.Tree); ok {
		c.SDK = make(map[string]SDKReference, len(sdkTree.Keys()))
		for _, name := range sdkTree.Keys() {
			raw := sdkTree.Get(name)
			ref, err := parseSDKReferenceValue(raw)
			if err != nil {
				return nil, errors.Wrapf(err, "sdk %q", name)
			}
			c.SDK[name] = ref
		}
	}

	return c, nil
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

func getString(tree *toml.Tree, key string) string {
	v := tree.Get(key)
	if v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

func getInt(tree *toml.Tree, key string) int64 {
	v := tree.Get(key)
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	default:
		return 0
	}
}

// AddDependency inserts or replaces a dependency entry and returns the
// serialized project file, preserving the comments and key order of the
// original document where go-toml's tree representation allows.
func (c *Config) AddDependency(dep Dependency) ([]byte, error) {
	tree := c.tree
	if tree == nil {
		var err error
		tree, err = toml.TreeFromMap(map[string]interface{}{})
		if err != nil {
			return nil, errors.Wrap(err, "building empty project tree")
		}
	}

	depTable, err := toml.TreeFromMap(map[string]interface{}{
		"group":   dep.Group,
		"version": dep.Version,
	})
	if err != nil {
		return nil, errors.Wrap(err, "building dependency table")
	}
	if len(dep.Exclusions) > 0 {
		excl := make([]interface{}, len(dep.Exclusions))
		for i, e := range dep.Exclusions {
			excl[i] = e
		}
		depTable.Set("exclusions", excl)
	}

	tree.SetPath([]string{"dependencies", dep.ArtifactID}, depTable)

	replaced := false
	for i, d := range c.Dependencies {
		if d.ArtifactID == dep.ArtifactID {
			c.Dependencies[i] = dep
			replaced = true
			break
		}
	}
	if !replaced {
		c.Dependencies = append(c.Dependencies, dep)
	}
	c.tree = tree

	return []byte(tree.String()), nil
}

// Encode serializes the Config's current tree verbatim, including any change
// made through AddDependency (which also returns that serialization itself).
// It fails for a Config with no backing tree.
func (c *Config) Encode() ([]byte, error) {
	if c.tree == nil {
		return nil, errors.New("config has no backing tree to encode")
	}
	return []byte(c.tree.String()), nil
}
