// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package project

import (
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// ErrNotFound is returned when no project file is found while walking
// ancestor directories, a distinct error type so callers can tell "no
// project here" apart from an I/O failure during discovery.
type ErrNotFound struct {
	StartedAt string
}

func (e *ErrNotFound) Error() string {
	return "could not find " + ConfigName + " in " + e.StartedAt + " or any parent directory"
}

// Project bundles a discovered project root with its parsed config and
// (optional) lock.
type Project struct {
	Root   string // absolute path to the directory containing Labt.toml
	Config *Config
	Lock   *Lockfile // nil if Labt.lock does not yet exist
}

// FindRoot searches upward from `from` (or the working directory, if from
// is empty) for ConfigName, climbing one parent directory at a time until
// it finds a match or reaches the filesystem root.
func FindRoot(from string) (string, error) {
	if from == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", errors.Wrap(err, "getting working directory")
		}
		from = wd
	}

	abs, err := filepath.Abs(from)
	if err != nil {
		return "", errors.Wrapf(err, "resolving absolute path for %s", from)
	}

	dir := abs
	for {
		candidate := filepath.Join(dir, ConfigName)
		if _, err := os.Stat(candidate); err == nil {
			return dir, nil
		} else if !os.IsNotExist(err) {
			return "", errors.Wrapf(err, "checking for %s", candidate)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", &ErrNotFound{StartedAt: abs}
		}
		dir = parent
	}
}

// Load discovers the project root starting at `from` and parses its
// Labt.toml and, if present, Labt.lock.
func Load(from string) (*Project, error) {
	root, err := FindRoot(from)
	if err != nil {
		return nil, err
	}
	return LoadAt(root)
}

// LoadAt parses the Labt.toml and Labt.lock found directly in root, without
// walking ancestors.
func LoadAt(root string) (*Project, error) {
	cfgPath := filepath.Join(root, ConfigName)
	data, err := ioutil.ReadFile(cfgPath)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", cfgPath)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", cfgPath)
	}

	p := &Project{Root: root, Config: cfg}

	lockPath := filepath.Join(root, LockName)
	lockData, err := ioutil.ReadFile(lockPath)
	switch {
	case err == nil:
		lf, err := ParseLockfile(lockData)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing %s", lockPath)
		}
		p.Lock = lf
	case os.IsNotExist(err):
		// No lock yet; that's fine.
	default:
		return nil, errors.Wrapf(err, "reading %s", lockPath)
	}

	return p, nil
}
