// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package project

import (
	"encoding/hex"
	"path/filepath"

	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"

	"github.com/labt-build/labt/internal/fs"
)

// LockName is the name of the resolved lockfile.
const LockName = "Labt.lock"

// LockedDependency is one resolved lockfile entry.
type LockedDependency struct {
	Group        string
	Artifact     string
	Version      string
	Packaging    string
	URL          string
	Direct       bool
	DependencyOf string // coordinate chain, "" for a direct dependency
}

// Lockfile is the ordered, resolved snapshot of a completed resolution.
// Dependencies preserves resolution order; that order is itself part of
// the on-disk representation, and every listed artifact's direct
// dependencies are required to appear earlier in the list.
type Lockfile struct {
	// Memo is the input hash of the direct-dependency set and resolver
	// chain that produced this lock, letting `resolve` short-circuit when
	// nothing has changed.
	Memo         []byte
	Dependencies []LockedDependency
}

type rawLockfile struct {
	Memo         string            `toml:"memo,omitempty"`
	Dependencies []rawLockedEntry  `toml:"dependencies"`
}

type rawLockedEntry struct {
	Group        string `toml:"group"`
	Artifact     string `toml:"artifact"`
	Version      string `toml:"version"`
	Packaging    string `toml:"packaging"`
	URL          string `toml:"url"`
	Direct       bool   `toml:"direct,omitempty"`
	DependencyOf string `toml:"dependency_of,omitempty"`
}

// ParseLockfile parses raw Labt.lock bytes.
func ParseLockfile(data []byte) (*Lockfile, error) {
	var raw rawLockfile
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "parsing "+LockName)
	}

	lf := &Lockfile{Dependencies: make([]LockedDependency, len(raw.Dependencies))}
	if raw.Memo != "" {
		memo, err := hex.DecodeString(raw.Memo)
		if err != nil {
			return nil, errors.New("invalid hash digest in lockfile memo field")
		}
		lf.Memo = memo
	}
	for i, e := range raw.Dependencies {
		lf.Dependencies[i] = LockedDependency{
			Group:        e.Group,
			Artifact:     e.Artifact,
			Version:      e.Version,
			Packaging:    e.Packaging,
			URL:          e.URL,
			Direct:       e.Direct,
			DependencyOf: e.DependencyOf,
		}
	}
	return lf, nil
}

// Encode serializes the lockfile, preserving Dependencies' existing
// order: an ordered sequence preserving resolution order.
func (l *Lockfile) Encode() ([]byte, error) {
	raw := rawLockfile{
		Memo:         hex.EncodeToString(l.Memo),
		Dependencies: make([]rawLockedEntry, len(l.Dependencies)),
	}
	for i, d := range l.Dependencies {
		raw.Dependencies[i] = rawLockedEntry{
			Group:        d.Group,
			Artifact:     d.Artifact,
			Version:      d.Version,
			Packaging:    d.Packaging,
			URL:          d.URL,
			Direct:       d.Direct,
			DependencyOf: d.DependencyOf,
		}
	}
	return toml.Marshal(raw)
}

// WriteTo atomically writes the lockfile into root/Labt.lock: no partial
// lockfile is ever visible to readers, via write-temp-then-rename.
func (l *Lockfile) WriteTo(root string) error {
	data, err := l.Encode()
	if err != nil {
		return errors.Wrap(err, "encoding lockfile")
	}
	return fs.WriteFileAtomic(lockPath(root), data, 0o644)
}

func lockPath(root string) string {
	return filepath.Join(root, LockName)
}
