// Package resolver implements the dependency resolver: a frontier-queue
// algorithm over an ordered chain of resolver backends (the artifact
// cache, then one or more remote Maven-like repositories), producing a
// flat, ordered lockfile with a highest-compatible-version conflict
// policy.
//
// Resolution proceeds breadth-first from the project's direct
// dependencies: each coordinate popped off the frontier is resolved
// through the backend chain, and any dependency it declares is pushed
// back onto the frontier unless a parent along the path from the root has
// excluded that group:artifact. A group:artifact@version already taken off
// the frontier is skipped, which bounds the walk on cyclic dependency
// graphs; a different version of an already-settled group:artifact is still
// looked up through the chain and then kept or discarded by the conflict
// policy (a direct request beats a transitive one, otherwise the higher
// version wins).
package resolver

import "github.com/labt-build/labt/internal/semverx"

// Coordinate identifies a Maven-style artifact by group, artifact id, and
// version.
type Coordinate struct {
	Group    string
	Artifact string
	Version  string
}

// GA returns the group:artifact key used for conflict resolution — at most
// one version of a given GA survives in the final lockfile.
func (c Coordinate) GA() string {
	return c.Group + ":" + c.Artifact
}

func (c Coordinate) String() string {
	return c.Group + ":" + c.Artifact + ":" + c.Version
}

// semver returns the coordinate's version as a comparable quad.
func (c Coordinate) semver() semverx.Version {
	return semverx.Parse(c.Version)
}
