package resolver

// Dependency is one transitive edge read off a Descriptor: a coordinate
// plus the set of (group, artifact) pairs its parent excludes from the
// transitive closure. Exclusions listed on a parent dependency remove
// matching transitive children from the frontier.
type Dependency struct {
	Coordinate
	Exclusions map[string]bool // GA() strings
}

// Excludes reports whether ga is excluded by this dependency edge.
func (d Dependency) Excludes(ga string) bool {
	return d.Exclusions[ga] || d.Exclusions["*:*"]
}

// Descriptor is the POM-like metadata a resolver backend returns for a
// coordinate: its packaging, its origin URL, and its direct dependencies,
// from which transitive dependencies are extracted during resolution.
type Descriptor struct {
	Coordinate
	Packaging    string
	URL          string // origin: cache path or remote URL, recorded into the lockfile
	Dependencies []Dependency
}
