package resolver

import "testing"

// fakeBackend serves descriptors from an in-memory map keyed by
// Coordinate.String(), standing in for the cache and any remote Maven
// backend without touching the filesystem or network.
type fakeBackend struct {
	name        string
	descriptors map[string]*Descriptor
}

func (f *fakeBackend) Name() string { return f.name }

func (f *fakeBackend) Lookup(coord Coordinate) (*Descriptor, bool, error) {
	desc, ok := f.descriptors[coord.String()]
	return desc, ok, nil
}

func descriptor(group, artifact, version string, deps ...Dependency) *Descriptor {
	return &Descriptor{
		Coordinate:   Coordinate{Group: group, Artifact: artifact, Version: version},
		Packaging:    "jar",
		Dependencies: deps,
	}
}

func dep(group, artifact, version string, exclusions ...string) Dependency {
	excl := make(map[string]bool, len(exclusions))
	for _, e := range exclusions {
		excl[e] = true
	}
	return Dependency{Coordinate: Coordinate{Group: group, Artifact: artifact, Version: version}, Exclusions: excl}
}

func TestResolveDirectOnly(t *testing.T) {
	backend := &fakeBackend{name: "cache", descriptors: map[string]*Descriptor{
		"com.example:lib:1.0.0": descriptor("com.example", "lib", "1.0.0"),
	}}

	r := New(backend)
	lf, err := r.Resolve([]DirectRequest{{Coordinate: Coordinate{Group: "com.example", Artifact: "lib", Version: "1.0.0"}}})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(lf.Dependencies) != 1 || !lf.Dependencies[0].Direct {
		t.Fatalf("Dependencies = %+v", lf.Dependencies)
	}
}

func TestResolveTransitiveClosure(t *testing.T) {
	backend := &fakeBackend{name: "cache", descriptors: map[string]*Descriptor{
		"com.example:app:1.0.0": descriptor("com.example", "app", "1.0.0", dep("com.example", "util", "2.0.0")),
		"com.example:util:2.0.0": descriptor("com.example", "util", "2.0.0"),
	}}

	r := New(backend)
	lf, err := r.Resolve([]DirectRequest{{Coordinate: Coordinate{Group: "com.example", Artifact: "app", Version: "1.0.0"}}})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(lf.Dependencies) != 2 {
		t.Fatalf("Dependencies = %+v, want 2 entries", lf.Dependencies)
	}
	if !lf.Dependencies[0].Direct || lf.Dependencies[0].Artifact != "app" {
		t.Errorf("expected the direct dependency first, got %+v", lf.Dependencies[0])
	}
	if lf.Dependencies[1].DependencyOf != "com.example:app:1.0.0" {
		t.Errorf("DependencyOf = %q", lf.Dependencies[1].DependencyOf)
	}
}

func TestResolveDirectVersionWinsOverTransitive(t *testing.T) {
	backend := &fakeBackend{name: "cache", descriptors: map[string]*Descriptor{
		"com.example:app:1.0.0":  descriptor("com.example", "app", "1.0.0", dep("com.example", "util", "1.0.0")),
		"com.example:util:1.0.0": descriptor("com.example", "util", "1.0.0"),
		"com.example:util:2.0.0": descriptor("com.example", "util", "2.0.0"),
	}}

	r := New(backend)
	lf, err := r.Resolve([]DirectRequest{
		{Coordinate: Coordinate{Group: "com.example", Artifact: "app", Version: "1.0.0"}},
		{Coordinate: Coordinate{Group: "com.example", Artifact: "util", Version: "2.0.0"}},
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	for _, d := range lf.Dependencies {
		if d.Artifact == "util" {
			if d.Version != "2.0.0" {
				t.Errorf("util version = %q, want 2.0.0 (the direct request)", d.Version)
			}
			if !d.Direct {
				t.Errorf("util should be marked direct")
			}
		}
	}
}

func TestResolveExclusionPrunesTransitiveChild(t *testing.T) {
	backend := &fakeBackend{name: "cache", descriptors: map[string]*Descriptor{
		"com.example:app:1.0.0":  descriptor("com.example", "app", "1.0.0", dep("com.example", "excluded", "1.0.0")),
		"com.example:excluded:1.0.0": descriptor("com.example", "excluded", "1.0.0"),
	}}

	r := New(backend)
	lf, err := r.Resolve([]DirectRequest{{
		Coordinate: Coordinate{Group: "com.example", Artifact: "app", Version: "1.0.0"},
		Exclusions: map[string]bool{"com.example:excluded": true},
	}})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(lf.Dependencies) != 1 {
		t.Fatalf("Dependencies = %+v, want only app", lf.Dependencies)
	}
}

func TestResolveUnknownCoordinateFails(t *testing.T) {
	backend := &fakeBackend{name: "cache", descriptors: map[string]*Descriptor{}}
	r := New(backend)
	_, err := r.Resolve([]DirectRequest{{Coordinate: Coordinate{Group: "com.example", Artifact: "missing", Version: "1.0.0"}}})
	if err == nil {
		t.Fatal("expected an UnknownCoordinateError")
	}
	if _, ok := err.(*UnknownCoordinateError); !ok {
		t.Errorf("got %T, want *UnknownCoordinateError", err)
	}
}

func TestResolveFallsThroughOnTransportError(t *testing.T) {
	failing := &transportFailBackend{name: "remote-down"}
	backend := &fakeBackend{name: "remote-up", descriptors: map[string]*Descriptor{
		"com.example:lib:1.0.0": descriptor("com.example", "lib", "1.0.0"),
	}}

	r := New(failing, backend)
	lf, err := r.Resolve([]DirectRequest{{Coordinate: Coordinate{Group: "com.example", Artifact: "lib", Version: "1.0.0"}}})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(lf.Dependencies) != 1 {
		t.Fatalf("Dependencies = %+v", lf.Dependencies)
	}
}

type transportFailBackend struct{ name string }

func (b *transportFailBackend) Name() string { return b.name }
func (b *transportFailBackend) Lookup(coord Coordinate) (*Descriptor, bool, error) {
	return nil, false, &TransportError{Backend: b.name, Cause: errFake}
}

var errFake = fakeErr("connection refused")

type fakeErr string

func (e fakeErr) Error() string { return string(e) }
