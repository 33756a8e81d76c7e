package project

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFindRootWalksAncestors(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, ConfigName), []byte("[project]\nname = \"demo\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	nested := filepath.Join(root, "a", "b", "c")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	found, err := FindRoot(nested)
	if err != nil {
		t.Fatalf("FindRoot: %v", err)
	}
	if found != root {
		t.Errorf("FindRoot() = %q, want %q", found, root)
	}
}

func TestFindRootNotFound(t *testing.T) {
	_, err := FindRoot(t.TempDir())
	if err == nil {
		t.Fatal("expected ErrNotFound")
	}
	if _, ok := err.(*ErrNotFound); !ok {
		t.Errorf("got %T, want *ErrNotFound", err)
	}
}

func TestLoadAtReadsConfigAndOptionalLock(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, ConfigName), []byte("[project]\nname = \"demo\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	p, err := LoadAt(root)
	if err != nil {
		t.Fatalf("LoadAt (no lockfile): %v", err)
	}
	if p.Lock != nil {
		t.Errorf("expected a nil Lock when no %s is present", LockName)
	}

	lf := &Lockfile{Dependencies: []LockedDependency{{Group: "g", Artifact: "a", Version: "1.0.0", Direct: true}}}
	if err := lf.WriteTo(root); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}

	p, err = LoadAt(root)
	if err != nil {
		t.Fatalf("LoadAt (with lockfile): %v", err)
	}
	if p.Lock == nil || len(p.Lock.Dependencies) != 1 {
		t.Fatalf("Lock = %+v", p.Lock)
	}
}

func TestHomeRespectsEnvOverride(t *testing.T) {
	t.Setenv("LABT_HOME", filepath.Join(t.TempDir(), "custom-home"))
	home, err := Home()
	if err != nil {
		t.Fatalf("Home: %v", err)
	}
	if filepath.Base(home) != "custom-home" {
		t.Errorf("Home() = %q, want it to respect LABT_HOME", home)
	}
}
