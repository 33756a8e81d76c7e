package cache

import (
	"io/ioutil"
	"path/filepath"
	"testing"
)

func TestPathForSplitsGroupIntoDirectories(t *testing.T) {
	c := New(t.TempDir())
	path := c.PathFor("com.squareup.okhttp3", "okhttp", "4.12.0", "jar")
	want := filepath.Join(c.root, "com", "squareup", "okhttp3", "okhttp", "4.12.0", "okhttp-4.12.0.jar")
	if path != want {
		t.Errorf("PathFor() = %q, want %q", path, want)
	}
}

func TestStoreThenContainsThenOpen(t *testing.T) {
	c := New(t.TempDir())

	ok, err := c.Contains("com.example", "lib", "1.0.0", "jar")
	if err != nil {
		t.Fatalf("Contains: %v", err)
	}
	if ok {
		t.Fatal("expected a miss before Store")
	}

	if err := c.Store("com.example", "lib", "1.0.0", "jar", []byte("binary content")); err != nil {
		t.Fatalf("Store: %v", err)
	}

	ok, err = c.Contains("com.example", "lib", "1.0.0", "jar")
	if err != nil {
		t.Fatalf("Contains: %v", err)
	}
	if !ok {
		t.Fatal("expected a hit after Store")
	}

	rc, err := c.Open("com.example", "lib", "1.0.0", "jar")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	data, err := ioutil.ReadAll(rc)
	if err != nil {
		t.Fatalf("reading opened artifact: %v", err)
	}
	if string(data) != "binary content" {
		t.Errorf("content = %q, want %q", data, "binary content")
	}
}

func TestStoreAndReadDescriptor(t *testing.T) {
	c := New(t.TempDir())

	ok, err := c.ContainsDescriptor("com.example", "lib", "1.0.0")
	if err != nil {
		t.Fatalf("ContainsDescriptor: %v", err)
	}
	if ok {
		t.Fatal("expected a miss before StoreDescriptor")
	}

	if err := c.StoreDescriptor("com.example", "lib", "1.0.0", []byte("<project/>")); err != nil {
		t.Fatalf("StoreDescriptor: %v", err)
	}

	data, err := c.ReadDescriptor("com.example", "lib", "1.0.0")
	if err != nil {
		t.Fatalf("ReadDescriptor: %v", err)
	}
	if string(data) != "<project/>" {
		t.Errorf("descriptor = %q, want %q", data, "<project/>")
	}
}
