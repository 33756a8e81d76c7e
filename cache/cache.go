// Package cache implements the artifact cache: a content-addressed
// on-disk store rooted at the LABt home directory, keyed by (group,
// artifact, version, packaging). It is consulted first by every
// resolution attempt and is the reason cached builds work fully offline.
package cache

import (
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	flock "github.com/theckman/go-flock"

	"github.com/labt-build/labt/internal/fs"
)

// Cache is the content-addressed artifact store.
type Cache struct {
	root string // <home>/cache
}

// New returns a Cache rooted at <home>/cache.
func New(home string) *Cache {
	return &Cache{root: filepath.Join(home, "cache")}
}

// PathFor computes the path an artifact would occupy, without touching
// disk. The group is split on '.' into directory components, mirroring
// Maven's own local-repository layout.
func (c *Cache) PathFor(group, artifact, version, packaging string) string {
	groupPath := strings.ReplaceAll(group, ".", string(filepath.Separator))
	dir := filepath.Join(c.root, groupPath, artifact, version)
	file := artifact + "-" + version + "." + packaging
	return filepath.Join(dir, file)
}

// descriptorPathFor returns the path of the POM-like sibling descriptor for
// an artifact, used to cache resolver metadata alongside the binary.
func (c *Cache) descriptorPathFor(group, artifact, version string) string {
	groupPath := strings.ReplaceAll(group, ".", string(filepath.Separator))
	dir := filepath.Join(c.root, groupPath, artifact, version)
	return filepath.Join(dir, artifact+"-"+version+".pom")
}

// Contains reports whether an artifact is already fully present in the
// cache. A cache hit here means resolution never needs the network.
func (c *Cache) Contains(group, artifact, version, packaging string) (bool, error) {
	return fs.Exists(c.PathFor(group, artifact, version, packaging))
}

// ContainsDescriptor reports whether a POM-like descriptor is cached for
// the given coordinates, independent of the binary packaging.
func (c *Cache) ContainsDescriptor(group, artifact, version string) (bool, error) {
	return fs.Exists(c.descriptorPathFor(group, artifact, version))
}

// Store atomically writes an artifact's bytes into the cache. Content is
// immutable once written: a partial write is never visible to readers,
// enforced by writing to a sibling temp path under an advisory lock, then
// renaming into place.
func (c *Cache) Store(group, artifact, version, packaging string, data []byte) error {
	return c.storeAt(c.PathFor(group, artifact, version, packaging), data)
}

// StoreDescriptor atomically writes a POM-like descriptor alongside the
// artifact it describes.
func (c *Cache) StoreDescriptor(group, artifact, version string, data []byte) error {
	return c.storeAt(c.descriptorPathFor(group, artifact, version), data)
}

func (c *Cache) storeAt(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "creating cache directory %s", dir)
	}

	lockPath := path + ".lock"
	fl := flock.NewFlock(lockPath)
	if err := fl.Lock(); err != nil {
		return errors.Wrapf(err, "locking %s", lockPath)
	}
	defer fl.Unlock()

	tmp, err := ioutil.TempFile(dir, filepath.Base(path)+".part-*")
	if err != nil {
		return errors.Wrapf(err, "creating staging file for %s", path)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrapf(err, "writing staging file for %s", path)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrapf(err, "closing staging file for %s", path)
	}

	if err := fs.RenameWithFallback(tmpName, path); err != nil {
		os.Remove(tmpName)
		return errors.Wrapf(err, "committing cache entry %s", path)
	}
	return nil
}

// Open returns a read handle on a cached artifact.
func (c *Cache) Open(group, artifact, version, packaging string) (io.ReadCloser, error) {
	path := c.PathFor(group, artifact, version, packaging)
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening cache entry %s", path)
	}
	return f, nil
}

// OpenDescriptor returns a read handle on a cached POM-like descriptor.
func (c *Cache) OpenDescriptor(group, artifact, version string) (io.ReadCloser, error) {
	path := c.descriptorPathFor(group, artifact, version)
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening cache descriptor %s", path)
	}
	return f, nil
}

// ReadDescriptor is a convenience for callers (the resolver) that want the
// whole descriptor in memory.
func (c *Cache) ReadDescriptor(group, artifact, version string) ([]byte, error) {
	r, err := c.OpenDescriptor(group, artifact, version)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return ioutil.ReadAll(r)
}
