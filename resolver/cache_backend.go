package resolver

import (
	"github.com/pkg/errors"

	"github.com/labt-build/labt/cache"
)

// defaultPackaging is assumed when a cached descriptor does not record one
// (the common case for jars, the overwhelming majority of Android build
// dependencies).
const defaultPackaging = "jar"

// CacheBackend adapts the artifact cache into a resolver Backend. It is
// always consulted first in the chain; a hit here never touches the
// network.
type CacheBackend struct {
	Cache *cache.Cache
}

func (c *CacheBackend) Name() string { return "cache" }

// Lookup reads a cached POM-like descriptor, if present, without any
// network access. A miss is reported as (nil, false, nil), never an error.
func (c *CacheBackend) Lookup(coord Coordinate) (*Descriptor, bool, error) {
	// The artifact's exact version must already be known to probe the
	// cache; a coordinate with no version is never satisfiable from cache
	// alone (only a remote backend can discover a concrete version for an
	// unversioned request).
	if coord.Version == "" {
		return nil, false, nil
	}

	raw, err := c.Cache.ReadDescriptor(coord.Group, coord.Artifact, coord.Version)
	if err != nil {
		// Not found is not an error for a cache backend.
		return nil, false, nil
	}

	desc, err := parsePOM(raw)
	if err != nil {
		return nil, false, errors.Wrapf(err, "parsing cached descriptor for %s", coord)
	}
	desc.URL = c.Cache.PathFor(coord.Group, coord.Artifact, coord.Version, desc.Packaging)
	return desc, true, nil
}

// Store persists a descriptor and its binary into the cache, used by a
// remote backend on a successful fetch so subsequent builds are offline.
func (c *CacheBackend) Store(coord Coordinate, packaging string, descriptorXML, binary []byte) error {
	if err := c.Cache.StoreDescriptor(coord.Group, coord.Artifact, coord.Version, descriptorXML); err != nil {
		return errors.Wrap(err, "caching descriptor")
	}
	if binary != nil {
		if err := c.Cache.Store(coord.Group, coord.Artifact, coord.Version, packaging, binary); err != nil {
			return errors.Wrap(err, "caching artifact")
		}
	}
	return nil
}
