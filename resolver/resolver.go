package resolver

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/labt-build/labt/internal/semverx"
	"github.com/labt-build/labt/project"
)

// DirectRequest is one direct dependency from the project file.
type DirectRequest struct {
	Coordinate
	Exclusions map[string]bool
}

// Resolver runs the frontier-queue resolution algorithm over an ordered
// chain of Backend implementations.
type Resolver struct {
	Chain []Backend
}

// New builds a Resolver whose first backend is always the artifact cache,
// followed by the project's configured remote backends in order.
func New(cacheBackend Backend, remotes ...Backend) *Resolver {
	return &Resolver{Chain: append([]Backend{cacheBackend}, remotes...)}
}

// frontierItem is one pending request in the resolution worklist: a
// coordinate, whether it came from a direct dependency (which always wins
// a version conflict against transitive requests for the same GA), the
// exclusion set inherited from its requesting parent, and the chain of
// parents for lockfile "dependency-of" reporting.
type frontierItem struct {
	Coordinate
	Direct       bool
	Exclusions   map[string]bool
	DependencyOf string
}

// resolved is what the algorithm has decided, per GA, once the frontier
// drains: the winning descriptor plus enough bookkeeping to render a
// lockfile entry.
type resolved struct {
	descriptor   *Descriptor
	direct       bool
	dependencyOf string
}

// Resolve drains the frontier seeded from direct, consulting the backend
// chain for each request and applying the version conflict policy: highest
// semantically-compatible version wins, a direct dependency version always
// overrides a transitive request for the same coordinates, and a parent's
// exclusions remove matching children before they ever reach the frontier.
func (r *Resolver) Resolve(direct []DirectRequest) (*project.Lockfile, error) {
	byGA := make(map[string]*resolved)
	seen := make(map[string]bool) // "GA@version" already enqueued, to avoid infinite loops on cycles

	var queue []frontierItem
	for _, d := range direct {
		queue = append(queue, frontierItem{Coordinate: d.Coordinate, Direct: true, Exclusions: d.Exclusions})
	}

	var order []string // GA insertion order, for a stable acyclic lockfile ordering

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		key := item.GA() + "@" + item.Version
		if seen[key] {
			continue
		}
		seen[key] = true

		desc, err := r.lookup(item.Coordinate)
		if err != nil {
			return nil, err
		}

		if existing, ok := byGA[item.GA()]; ok {
			winner, winnerIsNew := pickWinner(existing, item, desc)
			if !winnerIsNew {
				continue // existing selection already wins; don't re-enqueue its children
			}
			byGA[item.GA()] = winner
		} else {
			byGA[item.GA()] = &resolved{descriptor: desc, direct: item.Direct, dependencyOf: item.DependencyOf}
			order = append(order, item.GA())
		}

		for _, dep := range desc.Dependencies {
			if item.Exclusions[dep.GA()] || item.Exclusions["*:*"] {
				continue
			}
			childExclusions := mergeExclusions(item.Exclusions, dep.Exclusions)
			queue = append(queue, frontierItem{
				Coordinate:   dep.Coordinate,
				Exclusions:   childExclusions,
				DependencyOf: item.Coordinate.String(),
			})
		}
	}

	return buildLockfile(byGA, order), nil
}

// pickWinner applies the conflict policy: a direct dependency always beats
// a transitive one for the same GA; otherwise the higher version wins. It
// returns the resolved record to keep and whether it differs from what was
// already selected (so the caller knows whether to walk the new winner's
// children).
func pickWinner(existing *resolved, item frontierItem, desc *Descriptor) (*resolved, bool) {
	if item.Direct && !existing.direct {
		return &resolved{descriptor: desc, direct: true, dependencyOf: item.DependencyOf}, true
	}
	if existing.direct && !item.Direct {
		return existing, false
	}

	existingVer := semverx.Parse(existing.descriptor.Version)
	candidateVer := semverx.Parse(item.Version)
	if candidateVer.GreaterThan(existingVer) {
		return &resolved{descriptor: desc, direct: item.Direct || existing.direct, dependencyOf: item.DependencyOf}, true
	}
	return existing, false
}

func mergeExclusions(parent, child map[string]bool) map[string]bool {
	if len(parent) == 0 {
		return child
	}
	if len(child) == 0 {
		return parent
	}
	merged := make(map[string]bool, len(parent)+len(child))
	for k := range parent {
		merged[k] = true
	}
	for k := range child {
		merged[k] = true
	}
	return merged
}

// lookup consults the backend chain in order; the first backend that
// returns a descriptor wins. Transport errors try the next backend; any
// other error, or exhausting the chain, is fatal.
func (r *Resolver) lookup(coord Coordinate) (*Descriptor, error) {
	for _, backend := range r.Chain {
		desc, found, err := backend.Lookup(coord)
		if err != nil {
			if IsTransportError(err) {
				continue
			}
			return nil, err
		}
		if !found {
			continue
		}

		if fetcher, ok := backend.(Fetcher); ok {
			if err := r.fetchAndCache(backend, fetcher, coord, desc); err != nil {
				if IsTransportError(err) {
					continue
				}
				return nil, err
			}
		}
		return desc, nil
	}
	return nil, &UnknownCoordinateError{Coordinate: coord}
}

// fetchAndCache downloads the artifact from a network backend and
// populates the artifact cache so subsequent builds are offline. It is a
// no-op for the cache backend itself, which doesn't implement Fetcher.
func (r *Resolver) fetchAndCache(backend Backend, fetcher Fetcher, coord Coordinate, desc *Descriptor) error {
	data, err := fetcher.Fetch(coord, desc)
	if err != nil {
		return err
	}

	for _, b := range r.Chain {
		if cb, ok := b.(*CacheBackend); ok {
			descXML, merr := marshalPOM(desc)
			if merr != nil {
				return errors.Wrap(merr, "marshaling descriptor for caching")
			}
			return cb.Store(coord, desc.Packaging, descXML, data)
		}
	}
	return nil
}

func buildLockfile(byGA map[string]*resolved, order []string) *project.Lockfile {
	lf := &project.Lockfile{}
	for _, ga := range order {
		r := byGA[ga]
		lf.Dependencies = append(lf.Dependencies, project.LockedDependency{
			Group:        r.descriptor.Group,
			Artifact:     r.descriptor.Artifact,
			Version:      r.descriptor.Version,
			Packaging:    r.descriptor.Packaging,
			URL:          r.descriptor.URL,
			Direct:       r.direct,
			DependencyOf: r.dependencyOf,
		})
	}
	sort.SliceStable(lf.Dependencies, func(i, j int) bool {
		// Direct dependencies first, acyclic-closure order otherwise
		// preserved as produced by the frontier walk: every listed
		// artifact's direct dependencies appear earlier in transitive
		// closure order.
		return lf.Dependencies[i].Direct && !lf.Dependencies[j].Direct
	})
	return lf
}
