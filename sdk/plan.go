package sdk

import (
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/labt-build/labt/internal/semverx"
)

// Action is what must happen to a package's on-disk state to reach the
// requested target.
type Action int

const (
	ActionNone Action = iota
	ActionInstall
	ActionUpgrade
	ActionDowngrade
	ActionUninstall
)

func (a Action) String() string {
	switch a {
	case ActionInstall:
		return "install"
	case ActionUpgrade:
		return "upgrade"
	case ActionDowngrade:
		return "downgrade"
	case ActionUninstall:
		return "uninstall"
	default:
		return "none"
	}
}

// Step is one planned change, already resolved to a concrete Package from
// the manifest (or, for an uninstall with no matching manifest entry,
// carrying only a Path).
type Step struct {
	Path    string
	Action  Action
	Package Package
}

// Installed is what the planner knows about a package already present on
// disk: its logical path and the version it was installed at.
type Installed struct {
	Path    string
	Version semverx.Version
	Channel Channel
}

// Request is one target state from the project config's sdk.* table or an
// explicit "labt sdk add" argument.
type Request struct {
	Path    string
	Version string // empty means "highest available in Channel"
	Channel Channel
	Remove  bool // true requests uninstall rather than install/upgrade
}

// Plan compares requests against installed state and the manifest's
// available versions to produce an ordered list of Steps. Uninstalls are
// ordered so a dependency is never removed before its dependents (leaves
// first); installs are ordered so a dependency is always installed before
// the package that needs it.
func Plan(manifest *Manifest, installed map[string]Installed, requests []Request) ([]Step, error) {
	byPath := make(map[string][]Package)
	for _, pkg := range manifest.Packages {
		byPath[pkg.Path] = append(byPath[pkg.Path], pkg)
	}

	var installs, uninstalls []Step

	for _, req := range requests {
		if req.Remove {
			cur, ok := installed[req.Path]
			step := Step{Path: req.Path, Action: ActionUninstall}
			if ok {
				step.Package = Package{Path: req.Path, Version: cur.Version}
			}
			uninstalls = append(uninstalls, step)
			continue
		}

		target, err := selectVersion(byPath[req.Path], req)
		if err != nil {
			return nil, errors.Wrapf(err, "planning %s", req.Path)
		}

		cur, isInstalled := installed[req.Path]
		action := ActionInstall
		if isInstalled {
			switch {
			case target.Version.Equal(cur.Version):
				action = ActionNone
			case target.Version.GreaterThan(cur.Version):
				action = ActionUpgrade
			default:
				action = ActionDowngrade
			}
		}
		if action == ActionNone {
			continue
		}

		installs = append(installs, dependencyInstalls(byPath, installed, target, map[string]bool{req.Path: true})...)
		installs = append(installs, Step{Path: req.Path, Action: action, Package: target})
	}

	installs = orderInstalls(installs)
	uninstalls = orderUninstalls(installed, uninstalls)

	return append(uninstalls, installs...), nil
}

// selectVersion resolves a Request to one concrete Package: an exact
// version if named, otherwise the highest version available in the
// requested channel when the request doesn't pin an exact version.
func selectVersion(candidates []Package, req Request) (Package, error) {
	if len(candidates) == 0 {
		return Package{}, errors.Errorf("package %q not present in repository manifest", req.Path)
	}

	if req.Version != "" {
		want := semverx.Parse(req.Version)
		for _, pkg := range candidates {
			if pkg.Version.Equal(want) {
				return pkg, nil
			}
		}
		return Package{}, errors.Errorf("package %q has no version %q in repository manifest", req.Path, req.Version)
	}

	channel := req.Channel
	if channel == "" {
		channel = ChannelStable
	}

	var best *Package
	for i := range candidates {
		pkg := candidates[i]
		if pkg.Channel != channel {
			continue
		}
		if best == nil || pkg.Version.GreaterThan(best.Version) {
			best = &pkg
		}
	}
	if best == nil {
		return Package{}, errors.Errorf("package %q has no release on channel %q", req.Path, channel)
	}
	return *best, nil
}

// dependencyInstalls walks a package's <dependencies> block, recursively
// planning an install/upgrade for any dependency not already satisfied on
// disk. visiting guards against a manifest cycle.
func dependencyInstalls(byPath map[string][]Package, installed map[string]Installed, pkg Package, visiting map[string]bool) []Step {
	var out []Step
	for _, dep := range pkg.DependsOn {
		if visiting[dep.Path] {
			continue
		}

		cur, isInstalled := installed[dep.Path]
		if isInstalled && !cur.Version.LessThan(dep.MinRevision) {
			continue
		}

		target, err := selectVersion(byPath[dep.Path], Request{Path: dep.Path, Channel: ChannelStable})
		if err != nil {
			continue // dependency absent from this manifest; nothing more the planner can do
		}

		action := ActionInstall
		if isInstalled {
			action = ActionUpgrade
		}

		next := make(map[string]bool, len(visiting)+1)
		for k := range visiting {
			next[k] = true
		}
		next[dep.Path] = true

		out = append(out, dependencyInstalls(byPath, installed, target, next)...)
		out = append(out, Step{Path: dep.Path, Action: action, Package: target})
	}
	return out
}

// orderInstalls folds duplicate entries for a path requested both directly
// and transitively, keeping the first occurrence. dependencyInstalls's
// post-order walk already places a package before anything that depends on
// it, so the first occurrence of a path is always its earliest-required
// position; later duplicates add nothing and are dropped.
func orderInstalls(steps []Step) []Step {
	seen := make(map[string]bool)
	var out []Step
	for _, s := range steps {
		if seen[s.Path] {
			continue
		}
		seen[s.Path] = true
		out = append(out, s)
	}
	return out
}

// orderUninstalls sorts so a package is removed only after everything that
// depends on it, by pushing packages with more installed dependents later
// in the list (leaves first).
func orderUninstalls(installed map[string]Installed, steps []Step) []Step {
	dependentCount := make(map[string]int)
	for path := range installed {
		dependentCount[path] = 0
	}
	// A manifest isn't available here to walk DependsOn against installed
	// state precisely, so depth is approximated by path hierarchy: a
	// package nested deeper under another installed path ("platforms;33"
	// under "platforms") is treated as depending on it, matching the
	// manifest's own ';'-separated hierarchy.
	for path := range installed {
		for other := range installed {
			if other != path && strings.HasPrefix(path, other+";") {
				dependentCount[other]++
			}
		}
	}

	sort.SliceStable(steps, func(i, j int) bool {
		return dependentCount[steps[i].Path] < dependentCount[steps[j].Path]
	})
	return steps
}
