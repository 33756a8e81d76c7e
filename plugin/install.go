package plugin

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/vcs"
	"github.com/pkg/errors"

	"github.com/labt-build/labt/internal/fs"
	"github.com/labt-build/labt/internal/semverx"
)

// LatestRef is the special version string that resolves to the highest
// semver-looking tag in the plugin's repository.
const LatestRef = "latest"

// Source names a git-hosted plugin by its clone URL and a requested ref: a
// tag, branch, commit, or the literal "latest".
type Source struct {
	ID      string
	Git     string
	Ref     string
}

// Installer clones and checks out plugin repositories under a fixed root,
// <home>/plugins/<id>.
type Installer struct {
	Root string // <home>/plugins
}

// NewInstaller builds an Installer rooted at pluginsRoot.
func NewInstaller(pluginsRoot string) *Installer {
	return &Installer{Root: pluginsRoot}
}

// Dir is the on-disk checkout path for a plugin id.
func (in *Installer) Dir(id string) string {
	return filepath.Join(in.Root, id)
}

// Install clones src.Git into its plugin directory (if not already
// present) and checks out the requested ref, resolving "latest" to the
// highest semver tag. A manifest-declared version always wins
// over the checked-out ref once the manifest is read back by the caller;
// Install only performs the checkout itself.
func (in *Installer) Install(src Source) (string, error) {
	dir := in.Dir(src.ID)

	repo, err := vcs.NewGitRepo(src.Git, dir)
	if err != nil {
		return "", errors.Wrapf(err, "preparing git source for plugin %s", src.ID)
	}

	exists, err := fs.Exists(dir)
	if err != nil {
		return "", errors.Wrapf(err, "checking plugin directory %s", dir)
	}
	if !exists {
		if err := repo.Get(); err != nil {
			return "", errors.Wrapf(err, "cloning plugin %s from %s", src.ID, src.Git)
		}
	} else {
		if err := repo.Update(); err != nil {
			return "", errors.Wrapf(err, "updating plugin %s", src.ID)
		}
	}

	ref := src.Ref
	if ref == "" || ref == LatestRef {
		ref, err = highestSemverTag(repo)
		if err != nil {
			return "", errors.Wrapf(err, "resolving latest version for plugin %s", src.ID)
		}
	}

	if err := repo.UpdateVersion(ref); err != nil {
		return "", errors.Wrapf(err, "checking out %s for plugin %s", ref, src.ID)
	}

	return dir, nil
}

// Remove deletes a plugin's checkout entirely.
func (in *Installer) Remove(id string) error {
	return os.RemoveAll(in.Dir(id))
}

// repoCheckout checks out ref in an already-cloned plugin directory,
// without re-resolving "latest" or re-cloning; used to switch to a
// plugin's manifest-declared version once it has been read.
func (in *Installer) repoCheckout(dir, ref string) error {
	repo, err := vcs.NewGitRepo("", dir)
	if err != nil {
		return err
	}
	return repo.UpdateVersion(ref)
}

// highestSemverTag resolves "latest" by listing the repository's tags and
// picking the one with the highest semverx value, skipping any tag that
// doesn't parse as a version.
func highestSemverTag(repo vcs.Repo) (string, error) {
	tags, err := repo.Tags()
	if err != nil {
		return "", err
	}

	var best string
	var bestVer semverx.Version
	haveBest := false

	for _, tag := range tags {
		candidate := strings.TrimPrefix(tag, "v")
		if !looksLikeVersion(candidate) {
			continue
		}
		ver := semverx.Parse(candidate)
		if !haveBest || ver.GreaterThan(bestVer) {
			best, bestVer, haveBest = tag, ver, true
		}
	}

	if !haveBest {
		return "", errors.New("no semver-looking tags found")
	}
	return best, nil
}

func looksLikeVersion(s string) bool {
	if s == "" {
		return false
	}
	return s[0] >= '0' && s[0] <= '9'
}
