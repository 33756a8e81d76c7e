package sdk

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	flock "github.com/theckman/go-flock"
	"golang.org/x/sync/errgroup"

	"github.com/labt-build/labt/internal/archivefs"
	"github.com/labt-build/labt/internal/fs"
)

// installConcurrency bounds how many archives download and extract at once
// during ApplyAll; package installs only need to respect their own
// dependency order, not run one at a time, so this is only a politeness
// limit on concurrent connections to the repository.
const installConcurrency = 4

// Installer downloads and extracts SDK packages under a fixed root
// (<home>/sdk/<disk path>).
type Installer struct {
	Root        string // <home>/sdk
	RepoBaseURL string // the manifest's own declared base-url, if any
	Client      *http.Client
}

// NewInstaller builds an Installer rooted at sdkRoot with a bounded-timeout
// HTTP client, matching MavenBackend's transport defaults.
func NewInstaller(sdkRoot, repoBaseURL string) *Installer {
	return &Installer{Root: sdkRoot, RepoBaseURL: repoBaseURL, Client: &http.Client{Timeout: 5 * time.Minute}}
}

// Apply executes a single planned Step: an uninstall removes the package's
// directory outright; an install downloads the archive to a staging
// directory, verifies its size and SHA-1 checksum, extracts it, and renames
// the extracted tree into place. An upgrade or downgrade first removes the
// previous install and then installs the same way. A size or checksum
// failure removes the staging files and leaves nothing at the destination.
func (in *Installer) Apply(step Step) error {
	dest := filepath.Join(in.Root, filepath.FromSlash(step.Package.DiskPath()))
	if step.Path != "" && step.Package.Path == "" {
		dest = filepath.Join(in.Root, filepath.FromSlash(strings.ReplaceAll(step.Path, ";", "/")))
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return errors.Wrapf(err, "creating parent directory for %s", step.Path)
	}
	lock := flock.NewFlock(dest + ".lock")
	if err := lock.Lock(); err != nil {
		return errors.Wrapf(err, "locking sdk package %s", step.Path)
	}
	defer lock.Unlock()

	switch step.Action {
	case ActionUninstall:
		return os.RemoveAll(dest)

	case ActionInstall, ActionUpgrade, ActionDowngrade:
		if step.Action != ActionInstall {
			if err := os.RemoveAll(dest); err != nil {
				return errors.Wrapf(err, "removing previous install of %s", step.Path)
			}
		}
		if err := in.installOne(dest, step.Package); err != nil {
			return err
		}
		return WriteVersionMarker(dest, step.Package.Version, step.Package.Channel)

	default:
		return nil
	}
}

// ApplyAll executes a full plan: uninstall steps run first and strictly in
// order, since leaves-first removal depends on it, then the remaining
// install/upgrade/downgrade steps run concurrently, bounded by
// installConcurrency. Plan emits those steps in dependency order (a
// package always precedes anything that depends on it), so each install
// goroutine waits on its own Package.DependsOn entries before calling
// Apply: that preserves the ordering even though installs of independent
// packages still run in parallel. Because group.Go is called in that same
// dependency order, a dependency is always admitted to the bounded pool
// before its dependent can be, so a full pool can never deadlock waiting
// on a dependency that hasn't been scheduled yet.
func (in *Installer) ApplyAll(ctx context.Context, steps []Step) error {
	var installs []Step
	for _, step := range steps {
		if step.Action == ActionUninstall {
			if err := in.Apply(step); err != nil {
				return err
			}
			continue
		}
		installs = append(installs, step)
	}

	done := make(map[string]chan struct{}, len(installs))
	for _, step := range installs {
		done[step.Path] = make(chan struct{})
	}

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(installConcurrency)
	for _, step := range installs {
		step := step
		group.Go(func() error {
			for _, dep := range step.Package.DependsOn {
				wait, ok := done[dep.Path]
				if !ok {
					continue
				}
				select {
				case <-wait:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			err := in.Apply(step)
			close(done[step.Path])
			return err
		})
	}
	return group.Wait()
}

func (in *Installer) installOne(dest string, pkg Package) error {
	staging, err := os.MkdirTemp(filepath.Dir(dest), ".sdk-install-*")
	if err != nil {
		return errors.Wrapf(err, "creating staging directory for %s", pkg.Path)
	}
	defer os.RemoveAll(staging)

	archivePath := filepath.Join(staging, "archive.zip")
	if err := in.download(pkg, in.resolveArchiveURL(pkg), archivePath); err != nil {
		return err
	}

	extracted := filepath.Join(staging, "extracted")
	if err := os.MkdirAll(extracted, 0o755); err != nil {
		return errors.Wrapf(err, "creating extraction directory for %s", pkg.Path)
	}
	if err := archivefs.Extract(archivePath, extracted); err != nil {
		return errors.Wrapf(err, "extracting archive for %s", pkg.Path)
	}

	root, err := singleSubdirRoot(extracted)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return errors.Wrapf(err, "creating parent directory for %s", pkg.Path)
	}
	return fs.RenameWithFallback(root, dest)
}

// singleSubdirRoot returns the extraction's real content root: SDK
// archives conventionally unpack to one top-level directory (e.g.
// "android-13/") rather than laying files straight into the archive root,
// so the installer looks one level down before committing. If the
// extraction produced anything other than exactly one directory entry, it
// is used as-is.
func singleSubdirRoot(extracted string) (string, error) {
	entries, err := os.ReadDir(extracted)
	if err != nil {
		return "", errors.Wrap(err, "reading extraction directory")
	}
	if len(entries) == 1 && entries[0].IsDir() {
		return filepath.Join(extracted, entries[0].Name()), nil
	}
	return extracted, nil
}

// download fetches a package's archive to dest, verifying its declared
// size and SHA-1 checksum before returning.
func (in *Installer) download(pkg Package, url, dest string) error {
	resp, err := in.Client.Get(url)
	if err != nil {
		return errors.Wrapf(err, "downloading %s", url)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("unexpected status %d downloading %s", resp.StatusCode, url)
	}

	out, err := os.Create(dest)
	if err != nil {
		return errors.Wrapf(err, "creating staging file for %s", pkg.Path)
	}

	hasher := sha1.New()
	size, err := io.Copy(out, io.TeeReader(resp.Body, hasher))
	closeErr := out.Close()
	if err != nil {
		os.Remove(dest)
		return errors.Wrapf(err, "writing archive for %s", pkg.Path)
	}
	if closeErr != nil {
		os.Remove(dest)
		return errors.Wrapf(closeErr, "closing staging file for %s", pkg.Path)
	}

	if pkg.Archive.Size != 0 && size != pkg.Archive.Size {
		os.Remove(dest)
		return errors.Errorf("archive for %s: expected %d bytes, got %d", pkg.Path, pkg.Archive.Size, size)
	}

	if pkg.Archive.Checksum != "" {
		actual := hex.EncodeToString(hasher.Sum(nil))
		if !strings.EqualFold(actual, pkg.Archive.Checksum) {
			os.Remove(dest)
			return errors.Errorf("archive for %s: checksum mismatch, expected %s got %s", pkg.Path, pkg.Archive.Checksum, actual)
		}
	}

	return nil
}

// resolveArchiveURL applies the base-url resolution order: the archive's
// own URL if already absolute, else the package's base-url, else the
// repository's, else Google's default.
func (in *Installer) resolveArchiveURL(pkg Package) string {
	url := pkg.Archive.URL
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		return url
	}

	base := pkg.BaseURL
	if base == "" {
		base = in.RepoBaseURL
	}
	if base == "" {
		base = DefaultRepositoryBase
	}
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(url, "/")
}
