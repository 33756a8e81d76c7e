package plugin

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Plugin is one installed, manifest-parsed plugin ready to contribute
// tasks to the Driver.
type Plugin struct {
	ID       string
	Dir      string
	Manifest *Manifest
}

// Host ties together plugin installation and loading under a project's
// <home>/plugins directory.
type Host struct {
	Installer *Installer
}

// NewHost builds a Host rooted at <home>/plugins.
func NewHost(home string) *Host {
	return &Host{Installer: NewInstaller(filepath.Join(home, "plugins"))}
}

// Install clones (or updates) a plugin and loads its manifest. If the
// manifest declares its own version, that version is checked out instead
// of src.Ref: a plugin's manifest-declared version takes precedence over
// the tag requested at install time, the common case where a floating
// branch ref like "main" should still report and pin to the exact version
// the plugin author cut.
func (h *Host) Install(src Source) (*Plugin, error) {
	dir, err := h.Installer.Install(src)
	if err != nil {
		return nil, err
	}

	p, err := h.load(src.ID, dir)
	if err != nil {
		return nil, err
	}

	if p.Manifest.Version != "" && p.Manifest.Version != src.Ref {
		if err := h.Installer.repoCheckout(dir, p.Manifest.Version); err != nil {
			return nil, errors.Wrapf(err, "checking out manifest version %s for plugin %s", p.Manifest.Version, src.ID)
		}
	}

	return p, nil
}

// Load reads an already-installed plugin's manifest without touching the
// network, used by the Driver to build its task list on every build.
func (h *Host) Load(id string) (*Plugin, error) {
	return h.load(id, h.Installer.Dir(id))
}

func (h *Host) load(id, dir string) (*Plugin, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestName))
	if err != nil {
		return nil, errors.Wrapf(err, "reading manifest for plugin %s", id)
	}
	manifest, err := ParseManifest(data)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing manifest for plugin %s", id)
	}
	return &Plugin{ID: id, Dir: dir, Manifest: manifest}, nil
}

// Remove deletes an installed plugin's checkout.
func (h *Host) Remove(id string) error {
	return h.Installer.Remove(id)
}
