package sdk

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/karrick/godirwalk"
	"github.com/pkg/errors"

	"github.com/labt-build/labt/internal/fs"
	"github.com/labt-build/labt/internal/semverx"
)

// DefaultManifestURL is Google's published repository2-1.xml, the default
// consulted when a project names no explicit sdk repository.
const DefaultManifestURL = "https://dl.google.com/android/repository/repository2-1.xml"

// Manager ties together manifest retrieval, install planning, and the
// installed-package inventory the plugin driver's host API resolves SDK
// references against.
type Manager struct {
	Home      string // <home>/sdk
	Installer *Installer
	Client    *http.Client
}

// NewManager builds a Manager rooted at <home>/sdk.
func NewManager(home string) *Manager {
	root := filepath.Join(home, "sdk")
	return &Manager{
		Home:      root,
		Installer: NewInstaller(root, ""),
		Client:    &http.Client{Timeout: 30 * time.Second},
	}
}

// FetchManifest downloads and parses the manifest at url, defaulting to
// DefaultManifestURL, and wires its declared base-url into the Manager's
// Installer.
func (m *Manager) FetchManifest(url string) (*Manifest, error) {
	if url == "" {
		url = DefaultManifestURL
	}

	resp, err := m.Client.Get(url)
	if err != nil {
		return nil, errors.Wrapf(err, "fetching repository manifest %s", url)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("unexpected status %d fetching %s", resp.StatusCode, url)
	}

	manifest, err := ParseManifest(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing repository manifest %s", url)
	}

	m.Installer.RepoBaseURL = manifest.BaseURL
	return manifest, nil
}

// Installed walks <home>/sdk and reports every package currently on disk,
// keyed by its logical (';'-joined) path, by reading back a ".labt-version"
// marker LABt writes alongside each package's files at install time.
func (m *Manager) Installed() (map[string]Installed, error) {
	out := make(map[string]Installed)

	exists, err := fs.Exists(m.Home)
	if err != nil {
		return nil, errors.Wrap(err, "checking sdk home")
	}
	if !exists {
		return out, nil
	}

	err = fs.Walk(m.Home, func(path string, dirent *godirwalk.Dirent) error {
		if dirent.IsDir() {
			return nil
		}
		if filepath.Base(path) != versionMarkerName {
			return nil
		}

		rel, rerr := filepath.Rel(m.Home, filepath.Dir(path))
		if rerr != nil {
			return rerr
		}
		logicalPath := strings.ReplaceAll(filepath.ToSlash(rel), "/", ";")

		data, rerr := os.ReadFile(path)
		if rerr != nil {
			return rerr
		}
		version, channel := parseVersionMarker(string(data))
		out[logicalPath] = Installed{Path: logicalPath, Version: version, Channel: channel}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "walking sdk home")
	}

	return out, nil
}

const versionMarkerName = ".labt-version"

// WriteVersionMarker records the installed version and channel of a package
// at its destination directory, read back by Installed on a later run.
func WriteVersionMarker(packageDir string, version semverx.Version, channel Channel) error {
	content := version.String() + "\n" + string(channel) + "\n"
	return fs.WriteFileAtomic(filepath.Join(packageDir, versionMarkerName), []byte(content), 0o644)
}

func parseVersionMarker(data string) (semverx.Version, Channel) {
	lines := strings.SplitN(strings.TrimSpace(data), "\n", 2)
	version := semverx.Parse(strings.TrimSpace(lines[0]))
	var channel Channel
	if len(lines) == 2 {
		channel = Channel(strings.TrimSpace(lines[1]))
	}
	return version, channel
}
