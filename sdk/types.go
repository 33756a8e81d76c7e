// Package sdk implements the SDK Repository Manager: parsing Google-format
// repository manifests, planning and executing install/uninstall/upgrade
// actions, and exposing installed packages by logical name to the Plugin
// Driver's host API.
package sdk

import (
	"strings"

	"github.com/labt-build/labt/internal/semverx"
)

// Channel is the stability tier of an SDK package.
type Channel string

const (
	ChannelStable Channel = "stable"
	ChannelBeta   Channel = "beta"
	ChannelDev    Channel = "dev"
	ChannelCanary Channel = "canary"
)

// Archive is one downloadable artifact for a package, chosen by the host
// platform in a fuller implementation; LABt's manifest subset does not key
// archives by OS, so a package has at most one.
type Archive struct {
	Size     int64
	Checksum string // SHA-1 hex digest
	URL      string // as written in the manifest; may be relative
}

// Package is one SDK package record.
type Package struct {
	Path      string // manifest form, ';'-separated hierarchy
	Version   semverx.Version
	Channel   Channel
	Archive   Archive
	BaseURL   string // optional per-package override for relative archive URLs
	DependsOn []Dependency
	LicenseID string
}

// Dependency is one entry in a package's <dependencies> block.
type Dependency struct {
	Path        string
	MinRevision semverx.Version
}

// DiskPath is Path with ';' replaced by '/', the on-disk layout under
// <home>/sdk/.
func (p Package) DiskPath() string {
	return strings.ReplaceAll(p.Path, ";", "/")
}

// License is a <license id="..."> entry's retained id -> text mapping.
type License struct {
	ID   string
	Text string
}

// Manifest is the parsed result of one repository2-1.xml document.
type Manifest struct {
	Licenses map[string]License
	Packages []Package
	BaseURL  string // repository's declared base, if any
}
