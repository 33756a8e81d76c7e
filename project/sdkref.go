package project

import (
	"strings"

	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
)

// SDKReference is the single internal shape both SDK-reference forms parse
// into: an identifier of the form `path;subpath:version:channel` with an
// optional `repo:` qualifier, or the equivalent table. `path` uses `;` as
// a hierarchical separator in the manifest and maps to `/` on disk.
type SDKReference struct {
	Repo    string // optional repository name qualifier
	Path    string // manifest-form path, ';'-separated
	Version string
	Channel string
}

// DiskPath returns the on-disk form of Path, with ';' replaced by '/'.
func (r SDKReference) DiskPath() string {
	return strings.ReplaceAll(r.Path, ";", "/")
}

func (r SDKReference) String() string {
	s := r.Path + ":" + r.Version + ":" + r.Channel
	if r.Repo != "" {
		s = r.Repo + ":" + s
	}
	return s
}

// parseSDKReferenceValue accepts either a compact string
// ("repo:path;subpath:version:channel") or a TOML table
// ({ repo, path, version, channel }), the same compact-vs-table
// flexibility Labt.toml's dependency entries allow.
func parseSDKReferenceValue(raw interface{}) (SDKReference, error) {
	switch v := raw.(type) {
	case string:
		return ParseSDKReferenceString(v)
	case *toml.Tree:
		return SDKReference{
			Repo:    getString(v, "repo"),
			Path:    getString(v, "path"),
			Version: getString(v, "version"),
			Channel: getString(v, "channel"),
		}, nil
	default:
		return SDKReference{}, errors.Errorf("sdk reference must be a string or a table, got %T", raw)
	}
}

// ParseSDKReferenceString parses the compact string form
// "[repo:]path[;subpath]:version:channel". The path portion may itself
// contain ':'-free segments joined by ';'; colons after the first
// (optional) repo qualifier split path/version/channel from the right so a
// repo name containing no colon is unambiguous.
func ParseSDKReferenceString(s string) (SDKReference, error) {
	var ref SDKReference

	parts := strings.Split(s, ":")
	switch len(parts) {
	case 3:
		ref.Path, ref.Version, ref.Channel = parts[0], parts[1], parts[2]
	case 4:
		ref.Repo, ref.Path, ref.Version, ref.Channel = parts[0], parts[1], parts[2], parts[3]
	default:
		return SDKReference{}, errors.Errorf("invalid sdk reference %q: expected [repo:]path:version:channel", s)
	}

	if ref.Path == "" {
		return SDKReference{}, errors.Errorf("invalid sdk reference %q: empty path", s)
	}
	return ref, nil
}
