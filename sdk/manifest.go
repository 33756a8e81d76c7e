package sdk

import (
	"encoding/xml"
	"io"
	"strconv"

	"github.com/pkg/errors"

	"github.com/labt-build/labt/internal/semverx"
)

// DefaultRepositoryBase is Google's canonical Android SDK repository base,
// used when a repository declares no base-url of its own.
const DefaultRepositoryBase = "https://dl.google.com/android/repository/"

// ParseManifest streams a repository2-1.xml document using a token-based
// xml.Decoder rather than full-document unmarshaling, so a
// multi-megabyte manifest (Google's real ones run into the tens of MB) is
// never held twice in memory. Elements outside the handled subset
// (license, remotePackage, revision, channelRef, archives/archive/complete,
// base-url, dependencies) are skipped.
func ParseManifest(r io.Reader) (*Manifest, error) {
	dec := xml.NewDecoder(r)
	m := &Manifest{Licenses: make(map[string]License)}
	channels := make(map[string]Channel) // "channel-N" id -> resolved stability tier

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "reading repository manifest")
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		switch start.Name.Local {
		case "license":
			lic, err := decodeLicense(dec, start)
			if err != nil {
				return nil, err
			}
			m.Licenses[lic.ID] = lic

		case "channel":
			id, text, err := decodeChannelDecl(dec, start)
			if err != nil {
				return nil, err
			}
			channels[id] = Channel(text)

		case "remotePackage":
			pkg, err := decodeRemotePackage(dec, start, channels)
			if err != nil {
				return nil, err
			}
			m.Packages = append(m.Packages, pkg)

		case "base-url":
			text, err := decodeCharData(dec)
			if err != nil {
				return nil, err
			}
			m.BaseURL = text
		}
	}

	return m, nil
}

func attr(start xml.StartElement, name string) string {
	for _, a := range start.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

func decodeCharData(dec *xml.Decoder) (string, error) {
	var out string
	for {
		tok, err := dec.Token()
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.CharData:
			out += string(t)
		case xml.EndElement:
			return out, nil
		}
	}
}

func decodeLicense(dec *xml.Decoder, start xml.StartElement) (License, error) {
	text, err := decodeCharData(dec)
	if err != nil {
		return License{}, errors.Wrap(err, "decoding license")
	}
	return License{ID: attr(start, "id"), Text: text}, nil
}

func decodeChannelDecl(dec *xml.Decoder, start xml.StartElement) (string, string, error) {
	text, err := decodeCharData(dec)
	if err != nil {
		return "", "", errors.Wrap(err, "decoding channel")
	}
	return attr(start, "id"), text, nil
}

func decodeRemotePackage(dec *xml.Decoder, start xml.StartElement, channels map[string]Channel) (Package, error) {
	pkg := Package{Path: attr(start, "path")}

	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return Package{}, errors.Wrapf(err, "decoding remotePackage %q", pkg.Path)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			switch t.Name.Local {
			case "revision":
				rev, err := decodeRevision(dec)
				if err != nil {
					return Package{}, err
				}
				pkg.Version = rev
				depth--
			case "channelRef":
				ref := attr(t, "ref")
				pkg.Channel = channels[ref]
				skipElement(dec)
				depth--
			case "archives":
				ar, err := decodeArchives(dec)
				if err != nil {
					return Package{}, err
				}
				pkg.Archive = ar
				depth--
			case "base-url":
				text, err := decodeCharData(dec)
				if err != nil {
					return Package{}, err
				}
				pkg.BaseURL = text
				depth--
			case "dependencies":
				deps, err := decodeDependencies(dec)
				if err != nil {
					return Package{}, err
				}
				pkg.DependsOn = deps
				depth--
			case "license":
				// an inline <license id="..."> element; <license-ref> is not
				// matched here and is skipped by the default case
				lic, err := decodeLicense(dec, t)
				if err != nil {
					return Package{}, err
				}
				pkg.LicenseID = lic.ID
				depth--
			default:
				// Unknown nested element: skip its subtree.
				skipElement(dec)
				depth--
			}
		case xml.EndElement:
			depth--
		}
	}

	return pkg, nil
}

func decodeRevision(dec *xml.Decoder) (semverx.Version, error) {
	var v semverx.Version
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return v, errors.Wrap(err, "decoding revision")
		}
		switch t := tok.(type) {
		case xml.StartElement:
			text, err := decodeCharData(dec)
			if err != nil {
				return v, err
			}
			n, _ := strconv.ParseInt(text, 10, 64)
			switch t.Name.Local {
			case "major":
				v.Major = n
			case "minor":
				v.Minor = n
			case "micro":
				v.Micro = n
			case "preview":
				v.Preview = n
			}
		case xml.EndElement:
			depth--
		}
	}
	return v, nil
}

func decodeArchives(dec *xml.Decoder) (Archive, error) {
	var ar Archive
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return ar, errors.Wrap(err, "decoding archives")
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if t.Name.Local == "archive" {
				inner, err := decodeArchive(dec)
				if err != nil {
					return ar, err
				}
				ar = inner
				depth--
			}
		case xml.EndElement:
			depth--
		}
	}
	return ar, nil
}

func decodeArchive(dec *xml.Decoder) (Archive, error) {
	var ar Archive
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return ar, errors.Wrap(err, "decoding archive")
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			switch t.Name.Local {
			case "complete":
				inner, err := decodeComplete(dec)
				if err != nil {
					return ar, err
				}
				ar = inner
				depth--
			default:
				skipElement(dec)
				depth--
			}
		case xml.EndElement:
			depth--
		}
	}
	return ar, nil
}

func decodeComplete(dec *xml.Decoder) (Archive, error) {
	var ar Archive
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return ar, errors.Wrap(err, "decoding complete")
		}
		switch t := tok.(type) {
		case xml.StartElement:
			text, err := decodeCharData(dec)
			if err != nil {
				return ar, err
			}
			switch t.Name.Local {
			case "size":
				ar.Size, _ = strconv.ParseInt(text, 10, 64)
			case "checksum":
				ar.Checksum = text
			case "url":
				ar.URL = text
			}
		case xml.EndElement:
			depth--
		}
	}
	return ar, nil
}

func decodeDependencies(dec *xml.Decoder) ([]Dependency, error) {
	var deps []Dependency
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return nil, errors.Wrap(err, "decoding dependencies")
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if t.Name.Local == "dependency" {
				d, err := decodeDependency(dec, t)
				if err != nil {
					return nil, err
				}
				deps = append(deps, d)
				depth--
			} else {
				skipElement(dec)
				depth--
			}
		case xml.EndElement:
			depth--
		}
	}
	return deps, nil
}

func decodeDependency(dec *xml.Decoder, start xml.StartElement) (Dependency, error) {
	d := Dependency{Path: attr(start, "path")}
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return d, errors.Wrap(err, "decoding dependency")
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if t.Name.Local == "min-revision" {
				rev, err := decodeRevision(dec)
				if err != nil {
					return d, err
				}
				d.MinRevision = rev
				depth--
			} else {
				skipElement(dec)
				depth--
			}
		case xml.EndElement:
			depth--
		}
	}
	return d, nil
}

// skipElement consumes tokens until the current element's matching
// EndElement, discarding an element LABt's manifest subset does not
// handle.
func skipElement(dec *xml.Decoder) {
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return
		}
		switch tok.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		}
	}
}
