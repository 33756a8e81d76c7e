package resolver

import (
	"encoding/xml"

	"github.com/pkg/errors"
)

// pomXML is the subset of the Maven POM schema LABt's resolver reads: enough
// to drive transitive resolution without attempting full POM semantics
// (parent inheritance, property interpolation, profiles) — those are
// explicitly the remote repository's problem to have already resolved by
// the time it serves a descriptor, which the resolver treats as opaque
// "POM-like metadata".
type pomXML struct {
	XMLName      xml.Name     `xml:"project"`
	GroupID      string       `xml:"groupId"`
	ArtifactID   string       `xml:"artifactId"`
	Version      string       `xml:"version"`
	Packaging    string       `xml:"packaging"`
	Dependencies []pomDepXML  `xml:"dependencies>dependency"`
}

type pomDepXML struct {
	GroupID    string         `xml:"groupId"`
	ArtifactID string         `xml:"artifactId"`
	Version    string         `xml:"version"`
	Scope      string         `xml:"scope"`
	Optional   bool           `xml:"optional"`
	Exclusions []pomExclXML   `xml:"exclusions>exclusion"`
}

type pomExclXML struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
}

// parsePOM decodes a POM-like descriptor into a resolver Descriptor,
// dropping dependencies scoped "test" or "provided" and any marked
// optional, the way a production Maven resolver prunes the build-time-only
// edges of the graph before transitive resolution.
func parsePOM(data []byte) (*Descriptor, error) {
	var raw pomXML
	if err := xml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "decoding pom")
	}
	if raw.Packaging == "" {
		raw.Packaging = defaultPackaging
	}

	desc := &Descriptor{
		Coordinate: Coordinate{Group: raw.GroupID, Artifact: raw.ArtifactID, Version: raw.Version},
		Packaging:  raw.Packaging,
	}

	for _, d := range raw.Dependencies {
		if d.Optional || d.Scope == "test" || d.Scope == "provided" {
			continue
		}
		excl := make(map[string]bool, len(d.Exclusions))
		for _, e := range d.Exclusions {
			g, a := e.GroupID, e.ArtifactID
			if g == "" {
				g = "*"
			}
			if a == "" {
				a = "*"
			}
			excl[g+":"+a] = true
		}
		desc.Dependencies = append(desc.Dependencies, Dependency{
			Coordinate: Coordinate{Group: d.GroupID, Artifact: d.ArtifactID, Version: d.Version},
			Exclusions: excl,
		})
	}

	return desc, nil
}

// marshalPOM renders a Descriptor back into the POM-like XML cached
// alongside its binary, so a later cold run can rebuild the same
// Descriptor purely from disk.
func marshalPOM(desc *Descriptor) ([]byte, error) {
	raw := pomXML{
		GroupID:    desc.Group,
		ArtifactID: desc.Artifact,
		Version:    desc.Version,
		Packaging:  desc.Packaging,
	}
	for _, d := range desc.Dependencies {
		dep := pomDepXML{GroupID: d.Group, ArtifactID: d.Artifact, Version: d.Version}
		for ga := range d.Exclusions {
			parts := splitGA(ga)
			dep.Exclusions = append(dep.Exclusions, pomExclXML{GroupID: parts[0], ArtifactID: parts[1]})
		}
		raw.Dependencies = append(raw.Dependencies, dep)
	}
	return xml.MarshalIndent(raw, "", "  ")
}

func splitGA(ga string) [2]string {
	for i := 0; i < len(ga); i++ {
		if ga[i] == ':' {
			return [2]string{ga[:i], ga[i+1:]}
		}
	}
	return [2]string{ga, ""}
}
