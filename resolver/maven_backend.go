package resolver

import (
	"crypto/sha1"
	"encoding/hex"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// DefaultMavenCentral is the canonical Maven Central base URL, used when a
// project's resolver chain names a repository with no explicit URL.
const DefaultMavenCentral = "https://repo1.maven.org/maven2"

// MavenBackend resolves coordinates against a remote Maven-like repository
// laid out the conventional way: <base>/<group-with-slashes>/<artifact>/<version>/<artifact>-<version>.<ext>.
type MavenBackend struct {
	RepoName string
	BaseURL  string
	Client   *http.Client
}

// NewMavenBackend constructs a backend with a bounded-timeout HTTP client.
func NewMavenBackend(name, baseURL string) *MavenBackend {
	if baseURL == "" {
		baseURL = DefaultMavenCentral
	}
	return &MavenBackend{
		RepoName: name,
		BaseURL:  strings.TrimSuffix(baseURL, "/"),
		Client:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (m *MavenBackend) Name() string { return m.RepoName }

func (m *MavenBackend) artifactDir(coord Coordinate) string {
	return m.BaseURL + "/" + strings.ReplaceAll(coord.Group, ".", "/") + "/" + coord.Artifact + "/" + coord.Version
}

func (m *MavenBackend) pomURL(coord Coordinate) string {
	return m.artifactDir(coord) + "/" + coord.Artifact + "-" + coord.Version + ".pom"
}

func (m *MavenBackend) artifactURL(coord Coordinate, packaging string) string {
	return m.artifactDir(coord) + "/" + coord.Artifact + "-" + coord.Version + "." + packaging
}

// Lookup fetches and parses the coordinate's POM. A 404 is reported as
// "not present" (the next backend, or ultimately UnknownCoordinateError,
// takes over); a network failure or any other HTTP status is a soft
// TransportError so the resolver chain tries the next backend. A POM that
// fails to parse is returned as a plain, fatal error.
func (m *MavenBackend) Lookup(coord Coordinate) (*Descriptor, bool, error) {
	data, status, err := m.get(m.pomURL(coord))
	if err != nil {
		return nil, false, &TransportError{Backend: m.RepoName, Cause: err}
	}
	if status == http.StatusNotFound {
		return nil, false, nil
	}
	if status != http.StatusOK {
		return nil, false, &TransportError{Backend: m.RepoName, Cause: errors.Errorf("unexpected status %d fetching %s", status, m.pomURL(coord))}
	}

	desc, err := parsePOM(data)
	if err != nil {
		return nil, false, errors.Wrapf(err, "parsing pom from %s", m.RepoName)
	}
	desc.URL = m.artifactURL(coord, desc.Packaging)
	return desc, true, nil
}

// Fetch downloads the artifact binary and verifies it against a published
// ".sha1" checksum when one exists. A checksum mismatch is fatal and
// names the offending URL.
func (m *MavenBackend) Fetch(coord Coordinate, desc *Descriptor) ([]byte, error) {
	url := m.artifactURL(coord, desc.Packaging)
	data, status, err := m.get(url)
	if err != nil {
		return nil, &TransportError{Backend: m.RepoName, Cause: err}
	}
	if status != http.StatusOK {
		return nil, &TransportError{Backend: m.RepoName, Cause: errors.Errorf("unexpected status %d fetching %s", status, url)}
	}

	sumData, sumStatus, sumErr := m.get(url + ".sha1")
	if sumErr == nil && sumStatus == http.StatusOK {
		expected := strings.TrimSpace(firstToken(string(sumData)))
		sum := sha1.Sum(data)
		actual := hex.EncodeToString(sum[:])
		if !strings.EqualFold(expected, actual) {
			return nil, &ChecksumMismatchError{URL: url, Expected: expected, Actual: actual}
		}
	}

	return data, nil
}

func firstToken(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return s
	}
	return fields[0]
}

func (m *MavenBackend) get(url string) ([]byte, int, error) {
	resp, err := m.Client.Get(url)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return data, resp.StatusCode, nil
}
