package sdk

import (
	"strings"
	"testing"
)

const sampleManifest = `<?xml version="1.0" encoding="UTF-8"?>
<sdk:repository xmlns:sdk="http://schemas.android.com/repository/android/common/01">
  <license id="android-sdk-license" type="text">Sample license text</license>
  <channel id="channel-0">stable</channel>
  <channel id="channel-1">beta</channel>
  <remotePackage path="platforms;android-34">
    <license-ref ref="android-sdk-license"/>
    <revision><major>34</major><minor>0</minor><micro>0</micro></revision>
    <channelRef ref="channel-0"/>
    <archives>
      <archive>
        <complete>
          <size>123456</size>
          <checksum type="sha1">abcdef0123456789</checksum>
          <url>platform-34.zip</url>
        </complete>
      </archive>
    </archives>
    <dependencies>
      <dependency path="tools">
        <min-revision><major>26</major><minor>0</minor><micro>0</micro></min-revision>
      </dependency>
    </dependencies>
  </remotePackage>
  <remotePackage path="build-tools;34.0.0">
    <revision><major>34</major><minor>0</minor><micro>0</micro></revision>
    <channelRef ref="channel-1"/>
    <archives>
      <archive>
        <complete>
          <size>999</size>
          <checksum type="sha1">deadbeef</checksum>
          <url>build-tools-34.zip</url>
        </complete>
      </archive>
    </archives>
  </remotePackage>
  <base-url>https://dl.google.com/android/repository/</base-url>
</sdk:repository>
`

func TestParseManifest(t *testing.T) {
	m, err := ParseManifest(strings.NewReader(sampleManifest))
	if err != nil {
		t.Fatalf("ParseManifest: %v", err)
	}

	if len(m.Packages) != 2 {
		t.Fatalf("got %d packages, want 2", len(m.Packages))
	}
	if m.BaseURL != "https://dl.google.com/android/repository/" {
		t.Errorf("BaseURL = %q", m.BaseURL)
	}
	if _, ok := m.Licenses["android-sdk-license"]; !ok {
		t.Errorf("expected license android-sdk-license to be recorded")
	}

	platforms := m.Packages[0]
	if platforms.Path != "platforms;android-34" {
		t.Errorf("Path = %q", platforms.Path)
	}
	if platforms.Version.String() != "34.0.0" {
		t.Errorf("Version = %q, want 34.0.0", platforms.Version)
	}
	if platforms.Channel != ChannelStable {
		t.Errorf("Channel = %q, want stable", platforms.Channel)
	}
	if platforms.Archive.URL != "platform-34.zip" || platforms.Archive.Size != 123456 {
		t.Errorf("Archive = %+v", platforms.Archive)
	}
	if len(platforms.DependsOn) != 1 || platforms.DependsOn[0].Path != "tools" {
		t.Errorf("DependsOn = %+v", platforms.DependsOn)
	}

	buildTools := m.Packages[1]
	if buildTools.Channel != ChannelBeta {
		t.Errorf("Channel = %q, want beta", buildTools.Channel)
	}
}

func TestParseManifestSkipsUnknownElements(t *testing.T) {
	doc := `<sdk:repository xmlns:sdk="x">
  <remotePackage path="tools">
    <revision><major>1</major></revision>
    <unknownThing><nested>ignored</nested></unknownThing>
  </remotePackage>
</sdk:repository>`

	m, err := ParseManifest(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("ParseManifest: %v", err)
	}
	if len(m.Packages) != 1 || m.Packages[0].Path != "tools" {
		t.Fatalf("packages = %+v", m.Packages)
	}
}
