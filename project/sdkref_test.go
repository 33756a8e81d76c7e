package project

import "testing"

func TestParseSDKReferenceStringThreeParts(t *testing.T) {
	ref, err := ParseSDKReferenceString("platforms;android-34:34.0.0:stable")
	if err != nil {
		t.Fatalf("ParseSDKReferenceString: %v", err)
	}
	if ref.Repo != "" || ref.Path != "platforms;android-34" || ref.Version != "34.0.0" || ref.Channel != "stable" {
		t.Errorf("ref = %+v", ref)
	}
}

func TestParseSDKReferenceStringWithRepo(t *testing.T) {
	ref, err := ParseSDKReferenceString("myrepo:build-tools;34:34.0.0:beta")
	if err != nil {
		t.Fatalf("ParseSDKReferenceString: %v", err)
	}
	if ref.Repo != "myrepo" || ref.Path != "build-tools;34" {
		t.Errorf("ref = %+v", ref)
	}
}

func TestParseSDKReferenceStringInvalid(t *testing.T) {
	cases := []string{"", "onlyonepart", "too:many:parts:here:somehow:more"}
	for _, c := range cases {
		if _, err := ParseSDKReferenceString(c); err == nil {
			t.Errorf("ParseSDKReferenceString(%q) expected an error", c)
		}
	}
}

func TestSDKReferenceDiskPathAndString(t *testing.T) {
	ref := SDKReference{Path: "platforms;android-34", Version: "34.0.0", Channel: "stable"}
	if ref.DiskPath() != "platforms/android-34" {
		t.Errorf("DiskPath() = %q", ref.DiskPath())
	}
	if ref.String() != "platforms;android-34:34.0.0:stable" {
		t.Errorf("String() = %q", ref.String())
	}
}
