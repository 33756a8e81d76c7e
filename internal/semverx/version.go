// Package semverx implements the single version comparator shared by the
// dependency resolver's conflict policy, the SDK manager's upgrade/downgrade
// direction, and plugin "@latest" resolution.
//
// It follows the comparison algorithm of github.com/Masterminds/semver
// (compare major, then minor, then patch/micro, then lexicographic
// prerelease) but extends it to a quad major.minor.micro.preview, since
// Maven artifact versions and SDK package revisions both need a fourth
// component that plain semver.Version cannot represent. Missing components
// compare as zero.
package semverx

import (
	"strconv"
	"strings"
)

// Version is a total-ordered quad version with an optional pre-release
// suffix, compared the way Masterminds/semver compares major.minor.patch:
// numeric segments first, then a lexicographic comparison of any
// pre-release tag, with "no prerelease" sorting higher than "has a
// prerelease" (a release always outranks its own pre-releases).
type Version struct {
	Major, Minor, Micro, Preview int64
	Pre                          string
	original                     string
}

// Parse parses a dotted version string, optionally followed by a
// "-"-delimited pre-release suffix (e.g. "1.3.0-beta1", "33.0.2.0",
// "1.1.0"). Missing trailing components default to zero. Parse never
// fails: unparsable numeric segments are treated as zero so that a
// malformed version still participates in ordering rather than aborting
// resolution (resolvers report unknown-coordinate failures themselves;
// this comparator only orders what resolvers already accepted).
func Parse(v string) Version {
	out := Version{original: v}
	v = strings.TrimPrefix(v, "v")

	core := v
	if i := strings.IndexAny(v, "-+"); i >= 0 {
		core = v[:i]
		out.Pre = v[i+1:]
	}

	segs := strings.Split(core, ".")
	nums := [4]*int64{&out.Major, &out.Minor, &out.Micro, &out.Preview}
	for i, seg := range segs {
		if i >= len(nums) {
			break
		}
		if n, err := strconv.ParseInt(seg, 10, 64); err == nil {
			*nums[i] = n
		}
	}
	return out
}

// String renders the version back in major.minor.micro.preview form,
// trimming trailing zero components down to at least major.minor.patch
// the way Maven/semver versions are conventionally displayed.
func (v Version) String() string {
	if v.original != "" {
		return v.original
	}
	s := itoa(v.Major) + "." + itoa(v.Minor) + "." + itoa(v.Micro)
	if v.Preview != 0 {
		s += "." + itoa(v.Preview)
	}
	if v.Pre != "" {
		s += "-" + v.Pre
	}
	return s
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }

// Compare returns -1, 0, or 1 if v is smaller, equal, or larger than o.
func (v Version) Compare(o Version) int {
	if d := compareSegment(v.Major, o.Major); d != 0 {
		return d
	}
	if d := compareSegment(v.Minor, o.Minor); d != 0 {
		return d
	}
	if d := compareSegment(v.Micro, o.Micro); d != 0 {
		return d
	}
	if d := compareSegment(v.Preview, o.Preview); d != 0 {
		return d
	}

	switch {
	case v.Pre == "" && o.Pre == "":
		return 0
	case v.Pre == "":
		return 1
	case o.Pre == "":
		return -1
	default:
		return strings.Compare(v.Pre, o.Pre)
	}
}

func (v Version) LessThan(o Version) bool    { return v.Compare(o) < 0 }
func (v Version) GreaterThan(o Version) bool { return v.Compare(o) > 0 }
func (v Version) Equal(o Version) bool       { return v.Compare(o) == 0 }

func compareSegment(v, o int64) int {
	switch {
	case v < o:
		return -1
	case v > o:
		return 1
	default:
		return 0
	}
}

// Highest returns the greatest version in vs under Compare, or the zero
// Version if vs is empty. Used by the resolver's conflict policy, the SDK
// upgrade planner, and "plugin ...@latest" resolution.
func Highest(vs []Version) Version {
	var best Version
	for i, v := range vs {
		if i == 0 || v.GreaterThan(best) {
			best = v
		}
	}
	return best
}
