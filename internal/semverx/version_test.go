package semverx

import "testing"

func TestParseAndString(t *testing.T) {
	cases := []struct {
		in   string
		want Version
	}{
		{"1.2.3", Version{Major: 1, Minor: 2, Micro: 3}},
		{"33.0.2.0", Version{Major: 33, Minor: 0, Micro: 2, Preview: 0}},
		{"1.3.0-beta1", Version{Major: 1, Minor: 3, Micro: 0, Pre: "beta1"}},
		{"v2.0.5", Version{Major: 2, Minor: 0, Micro: 5}},
		{"garbage", Version{}},
	}

	for _, c := range cases {
		got := Parse(c.in)
		if got.Major != c.want.Major || got.Minor != c.want.Minor || got.Micro != c.want.Micro ||
			got.Preview != c.want.Preview || got.Pre != c.want.Pre {
			t.Errorf("Parse(%q) = %+v, want %+v", c.in, got, c.want)
		}
	}
}

func TestCompareOrdering(t *testing.T) {
	ordered := []string{
		"1.0.0",
		"1.0.1",
		"1.1.0",
		"2.0.0-alpha",
		"2.0.0",
		"20.0.5.2",
	}

	for i := 1; i < len(ordered); i++ {
		lo, hi := Parse(ordered[i-1]), Parse(ordered[i])
		if !lo.LessThan(hi) {
			t.Errorf("expected %q < %q", ordered[i-1], ordered[i])
		}
		if !hi.GreaterThan(lo) {
			t.Errorf("expected %q > %q", ordered[i], ordered[i-1])
		}
	}
}

func TestEqual(t *testing.T) {
	a := Parse("1.2.3")
	b := Parse("1.2.3")
	if !a.Equal(b) {
		t.Errorf("expected %q == %q", a, b)
	}
}

func TestPrereleaseSortsBelowRelease(t *testing.T) {
	release := Parse("1.0.0")
	pre := Parse("1.0.0-rc1")
	if !pre.LessThan(release) {
		t.Errorf("expected prerelease %q to sort below release %q", pre, release)
	}
}

func TestHighest(t *testing.T) {
	vs := []Version{Parse("1.0.0"), Parse("3.2.1"), Parse("2.5.0")}
	got := Highest(vs)
	if !got.Equal(Parse("3.2.1")) {
		t.Errorf("Highest() = %v, want 3.2.1", got)
	}

	if !Highest(nil).Equal(Version{}) {
		t.Errorf("Highest(nil) should be the zero Version")
	}
}

func TestStringRoundTripsOriginal(t *testing.T) {
	v := Parse("1.2.3-beta1")
	if v.String() != "1.2.3-beta1" {
		t.Errorf("String() = %q, want original input preserved", v.String())
	}
}
