package gps

import (
	"math"
	"testing"
)

func TestNewRangeValidation(t *testing.T) {
	if _, err := New(91, 0); err == nil {
		t.Fatal("expected error for latitude 91")
	}
	if _, err := New(-90.001, 0); err == nil {
		t.Fatal("expected error for latitude -90.001")
	}
	if _, err := New(0, 180.5); err == nil {
		t.Fatal("expected error for longitude 180.5")
	}
	if _, err := New(90, -180); err != nil {
		t.Fatalf("boundary values should be valid: %v", err)
	}
}

func TestToQuickTime(t *testing.T) {
	c, err := New(37.7749, -122.4194)
	if err != nil {
		t.Fatal(err)
	}
	got := c.ToQuickTime()
	if got != "+37.774900-122.419400/" {
		t.Fatalf("quicktime string mismatch: %q", got)
	}

	alt := 52.5
	c.Altitude = &alt
	got = c.ToQuickTime()
	if got != "+37.774900-122.419400+52.50/" {
		t.Fatalf("quicktime string with altitude mismatch: %q", got)
	}
}

func TestQuickTimeRoundTrip(t *testing.T) {
	cases := []struct{ lat, lon float64 }{
		{37.7749, -122.4194},
		{-33.8688, 151.2093},
		{0, 0},
		{89.999999, -179.999999},
		{-90, 180},
	}
	for _, tc := range cases {
		c, err := New(tc.lat, tc.lon)
		if err != nil {
			t.Fatal(err)
		}
		back := FromQuickTime(c.ToQuickTime())
		if back == nil {
			t.Fatalf("round trip failed to parse for (%f, %f)", tc.lat, tc.lon)
		}
		if math.Abs(back.Latitude-tc.lat) > 1e-6 || math.Abs(back.Longitude-tc.lon) > 1e-6 {
			t.Fatalf("round trip drift: (%f, %f) -> (%f, %f)", tc.lat, tc.lon, back.Latitude, back.Longitude)
		}
	}
}

func TestFromQuickTimeAltitude(t *testing.T) {
	c := FromQuickTime("+37.774900-122.419400+10.50/")
	if c == nil {
		t.Fatal("expected parse to succeed")
	}
	if c.Altitude == nil || math.Abs(*c.Altitude-10.5) > 0.001 {
		t.Fatalf("altitude not parsed: %v", c.Altitude)
	}
	if c.Source != FormatQuickTime {
		t.Fatalf("unexpected source format: %s", c.Source)
	}
}

func TestFromQuickTimeUnparseable(t *testing.T) {
	for _, s := range []string{"", "/", "no coordinates here", "+91.000000+0.000000/"} {
		if c := FromQuickTime(s); c != nil {
			t.Fatalf("expected nil for %q, got %+v", s, c)
		}
	}
}

func TestXMPRoundTrip(t *testing.T) {
	c, err := New(-33.8688, 151.2093)
	if err != nil {
		t.Fatal(err)
	}
	lat, lon := c.ToXMP()
	if lat != "33.868800 S" || lon != "151.209300 E" {
		t.Fatalf("xmp strings mismatch: %q %q", lat, lon)
	}
	back := FromXMP(lat, lon)
	if back == nil {
		t.Fatal("xmp parse failed")
	}
	if math.Abs(back.Latitude-c.Latitude) > 1e-6 || math.Abs(back.Longitude-c.Longitude) > 1e-6 {
		t.Fatalf("xmp round trip drift: (%f, %f)", back.Latitude, back.Longitude)
	}
}

func TestFromXMPVariants(t *testing.T) {
	// comma separator and lowercase hemisphere are both accepted
	c := FromXMP("37.774900,n", "122.419400,w")
	if c == nil {
		t.Fatal("expected parse to succeed")
	}
	if c.Latitude < 0 || c.Longitude > 0 {
		t.Fatalf("hemisphere signs wrong: (%f, %f)", c.Latitude, c.Longitude)
	}
	if FromXMP("37.7749", "122.4194 W") != nil {
		t.Fatal("expected nil for missing hemisphere letter")
	}
}

func TestFromEXIFDMS(t *testing.T) {
	c := FromEXIFDMS(`37 deg 46' 30.00"`, "N", `122 deg 25' 10.00"`, "W")
	if c == nil {
		t.Fatal("expected parse to succeed")
	}
	if math.Abs(c.Latitude-37.775) > 0.001 {
		t.Fatalf("latitude mismatch: %f", c.Latitude)
	}
	if math.Abs(c.Longitude-(-122.4194)) > 0.001 {
		t.Fatalf("longitude mismatch: %f", c.Longitude)
	}
}

func TestFromEXIFDMSNotations(t *testing.T) {
	want := 37.0 + 46.0/60 + 30.0/3600
	for _, s := range []string{`37 deg 46' 30.00"`, `37° 46' 30.00"`, "37:46:30"} {
		c := FromEXIFDMS(s, "N", `122 deg 25' 10.00"`, "W")
		if c == nil {
			t.Fatalf("notation %q did not parse", s)
		}
		if math.Abs(c.Latitude-want) > 0.0001 {
			t.Fatalf("notation %q: latitude %f, want %f", s, c.Latitude, want)
		}
	}
	if FromEXIFDMS("forty degrees", "N", "122:25:10", "W") != nil {
		t.Fatal("expected nil for unknown notation")
	}
}

func TestDMSRoundTrip(t *testing.T) {
	c, err := New(37.7749, -122.4194)
	if err != nil {
		t.Fatal(err)
	}
	latDMS, latRef, lonDMS, lonRef := c.ToEXIFDMS()
	if latRef != "N" || lonRef != "W" {
		t.Fatalf("refs mismatch: %s %s", latRef, lonRef)
	}
	back := FromEXIFDMS(latDMS, latRef, lonDMS, lonRef)
	if back == nil {
		t.Fatal("dms parse failed")
	}
	if math.Abs(back.Latitude-c.Latitude) > 0.0001 || math.Abs(back.Longitude-c.Longitude) > 0.0001 {
		t.Fatalf("dms round trip drift: (%f, %f)", back.Latitude, back.Longitude)
	}
}

func TestMatches(t *testing.T) {
	a, _ := New(37.7749, -122.4194)
	b, _ := New(37.7749005, -122.4194005)
	if !a.Matches(b, DefaultMatchTolerance) {
		t.Fatal("expected match within default tolerance")
	}
	if a.Matches(b, 0) {
		t.Fatal("expected no match with zero tolerance")
	}
	// negative tolerance selects the default
	if !a.Matches(b, -1) {
		t.Fatal("expected default tolerance for negative input")
	}
}

func TestMatchesMonotonic(t *testing.T) {
	a, _ := New(37.7749, -122.4194)
	b, _ := New(37.7750, -122.4195)
	tols := []float64{0.00005, 0.0001, 0.001, 0.01}
	matched := false
	for _, tol := range tols {
		m := a.Matches(b, tol)
		if matched && !m {
			t.Fatalf("match lost at larger tolerance %f", tol)
		}
		if m {
			matched = true
		}
	}
	if !matched {
		t.Fatal("expected a match at the largest tolerance")
	}
}

func TestDistance(t *testing.T) {
	sf, _ := New(37.7749, -122.4194)
	la, _ := New(34.0522, -118.2437)
	d := sf.DistanceTo(la)
	// SF to LA is roughly 559km
	if d < 550000 || d > 570000 {
		t.Fatalf("unexpected SF-LA distance: %f m", d)
	}
	if math.Abs(sf.DistanceTo(la)-la.DistanceTo(sf)) > 1e-6 {
		t.Fatal("distance not symmetric")
	}
	if sf.DistanceTo(sf) != 0 {
		t.Fatal("distance to self should be zero")
	}
}
