package metadata

import (
	"math"
	"testing"
	"time"
)

func TestTagMapLookup(t *testing.T) {
	tags := TagMap{
		"QuickTime:CreateDate": "2024:01:15 10:30:00",
		"Make":                 "Apple",
	}
	if v, ok := tags.Lookup("CreateDate"); !ok || v != "2024:01:15 10:30:00" {
		t.Fatalf("suffix lookup failed: %q %v", v, ok)
	}
	if v, ok := tags.Lookup("Make"); !ok || v != "Apple" {
		t.Fatalf("exact lookup failed: %q %v", v, ok)
	}
	if _, ok := tags.Lookup("ModifyDate"); ok {
		t.Fatal("expected missing tag")
	}
	// suffix must be the whole segment after the last colon
	if _, ok := tags.Lookup("Date"); ok {
		t.Fatal("partial suffix should not match")
	}
}

func TestParseDate(t *testing.T) {
	cases := map[string]time.Time{
		"2024:01:15 10:30:00":       time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
		"2024-01-15T10:30:00Z":      time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
		"2024-01-15T10:30:00":       time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
		"2024:01:15 10:30:00+02:00": time.Date(2024, 1, 15, 10, 30, 0, 0, time.FixedZone("", 2*3600)),
		"2024-01-15":                time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
	}
	for in, want := range cases {
		got, ok := ParseDate(in)
		if !ok {
			t.Fatalf("failed to parse %q", in)
		}
		if !got.Equal(want) {
			t.Fatalf("parse %q: got %v want %v", in, got, want)
		}
	}
	for _, bad := range []string{"", "not a date", "15/01/2024"} {
		if _, ok := ParseDate(bad); ok {
			t.Fatalf("expected parse failure for %q", bad)
		}
	}
}

func TestParseDuration(t *testing.T) {
	cases := map[string]float64{
		"1:02:03.5": 3723.5,
		"2:03.25":   123.25,
		"12.34 s":   12.34,
		"12.34":     12.34,
		"90":        90,
	}
	for in, want := range cases {
		got, ok := ParseDuration(in)
		if !ok {
			t.Fatalf("failed to parse %q", in)
		}
		if math.Abs(got-want) > 1e-9 {
			t.Fatalf("parse %q: got %f want %f", in, got, want)
		}
	}
	if _, ok := ParseDuration("n/a"); ok {
		t.Fatal("expected parse failure")
	}
}

func TestResolveGPSQuickTime(t *testing.T) {
	tags := TagMap{"QuickTime:GPSCoordinates": "+37.774900-122.419400+15.00/"}
	c := ResolveGPS(tags)
	if c == nil {
		t.Fatal("expected coordinate")
	}
	if math.Abs(c.Latitude-37.7749) > 1e-6 || math.Abs(c.Longitude+122.4194) > 1e-6 {
		t.Fatalf("wrong position: (%f, %f)", c.Latitude, c.Longitude)
	}
	if c.Altitude == nil || math.Abs(*c.Altitude-15) > 0.01 {
		t.Fatalf("missing altitude: %v", c.Altitude)
	}
}

func TestResolveGPSDecimalAndDMS(t *testing.T) {
	dec := ResolveGPS(TagMap{
		"EXIF:GPSLatitude":  "37.7749",
		"EXIF:GPSLongitude": "-122.4194",
		"EXIF:GPSAltitude":  "12.5 m",
	})
	if dec == nil || math.Abs(dec.Latitude-37.7749) > 1e-6 {
		t.Fatalf("decimal resolution failed: %+v", dec)
	}
	if dec.Altitude == nil || *dec.Altitude != 12.5 {
		t.Fatalf("altitude not attached: %v", dec.Altitude)
	}

	dms := ResolveGPS(TagMap{
		"EXIF:GPSLatitude":     `37 deg 46' 30.00"`,
		"EXIF:GPSLatitudeRef":  "N",
		"EXIF:GPSLongitude":    `122 deg 25' 10.00"`,
		"EXIF:GPSLongitudeRef": "W",
	})
	if dms == nil || math.Abs(dms.Latitude-37.775) > 0.001 {
		t.Fatalf("dms resolution failed: %+v", dms)
	}

	if ResolveGPS(TagMap{"Make": "Apple"}) != nil {
		t.Fatal("expected nil for map without GPS")
	}
}

func TestCaptureSnapshot(t *testing.T) {
	date := time.Date(2023, 11, 14, 10, 30, 0, 0, time.UTC)
	lat, lon := 37.7749, -122.4194
	info := PhotosVideoInfo{
		UUID:      "ABC-123",
		Filename:  "clip.mov",
		Path:      "/library/clip.mov",
		Date:      &date,
		Latitude:  &lat,
		Longitude: &lon,
		Albums:    []string{"Trips", "2023"},
		Favorite:  true,
	}
	tags := TagMap{
		"QuickTime:ModifyDate": "2023:11:14 11:00:00",
		"XMP:Title":            "Golden Gate",
		"XMP:Keywords":         "bridge, fog; travel",
	}
	snap := Capture(info, tags)
	if snap.SourceID != "ABC-123" || !snap.Favorite {
		t.Fatalf("record fields not carried: %+v", snap)
	}
	if snap.CreatedAt == nil || !snap.CreatedAt.Equal(date) {
		t.Fatalf("creation date mismatch: %v", snap.CreatedAt)
	}
	if snap.ModifiedAt == nil {
		t.Fatal("modify date not captured from tags")
	}
	if snap.GPS == nil || math.Abs(snap.GPS.Latitude-37.7749) > 1e-6 {
		t.Fatalf("gps not captured: %+v", snap.GPS)
	}
	if !snap.HasAlbum("Trips") || snap.HasAlbum("Other") {
		t.Fatal("album membership wrong")
	}
	if snap.Title != "Golden Gate" {
		t.Fatalf("title mismatch: %q", snap.Title)
	}
	if len(snap.Keywords) == 0 || snap.Keywords[0] != "bridge" {
		t.Fatalf("keywords mismatch: %v", snap.Keywords)
	}
}
