package verify

import (
	"testing"

	"github.com/ah-its-andy/vid2hevc/internal/metadata"
)

func findCheck(t *testing.T, r Result, field string) CheckResult {
	t.Helper()
	for _, c := range r.Checks {
		if c.Field == field {
			return c
		}
	}
	t.Fatalf("no check emitted for field %s", field)
	return CheckResult{}
}

func hasCheck(r Result, field string) bool {
	for _, c := range r.Checks {
		if c.Field == field {
			return true
		}
	}
	return false
}

func TestDateToleranceScenario(t *testing.T) {
	orig := metadata.TagMap{"QuickTime:CreateDate": "2024:01:15 10:30:00"}
	conv := metadata.TagMap{"QuickTime:CreateDate": "2024:01:15 10:30:01"}

	r := NewEngine(Default()).Verify("a.mov", "b.mp4", orig, conv, CategoryDateTime)
	if c := findCheck(t, r, "CreateDate"); !c.Passed() {
		t.Fatalf("1s drift should pass with default tolerance: %+v", c)
	}
	if !r.Passed {
		t.Fatal("overall result should pass")
	}

	r = NewEngine(Strict()).Verify("a.mov", "b.mp4", orig, conv, CategoryDateTime)
	if c := findCheck(t, r, "CreateDate"); c.Passed() {
		t.Fatalf("1s drift should fail with strict tolerance: %+v", c)
	}
	if r.Passed {
		t.Fatal("overall result should fail")
	}
}

func TestDateRawStringFallback(t *testing.T) {
	// when either side fails to parse, raw string equality decides; equal
	// dates in different encodings are reported as failures on this path
	orig := metadata.TagMap{"CreateDate": "mid-january 2024"}
	conv := metadata.TagMap{"CreateDate": "mid-january 2024"}
	r := NewEngine(Default()).Verify("a", "b", orig, conv, CategoryDateTime)
	if c := findCheck(t, r, "CreateDate"); !c.Passed() {
		t.Fatalf("equal raw strings should pass: %+v", c)
	}

	conv = metadata.TagMap{"CreateDate": "2024-01-15T10:30:00Z"}
	orig = metadata.TagMap{"CreateDate": "mid-january 2024"}
	r = NewEngine(Default()).Verify("a", "b", orig, conv, CategoryDateTime)
	if c := findCheck(t, r, "CreateDate"); c.Passed() {
		t.Fatal("differing raw strings should fail when unparseable")
	}
}

func TestAbsenceRule(t *testing.T) {
	orig := metadata.TagMap{"Make": "Apple"}
	conv := metadata.TagMap{
		"Make":       "Apple",
		"CreateDate": "2024:01:15 10:30:00",
		"Duration":   "12.0",
	}
	r := NewEngine(Default()).Verify("a", "b", orig, conv)
	// nothing in the original except Make: exactly one check
	if len(r.Checks) != 1 {
		t.Fatalf("expected 1 check, got %d: %+v", len(r.Checks), r.Checks)
	}
	if hasCheck(r, "CreateDate") || hasCheck(r, "Duration") {
		t.Fatal("fields absent in original must not produce checks")
	}
	if !r.Passed {
		t.Fatal("expected pass")
	}
}

func TestMissingInDestRule(t *testing.T) {
	orig := metadata.TagMap{"Model": "iPhone 14"}
	conv := metadata.TagMap{}
	r := NewEngine(Default()).Verify("a", "b", orig, conv, CategoryCamera)
	c := findCheck(t, r, "Model")
	if c.Status != StatusMissingInDest {
		t.Fatalf("expected missing_in_dest, got %s", c.Status)
	}
	if c.Passed() || r.Passed {
		t.Fatal("missing_in_dest counts as failure")
	}
}

func TestCameraCaseInsensitive(t *testing.T) {
	orig := metadata.TagMap{"Make": " Apple "}
	conv := metadata.TagMap{"Make": "apple"}
	r := NewEngine(Strict()).Verify("a", "b", orig, conv, CategoryCamera)
	if c := findCheck(t, r, "Make"); !c.Passed() {
		t.Fatalf("camera comparison should trim and ignore case: %+v", c)
	}
}

func TestGPSComparison(t *testing.T) {
	orig := metadata.TagMap{"QuickTime:GPSCoordinates": "+37.774900-122.419400/"}
	same := metadata.TagMap{"QuickTime:GPSCoordinates": "+37.774900-122.419400/"}
	far := metadata.TagMap{"QuickTime:GPSCoordinates": "+37.780000-122.419400/"}
	none := metadata.TagMap{}

	e := NewEngine(Default())
	if r := e.Verify("a", "b", orig, same, CategoryGPS); !r.Passed {
		t.Fatalf("identical GPS should pass: %s", r.Summary())
	}
	if r := e.Verify("a", "b", orig, far, CategoryGPS); r.Passed {
		t.Fatal("GPS half a kilometre off should fail")
	}
	r := e.Verify("a", "b", orig, none, CategoryGPS)
	if c := findCheck(t, r, "GPSPosition"); c.Status != StatusMissingInDest {
		t.Fatalf("expected missing_in_dest, got %s", c.Status)
	}
	// no GPS in original: nothing to verify, no checks at all
	if r := e.Verify("a", "b", none, far, CategoryGPS); len(r.Checks) != 0 || !r.Passed {
		t.Fatalf("absent-in-original GPS must auto-pass: %+v", r.Checks)
	}
}

func TestGPSAltitudeFixedTolerance(t *testing.T) {
	orig := metadata.TagMap{"QuickTime:GPSCoordinates": "+37.774900-122.419400+100.00/"}
	within := metadata.TagMap{"QuickTime:GPSCoordinates": "+37.774900-122.419400+100.90/"}
	beyond := metadata.TagMap{"QuickTime:GPSCoordinates": "+37.774900-122.419400+102.00/"}

	// relaxed angular tolerance does not widen the fixed 1m altitude band
	e := NewEngine(Relaxed())
	r := e.Verify("a", "b", orig, within, CategoryGPS)
	if c := findCheck(t, r, "GPSAltitude"); !c.Passed() {
		t.Fatalf("0.9m altitude drift should pass: %+v", c)
	}
	r = e.Verify("a", "b", orig, beyond, CategoryGPS)
	if c := findCheck(t, r, "GPSAltitude"); c.Passed() {
		t.Fatal("2m altitude drift should fail")
	}
}

func TestDurationFormats(t *testing.T) {
	orig := metadata.TagMap{"QuickTime:Duration": "0:02:03.50"}
	conv := metadata.TagMap{"QuickTime:Duration": "123.55"}
	r := NewEngine(Default()).Verify("a", "b", orig, conv, CategoryVideo)
	if c := findCheck(t, r, "Duration"); !c.Passed() {
		t.Fatalf("0.05s drift should pass default 0.1s tolerance: %+v", c)
	}

	conv = metadata.TagMap{"QuickTime:Duration": "124.0"}
	r = NewEngine(Default()).Verify("a", "b", orig, conv, CategoryVideo)
	if c := findCheck(t, r, "Duration"); c.Passed() {
		t.Fatal("0.5s drift should fail default tolerance")
	}
}

func TestNumericRelativeAndZero(t *testing.T) {
	orig := metadata.TagMap{"ImageWidth": "1920", "Rotation": "0", "VideoFrameRate": "0"}
	conv := metadata.TagMap{"ImageWidth": "1921", "Rotation": "0", "VideoFrameRate": "0"}
	r := NewEngine(Default()).Verify("a", "b", orig, conv, CategoryVideo)
	if c := findCheck(t, r, "ImageWidth"); !c.Passed() {
		t.Fatalf("0.05%% width drift should pass 0.1%% tolerance: %+v", c)
	}
	if c := findCheck(t, r, "VideoFrameRate"); !c.Passed() {
		t.Fatal("zero equals zero")
	}

	conv = metadata.TagMap{"ImageWidth": "1920", "Rotation": "0", "VideoFrameRate": "0.01"}
	r = NewEngine(Default()).Verify("a", "b", orig, conv, CategoryVideo)
	if c := findCheck(t, r, "VideoFrameRate"); c.Passed() {
		t.Fatal("original zero only matches converted zero")
	}
}

func TestAudioChecks(t *testing.T) {
	orig := metadata.TagMap{
		"AudioCodec":         "aac",
		"AudioChannels":      "2",
		"AudioSampleRate":    "44100",
		"AudioBitsPerSample": "16",
	}
	conv := metadata.TagMap{
		"AudioCodec":         "aac",
		"AudioChannels":      "2",
		"AudioSampleRate":    "44120", // 0.045%, inside the fixed 0.1%
		"AudioBitsPerSample": "16",
	}
	r := NewEngine(Strict()).Verify("a", "b", orig, conv, CategoryAudio)
	if !r.Passed {
		t.Fatalf("audio sample rate keeps its fixed 0.1%% tolerance even under strict: %s", r.Summary())
	}

	conv["AudioCodec"] = "mp3"
	r = NewEngine(Relaxed()).Verify("a", "b", orig, conv, CategoryAudio)
	if c := findCheck(t, r, "AudioCodec"); c.Passed() {
		t.Fatal("codec requires exact match")
	}
}

func TestCategorySubset(t *testing.T) {
	orig := metadata.TagMap{"CreateDate": "2024:01:15 10:30:00", "Make": "Apple"}
	conv := metadata.TagMap{"CreateDate": "2024:01:15 10:30:00"}
	r := NewEngine(Default()).Verify("a", "b", orig, conv, CategoryDateTime)
	if hasCheck(r, "Make") {
		t.Fatal("camera category was not requested")
	}
	if !r.Passed {
		t.Fatal("restricted run should pass")
	}
}

func TestResultViews(t *testing.T) {
	orig := metadata.TagMap{"CreateDate": "2024:01:15 10:30:00", "Make": "Apple"}
	conv := metadata.TagMap{"CreateDate": "2024:01:15 10:30:00"}
	r := NewEngine(Default()).Verify("a", "b", orig, conv)
	if len(r.Failed())+len(r.PassedChecks()) != len(r.Checks) {
		t.Fatal("failed/passed views must partition the checks")
	}
	byCat := r.ByCategory()
	if len(byCat[CategoryDateTime]) != 1 || len(byCat[CategoryCamera]) != 1 {
		t.Fatalf("unexpected category grouping: %+v", byCat)
	}
	if r.Summary() == "" {
		t.Fatal("summary should not be empty")
	}
}

func TestPresets(t *testing.T) {
	if Preset("strict") != Strict() || Preset("RELAXED") != Relaxed() {
		t.Fatal("preset lookup broken")
	}
	if Preset("unknown") != Default() {
		t.Fatal("unknown preset should fall back to default")
	}
	if Strict().DateSeconds != 0 || Default().DateSeconds != 1 || Relaxed().DateSeconds != 60 {
		t.Fatal("preset values wrong")
	}
}
