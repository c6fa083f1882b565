package gps

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Format identifies the metadata container encoding a coordinate was read from.
type Format string

const (
	FormatQuickTime Format = "quicktime"
	FormatXMP       Format = "xmp"
	FormatEXIF      Format = "exif"
	FormatKeys      Format = "keys"
	FormatDecimal   Format = "decimal"
)

// DefaultMatchTolerance is the default angular tolerance for Matches, about 0.1m.
const DefaultMatchTolerance = 0.000001

const earthRadiusMeters = 6371000.0

// Coordinate is an immutable geodetic point. Construct via New or one of the
// From* parsers; always copied by value.
type Coordinate struct {
	Latitude  float64
	Longitude float64
	Altitude  *float64 // meters, optional
	Accuracy  *float64 // meters, optional
	Source    Format
}

// New validates latitude/longitude ranges and returns the coordinate.
// Out-of-range values are an error, never clamped.
func New(lat, lon float64) (Coordinate, error) {
	if lat < -90 || lat > 90 {
		return Coordinate{}, fmt.Errorf("latitude %f out of valid range [-90, 90]", lat)
	}
	if lon < -180 || lon > 180 {
		return Coordinate{}, fmt.Errorf("longitude %f out of valid range [-180, 180]", lon)
	}
	return Coordinate{Latitude: lat, Longitude: lon, Source: FormatDecimal}, nil
}

// NewWithAltitude is New plus an altitude in meters.
func NewWithAltitude(lat, lon, alt float64) (Coordinate, error) {
	c, err := New(lat, lon)
	if err != nil {
		return Coordinate{}, err
	}
	c.Altitude = &alt
	return c, nil
}

// ToQuickTime renders the ISO-6709 style string used by the QuickTime
// com.apple.quicktime.location.ISO6709 key, e.g. "+37.774900-122.419400/".
// Signs are always explicit and the trailing slash is mandatory.
func (c Coordinate) ToQuickTime() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%+.6f%+.6f", c.Latitude, c.Longitude)
	if c.Altitude != nil {
		fmt.Fprintf(&b, "%+.2f", *c.Altitude)
	}
	b.WriteString("/")
	return b.String()
}

// ToXMP renders the "DD.DDDDDD N" / "DDD.DDDDDD E" pair used by XMP
// exif:GPSLatitude / exif:GPSLongitude.
func (c Coordinate) ToXMP() (lat, lon string) {
	latRef := "N"
	if c.Latitude < 0 {
		latRef = "S"
	}
	lonRef := "E"
	if c.Longitude < 0 {
		lonRef = "W"
	}
	lat = fmt.Sprintf("%.6f %s", math.Abs(c.Latitude), latRef)
	lon = fmt.Sprintf("%.6f %s", math.Abs(c.Longitude), lonRef)
	return lat, lon
}

// ToEXIFDMS renders degrees/minutes/seconds strings plus separate reference
// letters, the convention exiftool prints for EXIF GPS tags.
func (c Coordinate) ToEXIFDMS() (latDMS, latRef, lonDMS, lonRef string) {
	latRef = "N"
	if c.Latitude < 0 {
		latRef = "S"
	}
	lonRef = "E"
	if c.Longitude < 0 {
		lonRef = "W"
	}
	return formatDMS(math.Abs(c.Latitude)), latRef, formatDMS(math.Abs(c.Longitude)), lonRef
}

func formatDMS(deg float64) string {
	d := math.Floor(deg)
	rem := (deg - d) * 60
	m := math.Floor(rem)
	s := (rem - m) * 60
	return fmt.Sprintf("%d deg %d' %.2f\"", int(d), int(m), s)
}

// Matches reports whether the two coordinates agree within tolerance degrees
// on latitude and longitude independently. Altitude is ignored. A negative
// tolerance selects DefaultMatchTolerance; zero demands an exact match.
func (c Coordinate) Matches(other Coordinate, tolerance float64) bool {
	if tolerance < 0 {
		tolerance = DefaultMatchTolerance
	}
	return math.Abs(c.Latitude-other.Latitude) <= tolerance &&
		math.Abs(c.Longitude-other.Longitude) <= tolerance
}

// DistanceTo returns the haversine great-circle distance in meters.
func (c Coordinate) DistanceTo(other Coordinate) float64 {
	lat1 := c.Latitude * math.Pi / 180
	lat2 := other.Latitude * math.Pi / 180
	dLat := (other.Latitude - c.Latitude) * math.Pi / 180
	dLon := (other.Longitude - c.Longitude) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

var signedDecimalRe = regexp.MustCompile(`[-+]?\d+(?:\.\d+)?`)

// FromQuickTime parses an ISO-6709 style location string. The first two
// signed decimals are latitude/longitude, an optional third is altitude.
// Returns nil on unparseable or out-of-range input; a missing or malformed
// location tag is a normal condition, not an error.
func FromQuickTime(s string) *Coordinate {
	nums := signedDecimalRe.FindAllString(s, -1)
	if len(nums) < 2 {
		return nil
	}
	lat, err1 := strconv.ParseFloat(nums[0], 64)
	lon, err2 := strconv.ParseFloat(nums[1], 64)
	if err1 != nil || err2 != nil {
		return nil
	}
	c, err := New(lat, lon)
	if err != nil {
		return nil
	}
	if len(nums) >= 3 {
		if alt, err := strconv.ParseFloat(nums[2], 64); err == nil {
			c.Altitude = &alt
		}
	}
	c.Source = FormatQuickTime
	return &c
}

var xmpRe = regexp.MustCompile(`^\s*(\d+(?:\.\d+)?)[\s,]+([NnSsEeWw])\s*$`)

// FromXMP parses the "DD.DDDDDD N" pair form. Comma and space separators are
// both accepted and the hemisphere letter is case-insensitive. Returns nil
// when either string does not match.
func FromXMP(latStr, lonStr string) *Coordinate {
	lat, ok := parseXMPPart(latStr, "S")
	if !ok {
		return nil
	}
	lon, ok := parseXMPPart(lonStr, "W")
	if !ok {
		return nil
	}
	c, err := New(lat, lon)
	if err != nil {
		return nil
	}
	c.Source = FormatXMP
	return &c
}

func parseXMPPart(s, negativeRef string) (float64, bool) {
	m := xmpRe.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	if strings.EqualFold(m[2], negativeRef) {
		v = -v
	}
	return v, true
}

// The three DMS notations seen in the wild: exiftool's "D deg M' S.SS"",
// the unicode degree form, and colon-separated D:M:S.
var dmsPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d+(?:\.\d+)?)\s*deg\s*(\d+(?:\.\d+)?)'\s*(\d+(?:\.\d+)?)"`),
	regexp.MustCompile(`(\d+(?:\.\d+)?)\s*°\s*(\d+(?:\.\d+)?)'\s*(\d+(?:\.\d+)?)"`),
	regexp.MustCompile(`(\d+(?:\.\d+)?):(\d+(?:\.\d+)?):(\d+(?:\.\d+)?)`),
}

// FromEXIFDMS parses degrees/minutes/seconds strings with separate hemisphere
// references. Returns nil if neither side matches any known DMS notation.
func FromEXIFDMS(latDMS, latRef, lonDMS, lonRef string) *Coordinate {
	lat, ok := parseDMS(latDMS)
	if !ok {
		return nil
	}
	lon, ok := parseDMS(lonDMS)
	if !ok {
		return nil
	}
	if strings.EqualFold(strings.TrimSpace(latRef), "S") {
		lat = -lat
	}
	if strings.EqualFold(strings.TrimSpace(lonRef), "W") {
		lon = -lon
	}
	c, err := New(lat, lon)
	if err != nil {
		return nil
	}
	c.Source = FormatEXIF
	return &c
}

func parseDMS(s string) (float64, bool) {
	for _, re := range dmsPatterns {
		m := re.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		d, err1 := strconv.ParseFloat(m[1], 64)
		min, err2 := strconv.ParseFloat(m[2], 64)
		sec, err3 := strconv.ParseFloat(m[3], 64)
		if err1 != nil || err2 != nil || err3 != nil {
			continue
		}
		return d + min/60 + sec/3600, true
	}
	return 0, false
}
