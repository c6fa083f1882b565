package metadata

import (
	"strconv"
	"strings"

	"github.com/ah-its-andy/vid2hevc/internal/gps"
)

// ResolveGPS extracts one coordinate from a tag map, trying each container
// encoding in turn: the QuickTime ISO-6709 composite, decimal degree pairs,
// XMP hemisphere-letter pairs, then EXIF DMS plus reference tags. Returns nil
// when the map carries no recognizable position, which is the common case.
func ResolveGPS(tags TagMap) *gps.Coordinate {
	for _, key := range []string{"GPSCoordinates", "LocationISO6709", "GPSPosition"} {
		if v, ok := tags.Lookup(key); ok {
			if c := gps.FromQuickTime(v); c != nil {
				attachAltitude(tags, c)
				return c
			}
		}
	}

	latStr, latOK := tags.Lookup("GPSLatitude")
	lonStr, lonOK := tags.Lookup("GPSLongitude")
	if !latOK || !lonOK {
		return nil
	}

	if lat, err1 := strconv.ParseFloat(strings.TrimSpace(latStr), 64); err1 == nil {
		if lon, err2 := strconv.ParseFloat(strings.TrimSpace(lonStr), 64); err2 == nil {
			if c, err := gps.New(lat, lon); err == nil {
				c.Source = gps.FormatDecimal
				attachAltitude(tags, &c)
				return &c
			}
			return nil
		}
	}

	if c := gps.FromXMP(latStr, lonStr); c != nil {
		attachAltitude(tags, c)
		return c
	}

	latRef, _ := tags.Lookup("GPSLatitudeRef")
	lonRef, _ := tags.Lookup("GPSLongitudeRef")
	if c := gps.FromEXIFDMS(latStr, latRef, lonStr, lonRef); c != nil {
		attachAltitude(tags, c)
		return c
	}
	return nil
}

func attachAltitude(tags TagMap, c *gps.Coordinate) {
	if c.Altitude != nil {
		return
	}
	v, ok := tags.Lookup("GPSAltitude")
	if !ok {
		return
	}
	v = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(v), "m"))
	if alt, err := strconv.ParseFloat(v, 64); err == nil {
		c.Altitude = &alt
	}
}
