package metadata

import (
	"strings"
	"time"

	"github.com/ah-its-andy/vid2hevc/internal/gps"
)

// PhotosVideoInfo is the record shape the library/folder extractor hands us
// for one video asset.
type PhotosVideoInfo struct {
	UUID      string     `json:"uuid"`
	Filename  string     `json:"filename"`
	Path      string     `json:"path"`
	Date      *time.Time `json:"date,omitempty"`
	Latitude  *float64   `json:"latitude,omitempty"`
	Longitude *float64   `json:"longitude,omitempty"`
	Albums    []string   `json:"albums,omitempty"`
	Favorite  bool       `json:"favorite"`
	Hidden    bool       `json:"hidden"`
}

// Snapshot captures everything about a source asset that conversion must
// preserve. Created once before conversion begins and read-only afterwards.
// Absent optional fields stay nil; nil is distinct from a zero value, and
// verification treats "absent in source" as nothing-to-preserve.
type Snapshot struct {
	SourceID    string          `json:"source_id"`
	Filename    string          `json:"filename"`
	Albums      []string        `json:"albums,omitempty"` // membership set, order irrelevant
	Favorite    bool            `json:"favorite"`
	Hidden      bool            `json:"hidden"`
	CreatedAt   *time.Time      `json:"created_at,omitempty"`
	ModifiedAt  *time.Time      `json:"modified_at,omitempty"`
	GPS         *gps.Coordinate `json:"gps,omitempty"`
	Description string          `json:"description,omitempty"`
	Title       string          `json:"title,omitempty"`
	Keywords    []string        `json:"keywords,omitempty"`
}

// Capture builds a snapshot from the extractor record plus the raw tag map
// extracted from the file itself. The record wins for library-level fields
// (albums, flags); the tag map fills in embedded fields (dates, GPS,
// description).
func Capture(info PhotosVideoInfo, tags TagMap) Snapshot {
	snap := Snapshot{
		SourceID: info.UUID,
		Filename: info.Filename,
		Albums:   append([]string(nil), info.Albums...),
		Favorite: info.Favorite,
		Hidden:   info.Hidden,
	}

	if info.Date != nil {
		d := *info.Date
		snap.CreatedAt = &d
	} else if v, ok := tags.Lookup("CreateDate"); ok {
		if ts, ok := ParseDate(v); ok {
			snap.CreatedAt = &ts
		}
	}
	if v, ok := tags.Lookup("ModifyDate"); ok {
		if ts, ok := ParseDate(v); ok {
			snap.ModifiedAt = &ts
		}
	}

	if info.Latitude != nil && info.Longitude != nil {
		if c, err := gps.New(*info.Latitude, *info.Longitude); err == nil {
			c.Source = gps.FormatKeys
			snap.GPS = &c
		}
	} else {
		snap.GPS = ResolveGPS(tags)
	}

	if v, ok := tags.Lookup("Description"); ok {
		snap.Description = v
	}
	if v, ok := tags.Lookup("Title"); ok {
		snap.Title = v
	}
	if v, ok := tags.Lookup("Keywords"); ok && v != "" {
		snap.Keywords = splitKeywords(v)
	}
	return snap
}

// HasAlbum reports membership ignoring order.
func (s Snapshot) HasAlbum(name string) bool {
	for _, a := range s.Albums {
		if a == name {
			return true
		}
	}
	return false
}

func splitKeywords(s string) []string {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ';' })
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
