package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
)

// ExtractionError wraps a failure of the external extraction tool for one
// file. Callers distinguish it from plain I/O errors with errors.As.
type ExtractionError struct {
	Path string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("metadata extraction failed for %s: %v", e.Path, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Processor extracts and writes metadata tags on media files.
type Processor interface {
	Extract(ctx context.Context, path string) (TagMap, error)
	SetTag(ctx context.Context, path, tag, value string) error
}

// ExifTool drives the exiftool binary, the same tool the converter uses for
// whole-file metadata copies. A goexif in-process reader fills in basic EXIF
// fields when exiftool is unavailable.
type ExifTool struct {
	Binary string // defaults to "exiftool"
}

func NewExifTool() *ExifTool {
	return &ExifTool{Binary: "exiftool"}
}

// Extract returns all tags of the file with group-prefixed keys
// ("QuickTime:CreateDate"). The file not existing at all is an error; an
// extraction-tool failure is reported as *ExtractionError.
func (p *ExifTool) Extract(ctx context.Context, path string) (TagMap, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}

	if _, err := exec.LookPath(p.binary()); err != nil {
		return p.extractFallback(path)
	}

	cmd := exec.CommandContext(ctx, p.binary(), "-j", "-G", "-n", path)
	output, err := cmd.Output()
	if err != nil {
		return nil, &ExtractionError{Path: path, Err: err}
	}

	var docs []map[string]any
	if err := json.Unmarshal(output, &docs); err != nil {
		return nil, &ExtractionError{Path: path, Err: err}
	}
	if len(docs) == 0 {
		return TagMap{}, nil
	}

	tags := make(TagMap, len(docs[0]))
	for k, v := range docs[0] {
		tags[k] = stringifyTag(v)
	}
	return tags, nil
}

// SetTag writes one tag in place.
func (p *ExifTool) SetTag(ctx context.Context, path, tag, value string) error {
	cmd := exec.CommandContext(ctx, p.binary(), "-overwrite_original", fmt.Sprintf("-%s=%s", tag, value), path)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("exiftool set %s failed: %w, output: %s", tag, err, string(output))
	}
	return nil
}

// CopyAll copies every tag from src onto dst, the bulk path the converter
// uses after encoding.
func (p *ExifTool) CopyAll(ctx context.Context, src, dst string) error {
	cmd := exec.CommandContext(ctx, p.binary(), "-overwrite_original", "-TagsFromFile", src, "-all:all", dst)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("exiftool copy failed: %w, output: %s", err, string(output))
	}
	return nil
}

func (p *ExifTool) binary() string {
	if p.Binary != "" {
		return p.Binary
	}
	return "exiftool"
}

// extractFallback reads what goexif can decode in-process: the capture date
// and EXIF GPS. Container-level video tags are unavailable on this path.
func (p *ExifTool) extractFallback(path string) (TagMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return nil, &ExtractionError{Path: path, Err: err}
	}

	tags := TagMap{}
	if dt, err := x.DateTime(); err == nil {
		tags["EXIF:DateTimeOriginal"] = dt.Format("2006:01:02 15:04:05")
		tags["EXIF:CreateDate"] = dt.Format("2006:01:02 15:04:05")
	}
	if lat, lon, err := x.LatLong(); err == nil {
		tags["EXIF:GPSLatitude"] = fmt.Sprintf("%.6f", lat)
		tags["EXIF:GPSLongitude"] = fmt.Sprintf("%.6f", lon)
	}
	for _, name := range []string{"Make", "Model", "Software"} {
		if tag, err := x.Get(exif.FieldName(name)); err == nil {
			if v, err := tag.StringVal(); err == nil {
				tags["EXIF:"+name] = v
			}
		}
	}
	return tags, nil
}

func stringifyTag(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			parts = append(parts, stringifyTag(item))
		}
		return strings.Join(parts, ", ")
	case float64:
		// exiftool -n emits all numerics as JSON numbers; keep integers clean
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%g", val)
	default:
		return fmt.Sprint(v)
	}
}
