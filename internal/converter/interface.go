package converter

import (
	"context"
	"time"
)

// ConvertOptions holds configuration for a conversion operation
type ConvertOptions struct {
	CRF              int           // x265 constant rate factor (0-51)
	Preset           string        // x265 encoding preset
	PreserveMetadata bool          // copy all tags from source to output
	TempDir          string        // temporary directory for intermediate files
	Timeout          time.Duration // conversion timeout
	ExtraArgs        []string      // converter-specific ffmpeg arguments
	OnTempFile       func(string)  // invoked for every intermediate file created
}

// Result reports one completed conversion.
type Result struct {
	SourceCodec       string // codec detected in the source
	OutputPath        string // where the output actually landed; may differ from dstPath on collision
	OriginalSize      int64
	ConvertedSize     int64
	MetadataPreserved bool   // whether the bulk metadata copy succeeded
	MetadataSummary   string // human-readable summary of preserved metadata
	ConversionLog     string // detailed conversion log
}

// Converter defines the interface for video format converters
type Converter interface {
	// Name returns the unique name of this converter
	Name() string

	// CanConvert checks if this converter can handle the given source file.
	// codec may be empty, in which case the converter probes the file itself.
	CanConvert(srcPath string, codec string) bool

	// TargetFormat returns the file extension of the output format (without dot)
	TargetFormat() string

	// Convert performs the conversion from srcPath to dstPath.
	// It should:
	// 1. Create a temporary output file
	// 2. Re-encode the video stream
	// 3. Copy metadata from the source
	// 4. Atomically move the temp file to dstPath
	Convert(ctx context.Context, srcPath string, dstPath string, opts ConvertOptions) (Result, error)
}

// Info provides information about a registered converter
type Info struct {
	Name         string `json:"name"`
	TargetFormat string `json:"target_format"`
	Enabled      bool   `json:"enabled"`
}
