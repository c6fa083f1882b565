package worker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ah-its-andy/vid2hevc/internal/config"
	"github.com/ah-its-andy/vid2hevc/internal/converter"
	"github.com/ah-its-andy/vid2hevc/internal/db"
	"github.com/ah-its-andy/vid2hevc/internal/metadata"
	"github.com/ah-its-andy/vid2hevc/internal/session"
	"github.com/ah-its-andy/vid2hevc/internal/utils"
	"github.com/ah-its-andy/vid2hevc/internal/verify"
)

// ErrAlreadyHEVC marks sources whose video stream is already H.265; the pool
// records these as skipped rather than failed.
var ErrAlreadyHEVC = errors.New("source is already HEVC")

// Driver runs one end-to-end conversion: stability wait, converter lookup,
// re-encode, then metadata verification of the output against the source.
type Driver struct {
	cfg      *config.Config
	exif     *metadata.ExifTool
	engine   *verify.Engine
	sessions *session.Manager // may be nil when running without sessions
}

func NewDriver(cfg *config.Config, sessions *session.Manager) *Driver {
	return &Driver{
		cfg:      cfg,
		exif:     metadata.NewExifTool(),
		engine:   verify.NewEngine(verify.Preset(cfg.TolerancePreset)),
		sessions: sessions,
	}
}

// Convert processes one indexed file. The verify result is nil when
// verification is disabled or the metadata could not be extracted.
func (d *Driver) Convert(ctx context.Context, rec *db.FileIndex) (converter.Result, *verify.Result, string, error) {
	var logBuf bytes.Buffer
	src := rec.FilePath

	if !utils.IsVideo(src) {
		return converter.Result{}, nil, "", fmt.Errorf("not a video file: %s", src)
	}
	if err := utils.WaitFileStable(src, d.cfg.StabilityDelay); err != nil {
		return converter.Result{}, nil, "", fmt.Errorf("file not stable: %w", err)
	}

	if already, err := converter.IsHEVC(ctx, src); err == nil && already {
		return converter.Result{}, nil, "", fmt.Errorf("%w: %s", ErrAlreadyHEVC, src)
	}
	conv, err := converter.FindConverter(src, rec.SourceCodec)
	if err != nil {
		return converter.Result{}, nil, "", err
	}
	if secs, err := converter.DurationSeconds(ctx, src); err == nil {
		fmt.Fprintf(&logBuf, "source duration: %.1fs\n", secs)
	}

	var originalTags metadata.TagMap
	if d.cfg.VerifyMetadata {
		originalTags, err = d.exif.Extract(ctx, src)
		if err != nil {
			logBuf.WriteString("metadata extraction of source failed: " + err.Error() + "\n")
		}
	}

	outPath := session.DeriveOutputPath(src, d.cfg.OutputDir, d.cfg.OutputSuffix)
	opts := converter.ConvertOptions{
		CRF:              d.cfg.CRF,
		Preset:           d.cfg.Preset,
		PreserveMetadata: d.cfg.PreserveMetadata,
		TempDir:          os.TempDir(),
		Timeout:          2 * time.Hour,
	}
	if d.sessions != nil {
		opts.OnTempFile = d.sessions.RegisterTempFile
	}

	result, err := conv.Convert(ctx, src, outPath, opts)
	result.ConversionLog = logBuf.String() + result.ConversionLog
	if err != nil {
		return result, nil, outPath, err
	}
	// the converter may have landed elsewhere, e.g. a timestamped name on
	// collision; everything downstream must track the real file
	if result.OutputPath != "" {
		outPath = result.OutputPath
	}

	var vres *verify.Result
	if d.cfg.VerifyMetadata && originalTags != nil {
		convertedTags, err := d.exif.Extract(ctx, outPath)
		if err != nil {
			result.ConversionLog += "metadata extraction of output failed: " + err.Error() + "\n"
		} else {
			r := d.engine.Verify(src, outPath, originalTags, convertedTags)
			vres = &r
		}
	}
	return result, vres, outPath, nil
}
