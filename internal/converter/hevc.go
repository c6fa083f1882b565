package converter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/ah-its-andy/vid2hevc/internal/utils"
)

// HEVCConverter re-encodes H.264 video to H.265 via ffmpeg, keeping the
// audio streams untouched and copying container metadata through.
type HEVCConverter struct{}

func NewHEVCConverter() *HEVCConverter {
	return &HEVCConverter{}
}

func (c *HEVCConverter) Name() string {
	return "h264tohevc"
}

func (c *HEVCConverter) TargetFormat() string {
	return "mp4"
}

// CanConvert accepts video files whose codec is H.264. When the codec is not
// supplied it is probed, and probe failures disqualify the file rather than
// erroring.
func (c *HEVCConverter) CanConvert(srcPath string, codec string) bool {
	if !utils.IsVideo(srcPath) {
		return false
	}
	if codec == "" {
		probed, err := VideoCodec(context.Background(), srcPath)
		if err != nil {
			return false
		}
		codec = probed
	}
	return strings.EqualFold(codec, "h264")
}

func (c *HEVCConverter) Convert(ctx context.Context, srcPath string, dstPath string, opts ConvertOptions) (Result, error) {
	start := time.Now()
	var logBuf bytes.Buffer
	result := Result{}
	defer func() {
		fmt.Fprintf(&logBuf, "duration=%s\n", time.Since(start))
		result.ConversionLog = logBuf.String()
	}()

	if err := checkExternalTools(); err != nil {
		return result, fmt.Errorf("external tools check failed: %w", err)
	}

	codec, err := VideoCodec(ctx, srcPath)
	if err != nil {
		return result, err
	}
	result.SourceCodec = codec
	result.OriginalSize = utils.FileSize(srcPath)

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	if err := os.MkdirAll(filepath.Dir(dstPath), 0o755); err != nil {
		return result, fmt.Errorf("failed to create destination directory: %w", err)
	}

	tmpDir := opts.TempDir
	if tmpDir == "" {
		tmpDir = os.TempDir()
	}
	tmpPath := filepath.Join(tmpDir, fmt.Sprintf("vid2hevc_%d.mp4", time.Now().UnixNano()))
	if opts.OnTempFile != nil {
		opts.OnTempFile(tmpPath)
	}
	defer os.Remove(tmpPath)

	crf := opts.CRF
	if crf <= 0 || crf > 51 {
		crf = 23
	}
	preset := opts.Preset
	if preset == "" {
		preset = "medium"
	}

	args := []string{
		"-y", "-i", srcPath,
		"-c:v", "libx265", "-crf", fmt.Sprintf("%d", crf), "-preset", preset,
		"-tag:v", "hvc1",
		"-c:a", "copy",
		"-map_metadata", "0", "-movflags", "use_metadata_tags",
	}
	args = append(args, opts.ExtraArgs...)
	args = append(args, tmpPath)

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	cmd.Stdout = &logBuf
	cmd.Stderr = &logBuf
	if err := cmd.Run(); err != nil {
		return result, fmt.Errorf("ffmpeg failed: %w", err)
	}
	if _, err := os.Stat(tmpPath); err != nil {
		return result, fmt.Errorf("ffmpeg did not create output file: %w", err)
	}

	// ffmpeg only maps container-level tags; exiftool carries the rest
	// (GPS, camera, XMP) across
	if opts.PreserveMetadata {
		exifCmd := exec.CommandContext(ctx, "exiftool", "-overwrite_original", "-TagsFromFile", srcPath, "-all:all", tmpPath)
		exifCmd.Stdout = &logBuf
		exifCmd.Stderr = &logBuf
		if err := exifCmd.Run(); err != nil {
			logBuf.WriteString("exiftool metadata copy failed: " + err.Error() + "\n")
			result.MetadataSummary = "metadata copy failed"
		} else {
			result.MetadataPreserved = true
			result.MetadataSummary = "full metadata copied via exiftool"
		}
	} else {
		result.MetadataSummary = "metadata preservation disabled"
	}

	finalPath := dstPath
	if _, err := os.Stat(finalPath); err == nil {
		// exists; add a timestamp instead of overwriting
		ts := time.Now().Format("20060102T150405")
		base := strings.TrimSuffix(filepath.Base(finalPath), filepath.Ext(finalPath))
		finalPath = filepath.Join(filepath.Dir(finalPath), fmt.Sprintf("%s_%s.mp4", base, ts))
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		// cross-device moves cannot rename
		if err := copyFile(tmpPath, finalPath); err != nil {
			return result, fmt.Errorf("failed to move output to destination: %w", err)
		}
	}
	result.OutputPath = finalPath
	result.ConvertedSize = utils.FileSize(finalPath)

	fmt.Fprintf(&logBuf, "converted %s -> %s (%d -> %d bytes)\n", srcPath, finalPath, result.OriginalSize, result.ConvertedSize)
	return result, nil
}

// copyFile streams src to dst and syncs; used when rename crosses devices.
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}
	return destFile.Sync()
}

// checkExternalTools verifies that required external tools are available
func checkExternalTools() error {
	for _, tool := range []string{"ffmpeg", "ffprobe", "exiftool"} {
		if _, err := exec.LookPath(tool); err != nil {
			return fmt.Errorf("required tool not found: %s", tool)
		}
	}
	return nil
}
