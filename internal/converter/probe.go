package converter

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// VideoCodec extracts the first video stream's codec name using ffprobe.
func VideoCodec(ctx context.Context, path string) (string, error) {
	cmd := exec.CommandContext(ctx, "ffprobe", "-v", "error", "-select_streams", "v:0",
		"-show_entries", "stream=codec_name", "-of", "default=noprint_wrappers=1:nokey=1", path)
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("failed to probe codec: %w", err)
	}
	codec := strings.TrimSpace(string(output))
	if codec == "" {
		return "", fmt.Errorf("could not detect video codec for %s", path)
	}
	return codec, nil
}

// DurationSeconds extracts the container duration using ffprobe.
func DurationSeconds(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, "ffprobe", "-v", "error", "-show_entries",
		"format=duration", "-of", "default=noprint_wrappers=1:nokey=1", path)
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("failed to probe duration: %w", err)
	}
	secs, err := strconv.ParseFloat(strings.TrimSpace(string(output)), 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse duration: %w", err)
	}
	return secs, nil
}

// IsHEVC reports whether the file's video stream is already H.265.
func IsHEVC(ctx context.Context, path string) (bool, error) {
	codec, err := VideoCodec(ctx, path)
	if err != nil {
		return false, err
	}
	return codec == "hevc" || codec == "h265", nil
}
