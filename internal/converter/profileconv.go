package converter

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/ah-its-andy/vid2hevc/internal/profile"
	"github.com/ah-its-andy/vid2hevc/internal/utils"
)

// ProfileConverter adapts a YAML encoding profile into a Converter. It
// reuses the ffmpeg pipeline of HEVCConverter but scopes itself by the
// profile's extensions and source codec, and folds the profile's encoding
// parameters into the conversion options.
type ProfileConverter struct {
	spec  *profile.Spec
	inner *HEVCConverter
}

func NewProfileConverter(spec *profile.Spec) *ProfileConverter {
	return &ProfileConverter{spec: spec, inner: NewHEVCConverter()}
}

func (c *ProfileConverter) Name() string {
	return c.spec.Name
}

func (c *ProfileConverter) TargetFormat() string {
	if c.spec.Target != "" {
		return c.spec.Target
	}
	return "mp4"
}

func (c *ProfileConverter) CanConvert(srcPath string, codec string) bool {
	if len(c.spec.Extensions) > 0 {
		ext := strings.ToLower(filepath.Ext(srcPath))
		found := false
		for _, e := range c.spec.Extensions {
			if strings.ToLower(e) == ext {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	} else if !utils.IsVideo(srcPath) {
		return false
	}

	want := c.spec.SourceCodec
	if want == "" {
		want = "h264"
	}
	if codec == "" {
		probed, err := VideoCodec(context.Background(), srcPath)
		if err != nil {
			return false
		}
		codec = probed
	}
	return strings.EqualFold(codec, want)
}

func (c *ProfileConverter) Convert(ctx context.Context, srcPath string, dstPath string, opts ConvertOptions) (Result, error) {
	if c.spec.CRF > 0 {
		opts.CRF = c.spec.CRF
	}
	if c.spec.Preset != "" {
		opts.Preset = c.spec.Preset
	}
	if len(c.spec.ExtraArgs) > 0 {
		opts.ExtraArgs = append(append([]string{}, opts.ExtraArgs...), c.spec.ExtraArgs...)
	}
	if c.spec.Timeout > 0 && opts.Timeout == 0 {
		opts.Timeout = time.Duration(c.spec.Timeout) * time.Second
	}
	return c.inner.Convert(ctx, srcPath, dstPath, opts)
}
