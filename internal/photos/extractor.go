package photos

import (
	"context"
	"os"
	"path/filepath"

	"github.com/ah-its-andy/vid2hevc/internal/metadata"
	"github.com/ah-its-andy/vid2hevc/internal/utils"
	"github.com/google/uuid"
)

// FolderExtractor walks an exported library folder and produces one record
// per video asset. Album membership is modeled from the directory structure:
// a video in <root>/<album>/clip.mov belongs to album "<album>", videos
// directly under the root belong to none.
type FolderExtractor struct {
	root string
	exif *metadata.ExifTool
}

func NewFolderExtractor(root string) *FolderExtractor {
	return &FolderExtractor{root: root, exif: metadata.NewExifTool()}
}

// Extract lists every video under the root.
func (f *FolderExtractor) Extract(ctx context.Context) ([]metadata.PhotosVideoInfo, error) {
	var infos []metadata.PhotosVideoInfo
	err := filepath.WalkDir(f.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || !utils.IsVideo(path) {
			return nil
		}
		infos = append(infos, f.record(ctx, path))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return infos, nil
}

// record builds the extractor record for one file. Tag extraction failures
// leave the embedded fields empty; the record still identifies the asset.
func (f *FolderExtractor) record(ctx context.Context, path string) metadata.PhotosVideoInfo {
	info := metadata.PhotosVideoInfo{
		UUID:     uuid.NewString(),
		Filename: filepath.Base(path),
		Path:     path,
	}
	if album := f.albumFor(path); album != "" {
		info.Albums = []string{album}
	}

	tags, err := f.exif.Extract(ctx, path)
	if err != nil {
		return info
	}
	if v, ok := tags.Lookup("CreateDate"); ok {
		if ts, ok := metadata.ParseDate(v); ok {
			info.Date = &ts
		}
	}
	if c := metadata.ResolveGPS(tags); c != nil {
		lat, lon := c.Latitude, c.Longitude
		info.Latitude = &lat
		info.Longitude = &lon
	}
	return info
}

func (f *FolderExtractor) albumFor(path string) string {
	rel, err := filepath.Rel(f.root, path)
	if err != nil {
		return ""
	}
	dir := filepath.Dir(rel)
	if dir == "." {
		return ""
	}
	// first path element below the root
	for {
		parent := filepath.Dir(dir)
		if parent == "." {
			return dir
		}
		dir = parent
	}
}

// CaptureSnapshot extracts the file's tags and folds them with the record
// into a preservation snapshot.
func (f *FolderExtractor) CaptureSnapshot(ctx context.Context, info metadata.PhotosVideoInfo) (metadata.Snapshot, error) {
	tags, err := f.exif.Extract(ctx, info.Path)
	if err != nil {
		return metadata.Snapshot{}, err
	}
	return metadata.Capture(info, tags), nil
}
