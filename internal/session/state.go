package session

import (
	"path/filepath"
	"strings"
	"time"
)

// Status is the lifecycle state of a conversion session.
type Status string

const (
	StatusActive      Status = "active"
	StatusPaused      Status = "paused"
	StatusInterrupted Status = "interrupted"
	StatusCompleted   Status = "completed"
	StatusCancelled   Status = "cancelled"
)

// Resumable reports whether a session in this status can be resumed.
// Paused and interrupted are the only resumable states.
func (s Status) Resumable() bool {
	return s == StatusPaused || s == StatusInterrupted
}

// Terminal reports whether the session has ended for good.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// VideoStatus is the per-entry conversion state.
type VideoStatus string

const (
	VideoPending    VideoStatus = "pending"
	VideoInProgress VideoStatus = "in_progress"
	VideoCompleted  VideoStatus = "completed"
	VideoSkipped    VideoStatus = "skipped"
	VideoFailed     VideoStatus = "failed"
)

// VideoEntry tracks one input file through the batch. Entries are created
// pending at session creation and move between the session's three lists;
// they are never created or destroyed afterwards.
type VideoEntry struct {
	SourcePath    string      `json:"source_path"`
	OutputPath    string      `json:"output_path"`
	Status        VideoStatus `json:"status"`
	Error         string      `json:"error,omitempty"`
	OriginalSize  int64       `json:"original_size"`
	ConvertedSize int64       `json:"converted_size"`
}

// ConfigSnapshot freezes the conversion settings a session was started with
// so a resume after restart runs with identical parameters.
type ConfigSnapshot struct {
	Mode             string `json:"mode,omitempty"`
	Quality          int    `json:"quality"`
	Preset           string `json:"preset,omitempty"`
	OutputSuffix     string `json:"output_suffix"`
	PreserveMetadata bool   `json:"preserve_metadata"`
	Verify           bool   `json:"verify"`
}

// State is one batch conversion run. It owns its entry lists exclusively;
// callers go through the Manager for every mutation.
type State struct {
	ID           string         `json:"session_id"`
	Status       Status         `json:"status"`
	StartedAt    time.Time      `json:"started_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	CurrentIndex int            `json:"current_index"`
	TotalVideos  int            `json:"total_videos"`
	Pending      []VideoEntry   `json:"pending"`
	Completed    []VideoEntry   `json:"completed"`
	Failed       []VideoEntry   `json:"failed"`
	TempFiles    []string       `json:"temp_files,omitempty"`
	OutputDir    string         `json:"output_dir,omitempty"`
	Config       ConfigSnapshot `json:"config"`
}

// resetInProgress demotes entries claimed by a run that never finished them
// back to pending so a resumed run retries them. Returns the number demoted.
func (s *State) resetInProgress() int {
	n := 0
	for i := range s.Pending {
		if s.Pending[i].Status == VideoInProgress {
			s.Pending[i].Status = VideoPending
			n++
		}
	}
	return n
}

// Progress is the fraction of entries that have reached a terminal state.
func (s *State) Progress() float64 {
	if s.TotalVideos == 0 {
		return 0
	}
	return float64(len(s.Completed)+len(s.Failed)) / float64(s.TotalVideos)
}

// DefaultOutputSuffix is inserted before the extension of derived output
// paths when the config does not override it.
const DefaultOutputSuffix = "_h265"

// DeriveOutputPath builds the converted file's path: suffix before the
// extension, container forced to .mp4, optionally relocated to outDir.
func DeriveOutputPath(sourcePath, outDir, suffix string) string {
	if suffix == "" {
		suffix = DefaultOutputSuffix
	}
	base := filepath.Base(sourcePath)
	name := strings.TrimSuffix(base, filepath.Ext(base)) + suffix + ".mp4"
	dir := filepath.Dir(sourcePath)
	if outDir != "" {
		dir = outDir
	}
	return filepath.Join(dir, name)
}
