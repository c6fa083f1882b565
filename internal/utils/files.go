package utils

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

var videoExtensions = map[string]bool{
	".mp4": true,
	".mov": true,
	".m4v": true,
	".avi": true,
	".mkv": true,
	".mts": true,
	".3gp": true,
}

// IsVideo reports whether the path has a recognized video container
// extension.
func IsVideo(path string) bool {
	return videoExtensions[strings.ToLower(filepath.Ext(path))]
}

// WaitFileStable waits for two consecutive identical sizes separated by
// delay, guarding against converting a file that is still being copied in.
func WaitFileStable(path string, delay time.Duration) error {
	var lastSize int64 = -1
	for i := 0; i < 5; i++ { // up to ~5 cycles
		fi, err := os.Stat(path)
		if err != nil {
			return err
		}
		sz := fi.Size()
		if lastSize == sz {
			return nil
		}
		lastSize = sz
		time.Sleep(delay)
	}
	return nil
}

// FileSize returns the file's size in bytes, or 0 when it cannot be stated.
func FileSize(path string) int64 {
	fi, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return fi.Size()
}
