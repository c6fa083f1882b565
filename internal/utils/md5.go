package utils

import (
	"crypto/md5"
	"encoding/hex"
	"io"
	"os"
)

// MD5File fingerprints a file's content in chunkSize reads. Videos run to
// gigabytes, so the chunk size is configurable rather than slurping.
func MD5File(path string, chunkSize int64) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.CopyBuffer(h, f, make([]byte, chunkSize)); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
