package db

import "time"

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusSuccess    Status = "success"
	StatusFailed     Status = "failed"
	StatusSkipped    Status = "skipped"
)

// FileIndex is one source video known to the converter, deduplicated by MD5.
type FileIndex struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	FilePath          string    `gorm:"uniqueIndex;size:1024" json:"file_path"`
	FileMD5           string    `gorm:"index;size:32" json:"file_md5"`
	Status            Status    `gorm:"index;size:16" json:"status"`
	SourceCodec       string    `gorm:"size:32" json:"source_codec"`
	OutputPath        string    `gorm:"size:1024" json:"output_path"`
	OriginalSize      int64     `json:"original_size"`
	ConvertedSize     int64     `json:"converted_size"`
	MetadataPreserved bool      `json:"metadata_preserved"`
	MetadataSummary   string    `json:"metadata_summary"`
	LastError         *string   `json:"last_error,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// TaskHistory records one conversion attempt, including the verification
// outcome.
type TaskHistory struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	FileIndexID     uint      `gorm:"index" json:"file_index_id"`
	SessionID       string    `gorm:"index;size:16" json:"session_id"`
	Action          string    `gorm:"size:32" json:"action"`
	Status          string    `gorm:"size:16" json:"status"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	DurationMs      int64     `json:"duration_ms"`
	VerifyPassed    bool      `json:"verify_passed"`
	VerifyChecks    int       `json:"verify_checks"`
	VerifyFailures  int       `json:"verify_failures"`
	VerifySummary   string    `json:"verify_summary"`
	Log             string    `json:"log"`
	CreatedAt       time.Time `json:"created_at"`
}
