package db

import (
	"errors"
	"fmt"
	"time"

	"github.com/ah-its-andy/vid2hevc/internal/config"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Init opens the sqlite database and migrates the schema.
func Init(cfg *config.Config) (*gorm.DB, error) {
	conn, err := gorm.Open(sqlite.Open(cfg.DBPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	// sqlite supports a single writer
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := conn.AutoMigrate(&FileIndex{}, &TaskHistory{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return conn, nil
}

// UpsertIndex inserts or refreshes the index row for a file. changed reports
// whether the file is new or its content hash moved, i.e. it needs
// conversion.
func UpsertIndex(conn *gorm.DB, filePath, md5 string) (*FileIndex, bool, error) {
	var rec FileIndex
	err := conn.Where("file_path = ?", filePath).First(&rec).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		rec = FileIndex{FilePath: filePath, FileMD5: md5, Status: StatusPending}
		if err := conn.Create(&rec).Error; err != nil {
			return nil, false, err
		}
		return &rec, true, nil
	case err != nil:
		return nil, false, err
	}

	if rec.FileMD5 == md5 && rec.Status == StatusSuccess {
		return &rec, false, nil
	}
	changed := rec.FileMD5 != md5 || rec.Status == StatusFailed || rec.Status == StatusPending
	rec.FileMD5 = md5
	if changed {
		rec.Status = StatusPending
	}
	if err := conn.Save(&rec).Error; err != nil {
		return nil, false, err
	}
	return &rec, changed, nil
}

// SetStatus updates a row's status and optional error message.
func SetStatus(conn *gorm.DB, id uint, status Status, lastErr *string) error {
	updates := map[string]any{"status": status, "last_error": lastErr}
	return conn.Model(&FileIndex{}).Where("id = ?", id).Updates(updates).Error
}

// UpdateAfterSuccess records the conversion outcome on the index row.
func UpdateAfterSuccess(conn *gorm.DB, id uint, rec *FileIndex) error {
	return conn.Model(&FileIndex{}).Where("id = ?", id).Updates(map[string]any{
		"status":             StatusSuccess,
		"last_error":         nil,
		"source_codec":       rec.SourceCodec,
		"output_path":        rec.OutputPath,
		"original_size":      rec.OriginalSize,
		"converted_size":     rec.ConvertedSize,
		"metadata_preserved": rec.MetadataPreserved,
		"metadata_summary":   rec.MetadataSummary,
	}).Error
}

// InsertTaskHistory appends a conversion attempt record.
func InsertTaskHistory(conn *gorm.DB, h *TaskHistory) error {
	return conn.Create(h).Error
}

// WipeIndexes clears the file index; used by full rebuilds.
func WipeIndexes(conn *gorm.DB) error {
	return conn.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&FileIndex{}).Error
}

// Stats aggregates index counts for the API.
type Stats struct {
	Total     int64 `json:"total"`
	Success   int64 `json:"success"`
	Failed    int64 `json:"failed"`
	Pending   int64 `json:"pending"`
	Preserved int64 `json:"preserved"`
	SavedByte int64 `json:"saved_bytes"`
}

// GetStats computes aggregate conversion statistics.
func GetStats(conn *gorm.DB) (*Stats, error) {
	s := &Stats{}
	if err := conn.Model(&FileIndex{}).Count(&s.Total).Error; err != nil {
		return nil, err
	}
	conn.Model(&FileIndex{}).Where("status = ?", StatusSuccess).Count(&s.Success)
	conn.Model(&FileIndex{}).Where("status = ?", StatusFailed).Count(&s.Failed)
	conn.Model(&FileIndex{}).Where("status = ?", StatusPending).Count(&s.Pending)
	conn.Model(&FileIndex{}).Where("status = ? AND metadata_preserved = ?", StatusSuccess, true).Count(&s.Preserved)

	type sums struct{ Orig, Conv int64 }
	var row sums
	conn.Model(&FileIndex{}).Where("status = ?", StatusSuccess).
		Select("COALESCE(SUM(original_size),0) as orig, COALESCE(SUM(converted_size),0) as conv").
		Scan(&row)
	s.SavedByte = row.Orig - row.Conv
	return s, nil
}
