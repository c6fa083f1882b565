package db

import (
	"path/filepath"
	"testing"

	"github.com/ah-its-andy/vid2hevc/internal/config"
	"gorm.io/gorm"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	cfg := &config.Config{DBPath: filepath.Join(t.TempDir(), "test.db")}
	conn, err := Init(cfg)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(func() {
		sqlDB, _ := conn.DB()
		_ = sqlDB.Close()
	})
	return conn
}

func TestUpsertIndexLifecycle(t *testing.T) {
	conn := testDB(t)

	rec, changed, err := UpsertIndex(conn, "/videos/clip.mp4", "aaa111")
	if err != nil {
		t.Fatalf("UpsertIndex: %v", err)
	}
	if !changed {
		t.Error("new file should report changed")
	}
	if rec.ID == 0 || rec.Status != StatusPending {
		t.Errorf("rec = %+v", rec)
	}

	// same hash while pending still needs conversion
	_, changed, err = UpsertIndex(conn, "/videos/clip.mp4", "aaa111")
	if err != nil {
		t.Fatal(err)
	}
	if !changed {
		t.Error("pending file should still report changed")
	}

	rec.SourceCodec = "h264"
	rec.OutputPath = "/videos/clip_h265.mp4"
	rec.OriginalSize = 1000
	rec.ConvertedSize = 400
	rec.MetadataPreserved = true
	rec.MetadataSummary = "full metadata copied"
	if err := UpdateAfterSuccess(conn, rec.ID, rec); err != nil {
		t.Fatalf("UpdateAfterSuccess: %v", err)
	}

	// same hash after success: nothing to do
	got, changed, err := UpsertIndex(conn, "/videos/clip.mp4", "aaa111")
	if err != nil {
		t.Fatal(err)
	}
	if changed {
		t.Error("converted file with same hash should not report changed")
	}
	if got.Status != StatusSuccess || got.ConvertedSize != 400 {
		t.Errorf("got = %+v", got)
	}

	// content moved: back to pending
	got, changed, err = UpsertIndex(conn, "/videos/clip.mp4", "bbb222")
	if err != nil {
		t.Fatal(err)
	}
	if !changed || got.Status != StatusPending {
		t.Errorf("changed=%v status=%s", changed, got.Status)
	}
}

func TestSetStatusAndStats(t *testing.T) {
	conn := testDB(t)

	recA, _, _ := UpsertIndex(conn, "/videos/a.mp4", "a")
	recB, _, _ := UpsertIndex(conn, "/videos/b.mp4", "b")

	recA.OriginalSize = 1000
	recA.ConvertedSize = 600
	recA.MetadataPreserved = true
	if err := UpdateAfterSuccess(conn, recA.ID, recA); err != nil {
		t.Fatal(err)
	}
	msg := "encoder error"
	if err := SetStatus(conn, recB.ID, StatusFailed, &msg); err != nil {
		t.Fatal(err)
	}

	stats, err := GetStats(conn)
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if stats.Total != 2 || stats.Success != 1 || stats.Failed != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.Preserved != 1 {
		t.Errorf("preserved = %d", stats.Preserved)
	}
	if stats.SavedByte != 400 {
		t.Errorf("saved bytes = %d", stats.SavedByte)
	}

	var failedRec FileIndex
	if err := conn.First(&failedRec, recB.ID).Error; err != nil {
		t.Fatal(err)
	}
	if failedRec.LastError == nil || *failedRec.LastError != "encoder error" {
		t.Errorf("last error = %v", failedRec.LastError)
	}
}

func TestInsertTaskHistoryWithVerification(t *testing.T) {
	conn := testDB(t)
	rec, _, _ := UpsertIndex(conn, "/videos/a.mp4", "a")

	h := &TaskHistory{
		FileIndexID:    rec.ID,
		SessionID:      "abc12345",
		Action:         "convert",
		Status:         string(StatusSuccess),
		VerifyPassed:   true,
		VerifyChecks:   12,
		VerifyFailures: 0,
		VerifySummary:  "12 checks, 0 failed",
	}
	if err := InsertTaskHistory(conn, h); err != nil {
		t.Fatalf("InsertTaskHistory: %v", err)
	}
	if h.ID == 0 {
		t.Error("history id should be set after insert")
	}

	var rows []TaskHistory
	if err := conn.Where("session_id = ?", "abc12345").Find(&rows).Error; err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || !rows[0].VerifyPassed {
		t.Errorf("rows = %+v", rows)
	}
}
