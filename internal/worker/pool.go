package worker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ah-its-andy/vid2hevc/internal/config"
	"github.com/ah-its-andy/vid2hevc/internal/db"
	"github.com/ah-its-andy/vid2hevc/internal/livelog"
	"github.com/ah-its-andy/vid2hevc/internal/session"
	"gorm.io/gorm"
)

type Pool struct {
	cfg      *config.Config
	db       *gorm.DB
	queue    *Queue
	driver   *Driver
	sessions *session.Manager // may be nil
	live     *livelog.Manager
	wg       sync.WaitGroup
}

func NewPool(cfg *config.Config, dbConn *gorm.DB, q *Queue, driver *Driver, sessions *session.Manager, live *livelog.Manager) *Pool {
	return &Pool{cfg: cfg, db: dbConn, queue: q, driver: driver, sessions: sessions, live: live}
}

func (p *Pool) Run(ctx context.Context) {
	for i := 0; i < p.cfg.MaxWorkers; i++ {
		p.wg.Add(1)
		go p.worker(ctx)
	}
}

func (p *Pool) worker(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case id := <-p.queue.Chan():
			p.handle(ctx, id)
		}
	}
}

func (p *Pool) handle(ctx context.Context, id uint) {
	defer p.queue.Dequeued(id)
	var rec db.FileIndex
	if err := p.db.First(&rec, id).Error; err != nil {
		log.Printf("worker: load file %d: %v", id, err)
		return
	}
	if err := db.SetStatus(p.db, rec.ID, db.StatusProcessing, nil); err != nil {
		log.Printf("worker: set processing: %v", err)
	}
	p.live.StartTask(rec.FilePath)
	defer p.live.EndTask(rec.FilePath)

	start := time.Now()
	result, vres, outPath, err := p.driver.Convert(ctx, &rec)
	p.live.AppendLog(rec.FilePath, result.ConversionLog)

	status := db.StatusSuccess
	var lastErr *string
	switch {
	case errors.Is(err, ErrAlreadyHEVC):
		status = db.StatusSkipped
		e := err.Error()
		lastErr = &e
	case err != nil:
		status = db.StatusFailed
		e := err.Error()
		lastErr = &e
		log.Printf("convert failed for %s: %v", rec.FilePath, err)
	}

	if status == db.StatusSuccess {
		rec.SourceCodec = result.SourceCodec
		rec.OutputPath = outPath
		rec.OriginalSize = result.OriginalSize
		rec.ConvertedSize = result.ConvertedSize
		rec.MetadataPreserved = result.MetadataPreserved
		rec.MetadataSummary = result.MetadataSummary
		if err := db.UpdateAfterSuccess(p.db, rec.ID, &rec); err != nil {
			log.Printf("update after success failed: %v", err)
		}
	} else {
		if err := db.SetStatus(p.db, rec.ID, status, lastErr); err != nil {
			log.Printf("set failed status failed: %v", err)
		}
	}

	sessionID := ""
	if p.sessions != nil {
		if cur, ok := p.sessions.CurrentSession(); ok {
			sessionID = cur.ID
			if sessionHasPending(cur, rec.FilePath) {
				var sessErr error
				switch status {
				case db.StatusSuccess:
					sessErr = p.sessions.MarkVideoCompleted(rec.FilePath, result.OriginalSize, result.ConvertedSize)
				case db.StatusSkipped:
					sessErr = p.sessions.MarkVideoSkipped(rec.FilePath, lastErrString(lastErr))
				default:
					sessErr = p.sessions.MarkVideoFailed(rec.FilePath, lastErrString(lastErr))
				}
				if sessErr != nil {
					log.Printf("session update failed for %s: %v", rec.FilePath, sessErr)
				}
			}
		}
	}

	h := &db.TaskHistory{
		FileIndexID: rec.ID,
		SessionID:   sessionID,
		Action:      "convert",
		Status:      string(status),
		StartTime:   start,
		EndTime:     time.Now(),
		DurationMs:  time.Since(start).Milliseconds(),
		Log:         fmt.Sprintf("%s\nsummary: %s", result.ConversionLog, result.MetadataSummary),
	}
	if vres != nil {
		h.VerifyPassed = vres.Passed
		h.VerifyChecks = len(vres.Checks)
		h.VerifyFailures = len(vres.Failed())
		h.VerifySummary = vres.Summary()
	}
	if err := db.InsertTaskHistory(p.db, h); err != nil {
		log.Printf("insert task history failed: %v", err)
	}
}

// Drain waits for in-flight conversions to finish after the context driving
// Run has been cancelled.
func (p *Pool) Drain() {
	p.wg.Wait()
}

func sessionHasPending(s session.State, path string) bool {
	for _, e := range s.Pending {
		if e.SourcePath == path {
			return true
		}
	}
	return false
}

func lastErrString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
