package api

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/ah-its-andy/vid2hevc/internal/config"
	"github.com/ah-its-andy/vid2hevc/internal/converter"
	"github.com/ah-its-andy/vid2hevc/internal/db"
	"github.com/ah-its-andy/vid2hevc/internal/livelog"
	"github.com/ah-its-andy/vid2hevc/internal/session"
	"github.com/ah-its-andy/vid2hevc/internal/utils"
	"github.com/ah-its-andy/vid2hevc/internal/watcher"
	"github.com/ah-its-andy/vid2hevc/internal/worker"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Server struct {
	Router   *gin.Engine
	cfg      *config.Config
	db       *gorm.DB
	queue    *worker.Queue
	watch    *watcher.Watcher
	sessions *session.Manager
	live     *livelog.Manager

	jobsMu sync.Mutex
	jobs   map[string]*RebuildJob
}

type RebuildJob struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"` // pending/running/done
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
	Total     int       `json:"total"`
	Indexed   int       `json:"indexed"`
}

func NewServer(cfg *config.Config, dbConn *gorm.DB, q *worker.Queue, w *watcher.Watcher, sm *session.Manager, live *livelog.Manager) *Server {
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	g := gin.Default()
	s := &Server{Router: g, cfg: cfg, db: dbConn, queue: q, watch: w, sessions: sm, live: live, jobs: map[string]*RebuildJob{}}

	api := g.Group("/api")
	api.GET("/files", s.listFiles)
	api.GET("/files/:id", s.getFile)
	api.GET("/tasks", s.listTasks)
	api.GET("/stats", s.getStats)
	api.GET("/converters", s.listConverters)
	api.GET("/livelogs", s.listLiveLogs)
	api.POST("/rebuild-index", s.rebuildIndex)
	api.GET("/rebuild-status/:id", s.rebuildStatus)
	api.POST("/scan-now", s.scanNow)

	sess := api.Group("/session")
	sess.GET("/status", s.sessionStatus)
	sess.GET("/resumable", s.resumableSessions)
	sess.POST("/pause", s.pauseSession)
	sess.POST("/resume", s.resumeSession)
	sess.POST("/cancel", s.cancelSession)

	return s
}

func (s *Server) listFiles(c *gin.Context) {
	q := s.db.Model(&db.FileIndex{})
	if st := c.Query("status"); st != "" {
		q = q.Where("status = ?", st)
	}
	limit := parseIntDefault(c.Query("limit"), 50)
	offset := parseIntDefault(c.Query("offset"), 0)
	var rows []db.FileIndex
	var count int64
	q.Count(&count)
	q.Order("updated_at desc").Limit(limit).Offset(offset).Find(&rows)
	c.JSON(http.StatusOK, gin.H{"data": rows, "total": count})
}

func (s *Server) getFile(c *gin.Context) {
	id := c.Param("id")
	var row db.FileIndex
	if err := s.db.First(&row, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, row)
}

func (s *Server) listTasks(c *gin.Context) {
	limit := parseIntDefault(c.Query("limit"), 100)
	q := s.db.Order("end_time desc").Limit(limit)
	if sid := c.Query("session"); sid != "" {
		q = q.Where("session_id = ?", sid)
	}
	var rows []db.TaskHistory
	q.Find(&rows)
	c.JSON(http.StatusOK, rows)
}

func (s *Server) getStats(c *gin.Context) {
	stats, err := db.GetStats(s.db)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	state := "running"
	if s.watch.Paused() {
		state = "paused"
	}
	c.JSON(http.StatusOK, gin.H{
		"files":         stats,
		"queue_len":     s.queue.Len(),
		"watcher_state": state,
	})
}

func (s *Server) listConverters(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": converter.ListInfo()})
}

func (s *Server) listLiveLogs(c *gin.Context) {
	c.JSON(http.StatusOK, s.live.GetAllActiveLogs())
}

func (s *Server) rebuildIndex(c *gin.Context) {
	job := &RebuildJob{ID: uuid.NewString(), Status: "running", StartedAt: time.Now()}
	s.jobsMu.Lock()
	s.jobs[job.ID] = job
	s.jobsMu.Unlock()
	go s.runRebuild(job)
	c.JSON(http.StatusOK, gin.H{"job_id": job.ID})
}

func (s *Server) runRebuild(job *RebuildJob) {
	s.watch.Pause()
	defer s.watch.Resume()
	_ = db.WipeIndexes(s.db)
	for _, root := range s.cfg.WatchDirs {
		filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if d.IsDir() || !utils.IsVideo(path) {
				return nil
			}
			job.Total++
			md5, err := utils.MD5File(path, s.cfg.MD5ChunkSize)
			if err == nil {
				if rec, changed, err := db.UpsertIndex(s.db, path, md5); err == nil {
					if changed {
						s.queue.Enqueue(rec.ID)
					}
					job.Indexed++
				}
			}
			return nil
		})
	}
	job.Status = "done"
	job.EndedAt = time.Now()
}

func (s *Server) rebuildStatus(c *gin.Context) {
	id := c.Param("id")
	s.jobsMu.Lock()
	job, ok := s.jobs[id]
	s.jobsMu.Unlock()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, job)
}

func (s *Server) scanNow(c *gin.Context) {
	go s.watch.ScanAll(context.Background())
	c.JSON(http.StatusOK, gin.H{"started": true})
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}
