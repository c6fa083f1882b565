package api

import (
	"errors"
	"net/http"

	"github.com/ah-its-andy/vid2hevc/internal/session"
	"github.com/gin-gonic/gin"
)

func (s *Server) sessionStatus(c *gin.Context) {
	report, err := s.sessions.GetSessionStatus()
	if err != nil {
		sessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) resumableSessions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": s.sessions.GetResumableSessions()})
}

func (s *Server) pauseSession(c *gin.Context) {
	if err := s.sessions.PauseSession(); err != nil {
		sessionError(c, err)
		return
	}
	s.watch.Pause()
	c.JSON(http.StatusOK, gin.H{"paused": true})
}

func (s *Server) resumeSession(c *gin.Context) {
	if err := s.sessions.ResumeSession(); err != nil {
		sessionError(c, err)
		return
	}
	s.watch.Resume()
	c.JSON(http.StatusOK, gin.H{"resumed": true})
}

func (s *Server) cancelSession(c *gin.Context) {
	if err := s.sessions.CancelSession(); err != nil {
		sessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cancelled": true})
}

// sessionError maps session package errors to HTTP statuses.
func sessionError(c *gin.Context, err error) {
	var notFound *session.NotFoundError
	var state *session.StateError
	switch {
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &state):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
