package livelog

import (
	"sync"
	"time"
)

// LiveLog is the in-flight log of one running conversion.
type LiveLog struct {
	FilePath   string
	Logs       string
	StartTime  time.Time
	LastUpdate time.Time
}

// Manager holds the live logs of currently running tasks, keyed by source
// path. Construct one per process and pass it where needed.
type Manager struct {
	mu   sync.RWMutex
	logs map[string]*LiveLog
}

func NewManager() *Manager {
	return &Manager{logs: make(map[string]*LiveLog)}
}

// StartTask creates a new live log entry for a task
func (m *Manager) StartTask(filePath string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.logs[filePath] = &LiveLog{
		FilePath:   filePath,
		StartTime:  time.Now(),
		LastUpdate: time.Now(),
	}
}

// AppendLog appends log content to a task's live log
func (m *Manager) AppendLog(filePath, logContent string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if l, exists := m.logs[filePath]; exists {
		l.Logs += logContent
		l.LastUpdate = time.Now()
	}
}

// GetLog retrieves a copy of the live log for a task.
func (m *Manager) GetLog(filePath string) (*LiveLog, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	l, exists := m.logs[filePath]
	if !exists {
		return nil, false
	}
	cp := *l
	return &cp, true
}

// EndTask removes a task's live log (called when task completes)
func (m *Manager) EndTask(filePath string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.logs, filePath)
}

// GetAllActiveLogs returns copies of all active live logs.
func (m *Manager) GetAllActiveLogs() map[string]*LiveLog {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]*LiveLog, len(m.logs))
	for path, l := range m.logs {
		cp := *l
		result[path] = &cp
	}
	return result
}

// CleanOldLogs removes logs that have not been updated within maxAge.
func (m *Manager) CleanOldLogs(maxAge time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for path, l := range m.logs {
		if now.Sub(l.LastUpdate) > maxAge {
			delete(m.logs, path)
		}
	}
}
