package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	currentSessionFile = "current_session.json"
	historyDirName     = "history"
)

// DefaultAutoSaveInterval throttles non-forced saves so per-frame progress
// updates do not hammer the disk.
const DefaultAutoSaveInterval = 5 * time.Second

// Manager owns at most one current session, mirrored 1:1 with a JSON file
// under its directory. All mutating operations hold one mutex for the whole
// read-modify-persist sequence: the conversion orchestrator drives state from
// a worker goroutine while the API polls status concurrently.
type Manager struct {
	mu               sync.Mutex
	dir              string
	autoSaveInterval time.Duration

	current  *State
	dirty    bool
	lastSave time.Time
}

// NewManager prepares the session directory and runs interruption detection:
// a current-session file still marked active means the previous process died
// mid-batch, so it is rewritten to interrupted before anything else can read
// it.
func NewManager(dir string, autoSaveInterval time.Duration) (*Manager, error) {
	if autoSaveInterval <= 0 {
		autoSaveInterval = DefaultAutoSaveInterval
	}
	if err := os.MkdirAll(filepath.Join(dir, historyDirName), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}

	m := &Manager{dir: dir, autoSaveInterval: autoSaveInterval}

	state, err := m.readSessionFile(m.currentPath())
	switch {
	case err == nil:
		if state.Status == StatusActive {
			log.Printf("session %s was active at startup, marking interrupted", state.ID)
			state.Status = StatusInterrupted
			if n := state.resetInProgress(); n > 0 {
				log.Printf("requeued %d in-flight videos from the interrupted run", n)
			}
			state.UpdatedAt = time.Now()
			if err := m.writeSessionFile(m.currentPath(), state); err != nil {
				return nil, err
			}
		}
		m.current = state
	case errors.As(err, new(*NotFoundError)):
		// no previous session
	default:
		// corrupted current file; keep it on disk for inspection and report
		// it when the caller attempts a load
		log.Printf("warning: %v", err)
	}

	return m, nil
}

// Dir returns the manager's session directory.
func (m *Manager) Dir() string { return m.dir }

// CreateSession starts a new batch over the given source paths. Exactly one
// session may be active at a time. Output paths are derived per entry by
// inserting the configured suffix and forcing an .mp4 container; the config
// subset is snapshotted for resume fidelity. The session is persisted before
// returning.
func (m *Manager) CreateSession(paths []string, outputDir string, cfg ConfigSnapshot) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil && m.current.Status == StatusActive {
		return State{}, ErrSessionActive
	}

	now := time.Now()
	state := &State{
		ID:          strings.Split(uuid.NewString(), "-")[0],
		Status:      StatusActive,
		StartedAt:   now,
		UpdatedAt:   now,
		TotalVideos: len(paths),
		Pending:     make([]VideoEntry, 0, len(paths)),
		OutputDir:   outputDir,
		Config:      cfg,
	}
	for _, p := range paths {
		state.Pending = append(state.Pending, VideoEntry{
			SourcePath: p,
			OutputPath: DeriveOutputPath(p, outputDir, cfg.OutputSuffix),
			Status:     VideoPending,
		})
	}

	m.current = state
	m.dirty = true
	if err := m.save(true); err != nil {
		return State{}, err
	}
	return snapshotState(state), nil
}

// CurrentSession returns a copy of the in-memory session, if any.
func (m *Manager) CurrentSession() (State, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return State{}, false
	}
	return snapshotState(m.current), true
}

// ClaimNextVideo hands the orchestrator the next pending entry, marking it
// in-progress. The entry stays in the pending list until it reaches a
// terminal state.
func (m *Manager) ClaimNextVideo() (VideoEntry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil || m.current.Status != StatusActive {
		return VideoEntry{}, false
	}
	for i := range m.current.Pending {
		if m.current.Pending[i].Status == VideoPending {
			m.current.Pending[i].Status = VideoInProgress
			m.current.UpdatedAt = time.Now()
			m.dirty = true
			if err := m.save(false); err != nil {
				log.Printf("session save failed: %v", err)
			}
			return m.current.Pending[i], true
		}
	}
	return VideoEntry{}, false
}

// MarkVideoCompleted moves the entry for sourcePath to the completed list and
// records the before/after sizes. Persisted before returning.
func (m *Manager) MarkVideoCompleted(sourcePath string, originalSize, convertedSize int64) error {
	return m.finishVideo(sourcePath, func(e *VideoEntry) {
		e.Status = VideoCompleted
		e.OriginalSize = originalSize
		e.ConvertedSize = convertedSize
	})
}

// MarkVideoSkipped closes the entry for sourcePath without a conversion,
// recording why it needed none. Skipped entries live in the completed list
// with their own status so the archive keeps them apart from real
// conversions. Persisted before returning.
func (m *Manager) MarkVideoSkipped(sourcePath, reason string) error {
	return m.finishVideo(sourcePath, func(e *VideoEntry) {
		e.Status = VideoSkipped
		e.Error = reason
	})
}

// MarkVideoFailed moves the entry for sourcePath to the failed list with the
// given error message. Persisted before returning.
func (m *Manager) MarkVideoFailed(sourcePath, errorMessage string) error {
	return m.finishVideo(sourcePath, func(e *VideoEntry) {
		e.Status = VideoFailed
		e.Error = errorMessage
	})
}

func (m *Manager) finishVideo(sourcePath string, terminal func(*VideoEntry)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return &NotFoundError{}
	}
	if m.current.Status != StatusActive {
		return &StateError{Op: "update", Status: m.current.Status}
	}

	for i := range m.current.Pending {
		if m.current.Pending[i].SourcePath != sourcePath {
			continue
		}
		entry := m.current.Pending[i]
		terminal(&entry)
		m.current.Pending = append(m.current.Pending[:i], m.current.Pending[i+1:]...)
		if entry.Status == VideoFailed {
			m.current.Failed = append(m.current.Failed, entry)
		} else {
			m.current.Completed = append(m.current.Completed, entry)
		}
		m.current.CurrentIndex++
		m.current.UpdatedAt = time.Now()
		m.dirty = true
		return m.save(true)
	}
	return fmt.Errorf("video %s not found in pending list", sourcePath)
}

// RegisterTempFile records a temporary file owned by the current session so
// cancellation and crash cleanup can remove it.
func (m *Manager) RegisterTempFile(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return
	}
	for _, p := range m.current.TempFiles {
		if p == path {
			return
		}
	}
	m.current.TempFiles = append(m.current.TempFiles, path)
	m.dirty = true
	if err := m.save(false); err != nil {
		log.Printf("session save failed: %v", err)
	}
}

// CleanupOrphanedTempFiles deletes every tracked temp file that still exists
// and drops all of them from tracking. Individual deletion failures are
// logged, not fatal. Returns the paths actually removed.
func (m *Manager) CleanupOrphanedTempFiles() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cleanupTempFilesLocked()
}

func (m *Manager) cleanupTempFilesLocked() []string {
	if m.current == nil || len(m.current.TempFiles) == 0 {
		return nil
	}
	var cleaned []string
	for _, p := range m.current.TempFiles {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := os.Remove(p); err != nil {
			log.Printf("failed to remove temp file %s: %v", p, err)
			continue
		}
		cleaned = append(cleaned, p)
	}
	m.current.TempFiles = nil
	m.dirty = true
	if err := m.save(true); err != nil {
		log.Printf("session save failed: %v", err)
	}
	return cleaned
}

// Save persists the current session. Non-forced saves are throttled: they are
// skipped unless the state is dirty and the auto-save interval has elapsed.
// Forced saves always hit the disk when dirty; every state transition uses
// force so it is durable before the call returns.
func (m *Manager) Save(force bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.save(force)
}

func (m *Manager) save(force bool) error {
	if m.current == nil || !m.dirty {
		return nil
	}
	if !force && time.Since(m.lastSave) < m.autoSaveInterval {
		return nil // still dirty; a later forced save will flush it
	}
	if err := m.writeSessionFile(m.currentPath(), m.current); err != nil {
		return err
	}
	m.dirty = false
	m.lastSave = time.Now()
	return nil
}

// PauseSession transitions active -> paused.
func (m *Manager) PauseSession() error {
	return m.transition("pause", StatusPaused, StatusActive)
}

// ResumeSession transitions paused or interrupted -> active. Entries left
// in-progress by the previous run go back to pending so they are retried.
func (m *Manager) ResumeSession() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return &NotFoundError{}
	}
	if !m.current.Status.Resumable() {
		return &StateError{Op: "resume", Status: m.current.Status}
	}
	m.current.resetInProgress()
	m.current.Status = StatusActive
	m.current.UpdatedAt = time.Now()
	m.dirty = true
	return m.save(true)
}

func (m *Manager) transition(op string, to Status, from ...Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return &NotFoundError{}
	}
	allowed := false
	for _, s := range from {
		if m.current.Status == s {
			allowed = true
			break
		}
	}
	if !allowed {
		return &StateError{Op: op, Status: m.current.Status}
	}
	m.current.Status = to
	m.current.UpdatedAt = time.Now()
	m.dirty = true
	return m.save(true)
}

// CompleteSession archives the session to the history directory and removes
// the current-session file.
func (m *Manager) CompleteSession() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return &NotFoundError{}
	}
	if m.current.Status != StatusActive {
		return &StateError{Op: "complete", Status: m.current.Status}
	}
	m.current.Status = StatusCompleted
	m.current.UpdatedAt = time.Now()
	return m.archiveAndClear()
}

// CancelSession archives the session with cancelled status, removes the
// current file, and purges registered temp files best-effort.
func (m *Manager) CancelSession() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return &NotFoundError{}
	}
	if m.current.Status.Terminal() {
		return &StateError{Op: "cancel", Status: m.current.Status}
	}
	m.cleanupTempFilesLocked()
	m.current.Status = StatusCancelled
	m.current.UpdatedAt = time.Now()
	return m.archiveAndClear()
}

func (m *Manager) archiveAndClear() error {
	archivePath := filepath.Join(m.dir, historyDirName, m.current.ID+".json")
	if err := m.writeSessionFile(archivePath, m.current); err != nil {
		return err
	}
	if err := os.Remove(m.currentPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove current session file: %w", err)
	}
	m.current = nil
	m.dirty = false
	return nil
}

// LoadSession reads a session from disk without adopting it: the current
// session file for an empty id, otherwise the matching archive (or the
// current session itself if the id matches).
func (m *Manager) LoadSession(id string) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id == "" {
		state, err := m.readSessionFile(m.currentPath())
		if err != nil {
			return State{}, err
		}
		return snapshotState(state), nil
	}

	if m.current != nil && m.current.ID == id {
		return snapshotState(m.current), nil
	}
	state, err := m.readSessionFile(filepath.Join(m.dir, historyDirName, id+".json"))
	if err != nil {
		if errors.As(err, new(*NotFoundError)) {
			return State{}, &NotFoundError{ID: id}
		}
		return State{}, err
	}
	return snapshotState(state), nil
}

// HasResumableSession reports whether the current session is paused or
// interrupted.
func (m *Manager) HasResumableSession() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current != nil && m.current.Status.Resumable()
}

// ResumableInfo summarizes a resumable session found on disk.
type ResumableInfo struct {
	ID        string    `json:"session_id"`
	Status    Status    `json:"status"`
	Progress  float64   `json:"progress"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GetResumableSessions scans the current file and the whole history
// directory for paused or interrupted sessions.
func (m *Manager) GetResumableSessions() []ResumableInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []ResumableInfo
	if m.current != nil && m.current.Status.Resumable() {
		out = append(out, resumableInfo(m.current))
	}

	entries, err := os.ReadDir(filepath.Join(m.dir, historyDirName))
	if err != nil {
		return out
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		state, err := m.readSessionFile(filepath.Join(m.dir, historyDirName, e.Name()))
		if err != nil {
			log.Printf("skipping unreadable session archive %s: %v", e.Name(), err)
			continue
		}
		if state.Status.Resumable() {
			out = append(out, resumableInfo(state))
		}
	}
	return out
}

// StatusReport is the counts-and-progress view the API and CLI poll.
type StatusReport struct {
	ID        string  `json:"session_id"`
	Status    Status  `json:"status"`
	Pending   int     `json:"pending"`
	Completed int     `json:"completed"`
	Failed    int     `json:"failed"`
	Total     int     `json:"total"`
	Progress  float64 `json:"progress"`
}

// GetSessionStatus summarizes the current session.
func (m *Manager) GetSessionStatus() (StatusReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return StatusReport{}, &NotFoundError{}
	}
	return StatusReport{
		ID:        m.current.ID,
		Status:    m.current.Status,
		Pending:   len(m.current.Pending),
		Completed: len(m.current.Completed),
		Failed:    len(m.current.Failed),
		Total:     m.current.TotalVideos,
		Progress:  m.current.Progress(),
	}, nil
}

func (m *Manager) currentPath() string {
	return filepath.Join(m.dir, currentSessionFile)
}

func (m *Manager) readSessionFile(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{}
		}
		return nil, err
	}
	state := &State{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, &CorruptedError{Path: path, Err: err}
	}
	if state.ID == "" || state.Status == "" {
		return nil, &CorruptedError{Path: path, Err: errors.New("missing required fields")}
	}
	return state, nil
}

func (m *Manager) writeSessionFile(path string, state *State) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

func resumableInfo(s *State) ResumableInfo {
	return ResumableInfo{ID: s.ID, Status: s.Status, Progress: s.Progress(), UpdatedAt: s.UpdatedAt}
}

// snapshotState deep-copies a state so callers cannot alias the manager's
// entry lists.
func snapshotState(s *State) State {
	out := *s
	out.Pending = append([]VideoEntry(nil), s.Pending...)
	out.Completed = append([]VideoEntry(nil), s.Completed...)
	out.Failed = append([]VideoEntry(nil), s.Failed...)
	out.TempFiles = append([]string(nil), s.TempFiles...)
	return out
}
