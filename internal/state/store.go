package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/mkendall/drover/internal/logging"
)

// RetentionPeriod is how long a completed session is kept before the
// cleanup sweep removes it.
const RetentionPeriod = 24 * time.Hour

// Lock acquisition parameters. Retries are bounded so a wedged lock file
// degrades a load to an empty registry instead of hanging the caller.
const (
	lockAttempts   = 10
	lockBackoffMin = 100 * time.Millisecond
	lockBackoffMax = 1000 * time.Millisecond
)

// Store is the persistence contract the lifecycle logic operates through.
// Load never fails: any read, parse, or lock problem yields an empty
// registry. Save failures are always reported.
type Store interface {
	Load() *Registry
	Save(r *Registry) error
	CleanupOldSessions() (int, error)
}

// FileStore persists the registry as a single JSON file guarded by an
// advisory lock file.
type FileStore struct {
	path   string
	logger *logging.Logger
}

// NewFileStore creates a FileStore for the given state file path.
// The logger may be nil.
func NewFileStore(path string, logger *logging.Logger) *FileStore {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &FileStore{path: path, logger: logger}
}

// Path returns the state file path. Watchers use it to subscribe to changes.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the registry from disk. On any failure (lock contention, a
// missing or unreadable file, malformed JSON) it returns an empty registry:
// a corrupted or momentarily locked file must never crash a caller. The
// trade-off is silent data loss when the corruption is real, which is why
// every load failure is at least logged.
func (s *FileStore) Load() *Registry {
	unlock, err := s.acquireLock()
	if err != nil {
		s.logger.Warn("state load degraded to empty registry",
			"reason", "lock acquisition failed",
			"error", err.Error(),
		)
		return NewRegistry()
	}
	defer unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("state load degraded to empty registry",
				"reason", "read failed",
				"error", err.Error(),
			)
		}
		return NewRegistry()
	}

	var reg Registry
	if err := json.Unmarshal(data, &reg); err != nil {
		s.logger.Warn("state load degraded to empty registry",
			"reason", "parse failed",
			"error", err.Error(),
		)
		return NewRegistry()
	}
	if reg.Sessions == nil {
		reg.Sessions = make(map[string]*Session)
	}
	return &reg
}

// Save writes the registry atomically: marshal, write to a uniquely-named
// temp file in the same directory, fsync, rename over the target. A reader
// never observes a partially-written file. Unlike Load, save failures
// propagate to the caller.
func (s *FileStore) Save(r *Registry) error {
	unlock, err := s.acquireLock()
	if err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	defer unlock()

	return s.writeLocked(r)
}

// writeLocked performs the atomic write while the lock is held.
func (s *FileStore) writeLocked(r *Registry) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, ".agents-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

// CleanupOldSessions removes sessions whose CompletedAt parses and is more
// than RetentionPeriod in the past. Sessions with a missing or unparsable
// CompletedAt are conservatively kept. The registry is written back only
// when something was removed. Returns the number of sessions removed.
func (s *FileStore) CleanupOldSessions() (int, error) {
	reg := s.Load()
	removed := sweepOldSessions(reg, time.Now())
	if removed == 0 {
		return 0, nil
	}
	if err := s.Save(reg); err != nil {
		return 0, err
	}
	s.logger.Info("old sessions cleaned", "removed", removed)
	return removed, nil
}

// sweepOldSessions deletes expired sessions from the registry in place and
// returns how many were removed.
func sweepOldSessions(reg *Registry, now time.Time) int {
	removed := 0
	for id, session := range reg.Sessions {
		if session == nil || session.CompletedAt == "" {
			continue
		}
		completed, err := ParseTime(session.CompletedAt)
		if err != nil {
			// Unparsable timestamps are kept; deleting on a parse
			// error would turn corruption into data loss.
			continue
		}
		if now.Sub(completed) > RetentionPeriod {
			delete(reg.Sessions, id)
			removed++
		}
	}
	return removed
}

// lockInfo is the content of the advisory lock file.
type lockInfo struct {
	PID      int    `json:"pid"`
	Hostname string `json:"hostname"`
	Acquired string `json:"acquired"`
}

// acquireLock takes the advisory lock with bounded retry and backoff.
// A lock file whose owning process is dead is treated as stale and removed.
func (s *FileStore) acquireLock() (func(), error) {
	lockPath := s.path + ".lock"
	if err := os.MkdirAll(filepath.Dir(lockPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	backoff := lockBackoffMin
	var lastErr error
	for attempt := 0; attempt < lockAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(backoff)
			backoff *= 2
			if backoff > lockBackoffMax {
				backoff = lockBackoffMax
			}
		}

		if ok, err := tryCreateLock(lockPath); ok {
			return func() { os.Remove(lockPath) }, nil
		} else if err != nil {
			lastErr = err
		}

		// Holder dead? Clean the stale lock and retry immediately.
		if info, err := readLock(lockPath); err == nil && !isProcessAlive(info.PID) {
			s.logger.Warn("stale state lock cleaned", "old_pid", info.PID)
			_ = os.Remove(lockPath)
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("lock held after %d attempts", lockAttempts)
	}
	return nil, fmt.Errorf("acquire %s: %w", lockPath, lastErr)
}

// tryCreateLock attempts a single O_EXCL lock file creation.
func tryCreateLock(lockPath string) (bool, error) {
	f, err := os.OpenFile(lockPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if os.IsExist(err) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	data, err := json.Marshal(lockInfo{
		PID:      os.Getpid(),
		Hostname: hostname,
		Acquired: Now(),
	})
	if err == nil {
		_, _ = f.Write(data)
	}
	return true, nil
}

// readLock reads an existing lock file.
func readLock(lockPath string) (*lockInfo, error) {
	data, err := os.ReadFile(lockPath)
	if err != nil {
		return nil, err
	}
	var info lockInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to parse lock file: %w", err)
	}
	return &info, nil
}

// isProcessAlive checks if a process with the given PID is still running.
func isProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// On Unix, signal 0 checks existence without affecting the process.
	return process.Signal(syscall.Signal(0)) == nil
}
