// Package audit provides audit event sinks: a structured line on the
// diagnostic stream and a JSON Lines file with size rotation.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/Sentinel-Gate/toolgate/internal/domain/audit"
)

// FileConfig holds configuration for the JSON Lines audit file.
type FileConfig struct {
	// Path is the active audit file. Rotated files are written next to it
	// as <name>-N<ext>.
	Path string
	// MaxFileSizeMB is the size in megabytes that triggers rotation (default 100).
	MaxFileSizeMB int
	// MaxBackups is the number of rotated files to keep. 0 keeps none;
	// a negative value selects the default of 5.
	MaxBackups int
}

// FileStore implements audit.Store as an append-only JSON Lines file.
type FileStore struct {
	path        string
	maxFileSize int64
	maxBackups  int
	backupRe    *regexp.Regexp
	current     *os.File
	currentSize int64
	mu          sync.Mutex
	logger      *slog.Logger
	closed      bool
}

// NewFileStore opens (or creates) the audit file, creating its directory
// if needed.
func NewFileStore(cfg FileConfig, logger *slog.Logger) (*FileStore, error) {
	if cfg.MaxFileSizeMB <= 0 {
		cfg.MaxFileSizeMB = 100
	}
	if cfg.MaxBackups < 0 {
		cfg.MaxBackups = 5
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0700); err != nil {
		return nil, fmt.Errorf("create audit directory: %w", err)
	}

	ext := filepath.Ext(cfg.Path)
	stem := strings.TrimSuffix(filepath.Base(cfg.Path), ext)
	s := &FileStore{
		path:        cfg.Path,
		maxFileSize: int64(cfg.MaxFileSizeMB) * 1024 * 1024,
		maxBackups:  cfg.MaxBackups,
		backupRe:    regexp.MustCompile(`^` + regexp.QuoteMeta(stem) + `-(\d+)` + regexp.QuoteMeta(ext) + `$`),
		logger:      logger,
	}

	if err := s.openLocked(); err != nil {
		return nil, fmt.Errorf("open audit file: %w", err)
	}
	return s, nil
}

// Record appends one event as a JSON line, rotating first when the file
// has reached its size limit.
func (s *FileStore) Record(_ context.Context, event audit.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	line := append(data, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return os.ErrClosed
	}
	if s.currentSize >= s.maxFileSize {
		if err := s.rotateLocked(); err != nil {
			return fmt.Errorf("size rotation: %w", err)
		}
	}

	n, err := s.current.Write(line)
	s.currentSize += int64(n)
	if err != nil {
		return fmt.Errorf("write audit event: %w", err)
	}
	return nil
}

// Flush forces written events to disk.
func (s *FileStore) Flush(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil {
		return s.current.Sync()
	}
	return nil
}

// Close syncs and closes the file. It is safe to call more than once.
func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.current != nil {
		_ = s.current.Sync()
		err := s.current.Close()
		s.current = nil
		return err
	}
	return nil
}

func (s *FileStore) openLocked() error {
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("stat %s: %w", s.path, err)
	}
	s.current = f
	s.currentSize = info.Size()
	return nil
}

// rotateLocked renames the active file to the next backup name and opens
// a fresh one. Must be called with s.mu held.
func (s *FileStore) rotateLocked() error {
	if s.current != nil {
		_ = s.current.Sync()
		_ = s.current.Close()
		s.current = nil
	}

	backups := s.backups()
	next := 1
	if len(backups) > 0 {
		next = backups[len(backups)-1].suffix + 1
	}
	if err := os.Rename(s.path, s.backupName(next)); err != nil {
		return err
	}
	if err := s.openLocked(); err != nil {
		return err
	}

	s.cleanup()
	return nil
}

type backupFile struct {
	path   string
	suffix int
}

// backups lists rotated files, oldest first.
func (s *FileStore) backups() []backupFile {
	dir := filepath.Dir(s.path)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var files []backupFile
	for _, e := range entries {
		m := s.backupRe.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		files = append(files, backupFile{path: filepath.Join(dir, e.Name()), suffix: n})
	}
	sort.Slice(files, func(i, j int) bool {
		return files[i].suffix < files[j].suffix
	})
	return files
}

func (s *FileStore) backupName(suffix int) string {
	ext := filepath.Ext(s.path)
	return strings.TrimSuffix(s.path, ext) + "-" + strconv.Itoa(suffix) + ext
}

// cleanup deletes the oldest backups beyond maxBackups.
func (s *FileStore) cleanup() {
	backups := s.backups()
	for len(backups) > s.maxBackups {
		if err := os.Remove(backups[0].path); err != nil {
			s.logger.Warn("failed to remove old audit file", "file", backups[0].path, "error", err)
		} else {
			s.logger.Debug("removed old audit file", "file", backups[0].path)
		}
		backups = backups[1:]
	}
}
