package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/docforensics/forensics-api/pkg/logger"
)

const (
	filePrefix     = "upload-"
	maxNameLength  = 100
	defaultDirName = "forensics-uploads"
	minSweepPeriod = time.Second
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// TempFiles stages uploads on disk for the analyzers. Every staged file is
// deleted by Release; files left behind by a crash are swept once they are
// older than the TTL.
type TempFiles struct {
	dir  string
	ttl  time.Duration
	log  *logger.Logger
	mu   sync.Mutex
	live map[string]struct{}
}

// TempFile is one staged upload
type TempFile struct {
	Path string
	Size int64

	store *TempFiles
	once  sync.Once
}

// NewTempFiles creates the store, creating dir if needed. An empty dir uses
// a subdirectory of the system temp dir.
func NewTempFiles(dir string, ttl time.Duration, log *logger.Logger) (*TempFiles, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), defaultDirName)
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	return &TempFiles{
		dir:  dir,
		ttl:  ttl,
		log:  log.WithComponent("storage"),
		live: make(map[string]struct{}),
	}, nil
}

// Dir returns the directory files are staged in
func (s *TempFiles) Dir() string {
	return s.dir
}

// Stage copies r into a new temp file. The original filename is kept as a
// sanitized suffix so extension-based tooling still works.
func (s *TempFiles) Stage(filename string, r io.Reader) (*TempFile, error) {
	f, err := os.CreateTemp(s.dir, filePrefix+"*_"+SanitizeFilename(filename))
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}

	tf := &TempFile{Path: f.Name(), store: s}
	s.track(tf.Path)

	n, err := io.Copy(f, r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		tf.Release()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tf.Size = n

	s.log.Debug().Str("path", tf.Path).Int64("size", n).Msg("upload staged")
	return tf, nil
}

// Release deletes the file. It is safe to call more than once.
func (f *TempFile) Release() {
	f.once.Do(func() {
		if err := os.Remove(f.Path); err != nil && !os.IsNotExist(err) {
			f.store.log.Warn().Err(err).Str("path", f.Path).Msg("failed to remove temp file")
		}
		f.store.untrack(f.Path)
	})
}

// Live returns the number of staged files not yet released
func (s *TempFiles) Live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.live)
}

func (s *TempFiles) track(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.live[path] = struct{}{}
}

func (s *TempFiles) untrack(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.live, path)
}

// Start runs the orphan sweep until ctx is cancelled
func (s *TempFiles) Start(ctx context.Context) {
	if s.ttl <= 0 {
		return
	}
	go s.cleanupLoop(ctx)
}

func (s *TempFiles) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(max(s.ttl/2, minSweepPeriod))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(time.Now())
		}
	}
}

// sweep removes untracked upload files last modified before now-ttl
func (s *TempFiles) sweep(now time.Time) int {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to list temp dir")
		return 0
	}

	cutoff := now.Add(-s.ttl)
	removed := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), filePrefix) {
			continue
		}
		path := filepath.Join(s.dir, e.Name())

		s.mu.Lock()
		_, live := s.live[path]
		s.mu.Unlock()
		if live {
			continue
		}

		info, err := e.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(path); err == nil {
			removed++
		}
	}

	if removed > 0 {
		s.log.Info().Int("removed", removed).Msg("swept orphaned uploads")
	}
	return removed
}

// SanitizeFilename reduces name to a safe base name of at most 100 characters
func SanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	if name == "." || name == "/" {
		name = ""
	}
	name = unsafeChars.ReplaceAllString(name, "_")
	if len(name) > maxNameLength {
		name = name[len(name)-maxNameLength:]
	}
	if name == "" {
		name = "file"
	}
	return name
}
