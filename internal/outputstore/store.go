// Package outputstore owns the shared output folder: collision-free naming
// and the lock that makes reserve-then-write one critical section.
package outputstore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"quotegen/internal/common/errors"
	"quotegen/internal/common/logger"
)

// Store is an explicit handle on one output directory. All writers into that
// directory must go through the same Store instance: the mutex spans name
// reservation and the write itself, so two concurrent requests can never race
// for the same path.
type Store struct {
	dir         string
	maxAttempts int
	log         logger.Logger

	mu sync.Mutex
}

func New(dir string, maxAttempts int, log logger.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.NewRenderIOError(dir, err)
	}
	return &Store{dir: dir, maxAttempts: maxAttempts, log: log}, nil
}

// Dir returns the output directory path.
func (s *Store) Dir() string {
	return s.dir
}

// Claim finds the first free path for base+ext, then invokes write with that
// path while still holding the store lock. Candidate names are base.ext,
// base_1.ext, base_2.ext and so on; after maxAttempts taken names the claim
// fails with OUTPUT_PATH_EXHAUSTED.
func (s *Store) Claim(base, ext string, write func(path string) error) (string, error) {
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path, err := s.freePath(base, ext)
	if err != nil {
		return "", err
	}
	if err := write(path); err != nil {
		return "", err
	}

	s.log.Info("Claimed output path", map[string]interface{}{"path": path})
	return path, nil
}

func (s *Store) freePath(base, ext string) (string, error) {
	candidate := filepath.Join(s.dir, base+ext)
	if pathFree(candidate) {
		return candidate, nil
	}
	for i := 1; i <= s.maxAttempts; i++ {
		candidate = filepath.Join(s.dir, fmt.Sprintf("%s_%d%s", base, i, ext))
		if pathFree(candidate) {
			return candidate, nil
		}
	}
	return "", errors.NewOutputPathExhaustedError(base, s.maxAttempts)
}

// pathFree reports whether a candidate name can be claimed. Only a confirmed
// not-exist counts as free: any other stat failure treats the name as taken
// rather than risking an overwrite of a file we could not inspect.
func pathFree(path string) bool {
	_, err := os.Stat(path)
	return os.IsNotExist(err)
}

// SanitizeBase turns a caller-supplied filename hint into a safe base name:
// path separators and control characters are dropped, and an empty result
// is reported as unusable.
func SanitizeBase(hint string) (string, bool) {
	var b strings.Builder
	for _, r := range strings.TrimSpace(hint) {
		switch {
		case r == '/' || r == '\\' || r == ':' || r == '*' || r == '?' || r == '"' || r == '<' || r == '>' || r == '|':
			continue
		case r < 0x20:
			continue
		default:
			b.WriteRune(r)
		}
	}
	base := strings.Trim(b.String(), ". ")
	// A bare extension or dot sequence is not a usable name.
	if base == "" || strings.HasPrefix(base, "~$") {
		return "", false
	}
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" {
		return "", false
	}
	return base, true
}

// DefaultBase builds the fallback base name for a generated document:
// kind, timestamp, and a short unique suffix.
func DefaultBase(kind string) string {
	return fmt.Sprintf("%s_%s_%s", kind, time.Now().Format("20060102_150405"), uuid.NewString()[:8])
}
