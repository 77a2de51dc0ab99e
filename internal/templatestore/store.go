// Package templatestore resolves template kinds to workbook files on disk.
// The template folder is the catalog: one subdirectory per kind, and within a
// kind the newest .xlsx wins. The store never writes to the folder.
package templatestore

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"quotegen/internal/common/errors"
	"quotegen/internal/common/logger"
)

// Template describes one resolvable template file.
type Template struct {
	Kind    string    `json:"kind"`
	Path    string    `json:"path"`
	ModTime time.Time `json:"modTime"`
}

// Store reads templates from a directory tree. Every lookup rescans the
// filesystem, so operators can drop in a new template without a restart.
type Store struct {
	dir string
	log logger.Logger
}

func New(dir string, log logger.Logger) *Store {
	return &Store{dir: dir, log: log}
}

// Kinds lists the template kinds present in the catalog, sorted.
func (s *Store) Kinds() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, errors.NewRenderIOError(s.dir, err)
	}

	kinds := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			kinds = append(kinds, e.Name())
		}
	}
	sort.Strings(kinds)
	return kinds, nil
}

// List returns the candidate templates for a kind, newest first.
func (s *Store) List(kind string) ([]Template, error) {
	kindDir := filepath.Join(s.dir, kind)
	entries, err := os.ReadDir(kindDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewTemplateNotFoundError(kind)
		}
		return nil, errors.NewRenderIOError(kindDir, err)
	}

	var templates []Template
	for _, e := range entries {
		if e.IsDir() || !isUsableWorkbook(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		templates = append(templates, Template{
			Kind:    kind,
			Path:    filepath.Join(kindDir, e.Name()),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(templates, func(i, j int) bool {
		return templates[i].ModTime.After(templates[j].ModTime)
	})
	return templates, nil
}

// Get resolves a kind to its current template: the most recently modified
// .xlsx in the kind's directory. A directory that exists but holds only
// non-.xlsx files reports TEMPLATE_FORMAT_INVALID naming the nearest
// candidate; an empty or missing directory reports TEMPLATE_NOT_FOUND.
func (s *Store) Get(kind string) (Template, error) {
	kindDir := filepath.Join(s.dir, kind)
	entries, err := os.ReadDir(kindDir)
	if err != nil {
		if os.IsNotExist(err) {
			return Template{}, errors.NewTemplateNotFoundError(kind)
		}
		return Template{}, errors.NewRenderIOError(kindDir, err)
	}

	var best *Template
	var wrongFormat string
	for _, e := range entries {
		if e.IsDir() || isLockFile(e.Name()) {
			continue
		}
		if !strings.EqualFold(filepath.Ext(e.Name()), ".xlsx") {
			wrongFormat = filepath.Join(kindDir, e.Name())
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if best == nil || info.ModTime().After(best.ModTime) {
			best = &Template{
				Kind:    kind,
				Path:    filepath.Join(kindDir, e.Name()),
				ModTime: info.ModTime(),
			}
		}
	}

	if best == nil {
		if wrongFormat != "" {
			return Template{}, errors.NewTemplateFormatInvalidError(wrongFormat)
		}
		return Template{}, errors.NewTemplateNotFoundError(kind)
	}

	s.log.Debug("Resolved template", map[string]interface{}{
		"kind": kind,
		"path": best.Path,
	})
	return *best, nil
}

func isUsableWorkbook(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".xlsx") && !isLockFile(name)
}

// Excel leaves ~$-prefixed lock files next to open workbooks.
func isLockFile(name string) bool {
	return strings.HasPrefix(name, "~$")
}
