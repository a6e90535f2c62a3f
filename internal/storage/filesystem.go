package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jwebster45206/questmap/pkg/scenario"
)

// FileStorage serves scenario files from a directory.
type FileStorage struct {
	dir    string
	logger *slog.Logger
}

var _ Content = (*FileStorage)(nil)

func NewFileStorage(dir string, logger *slog.Logger) *FileStorage {
	return &FileStorage{dir: dir, logger: logger}
}

// Ping checks that the content directory is readable.
func (s *FileStorage) Ping(ctx context.Context) error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return fmt.Errorf("content directory unavailable: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("content path %s is not a directory", s.dir)
	}
	return nil
}

// ListScenarios maps scenario names to their file names. Files that do not
// parse are skipped with a warning.
func (s *FileStorage) ListScenarios(ctx context.Context) (map[string]string, error) {
	scenarios := make(map[string]string)

	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !scenario.IsScenarioFile(path) {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		sc, err := scenario.Load(path)
		if err != nil {
			s.logger.Warn("Failed to load scenario file", "path", path, "error", err)
			return nil
		}

		rel, err := filepath.Rel(s.dir, path)
		if err != nil {
			return err
		}
		scenarios[sc.Name] = filepath.ToSlash(rel)
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to walk scenarios directory", "error", err)
		return nil, fmt.Errorf("failed to list scenarios: %w", err)
	}

	return scenarios, nil
}

// GetScenario loads a scenario by file name relative to the content
// directory. Names that escape the directory are treated as not found.
func (s *FileStorage) GetScenario(ctx context.Context, filename string) (*scenario.Scenario, error) {
	if !filepath.IsLocal(filename) {
		return nil, fmt.Errorf("%w: %s", ErrScenarioNotFound, filename)
	}
	path := filepath.Join(s.dir, filename)
	s.logger.Debug("Loading scenario", "filename", filename, "full_path", path)

	sc, err := scenario.Load(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrScenarioNotFound, filename)
		}
		return nil, err
	}
	return sc, nil
}
