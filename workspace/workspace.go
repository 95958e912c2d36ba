// Package workspace manages the local directories that hold raw and
// processed files while a job is in flight.
package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"
)

var log *logrus.Entry = logrus.NewEntry(logrus.StandardLogger())

func Init(logger *logrus.Logger) error {
	log = logger.WithFields(logrus.Fields{
		"component": "workspace",
	})
	return nil
}

type Workspace struct {
	RawDir       string
	ProcessedDir string
}

func New(rawDir, processedDir string) *Workspace {
	return &Workspace{
		RawDir:       filepath.Clean(rawDir),
		ProcessedDir: filepath.Clean(processedDir),
	}
}

// Ensure creates both directories if they are missing. It is safe to call
// repeatedly.
func (w *Workspace) Ensure() error {
	for _, dir := range []string{w.RawDir, w.ProcessedDir} {
		if info, err := os.Stat(dir); err == nil {
			if !info.IsDir() {
				return fmt.Errorf("%q exists and is not a directory", dir)
			}
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
		log.Infoln("directory created at", dir)
	}
	return nil
}

func (w *Workspace) RawPath(name string) string {
	return filepath.Join(w.RawDir, name)
}

func (w *Workspace) ProcessedPath(name string) string {
	return filepath.Join(w.ProcessedDir, name)
}

func (w *Workspace) contains(path string) bool {
	dir := filepath.Dir(filepath.Clean(path))
	return dir == w.RawDir || dir == w.ProcessedDir
}

// Remove deletes a single job file. Missing files are reported as errors
// wrapping fs.ErrNotExist.
func (w *Workspace) Remove(path string) error {
	if path == "" {
		return errors.New("no file path provided")
	}
	if !w.contains(path) {
		return fmt.Errorf("refusing to delete %s outside the workspace", path)
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("file not found at %s: %w", path, err)
		}
		return fmt.Errorf("delete %s: %w", path, err)
	}
	log.Debugln("file deleted at", path)
	return nil
}

// Cleanup removes all paths concurrently and joins every failure.
func (w *Workspace) Cleanup(paths ...string) error {
	errs := make([]error, len(paths))
	var g errgroup.Group
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			errs[i] = w.Remove(path)
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

type Usage struct {
	FreeBytes uint64 `json:"freeBytes"`
	UsedBytes int64  `json:"usedBytes"`
	Files     int    `json:"files"`
}

// Usage reports free space on the filesystem holding the raw directory and
// the bytes and files currently held in both directories.
func (w *Workspace) Usage() (Usage, error) {
	var u Usage
	var stat unix.Statfs_t
	if err := unix.Statfs(w.RawDir, &stat); err != nil {
		return u, fmt.Errorf("error getting filesystem stats: %v", err)
	}
	u.FreeBytes = stat.Bavail * uint64(stat.Bsize)

	for _, dir := range []string{w.RawDir, w.ProcessedDir} {
		err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !info.IsDir() {
				u.UsedBytes += info.Size()
				u.Files++
			}
			return nil
		})
		if err != nil {
			return u, fmt.Errorf("error walking directory: %v", err)
		}
	}
	return u, nil
}

// Leftovers lists files in the workspace whose names match any of names.
func (w *Workspace) Leftovers(names ...string) []string {
	var found []string
	for _, dir := range []string{w.RawDir, w.ProcessedDir} {
		for _, name := range names {
			if strings.TrimSpace(name) == "" {
				continue
			}
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				found = append(found, path)
			}
		}
	}
	return found
}
