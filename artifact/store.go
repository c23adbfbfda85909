package artifact

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/kbukum/stageflow/errors"
)

// Entry describes one published artifact.
type Entry struct {
	// Name is the unique artifact name.
	Name string
	// Stage is the identifier of the producing stage.
	Stage string
	// Path is the materialized location inside the store directory.
	Path string
	// Size is the content size in bytes (files only; 0 for directories).
	Size int64
	// PublishedAt is when the artifact was staged.
	PublishedAt time.Time

	committed bool
}

// Store is the run-scoped artifact store. All methods are safe for
// concurrent use; registration is the single synchronized point shared
// between stages.
type Store struct {
	mu      sync.Mutex
	dir     string
	keep    bool
	entries map[string]*Entry
}

// NewStore creates a store rooted at dir. An empty dir means a fresh
// temporary directory. When keep is false, Close removes the directory.
func NewStore(dir string, keep bool) (*Store, error) {
	if dir == "" {
		tmp, err := os.MkdirTemp("", "stageflow-artifacts-")
		if err != nil {
			return nil, fmt.Errorf("artifact: create store directory: %w", err)
		}
		dir = tmp
	} else {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return nil, fmt.Errorf("artifact: resolve store directory: %w", err)
		}
		if err := os.MkdirAll(abs, 0o750); err != nil {
			return nil, fmt.Errorf("artifact: create store directory: %w", err)
		}
		dir = abs
	}

	return &Store{
		dir:     dir,
		keep:    keep,
		entries: make(map[string]*Entry),
	}, nil
}

// Dir returns the store's root directory.
func (s *Store) Dir() string { return s.dir }

// Publish registers an artifact name and copies src (a file or directory)
// into the store. Names are write-once: publishing an existing name fails
// with ARTIFACT_CONFLICT regardless of the publishing stage, and a name stays
// consumed even when its copy failed. The entry stays uncommitted, and
// therefore unfetchable, until Commit is called for the producing stage.
func (s *Store) Publish(name, stageID, src string) error {
	if name == "" {
		return errors.ConfigInvalid("artifact name is required")
	}

	s.mu.Lock()
	if _, exists := s.entries[name]; exists {
		s.mu.Unlock()
		return errors.ArtifactConflict(name, stageID)
	}
	entry := &Entry{
		Name:        name,
		Stage:       stageID,
		PublishedAt: time.Now(),
	}
	s.entries[name] = entry
	s.mu.Unlock()

	dest := filepath.Join(s.dir, name, filepath.Base(src))
	size, err := copyPath(src, dest)
	if err != nil {
		// The registration stays: write-once means one attempt ever.
		_ = os.RemoveAll(filepath.Dir(dest))
		return errors.ArtifactPublishFailed(name, src).WithCause(err)
	}

	s.mu.Lock()
	entry.Path = dest
	entry.Size = size
	s.mu.Unlock()
	return nil
}

// Commit makes all artifacts staged by the given stage fetchable. Called by
// the executor once the stage reaches Succeeded.
func (s *Store) Commit(stageID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.Stage == stageID && e.Path != "" {
			e.committed = true
		}
	}
}

// Discard drops uncommitted artifacts staged by a failed stage and removes
// their content. The names stay registered: a write-once name is consumed
// even by a failed publish.
func (s *Store) Discard(stageID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.Stage == stageID && !e.committed && e.Path != "" {
			_ = os.RemoveAll(filepath.Dir(e.Path))
			e.Path = ""
		}
	}
}

// Fetch returns the entry for a committed artifact. Fetching a name that was
// never published, or whose producing stage did not succeed, fails with
// ARTIFACT_NOT_FOUND.
func (s *Store) Fetch(name string) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[name]
	if !ok || !e.committed || e.Path == "" {
		return nil, errors.ArtifactNotFound(name)
	}
	cp := *e
	return &cp, nil
}

// Open returns a reader for a committed single-file artifact.
func (s *Store) Open(name string) (io.ReadCloser, error) {
	e, err := s.Fetch(name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(e.Path)
	if err != nil {
		return nil, errors.ArtifactNotFound(name).WithCause(err)
	}
	return f, nil
}

// Bytes reads a committed single-file artifact fully into memory.
func (s *Store) Bytes(name string) ([]byte, error) {
	r, err := s.Open(name)
	if err != nil {
		return nil, err
	}
	defer r.Close() //nolint:errcheck // read-only handle
	return io.ReadAll(r)
}

// List returns committed entries sorted by name.
func (s *Store) List() []*Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Entry, 0, len(s.entries))
	for _, e := range s.entries {
		if e.committed {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Close garbage-collects the store directory unless keep was set.
func (s *Store) Close() error {
	if s.keep {
		return nil
	}
	return os.RemoveAll(s.dir)
}

// copyPath copies a file or directory tree from src to dest and returns the
// total bytes copied.
func copyPath(src, dest string) (int64, error) {
	info, err := os.Stat(src)
	if err != nil {
		return 0, err
	}
	if info.IsDir() {
		var total int64
		err := filepath.Walk(src, func(path string, fi os.FileInfo, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			rel, err := filepath.Rel(src, path)
			if err != nil {
				return err
			}
			target := filepath.Join(dest, rel)
			if fi.IsDir() {
				return os.MkdirAll(target, 0o750)
			}
			n, err := copyFile(path, target)
			total += n
			return err
		})
		return total, err
	}
	return copyFile(src, dest)
}

func copyFile(src, dest string) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(dest), 0o750); err != nil {
		return 0, err
	}
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close() //nolint:errcheck // read-only handle

	out, err := os.Create(dest)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(out, in)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	return n, err
}
