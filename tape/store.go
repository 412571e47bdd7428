package tape

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrPersistence wraps codec and I/O failures while loading or saving a
// persisted tape document.
var ErrPersistence = errors.New("tape persistence failure")

// Store loads and saves named tapes. Implementations own file discovery and
// on-disk layout.
type Store interface {
	// Load returns the persisted tape for name, or a new empty tape bound
	// to mode and rule when none exists yet.
	Load(name string, mode Mode, rule MatchRule) (*Tape, error)
	// Save persists the tape, replacing any previous document.
	Save(t *Tape) error
}

// FileStore persists each tape as <Root>/<cleaned name>.yaml.
type FileStore struct {
	Root string
}

// NewFileStore creates a store rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{Root: dir}
}

// Load reads the named tape document from disk. A missing file is not an
// error; it yields a fresh empty tape.
func (s *FileStore) Load(name string, mode Mode, rule MatchRule) (*Tape, error) {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return New(name, mode, rule), nil
		}
		return nil, fmt.Errorf("read tape %q: %w: %w", name, ErrPersistence, err)
	}

	t, err := Unmarshal(data, mode, rule)
	if err != nil {
		return nil, fmt.Errorf("load tape %q: %w: %w", name, ErrPersistence, err)
	}
	// The document's name field is informational; the session name wins so a
	// renamed file keeps working.
	t.name = name
	return t, nil
}

// Save writes the tape document through a temporary file and a rename so a
// failed write never leaves a truncated tape behind.
func (s *FileStore) Save(t *Tape) error {
	data, err := Marshal(t)
	if err != nil {
		return fmt.Errorf("save tape %q: %w: %w", t.Name(), ErrPersistence, err)
	}

	if err := os.MkdirAll(s.Root, 0755); err != nil {
		return fmt.Errorf("create tape directory: %w: %w", ErrPersistence, err)
	}

	f, err := os.CreateTemp(s.Root, cleanFileName(t.Name())+".*.tmp")
	if err != nil {
		return fmt.Errorf("save tape %q: %w: %w", t.Name(), ErrPersistence, err)
	}
	_, werr := f.Write(data)
	cerr := f.Close()
	if werr == nil {
		werr = cerr
	}
	if werr == nil {
		werr = os.Rename(f.Name(), s.path(t.Name()))
	}
	if werr != nil {
		os.Remove(f.Name())
		return fmt.Errorf("save tape %q: %w: %w", t.Name(), ErrPersistence, werr)
	}

	t.mu.Lock()
	t.dirty = false
	t.mu.Unlock()
	return nil
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.Root, cleanFileName(name)+".yaml")
}

// cleanFileName strips characters that are unsafe in filenames and replaces
// spaces with underscores, so session names like "my first tape" map to
// predictable documents.
func cleanFileName(name string) string {
	var result strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') ||
			r == ' ' || r == '-' || r == '_' || r == '.' {
			result.WriteRune(r)
		}
	}
	return strings.ReplaceAll(strings.TrimSpace(result.String()), " ", "_")
}
