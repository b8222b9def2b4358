// Package store persists recorded action sequences as JSON documents on
// disk. Writes are atomic (temp file plus rename) so a crashed save never
// leaves a half written sequence behind.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/webloop/webloop/api/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const fileExt = ".json"

// Sequence is the on-disk document: a named action list with capture
// metadata.
type Sequence struct {
	Name       string           `json:"name"`
	URL        string           `json:"url,omitempty"`
	RecordedAt time.Time        `json:"recorded_at"`
	Actions    []schemas.Action `json:"actions"`
}

// Store reads and writes sequences under a single directory.
type Store struct {
	dir string
	log *zap.Logger
}

// New creates the sequence directory if needed and returns a store over it.
func New(dir string, logger *zap.Logger) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("store directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create sequence directory %q: %w", dir, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{dir: dir, log: logger.Named("store")}, nil
}

// Save validates and writes a sequence. An existing sequence with the same
// name is replaced.
func (s *Store) Save(seq *Sequence) error {
	if err := validateName(seq.Name); err != nil {
		return err
	}
	if err := schemas.ValidateSequence(seq.Actions, 0); err != nil {
		return fmt.Errorf("sequence %q: %w", seq.Name, err)
	}
	if seq.RecordedAt.IsZero() {
		seq.RecordedAt = time.Now().UTC()
	}

	data, err := json.MarshalIndent(seq, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode sequence %q: %w", seq.Name, err)
	}

	final := s.path(seq.Name)
	tmp, err := os.CreateTemp(s.dir, seq.Name+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write sequence %q: %w", seq.Name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, final); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to finalize sequence %q: %w", seq.Name, err)
	}

	s.log.Info("Sequence saved",
		zap.String("name", seq.Name),
		zap.Int("actions", len(seq.Actions)),
		zap.String("path", final))
	return nil
}

// Load reads a sequence by name and validates it before returning. A
// missing sequence surfaces schemas.ErrNotFound.
func (s *Store) Load(name string) (*Sequence, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("sequence %q: %w", name, schemas.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read sequence %q: %w", name, err)
	}
	var seq Sequence
	if err := json.Unmarshal(data, &seq); err != nil {
		return nil, fmt.Errorf("failed to decode sequence %q: %w", name, err)
	}
	if err := schemas.ValidateSequence(seq.Actions, 0); err != nil {
		return nil, fmt.Errorf("sequence %q: %w", name, err)
	}
	return &seq, nil
}

// Delete removes a stored sequence. Deleting a missing sequence surfaces
// schemas.ErrNotFound.
func (s *Store) Delete(name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	if err := os.Remove(s.path(name)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("sequence %q: %w", name, schemas.ErrNotFound)
		}
		return fmt.Errorf("failed to delete sequence %q: %w", name, err)
	}
	s.log.Info("Sequence deleted", zap.String("name", name))
	return nil
}

// List returns the names of all stored sequences, sorted.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list sequences: %w", err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), fileExt) {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), fileExt))
	}
	sort.Strings(names)
	return names, nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name+fileExt)
}

// validateName rejects names that would escape the sequence directory or
// produce awkward filenames.
func validateName(name string) error {
	if name == "" {
		return &schemas.ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if strings.ContainsAny(name, `/\`) || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return &schemas.ValidationError{Field: "name", Reason: fmt.Sprintf("invalid sequence name %q", name)}
	}
	return nil
}
