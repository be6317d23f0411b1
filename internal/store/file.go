package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"elitedashboard/server/internal/models"

	"github.com/sirupsen/logrus"
)

// FileStore keeps the record collection as a single pretty-printed JSON array.
// Every call reads the whole file; Append rewrites it.
type FileStore struct {
	path   string
	logger *logrus.Logger
	mu     sync.Mutex
}

// NewFileStore creates a store backed by path and initializes the file.
func NewFileStore(path string, logger *logrus.Logger) (*FileStore, error) {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	s := &FileStore{path: path, logger: logger}
	if err := s.Initialize(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// Initialize writes an empty collection if the backing file does not exist.
func (s *FileStore) Initialize() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return NewReadError("stat", s.path, err)
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return NewWriteError("mkdir", dir, err)
		}
	}
	if err := os.WriteFile(s.path, []byte("[]"), 0644); err != nil {
		return NewWriteError("init", s.path, err)
	}

	s.logger.WithField("path", s.path).Info("Initialized empty record file")
	return nil
}

// List returns every stored record in insertion order. A missing file reads
// as an empty collection.
func (s *FileStore) List() ([]models.PropertyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.readFile()
	if err != nil {
		return nil, err
	}

	records := []models.PropertyRecord{}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, NewReadError("parse", s.path, err)
	}
	if records == nil {
		// a literal null in the file
		records = []models.PropertyRecord{}
	}
	return records, nil
}

// Append adds record at the end of the collection. Existing entries are
// carried over exactly as stored.
func (s *FileStore) Append(record models.PropertyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.readFile()
	if err != nil {
		return err
	}

	var current []json.RawMessage
	if err := json.Unmarshal(data, &current); err != nil {
		return NewReadError("parse", s.path, err)
	}

	entry, err := encodeJSON(record, "")
	if err != nil {
		return NewWriteError("encode", s.path, err)
	}
	current = append(current, entry)

	out, err := encodeJSON(current, "  ")
	if err != nil {
		return NewWriteError("encode", s.path, err)
	}

	if err := s.writeFile(out); err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"path":    s.path,
		"records": len(current),
	}).Debug("Appended record")
	return nil
}

// encodeJSON marshals v without HTML escaping so "&", "<" and ">" are stored
// as written.
func encodeJSON(v any, indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func (s *FileStore) readFile() ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []byte("[]"), nil
	}
	if err != nil {
		return nil, NewReadError("read", s.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, NewReadError("parse", s.path, errors.New("empty file"))
	}
	return data, nil
}

// writeFile replaces the backing file atomically via a temp file in the same
// directory.
func (s *FileStore) writeFile(data []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return NewWriteError("mkdir", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return NewWriteError("write", s.path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return NewWriteError("write", s.path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return NewWriteError("write", s.path, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return NewWriteError("write", s.path, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return NewWriteError("rename", s.path, err)
	}
	return nil
}
