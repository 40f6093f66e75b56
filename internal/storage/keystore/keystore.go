package keystore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"stockpile/internal/storage"
)

// FileKeystore keeps the persisted keys in a single JSON file, the
// process-local analogue of browser localStorage. Every mutation rewrites
// the file so on-disk state always matches the last write.
type FileKeystore struct {
	mu   sync.Mutex
	path string
}

func New(path string) (*FileKeystore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("keystore.New: %w", err)
	}

	return &FileKeystore{path: path}, nil
}

// DefaultPath places the keystore in the user home directory.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".stockpile/credentials.json"
	}

	return filepath.Join(home, ".stockpile", "credentials.json")
}

func (s *FileKeystore) Get(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return "", err
	}

	v, ok := values[key]
	if !ok {
		return "", storage.ErrKeyNotFound
	}

	return v, nil
}

func (s *FileKeystore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return err
	}

	values[key] = value

	return s.save(values)
}

func (s *FileKeystore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return err
	}

	delete(values, key)

	return s.save(values)
}

func (s *FileKeystore) load() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}

		return nil, fmt.Errorf("keystore.load: %w", err)
	}

	values := map[string]string{}
	if err := json.Unmarshal(data, &values); err != nil {
		// corrupted file, start over
		return map[string]string{}, nil
	}

	return values, nil
}

func (s *FileKeystore) save(values map[string]string) error {
	data, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("keystore.save: %w", err)
	}

	// tokens are credentials, keep the file owner-only
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("keystore.save: %w", err)
	}

	return nil
}
