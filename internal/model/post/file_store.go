package post

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// FileStore implements Store on a single JSON document holding the posts and
// their toc. Every call re-reads the file and every mutation rewrites it whole.
//
// There is no locking: two requests doing read-modify-write at the same time
// can lose one of the updates.
type FileStore struct {
	path string
}

// Open returns a FileStore backed by path, creating the file with an empty
// document if it does not exist yet.
func Open(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	s := &FileStore{path: path}
	_, err := os.Stat(path)
	switch {
	case err == nil:
		return s, nil
	case errors.Is(err, fs.ErrNotExist):
		if err := s.save(emptyDocument()); err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
}

// Path returns the backing file location.
func (s *FileStore) Path() string {
	return s.path
}

// List returns the whole document as currently on disk.
func (s *FileStore) List() (Document, error) {
	return s.load()
}

// Add stores p under the next free id.
func (s *FileStore) Add(p Post) (Post, error) {
	doc, err := s.load()
	if err != nil {
		return Post{}, err
	}

	p = doc.insert(p)
	if err := s.save(doc); err != nil {
		return Post{}, err
	}
	return p, nil
}

// FindByID returns the post indexed under id.
func (s *FileStore) FindByID(id int) (Post, error) {
	doc, err := s.load()
	if err != nil {
		return Post{}, err
	}

	pos, err := doc.position(id)
	if err != nil {
		return Post{}, err
	}
	return doc.Posts[pos], nil
}

// Delete removes the post and renumbers the toc.
func (s *FileStore) Delete(id int) error {
	doc, err := s.load()
	if err != nil {
		return err
	}

	if err := doc.remove(id); err != nil {
		return err
	}
	return s.save(doc)
}

// Update merges patch into the stored post and returns the merged result.
func (s *FileStore) Update(id int, patch Patch) (Post, error) {
	doc, err := s.load()
	if err != nil {
		return Post{}, err
	}

	merged, err := doc.merge(id, patch)
	if err != nil {
		return Post{}, err
	}
	if err := s.save(doc); err != nil {
		return Post{}, err
	}
	return merged, nil
}

func (s *FileStore) load() (Document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return Document{}, fmt.Errorf("failed to read %s: %w", s.path, err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("failed to decode %s: %w", s.path, err)
	}
	if doc.TOC == nil {
		doc.TOC = map[string]int{}
	}
	if doc.Posts == nil {
		doc.Posts = []Post{}
	}
	return doc, nil
}

// save refuses to persist a document whose toc is out of sync, then writes it
// through a temp file and rename so readers never see a partial document.
func (s *FileStore) save(doc Document) error {
	if err := doc.verify(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	tmpPath := filepath.Join(filepath.Dir(s.path), "."+filepath.Base(s.path)+"."+uuid.NewString()+".tmp")
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to replace %s: %w", s.path, err)
	}
	return nil
}
