package post

import "sync"

// MemoryStore implements Store with an in-memory document, suitable for
// throwaway local runs and tests. Nothing survives a restart.
type MemoryStore struct {
	mu  sync.RWMutex
	doc Document
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied posts,
// which receive ids in order starting at 1.
func NewMemoryStore(items []Post) *MemoryStore {
	doc := emptyDocument()
	for _, p := range items {
		doc.insert(p)
	}
	return &MemoryStore{doc: doc}
}

// List returns a copy of the current document.
func (s *MemoryStore) List() (Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.clone(), nil
}

// Add stores p under the next free id.
func (s *MemoryStore) Add(p Post) (Post, error) {
	var added Post
	err := s.mutate(func(doc *Document) error {
		added = doc.insert(p)
		return nil
	})
	return added, err
}

// FindByID looks up a post by identifier.
func (s *MemoryStore) FindByID(id int) (Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pos, err := s.doc.position(id)
	if err != nil {
		return Post{}, err
	}
	return s.doc.Posts[pos], nil
}

// Delete removes the post and renumbers the toc.
func (s *MemoryStore) Delete(id int) error {
	return s.mutate(func(doc *Document) error {
		return doc.remove(id)
	})
}

// Update merges patch into the stored post and returns the merged result.
func (s *MemoryStore) Update(id int, patch Patch) (Post, error) {
	var merged Post
	err := s.mutate(func(doc *Document) error {
		var err error
		merged, err = doc.merge(id, patch)
		return err
	})
	return merged, err
}

// mutate applies fn to a copy and only commits it if the toc still verifies.
func (s *MemoryStore) mutate(fn func(doc *Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.doc.clone()
	if err := fn(&next); err != nil {
		return err
	}
	if err := next.verify(); err != nil {
		return err
	}
	s.doc = next
	return nil
}

// Seed provides a few sample posts for a fresh in-memory store.
func Seed() []Post {
	return []Post{
		{
			Title:   "First post",
			Content: "This is the first post.",
			Author:  "Admin",
			Date:    "2023-06-01",
		},
		{
			Title:   "Second post",
			Content: "This is the second post.",
			Author:  "Admin",
			Date:    "2023-06-02",
		},
		{
			Title:   "Notes on flat-file storage",
			Content: "Keeping an id index next to the posts makes lookups cheap.",
			Author:  "Editor",
			Date:    "2023-07-15",
		},
	}
}
