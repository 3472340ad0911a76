package post

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
)

// Post is a single blog entry as persisted and exposed over the API.
type Post struct {
	ID      int    `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Author  string `json:"author"`
	Date    string `json:"date"`
}

// Patch carries a partial update. Nil fields are left untouched.
type Patch struct {
	Title   *string `json:"title,omitempty"`
	Content *string `json:"content,omitempty"`
	Author  *string `json:"author,omitempty"`
	Date    *string `json:"date,omitempty"`
}

// Apply returns p with every non-nil patch field overwritten.
func (p Post) Apply(patch Patch) Post {
	if patch.Title != nil {
		p.Title = *patch.Title
	}
	if patch.Content != nil {
		p.Content = *patch.Content
	}
	if patch.Author != nil {
		p.Author = *patch.Author
	}
	if patch.Date != nil {
		p.Date = *patch.Date
	}
	return p
}

// Document is the on-disk layout: posts in insertion order plus the toc
// mapping each id (decimal string) to its position in Posts.
type Document struct {
	TOC   map[string]int `json:"toc"`
	Posts []Post         `json:"posts"`
}

func emptyDocument() Document {
	return Document{TOC: map[string]int{}, Posts: []Post{}}
}

func tocKey(id int) string {
	return strconv.Itoa(id)
}

// position resolves id through the toc.
func (d Document) position(id int) (int, error) {
	pos, ok := d.TOC[tocKey(id)]
	if !ok {
		return 0, ErrNotFound
	}
	if pos < 0 || pos >= len(d.Posts) || d.Posts[pos].ID != id {
		return 0, fmt.Errorf("%w: toc maps id %d to position %d of %d", ErrCorrupt, id, pos, len(d.Posts))
	}
	return pos, nil
}

// nextID is one past the largest id in use, or 1 for an empty document.
func (d Document) nextID() int {
	maxID := 0
	for _, p := range d.Posts {
		maxID = max(maxID, p.ID)
	}
	return maxID + 1
}

// verify checks that every post is indexed at its exact position and that
// the toc has no stray entries.
func (d Document) verify() error {
	if len(d.TOC) != len(d.Posts) {
		return fmt.Errorf("%w: %d toc entries for %d posts", ErrCorrupt, len(d.TOC), len(d.Posts))
	}
	for i, p := range d.Posts {
		pos, ok := d.TOC[tocKey(p.ID)]
		if !ok || pos != i {
			return fmt.Errorf("%w: post %d at position %d indexed as %d", ErrCorrupt, p.ID, i, pos)
		}
	}
	return nil
}

// insert assigns the next id to p, appends it and indexes it at the tail.
func (d *Document) insert(p Post) Post {
	p.ID = d.nextID()
	d.Posts = append(d.Posts, p)
	d.TOC[tocKey(p.ID)] = len(d.Posts) - 1
	return p
}

// remove drops the post and shifts down the toc position of every post with
// a larger id, since those all sit after it in the sequence.
func (d *Document) remove(id int) error {
	pos, err := d.position(id)
	if err != nil {
		return err
	}

	d.Posts = slices.Delete(d.Posts, pos, pos+1)
	delete(d.TOC, tocKey(id))

	for key, idx := range d.TOC {
		other, err := strconv.Atoi(key)
		if err != nil {
			return fmt.Errorf("%w: non-numeric toc key %q", ErrCorrupt, key)
		}
		if other > id {
			d.TOC[key] = idx - 1
		}
	}
	return nil
}

// merge applies patch to the post indexed under id.
func (d *Document) merge(id int, patch Patch) (Post, error) {
	pos, err := d.position(id)
	if err != nil {
		return Post{}, err
	}

	merged := d.Posts[pos].Apply(patch)
	d.Posts[pos] = merged
	return merged, nil
}

func (d Document) clone() Document {
	return Document{TOC: maps.Clone(d.TOC), Posts: slices.Clone(d.Posts)}
}
