package post

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/zhouzirui/masterblog/backend/internal/model/post"
)

// Sort keys and directions accepted by List.
const (
	SortTitle   = "title"
	SortContent = "content"
	SortAuthor  = "author"
	SortDate    = "date"

	DirectionAsc  = "asc"
	DirectionDesc = "desc"
)

// dateLayout accepts YYYY-MM-DD with or without zero-padded month and day.
const dateLayout = "2006-1-2"

var sortFields = map[string]func(post.Post) string{
	SortTitle:   func(p post.Post) string { return p.Title },
	SortContent: func(p post.Post) string { return p.Content },
	SortAuthor:  func(p post.Post) string { return p.Author },
	SortDate:    func(p post.Post) string { return p.Date },
}

// ListOptions holds the raw sort and direction query values. Both empty means
// insertion order.
type ListOptions struct {
	Sort      string
	Direction string
}

// Sorted reports whether any ordering was requested.
func (o ListOptions) Sorted() bool {
	return o.Sort != "" || o.Direction != ""
}

// Validate rejects a lone sort or direction, unknown keys and unknown
// directions.
func (o ListOptions) Validate() error {
	if !o.Sorted() {
		return nil
	}
	if o.Sort == "" || o.Direction == "" {
		return fmt.Errorf("%w: sort and direction must be given together", ErrInvalidQuery)
	}
	if _, ok := sortFields[o.Sort]; !ok {
		return fmt.Errorf("%w: unsupported sort %q", ErrInvalidQuery, o.Sort)
	}
	if o.Direction != DirectionAsc && o.Direction != DirectionDesc {
		return fmt.Errorf("%w: unsupported direction %q", ErrInvalidQuery, o.Direction)
	}
	return nil
}

type sortItem struct {
	post post.Post
	text string
	date time.Time
}

// sortPosts orders posts stably. Dates compare as calendar days, everything
// else as plain strings.
func sortPosts(posts []post.Post, opts ListOptions) ([]post.Post, error) {
	field := sortFields[opts.Sort]
	byDate := opts.Sort == SortDate

	items := make([]sortItem, len(posts))
	for i, p := range posts {
		items[i] = sortItem{post: p, text: field(p)}
		if byDate {
			d, err := time.Parse(dateLayout, p.Date)
			if err != nil {
				return nil, fmt.Errorf("%w: post %d has %q", ErrInvalidDate, p.ID, p.Date)
			}
			items[i].date = d
		}
	}

	desc := opts.Direction == DirectionDesc
	slices.SortStableFunc(items, func(a, b sortItem) int {
		var c int
		if byDate {
			c = a.date.Compare(b.date)
		} else {
			c = strings.Compare(a.text, b.text)
		}
		if desc {
			return -c
		}
		return c
	})

	sorted := make([]post.Post, len(items))
	for i, item := range items {
		sorted[i] = item.post
	}
	return sorted, nil
}

// Filter narrows a search. Empty fields are ignored; the rest must all match.
type Filter struct {
	Title   string
	Content string
	Author  string
	Date    string
}

// Match reports whether p satisfies every non-empty field. Title, content and
// author ignore case; date is matched as-is.
func (f Filter) Match(p post.Post) bool {
	if f.Title != "" && !containsFold(p.Title, f.Title) {
		return false
	}
	if f.Content != "" && !containsFold(p.Content, f.Content) {
		return false
	}
	if f.Author != "" && !containsFold(p.Author, f.Author) {
		return false
	}
	if f.Date != "" && !strings.Contains(p.Date, f.Date) {
		return false
	}
	return true
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
