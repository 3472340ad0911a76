package post

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/zhouzirui/masterblog/backend/internal/model/post"
)

var (
	// ErrValidation is returned when a create payload lacks required fields.
	ErrValidation = errors.New("one or more required fields are missing")
	// ErrInvalidQuery is returned for an unsupported sort or direction.
	ErrInvalidQuery = errors.New("wrong query parameters")
	// ErrInvalidDate is returned when a stored date cannot be parsed for sorting.
	ErrInvalidDate = errors.New("post date is not YYYY-MM-DD")
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// CreateInput is the body accepted when creating a post. Fields are pointers
// so that presence, not content, is what gets validated.
type CreateInput struct {
	Title   *string `json:"title" validate:"required"`
	Content *string `json:"content" validate:"required"`
	Author  *string `json:"author" validate:"required"`
	Date    *string `json:"date" validate:"required"`
}

// Service implements post listing, search and mutation on top of a Store.
type Service struct {
	store post.Store
}

// NewService wires a Service to the given store.
func NewService(store post.Store) *Service {
	return &Service{store: store}
}

// List returns every post, sorted when opts asks for it.
func (s *Service) List(_ context.Context, opts ListOptions) ([]post.Post, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	doc, err := s.store.List()
	if err != nil {
		return nil, err
	}

	if !opts.Sorted() {
		return doc.Posts, nil
	}
	return sortPosts(doc.Posts, opts)
}

// Search returns the posts matching every non-empty filter field.
func (s *Service) Search(_ context.Context, filter Filter) ([]post.Post, error) {
	doc, err := s.store.List()
	if err != nil {
		return nil, err
	}

	matched := make([]post.Post, 0, len(doc.Posts))
	for _, p := range doc.Posts {
		if filter.Match(p) {
			matched = append(matched, p)
		}
	}
	return matched, nil
}

// Get returns a single post.
func (s *Service) Get(_ context.Context, id int) (post.Post, error) {
	return s.store.FindByID(id)
}

// Create validates in and stores it under a freshly assigned id.
func (s *Service) Create(_ context.Context, in CreateInput) (post.Post, error) {
	if err := validate.Struct(in); err != nil {
		return post.Post{}, formatValidationError(err)
	}

	return s.store.Add(post.Post{
		Title:   *in.Title,
		Content: *in.Content,
		Author:  *in.Author,
		Date:    *in.Date,
	})
}

// Update merges patch into the post and returns it as it was before and after
// the write.
func (s *Service) Update(_ context.Context, id int, patch post.Patch) (before, after post.Post, err error) {
	before, err = s.store.FindByID(id)
	if err != nil {
		return post.Post{}, post.Post{}, err
	}

	after, err = s.store.Update(id, patch)
	if err != nil {
		return post.Post{}, post.Post{}, err
	}
	return before, after, nil
}

// Delete removes a post.
func (s *Service) Delete(_ context.Context, id int) error {
	return s.store.Delete(id)
}

func formatValidationError(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	fields := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		fields = append(fields, e.Field())
	}
	return fmt.Errorf("%w: %s", ErrValidation, strings.Join(fields, ", "))
}
