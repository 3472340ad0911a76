package post

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/zhouzirui/masterblog/backend/internal/metrics"
	"github.com/zhouzirui/masterblog/backend/internal/model/post"
	postService "github.com/zhouzirui/masterblog/backend/internal/service/post"
)

type fixture struct {
	router  *chi.Mux
	store   *post.FileStore
	metrics *metrics.Collector
}

func setupRouter(t *testing.T, seed ...post.Post) fixture {
	t.Helper()
	store, err := post.Open(filepath.Join(t.TempDir(), "posts.json"))
	require.NoError(t, err)
	for _, p := range seed {
		_, err := store.Add(p)
		require.NoError(t, err)
	}

	collector := metrics.NewCollector("test")
	handler := New(postService.NewService(store), collector, zap.NewNop())

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return fixture{router: r, store: store, metrics: collector}
}

func (f fixture) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		payload, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	f.router.ServeHTTP(resp, req)
	return resp
}

func decode[T any](t *testing.T, resp *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &v), resp.Body.String())
	return v
}

func seedPosts() []post.Post {
	return []post.Post{
		{Title: "ABCdef", Content: "first body", Author: "Alice", Date: "2020-01-01"},
		{Title: "xyz", Content: "second body", Author: "Bob", Date: "2019-05-05"},
	}
}

func TestListPosts(t *testing.T) {
	f := setupRouter(t, seedPosts()...)

	resp := f.do(t, http.MethodGet, "/posts", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "application/json", resp.Header().Get("Content-Type"))

	posts := decode[[]post.Post](t, resp)
	require.Len(t, posts, 2)
	assert.Equal(t, 1, posts[0].ID)
	assert.Equal(t, 2, posts[1].ID)
}

func TestListPostsEmpty(t *testing.T) {
	f := setupRouter(t)

	resp := f.do(t, http.MethodGet, "/posts", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `[]`, resp.Body.String())
}

func TestListPostsSortedByDate(t *testing.T) {
	f := setupRouter(t, seedPosts()...)

	resp := f.do(t, http.MethodGet, "/posts?sort=date&direction=asc", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	posts := decode[[]post.Post](t, resp)
	require.Len(t, posts, 2)
	assert.Equal(t, "2019-05-05", posts[0].Date)
	assert.Equal(t, "2020-01-01", posts[1].Date)
}

func TestListPostsBadQuery(t *testing.T) {
	f := setupRouter(t, seedPosts()...)

	for _, target := range []string{
		"/posts?sort=id&direction=asc",
		"/posts?sort=title&direction=sideways",
		"/posts?sort=title",
		"/posts?direction=desc",
	} {
		resp := f.do(t, http.MethodGet, target, nil)
		assert.Equal(t, http.StatusBadRequest, resp.Code, target)
		assert.Contains(t, decode[map[string]string](t, resp), "error", target)
	}
}

func TestCreatePost(t *testing.T) {
	f := setupRouter(t, seedPosts()...)

	resp := f.do(t, http.MethodPost, "/posts", map[string]string{
		"title": "Third", "content": "body", "author": "Carol", "date": "2023-06-07",
	})
	require.Equal(t, http.StatusCreated, resp.Code)

	created := decode[post.Post](t, resp)
	assert.Equal(t, post.Post{ID: 3, Title: "Third", Content: "body", Author: "Carol", Date: "2023-06-07"}, created)

	stored, err := f.store.FindByID(3)
	require.NoError(t, err)
	assert.Equal(t, created, stored)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.PostsCreated))
}

func TestCreatePostMissingField(t *testing.T) {
	f := setupRouter(t)

	resp := f.do(t, http.MethodPost, "/posts", map[string]string{
		"title": "t", "content": "c", "author": "a",
	})
	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, decode[map[string]string](t, resp)["error"], "date")

	doc, err := f.store.List()
	require.NoError(t, err)
	assert.Empty(t, doc.Posts)
}

func TestCreatePostMalformedBody(t *testing.T) {
	f := setupRouter(t)

	for _, body := range []string{
		`{"title":`,
		`[1,2]`,
		`{"title": 5, "content": "c", "author": "a", "date": "d"}`,
		`{"title": "t", "content": "c", "author": "a", "date": "d"} trailing`,
		`{"title": "t", "content": "c", "author": "a", "date": "d"}{}`,
	} {
		resp := f.do(t, http.MethodPost, "/posts", body)
		assert.Equal(t, http.StatusBadRequest, resp.Code, body)
	}

	doc, err := f.store.List()
	require.NoError(t, err)
	assert.Empty(t, doc.Posts)
}

func TestCreatePostTrailingWhitespace(t *testing.T) {
	f := setupRouter(t)

	resp := f.do(t, http.MethodPost, "/posts", "{\"title\": \"t\", \"content\": \"c\", \"author\": \"a\", \"date\": \"d\"}\n  ")
	assert.Equal(t, http.StatusCreated, resp.Code)
}

func TestGetPost(t *testing.T) {
	f := setupRouter(t, seedPosts()...)

	resp := f.do(t, http.MethodGet, "/posts/2", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "xyz", decode[post.Post](t, resp).Title)

	resp = f.do(t, http.MethodGet, "/posts/9", nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)

	for _, target := range []string{"/posts/abc", "/posts/+1", "/posts/-1", "/posts/1.0"} {
		resp = f.do(t, http.MethodGet, target, nil)
		assert.Equal(t, http.StatusNotFound, resp.Code, target)
	}
	resp = f.do(t, http.MethodDelete, "/posts/+1", nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)

	_, err := f.store.FindByID(1)
	require.NoError(t, err)
}

func TestDeletePost(t *testing.T) {
	f := setupRouter(t, seedPosts()...)

	resp := f.do(t, http.MethodDelete, "/posts/1", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t,
		map[string]string{"message": "Post with id 1 has been deleted successfully."},
		decode[map[string]string](t, resp))

	remaining, err := f.store.FindByID(2)
	require.NoError(t, err)
	assert.Equal(t, "xyz", remaining.Title)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.PostsDeleted))
}

func TestDeletePostNotFound(t *testing.T) {
	f := setupRouter(t)

	resp := f.do(t, http.MethodDelete, "/posts/1", nil)
	require.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, map[string]string{"error": "Post was not found"}, decode[map[string]string](t, resp))
}

func TestUpdatePostReturnsPreviousVersion(t *testing.T) {
	f := setupRouter(t, seedPosts()...)

	resp := f.do(t, http.MethodPut, "/posts/1", map[string]string{"title": "new"})
	require.Equal(t, http.StatusOK, resp.Code)

	echoed := decode[post.Post](t, resp)
	assert.Equal(t, "ABCdef", echoed.Title)
	assert.Equal(t, 1, echoed.ID)

	stored, err := f.store.FindByID(1)
	require.NoError(t, err)
	assert.Equal(t, "new", stored.Title)
	assert.Equal(t, "first body", stored.Content)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.PostsUpdated))
}

func TestUpdatePostRejectsTrailingData(t *testing.T) {
	f := setupRouter(t, seedPosts()...)

	resp := f.do(t, http.MethodPut, "/posts/1", `{"title": "new"} extra`)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	stored, err := f.store.FindByID(1)
	require.NoError(t, err)
	assert.Equal(t, "ABCdef", stored.Title)
}

func TestUpdatePostNullFieldIsIgnored(t *testing.T) {
	f := setupRouter(t, seedPosts()...)

	resp := f.do(t, http.MethodPut, "/posts/1", `{"title": null, "author": "Zed"}`)
	require.Equal(t, http.StatusOK, resp.Code)

	stored, err := f.store.FindByID(1)
	require.NoError(t, err)
	assert.Equal(t, "ABCdef", stored.Title)
	assert.Equal(t, "Zed", stored.Author)
}

func TestSortAfterUpdatingToUnpaddedDate(t *testing.T) {
	f := setupRouter(t, seedPosts()...)

	resp := f.do(t, http.MethodPut, "/posts/2", map[string]string{"date": "2021-1-5"})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = f.do(t, http.MethodGet, "/posts?sort=date&direction=asc", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	posts := decode[[]post.Post](t, resp)
	require.Len(t, posts, 2)
	assert.Equal(t, "2020-01-01", posts[0].Date)
	assert.Equal(t, "2021-1-5", posts[1].Date)
}

func TestUpdatePostNotFound(t *testing.T) {
	f := setupRouter(t)

	resp := f.do(t, http.MethodPut, "/posts/4", map[string]string{"title": "new"})
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestSearchPosts(t *testing.T) {
	f := setupRouter(t, seedPosts()...)

	resp := f.do(t, http.MethodGet, "/posts/search?title=abc", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	posts := decode[[]post.Post](t, resp)
	require.Len(t, posts, 1)
	assert.Equal(t, "ABCdef", posts[0].Title)

	resp = f.do(t, http.MethodGet, "/posts/search?content=BODY&author=bob", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	posts = decode[[]post.Post](t, resp)
	require.Len(t, posts, 1)
	assert.Equal(t, "xyz", posts[0].Title)

	resp = f.do(t, http.MethodGet, "/posts/search", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Len(t, decode[[]post.Post](t, resp), 2)

	resp = f.do(t, http.MethodGet, "/posts/search?date=1999", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `[]`, resp.Body.String())
}

func TestStoreFailureIsInternalError(t *testing.T) {
	f := setupRouter(t, seedPosts()...)
	require.NoError(t, os.WriteFile(f.store.Path(), []byte("garbage"), 0o644))

	resp := f.do(t, http.MethodGet, "/posts", nil)
	require.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.Equal(t, map[string]string{"error": "internal server error"}, decode[map[string]string](t, resp))
}
