package post

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/zhouzirui/masterblog/backend/internal/metrics"
	"github.com/zhouzirui/masterblog/backend/internal/model/post"
	postService "github.com/zhouzirui/masterblog/backend/internal/service/post"
	"github.com/zhouzirui/masterblog/backend/pkg/utils"
)

const notFoundMessage = "Post was not found"

// Handler 帖子服务的HTTP处理器
type Handler struct {
	svc     *postService.Service
	metrics *metrics.Collector
	logger  *zap.Logger
}

// New 创建帖子处理器
func New(svc *postService.Service, collector *metrics.Collector, logger *zap.Logger) *Handler {
	return &Handler{
		svc:     svc,
		metrics: collector,
		logger:  logger,
	}
}

// RegisterRoutes 注册帖子相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/posts", func(r chi.Router) {
		r.Get("/", h.handleListPosts)
		r.Post("/", h.handleCreatePost)
		r.Get("/search", h.handleSearchPosts)
		r.Get("/{postID}", h.handleGetPost)
		r.Put("/{postID}", h.handleUpdatePost)
		r.Delete("/{postID}", h.handleDeletePost)
	})
}

// handleListPosts 列出所有帖子，可按 sort/direction 排序
func (h *Handler) handleListPosts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	opts := postService.ListOptions{
		Sort:      query.Get("sort"),
		Direction: query.Get("direction"),
	}

	posts, err := h.svc.List(r.Context(), opts)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, posts)
}

// handleCreatePost 创建帖子
func (h *Handler) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	var payload postService.CreateInput
	if err := decodeBody(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.svc.Create(r.Context(), payload)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.metrics.PostsCreated.Inc()
	utils.RespondJSON(w, http.StatusCreated, created)
}

// handleSearchPosts 按字段子串过滤帖子
func (h *Handler) handleSearchPosts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := postService.Filter{
		Title:   query.Get("title"),
		Content: query.Get("content"),
		Author:  query.Get("author"),
		Date:    query.Get("date"),
	}

	posts, err := h.svc.Search(r.Context(), filter)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, posts)
}

// handleGetPost 获取单个帖子
func (h *Handler) handleGetPost(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(w, r)
	if !ok {
		return
	}

	p, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, p)
}

// handleUpdatePost 更新帖子的部分字段。
//
// The response body is the post as it was before the update, which is what
// existing clients of this API expect.
func (h *Handler) handleUpdatePost(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(w, r)
	if !ok {
		return
	}

	var patch post.Patch
	if err := decodeBody(r, &patch); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	before, _, err := h.svc.Update(r.Context(), id, patch)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.metrics.PostsUpdated.Inc()
	utils.RespondJSON(w, http.StatusOK, before)
}

// handleDeletePost 删除帖子
func (h *Handler) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(w, r)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.metrics.PostsDeleted.Inc()
	utils.RespondMessage(w, http.StatusOK, fmt.Sprintf("Post with id %d has been deleted successfully.", id))
}

// decodeBody reads exactly one JSON value from the request body.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("unexpected data after JSON body")
	}
	return nil
}

// postID parses the {postID} URL parameter. Only plain digits can name a post;
// anything else is reported as not found.
func postID(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := chi.URLParam(r, "postID")
	id, err := strconv.Atoi(raw)
	if err != nil || raw[0] < '0' || raw[0] > '9' {
		utils.RespondError(w, http.StatusNotFound, notFoundMessage)
		return 0, false
	}
	return id, true
}

func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, post.ErrNotFound):
		utils.RespondError(w, http.StatusNotFound, notFoundMessage)
	case errors.Is(err, postService.ErrValidation), errors.Is(err, postService.ErrInvalidQuery):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("post request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("requestID", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
		utils.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}
