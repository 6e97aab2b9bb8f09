package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"cmsgo/app/apperrors"
	"cmsgo/app/models"
	"cmsgo/app/services"

	"github.com/dustin/go-humanize"
	"pkt.systems/pslog"
)

// DefaultMaxBody caps admin request bodies.
const DefaultMaxBody int64 = 1_000_000

// AdminOptions configure the admin API.
type AdminOptions struct {
	// NotFoundStatus is the status for missing posts. Zero keeps 400.
	NotFoundStatus int
	// MaxBody bounds JSON request bodies in bytes. Zero uses DefaultMaxBody.
	MaxBody int64
	Logger  pslog.Logger
}

// AdminController serves the JSON CRUD API over posts.
type AdminController struct {
	postService *services.PostService
	status      apperrors.StatusMapper
	maxBody     int64
	logger      pslog.Logger
}

type createPostRequest struct {
	Title   string `json:"title"`
	Excerpt string `json:"excerpt"`
	Content string `json:"content"`
}

type postIDResponse struct {
	PostID int `json:"post_id"`
}

func NewAdminController(postService *services.PostService, opts AdminOptions) *AdminController {
	status := apperrors.AdminStatus
	if opts.NotFoundStatus != 0 {
		status = apperrors.StatusMapper{NotFoundStatus: opts.NotFoundStatus}
	}
	if opts.MaxBody <= 0 {
		opts.MaxBody = DefaultMaxBody
	}
	if opts.Logger == nil {
		opts.Logger = pslog.NoopLogger()
	}
	return &AdminController{
		postService: postService,
		status:      status,
		maxBody:     opts.MaxBody,
		logger:      opts.Logger.With("sys", "http.admin"),
	}
}

// Index lists posts for ?offset=&limit=, defaulting to the first ten.
func (ac *AdminController) Index(w http.ResponseWriter, r *http.Request) {
	offset, err := queryInt(r, "offset", models.DefaultOffset)
	if err != nil {
		ac.sendError(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit", models.DefaultLimit)
	if err != nil {
		ac.sendError(w, r, err)
		return
	}

	posts, err := ac.postService.ListPosts(r.Context(), models.Pagination{Offset: offset, Limit: limit})
	if err != nil {
		ac.sendError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, posts)
}

func (ac *AdminController) Show(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		ac.sendError(w, r, err)
		return
	}
	post, err := ac.postService.GetPost(r.Context(), id)
	if err != nil {
		ac.sendError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, post)
}

// Create stores a post and answers with its id.
func (ac *AdminController) Create(w http.ResponseWriter, r *http.Request) {
	var req createPostRequest
	if err := ac.decode(w, r, &req); err != nil {
		ac.sendError(w, r, err)
		return
	}

	id, err := ac.postService.CreatePost(r.Context(), req.Title, req.Excerpt, req.Content)
	if err != nil {
		ac.sendError(w, r, err)
		return
	}
	requestLogger(r, ac.logger).Info("post.created", "post_id", id)
	sendJSON(w, http.StatusOK, postIDResponse{PostID: id})
}

// Update replaces the fields of an existing post.
func (ac *AdminController) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		ac.sendError(w, r, err)
		return
	}

	var post models.Post
	if err := ac.decode(w, r, &post); err != nil {
		ac.sendError(w, r, err)
		return
	}
	post.ID = id

	if err := ac.postService.UpdatePost(r.Context(), &post); err != nil {
		ac.sendError(w, r, err)
		return
	}
	requestLogger(r, ac.logger).Info("post.updated", "post_id", id)
	sendJSON(w, http.StatusOK, post)
}

func (ac *AdminController) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		ac.sendError(w, r, err)
		return
	}
	deleted, err := ac.postService.DeletePost(r.Context(), id)
	if err != nil {
		ac.sendError(w, r, err)
		return
	}
	requestLogger(r, ac.logger).Info("post.deleted", "post_id", deleted)
	sendJSON(w, http.StatusOK, postIDResponse{PostID: deleted})
}

func (ac *AdminController) decode(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, ac.maxBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperrors.NewValidation(fmt.Sprintf("request body exceeds %s", humanize.Bytes(uint64(tooLarge.Limit))))
		}
		return apperrors.NewValidation("invalid request body: " + err.Error())
	}
	return nil
}

func (ac *AdminController) sendError(w http.ResponseWriter, r *http.Request, err error) {
	sendError(w, r, ac.logger, ac.status, err)
}
