package controllers

import (
	"net/http"

	"cmsgo/app/apperrors"
	"cmsgo/app/models"
	"cmsgo/app/render"
	"cmsgo/app/services"

	"pkt.systems/pslog"
)

// SiteOptions configure the public site.
type SiteOptions struct {
	Navbar models.NavbarConfig
	// PageSize is the number of posts per index page. Zero shows every post on page 0.
	PageSize int
	// NotFoundStatus is the status for missing posts. Zero keeps 404.
	NotFoundStatus int
	Logger         pslog.Logger
}

// SiteController renders the public, read-only pages.
type SiteController struct {
	postService *services.PostService
	renderer    render.Renderer
	navbar      models.NavbarConfig
	pageSize    int
	status      apperrors.StatusMapper
	logger      pslog.Logger
}

func NewSiteController(postService *services.PostService, renderer render.Renderer, opts SiteOptions) *SiteController {
	status := apperrors.SiteStatus
	if opts.NotFoundStatus != 0 {
		status = apperrors.StatusMapper{NotFoundStatus: opts.NotFoundStatus}
	}
	if opts.Logger == nil {
		opts.Logger = pslog.NoopLogger()
	}
	return &SiteController{
		postService: postService,
		renderer:    renderer,
		navbar:      opts.Navbar,
		pageSize:    opts.PageSize,
		status:      status,
		logger:      opts.Logger.With("sys", "http.site"),
	}
}

// Index renders page ?page_num= of the post list.
func (sc *SiteController) Index(w http.ResponseWriter, r *http.Request) {
	pageNum, err := queryInt(r, "page_num", 0)
	if err != nil {
		sc.sendError(w, r, err)
		return
	}

	page := models.Pagination{Offset: pageNum, Limit: sc.pageSize}
	if sc.pageSize == 0 {
		page = models.UnboundedPage(pageNum)
	}
	posts, err := sc.postService.ListPosts(r.Context(), page)
	if err != nil {
		sc.sendError(w, r, err)
		return
	}
	sc.render(w, r, render.IndexTemplate, render.IndexPage(posts, sc.navbar, pageNum))
}

func (sc *SiteController) Show(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		sc.sendError(w, r, err)
		return
	}
	post, err := sc.postService.GetPost(r.Context(), id)
	if err != nil {
		sc.sendError(w, r, err)
		return
	}
	sc.render(w, r, render.PostDetailTemplate, render.PostPage(post, sc.navbar))
}

func (sc *SiteController) render(w http.ResponseWriter, r *http.Request, name string, data render.PageData) {
	html, err := sc.renderer.Render(name, data)
	if err != nil {
		sc.sendError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(html))
}

func (sc *SiteController) sendError(w http.ResponseWriter, r *http.Request, err error) {
	sendError(w, r, sc.logger, sc.status, err)
}
