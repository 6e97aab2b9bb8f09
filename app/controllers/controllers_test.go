package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cmsgo/app/apperrors"
	"cmsgo/app/models"
	"cmsgo/app/render"
	"cmsgo/app/repositories/mock"
	"cmsgo/app/services"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pkt.systems/pslog"
)

func setupTestService() (*services.PostService, *mock.PostRepository) {
	repo := mock.NewPostRepository()
	return services.NewPostService(repo, pslog.NoopLogger()), repo
}

func setupAdminRouter(controller *AdminController) *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/posts", controller.Index).Methods(http.MethodGet)
	router.HandleFunc("/posts", controller.Create).Methods(http.MethodPost)
	router.HandleFunc("/posts/{id}", controller.Show).Methods(http.MethodGet)
	router.HandleFunc("/posts/{id}", controller.Update).Methods(http.MethodPut)
	router.HandleFunc("/posts/{id}", controller.Delete).Methods(http.MethodDelete)
	return router
}

func setupSiteRouter(controller *SiteController) *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/", controller.Index).Methods(http.MethodGet)
	router.HandleFunc("/post/{id}", controller.Show).Methods(http.MethodGet)
	return router
}

func do(router http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) apperrors.Body {
	t.Helper()
	var body apperrors.Body
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, w.Code, body.StatusCode)
	return body
}

func TestAdminController(t *testing.T) {
	service, repo := setupTestService()
	router := setupAdminRouter(NewAdminController(service, AdminOptions{}))

	var createdID int
	t.Run("create post", func(t *testing.T) {
		w := do(router, http.MethodPost, "/posts", `{"title":"Hello","excerpt":"Short","content":"**Body**"}`)
		require.Equal(t, http.StatusOK, w.Code)

		var resp map[string]int
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		createdID = resp["post_id"]
		assert.Equal(t, 1, createdID)
	})

	t.Run("get post", func(t *testing.T) {
		w := do(router, http.MethodGet, "/posts/1", "")
		require.Equal(t, http.StatusOK, w.Code)

		var post models.Post
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &post))
		assert.Equal(t, models.Post{ID: createdID, Title: "Hello", Excerpt: "Short", Content: "**Body**"}, post)
	})

	t.Run("create with empty field is rejected", func(t *testing.T) {
		calls := repo.Calls()
		w := do(router, http.MethodPost, "/posts", `{"title":"","excerpt":"E","content":"C"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "cannot have empty post title", decodeError(t, w).ErrMsg)
		assert.Equal(t, calls, repo.Calls())
	})

	t.Run("malformed json", func(t *testing.T) {
		w := do(router, http.MethodPost, "/posts", `{"title":`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, decodeError(t, w).ErrMsg, "invalid request body")
	})

	t.Run("invalid id", func(t *testing.T) {
		w := do(router, http.MethodGet, "/posts/abc", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "invalid post id", decodeError(t, w).ErrMsg)
	})

	t.Run("missing post maps to 400", func(t *testing.T) {
		w := do(router, http.MethodGet, "/posts/999", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "could not find post id in database", decodeError(t, w).ErrMsg)
	})

	t.Run("update post", func(t *testing.T) {
		w := do(router, http.MethodPut, "/posts/1", `{"title":"New","excerpt":"E","content":"C"}`)
		require.Equal(t, http.StatusOK, w.Code)

		var post models.Post
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &post))
		assert.Equal(t, 1, post.ID)
		assert.Equal(t, "New", post.Title)
	})

	t.Run("list with defaults", func(t *testing.T) {
		for i := 0; i < 12; i++ {
			do(router, http.MethodPost, "/posts", `{"title":"T","excerpt":"E","content":"C"}`)
		}
		w := do(router, http.MethodGet, "/posts", "")
		require.Equal(t, http.StatusOK, w.Code)

		var posts []models.Post
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &posts))
		require.Len(t, posts, 9)
		assert.Equal(t, 1, posts[0].ID)
		assert.Equal(t, 9, posts[8].ID)
	})

	t.Run("list second page", func(t *testing.T) {
		w := do(router, http.MethodGet, "/posts?offset=1&limit=5", "")
		require.Equal(t, http.StatusOK, w.Code)

		var posts []models.Post
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &posts))
		require.Len(t, posts, 5)
		assert.Equal(t, 5, posts[0].ID)
	})

	t.Run("empty page is an empty array", func(t *testing.T) {
		w := do(router, http.MethodGet, "/posts?offset=50", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[]`, w.Body.String())
	})

	t.Run("huge offset is an empty page", func(t *testing.T) {
		w := do(router, http.MethodGet, "/posts?offset=2305843009213693952&limit=8", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[]`, w.Body.String())
	})

	t.Run("negative offset", func(t *testing.T) {
		w := do(router, http.MethodGet, "/posts?offset=-1", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "page number cannot be negative", decodeError(t, w).ErrMsg)
	})

	t.Run("delete then get", func(t *testing.T) {
		w := do(router, http.MethodDelete, "/posts/1", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"post_id":1}`, w.Body.String())

		w = do(router, http.MethodGet, "/posts/1", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = do(router, http.MethodDelete, "/posts/1", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("store failure is 500", func(t *testing.T) {
		repo.FailWith(assert.AnError)
		defer repo.FailWith(nil)

		w := do(router, http.MethodGet, "/posts/2", "")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, assert.AnError.Error(), decodeError(t, w).ErrMsg)
	})
}

func TestAdminControllerLimits(t *testing.T) {
	service, _ := setupTestService()

	t.Run("oversized body", func(t *testing.T) {
		router := setupAdminRouter(NewAdminController(service, AdminOptions{MaxBody: 16}))
		w := do(router, http.MethodPost, "/posts", `{"title":"a very long title","excerpt":"E","content":"C"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, decodeError(t, w).ErrMsg, "request body exceeds")
	})

	t.Run("configured not found status", func(t *testing.T) {
		router := setupAdminRouter(NewAdminController(service, AdminOptions{NotFoundStatus: http.StatusNotFound}))
		w := do(router, http.MethodGet, "/posts/77", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func writeViews(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		render.IndexTemplate:      `{{ range .Navbar.Links }}[{{ .Name }}]{{ end }}{{ range .Posts }}<li>{{ .ID }} {{ .Title }}</li>{{ end }}`,
		render.PostDetailTemplate: `<h1>{{ .Post.Title }}</h1>{{ .Post.Content | markdown }}`,
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name+render.DefaultExt), []byte(body), 0o644))
	}
	return dir
}

func TestSiteController(t *testing.T) {
	service, _ := setupTestService()
	navbar := models.NavbarConfig{Links: []models.NavLink{{Name: "Home", Href: "/"}}}
	renderer := render.NewFileRenderer(writeViews(t), nil)

	for i := 0; i < 3; i++ {
		_, err := service.CreatePost(t.Context(), "Post", "Excerpt", "**bold**")
		require.NoError(t, err)
	}

	t.Run("unbounded index shows everything on page 0", func(t *testing.T) {
		router := setupSiteRouter(NewSiteController(service, renderer, SiteOptions{Navbar: navbar}))
		w := do(router, http.MethodGet, "/", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
		assert.Equal(t, "[Home]<li>1 Post</li><li>2 Post</li><li>3 Post</li>", w.Body.String())

		w = do(router, http.MethodGet, "/?page_num=1", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "[Home]", w.Body.String())
	})

	t.Run("paged index", func(t *testing.T) {
		router := setupSiteRouter(NewSiteController(service, renderer, SiteOptions{PageSize: 2}))
		w := do(router, http.MethodGet, "/?page_num=1", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "<li>2 Post</li><li>3 Post</li>", w.Body.String())
	})

	t.Run("negative page", func(t *testing.T) {
		router := setupSiteRouter(NewSiteController(service, renderer, SiteOptions{}))
		w := do(router, http.MethodGet, "/?page_num=-2", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		decodeError(t, w)
	})

	t.Run("post detail renders markdown", func(t *testing.T) {
		router := setupSiteRouter(NewSiteController(service, renderer, SiteOptions{}))
		w := do(router, http.MethodGet, "/post/2", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "<h1>Post</h1>")
		assert.Contains(t, w.Body.String(), "<strong>bold</strong>")
	})

	t.Run("missing post is 404", func(t *testing.T) {
		router := setupSiteRouter(NewSiteController(service, renderer, SiteOptions{}))
		w := do(router, http.MethodGet, "/post/404", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "could not find post id in database", decodeError(t, w).ErrMsg)
	})

	t.Run("missing template is 500", func(t *testing.T) {
		router := setupSiteRouter(NewSiteController(service, render.NewFileRenderer(t.TempDir(), nil), SiteOptions{}))
		w := do(router, http.MethodGet, "/post/1", "")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, decodeError(t, w).ErrMsg, "Failed to read template file")
	})
}
