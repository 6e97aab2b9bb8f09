// Package routes wires controllers and middleware into the two front-ends:
// the JSON admin API and the public HTML site.
package routes

import (
	"encoding/json"
	"net/http"

	"cmsgo/app/apperrors"
	"cmsgo/app/controllers"
	"cmsgo/app/middleware"
	"cmsgo/app/models"
	"cmsgo/app/render"
	"cmsgo/app/services"

	"github.com/go-chi/cors"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"pkt.systems/pslog"
)

const (
	FrontendAdmin = "admin"
	FrontendSite  = "site"
)

// Deps is everything the front-ends share.
type Deps struct {
	PostService *services.PostService
	Renderer    render.Renderer
	Navbar      models.NavbarConfig

	// SitePageSize is the index page size. Zero renders all posts on page 0.
	SitePageSize        int
	AdminNotFoundStatus int
	SiteNotFoundStatus  int
	MaxBody             int64

	// CORSOrigins is the admin API allow list. Empty allows any origin.
	CORSOrigins []string

	Logger pslog.Logger
	// Registry collects HTTP metrics and backs /metrics. Nil disables both.
	Registry *prometheus.Registry
}

func (d Deps) logger() pslog.Logger {
	if d.Logger == nil {
		return pslog.NoopLogger()
	}
	return d.Logger
}

// newRouter installs the middleware shared by both front-ends plus /health and /metrics.
func newRouter(d Deps, frontend string, notFound apperrors.StatusMapper) (*mux.Router, error) {
	logger := d.logger().With("frontend", frontend)
	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		notFound.Write(w, apperrors.NewNotFound("no route for "+r.URL.Path))
	})

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recoverer(logger))

	if d.Registry != nil {
		metrics, err := middleware.NewMetrics(d.Registry, frontend)
		if err != nil {
			return nil, err
		}
		router.Use(metrics.Handler)
		router.Handle("/metrics", promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	router.HandleFunc("/health", health).Methods(http.MethodGet)
	return router, nil
}

func health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// SetupAdminRoutes defines the CRUD API.
func SetupAdminRoutes(d Deps) (*mux.Router, error) {
	status := apperrors.AdminStatus
	if d.AdminNotFoundStatus != 0 {
		status = apperrors.StatusMapper{NotFoundStatus: d.AdminNotFoundStatus}
	}
	router, err := newRouter(d, FrontendAdmin, status)
	if err != nil {
		return nil, err
	}

	postController := controllers.NewAdminController(d.PostService, controllers.AdminOptions{
		NotFoundStatus: d.AdminNotFoundStatus,
		MaxBody:        d.MaxBody,
		Logger:         d.logger(),
	})

	posts := router.PathPrefix("/posts").Subrouter()
	posts.Use(middleware.ContentTypeJSON)
	posts.HandleFunc("", postController.Index).Methods(http.MethodGet)
	posts.HandleFunc("", postController.Create).Methods(http.MethodPost)
	posts.HandleFunc("/{id}", postController.Show).Methods(http.MethodGet)
	posts.HandleFunc("/{id}", postController.Update).Methods(http.MethodPut)
	posts.HandleFunc("/{id}", postController.Delete).Methods(http.MethodDelete)

	return router, nil
}

// SetupSiteRoutes defines the public pages.
func SetupSiteRoutes(d Deps) (*mux.Router, error) {
	status := apperrors.SiteStatus
	if d.SiteNotFoundStatus != 0 {
		status = apperrors.StatusMapper{NotFoundStatus: d.SiteNotFoundStatus}
	}
	router, err := newRouter(d, FrontendSite, status)
	if err != nil {
		return nil, err
	}

	siteController := controllers.NewSiteController(d.PostService, d.Renderer, controllers.SiteOptions{
		Navbar:         d.Navbar,
		PageSize:       d.SitePageSize,
		NotFoundStatus: d.SiteNotFoundStatus,
		Logger:         d.logger(),
	})

	router.HandleFunc("/", siteController.Index).Methods(http.MethodGet)
	router.HandleFunc("/post/{id}", siteController.Show).Methods(http.MethodGet)

	return router, nil
}

// AdminHandler is the admin router behind CORS and a tracing span per request.
func AdminHandler(d Deps) (http.Handler, error) {
	router, err := SetupAdminRoutes(d)
	if err != nil {
		return nil, err
	}
	origins := d.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	handler := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", middleware.HeaderRequestID},
		ExposedHeaders: []string{middleware.HeaderRequestID},
		MaxAge:         300,
	}).Handler(router)
	return otelhttp.NewHandler(handler, "cmsgo.admin"), nil
}

// SiteHandler is the site router with a tracing span per request.
func SiteHandler(d Deps) (http.Handler, error) {
	router, err := SetupSiteRoutes(d)
	if err != nil {
		return nil, err
	}
	return otelhttp.NewHandler(router, "cmsgo.site"), nil
}
