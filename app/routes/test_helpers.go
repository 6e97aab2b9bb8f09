package routes

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"cmsgo/app/models"
	"cmsgo/app/render"
	"cmsgo/app/repositories"
	"cmsgo/app/services"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"pkt.systems/pslog"
)

func setupTestTemplates(t *testing.T) string {
	t.Helper()
	viewsDir := filepath.Join(t.TempDir(), "views")
	require.NoError(t, os.MkdirAll(viewsDir, 0o755))

	templates := map[string]string{
		render.IndexTemplate: `<nav>{{ range .Navbar.Links }}<a href="{{ .Href }}" title="{{ .Title }}">{{ .Name }}</a>{{ end }}</nav>` +
			`<div class="posts">{{ range .Posts }}<h2><a href="/post/{{ .ID }}">{{ .Title }}</a></h2><p>{{ .Excerpt }}</p>{{ end }}</div>`,
		render.PostDetailTemplate: `<h1>{{ .Post.Title }}</h1><article>{{ .Post.Content | markdown }}</article>`,
	}
	for name, content := range templates {
		require.NoError(t, os.WriteFile(filepath.Join(viewsDir, name+render.DefaultExt), []byte(content), 0o644))
	}
	return viewsDir
}

// setupTestDeps backs both front-ends with one in-memory badger store.
func setupTestDeps(t *testing.T) Deps {
	t.Helper()
	repo, err := repositories.Open(context.Background(), repositories.Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	return Deps{
		PostService: services.NewPostService(repo, pslog.NoopLogger()),
		Renderer:    render.NewFileRenderer(setupTestTemplates(t), nil),
		Navbar: models.NavbarConfig{Links: []models.NavLink{
			{Name: "Home", Href: "/", Title: "Front page"},
		}},
		Logger:   pslog.NoopLogger(),
		Registry: prometheus.NewRegistry(),
	}
}
