// Package render turns a named template and a data context into an HTML page.
//
// Templates are read from disk and parsed on every call. There is no compiled
// template cache, so edits to a template show up on the next request.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"

	"cmsgo/app/apperrors"
	"cmsgo/app/models"
)

const (
	DefaultDir = "views"
	DefaultExt = ".html.in"

	IndexTemplate      = "index"
	PostDetailTemplate = "post_detail"
)

// Renderer produces a complete HTML document or an error, never partial output.
type Renderer interface {
	Render(name string, data any) (string, error)
}

// PageData is the context bound into every page template.
type PageData struct {
	Posts    []*models.Post
	Post     *models.Post
	Navbar   models.NavbarConfig
	Page     int
	PrevPage int
	NextPage int
	HasPrev  bool
}

// DefaultFuncs returns the filters available to templates.
func DefaultFuncs() template.FuncMap {
	return template.FuncMap{
		"markdown": Markdown,
	}
}

// FileRenderer loads "<dir>/<name><ext>" on each Render.
type FileRenderer struct {
	dir   string
	ext   string
	funcs template.FuncMap
}

var _ Renderer = (*FileRenderer)(nil)

// NewFileRenderer builds a renderer over dir. A nil funcs uses DefaultFuncs.
func NewFileRenderer(dir string, funcs template.FuncMap) *FileRenderer {
	if dir == "" {
		dir = DefaultDir
	}
	if funcs == nil {
		funcs = DefaultFuncs()
	}
	return &FileRenderer{dir: dir, ext: DefaultExt, funcs: funcs}
}

// Dir returns the template directory.
func (r *FileRenderer) Dir() string {
	return r.dir
}

// Path returns the file backing the named template.
func (r *FileRenderer) Path(name string) string {
	return filepath.Join(r.dir, name+r.ext)
}

func (r *FileRenderer) Render(name string, data any) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return "", apperrors.NewInternal(fmt.Sprintf("invalid template name %q", name), nil)
	}

	path := r.Path(name)
	src, err := os.ReadFile(path)
	if err != nil {
		return "", apperrors.NewInternal(fmt.Sprintf("Failed to read template file '%s': %v", path, err), err)
	}

	tmpl, err := template.New(name).Funcs(r.funcs).Parse(string(src))
	if err != nil {
		return "", apperrors.NewInternal(fmt.Sprintf("Failed to parse template: %v", err), err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", apperrors.NewInternal(fmt.Sprintf("Failed to render template: %v", err), err)
	}
	return buf.String(), nil
}

// IndexPage builds the context for the post list page.
func IndexPage(posts []*models.Post, navbar models.NavbarConfig, page int) PageData {
	data := PageData{
		Posts:    posts,
		Navbar:   navbar,
		Page:     page,
		NextPage: page + 1,
	}
	if page > 0 {
		data.HasPrev = true
		data.PrevPage = page - 1
	}
	return data
}

// PostPage builds the context for a single post page.
func PostPage(post *models.Post, navbar models.NavbarConfig) PageData {
	return PageData{Post: post, Navbar: navbar}
}
