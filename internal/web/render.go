// Package web 内嵌模板与静态文件，实现 gin 的 render.HTMLRender
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
)

//go:embed templates
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// TemplateKey 页面数据中记录模板名的键，base.html 把它输出到 <body data-template>
const TemplateKey = "Template"

// Static 返回 /static 下的文件系统
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// Renderer 每个页面一套模板：base + includes + 页面本身
type Renderer struct {
	pages map[string]*template.Template
}

var _ render.HTMLRender = (*Renderer)(nil)

// NewRenderer 解析全部页面模板；funcs 会覆盖同名的默认函数
func NewRenderer(funcs template.FuncMap) (*Renderer, error) {
	fm := DefaultFuncs()
	for k, v := range funcs {
		fm[k] = v
	}

	shared := []string{"templates/base.html"}
	includes, err := fs.Glob(templateFS, "templates/includes/*.html")
	if err != nil {
		return nil, err
	}
	shared = append(shared, includes...)

	r := &Renderer{pages: make(map[string]*template.Template)}
	err = fs.WalkDir(templateFS, "templates", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		name := strings.TrimPrefix(p, "templates/")
		if name == "base.html" || path.Dir(name) == "includes" {
			return nil
		}
		files := append(append([]string{}, shared...), p)
		t, err := template.New(path.Base(p)).Funcs(fm).ParseFS(templateFS, files...)
		if err != nil {
			return fmt.Errorf("parse %s: %w", name, err)
		}
		r.pages[name] = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Instance 实现 render.HTMLRender
func (r *Renderer) Instance(name string, data interface{}) render.Render {
	t, ok := r.pages[name]
	if !ok {
		panic(fmt.Sprintf("template %q not found", name))
	}
	if h, ok := data.(gin.H); ok {
		h[TemplateKey] = name
	}
	return render.HTML{Template: t, Name: "base", Data: data}
}

// Has reports whether a page template called name exists.
func (r *Renderer) Has(name string) bool {
	_, ok := r.pages[name]
	return ok
}
