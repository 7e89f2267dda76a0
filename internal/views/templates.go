package views

import (
	"embed"
	"html/template"
	"io/fs"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Templates 解析全部页面模板
func Templates() (*template.Template, error) {
	return template.New("views").ParseFS(templateFS, "templates/*.html")
}

// MustTemplates 解析模板，失败时 panic（仅用于启动阶段）
func MustTemplates() *template.Template {
	return template.Must(Templates())
}

// Static 返回静态资源文件系统
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}
