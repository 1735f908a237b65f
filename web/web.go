// Package web 内嵌仪表盘模板。
package web

import (
	"embed"
	"html/template"
)

//go:embed template/*.html
var templateFS embed.FS

// Templates 解析全部页面模板。
func Templates(funcs template.FuncMap) (*template.Template, error) {
	return template.New("").Funcs(funcs).ParseFS(templateFS, "template/*.html")
}
