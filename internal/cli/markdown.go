package cli

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// RenderMarkdown 在终端里渲染 Webhook 命令正文。
// style 为空时按终端背景自动选择，测试里传 "notty" 得到纯文本。
func RenderMarkdown(body string, style string, width int) (string, error) {
	if width <= 0 {
		width = 80
	}

	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if style == "" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}

	renderer, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", err
	}
	out, err := renderer.Render(body)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(out, "\n"), nil
}
