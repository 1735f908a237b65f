package handler

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/deptflow/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ShowExport 渲染导出页
func (a *API) ShowExport(c *gin.Context) {
	habits, err := a.tracker.Habits.List()
	if err != nil {
		a.renderPageError(c, "Export", err)
		return
	}
	rows, err := a.tracker.Logs.ExportRows()
	if err != nil {
		a.renderPageError(c, "Export", err)
		return
	}

	a.renderHTML(c, http.StatusOK, "export.html", gin.H{
		"title":      "Export",
		"habitCount": len(habits),
		"rowCount":   len(rows),
	})
}

// Export 以附件形式下载全部打卡数据，format 可为 csv、json、yaml
func (a *API) Export(c *gin.Context) {
	format := service.NormalizeExportFormat(c.Query("format"))
	contentType, ext, err := service.ExportContentType(format)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	rows, err := a.tracker.Logs.ExportRows()
	if err != nil {
		a.handleHabitError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := service.WriteExport(&buf, rows, format); err != nil {
		a.logger.Error("write export", zap.String("format", format), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to export")
		return
	}

	filename := fmt.Sprintf("habits-%s.%s", a.now().Format(dateFormat), ext)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}
