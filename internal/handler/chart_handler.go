package handler

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/deptflow/internal/chart"
	"github.com/deptflow/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// WeeklyChart 输出习惯的星期分布柱状图
func (a *API) WeeklyChart(c *gin.Context) {
	a.habitChart(c, func(w io.Writer, report *service.AnalyticsReport) error {
		return chart.WeeklyPatternPNG(w, report.Weekly)
	})
}

// HeatmapChart 输出习惯的热力图
func (a *API) HeatmapChart(c *gin.Context) {
	a.habitChart(c, func(w io.Writer, report *service.AnalyticsReport) error {
		return chart.HeatmapPNG(w, report.Heatmap)
	})
}

// DailyChart 输出习惯的每日完成率折线
func (a *API) DailyChart(c *gin.Context) {
	a.habitChart(c, func(w io.Writer, report *service.AnalyticsReport) error {
		return chart.DailyRatePNG(w, report.Daily)
	})
}

// OverviewChart 输出全部习惯的每日平均完成率
func (a *API) OverviewChart(c *gin.Context) {
	overview, err := a.tracker.Overview(a.chartDays(c), a.now())
	if err != nil {
		a.handleHabitError(c, err)
		return
	}
	a.writePNG(c, func(w io.Writer) error {
		return chart.DailyRatePNG(w, overview.Daily)
	})
}

func (a *API) habitChart(c *gin.Context, draw func(io.Writer, *service.AnalyticsReport) error) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid habit id")
		return
	}

	report, err := a.tracker.Analytics(id, a.chartDays(c), a.now())
	if err != nil {
		a.handleHabitError(c, err)
		return
	}

	a.writePNG(c, func(w io.Writer) error { return draw(w, report) })
}

func (a *API) chartDays(c *gin.Context) int {
	days, err := strconv.Atoi(c.Query("days"))
	if err != nil || days == 0 {
		return a.defaultDays
	}
	return days
}

func (a *API) writePNG(c *gin.Context, draw func(io.Writer) error) {
	var buf bytes.Buffer
	if err := draw(&buf); err != nil {
		if errors.Is(err, chart.ErrNoData) {
			c.Status(http.StatusNoContent)
			return
		}
		a.logger.Error("render chart", zap.String("path", c.FullPath()), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to render chart")
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}
