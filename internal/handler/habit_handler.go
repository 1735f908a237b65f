package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/deptflow/internal/db"
	"github.com/deptflow/internal/service"
	"github.com/deptflow/internal/stats"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type habitPayload struct {
	Name string `json:"name"`
}

type logPayload struct {
	Date      string `json:"date"`
	Completed *bool  `json:"completed"`
}

type checkInPayload struct {
	Date      string `json:"date"`
	Completed []uint `json:"completed"`
}

// ListHabits 返回习惯列表 JSON
func (a *API) ListHabits(c *gin.Context) {
	habits, err := a.tracker.Habits.List()
	if err != nil {
		a.logger.Error("list habits", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to list habits")
		return
	}

	items := make([]gin.H, 0, len(habits))
	for _, habit := range habits {
		items = append(items, habitToPayload(habit))
	}

	c.JSON(http.StatusOK, gin.H{"habits": items})
}

// CreateHabit 创建习惯
func (a *API) CreateHabit(c *gin.Context) {
	var payload habitPayload
	if !bindJSON(c, &payload, "invalid request body") {
		return
	}

	habit, err := a.tracker.Habits.Create(payload.Name)
	if err != nil {
		a.handleHabitError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"habit": habitToPayload(*habit)})
}

// RenameHabit 修改习惯名称
func (a *API) RenameHabit(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid habit id")
		return
	}

	var payload habitPayload
	if !bindJSON(c, &payload, "invalid request body") {
		return
	}

	habit, err := a.tracker.Habits.Rename(id, payload.Name)
	if err != nil {
		a.handleHabitError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"habit": habitToPayload(*habit)})
}

// DeleteHabit 删除习惯及其全部打卡
func (a *API) DeleteHabit(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid habit id")
		return
	}

	if err := a.tracker.Habits.Delete(id); err != nil {
		a.handleHabitError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// UpsertLog 写入某习惯某天的完成状态，同一天重复写入即覆盖
func (a *API) UpsertLog(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid habit id")
		return
	}

	var payload logPayload
	if !bindJSON(c, &payload, "invalid request body") {
		return
	}
	if payload.Completed == nil {
		respondError(c, http.StatusBadRequest, "completed is required")
		return
	}
	date, err := parseDate(payload.Date, a.now())
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	entry, err := a.tracker.Logs.Upsert(id, date, *payload.Completed)
	if err != nil {
		a.handleHabitError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"log": gin.H{
		"habit_id":  entry.HabitID,
		"date":      entry.Date.Format(dateFormat),
		"completed": entry.Completed,
	}})
}

// QueryLogs 按习惯与日期区间查询打卡
func (a *API) QueryLogs(c *gin.Context) {
	var query service.LogQuery

	if raw := strings.TrimSpace(c.Query("habit_id")); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid habit id")
			return
		}
		query.HabitID = uint(id)
	}

	start, ok := parseOptionalDate(c.Query("start"))
	if !ok {
		respondError(c, http.StatusBadRequest, "invalid start date")
		return
	}
	end, ok := parseOptionalDate(c.Query("end"))
	if !ok {
		respondError(c, http.StatusBadRequest, "invalid end date")
		return
	}
	query.Start, query.End = start, end

	rows, err := a.tracker.Logs.Query(query)
	if err != nil {
		a.handleHabitError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"logs": serializeRows(rows)})
}

// CheckIn 一次性写入某天全部习惯的状态
func (a *API) CheckIn(c *gin.Context) {
	var payload checkInPayload
	if !bindJSON(c, &payload, "invalid request body") {
		return
	}
	date, err := parseDate(payload.Date, a.now())
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	completed := make(map[uint]bool, len(payload.Completed))
	for _, id := range payload.Completed {
		completed[id] = true
	}

	if err := a.tracker.CheckIn(date, completed); err != nil {
		a.handleHabitError(c, err)
		return
	}

	status, err := a.tracker.Logs.DayStatus(date)
	if err != nil {
		a.handleHabitError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"date": date.Format(dateFormat), "status": status})
}

// GetAnalytics 返回单个习惯的分析报告
func (a *API) GetAnalytics(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid habit id")
		return
	}
	days, _ := strconv.Atoi(c.Query("days"))
	if days == 0 {
		days = a.defaultDays
	}

	report, err := a.tracker.Analytics(id, days, a.now())
	if err != nil {
		a.handleHabitError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"habit":           habitToPayload(report.Habit),
		"range":           gin.H{"start": report.RangeStart.Format(dateFormat), "end": report.RangeEnd.Format(dateFormat), "days": report.Days},
		"current_streak":  report.CurrentStreak,
		"longest_streak":  report.LongestStreak,
		"completion_rate": stats.RatePercent(report.CompletionRate),
		"weekly_pattern":  report.Weekly,
		"summary":         report.Summary,
		"daily":           serializeDaily(report.Daily),
		"logs":            serializeRows(report.Rows),
	})
}

// GetOverview 返回全部习惯在时间窗口内的汇总
func (a *API) GetOverview(c *gin.Context) {
	days, _ := strconv.Atoi(c.Query("days"))
	if days == 0 {
		days = a.defaultDays
	}

	overview, err := a.tracker.Overview(days, a.now())
	if err != nil {
		a.handleHabitError(c, err)
		return
	}

	rates := make(map[string]float64, len(overview.Rates))
	for name, rate := range overview.Rates {
		rates[name] = stats.RatePercent(rate)
	}

	c.JSON(http.StatusOK, gin.H{
		"range":   gin.H{"start": overview.RangeStart.Format(dateFormat), "end": overview.RangeEnd.Format(dateFormat), "days": overview.Days},
		"summary": overview.Summary,
		"rates":   rates,
		"daily":   serializeDaily(overview.Daily),
	})
}

// GetSummary 返回汇总表
func (a *API) GetSummary(c *gin.Context) {
	days, _ := strconv.Atoi(c.Query("days"))
	if days == 0 {
		days = a.defaultDays
	}

	overview, err := a.tracker.Overview(days, a.now())
	if err != nil {
		a.handleHabitError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"summary": overview.Summary})
}

func habitToPayload(habit db.Habit) gin.H {
	return gin.H{
		"id":           habit.ID,
		"name":         habit.Name,
		"created_date": habit.CreatedDate.Format(dateFormat),
	}
}

func serializeRows(rows []stats.Row) []gin.H {
	items := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		items = append(items, gin.H{
			"habit_id":  row.HabitID,
			"name":      row.Habit,
			"date":      row.Date.Format(dateFormat),
			"completed": row.Completed,
		})
	}
	return items
}

func serializeDaily(rates []stats.DailyRate) []gin.H {
	items := make([]gin.H, 0, len(rates))
	for _, rate := range rates {
		items = append(items, gin.H{"date": rate.Date.Format(dateFormat), "rate": rate.Rate})
	}
	return items
}

func (a *API) handleHabitError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrHabitNotFound):
		respondError(c, http.StatusNotFound, "habit not found")
	case errors.Is(err, service.ErrHabitNameRequired):
		respondError(c, http.StatusBadRequest, "habit name is required")
	default:
		a.logger.Error("habit operation failed", zap.String("path", c.FullPath()), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "operation failed")
	}
}
