package handler

import (
	"errors"
	"net/http"

	"github.com/deptflow/internal/db"
	"github.com/deptflow/internal/service"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type habitRow struct {
	Habit   db.Habit
	Current int
	Longest int
}

// Home 跳转到打卡页
func (a *API) Home(c *gin.Context) {
	c.Redirect(http.StatusFound, "/checkin")
}

// ShowCheckIn 渲染某天的打卡表单，已有记录预先勾选
func (a *API) ShowCheckIn(c *gin.Context) {
	date, err := parseDate(c.Query("date"), a.now())
	if err != nil {
		date, _ = parseDate("", a.now())
	}

	habits, err := a.tracker.Habits.List()
	if err != nil {
		a.renderPageError(c, "Check-in", err)
		return
	}
	status, err := a.tracker.Logs.DayStatus(date)
	if err != nil {
		a.renderPageError(c, "Check-in", err)
		return
	}

	data := gin.H{
		"title":  "Check-in",
		"date":   date.Format(dateFormat),
		"habits": habits,
		"status": status,
	}
	if c.Query("saved") == "1" {
		data["notice"] = "Check-in saved."
	}
	a.renderHTML(c, http.StatusOK, "checkin.html", data)
}

// SubmitCheckIn 保存表单：勾选的习惯记为完成，其余记为未完成
func (a *API) SubmitCheckIn(c *gin.Context) {
	date, err := parseDate(c.PostForm("date"), a.now())
	if err != nil {
		a.renderHTML(c, http.StatusBadRequest, "error.html", gin.H{"title": "Check-in", "error": err.Error()})
		return
	}

	completed := make(map[uint]bool)
	for _, id := range parseUintQuerySlice(c.PostFormArray("habit")) {
		completed[id] = true
	}

	if err := a.tracker.CheckIn(date, completed); err != nil {
		a.renderPageError(c, "Check-in", err)
		return
	}

	c.Redirect(http.StatusSeeOther, "/checkin?saved=1&date="+date.Format(dateFormat))
}

// ShowHabits 渲染习惯管理页
func (a *API) ShowHabits(c *gin.Context) {
	habits, err := a.tracker.Habits.List()
	if err != nil {
		a.renderPageError(c, "Habits", err)
		return
	}

	rows := make([]habitRow, 0, len(habits))
	for _, habit := range habits {
		current, longest, err := a.tracker.Logs.Streaks(habit.ID)
		if err != nil {
			a.renderPageError(c, "Habits", err)
			return
		}
		rows = append(rows, habitRow{Habit: habit, Current: current, Longest: longest})
	}

	data := gin.H{"title": "Habits", "habits": rows}
	if msg := c.Query("error"); msg != "" {
		data["error"] = msg
	}
	a.renderHTML(c, http.StatusOK, "habits.html", data)
}

// CreateHabitForm 处理新增习惯表单
func (a *API) CreateHabitForm(c *gin.Context) {
	if _, err := a.tracker.Habits.Create(c.PostForm("name")); err != nil {
		if errors.Is(err, service.ErrHabitNameRequired) {
			c.Redirect(http.StatusSeeOther, "/habits?error=Habit+name+is+required")
			return
		}
		a.renderPageError(c, "Habits", err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/habits")
}

// RenameHabitForm 处理重命名表单
func (a *API) RenameHabitForm(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		c.Redirect(http.StatusSeeOther, "/habits")
		return
	}
	if _, err := a.tracker.Habits.Rename(id, c.PostForm("name")); err != nil {
		switch {
		case errors.Is(err, service.ErrHabitNameRequired):
			c.Redirect(http.StatusSeeOther, "/habits?error=Habit+name+is+required")
		case errors.Is(err, service.ErrHabitNotFound):
			c.Redirect(http.StatusSeeOther, "/habits")
		default:
			a.renderPageError(c, "Habits", err)
		}
		return
	}
	c.Redirect(http.StatusSeeOther, "/habits")
}

// DeleteHabitForm 处理删除表单
func (a *API) DeleteHabitForm(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		c.Redirect(http.StatusSeeOther, "/habits")
		return
	}
	if err := a.tracker.Habits.Delete(id); err != nil && !errors.Is(err, service.ErrHabitNotFound) {
		a.renderPageError(c, "Habits", err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/habits")
}

// ShowAnalytics 渲染分析页，选中的习惯与窗口保存在会话中
func (a *API) ShowAnalytics(c *gin.Context) {
	habits, err := a.tracker.Habits.List()
	if err != nil {
		a.renderPageError(c, "Analytics", err)
		return
	}

	days := a.selectedDays(c)
	selected := a.selectedHabit(c)
	a.saveSession(c, sessions.Default(c))

	data := gin.H{
		"title":   "Analytics",
		"habits":  habits,
		"days":    days,
		"minDays": service.MinRangeDays,
		"maxDays": service.MaxRangeDays,
	}
	if len(habits) == 0 {
		a.renderHTML(c, http.StatusOK, "analytics.html", data)
		return
	}

	found := false
	for _, habit := range habits {
		if habit.ID == selected {
			found = true
			break
		}
	}
	if !found {
		selected = habits[0].ID
	}
	data["selectedID"] = selected

	report, err := a.tracker.Analytics(selected, days, a.now())
	if err != nil {
		a.renderPageError(c, "Analytics", err)
		return
	}
	data["report"] = report

	a.renderHTML(c, http.StatusOK, "analytics.html", data)
}

func (a *API) renderPageError(c *gin.Context, title string, err error) {
	a.logger.Error("page failed", zap.String("path", c.FullPath()), zap.Error(err))
	a.renderHTML(c, http.StatusInternalServerError, "error.html", gin.H{
		"title": title,
		"error": "Something went wrong. Please try again.",
	})
}
