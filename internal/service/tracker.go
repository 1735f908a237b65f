package service

import (
	"fmt"
	"time"

	"github.com/deptflow/internal/db"
	"github.com/deptflow/internal/stats"
	"gorm.io/gorm"
)

const (
	// DefaultRangeDays 是分析页默认的时间窗口
	DefaultRangeDays = 30
	// MinRangeDays / MaxRangeDays 限定时间窗口的取值范围
	MinRangeDays = 7
	MaxRangeDays = 90
)

// Tracker 把习惯与打卡服务组合成一个显式构造的引擎，由调用方持有并传入各个请求处理器
type Tracker struct {
	Habits *HabitService
	Logs   *HabitLogService
}

// AnalyticsReport 是单个习惯在某个时间窗口内的分析结果
type AnalyticsReport struct {
	Habit          db.Habit
	RangeStart     time.Time
	RangeEnd       time.Time
	Days           int
	CurrentStreak  int
	LongestStreak  int
	CompletionRate float64
	Rows           []stats.Row
	Weekly         []stats.WeekdayRate
	Summary        []stats.SummaryRow
	Daily          []stats.DailyRate
	Heatmap        []stats.HeatmapCell
}

// Overview 是全部习惯在时间窗口内的汇总
type Overview struct {
	RangeStart time.Time
	RangeEnd   time.Time
	Days       int
	Summary    []stats.SummaryRow
	Rates      map[string]float64
	Daily      []stats.DailyRate
}

// NewTracker 基于习惯库构造 Tracker
func NewTracker(gdb *gorm.DB) *Tracker {
	return &Tracker{
		Habits: NewHabitService(gdb),
		Logs:   NewHabitLogService(gdb),
	}
}

// ClampRangeDays 把窗口限制在 [MinRangeDays, MaxRangeDays]，非正数回退默认值
func ClampRangeDays(days int) int {
	switch {
	case days <= 0:
		return DefaultRangeDays
	case days < MinRangeDays:
		return MinRangeDays
	case days > MaxRangeDays:
		return MaxRangeDays
	default:
		return days
	}
}

// Window 返回 [today-days, today]
func Window(days int, now time.Time) (time.Time, time.Time) {
	end := db.NormalizeDate(now)
	return end.AddDate(0, 0, -days), end
}

// CheckIn 为某天写入全部习惯的状态，未勾选的习惯记为 false
func (t *Tracker) CheckIn(date time.Time, completed map[uint]bool) error {
	habits, err := t.Habits.List()
	if err != nil {
		return err
	}

	for _, habit := range habits {
		if _, err := t.Logs.Upsert(habit.ID, date, completed[habit.ID]); err != nil {
			return fmt.Errorf("check in %q: %w", habit.Name, err)
		}
	}
	return nil
}

// Analytics 计算单个习惯的分析报告；连胜基于全部历史，其余指标基于时间窗口
func (t *Tracker) Analytics(habitID uint, days int, now time.Time) (*AnalyticsReport, error) {
	habit, err := t.Habits.Get(habitID)
	if err != nil {
		return nil, err
	}

	days = ClampRangeDays(days)
	start, end := Window(days, now)

	rows, err := t.Logs.Query(LogQuery{HabitID: habitID, Start: &start, End: &end})
	if err != nil {
		return nil, err
	}

	current, longest, err := t.Logs.Streaks(habitID)
	if err != nil {
		return nil, err
	}

	entries := stats.EntriesOf(rows)
	return &AnalyticsReport{
		Habit:          *habit,
		RangeStart:     start,
		RangeEnd:       end,
		Days:           days,
		CurrentStreak:  current,
		LongestStreak:  longest,
		CompletionRate: stats.CompletionRate(entries, start, end),
		Rows:           rows,
		Weekly:         stats.WeeklyPattern(entries),
		Summary:        stats.Summary(rows),
		Daily:          stats.DailyRates(rows),
		Heatmap:        stats.Heatmap(entries),
	}, nil
}

// Overview 汇总全部习惯在时间窗口内的表现
func (t *Tracker) Overview(days int, now time.Time) (*Overview, error) {
	days = ClampRangeDays(days)
	start, end := Window(days, now)

	rows, err := t.Logs.Query(LogQuery{Start: &start, End: &end})
	if err != nil {
		return nil, err
	}

	return &Overview{
		RangeStart: start,
		RangeEnd:   end,
		Days:       days,
		Summary:    stats.Summary(rows),
		Rates:      stats.RatesByHabit(rows, start, end),
		Daily:      stats.DailyRates(rows),
	}, nil
}
