// Package stats 实现习惯打卡日志上的纯函数统计：连胜、完成率、周规律与汇总表。
//
// 日志是稀疏的：未记录的日期直接缺席，而不是记为 false。所有函数都不修改入参。
package stats

import (
	"cmp"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// Entry 是单个习惯某一天的记录
type Entry struct {
	Date      time.Time
	Completed bool
}

// Row 是带习惯名称的一条记录，用于跨习惯聚合
type Row struct {
	HabitID   uint
	Habit     string
	Date      time.Time
	Completed bool
}

// Entry 丢弃习惯信息
func (r Row) Entry() Entry {
	return Entry{Date: r.Date, Completed: r.Completed}
}

// EntriesOf 把 rows 投影为 Entry 序列，保持原顺序
func EntriesOf(rows []Row) []Entry {
	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, row.Entry())
	}
	return entries
}

// Streaks 按给定顺序（日期升序）遍历记录，返回当前连胜与最长连胜。
// 只有显式的 false 会中断连胜；缺席的日期不会。当前连胜以最后一条记录为终点，
// 与“今天”无关。
func Streaks(entries []Entry) (current, longest int) {
	run := 0
	for _, entry := range entries {
		if entry.Completed {
			run++
			longest = max(longest, run)
			continue
		}
		run = 0
	}
	return run, longest
}

// CompletionRate 计算 [start, end] 闭区间内已记录日期的完成比例，无记录时为 0
func CompletionRate(entries []Entry, start, end time.Time) float64 {
	from, to := dayKey(start), dayKey(end)

	var present, done int
	for _, entry := range entries {
		key := dayKey(entry.Date)
		if key < from || key > to {
			continue
		}
		present++
		if entry.Completed {
			done++
		}
	}

	if present == 0 {
		return 0
	}
	return float64(done) / float64(present)
}

// RatesByHabit 按习惯名分组计算区间完成率
func RatesByHabit(rows []Row, start, end time.Time) map[string]float64 {
	grouped := make(map[string][]Entry)
	for _, row := range rows {
		grouped[row.Habit] = append(grouped[row.Habit], row.Entry())
	}

	rates := make(map[string]float64, len(grouped))
	for name, entries := range grouped {
		rates[name] = CompletionRate(entries, start, end)
	}
	return rates
}

// WeekdayRate 是某个星期几的平均完成率；没有样本时 Rate 为 nil
type WeekdayRate struct {
	Day     time.Weekday `json:"-"`
	Name    string       `json:"day"`
	Samples int          `json:"samples"`
	Rate    *float64     `json:"rate"`
}

// weekOrder 固定周一到周日
var weekOrder = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

// WeeklyPattern 按星期几分组求完成均值，始终返回周一到周日七项
func WeeklyPattern(entries []Entry) []WeekdayRate {
	var samples, done [7]int
	for _, entry := range entries {
		day := entry.Date.Weekday()
		samples[day]++
		if entry.Completed {
			done[day]++
		}
	}

	pattern := make([]WeekdayRate, 0, len(weekOrder))
	for _, day := range weekOrder {
		item := WeekdayRate{Day: day, Name: day.String(), Samples: samples[day]}
		if samples[day] > 0 {
			rate := float64(done[day]) / float64(samples[day])
			item.Rate = &rate
		}
		pattern = append(pattern, item)
	}
	return pattern
}

// SummaryRow 是汇总表的一行
type SummaryRow struct {
	Habit          string  `json:"habit"`
	TotalDays      int     `json:"total_days"`
	DaysCompleted  int     `json:"days_completed"`
	CompletionRate float64 `json:"completion_rate"`
}

// Summary 按习惯名汇总：记录天数、完成天数与完成率百分比（保留两位小数），按名称排序
func Summary(rows []Row) []SummaryRow {
	index := make(map[string]int)
	var summary []SummaryRow

	for _, row := range rows {
		i, ok := index[row.Habit]
		if !ok {
			i = len(summary)
			index[row.Habit] = i
			summary = append(summary, SummaryRow{Habit: row.Habit})
		}
		summary[i].TotalDays++
		if row.Completed {
			summary[i].DaysCompleted++
		}
	}

	for i := range summary {
		summary[i].CompletionRate = Percent(summary[i].DaysCompleted, summary[i].TotalDays)
	}

	slices.SortFunc(summary, func(a, b SummaryRow) int {
		return cmp.Compare(a.Habit, b.Habit)
	})
	return summary
}

// Percent 返回 part/total*100 保留两位小数，恰好为 5 时取偶（1/32 → 3.12）；total 为 0 时返回 0
func Percent(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	pct := decimal.NewFromInt(int64(part) * 100).
		Div(decimal.NewFromInt(int64(total))).
		RoundBank(2)
	return pct.InexactFloat64()
}

// RatePercent 把 0..1 的比例换算为百分数，舍入规则与 Percent 相同
func RatePercent(rate float64) float64 {
	return decimal.NewFromFloat(rate).Mul(decimal.NewFromInt(100)).RoundBank(2).InexactFloat64()
}

// DailyRate 是某天所有习惯的平均完成率
type DailyRate struct {
	Date time.Time `json:"date"`
	Rate float64   `json:"rate"`
}

// DailyRates 按日期分组求完成均值，日期升序
func DailyRates(rows []Row) []DailyRate {
	type bucket struct {
		date        time.Time
		total, done int
	}
	buckets := make(map[string]*bucket)
	for _, row := range rows {
		key := dayKey(row.Date)
		b, ok := buckets[key]
		if !ok {
			b = &bucket{date: dayStart(row.Date)}
			buckets[key] = b
		}
		b.total++
		if row.Completed {
			b.done++
		}
	}

	rates := make([]DailyRate, 0, len(buckets))
	for _, b := range buckets {
		rates = append(rates, DailyRate{Date: b.date, Rate: float64(b.done) / float64(b.total)})
	}
	slices.SortFunc(rates, func(a, b DailyRate) int {
		return a.Date.Compare(b.Date)
	})
	return rates
}

// HeatmapCell 把一条记录定位到 ISO 周 × 星期几（0=周一）
type HeatmapCell struct {
	Year      int       `json:"year"`
	Week      int       `json:"week"`
	Weekday   int       `json:"weekday"`
	Date      time.Time `json:"date"`
	Completed bool      `json:"completed"`
}

// Heatmap 生成热力图单元格，按日期升序
func Heatmap(entries []Entry) []HeatmapCell {
	cells := make([]HeatmapCell, 0, len(entries))
	for _, entry := range entries {
		year, week := entry.Date.ISOWeek()
		cells = append(cells, HeatmapCell{
			Year:      year,
			Week:      week,
			Weekday:   (int(entry.Date.Weekday()) + 6) % 7,
			Date:      dayStart(entry.Date),
			Completed: entry.Completed,
		})
	}
	slices.SortStableFunc(cells, func(a, b HeatmapCell) int {
		return a.Date.Compare(b.Date)
	})
	return cells
}

func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
