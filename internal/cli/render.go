// Package cli 提供命令行输出的格式化与交互表单。
package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/deptflow/internal/service"
	"github.com/deptflow/internal/stats"
)

// 终端配色
var (
	ColorBorder = lipgloss.Color("#575653")
	ColorText   = lipgloss.Color("#FFFCF0")
	ColorMuted  = lipgloss.Color("#6F6E69")
	ColorAccent = lipgloss.Color("#3AA99F")
	ColorGreen  = lipgloss.Color("#879A39")
	ColorOrange = lipgloss.Color("#DA702C")
	ColorRed    = lipgloss.Color("#D14D41")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorText).
			Align(lipgloss.Center)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorAccent).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)

	numberStyle = cellStyle.Align(lipgloss.Right)

	mutedStyle = lipgloss.NewStyle().Foreground(ColorMuted)
)

// HabitLine 是习惯列表中的一行
type HabitLine struct {
	ID      uint
	Name    string
	Current int
	Longest int
	// Today 为 nil 表示今天还没有记录
	Today *bool
}

// RenderTitle 渲染带圆角边框的标题栏
func RenderTitle(title string) string {
	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Width(48).
		Align(lipgloss.Center).
		Padding(0, 1)

	return border.Render(titleStyle.Render(title))
}

// RenderHabits 渲染习惯列表与连胜
func RenderHabits(lines []HabitLine) string {
	if len(lines) == 0 {
		return mutedStyle.Render("No habits tracked yet.")
	}

	rows := make([][]string, 0, len(lines))
	for _, line := range lines {
		rows = append(rows, []string{
			strconv.FormatUint(uint64(line.ID), 10),
			line.Name,
			strconv.Itoa(line.Current),
			strconv.Itoa(line.Longest),
			todayMark(line.Today),
		})
	}
	return renderTable([]string{"ID", "Habit", "Current", "Longest", "Today"}, rows, map[int]bool{0: true, 2: true, 3: true})
}

// RenderSummary 渲染时间窗口内的汇总表
func RenderSummary(overview *service.Overview) string {
	var b strings.Builder
	b.WriteString(mutedStyle.Render(fmt.Sprintf("%s → %s (%d days)",
		overview.RangeStart.Format("2006-01-02"),
		overview.RangeEnd.Format("2006-01-02"),
		overview.Days)))
	b.WriteString("\n")

	if len(overview.Summary) == 0 {
		b.WriteString(mutedStyle.Render("No logs in this window."))
		return b.String()
	}

	rows := make([][]string, 0, len(overview.Summary))
	for _, row := range overview.Summary {
		rows = append(rows, []string{
			row.Habit,
			strconv.Itoa(row.TotalDays),
			strconv.Itoa(row.DaysCompleted),
			FormatPercent(row.CompletionRate),
			FormatPercent(stats.RatePercent(overview.Rates[row.Habit])),
		})
	}
	b.WriteString(renderTable([]string{"Habit", "Logged", "Completed", "Summary %", "Window %"}, rows, map[int]bool{1: true, 2: true, 3: true, 4: true}))
	return b.String()
}

// FormatPercent 保留两位小数
func FormatPercent(pct float64) string {
	return strconv.FormatFloat(pct, 'f', 2, 64) + "%"
}

func todayMark(today *bool) string {
	switch {
	case today == nil:
		return "·"
	case *today:
		return "✓"
	default:
		return "✗"
	}
}

func renderTable(headers []string, rows [][]string, numeric map[int]bool) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(ColorBorder)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case numeric[col]:
				return numberStyle
			default:
				return cellStyle
			}
		})
	return t.Render()
}
