package service

import (
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/deptflow/internal/db"
	"github.com/deptflow/internal/stats"
	"github.com/microcosm-cc/bluemonday"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrHabitNotFound 在指定习惯不存在时返回
	ErrHabitNotFound = errors.New("habit not found")
	// ErrHabitNameRequired 名称为空（或去除标记后为空）时返回
	ErrHabitNameRequired = errors.New("habit name is required")
)

// habitNamePolicy 去掉名称里的全部 HTML
var habitNamePolicy = bluemonday.StrictPolicy()

// HabitService 负责 Habit 的增删改查
type HabitService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewHabitService 构造 HabitService
func NewHabitService(gdb *gorm.DB) *HabitService {
	return &HabitService{db: gdb, now: time.Now}
}

// List 返回全部习惯，按创建顺序
func (s *HabitService) List() ([]db.Habit, error) {
	var habits []db.Habit
	if err := s.db.Order("id ASC").Find(&habits).Error; err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}
	return habits, nil
}

// Get 根据 ID 获取习惯
func (s *HabitService) Get(id uint) (*db.Habit, error) {
	var habit db.Habit
	if err := s.db.First(&habit, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrHabitNotFound
		}
		return nil, fmt.Errorf("get habit: %w", err)
	}
	return &habit, nil
}

// Create 新建习惯，新习惯没有任何打卡记录
func (s *HabitService) Create(name string) (*db.Habit, error) {
	clean, err := cleanHabitName(name)
	if err != nil {
		return nil, err
	}

	habit := db.Habit{
		Name:        clean,
		CreatedDate: db.NormalizeDate(s.now()),
	}
	if err := s.db.Create(&habit).Error; err != nil {
		return nil, fmt.Errorf("create habit: %w", err)
	}
	return &habit, nil
}

// Rename 修改习惯名称，是唯一的原地更新
func (s *HabitService) Rename(id uint, name string) (*db.Habit, error) {
	clean, err := cleanHabitName(name)
	if err != nil {
		return nil, err
	}

	habit, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	habit.Name = clean
	if err := s.db.Save(habit).Error; err != nil {
		return nil, fmt.Errorf("rename habit: %w", err)
	}
	return habit, nil
}

// Delete 删除习惯及其全部打卡记录
func (s *HabitService) Delete(id uint) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("habit_id = ?", id).Delete(&db.HabitLog{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&db.Habit{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrHabitNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrHabitNotFound) {
			return err
		}
		return fmt.Errorf("delete habit: %w", err)
	}
	return nil
}

func cleanHabitName(name string) (string, error) {
	clean := strings.TrimSpace(html.UnescapeString(habitNamePolicy.Sanitize(name)))
	if clean == "" {
		return "", ErrHabitNameRequired
	}
	return clean, nil
}

// HabitLogService 负责打卡记录的写入与查询
type HabitLogService struct {
	db *gorm.DB
}

// LogQuery 描述查询条件，零值字段不参与过滤
type LogQuery struct {
	HabitID uint
	Start   *time.Time
	End     *time.Time
}

// ExportRow 是导出表的一行；没有任何记录的习惯以空日期出现一次
type ExportRow struct {
	Habit     string `json:"name" yaml:"name"`
	Date      string `json:"date" yaml:"date"`
	Completed *bool  `json:"completed" yaml:"completed"`
}

// NewHabitLogService 构造 HabitLogService
func NewHabitLogService(gdb *gorm.DB) *HabitLogService {
	return &HabitLogService{db: gdb}
}

// Upsert 写入某天的完成状态：同一 (habit, date) 再次写入时覆盖旧值
func (s *HabitLogService) Upsert(habitID uint, date time.Time, completed bool) (*db.HabitLog, error) {
	if err := s.ensureHabit(habitID); err != nil {
		return nil, err
	}

	logDate := db.NormalizeDate(date)
	record := db.HabitLog{
		HabitID:   habitID,
		Date:      logDate,
		Completed: completed,
	}

	if err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "habit_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"completed", "updated_at"}),
	}).Create(&record).Error; err != nil {
		return nil, fmt.Errorf("upsert habit log: %w", err)
	}

	if err := s.db.Where("habit_id = ? AND date = ?", habitID, logDate).First(&record).Error; err != nil {
		return nil, fmt.Errorf("reload habit log: %w", err)
	}

	return &record, nil
}

// Query 返回带习惯名称的记录，按日期、习惯名排序
func (s *HabitLogService) Query(q LogQuery) ([]stats.Row, error) {
	type row struct {
		HabitID   uint
		HabitName string
		Date      time.Time
		Completed bool
	}

	query := s.db.Model(&db.HabitLog{}).
		Select("habit_logs.habit_id AS habit_id, habits.name AS habit_name, habit_logs.date AS date, habit_logs.completed AS completed").
		Joins("JOIN habits ON habits.id = habit_logs.habit_id")

	if q.HabitID != 0 {
		query = query.Where("habit_logs.habit_id = ?", q.HabitID)
	}
	if q.Start != nil {
		query = query.Where("habit_logs.date >= ?", db.NormalizeDate(*q.Start))
	}
	if q.End != nil {
		query = query.Where("habit_logs.date <= ?", db.NormalizeDate(*q.End))
	}

	var rows []row
	if err := query.Order("habit_logs.date ASC, habits.name ASC").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("query habit logs: %w", err)
	}

	result := make([]stats.Row, 0, len(rows))
	for _, r := range rows {
		result = append(result, stats.Row{
			HabitID:   r.HabitID,
			Habit:     r.HabitName,
			Date:      r.Date.UTC(),
			Completed: r.Completed,
		})
	}
	return result, nil
}

// Entries 返回某个习惯的完整历史，日期升序
func (s *HabitLogService) Entries(habitID uint) ([]stats.Entry, error) {
	var logs []db.HabitLog
	if err := s.db.Where("habit_id = ?", habitID).Order("date ASC").Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("list habit logs: %w", err)
	}

	entries := make([]stats.Entry, 0, len(logs))
	for _, log := range logs {
		entries = append(entries, stats.Entry{Date: log.Date.UTC(), Completed: log.Completed})
	}
	return entries, nil
}

// Streaks 计算某个习惯全部历史上的当前连胜与最长连胜
func (s *HabitLogService) Streaks(habitID uint) (current, longest int, err error) {
	entries, err := s.Entries(habitID)
	if err != nil {
		return 0, 0, err
	}
	current, longest = stats.Streaks(entries)
	return current, longest, nil
}

// DayStatus 返回某天各习惯的打卡状态，没有记录的习惯不出现在结果里
func (s *HabitLogService) DayStatus(date time.Time) (map[uint]bool, error) {
	var logs []db.HabitLog
	if err := s.db.Where("date = ?", db.NormalizeDate(date)).Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("load day status: %w", err)
	}

	status := make(map[uint]bool, len(logs))
	for _, log := range logs {
		status[log.HabitID] = log.Completed
	}
	return status, nil
}

// ExportRows 以 habits LEFT JOIN habit_logs 的方式展开全部数据
func (s *HabitLogService) ExportRows() ([]ExportRow, error) {
	type row struct {
		Name      string
		Date      *time.Time
		Completed *bool
	}

	var rows []row
	if err := s.db.Table("habits").
		Select("habits.name AS name, habit_logs.date AS date, habit_logs.completed AS completed").
		Joins("LEFT JOIN habit_logs ON habits.id = habit_logs.habit_id").
		Order("habits.id ASC, habit_logs.date ASC").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("export habit logs: %w", err)
	}

	result := make([]ExportRow, 0, len(rows))
	for _, r := range rows {
		item := ExportRow{Habit: r.Name, Completed: r.Completed}
		if r.Date != nil {
			item.Date = r.Date.UTC().Format(dateLayout)
		}
		result = append(result, item)
	}
	return result, nil
}

func (s *HabitLogService) ensureHabit(habitID uint) error {
	var count int64
	if err := s.db.Model(&db.Habit{}).Where("id = ?", habitID).Count(&count).Error; err != nil {
		return fmt.Errorf("check habit: %w", err)
	}
	if count == 0 {
		return ErrHabitNotFound
	}
	return nil
}
