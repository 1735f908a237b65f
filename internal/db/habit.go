package db

import "time"

// Habit 定义了习惯模型
// CreatedDate 记录创建当天的日期（UTC 零点），与日志日期口径一致
// 不使用软删除，删除习惯时其打卡记录一并清理
type Habit struct {
	ID          uint      `gorm:"primaryKey"`
	Name        string    `gorm:"not null"`
	CreatedDate time.Time `gorm:"not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName 固定表名
func (Habit) TableName() string {
	return "habits"
}

// HabitLog 记录某习惯某一天是否完成
// HabitID + Date 采用唯一索引，同一天重复写入即覆盖（upsert），不保留历史
type HabitLog struct {
	ID        uint      `gorm:"primaryKey"`
	HabitID   uint      `gorm:"not null;index;uniqueIndex:idx_habit_log_unique"`
	Habit     Habit     `gorm:"constraint:OnDelete:CASCADE"`
	Date      time.Time `gorm:"not null;uniqueIndex:idx_habit_log_unique"`
	Completed bool      `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName 重写确保唯一索引作用到 habit_id + date
func (HabitLog) TableName() string {
	return "habit_logs"
}

// NormalizeDate 截取日历日期并统一到 UTC 零点，保证唯一索引按“天”生效
func NormalizeDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
