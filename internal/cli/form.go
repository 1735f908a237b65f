package cli

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/deptflow/internal/db"
)

// ErrPasswordMismatch 两次输入的密码不一致
var ErrPasswordMismatch = errors.New("passwords do not match")

// CheckInForm 构造当天打卡的多选表单，已完成的习惯预先勾选。
// 表单提交后 selected 中是勾选的习惯 ID。
func CheckInForm(date string, habits []db.Habit, status map[uint]bool, selected *[]uint) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[uint]().
				Title(fmt.Sprintf("Check-in for %s", date)).
				Description("Space to toggle, enter to save. Unchecked habits are stored as missed.").
				Options(checkInOptions(habits, status)...).
				Value(selected),
		),
	)
}

func checkInOptions(habits []db.Habit, status map[uint]bool) []huh.Option[uint] {
	options := make([]huh.Option[uint], 0, len(habits))
	for _, habit := range habits {
		options = append(options, huh.NewOption(habit.Name, habit.ID).Selected(status[habit.ID]))
	}
	return options
}

// CompletedMap 把勾选结果转换为 Tracker.CheckIn 需要的映射，未知 ID 忽略
func CompletedMap(habits []db.Habit, selected []uint) map[uint]bool {
	known := make(map[uint]bool, len(habits))
	for _, habit := range habits {
		known[habit.ID] = true
	}

	completed := make(map[uint]bool, len(selected))
	for _, id := range selected {
		if known[id] {
			completed[id] = true
		}
	}
	return completed
}

// PromptPassword 交互式读取两次密码
func PromptPassword() (string, error) {
	var password, confirm string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Dashboard password").
				EchoMode(huh.EchoModePassword).
				Validate(func(s string) error {
					if len(s) < 8 {
						return errors.New("use at least 8 characters")
					}
					return nil
				}).
				Value(&password),
			huh.NewInput().
				Title("Confirm password").
				EchoMode(huh.EchoModePassword).
				Value(&confirm),
		),
	)
	if err := form.Run(); err != nil {
		return "", err
	}
	if password != confirm {
		return "", ErrPasswordMismatch
	}
	return password, nil
}
