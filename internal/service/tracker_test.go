package service

import (
	"errors"
	"testing"
	"time"
)

func TestClampRangeDays(t *testing.T) {
	tests := map[int]int{0: 30, -5: 30, 3: 7, 7: 7, 45: 45, 90: 90, 365: 90}
	for in, want := range tests {
		if got := ClampRangeDays(in); got != want {
			t.Fatalf("ClampRangeDays(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestTrackerCheckInStoresUncheckedAsFalse(t *testing.T) {
	tracker := NewTracker(setupHabitTestDB(t))
	a, _ := tracker.Habits.Create("a")
	b, _ := tracker.Habits.Create("b")

	day := date(2024, 7, 1)
	if err := tracker.CheckIn(day, map[uint]bool{a.ID: true}); err != nil {
		t.Fatalf("CheckIn returned error: %v", err)
	}

	status, err := tracker.Logs.DayStatus(day)
	if err != nil {
		t.Fatalf("DayStatus returned error: %v", err)
	}
	if len(status) != 2 || !status[a.ID] || status[b.ID] {
		t.Fatalf("unexpected status: %+v", status)
	}

	// 再次打卡覆盖
	if err := tracker.CheckIn(day, map[uint]bool{b.ID: true}); err != nil {
		t.Fatalf("CheckIn returned error: %v", err)
	}
	status, _ = tracker.Logs.DayStatus(day)
	if status[a.ID] || !status[b.ID] {
		t.Fatalf("expected overwrite, got %+v", status)
	}
}

func TestTrackerAnalytics(t *testing.T) {
	tracker := NewTracker(setupHabitTestDB(t))
	habit, _ := tracker.Habits.Create("journal")
	now := time.Date(2024, 8, 31, 15, 0, 0, 0, time.UTC)

	// 窗口外的旧记录参与连胜，但不参与完成率
	tracker.Logs.Upsert(habit.ID, date(2024, 1, 1), true)
	tracker.Logs.Upsert(habit.ID, date(2024, 8, 28), true)
	tracker.Logs.Upsert(habit.ID, date(2024, 8, 29), false)
	tracker.Logs.Upsert(habit.ID, date(2024, 8, 30), true)
	tracker.Logs.Upsert(habit.ID, date(2024, 8, 31), true)

	report, err := tracker.Analytics(habit.ID, 7, now)
	if err != nil {
		t.Fatalf("Analytics returned error: %v", err)
	}

	if report.Days != 7 {
		t.Fatalf("unexpected days: %d", report.Days)
	}
	if !report.RangeStart.Equal(date(2024, 8, 24)) || !report.RangeEnd.Equal(date(2024, 8, 31)) {
		t.Fatalf("unexpected window: %v - %v", report.RangeStart, report.RangeEnd)
	}
	if report.CurrentStreak != 2 || report.LongestStreak != 2 {
		t.Fatalf("unexpected streaks: %d/%d", report.CurrentStreak, report.LongestStreak)
	}
	if report.CompletionRate != 0.75 {
		t.Fatalf("unexpected completion rate: %v", report.CompletionRate)
	}
	if len(report.Rows) != 4 || len(report.Heatmap) != 4 || len(report.Daily) != 4 {
		t.Fatalf("unexpected window rows: %d", len(report.Rows))
	}
	if len(report.Weekly) != 7 {
		t.Fatalf("expected 7 weekdays, got %d", len(report.Weekly))
	}
	if len(report.Summary) != 1 || report.Summary[0].CompletionRate != 75 {
		t.Fatalf("unexpected summary: %+v", report.Summary)
	}

	if _, err := tracker.Analytics(habit.ID+1, 30, now); !errors.Is(err, ErrHabitNotFound) {
		t.Fatalf("expected ErrHabitNotFound, got %v", err)
	}
}

func TestTrackerOverview(t *testing.T) {
	tracker := NewTracker(setupHabitTestDB(t))
	a, _ := tracker.Habits.Create("a")
	b, _ := tracker.Habits.Create("b")
	now := date(2024, 3, 10)

	tracker.Logs.Upsert(a.ID, date(2024, 3, 9), true)
	tracker.Logs.Upsert(a.ID, date(2024, 3, 10), false)
	tracker.Logs.Upsert(b.ID, date(2024, 3, 10), true)

	overview, err := tracker.Overview(0, now)
	if err != nil {
		t.Fatalf("Overview returned error: %v", err)
	}
	if overview.Days != DefaultRangeDays {
		t.Fatalf("expected default window, got %d", overview.Days)
	}
	if overview.Rates["a"] != 0.5 || overview.Rates["b"] != 1 {
		t.Fatalf("unexpected rates: %+v", overview.Rates)
	}
	if len(overview.Summary) != 2 || len(overview.Daily) != 2 {
		t.Fatalf("unexpected overview: %+v", overview)
	}
}
