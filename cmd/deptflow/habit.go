package main

import (
	"fmt"

	"github.com/deptflow/internal/cli"
	"github.com/deptflow/internal/db"
	"github.com/deptflow/internal/service"
	"github.com/deptflow/internal/stats"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	logDate   string
	logMissed bool
	statsDays int
)

var habitCmd = &cobra.Command{
	Use:     "habit",
	Aliases: []string{"h"},
	Short:   "Manage tracked habits",
}

var habitAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Start tracking a habit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tracker, err := openTracker()
		if err != nil {
			return err
		}
		habit, err := tracker.Habits.Create(args[0])
		if err != nil {
			return fmt.Errorf("failed to add habit: %w", err)
		}
		color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "✓ Added habit %q\n", habit.Name)
		fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", color.New(color.Faint).Sprintf("id %d", habit.ID))
		return nil
	},
}

var habitListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List habits with their streaks",
	RunE: func(cmd *cobra.Command, args []string) error {
		tracker, err := openTracker()
		if err != nil {
			return err
		}
		lines, err := habitLines(tracker)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), cli.RenderHabits(lines))
		return nil
	},
}

var habitRenameCmd = &cobra.Command{
	Use:   "rename <id> <name>",
	Short: "Rename a habit",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		tracker, err := openTracker()
		if err != nil {
			return err
		}
		habit, err := tracker.Habits.Rename(id, args[1])
		if err != nil {
			return fmt.Errorf("failed to rename habit: %w", err)
		}
		color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "✓ Renamed habit %d to %q\n", habit.ID, habit.Name)
		return nil
	},
}

var habitDeleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Delete a habit and all of its logs",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		tracker, err := openTracker()
		if err != nil {
			return err
		}
		if err := tracker.Habits.Delete(id); err != nil {
			return fmt.Errorf("failed to delete habit: %w", err)
		}
		color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "✓ Deleted habit %d\n", id)
		return nil
	},
}

var habitLogCmd = &cobra.Command{
	Use:   "log <id>",
	Short: "Mark a habit completed (or --missed) on a day",
	Long: `Mark a habit completed on a day. Logging the same day again overwrites
the previous value.

Examples:
  deptflow habit log 3
  deptflow habit log 3 --date 2024-05-01
  deptflow habit log 3 --missed`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		day, err := parseDay(logDate)
		if err != nil {
			return err
		}
		tracker, err := openTracker()
		if err != nil {
			return err
		}
		entry, err := tracker.Logs.Upsert(id, day, !logMissed)
		if err != nil {
			return fmt.Errorf("failed to log habit: %w", err)
		}

		out := cmd.OutOrStdout()
		if entry.Completed {
			color.New(color.FgGreen).Fprintf(out, "✓ Completed on %s\n", entry.Date.Format(dateLayout))
		} else {
			color.New(color.FgYellow).Fprintf(out, "✗ Missed on %s\n", entry.Date.Format(dateLayout))
		}
		current, longest, err := tracker.Logs.Streaks(id)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, streakLine(current, longest))
		return nil
	},
}

var habitStatsCmd = &cobra.Command{
	Use:   "stats [id]",
	Short: "Show the summary table, or one habit's analytics",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tracker, err := openTracker()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		if len(args) == 0 {
			overview, err := tracker.Overview(statsDays, now())
			if err != nil {
				return err
			}
			fmt.Fprintln(out, cli.RenderTitle("Habit Summary"))
			fmt.Fprintln(out, cli.RenderSummary(overview))
			return nil
		}

		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		report, err := tracker.Analytics(id, statsDays, now())
		if err != nil {
			return fmt.Errorf("failed to load analytics: %w", err)
		}
		printReport(cmd, report)
		return nil
	},
}

func init() {
	habitLogCmd.Flags().StringVarP(&logDate, "date", "d", "", "day to log (YYYY-MM-DD, default today)")
	habitLogCmd.Flags().BoolVar(&logMissed, "missed", false, "record the day as missed")
	habitStatsCmd.Flags().IntVarP(&statsDays, "days", "n", service.DefaultRangeDays, "analytics window in days (7-90)")

	habitCmd.AddCommand(habitAddCmd, habitListCmd, habitRenameCmd, habitDeleteCmd, habitLogCmd, habitStatsCmd)
	rootCmd.AddCommand(habitCmd)
}

func habitLines(tracker *service.Tracker) ([]cli.HabitLine, error) {
	habits, err := tracker.Habits.List()
	if err != nil {
		return nil, err
	}
	status, err := tracker.Logs.DayStatus(db.NormalizeDate(now()))
	if err != nil {
		return nil, err
	}

	lines := make([]cli.HabitLine, 0, len(habits))
	for _, habit := range habits {
		current, longest, err := tracker.Logs.Streaks(habit.ID)
		if err != nil {
			return nil, err
		}
		line := cli.HabitLine{ID: habit.ID, Name: habit.Name, Current: current, Longest: longest}
		if done, ok := status[habit.ID]; ok {
			line.Today = &done
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// streakLine 渲染连胜信息，当前连胜为 0 时用暗色
func streakLine(current, longest int) string {
	currentColor := color.New(color.FgGreen, color.Bold)
	if current == 0 {
		currentColor = color.New(color.Faint)
	}
	return fmt.Sprintf("  current streak %s  longest %s",
		currentColor.Sprintf("%d", current),
		color.New(color.FgCyan).Sprintf("%d", longest))
}

func printReport(cmd *cobra.Command, report *service.AnalyticsReport) {
	out := cmd.OutOrStdout()
	faint := color.New(color.Faint)

	fmt.Fprintln(out, cli.RenderTitle(report.Habit.Name))
	fmt.Fprintln(out, faint.Sprintf("%s → %s (%d days)",
		report.RangeStart.Format(dateLayout), report.RangeEnd.Format(dateLayout), report.Days))
	fmt.Fprintln(out, streakLine(report.CurrentStreak, report.LongestStreak))
	fmt.Fprintf(out, "  completion rate %s\n", cli.FormatPercent(stats.RatePercent(report.CompletionRate)))

	fmt.Fprintln(out)
	for _, day := range report.Weekly {
		rate := faint.Sprint("n/a")
		if day.Rate != nil {
			rate = cli.FormatPercent(stats.RatePercent(*day.Rate))
		}
		fmt.Fprintf(out, "  %-9s %s\n", day.Name, rate)
	}
}
