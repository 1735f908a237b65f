package main

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/deptflow/internal/cli"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	checkinDate string
	checkinDone []string
)

var checkinCmd = &cobra.Command{
	Use:   "checkin",
	Short: "Tick the habits completed on a day",
	Long: `Open an interactive checklist of all habits for a day. Every habit left
unchecked is stored as missed, so the day is fully recorded.

Pass --done to skip the form:
  deptflow checkin --done 1,3
  deptflow checkin --date 2024-05-01 --done 2
  deptflow checkin --done ""      # record every habit as missed`,
	RunE: func(cmd *cobra.Command, args []string) error {
		day, err := parseDay(checkinDate)
		if err != nil {
			return err
		}
		tracker, err := openTracker()
		if err != nil {
			return err
		}
		habits, err := tracker.Habits.List()
		if err != nil {
			return err
		}
		if len(habits) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No habits tracked yet. Add one with 'deptflow habit add'.")
			return nil
		}

		var selected []uint
		if cmd.Flags().Changed("done") {
			selected, err = parseIDList(checkinDone)
			if err != nil {
				return err
			}
		} else {
			status, err := tracker.Logs.DayStatus(day)
			if err != nil {
				return err
			}
			form := cli.CheckInForm(day.Format(dateLayout), habits, status, &selected)
			if err := form.Run(); err != nil {
				if errors.Is(err, huh.ErrUserAborted) {
					fmt.Fprintln(cmd.OutOrStdout(), "Check-in cancelled.")
					return nil
				}
				return err
			}
		}

		completed := cli.CompletedMap(habits, selected)
		if err := tracker.CheckIn(day, completed); err != nil {
			return fmt.Errorf("failed to save check-in: %w", err)
		}
		color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "✓ Saved %s: %d of %d habits completed\n",
			day.Format(dateLayout), len(completed), len(habits))
		return nil
	},
}

func init() {
	checkinCmd.Flags().StringVarP(&checkinDate, "date", "d", "", "day to record (YYYY-MM-DD, default today)")
	checkinCmd.Flags().StringSliceVar(&checkinDone, "done", nil, "completed habit ids, skips the interactive form")
	rootCmd.AddCommand(checkinCmd)
}
