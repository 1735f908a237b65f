package main

import (
	"fmt"
	"math/rand/v2"

	"github.com/deptflow/internal/db"
	"github.com/deptflow/internal/service"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	seedDays  int
	seedValue uint64
	seedForce bool
)

// 演示数据：习惯名与每天完成的概率
var sampleHabits = []struct {
	name string
	rate float64
}{
	{"Drink water", 0.9},
	{"Read 20 pages", 0.7},
	{"Exercise", 0.55},
	{"Meditate", 0.4},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Fill the habit database with sample data",
	Long: `Create a few sample habits and random logs for the last --days days so the
dashboard has something to show. Some days are left unlogged on purpose.

Skipped when habits already exist unless --force is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		tracker, err := openTracker()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		existing, err := tracker.Habits.List()
		if err != nil {
			return err
		}
		if len(existing) > 0 && !seedForce {
			fmt.Fprintln(out, "Habits already exist, skipping (use --force to add samples anyway)")
			return nil
		}

		created, logged, err := seedSamples(tracker, seedDays, seedValue)
		if err != nil {
			return err
		}
		color.New(color.FgGreen).Fprintf(out, "✓ Created %d habits with %d logs\n", created, logged)
		return nil
	},
}

func init() {
	seedCmd.Flags().IntVarP(&seedDays, "days", "n", 60, "number of past days to fill")
	seedCmd.Flags().Uint64Var(&seedValue, "seed", 1, "random seed")
	seedCmd.Flags().BoolVar(&seedForce, "force", false, "add samples even when habits exist")
	rootCmd.AddCommand(seedCmd)
}

// seedSamples 写入演示习惯与日志，相同种子得到相同数据
func seedSamples(tracker *service.Tracker, days int, seed uint64) (habits, logs int, err error) {
	if days <= 0 {
		return 0, 0, fmt.Errorf("days must be positive")
	}
	rng := rand.New(rand.NewPCG(seed, seed))
	today := db.NormalizeDate(now())

	for _, sample := range sampleHabits {
		habit, err := tracker.Habits.Create(sample.name)
		if err != nil {
			return habits, logs, fmt.Errorf("failed to create %q: %w", sample.name, err)
		}
		habits++

		for offset := days - 1; offset >= 0; offset-- {
			// 约一成的日子不记录
			if rng.Float64() < 0.1 {
				continue
			}
			day := today.AddDate(0, 0, -offset)
			if _, err := tracker.Logs.Upsert(habit.ID, day, rng.Float64() < sample.rate); err != nil {
				return habits, logs, err
			}
			logs++
		}
	}
	return habits, logs, nil
}
