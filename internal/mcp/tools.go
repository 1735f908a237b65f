package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/deptflow/internal/db"
	"github.com/deptflow/internal/stats"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const dateLayout = "2006-01-02"

func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_habits",
		Description: "List all tracked habits with their current and longest streaks",
	}, s.handleListHabits)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "add_habit",
		Description: "Start tracking a new habit",
	}, s.handleAddHabit)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "rename_habit",
		Description: "Rename an existing habit",
	}, s.handleRenameHabit)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "delete_habit",
		Description: "Delete a habit and all of its logs",
	}, s.handleDeleteHabit)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "log_habit",
		Description: "Record whether a habit was completed on a day; logging the same day again overwrites it",
	}, s.handleLogHabit)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_streaks",
		Description: "Get the current and longest completion streak of a habit",
	}, s.handleGetStreaks)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_summary",
		Description: "Summarize completion per habit over the last N days",
	}, s.handleGetSummary)
}

// Tool input/output types

type listHabitsInput struct{}

type habitOutput struct {
	ID            uint   `json:"id"`
	Name          string `json:"name"`
	CreatedDate   string `json:"created_date"`
	CurrentStreak int    `json:"current_streak"`
	LongestStreak int    `json:"longest_streak"`
}

type listHabitsOutput struct {
	Habits  []habitOutput `json:"habits"`
	Message string        `json:"message,omitempty"`
}

type addHabitInput struct {
	Name string `json:"name" jsonschema:"Name of the habit"`
}

type renameHabitInput struct {
	ID   uint   `json:"id" jsonschema:"Habit ID"`
	Name string `json:"name" jsonschema:"New habit name"`
}

type deleteHabitInput struct {
	ID uint `json:"id" jsonschema:"Habit ID"`
}

type logHabitInput struct {
	HabitID   uint   `json:"habit_id" jsonschema:"Habit ID"`
	Date      string `json:"date,omitempty" jsonschema:"Day in YYYY-MM-DD format, defaults to today"`
	Completed bool   `json:"completed" jsonschema:"Whether the habit was completed that day"`
}

type logOutput struct {
	HabitID   uint   `json:"habit_id"`
	Date      string `json:"date"`
	Completed bool   `json:"completed"`
	Message   string `json:"message"`
}

type getStreaksInput struct {
	HabitID uint `json:"habit_id" jsonschema:"Habit ID"`
}

type streaksOutput struct {
	HabitID uint   `json:"habit_id"`
	Name    string `json:"name"`
	Current int    `json:"current"`
	Longest int    `json:"longest"`
}

type getSummaryInput struct {
	Days int `json:"days,omitempty" jsonschema:"Window length in days (7-90, default 30)"`
}

type summaryOutput struct {
	RangeStart string             `json:"range_start"`
	RangeEnd   string             `json:"range_end"`
	Days       int                `json:"days"`
	Summary    []stats.SummaryRow `json:"summary"`
}

type simpleOutput struct {
	Message string `json:"message"`
}

// Tool handlers

func (s *Server) handleListHabits(ctx context.Context, req *mcp.CallToolRequest, input listHabitsInput) (*mcp.CallToolResult, listHabitsOutput, error) {
	habits, err := s.tracker.Habits.List()
	if err != nil {
		return nil, listHabitsOutput{}, fmt.Errorf("failed to list habits: %w", err)
	}

	out := listHabitsOutput{Habits: make([]habitOutput, 0, len(habits))}
	for _, habit := range habits {
		item, err := s.habitWithStreaks(habit)
		if err != nil {
			return nil, listHabitsOutput{}, err
		}
		out.Habits = append(out.Habits, item)
	}
	if len(out.Habits) == 0 {
		out.Message = "No habits tracked yet."
	}
	return nil, out, nil
}

func (s *Server) handleAddHabit(ctx context.Context, req *mcp.CallToolRequest, input addHabitInput) (*mcp.CallToolResult, habitOutput, error) {
	habit, err := s.tracker.Habits.Create(input.Name)
	if err != nil {
		return nil, habitOutput{}, fmt.Errorf("failed to add habit: %w", err)
	}
	return nil, habitOutput{ID: habit.ID, Name: habit.Name, CreatedDate: habit.CreatedDate.Format(dateLayout)}, nil
}

func (s *Server) handleRenameHabit(ctx context.Context, req *mcp.CallToolRequest, input renameHabitInput) (*mcp.CallToolResult, habitOutput, error) {
	habit, err := s.tracker.Habits.Rename(input.ID, input.Name)
	if err != nil {
		return nil, habitOutput{}, fmt.Errorf("failed to rename habit: %w", err)
	}
	out, err := s.habitWithStreaks(*habit)
	if err != nil {
		return nil, habitOutput{}, err
	}
	return nil, out, nil
}

func (s *Server) handleDeleteHabit(ctx context.Context, req *mcp.CallToolRequest, input deleteHabitInput) (*mcp.CallToolResult, simpleOutput, error) {
	habit, err := s.tracker.Habits.Get(input.ID)
	if err != nil {
		return nil, simpleOutput{}, fmt.Errorf("failed to delete habit: %w", err)
	}
	if err := s.tracker.Habits.Delete(input.ID); err != nil {
		return nil, simpleOutput{}, fmt.Errorf("failed to delete habit: %w", err)
	}
	return nil, simpleOutput{Message: fmt.Sprintf("Deleted habit %q and its logs", habit.Name)}, nil
}

func (s *Server) handleLogHabit(ctx context.Context, req *mcp.CallToolRequest, input logHabitInput) (*mcp.CallToolResult, logOutput, error) {
	date := db.NormalizeDate(s.now())
	if raw := strings.TrimSpace(input.Date); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			return nil, logOutput{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", raw)
		}
		date = parsed
	}

	entry, err := s.tracker.Logs.Upsert(input.HabitID, date, input.Completed)
	if err != nil {
		return nil, logOutput{}, fmt.Errorf("failed to log habit: %w", err)
	}

	state := "missed"
	if entry.Completed {
		state = "completed"
	}
	return nil, logOutput{
		HabitID:   entry.HabitID,
		Date:      entry.Date.Format(dateLayout),
		Completed: entry.Completed,
		Message:   fmt.Sprintf("Marked habit %d as %s on %s", entry.HabitID, state, entry.Date.Format(dateLayout)),
	}, nil
}

func (s *Server) handleGetStreaks(ctx context.Context, req *mcp.CallToolRequest, input getStreaksInput) (*mcp.CallToolResult, streaksOutput, error) {
	habit, err := s.tracker.Habits.Get(input.HabitID)
	if err != nil {
		return nil, streaksOutput{}, fmt.Errorf("failed to get streaks: %w", err)
	}
	current, longest, err := s.tracker.Logs.Streaks(habit.ID)
	if err != nil {
		return nil, streaksOutput{}, fmt.Errorf("failed to get streaks: %w", err)
	}
	return nil, streaksOutput{HabitID: habit.ID, Name: habit.Name, Current: current, Longest: longest}, nil
}

func (s *Server) handleGetSummary(ctx context.Context, req *mcp.CallToolRequest, input getSummaryInput) (*mcp.CallToolResult, summaryOutput, error) {
	overview, err := s.tracker.Overview(input.Days, s.now())
	if err != nil {
		return nil, summaryOutput{}, fmt.Errorf("failed to summarize: %w", err)
	}
	summary := overview.Summary
	if summary == nil {
		summary = []stats.SummaryRow{}
	}
	return nil, summaryOutput{
		RangeStart: overview.RangeStart.Format(dateLayout),
		RangeEnd:   overview.RangeEnd.Format(dateLayout),
		Days:       overview.Days,
		Summary:    summary,
	}, nil
}

func (s *Server) habitWithStreaks(habit db.Habit) (habitOutput, error) {
	current, longest, err := s.tracker.Logs.Streaks(habit.ID)
	if err != nil {
		return habitOutput{}, fmt.Errorf("failed to compute streaks for %q: %w", habit.Name, err)
	}
	return habitOutput{
		ID:            habit.ID,
		Name:          habit.Name,
		CreatedDate:   habit.CreatedDate.Format(dateLayout),
		CurrentStreak: current,
		LongestStreak: longest,
	}, nil
}
