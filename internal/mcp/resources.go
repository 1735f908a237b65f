package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/deptflow/internal/db"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	todayURI   = "deptflow://today"
	summaryURI = "deptflow://summary"
)

func (s *Server) registerResources() {
	// 今日打卡状态
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         todayURI,
		Name:        "Today's Check-in",
		Description: "Every habit with whether it was completed today",
		MIMEType:    "application/json",
	}, s.handleTodayResource)

	s.mcpServer.AddResource(&mcp.Resource{
		URI:         summaryURI,
		Name:        "Habit Summary",
		Description: "Completion summary and rates over the default 30 day window",
		MIMEType:    "application/json",
	}, s.handleSummaryResource)
}

type todayHabit struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Completed bool   `json:"completed"`
	Logged    bool   `json:"logged"`
}

func (s *Server) handleTodayResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	today := db.NormalizeDate(s.now())

	habits, err := s.tracker.Habits.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list habits: %w", err)
	}
	status, err := s.tracker.Logs.DayStatus(today)
	if err != nil {
		return nil, fmt.Errorf("failed to load day status: %w", err)
	}

	items := make([]todayHabit, 0, len(habits))
	done := 0
	for _, habit := range habits {
		completed, logged := status[habit.ID]
		if completed {
			done++
		}
		items = append(items, todayHabit{ID: habit.ID, Name: habit.Name, Completed: completed, Logged: logged})
	}

	result := map[string]any{
		"date":      today.Format(dateLayout),
		"habits":    items,
		"completed": done,
		"total":     len(items),
	}
	return jsonResource(todayURI, result)
}

func (s *Server) handleSummaryResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	overview, err := s.tracker.Overview(0, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to summarize: %w", err)
	}

	result := map[string]any{
		"range_start": overview.RangeStart.Format(dateLayout),
		"range_end":   overview.RangeEnd.Format(dateLayout),
		"days":        overview.Days,
		"summary":     overview.Summary,
		"rates":       overview.Rates,
	}
	return jsonResource(summaryURI, result)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
