// Package mcp 通过 Model Context Protocol 暴露习惯库，供 AI 助手读写打卡数据。
package mcp

import (
	"context"
	"time"

	"github.com/deptflow/internal/service"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server wraps the MCP server with tracker access.
type Server struct {
	mcpServer *mcp.Server
	tracker   *service.Tracker
	now       func() time.Time
}

// NewServer creates a new MCP server backed by the habit tracker.
func NewServer(tracker *service.Tracker, version string) *Server {
	if version == "" {
		version = "dev"
	}
	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "deptflow",
			Version: version,
		},
		nil,
	)

	s := &Server{
		mcpServer: mcpServer,
		tracker:   tracker,
		now:       time.Now,
	}

	s.registerTools()
	s.registerResources()

	return s
}

// Serve starts the MCP server using stdio transport.
func (s *Server) Serve(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}
