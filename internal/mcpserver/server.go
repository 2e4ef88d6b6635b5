// Package mcpserver exposes the school-portal API as typed MCP tools over
// stdio JSON-RPC. It wraps the internal/studieplus service; caching and
// login handling stay server-side so the model only sees domain data.
package mcpserver

import (
	"context"
	"log"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/mboesen/studieplus-mcp/internal/config"
	"github.com/mboesen/studieplus-mcp/internal/studieplus"
)

// API is the service surface the tools consume; *studieplus.Service
// implements it, tests mock it.
type API interface {
	GetDayOverview(ctx context.Context, date string) (*studieplus.DayOverview, error)
	GetWeekOverview(ctx context.Context, weekOffset int) (*studieplus.WeekOverview, error)
	GetAssignments(ctx context.Context, filter studieplus.AssignmentFilter) ([]studieplus.AssignmentView, error)
	GetAssignmentDetail(ctx context.Context, rowIndex int) (*studieplus.AssignmentDetailView, error)
	GetLessonFiles(ctx context.Context, lessonID int64) (*studieplus.LessonFiles, error)
	DownloadFile(ctx context.Context, fileID int64, name string) (*studieplus.DownloadResult, error)
	LoadFile(ctx context.Context, fileID int64, name string) (*studieplus.LoadResult, error)
}

// Server holds the MCP server state.
type Server struct {
	api API
}

func NewServer(api API) *Server {
	return &Server{api: api}
}

// Run starts the MCP stdio server. It blocks until the context is
// cancelled or stdin is closed.
func Run(ctx context.Context, api API) error {
	s := NewServer(api)

	mcpServer := server.NewMCPServer(
		"studieplus",
		config.Version,
		server.WithToolCapabilities(true),
	)

	mcpServer.AddTools(
		server.ServerTool{Tool: dayOverviewTool(), Handler: s.handleDayOverview},
		server.ServerTool{Tool: weekOverviewTool(), Handler: s.handleWeekOverview},
		server.ServerTool{Tool: assignmentsTool(), Handler: s.handleAssignments},
		server.ServerTool{Tool: assignmentDetailsTool(), Handler: s.handleAssignmentDetails},
		server.ServerTool{Tool: lessonFilesTool(), Handler: s.handleLessonFiles},
		server.ServerTool{Tool: downloadFileTool(), Handler: s.handleDownloadFile},
		server.ServerTool{Tool: loadFileTool(), Handler: s.handleLoadFile},
	)

	stdio := server.NewStdioServer(mcpServer)
	stdio.SetErrorLogger(log.New(os.Stderr, "[mcp] ", log.LstdFlags))

	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}
