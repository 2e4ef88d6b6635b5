package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mboesen/studieplus-mcp/internal/studieplus"
)

// --- Tool Definitions ---

func dayOverviewTool() mcp.Tool {
	return mcp.NewToolWithRawSchema(
		"get_day_overview",
		"Get the full picture of one school day: lessons with times, teachers and rooms, homework, teacher notes, and hand-ins due that day.",
		json.RawMessage(`{
			"type": "object",
			"properties": {
				"date": {
					"type": "string",
					"description": "Day to look up, ISO formatted (YYYY-MM-DD). Defaults to today."
				}
			}
		}`),
	)
}

func weekOverviewTool() mcp.Tool {
	return mcp.NewToolWithRawSchema(
		"get_week_overview",
		"Get a compact overview of a school week: lessons per day, lesson and homework counts, and hand-ins due within the week.",
		json.RawMessage(`{
			"type": "object",
			"properties": {
				"week_offset": {
					"type": "integer",
					"description": "Weeks relative to the current one: 0 is this week, 1 next week, -1 last week."
				}
			}
		}`),
	)
}

func assignmentsTool() mcp.Tool {
	return mcp.NewToolWithRawSchema(
		"get_assignments",
		"List hand-in assignments. By default only open (not yet submitted) assignments are returned.",
		json.RawMessage(`{
			"type": "object",
			"properties": {
				"include_submitted": {
					"type": "boolean",
					"description": "Also include already submitted and graded assignments."
				},
				"days_ahead": {
					"type": "integer",
					"description": "Only assignments with a deadline within this many days."
				},
				"subject": {
					"type": "string",
					"description": "Case-insensitive substring match on the subject name."
				}
			}
		}`),
	)
}

func assignmentDetailsTool() mcp.Tool {
	return mcp.NewToolWithRawSchema(
		"get_assignment_details",
		"Get the full details of one assignment by its row_index from get_assignments: description, submission status, grade, and attached files.",
		json.RawMessage(`{
			"type": "object",
			"properties": {
				"row_index": {
					"type": "integer",
					"description": "Row index from the get_assignments listing."
				}
			},
			"required": ["row_index"]
		}`),
	)
}

func lessonFilesTool() mcp.Tool {
	return mcp.NewToolWithRawSchema(
		"get_lesson_files",
		"List the files a teacher attached to a lesson, with download URLs, plus the lesson note when one exists. Use the lesson_id from get_day_overview.",
		json.RawMessage(`{
			"type": "object",
			"properties": {
				"lesson_id": {
					"type": "integer",
					"description": "Lesson ID from the schedule."
				}
			},
			"required": ["lesson_id"]
		}`),
	)
}

func downloadFileTool() mcp.Tool {
	return mcp.NewToolWithRawSchema(
		"download_lesson_file",
		"Download an attached file to local disk and return where it was saved.",
		json.RawMessage(`{
			"type": "object",
			"properties": {
				"file_id": {
					"type": "integer",
					"description": "File ID from get_lesson_files or get_assignment_details."
				},
				"filename": {
					"type": "string",
					"description": "Name to save the file under. Defaults to the file ID."
				}
			},
			"required": ["file_id"]
		}`),
	)
}

func loadFileTool() mcp.Tool {
	return mcp.NewToolWithRawSchema(
		"load_lesson_file",
		"Load an attached file's content inline: text files verbatim, anything else base64-encoded.",
		json.RawMessage(`{
			"type": "object",
			"properties": {
				"file_id": {
					"type": "integer",
					"description": "File ID from get_lesson_files or get_assignment_details."
				},
				"filename": {
					"type": "string",
					"description": "Original file name, used to label the result."
				}
			},
			"required": ["file_id"]
		}`),
	)
}

// --- Tool Handlers ---

type dayOverviewArgs struct {
	Date string `json:"date"`
}

func (s *Server) handleDayOverview(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args dayOverviewArgs
	if err := req.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}

	day, err := s.api.GetDayOverview(ctx, args.Date)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("day overview: %v", err)), nil
	}
	return resultJSON(day)
}

type weekOverviewArgs struct {
	WeekOffset int `json:"week_offset"`
}

func (s *Server) handleWeekOverview(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args weekOverviewArgs
	if err := req.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}

	week, err := s.api.GetWeekOverview(ctx, args.WeekOffset)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("week overview: %v", err)), nil
	}
	return resultJSON(week)
}

type assignmentsArgs struct {
	IncludeSubmitted bool   `json:"include_submitted"`
	DaysAhead        int    `json:"days_ahead"`
	Subject          string `json:"subject"`
}

func (s *Server) handleAssignments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args assignmentsArgs
	if err := req.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}

	list, err := s.api.GetAssignments(ctx, studieplus.AssignmentFilter{
		IncludeSubmitted: args.IncludeSubmitted,
		DaysAhead:        args.DaysAhead,
		Subject:          args.Subject,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("assignments: %v", err)), nil
	}
	return resultJSON(list)
}

type assignmentDetailsArgs struct {
	RowIndex *int `json:"row_index"`
}

func (s *Server) handleAssignmentDetails(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args assignmentDetailsArgs
	if err := req.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	if args.RowIndex == nil {
		return mcp.NewToolResultError("row_index is required"), nil
	}

	det, err := s.api.GetAssignmentDetail(ctx, *args.RowIndex)
	if errors.Is(err, studieplus.ErrAssignmentNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("no assignment at row_index %d; list assignments first", *args.RowIndex)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("assignment details: %v", err)), nil
	}
	return resultJSON(det)
}

type lessonFilesArgs struct {
	LessonID int64 `json:"lesson_id"`
}

func (s *Server) handleLessonFiles(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args lessonFilesArgs
	if err := req.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	if args.LessonID == 0 {
		return mcp.NewToolResultError("lesson_id is required"), nil
	}

	files, err := s.api.GetLessonFiles(ctx, args.LessonID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("lesson files: %v", err)), nil
	}
	return resultJSON(files)
}

type fileArgs struct {
	FileID   int64  `json:"file_id"`
	Filename string `json:"filename"`
}

func (s *Server) handleDownloadFile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args fileArgs
	if err := req.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	if args.FileID == 0 {
		return mcp.NewToolResultError("file_id is required"), nil
	}

	res, err := s.api.DownloadFile(ctx, args.FileID, args.Filename)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("download file: %v", err)), nil
	}
	return resultJSON(res)
}

func (s *Server) handleLoadFile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args fileArgs
	if err := req.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	if args.FileID == 0 {
		return mcp.NewToolResultError("file_id is required"), nil
	}

	res, err := s.api.LoadFile(ctx, args.FileID, args.Filename)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("load file: %v", err)), nil
	}
	return resultJSON(res)
}

// resultJSON marshals v to JSON and returns it as a tool result.
func resultJSON(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}
