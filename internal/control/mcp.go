package control

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/fakeyudi/clicktrail/internal/report"
)

// NewMCPServer registers the capture lifecycle as MCP tools.
func NewMCPServer(ctl *Controller, version string) *server.MCPServer {
	s := server.NewMCPServer("clicktrail", version, server.WithToolCapabilities(false))
	t := &tools{ctl: ctl}

	s.AddTool(mcp.NewTool("start_capture",
		mcp.WithDescription("Start a new capture session on the open page. Any previous session is discarded."),
	), t.start)

	s.AddTool(mcp.NewTool("stop_capture",
		mcp.WithDescription("Stop the capture session. Interactions already being captured still complete."),
	), t.stop)

	s.AddTool(mcp.NewTool("export_report",
		mcp.WithDescription("Write the stopped session as a report and return its path."),
		mcp.WithString("format",
			mcp.Description("Report format; defaults to the configured format"),
			mcp.Enum("pdf", "json", "markdown"),
		),
	), t.export)

	s.AddTool(mcp.NewTool("capture_status",
		mcp.WithDescription("Report whether capture is armed and how many entries were recorded."),
	), t.status)

	return s
}

type tools struct {
	ctl *Controller
}

func (t *tools) start(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := t.ctl.Start(ctx); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("capture started"), nil
}

func (t *tools) stop(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	t.ctl.Stop()
	return mcp.NewToolResultText("capture stopped"), nil
}

func (t *tools) export(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := t.ctl.Export(ctx, req.GetString("format", ""))
	switch {
	case errors.Is(err, report.ErrNothingToExport):
		return mcp.NewToolResultText("nothing to export"), nil
	case err != nil:
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("report written to %s", path)), nil
}

func (t *tools) status(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(t.ctl.Status())
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}
