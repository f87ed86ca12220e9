package mcp

import (
	"context"
	"encoding/json"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// registerTools exposes every Handler method as an MCP tool.
func registerTools(server *sdkmcp.Server, services Services) {
	h := NewHandler(services.Panels, services.Activity, services.Archive)

	// Catalog and setup
	addTool[EmptyParams](server, h, "list_participants",
		"List the specialists that can be invited to a panel")
	addTool[EmptyParams](server, h, "open_panel",
		"Open a new expert panel in the setup view and return its id")
	addTool[AnalyzeCaseParams](server, h, "analyze_case",
		"Suggest specialists for a free-text case; also returns the default initial selection")

	// Consultation
	addTool[StartConsultationParams](server, h, "start_consultation",
		"Start a consultation with the selected specialists. Turns play back in real time")
	addTool[PanelParams](server, h, "get_consultation",
		"Get the panel view, the transcript so far, who is typing and, once completed, the consensus")
	addTool[PanelParams](server, h, "get_consensus",
		"Get the consensus topics of a completed consultation")

	// Navigation
	addTool[PanelParams](server, h, "go_to_report",
		"Move a completed consultation to the report view. May be denied by policy")
	addTool[PanelParams](server, h, "go_to_setup",
		"Return to setup from any view, cancelling a playing consultation")
	addTool[PanelParams](server, h, "close_panel",
		"Cancel any playing consultation and discard the panel")

	// History
	addTool[GetRecentActivityParams](server, h, "get_recent_activity",
		"Get recent activity entries for a panel")
	if services.Archive != nil {
		addTool[ListArchivedRunsParams](server, h, "list_archived_runs",
			"List archived consultation runs, newest first")
		addTool[GetArchivedRunParams](server, h, "get_archived_run",
			"Get an archived run with its transcript and consensus")
	}
}

func addTool[In any](server *sdkmcp.Server, h *Handler, name, description string) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{Name: name, Description: description},
		func(ctx context.Context, _ *sdkmcp.CallToolRequest, in In) (*sdkmcp.CallToolResult, any, error) {
			params, err := json.Marshal(in)
			if err != nil {
				return nil, nil, err
			}
			result, err := h.Handle(ctx, getTenantID(ctx), getBoundPanelID(ctx), name, params)
			if err != nil {
				return errorResult(err), nil, nil
			}
			return jsonResult(result), nil, nil
		})
}

func jsonResult(v any) *sdkmcp.CallToolResult {
	data, err := json.Marshal(v)
	if err != nil {
		return errorResult(err)
	}
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
	}
}

func errorResult(err error) *sdkmcp.CallToolResult {
	apiErr := MapError(err)
	if apiErr == nil {
		apiErr = &APIError{Code: CodeInternal, Message: err.Error()}
	}
	data, _ := json.Marshal(apiErr)
	return &sdkmcp.CallToolResult{
		IsError: true,
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
	}
}
