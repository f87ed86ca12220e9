package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `tumorboard simulates a multidisciplinary tumor board: a panel of specialists discusses a free-text case and converges on consensus topics.

Core concepts:
- Panel: one board with a view (setup, consultation, report). Open one with open_panel.
- Participant: a specialist from the catalog (list_participants). Unknown ids are dropped.
- Run: one consultation. Its turns are scripted up front and played back in real time.
- Consensus: topics (Imaging Findings, Treatment Plan, ...) derived from the script, available once the run completes.

Default workflow:
1) open_panel, then analyze_case(panel_id, case_text) for suggested specialists.
2) start_consultation(panel_id, participant_ids, case_text). The view moves to consultation.
3) Poll get_consultation until run.status is "completed". Turns appear in order.
4) go_to_report(panel_id). The response may be denied by policy; the view then stays in consultation.
5) go_to_setup(panel_id) starts over. It cancels a playing run; nothing more is appended after that.

Binding a panel:
- Panel tools may omit panel_id when the request is bound to a panel, either with the
  Tumorboard-Panel-Id HTTP header or with _meta.panel_id on the tool call.

History:
- get_recent_activity(panel_id) lists panel transitions.
- list_archived_runs / get_archived_run return completed runs when archiving is enabled.

Docs:
- tumorboard://docs/index
- tumorboard://docs/workflow
- tumorboard://docs/consensus
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "tumorboard://docs/index",
		Name:        "docs_index",
		Title:       "tumorboard docs index",
		Description: "Entry point: what the server does and which doc to read next.",
		Content: `# tumorboard: Docs Index

## What this server does

It orchestrates a simulated expert panel. You describe a case, pick specialists, and watch a
scripted discussion play back turn by turn. When the discussion finishes, the panel's consensus
is summarized per topic.

## Read next

- ` + "`tumorboard://docs/workflow`" + ` for the view state machine and timing.
- ` + "`tumorboard://docs/consensus`" + ` for how topics and statuses are derived.

## Limitations

- Content is template based. It quotes your case but does not reason about it.
- Panels live in memory. Only completed runs are archived.
`,
	},
	{
		URI:         "tumorboard://docs/workflow",
		Name:        "docs_workflow",
		Title:       "Panel workflow",
		Description: "Views, transitions, and playback timing.",
		Content: `# Panel workflow

## Views

| From | Action | To |
|---|---|---|
| setup | start_consultation | consultation |
| consultation (completed) | go_to_report | report, or stays in consultation when denied |
| any | go_to_setup | setup, the current run is cancelled and discarded |

go_to_report while the run is still playing fails with RUN_NOT_COMPLETED.

## Playback

Every turn is preceded by a typing indicator. System narration types for about 0.5s and
waits 1.5s after it is shown. Specialists type for about 0.7s and then "think" for a random
1.2s to 3s. get_consultation returns the turns emitted so far and who is typing.

## Selection

analyze_case suggests specialists from keywords in the case, in catalog order. When nothing
matches, the oncologist and radiologist are suggested. The default selection is the first two
suggestions.
`,
	},
	{
		URI:         "tumorboard://docs/consensus",
		Name:        "docs_consensus",
		Title:       "Consensus topics",
		Description: "How the report groups turns into topics and statuses.",
		Content: `# Consensus topics

Each specialist turn is matched against topic keywords: Imaging Findings, Pathology Report,
Treatment Plan, Surgical Assessment, Next Steps. A turn can count towards several topics.
System narration never counts.

Statuses:
- Each topic starts from its default: Imaging Findings and Surgical Assessment are Discussed,
  Pathology Report is Pending, Treatment Plan and Next Steps are Proposed.
- A topic touched by the consensus poll becomes Proposed. A poll that matches no topic is
  filed under Next Steps.

When no topic matches, the report holds a single "General Discussion" entry.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		doc := doc

		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
