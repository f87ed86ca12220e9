package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rpggio/tumorboard/internal/domain/activity"
	"github.com/rpggio/tumorboard/internal/domain/archive"
	"github.com/rpggio/tumorboard/internal/domain/consultation"
	"github.com/rpggio/tumorboard/internal/domain/orchestrator"
	"github.com/rpggio/tumorboard/internal/domain/panel"
	"github.com/rpggio/tumorboard/internal/domain/participant"
)

// PanelService defines panel operations needed by MCP.
type PanelService interface {
	Catalog() *participant.Catalog
	OpenPanel(ctx context.Context, tenantID string) (*panel.State, error)
	GetPanel(ctx context.Context, tenantID, panelID string) (*panel.State, error)
	AnalyzeCase(ctx context.Context, tenantID, panelID, caseText string) (*panel.AnalyzeResult, error)
	StartConsultation(ctx context.Context, tenantID string, req panel.StartRequest) (*panel.State, error)
	Consensus(ctx context.Context, tenantID, panelID string) ([]consultation.ConsensusRecord, error)
	GoToReport(ctx context.Context, tenantID, panelID string) (orchestrator.Transition, error)
	GoToSetup(ctx context.Context, tenantID, panelID string) (orchestrator.Transition, error)
	ClosePanel(ctx context.Context, tenantID, panelID string) error
}

// ActivityService defines activity operations needed by MCP.
type ActivityService interface {
	GetRecentActivity(ctx context.Context, tenantID string, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error)
}

// ArchiveService defines archive operations needed by MCP.
type ArchiveService interface {
	Get(ctx context.Context, tenantID, id string) (*archive.ArchivedRun, error)
	List(ctx context.Context, tenantID string, opts archive.ListOptions) ([]archive.RunSummary, error)
}

// Handler dispatches MCP commands.
type Handler struct {
	panels   PanelService
	activity ActivityService
	archive  ArchiveService
}

// NewHandler creates a new MCP handler. activitySvc and archiveSvc may be nil.
func NewHandler(panels PanelService, activitySvc ActivityService, archiveSvc ArchiveService) *Handler {
	return &Handler{
		panels:   panels,
		activity: activitySvc,
		archive:  archiveSvc,
	}
}

// Handle dispatches MCP requests to domain services. Panel-scoped methods
// that omit panel_id fall back to boundPanelID.
func (h *Handler) Handle(ctx context.Context, tenantID, boundPanelID, method string, params json.RawMessage) (any, error) {
	switch method {
	case "list_participants":
		return ListParticipantsResponse{Participants: h.panels.Catalog().All()}, nil
	case "open_panel":
		state, err := h.panels.OpenPanel(ctx, tenantID)
		if err != nil {
			return nil, mapError(err)
		}
		return state, nil
	case "analyze_case":
		var req AnalyzeCaseParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		req.PanelID = boundOr(req.PanelID, boundPanelID)
		result, err := h.panels.AnalyzeCase(ctx, tenantID, req.PanelID, req.CaseText)
		if err != nil {
			return nil, mapError(err)
		}
		return result, nil
	case "start_consultation":
		var req StartConsultationParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		req.PanelID = boundOr(req.PanelID, boundPanelID)
		state, err := h.panels.StartConsultation(ctx, tenantID, panel.StartRequest{
			PanelID:        req.PanelID,
			ParticipantIDs: req.ParticipantIDs,
			CaseText:       req.CaseText,
		})
		if err != nil {
			return nil, mapError(err)
		}
		return state, nil
	case "get_consultation":
		var req PanelParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		req.PanelID = boundOr(req.PanelID, boundPanelID)
		state, err := h.panels.GetPanel(ctx, tenantID, req.PanelID)
		if err != nil {
			return nil, mapError(err)
		}
		return state, nil
	case "get_consensus":
		var req PanelParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		req.PanelID = boundOr(req.PanelID, boundPanelID)
		records, err := h.panels.Consensus(ctx, tenantID, req.PanelID)
		if err != nil {
			return nil, mapError(err)
		}
		return ConsensusResponse{PanelID: req.PanelID, Consensus: records}, nil
	case "go_to_report":
		var req PanelParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		req.PanelID = boundOr(req.PanelID, boundPanelID)
		tr, err := h.panels.GoToReport(ctx, tenantID, req.PanelID)
		if err != nil {
			return nil, mapError(err)
		}
		return transitionResponse(req.PanelID, tr), nil
	case "go_to_setup":
		var req PanelParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		req.PanelID = boundOr(req.PanelID, boundPanelID)
		tr, err := h.panels.GoToSetup(ctx, tenantID, req.PanelID)
		if err != nil {
			return nil, mapError(err)
		}
		return transitionResponse(req.PanelID, tr), nil
	case "close_panel":
		var req PanelParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		req.PanelID = boundOr(req.PanelID, boundPanelID)
		if err := h.panels.ClosePanel(ctx, tenantID, req.PanelID); err != nil {
			return nil, mapError(err)
		}
		return ClosePanelResponse{PanelID: req.PanelID, Closed: true}, nil
	case "get_recent_activity":
		if h.activity == nil {
			return nil, &APIError{Code: CodeActivityDisabled, Message: "activity log is not configured"}
		}
		var req GetRecentActivityParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		req.PanelID = boundOr(req.PanelID, boundPanelID)
		entries, err := h.activity.GetRecentActivity(ctx, tenantID, activity.ListActivityOptions{
			PanelID:      req.PanelID,
			RunID:        req.RunID,
			ActivityType: req.ActivityType,
			Limit:        req.Limit,
		})
		if err != nil {
			return nil, mapError(err)
		}
		resp := make([]ActivityEntryResponse, 0, len(entries))
		for _, entry := range entries {
			resp = append(resp, ActivityEntryResponse{
				Timestamp: entry.CreatedAt,
				Type:      entry.ActivityType,
				PanelID:   entry.PanelID,
				RunID:     entry.RunID,
				Summary:   entry.Summary,
				Details:   entry.Details,
			})
		}
		return resp, nil
	case "list_archived_runs":
		if h.archive == nil {
			return nil, archiveDisabled()
		}
		var req ListArchivedRunsParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		runs, err := h.archive.List(ctx, tenantID, archive.ListOptions{
			PanelID: req.PanelID,
			Limit:   req.Limit,
			Offset:  req.Offset,
		})
		if err != nil {
			return nil, mapError(err)
		}
		return runs, nil
	case "get_archived_run":
		if h.archive == nil {
			return nil, archiveDisabled()
		}
		var req GetArchivedRunParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		run, err := h.archive.Get(ctx, tenantID, req.RunID)
		if err != nil {
			return nil, mapError(err)
		}
		return run, nil
	default:
		return nil, &APIError{Code: CodeMethodNotFound, Message: fmt.Sprintf("unknown method: %s", method)}
	}
}

func boundOr(panelID, boundPanelID string) string {
	if panelID != "" {
		return panelID
	}
	return boundPanelID
}

func decodeParams(params json.RawMessage, out any) error {
	if len(params) == 0 {
		return nil
	}
	if err := json.Unmarshal(params, out); err != nil {
		return &APIError{Code: CodeInvalidParams, Message: err.Error()}
	}
	return nil
}

func transitionResponse(panelID string, tr orchestrator.Transition) TransitionResponse {
	return TransitionResponse{
		PanelID: panelID,
		From:    tr.From,
		View:    tr.View,
		Denied:  tr.Denied,
	}
}

func archiveDisabled() *APIError {
	return &APIError{Code: CodeArchiveDisabled, Message: "run archive is not configured", RecoveryHint: "Enable panel.archive_runs"}
}

func mapError(err error) error {
	if apiErr := MapError(err); apiErr != nil {
		return apiErr
	}
	return err
}
