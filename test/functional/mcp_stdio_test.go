package functional_test

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

// stdioSession wraps an MCP client session for stdio transport testing
type stdioSession struct {
	session *sdkmcp.ClientSession
	cancel  context.CancelFunc
}

// fastPanelConfig writes a config that plays consultations in milliseconds.
func fastPanelConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
panel:
  system_typing_delay: 1ms
  participant_typing_delay: 1ms
  system_emit_delay: 1ms
  thinking_min: 1ms
  thinking_max: 2ms
  seed: 5
`), 0o600))
	return path
}

func newStdioSession(t *testing.T) *stdioSession {
	t.Helper()
	return newStdioSessionWithEnv(t, nil)
}

func newStdioSessionWithEnv(t *testing.T, extraEnv []string) *stdioSession {
	t.Helper()

	// Find the binary
	binaryPath := "./bin/tumorboard-server"
	if _, err := os.Stat(binaryPath); os.IsNotExist(err) {
		binaryPath = "../../bin/tumorboard-server"
		if _, err := os.Stat(binaryPath); os.IsNotExist(err) {
			t.Skip("Server binary not found. Run 'make build' first.")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)

	cmd := exec.CommandContext(ctx, binaryPath)
	cmd.Env = append(os.Environ(),
		"TUMORBOARD_TRANSPORT=stdio",
		"TUMORBOARD_DB_PATH=:memory:",
		"TUMORBOARD_AUTH_ENABLED=false",
		"TUMORBOARD_CONFIG_PATH="+fastPanelConfig(t),
	)
	if len(extraEnv) > 0 {
		cmd.Env = append(cmd.Env, extraEnv...)
	}

	transport := &sdkmcp.CommandTransport{Command: cmd}

	client := sdkmcp.NewClient(&sdkmcp.Implementation{
		Name:    "test-client",
		Version: "1.0.0",
	}, nil)

	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		cancel()
		t.Fatalf("Failed to connect: %v", err)
	}

	t.Cleanup(func() {
		session.Close()
		cancel()
	})

	return &stdioSession{session: session, cancel: cancel}
}

func (s *stdioSession) callTool(t *testing.T, name string, args map[string]any) json.RawMessage {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := s.session.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	require.NoError(t, err, "CallTool %s failed", name)
	require.False(t, result.IsError, "Tool %s returned error: %v", name, result.Content)
	require.NotEmpty(t, result.Content, "Tool %s returned no content", name)

	// Extract text content
	for _, content := range result.Content {
		if textContent, ok := content.(*sdkmcp.TextContent); ok {
			return json.RawMessage(textContent.Text)
		}
	}
	t.Fatalf("Tool %s returned no text content", name)
	return nil
}

func TestStdioFunctional_ConsultationToReport(t *testing.T) {
	s := newStdioSession(t)

	var state struct {
		PanelID string `json:"panel_id"`
		View    string `json:"view"`
	}
	require.NoError(t, json.Unmarshal(s.callTool(t, "open_panel", map[string]any{}), &state))
	require.Equal(t, "setup", state.View)

	analysis := s.callTool(t, "analyze_case", map[string]any{
		"panel_id":  state.PanelID,
		"case_text": "Suspicious liver lesion on MRI, surgery being considered",
	})
	require.Contains(t, string(analysis), "surgeon")

	_ = s.callTool(t, "start_consultation", map[string]any{
		"panel_id":        state.PanelID,
		"participant_ids": []string{"oncologist", "surgeon"},
		"case_text":       "Suspicious liver lesion on MRI, surgery being considered",
	})

	require.Eventually(t, func() bool {
		var current struct {
			Run struct {
				Status string `json:"status"`
			} `json:"run"`
		}
		raw := s.callTool(t, "get_consultation", map[string]any{"panel_id": state.PanelID})
		return json.Unmarshal(raw, &current) == nil && current.Run.Status == "completed"
	}, 10*time.Second, 20*time.Millisecond)

	consensus := s.callTool(t, "get_consensus", map[string]any{"panel_id": state.PanelID})
	require.Contains(t, string(consensus), "Surgical Assessment")

	var tr struct {
		View string `json:"view"`
	}
	require.NoError(t, json.Unmarshal(s.callTool(t, "go_to_report", map[string]any{"panel_id": state.PanelID}), &tr))
	require.Equal(t, "report", tr.View)

	activity := s.callTool(t, "get_recent_activity", map[string]any{"panel_id": state.PanelID})
	require.Contains(t, string(activity), "run_completed")

	runs := s.callTool(t, "list_archived_runs", map[string]any{})
	require.Contains(t, string(runs), "liver lesion")
}

func TestStdioFunctional_MCPProtocolCompliance(t *testing.T) {
	s := newStdioSession(t)

	initResult := s.session.InitializeResult()
	require.NotNil(t, initResult)
	require.NotNil(t, initResult.ServerInfo)
	require.Equal(t, "tumorboard", initResult.ServerInfo.Name)
	require.Equal(t, "0.1.0", initResult.ServerInfo.Version)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tools, err := s.session.ListTools(ctx, nil)
	require.NoError(t, err)
	require.Len(t, tools.Tools, 12)

	toolMap := make(map[string]*sdkmcp.Tool)
	for _, tool := range tools.Tools {
		toolMap[tool.Name] = tool
	}

	require.Contains(t, toolMap, "open_panel")
	require.Contains(t, toolMap, "start_consultation")
	require.Contains(t, toolMap, "get_archived_run")
	require.NotEmpty(t, toolMap["start_consultation"].Description)
}

func TestStdioFunctional_LogFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "tumorboard.log")
	s := newStdioSessionWithEnv(t, []string{
		"TUMORBOARD_LOG_PATH=" + logPath,
		"TUMORBOARD_LOG_LEVEL=debug",
	})

	_ = s.callTool(t, "list_participants", map[string]any{})

	require.Eventually(t, func() bool {
		data, err := os.ReadFile(logPath)
		if err != nil {
			return false
		}
		text := string(data)
		return strings.Contains(text, `msg="mcp traffic"`) &&
			strings.Contains(text, "stage=request") &&
			strings.Contains(text, "stage=response")
	}, 5*time.Second, 100*time.Millisecond)
}

func TestStdioFunctional_DocumentationResources(t *testing.T) {
	s := newStdioSession(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	resources, err := s.session.ListResources(ctx, nil)
	require.NoError(t, err)
	require.NotEmpty(t, resources.Resources)

	uris := make(map[string]*sdkmcp.Resource, len(resources.Resources))
	for _, r := range resources.Resources {
		uris[r.URI] = r
	}

	expected := []string{
		"tumorboard://docs/index",
		"tumorboard://docs/workflow",
		"tumorboard://docs/consensus",
	}
	for _, uri := range expected {
		r, ok := uris[uri]
		require.True(t, ok, "missing expected doc resource: %s", uri)
		require.NotEmpty(t, r.Name)
		require.Equal(t, "text/markdown", r.MIMEType)
		require.Greater(t, r.Size, int64(0))
	}

	read, err := s.session.ReadResource(ctx, &sdkmcp.ReadResourceParams{URI: "tumorboard://docs/index"})
	require.NoError(t, err)
	require.NotEmpty(t, read.Contents)
	require.Equal(t, "tumorboard://docs/index", read.Contents[0].URI)
	require.Equal(t, "text/markdown", read.Contents[0].MIMEType)
	require.Contains(t, read.Contents[0].Text, "Docs Index")
}
