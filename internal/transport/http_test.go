package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

type testHandler struct {
	method string
	err    error
}

func (h *testHandler) Handle(_ context.Context, tenantID, boundPanelID, method string, params json.RawMessage) (any, error) {
	h.method = method
	if h.err != nil {
		return nil, h.err
	}
	return map[string]string{"tenant": tenantID, "panel": boundPanelID}, nil
}

type staticResolver struct {
	tenant string
}

func (r *staticResolver) ResolveTenant(_ context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrUnauthorized
	}
	return r.tenant, nil
}

type codedError struct{ code string }

func (e codedError) Error() string             { return e.code }
func (e codedError) CodeValue() string         { return e.code }
func (e codedError) MessageValue() string      { return "coded " + e.code }
func (e codedError) DetailsValue() any         { return nil }
func (e codedError) RecoveryHintValue() string { return "retry later" }

func postRPC(t *testing.T, url, body string, headers map[string]string) (*http.Response, Response) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url+"/rpc", bytes.NewBufferString(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out Response
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp, out
}

func TestHTTPServer_RPC(t *testing.T) {
	handler := &testHandler{}
	resolver := &staticResolver{tenant: "tenant1"}
	server := httptest.NewServer(NewServer(handler, Options{Auth: AuthMiddleware(resolver)}))
	t.Cleanup(server.Close)

	resp, out := postRPC(t, server.URL, `{"jsonrpc":"2.0","method":"list_participants","id":1}`, map[string]string{
		"Authorization": "Bearer token",
		PanelHeader:     "panel1",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "list_participants", handler.method)
	require.Nil(t, out.Error)
	require.Equal(t, map[string]any{"tenant": "tenant1", "panel": "panel1"}, out.Result)
}

func TestHTTPServer_RPCRequiresAuth(t *testing.T) {
	handler := &testHandler{}
	server := httptest.NewServer(NewServer(handler, Options{Auth: AuthMiddleware(&staticResolver{tenant: "tenant1"})}))
	t.Cleanup(server.Close)

	resp, _ := postRPC(t, server.URL, `{"jsonrpc":"2.0","method":"open_panel","id":1}`, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Empty(t, handler.method)
}

func TestHTTPServer_RPCDefaultTenant(t *testing.T) {
	handler := &testHandler{}
	server := httptest.NewServer(NewServer(handler, Options{Auth: DefaultTenantMiddleware("default")}))
	t.Cleanup(server.Close)

	_, out := postRPC(t, server.URL, `{"jsonrpc":"2.0","method":"open_panel","id":1}`, nil)
	require.Equal(t, "default", out.Result.(map[string]any)["tenant"])
}

func TestHTTPServer_RPCCodedError(t *testing.T) {
	handler := &testHandler{err: codedError{code: "PANEL_NOT_FOUND"}}
	server := httptest.NewServer(NewServer(handler, Options{Auth: DefaultTenantMiddleware("default")}))
	t.Cleanup(server.Close)

	_, out := postRPC(t, server.URL, `{"jsonrpc":"2.0","method":"get_consultation","id":7}`, nil)
	require.NotNil(t, out.Error)
	require.Equal(t, ErrNotFound, out.Error.Code)
	require.Equal(t, "coded PANEL_NOT_FOUND", out.Error.Message)
	data := out.Error.Data.(map[string]any)
	require.Equal(t, "PANEL_NOT_FOUND", data["code"])
	require.Equal(t, "retry later", data["recovery_hint"])
}

func TestHTTPServer_RPCInvalidRequest(t *testing.T) {
	server := httptest.NewServer(NewServer(&testHandler{}, Options{Auth: DefaultTenantMiddleware("default")}))
	t.Cleanup(server.Close)

	_, out := postRPC(t, server.URL, `{"jsonrpc":"1.0","id":1}`, nil)
	require.NotNil(t, out.Error)
	require.Equal(t, ErrInvalidReq, out.Error.Code)
}

func TestHTTPServer_Health(t *testing.T) {
	handler := &testHandler{}
	server := httptest.NewServer(NewServer(handler, Options{Auth: AuthMiddleware(&staticResolver{})}))
	t.Cleanup(server.Close)

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHTTPServer_RPCParseError(t *testing.T) {
	server := httptest.NewServer(NewServer(&testHandler{}, Options{Auth: DefaultTenantMiddleware("default")}))
	t.Cleanup(server.Close)

	_, out := postRPC(t, server.URL, `{"jsonrpc":`, nil)
	require.NotNil(t, out.Error)
	require.Equal(t, ErrParseCode, out.Error.Code)
}

func TestHTTPServer_RPCErrorCodes(t *testing.T) {
	cases := map[string]int{
		"METHOD_NOT_FOUND":  ErrMethodNotFound,
		"RUN_NOT_COMPLETED": ErrInvalidState,
		"ARCHIVE_DISABLED":  ErrDisabled,
		"EMPTY_SELECTION":   ErrInvalidParams,
	}
	for code, want := range cases {
		t.Run(code, func(t *testing.T) {
			handler := &testHandler{err: codedError{code: code}}
			server := httptest.NewServer(NewServer(handler, Options{Auth: DefaultTenantMiddleware("default")}))
			t.Cleanup(server.Close)

			_, out := postRPC(t, server.URL, `{"jsonrpc":"2.0","method":"go_to_report","id":1}`, nil)
			require.NotNil(t, out.Error)
			require.Equal(t, want, out.Error.Code)
		})
	}
}

func TestHTTPServer_RPCUncodedErrorIsInternal(t *testing.T) {
	handler := &testHandler{err: errors.New("disk on fire")}
	server := httptest.NewServer(NewServer(handler, Options{Auth: DefaultTenantMiddleware("default")}))
	t.Cleanup(server.Close)

	_, out := postRPC(t, server.URL, `{"jsonrpc":"2.0","method":"open_panel","id":1}`, nil)
	require.NotNil(t, out.Error)
	require.Equal(t, ErrInternal, out.Error.Code)
}
