package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// JSON-RPC 2.0 error codes.
const (
	ErrParseCode      = -32700
	ErrInvalidReq     = -32600
	ErrMethodNotFound = -32601
	ErrInvalidParams  = -32602
	ErrInternal       = -32603
)

// Application error codes, in the range JSON-RPC reserves for servers.
const (
	ErrNotFound     = -32004
	ErrInvalidState = -32009
	ErrDisabled     = -32010
)

// rpcCodes maps coded domain errors to JSON-RPC error codes. Codes not listed
// are reported as ErrInvalidParams.
var rpcCodes = map[string]int{
	"METHOD_NOT_FOUND":       ErrMethodNotFound,
	"PANEL_NOT_FOUND":        ErrNotFound,
	"RUN_NOT_FOUND":          ErrNotFound,
	"ARCHIVED_RUN_NOT_FOUND": ErrNotFound,
	"INVALID_TRANSITION":     ErrInvalidState,
	"RUN_NOT_COMPLETED":      ErrInvalidState,
	"ACTIVITY_DISABLED":      ErrDisabled,
	"ARCHIVE_DISABLED":       ErrDisabled,
}

// RPCCode returns the JSON-RPC error code for a domain error code.
func RPCCode(code string) int {
	if rpc, ok := rpcCodes[code]; ok {
		return rpc
	}
	return ErrInvalidParams
}

var (
	errParse          = errors.New("parse error")
	errInvalidRequest = errors.New("invalid request")
)

// Request represents a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      any             `json:"id,omitempty"`
}

// Response represents a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string `json:"jsonrpc"`
	Result  any    `json:"result,omitempty"`
	Error   *Error `json:"error,omitempty"`
	ID      any    `json:"id,omitempty"`
}

// Error represents a JSON-RPC 2.0 error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// ParseRequest parses and validates a JSON-RPC request payload. Malformed
// JSON and structurally invalid requests are told apart by parseErrorCode.
func ParseRequest(body io.Reader) (Request, error) {
	var req Request
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		return Request{}, fmt.Errorf("%w: %w", errParse, err)
	}
	if req.JSONRPC != "2.0" {
		return req, fmt.Errorf("%w: jsonrpc must be \"2.0\"", errInvalidRequest)
	}
	if req.Method == "" {
		return req, fmt.Errorf("%w: missing method", errInvalidRequest)
	}
	return req, nil
}

func parseErrorCode(err error) int {
	if errors.Is(err, errParse) {
		return ErrParseCode
	}
	return ErrInvalidReq
}

// WriteResult writes a JSON-RPC success response.
func WriteResult(w http.ResponseWriter, id any, result any) {
	writeJSON(w, http.StatusOK, Response{
		JSONRPC: "2.0",
		Result:  result,
		ID:      id,
	})
}

// WriteError writes a JSON-RPC error response. Errors travel with status 200.
func WriteError(w http.ResponseWriter, id any, code int, message string, data any) {
	writeJSON(w, http.StatusOK, Response{
		JSONRPC: "2.0",
		Error: &Error{
			Code:    code,
			Message: message,
			Data:    data,
		},
		ID: id,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
