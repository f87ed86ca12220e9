package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// PanelHeader binds HTTP requests to a panel. Stdio clients set
// _meta.panel_id on the request instead.
const PanelHeader = "Tumorboard-Panel-Id"

// ErrUnauthorized is returned for requests without a valid bearer token.
var ErrUnauthorized = errors.New("unauthorized")

type contextKey int

const (
	tenantIDKey contextKey = iota
	boundPanelKey
)

func getTenantID(ctx context.Context) string {
	v, _ := ctx.Value(tenantIDKey).(string)
	return v
}

// getBoundPanelID returns the panel bound by header or request metadata.
func getBoundPanelID(ctx context.Context) string {
	v, _ := ctx.Value(boundPanelKey).(string)
	return v
}

// TenantResolver resolves a tenant ID from a bearer token.
type TenantResolver interface {
	ResolveTenant(ctx context.Context, token string) (string, error)
}

// unauthenticatedMethods may be called before a tenant is known.
var unauthenticatedMethods = map[string]bool{
	"initialize":                true,
	"notifications/initialized": true,
	"ping":                      true,
}

// authMiddleware resolves the tenant from the bearer token of every request
// except protocol handshakes.
func authMiddleware(resolver TenantResolver, logger *slog.Logger) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			if unauthenticatedMethods[method] {
				return next(ctx, method, req)
			}

			tenantID, err := resolveTenant(ctx, resolver, req)
			if err != nil {
				logger.Debug("mcp request rejected", "method", method, "error", err)
				return nil, err
			}
			return next(context.WithValue(ctx, tenantIDKey, tenantID), method, req)
		}
	}
}

func resolveTenant(ctx context.Context, resolver TenantResolver, req sdkmcp.Request) (string, error) {
	extra := req.GetExtra()
	if extra == nil || extra.Header == nil {
		return "", fmt.Errorf("%w: missing headers", ErrUnauthorized)
	}
	token := strings.TrimSpace(strings.TrimPrefix(extra.Header.Get("Authorization"), "Bearer "))
	if token == "" {
		return "", fmt.Errorf("%w: missing bearer token", ErrUnauthorized)
	}
	tenantID, err := resolver.ResolveTenant(ctx, token)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	if tenantID == "" {
		return "", fmt.Errorf("%w: invalid bearer token", ErrUnauthorized)
	}
	return tenantID, nil
}

// fixedTenantMiddleware serves every request as tenantID.
func fixedTenantMiddleware(tenantID string) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			return next(context.WithValue(ctx, tenantIDKey, tenantID), method, req)
		}
	}
}

// panelBindingMiddleware records the panel a request is bound to, taken from
// PanelHeader or from _meta.panel_id.
func panelBindingMiddleware() sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			if panelID := boundPanel(req); panelID != "" {
				ctx = context.WithValue(ctx, boundPanelKey, panelID)
			}
			return next(ctx, method, req)
		}
	}
}

func boundPanel(req sdkmcp.Request) string {
	if extra := req.GetExtra(); extra != nil && extra.Header != nil {
		if panelID := strings.TrimSpace(extra.Header.Get(PanelHeader)); panelID != "" {
			return panelID
		}
	}

	// Notifications such as "initialized" carry nil params, and GetMeta on a
	// typed nil panics.
	params := safeParams(req)
	if params == nil {
		return ""
	}
	var panelID string
	func() {
		defer func() { _ = recover() }()
		if meta := params.GetMeta(); meta != nil {
			panelID, _ = meta["panel_id"].(string)
		}
	}()
	return panelID
}
