package transport

import (
	"context"
	"net/http"
	"strings"
)

// PanelHeader binds a request to a panel so panel-scoped methods may omit
// panel_id.
const PanelHeader = "Tumorboard-Panel-Id"

type boundPanelKey struct{}

// BoundPanelFromContext returns the panel bound to the request, if any.
func BoundPanelFromContext(ctx context.Context) (string, bool) {
	panelID, ok := ctx.Value(boundPanelKey{}).(string)
	return panelID, ok
}

// PanelBindingMiddleware stores the PanelHeader value in the request context.
func PanelBindingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if panelID := strings.TrimSpace(r.Header.Get(PanelHeader)); panelID != "" {
			r = r.WithContext(context.WithValue(r.Context(), boundPanelKey{}, panelID))
		}
		next.ServeHTTP(w, r)
	})
}
