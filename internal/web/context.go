package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/dutysummary/internal/core"
	"github.com/JonMunkholm/dutysummary/internal/logging"
	"github.com/JonMunkholm/dutysummary/internal/web/middleware"
)

type ctxKey int

const ctxKeyController ctxKey = iota

// WithRequestMetadata adds IP and User-Agent to context for audit logging.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	ctx = core.ContextWithIPAddress(ctx, middleware.ClientIP(r))
	ctx = core.ContextWithUserAgent(ctx, r.Header.Get("User-Agent"))
	return ctx
}

func withController(ctx context.Context, c *core.Controller) context.Context {
	ctx = logging.WithSessionID(ctx, core.SessionTag(c.ID()))
	return context.WithValue(ctx, ctxKeyController, c)
}

// controllerFrom returns the session's controller. Only valid behind
// requireSession.
func controllerFrom(ctx context.Context) *core.Controller {
	c, _ := ctx.Value(ctxKeyController).(*core.Controller)
	return c
}
