package runtime

import (
	"context"
	"errors"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"github.com/vinodismyname/storepulse/pkg/apperr"
)

// CallGuard admits analysis tool calls against the Controller's request slots and
// bounds each admitted call by the operation timeout.
type CallGuard struct {
	ctrl *Controller
}

// NewCallGuard returns a guard over ctrl.
func NewCallGuard(ctrl *Controller) *CallGuard {
	return &CallGuard{ctrl: ctrl}
}

// Wrap is a server.ToolHandlerMiddleware. Saturation yields BUSY_RESOURCE and an
// expired call yields TIMEOUT, both as tool results.
func (g *CallGuard) Wrap(next server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		waited := time.Now()
		if err := g.admit(ctx); err != nil {
			zerolog.Ctx(ctx).Warn().
				Str("tool", req.Params.Name).
				Dur("waited", time.Since(waited)).
				Int("max_concurrent_requests", g.ctrl.limits.MaxConcurrentRequests).
				Msg("tool call rejected")
			return apperr.Wrapf(apperr.BusyResource, "all %d analysis slots are in use", g.ctrl.limits.MaxConcurrentRequests), nil
		}
		defer g.ctrl.ReleaseRequest()

		callCtx, cancel := g.bound(ctx, g.ctrl.limits.OperationTimeout)
		defer cancel()

		res, err := next(callCtx, req)
		if expired(callCtx, res, err) {
			return apperr.Wrapf(apperr.Timeout, "%s exceeded %s", req.Params.Name, g.ctrl.limits.OperationTimeout), nil
		}
		return res, err
	}
}

// admit waits at most AcquireRequestTimeout for a request slot.
func (g *CallGuard) admit(ctx context.Context) error {
	waitCtx, cancel := g.bound(ctx, g.ctrl.limits.AcquireRequestTimeout)
	defer cancel()
	return g.ctrl.AcquireRequest(waitCtx)
}

// bound applies d to ctx; d <= 0 leaves ctx unbounded.
func (g *CallGuard) bound(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}

// expired reports a call that surfaced the deadline, or ran out of time without
// producing anything.
func expired(ctx context.Context, res *mcp.CallToolResult, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return err == nil && res == nil && errors.Is(ctx.Err(), context.DeadlineExceeded)
}
