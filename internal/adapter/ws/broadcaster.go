package ws

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/coder/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/rostralabs/rostra/internal/adapter/otel"
)

// Broadcaster fans change notifications out to every connection scoped to a
// company. It serializes the message once, snapshots the registry, and
// writes to each connection under a bounded worker group so one slow or
// broken socket can neither stall the caller unboundedly nor abort delivery
// to its siblings.
type Broadcaster struct {
	reg     *Registry
	limit   int
	metrics *otel.Metrics
}

// NewBroadcaster creates a Broadcaster over reg. fanoutLimit bounds the
// number of concurrent per-connection writes per Broadcast call.
func NewBroadcaster(reg *Registry, fanoutLimit int, metrics *otel.Metrics) *Broadcaster {
	if fanoutLimit < 1 {
		fanoutLimit = 1
	}
	return &Broadcaster{reg: reg, limit: fanoutLimit, metrics: metrics}
}

// Broadcast delivers n to every connection whose scope is companyID at call
// time. A write failure removes that connection from the registry and
// closes it; delivery to the remaining connections proceeds. Returns once
// every write has been attempted. Best-effort: no buffering, no retry.
func (b *Broadcaster) Broadcast(ctx context.Context, companyID string, n Notification) {
	data, err := json.Marshal(n)
	if err != nil {
		slog.Error("ws marshal broadcast", "type", n.Type, "error", err)
		return
	}

	conns := b.reg.ListByCompany(companyID)
	if len(conns) == 0 {
		return
	}
	b.metrics.BroadcastAttempted(ctx, int64(len(conns)))

	g := new(errgroup.Group)
	g.SetLimit(b.limit)
	for _, c := range conns {
		g.Go(func() error {
			if err := c.Send(ctx, data); err != nil {
				slog.Warn("ws broadcast write failed, dropping connection",
					"userId", c.UserID(),
					"companyId", companyID,
					"type", n.Type,
					"error", err,
				)
				b.reg.RemoveConn(c.UserID(), c)
				c.close(websocket.StatusAbnormalClosure, "write failed")
				b.metrics.BroadcastDropped(ctx)
			}
			return nil
		})
	}
	_ = g.Wait()
}

// broadcastTyped builds and sends a Notification for a typed payload.
func (b *Broadcaster) broadcastTyped(ctx context.Context, companyID, eventType string, payload any) {
	n, err := newNotification(eventType, payload)
	if err != nil {
		slog.Error("ws build notification", "type", eventType, "error", err)
		return
	}
	b.Broadcast(ctx, companyID, n)
}

// NotifyEventCreated broadcasts an EventCreated change to a company.
func (b *Broadcaster) NotifyEventCreated(ctx context.Context, companyID, eventID string) {
	b.broadcastTyped(ctx, companyID, TypeEventCreated, eventPayload{EventID: eventID})
}

// NotifyEventUpdated broadcasts an EventUpdated change to a company.
func (b *Broadcaster) NotifyEventUpdated(ctx context.Context, companyID, eventID string) {
	b.broadcastTyped(ctx, companyID, TypeEventUpdated, eventPayload{EventID: eventID})
}

// NotifyEventDeleted broadcasts an EventDeleted change to a company.
func (b *Broadcaster) NotifyEventDeleted(ctx context.Context, companyID, eventID string) {
	b.broadcastTyped(ctx, companyID, TypeEventDeleted, eventPayload{EventID: eventID})
}

// NotifyEmployeeAdded broadcasts an EmployeeAdded change to a company.
func (b *Broadcaster) NotifyEmployeeAdded(ctx context.Context, companyID, employeeID string) {
	b.broadcastTyped(ctx, companyID, TypeEmployeeAdded, employeePayload{EmployeeID: employeeID})
}

// NotifyEmployeeRemoved broadcasts an EmployeeRemoved change to a company.
func (b *Broadcaster) NotifyEmployeeRemoved(ctx context.Context, companyID, employeeID string) {
	b.broadcastTyped(ctx, companyID, TypeEmployeeRemoved, employeePayload{EmployeeID: employeeID})
}

// NotifyCompanyDataChanged broadcasts an arbitrary change kind with an
// opaque payload.
func (b *Broadcaster) NotifyCompanyDataChanged(ctx context.Context, companyID, changeType string, payload any) {
	b.broadcastTyped(ctx, companyID, changeType, payload)
}
