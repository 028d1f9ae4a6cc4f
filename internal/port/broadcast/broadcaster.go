// Package broadcast defines the port for pushing change notifications to
// connected realtime clients. Domain services call these after committing a
// mutation; delivery is best-effort and failures never surface to the caller.
package broadcast

import "context"

// Notifier fans typed change events out to every connection scoped to a
// company. Implementations must be safe for unbounded concurrent callers.
type Notifier interface {
	NotifyEventCreated(ctx context.Context, companyID, eventID string)
	NotifyEventUpdated(ctx context.Context, companyID, eventID string)
	NotifyEventDeleted(ctx context.Context, companyID, eventID string)
	NotifyEmployeeAdded(ctx context.Context, companyID, employeeID string)
	NotifyEmployeeRemoved(ctx context.Context, companyID, employeeID string)
	// NotifyCompanyDataChanged broadcasts an arbitrary change kind with an
	// opaque payload for changes without a dedicated event type.
	NotifyCompanyDataChanged(ctx context.Context, companyID, changeType string, payload any)
}
