// Package messagequeue defines the port for durable integration events.
package messagequeue

import "context"

// Subjects for the integration events Rostra publishes. Consumers filter on
// these or on wildcard prefixes (calendar.>, companies.>).
const (
	SubjectEventCreated    = "calendar.event.created"
	SubjectEventUpdated    = "calendar.event.updated"
	SubjectEventDeleted    = "calendar.event.deleted"
	SubjectEmployeeAdded   = "companies.employee.added"
	SubjectEmployeeRemoved = "companies.employee.removed"
	SubjectCompanyUpdated  = "companies.updated"
)

// Handler processes a single message. Returning an error triggers redelivery.
type Handler func(ctx context.Context, subject string, data []byte) error

// Queue publishes and subscribes to durable subjects.
type Queue interface {
	Publish(ctx context.Context, subject string, data []byte) error
	Subscribe(ctx context.Context, subject string, handler Handler) (func(), error)
	Close() error
}
