package ports

import (
	"context"

	"github.com/insureline/portal/internal/core/domain"
)

// AuditRepository persists session lifecycle events.
type AuditRepository interface {
	Insert(ctx context.Context, event *domain.AuditEvent) error
}

// AuditSink accepts audit events without blocking the caller.
type AuditSink interface {
	Record(event domain.AuditEvent)
}
