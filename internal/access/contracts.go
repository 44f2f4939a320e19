package access

import (
    "context"
    "time"

    "clubaccess/internal/model"
)

// The engine depends on narrow accessor contracts rather than concrete
// repositories so the scan state machine can be exercised against
// in-memory fakes.  The repository package satisfies all of them.

// MemberDirectory resolves a scanned badge code to a member record.
type MemberDirectory interface {
    FindByCode(ctx context.Context, code string) (model.Member, error)
}

// VehicleResolver picks the vehicle to associate with a new entry.
type VehicleResolver interface {
    MostRecent(ctx context.Context, memberID uint64) (model.Vehicle, error)
    CountByMember(ctx context.Context, memberID uint64) (int, error)
}

// EntryLedger is the shared record of open and closed visits.  It is
// the sole arbiter of whether a member is currently inside; OpenVisit
// and CloseVisit must enforce the one-open-visit invariant themselves
// (the repository implementation does so with row locks).
type EntryLedger interface {
    CurrentVisit(ctx context.Context, memberID uint64) (*model.Visit, error)
    OpenVisit(ctx context.Context, memberID, vehicleID, scannedBy uint64, entryTime time.Time, notes string) (model.Visit, error)
    CloseVisit(ctx context.Context, visitID uint64, exitTime time.Time, notes string) (model.Visit, error)
}

// AuditEmitter records the scan trail and pushes dashboard alerts.
type AuditEmitter interface {
    RecordEvent(ctx context.Context, e *model.CardEvent) error
    Notify(ctx context.Context, n *model.Notification) error
}

// ScanBuffer is the durable offline queue the engine falls back to when
// a step fails for connectivity reasons.
type ScanBuffer interface {
    Enqueue(ctx context.Context, code string, scannedBy uint64, createdAt time.Time, deviceInfo string) error
}
