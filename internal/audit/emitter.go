// Package audit wires the engine's emission contract to its three
// sinks: the card_events trail, the notifications table and the
// message broker.
package audit

import (
    "context"
    "log"
    "time"

    "clubaccess/internal/model"
    q "clubaccess/internal/queue"
    "clubaccess/internal/repository"
    queue_publisher "clubaccess/internal/service"
)

// Emitter implements access.AuditEmitter.  Database writes are
// reported back to the caller; broker publishes are best-effort and
// only logged, because a scan decision that is already committed must
// not fail over a down broker.
type Emitter struct {
    Events        *repository.CardEventRepo
    Notifications *repository.NotificationRepo
    StationID     string
}

// NewEmitter constructs an Emitter.  Both repositories must be non-nil.
func NewEmitter(events *repository.CardEventRepo, notifications *repository.NotificationRepo, stationID string) *Emitter {
    if events == nil || notifications == nil {
        panic("nil repository passed to audit.NewEmitter")
    }
    return &Emitter{Events: events, Notifications: notifications, StationID: stationID}
}

// RecordEvent appends the audit row and mirrors it onto the broker.
func (e *Emitter) RecordEvent(ctx context.Context, ev *model.CardEvent) error {
    if err := e.Events.Create(ctx, ev); err != nil {
        log.Printf("audit: card event write failed: %v", err)
        return err
    }
    event := q.AccessEvent{
        Action:      ev.ActionType,
        CodeScanned: ev.CodeScanned,
        OperatorID:  ev.ActorID,
        StationID:   e.StationID,
        OccurredAt:  ev.CreatedAt.UTC().Format(time.RFC3339),
    }
    if ev.MemberID != nil {
        event.MemberID = *ev.MemberID
    }
    _ = queue_publisher.PublishAccessEvent(ctx, event)
    return nil
}

// Notify stores a dashboard alert.
func (e *Emitter) Notify(ctx context.Context, n *model.Notification) error {
    if err := e.Notifications.Create(ctx, n); err != nil {
        log.Printf("audit: notification write failed: %v", err)
        return err
    }
    return nil
}
