package access

import (
    "context"
    "errors"
    "fmt"
    "time"

    "clubaccess/internal/model"
    "clubaccess/internal/repository"
)

// Vehicle resolution policies.  PolicyLatest silently associates the
// member's most recently registered vehicle with a new entry; this is
// a heuristic, and wrong when a multi-vehicle member arrives with an
// older craft.  PolicyStrict refuses the scan instead, forcing the
// operator to resolve the ambiguity manually.
const (
    PolicyLatest = "latest"
    PolicyStrict = "strict"
)

// ErrNoOperator is returned when a scan arrives without an
// authenticated operator identity.  The HTTP layer should make this
// impossible; the engine refuses anyway.
var ErrNoOperator = errors.New("scan requires an operator identity")

// ErrScanConflict is returned when a concurrent scan from another
// station won the race for the same member between the engine's read
// and its write.  The losing scan is rejected rather than guessed at;
// the operator re-scans and the ledger state decides afresh.
var ErrScanConflict = errors.New("concurrent scan conflict, please re-scan")

// Engine is the check-in state machine.  One ProcessScan call takes a
// badge code end to end: member lookup, blocked gate, entry/exit
// decision against the ledger, vehicle association, audit trail and
// alert emission.  Scans for the same badge are serialized locally;
// cross-station correctness comes from the ledger.
type Engine struct {
    directory MemberDirectory
    vehicles  VehicleResolver
    ledger    EntryLedger
    emitter   AuditEmitter
    buffer    ScanBuffer
    locks     *badgeLocks
    policy    string
}

// New constructs an Engine.  All dependencies must be non-nil; policy
// must be PolicyLatest or PolicyStrict (empty defaults to latest).
func New(directory MemberDirectory, vehicles VehicleResolver, ledger EntryLedger, emitter AuditEmitter, buffer ScanBuffer, policy string) *Engine {
    if directory == nil || vehicles == nil || ledger == nil || emitter == nil || buffer == nil {
        panic("nil dependency passed to access.New")
    }
    if policy == "" {
        policy = PolicyLatest
    }
    return &Engine{
        directory: directory,
        vehicles:  vehicles,
        ledger:    ledger,
        emitter:   emitter,
        buffer:    buffer,
        locks:     newBadgeLocks(),
        policy:    policy,
    }
}

// ProcessScan handles one scanned badge code and returns its single
// visible outcome.  Business rejections and deferrals come back as
// outcomes with a nil error; an error return means an unexpected
// backend failure (or a lost race) that the operator resolves by
// re-scanning.  Nothing here retries automatically.
func (e *Engine) ProcessScan(ctx context.Context, code string, sc ScanContext) (ScanOutcome, error) {
    return e.process(ctx, code, sc, true)
}

// Replay runs a queued offline scan through the same state machine.
// The only difference from a live scan: a connectivity failure does not
// re-enqueue (the item is still sitting at the head of the queue), it
// just reports the deferred outcome so the drain stops.
func (e *Engine) Replay(ctx context.Context, code string, sc ScanContext) (ScanOutcome, error) {
    return e.process(ctx, code, sc, false)
}

func (e *Engine) process(ctx context.Context, code string, sc ScanContext, buffered bool) (ScanOutcome, error) {
    if sc.OperatorID == 0 {
        return ScanOutcome{}, ErrNoOperator
    }
    ts := sc.Timestamp
    if ts.IsZero() {
        ts = time.Now().UTC()
    }

    release := e.locks.acquire(code)
    defer release()

    member, err := e.directory.FindByCode(ctx, code)
    if err == repository.ErrMemberNotFound {
        e.auditReject(ctx, code, nil, model.ActionInvalidScan, sc)
        e.notify(ctx, model.Notification{
            Title:   "Invalid QR code",
            Message: "An unknown QR code was scanned at the gate.",
            Type:    model.NotifInvalidQR,
        })
        return rejected(ReasonInvalidCode, ts), nil
    }
    if err != nil {
        return e.deferOrFail(ctx, code, sc, ts, err, buffered)
    }

    if member.Blocked() {
        e.auditReject(ctx, code, &member.ID, model.ActionBlockedScan, sc)
        e.notify(ctx, model.Notification{
            Title:    "Blocked card",
            Message:  fmt.Sprintf("Access attempt with a blocked card (%s - %s).", member.MemberNumber, member.FullName),
            Type:     model.NotifBlockedCard,
            MemberID: &member.ID,
        })
        out := rejected(ReasonBlockedMember, ts)
        out.MemberID = member.ID
        out.MemberName = member.FullName
        out.MemberNumber = member.MemberNumber
        out.MembershipStatus = member.MembershipStatus
        return out, nil
    }

    current, err := e.ledger.CurrentVisit(ctx, member.ID)
    if err != nil {
        return e.deferOrFail(ctx, code, sc, ts, err, buffered)
    }

    notes := deviceNotes(sc)
    if decideAction(current) == ActionExit {
        visit, err := e.ledger.CloseVisit(ctx, current.ID, ts, notes)
        if err == repository.ErrVisitConflict || err == repository.ErrVisitNotFound {
            return ScanOutcome{}, ErrScanConflict
        }
        if err != nil {
            return e.deferOrFail(ctx, code, sc, ts, err, buffered)
        }
        e.auditRecorded(ctx, code, member, model.ActionExitScan, sc)
        e.notify(ctx, model.Notification{
            Title:    "Exit registered",
            Message:  fmt.Sprintf("Exit registered for %s (%s).", member.FullName, member.MemberNumber),
            Type:     model.NotifExit,
            MemberID: &member.ID,
        })
        return e.recorded(ActionExit, member, visit, ts), nil
    }

    vehicle, out, err := e.resolveVehicle(ctx, member, ts)
    if err != nil {
        return e.deferOrFail(ctx, code, sc, ts, err, buffered)
    }
    if out != nil {
        return *out, nil
    }

    visit, err := e.ledger.OpenVisit(ctx, member.ID, vehicle.ID, sc.OperatorID, ts, notes)
    if err == repository.ErrVisitConflict {
        return ScanOutcome{}, ErrScanConflict
    }
    if err != nil {
        return e.deferOrFail(ctx, code, sc, ts, err, buffered)
    }
    e.auditRecorded(ctx, code, member, model.ActionEntryScan, sc)
    e.notify(ctx, model.Notification{
        Title:    "Entry registered",
        Message:  fmt.Sprintf("Entry registered for %s (%s).", member.FullName, member.MemberNumber),
        Type:     model.NotifEntry,
        MemberID: &member.ID,
    })
    return e.recorded(ActionEntry, member, visit, ts), nil
}

// decideAction is the entry/exit inference: a member with an open visit
// is leaving, anyone else is arriving.  The operator never selects a
// mode; if an explicit-intent mode is ever wanted, it slots in here.
func decideAction(current *model.Visit) Action {
    if current != nil && current.Open() {
        return ActionExit
    }
    return ActionEntry
}

// resolveVehicle applies the configured vehicle policy for a new entry.
// It returns a non-nil outcome when the scan must be rejected.
func (e *Engine) resolveVehicle(ctx context.Context, member model.Member, ts time.Time) (model.Vehicle, *ScanOutcome, error) {
    if e.policy == PolicyStrict {
        n, err := e.vehicles.CountByMember(ctx, member.ID)
        if err != nil {
            return model.Vehicle{}, nil, err
        }
        if n > 1 {
            out := rejected(ReasonAmbiguousVehicle, ts)
            out.MemberID = member.ID
            out.MemberName = member.FullName
            out.MemberNumber = member.MemberNumber
            return model.Vehicle{}, &out, nil
        }
    }
    vehicle, err := e.vehicles.MostRecent(ctx, member.ID)
    if err == repository.ErrNoVehicle {
        out := rejected(ReasonNoVehicle, ts)
        out.MemberID = member.ID
        out.MemberName = member.FullName
        out.MemberNumber = member.MemberNumber
        return model.Vehicle{}, &out, nil
    }
    if err != nil {
        return model.Vehicle{}, nil, err
    }
    return vehicle, nil, nil
}

// deferOrFail classifies a failed step: connectivity loss persists the
// raw scan into the offline queue and reports the deferred outcome;
// anything else is surfaced as an error.  A queue write failure is
// fatal and must never be swallowed, because a silently dropped scan
// corrupts the inside/outside state on replay.  During replay the item
// already sits in the queue, so deferral skips the enqueue.
func (e *Engine) deferOrFail(ctx context.Context, code string, sc ScanContext, ts time.Time, cause error, buffered bool) (ScanOutcome, error) {
    if !isConnectivityError(cause) {
        return ScanOutcome{}, fmt.Errorf("scan processing failed: %w", cause)
    }
    if buffered {
        if err := e.buffer.Enqueue(ctx, code, sc.OperatorID, ts, sc.DeviceInfo); err != nil {
            return ScanOutcome{}, fmt.Errorf("offline queue write failed: %w", err)
        }
    }
    return deferred(ts), nil
}

func (e *Engine) recorded(action Action, member model.Member, visit model.Visit, ts time.Time) ScanOutcome {
    return ScanOutcome{
        Kind:             KindRecorded,
        Action:           action,
        MemberID:         member.ID,
        MemberName:       member.FullName,
        MemberNumber:     member.MemberNumber,
        MembershipStatus: member.MembershipStatus,
        VisitID:          visit.ID,
        Timestamp:        ts,
    }
}

// auditRecorded writes the trail row for a successful entry/exit.  The
// ledger transition has already committed at this point, so emission
// failures are logged by the emitter and do not undo the scan.
func (e *Engine) auditRecorded(ctx context.Context, code string, member model.Member, actionType string, sc ScanContext) {
    details := deviceNotes(sc)
    _ = e.emitter.RecordEvent(ctx, &model.CardEvent{
        CodeScanned: code,
        MemberID:    &member.ID,
        ActorID:     sc.OperatorID,
        ActionType:  actionType,
        Details:     &details,
    })
}

func (e *Engine) auditReject(ctx context.Context, code string, memberID *uint64, actionType string, sc ScanContext) {
    details := deviceNotes(sc)
    _ = e.emitter.RecordEvent(ctx, &model.CardEvent{
        CodeScanned: code,
        MemberID:    memberID,
        ActorID:     sc.OperatorID,
        ActionType:  actionType,
        Details:     &details,
    })
}

func (e *Engine) notify(ctx context.Context, n model.Notification) {
    _ = e.emitter.Notify(ctx, &n)
}

func deviceNotes(sc ScanContext) string {
    return "device=" + sc.DeviceInfo
}
