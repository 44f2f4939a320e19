// Package access implements the gate check-in engine: the state machine
// that turns a scanned badge code into an entry, an exit, a rejection or
// a deferred (queued-for-later) scan.
package access

import "time"

// Action says which ledger transition a recorded scan performed.
type Action string

const (
    ActionEntry Action = "ENTRY"
    ActionExit  Action = "EXIT"
)

// RejectReason classifies a terminal, non-retriable business rejection.
type RejectReason string

const (
    ReasonInvalidCode   RejectReason = "INVALID_CODE"
    ReasonBlockedMember RejectReason = "BLOCKED_MEMBER"
    ReasonNoVehicle     RejectReason = "NO_VEHICLE"
    // ReasonAmbiguousVehicle is only produced under the strict vehicle
    // policy, when a member owns several vehicles and the scan cannot
    // tell which one is arriving.
    ReasonAmbiguousVehicle RejectReason = "AMBIGUOUS_VEHICLE"
)

// OutcomeKind discriminates the three results a processed scan can have.
type OutcomeKind string

const (
    KindRecorded OutcomeKind = "recorded"
    KindRejected OutcomeKind = "rejected"
    KindDeferred OutcomeKind = "deferred"
)

// ScanOutcome is the single visible result of one processed scan.  A
// scan never produces more than one outcome and never none: even a
// connectivity failure yields the deferred variant.
type ScanOutcome struct {
    Kind             OutcomeKind  `json:"kind"`
    Action           Action       `json:"action,omitempty"`
    Reason           RejectReason `json:"reason,omitempty"`
    MemberID         uint64       `json:"member_id,omitempty"`
    MemberName       string       `json:"member_name,omitempty"`
    MemberNumber     string       `json:"member_number,omitempty"`
    MembershipStatus string       `json:"membership_status,omitempty"`
    VisitID          uint64       `json:"visit_id,omitempty"`
    Timestamp        time.Time    `json:"timestamp"`
}

// Terminal reports whether the scan reached a final decision.  Deferred
// scans are not terminal: they stay in the offline queue and run
// through the engine again after reconnection.
func (o ScanOutcome) Terminal() bool { return o.Kind != KindDeferred }

func rejected(reason RejectReason, ts time.Time) ScanOutcome {
    return ScanOutcome{Kind: KindRejected, Reason: reason, Timestamp: ts}
}

func deferred(ts time.Time) ScanOutcome {
    return ScanOutcome{Kind: KindDeferred, Timestamp: ts}
}

// ScanContext carries the operator identity and device metadata of one
// scan event.  Timestamp is the moment the badge was read, which for a
// replayed offline scan predates the moment it is processed.
type ScanContext struct {
    OperatorID uint64
    Timestamp  time.Time
    DeviceInfo string
}
