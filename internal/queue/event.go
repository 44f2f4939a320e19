// Package queue defines message payloads exchanged over the message broker.
package queue

// AccessEvent is published for every terminal scan decision: entries,
// exits, blocked cards and unknown codes.  It carries enough context
// for downstream consumers to log, alert or feed analytics without
// querying the primary database.  MemberID is zero for unknown codes.
type AccessEvent struct {
    Action       string `json:"action"` // entry_scan, exit_scan, invalid_scan, blocked_scan
    CodeScanned  string `json:"code_scanned"`
    MemberID     uint64 `json:"member_id,omitempty"`
    MemberNumber string `json:"member_number,omitempty"`
    MemberName   string `json:"member_name,omitempty"`
    OperatorID   uint64 `json:"operator_id"`
    StationID    string `json:"station_id"`
    OccurredAt   string `json:"occurred_at"`
}
