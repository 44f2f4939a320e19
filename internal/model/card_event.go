package model

import "time"

// Action types recorded in the `card_events` table.
const (
    ActionEntryScan   = "entry_scan"
    ActionExitScan    = "exit_scan"
    ActionInvalidScan = "invalid_scan"
    ActionBlockedScan = "blocked_scan"
)

// CardEvent is one row of the tamper-evident scan trail.  Rows are
// write-once: nothing in the application updates or deletes them.
// MemberID is null when the scanned code did not resolve to a member.
//
// Fields:
//  ID          – primary key identifier.
//  CodeScanned – the raw badge code as read from the QR.
//  MemberID    – resolved member, if any (nullable).
//  ActorID     – operator who performed the scan.
//  ActionType  – entry_scan, exit_scan, invalid_scan or blocked_scan.
//  Details     – free-text metadata such as the scanning device (nullable).
//  CreatedAt   – timestamp of the event.
type CardEvent struct {
    ID          uint64    // card_events.id
    CodeScanned string    // card_events.code_scanned
    MemberID    *uint64   // card_events.member_id (nullable)
    ActorID     uint64    // card_events.actor_id
    ActionType  string    // card_events.action_type
    Details     *string   // card_events.details (nullable)
    CreatedAt   time.Time // card_events.created_at
}
