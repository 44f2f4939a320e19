package model

import "time"

// Visit status values as stored in the `visits` table.
const (
    VisitInside  = "inside"
    VisitOutside = "outside"
)

// Visit records one continuous inside-the-premises interval for a
// member, from entry scan to exit scan.  The access engine guarantees
// that at most one visit per member is in the `inside` state at any
// time; that invariant is what makes the entry/exit inference sound.
//
// Fields:
//  ID        – primary key identifier.
//  MemberID  – member the visit belongs to.
//  VehicleID – vehicle brought in for this visit.
//  ScannedBy – operator (user) who scanned the entry (nullable).
//  Status    – inside while the member is on premises, outside after exit.
//  EntryTime – when the entry scan was recorded.
//  ExitTime  – when the exit scan was recorded (null while inside).
//  Notes     – free text; used to stash device metadata from the scan.
//  CreatedAt – timestamp of creation.
//  UpdatedAt – timestamp of last update.
type Visit struct {
    ID        uint64     // visits.id
    MemberID  uint64     // visits.member_id
    VehicleID uint64     // visits.vehicle_id
    ScannedBy *uint64    // visits.scanned_by (nullable)
    Status    string     // visits.status
    EntryTime time.Time  // visits.entry_time
    ExitTime  *time.Time // visits.exit_time (nullable)
    Notes     *string    // visits.notes (nullable)
    CreatedAt time.Time  // visits.created_at
    UpdatedAt time.Time  // visits.updated_at
}

// Open reports whether the visit still has no recorded exit.
func (v Visit) Open() bool { return v.Status == VisitInside }
