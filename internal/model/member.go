package model

import "time"

// Membership status values as stored in the `members` table.  Only
// StatusInactive denies access at the gate; an overdue member can
// still enter (financial follow-up happens elsewhere).
const (
    StatusActive   = "active"
    StatusOverdue  = "overdue"
    StatusInactive = "inactive"
)

// Member represents a club member record as stored in the `members`
// table.  The QRCode column holds the opaque badge code printed on the
// member card; it is the sole lookup key used by the access engine and
// is never parsed.
//
// Fields:
//  ID               – primary key identifier.
//  MemberNumber     – human-facing sequential number (unique).
//  FullName         – member's display name.
//  QRCode           – opaque badge code (unique).
//  MembershipStatus – one of active, overdue, inactive.
//  Email            – contact email (nullable).
//  Phone            – contact phone (nullable).
//  Address          – postal address (nullable).
//  MonthlyFeeCents  – monthly membership fee in cents.
//  LastPaymentDate  – date of the most recent completed payment (nullable).
//  CreatedAt        – timestamp of creation.
//  UpdatedAt        – timestamp of last update.
type Member struct {
    ID               uint64     // members.id
    MemberNumber     string     // members.member_number
    FullName         string     // members.full_name
    QRCode           string     // members.qr_code
    MembershipStatus string     // members.membership_status
    Email            *string    // members.email (nullable)
    Phone            *string    // members.phone (nullable)
    Address          *string    // members.address (nullable)
    MonthlyFeeCents  uint32     // members.monthly_fee_cents
    LastPaymentDate  *time.Time // members.last_payment_date (nullable)
    CreatedAt        time.Time  // members.created_at
    UpdatedAt        time.Time  // members.updated_at
}

// Blocked reports whether the member must be refused at the gate.
// Overdue members are deliberately not blocked; only an inactive
// membership denies entry.
func (m Member) Blocked() bool { return m.MembershipStatus == StatusInactive }
