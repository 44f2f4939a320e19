package model

import "time"

// Notification types pushed to the admin/security dashboards.
const (
    NotifEntry       = "entry"
    NotifExit        = "exit"
    NotifInvalidQR   = "invalid_qr"
    NotifBlockedCard = "blocked_card"
    NotifPayment     = "payment"
)

// Notification is a human-readable alert shown on the dashboards.
// Scan processing emits one for every entry, exit, blocked card and
// unknown code; the cashier flow emits one per recorded payment.
//
// Fields:
//  ID        – primary key identifier.
//  Title     – short headline.
//  Message   – full alert text.
//  Type      – one of the Notif* constants.
//  MemberID  – related member, if any (nullable).
//  Read      – whether a dashboard user has acknowledged it.
//  CreatedAt – timestamp of creation.
type Notification struct {
    ID        uint64    // notifications.id
    Title     string    // notifications.title
    Message   string    // notifications.message
    Type      string    // notifications.type
    MemberID  *uint64   // notifications.member_id (nullable)
    Read      bool      // notifications.read
    CreatedAt time.Time // notifications.created_at
}
