package model

import "time"

// Payment status values as stored in the `payments` table.
const (
    PaymentPending   = "pending"
    PaymentCompleted = "completed"
    PaymentCancelled = "cancelled"
)

// Payment records money received from a member, typically the monthly
// fee collected by the cashier.  Completing a payment stamps the
// member's last_payment_date and clears an overdue status; the actual
// charge happens outside this system.
//
// Fields:
//  ID          – primary key identifier.
//  MemberID    – paying member.
//  AmountCents – amount in cents.
//  Type        – what the payment is for (e.g. "monthly_fee").
//  Method      – how it was paid (cash, card, transfer) (nullable).
//  Status      – pending, completed or cancelled.
//  Reference   – external receipt/transaction reference (nullable).
//  Notes       – free text (nullable).
//  RecordedBy  – cashier (user) who entered the payment (nullable).
//  PaymentDate – when the payment was made.
//  CreatedAt   – timestamp of creation.
//  UpdatedAt   – timestamp of last update.
type Payment struct {
    ID          uint64    // payments.id
    MemberID    uint64    // payments.member_id
    AmountCents uint32    // payments.amount_cents
    Type        string    // payments.payment_type
    Method      *string   // payments.payment_method (nullable)
    Status      string    // payments.payment_status
    Reference   *string   // payments.reference_id (nullable)
    Notes       *string   // payments.notes (nullable)
    RecordedBy  *uint64   // payments.recorded_by (nullable)
    PaymentDate time.Time // payments.payment_date
    CreatedAt   time.Time // payments.created_at
    UpdatedAt   time.Time // payments.updated_at
}
