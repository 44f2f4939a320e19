package repository

import (
    "context"
    "database/sql"
    "time"

    "clubaccess/internal/model"
)

// PaymentRepo records payments entered by the cashier.  Completing a
// payment also stamps the member row, so the create path runs in a
// transaction touching both tables.
type PaymentRepo struct {
    db *sql.DB
}

// NewPaymentRepo returns a new PaymentRepo bound to the given database.
func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

const paymentColumns = `id, member_id, amount_cents, payment_type, payment_method,
       payment_status, reference_id, notes, recorded_by, payment_date, created_at, updated_at`

func scanPayment(row interface{ Scan(...any) error }) (model.Payment, error) {
    var p model.Payment
    var method, reference, notes sql.NullString
    var recordedBy sql.NullInt64
    err := row.Scan(&p.ID, &p.MemberID, &p.AmountCents, &p.Type, &method,
        &p.Status, &reference, &notes, &recordedBy, &p.PaymentDate, &p.CreatedAt, &p.UpdatedAt)
    if err != nil {
        return model.Payment{}, err
    }
    if method.Valid {
        s := method.String
        p.Method = &s
    }
    if reference.Valid {
        s := reference.String
        p.Reference = &s
    }
    if notes.Valid {
        s := notes.String
        p.Notes = &s
    }
    if recordedBy.Valid {
        id := uint64(recordedBy.Int64)
        p.RecordedBy = &id
    }
    return p, nil
}

// Create inserts a payment.  When the payment is already completed, the
// member's last_payment_date is stamped in the same transaction and an
// overdue status is cleared.
func (r *PaymentRepo) Create(ctx context.Context, p *model.Payment) error {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    res, err := tx.ExecContext(ctx,
        `INSERT INTO payments (member_id, amount_cents, payment_type, payment_method,
                               payment_status, reference_id, notes, recorded_by, payment_date)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
        p.MemberID, p.AmountCents, p.Type, p.Method, p.Status, p.Reference, p.Notes,
        p.RecordedBy, p.PaymentDate.UTC())
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    p.ID = uint64(id)

    if p.Status == model.PaymentCompleted {
        if _, err := tx.ExecContext(ctx,
            `UPDATE members
             SET last_payment_date = ?,
                 membership_status = IF(membership_status = 'overdue', 'active', membership_status)
             WHERE id = ?`,
            p.PaymentDate.UTC(), p.MemberID); err != nil {
            return err
        }
    }

    got, err := scanPayment(tx.QueryRowContext(ctx,
        `SELECT `+paymentColumns+` FROM payments WHERE id = ?`, p.ID))
    if err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    *p = got
    return nil
}

// UpdateStatus transitions a payment between pending, completed and
// cancelled.  Completing stamps the member in the same transaction.
func (r *PaymentRepo) UpdateStatus(ctx context.Context, id uint64, status string) (model.Payment, error) {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return model.Payment{}, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    p, err := scanPayment(tx.QueryRowContext(ctx,
        `SELECT `+paymentColumns+` FROM payments WHERE id = ? FOR UPDATE`, id))
    if err == sql.ErrNoRows {
        return model.Payment{}, sql.ErrNoRows
    }
    if err != nil {
        return model.Payment{}, err
    }
    if p.Status == status {
        if err := tx.Commit(); err != nil {
            return model.Payment{}, err
        }
        committed = true
        return p, nil
    }

    if _, err := tx.ExecContext(ctx,
        `UPDATE payments SET payment_status = ? WHERE id = ?`, status, id); err != nil {
        return model.Payment{}, err
    }
    if status == model.PaymentCompleted {
        if _, err := tx.ExecContext(ctx,
            `UPDATE members
             SET last_payment_date = ?,
                 membership_status = IF(membership_status = 'overdue', 'active', membership_status)
             WHERE id = ?`,
            time.Now().UTC(), p.MemberID); err != nil {
            return model.Payment{}, err
        }
    }
    p, err = scanPayment(tx.QueryRowContext(ctx,
        `SELECT `+paymentColumns+` FROM payments WHERE id = ?`, id))
    if err != nil {
        return model.Payment{}, err
    }
    if err := tx.Commit(); err != nil {
        return model.Payment{}, err
    }
    committed = true
    return p, nil
}

// ListByMember returns a member's payments, newest first.
func (r *PaymentRepo) ListByMember(ctx context.Context, memberID uint64) ([]model.Payment, error) {
    const q = `SELECT ` + paymentColumns + ` FROM payments
               WHERE member_id = ? ORDER BY payment_date DESC, id DESC`
    rows, err := r.db.QueryContext(ctx, q, memberID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    payments := make([]model.Payment, 0)
    for rows.Next() {
        p, err := scanPayment(rows)
        if err != nil {
            return nil, err
        }
        payments = append(payments, p)
    }
    return payments, rows.Err()
}
