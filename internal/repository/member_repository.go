package repository

import (
    "context"
    "database/sql"
    "fmt"
    "strings"
    "time"

    "clubaccess/internal/model"
)

// MemberRepo provides CRUD operations for club members.  The badge
// code lookup used by the access engine lives here; the code is an
// opaque key and is matched verbatim against members.qr_code.  All
// timestamp fields are assumed to be stored in UTC.
type MemberRepo struct {
    db *sql.DB
}

// NewMemberRepo returns a new MemberRepo bound to the given database.
func NewMemberRepo(db *sql.DB) *MemberRepo { return &MemberRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions
// spanning multiple repositories.
func (r *MemberRepo) DB() *sql.DB { return r.db }

const memberColumns = `id, member_number, full_name, qr_code, membership_status,
       email, phone, address, monthly_fee_cents, last_payment_date, created_at, updated_at`

func scanMember(row interface{ Scan(...any) error }) (model.Member, error) {
    var m model.Member
    var email, phone, address sql.NullString
    var lastPayment sql.NullTime
    err := row.Scan(&m.ID, &m.MemberNumber, &m.FullName, &m.QRCode, &m.MembershipStatus,
        &email, &phone, &address, &m.MonthlyFeeCents, &lastPayment, &m.CreatedAt, &m.UpdatedAt)
    if err != nil {
        return model.Member{}, err
    }
    if email.Valid {
        v := email.String
        m.Email = &v
    }
    if phone.Valid {
        v := phone.String
        m.Phone = &v
    }
    if address.Valid {
        v := address.String
        m.Address = &v
    }
    if lastPayment.Valid {
        t := lastPayment.Time
        m.LastPaymentDate = &t
    }
    return m, nil
}

// FindByCode resolves a scanned badge code to a member.  It returns
// ErrMemberNotFound when no member carries the code; the caller must
// not attempt to parse or normalize the code.
func (r *MemberRepo) FindByCode(ctx context.Context, code string) (model.Member, error) {
    const q = `SELECT ` + memberColumns + ` FROM members WHERE qr_code = ? LIMIT 1`
    m, err := scanMember(r.db.QueryRowContext(ctx, q, code))
    if err == sql.ErrNoRows {
        return model.Member{}, ErrMemberNotFound
    }
    return m, err
}

// GetByID fetches a member by primary key.  Returns ErrMemberNotFound
// when the row does not exist.
func (r *MemberRepo) GetByID(ctx context.Context, id uint64) (model.Member, error) {
    const q = `SELECT ` + memberColumns + ` FROM members WHERE id = ? LIMIT 1`
    m, err := scanMember(r.db.QueryRowContext(ctx, q, id))
    if err == sql.ErrNoRows {
        return model.Member{}, ErrMemberNotFound
    }
    return m, err
}

// Create inserts a new member and populates the generated ID and
// timestamps on the provided record.  MemberNumber and QRCode must be
// unique; a duplicate yields ErrConflict.
func (r *MemberRepo) Create(ctx context.Context, m *model.Member) error {
    const q = `INSERT INTO members
        (member_number, full_name, qr_code, membership_status, email, phone, address, monthly_fee_cents, last_payment_date)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
    res, err := r.db.ExecContext(ctx, q,
        m.MemberNumber, m.FullName, m.QRCode, m.MembershipStatus,
        m.Email, m.Phone, m.Address, m.MonthlyFeeCents, m.LastPaymentDate)
    if err != nil {
        if strings.Contains(strings.ToLower(err.Error()), "1062") {
            return ErrConflict
        }
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    m.ID = uint64(id)
    // Query back the full row to populate timestamps and defaults
    got, err := r.GetByID(ctx, m.ID)
    if err != nil {
        return err
    }
    *m = got
    return nil
}

// Update persists the mutable profile fields of a member.  The badge
// code and member number are not changed here; reissuing a card is an
// explicit administrative action.
func (r *MemberRepo) Update(ctx context.Context, m *model.Member) error {
    const q = `UPDATE members
        SET full_name = ?, email = ?, phone = ?, address = ?, monthly_fee_cents = ?
        WHERE id = ?`
    res, err := r.db.ExecContext(ctx, q, m.FullName, m.Email, m.Phone, m.Address, m.MonthlyFeeCents, m.ID)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        if _, err := r.GetByID(ctx, m.ID); err != nil {
            return err
        }
    }
    return nil
}

// UpdateStatus sets membership_status for a member.  Status is mutated
// only by administrative and payment workflows, never by the scanner.
func (r *MemberRepo) UpdateStatus(ctx context.Context, id uint64, status string) error {
    res, err := r.db.ExecContext(ctx, `UPDATE members SET membership_status = ? WHERE id = ?`, status, id)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        if _, err := r.GetByID(ctx, id); err != nil {
            return err
        }
    }
    return nil
}

// UpdateBadge replaces the member's badge code.  The old code stops
// resolving at the gate as soon as this commits.
func (r *MemberRepo) UpdateBadge(ctx context.Context, id uint64, code string) error {
    res, err := r.db.ExecContext(ctx, `UPDATE members SET qr_code = ? WHERE id = ?`, code, id)
    if err != nil {
        if strings.Contains(strings.ToLower(err.Error()), "1062") {
            return ErrConflict
        }
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        if _, err := r.GetByID(ctx, id); err != nil {
            return err
        }
    }
    return nil
}

// MarkPaid stamps last_payment_date and reactivates an overdue member.
// Called when a payment transitions to completed.  Inactive members
// stay inactive; unblocking is an explicit admin decision.
func (r *MemberRepo) MarkPaid(ctx context.Context, id uint64, paidAt time.Time) error {
    const q = `UPDATE members
        SET last_payment_date = ?,
            membership_status = IF(membership_status = 'overdue', 'active', membership_status)
        WHERE id = ?`
    _, err := r.db.ExecContext(ctx, q, paidAt, id)
    return err
}

// Delete removes a member.  Members with recorded visits or payments
// cannot be deleted and yield ErrConflict so history stays intact.
func (r *MemberRepo) Delete(ctx context.Context, id uint64) error {
    var visits int
    if err := r.db.QueryRowContext(ctx,
        `SELECT COUNT(*) FROM visits WHERE member_id = ?`, id).Scan(&visits); err != nil {
        return err
    }
    var payments int
    if err := r.db.QueryRowContext(ctx,
        `SELECT COUNT(*) FROM payments WHERE member_id = ?`, id).Scan(&payments); err != nil {
        return err
    }
    if visits > 0 || payments > 0 {
        return ErrConflict
    }
    res, err := r.db.ExecContext(ctx, `DELETE FROM members WHERE id = ?`, id)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrMemberNotFound
    }
    return nil
}

// List returns members ordered by member number, optionally filtered by
// a case-insensitive search over name and number.  Limit/offset follow
// the usual pagination contract; a zero limit means no limit.
func (r *MemberRepo) List(ctx context.Context, search string, limit, offset int) ([]model.Member, error) {
    q := `SELECT ` + memberColumns + ` FROM members`
    args := []any{}
    if s := strings.TrimSpace(search); s != "" {
        q += ` WHERE full_name LIKE ? OR member_number LIKE ?`
        like := "%" + s + "%"
        args = append(args, like, like)
    }
    q += ` ORDER BY member_number`
    if limit > 0 {
        q += ` LIMIT ? OFFSET ?`
        args = append(args, limit, offset)
    }
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    members := make([]model.Member, 0)
    for rows.Next() {
        m, err := scanMember(rows)
        if err != nil {
            return nil, err
        }
        members = append(members, m)
    }
    return members, rows.Err()
}

// NextMemberNumber returns the next sequential member number as a
// zero-padded string (e.g. "0042").  Numbers are derived from the
// current maximum, so deleting the newest member may reuse its number.
func (r *MemberRepo) NextMemberNumber(ctx context.Context) (string, error) {
    var max sql.NullInt64
    err := r.db.QueryRowContext(ctx,
        `SELECT MAX(CAST(member_number AS UNSIGNED)) FROM members`).Scan(&max)
    if err != nil {
        return "", err
    }
    next := int64(1)
    if max.Valid {
        next = max.Int64 + 1
    }
    return fmt.Sprintf("%04d", next), nil
}
