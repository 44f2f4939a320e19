package repository

import (
    "context"
    "database/sql"
    "time"

    "clubaccess/internal/model"
)

// VisitRepo is the entry ledger: the shared record of who is inside the
// premises.  All entry/exit decisions must go through this table rather
// than any client-side cache, because multiple gate stations may scan
// the same member.  OpenVisit and CloseVisit run inside their own
// transactions and lock the member's open-visit rows, so the invariant
// "at most one inside visit per member" holds even when two stations
// race on the same badge.
type VisitRepo struct {
    db *sql.DB
}

// NewVisitRepo returns a new VisitRepo bound to the given database.
func NewVisitRepo(db *sql.DB) *VisitRepo { return &VisitRepo{db: db} }

const visitColumns = `id, member_id, vehicle_id, scanned_by, status, entry_time, exit_time, notes, created_at, updated_at`

func scanVisit(row interface{ Scan(...any) error }) (model.Visit, error) {
    var v model.Visit
    var scannedBy sql.NullInt64
    var exitTime sql.NullTime
    var notes sql.NullString
    err := row.Scan(&v.ID, &v.MemberID, &v.VehicleID, &scannedBy, &v.Status,
        &v.EntryTime, &exitTime, &notes, &v.CreatedAt, &v.UpdatedAt)
    if err != nil {
        return model.Visit{}, err
    }
    if scannedBy.Valid {
        id := uint64(scannedBy.Int64)
        v.ScannedBy = &id
    }
    if exitTime.Valid {
        t := exitTime.Time
        v.ExitTime = &t
    }
    if notes.Valid {
        s := notes.String
        v.Notes = &s
    }
    return v, nil
}

// CurrentVisit returns the member's most recent visit, or nil when the
// member has none.  The engine inspects its status to decide whether a
// scan is an entry or an exit.  This is a plain read; the authoritative
// re-check happens under lock inside OpenVisit/CloseVisit.
func (r *VisitRepo) CurrentVisit(ctx context.Context, memberID uint64) (*model.Visit, error) {
    const q = `SELECT ` + visitColumns + ` FROM visits
               WHERE member_id = ? ORDER BY entry_time DESC, id DESC LIMIT 1`
    v, err := scanVisit(r.db.QueryRowContext(ctx, q, memberID))
    if err == sql.ErrNoRows {
        return nil, nil
    }
    if err != nil {
        return nil, err
    }
    return &v, nil
}

// OpenVisit creates a new inside visit for the member.  It locks any
// existing open visit rows for the member first; if one exists the
// insert is abandoned and ErrVisitConflict is returned, so a concurrent
// duplicate scan cannot produce two open visits.
func (r *VisitRepo) OpenVisit(ctx context.Context, memberID, vehicleID, scannedBy uint64, entryTime time.Time, notes string) (model.Visit, error) {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return model.Visit{}, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    // Lock the member's open visits. Any row here means the member is
    // already inside and this entry must lose.
    var openID uint64
    err = tx.QueryRowContext(ctx,
        `SELECT id FROM visits WHERE member_id = ? AND status = 'inside' LIMIT 1 FOR UPDATE`,
        memberID).Scan(&openID)
    if err == nil {
        return model.Visit{}, ErrVisitConflict
    }
    if err != sql.ErrNoRows {
        return model.Visit{}, err
    }

    res, err := tx.ExecContext(ctx,
        `INSERT INTO visits (member_id, vehicle_id, scanned_by, status, entry_time, notes)
         VALUES (?, ?, ?, 'inside', ?, ?)`,
        memberID, vehicleID, scannedBy, entryTime.UTC(), notes)
    if err != nil {
        return model.Visit{}, err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return model.Visit{}, err
    }
    v, err := scanVisit(tx.QueryRowContext(ctx,
        `SELECT `+visitColumns+` FROM visits WHERE id = ?`, uint64(id)))
    if err != nil {
        return model.Visit{}, err
    }
    if err := tx.Commit(); err != nil {
        return model.Visit{}, err
    }
    committed = true
    return v, nil
}

// CloseVisit resolves an open visit: sets exit_time, flips the status
// to outside and appends the exit device metadata to the notes.  The
// row is locked for the duration so a doubled exit scan cannot close
// the same visit twice; the second close returns ErrVisitConflict.
func (r *VisitRepo) CloseVisit(ctx context.Context, visitID uint64, exitTime time.Time, notes string) (model.Visit, error) {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return model.Visit{}, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    var status string
    err = tx.QueryRowContext(ctx,
        `SELECT status FROM visits WHERE id = ? FOR UPDATE`, visitID).Scan(&status)
    if err == sql.ErrNoRows {
        return model.Visit{}, ErrVisitNotFound
    }
    if err != nil {
        return model.Visit{}, err
    }
    if status != model.VisitInside {
        return model.Visit{}, ErrVisitConflict
    }

    if _, err := tx.ExecContext(ctx,
        `UPDATE visits SET status = 'outside', exit_time = ?, notes = ? WHERE id = ?`,
        exitTime.UTC(), notes, visitID); err != nil {
        return model.Visit{}, err
    }
    v, err := scanVisit(tx.QueryRowContext(ctx,
        `SELECT `+visitColumns+` FROM visits WHERE id = ?`, visitID))
    if err != nil {
        return model.Visit{}, err
    }
    if err := tx.Commit(); err != nil {
        return model.Visit{}, err
    }
    committed = true
    return v, nil
}

// VisitDetail joins a visit with member and vehicle display fields for
// the security and admin dashboards.
type VisitDetail struct {
    ID                 uint64  `json:"id"`
    MemberID           uint64  `json:"member_id"`
    MemberName         string  `json:"member_name"`
    MemberNumber       string  `json:"member_number"`
    VehicleID          uint64  `json:"vehicle_id"`
    RegistrationNumber string  `json:"registration_number"`
    VehicleType        string  `json:"vehicle_type"`
    Status             string  `json:"status"`
    EntryTime          string  `json:"entry_time"`
    ExitTime           *string `json:"exit_time,omitempty"`
}

const visitDetailQuery = `SELECT v.id, v.member_id, m.full_name, m.member_number,
              v.vehicle_id, ve.registration_number, ve.type,
              v.status, v.entry_time, v.exit_time
       FROM visits v
       JOIN members m ON m.id = v.member_id
       JOIN vehicles ve ON ve.id = v.vehicle_id`

func collectVisitDetails(rows *sql.Rows) ([]VisitDetail, error) {
    defer rows.Close()
    details := make([]VisitDetail, 0)
    for rows.Next() {
        var d VisitDetail
        var entry time.Time
        var exit sql.NullTime
        if err := rows.Scan(&d.ID, &d.MemberID, &d.MemberName, &d.MemberNumber,
            &d.VehicleID, &d.RegistrationNumber, &d.VehicleType,
            &d.Status, &entry, &exit); err != nil {
            return nil, err
        }
        d.EntryTime = entry.UTC().Format(time.RFC3339)
        if exit.Valid {
            iso := exit.Time.UTC().Format(time.RFC3339)
            d.ExitTime = &iso
        }
        details = append(details, d)
    }
    return details, rows.Err()
}

// ListInside returns all currently open visits, newest entry first.
// This feeds the "who is on premises" dashboard.
func (r *VisitRepo) ListInside(ctx context.Context) ([]VisitDetail, error) {
    rows, err := r.db.QueryContext(ctx,
        visitDetailQuery+` WHERE v.status = 'inside' ORDER BY v.entry_time DESC`)
    if err != nil {
        return nil, err
    }
    return collectVisitDetails(rows)
}

// ListByMember returns the member's visit history, newest first.
func (r *VisitRepo) ListByMember(ctx context.Context, memberID uint64, limit int) ([]VisitDetail, error) {
    q := visitDetailQuery + ` WHERE v.member_id = ? ORDER BY v.entry_time DESC`
    args := []any{memberID}
    if limit > 0 {
        q += ` LIMIT ?`
        args = append(args, limit)
    }
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    return collectVisitDetails(rows)
}
