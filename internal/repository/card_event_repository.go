package repository

import (
    "context"
    "database/sql"
    "time"

    "clubaccess/internal/model"
)

// CardEventRepo appends to the scan audit trail.  The table is
// write-once: there is deliberately no update or delete method here.
type CardEventRepo struct {
    db *sql.DB
}

// NewCardEventRepo returns a new CardEventRepo bound to the given database.
func NewCardEventRepo(db *sql.DB) *CardEventRepo { return &CardEventRepo{db: db} }

// Create appends one audit row and populates the generated ID and
// timestamp on the provided record.
func (r *CardEventRepo) Create(ctx context.Context, e *model.CardEvent) error {
    const q = `INSERT INTO card_events (code_scanned, member_id, actor_id, action_type, details)
               VALUES (?, ?, ?, ?, ?)`
    res, err := r.db.ExecContext(ctx, q, e.CodeScanned, e.MemberID, e.ActorID, e.ActionType, e.Details)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    e.ID = uint64(id)
    return r.db.QueryRowContext(ctx,
        `SELECT created_at FROM card_events WHERE id = ?`, e.ID).Scan(&e.CreatedAt)
}

// ListRecent returns the latest audit rows, newest first.
func (r *CardEventRepo) ListRecent(ctx context.Context, limit int) ([]model.CardEvent, error) {
    if limit <= 0 {
        limit = 50
    }
    const q = `SELECT id, code_scanned, member_id, actor_id, action_type, details, created_at
               FROM card_events ORDER BY created_at DESC, id DESC LIMIT ?`
    rows, err := r.db.QueryContext(ctx, q, limit)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    events := make([]model.CardEvent, 0, limit)
    for rows.Next() {
        var e model.CardEvent
        var memberID sql.NullInt64
        var details sql.NullString
        var createdAt time.Time
        if err := rows.Scan(&e.ID, &e.CodeScanned, &memberID, &e.ActorID, &e.ActionType,
            &details, &createdAt); err != nil {
            return nil, err
        }
        if memberID.Valid {
            id := uint64(memberID.Int64)
            e.MemberID = &id
        }
        if details.Valid {
            s := details.String
            e.Details = &s
        }
        e.CreatedAt = createdAt
        events = append(events, e)
    }
    return events, rows.Err()
}
