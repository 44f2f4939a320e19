package repository

import (
    "context"
    "database/sql"

    "clubaccess/internal/model"
)

// NotificationRepo stores dashboard alerts.
type NotificationRepo struct {
    db *sql.DB
}

// NewNotificationRepo returns a new NotificationRepo bound to the given database.
func NewNotificationRepo(db *sql.DB) *NotificationRepo { return &NotificationRepo{db: db} }

// Create inserts an alert and populates the generated ID and timestamp.
func (r *NotificationRepo) Create(ctx context.Context, n *model.Notification) error {
    const q = `INSERT INTO notifications (title, message, type, member_id) VALUES (?, ?, ?, ?)`
    res, err := r.db.ExecContext(ctx, q, n.Title, n.Message, n.Type, n.MemberID)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    n.ID = uint64(id)
    return r.db.QueryRowContext(ctx,
        `SELECT created_at FROM notifications WHERE id = ?`, n.ID).Scan(&n.CreatedAt)
}

// ListRecent returns the latest alerts, newest first.  When unreadOnly
// is set, acknowledged alerts are filtered out.
func (r *NotificationRepo) ListRecent(ctx context.Context, limit int, unreadOnly bool) ([]model.Notification, error) {
    if limit <= 0 {
        limit = 50
    }
    q := `SELECT id, title, message, type, member_id, ` + "`read`" + `, created_at FROM notifications`
    if unreadOnly {
        q += " WHERE `read` = FALSE"
    }
    q += ` ORDER BY created_at DESC, id DESC LIMIT ?`
    rows, err := r.db.QueryContext(ctx, q, limit)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    alerts := make([]model.Notification, 0, limit)
    for rows.Next() {
        var n model.Notification
        var memberID sql.NullInt64
        if err := rows.Scan(&n.ID, &n.Title, &n.Message, &n.Type, &memberID, &n.Read, &n.CreatedAt); err != nil {
            return nil, err
        }
        if memberID.Valid {
            id := uint64(memberID.Int64)
            n.MemberID = &id
        }
        alerts = append(alerts, n)
    }
    return alerts, rows.Err()
}

// MarkRead acknowledges a single alert.
func (r *NotificationRepo) MarkRead(ctx context.Context, id uint64) error {
    res, err := r.db.ExecContext(ctx,
        "UPDATE notifications SET `read` = TRUE WHERE id = ?", id)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return sql.ErrNoRows
    }
    return nil
}
