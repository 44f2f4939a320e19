package repository

import (
    "context"
    "database/sql"
    "strings"

    "clubaccess/internal/model"
)

// VehicleRepo provides CRUD operations for the vehicle registry and the
// most-recent-vehicle lookup used by the access engine.
type VehicleRepo struct {
    db *sql.DB
}

// NewVehicleRepo returns a new VehicleRepo bound to the given database.
func NewVehicleRepo(db *sql.DB) *VehicleRepo { return &VehicleRepo{db: db} }

const vehicleColumns = `id, member_id, registration_number, type, model, color, created_at, updated_at`

func scanVehicle(row interface{ Scan(...any) error }) (model.Vehicle, error) {
    var v model.Vehicle
    var vmodel, color sql.NullString
    err := row.Scan(&v.ID, &v.MemberID, &v.RegistrationNumber, &v.Type, &vmodel, &color,
        &v.CreatedAt, &v.UpdatedAt)
    if err != nil {
        return model.Vehicle{}, err
    }
    if vmodel.Valid {
        s := vmodel.String
        v.Model = &s
    }
    if color.Valid {
        s := color.String
        v.Color = &s
    }
    return v, nil
}

// MostRecent returns the member's latest-registered vehicle.  The scan
// alone cannot tell which vehicle is physically arriving, so the engine
// uses registration recency as the tie-break; see the engine's vehicle
// policy for the strict alternative.  Returns ErrNoVehicle when the
// member owns none.
func (r *VehicleRepo) MostRecent(ctx context.Context, memberID uint64) (model.Vehicle, error) {
    const q = `SELECT ` + vehicleColumns + ` FROM vehicles
               WHERE member_id = ? ORDER BY created_at DESC, id DESC LIMIT 1`
    v, err := scanVehicle(r.db.QueryRowContext(ctx, q, memberID))
    if err == sql.ErrNoRows {
        return model.Vehicle{}, ErrNoVehicle
    }
    return v, err
}

// CountByMember returns how many vehicles the member owns.  Used by the
// strict vehicle policy to refuse ambiguous scans.
func (r *VehicleRepo) CountByMember(ctx context.Context, memberID uint64) (int, error) {
    var n int
    err := r.db.QueryRowContext(ctx,
        `SELECT COUNT(*) FROM vehicles WHERE member_id = ?`, memberID).Scan(&n)
    return n, err
}

// GetByID fetches a vehicle by primary key.  Returns ErrVehicleNotFound
// when the row does not exist.
func (r *VehicleRepo) GetByID(ctx context.Context, id uint64) (model.Vehicle, error) {
    const q = `SELECT ` + vehicleColumns + ` FROM vehicles WHERE id = ? LIMIT 1`
    v, err := scanVehicle(r.db.QueryRowContext(ctx, q, id))
    if err == sql.ErrNoRows {
        return model.Vehicle{}, ErrVehicleNotFound
    }
    return v, err
}

// ListByMember returns all vehicles registered to a member, newest
// first.  When the member owns none, an empty slice is returned.
func (r *VehicleRepo) ListByMember(ctx context.Context, memberID uint64) ([]model.Vehicle, error) {
    const q = `SELECT ` + vehicleColumns + ` FROM vehicles
               WHERE member_id = ? ORDER BY created_at DESC, id DESC`
    rows, err := r.db.QueryContext(ctx, q, memberID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    vehicles := make([]model.Vehicle, 0)
    for rows.Next() {
        v, err := scanVehicle(rows)
        if err != nil {
            return nil, err
        }
        vehicles = append(vehicles, v)
    }
    return vehicles, rows.Err()
}

// Create inserts a new vehicle and populates the generated ID and
// timestamps on the provided record.  Registration numbers are unique;
// a duplicate yields ErrConflict.
func (r *VehicleRepo) Create(ctx context.Context, v *model.Vehicle) error {
    const q = `INSERT INTO vehicles (member_id, registration_number, type, model, color)
               VALUES (?, ?, ?, ?, ?)`
    res, err := r.db.ExecContext(ctx, q, v.MemberID, v.RegistrationNumber, v.Type, v.Model, v.Color)
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
    v.ID = uint64(id)
    got, err := r.GetByID(ctx, v.ID)
    if err != nil {
        return err
    }
    *v = got
    return nil
}

// Update persists the mutable fields of a vehicle.
func (r *VehicleRepo) Update(ctx context.Context, v *model.Vehicle) error {
    const q = `UPDATE vehicles SET registration_number = ?, type = ?, model = ?, color = ?
               WHERE id = ?`
    _, err := r.db.ExecContext(ctx, q, v.RegistrationNumber, v.Type, v.Model, v.Color, v.ID)
    if err != nil && strings.Contains(strings.ToLower(err.Error()), "1062") {
        return ErrConflict
    }
    return err
}

// Delete removes a vehicle.  Vehicles referenced by recorded visits
// cannot be deleted and yield ErrConflict.
func (r *VehicleRepo) Delete(ctx context.Context, id uint64) error {
    var visits int
    if err := r.db.QueryRowContext(ctx,
        `SELECT COUNT(*) FROM visits WHERE vehicle_id = ?`, id).Scan(&visits); err != nil {
        return err
    }
    if visits > 0 {
        return ErrConflict
    }
    res, err := r.db.ExecContext(ctx, `DELETE FROM vehicles WHERE id = ?`, id)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrVehicleNotFound
    }
    return nil
}
