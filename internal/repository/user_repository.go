package repository

import (
    "context"
    "database/sql"
    "errors"
    "strings"

    "clubaccess/internal/model"
    "clubaccess/internal/utils"
)

// UserRepo persists login accounts for staff and generated member logins.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

var ErrEmailExists = errors.New("email already exists")

const userColumns = `id, email, password_hash, full_name, role, member_id, is_active, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (model.User, error) {
    var u model.User
    var memberID sql.NullInt64
    err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.Role,
        &memberID, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
    if err != nil {
        return model.User{}, err
    }
    if memberID.Valid {
        id := uint64(memberID.Int64)
        u.MemberID = &id
    }
    return u, nil
}

// Create inserts a user and returns its ID.
func (r *UserRepo) Create(ctx context.Context, email, password, fullName, role string, cost int) (uint64, error) {
    email = strings.ToLower(strings.TrimSpace(email))
    hash, err := utils.HashPassword(password, cost)
    if err != nil {
        return 0, err
    }
    res, err := r.DB.ExecContext(ctx,
        "INSERT INTO users (email, password_hash, full_name, role) VALUES (?,?,?,?)",
        email, hash, fullName, role)
    if err != nil {
        if strings.Contains(strings.ToLower(err.Error()), "1062") {
            return 0, ErrEmailExists
        }
        return 0, err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return 0, err
    }
    return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
    email = strings.ToLower(strings.TrimSpace(email))
    return scanUser(r.DB.QueryRowContext(ctx,
        `SELECT `+userColumns+` FROM users WHERE email=? LIMIT 1`, email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
    return scanUser(r.DB.QueryRowContext(ctx,
        `SELECT `+userColumns+` FROM users WHERE id=? LIMIT 1`, id))
}

// UpsertMemberLogin creates or refreshes the generated login for a
// member.  The handle is derived from the member number, so issuing
// credentials twice resets the password of the same account instead of
// creating a second one.  Returns the user ID of the login.
func (r *UserRepo) UpsertMemberLogin(ctx context.Context, email, password, fullName string, memberID uint64, cost int) (uint64, error) {
    email = strings.ToLower(strings.TrimSpace(email))
    hash, err := utils.HashPassword(password, cost)
    if err != nil {
        return 0, err
    }
    existing, err := r.GetByEmail(ctx, email)
    if err == nil {
        _, err = r.DB.ExecContext(ctx,
            "UPDATE users SET password_hash=?, full_name=?, member_id=?, is_active=TRUE WHERE id=?",
            hash, fullName, memberID, existing.ID)
        return existing.ID, err
    }
    if err != sql.ErrNoRows {
        return 0, err
    }
    res, err := r.DB.ExecContext(ctx,
        "INSERT INTO users (email, password_hash, full_name, role, member_id) VALUES (?,?,?,?,?)",
        email, hash, fullName, model.RoleMember, memberID)
    if err != nil {
        return 0, err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return 0, err
    }
    return uint64(id), nil
}
