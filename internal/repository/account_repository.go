package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/anndata/agriplatform/internal/model"
	"github.com/anndata/agriplatform/internal/utils"
)

type AccountRepo struct{ DB *sql.DB }

func NewAccountRepo(db *sql.DB) *AccountRepo { return &AccountRepo{DB: db} }

var ErrEmailExists = errors.New("email already exists")
var ErrUsernameExists = errors.New("username already exists")

const accountColumns = "id,username,email,password_hash,location,farm_size,crop_types,is_active,created_at,updated_at"

// Create inserts an account and returns its ID. The email is stored
// lowercased and trimmed, the username trimmed, so that the unique keys
// enforce case-insensitive email uniqueness. Only the bcrypt hash of
// the password is persisted.
func (r *AccountRepo) Create(ctx context.Context, username, email, password string, location string, farmSize float64, cropTypes []string, cost int) (uint64, error) {
	username = strings.TrimSpace(username)
	email = model.NormalizeEmail(email)
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (username, email, password_hash, location, farm_size, crop_types) VALUES (?,?,?,?,?,?)",
		username, email, hash, location, farmSize, model.JoinCropTypes(cropTypes))
	if err != nil {
		return 0, mapDuplicateKey(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches an account by normalized email.
func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return r.getWhere(ctx, "email=?", model.NormalizeEmail(email))
}

// GetByID fetches an account by primary key.
func (r *AccountRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.getWhere(ctx, "id=?", id)
}

func (r *AccountRepo) getWhere(ctx context.Context, cond string, arg any) (model.User, error) {
	var (
		u         model.User
		cropTypes sql.NullString
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+accountColumns+" FROM users WHERE "+cond+" LIMIT 1", arg).
		Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Location,
			&u.FarmSize, &cropTypes, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrAccountNotFound
	}
	if err != nil {
		return model.User{}, err
	}
	u.CropTypes = model.SplitCropTypes(cropTypes.String)
	return u, nil
}

// AccountUpdate lists the profile fields that may be changed. Nil
// pointers mean "leave the column as is".
type AccountUpdate struct {
	Username  *string
	Email     *string
	Location  *string
	FarmSize  *float64
	CropTypes []string
}

// Update applies a partial profile update. Changing the email or
// username re-checks uniqueness through the unique keys; a conflicting
// value surfaces as ErrEmailExists / ErrUsernameExists. When no row
// matches the id, ErrAccountNotFound is returned.
func (r *AccountRepo) Update(ctx context.Context, id uint64, upd AccountUpdate) error {
	set := []string{}
	args := []any{}
	if upd.Username != nil {
		set = append(set, "username=?")
		args = append(args, strings.TrimSpace(*upd.Username))
	}
	if upd.Email != nil {
		set = append(set, "email=?")
		args = append(args, model.NormalizeEmail(*upd.Email))
	}
	if upd.Location != nil {
		set = append(set, "location=?")
		args = append(args, *upd.Location)
	}
	if upd.FarmSize != nil {
		set = append(set, "farm_size=?")
		args = append(args, *upd.FarmSize)
	}
	if upd.CropTypes != nil {
		set = append(set, "crop_types=?")
		args = append(args, model.JoinCropTypes(upd.CropTypes))
	}
	if len(set) == 0 {
		// Nothing to change; still report missing accounts.
		_, err := r.GetByID(ctx, id)
		return err
	}
	// Existence check first: UPDATE reports zero affected rows both for
	// missing ids and for no-op value changes, which must not be
	// confused with each other.
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	args = append(args, id)
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET "+strings.Join(set, ", ")+" WHERE id=?", args...)
	if err != nil {
		return mapDuplicateKey(err)
	}
	return nil
}

// Deactivate flips is_active to false. It is a soft delete: the row is
// never removed, and deactivating an already-inactive account succeeds.
// Password confirmation happens at the handler boundary.
func (r *AccountRepo) Deactivate(ctx context.Context, id uint64) error {
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	_, err := r.DB.ExecContext(ctx, "UPDATE users SET is_active=0 WHERE id=?", id)
	return err
}

// CountActive returns the number of accounts that may authenticate.
func (r *AccountRepo) CountActive(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE is_active=1").Scan(&n)
	return n, err
}

// mapDuplicateKey translates MySQL duplicate-entry errors (1062) into
// the sentinel matching the violated unique key. The key name decides:
// the duplicate value itself may contain "username" (an email local
// part, say) and must not sway the outcome.
func mapDuplicateKey(err error) error {
	msg := strings.ToLower(err.Error())
	if !strings.Contains(msg, "1062") {
		return err
	}
	if strings.Contains(msg, "uq_users_username") {
		return ErrUsernameExists
	}
	return ErrEmailExists
}
