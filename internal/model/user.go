package model

import (
	"strings"
	"time"
)

// User represents a farmer account as stored in the `users` table.
// Each field corresponds to a column in the database.  The json tags
// are omitted here because these structs are used internally by the
// repository layer; handlers define separate response types with
// appropriate JSON tags so the password hash is never serialized.
//
// Fields:
//  ID           – primary key identifier of the account.
//  Username     – unique, trimmed display name.
//  Email        – unique email address, lowercased and trimmed.
//  PasswordHash – bcrypt hashed password.
//  Location     – free-form location of the farm.
//  FarmSize     – farm size in acres (non-negative).
//  CropTypes    – crop-type labels grown by the farmer.
//  IsActive     – whether the account may authenticate.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    // users.id
	Username     string    // users.username
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	Location     string    // users.location
	FarmSize     float64   // users.farm_size
	CropTypes    []string  // users.crop_types (comma-joined in the column)
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// NormalizeEmail lowercases and trims an email address so that
// uniqueness and login comparisons are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// JoinCropTypes flattens crop-type labels into the comma-joined column
// form, dropping empty entries.
func JoinCropTypes(labels []string) string {
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, ",")
}

// SplitCropTypes parses the comma-joined column form back into labels.
func SplitCropTypes(col string) []string {
	if strings.TrimSpace(col) == "" {
		return nil
	}
	parts := strings.Split(col, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
