package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/anndata/agriplatform/internal/model"
)

type FeedbackRepo struct{ DB *sql.DB }

func NewFeedbackRepo(db *sql.DB) *FeedbackRepo { return &FeedbackRepo{DB: db} }

// AdminListMaxResults caps the moderation listing.
const AdminListMaxResults = 50

// Create inserts a feedback record and returns its ID. The owner must
// reference an existing account; the foreign key violation (1452) is
// mapped to ErrAccountNotFound. Message trimming, length and rating
// validation happen at the handler boundary, the category is
// normalized here so the column never holds an unknown value.
func (r *FeedbackRepo) Create(ctx context.Context, f model.Feedback) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO feedback (user_id, message, category, rating, is_public) VALUES (?,?,?,?,?)",
		f.UserID, strings.TrimSpace(f.Message), model.NormalizeFeedbackCategory(f.Category), f.Rating, f.IsPublic)
	if err != nil {
		if strings.Contains(err.Error(), "1452") {
			return 0, ErrAccountNotFound
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// FeedbackAdminRow is a feedback record joined with minimal owner
// identity for the moderation listing.
type FeedbackAdminRow struct {
	model.Feedback
	Username string `json:"username"`
	Email    string `json:"email"`
}

// ListForAdmin returns feedback records newest first, optionally
// filtered by status and category, joined with the owner's username
// and email. The result is capped at AdminListMaxResults.
func (r *FeedbackRepo) ListForAdmin(ctx context.Context, status, category string) ([]FeedbackAdminRow, error) {
	where := []string{}
	args := []any{}
	if status != "" {
		where = append(where, "f.status=?")
		args = append(args, strings.ToLower(strings.TrimSpace(status)))
	}
	if category != "" {
		where = append(where, "f.category=?")
		args = append(args, strings.ToLower(strings.TrimSpace(category)))
	}
	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}
	args = append(args, AdminListMaxResults)
	rows, err := r.DB.QueryContext(ctx,
		`SELECT f.id, f.user_id, f.message, f.category, f.rating, f.status,
		        f.admin_response, f.is_public, f.created_at, f.updated_at,
		        u.username, u.email
		 FROM feedback f
		 JOIN users u ON u.id = f.user_id
		 WHERE `+cond+`
		 ORDER BY f.created_at DESC, f.id DESC
		 LIMIT ?`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]FeedbackAdminRow, 0, AdminListMaxResults)
	for rows.Next() {
		var (
			row      FeedbackAdminRow
			rating   sql.NullInt64
			response sql.NullString
		)
		if err := rows.Scan(&row.ID, &row.UserID, &row.Message, &row.Category, &rating,
			&row.Status, &response, &row.IsPublic, &row.CreatedAt, &row.UpdatedAt,
			&row.Username, &row.Email); err != nil {
			return nil, err
		}
		if rating.Valid {
			v := int(rating.Int64)
			row.Rating = &v
		}
		if response.Valid {
			row.AdminResponse = &response.String
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// UpdateModeration sets the moderation status and, when supplied, the
// admin response of a feedback record. Transitions are advisory so no
// ordering is enforced here; status membership is validated at the
// handler boundary. Missing records surface as ErrFeedbackNotFound.
func (r *FeedbackRepo) UpdateModeration(ctx context.Context, id uint64, status string, adminResponse *string) error {
	var exists uint64
	err := r.DB.QueryRowContext(ctx, "SELECT id FROM feedback WHERE id=? LIMIT 1", id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrFeedbackNotFound
	}
	if err != nil {
		return err
	}
	if adminResponse != nil {
		_, err = r.DB.ExecContext(ctx,
			"UPDATE feedback SET status=?, admin_response=? WHERE id=?",
			strings.ToLower(strings.TrimSpace(status)), *adminResponse, id)
		return err
	}
	_, err = r.DB.ExecContext(ctx,
		"UPDATE feedback SET status=? WHERE id=?",
		strings.ToLower(strings.TrimSpace(status)), id)
	return err
}

// Count returns the total number of feedback records.
func (r *FeedbackRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM feedback").Scan(&n)
	return n, err
}
