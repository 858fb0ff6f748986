package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/anndata/agriplatform/internal/model"
)

type PredictionRepo struct{ DB *sql.DB }

func NewPredictionRepo(db *sql.DB) *PredictionRepo { return &PredictionRepo{DB: db} }

// SearchMaxResults caps unauthenticated search scans.
const SearchMaxResults = 20

const predictionColumns = "id,user_id,image_ref,original_filename,label,confidence,alternatives,crop_type,latitude,longitude,weather,treatments,is_verified,verified_by,created_at"

// Create inserts a prediction record and returns its ID. The
// confidence bound is enforced here as the last line of defence even
// though the handler clamps model output first. The crop type is
// normalized to the enumerated set with an "other" fallback. An owner
// id pointing at a missing account surfaces as ErrAccountNotFound via
// the foreign key.
func (r *PredictionRepo) Create(ctx context.Context, p model.Prediction) (uint64, error) {
	if p.Confidence < 0 || p.Confidence > 1 {
		return 0, ErrInvalidConfidence
	}
	p.CropType = model.NormalizeCropType(p.CropType)
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO predictions
			(user_id, image_ref, original_filename, label, confidence, alternatives,
			 crop_type, latitude, longitude, weather, treatments)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		p.UserID, p.ImageRef, p.OriginalFilename, p.Label, p.Confidence, p.Alternatives,
		p.CropType, p.Latitude, p.Longitude, p.Weather, p.Treatments)
	if err != nil {
		// 1452: foreign key violation -> the owner does not exist.
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

// ListByOwner returns one page of an account's prediction history,
// newest first, along with the total record count so callers can
// compute total pages and has-next/has-previous. Pages are 1-indexed.
func (r *PredictionRepo) ListByOwner(ctx context.Context, ownerID uint64, page, pageSize int) ([]model.Prediction, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	var total int64
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM predictions WHERE user_id=?", ownerID).Scan(&total); err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * pageSize
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+predictionColumns+" FROM predictions WHERE user_id=? ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?",
		ownerID, pageSize, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out, err := scanPredictions(rows, pageSize)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// PredictionSearchQuery defines the optional filters of the public
// search endpoint. Filters combine with logical AND.
type PredictionSearchQuery struct {
	Label    string // case-insensitive substring of the disease label
	CropType string // exact crop type from the enumerated set
	Verified *bool  // verified flag, nil means "any"
}

// Search returns at most SearchMaxResults matching records newest
// first. The cap protects the table from unbounded scans on an
// unauthenticated route.
func (r *PredictionRepo) Search(ctx context.Context, q PredictionSearchQuery) ([]model.Prediction, error) {
	where := []string{}
	args := []any{}
	if q.Label != "" {
		where = append(where, "LOWER(label) LIKE ?")
		args = append(args, "%"+strings.ToLower(q.Label)+"%")
	}
	if q.CropType != "" {
		where = append(where, "crop_type=?")
		args = append(args, model.NormalizeCropType(q.CropType))
	}
	if q.Verified != nil {
		where = append(where, "is_verified=?")
		args = append(args, *q.Verified)
	}
	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}
	args = append(args, SearchMaxResults)
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+predictionColumns+" FROM predictions WHERE "+cond+" ORDER BY created_at DESC, id DESC LIMIT ?",
		args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPredictions(rows, SearchMaxResults)
}

// Verify marks a prediction as expert-confirmed and records the
// verifier identity. Repeated calls overwrite the verifier (last write
// wins). The existence check runs first because an UPDATE that changes
// nothing reports zero affected rows on MySQL.
func (r *PredictionRepo) Verify(ctx context.Context, id uint64, verifier string) error {
	var exists uint64
	err := r.DB.QueryRowContext(ctx, "SELECT id FROM predictions WHERE id=? LIMIT 1", id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrPredictionNotFound
	}
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx,
		"UPDATE predictions SET is_verified=1, verified_by=? WHERE id=?", verifier, id)
	return err
}

// Count returns the total number of ledger records.
func (r *PredictionRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM predictions").Scan(&n)
	return n, err
}

// Recent returns the n newest records across all owners.
func (r *PredictionRepo) Recent(ctx context.Context, n int) ([]model.Prediction, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+predictionColumns+" FROM predictions ORDER BY created_at DESC, id DESC LIMIT ?", n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPredictions(rows, n)
}

// LabelStat is one group of the disease distribution: how many records
// carry the label and their average confidence.
type LabelStat struct {
	Label         string  `json:"label"`
	Count         int64   `json:"count"`
	AvgConfidence float64 `json:"avg_confidence"`
}

// LabelDistribution groups the ledger by predicted label, most frequent
// first, truncated to top entries.
func (r *PredictionRepo) LabelDistribution(ctx context.Context, top int) ([]LabelStat, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT label, COUNT(*) AS cnt, AVG(confidence) AS avg_conf
		 FROM predictions
		 GROUP BY label
		 ORDER BY cnt DESC, label ASC
		 LIMIT ?`, top)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]LabelStat, 0, top)
	for rows.Next() {
		var s LabelStat
		if err := rows.Scan(&s.Label, &s.Count, &s.AvgConfidence); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanPredictions(rows *sql.Rows, capHint int) ([]model.Prediction, error) {
	out := make([]model.Prediction, 0, capHint)
	for rows.Next() {
		var (
			p          model.Prediction
			userID     sql.NullInt64
			alts       sql.NullString
			lat, lon   sql.NullFloat64
			weather    sql.NullString
			treatments sql.NullString
			verifiedBy sql.NullString
		)
		if err := rows.Scan(&p.ID, &userID, &p.ImageRef, &p.OriginalFilename, &p.Label,
			&p.Confidence, &alts, &p.CropType, &lat, &lon, &weather, &treatments,
			&p.IsVerified, &verifiedBy, &p.CreatedAt); err != nil {
			return nil, err
		}
		if userID.Valid {
			v := uint64(userID.Int64)
			p.UserID = &v
		}
		if alts.Valid {
			p.Alternatives = &alts.String
		}
		if lat.Valid {
			p.Latitude = &lat.Float64
		}
		if lon.Valid {
			p.Longitude = &lon.Float64
		}
		if weather.Valid {
			p.Weather = &weather.String
		}
		if treatments.Valid {
			p.Treatments = &treatments.String
		}
		if verifiedBy.Valid {
			p.VerifiedBy = &verifiedBy.String
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
