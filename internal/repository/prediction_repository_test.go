package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anndata/agriplatform/internal/model"
)

func predictionRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "user_id", "image_ref", "original_filename", "label", "confidence",
		"alternatives", "crop_type", "latitude", "longitude", "weather",
		"treatments", "is_verified", "verified_by", "created_at",
	})
}

func addPredictionRow(rows *sqlmock.Rows, id uint64, label string, created time.Time) *sqlmock.Rows {
	return rows.AddRow(id, 1, "img.jpg", "leaf.jpg", label, 0.9,
		nil, "rice", nil, nil, nil, nil, false, nil, created)
}

func TestPredictionCreateConfidenceBound(t *testing.T) {
	t.Parallel()
	db, mock := newMock(t)
	repo := NewPredictionRepo(db)

	for _, conf := range []float64{-0.01, 1.01, 2} {
		_, err := repo.Create(context.Background(), model.Prediction{
			ImageRef: "img.jpg", Label: "Blight", Confidence: conf,
		})
		assert.ErrorIs(t, err, ErrInvalidConfidence, "confidence %v", conf)
	}
	// No SQL may have been issued for rejected records.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPredictionCreateNormalizesCropType(t *testing.T) {
	t.Parallel()
	db, mock := newMock(t)
	repo := NewPredictionRepo(db)

	mock.ExpectExec("INSERT INTO predictions").
		WithArgs(nil, "img.jpg", "leaf.jpg", "Blight", 0.9, nil, "other",
			nil, nil, nil, nil).
		WillReturnResult(sqlmock.NewResult(3, 1))

	id, err := repo.Create(context.Background(), model.Prediction{
		ImageRef:         "img.jpg",
		OriginalFilename: "leaf.jpg",
		Label:            "Blight",
		Confidence:       0.9,
		CropType:         "bamboo", // not in the enumerated set
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(3), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPredictionCreateOwnerMissing(t *testing.T) {
	t.Parallel()
	db, mock := newMock(t)
	repo := NewPredictionRepo(db)

	mock.ExpectExec("INSERT INTO predictions").
		WillReturnError(errors.New("Error 1452 (23000): Cannot add or update a child row: a foreign key constraint fails"))

	owner := uint64(99)
	_, err := repo.Create(context.Background(), model.Prediction{
		UserID: &owner, ImageRef: "img.jpg", Label: "Blight", Confidence: 0.5,
	})
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestListByOwnerPagination(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		page       int
		pageSize   int
		wantLimit  int
		wantOffset int
	}{
		{name: "first page", page: 1, pageSize: 10, wantLimit: 10, wantOffset: 0},
		{name: "third page", page: 3, pageSize: 10, wantLimit: 10, wantOffset: 20},
		{name: "page below one coerced", page: 0, pageSize: 10, wantLimit: 10, wantOffset: 0},
		{name: "size below one coerced", page: 2, pageSize: 0, wantLimit: 10, wantOffset: 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			db, mock := newMock(t)
			repo := NewPredictionRepo(db)

			mock.ExpectQuery(regexp.QuoteMeta(
				"SELECT COUNT(*) FROM predictions WHERE user_id=?")).
				WithArgs(uint64(1)).
				WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(25))
			mock.ExpectQuery(regexp.QuoteMeta(
				"SELECT "+predictionColumns+" FROM predictions WHERE user_id=? ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?")).
				WithArgs(uint64(1), tt.wantLimit, tt.wantOffset).
				WillReturnRows(addPredictionRow(predictionRows(), 5, "Blight", time.Now()))

			records, total, err := repo.ListByOwner(context.Background(), 1, tt.page, tt.pageSize)
			require.NoError(t, err)
			assert.Equal(t, int64(25), total)
			require.Len(t, records, 1)
			assert.Equal(t, uint64(5), records[0].ID)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestSearchCombinesFiltersWithAnd(t *testing.T) {
	t.Parallel()
	db, mock := newMock(t)
	repo := NewPredictionRepo(db)

	verified := true
	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT "+predictionColumns+" FROM predictions WHERE LOWER(label) LIKE ? AND crop_type=? AND is_verified=? ORDER BY created_at DESC, id DESC LIMIT ?")).
		WithArgs("%blight%", "rice", true, SearchMaxResults).
		WillReturnRows(addPredictionRow(predictionRows(), 2, "Late Blight", time.Now()))

	records, err := repo.Search(context.Background(), PredictionSearchQuery{
		Label:    "Blight",
		CropType: "Rice",
		Verified: &verified,
	})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Late Blight", records[0].Label)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchWithoutFilters(t *testing.T) {
	t.Parallel()
	db, mock := newMock(t)
	repo := NewPredictionRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT "+predictionColumns+" FROM predictions WHERE 1=1 ORDER BY created_at DESC, id DESC LIMIT ?")).
		WithArgs(SearchMaxResults).
		WillReturnRows(predictionRows())

	records, err := repo.Search(context.Background(), PredictionSearchQuery{})
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifyNotFound(t *testing.T) {
	t.Parallel()
	db, mock := newMock(t)
	repo := NewPredictionRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM predictions WHERE id=? LIMIT 1")).
		WithArgs(uint64(42)).
		WillReturnError(sql.ErrNoRows)

	err := repo.Verify(context.Background(), 42, "agronomist")
	assert.ErrorIs(t, err, ErrPredictionNotFound)
}

func TestVerifyLastWriteWins(t *testing.T) {
	t.Parallel()
	db, mock := newMock(t)
	repo := NewPredictionRepo(db)

	// Re-verifying an already-verified record just overwrites the verifier.
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM predictions WHERE id=? LIMIT 1")).
		WithArgs(uint64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))
	mock.ExpectExec(regexp.QuoteMeta(
		"UPDATE predictions SET is_verified=1, verified_by=? WHERE id=?")).
		WithArgs("second-verifier", uint64(42)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Verify(context.Background(), 42, "second-verifier")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLabelDistribution(t *testing.T) {
	t.Parallel()
	db, mock := newMock(t)
	repo := NewPredictionRepo(db)

	mock.ExpectQuery("SELECT label, COUNT\\(\\*\\) AS cnt, AVG\\(confidence\\) AS avg_conf").
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"label", "cnt", "avg_conf"}).
			AddRow("Blight", 2, 0.85).
			AddRow("Rust", 1, 0.7))

	stats, err := repo.LabelDistribution(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, LabelStat{Label: "Blight", Count: 2, AvgConfidence: 0.85}, stats[0])
	assert.Equal(t, LabelStat{Label: "Rust", Count: 1, AvgConfidence: 0.7}, stats[1])
}
