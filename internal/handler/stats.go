package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"

	"github.com/anndata/agriplatform/internal/repository"
)

// StatsHandler produces the dashboard aggregation snapshot.
type StatsHandler struct {
	Accounts    *repository.AccountRepo
	Predictions *repository.PredictionRepo
	Feedback    *repository.FeedbackRepo
}

func NewStatsHandler(a *repository.AccountRepo, p *repository.PredictionRepo, f *repository.FeedbackRepo) *StatsHandler {
	if a == nil || p == nil || f == nil {
		panic("nil repository passed to NewStatsHandler")
	}
	return &StatsHandler{Accounts: a, Predictions: p, Feedback: f}
}

// Dashboard handles GET /stats/dashboard. The underlying queries are
// independent reads, so they run concurrently; the result is a
// snapshot with no transactional guarantee across them. The route is
// fronted by the Redis response cache when available.
func (h *StatsHandler) Dashboard(c echo.Context) error {
	g, ctx := errgroup.WithContext(c.Request().Context())

	var (
		activeAccounts  int64
		predictionCount int64
		feedbackCount   int64
		recent          []predictionResp
		distribution    []repository.LabelStat
	)
	g.Go(func() error {
		var err error
		activeAccounts, err = h.Accounts.CountActive(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		predictionCount, err = h.Predictions.Count(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		feedbackCount, err = h.Feedback.Count(ctx)
		return err
	})
	g.Go(func() error {
		records, err := h.Predictions.Recent(ctx, 5)
		if err != nil {
			return err
		}
		recent = toPredictionResps(records)
		return nil
	})
	g.Go(func() error {
		var err error
		distribution, err = h.Predictions.LabelDistribution(ctx, 5)
		return err
	})
	if err := g.Wait(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	if distribution == nil {
		distribution = []repository.LabelStat{}
	}
	if recent == nil {
		recent = []predictionResp{}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"active_account_count": activeAccounts,
		"prediction_count":     predictionCount,
		"feedback_count":       feedbackCount,
		"recent_predictions":   recent,
		"disease_distribution": distribution,
	})
}
