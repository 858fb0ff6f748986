package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/labstack/echo/v4"

	"github.com/anndata/agriplatform/internal/model"
	"github.com/anndata/agriplatform/internal/repository"
)

// maxFeedbackMessageLen bounds the feedback message after trimming.
const maxFeedbackMessageLen = 1000

// FeedbackHandler serves feedback submission and the moderation
// surface used by administrators.
type FeedbackHandler struct {
	Feedback *repository.FeedbackRepo
}

func NewFeedbackHandler(f *repository.FeedbackRepo) *FeedbackHandler {
	if f == nil {
		panic("nil repository passed to NewFeedbackHandler")
	}
	return &FeedbackHandler{Feedback: f}
}

type submitFeedbackReq struct {
	UserID   uint64 `json:"user_id"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Rating   *int   `json:"rating"`
	IsPublic bool   `json:"is_public"`
}

// Submit handles POST /feedback. The owner id comes from the body: the
// route predates the token middleware and stays open for UI clients
// that submit on behalf of a logged-in user.
func (h *FeedbackHandler) Submit(c echo.Context) error {
	var req submitFeedbackReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.UserID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user_id required"})
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "message required"})
	}
	// The column limit is characters, not bytes.
	if utf8.RuneCountInString(req.Message) > maxFeedbackMessageLen {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "message too long (max 1000 characters)"})
	}
	if req.Rating != nil && (*req.Rating < 1 || *req.Rating > 5) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "rating must be between 1 and 5"})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	id, err := h.Feedback.Create(ctx, model.Feedback{
		UserID:   req.UserID,
		Message:  req.Message,
		Category: req.Category,
		Rating:   req.Rating,
		IsPublic: req.IsPublic,
	})
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "account not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": id, "status": model.FeedbackStatusPending})
}

// AdminList handles GET /admin/feedback with optional status and
// category filters, joined with the owner's username and email.
func (h *FeedbackHandler) AdminList(c echo.Context) error {
	status := strings.TrimSpace(c.QueryParam("status"))
	category := strings.TrimSpace(c.QueryParam("category"))
	if status != "" && !model.ValidFeedbackStatus(status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	rows, err := h.Feedback.ListForAdmin(ctx, status, category)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"feedback": rows})
}

type moderateReq struct {
	Status        string  `json:"status"`
	AdminResponse *string `json:"admin_response"`
}

// AdminUpdate handles PUT /admin/feedback/:id. Status transitions are
// advisory; only enum membership is checked here.
func (h *FeedbackHandler) AdminUpdate(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid feedback id"})
	}
	var req moderateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if !model.ValidFeedbackStatus(req.Status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	if err := h.Feedback.UpdateModeration(ctx, id, req.Status, req.AdminResponse); err != nil {
		if errors.Is(err, repository.ErrFeedbackNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "feedback not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "feedback updated"})
}
