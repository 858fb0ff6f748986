package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/anndata/agriplatform/internal/config"
	"github.com/anndata/agriplatform/internal/repository"
	"github.com/anndata/agriplatform/internal/utils"
)

// UserHandler serves the authenticated account's own profile:
// fetching, partial updates and password-confirmed deactivation.
type UserHandler struct {
	Cfg      config.Config
	Accounts *repository.AccountRepo
}

func NewUserHandler(cfg config.Config, a *repository.AccountRepo) *UserHandler {
	if a == nil {
		panic("nil repository passed to NewUserHandler")
	}
	return &UserHandler{Cfg: cfg, Accounts: a}
}

// Profile handles GET /user/profile.
func (h *UserHandler) Profile(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := dbCtx(c)
	defer cancel()

	u, err := h.Accounts.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "account not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"user": toPublicUser(u)})
}

type updateProfileReq struct {
	Username  *string  `json:"username"`
	Email     *string  `json:"email"`
	Location  *string  `json:"location"`
	FarmSize  *float64 `json:"farm_size"`
	CropTypes []string `json:"crop_types"`
}

// UpdateProfile handles PUT /user/profile. Only supplied fields change;
// changing the email re-checks uniqueness excluding the account itself.
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req updateProfileReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Username != nil && strings.TrimSpace(*req.Username) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username must not be blank"})
	}
	if req.Email != nil && strings.TrimSpace(*req.Email) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email must not be blank"})
	}
	if req.FarmSize != nil && *req.FarmSize < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "farm_size must be non-negative"})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	upd := repository.AccountUpdate{
		Username:  req.Username,
		Email:     req.Email,
		Location:  req.Location,
		FarmSize:  req.FarmSize,
		CropTypes: req.CropTypes,
	}
	if err := h.Accounts.Update(ctx, userID, upd); err != nil {
		switch {
		case errors.Is(err, repository.ErrEmailExists):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "email already registered"})
		case errors.Is(err, repository.ErrUsernameExists):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "username already taken"})
		case errors.Is(err, repository.ErrAccountNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "account not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	u, err := h.Accounts.GetByID(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"user": toPublicUser(u)})
}

type deactivateReq struct {
	Password string `json:"password"`
}

// Deactivate handles DELETE /user/delete. The password is re-verified
// before the active flag is flipped. This is a soft delete; the row is
// kept and deactivating twice succeeds.
func (h *UserHandler) Deactivate(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req deactivateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password required"})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	u, err := h.Accounts.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "account not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return invalidCredentials(c)
	}
	if err := h.Accounts.Deactivate(ctx, userID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "account deactivated"})
}
