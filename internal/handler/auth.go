package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/anndata/agriplatform/internal/config"
	"github.com/anndata/agriplatform/internal/repository"
	"github.com/anndata/agriplatform/internal/utils"
)

// AuthHandler bundles dependencies for registration and login.
type AuthHandler struct {
	Cfg      config.Config
	Accounts *repository.AccountRepo
}

func NewAuthHandler(cfg config.Config, a *repository.AccountRepo) *AuthHandler {
	if a == nil {
		panic("nil repository passed to NewAuthHandler")
	}
	return &AuthHandler{Cfg: cfg, Accounts: a}
}

// ----- DTOs -----

type registerReq struct {
	Username  string   `json:"username"`
	Email     string   `json:"email"`
	Password  string   `json:"password"`
	Location  string   `json:"location"`
	FarmSize  float64  `json:"farm_size"`
	CropTypes []string `json:"crop_types"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResp struct {
	Token   string     `json:"token"`
	Expires time.Time  `json:"expires"`
	User    publicUser `json:"user"`
}

// Register creates an account. Username and email are normalized before
// persistence; duplicates are rejected with 400 before any row is
// written (the unique keys are the final arbiter under races).
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/email/password required"})
	}
	if req.FarmSize < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "farm_size must be non-negative"})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	uid, err := h.Accounts.Create(ctx, req.Username, req.Email, req.Password,
		req.Location, req.FarmSize, req.CropTypes, h.Cfg.BcryptCost)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrEmailExists):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "email already registered"})
		case errors.Is(err, repository.ErrUsernameExists):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "username already taken"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	u, err := h.Accounts.GetByID(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"user": toPublicUser(u)})
}

// Login authenticates by email and password and issues a session token.
// A missing account, an inactive account and a wrong password all
// produce the same 401 body so callers cannot enumerate accounts.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	u, err := h.Accounts.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return invalidCredentials(c)
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if !u.IsActive || !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return invalidCredentials(c)
	}

	tok, err := utils.NewSessionToken(h.Cfg.JWTSecret, u.ID, u.Username, u.Email, h.Cfg.SessionTTLHours)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token issuance failed"})
	}
	return c.JSON(http.StatusOK, loginResp{Token: tok.Token, Expires: tok.Exp, User: toPublicUser(u)})
}

// invalidCredentials is the single response shape for every
// authentication failure cause.
func invalidCredentials(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
}
