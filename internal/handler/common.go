package handler // handler defines the HTTP handlers of the platform core

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/anndata/agriplatform/internal/model"
)

// dbTimeout bounds every database call made from a handler so a slow
// store cannot pin a request indefinitely.
const dbTimeout = 5 * time.Second

func dbCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// getUserID extracts the authenticated account id injected by the auth
// middleware and converts it to uint64.
func getUserID(c echo.Context) (uint64, error) {
	switch t := c.Get("user_id").(type) {
	case uint64:
		if t > 0 {
			return t, nil
		}
	case int64:
		if t > 0 {
			return uint64(t), nil
		}
	case float64:
		if t > 0 {
			return uint64(t), nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// optionalUserID is getUserID for routes behind OptionalAuth: it
// returns nil when the request is anonymous.
func optionalUserID(c echo.Context) *uint64 {
	if id, err := getUserID(c); err == nil {
		return &id
	}
	return nil
}

// publicUser is the account shape returned to clients. The password
// hash has no field here, so it can never leak through serialization.
type publicUser struct {
	ID        uint64    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Location  string    `json:"location"`
	FarmSize  float64   `json:"farm_size"`
	CropTypes []string  `json:"crop_types"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toPublicUser(u model.User) publicUser {
	cropTypes := u.CropTypes
	if cropTypes == nil {
		cropTypes = []string{}
	}
	return publicUser{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Location:  u.Location,
		FarmSize:  u.FarmSize,
		CropTypes: cropTypes,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// predictionResp is the prediction record shape returned to clients.
// JSON columns stored as text are decoded back into structures.
type predictionResp struct {
	ID               uint64                        `json:"id"`
	UserID           *uint64                       `json:"user_id"`
	ImageRef         string                        `json:"image_ref"`
	OriginalFilename string                        `json:"original_filename"`
	Label            string                        `json:"label"`
	Confidence       float64                       `json:"confidence"`
	Alternatives     []model.AlternativePrediction `json:"alternatives,omitempty"`
	CropType         string                        `json:"crop_type"`
	Latitude         *float64                      `json:"latitude,omitempty"`
	Longitude        *float64                      `json:"longitude,omitempty"`
	Weather          json.RawMessage               `json:"weather,omitempty"`
	Treatments       []string                      `json:"treatments,omitempty"`
	IsVerified       bool                          `json:"is_verified"`
	VerifiedBy       *string                       `json:"verified_by,omitempty"`
	CreatedAt        time.Time                     `json:"created_at"`
}

func toPredictionResp(p model.Prediction) predictionResp {
	out := predictionResp{
		ID:               p.ID,
		UserID:           p.UserID,
		ImageRef:         p.ImageRef,
		OriginalFilename: p.OriginalFilename,
		Label:            p.Label,
		Confidence:       p.Confidence,
		CropType:         p.CropType,
		Latitude:         p.Latitude,
		Longitude:        p.Longitude,
		IsVerified:       p.IsVerified,
		VerifiedBy:       p.VerifiedBy,
		CreatedAt:        p.CreatedAt,
	}
	if p.Alternatives != nil {
		_ = json.Unmarshal([]byte(*p.Alternatives), &out.Alternatives)
	}
	if p.Treatments != nil {
		_ = json.Unmarshal([]byte(*p.Treatments), &out.Treatments)
	}
	if p.Weather != nil && json.Valid([]byte(*p.Weather)) {
		out.Weather = json.RawMessage(*p.Weather)
	}
	return out
}

func toPredictionResps(ps []model.Prediction) []predictionResp {
	out := make([]predictionResp, 0, len(ps))
	for _, p := range ps {
		out = append(out, toPredictionResp(p))
	}
	return out
}
