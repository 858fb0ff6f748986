package model

import (
	"strings"
	"time"
)

// Prediction records the outcome of a crop-image disease inference.
// A prediction may be anonymous (UserID nil); when owned, the owner
// must reference an existing account at creation time.
//
// Fields:
//  ID               – primary key identifier.
//  UserID           – owning account, nil for anonymous submissions.
//  ImageRef         – stored image reference (uuid-based file name).
//  OriginalFilename – file name as uploaded by the client.
//  Label            – predicted disease label.
//  Confidence       – model confidence in [0,1].
//  Alternatives     – ranked alternative predictions (JSON in the column).
//  CropType         – one of the enumerated crop types, "other" fallback.
//  Latitude         – optional geolocation latitude.
//  Longitude        – optional geolocation longitude.
//  Weather          – optional weather snapshot (JSON in the column).
//  Treatments       – optional treatment suggestions (JSON in the column).
//  IsVerified       – whether an expert confirmed the label.
//  VerifiedBy       – identity of the verifier (nullable).
//  CreatedAt        – creation timestamp.
type Prediction struct {
	ID               uint64    // predictions.id
	UserID           *uint64   // predictions.user_id (nullable)
	ImageRef         string    // predictions.image_ref
	OriginalFilename string    // predictions.original_filename
	Label            string    // predictions.label
	Confidence       float64   // predictions.confidence
	Alternatives     *string   // predictions.alternatives (nullable JSON)
	CropType         string    // predictions.crop_type
	Latitude         *float64  // predictions.latitude (nullable)
	Longitude        *float64  // predictions.longitude (nullable)
	Weather          *string   // predictions.weather (nullable JSON)
	Treatments       *string   // predictions.treatments (nullable JSON)
	IsVerified       bool      // predictions.is_verified
	VerifiedBy       *string   // predictions.verified_by (nullable)
	CreatedAt        time.Time // predictions.created_at
}

// AlternativePrediction is one entry of the ranked alternatives list
// returned by the model service and stored in the alternatives column.
type AlternativePrediction struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// CropTypeOther is the fallback crop type used when a submitted value
// is not part of the enumerated set.
const CropTypeOther = "other"

// cropTypes is the enumerated set of accepted crop-type labels.
var cropTypes = map[string]bool{
	"rice":       true,
	"wheat":      true,
	"maize":      true,
	"cotton":     true,
	"sugarcane":  true,
	"vegetables": true,
	"fruits":     true,
	"pulses":     true,
	CropTypeOther: true,
}

// NormalizeCropType lowercases and trims the submitted crop type and
// falls back to "other" when the value is not in the enumerated set.
func NormalizeCropType(ct string) string {
	ct = strings.ToLower(strings.TrimSpace(ct))
	if cropTypes[ct] {
		return ct
	}
	return CropTypeOther
}
