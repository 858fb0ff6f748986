// Package gateway talks to the external model inference service. The
// service is an out-of-process HTTP collaborator and is treated as
// unreliable: every call carries a bounded timeout and any transport
// failure, timeout or non-success status collapses into
// ErrModelUnavailable so that handlers can answer 503 with a fallback
// hint instead of hanging or crashing the request. No automatic retry
// is performed.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/anndata/agriplatform/internal/model"
)

// ErrModelUnavailable is returned whenever the model service cannot
// produce a result, for whatever reason.
var ErrModelUnavailable = errors.New("model service unavailable")

// ModelClient calls the inference endpoints under the service base URL.
type ModelClient struct {
	baseURL string
	http    *http.Client
}

// NewModelClient builds a client with the given base URL and call
// timeout. A timeout of zero falls back to 10 seconds.
func NewModelClient(baseURL string, timeout time.Duration) *ModelClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ModelClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// DiseaseRequest identifies the stored image the model should analyze.
type DiseaseRequest struct {
	ImageRef string `json:"image_ref"`
	CropType string `json:"crop_type"`
}

// DiseaseResult is the inference outcome for one crop image.
type DiseaseResult struct {
	Label        string                        `json:"label"`
	Confidence   float64                       `json:"confidence"`
	Alternatives []model.AlternativePrediction `json:"alternatives"`
	Treatments   []string                      `json:"treatments"`
}

// PredictDisease asks the model service to classify a crop image.
func (c *ModelClient) PredictDisease(ctx context.Context, req DiseaseRequest) (DiseaseResult, error) {
	var out DiseaseResult
	if err := c.post(ctx, "/api/ml/disease-detection", req, &out); err != nil {
		return DiseaseResult{}, err
	}
	return out, nil
}

// SoilFeatures are the numeric inputs of the crop recommendation model.
// Field names follow the model service contract.
type SoilFeatures struct {
	N           float64 `json:"N"`
	P           float64 `json:"P"`
	K           float64 `json:"K"`
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	PH          float64 `json:"ph"`
	Rainfall    float64 `json:"rainfall"`
}

// CropRecommendation ranks crops for the supplied soil conditions.
type CropRecommendation struct {
	Crop       string  `json:"crop"`
	Confidence float64 `json:"confidence"`
}

// CropRecommendationResult is the crop recommendation outcome.
type CropRecommendationResult struct {
	Primary         string               `json:"primary_recommendation"`
	Confidence      float64              `json:"confidence"`
	Recommendations []CropRecommendation `json:"recommendations"`
}

// RecommendCrop asks the model service which crops suit the soil and
// climate features.
func (c *ModelClient) RecommendCrop(ctx context.Context, features SoilFeatures) (CropRecommendationResult, error) {
	// The service wraps results in a {success, data} envelope.
	var envelope struct {
		Success bool                     `json:"success"`
		Data    CropRecommendationResult `json:"data"`
	}
	if err := c.post(ctx, "/api/ml/crop-recommendation", features, &envelope); err != nil {
		return CropRecommendationResult{}, err
	}
	if !envelope.Success {
		return CropRecommendationResult{}, ErrModelUnavailable
	}
	return envelope.Data, nil
}

// DemandQuery pins a demand forecast to one market slice.
type DemandQuery struct {
	Year   int    `json:"year"`
	Month  int    `json:"month"`
	Region string `json:"region"`
	Crop   string `json:"crop"`
}

// DemandForecast is the predicted market demand for the queried slice.
type DemandForecast struct {
	PredictedDemand float64 `json:"predicted_demand"`
	Year            int     `json:"year"`
	Month           int     `json:"month"`
	Region          string  `json:"region"`
	Crop            string  `json:"crop"`
}

// ForecastDemand asks the model service how much demand to expect for a
// crop in a region and month.
func (c *ModelClient) ForecastDemand(ctx context.Context, q DemandQuery) (DemandForecast, error) {
	var envelope struct {
		Success bool           `json:"success"`
		Data    DemandForecast `json:"data"`
	}
	if err := c.post(ctx, "/api/ml/demand-forecast", q, &envelope); err != nil {
		return DemandForecast{}, err
	}
	if !envelope.Success {
		return DemandForecast{}, ErrModelUnavailable
	}
	return envelope.Data, nil
}

// RotationConditions describe the field a rotation suggestion is for.
// Field names follow the model service contract.
type RotationConditions struct {
	CurrentCrop string  `json:"current_crop"`
	SoilType    string  `json:"soil_type"`
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	Moisture    float64 `json:"moisture"`
	Nitrogen    float64 `json:"nitrogen"`
	Phosphorous float64 `json:"phosphorous"`
	Potassium   float64 `json:"potassium"`
	TopK        int     `json:"top_k,omitempty"`
}

// RotationSuggestion is one scored follow-up crop with its rationale.
type RotationSuggestion struct {
	Crop   string  `json:"crop"`
	Score  float64 `json:"score"`
	Reason string  `json:"reason"`
}

// RotationResult ranks follow-up crops for the described field.
type RotationResult struct {
	Recommendations []RotationSuggestion `json:"recommendations"`
	CurrentCrop     string               `json:"current_crop"`
	SoilType        string               `json:"soil_type"`
}

// RotateCrops asks the model service which crop should follow the
// current one given the field conditions.
func (c *ModelClient) RotateCrops(ctx context.Context, cond RotationConditions) (RotationResult, error) {
	var envelope struct {
		Success bool           `json:"success"`
		Data    RotationResult `json:"data"`
	}
	if err := c.post(ctx, "/api/ml/crop-rotation", cond, &envelope); err != nil {
		return RotationResult{}, err
	}
	if !envelope.Success {
		return RotationResult{}, ErrModelUnavailable
	}
	return envelope.Data, nil
}

func (c *ModelClient) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: status %d", ErrModelUnavailable, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: bad response: %v", ErrModelUnavailable, err)
	}
	return nil
}
