package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPredictDisease(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/ml/disease-detection", r.URL.Path)

		var req DiseaseRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "abc.jpg", req.ImageRef)
		assert.Equal(t, "rice", req.CropType)

		json.NewEncoder(w).Encode(DiseaseResult{
			Label:      "Blight",
			Confidence: 0.92,
			Treatments: []string{"copper fungicide"},
		})
	}))
	defer srv.Close()

	client := NewModelClient(srv.URL, time.Second)
	res, err := client.PredictDisease(context.Background(), DiseaseRequest{ImageRef: "abc.jpg", CropType: "rice"})
	require.NoError(t, err)
	assert.Equal(t, "Blight", res.Label)
	assert.InDelta(t, 0.92, res.Confidence, 1e-9)
	assert.Equal(t, []string{"copper fungicide"}, res.Treatments)
}

func TestPredictDiseaseServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewModelClient(srv.URL, time.Second)
	_, err := client.PredictDisease(context.Background(), DiseaseRequest{ImageRef: "abc.jpg"})
	assert.ErrorIs(t, err, ErrModelUnavailable)
}

func TestPredictDiseaseConnectionRefused(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listens anymore

	client := NewModelClient(srv.URL, time.Second)
	_, err := client.PredictDisease(context.Background(), DiseaseRequest{ImageRef: "abc.jpg"})
	assert.ErrorIs(t, err, ErrModelUnavailable)
}

func TestPredictDiseaseTimeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer func() { close(release); srv.Close() }()

	client := NewModelClient(srv.URL, 50*time.Millisecond)
	start := time.Now()
	_, err := client.PredictDisease(context.Background(), DiseaseRequest{ImageRef: "abc.jpg"})
	assert.ErrorIs(t, err, ErrModelUnavailable)
	assert.Less(t, time.Since(start), time.Second, "call must abort at the client timeout")
}

func TestRecommendCrop(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/ml/crop-recommendation", r.URL.Path)

		var features SoilFeatures
		require.NoError(t, json.NewDecoder(r.Body).Decode(&features))
		assert.InDelta(t, 90, features.N, 1e-9)
		assert.InDelta(t, 6.5, features.PH, 1e-9)

		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": CropRecommendationResult{
				Primary:    "rice",
				Confidence: 0.81,
				Recommendations: []CropRecommendation{
					{Crop: "rice", Confidence: 0.81},
					{Crop: "maize", Confidence: 0.12},
				},
			},
		})
	}))
	defer srv.Close()

	client := NewModelClient(srv.URL, time.Second)
	res, err := client.RecommendCrop(context.Background(), SoilFeatures{
		N: 90, P: 42, K: 43, Temperature: 20.8, Humidity: 82, PH: 6.5, Rainfall: 202,
	})
	require.NoError(t, err)
	assert.Equal(t, "rice", res.Primary)
	require.Len(t, res.Recommendations, 2)
	assert.Equal(t, "maize", res.Recommendations[1].Crop)
}

func TestForecastDemand(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/ml/demand-forecast", r.URL.Path)

		var q DemandQuery
		require.NoError(t, json.NewDecoder(r.Body).Decode(&q))
		assert.Equal(t, 2026, q.Year)
		assert.Equal(t, 9, q.Month)
		assert.Equal(t, "Punjab", q.Region)

		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": DemandForecast{
				PredictedDemand: 1240.5,
				Year:            2026, Month: 9,
				Region: "Punjab", Crop: "wheat",
			},
		})
	}))
	defer srv.Close()

	client := NewModelClient(srv.URL, time.Second)
	res, err := client.ForecastDemand(context.Background(), DemandQuery{
		Year: 2026, Month: 9, Region: "Punjab", Crop: "wheat",
	})
	require.NoError(t, err)
	assert.InDelta(t, 1240.5, res.PredictedDemand, 1e-9)
	assert.Equal(t, "wheat", res.Crop)
}

func TestRotateCrops(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/ml/crop-rotation", r.URL.Path)

		var cond RotationConditions
		require.NoError(t, json.NewDecoder(r.Body).Decode(&cond))
		assert.Equal(t, "rice", cond.CurrentCrop)
		assert.Equal(t, "Loamy", cond.SoilType)
		assert.InDelta(t, 12, cond.Nitrogen, 1e-9)

		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": RotationResult{
				Recommendations: []RotationSuggestion{
					{Crop: "pulses", Score: 1.1, Reason: "fixes nitrogen after a heavy feeder"},
					{Crop: "maize", Score: 0.8, Reason: "different nutrient demand"},
				},
				CurrentCrop: "rice",
				SoilType:    "Loamy",
			},
		})
	}))
	defer srv.Close()

	client := NewModelClient(srv.URL, time.Second)
	res, err := client.RotateCrops(context.Background(), RotationConditions{
		CurrentCrop: "rice", SoilType: "Loamy",
		Temperature: 24, Humidity: 60, Moisture: 40,
		Nitrogen: 12, Phosphorous: 30, Potassium: 28,
	})
	require.NoError(t, err)
	require.Len(t, res.Recommendations, 2)
	assert.Equal(t, "pulses", res.Recommendations[0].Crop)
	assert.Equal(t, "rice", res.CurrentCrop)
}

func TestRotateCropsEnvelopeFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "recommender not loaded"})
	}))
	defer srv.Close()

	client := NewModelClient(srv.URL, time.Second)
	_, err := client.RotateCrops(context.Background(), RotationConditions{CurrentCrop: "rice", SoilType: "Loamy"})
	assert.ErrorIs(t, err, ErrModelUnavailable)
}

func TestRecommendCropEnvelopeFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "model not loaded"})
	}))
	defer srv.Close()

	client := NewModelClient(srv.URL, time.Second)
	_, err := client.RecommendCrop(context.Background(), SoilFeatures{})
	assert.ErrorIs(t, err, ErrModelUnavailable)
}
