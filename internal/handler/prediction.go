package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/anndata/agriplatform/internal/config"
	"github.com/anndata/agriplatform/internal/gateway"
	"github.com/anndata/agriplatform/internal/model"
	"github.com/anndata/agriplatform/internal/queue"
	"github.com/anndata/agriplatform/internal/repository"
	queuepublisher "github.com/anndata/agriplatform/internal/service"
)

// modelFallbackHint is returned with 503 responses when the model
// service cannot be reached, so the UI can show something actionable.
const modelFallbackHint = "the analysis service is temporarily unavailable, please retry in a few minutes"

// imageExts are the accepted upload extensions.
var imageExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true}

// PredictionHandler serves the prediction ledger: recording new
// predictions from uploaded crop images, the owner's paginated
// history, the public filtered search and the verification workflow.
type PredictionHandler struct {
	Cfg         config.Config
	Predictions *repository.PredictionRepo
	Model       *gateway.ModelClient
}

func NewPredictionHandler(cfg config.Config, p *repository.PredictionRepo, m *gateway.ModelClient) *PredictionHandler {
	if p == nil || m == nil {
		panic("nil dependency passed to NewPredictionHandler")
	}
	return &PredictionHandler{Cfg: cfg, Predictions: p, Model: m}
}

// Predict handles POST /crops/predict. The route sits behind
// OptionalAuth: an authenticated request records the account as owner,
// an anonymous one records no owner. The uploaded image is stored
// under a uuid-based name, the model service is asked to classify it,
// and the outcome is appended to the ledger.
func (h *PredictionHandler) Predict(c echo.Context) error {
	file, err := c.FormFile("image")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "image file required"})
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !imageExts[ext] {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid image: jpg, jpeg or png expected"})
	}

	cropType := model.NormalizeCropType(c.FormValue("crop_type"))
	lat, lon, err := parseGeo(c.FormValue("latitude"), c.FormValue("longitude"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid latitude/longitude"})
	}
	var weather *string
	if w := strings.TrimSpace(c.FormValue("weather")); w != "" {
		if !json.Valid([]byte(w)) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "weather must be a JSON object"})
		}
		weather = &w
	}

	imageRef, err := h.saveUpload(file, ext)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to store image"})
	}

	result, err := h.Model.PredictDisease(c.Request().Context(), gateway.DiseaseRequest{
		ImageRef: imageRef,
		CropType: cropType,
	})
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{
			"error": "model service unavailable",
			"hint":  modelFallbackHint,
		})
	}

	// The ledger rejects out-of-range confidences; model output is
	// clamped at this boundary per the contract with the repository.
	confidence := clamp01(result.Confidence)

	var alternatives *string
	if len(result.Alternatives) > 0 {
		if b, err := json.Marshal(result.Alternatives); err == nil {
			s := string(b)
			alternatives = &s
		}
	}
	var treatments *string
	if len(result.Treatments) > 0 {
		if b, err := json.Marshal(result.Treatments); err == nil {
			s := string(b)
			treatments = &s
		}
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	rec := model.Prediction{
		UserID:           optionalUserID(c),
		ImageRef:         imageRef,
		OriginalFilename: file.Filename,
		Label:            result.Label,
		Confidence:       confidence,
		Alternatives:     alternatives,
		CropType:         cropType,
		Latitude:         lat,
		Longitude:        lon,
		Weather:          weather,
		Treatments:       treatments,
	}
	id, err := h.Predictions.Create(ctx, rec)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrAccountNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "account not found"})
		case errors.Is(err, repository.ErrInvalidConfidence):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "confidence out of range"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	// Broker publish is fire-and-forget; a broker outage must never
	// fail the request.
	event := queue.PredictionRecordedEvent{
		PredictionID: id,
		UserID:       rec.UserID,
		Label:        rec.Label,
		Confidence:   rec.Confidence,
		CropType:     rec.CropType,
		RecordedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	go func() {
		pubCtx, pubCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer pubCancel()
		if err := queuepublisher.PublishPredictionRecorded(pubCtx, event); err != nil {
			log.Printf("prediction event publish failed: %v", err)
		}
	}()

	rec.ID = id
	rec.CreatedAt = time.Now().UTC()
	return c.JSON(http.StatusCreated, echo.Map{"prediction": toPredictionResp(rec)})
}

// saveUpload copies the multipart file into the upload directory under
// a fresh uuid-based name and returns that name as the image reference.
func (h *PredictionHandler) saveUpload(file *multipart.FileHeader, ext string) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	if err := os.MkdirAll(h.Cfg.UploadDir, 0o755); err != nil {
		return "", err
	}
	ref := uuid.NewString() + ext
	dst, err := os.Create(filepath.Join(h.Cfg.UploadDir, ref))
	if err != nil {
		return "", err
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}
	return ref, nil
}

// ListOwn handles GET /user/predictions: the authenticated account's
// history, newest first, with pagination metadata.
func (h *PredictionHandler) ListOwn(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	page := queryInt(c, "page", 1)
	pageSize := queryInt(c, "page_size", 10)
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	records, total, err := h.Predictions.ListByOwner(ctx, userID, page, pageSize)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return c.JSON(http.StatusOK, echo.Map{
		"predictions": toPredictionResps(records),
		"pagination": echo.Map{
			"page":        page,
			"page_size":   pageSize,
			"total":       total,
			"total_pages": totalPages,
			"has_next":    page < totalPages,
			"has_prev":    page > 1,
		},
	})
}

// Search handles GET /predictions/search. Filters: label (substring,
// case-insensitive), crop_type, verified (true/false). All optional,
// combined with AND, result capped.
func (h *PredictionHandler) Search(c echo.Context) error {
	q := repository.PredictionSearchQuery{
		Label:    strings.TrimSpace(c.QueryParam("label")),
		CropType: strings.TrimSpace(c.QueryParam("crop_type")),
	}
	if v := c.QueryParam("verified"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "verified must be true or false"})
		}
		q.Verified = &b
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	records, err := h.Predictions.Search(ctx, q)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"predictions": toPredictionResps(records)})
}

type verifyReq struct {
	Verifier string `json:"verifier"`
}

// Verify handles POST /predictions/:id/verify. Repeated verification
// overwrites the verifier, last write wins.
func (h *PredictionHandler) Verify(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid prediction id"})
	}
	var req verifyReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Verifier = strings.TrimSpace(req.Verifier)
	if req.Verifier == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "verifier required"})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	if err := h.Predictions.Verify(ctx, id, req.Verifier); err != nil {
		if errors.Is(err, repository.ErrPredictionNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "prediction not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "prediction verified"})
}

// Recommend handles POST /crops/recommend: numeric soil and climate
// features are forwarded to the model service's crop recommendation
// endpoint. Nothing is persisted.
func (h *PredictionHandler) Recommend(c echo.Context) error {
	var req struct {
		N           *float64 `json:"N"`
		P           *float64 `json:"P"`
		K           *float64 `json:"K"`
		Temperature *float64 `json:"temperature"`
		Humidity    *float64 `json:"humidity"`
		PH          *float64 `json:"ph"`
		Rainfall    *float64 `json:"rainfall"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.N == nil || req.P == nil || req.K == nil || req.Temperature == nil ||
		req.Humidity == nil || req.PH == nil || req.Rainfall == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "N, P, K, temperature, humidity, ph and rainfall are required"})
	}

	result, err := h.Model.RecommendCrop(c.Request().Context(), gateway.SoilFeatures{
		N: *req.N, P: *req.P, K: *req.K,
		Temperature: *req.Temperature, Humidity: *req.Humidity,
		PH: *req.PH, Rainfall: *req.Rainfall,
	})
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{
			"error": "model service unavailable",
			"hint":  modelFallbackHint,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"recommendation": result})
}

// Forecast handles POST /crops/forecast: market demand for one crop in
// one region and month, straight from the model service. Nothing is
// persisted.
func (h *PredictionHandler) Forecast(c echo.Context) error {
	var req struct {
		Year   *int   `json:"year"`
		Month  *int   `json:"month"`
		Region string `json:"region"`
		Crop   string `json:"crop"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Year == nil || req.Month == nil ||
		strings.TrimSpace(req.Region) == "" || strings.TrimSpace(req.Crop) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "year, month, region and crop are required"})
	}
	if *req.Month < 1 || *req.Month > 12 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "month must be between 1 and 12"})
	}

	result, err := h.Model.ForecastDemand(c.Request().Context(), gateway.DemandQuery{
		Year: *req.Year, Month: *req.Month,
		Region: strings.TrimSpace(req.Region),
		Crop:   strings.TrimSpace(req.Crop),
	})
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{
			"error": "model service unavailable",
			"hint":  modelFallbackHint,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"forecast": result})
}

// Rotate handles POST /crops/rotate: a ranked list of follow-up crops
// for the described field conditions.
func (h *PredictionHandler) Rotate(c echo.Context) error {
	var req struct {
		CurrentCrop string   `json:"current_crop"`
		SoilType    string   `json:"soil_type"`
		Temperature *float64 `json:"temperature"`
		Humidity    *float64 `json:"humidity"`
		Moisture    *float64 `json:"moisture"`
		Nitrogen    *float64 `json:"nitrogen"`
		Phosphorous *float64 `json:"phosphorous"`
		Potassium   *float64 `json:"potassium"`
		TopK        int      `json:"top_k"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.CurrentCrop) == "" || strings.TrimSpace(req.SoilType) == "" ||
		req.Temperature == nil || req.Humidity == nil || req.Moisture == nil ||
		req.Nitrogen == nil || req.Phosphorous == nil || req.Potassium == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "current_crop, soil_type, temperature, humidity, moisture, nitrogen, phosphorous and potassium are required"})
	}

	result, err := h.Model.RotateCrops(c.Request().Context(), gateway.RotationConditions{
		CurrentCrop: strings.TrimSpace(req.CurrentCrop),
		SoilType:    strings.TrimSpace(req.SoilType),
		Temperature: *req.Temperature, Humidity: *req.Humidity, Moisture: *req.Moisture,
		Nitrogen: *req.Nitrogen, Phosphorous: *req.Phosphorous, Potassium: *req.Potassium,
		TopK: req.TopK,
	})
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{
			"error": "model service unavailable",
			"hint":  modelFallbackHint,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"rotation": result})
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func parseGeo(latStr, lonStr string) (*float64, *float64, error) {
	if latStr == "" && lonStr == "" {
		return nil, nil, nil
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return nil, nil, err
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return nil, nil, err
	}
	return &lat, &lon, nil
}

func queryInt(c echo.Context, name string, def int) int {
	v := c.QueryParam(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
