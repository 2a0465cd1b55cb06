package handlers

import (
	"errors"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Brownie44l1/digit-api/internal/model"
	"github.com/Brownie44l1/digit-api/internal/preprocess"
	"github.com/Brownie44l1/digit-api/internal/raster"
)

type Handler struct {
	classifier     *model.Classifier
	preprocessor   *preprocess.Preprocessor
	maxUploadBytes int64
}

func NewHandler(classifier *model.Classifier, preprocessor *preprocess.Preprocessor, maxUploadBytes int64) *Handler {
	return &Handler{
		classifier:     classifier,
		preprocessor:   preprocessor,
		maxUploadBytes: maxUploadBytes,
	}
}

// VectorResponse is returned by the preprocess-only endpoint.
type VectorResponse struct {
	Vector preprocess.FeatureVector `json:"vector"`
}

func (h *Handler) Health(c *gin.Context) {
	state := "ready"
	if !h.classifier.Available() {
		state = "unavailable"
	}
	cfg := h.preprocessor.Config()
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"model":    state,
		"backend":  h.classifier.Backend(),
		"polarity": cfg.Polarity,
		"filter":   cfg.Filter,
	})
}

// Predict classifies an already preprocessed 784-length vector.
func (h *Handler) Predict(c *gin.Context) {
	var req model.PredictionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON", "message": err.Error()})
		return
	}
	h.classify(c, req.Image)
}

// PredictCanvas classifies a raw canvas raster.
func (h *Handler) PredictCanvas(c *gin.Context) {
	vec, ok := h.bindCanvas(c)
	if !ok {
		return
	}
	h.classify(c, vec)
}

// Preprocess returns the feature vector for a raw canvas raster without
// running the model.
func (h *Handler) Preprocess(c *gin.Context) {
	vec, ok := h.bindCanvas(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, VectorResponse{Vector: vec})
}

// PredictFromImage classifies an uploaded PNG or JPEG.
func (h *Handler) PredictFromImage(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)

	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No image file provided. Use 'image' as the form field name", "message": err.Error()})
		return
	}

	f, err := file.Open()
	if err != nil {
		log.Err(err).Msg("open form file")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to open form file", "message": err.Error()})
		return
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid image format. Supported: JPEG, PNG", "message": err.Error()})
		return
	}

	log.Debug().
		Str("request_id", requestID(c)).
		Str("file", file.Filename).
		Str("format", format).
		Int("width", img.Bounds().Dx()).
		Int("height", img.Bounds().Dy()).
		Msg("decoded upload")

	rst, err := raster.FromImage(img)
	if err != nil {
		h.fail(c, err)
		return
	}
	vec, err := h.preprocessor.Process(rst)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.classify(c, vec)
}

func (h *Handler) bindCanvas(c *gin.Context) (preprocess.FeatureVector, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)

	var rst raster.Image
	if err := c.ShouldBindJSON(&rst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Request too large", "message": err.Error()})
			return nil, false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON", "message": err.Error()})
		return nil, false
	}
	vec, err := h.preprocessor.Process(&rst)
	if err != nil {
		h.fail(c, err)
		return nil, false
	}
	return vec, true
}

func (h *Handler) classify(c *gin.Context, vec preprocess.FeatureVector) {
	result, err := h.classifier.Predict(vec)
	if err != nil {
		h.fail(c, err)
		return
	}
	log.Info().
		Str("request_id", requestID(c)).
		Int("label", result.Label).
		Float32("confidence", result.Confidence).
		Msg("prediction")
	c.JSON(http.StatusOK, result)
}

// fail maps pipeline errors onto HTTP states. A missing model is reported as
// its own state so clients never mistake it for label 0.
func (h *Handler) fail(c *gin.Context, err error) {
	var (
		invalid     *raster.InvalidRasterError
		shape       *model.ShapeMismatchError
		unavailable *model.ModelUnavailableError
	)
	switch {
	case errors.As(err, &invalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid raster", "message": err.Error()})
	case errors.As(err, &shape):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Shape mismatch", "message": err.Error()})
	case errors.As(err, &unavailable):
		log.Warn().Err(err).Str("request_id", requestID(c)).Msg("model unavailable")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no prediction available", "message": err.Error()})
	default:
		log.Err(err).Str("request_id", requestID(c)).Msg("prediction failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Prediction failed", "message": err.Error()})
	}
}
