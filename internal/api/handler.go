package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kurihiro0119/issue-delivery-scorecard/internal/classifier"
	"github.com/kurihiro0119/issue-delivery-scorecard/internal/domain"
	apperrors "github.com/kurihiro0119/issue-delivery-scorecard/internal/errors"
	"github.com/kurihiro0119/issue-delivery-scorecard/internal/pipeline"
)

// RecordLoader supplies the records every request is computed from
type RecordLoader interface {
	LoadRecords(ctx context.Context) ([]domain.Record, error)
}

// Processor runs the scorecard pipeline
type Processor interface {
	Process(ctx context.Context, records []domain.Record) (*pipeline.Result, error)
}

// Handler handles API requests
type Handler struct {
	loader    RecordLoader
	processor Processor
}

// NewHandler creates a new API handler
func NewHandler(loader RecordLoader, processor Processor) *Handler {
	return &Handler{
		loader:    loader,
		processor: processor,
	}
}

// process loads the current extract and runs the pipeline on it. On
// failure the error response has already been written.
func (h *Handler) process(c *gin.Context) (*pipeline.Result, bool) {
	records, err := h.loader.LoadRecords(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return nil, false
	}

	res, err := h.processor.Process(c.Request.Context(), records)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return res, true
}

// GetScorecard returns the ranked product scorecard
// GET /api/v1/scorecard
func (h *Handler) GetScorecard(c *gin.Context) {
	res, ok := h.process(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": res.Scorecards,
		"run":  res.Run,
	})
}

// GetScorecardSummary returns the spread of on-time rates
// GET /api/v1/scorecard/summary
func (h *Handler) GetScorecardSummary(c *gin.Context) {
	res, ok := h.process(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": res.Summary,
	})
}

// GetRemovalReport returns the exclusion counts
// GET /api/v1/removal-report
func (h *Handler) GetRemovalReport(c *gin.Context) {
	res, ok := h.process(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": res.RemovalReport,
	})
}

// GetRecords returns the classified records, optionally filtered
// GET /api/v1/records?status=overdue&product=alpha&excluded=false
func (h *Handler) GetRecords(c *gin.Context) {
	var status domain.DeliveryStatus
	if label := c.Query("status"); label != "" {
		status = domain.ParseDeliveryStatus(label)
		if status == domain.StatusUnknown {
			respondError(c, apperrors.NewBadRequestError("unknown status "+strconv.Quote(label)))
			return
		}
	}

	var excluded *bool
	if raw := c.Query("excluded"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(c, apperrors.NewBadRequestError("excluded must be true or false"))
			return
		}
		excluded = &b
	}
	product := c.Query("product")

	res, ok := h.process(c)
	if !ok {
		return
	}

	candidates := res.Records
	if excluded != nil && !*excluded {
		candidates = classifier.Retained(candidates)
	}

	records := make([]domain.Record, 0, len(candidates))
	for _, r := range candidates {
		if status != domain.StatusUnknown && r.DeliveryStatus != status {
			continue
		}
		if product != "" && r.Product != product {
			continue
		}
		if excluded != nil && *excluded && !r.IsExcluded() {
			continue
		}
		records = append(records, r)
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  records,
		"count": len(records),
	})
}

// HealthCheck handles health check requests
// GET /health
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// respondError sends an error response
func respondError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		switch appErr.Code {
		case apperrors.ErrCodeNotFound:
			status = http.StatusNotFound
		case apperrors.ErrCodeBadRequest:
			status = http.StatusBadRequest
		case apperrors.ErrCodeInvalidInput:
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, gin.H{
			"error": gin.H{
				"code":    appErr.Code,
				"message": appErr.Message,
			},
		})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{
		"error": gin.H{
			"code":    apperrors.ErrCodeInternal,
			"message": err.Error(),
		},
	})
}
