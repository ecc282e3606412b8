package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"go-photo-qc/internal/config"
	apperrors "go-photo-qc/internal/errors"
	"go-photo-qc/internal/logger"
	"go-photo-qc/internal/observer"
	"go-photo-qc/internal/service"
	"go-photo-qc/pkg/models"
	"go-photo-qc/pkg/validation"
)

// maxBatchSize bounds POST /analyze/batch
const maxBatchSize = 32

// AnalyzeResponse is a report plus its interpretation
type AnalyzeResponse struct {
	Report  *models.Report      `json:"report"`
	Verdict *validation.Verdict `json:"verdict"`
}

// BatchRequest scores several images in one call
type BatchRequest struct {
	Requests []models.AnalyzeRequest `json:"requests" binding:"required,min=1"`
}

// BatchItem is one entry of a batch response
type BatchItem struct {
	Source string `json:"source"`
	*AnalyzeResponse
	Error *models.ErrorResponse `json:"error,omitempty"`
}

// Dependencies groups what the HTTP layer needs
type Dependencies struct {
	Service   service.ImageAnalysisService
	Quality   *validation.QualityValidator
	URLs      *validation.URLValidator
	Counters  *observer.MetricsObserver
	Config    *config.Config
	StartedAt time.Time
}

func NewHandler(deps Dependencies) http.Handler {
	if deps.Quality == nil {
		deps.Quality = validation.NewQualityValidator()
	}
	if deps.URLs == nil {
		deps.URLs = validation.NewURLValidator()
	}
	if deps.StartedAt.IsZero() {
		deps.StartedAt = time.Now()
	}

	r := gin.New()

	// Add middleware
	r.Use(
		gin.Recovery(),
		requestLogger(),
		requestSizeLimiter(deps.Config.MaxRequestBodySize),
		errorHandler(),
	)

	// Configure routes
	r.GET("/health", healthCheck(deps))
	r.GET("/metrics", listMetrics(deps))
	r.GET("/stats", stats(deps))
	r.POST("/analyze", analyzeImage(deps))
	r.POST("/analyze/batch", analyzeBatch(deps))

	return r
}

func analyzeImage(deps Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), deps.Config.RequestTimeout)
		defer cancel()

		var req models.AnalyzeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "invalid request format", err)
			return
		}
		if err := validateLocations(deps.URLs, req); err != nil {
			respondError(c, apperrors.GetStatusCode(err), "invalid image location", err)
			return
		}

		resp, err := analyze(ctx, deps, req)
		if err != nil {
			respondError(c, determineStatusCode(err), "analysis failed", err)
			return
		}

		logger.WithFields(logrus.Fields{
			"source":             req.Source,
			"report_id":          resp.Report.ID,
			"processing_time_ms": int64(resp.Report.ProcessingTimeSec * 1000),
			"failed_metrics":     len(resp.Report.Failed()),
			"passed":             resp.Verdict.Passed,
		}).Info("Image analysis completed successfully")

		c.JSON(http.StatusOK, resp)
	}
}

func analyzeBatch(deps Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), deps.Config.RequestTimeout)
		defer cancel()

		var req BatchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "invalid request format", err)
			return
		}
		if len(req.Requests) > maxBatchSize {
			err := apperrors.NewValidationError(fmt.Sprintf("at most %d images per batch", maxBatchSize), nil)
			respondError(c, err.StatusCode, "batch too large", err)
			return
		}
		for _, r := range req.Requests {
			if err := validateLocations(deps.URLs, r); err != nil {
				respondError(c, apperrors.GetStatusCode(err), "invalid image location", err)
				return
			}
		}

		results, err := deps.Service.AnalyzeBatch(ctx, req.Requests)
		if err != nil {
			respondError(c, determineStatusCode(err), "batch interrupted", err)
			return
		}

		items := make([]BatchItem, len(results))
		for i, res := range results {
			items[i].Source = res.Request.Source
			if res.Err != nil {
				code := determineStatusCode(res.Err)
				items[i].Error = &models.ErrorResponse{Error: http.StatusText(code), Message: res.Err.Error()}
				continue
			}
			verdict := deps.Quality.Evaluate(*res.Report)
			items[i].AnalyzeResponse = &AnalyzeResponse{Report: res.Report, Verdict: &verdict}
		}
		c.JSON(http.StatusOK, gin.H{"results": items})
	}
}

func analyze(ctx context.Context, deps Dependencies, req models.AnalyzeRequest) (*AnalyzeResponse, error) {
	report, err := deps.Service.Analyze(ctx, req)
	if err != nil {
		return nil, err
	}
	verdict := deps.Quality.Evaluate(*report)
	return &AnalyzeResponse{Report: report, Verdict: &verdict}, nil
}

func validateLocations(v *validation.URLValidator, req models.AnalyzeRequest) error {
	if err := v.ValidateImageURL(req.Source); err != nil {
		return err
	}
	if req.Reference != "" {
		return v.ValidateImageURL(req.Reference)
	}
	return nil
}

func listMetrics(deps Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"metrics":  deps.Service.Metrics(),
			"profiles": deps.Service.Profiles(),
		})
	}
}

func stats(deps Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		if deps.Counters == nil {
			c.JSON(http.StatusOK, observer.Snapshot{MetricFailures: map[string]int64{}})
			return
		}
		c.JSON(http.StatusOK, deps.Counters.GetMetrics())
	}
}

func healthCheck(deps Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":     "available",
			"version":    "1.0.0",
			"metrics":    len(deps.Service.Metrics()),
			"uptime_sec": int64(time.Since(deps.StartedAt).Seconds()),
			"time":       time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// Middleware and helper functions
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.WithFields(logrus.Fields{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
			"ip":          c.ClientIP(),
		}).Debug("Request handled")
	}
}

func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			err := c.Errors.Last()
			respondError(c, determineStatusCode(err.Err), "request processing failed", err.Err)
		}
	}
}

func determineStatusCode(err error) int {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	// Fallback to context-based errors
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, code int, message string, err error) {
	// Log the error with context
	logger.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"message":     message,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	}).Error("Request failed")

	c.AbortWithStatusJSON(code, models.ErrorResponse{
		Error:   http.StatusText(code),
		Message: fmt.Sprintf("%s: %v", message, err),
	})
}
