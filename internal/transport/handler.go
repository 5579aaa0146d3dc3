package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"go-tamper-inspector/internal/config"
	apperrors "go-tamper-inspector/internal/errors"
	"go-tamper-inspector/internal/logger"
	"go-tamper-inspector/internal/report"
	"go-tamper-inspector/internal/service"
	"go-tamper-inspector/pkg/models"
)

const version = "1.0.0"

// MetricsProvider exposes runtime counters for /metrics
type MetricsProvider interface {
	GetMetrics() map[string]interface{}
}

func NewHandler(svc service.VerificationService, metrics MetricsProvider, cfg *config.Config) http.Handler {
	r := gin.Default()

	// Add middleware
	r.Use(
		requestSizeLimiter(cfg.MaxRequestBodySize),
		errorHandler(),
	)

	// Configure routes
	r.GET("/health", healthCheck)
	r.POST("/verify", verifyReference(svc, cfg))
	r.POST("/verify/upload", verifyUpload(svc, cfg))
	r.GET("/reports", listReports(svc))
	r.GET("/reports/:id", getReport(svc))
	r.GET("/reports/:id/pdf", getReportPDF(svc))
	r.GET("/metrics", metricsHandler(metrics))

	return r
}

func verifyReference(svc service.VerificationService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		logRequest(c, "Processing verification request")

		var req models.VerifyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, requestErrorStatus(err), "invalid request format", err)
			return
		}

		rep, err := svc.VerifyReference(ctx, req)
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "verification failed", err)
			return
		}

		logCompletion(rep, startTime)
		c.JSON(http.StatusOK, rep)
	}
}

func verifyUpload(svc service.VerificationService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		logRequest(c, "Processing upload verification request")

		fileHeader, err := c.FormFile("file")
		if err != nil {
			respondError(c, requestErrorStatus(err), "multipart field \"file\" is required", err)
			return
		}

		if fileHeader.Size > cfg.MaxImageBytes {
			err := apperrors.NewValidationError(fmt.Sprintf("image exceeds %d bytes", cfg.MaxImageBytes), nil)
			respondError(c, http.StatusRequestEntityTooLarge, "upload rejected", err)
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			respondError(c, http.StatusBadRequest, "failed to read upload", err)
			return
		}
		defer file.Close()

		data, err := io.ReadAll(io.LimitReader(file, cfg.MaxImageBytes+1))
		if err != nil {
			respondError(c, http.StatusBadRequest, "failed to read upload", err)
			return
		}
		if int64(len(data)) > cfg.MaxImageBytes {
			err := apperrors.NewValidationError(fmt.Sprintf("image exceeds %d bytes", cfg.MaxImageBytes), nil)
			respondError(c, http.StatusRequestEntityTooLarge, "upload rejected", err)
			return
		}

		skipOCR := false
		if raw := c.PostForm("skip_ocr"); raw != "" {
			skipOCR, err = strconv.ParseBool(raw)
			if err != nil {
				respondError(c, http.StatusBadRequest, "invalid skip_ocr value", err)
				return
			}
		}

		rep, err := svc.VerifyUpload(ctx, models.UploadRequest{
			Data:         data,
			Filename:     fileHeader.Filename,
			ContentType:  fileHeader.Header.Get("Content-Type"),
			OCRText:      c.PostForm("ocr_text"),
			ExpectedText: c.PostForm("expected_text"),
			SkipOCR:      skipOCR,
		})
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "verification failed", err)
			return
		}

		logCompletion(rep, startTime)
		c.JSON(http.StatusOK, rep)
	}
}

func listReports(svc service.VerificationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		summaries, err := svc.ListReports(c.Request.Context())
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "failed to list reports", err)
			return
		}
		c.JSON(http.StatusOK, models.ReportListResponse{Reports: summaries, Count: len(summaries)})
	}
}

func getReport(svc service.VerificationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		rep, err := svc.GetReport(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "failed to load report", err)
			return
		}
		c.JSON(http.StatusOK, rep)
	}
}

func getReportPDF(svc service.VerificationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")

		// Render fully before writing so failures still get a JSON error
		var buf bytes.Buffer
		if err := svc.RenderReportPDF(c.Request.Context(), id, &buf); err != nil {
			respondError(c, apperrors.GetStatusCode(err), "failed to render report", err)
			return
		}

		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.Filename(id)))
		c.Data(http.StatusOK, "application/pdf", buf.Bytes())
	}
}

func metricsHandler(metrics MetricsProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metrics == nil {
			c.JSON(http.StatusOK, gin.H{})
			return
		}
		c.JSON(http.StatusOK, metrics.GetMetrics())
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "available",
		"version": version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

func logRequest(c *gin.Context, msg string) {
	logger.WithFields(logrus.Fields{
		"method":     c.Request.Method,
		"path":       c.Request.URL.Path,
		"user_agent": c.Request.UserAgent(),
		"ip":         c.ClientIP(),
	}).Info(msg)
}

func logCompletion(rep *models.Report, startTime time.Time) {
	logger.WithFields(logrus.Fields{
		"report_id":          rep.ID,
		"source":             rep.Source,
		"processing_time_ms": time.Since(startTime).Milliseconds(),
		"is_tampered":        rep.Verification.IsTampered,
		"confidence":         rep.Verification.Confidence,
	}).Info("Verification completed successfully")
}

// Middleware and helper functions
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
	// Check if it's a custom app error first
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	// Fallback to context-based errors
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// requestErrorStatus maps body parsing failures; an oversized body is 413
func requestErrorStatus(err error) int {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
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
