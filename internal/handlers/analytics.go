package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kylemck03/PANW-take-home/backend/internal/apierror"
	"github.com/kylemck03/PANW-take-home/backend/internal/service"
)

// Query bounds for the days parameter
const (
	DefaultAnalysisDays = 90
	MinAnalysisDays     = 7
	MaxAnalysisDays     = 365

	DefaultSummaryDays = 7
	MaxSummaryDays     = 30
)

// DayBounds is the accepted range and default of the days query parameter
type DayBounds struct {
	Default int
	Min     int
	Max     int
}

type AnalyticsHandler struct {
	analysisService service.AnalysisService
	bounds          DayBounds
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(analysisService service.AnalysisService) *AnalyticsHandler {
	return &AnalyticsHandler{
		analysisService: analysisService,
		bounds:          DayBounds{Default: DefaultAnalysisDays, Min: MinAnalysisDays, Max: MaxAnalysisDays},
	}
}

// WithBounds overrides the analysis window bounds. Invalid bounds are ignored.
func (h *AnalyticsHandler) WithBounds(b DayBounds) *AnalyticsHandler {
	if b.Min >= 1 && b.Min <= b.Default && b.Default <= b.Max {
		h.bounds = b
	}
	return h
}

// Register mounts the analytics routes on rg
func (h *AnalyticsHandler) Register(rg *gin.RouterGroup, analyze ...gin.HandlerFunc) {
	g := rg.Group("/analytics/:user_id")
	g.POST("/analyze", append(analyze, h.RunAnalysis)...)
	g.GET("/correlations", h.GetCorrelations)
	g.GET("/anomalies", h.GetAnomalies)
	g.GET("/trends", h.GetTrends)
	g.GET("/patterns", h.GetPatterns)
	g.GET("/summary", h.GetSummary)
	g.GET("/baselines", h.GetBaselines)
}

// RunAnalysis handles POST /api/analytics/:user_id/analyze
func (h *AnalyticsHandler) RunAnalysis(c *gin.Context) {
	userID := c.Param("user_id")
	days, ok := queryDays(c, h.bounds.Default, h.bounds.Min, h.bounds.Max)
	if !ok {
		return
	}

	bundle, err := h.analysisService.RunFullAnalysis(c.Request.Context(), userID, days)
	if err != nil {
		writeServiceError(c, err, "Health data", userID)
		return
	}

	c.JSON(http.StatusOK, bundle)
}

// GetCorrelations handles GET /api/analytics/:user_id/correlations
func (h *AnalyticsHandler) GetCorrelations(c *gin.Context) {
	userID := c.Param("user_id")
	days, ok := queryDays(c, h.bounds.Default, h.bounds.Min, h.bounds.Max)
	if !ok {
		return
	}

	correlations, err := h.analysisService.GetCorrelations(c.Request.Context(), userID, days)
	if err != nil {
		writeServiceError(c, err, "Health data", userID)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":      userID,
		"days":         days,
		"count":        len(correlations),
		"correlations": correlations,
	})
}

// GetAnomalies handles GET /api/analytics/:user_id/anomalies
func (h *AnalyticsHandler) GetAnomalies(c *gin.Context) {
	userID := c.Param("user_id")
	days, ok := queryDays(c, h.bounds.Default, h.bounds.Min, h.bounds.Max)
	if !ok {
		return
	}

	report, err := h.analysisService.GetAnomalies(c.Request.Context(), userID, days)
	if err != nil {
		writeServiceError(c, err, "Health data", userID)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":   userID,
		"days":      days,
		"count":     len(report.Anomalies),
		"anomalies": report.Anomalies,
		"baselines": report.Baselines,
	})
}

// GetTrends handles GET /api/analytics/:user_id/trends
func (h *AnalyticsHandler) GetTrends(c *gin.Context) {
	userID := c.Param("user_id")
	days, ok := queryDays(c, h.bounds.Default, h.bounds.Min, h.bounds.Max)
	if !ok {
		return
	}

	trends, err := h.analysisService.GetTrends(c.Request.Context(), userID, days)
	if err != nil {
		writeServiceError(c, err, "Health data", userID)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id": userID,
		"days":    days,
		"count":   len(trends),
		"trends":  trends,
	})
}

// GetPatterns handles GET /api/analytics/:user_id/patterns
func (h *AnalyticsHandler) GetPatterns(c *gin.Context) {
	userID := c.Param("user_id")
	days, ok := queryDays(c, h.bounds.Default, h.bounds.Min, h.bounds.Max)
	if !ok {
		return
	}

	patterns, err := h.analysisService.GetPatterns(c.Request.Context(), userID, days)
	if err != nil {
		writeServiceError(c, err, "Health data", userID)
		return
	}

	detected := 0
	for _, p := range patterns {
		if p.Detected {
			detected++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":  userID,
		"days":     days,
		"count":    len(patterns),
		"detected": detected,
		"patterns": patterns,
	})
}

// GetSummary handles GET /api/analytics/:user_id/summary
func (h *AnalyticsHandler) GetSummary(c *gin.Context) {
	userID := c.Param("user_id")
	days, ok := queryDays(c, DefaultSummaryDays, 1, MaxSummaryDays)
	if !ok {
		return
	}

	summary, err := h.analysisService.GetHealthSummary(c.Request.Context(), userID, days)
	if err != nil {
		writeServiceError(c, err, "Health data", userID)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":    userID,
		"days":       summary.Days,
		"date_range": summary.DateRange,
		"metrics":    summary.Metrics,
	})
}

// GetBaselines handles GET /api/analytics/:user_id/baselines
func (h *AnalyticsHandler) GetBaselines(c *gin.Context) {
	userID := c.Param("user_id")

	baselines, err := h.analysisService.GetBaselines(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrBaselinesNotFound) {
			problem := apierror.NewNotFoundError(apierror.GetRequestID(c), "Baselines", userID)
			problem.UserMessage = "Baselines not yet calculated. Run a full analysis first."
			apierror.WriteProblem(c, problem)
			return
		}
		writeServiceError(c, err, "Baselines", userID)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":   userID,
		"baselines": baselines,
	})
}
