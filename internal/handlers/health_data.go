package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kylemck03/PANW-take-home/backend/internal/apierror"
	"github.com/kylemck03/PANW-take-home/backend/internal/models"
	"github.com/kylemck03/PANW-take-home/backend/internal/service"
)

// MaxBatchSize caps the records accepted by one batch-sync request
const MaxBatchSize = 400

type HealthDataHandler struct {
	healthDataService service.HealthDataService
}

// NewHealthDataHandler creates a new health data handler
func NewHealthDataHandler(healthDataService service.HealthDataService) *HealthDataHandler {
	return &HealthDataHandler{
		healthDataService: healthDataService,
	}
}

// Register mounts the health data routes on rg
func (h *HealthDataHandler) Register(rg *gin.RouterGroup) {
	g := rg.Group("/health-data/:user_id")
	g.POST("/sync", h.Sync)
	g.POST("/batch-sync", h.BatchSync)
	g.GET("", h.GetHistory)
	g.DELETE("/date/:date", h.Delete)
}

// Sync handles POST /api/health-data/:user_id/sync
func (h *HealthDataHandler) Sync(c *gin.Context) {
	userID := c.Param("user_id")

	var req models.HealthDataSync
	if err := c.ShouldBindJSON(&req); err != nil {
		requestID := apierror.GetRequestID(c)
		apierror.WriteProblem(c, apierror.NewBadRequestError(requestID, err.Error(), "Invalid JSON format"))
		return
	}

	if err := h.healthDataService.Sync(c.Request.Context(), userID, req); err != nil {
		writeServiceError(c, err, "Health data", req.Date)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"user_id": userID,
		"date":    req.Date,
		"success": true,
		"message": "Health data synced successfully",
	})
}

// BatchSync handles POST /api/health-data/:user_id/batch-sync.
// The body is a JSON array of sync records.
func (h *HealthDataHandler) BatchSync(c *gin.Context) {
	userID := c.Param("user_id")

	var records []models.HealthDataSync
	if err := c.ShouldBindJSON(&records); err != nil {
		requestID := apierror.GetRequestID(c)
		apierror.WriteProblem(c, apierror.NewBadRequestError(requestID, err.Error(), "Invalid JSON format"))
		return
	}

	if len(records) == 0 || len(records) > MaxBatchSize {
		apierror.WriteProblem(c, apierror.NewRangeError(apierror.GetRequestID(c), "records", 1, MaxBatchSize))
		return
	}

	synced, err := h.healthDataService.BatchSync(c.Request.Context(), userID, records)
	if err != nil {
		writeServiceError(c, err, "Health data", userID)
		return
	}

	start, end := records[0].Date, records[0].Date
	for _, rec := range records[1:] {
		if rec.Date < start {
			start = rec.Date
		}
		if rec.Date > end {
			end = rec.Date
		}
	}

	c.JSON(http.StatusCreated, gin.H{
		"user_id":      userID,
		"synced_count": synced,
		"date_range":   models.DateRange{Start: start, End: end},
	})
}

// GetHistory handles GET /api/health-data/:user_id
func (h *HealthDataHandler) GetHistory(c *gin.Context) {
	userID := c.Param("user_id")
	days, ok := queryDays(c, DefaultAnalysisDays, 1, MaxAnalysisDays)
	if !ok {
		return
	}

	ds, err := h.healthDataService.GetHistory(c.Request.Context(), userID, days)
	if err != nil {
		writeServiceError(c, err, "Health data", userID)
		return
	}

	data := make([]map[string]interface{}, 0, ds.Len())
	for _, row := range ds.Rows {
		record := make(map[string]interface{}, len(row.Values)+1)
		for metric, v := range row.Values {
			record[metric] = v
		}
		record["date"] = row.DateKey()
		data = append(data, record)
	}

	resp := gin.H{
		"user_id": userID,
		"count":   len(data),
		"data":    data,
	}
	if ds.Len() > 0 {
		resp["date_range"] = models.DateRange{
			Start: ds.Start().Format(models.DateLayout),
			End:   ds.End().Format(models.DateLayout),
		}
	}

	c.JSON(http.StatusOK, resp)
}

// Delete handles DELETE /api/health-data/:user_id/date/:date
func (h *HealthDataHandler) Delete(c *gin.Context) {
	userID := c.Param("user_id")
	date := c.Param("date")

	if err := h.healthDataService.Delete(c.Request.Context(), userID, date); err != nil {
		writeServiceError(c, err, "Health data", date)
		return
	}

	c.Status(http.StatusNoContent)
}
