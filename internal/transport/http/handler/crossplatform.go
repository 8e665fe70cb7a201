package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"intelidoc/internal/app"
	"intelidoc/internal/transport/http/response"
)

type CrossPlatformHandler struct {
	reportService *app.ReportService
}

func NewCrossPlatformHandler(reportService *app.ReportService) *CrossPlatformHandler {
	return &CrossPlatformHandler{reportService: reportService}
}

func (h *CrossPlatformHandler) Monitor(c *gin.Context) {
	report, err := h.reportService.Monitor(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "cross-platform monitoring failed")
		return
	}
	response.OK(c, report)
}

func (h *CrossPlatformHandler) GRCValidation(c *gin.Context) {
	discrepancies, err := h.reportService.Validate(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "grc validation failed")
		return
	}
	response.OK(c, gin.H{
		"discrepancies_found": len(discrepancies),
		"discrepancies":       discrepancies,
	})
}

func (h *CrossPlatformHandler) IntelligenceReport(c *gin.Context) {
	summary, err := h.reportService.Intelligence(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "intelligence report failed")
		return
	}
	response.OK(c, summary)
}

func (h *CrossPlatformHandler) ActivityFeed(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	feed, err := h.reportService.ActivityFeed(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "activity feed failed")
		return
	}
	response.OK(c, gin.H{"activities": feed})
}
