package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"intelidoc/internal/app"
	"intelidoc/internal/transport/http/response"
)

type AIHandler struct {
	summaryService *app.SummaryService
	insightService *app.InsightService
}

func NewAIHandler(summaryService *app.SummaryService, insightService *app.InsightService) *AIHandler {
	return &AIHandler{
		summaryService: summaryService,
		insightService: insightService,
	}
}

type SummarizeRequest struct {
	Text     string `json:"text" binding:"required"`
	MaxWords int    `json:"max_words"`
}

func (h *AIHandler) Summarize(c *gin.Context) {
	var req SummarizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	summary, err := h.summaryService.Summarize(c.Request.Context(), app.SummarizeInput{
		Text:     req.Text,
		MaxWords: req.MaxWords,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "text is empty")
		default:
			response.Error(c, http.StatusServiceUnavailable, response.CodeLLMUnavailable, "summarization model unavailable")
		}
		return
	}
	response.OK(c, summary)
}

func (h *AIHandler) GapAnalysis(c *gin.Context) {
	analysis, err := h.insightService.GapAnalysis()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "gap analysis failed")
		return
	}
	response.OK(c, analysis)
}

func (h *AIHandler) MappingSummary(c *gin.Context) {
	summary, err := h.insightService.MappingSummary()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "mapping summary failed")
		return
	}
	response.OK(c, summary)
}
