package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"intelidoc/internal/app"
	"intelidoc/internal/repository"
	"intelidoc/internal/transport/http/response"
)

type ObligationHandler struct {
	obligationService *app.ObligationService
}

func NewObligationHandler(obligationService *app.ObligationService) *ObligationHandler {
	return &ObligationHandler{obligationService: obligationService}
}

func (h *ObligationHandler) List(c *gin.Context) {
	documentID, _ := strconv.ParseUint(c.Query("document_id"), 10, 64)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	obligations, err := h.obligationService.List(repository.ListFilter{
		DocumentID: uint(documentID),
		Category:   c.Query("category"),
		Priority:   c.Query("priority"),
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "unknown category or priority filter")
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list obligations failed")
		}
		return
	}
	response.OK(c, obligations)
}

func (h *ObligationHandler) Get(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil || id == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid obligation id")
		return
	}

	ob, err := h.obligationService.Get(id)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrNotFound):
			response.Error(c, http.StatusNotFound, response.CodeNotFound, "obligation not found")
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "get obligation failed")
		}
		return
	}
	response.OK(c, ob)
}

type UpdateObligationRequest struct {
	Text     *string `json:"text"`
	Category *string `json:"category"`
	Priority *string `json:"priority"`
}

func (h *ObligationHandler) Update(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil || id == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid obligation id")
		return
	}

	var req UpdateObligationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	ob, err := h.obligationService.Update(c.Request.Context(), id, app.UpdateInput{
		Text:     req.Text,
		Category: req.Category,
		Priority: req.Priority,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrNotFound):
			response.Error(c, http.StatusNotFound, response.CodeNotFound, "obligation not found")
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid text, category or priority")
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "update obligation failed")
		}
		return
	}
	response.OK(c, ob)
}

func (h *ObligationHandler) Delete(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil || id == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid obligation id")
		return
	}

	if err := h.obligationService.Delete(c.Request.Context(), id); err != nil {
		switch {
		case errors.Is(err, app.ErrNotFound):
			response.Error(c, http.StatusNotFound, response.CodeNotFound, "obligation not found")
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "delete obligation failed")
		}
		return
	}
	response.OK(c, gin.H{"deleted_obligation_id": id})
}
