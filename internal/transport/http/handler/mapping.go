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

type MappingHandler struct {
	mappingService *app.MappingService
}

func NewMappingHandler(mappingService *app.MappingService) *MappingHandler {
	return &MappingHandler{mappingService: mappingService}
}

type CreateMappingRequest struct {
	ObligationID uint    `json:"obligation_id" binding:"required"`
	MappingType  string  `json:"mapping_type" binding:"required"`
	ExternalID   string  `json:"external_id" binding:"required"`
	ExternalName string  `json:"external_name" binding:"required"`
	ExternalURL  *string `json:"external_url"`
	Notes        *string `json:"notes"`
}

func (h *MappingHandler) Create(c *gin.Context) {
	var req CreateMappingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	m, err := h.mappingService.Create(c.Request.Context(), app.CreateMappingInput{
		ObligationID: req.ObligationID,
		MappingType:  req.MappingType,
		ExternalID:   req.ExternalID,
		ExternalName: req.ExternalName,
		ExternalURL:  req.ExternalURL,
		Notes:        req.Notes,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrNotFound):
			response.Error(c, http.StatusNotFound, response.CodeNotFound, "obligation not found")
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid mapping type or external reference")
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "create mapping failed")
		}
		return
	}
	response.OK(c, m)
}

func (h *MappingHandler) List(c *gin.Context) {
	obligationID, _ := strconv.ParseUint(c.Query("obligation_id"), 10, 64)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	mappings, err := h.mappingService.List(repository.MappingFilter{
		ObligationID: uint(obligationID),
		MappingType:  c.Query("mapping_type"),
		Limit:        limit,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "unknown mapping type filter")
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list mappings failed")
		}
		return
	}
	response.OK(c, mappings)
}

func (h *MappingHandler) ListByObligation(c *gin.Context) {
	obligationID, err := parseUintParam(c, "id")
	if err != nil || obligationID == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid obligation id")
		return
	}

	mappings, err := h.mappingService.ListByObligation(obligationID)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrNotFound):
			response.Error(c, http.StatusNotFound, response.CodeNotFound, "obligation not found")
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list mappings failed")
		}
		return
	}
	response.OK(c, mappings)
}

func (h *MappingHandler) Delete(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil || id == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid mapping id")
		return
	}

	if err := h.mappingService.Delete(c.Request.Context(), id); err != nil {
		switch {
		case errors.Is(err, app.ErrNotFound):
			response.Error(c, http.StatusNotFound, response.CodeNotFound, "mapping not found")
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "delete mapping failed")
		}
		return
	}
	response.OK(c, gin.H{"deleted_mapping_id": id})
}
