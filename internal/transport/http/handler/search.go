package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"intelidoc/internal/app"
	"intelidoc/internal/search"
	"intelidoc/internal/transport/http/response"
)

type SearchHandler struct {
	searchService *app.SearchService
}

func NewSearchHandler(searchService *app.SearchService) *SearchHandler {
	return &SearchHandler{searchService: searchService}
}

func (h *SearchHandler) Search(c *gin.Context) {
	query := c.Query("q")
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "limit must be a positive integer")
		return
	}

	results, err := h.searchService.Search(c.Request.Context(), app.SearchInput{
		Query:    query,
		Limit:    limit,
		Category: c.Query("category"),
		Priority: c.Query("priority"),
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "query is empty or a filter value is unknown")
		case errors.Is(err, search.ErrInvalidLimit):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "limit must be a positive integer")
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "search failed")
		}
		return
	}
	response.OK(c, gin.H{"query": query, "results": results})
}
